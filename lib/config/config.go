// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the bundlelab
// client.
//
// Configuration is loaded from a single YAML file specified by:
//   - BUNDLELAB_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery; this keeps the
// configuration deterministic and auditable. The file may contain
// environment-specific sections (development, staging, production)
// that override base values when the environment matches.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for the client.
type Config struct {
	// Environment identifies the deployment type.
	Environment Environment `yaml:"environment"`

	// Server configures the platform API endpoint.
	Server ServerConfig `yaml:"server"`

	// Paths configures directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Viewer configures the terminal worksheet viewer.
	Viewer ViewerConfig `yaml:"viewer"`

	// Per-environment overrides, applied after the base config.
	Development *Overrides `yaml:"development,omitempty"`
	Staging     *Overrides `yaml:"staging,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides contains the fields that can be overridden per environment.
type Overrides struct {
	Server *ServerConfig `yaml:"server,omitempty"`
	Paths  *PathsConfig  `yaml:"paths,omitempty"`
	Viewer *ViewerConfig `yaml:"viewer,omitempty"`
}

// ServerConfig configures the platform API endpoint.
type ServerConfig struct {
	// URL is the server base URL, e.g. "https://worksheets.example.org".
	URL string `yaml:"url"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for client data.
	Root string `yaml:"root"`

	// Cache holds regenerable state: snapshot caches, rendered
	// markdown. Safe to delete.
	Cache string `yaml:"cache"`

	// Data holds durable per-user state: the session cookie and the
	// command history databases.
	Data string `yaml:"data"`
}

// ViewerConfig configures the terminal worksheet viewer.
type ViewerConfig struct {
	// SettingsFile is the path to the viewer settings (keybindings,
	// theme) in JSONC. Empty means built-in defaults.
	SettingsFile string `yaml:"settings_file"`
}

// Default returns the default configuration. These defaults ensure
// every field has a sensible zero-value before the config file is
// merged in; the file itself is still required.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".local", "share", "bundlelab")

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root:  defaultRoot,
			Cache: filepath.Join(defaultRoot, "cache"),
			Data:  filepath.Join(defaultRoot, "data"),
		},
	}
}

// Load loads configuration from the BUNDLELAB_CONFIG environment
// variable. There are no fallbacks: if the variable is not set, Load
// fails.
func Load() (*Config, error) {
	configPath := os.Getenv("BUNDLELAB_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("BUNDLELAB_CONFIG environment variable not set; " +
			"set it to the path of your bundlelab.yaml config file, or use --config")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. The config
// file is the single source of truth; environment variables do not
// override values. The only expansion performed is ${VAR} in paths.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

// applyEnvironmentOverrides applies the section matching Environment.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}
	if overrides == nil {
		return
	}

	if overrides.Server != nil && overrides.Server.URL != "" {
		c.Server.URL = overrides.Server.URL
	}
	if overrides.Paths != nil {
		if overrides.Paths.Root != "" {
			c.Paths.Root = overrides.Paths.Root
		}
		if overrides.Paths.Cache != "" {
			c.Paths.Cache = overrides.Paths.Cache
		}
		if overrides.Paths.Data != "" {
			c.Paths.Data = overrides.Paths.Data
		}
	}
	if overrides.Viewer != nil && overrides.Viewer.SettingsFile != "" {
		c.Viewer.SettingsFile = overrides.Viewer.SettingsFile
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"BUNDLELAB_ROOT": c.Paths.Root,
		"HOME":           os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["BUNDLELAB_ROOT"] = c.Paths.Root

	c.Paths.Cache = expandVars(c.Paths.Cache, vars)
	c.Paths.Data = expandVars(c.Paths.Data, vars)
	c.Viewer.SettingsFile = expandVars(c.Viewer.SettingsFile, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}
	if c.Server.URL == "" {
		errs = append(errs, fmt.Errorf("server.url is required"))
	} else if parsed, err := url.Parse(c.Server.URL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		errs = append(errs, fmt.Errorf("server.url %q is not an absolute URL", c.Server.URL))
	}
	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates the configured directories if they don't exist.
func (c *Config) EnsurePaths() error {
	for _, path := range []string{c.Paths.Root, c.Paths.Cache, c.Paths.Data} {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("config: creating %s: %w", path, err)
		}
	}
	return nil
}

// SnapshotCacheDir is where engine snapshot caches live.
func (c *Config) SnapshotCacheDir() string {
	return filepath.Join(c.Paths.Cache, "snapshots")
}

// HistoryPath is the per-user terminal history database.
func (c *Config) HistoryPath(user string) string {
	return filepath.Join(c.Paths.Data, user+"-history.db")
}

// sessionFile is where the session cookie is persisted.
func (c *Config) sessionFile() string {
	return filepath.Join(c.Paths.Data, "session")
}

// SaveSession persists the session cookie, readable only by the user.
func (c *Config) SaveSession(cookie string) error {
	if err := os.MkdirAll(c.Paths.Data, 0o755); err != nil {
		return fmt.Errorf("config: creating data dir: %w", err)
	}
	if err := os.WriteFile(c.sessionFile(), []byte(cookie+"\n"), 0o600); err != nil {
		return fmt.Errorf("config: writing session: %w", err)
	}
	return nil
}

// LoadSession returns the persisted session cookie, "" when none is
// stored.
func (c *Config) LoadSession() (string, error) {
	data, err := os.ReadFile(c.sessionFile())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("config: reading session: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// ClearSession removes the persisted session cookie.
func (c *Config) ClearSession() error {
	err := os.Remove(c.sessionFile())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: removing session: %w", err)
	}
	return nil
}
