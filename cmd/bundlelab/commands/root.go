// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands defines the bundlelab command tree.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/bundlelab/bundlelab/cmd/bundlelab/cli"
	"github.com/bundlelab/bundlelab/lib/api"
	"github.com/bundlelab/bundlelab/lib/config"
)

// Root returns the top-level command.
func Root() *cli.Command {
	return &cli.Command{
		Name:    "bundlelab",
		Summary: "terminal client for the bundle/worksheet research platform",
		Description: "bundlelab is a terminal client for the bundle/worksheet research\n" +
			"platform: inspect bundles, browse worksheets, run commands, and\n" +
			"watch executions live.",
		Subcommands: []*cli.Command{
			loginCommand(),
			logoutCommand(),
			bundleCommand(),
			worksheetCommand(),
			dashboardCommand(),
			runCommand(),
			viewerCommand(),
		},
	}
}

// configPath is set by the shared --config flag; empty falls back to
// the BUNDLELAB_CONFIG environment variable.
var configPath string

// verbose is set by the shared --verbose flag.
var verbose bool

// newFlagSet creates a flag set carrying the flags every command
// accepts.
func newFlagSet(name string) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to the bundlelab.yaml config file")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	return flagSet
}

// loadConfig loads and validates the configuration.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the CLI's logger: human-readable on stderr, debug
// level behind --verbose.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newClient creates the API client with the persisted session, when
// one exists.
func newClient(cfg *config.Config, logger *slog.Logger) (*api.Client, error) {
	cookie, err := cfg.LoadSession()
	if err != nil {
		return nil, err
	}
	return api.NewClient(api.ClientConfig{
		ServerURL:     cfg.Server.URL,
		Logger:        logger,
		SessionCookie: cookie,
	})
}

// authenticatedClient is newClient plus a login check, for commands
// that cannot work anonymously.
func authenticatedClient(cfg *config.Config, logger *slog.Logger) (*api.Client, error) {
	client, err := newClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	if !client.Authenticated() {
		return nil, fmt.Errorf("not logged in; run 'bundlelab login' first")
	}
	return client, nil
}
