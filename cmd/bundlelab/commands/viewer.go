// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/bundlelab/bundlelab/cmd/bundlelab/cli"
	"github.com/bundlelab/bundlelab/lib/browser"
	"github.com/bundlelab/bundlelab/lib/detail"
	"github.com/bundlelab/bundlelab/lib/ref"
	"github.com/bundlelab/bundlelab/lib/snapcache"
	"github.com/bundlelab/bundlelab/lib/terminal"
	"github.com/bundlelab/bundlelab/lib/worksheet"
	"github.com/bundlelab/bundlelab/lib/wsui"
)

func viewerCommand() *cli.Command {
	return &cli.Command{
		Name:    "viewer",
		Summary: "open the interactive worksheet viewer",
		Usage:   "bundlelab viewer WORKSHEET-UUID",
		Flags:   func() *pflag.FlagSet { return newFlagSet("viewer") },
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: bundlelab viewer WORKSHEET-UUID")
			}
			uuid, err := ref.ParseWorksheetUUID(args[0])
			if err != nil {
				return err
			}
			return runViewer(uuid)
		},
	}
}

func runViewer(uuid ref.WorksheetUUID) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.EnsurePaths(); err != nil {
		return err
	}
	logger := newLogger()
	client, err := authenticatedClient(cfg, logger)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	keys, theme, err := wsui.LoadSettings(cfg.Viewer.SettingsFile)
	if err != nil {
		return err
	}

	user, err := client.FetchUser(ctx)
	if err != nil {
		return err
	}

	fetchSheet := func(ctx context.Context) (*worksheet.Worksheet, error) {
		raw, err := client.FetchWorksheet(ctx, uuid)
		if err != nil {
			return nil, err
		}
		return worksheet.ParseInterpreted(raw)
	}
	sheet, err := fetchSheet(ctx)
	if err != nil {
		return err
	}

	cache, err := snapcache.Open(cfg.SnapshotCacheDir())
	if err != nil {
		// The cache only saves a loading flicker; run without it.
		logger.Warn("snapshot cache unavailable", "error", err)
		cache = nil
	}

	detailEngine, err := detail.New(detail.Config{
		Client: client,
		Logger: logger,
		Cache:  cache,
	})
	if err != nil {
		return err
	}
	browserEngine, err := browser.New(browser.Config{
		Client: client,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	history, err := terminal.OpenHistory(cfg.HistoryPath(user.UserName), logger)
	if err != nil {
		logger.Warn("command history unavailable", "error", err)
		history = nil
	} else {
		defer history.Close()
	}

	// The terminal engine and the model reference each other: the
	// model dispatches commands to the engine, and the engine pushes
	// server UI actions back through the model's dispatcher. The model
	// is built first and the engine attached after.
	model := wsui.NewModel(wsui.Config{
		Theme:   theme,
		Keys:    keys,
		Sheet:   sheet,
		Detail:  detailEngine,
		Browser: browserEngine,
		Reload:  fetchSheet,
	})

	terminalEngine, err := terminal.New(terminal.Config{
		Client:     client,
		Logger:     logger,
		History:    history,
		Dispatcher: model.Dispatcher(),
	})
	if err != nil {
		return err
	}
	model.SetTerminal(terminalEngine)

	go detailEngine.Run(ctx)
	go browserEngine.Run(ctx)

	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}
