// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bundlelab/bundlelab/cmd/bundlelab/cli"
	"github.com/bundlelab/bundlelab/lib/ref"
	"github.com/bundlelab/bundlelab/lib/terminal"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Summary: "execute a platform command against a worksheet",
		Usage:   "bundlelab run WORKSHEET-UUID COMMAND...",
		Examples: []cli.Example{
			{Description: "launch a run bundle", Command: `bundlelab run 0xabc... "cl run :data 'python train.py'"`},
		},
		Flags: func() *pflag.FlagSet { return newFlagSet("run") },
		Run: func(args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("usage: bundlelab run WORKSHEET-UUID COMMAND...")
			}
			uuid, err := ref.ParseWorksheetUUID(args[0])
			if err != nil {
				return err
			}
			command := strings.Join(args[1:], " ")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger()
			client, err := authenticatedClient(cfg, logger)
			if err != nil {
				return err
			}

			// One-shot execution: no history, no UI to dispatch into.
			engine, err := terminal.New(terminal.Config{Client: client, Logger: logger})
			if err != nil {
				return err
			}
			lines, err := engine.Execute(context.Background(), uuid, command)
			for _, line := range lines {
				if line.IsError {
					fmt.Fprintln(os.Stderr, line.Text())
				} else {
					fmt.Println(line.Text())
				}
			}
			return err
		},
	}
}
