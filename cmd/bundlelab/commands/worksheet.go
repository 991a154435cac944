// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bundlelab/bundlelab/cmd/bundlelab/cli"
	"github.com/bundlelab/bundlelab/lib/ref"
	"github.com/bundlelab/bundlelab/lib/worksheet"
)

func worksheetCommand() *cli.Command {
	return &cli.Command{
		Name:    "worksheet",
		Summary: "show and edit worksheets",
		Subcommands: []*cli.Command{
			worksheetShowCommand(),
			worksheetAddCommand(),
		},
	}
}

func worksheetShowCommand() *cli.Command {
	return &cli.Command{
		Name:    "show",
		Summary: "print a worksheet's items",
		Usage:   "bundlelab worksheet show UUID",
		Flags:   func() *pflag.FlagSet { return newFlagSet("show") },
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: bundlelab worksheet show UUID")
			}
			uuid, err := ref.ParseWorksheetUUID(args[0])
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := newClient(cfg, newLogger())
			if err != nil {
				return err
			}

			raw, err := client.FetchWorksheet(context.Background(), uuid)
			if err != nil {
				return err
			}
			sheet, err := worksheet.ParseInterpreted(raw)
			if err != nil {
				return err
			}
			printWorksheet(sheet)
			return nil
		},
	}
}

func printWorksheet(sheet *worksheet.Worksheet) {
	title := sheet.Title
	if title == "" {
		title = sheet.Name
	}
	fmt.Printf("%s  [%s]  owner=%s", title, sheet.Name, sheet.Owner)
	if sheet.Frozen {
		fmt.Print("  frozen")
	}
	fmt.Println()
	fmt.Println(strings.Repeat("-", 60))

	for _, item := range sheet.Items {
		switch item.Type {
		case worksheet.ItemMarkup:
			fmt.Println(item.Markup)
		case worksheet.ItemTable:
			for _, uuid := range item.BundleUUIDs {
				fmt.Printf("  {%s}\n", uuid)
			}
		case worksheet.ItemSubworksheet:
			fmt.Printf("  {{%s}}\n", item.SubworksheetUUID)
		case worksheet.ItemGraph:
			fmt.Printf("  [graph of %d bundles]\n", len(item.BundleUUIDs))
		}
	}
}

func worksheetAddCommand() *cli.Command {
	var bundles []string
	return &cli.Command{
		Name:    "add",
		Summary: "append markup or bundle references to a worksheet",
		Usage:   "bundlelab worksheet add UUID [TEXT...] [--bundle UUID]...",
		Flags: func() *pflag.FlagSet {
			flagSet := newFlagSet("add")
			flagSet.StringArrayVar(&bundles, "bundle", nil, "bundle UUID to reference (repeatable)")
			return flagSet
		},
		Examples: []cli.Example{
			{Description: "append a markup block", Command: `bundlelab worksheet add 0xabc... "## Results"`},
			{Description: "reference a bundle", Command: "bundlelab worksheet add 0xabc... --bundle 0xdef..."},
		},
		Run: func(args []string) error {
			if len(args) < 1 {
				return fmt.Errorf("usage: bundlelab worksheet add UUID [TEXT...] [--bundle UUID]...")
			}
			uuid, err := ref.ParseWorksheetUUID(args[0])
			if err != nil {
				return err
			}
			text := args[1:]
			if len(text) == 0 && len(bundles) == 0 {
				return fmt.Errorf("nothing to add: give markup text or --bundle")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := authenticatedClient(cfg, newLogger())
			if err != nil {
				return err
			}
			ctx := context.Background()

			if len(text) > 0 {
				payload := worksheet.NewMarkupItems(nil, strings.Join(text, " "))
				if err := client.AddWorksheetItems(ctx, uuid, payload); err != nil {
					return err
				}
			}
			if len(bundles) > 0 {
				uuids := make([]ref.BundleUUID, len(bundles))
				for i, raw := range bundles {
					parsed, err := ref.ParseBundleUUID(raw)
					if err != nil {
						return err
					}
					uuids[i] = parsed
				}
				payload := worksheet.NewBundleItems(nil, uuids...)
				if err := client.AddWorksheetItems(ctx, uuid, payload); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
