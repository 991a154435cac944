// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bundlelab/bundlelab/cmd/bundlelab/cli"
	"github.com/bundlelab/bundlelab/lib/bundle"
	"github.com/bundlelab/bundlelab/lib/ref"
)

func bundleCommand() *cli.Command {
	return &cli.Command{
		Name:    "bundle",
		Summary: "inspect bundles",
		Subcommands: []*cli.Command{
			bundleInfoCommand(),
			bundleContentsCommand(),
			bundleCatCommand(),
		},
	}
}

func bundleInfoCommand() *cli.Command {
	return &cli.Command{
		Name:    "info",
		Summary: "show a bundle's state and metadata",
		Usage:   "bundlelab bundle info UUID",
		Flags:   func() *pflag.FlagSet { return newFlagSet("info") },
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: bundlelab bundle info UUID")
			}
			uuid, err := ref.ParseBundleUUID(args[0])
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

			document, err := client.FetchBundle(context.Background(), uuid)
			if err != nil {
				return err
			}
			info, err := bundle.NormalizeBundleDocument(document)
			if err != nil {
				return err
			}
			printBundleInfo(info)
			return nil
		},
	}
}

func printBundleInfo(info *bundle.Info) {
	tw := tabwriter.NewWriter(os.Stdout, 2, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "uuid\t%s\n", info.UUID)
	fmt.Fprintf(tw, "kind\t%s\n", info.Kind)
	fmt.Fprintf(tw, "state\t%s\n", info.State)
	if info.StateDetails != "" {
		fmt.Fprintf(tw, "details\t%s\n", info.StateDetails)
	}
	if info.Command != "" {
		fmt.Fprintf(tw, "command\t%s\n", info.Command)
	}
	fmt.Fprintf(tw, "owner\t%s\n", info.Owner.UserName)
	if duration, ok := bundle.DisplayTime(info.State, info.Metadata); ok {
		fmt.Fprintf(tw, "time\t%s\n", duration)
	}

	keys := make([]string, 0, len(info.Metadata))
	for key := range info.Metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if value, ok := info.Metadata.String(key); ok {
			fmt.Fprintf(tw, "meta.%s\t%s\n", key, value)
		}
	}
	tw.Flush()
}

func bundleContentsCommand() *cli.Command {
	return &cli.Command{
		Name:    "contents",
		Summary: "list a directory inside a bundle",
		Usage:   "bundlelab bundle contents UUID [PATH]",
		Flags:   func() *pflag.FlagSet { return newFlagSet("contents") },
		Run: func(args []string) error {
			if len(args) < 1 || len(args) > 2 {
				return fmt.Errorf("usage: bundlelab bundle contents UUID [PATH]")
			}
			uuid, err := ref.ParseBundleUUID(args[0])
			if err != nil {
				return err
			}
			path := "/"
			if len(args) == 2 {
				path = args[1]
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := newClient(cfg, newLogger())
			if err != nil {
				return err
			}

			raw, err := client.FetchContentsInfo(context.Background(), uuid, path, 1)
			if err != nil {
				return err
			}
			node, err := bundle.ParseContentsNode(raw)
			if err != nil {
				return err
			}
			if node.Type != bundle.NodeDirectory {
				fmt.Printf("%s (%s, %d bytes)\n", path, node.Type, node.Size)
				return nil
			}
			bundle.SortEntries(node.Contents)
			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 2, ' ', 0)
			for _, entry := range node.Contents {
				switch entry.Type {
				case bundle.NodeDirectory:
					fmt.Fprintf(tw, "%s/\t\n", entry.Name)
				case bundle.NodeLink:
					fmt.Fprintf(tw, "%s\t-> %s\n", entry.Name, entry.Link)
				default:
					fmt.Fprintf(tw, "%s\t%d\n", entry.Name, entry.Size)
				}
			}
			tw.Flush()
			return nil
		},
	}
}

func bundleCatCommand() *cli.Command {
	return &cli.Command{
		Name:    "cat",
		Summary: "print a file summary (head and tail) from a bundle",
		Usage:   "bundlelab bundle cat UUID PATH",
		Flags:   func() *pflag.FlagSet { return newFlagSet("cat") },
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("usage: bundlelab bundle cat UUID PATH")
			}
			uuid, err := ref.ParseBundleUUID(args[0])
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

			text, err := client.FetchFileSummary(context.Background(), uuid, args[1],
				bundle.SummaryHeadLines, bundle.SummaryTailLines, bundle.TruncationMarker)
			if err != nil {
				return err
			}
			fmt.Print(text)
			return nil
		},
	}
}
