// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bundlelab/bundlelab/cmd/bundlelab/cli"
	"github.com/bundlelab/bundlelab/lib/api"
	"github.com/bundlelab/bundlelab/lib/dashboard"
)

func dashboardCommand() *cli.Command {
	return &cli.Command{
		Name:    "dashboard",
		Summary: "show your bundle counts and worksheets",
		Flags:   func() *pflag.FlagSet { return newFlagSet("dashboard") },
		Run: func(args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger()
			client, err := authenticatedClient(cfg, logger)
			if err != nil {
				return err
			}
			ctx := context.Background()

			user, err := client.FetchUser(ctx)
			if err != nil {
				return err
			}
			aggregator, err := dashboard.New(client, logger)
			if err != nil {
				return err
			}
			summary, err := aggregator.Load(ctx, user.UserName)
			if err != nil {
				return err
			}
			printDashboard(user.UserName, summary)
			return nil
		},
	}
}

func printDashboard(user string, summary *dashboard.Summary) {
	fmt.Printf("bundles owned by %s:\n", user)
	if len(summary.Buckets) == 0 {
		fmt.Println("  none")
	}
	tw := tabwriter.NewWriter(os.Stdout, 2, 0, 2, ' ', 0)
	for _, bucket := range summary.Buckets {
		fmt.Fprintf(tw, "  %s\t%d\n", bucket.Label, bucket.Count)
	}
	tw.Flush()

	printWorksheetList("your worksheets", summary.Owned)
	printWorksheetList("shared with you", summary.Shared)
}

func printWorksheetList(heading string, sheets []api.WorksheetSummary) {
	fmt.Printf("\n%s:\n", heading)
	if len(sheets) == 0 {
		fmt.Println("  none")
		return
	}
	tw := tabwriter.NewWriter(os.Stdout, 2, 0, 2, ' ', 0)
	for _, sheet := range sheets {
		title := sheet.Title
		if title == "" {
			title = sheet.Name
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", sheet.Name, title, sheet.UUID)
	}
	tw.Flush()
}
