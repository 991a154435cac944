// Copyright 2026 The Bundlelab Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bundlelab/bundlelab/cmd/bundlelab/cli"
)

func loginCommand() *cli.Command {
	var username string
	return &cli.Command{
		Name:    "login",
		Summary: "authenticate and store the session cookie",
		Description: "Log in to the configured server. The session cookie is stored\n" +
			"in the data directory (user-readable only) and reused by every\n" +
			"other command until it expires or 'bundlelab logout' removes it.",
		Usage: "bundlelab login [--username NAME]",
		Flags: func() *pflag.FlagSet {
			flagSet := newFlagSet("login")
			flagSet.StringVarP(&username, "username", "u", "", "account name (prompted when omitted)")
			return flagSet
		},
		Examples: []cli.Example{
			{Description: "log in, prompting for credentials", Command: "bundlelab login"},
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("login takes no positional arguments")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger()
			client, err := newClient(cfg, logger)
			if err != nil {
				return err
			}

			if username == "" {
				fmt.Fprint(os.Stderr, "username: ")
				line, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil {
					return fmt.Errorf("reading username: %w", err)
				}
				username = strings.TrimSpace(line)
			}

			password, err := readPassword()
			if err != nil {
				return err
			}

			if err := client.Login(context.Background(), username, password); err != nil {
				return err
			}
			if err := cfg.SaveSession(client.SessionCookie()); err != nil {
				return err
			}
			fmt.Printf("logged in as %s\n", username)
			return nil
		},
	}
}

// readPassword reads the password without echo when stdin is a
// terminal, falling back to a plain line read for piped input.
func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "password: ")
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(raw), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:    "logout",
		Summary: "discard the stored session cookie",
		Flags:   func() *pflag.FlagSet { return newFlagSet("logout") },
		Run: func(args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.ClearSession(); err != nil {
				return err
			}
			fmt.Println("logged out")
			return nil
		},
	}
}
