// Copyright (c) The Farseek Authors
// SPDX-License-Identifier: MPL-2.0

// Command slotgraph is a CLI front end for the slot graph engine: it
// loads graph definition files, validates and initializes them, and
// renders their containers, expressions and dependencies.
package main

import (
	"fmt"
	"os"

	"github.com/mitchellh/cli"

	"github.com/rafagsiqueira/slotgraph/internal/command"
	"github.com/rafagsiqueira/slotgraph/internal/logging"
	"github.com/rafagsiqueira/slotgraph/version"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	logging.HCLogger().Debug("slotgraph starting", "version", version.String())

	meta := command.Meta{
		Ui: &cli.BasicUi{
			Writer:      os.Stdout,
			ErrorWriter: os.Stderr,
			Reader:      os.Stdin,
		},
		Color: true,
	}

	c := cli.NewCLI("slotgraph", version.String())
	c.Args = os.Args[1:]
	c.Commands = map[string]cli.CommandFactory{
		"validate": func() (cli.Command, error) {
			return &command.ValidateCommand{Meta: meta}, nil
		},
		"show": func() (cli.Command, error) {
			return &command.ShowCommand{Meta: meta}, nil
		},
		"graph": func() (cli.Command, error) {
			return &command.GraphCommand{Meta: meta}, nil
		},
		"version": func() (cli.Command, error) {
			return &command.VersionCommand{Meta: meta}, nil
		},
	}
	c.HelpWriter = os.Stdout

	exitStatus, err := c.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error executing CLI: %s\n", err)
		return 1
	}
	return exitStatus
}
