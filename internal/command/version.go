// Copyright (c) The Farseek Authors
// SPDX-License-Identifier: MPL-2.0

package command

import (
	"encoding/json"
	"flag"
	"fmt"
	"strings"

	"github.com/rafagsiqueira/slotgraph/version"
)

// VersionCommand is a Command implementation that prints the version.
type VersionCommand struct {
	Meta
}

type versionOutput struct {
	Version string `json:"slotgraph_version"`
}

func (c *VersionCommand) Run(args []string) int {
	cmdFlags := flag.NewFlagSet("version", flag.ContinueOnError)
	jsonOutput := cmdFlags.Bool("json", false, "output the version information as a JSON object")
	cmdFlags.Usage = func() { c.Ui.Error(c.Help()) }
	if err := cmdFlags.Parse(args); err != nil {
		return 1
	}

	if *jsonOutput {
		out, err := json.MarshalIndent(versionOutput{Version: version.String()}, "", "  ")
		if err != nil {
			c.Ui.Error(fmt.Sprintf("\nError marshalling JSON: %s", err))
			return 1
		}
		c.Ui.Output(string(out))
		return 0
	}

	c.Ui.Output(fmt.Sprintf("Slotgraph v%s", version.String()))
	return 0
}

func (c *VersionCommand) Help() string {
	helpText := `
Usage: slotgraph version [options]

  Displays the version of Slotgraph.

Options:

  -json       Output the version information as a JSON object.
`
	return strings.TrimSpace(helpText)
}

func (c *VersionCommand) Synopsis() string {
	return "Show the current Slotgraph version"
}
