// Copyright (c) The Farseek Authors
// SPDX-License-Identifier: MPL-2.0

package command

import (
	"flag"
	"fmt"
	"strings"
)

// ValidateCommand is a Command implementation that loads a graph
// definition file, applies its links through the normal validation
// path, and reports any problems without producing other output.
type ValidateCommand struct {
	Meta
}

func (c *ValidateCommand) Run(args []string) int {
	cmdFlags := flag.NewFlagSet("validate", flag.ContinueOnError)
	cmdFlags.BoolVar(&c.Meta.Color, "color", c.Meta.Color, "colorize output")
	noColor := cmdFlags.Bool("no-color", false, "disable colorized output")
	cmdFlags.Usage = func() { c.Ui.Error(c.Help()) }
	if err := cmdFlags.Parse(args); err != nil {
		return 1
	}
	if *noColor {
		c.Meta.Color = false
	}

	if cmdFlags.NArg() != 1 {
		c.Ui.Error("The validate command expects exactly one graph definition file.")
		c.Ui.Error(c.Help())
		return 1
	}

	g, diags := c.loadGraph(cmdFlags.Arg(0), "")
	c.showDiagnostics(diags)
	if diags.HasErrors() {
		return 1
	}

	c.Ui.Output(c.Colorize().Color(fmt.Sprintf(
		"[green][bold]Success![reset] The graph is valid: %d containers.", len(g.Nodes))))
	return 0
}

func (c *ValidateCommand) Help() string {
	helpText := `
Usage: slotgraph validate [options] FILE

  Loads the given graph definition file, builds its containers and
  slot trees, and validates every link. Nothing is output on success
  beyond a confirmation message.

Options:

  -no-color    Disable colorized output.
`
	return strings.TrimSpace(helpText)
}

func (c *ValidateCommand) Synopsis() string {
	return "Check whether a graph definition file is valid"
}
