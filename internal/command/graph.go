// Copyright (c) The Farseek Authors
// SPDX-License-Identifier: MPL-2.0

package command

import (
	"flag"
	"strings"
)

// GraphCommand is a Command implementation that renders the container
// dependency graph in dot format, for piping into GraphViz.
type GraphCommand struct {
	Meta
}

func (c *GraphCommand) Run(args []string) int {
	cmdFlags := flag.NewFlagSet("graph", flag.ContinueOnError)
	statePath := cmdFlags.String("state", "", "read the graph from a state file")
	cmdFlags.Usage = func() { c.Ui.Error(c.Help()) }
	if err := cmdFlags.Parse(args); err != nil {
		return 1
	}

	defPath := ""
	switch {
	case cmdFlags.NArg() == 1 && *statePath == "":
		defPath = cmdFlags.Arg(0)
	case cmdFlags.NArg() == 0 && *statePath != "":
	default:
		c.Ui.Error("The graph command expects a graph definition file or -state=FILE.")
		c.Ui.Error(c.Help())
		return 1
	}

	g, diags := c.loadGraph(defPath, *statePath)
	c.showDiagnostics(diags)
	if diags.HasErrors() {
		return 1
	}

	c.Ui.Output(strings.TrimSpace(g.Dot()))
	return 0
}

func (c *GraphCommand) Help() string {
	helpText := `
Usage: slotgraph graph [options] [FILE]

  Outputs the container dependency graph in DOT format, suitable for
  rendering with GraphViz:

      slotgraph graph scene.sg.hcl | dot -Tsvg > scene.svg

Options:

  -state=FILE  Read the graph from a persisted state file instead of
               a definition file.
`
	return strings.TrimSpace(helpText)
}

func (c *GraphCommand) Synopsis() string {
	return "Output the container dependency graph in DOT format"
}
