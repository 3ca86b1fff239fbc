// Copyright (c) The Farseek Authors
// SPDX-License-Identifier: MPL-2.0

package command

import (
	"flag"
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/rafagsiqueira/slotgraph/internal/graphio"
	"github.com/rafagsiqueira/slotgraph/internal/props"
	"github.com/rafagsiqueira/slotgraph/internal/slots"
)

// ShowCommand is a Command implementation that loads a graph, runs
// initialization, and renders every container with its slots, current
// expressions and links.
type ShowCommand struct {
	Meta
}

func (c *ShowCommand) Run(args []string) int {
	cmdFlags := flag.NewFlagSet("show", flag.ContinueOnError)
	statePath := cmdFlags.String("state", "", "read the graph from a state file")
	noColor := cmdFlags.Bool("no-color", false, "disable colorized output")
	cmdFlags.Usage = func() { c.Ui.Error(c.Help()) }
	if err := cmdFlags.Parse(args); err != nil {
		return 1
	}
	if *noColor {
		c.Meta.Color = false
	}

	defPath := ""
	switch {
	case cmdFlags.NArg() == 1 && *statePath == "":
		defPath = cmdFlags.Arg(0)
	case cmdFlags.NArg() == 0 && *statePath != "":
	default:
		c.Ui.Error("The show command expects a graph definition file or -state=FILE.")
		c.Ui.Error(c.Help())
		return 1
	}

	g, diags := c.loadGraph(defPath, *statePath)
	c.showDiagnostics(diags)
	if diags.HasErrors() {
		return 1
	}

	colorize := c.Colorize()
	for i, n := range g.Nodes {
		if i > 0 {
			c.Ui.Output("")
		}
		c.Ui.Output(colorize.Color(fmt.Sprintf("[bold]container %q[reset]", n.Name())))
		for j := 0; j < n.NumInputSlots(); j++ {
			c.renderSlot(n.InputSlot(j), "  ")
		}
		for j := 0; j < n.NumOutputSlots(); j++ {
			c.renderSlot(n.OutputSlot(j), "  ")
		}
	}
	return 0
}

// renderSlot prints one slot line, recursing into children that hold
// their own links so partial composite wiring stays visible.
func (c *ShowCommand) renderSlot(s *slots.Slot, indent string) {
	colorize := c.Colorize()

	var buf strings.Builder
	fmt.Fprintf(&buf, "%s%s %q %s", indent, s.Direction(), s.Property().Name,
		props.TypeDisplayName(s.Property().Type))
	if e := s.Expression(); e != nil {
		fmt.Fprintf(&buf, " = %s", formatValue(e.Value()))
	}
	for _, peer := range s.LinkedSlots() {
		fmt.Fprintf(&buf, colorize.Color(" [dark_gray]<- %s[reset]"), peerName(peer))
	}
	c.Ui.Output(buf.String())

	for i := 0; i < s.NumChildren(); i++ {
		if ch := s.Child(i); treeHasLinks(ch) {
			c.renderSlot(ch, indent+"  ")
		}
	}
}

func treeHasLinks(s *slots.Slot) bool {
	if len(s.LinkedSlots()) > 0 {
		return true
	}
	for i := 0; i < s.NumChildren(); i++ {
		if treeHasLinks(s.Child(i)) {
			return true
		}
	}
	return false
}

func peerName(s *slots.Slot) string {
	var parts []string
	for t := s; t != nil; t = t.Parent() {
		parts = append([]string{t.Property().Name}, parts...)
	}
	if owner, ok := s.Owner().(*graphio.Node); ok {
		parts = append([]string{owner.Name()}, parts...)
	}
	return strings.Join(parts, ".")
}

// formatValue renders a slot expression value for human output.
func formatValue(v cty.Value) string {
	switch {
	case v.IsNull():
		return "null"
	case v.Type().Equals(cty.Number):
		return v.AsBigFloat().Text('g', -1)
	case v.Type().Equals(cty.String):
		return fmt.Sprintf("%q", v.AsString())
	case v.Type().Equals(cty.Bool):
		if v.True() {
			return "true"
		}
		return "false"
	case v.Type().IsObjectType():
		subs := props.Property{Type: v.Type()}.SubProperties()
		parts := make([]string, 0, len(subs))
		for _, sub := range subs {
			parts = append(parts, fmt.Sprintf("%s = %s", sub.Name, formatValue(v.GetAttr(sub.Name))))
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case v.Type().IsCapsuleType():
		return "<" + props.TypeDisplayName(v.Type()) + ">"
	default:
		return v.GoString()
	}
}

func (c *ShowCommand) Help() string {
	helpText := `
Usage: slotgraph show [options] [FILE]

  Loads a graph from the given definition file, or from a state file
  with -state, initializes it, and renders every container with its
  slots, current expressions and links.

Options:

  -state=FILE  Read the graph from a persisted state file instead of
               a definition file.

  -no-color    Disable colorized output.
`
	return strings.TrimSpace(helpText)
}

func (c *ShowCommand) Synopsis() string {
	return "Render the containers, slots and links of a graph"
}
