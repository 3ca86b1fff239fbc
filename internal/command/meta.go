// Copyright (c) The Farseek Authors
// SPDX-License-Identifier: MPL-2.0

// Package command implements the slotgraph CLI commands. Each command
// embeds Meta, which carries the UI and the shared loading and
// diagnostic-rendering helpers.
package command

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/cli"
	"github.com/mitchellh/colorstring"

	"github.com/rafagsiqueira/slotgraph/internal/graphio"
	"github.com/rafagsiqueira/slotgraph/internal/sgdiags"
	"github.com/rafagsiqueira/slotgraph/internal/slots"
)

// Meta is the common state for all commands.
type Meta struct {
	Ui cli.Ui

	// Color controls colorized output. Commands with a -no-color flag
	// clear it before rendering.
	Color bool

	registry *slots.KindRegistry
}

// Registry returns the slot kind registry commands build graphs with.
func (m *Meta) Registry() *slots.KindRegistry {
	if m.registry == nil {
		m.registry = slots.DefaultRegistry()
	}
	return m.registry
}

// Colorize returns the colorization configuration for output rendering.
func (m *Meta) Colorize() *colorstring.Colorize {
	return &colorstring.Colorize{
		Colors:  colorstring.DefaultColors,
		Disable: !m.Color,
		Reset:   true,
	}
}

// loadGraph loads a graph from a definition file or a state file,
// depending on the statePath argument, and initializes it so slot
// expressions are readable.
func (m *Meta) loadGraph(defPath, statePath string) (*graphio.Graph, sgdiags.Diagnostics) {
	var diags sgdiags.Diagnostics

	var g *graphio.Graph
	switch {
	case statePath != "":
		f, err := os.Open(statePath)
		if err != nil {
			return nil, diags.Append(err)
		}
		defer f.Close()
		g, err = graphio.ReadState(f, m.Registry())
		if err != nil {
			return nil, diags.Append(err)
		}
	default:
		var loadDiags sgdiags.Diagnostics
		g, loadDiags = graphio.LoadGraphFile(defPath, m.Registry())
		diags = diags.Append(loadDiags)
		if diags.HasErrors() {
			return nil, diags
		}
	}

	if err := g.Initialize(); err != nil {
		return nil, diags.Append(err)
	}
	return g, diags
}

// showDiagnostics renders accumulated diagnostics: errors to the error
// stream, warnings to the output stream.
func (m *Meta) showDiagnostics(diags sgdiags.Diagnostics) {
	colorize := m.Colorize()
	for _, diag := range diags {
		desc := diag.Description()

		var buf strings.Builder
		switch diag.Severity() {
		case sgdiags.Error:
			buf.WriteString(colorize.Color("[red]Error: [reset][bold]"))
		case sgdiags.Warning:
			buf.WriteString(colorize.Color("[yellow]Warning: [reset][bold]"))
		}
		buf.WriteString(colorize.Color(desc.Summary + "[reset]"))
		if desc.Detail != "" {
			fmt.Fprintf(&buf, "\n\n%s", desc.Detail)
		}

		if diag.Severity() == sgdiags.Error {
			m.Ui.Error(buf.String())
		} else {
			m.Ui.Warn(buf.String())
		}
	}
}
