// Copyright (c) The Farseek Authors
// SPDX-License-Identifier: MPL-2.0

// Package graphio gives the slot engine its external collaborators: a
// concrete node container, an HCL graph definition language, and JSON
// state persistence. Expression state is never persisted; it re-derives
// from literals and links when a restored graph initializes.
package graphio

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/rafagsiqueira/slotgraph/internal/dag"
	"github.com/rafagsiqueira/slotgraph/internal/props"
	"github.com/rafagsiqueira/slotgraph/internal/sgdiags"
	"github.com/rafagsiqueira/slotgraph/internal/slots"
)

// Graph is a set of nodes loaded from a definition file or restored
// from state.
type Graph struct {
	Nodes []*Node
}

// Node returns the node with the given name, or nil.
func (g *Graph) Node(name string) *Node {
	for _, n := range g.Nodes {
		if n.name == name {
			return n
		}
	}
	return nil
}

// Initialize primes every node in dependency order. It must run before
// any slot expression in the graph is read.
func (g *Graph) Initialize() error {
	containers := make([]slots.Container, len(g.Nodes))
	for i, n := range g.Nodes {
		containers[i] = n
	}
	return slots.InitializeContainers(containers...)
}

// Dot returns the node dependency graph in dot format.
func (g *Graph) Dot() string {
	var dg dag.Graph
	for _, n := range g.Nodes {
		dg.Add(n)
		for i := 0; i < n.NumInputSlots(); i++ {
			root := n.InputSlot(i)
			stack := []*slots.Slot{root}
			for len(stack) > 0 {
				s := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				for _, peer := range s.LinkedSlots() {
					if producer, ok := peer.Owner().(*Node); ok {
						dg.Connect(dag.BasicEdge(n, producer))
					}
				}
				for j := 0; j < s.NumChildren(); j++ {
					stack = append(stack, s.Child(j))
				}
			}
		}
	}
	return dg.Dot()
}

var graphFileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "container", LabelNames: []string{"name"}},
		{Type: "link"},
	},
}

var containerSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "input", LabelNames: []string{"name"}},
		{Type: "output", LabelNames: []string{"name"}},
	},
}

var inputSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "type", Required: true},
		{Name: "default"},
	},
}

var outputSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "type", Required: true},
		{Name: "value"},
		{Name: "passthrough"},
	},
}

var linkSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "from", Required: true},
		{Name: "to", Required: true},
	},
}

// LoadGraphFile parses a graph definition file and builds its nodes,
// slot trees and links. Links go through the same validation the
// editor uses, so an incompatible link in a file is a diagnostic, not
// a panic.
func LoadGraphFile(path string, reg *slots.KindRegistry) (*Graph, sgdiags.Diagnostics) {
	parser := hclparse.NewParser()
	file, hclDiags := parser.ParseHCLFile(path)

	var diags sgdiags.Diagnostics
	diags = diags.Append(hclDiags)
	if hclDiags.HasErrors() {
		return nil, diags
	}
	return loadGraphBody(file.Body, reg, diags)
}

func loadGraphBody(body hcl.Body, reg *slots.KindRegistry, diags sgdiags.Diagnostics) (*Graph, sgdiags.Diagnostics) {
	content, hclDiags := body.Content(graphFileSchema)
	diags = diags.Append(hclDiags)
	if hclDiags.HasErrors() {
		return nil, diags
	}

	g := &Graph{}
	var linkBlocks []*hcl.Block

	for _, block := range content.Blocks {
		switch block.Type {
		case "container":
			node, moreDiags := decodeContainerBlock(block, reg)
			diags = diags.Append(moreDiags)
			if node != nil {
				if g.Node(node.name) != nil {
					diags = diags.Append(&hcl.Diagnostic{
						Severity: hcl.DiagError,
						Summary:  "Duplicate container",
						Detail:   fmt.Sprintf("A container named %q was already defined.", node.name),
						Subject:  &block.DefRange,
					})
					continue
				}
				g.Nodes = append(g.Nodes, node)
			}
		case "link":
			linkBlocks = append(linkBlocks, block)
		}
	}
	if diags.HasErrors() {
		return nil, diags
	}

	// Links resolve after every container exists, so definition order
	// does not matter.
	for _, block := range linkBlocks {
		diags = diags.Append(applyLinkBlock(g, block))
	}
	if diags.HasErrors() {
		return nil, diags
	}
	return g, diags
}

func decodeContainerBlock(block *hcl.Block, reg *slots.KindRegistry) (*Node, sgdiags.Diagnostics) {
	var diags sgdiags.Diagnostics

	node, err := NewNode(block.Labels[0])
	if err != nil {
		return nil, diags.Append(err)
	}

	content, hclDiags := block.Body.Content(containerSchema)
	diags = diags.Append(hclDiags)
	if hclDiags.HasErrors() {
		return nil, diags
	}

	for _, sub := range content.Blocks {
		switch sub.Type {
		case "input":
			diags = diags.Append(decodeInputBlock(node, sub, reg))
		case "output":
			diags = diags.Append(decodeOutputBlock(node, sub, reg))
		}
	}
	if diags.HasErrors() {
		return nil, diags
	}
	return node, diags
}

func decodeInputBlock(node *Node, block *hcl.Block, reg *slots.KindRegistry) sgdiags.Diagnostics {
	var diags sgdiags.Diagnostics

	content, hclDiags := block.Body.Content(inputSchema)
	diags = diags.Append(hclDiags)
	if hclDiags.HasErrors() {
		return diags
	}

	ty, moreDiags := decodeTypeAttr(content.Attributes["type"])
	diags = diags.Append(moreDiags)
	if moreDiags.HasErrors() {
		return diags
	}

	def := cty.NilVal
	if attr, ok := content.Attributes["default"]; ok {
		val, valDiags := attr.Expr.Value(nil)
		diags = diags.Append(valDiags)
		if valDiags.HasErrors() {
			return diags
		}
		def = val
	}

	prop := props.Property{Name: block.Labels[0], Type: ty}
	if _, err := node.AddInput(reg, prop, def); err != nil {
		diags = diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid input slot",
			Detail:   err.Error(),
			Subject:  &block.DefRange,
		})
	}
	return diags
}

func decodeOutputBlock(node *Node, block *hcl.Block, reg *slots.KindRegistry) sgdiags.Diagnostics {
	var diags sgdiags.Diagnostics

	content, hclDiags := block.Body.Content(outputSchema)
	diags = diags.Append(hclDiags)
	if hclDiags.HasErrors() {
		return diags
	}

	ty, moreDiags := decodeTypeAttr(content.Attributes["type"])
	diags = diags.Append(moreDiags)
	if moreDiags.HasErrors() {
		return diags
	}

	prop := props.Property{Name: block.Labels[0], Type: ty}

	if attr, ok := content.Attributes["passthrough"]; ok {
		from, valDiags := attr.Expr.Value(nil)
		diags = diags.Append(valDiags)
		if valDiags.HasErrors() {
			return diags
		}
		if _, err := node.AddPassthroughOutput(reg, prop, from.AsString()); err != nil {
			diags = diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid output slot",
				Detail:   err.Error(),
				Subject:  &block.DefRange,
			})
		}
		return diags
	}

	val := cty.NilVal
	if attr, ok := content.Attributes["value"]; ok {
		v, valDiags := attr.Expr.Value(nil)
		diags = diags.Append(valDiags)
		if valDiags.HasErrors() {
			return diags
		}
		val = v
	}
	if _, err := node.AddLiteralOutput(reg, prop, val); err != nil {
		diags = diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid output slot",
			Detail:   err.Error(),
			Subject:  &block.DefRange,
		})
	}
	return diags
}

func decodeTypeAttr(attr *hcl.Attribute) (cty.Type, sgdiags.Diagnostics) {
	var diags sgdiags.Diagnostics

	val, valDiags := attr.Expr.Value(nil)
	diags = diags.Append(valDiags)
	if valDiags.HasErrors() {
		return cty.NilType, diags
	}
	if !val.Type().Equals(cty.String) {
		return cty.NilType, diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid slot type",
			Detail:   "The type argument must be a string naming a slot type.",
			Subject:  attr.Expr.Range().Ptr(),
		})
	}
	ty, ok := props.TypeNamed(val.AsString())
	if !ok {
		return cty.NilType, diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid slot type",
			Detail:   fmt.Sprintf("There is no slot type named %q.", val.AsString()),
			Subject:  attr.Expr.Range().Ptr(),
		})
	}
	return ty, diags
}

func applyLinkBlock(g *Graph, block *hcl.Block) sgdiags.Diagnostics {
	var diags sgdiags.Diagnostics

	content, hclDiags := block.Body.Content(linkSchema)
	diags = diags.Append(hclDiags)
	if hclDiags.HasErrors() {
		return diags
	}

	from, moreDiags := resolveSlotRef(g, content.Attributes["from"], slots.Output)
	diags = diags.Append(moreDiags)
	to, moreDiags := resolveSlotRef(g, content.Attributes["to"], slots.Input)
	diags = diags.Append(moreDiags)
	if diags.HasErrors() {
		return diags
	}

	linked, err := slots.Link(from, to)
	if err != nil {
		return diags.Append(err)
	}
	if !linked {
		diags = diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Incompatible link",
			Detail: fmt.Sprintf("Cannot link %s to %s: the slots have incompatible types, directions, or the link would create a cycle.",
				from.Name(), to.Name()),
			Subject: &block.DefRange,
		})
	}
	return diags
}

// resolveSlotRef resolves a "container.slot" or "container.slot.child"
// reference to a slot of the wanted direction.
func resolveSlotRef(g *Graph, attr *hcl.Attribute, dir slots.Direction) (*slots.Slot, sgdiags.Diagnostics) {
	var diags sgdiags.Diagnostics

	val, valDiags := attr.Expr.Value(nil)
	diags = diags.Append(valDiags)
	if valDiags.HasErrors() {
		return nil, diags
	}

	refErr := func(detail string) sgdiags.Diagnostics {
		return diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid slot reference",
			Detail:   detail,
			Subject:  attr.Expr.Range().Ptr(),
		})
	}

	if !val.Type().Equals(cty.String) {
		return nil, refErr("A slot reference must be a string of the form \"container.slot\".")
	}
	parts := strings.Split(val.AsString(), ".")
	if len(parts) < 2 {
		return nil, refErr(fmt.Sprintf("Reference %q must name a container and a slot.", val.AsString()))
	}

	node := g.Node(parts[0])
	if node == nil {
		return nil, refErr(fmt.Sprintf("There is no container named %q.", parts[0]))
	}

	var s *slots.Slot
	if dir == slots.Output {
		s = node.OutputNamed(parts[1])
	} else {
		s = node.InputNamed(parts[1])
	}
	if s == nil {
		return nil, refErr(fmt.Sprintf("Container %q has no %s slot named %q.", parts[0], dir, parts[1]))
	}

	for _, childName := range parts[2:] {
		var next *slots.Slot
		for i := 0; i < s.NumChildren(); i++ {
			if ch := s.Child(i); ch.Property().Name == childName {
				next = ch
				break
			}
		}
		if next == nil {
			return nil, refErr(fmt.Sprintf("Slot %q has no child named %q.", s.Property().Name, childName))
		}
		s = next
	}
	return s, diags
}
