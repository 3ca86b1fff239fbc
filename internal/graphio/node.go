// Copyright (c) The Farseek Authors
// SPDX-License-Identifier: MPL-2.0

package graphio

import (
	"fmt"

	uuid "github.com/hashicorp/go-uuid"
	"github.com/zclconf/go-cty/cty"

	"github.com/rafagsiqueira/slotgraph/internal/logging"
	"github.com/rafagsiqueira/slotgraph/internal/props"
	"github.com/rafagsiqueira/slotgraph/internal/slots"
)

var logger = logging.Subsystem("graphio")

// Node is the concrete slot container used by graph definition files
// and the CLI: a named owner of input and output slot trees. Each
// output either passes one input's expression through or publishes a
// literal value.
type Node struct {
	name string
	id   string

	inputs  []*slots.Slot
	outputs []*slots.Slot

	// Output derivation rules, keyed by output slot name.
	passthrough map[string]string
	literals    map[string]cty.Value

	// invalidations records the causes delivered to Invalidate, in
	// order. Editors would redraw from these; tests assert on them.
	invalidations []slots.InvalidationCause
}

// NewNode creates an empty node with a fresh serialization identity.
func NewNode(name string) (*Node, error) {
	id, err := uuid.GenerateUUID()
	if err != nil {
		return nil, fmt.Errorf("node %q: generating id: %w", name, err)
	}
	return newNodeWithID(name, id), nil
}

func newNodeWithID(name, id string) *Node {
	return &Node{
		name:        name,
		id:          id,
		passthrough: make(map[string]string),
		literals:    make(map[string]cty.Value),
	}
}

func (n *Node) Name() string { return n.name }
func (n *Node) ID() string   { return n.id }

// AddInput creates an input slot tree on the node. A non-nil default
// becomes the slot's literal value.
func (n *Node) AddInput(reg *slots.KindRegistry, prop props.Property, def cty.Value) (*slots.Slot, error) {
	s, err := slots.NewSlotTree(reg, prop, slots.Input)
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", n.name, err)
	}
	s.SetOwner(n)
	if def != cty.NilVal {
		if err := s.SetValue(def); err != nil {
			return nil, fmt.Errorf("node %q: %w", n.name, err)
		}
	}
	n.inputs = append(n.inputs, s)
	return s, nil
}

// AddLiteralOutput creates an output slot tree publishing a fixed
// value.
func (n *Node) AddLiteralOutput(reg *slots.KindRegistry, prop props.Property, val cty.Value) (*slots.Slot, error) {
	s, err := n.addOutput(reg, prop)
	if err != nil {
		return nil, err
	}
	if val != cty.NilVal {
		n.literals[prop.Name] = val
	}
	return s, nil
}

// AddPassthroughOutput creates an output slot tree that republishes
// the expression of the named input.
func (n *Node) AddPassthroughOutput(reg *slots.KindRegistry, prop props.Property, from string) (*slots.Slot, error) {
	if n.InputNamed(from) == nil {
		return nil, fmt.Errorf("node %q: output %q passes through unknown input %q", n.name, prop.Name, from)
	}
	s, err := n.addOutput(reg, prop)
	if err != nil {
		return nil, err
	}
	n.passthrough[prop.Name] = from
	return s, nil
}

func (n *Node) addOutput(reg *slots.KindRegistry, prop props.Property) (*slots.Slot, error) {
	s, err := slots.NewSlotTree(reg, prop, slots.Output)
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", n.name, err)
	}
	s.SetOwner(n)
	n.outputs = append(n.outputs, s)
	return s, nil
}

// InputNamed returns the top-level input slot with the given property
// name, or nil.
func (n *Node) InputNamed(name string) *slots.Slot {
	for _, s := range n.inputs {
		if s.Property().Name == name {
			return s
		}
	}
	return nil
}

// OutputNamed returns the top-level output slot with the given
// property name, or nil.
func (n *Node) OutputNamed(name string) *slots.Slot {
	for _, s := range n.outputs {
		if s.Property().Name == name {
			return s
		}
	}
	return nil
}

// NumOutputSlots returns how many top-level output slots the node
// owns.
func (n *Node) NumOutputSlots() int { return len(n.outputs) }

// OutputSlot returns the i'th top-level output slot.
func (n *Node) OutputSlot(i int) *slots.Slot { return n.outputs[i] }

// Invalidations returns the causes delivered so far, oldest first.
func (n *Node) Invalidations() []slots.InvalidationCause {
	out := make([]slots.InvalidationCause, len(n.invalidations))
	copy(out, n.invalidations)
	return out
}

// Detach severs every link on the node's slots and releases them.
// Must be called before dropping the node from a graph.
func (n *Node) Detach() {
	for _, s := range n.inputs {
		s.Detach()
	}
	for _, s := range n.outputs {
		s.Detach()
	}
	n.inputs = nil
	n.outputs = nil
}

// NumInputSlots implements slots.Container.
func (n *Node) NumInputSlots() int { return len(n.inputs) }

// InputSlot implements slots.Container.
func (n *Node) InputSlot(i int) *slots.Slot { return n.inputs[i] }

// Invalidate implements slots.Container.
func (n *Node) Invalidate(cause slots.InvalidationCause) {
	logger.Debug("node invalidated", "node", n.name, "cause", cause.String())
	n.invalidations = append(n.invalidations, cause)
}

// UpdateOutputs implements slots.Container: every output re-derives
// its value from its rule. Unchanged values are left untouched so
// repeated calls settle instead of churning.
func (n *Node) UpdateOutputs() {
	for _, out := range n.outputs {
		name := out.Property().Name

		var val cty.Value
		if from, ok := n.passthrough[name]; ok {
			in := n.InputNamed(from)
			if in == nil {
				continue
			}
			e := in.Expression()
			if e == nil {
				if err := in.Recompute(false); err != nil {
					logger.Error("recomputing input for passthrough", "node", n.name, "input", from, "error", err)
					continue
				}
				e = in.Expression()
			}
			if e.IsNull() {
				continue
			}
			val = e.Value()
		} else if lit, ok := n.literals[name]; ok {
			val = lit
		} else {
			continue
		}

		if cur := out.Expression(); cur != nil && !cur.IsNull() && cur.Value().RawEquals(val) {
			continue
		}
		if err := out.SetValue(val); err != nil {
			logger.Error("updating output value", "node", n.name, "output", name, "error", err)
		}
	}
}
