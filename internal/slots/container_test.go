// Copyright (c) The Farseek Authors
// SPDX-License-Identifier: MPL-2.0

package slots

import (
	"testing"

	"github.com/zclconf/go-cty/cty"

	"github.com/rafagsiqueira/slotgraph/internal/props"
)

// testContainer is a minimal container for exercising the engine: it
// records notifications, counts output passes, and derives outputs
// through an optional callback.
type testContainer struct {
	name    string
	inputs  []*Slot
	outputs []*Slot

	updateFn      func(c *testContainer)
	updates       int
	invalidations []InvalidationCause
}

var _ Container = (*testContainer)(nil)

func (c *testContainer) NumInputSlots() int    { return len(c.inputs) }
func (c *testContainer) InputSlot(i int) *Slot { return c.inputs[i] }
func (c *testContainer) Name() string          { return c.name }

func (c *testContainer) UpdateOutputs() {
	c.updates++
	if c.updateFn != nil {
		c.updateFn(c)
	}
}

func (c *testContainer) Invalidate(cause InvalidationCause) {
	c.invalidations = append(c.invalidations, cause)
}

func (c *testContainer) sawInvalidation(cause InvalidationCause) bool {
	for _, got := range c.invalidations {
		if got == cause {
			return true
		}
	}
	return false
}

func addSlot(t *testing.T, c *testContainer, dir Direction, prop props.Property) *Slot {
	t.Helper()
	s, err := NewSlotTree(DefaultRegistry(), prop, dir)
	if err != nil {
		t.Fatalf("NewSlotTree: %s", err)
	}
	s.SetOwner(c)
	if dir == Input {
		c.inputs = append(c.inputs, s)
	} else {
		c.outputs = append(c.outputs, s)
	}
	return s
}

func addFloatOutput(t *testing.T, c *testContainer, name string, val float64) *Slot {
	t.Helper()
	s := addSlot(t, c, Output, props.Property{Name: name, Type: props.Float})
	if err := s.SetValue(cty.NumberFloatVal(val)); err != nil {
		t.Fatalf("SetValue: %s", err)
	}
	return s
}

func addFloatInput(t *testing.T, c *testContainer, name string) *Slot {
	t.Helper()
	return addSlot(t, c, Input, props.Property{Name: name, Type: props.Float})
}

// passthroughContainer builds a container with one float input and one
// float output that republishes the input's expression.
func passthroughContainer(t *testing.T, name string) (*testContainer, *Slot, *Slot) {
	t.Helper()
	c := &testContainer{name: name}
	in := addFloatInput(t, c, "in")
	out := addSlot(t, c, Output, props.Property{Name: "out", Type: props.Float})
	c.updateFn = func(c *testContainer) {
		e := in.Expression()
		if e == nil {
			if err := in.Recompute(false); err != nil {
				t.Fatalf("priming input of %s: %s", c.name, err)
			}
			e = in.Expression()
		}
		if cur := out.Expression(); cur != nil && cur.Equal(e) {
			return
		}
		if err := out.SetValue(e.Value()); err != nil {
			t.Fatalf("updating output of %s: %s", c.name, err)
		}
	}
	return c, in, out
}

func mustFloat(t *testing.T, s *Slot) float64 {
	t.Helper()
	e := s.Expression()
	if e == nil {
		t.Fatalf("slot %s has no expression", s.Name())
	}
	f, _ := e.Value().AsBigFloat().Float64()
	return f
}
