// Copyright (c) The Farseek Authors
// SPDX-License-Identifier: MPL-2.0

package slots

import (
	"strings"
	"testing"

	"github.com/zclconf/go-cty/cty"

	"github.com/rafagsiqueira/slotgraph/internal/props"
)

func TestNewSlotTreeLeaf(t *testing.T) {
	s, err := NewSlotTree(DefaultRegistry(), props.Property{Name: "intensity", Type: props.Float}, Input)
	if err != nil {
		t.Fatalf("NewSlotTree: %s", err)
	}
	if s.NumChildren() != 0 {
		t.Errorf("leaf slot has %d children", s.NumChildren())
	}
	if s.Direction() != Input {
		t.Errorf("wrong direction %s", s.Direction())
	}
	if s.Root() != s {
		t.Error("leaf slot should be its own root")
	}
}

func TestNewSlotTreeComposite(t *testing.T) {
	s, err := NewSlotTree(DefaultRegistry(), props.Property{Name: "position", Type: props.Vector3}, Output)
	if err != nil {
		t.Fatalf("NewSlotTree: %s", err)
	}
	if s.NumChildren() != 3 {
		t.Fatalf("vector3 slot has %d children; want 3", s.NumChildren())
	}
	wantNames := []string{"x", "y", "z"}
	for i, want := range wantNames {
		ch := s.Child(i)
		if got := ch.Property().Name; got != want {
			t.Errorf("child %d named %q; want %q", i, got, want)
		}
		if ch.Direction() != Output {
			t.Errorf("child %q direction %s; want output", want, ch.Direction())
		}
		if ch.Parent() != s {
			t.Errorf("child %q has wrong parent", want)
		}
		if ch.Root() != s {
			t.Errorf("child %q has wrong root", want)
		}
	}
}

func TestNewSlotTreeUnsupportedType(t *testing.T) {
	reg := NewKindRegistry() // nothing registered
	_, err := NewSlotTree(reg, props.Property{Name: "mask", Type: props.Texture}, Input)
	if err == nil {
		t.Fatal("expected error for unsupported type")
	}
	if !strings.Contains(err.Error(), "no slot kind") {
		t.Errorf("wrong error: %s", err)
	}
}

func TestSetValueLeaf(t *testing.T) {
	c := &testContainer{name: "c"}
	s := addFloatOutput(t, c, "out", 1.5)

	if got := mustFloat(t, s); got != 1.5 {
		t.Errorf("expression %v; want 1.5", got)
	}

	if err := s.SetValue(cty.NumberFloatVal(2)); err != nil {
		t.Fatalf("SetValue: %s", err)
	}
	if got := mustFloat(t, s); got != 2 {
		t.Errorf("expression %v; want 2", got)
	}
	if !c.sawInvalidation(StructureChanged) {
		t.Error("container should see StructureChanged after a value edit")
	}
}

func TestSetValueConverts(t *testing.T) {
	c := &testContainer{name: "c"}
	s := addSlot(t, c, Output, props.Property{Name: "label", Type: props.String})
	if err := s.SetValue(cty.NumberIntVal(4)); err != nil {
		t.Fatalf("SetValue: %s", err)
	}
	if got := s.Expression().Value(); got.AsString() != "4" {
		t.Errorf("expression %#v; want \"4\"", got)
	}
}

func TestSetValueRejectsUnconvertible(t *testing.T) {
	c := &testContainer{name: "c"}
	s := addSlot(t, c, Output, props.Property{Name: "f", Type: props.Float})
	if err := s.SetValue(cty.StringVal("not a number")); err == nil {
		t.Fatal("expected conversion error")
	}
}

func TestSetValueCompositeDecomposesToChildren(t *testing.T) {
	c := &testContainer{name: "c"}
	s := addSlot(t, c, Output, props.Property{Name: "position", Type: props.Vector3})

	val := cty.ObjectVal(map[string]cty.Value{
		"x": cty.NumberFloatVal(1),
		"y": cty.NumberFloatVal(2),
		"z": cty.NumberFloatVal(3),
	})
	if err := s.SetValue(val); err != nil {
		t.Fatalf("SetValue: %s", err)
	}

	// The literal lives on the leaves; the composite re-derives.
	if s.Value() != cty.NilVal {
		t.Errorf("composite slot kept literal %#v", s.Value())
	}
	want := []float64{1, 2, 3}
	for i, w := range want {
		if got := mustFloat(t, s.Child(i)); got != w {
			t.Errorf("child %d expression %v; want %v", i, got, w)
		}
	}
	if !s.Expression().Value().RawEquals(val) {
		t.Errorf("composite expression %#v; want %#v", s.Expression().Value(), val)
	}
}

func TestSetValueChildRecomposesParent(t *testing.T) {
	c := &testContainer{name: "c"}
	s := addSlot(t, c, Output, props.Property{Name: "position", Type: props.Vector3})
	if err := s.Child(1).SetValue(cty.NumberFloatVal(7)); err != nil {
		t.Fatalf("SetValue: %s", err)
	}

	want := cty.ObjectVal(map[string]cty.Value{
		"x": cty.Zero,
		"y": cty.NumberFloatVal(7),
		"z": cty.Zero,
	})
	if !s.Expression().Value().RawEquals(want) {
		t.Errorf("composite expression %#v; want %#v", s.Expression().Value(), want)
	}
}

func TestDetachSeversLinks(t *testing.T) {
	a := &testContainer{name: "a"}
	out := addFloatOutput(t, a, "out", 1)
	b := &testContainer{name: "b"}
	in := addFloatInput(t, b, "in")

	if linked, err := Link(out, in); err != nil || !linked {
		t.Fatalf("Link: linked=%t err=%s", linked, err)
	}

	in.Detach()
	if len(out.LinkedSlots()) != 0 || len(in.LinkedSlots()) != 0 {
		t.Error("links survived Detach")
	}
	if in.Owner() != nil {
		t.Error("owner survived Detach")
	}
}
