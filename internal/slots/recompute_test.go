// Copyright (c) The Farseek Authors
// SPDX-License-Identifier: MPL-2.0

package slots

import (
	"testing"

	"github.com/zclconf/go-cty/cty"

	"github.com/rafagsiqueira/slotgraph/internal/exprs"
	"github.com/rafagsiqueira/slotgraph/internal/props"
)

// The scenario from the engine's contract: editing a producer's value
// reaches the consumer without any call that mentions the consumer.
func TestPropagationAcrossLink(t *testing.T) {
	a := &testContainer{name: "a"}
	oa := addFloatOutput(t, a, "oa", 1)
	b := &testContainer{name: "b"}
	ib := addFloatInput(t, b, "ib")

	if err := ib.Recompute(false); err != nil {
		t.Fatalf("Recompute: %s", err)
	}
	if got := mustFloat(t, ib); got != 0 {
		t.Fatalf("unlinked expression %v; want the default 0", got)
	}

	if linked, err := Link(oa, ib); err != nil || !linked {
		t.Fatalf("Link: linked=%t err=%s", linked, err)
	}
	if got := mustFloat(t, ib); got != 1 {
		t.Fatalf("expression after link %v; want 1", got)
	}

	if err := oa.SetValue(cty.NumberFloatVal(2)); err != nil {
		t.Fatalf("SetValue: %s", err)
	}
	if got := mustFloat(t, ib); got != 2 {
		t.Errorf("expression after producer edit %v; want 2", got)
	}
}

func TestRecomputeIdempotent(t *testing.T) {
	a := &testContainer{name: "a"}
	oa := addFloatOutput(t, a, "oa", 1)
	b := &testContainer{name: "b"}
	ib := addFloatInput(t, b, "ib")
	if linked, err := Link(oa, ib); err != nil || !linked {
		t.Fatalf("Link: linked=%t err=%s", linked, err)
	}

	if err := ib.Recompute(true); err != nil {
		t.Fatalf("Recompute: %s", err)
	}

	before := ib.Expression()
	updates := b.updates
	invalidations := len(b.invalidations)

	// No state changed in between, so this pass must short-circuit:
	// same expression objects, no output pass, no notification.
	if err := ib.Recompute(true); err != nil {
		t.Fatalf("Recompute: %s", err)
	}
	if ib.Expression() != before {
		t.Error("idempotent recompute should not swap expressions")
	}
	if b.updates != updates {
		t.Error("idempotent recompute should not re-derive outputs")
	}
	if len(b.invalidations) != invalidations {
		t.Error("idempotent recompute should not notify")
	}
}

func TestCompositeLinkDecomposesToChildren(t *testing.T) {
	a := &testContainer{name: "a"}
	vec := addSlot(t, a, Output, props.Property{Name: "vec", Type: props.Vector3})
	if err := vec.SetValue(cty.ObjectVal(map[string]cty.Value{
		"x": cty.NumberFloatVal(1),
		"y": cty.NumberFloatVal(2),
		"z": cty.NumberFloatVal(3),
	})); err != nil {
		t.Fatalf("SetValue: %s", err)
	}

	b := &testContainer{name: "b"}
	in := addSlot(t, b, Input, props.Property{Name: "position", Type: props.Vector3})

	if linked, err := Link(vec, in); err != nil || !linked {
		t.Fatalf("Link: linked=%t err=%s", linked, err)
	}

	want := []float64{1, 2, 3}
	for i, w := range want {
		if got := mustFloat(t, in.Child(i)); got != w {
			t.Errorf("child %d expression %v; want %v", i, got, w)
		}
	}
}

func TestChildLinkRecomposesParent(t *testing.T) {
	a := &testContainer{name: "a"}
	scalar := addFloatOutput(t, a, "scalar", 9)
	b := &testContainer{name: "b"}
	in := addSlot(t, b, Input, props.Property{Name: "position", Type: props.Vector3})

	if linked, err := Link(scalar, in.Child(2)); err != nil || !linked {
		t.Fatalf("Link: linked=%t err=%s", linked, err)
	}

	want := cty.ObjectVal(map[string]cty.Value{
		"x": cty.Zero,
		"y": cty.Zero,
		"z": cty.NumberFloatVal(9),
	})
	if got := in.Expression().Value(); !got.RawEquals(want) {
		t.Errorf("parent expression %#v; want %#v", got, want)
	}
}

// Composing the children's resolved expressions and decomposing the
// result must give back the originals.
func TestComposeDecomposeRoundTrip(t *testing.T) {
	reg := DefaultRegistry()
	kind := reg.KindForType(props.Vector3)

	children := []*exprs.Expression{
		exprs.Literal(cty.NumberFloatVal(0.5)),
		exprs.Literal(cty.NumberFloatVal(-1)),
		exprs.Literal(cty.NumberFloatVal(42)),
	}
	composed := kind.Compose(children)
	if composed == nil {
		t.Fatal("vector3 kind must define composition")
	}
	for i, want := range children {
		got := kind.Decompose(composed, i)
		if got == nil {
			t.Fatalf("vector3 kind must define decomposition")
		}
		if !got.Equal(want) {
			t.Errorf("child %d round-tripped to %#v; want %#v", i, got, want)
		}
	}
}

// A diamond (a feeds b and c, both feed d) must settle with a number
// of output passes proportional to the number of changed edges, not
// exponential in depth.
func TestDiamondCascadeBounded(t *testing.T) {
	a := &testContainer{name: "a"}
	oa := addFloatOutput(t, a, "oa", 1)

	b, bIn, bOut := passthroughContainer(t, "b")
	c, cIn, cOut := passthroughContainer(t, "c")

	d := &testContainer{name: "d"}
	d1 := addFloatInput(t, d, "d1")
	d2 := addFloatInput(t, d, "d2")

	for _, pair := range []struct{ out, in *Slot }{
		{oa, bIn}, {oa, cIn}, {bOut, d1}, {cOut, d2},
	} {
		if linked, err := Link(pair.out, pair.in); err != nil || !linked {
			t.Fatalf("Link: linked=%t err=%s", linked, err)
		}
	}
	if err := InitializeContainers(a, b, c, d); err != nil {
		t.Fatalf("InitializeContainers: %s", err)
	}
	if mustFloat(t, d1) != 1 || mustFloat(t, d2) != 1 {
		t.Fatalf("diamond did not settle on 1 after initialization")
	}

	bBefore, cBefore, dBefore := b.updates, c.updates, d.updates

	if err := oa.SetValue(cty.NumberFloatVal(5)); err != nil {
		t.Fatalf("SetValue: %s", err)
	}

	if mustFloat(t, d1) != 5 || mustFloat(t, d2) != 5 {
		t.Errorf("diamond did not settle on 5: d1=%v d2=%v", mustFloat(t, d1), mustFloat(t, d2))
	}

	// One pass per changed input tree, plus at most one settling pass.
	for _, tc := range []struct {
		name  string
		got   int
		limit int
	}{
		{"b", b.updates - bBefore, 2},
		{"c", c.updates - cBefore, 2},
		{"d", d.updates - dBefore, 4},
	} {
		if tc.got > tc.limit {
			t.Errorf("container %s re-derived outputs %d times; limit %d", tc.name, tc.got, tc.limit)
		}
		if tc.got == 0 {
			t.Errorf("container %s never re-derived outputs", tc.name)
		}
	}
}

// An output expression change that the peer still accepts must flow
// through without disturbing the link.
func TestOutputChangeKeepsCompatibleLink(t *testing.T) {
	reg := DefaultRegistry()

	a := &testContainer{name: "a"}
	out, err := NewSlotTree(reg, props.Property{Name: "out", Type: props.Float}, Output)
	if err != nil {
		t.Fatalf("NewSlotTree: %s", err)
	}
	out.SetOwner(a)
	a.outputs = append(a.outputs, out)

	b := &testContainer{name: "b"}
	in := addSlot(t, b, Input, props.Property{Name: "in", Type: props.Float})

	// While the output is unprimed it offers no expression, so the
	// link stands on the static types.
	if linked, err := Link(out, in); err != nil || !linked {
		t.Fatalf("Link: linked=%t err=%s", linked, err)
	}
	if err := out.SetValue(cty.NumberFloatVal(2)); err != nil {
		t.Fatalf("SetValue: %s", err)
	}
	if got := mustFloat(t, in); got != 2 {
		t.Fatalf("expression %v; want 2", got)
	}
	if len(in.LinkedSlots()) != 1 {
		t.Fatal("compatible expression change must keep the link")
	}
}

func TestRecomputePrimesUpstreamBeforeReading(t *testing.T) {
	a := &testContainer{name: "a"}
	out, err := NewSlotTree(DefaultRegistry(), props.Property{Name: "out", Type: props.Float}, Output)
	if err != nil {
		t.Fatalf("NewSlotTree: %s", err)
	}
	out.SetOwner(a)
	a.outputs = append(a.outputs, out)

	b := &testContainer{name: "b"}
	in := addFloatInput(t, b, "in")

	if linked, err := Link(out, in); err != nil || !linked {
		t.Fatalf("Link: linked=%t err=%s", linked, err)
	}

	// The producer tree was never primed; the link-triggered recompute
	// must have primed it rather than reading garbage.
	if out.Expression() == nil {
		t.Fatal("producer tree should have been primed")
	}
	if got := mustFloat(t, in); got != 0 {
		t.Errorf("expression %v; want the producer's default 0", got)
	}
}

func TestDefaultExpressionLazilyDerived(t *testing.T) {
	s, err := NewSlotTree(DefaultRegistry(), props.Property{Name: "position", Type: props.Vector3}, Input)
	if err != nil {
		t.Fatalf("NewSlotTree: %s", err)
	}
	if s.DefaultExpression() != nil {
		t.Fatal("defaults must not derive before the first pass")
	}

	if err := s.Recompute(false); err != nil {
		t.Fatalf("Recompute: %s", err)
	}

	want := cty.ObjectVal(map[string]cty.Value{
		"x": cty.Zero,
		"y": cty.Zero,
		"z": cty.Zero,
	})
	if got := s.DefaultExpression().Value(); !got.RawEquals(want) {
		t.Errorf("composite default %#v; want %#v", got, want)
	}
	if !s.Expression().Equal(s.DefaultExpression()) {
		t.Error("an unlinked tree's output is its default")
	}
}
