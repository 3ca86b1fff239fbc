// Copyright (c) The Farseek Authors
// SPDX-License-Identifier: MPL-2.0

package graphio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/zclconf/go-cty/cty"

	"github.com/rafagsiqueira/slotgraph/internal/props"
	"github.com/rafagsiqueira/slotgraph/internal/slots"
)

func TestStateRoundTrip(t *testing.T) {
	g := loadGraph(t, basicGraph)
	if err := g.Initialize(); err != nil {
		t.Fatalf("Initialize: %s", err)
	}

	var buf bytes.Buffer
	if err := WriteState(g, &buf); err != nil {
		t.Fatalf("WriteState: %s", err)
	}

	restored, err := ReadState(&buf, slots.DefaultRegistry())
	if err != nil {
		t.Fatalf("ReadState: %s", err)
	}
	if err := restored.Initialize(); err != nil {
		t.Fatalf("Initialize after restore: %s", err)
	}

	wave := restored.Node("wave")
	if wave == nil {
		t.Fatal("restored graph lost the wave node")
	}
	if wave.ID() != g.Node("wave").ID() {
		t.Error("node identity should survive the round trip")
	}

	noise := restored.Node("noise")
	scale := noise.InputNamed("scale")
	if got := scale.Expression().Value(); !got.RawEquals(cty.NumberFloatVal(2.5)) {
		t.Errorf("restored linked expression %#v; want 2.5", got)
	}
	if len(scale.LinkedSlots()) != 1 {
		t.Error("link did not survive the round trip")
	}
	if got := noise.OutputNamed("scaled").Expression().Value(); !got.RawEquals(cty.NumberFloatVal(2.5)) {
		t.Errorf("restored passthrough expression %#v; want 2.5", got)
	}
}

// Expression state never persists: only literals and links do, and the
// expressions re-derive on Initialize.
func TestStateOmitsExpressions(t *testing.T) {
	g := loadGraph(t, basicGraph)
	if err := g.Initialize(); err != nil {
		t.Fatalf("Initialize: %s", err)
	}

	var buf bytes.Buffer
	if err := WriteState(g, &buf); err != nil {
		t.Fatalf("WriteState: %s", err)
	}
	if strings.Contains(buf.String(), "expression") {
		t.Errorf("state should not carry expression fields:\n%s", buf.String())
	}
}

func TestStateChildLink(t *testing.T) {
	g := loadGraph(t, `
container "wave" {
  output "amplitude" {
    type  = "float"
    value = 7
  }
}
container "noise" {
  input "offset" {
    type = "vector3"
  }
}
link {
  from = "wave.amplitude"
  to   = "noise.offset.z"
}
`)

	var buf bytes.Buffer
	if err := WriteState(g, &buf); err != nil {
		t.Fatalf("WriteState: %s", err)
	}
	if !strings.Contains(buf.String(), "noise.offset.z") {
		t.Errorf("child link path missing from state:\n%s", buf.String())
	}

	restored, err := ReadState(&buf, slots.DefaultRegistry())
	if err != nil {
		t.Fatalf("ReadState: %s", err)
	}
	if err := restored.Initialize(); err != nil {
		t.Fatalf("Initialize: %s", err)
	}

	want := cty.ObjectVal(map[string]cty.Value{
		"x": cty.Zero,
		"y": cty.Zero,
		"z": cty.NumberIntVal(7),
	})
	offset := restored.Node("noise").InputNamed("offset")
	if got := offset.Expression().Value(); !got.RawEquals(want) {
		t.Errorf("restored expression %#v; want %#v", got, want)
	}
}

// Capsule values are references into the host's asset database; the
// state skips them rather than serializing something meaningless.
func TestStateSkipsCapsuleValues(t *testing.T) {
	reg := slots.DefaultRegistry()
	n := mustNode(t, "material")
	in, err := n.AddInput(reg, props.Property{Name: "albedo", Type: props.Texture}, cty.NilVal)
	if err != nil {
		t.Fatalf("AddInput: %s", err)
	}
	if err := in.SetValue(cty.CapsuleVal(props.Texture, &props.TextureRef{AssetID: "tex-01"})); err != nil {
		t.Fatalf("SetValue: %s", err)
	}
	g := &Graph{Nodes: []*Node{n}}

	var buf bytes.Buffer
	if err := WriteState(g, &buf); err != nil {
		t.Fatalf("WriteState: %s", err)
	}
	if strings.Contains(buf.String(), "tex-01") {
		t.Errorf("capsule reference leaked into state:\n%s", buf.String())
	}

	restored, err := ReadState(&buf, slots.DefaultRegistry())
	if err != nil {
		t.Fatalf("ReadState: %s", err)
	}
	if restored.Node("material").InputNamed("albedo") == nil {
		t.Error("capsule slot shape should still restore")
	}
}

func TestReadStateRejectsUnknownVersion(t *testing.T) {
	_, err := ReadState(strings.NewReader(`{"version": 99, "nodes": []}`), slots.DefaultRegistry())
	if err == nil {
		t.Fatal("expected version error")
	}
	if !strings.Contains(err.Error(), "version") {
		t.Errorf("wrong error: %s", err)
	}
}

func TestReadStateRejectsBrokenLink(t *testing.T) {
	_, err := ReadState(strings.NewReader(`{
  "version": 1,
  "nodes": [
    {"id": "n1", "name": "wave", "outputs": [{"name": "amplitude", "type": "float"}]}
  ],
  "links": [{"from": "wave.amplitude", "to": "noise.scale"}]
}`), slots.DefaultRegistry())
	if err == nil {
		t.Fatal("expected link restore error")
	}
	if !strings.Contains(err.Error(), "restoring links") {
		t.Errorf("wrong error: %s", err)
	}
}
