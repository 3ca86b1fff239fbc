// Copyright (c) The Farseek Authors
// SPDX-License-Identifier: MPL-2.0

package graphio

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/rafagsiqueira/slotgraph/internal/props"
	"github.com/rafagsiqueira/slotgraph/internal/slots"
)

// The state format persists node shape, literal values and link
// identifiers, and nothing else. Expression state always re-derives
// from those on the next Initialize, so stale expression caches can
// never be restored from disk.

const stateVersion = 1

type stateFile struct {
	Version int         `json:"version"`
	Nodes   []nodeState `json:"nodes"`
	Links   []linkState `json:"links,omitempty"`
}

type nodeState struct {
	ID          string                     `json:"id"`
	Name        string                     `json:"name"`
	Inputs      []slotState                `json:"inputs,omitempty"`
	Outputs     []slotState                `json:"outputs,omitempty"`
	Passthrough map[string]string          `json:"passthrough,omitempty"`
	Literals    map[string]json.RawMessage `json:"literals,omitempty"`
}

type slotState struct {
	Name     string          `json:"name"`
	Type     string          `json:"type,omitempty"` // roots only; children follow the type
	Value    json.RawMessage `json:"value,omitempty"`
	Children []slotState     `json:"children,omitempty"`
}

type linkState struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// WriteState persists the graph to the writer as JSON.
func WriteState(g *Graph, w io.Writer) error {
	sf := stateFile{Version: stateVersion}

	for _, n := range g.Nodes {
		ns := nodeState{
			ID:   n.id,
			Name: n.name,
		}
		if len(n.passthrough) > 0 {
			ns.Passthrough = n.passthrough
		}
		for name, val := range n.literals {
			if val.Type().IsCapsuleType() {
				continue
			}
			if ns.Literals == nil {
				ns.Literals = make(map[string]json.RawMessage)
			}
			raw, err := ctyjson.Marshal(val, val.Type())
			if err != nil {
				return fmt.Errorf("node %q: serializing literal for output %q: %w", n.name, name, err)
			}
			ns.Literals[name] = raw
		}

		for _, s := range n.inputs {
			ss, err := marshalSlot(s, true)
			if err != nil {
				return fmt.Errorf("node %q: %w", n.name, err)
			}
			ns.Inputs = append(ns.Inputs, ss)
		}
		for _, s := range n.outputs {
			ss, err := marshalSlot(s, true)
			if err != nil {
				return fmt.Errorf("node %q: %w", n.name, err)
			}
			ns.Outputs = append(ns.Outputs, ss)
		}
		sf.Nodes = append(sf.Nodes, ns)

		for _, s := range n.inputs {
			collectLinks(s, &sf.Links)
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sf)
}

// ReadState restores a graph from persisted JSON. Links re-validate
// through the normal linking path; a persisted link that no longer
// validates is an error, since the state was written from a graph
// where it held.
func ReadState(r io.Reader, reg *slots.KindRegistry) (*Graph, error) {
	var sf stateFile
	dec := json.NewDecoder(r)
	if err := dec.Decode(&sf); err != nil {
		return nil, fmt.Errorf("parsing state: %w", err)
	}
	if sf.Version != stateVersion {
		return nil, fmt.Errorf("unsupported state version %d", sf.Version)
	}

	g := &Graph{}
	for _, ns := range sf.Nodes {
		node := newNodeWithID(ns.Name, ns.ID)

		for _, ss := range ns.Inputs {
			prop, def, err := unmarshalRootSlot(ss)
			if err != nil {
				return nil, fmt.Errorf("node %q: %w", ns.Name, err)
			}
			s, err := node.AddInput(reg, prop, def)
			if err != nil {
				return nil, err
			}
			if err := restoreChildValues(s, ss.Children); err != nil {
				return nil, fmt.Errorf("node %q: %w", ns.Name, err)
			}
		}

		for _, ss := range ns.Outputs {
			prop, _, err := unmarshalRootSlot(ss)
			if err != nil {
				return nil, fmt.Errorf("node %q: %w", ns.Name, err)
			}
			if from, ok := ns.Passthrough[prop.Name]; ok {
				if _, err := node.AddPassthroughOutput(reg, prop, from); err != nil {
					return nil, err
				}
				continue
			}
			val := cty.NilVal
			if raw, ok := ns.Literals[prop.Name]; ok {
				val, err = ctyjson.Unmarshal(raw, prop.Type)
				if err != nil {
					return nil, fmt.Errorf("node %q: literal for output %q: %w", ns.Name, prop.Name, err)
				}
			}
			if _, err := node.AddLiteralOutput(reg, prop, val); err != nil {
				return nil, err
			}
		}

		g.Nodes = append(g.Nodes, node)
	}

	var errs *multierror.Error
	for _, ls := range sf.Links {
		from, err := g.resolvePath(ls.From, slots.Output)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		to, err := g.resolvePath(ls.To, slots.Input)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		linked, err := slots.Link(from, to)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		if !linked {
			errs = multierror.Append(errs, fmt.Errorf(
				"persisted link %s -> %s no longer validates", ls.From, ls.To))
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("restoring links: %w", err)
	}
	return g, nil
}

func marshalSlot(s *slots.Slot, root bool) (slotState, error) {
	ss := slotState{Name: s.Property().Name}
	if root {
		ss.Type = props.TypeDisplayName(s.Property().Type)
	}
	// Capsule values are references into the host editor's asset
	// database; the host re-binds them after restore.
	if v := s.Value(); v != cty.NilVal && !s.Property().Type.IsCapsuleType() {
		raw, err := ctyjson.Marshal(v, s.Property().Type)
		if err != nil {
			return ss, fmt.Errorf("slot %q: serializing value: %w", s.Property().Name, err)
		}
		ss.Value = raw
	}
	for i := 0; i < s.NumChildren(); i++ {
		child, err := marshalSlot(s.Child(i), false)
		if err != nil {
			return ss, err
		}
		ss.Children = append(ss.Children, child)
	}
	return ss, nil
}

func unmarshalRootSlot(ss slotState) (props.Property, cty.Value, error) {
	ty, ok := props.TypeNamed(ss.Type)
	if !ok {
		return props.Property{}, cty.NilVal, fmt.Errorf("slot %q: unknown type %q", ss.Name, ss.Type)
	}
	prop := props.Property{Name: ss.Name, Type: ty}
	if len(ss.Value) == 0 {
		return prop, cty.NilVal, nil
	}
	val, err := ctyjson.Unmarshal(ss.Value, ty)
	if err != nil {
		return props.Property{}, cty.NilVal, fmt.Errorf("slot %q: parsing value: %w", ss.Name, err)
	}
	return prop, val, nil
}

func restoreChildValues(s *slots.Slot, children []slotState) error {
	for _, cs := range children {
		var child *slots.Slot
		for i := 0; i < s.NumChildren(); i++ {
			if ch := s.Child(i); ch.Property().Name == cs.Name {
				child = ch
				break
			}
		}
		if child == nil {
			return fmt.Errorf("slot %q: no child named %q", s.Property().Name, cs.Name)
		}
		if len(cs.Value) > 0 {
			val, err := ctyjson.Unmarshal(cs.Value, child.Property().Type)
			if err != nil {
				return fmt.Errorf("slot %q: parsing value: %w", cs.Name, err)
			}
			if err := child.SetValue(val); err != nil {
				return err
			}
		}
		if err := restoreChildValues(child, cs.Children); err != nil {
			return err
		}
	}
	return nil
}

// collectLinks records every link held by the given input tree as a
// pair of stable slot paths.
func collectLinks(s *slots.Slot, out *[]linkState) {
	for _, peer := range s.LinkedSlots() {
		*out = append(*out, linkState{
			From: slotPath(peer),
			To:   slotPath(s),
		})
	}
	for i := 0; i < s.NumChildren(); i++ {
		collectLinks(s.Child(i), out)
	}
}

// slotPath returns the node-qualified dotted path of a slot, e.g.
// "wave.direction.x".
func slotPath(s *slots.Slot) string {
	var parts []string
	for t := s; t != nil; t = t.Parent() {
		parts = append([]string{t.Property().Name}, parts...)
	}
	if owner, ok := s.Owner().(*Node); ok {
		parts = append([]string{owner.name}, parts...)
	}
	return strings.Join(parts, ".")
}

// resolvePath is the state-side counterpart of the definition file's
// slot references.
func (g *Graph) resolvePath(path string, dir slots.Direction) (*slots.Slot, error) {
	parts := strings.Split(path, ".")
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid slot path %q", path)
	}
	node := g.Node(parts[0])
	if node == nil {
		return nil, fmt.Errorf("slot path %q: no container named %q", path, parts[0])
	}
	var s *slots.Slot
	if dir == slots.Output {
		s = node.OutputNamed(parts[1])
	} else {
		s = node.InputNamed(parts[1])
	}
	if s == nil {
		return nil, fmt.Errorf("slot path %q: container %q has no %s slot named %q", path, parts[0], dir, parts[1])
	}
	for _, name := range parts[2:] {
		var next *slots.Slot
		for i := 0; i < s.NumChildren(); i++ {
			if ch := s.Child(i); ch.Property().Name == name {
				next = ch
				break
			}
		}
		if next == nil {
			return nil, fmt.Errorf("slot path %q: slot %q has no child named %q", path, s.Property().Name, name)
		}
		s = next
	}
	return s, nil
}
