// Copyright (c) The Farseek Authors
// SPDX-License-Identifier: MPL-2.0

package slots

import (
	"github.com/hashicorp/go-multierror"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/rafagsiqueira/slotgraph/internal/dag"
)

// CanLink reports whether a link between the two slots would be valid:
// opposite directions, not already linked, the input side accepts the
// output side's type and current expression, and the link would not
// create a cycle between containers.
func CanLink(a, b *Slot) bool {
	if a == nil || b == nil || a == b {
		return false
	}
	if b.direction != a.direction.Opposite() {
		return false
	}
	if a.isLinkedTo(b) {
		return false
	}

	in, out := orient(a, b)

	// The static types must be linkable regardless of whether the
	// producer has an expression yet; an unprimed producer must not
	// sneak an incompatible link past the gate.
	outTy, inTy := out.property.Type, in.property.Type
	if !outTy.Equals(inTy) && convert.GetConversion(outTy, inTy) == nil {
		return false
	}
	if !in.kind.CanConvertFrom(out.output) {
		return false
	}

	return !wouldCreateCycle(out, in)
}

// Link connects an output slot to an input slot, in either argument
// order. It returns false with no state change when CanLink rejects
// the pair. On success the input side gives up any link it or its
// descendants already held, both back-references are inserted, and the
// input tree is recomputed.
func Link(a, b *Slot) (bool, error) {
	if !CanLink(a, b) || !CanLink(b, a) {
		return false, nil
	}
	in, out := orient(a, b)
	if err := innerLink(out, in); err != nil {
		return false, err
	}
	return true, nil
}

func innerLink(out, in *Slot) error {
	// An input tree must not hold a whole-tree link and descendant
	// links at the same time, so the incoming link evicts every link
	// at or below the input slot, and any link held by an ancestor.
	var errs *multierror.Error
	for _, t := range in.snapshotTree() {
		if err := t.UnlinkAll(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	for p := in.parent; p != nil; p = p.parent {
		if err := p.UnlinkAll(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return err
	}

	logger.Debug("linking slots", "output", out.Name(), "input", in.Name())
	out.links = append(out.links, in)
	in.links = append(in.links, out)

	return recompute(in.Root(), true)
}

// Unlink removes the link between the two slots, in either argument
// order. Unlinking slots that are not linked is a no-op. The input
// side falls back to its default expression and its container is told
// the connection changed.
func Unlink(a, b *Slot) error {
	if a == nil || b == nil || !a.isLinkedTo(b) {
		return nil
	}
	in, out := orient(a, b)

	logger.Debug("unlinking slots", "output", out.Name(), "input", in.Name())
	out.removeLink(in)
	in.removeLink(out)

	if err := recompute(in.Root(), false); err != nil {
		return err
	}
	if owner := in.Owner(); owner != nil {
		owner.Invalidate(ConnectionChanged)
	}
	return nil
}

// UnlinkAll removes every link the slot currently holds. It iterates a
// snapshot, since each unlink mutates the link list.
func (s *Slot) UnlinkAll() error {
	var errs *multierror.Error
	for _, peer := range s.LinkedSlots() {
		if err := Unlink(s, peer); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

func (s *Slot) isLinkedTo(other *Slot) bool {
	for _, peer := range s.links {
		if peer == other {
			return true
		}
	}
	return false
}

func (s *Slot) removeLink(other *Slot) {
	for i, peer := range s.links {
		if peer == other {
			s.links = append(s.links[:i], s.links[i+1:]...)
			return
		}
	}
}

// snapshotTree returns the slot and all its descendants as a flat
// slice, safe to iterate while the tree's links mutate.
func (s *Slot) snapshotTree() []*Slot {
	var all []*Slot
	s.walk(func(t *Slot) {
		all = append(all, t)
	})
	return all
}

// orient splits a valid pair into its input and output sides.
func orient(a, b *Slot) (in, out *Slot) {
	if a.direction == Input {
		return a, b
	}
	return b, a
}

// wouldCreateCycle reports whether linking out into in would make the
// dependency graph between containers (or between detached tree roots)
// cyclic. A cycle closing over the new edge can only run through the
// upstream closures of the two endpoints, so only those are walked.
// Links must keep this graph acyclic or recomputation would never
// reach a fixed point.
func wouldCreateCycle(out, in *Slot) bool {
	var g dag.AcyclicGraph

	vertexOf := func(root *Slot) dag.Vertex {
		if root.owner != nil {
			return root.owner
		}
		return root
	}

	visited := make(map[dag.Vertex]struct{})
	var visit func(v dag.Vertex)

	connectUpstream := func(v dag.Vertex, root *Slot) {
		root.walk(func(t *Slot) {
			if t.direction != Input {
				return
			}
			for _, peer := range t.links {
				pv := vertexOf(peer.Root())
				g.Connect(dag.BasicEdge(v, pv))
				visit(pv)
			}
		})
	}

	visit = func(v dag.Vertex) {
		if _, ok := visited[v]; ok {
			return
		}
		visited[v] = struct{}{}
		g.Add(v)
		switch tv := v.(type) {
		case Container:
			for i := 0; i < tv.NumInputSlots(); i++ {
				if root := tv.InputSlot(i); root != nil {
					connectUpstream(v, root.Root())
				}
			}
		case *Slot:
			connectUpstream(v, tv)
		}
	}

	inV, outV := vertexOf(in.Root()), vertexOf(out.Root())
	visit(inV)
	visit(outV)
	g.Connect(dag.BasicEdge(inV, outV))

	return g.Validate() != nil
}

// breakIncompatibleLinks force-unlinks any peer of the given output
// slot that can no longer accept its expression, returning the roots
// of the trees that lost a link so the caller can cascade into them.
func breakIncompatibleLinks(out *Slot) []*Slot {
	var lost []*Slot
	for _, peer := range out.LinkedSlots() {
		if peer.kind.CanConvertFrom(out.output) {
			continue
		}
		logger.Warn("breaking link: peer no longer accepts expression",
			"output", out.Name(), "input", peer.Name())
		out.removeLink(peer)
		peer.removeLink(out)
		if owner := peer.Owner(); owner != nil {
			owner.Invalidate(ConnectionChanged)
		}
		lost = append(lost, peer.Root())
	}
	return lost
}
