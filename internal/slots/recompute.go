// Copyright (c) The Farseek Authors
// SPDX-License-Identifier: MPL-2.0

package slots

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/rafagsiqueira/slotgraph/internal/exprs"
)

// Recompute rebuilds the expression state of the tree containing s,
// then cascades into any dependent trees whose inputs the rebuild
// changed, until no further change propagates. With propagate set, the
// tree's owning container is notified once; cascaded trees are never
// notified.
func (s *Slot) Recompute(propagate bool) error {
	return recompute(s.Root(), propagate)
}

// recompute is the engine's core pass. It always operates on a whole
// tree: children are never stale relative to their root, and no
// intermediate state is observable from outside the call.
func recompute(root *Slot, propagate bool) error {
	if root.parent != nil {
		root = root.Root()
	}

	// Lazy default priming: first use of a tree derives every slot's
	// default expression (leaves from their literals, composites by
	// composing children) and starts all fields from it. After a
	// literal edit only the defaults re-derive; the live fields keep
	// their stale values so change detection can see the difference.
	if root.defaultExpr == nil {
		primeDefaults(root)
	}

	// Before an input tree reads its peers' outputs, every distinct
	// peer tree must have been primed itself, or a slot could read an
	// uninitialized expression from an upstream producer.
	if root.direction == Input {
		if err := primeUpstream(root); err != nil {
			return err
		}
	}

	tree := root.snapshotTree() // pre-order: parents before children

	// Linked-in refresh: what each slot currently receives.
	for _, t := range tree {
		t.linkedIn = t.currentLinkedIn()
	}

	// Change detection. If nothing differs from the last pass the
	// whole recompute is a no-op; this short-circuit is what keeps
	// deep or widely-shared graphs from recomputing exponentially.
	var changedSlots []*Slot
	for _, t := range tree {
		if !t.linkedIn.Equal(t.cachedLinkedIn) {
			changedSlots = append(changedSlots, t)
		}
	}
	if len(changedSlots) == 0 {
		return nil
	}
	for _, t := range tree {
		t.cachedLinkedIn = t.linkedIn
	}
	logger.Trace("recomputing slot tree", "root", root.Name(), "changed", len(changedSlots))

	if err := resolveTree(root, tree, changedSlots); err != nil {
		return err
	}

	dirtyRoots := deriveOutputs(root)

	if propagate {
		if owner := root.owner; owner != nil {
			owner.Invalidate(StructureChanged)
		}
	}

	// A changed input tree re-derives its container's outputs, which
	// is how a change crosses a container and keeps flowing to the
	// containers downstream of it.
	if root.direction == Input {
		if owner := root.owner; owner != nil {
			owner.UpdateOutputs()
		}
	}

	// Cascade into every tree that lost a link or feeds from a changed
	// output. Termination: each recursive pass either detects no
	// change and stops, or strictly swaps some expression, and the
	// link graph between tree roots is kept acyclic at Link time.
	for _, r := range dirtyRoots {
		if err := recompute(r, false); err != nil {
			return err
		}
	}
	return nil
}

// currentLinkedIn is what the slot receives right now: a linked input
// slot receives its peer's output expression, everything else falls
// back to its own default.
func (s *Slot) currentLinkedIn() *exprs.Expression {
	if s.direction == Input && len(s.links) > 0 {
		if out := s.links[0].output; out != nil {
			return out
		}
	}
	return s.defaultExpr
}

// resolveTree rebuilds every slot's resolved expression from its
// linked-in expression: start slots (those holding non-default data)
// convert and seed the pass, changes propagate down by decomposition
// and up by recomposition, and with no start slots at all everything
// collapses back to its default.
func resolveTree(root *Slot, tree, changedSlots []*Slot) error {
	var startSlots []*Slot
	for _, t := range tree {
		if !t.linkedIn.Equal(t.defaultExpr) {
			startSlots = append(startSlots, t)
		}
	}

	if len(startSlots) == 0 {
		for _, t := range tree {
			t.resolvedIn = t.linkedIn
		}
		return nil
	}

	// Slots whose data went away (an unlinked slot back on its
	// default, or a re-derived default) collapse first, so the
	// recomposition below sees their fresh values.
	var seeds []*Slot
	for _, t := range changedSlots {
		if t.linkedIn.Equal(t.defaultExpr) && !t.linkedIn.Equal(t.resolvedIn) {
			t.resolvedIn = t.linkedIn
			seeds = append(seeds, t)
		}
	}

	for _, t := range startSlots {
		resolved, err := t.kind.ConvertFrom(t.linkedIn)
		if err != nil {
			// Unreachable when CanLink gated the link correctly, so
			// this is a broken invariant, not a user error.
			return fmt.Errorf("slot %q: linked expression failed conversion: %w", t.property.Name, err)
		}
		if resolved.Equal(t.resolvedIn) {
			continue
		}
		t.resolvedIn = resolved
		seeds = append(seeds, t)
		resolveDown(t)
	}

	for _, t := range seeds {
		resolveUp(t)
	}
	return nil
}

// resolveDown pushes a composite resolved expression into descendants
// by decomposition. Kinds without decomposition fall back to the
// peer's matching child expression, then to the child's own linked-in.
func resolveDown(s *Slot) {
	var peer *Slot
	if s.direction == Input && len(s.links) > 0 {
		peer = s.links[0]
	}
	for i, ch := range s.children {
		d := s.kind.Decompose(s.resolvedIn, i)
		if d == nil && peer != nil && i < len(peer.children) {
			d = peer.children[i].output
		}
		if d == nil {
			d = ch.linkedIn
		}
		if d.Equal(ch.resolvedIn) {
			continue
		}
		ch.resolvedIn = d
		resolveDown(ch)
	}
}

// resolveUp recomposes each ancestor's resolved expression from all of
// its children's, stopping as soon as an ancestor comes out unchanged.
func resolveUp(s *Slot) {
	for p := s.parent; p != nil; p = p.parent {
		childExprs := make([]*exprs.Expression, len(p.children))
		for i, ch := range p.children {
			childExprs[i] = ch.resolvedIn
		}
		composed := p.kind.Compose(childExprs)
		if composed == nil || composed.Equal(p.resolvedIn) {
			return
		}
		p.resolvedIn = composed
	}
}

// deriveOutputs publishes the tree's resolved state: the root's output
// comes from its resolved expression and descendants derive theirs by
// decomposing the parent's output. It returns the deduplicated roots
// of peer trees left with stale linked-in state, after force-unlinking
// any peer that can no longer accept its producer's new expression.
func deriveOutputs(root *Slot) []*Slot {
	if root.resolvedIn.Equal(root.output) {
		return nil
	}
	root.output = root.resolvedIn

	changed := []*Slot{root}
	deriveChildOutputs(root, &changed)

	var dirty []*Slot
	seen := make(map[*Slot]struct{})
	addDirty := func(r *Slot) {
		if _, ok := seen[r]; !ok {
			seen[r] = struct{}{}
			dirty = append(dirty, r)
		}
	}

	for _, o := range changed {
		if o.direction != Output {
			continue
		}
		for _, r := range breakIncompatibleLinks(o) {
			addDirty(r)
		}
		for _, peer := range o.links {
			addDirty(peer.Root())
		}
	}
	return dirty
}

func deriveChildOutputs(s *Slot, changed *[]*Slot) {
	for i, ch := range s.children {
		d := s.kind.Decompose(s.output, i)
		if d == nil {
			d = ch.resolvedIn
		}
		if d.Equal(ch.output) {
			continue
		}
		ch.output = d
		*changed = append(*changed, ch)
		deriveChildOutputs(ch, changed)
	}
}

// primeDefaults derives default expressions depth-first. On a tree's
// very first pass it also starts the live fields from the defaults; on
// re-derivation after a literal edit the live fields are left alone.
func primeDefaults(s *Slot) {
	for _, ch := range s.children {
		primeDefaults(ch)
	}

	var def *exprs.Expression
	switch {
	case len(s.children) == 0 || s.value != cty.NilVal:
		def = s.kind.DefaultExpression(s.value)
	default:
		childDefs := make([]*exprs.Expression, len(s.children))
		for i, ch := range s.children {
			childDefs[i] = ch.defaultExpr
		}
		if def = s.kind.Compose(childDefs); def == nil {
			def = s.kind.DefaultExpression(cty.NilVal)
		}
	}

	s.defaultExpr = def
	if s.linkedIn == nil {
		s.linkedIn = def
		s.cachedLinkedIn = def
		s.resolvedIn = def
		s.output = def
	}
}

// primeUpstream makes sure every distinct tree feeding any slot of the
// given input tree has been through at least one pass.
func primeUpstream(root *Slot) error {
	seen := make(map[*Slot]struct{})
	var err error
	root.walk(func(t *Slot) {
		if err != nil {
			return
		}
		for _, peer := range t.links {
			peerRoot := peer.Root()
			if _, ok := seen[peerRoot]; ok {
				continue
			}
			seen[peerRoot] = struct{}{}
			if peerRoot.defaultExpr != nil {
				continue
			}
			err = recompute(peerRoot, false)
		}
	})
	return err
}
