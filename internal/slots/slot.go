// Copyright (c) The Farseek Authors
// SPDX-License-Identifier: MPL-2.0

// Package slots implements the expression-propagation engine of the
// node editor: containers own trees of typed slots, input slots link to
// output slots on other containers, and immutable expressions flow
// through the links with incremental, change-detected recomputation.
package slots

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/rafagsiqueira/slotgraph/internal/exprs"
	"github.com/rafagsiqueira/slotgraph/internal/logging"
	"github.com/rafagsiqueira/slotgraph/internal/props"
)

var logger = logging.Subsystem("slots")

// Slot is one typed port of a container. A composite slot owns one
// child slot per sub-property of its type; the children share the
// slot's direction and are addressed through the slot, never owned
// elsewhere. Parent and owner references are non-owning back-pointers
// used for upward traversal only.
type Slot struct {
	direction Direction
	property  props.Property
	kind      Kind

	// value is the literal payload for slots without a link. It is
	// cty.NilVal until assigned, in which case defaults derive from
	// the slot's type alone.
	value cty.Value

	parent   *Slot
	children []*Slot
	owner    Container // set only on root slots

	// links holds the peer slots of the opposite direction. Input
	// slots hold at most one entry; output slots hold any number.
	links []*Slot

	// The expression state. defaultExpr doubles as the "tree primed"
	// marker: a nil defaultExpr on a root means the tree has never
	// been through a recompute pass.
	defaultExpr    *exprs.Expression
	linkedIn       *exprs.Expression
	cachedLinkedIn *exprs.Expression
	resolvedIn     *exprs.Expression
	output         *exprs.Expression
}

// NewSlotTree builds the slot tree for a property: a slot for the
// property itself and, depth-first, a child slot per sub-property.
// It fails when the registry has no kind for a type in the tree.
func NewSlotTree(reg *KindRegistry, prop props.Property, dir Direction) (*Slot, error) {
	if dir != Input && dir != Output {
		return nil, fmt.Errorf("slot %q: invalid direction", prop.Name)
	}
	kind := reg.KindForType(prop.Type)
	if kind == nil {
		return nil, fmt.Errorf("slot %q: no slot kind for type %s", prop.Name, props.TypeDisplayName(prop.Type))
	}

	s := &Slot{
		direction: dir,
		property:  prop,
		kind:      kind,
		value:     cty.NilVal,
	}
	for _, sub := range prop.SubProperties() {
		child, err := NewSlotTree(reg, sub, dir)
		if err != nil {
			return nil, fmt.Errorf("slot %q: %w", prop.Name, err)
		}
		child.parent = s
		s.children = append(s.children, child)
	}
	return s, nil
}

func (s *Slot) Direction() Direction     { return s.direction }
func (s *Slot) Property() props.Property { return s.property }
func (s *Slot) Value() cty.Value         { return s.value }
func (s *Slot) Parent() *Slot            { return s.parent }
func (s *Slot) NumChildren() int         { return len(s.children) }
func (s *Slot) Child(i int) *Slot        { return s.children[i] }

// LinkedSlots returns a copy of the slot's current peers.
func (s *Slot) LinkedSlots() []*Slot {
	if len(s.links) == 0 {
		return nil
	}
	out := make([]*Slot, len(s.links))
	copy(out, s.links)
	return out
}

// Root returns the top-most ancestor of the slot's tree, the unit of
// atomic recomputation.
func (s *Slot) Root() *Slot {
	r := s
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Owner resolves the container owning the slot's tree, or nil for a
// detached tree.
func (s *Slot) Owner() Container {
	return s.Root().owner
}

// SetOwner attaches a root slot to its owning container. Child slots
// never carry an owner; theirs resolves through the root.
func (s *Slot) SetOwner(c Container) {
	if s.parent != nil {
		panic("SetOwner on non-root slot")
	}
	s.owner = c
}

// DefaultExpression returns the expression derived from the slot's own
// literal value and type, ignoring links. Nil before the first
// recompute pass over the tree.
func (s *Slot) DefaultExpression() *exprs.Expression { return s.defaultExpr }

// Expression returns the slot's publishable output expression: what a
// linked peer would currently receive. Nil before the first recompute
// pass over the tree.
func (s *Slot) Expression() *exprs.Expression { return s.output }

// ResolvedExpression returns the slot's post-conversion incoming
// expression.
func (s *Slot) ResolvedExpression() *exprs.Expression { return s.resolvedIn }

// SetValue assigns the slot's literal value and rebuilds the
// expression state of its tree. The value must be acceptable to the
// slot's type under the same conversion rules links use. A composite
// value decomposes into the children's literals, which is the
// canonical place literals live.
func (s *Slot) SetValue(v cty.Value) error {
	if v != cty.NilVal && !v.Type().Equals(s.property.Type) {
		converted, err := convertExpression(exprs.Literal(v), s.property.Type)
		if err != nil {
			return fmt.Errorf("slot %q: %w", s.property.Name, err)
		}
		v = converted.Value()
	}
	s.assignValue(v)

	// A literal edit invalidates every derived default in the tree,
	// since composite defaults compose from children.
	root := s.Root()
	root.walk(func(t *Slot) {
		t.defaultExpr = nil
	})
	return recompute(root, true)
}

func (s *Slot) assignValue(v cty.Value) {
	if len(s.children) > 0 && v != cty.NilVal {
		e := exprs.Literal(v)
		decomposable := true
		for i := range s.children {
			if s.kind.Decompose(e, i) == nil {
				decomposable = false
				break
			}
		}
		if decomposable {
			for i, ch := range s.children {
				d := s.kind.Decompose(e, i)
				if d.IsNull() {
					ch.assignValue(cty.NilVal)
				} else {
					ch.assignValue(d.Value())
				}
			}
			s.value = cty.NilVal
			return
		}
	}
	s.value = v
}

// Detach severs every link in the slot's tree and, for a root slot,
// clears the container back-reference. Containers must detach their
// slots before discarding them.
func (s *Slot) Detach() {
	s.walk(func(t *Slot) {
		t.UnlinkAll()
	})
	if s.parent == nil {
		s.owner = nil
	}
}

// walk visits the slot and every descendant in depth-first pre-order.
func (s *Slot) walk(fn func(*Slot)) {
	fn(s)
	for _, child := range s.children {
		child.walk(fn)
	}
}

// Name implements dag.NamedVertex for dot output and cycle reports.
func (s *Slot) Name() string {
	return fmt.Sprintf("%s %s(%s)", s.direction, s.property.Name, props.TypeDisplayName(s.property.Type))
}
