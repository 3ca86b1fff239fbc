// Copyright (c) The Farseek Authors
// SPDX-License-Identifier: MPL-2.0

package slots

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/rafagsiqueira/slotgraph/internal/exprs"
	"github.com/rafagsiqueira/slotgraph/internal/props"
)

// Kind is the per-value-type behavior of a slot: how to derive a
// default expression from a literal, whether and how to accept an
// expression offered over a link, and how composite values compose
// from and decompose into their children.
type Kind interface {
	// Type is the value type this kind serves.
	Type() cty.Type

	// DefaultExpression derives the expression a slot of this kind
	// exposes when it has no link, from the slot's literal value.
	// The literal may be cty.NilVal when the slot was never assigned.
	DefaultExpression(literal cty.Value) *exprs.Expression

	// CanConvertFrom reports whether an expression offered by a linked
	// peer is acceptable. A nil or null expression is always accepted.
	CanConvertFrom(e *exprs.Expression) bool

	// ConvertFrom converts an offered expression to this kind's type.
	// It fails only on expressions CanConvertFrom would have rejected,
	// which indicates a linking bug in the caller.
	ConvertFrom(e *exprs.Expression) (*exprs.Expression, error)

	// Compose builds this kind's composite expression from its
	// children's expressions, or returns nil if the kind does not
	// define composition.
	Compose(children []*exprs.Expression) *exprs.Expression

	// Decompose extracts the child'th component of a composite
	// expression, or returns nil if the kind does not define
	// decomposition.
	Decompose(e *exprs.Expression, child int) *exprs.Expression
}

// KindRegistry maps value types to their slot kinds. Registries are
// constructed explicitly and passed to the slot-tree factory; there is
// no ambient global registry.
type KindRegistry struct {
	kinds []Kind
}

func NewKindRegistry() *KindRegistry {
	return &KindRegistry{}
}

// Register adds a kind, failing if its type is already served.
func (r *KindRegistry) Register(k Kind) error {
	if existing := r.KindForType(k.Type()); existing != nil {
		return fmt.Errorf("slot kind for type %s already registered", props.TypeDisplayName(k.Type()))
	}
	r.kinds = append(r.kinds, k)
	return nil
}

// KindForType returns the kind serving the given type, or nil.
func (r *KindRegistry) KindForType(ty cty.Type) Kind {
	for _, k := range r.kinds {
		if k.Type().Equals(ty) {
			return k
		}
	}
	return nil
}

// DefaultRegistry returns a registry covering the full props catalog:
// scalar kinds for float/bool/string, composite kinds for the vector
// and color types, and opaque kinds for the capsule resource types.
func DefaultRegistry() *KindRegistry {
	r := NewKindRegistry()
	for _, k := range []Kind{
		scalarKind{props.Float},
		scalarKind{props.Bool},
		scalarKind{props.String},
		compositeKind{props.Vector2},
		compositeKind{props.Vector3},
		compositeKind{props.Vector4},
		compositeKind{props.Color},
		opaqueKind{props.Texture},
		opaqueKind{props.Gradient},
		opaqueKind{props.Mesh},
	} {
		if err := r.Register(k); err != nil {
			panic(err)
		}
	}
	return r
}
