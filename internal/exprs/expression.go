// Copyright (c) The Farseek Authors
// SPDX-License-Identifier: MPL-2.0

// Package exprs defines Expression, the immutable symbolic value that
// flows through the slot graph. A slot never mutates an expression; any
// change of state is a swap of which expression a slot field points at,
// which is what makes change detection a cheap comparison.
package exprs

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Expression is an immutable symbolic value with a cty type. Two
// expressions are equal when they are the same object or when their
// underlying values are structurally equal.
type Expression struct {
	val cty.Value
}

// Literal returns an expression holding the given value. A cty.NilVal
// is rejected since every expression must carry a type.
func Literal(val cty.Value) *Expression {
	if val == cty.NilVal {
		panic("exprs.Literal with nil value")
	}
	return &Expression{val: val}
}

// Null returns the null expression of the given type, used for slots
// that have no data yet (e.g. an unset resource reference).
func Null(ty cty.Type) *Expression {
	return &Expression{val: cty.NullVal(ty)}
}

// Value returns the underlying cty value.
func (e *Expression) Value() cty.Value {
	return e.val
}

// Type returns the value type of the expression.
func (e *Expression) Type() cty.Type {
	return e.val.Type()
}

// IsNull reports whether the expression is absent-like: a nil
// expression pointer or a null underlying value.
func (e *Expression) IsNull() bool {
	return e == nil || e.val.IsNull()
}

// Equal is the identity-or-structure equality the engine's change
// detection relies on. Either side may be nil.
func (e *Expression) Equal(other *Expression) bool {
	if e == other {
		return true
	}
	if e == nil || other == nil {
		return false
	}
	return e.val.RawEquals(other.val)
}

func (e *Expression) GoString() string {
	if e == nil {
		return "exprs.Expression(nil)"
	}
	return fmt.Sprintf("exprs.Literal(%#v)", e.val)
}
