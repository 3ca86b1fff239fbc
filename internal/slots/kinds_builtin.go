// Copyright (c) The Farseek Authors
// SPDX-License-Identifier: MPL-2.0

package slots

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/rafagsiqueira/slotgraph/internal/exprs"
	"github.com/rafagsiqueira/slotgraph/internal/props"
)

// scalarKind serves the primitive types. Conversion follows cty's safe
// conversion rules, so e.g. a float output can feed a string input but
// not a bool input.
type scalarKind struct {
	ty cty.Type
}

func (k scalarKind) Type() cty.Type { return k.ty }

func (k scalarKind) DefaultExpression(literal cty.Value) *exprs.Expression {
	if literal == cty.NilVal {
		return exprs.Literal(zeroValue(k.ty))
	}
	return exprs.Literal(literal)
}

func (k scalarKind) CanConvertFrom(e *exprs.Expression) bool {
	if e.IsNull() {
		return true
	}
	if e.Type().Equals(k.ty) {
		return true
	}
	return convert.GetConversion(e.Type(), k.ty) != nil
}

func (k scalarKind) ConvertFrom(e *exprs.Expression) (*exprs.Expression, error) {
	return convertExpression(e, k.ty)
}

func (k scalarKind) Compose([]*exprs.Expression) *exprs.Expression {
	return nil
}

func (k scalarKind) Decompose(*exprs.Expression, int) *exprs.Expression {
	return nil
}

// compositeKind serves object types with a registered attribute layout,
// such as vectors and colors. Composition and decomposition follow the
// layout order, matching the order the slot factory creates children.
type compositeKind struct {
	ty cty.Type
}

func (k compositeKind) Type() cty.Type { return k.ty }

func (k compositeKind) layout() []props.Property {
	return props.Property{Type: k.ty}.SubProperties()
}

func (k compositeKind) DefaultExpression(literal cty.Value) *exprs.Expression {
	if literal == cty.NilVal {
		attrs := make(map[string]cty.Value)
		for name, aty := range k.ty.AttributeTypes() {
			attrs[name] = zeroValue(aty)
		}
		return exprs.Literal(cty.ObjectVal(attrs))
	}
	return exprs.Literal(literal)
}

func (k compositeKind) CanConvertFrom(e *exprs.Expression) bool {
	if e.IsNull() {
		return true
	}
	if e.Type().Equals(k.ty) {
		return true
	}
	return convert.GetConversion(e.Type(), k.ty) != nil
}

func (k compositeKind) ConvertFrom(e *exprs.Expression) (*exprs.Expression, error) {
	return convertExpression(e, k.ty)
}

func (k compositeKind) Compose(children []*exprs.Expression) *exprs.Expression {
	layout := k.layout()
	if len(children) != len(layout) {
		return nil
	}
	attrs := make(map[string]cty.Value, len(layout))
	for i, sub := range layout {
		if children[i].IsNull() {
			attrs[sub.Name] = cty.NullVal(sub.Type)
			continue
		}
		attrs[sub.Name] = children[i].Value()
	}
	return exprs.Literal(cty.ObjectVal(attrs))
}

func (k compositeKind) Decompose(e *exprs.Expression, child int) *exprs.Expression {
	layout := k.layout()
	if child < 0 || child >= len(layout) {
		return nil
	}
	sub := layout[child]
	if e.IsNull() {
		return exprs.Null(sub.Type)
	}
	return exprs.Literal(e.Value().GetAttr(sub.Name))
}

// opaqueKind serves capsule types: resources the engine routes without
// inspecting. Only exact type matches (or absent values) may link, and
// there is no composition.
type opaqueKind struct {
	ty cty.Type
}

func (k opaqueKind) Type() cty.Type { return k.ty }

func (k opaqueKind) DefaultExpression(literal cty.Value) *exprs.Expression {
	if literal == cty.NilVal {
		return exprs.Null(k.ty)
	}
	return exprs.Literal(literal)
}

func (k opaqueKind) CanConvertFrom(e *exprs.Expression) bool {
	return e.IsNull() || e.Type().Equals(k.ty)
}

func (k opaqueKind) ConvertFrom(e *exprs.Expression) (*exprs.Expression, error) {
	if e.IsNull() {
		return exprs.Null(k.ty), nil
	}
	if !e.Type().Equals(k.ty) {
		return nil, fmt.Errorf("cannot accept %s value into %s slot",
			props.TypeDisplayName(e.Type()), props.TypeDisplayName(k.ty))
	}
	return e, nil
}

func (k opaqueKind) Compose([]*exprs.Expression) *exprs.Expression {
	return nil
}

func (k opaqueKind) Decompose(*exprs.Expression, int) *exprs.Expression {
	return nil
}

// convertExpression applies cty's conversion rules, treating failure as
// an invariant violation: CanConvertFrom must gate every link before
// the expression ever reaches a resolve pass.
func convertExpression(e *exprs.Expression, ty cty.Type) (*exprs.Expression, error) {
	if e.IsNull() {
		return exprs.Null(ty), nil
	}
	if e.Type().Equals(ty) {
		return e, nil
	}
	got, err := convert.Convert(e.Value(), ty)
	if err != nil {
		return nil, fmt.Errorf("cannot accept %s value into %s slot: %w",
			props.TypeDisplayName(e.Type()), props.TypeDisplayName(ty), err)
	}
	return exprs.Literal(got), nil
}

// zeroValue is the inert literal for a type: zero for numbers, false,
// empty string, a zeroed object, null for anything else.
func zeroValue(ty cty.Type) cty.Value {
	switch {
	case ty.Equals(cty.Number):
		return cty.Zero
	case ty.Equals(cty.Bool):
		return cty.False
	case ty.Equals(cty.String):
		return cty.StringVal("")
	case ty.IsObjectType():
		attrs := make(map[string]cty.Value)
		for name, aty := range ty.AttributeTypes() {
			attrs[name] = zeroValue(aty)
		}
		return cty.ObjectVal(attrs)
	default:
		return cty.NullVal(ty)
	}
}
