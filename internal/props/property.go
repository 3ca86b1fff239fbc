// Copyright (c) The Farseek Authors
// SPDX-License-Identifier: MPL-2.0

// Package props describes the typed values that slots carry: a property
// is a named, typed descriptor, and composite properties decompose into
// an ordered sequence of sub-properties. The decomposition is consumed
// exactly once, at slot-tree construction time.
package props

import (
	"github.com/zclconf/go-cty/cty"
)

// Property describes one typed value: a display name and a cty type.
type Property struct {
	Name string
	Type cty.Type
}

// SubProperties returns the ordered decomposition of a composite
// property, one sub-property per attribute, or nil for primitive and
// capsule types. Attribute order comes from the registered layout for
// known composite types, so a vector decomposes as x, y, z rather than
// in lexical order.
func (p Property) SubProperties() []Property {
	if !p.Type.IsObjectType() {
		return nil
	}

	atys := p.Type.AttributeTypes()
	names := attributeOrder(p.Type)

	subs := make([]Property, 0, len(names))
	for _, name := range names {
		subs = append(subs, Property{
			Name: name,
			Type: atys[name],
		})
	}
	return subs
}

// TypeDisplayName returns the friendly name of the property's type for
// diagnostics and dot output.
func TypeDisplayName(ty cty.Type) string {
	for _, layout := range compositeLayouts {
		if ty.Equals(layout.ty) {
			return layout.name
		}
	}
	switch {
	case ty.Equals(cty.Number):
		return "float"
	case ty.Equals(cty.Bool):
		return "bool"
	case ty.Equals(cty.String):
		return "string"
	case ty.IsCapsuleType():
		return ty.FriendlyName()
	default:
		return ty.FriendlyName()
	}
}
