// Copyright (c) The Farseek Authors
// SPDX-License-Identifier: MPL-2.0

package props

import (
	"reflect"
	"sort"

	"github.com/zclconf/go-cty/cty"
)

// The value-type catalog for the VFX slot graph. Scalars and vectors
// are ordinary cty types; opaque GPU resources are capsule types, since
// the engine routes them between slots without inspecting them.
var (
	Float  = cty.Number
	Bool   = cty.Bool
	String = cty.String

	Vector2 = cty.Object(map[string]cty.Type{
		"x": cty.Number,
		"y": cty.Number,
	})
	Vector3 = cty.Object(map[string]cty.Type{
		"x": cty.Number,
		"y": cty.Number,
		"z": cty.Number,
	})
	Vector4 = cty.Object(map[string]cty.Type{
		"x": cty.Number,
		"y": cty.Number,
		"z": cty.Number,
		"w": cty.Number,
	})
	Color = cty.Object(map[string]cty.Type{
		"r": cty.Number,
		"g": cty.Number,
		"b": cty.Number,
		"a": cty.Number,
	})

	Texture  = cty.Capsule("texture", reflect.TypeOf(TextureRef{}))
	Gradient = cty.Capsule("gradient", reflect.TypeOf(GradientRef{}))
	Mesh     = cty.Capsule("mesh", reflect.TypeOf(MeshRef{}))
)

// TextureRef identifies a texture asset owned by the host editor.
type TextureRef struct {
	AssetID string
}

// GradientRef identifies a gradient asset owned by the host editor.
type GradientRef struct {
	AssetID string
}

// MeshRef identifies a mesh asset owned by the host editor.
type MeshRef struct {
	AssetID string
}

// compositeLayouts fixes the sub-property order for the composite types
// above. Object attribute maps are unordered, and lexical order would
// decompose a vector4 as w, x, y, z.
var compositeLayouts = []struct {
	name  string
	ty    cty.Type
	order []string
}{
	{"vector2", Vector2, []string{"x", "y"}},
	{"vector3", Vector3, []string{"x", "y", "z"}},
	{"vector4", Vector4, []string{"x", "y", "z", "w"}},
	{"color", Color, []string{"r", "g", "b", "a"}},
}

// TypeNamed looks up a catalog type by its display name, as used in
// graph definition files. The second result is false for unknown names.
func TypeNamed(name string) (cty.Type, bool) {
	switch name {
	case "float":
		return Float, true
	case "bool":
		return Bool, true
	case "string":
		return String, true
	case "vector2":
		return Vector2, true
	case "vector3":
		return Vector3, true
	case "vector4":
		return Vector4, true
	case "color":
		return Color, true
	case "texture":
		return Texture, true
	case "gradient":
		return Gradient, true
	case "mesh":
		return Mesh, true
	default:
		return cty.NilType, false
	}
}

func attributeOrder(ty cty.Type) []string {
	for _, layout := range compositeLayouts {
		if ty.Equals(layout.ty) {
			return layout.order
		}
	}

	// Unregistered object types fall back to cty's sorted order.
	atys := ty.AttributeTypes()
	names := make([]string, 0, len(atys))
	for name := range atys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
