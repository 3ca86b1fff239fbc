// Copyright (c) The Farseek Authors
// SPDX-License-Identifier: MPL-2.0

package slots

// Direction says which way data flows through a slot. It is fixed at
// slot creation and shared by every child in the slot's tree.
type Direction int

const (
	DirectionInvalid Direction = iota
	Input
	Output
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "input"
	case Output:
		return "output"
	default:
		return "invalid"
	}
}

// Opposite returns the other direction. Links only exist between slots
// of opposite directions.
func (d Direction) Opposite() Direction {
	switch d {
	case Input:
		return Output
	case Output:
		return Input
	default:
		return DirectionInvalid
	}
}
