// Copyright (c) The Farseek Authors
// SPDX-License-Identifier: MPL-2.0

package slots

// InvalidationCause tells a container why the engine is invalidating
// it, so editors can redraw only what the change touched.
type InvalidationCause int

const (
	// StructureChanged means expressions inside one of the container's
	// slot trees were rebuilt.
	StructureChanged InvalidationCause = iota

	// ConnectionChanged means a link on one of the container's slots
	// was added or removed.
	ConnectionChanged
)

func (c InvalidationCause) String() string {
	switch c {
	case StructureChanged:
		return "structure changed"
	case ConnectionChanged:
		return "connection changed"
	default:
		return "unknown"
	}
}

// Container is implemented by the owners of top-level slots: one
// container corresponds to one node in the editor's visual graph. The
// engine resolves a slot's container by walking parent references to
// the tree root.
type Container interface {
	// NumInputSlots returns how many top-level input slots the
	// container owns.
	NumInputSlots() int

	// InputSlot returns the i'th top-level input slot.
	InputSlot(i int) *Slot

	// UpdateOutputs asks the container to recompute its output slot
	// values from its current input expressions. Called during
	// initialization, in dependency order.
	UpdateOutputs()

	// Invalidate notifies the container that slot state it may have
	// cached or displayed is out of date.
	Invalidate(cause InvalidationCause)
}
