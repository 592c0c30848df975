// Copyright (c) 2023-2026 SQA Engine Contributors
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package param implements the atomically-swappable parameter cell the
// realtime loop reads volumes from: the control side swaps a new box in
// with acquire/release ordering and reclaims the old one itself; the
// realtime side only ever loads.
package param

import "sync/atomic"

// Kind tags the form a Value takes. Raw is the only form defined; the tag
// lets a curve- or envelope-driven parameter be added later without
// changing Cell's shape.
type Kind int

const (
	// Raw is a plain scalar value.
	Raw Kind = iota
)

// Value is the tagged union backing a parameter. Only Raw is read by the
// realtime loop; Scalar holds that reading.
type Value struct {
	Kind   Kind
	Scalar float32
}

// NewRaw builds a Raw-kind Value.
func NewRaw(v float32) *Value {
	return &Value{Kind: Raw, Scalar: v}
}

// Cell is an atomically swappable box holding a *Value. The zero Cell is
// not usable; construct one with NewCell.
type Cell struct {
	box atomic.Pointer[Value]
}

// NewCell constructs a Cell holding the given initial value.
func NewCell(initial *Value) *Cell {
	c := &Cell{}
	c.box.Store(initial)
	return c
}

// Set replaces the cell's contents. This must only be called from the
// control side: the previous box is simply dropped here and Go's
// collector reclaims it on the calling goroutine's account, never on the
// realtime goroutine's.
func (c *Cell) Set(v *Value) {
	c.box.Store(v)
}

// Swap atomically replaces the cell's contents and returns the previous
// value, mirroring the Rust original's explicit swap-and-free step (Go's
// GC makes the free a no-op for the caller, but the happens-before
// relationship the spec requires - any write before Set happens-before
// the realtime Load - still holds: atomic.Pointer.Swap is a release
// operation paired with Load's acquire).
func (c *Cell) Swap(v *Value) *Value {
	return c.box.Swap(v)
}

// Get returns a copy of the current value for control-side observation.
func (c *Cell) Get() Value {
	return *c.box.Load()
}

// Load is the realtime-only raw-scalar read: a load-acquire of the
// current box followed by extracting its scalar. It never stores.
func (c *Cell) Load() float32 {
	return c.box.Load().Scalar
}
