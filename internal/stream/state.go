// Copyright (c) 2023-2026 SQA Engine Contributors
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package stream holds the per-cue state shared between the control-side
// Sender and the realtime-side Player, and the two handle types
// themselves.
package stream

import (
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sqaengine/engine/internal/param"
)

// BufferSize is the fixed per-stream sample buffer capacity.
const BufferSize = 100_000

// NoPatch is the sentinel output-patch value meaning "not patched to any
// channel". A freshly created stream starts with this value and the
// realtime loop deactivates (never kills) any stream whose patch resolves
// to it or to any other invalid index.
const NoPatch int64 = -1

// State is the fixed bundle of atomically shared flags and counters:
// exactly one Sender and one Player reference the same *State. Every
// field here uses relaxed-equivalent Load/Store - Go's atomic package
// doesn't expose separate memory-order knobs, and Load/Store already
// provide at least as strong an ordering as the relaxed semantics this
// requires, so no weaker access is available to ask for.
type State struct {
	Active        atomic.Bool
	Alive         atomic.Bool
	KillWhenEmpty atomic.Bool
	Position      atomic.Uint64
	StartTime     atomic.Uint64
	OutputPatch   atomic.Int64

	Volume       *param.Cell
	MasterVolume *param.Cell

	SampleRate uint64
	ID         uuid.UUID
}

// newState builds a freshly-initialized State: Volume=1.0, Position=0,
// StartTime=0, Active=false, Alive=false, OutputPatch=NoPatch,
// KillWhenEmpty=false. masterVolume, when non-nil, is shared with an
// existing stream's cue group instead of allocating a new one (the
// new-sender-with-master case).
func newState(sampleRate uint64, masterVolume *param.Cell) *State {
	s := &State{
		Volume:       param.NewCell(param.NewRaw(1.0)),
		MasterVolume: masterVolume,
		SampleRate:   sampleRate,
		ID:           uuid.New(),
	}
	if s.MasterVolume == nil {
		s.MasterVolume = param.NewCell(param.NewRaw(1.0))
	}
	s.OutputPatch.Store(NoPatch)
	return s
}
