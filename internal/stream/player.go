// Copyright (c) 2023-2026 SQA Engine Contributors
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package stream

import (
	"github.com/google/uuid"
	"github.com/sqaengine/engine/internal/ringbuf"
)

// Player is the realtime-side mirror of a stream. It is only
// ever touched by the single realtime goroutine; HalfSent and EmptySent
// are plain bools (not atomics) for exactly that reason - nothing else
// ever reads or writes them.
type Player struct {
	state    *State
	consumer *ringbuf.Ring[float32]

	// HalfSent and EmptySent guard the one-shot HalfEmpty/Empty disposal
	// notifications: each fires at most once per stream lifetime.
	HalfSent  bool
	EmptySent bool
}

// UUID returns this stream's identity.
func (p *Player) UUID() uuid.UUID { return p.state.ID }

// SampleRate returns this stream's sample rate.
func (p *Player) SampleRate() uint64 { return p.state.SampleRate }

// State exposes the shared state bundle for the device loop's stage 2/3.
func (p *Player) State() *State { return p.state }

// Buffer exposes the consumer end of this stream's ring; only the
// realtime loop ever pops from it.
func (p *Player) Buffer() *ringbuf.Ring[float32] { return p.consumer }

// MarkAlive publishes this Player as accepted. By design the caller must
// increment the engine's live count *before* calling MarkAlive, so
// NumSenders is always an upper bound on the realtime-visible player set.
func (p *Player) MarkAlive() { p.state.Alive.Store(true) }

// Volume reads this stream's current per-stream volume scalar via
// load-acquire; the realtime loop never stores through this.
func (p *Player) Volume() float32 { return p.state.Volume.Load() }

// MasterVolume reads this stream's current master volume scalar.
func (p *Player) MasterVolume() float32 { return p.state.MasterVolume.Load() }
