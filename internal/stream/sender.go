// Copyright (c) 2023-2026 SQA Engine Contributors
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package stream

import (
	"time"

	"github.com/google/uuid"
	"github.com/sqaengine/engine/internal/clock"
	"github.com/sqaengine/engine/internal/param"
	"github.com/sqaengine/engine/internal/ringbuf"
)

// Sender is the control-side handle to one stream. An
// "original" Sender's Close deactivates and kills the stream; a clone made
// via MakePlain is a PlainSender whose Close is a no-op on the stream's
// liveness. Exactly one original exists per stream.
type Sender struct {
	state      *State
	producer   *ringbuf.Ring[float32] // nil on a plain clone
	clock      clock.Clock
	original   bool
	terminated bool
}

// NewPair allocates a fresh stream: state cells, the shared ring buffer,
// and the original Sender/Player pair. masterVolume, if non-nil, is
// shared rather than freshly allocated (the new-sender-with-master case).
// The caller (engine.Engine) is
// responsible for shipping the returned *Player to the realtime side via
// an AddPlayer command.
func NewPair(sampleRate uint64, masterVolume *param.Cell, clk clock.Clock) (*Sender, *Player) {
	st := newState(sampleRate, masterVolume)
	ring := ringbuf.New[float32](BufferSize)
	sender := &Sender{
		state:    st,
		producer: ring,
		clock:    clk,
		original: true,
	}
	player := &Player{
		state:    st,
		consumer: ring,
	}
	return sender, player
}

// UUID returns this stream's identity.
func (s *Sender) UUID() uuid.UUID { return s.state.ID }

// SampleRate returns this stream's sample rate, fixed at creation.
func (s *Sender) SampleRate() uint64 { return s.state.SampleRate }

// Push enqueues samples onto this stream's buffer. Only the original
// Sender and its non-plain clones (there are none - MakePlain always
// produces a PlainSender) can do this; a PlainSender has no producer and
// Push always returns (0, ErrNoBuffer) on it.
func (s *Sender) Push(samples []float32) (int, error) {
	if s.producer == nil {
		return 0, ErrNoBuffer
	}
	for i, v := range samples {
		if !s.producer.TryPush(v) {
			return i, nil
		}
	}
	return len(samples), nil
}

// SetKillWhenEmpty sets whether this stream dies once its buffer drains.
func (s *Sender) SetKillWhenEmpty(v bool) { s.state.KillWhenEmpty.Store(v) }

// KillWhenEmpty reports the current kill-when-empty flag.
func (s *Sender) KillWhenEmpty() bool { return s.state.KillWhenEmpty.Load() }

// SetActive sets whether this stream is currently playing samples.
func (s *Sender) SetActive(v bool) { s.state.Active.Store(v) }

// Active reports whether this stream is currently playing.
func (s *Sender) Active() bool { return s.state.Active.Load() }

// Alive reports whether the realtime side still has a live Player for this
// stream. Once false, every other observation is frozen - writes from the
// control side are ignored because the Player is gone.
func (s *Sender) Alive() bool { return s.state.Alive.Load() }

// Unpause starts (or resumes) playback from this moment: StartTime is set
// to now and Active is set to true.
func (s *Sender) Unpause() {
	s.SetStartTime(s.clock.Now())
	s.SetActive(true)
}

// PlayFromTime starts playback as if the stream were scheduled to begin at
// t (a clock.Clock nanosecond value): StartTime is set to t and Active is
// set to true.
func (s *Sender) PlayFromTime(t uint64) {
	s.SetStartTime(t)
	s.SetActive(true)
}

// SetStartTime sets the instant, in the shared monotonic clock's domain,
// at which this stream should begin playback.
func (s *Sender) SetStartTime(t uint64) { s.state.StartTime.Store(t) }

// ResetPosition resets Position to 0 and StartTime to now together. These
// two fields are compared by the realtime loop; changing one without the
// other would make catch-up either drop the whole buffer or stall.
func (s *Sender) ResetPosition() {
	s.SetStartTime(s.clock.Now())
	s.state.Position.Store(0)
}

// PositionSamples returns the number of samples consumed so far.
func (s *Sender) PositionSamples() uint64 { return s.state.Position.Load() }

// Position returns PositionSamples converted to wall-clock duration at
// this stream's sample rate.
func (s *Sender) Position() time.Duration {
	ms := float64(s.state.Position.Load()) / float64(s.state.SampleRate) * 1000.0
	return time.Duration(ms) * time.Millisecond
}

// OutputPatch returns the channel index this stream is patched to, or
// NoPatch if unset.
func (s *Sender) OutputPatch() int64 { return s.state.OutputPatch.Load() }

// SetOutputPatch sets the channel index this stream writes to. An index
// the realtime side finds invalid (out of range, a hole, or NoPatch)
// deactivates the stream rather than being read as undefined memory.
func (s *Sender) SetOutputPatch(idx int64) { s.state.OutputPatch.Store(idx) }

// SetVolume replaces this stream's volume parameter.
func (s *Sender) SetVolume(v *param.Value) { s.state.Volume.Set(v) }

// Volume returns a copy of this stream's current volume parameter.
func (s *Sender) Volume() param.Value { return s.state.Volume.Get() }

// SetMasterVolume replaces this stream's master volume parameter. If this
// Sender shares its master cell with other cues (new_sender_with_master),
// every cue sharing the cell observes the new value.
func (s *Sender) SetMasterVolume(v *param.Value) { s.state.MasterVolume.Set(v) }

// MasterVolume returns a copy of this stream's current master volume.
func (s *Sender) MasterVolume() param.Value { return s.state.MasterVolume.Get() }

// MasterVolumeCell exposes the underlying cell so a new stream can share
// it (engine.NewSenderWithMaster).
func (s *Sender) MasterVolumeCell() *param.Cell { return s.state.MasterVolume }

// MakePlain returns a PlainSender observing/controlling the same stream:
// every field is shared except the buffer producer, and the clone cannot
// kill the stream on Close.
func (s *Sender) MakePlain() *Sender {
	return &Sender{
		state:    s.state,
		producer: nil,
		clock:    s.clock,
		original: false,
	}
}

// Close is the explicit terminate() a language without destructors needs
// in place of Drop: calling it on the original Sender deactivates and
// kills the stream (Active=false, Alive=false); calling it on a plain
// clone does nothing. Failing to call Close on an original Sender leaks
// the stream until the engine shuts down. Close is idempotent.
func (s *Sender) Close() {
	if s.terminated {
		return
	}
	s.terminated = true
	if s.original {
		s.state.Active.Store(false)
		s.state.Alive.Store(false)
	}
}

// ErrNoBuffer is returned by Push on a PlainSender (a Sender produced by
// MakePlain has no buffer producer to write into).
var ErrNoBuffer = errNoBuffer{}

type errNoBuffer struct{}

func (errNoBuffer) Error() string { return "stream: plain sender has no buffer to push into" }
