// Copyright (c) 2023-2026 SQA Engine Contributors
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package queue

import (
	"github.com/google/uuid"
	"github.com/sqaengine/engine/internal/ringbuf"
	"github.com/sqaengine/engine/internal/stream"
)

// DisposalKind discriminates the Disposal union.
type DisposalKind int

const (
	// PlayerEnded carries a *stream.Player the realtime side reaped after
	// it went Dead.
	PlayerEnded DisposalKind = iota
	// PlayerRejected carries a *stream.Player that never went alive because
	// the live player set was already at PMax.
	PlayerRejected
	// HalfEmpty notifies that a stream's buffer crossed below half capacity.
	HalfEmpty
	// Empty notifies that a stream's buffer drained to zero.
	Empty
)

// Disposal is the realtime->control message union. PlayerEnded and
// PlayerRejected transfer ownership of the *stream.Player: once pushed, the
// realtime side must never touch it again.
type Disposal struct {
	Kind   DisposalKind
	Player *stream.Player // PlayerEnded, PlayerRejected
	Stream uuid.UUID      // HalfEmpty, Empty
}

// NewPlayerEnded builds a PlayerEnded disposal message.
func NewPlayerEnded(p *stream.Player) Disposal {
	return Disposal{Kind: PlayerEnded, Player: p}
}

// NewPlayerRejected builds a PlayerRejected disposal message.
func NewPlayerRejected(p *stream.Player) Disposal {
	return Disposal{Kind: PlayerRejected, Player: p}
}

// NewHalfEmpty builds a HalfEmpty disposal message.
func NewHalfEmpty(id uuid.UUID) Disposal {
	return Disposal{Kind: HalfEmpty, Stream: id}
}

// NewEmpty builds an Empty disposal message.
func NewEmpty(id uuid.UUID) Disposal {
	return Disposal{Kind: Empty, Stream: id}
}

// DisposalQueue is the realtime-side producer handle onto the disposal ring.
type DisposalQueue struct {
	ring *ringbuf.Ring[Disposal]
}

// DisposalConsumer is the control-side consumer handle onto the disposal
// ring, returned exactly once by Engine.Handle.
type DisposalConsumer struct {
	ring *ringbuf.Ring[Disposal]
}

// NewDisposalQueue allocates a disposal queue sized for pmax live players:
// at most one HalfEmpty, one Empty and one terminal message outstanding per
// player at any moment, so pmax*3 is generous headroom without being
// unbounded.
func NewDisposalQueue(pmax int) (*DisposalQueue, *DisposalConsumer) {
	r := ringbuf.New[Disposal](pmax * 3)
	return &DisposalQueue{ring: r}, &DisposalConsumer{ring: r}
}

// TryPush enqueues a disposal message. A full ring silently drops the
// message (§4.4/§4.5: a documented leak, never a realtime-side error).
func (q *DisposalQueue) TryPush(d Disposal) bool {
	return q.ring.TryPush(d)
}

// TryPop dequeues at most one disposal message.
func (c *DisposalConsumer) TryPop() (Disposal, bool) {
	return c.ring.TryPop()
}
