// Copyright (c) 2023-2026 SQA Engine Contributors
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package queue wraps the two fixed-size SPSC rings the control plane and
// the realtime loop exchange messages over: the command queue (control ->
// realtime) and the disposal queue (realtime -> control). Both are a
// ringbuf.Ring[T] underneath; this package exists to give the two
// directions distinct message types and a single construction point for
// their sizes.
package queue

import (
	"github.com/sqaengine/engine/internal/jackio"
	"github.com/sqaengine/engine/internal/ringbuf"
	"github.com/sqaengine/engine/internal/stream"
)

// CommandQueueSize returns the command queue's capacity for a given player
// limit: 2*pmax, generous by design (§7) so a burst of control operations
// never has to wait on the realtime side draining it.
func CommandQueueSize(pmax int) int {
	return 2 * pmax
}

// Command is the control->realtime message union. Exactly one of the
// embedded fields is meaningful per value; Kind discriminates which.
type Command struct {
	Kind CommandKind

	// AddPlayer
	Player *stream.Player

	// AddChannel / RemoveChannel
	ChannelIndex int
	// AddChannel only: the port the realtime side mixes this channel into.
	ChannelPort jackio.Port
}

// CommandKind discriminates the Command union.
type CommandKind int

const (
	// AddPlayer ships a freshly built *stream.Player to the realtime side.
	AddPlayer CommandKind = iota
	// AddChannel tells the realtime side to start mixing into a channel slot.
	AddChannel
	// RemoveChannel tells the realtime side to stop mixing into a channel slot.
	RemoveChannel
)

// NewAddPlayer builds an AddPlayer command.
func NewAddPlayer(p *stream.Player) Command {
	return Command{Kind: AddPlayer, Player: p}
}

// NewAddChannel builds an AddChannel command.
func NewAddChannel(idx int, port jackio.Port) Command {
	return Command{Kind: AddChannel, ChannelIndex: idx, ChannelPort: port}
}

// NewRemoveChannel builds a RemoveChannel command.
func NewRemoveChannel(idx int) Command {
	return Command{Kind: RemoveChannel, ChannelIndex: idx}
}

// CommandQueue is the control-side producer handle onto the command ring.
type CommandQueue struct {
	ring *ringbuf.Ring[Command]
}

// NewCommandQueue allocates a command queue sized for pmax live players.
func NewCommandQueue(pmax int) (*CommandQueue, *CommandConsumer) {
	r := ringbuf.New[Command](CommandQueueSize(pmax))
	return &CommandQueue{ring: r}, &CommandConsumer{ring: r}
}

// TryPush enqueues a command; false means the queue is full and the
// command was not enqueued. The engine package's callers ignore the result.
func (q *CommandQueue) TryPush(c Command) bool {
	return q.ring.TryPush(c)
}

// CommandConsumer is the realtime-side consumer handle onto the command ring.
type CommandConsumer struct {
	ring *ringbuf.Ring[Command]
}

// TryPop dequeues at most one command. Stage 1 of device.Context.Process
// calls this at most once per block so its cost is bounded.
func (c *CommandConsumer) TryPop() (Command, bool) {
	return c.ring.TryPop()
}
