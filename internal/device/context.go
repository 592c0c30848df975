// Copyright (c) 2023-2026 SQA Engine Contributors
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package device holds the realtime-resident Context: the live Player set,
// the realtime-side channel table, and the one entry point the audio
// server invokes once per block. Nothing in this package allocates,
// locks, or blocks on its hot path (Process); the only exception is
// command/disposal queue pushes, which are themselves lock-free
// try-operations against a bounded ring.
package device

import (
	"sync/atomic"

	"github.com/sqaengine/engine/internal/jackio"
	"github.com/sqaengine/engine/internal/queue"
	"github.com/sqaengine/engine/internal/stream"
)

type channelSlot struct {
	port  jackio.Port
	valid bool
}

// Context is the realtime-side device state. Exactly one goroutine (the
// server's realtime callback) ever calls Process; NumSenders may be called
// concurrently from the control side.
type Context struct {
	pmax int
	cmax int

	players  []*stream.Player
	channels []channelSlot

	cmdConsumer *queue.CommandConsumer
	disposal    *queue.DisposalQueue

	liveCount atomic.Uint64
}

// New builds a Context with room for pmax live players and cmax channel
// slots, consuming commands from cmdConsumer and posting notifications to
// disposal.
func New(pmax, cmax int, cmdConsumer *queue.CommandConsumer, disposal *queue.DisposalQueue) *Context {
	return &Context{
		pmax:        pmax,
		cmax:        cmax,
		players:     make([]*stream.Player, 0, pmax),
		channels:    make([]channelSlot, cmax),
		cmdConsumer: cmdConsumer,
		disposal:    disposal,
	}
}

// NumSenders returns the realtime length counter (relaxed load), safe to
// call from the control side.
func (c *Context) NumSenders() uint64 {
	return c.liveCount.Load()
}

// Process is the single entry point the server invokes once per audio
// block. now is the current reading of the shared monotonic clock in the
// same domain as every stream's start_time.
func (c *Context) Process(nframes int, ports jackio.PortSet, now uint64) jackio.Control {
	c.drainCommand()

	deadIdx := -1
	for i, p := range c.players {
		if !p.State().Alive.Load() {
			if deadIdx == -1 {
				deadIdx = i
			}
			continue
		}
		c.mixOne(p, nframes, ports, now)
	}

	if deadIdx != -1 {
		c.reap(deadIdx)
	}

	return jackio.Continue
}

// drainCommand pops and applies at most one control->realtime command,
// keeping the worst-case per-block cost bounded.
func (c *Context) drainCommand() {
	cmd, ok := c.cmdConsumer.TryPop()
	if !ok {
		return
	}

	switch cmd.Kind {
	case queue.AddPlayer:
		if len(c.players) < c.pmax {
			c.liveCount.Add(1) // counter before alive=true, so NumSenders is always an upper bound
			cmd.Player.MarkAlive()
			c.players = append(c.players, cmd.Player)
		} else {
			c.disposal.TryPush(queue.NewPlayerRejected(cmd.Player))
		}

	case queue.AddChannel:
		if idx := cmd.ChannelIndex; idx >= 0 && idx < c.cmax {
			c.channels[idx] = channelSlot{port: cmd.ChannelPort, valid: true}
		}

	case queue.RemoveChannel:
		if idx := cmd.ChannelIndex; idx >= 0 && idx < c.cmax {
			c.channels[idx] = channelSlot{}
		}
	}
}

// mixOne runs stage 2's nine sub-steps for a single live player.
func (c *Context) mixOne(p *stream.Player, nframes int, ports jackio.PortSet, now uint64) {
	st := p.State()

	if !st.Active.Load() {
		return
	}

	port, ok := c.resolveChannel(st.OutputPatch.Load())
	if !ok {
		st.Active.Store(false)
		return
	}

	startTime := st.StartTime.Load()
	if startTime > now {
		st.Position.Store(0)
		return
	}

	delta := sampleDelta(now, startTime, p.SampleRate())
	position := st.Position.Load()

	for position+1 < delta {
		if _, popped := p.Buffer().TryPop(); !popped {
			st.Position.Store(position)
			return // feeder starving; try again next block
		}
		position++
	}
	st.Position.Store(position)

	if p.Buffer().Len() < nframes {
		return // underflow: skip this block rather than play a partial fragment
	}

	buf, ok := ports.Buffer(port)
	if !ok {
		return
	}

	vol := p.Volume()
	mvol := p.MasterVolume()
	for k := 0; k < nframes; k++ {
		sample, _ := p.Buffer().TryPop()
		if k < len(buf) {
			buf[k] += sample * vol * mvol // additive mix across every player sharing this patch
		}
		position++
	}
	st.Position.Store(position)

	if st.KillWhenEmpty.Load() && p.Buffer().Len() == 0 {
		st.Alive.Store(false)
	}

	c.notify(p)
}

// notify pushes the one-shot HalfEmpty/Empty disposal messages. Each fires
// at most once per stream lifetime; a full disposal queue drops the
// message silently rather than retrying.
func (c *Context) notify(p *stream.Player) {
	remaining := p.Buffer().Len()

	if !p.HalfSent && remaining*2 < p.Buffer().Cap() {
		c.disposal.TryPush(queue.NewHalfEmpty(p.UUID()))
		p.HalfSent = true
	}
	if !p.EmptySent && remaining == 0 {
		c.disposal.TryPush(queue.NewEmpty(p.UUID()))
		p.EmptySent = true
	}
}

// reap removes the dead player at idx from the live set via swap-remove,
// decrements the length counter, and ships the Player to the disposal
// queue. If the queue is full, the Player is leaked on purpose rather than
// freed on this goroutine.
func (c *Context) reap(idx int) {
	p := c.players[idx]
	last := len(c.players) - 1
	c.players[idx] = c.players[last]
	c.players[last] = nil
	c.players = c.players[:last]

	c.liveCount.Add(^uint64(0)) // -1

	c.disposal.TryPush(queue.NewPlayerEnded(p))
}

func (c *Context) resolveChannel(idx int64) (jackio.Port, bool) {
	if idx < 0 || idx >= int64(c.cmax) {
		return 0, false
	}
	slot := c.channels[idx]
	if !slot.valid {
		return 0, false
	}
	return slot.port, true
}

// sampleDelta derives, from first principles, how many samples have
// elapsed between startTime and now at sampleRate: samples = (now_ns -
// start_ns) * rate_hz / 1e9. See DESIGN.md for why this form (and not the
// reference's two inconsistent variants) was chosen.
func sampleDelta(now, startTime, sampleRate uint64) uint64 {
	if now <= startTime {
		return 0
	}
	return (now - startTime) * sampleRate / 1_000_000_000
}
