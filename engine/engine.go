// Copyright (c) 2023-2026 SQA Engine Contributors
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package engine is the non-realtime facade known as the engine context:
// it owns the server connection, the control-side channel table, and the
// one-shot handle to the disposal queue, and is the only entry point
// callers outside this module need.
package engine

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sqaengine/engine/internal/clock"
	"github.com/sqaengine/engine/internal/device"
	"github.com/sqaengine/engine/internal/jackio"
	"github.com/sqaengine/engine/internal/queue"
	"github.com/sqaengine/engine/internal/stream"
)

// ServerOpener opens a connection to a JACK-compatible audio server under
// the given client name. Keeping this a caller-supplied function (rather
// than New dialing a concrete client itself) is what keeps this package
// free of cgo: the real dependency (jackio/jackclient.Open) lives outside
// the core and is wired in by cmd/sqa-demo, never imported here.
type ServerOpener func(name string) (jackio.ServerConn, error)

// Engine is the control-side facade over one connected audio server.
type Engine struct {
	conn jackio.ServerConn
	ctx  *device.Context
	cmdQ *queue.CommandQueue
	clk  clock.Clock

	pmax int
	cmax int

	disposalConsumer *queue.DisposalConsumer
	disposalTaken    atomic.Bool

	chMu         sync.Mutex
	ports        map[int]jackio.Port
	holes        []int
	nextIndex    int
	liveChannels int
}

// New opens a server connection via open (under cfg's client name,
// "SQA Engine" unless overridden with WithName), allocates both SPSC
// queues sized from P_MAX, installs a *device.Context as the server's
// realtime handler, and activates the connection.
func New(open ServerOpener, opts ...Option) (*Engine, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	conn, err := open(cfg.name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJack, err)
	}

	cmdQ, cmdConsumer := queue.NewCommandQueue(cfg.pmax)
	dispQ, dispConsumer := queue.NewDisposalQueue(cfg.pmax)
	ctx := device.New(cfg.pmax, cfg.cmax, cmdConsumer, dispQ)

	conn.SetHandler(ctx)
	if err := conn.Activate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJack, err)
	}

	return &Engine{
		conn:             conn,
		ctx:              ctx,
		cmdQ:             cmdQ,
		clk:              clock.NewMonotonic(),
		pmax:             cfg.pmax,
		cmax:             cfg.cmax,
		disposalConsumer: dispConsumer,
		ports:            make(map[int]jackio.Port),
	}, nil
}

// Handle returns the disposal queue's consumer end exactly once; every
// subsequent call returns (nil, false). The caller is expected to drain it
// continually from a non-realtime goroutine.
func (e *Engine) Handle() (*queue.DisposalConsumer, bool) {
	if e.disposalTaken.Swap(true) {
		return nil, false
	}
	return e.disposalConsumer, true
}

// NewChannel registers a new output, terminal-capable port under name,
// assigns it an index (reusing a freed hole first, else appending), and
// ships AddChannel to the realtime side. Fails with ErrLimitExceeded at
// C_MAX-1 live channels, or wraps the server's registration error as
// ErrJack.
func (e *Engine) NewChannel(name string) (int, error) {
	e.chMu.Lock()
	defer e.chMu.Unlock()

	if e.liveChannels >= e.cmax-1 {
		return 0, ErrLimitExceeded
	}

	port, err := e.conn.RegisterPort(name, jackio.PortOutput|jackio.PortTerminal)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrJack, err)
	}

	idx := e.allocIndex()
	e.ports[idx] = port
	e.liveChannels++
	e.cmdQ.TryPush(queue.NewAddChannel(idx, port))
	return idx, nil
}

// RemoveChannel validates idx is in range and currently live, records it
// as a hole for reuse, ships RemoveChannel to the realtime side, and
// unregisters the port. Fails with ErrNoSuchChannel otherwise.
func (e *Engine) RemoveChannel(idx int) error {
	e.chMu.Lock()
	port, ok := e.ports[idx]
	if !ok {
		e.chMu.Unlock()
		return ErrNoSuchChannel
	}
	delete(e.ports, idx)
	e.holes = append(e.holes, idx)
	e.liveChannels--
	e.cmdQ.TryPush(queue.NewRemoveChannel(idx))
	e.chMu.Unlock()

	if err := e.conn.UnregisterPort(port); err != nil {
		return fmt.Errorf("%w: %v", ErrJack, err)
	}
	return nil
}

// allocIndex must be called with chMu held.
func (e *Engine) allocIndex() int {
	if n := len(e.holes); n > 0 {
		idx := e.holes[n-1]
		e.holes = e.holes[:n-1]
		return idx
	}
	idx := e.nextIndex
	e.nextIndex++
	return idx
}

// NewSender allocates a fresh stream at sampleRate (volume=1.0,
// position=0, start_time=0, active=false, alive=false,
// output_patch=stream.NoPatch, kill_when_empty=false), mints a UUID,
// builds the Player mirror, and pushes AddPlayer. Returns the original
// Sender.
func (e *Engine) NewSender(sampleRate uint64) *stream.Sender {
	sender, player := stream.NewPair(sampleRate, nil, e.clk)
	e.cmdQ.TryPush(queue.NewAddPlayer(player))
	return sender
}

// NewSenderWithMaster is NewSender, except the new stream shares other's
// master-volume cell instead of allocating a fresh one — the mechanism by
// which a group of cues shares one fader.
func (e *Engine) NewSenderWithMaster(sampleRate uint64, other *stream.Sender) *stream.Sender {
	sender, player := stream.NewPair(sampleRate, other.MasterVolumeCell(), e.clk)
	e.cmdQ.TryPush(queue.NewAddPlayer(player))
	return sender
}

// NumSenders returns the realtime-side live player count (relaxed load).
func (e *Engine) NumSenders() uint64 {
	return e.ctx.NumSenders()
}

// SampleRate returns the connected server's fixed sample rate.
func (e *Engine) SampleRate() uint32 {
	return e.conn.SampleRate()
}
