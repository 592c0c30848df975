// Copyright (c) 2023-2026 SQA Engine Contributors
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package device

import (
	"testing"

	"github.com/sqaengine/engine/internal/clock"
	"github.com/sqaengine/engine/internal/jackio"
	"github.com/sqaengine/engine/internal/param"
	"github.com/sqaengine/engine/internal/queue"
	"github.com/sqaengine/engine/internal/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePorts struct {
	bufs map[jackio.Port][]float32
}

func newFakePorts(nframes int, ids ...jackio.Port) *fakePorts {
	bufs := make(map[jackio.Port][]float32, len(ids))
	for _, id := range ids {
		bufs[id] = make([]float32, nframes)
	}
	return &fakePorts{bufs: bufs}
}

func (f *fakePorts) Buffer(p jackio.Port) ([]float32, bool) {
	b, ok := f.bufs[p]
	return b, ok
}

// harness bundles a Context with the queues needed to drive it in tests.
type harness struct {
	ctx      *Context
	cmdQ     *queue.CommandQueue
	disposal *queue.DisposalConsumer
}

func newHarness(pmax, cmax int) *harness {
	cmdQ, cmdConsumer := queue.NewCommandQueue(pmax)
	dispQ, dispConsumer := queue.NewDisposalQueue(pmax)
	return &harness{
		ctx:      New(pmax, cmax, cmdConsumer, dispQ),
		cmdQ:     cmdQ,
		disposal: dispConsumer,
	}
}

func addPlayer(h *harness, player *stream.Player) {
	if !h.cmdQ.TryPush(queue.NewAddPlayer(player)) {
		panic("command queue full in test")
	}
}

func TestProcess_ScheduledStart_NoOutputBeforeStartTime(t *testing.T) {
	h := newHarness(4, 2)
	require.True(t, h.cmdQ.TryPush(queue.NewAddChannel(0, jackio.Port(1))))

	clk := clock.NewFake(0)
	sender, player := stream.NewPair(48000, nil, clk)
	sender.SetOutputPatch(0)
	sender.PlayFromTime(1_000_000_000) // 1s in the future
	sender.SetActive(true)
	n, err := sender.Push(make([]float32, 4096))
	require.NoError(t, err)
	require.Equal(t, 4096, n)

	addPlayer(h, player)

	ports := newFakePorts(128, jackio.Port(1))
	ctrl := h.ctx.Process(128, ports, 0) // drains AddChannel
	assert.Equal(t, jackio.Continue, ctrl)
	ctrl = h.ctx.Process(128, ports, 500_000_000) // drains AddPlayer; now < startTime
	assert.Equal(t, jackio.Continue, ctrl)

	for _, v := range ports.bufs[1] {
		assert.Equal(t, float32(0), v, "no samples should be mixed before start_time")
	}
	assert.Equal(t, uint64(0), sender.PositionSamples())
}

func TestProcess_UnderflowSkipsBlock(t *testing.T) {
	h := newHarness(4, 2)
	require.True(t, h.cmdQ.TryPush(queue.NewAddChannel(0, jackio.Port(1))))

	clk := clock.NewFake(0)
	sender, player := stream.NewPair(48000, nil, clk)
	sender.SetOutputPatch(0)
	sender.SetStartTime(0)
	sender.SetActive(true)
	_, err := sender.Push(make([]float32, 10)) // fewer than nframes
	require.NoError(t, err)

	addPlayer(h, player)

	ports := newFakePorts(128, jackio.Port(1))
	h.ctx.Process(128, ports, 0) // drains AddChannel
	h.ctx.Process(128, ports, 0) // drains AddPlayer, then tries to mix: underflow

	assert.Equal(t, uint64(0), sender.PositionSamples(), "underflow must not consume any samples")
}

func TestProcess_RoundTripFidelity(t *testing.T) {
	h := newHarness(4, 2)
	require.True(t, h.cmdQ.TryPush(queue.NewAddChannel(0, jackio.Port(1))))

	clk := clock.NewFake(0)
	sender, player := stream.NewPair(48000, nil, clk)
	sender.SetOutputPatch(0)
	sender.SetStartTime(0)
	sender.SetActive(true)
	sender.SetVolume(param.NewRaw(0.5))

	samples := []float32{1, 1, 1, 1}
	_, err := sender.Push(samples)
	require.NoError(t, err)

	addPlayer(h, player)

	ports := newFakePorts(len(samples), jackio.Port(1))
	h.ctx.Process(len(samples), ports, 0) // drains AddChannel
	h.ctx.Process(len(samples), ports, 0) // drains AddPlayer, then mixes

	for _, v := range ports.bufs[1] {
		assert.Equal(t, float32(0.5), v) // 1 * volume(0.5) * masterVolume(1.0)
	}
	assert.Equal(t, uint64(len(samples)), sender.PositionSamples())
}

func TestProcess_KillWhenEmpty_KillsThenReaps(t *testing.T) {
	h := newHarness(4, 2)
	require.True(t, h.cmdQ.TryPush(queue.NewAddChannel(0, jackio.Port(1))))

	clk := clock.NewFake(0)
	sender, player := stream.NewPair(48000, nil, clk)
	sender.SetOutputPatch(0)
	sender.SetStartTime(0)
	sender.SetActive(true)
	sender.SetKillWhenEmpty(true)
	samples := make([]float32, 64)
	_, err := sender.Push(samples)
	require.NoError(t, err)

	addPlayer(h, player)

	ports := newFakePorts(64, jackio.Port(1))
	h.ctx.Process(64, ports, 0) // drains AddChannel
	h.ctx.Process(64, ports, 0) // drains AddPlayer, mixes, drains buffer to empty -> alive=false

	assert.False(t, sender.Alive())

	h.ctx.Process(64, ports, 0) // stage 3 reaps the dead player

	found := false
	for {
		d, ok := h.disposal.TryPop()
		if !ok {
			break
		}
		if d.Kind == queue.PlayerEnded {
			found = true
			assert.Same(t, player, d.Player)
		}
	}
	assert.True(t, found, "expected a PlayerEnded disposal message after reap")
}

func TestProcess_InvalidOutputPatch_DeactivatesNotKills(t *testing.T) {
	h := newHarness(4, 2)
	require.True(t, h.cmdQ.TryPush(queue.NewAddChannel(0, jackio.Port(1))))

	clk := clock.NewFake(0)
	sender, player := stream.NewPair(48000, nil, clk)
	sender.SetOutputPatch(999) // invalid: out of range
	sender.SetStartTime(0)
	sender.SetActive(true)
	_, err := sender.Push(make([]float32, 64))
	require.NoError(t, err)

	addPlayer(h, player)

	ports := newFakePorts(64, jackio.Port(1))
	h.ctx.Process(64, ports, 0) // drains AddChannel
	h.ctx.Process(64, ports, 0) // drains AddPlayer, finds invalid patch

	assert.False(t, sender.Active())
	assert.True(t, sender.Alive(), "invalid output patch deactivates, it must not kill the stream")
}

func TestProcess_CatchUp_DropsStaleSamplesBeforeMixing(t *testing.T) {
	h := newHarness(4, 2)
	require.True(t, h.cmdQ.TryPush(queue.NewAddChannel(0, jackio.Port(1))))

	const rate = 1000 // 1000 Hz keeps the math exact and the test fast
	clk := clock.NewFake(0)
	sender, player := stream.NewPair(rate, nil, clk)
	sender.SetOutputPatch(0)
	sender.SetStartTime(0)
	sender.SetActive(true)

	const nframes = 16
	const behindSamples = 100 // 100ms of drift at 1000Hz
	buf := make([]float32, behindSamples+nframes)
	for i := range buf {
		buf[i] = 1
	}
	_, err := sender.Push(buf)
	require.NoError(t, err)

	addPlayer(h, player)

	ports := newFakePorts(nframes, jackio.Port(1))
	h.ctx.Process(nframes, ports, 0) // drains AddChannel

	now := uint64(behindSamples) * (1_000_000_000 / rate) // ns equivalent of behindSamples at rate Hz
	h.ctx.Process(nframes, ports, now)                     // drains AddPlayer, catches up, then mixes

	// The catch-up loop stops as soon as position+1 is no longer behind
	// sample_delta, so it leaves position one short of delta before mixing
	// begins.
	assert.Equal(t, uint64(behindSamples-1+nframes), sender.PositionSamples())
}

func TestProcess_NumSenders_TracksLiveSet(t *testing.T) {
	h := newHarness(4, 2)
	clk := clock.NewFake(0)
	_, playerA := stream.NewPair(48000, nil, clk)
	_, playerB := stream.NewPair(48000, nil, clk)

	addPlayer(h, playerA)
	addPlayer(h, playerB)

	ports := newFakePorts(64)
	h.ctx.Process(64, ports, 0)
	h.ctx.Process(64, ports, 0)
	assert.Equal(t, uint64(2), h.ctx.NumSenders())
}
