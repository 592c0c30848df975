// Copyright (c) 2023-2026 SQA Engine Contributors
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package sqaengine_test houses the repository-wide property suite:
// randomized interleavings of sender creation, drop, volume/output-patch
// mutation and device.Context.Process calls, checked against the
// invariants every generated case must satisfy.
package sqaengine_test

import (
	"testing"

	"github.com/sqaengine/engine/internal/clock"
	"github.com/sqaengine/engine/internal/device"
	"github.com/sqaengine/engine/internal/jackio"
	"github.com/sqaengine/engine/internal/param"
	"github.com/sqaengine/engine/internal/queue"
	"github.com/sqaengine/engine/internal/stream"
	"pgregory.net/rapid"
)

type propPorts struct{ buf []float32 }

func (p *propPorts) Buffer(jackio.Port) ([]float32, bool) { return p.buf, true }

// TestProperty_AliveMonotonicityAndPlayerLimit generates random
// interleavings of sender creation/drop/volume-set/output-patch-set
// against a sequence of Process calls and asserts that alive never
// resurrects after going false, and that NumSenders never exceeds P_MAX.
func TestProperty_AliveMonotonicityAndPlayerLimit(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		const pmax = 8
		const cmax = 4

		cmdQ, cmdConsumer := queue.NewCommandQueue(pmax)
		dispQ, _ := queue.NewDisposalQueue(pmax)
		ctx := device.New(pmax, cmax, cmdConsumer, dispQ)
		clk := clock.NewFake(0)

		cmdQ.TryPush(queue.NewAddChannel(0, jackio.Port(0)))

		type tracked struct {
			sender    *stream.Sender
			everAlive bool
			everDead  bool
		}
		var senders []*tracked

		nframes := rapid.IntRange(1, 32).Draw(t, "nframes")
		ports := &propPorts{buf: make([]float32, nframes)}

		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 4).Draw(t, "action") {
			case 0: // create sender (allow oversubscription past P_MAX on purpose)
				if len(senders) < pmax*2 {
					rate := uint64(rapid.SampledFrom([]int{8000, 44100, 48000}).Draw(t, "rate"))
					sender, player := stream.NewPair(rate, nil, clk)
					cmdQ.TryPush(queue.NewAddPlayer(player))
					senders = append(senders, &tracked{sender: sender})
				}

			case 1: // close a random sender
				if len(senders) > 0 {
					idx := rapid.IntRange(0, len(senders)-1).Draw(t, "closeIdx")
					senders[idx].sender.Close()
				}

			case 2: // set volume
				if len(senders) > 0 {
					idx := rapid.IntRange(0, len(senders)-1).Draw(t, "volIdx")
					v := float32(rapid.Float64Range(0, 2).Draw(t, "vol"))
					senders[idx].sender.SetVolume(param.NewRaw(v))
				}

			case 3: // set output patch, including invalid/out-of-range values
				if len(senders) > 0 {
					idx := rapid.IntRange(0, len(senders)-1).Draw(t, "patchIdx")
					patch := rapid.IntRange(-1, cmax).Draw(t, "patch")
					senders[idx].sender.SetOutputPatch(int64(patch))
				}

			case 4: // unpause
				if len(senders) > 0 {
					idx := rapid.IntRange(0, len(senders)-1).Draw(t, "unpauseIdx")
					senders[idx].sender.Unpause()
				}
			}

			clk.Advance(uint64(nframes) * 1_000_000)
			ctx.Process(nframes, ports, clk.Now())

			if got := ctx.NumSenders(); got > pmax {
				t.Fatalf("NumSenders exceeded P_MAX: %d > %d", got, pmax)
			}

			for _, tr := range senders {
				alive := tr.sender.Alive()
				if tr.everDead && alive {
					t.Fatalf("alive flag resurrected false->true after it had gone false")
				}
				if alive {
					tr.everAlive = true
				} else if tr.everAlive {
					tr.everDead = true
				}
			}
		}
	})
}

// TestProperty_PositionNeverExceedsSamplesPushed checks an upper bound of
// the position invariant: regardless of how many Process calls run,
// PositionSamples can never exceed the number of samples actually pushed
// into the buffer (catch-up and mixing only ever consume samples that were
// really written).
func TestProperty_PositionNeverExceedsSamplesPushed(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		const pmax = 4
		const cmax = 2

		cmdQ, cmdConsumer := queue.NewCommandQueue(pmax)
		dispQ, _ := queue.NewDisposalQueue(pmax)
		ctx := device.New(pmax, cmax, cmdConsumer, dispQ)
		clk := clock.NewFake(0)

		cmdQ.TryPush(queue.NewAddChannel(0, jackio.Port(0)))

		rate := uint64(48000)
		sender, player := stream.NewPair(rate, nil, clk)
		cmdQ.TryPush(queue.NewAddPlayer(player))

		pushed := rapid.IntRange(0, 5000).Draw(t, "pushed")
		n, err := sender.Push(make([]float32, pushed))
		if err != nil {
			t.Fatalf("push failed: %v", err)
		}

		sender.SetOutputPatch(0)
		sender.SetActive(true)
		sender.SetStartTime(0)

		nframes := rapid.IntRange(1, 64).Draw(t, "nframes")
		ports := &propPorts{buf: make([]float32, nframes)}

		blocks := rapid.IntRange(1, 20).Draw(t, "blocks")
		for i := 0; i < blocks; i++ {
			clk.Advance(uint64(nframes) * 1_000_000_000 / rate)
			ctx.Process(nframes, ports, clk.Now())

			if pos := sender.PositionSamples(); pos > uint64(n) {
				t.Fatalf("position %d exceeds samples actually pushed %d", pos, n)
			}
		}
	})
}
