// Copyright (c) 2023-2026 SQA Engine Contributors
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Command sqa-demo opens a connection to a running JACK server, registers
// two output channels, plays a test tone through one of them, and prints
// every disposal message it receives until interrupted.
package main

import (
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/sqaengine/engine/engine"
	"github.com/sqaengine/engine/internal/config"
	"github.com/sqaengine/engine/internal/jackio"
	"github.com/sqaengine/engine/internal/jackio/jackclient"
	"github.com/sqaengine/engine/internal/logging"
	"github.com/sqaengine/engine/internal/param"
	"github.com/sqaengine/engine/internal/queue"
)

func main() {
	var envPath string
	var dev bool
	pflag.StringVar(&envPath, "env", "", "optional path to a .env file (overrides ENV_PATH)")
	pflag.BoolVar(&dev, "dev", false, "use the human-readable development logger")
	pflag.Parse()

	if envPath != "" {
		os.Setenv("ENV_PATH", envPath)
	}

	if err := run(dev); err != nil {
		fmt.Fprintln(os.Stderr, "sqa-demo:", err)
		os.Exit(1)
	}
}

func run(dev bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var log logging.Logger
	if dev {
		log, err = logging.NewDevelopmentLogger()
	} else {
		log, err = logging.NewApplicationLogger()
	}
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync()

	log.Infow("starting sqa-demo",
		"client_name", cfg.ClientName,
		"max_players", cfg.MaxPlayers,
		"max_chans", cfg.MaxChans,
		"tone_hz", cfg.ToneHz,
	)

	eng, err := engine.New(
		func(name string) (jackio.ServerConn, error) { return jackclient.Open(name) },
		engine.WithName(cfg.ClientName),
		engine.WithMaxPlayers(cfg.MaxPlayers),
		engine.WithMaxChannels(cfg.MaxChans),
	)
	if err != nil {
		return fmt.Errorf("opening engine: %w", err)
	}

	leftIdx, err := eng.NewChannel("left")
	if err != nil {
		return fmt.Errorf("registering left channel: %w", err)
	}
	rightIdx, err := eng.NewChannel("right")
	if err != nil {
		return fmt.Errorf("registering right channel: %w", err)
	}
	log.Infow("registered channels", "left", leftIdx, "right", rightIdx)

	sampleRate := uint64(eng.SampleRate())
	sender := eng.NewSender(sampleRate)
	sender.SetOutputPatch(int64(leftIdx))
	sender.SetVolume(param.NewRaw(0.8))

	tone := makeTone(cfg.ToneHz, sampleRate, 3*time.Second)
	if _, err := sender.Push(tone); err != nil {
		return fmt.Errorf("queuing test tone: %w", err)
	}
	sender.Unpause()
	sender.SetStartTime(0)
	sender.SetActive(true)
	sender.SetKillWhenEmpty(true)

	disposal, ok := eng.Handle()
	if !ok {
		return fmt.Errorf("disposal queue was already claimed")
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			log.Infow("shutting down")
			sender.Close()
			return nil
		case <-ticker.C:
			for {
				d, ok := disposal.TryPop()
				if !ok {
					break
				}
				logDisposal(log, d)
			}
		}
	}
}

func logDisposal(log logging.Logger, d queue.Disposal) {
	switch d.Kind {
	case queue.PlayerEnded:
		log.Infow("stream ended", "stream", d.Player.UUID())
	case queue.PlayerRejected:
		log.Warnw("stream rejected: player limit reached", "stream", d.Player.UUID())
	case queue.HalfEmpty:
		log.Debugw("stream buffer half empty", "stream", d.Stream)
	case queue.Empty:
		log.Debugw("stream buffer empty", "stream", d.Stream)
	}
}

// makeTone synthesizes a full-scale sine wave at hz for the given
// duration at sampleRate, for feeding straight into Sender.Push.
func makeTone(hz float64, sampleRate uint64, duration time.Duration) []float32 {
	n := int(float64(sampleRate) * duration.Seconds())
	samples := make([]float32, n)
	step := 2 * math.Pi * hz / float64(sampleRate)
	for i := range samples {
		samples[i] = float32(math.Sin(step * float64(i)))
	}
	return samples
}
