// Copyright (c) 2023-2026 SQA Engine Contributors
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package jackclient adapts the real github.com/xthexder/go-jack cgo
// binding to the jackio.ServerConn/Handler/PortSet interfaces. It is the
// one place in this repository that touches cgo; internal/device and
// engine never import it directly, only through the jackio interfaces
// that scope the server client library as an external collaborator.
package jackclient

import (
	"fmt"
	"sync"

	jack "github.com/xthexder/go-jack"

	"github.com/sqaengine/engine/internal/clock"
	"github.com/sqaengine/engine/internal/jackio"
)

// Conn wraps a connected *jack.Client behind jackio.ServerConn.
type Conn struct {
	client *jack.Client
	clk    clock.Clock

	mu    sync.Mutex
	ports map[jackio.Port]*jack.Port
	next  jackio.Port

	handler jackio.Handler
}

// Open connects to the JACK server under the given client name. The
// returned Conn carries its own clock.Monotonic, whose reading its realtime
// process callback hands to the engine's mixing loop as "now". engine.New
// builds a separate clock.Monotonic for its senders' start times; every
// Monotonic measures from the same process-wide epoch, so both readings
// share one domain.
func Open(name string) (*Conn, error) {
	client, status := jack.ClientOpen(name, jack.NoStartServer)
	if status != 0 {
		return nil, fmt.Errorf("jackclient: open %q: status %v", name, status)
	}
	return &Conn{
		client: client,
		clk:    clock.NewMonotonic(),
		ports:  make(map[jackio.Port]*jack.Port),
	}, nil
}

// RegisterPort implements jackio.ServerConn.
func (c *Conn) RegisterPort(name string, flags jackio.PortFlags) (jackio.Port, error) {
	port := c.client.PortRegister(name, jack.DEFAULT_AUDIO_TYPE, toJackFlags(flags), 0)
	if port == nil {
		return 0, fmt.Errorf("jackclient: register port %q failed", name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.next
	c.next++
	c.ports[id] = port
	return id, nil
}

// UnregisterPort implements jackio.ServerConn.
func (c *Conn) UnregisterPort(p jackio.Port) error {
	c.mu.Lock()
	port, ok := c.ports[p]
	if ok {
		delete(c.ports, p)
	}
	c.mu.Unlock()

	if !ok {
		return fmt.Errorf("jackclient: unregister unknown port %v", p)
	}
	if code := c.client.PortUnregister(port); code != 0 {
		return fmt.Errorf("jackclient: unregister port %v: code %d", p, code)
	}
	return nil
}

// Activate implements jackio.ServerConn.
func (c *Conn) Activate() error {
	if code := c.client.Activate(); code != 0 {
		return fmt.Errorf("jackclient: activate: code %d", code)
	}
	return nil
}

// SampleRate implements jackio.ServerConn.
func (c *Conn) SampleRate() uint32 {
	return c.client.GetSampleRate()
}

// SetHandler implements jackio.ServerConn. It installs a process callback
// that adapts JACK's nframes/buffer API to jackio.PortSet before calling
// into the engine's realtime loop.
func (c *Conn) SetHandler(h jackio.Handler) {
	c.handler = h
	c.client.SetProcessCallback(c.process)
}

// Close deactivates and closes the underlying JACK client.
func (c *Conn) Close() error {
	if code := c.client.Close(); code != 0 {
		return fmt.Errorf("jackclient: close: code %d", code)
	}
	return nil
}

func (c *Conn) process(nframes uint32) int {
	if c.handler == nil {
		return 0
	}
	set := &portSet{conn: c, nframes: nframes}
	ctrl := c.handler.Process(int(nframes), set, c.clk.Now())
	if ctrl == jackio.Quit {
		return 1
	}
	return 0
}

// portSet is rebuilt every block (a small struct holding the Conn and this
// block's nframes) and handed to the engine's Process call.
type portSet struct {
	conn    *Conn
	nframes uint32
}

// Buffer implements jackio.PortSet. It is called from the JACK realtime
// thread; GetBuffer itself does no allocation on the hot path, matching
// the no-allocation requirement the core engine depends on.
func (s *portSet) Buffer(p jackio.Port) ([]float32, bool) {
	s.conn.mu.Lock()
	port, ok := s.conn.ports[p]
	s.conn.mu.Unlock()
	if !ok {
		return nil, false
	}
	return port.GetBuffer(s.nframes), true
}

func toJackFlags(flags jackio.PortFlags) jack.PortFlags {
	var out jack.PortFlags
	if flags&jackio.PortInput != 0 {
		out |= jack.PortIsInput
	}
	if flags&jackio.PortOutput != 0 {
		out |= jack.PortIsOutput
	}
	if flags&jackio.PortTerminal != 0 {
		out |= jack.PortIsTerminal
	}
	return out
}
