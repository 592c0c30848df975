// Copyright (c) 2023-2026 SQA Engine Contributors
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package jackio defines the narrow interface the engine's control and
// realtime planes consume from a JACK-compatible audio server. Port
// registration, activation and callback invocation are an external
// collaborator's job; only the shape this codebase needs from that
// collaborator lives here. A concrete adapter over the real go-jack
// cgo binding lives in jackio/jackclient and is never imported by
// internal/device or engine.
package jackio

// Port is an opaque, comparable handle to a registered server port. It is
// an int-backed identity type rather than a pointer so ports stay cheap to
// copy and to hold in a fixed-capacity channel table.
type Port int

// PortFlags selects a port's direction and terminal capability at
// registration time.
type PortFlags int

const (
	// PortInput marks a port that receives audio from the server.
	PortInput PortFlags = 1 << iota
	// PortOutput marks a port that the engine writes mixed audio into.
	PortOutput
	// PortTerminal marks a port as a dead end of the signal chain, i.e. not
	// expected to be further patched downstream by the server.
	PortTerminal
)

// Control is the realtime callback's return value, telling the server
// whether to keep invoking it.
type Control int

const (
	// Continue tells the server to keep calling Process on future blocks.
	Continue Control = iota
	// Quit tells the server to stop invoking this handler.
	Quit
)

// ServerConn is the control-side handle to a connected audio server.
type ServerConn interface {
	// RegisterPort creates a new port and returns its handle.
	RegisterPort(name string, flags PortFlags) (Port, error)
	// UnregisterPort removes a previously registered port.
	UnregisterPort(Port) error
	// Activate begins realtime callback invocation.
	Activate() error
	// SampleRate returns the server's fixed sample rate.
	SampleRate() uint32
	// SetHandler installs the realtime callback. Must be called before
	// Activate.
	SetHandler(Handler)
}

// Handler is implemented by the realtime loop (internal/device.Context).
type Handler interface {
	// Process is invoked once per audio block on the server's realtime
	// thread. now is the current reading of the shared monotonic clock, in
	// the same domain as every stream's start_time. It must not allocate,
	// lock, or block.
	Process(nframes int, ports PortSet, now uint64) Control
}

// PortSet gives the realtime callback access to a block's port buffers.
type PortSet interface {
	// Buffer returns the sample buffer for the given port for this block.
	// ok is false if the port is not active for this call.
	Buffer(Port) ([]float32, bool)
}
