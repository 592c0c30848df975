// Copyright (c) 2023-2026 SQA Engine Contributors
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package engine

// options holds engine.New's construction-time configuration. These are
// never runtime flags; they are fixed for the lifetime of an Engine.
type options struct {
	name string
	pmax int
	cmax int
}

func defaultOptions() options {
	return options{
		name: "SQA Engine",
		pmax: 256,
		cmax: 64,
	}
}

// Option configures an Engine at construction time.
type Option func(*options)

// WithName overrides the default client name ("SQA Engine") passed to the
// server opener.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithMaxPlayers sets P_MAX, the maximum number of simultaneously live
// streams. 256 (default) or 512 are the only sanctioned values.
func WithMaxPlayers(pmax int) Option {
	return func(o *options) { o.pmax = pmax }
}

// WithMaxChannels sets C_MAX, the channel table's capacity. 64 (default)
// or 128 are the only sanctioned values; at most C_MAX-1 may be live at
// once (one index held back as headroom).
func WithMaxChannels(cmax int) Option {
	return func(o *options) { o.cmax = cmax }
}
