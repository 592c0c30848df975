// Copyright (c) 2023-2026 SQA Engine Contributors
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// Package logging is the ambient logging layer used by cmd/sqa-demo; the
// engine package does not import it. The realtime loop never imports this
// package: logging allocates and can block, so it has no place in
// device.Context.Process.
package logging

import "go.uber.org/zap"

// Logger is the structured logging surface cmd/sqa-demo logs through.
// The *w (With-style key/value) methods mirror the
// calling convention used throughout this codebase's ancestry (Infow,
// Errorw, Warnw, Debugw with alternating key/value pairs), backed here by
// zap's SugaredLogger rather than a hand-rolled formatter.
type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
	Sync() error
}

type zapLogger struct {
	*zap.SugaredLogger
}

func (z *zapLogger) Sync() error {
	// zap returns an error on stderr/stdout sync on some platforms even
	// when nothing went wrong (e.g. ENOTTY on a plain terminal); callers
	// only care that buffered entries were flushed before process exit.
	_ = z.SugaredLogger.Sync()
	return nil
}

// NewApplicationLogger builds the default production logger: JSON output,
// info level, caller and stacktrace annotations on error level and above.
func NewApplicationLogger() (Logger, error) {
	base, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return &zapLogger{SugaredLogger: base.Sugar()}, nil
}

// NewDevelopmentLogger builds a human-readable, debug-level logger for the
// demo CLI and local test runs.
func NewDevelopmentLogger() (Logger, error) {
	base, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return &zapLogger{SugaredLogger: base.Sugar()}, nil
}

// NewNop returns a Logger that discards everything, for tests that don't
// care about log output but still need to satisfy the interface.
func NewNop() Logger {
	return &zapLogger{SugaredLogger: zap.NewNop().Sugar()}
}
