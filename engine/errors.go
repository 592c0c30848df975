// Copyright (c) 2023-2026 SQA Engine Contributors
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package engine

import "errors"

// ErrJack wraps any failure returned by the jackio.ServerConn collaborator.
var ErrJack = errors.New("engine: audio server error")

// ErrLimitExceeded is returned by NewChannel when C_MAX-1 channels are
// already live. A full command queue (2*P_MAX entries) is not reported:
// NewChannel, RemoveChannel, NewSender and NewSenderWithMaster drop their
// command when the queue has no room.
var ErrLimitExceeded = errors.New("engine: limit exceeded")

// ErrNoSuchChannel is returned by RemoveChannel for an index that is not
// currently live.
var ErrNoSuchChannel = errors.New("engine: no such channel")
