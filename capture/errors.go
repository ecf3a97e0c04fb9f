// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"errors"
	"fmt"
)

// ErrChannelHeld is returned by Start when another session already has
// the requested channel redirected. The descriptor slots are
// process-wide state; allowing a second redirection would silently
// corrupt the first session's saved-descriptor bookkeeping, so the
// conflict is rejected up front.
var ErrChannelHeld = errors.New("channel is already captured by another session")

// ErrSessionStopped is returned by Stop when the session has already
// been torn down. Teardown is a one-shot descriptor handoff; a second
// Stop indicates a lifecycle bug in the caller rather than a condition
// to paper over.
var ErrSessionStopped = errors.New("capture session already stopped")

// DescriptorError reports a failure manipulating the process
// descriptor table while installing or removing a redirection. These
// errors are raised synchronously from Start and Stop and are never
// retried; the caller may retry the whole session. When Start fails,
// no partial redirection is left installed.
type DescriptorError struct {
	// Channel is the output channel that was being redirected.
	Channel Channel

	// Op is the table operation that failed: "dup", "pipe", "bind",
	// "nonblock", "close", or "restore".
	Op string

	// Err is the underlying system error.
	Err error
}

func (e *DescriptorError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Channel, e.Err)
}

func (e *DescriptorError) Unwrap() error {
	return e.Err
}
