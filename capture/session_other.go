// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !unix

package capture

import (
	"errors"
	"fmt"
)

// Capture needs dup2-style descriptor duplication and non-blocking
// pipe reads; platforms without them get stubs that fail Start so the
// package still compiles everywhere.

func startSession(Options) (*Session, error) {
	return nil, fmt.Errorf("fd capture: %w", errors.ErrUnsupported)
}

// Stop on an unsupported platform can only ever see a session that
// never started.
func (s *Session) Stop() error {
	return ErrSessionStopped
}
