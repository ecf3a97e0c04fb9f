// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix && !linux

package capture

import "golang.org/x/sys/unix"

// bindFd points newFd at the same open file description as oldFd.
func bindFd(oldFd, newFd int) error {
	return unix.Dup2(oldFd, newFd)
}
