// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import "golang.org/x/sys/unix"

// bindFd points newFd at the same open file description as oldFd.
// Linux arm64 and riscv64 have no dup2 syscall; Dup3 with zero flags
// is the equivalent on every linux architecture.
func bindFd(oldFd, newFd int) error {
	return unix.Dup3(oldFd, newFd, 0)
}
