// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix && !cgo

package capture

// flushNativeBuffers is a no-op without cgo: there is no C stdio
// layer in the process, so every write to fd 1/2 is already visible
// on the capture pipes.
func flushNativeBuffers() {}
