// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix && cgo

package capture

/*
#include <stdio.h>

static void fdtap_flush_stdio(void) {
	fflush(stdout);
	fflush(stderr);
}
*/
import "C"

// flushNativeBuffers forces any bytes held in the C stdio buffers for
// stdout and stderr out to the underlying descriptors. C libraries
// typically block-buffer when fd 1 is a pipe, so without this the
// relay would only see their output whenever libc decided to flush on
// its own.
func flushNativeBuffers() {
	C.fdtap_flush_stdio()
}
