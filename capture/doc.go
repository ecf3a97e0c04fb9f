// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package capture intercepts output written directly to the
// process-level stdout and stderr file descriptors and delivers it to
// the embedding program as byte or text streams.
//
// Go code normally writes through os.Stdout and os.Stderr, which can
// be swapped out at the package level. Native code linked in through
// cgo does not go through those variables: it calls write(2) on file
// descriptors 1 and 2 directly, and C stdio may buffer on top of
// that. This package captures that output at the descriptor level:
// each captured descriptor is rebound (dup2) onto the write end of a
// pipe, a single relay goroutine drains the read ends and forwards
// the bytes to per-channel sinks, and the original descriptor
// bindings are restored when the session ends.
//
// The relay flushes the C stdio buffers (when built with cgo) before
// every poll round so buffered native output becomes visible promptly,
// and reads the pipe ends non-blocking so a native writer is never
// stalled for longer than the configured flush interval.
//
// Typical use:
//
//	sess, err := capture.Start(capture.Options{
//		Stdout: capture.Pipe(),
//		Stderr: capture.MergeWithStdout(),
//		Encoding: unicode.UTF8,
//	})
//	if err != nil { ... }
//	callNativeCode()
//	if err := sess.Stop(); err != nil { ... }
//	output, _ := io.ReadAll(sess.Stdout())
//
// Or scoped, with restoration guaranteed on every exit path:
//
//	err := capture.Run(options, func() error {
//		callNativeCode()
//		return nil
//	})
//
// Only the calling process's own descriptor table is touched: output
// from child processes is not captured, and writes that happen before
// Start returns are not captured either.
//
// Exactly one session may hold a given channel at a time. A second
// Start on a held channel fails immediately rather than silently
// corrupting the first session's saved descriptor state.
package capture
