// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// newDecodeWriter wraps sink so that bytes written to it are decoded
// from enc to UTF-8 before reaching sink. The decoder is stateful: a
// multi-byte sequence split across two writes decodes correctly, and
// malformed input is replaced with U+FFFD rather than reported as an
// error. Close flushes a trailing partial sequence (as a replacement
// rune) without closing the underlying sink.
func newDecodeWriter(sink io.Writer, enc encoding.Encoding) io.WriteCloser {
	return transform.NewWriter(sink, enc.NewDecoder())
}
