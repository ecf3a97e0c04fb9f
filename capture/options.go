// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"io"
	"log/slog"
	"time"

	"golang.org/x/text/encoding"
)

// DefaultFlushInterval is the default bound on how long captured
// output can sit in the native stdio buffer or an undrained pipe
// before the relay flushes and drains it. It doubles as the relay's
// poll granularity.
const DefaultFlushInterval = 200 * time.Millisecond

// readChunkSize is the number of bytes the relay drains from a
// readable pipe end per poll round. Pipe capacity is far larger; a
// small chunk just bounds per-round latency, the relay loops until
// the pipe is drained across rounds.
const readChunkSize = 1024

type destinationKind int

const (
	destDiscard destinationKind = iota
	destPipe
	destWriter
	destMerge
)

// Destination selects where one channel's captured bytes are
// delivered. Construct values with Discard, Pipe, To, or
// MergeWithStdout; the zero value is Discard.
type Destination struct {
	kind   destinationKind
	writer io.Writer
}

// Discard leaves the channel alone: its descriptor is not redirected
// and native writes pass through to wherever it already points.
func Discard() Destination {
	return Destination{kind: destDiscard}
}

// Pipe captures the channel into an internally created pipe. The read
// end is available from Session.Stdout or Session.Stderr during and
// after the protected region; it reports EOF once the session has
// stopped and the remaining bytes are drained.
//
// The pipe's kernel buffer bounds how much can sit unread: a session
// producing more than that must be read while still active, or the
// relay (and eventually the native writer) stalls until Stop's drain
// can make no further progress. Use To with a sink.Ring when reading
// during the session is inconvenient.
func Pipe() Destination {
	return Destination{kind: destPipe}
}

// To forwards the channel's captured bytes to w. The relay goroutine
// is the only writer; w does not need to be safe for concurrent use
// unless it is shared across sessions.
func To(w io.Writer) Destination {
	return Destination{kind: destWriter, writer: w}
}

// MergeWithStdout, valid for the stderr channel only, delivers stderr
// bytes into stdout's destination. Bytes from the two channels appear
// interleaved at chunk granularity; order within each channel is
// preserved, order between channels is not defined.
func MergeWithStdout() Destination {
	return Destination{kind: destMerge}
}

// Options configures a capture session.
type Options struct {
	// Stdout selects the destination for the stdout channel.
	// The zero value (Discard) leaves stdout untouched.
	Stdout Destination

	// Stderr selects the destination for the stderr channel.
	Stderr Destination

	// Encoding, when non-nil, decodes captured bytes to UTF-8 text
	// before they reach the sink. Decoding is stateful per sink
	// (multi-byte sequences split across read chunks decode
	// correctly) and lossy: malformed input becomes U+FFFD, never an
	// error. Nil delivers raw bytes unchanged.
	Encoding encoding.Encoding

	// FlushInterval bounds the latency between a native write and its
	// delivery to the sink. Zero means DefaultFlushInterval.
	FlushInterval time.Duration

	// Logger receives debug-level relay events and teardown
	// anomalies. Nil discards them.
	Logger *slog.Logger

	// closers are closed during teardown after the sinks are
	// finalized. Config-built sessions use this to release the files
	// they opened.
	closers []io.Closer
}

func (o *Options) flushInterval() time.Duration {
	if o.FlushInterval <= 0 {
		return DefaultFlushInterval
	}
	return o.FlushInterval
}

func (o *Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}
