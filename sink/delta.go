// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bureau-foundation/fdtap/lib/codec"
)

// Stream identifies which captured channel produced a delta. The
// values are wire constants; changing them breaks readers of
// previously written streams.
type Stream uint8

const (
	// StreamStdout marks output captured from fd 1.
	StreamStdout Stream = 1

	// StreamStderr marks output captured from fd 2.
	StreamStderr Stream = 2
)

// String returns the conventional name of the stream.
func (s Stream) String() string {
	switch s {
	case StreamStdout:
		return "stdout"
	case StreamStderr:
		return "stderr"
	default:
		return fmt.Sprintf("stream(%d)", uint8(s))
	}
}

// Delta is one captured chunk as it appears on the wire. Data is raw
// bytes, not necessarily valid UTF-8: native output includes escape
// sequences and multi-byte characters split at chunk boundaries.
type Delta struct {
	// Stream identifies the channel the chunk came from.
	Stream Stream `cbor:"stream"`

	// Sequence increases by one per delta across the whole
	// DeltaStream (both channels). A consumer uses it to detect lost
	// frames when the transport can drop data.
	Sequence uint64 `cbor:"sequence"`

	// Timestamp is when the chunk was forwarded, as Unix nanoseconds.
	Timestamp int64 `cbor:"timestamp"`

	// Data is the chunk payload.
	Data []byte `cbor:"data"`
}

// DeltaStream frames captured chunks as a sequence of CBOR Delta
// records on an underlying writer, typically a unix socket or file.
// One DeltaStream carries both channels: obtain a per-channel
// io.Writer from Writer and use it as a capture destination.
//
// The mutex serializes frames when both channel writers feed the same
// stream; within one capture session the relay is a single goroutine,
// but a DeltaStream may also be shared across sessions.
type DeltaStream struct {
	mu       sync.Mutex
	encoder  *codec.Encoder
	sequence uint64

	// now is stubbed in tests for deterministic timestamps.
	now func() time.Time
}

// NewDeltaStream creates a delta stream writing frames to w.
func NewDeltaStream(w io.Writer) *DeltaStream {
	return &DeltaStream{
		encoder: codec.NewEncoder(w),
		now:     time.Now,
	}
}

// Writer returns an io.Writer that frames everything written to it as
// deltas for the given stream.
func (d *DeltaStream) Writer(stream Stream) io.Writer {
	return &deltaWriter{stream: d, tag: stream}
}

func (d *DeltaStream) emit(tag Stream, p []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Copy: the relay reuses its read buffer across chunks and the
	// encoder must not retain caller memory anyway.
	data := make([]byte, len(p))
	copy(data, p)

	err := d.encoder.Encode(Delta{
		Stream:    tag,
		Sequence:  d.sequence,
		Timestamp: d.now().UnixNano(),
		Data:      data,
	})
	if err != nil {
		return fmt.Errorf("encode %s delta: %w", tag, err)
	}
	d.sequence++
	return nil
}

type deltaWriter struct {
	stream *DeltaStream
	tag    Stream
}

func (w *deltaWriter) Write(p []byte) (int, error) {
	if err := w.stream.emit(w.tag, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// DeltaReader decodes a stream of Delta frames, verifying that
// sequence numbers are contiguous.
type DeltaReader struct {
	decoder *codec.Decoder
	next    uint64
	started bool
}

// NewDeltaReader creates a reader decoding frames from r.
func NewDeltaReader(r io.Reader) *DeltaReader {
	return &DeltaReader{decoder: codec.NewDecoder(r)}
}

// ErrSequenceGap is returned by Next when a frame's sequence number is
// not the successor of the previous frame's: some frames were lost in
// transit. The returned delta is still valid.
var ErrSequenceGap = errors.New("sequence gap in delta stream")

// Next returns the next delta. io.EOF signals a cleanly ended stream.
// A non-contiguous sequence number returns the delta along with
// ErrSequenceGap so the consumer can both record the loss and keep
// the data.
func (r *DeltaReader) Next() (Delta, error) {
	var d Delta
	if err := r.decoder.Decode(&d); err != nil {
		if err == io.EOF {
			return Delta{}, io.EOF
		}
		return Delta{}, fmt.Errorf("decode delta: %w", err)
	}
	gap := r.started && d.Sequence != r.next
	r.started = true
	r.next = d.Sequence + 1
	if gap {
		return d, ErrSequenceGap
	}
	return d, nil
}
