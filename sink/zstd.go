// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"errors"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"
)

// ZstdFile appends zstd-compressed bytes to a file. Captured native
// output is text-like and compresses well (typically 3-5x), which
// matters when a permanently-installed capture writes for the whole
// process lifetime.
//
// Writes are not flushed individually; Close finishes the zstd frame
// and must be called for the file to be readable. The capture session
// calls Close during teardown when the ZstdFile was registered via
// the config layer; callers constructing one directly own the Close.
type ZstdFile struct {
	file    *os.File
	encoder *zstd.Encoder
}

// NewZstdFile opens (creating and appending as needed) a compressed
// output file. Each process run appends a fresh zstd frame; standard
// decoders concatenate frames transparently.
func NewZstdFile(path string) (*ZstdFile, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// Level 3: the text ratio/CPU sweet spot for log-like content.
	encoder, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("zstd writer for %s: %w", path, err)
	}
	return &ZstdFile{file: f, encoder: encoder}, nil
}

// Write compresses and buffers p. Safe for a single writer (the relay
// goroutine is the only writer during a session).
func (z *ZstdFile) Write(p []byte) (int, error) {
	return z.encoder.Write(p)
}

// Close finishes the zstd frame and closes the file.
func (z *ZstdFile) Close() error {
	return errors.Join(z.encoder.Close(), z.file.Close())
}
