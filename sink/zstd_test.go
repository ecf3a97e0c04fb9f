// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestZstdFileRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "native.log.zst")

	z, err := NewZstdFile(path)
	if err != nil {
		t.Fatalf("NewZstdFile: %v", err)
	}
	want := strings.Repeat("native library output line\n", 1000)
	if _, err := z.Write([]byte(want)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := z.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	compressed, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(compressed) >= len(want) {
		t.Errorf("compressed size %d not smaller than input %d", len(compressed), len(want))
	}

	dec, err := zstd.NewReader(bytes.NewReader(compressed))
	if err != nil {
		t.Fatalf("zstd.NewReader: %v", err)
	}
	defer dec.Close()
	got, err := io.ReadAll(dec)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if string(got) != want {
		t.Errorf("round trip mismatch: got %d bytes, want %d", len(got), len(want))
	}
}

func TestZstdFileAppendsFrames(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "native.log.zst")

	// Two runs append two independent frames; decoders concatenate.
	for _, chunk := range []string{"first run\n", "second run\n"} {
		z, err := NewZstdFile(path)
		if err != nil {
			t.Fatalf("NewZstdFile: %v", err)
		}
		if _, err := z.Write([]byte(chunk)); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if err := z.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd.NewReader: %v", err)
	}
	defer dec.Close()
	got, err := io.ReadAll(dec)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if string(got) != "first run\nsecond run\n" {
		t.Errorf("got %q, want %q", got, "first run\nsecond run\n")
	}
}
