// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"bytes"
	"testing"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

func TestDecodeWriterReplacesMalformedBytes(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	w := newDecodeWriter(&out, unicode.UTF8)

	if _, err := w.Write([]byte{0xff, 'h', 'i'}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := out.String(); got != "�hi" {
		t.Errorf("decoded: got %q, want %q", got, "�hi")
	}
}

func TestDecodeWriterHandlesRuneSplitAcrossWrites(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	w := newDecodeWriter(&out, unicode.UTF8)

	// "é" is 0xc3 0xa9; deliver the bytes in separate chunks the way
	// the relay would if the read boundary fell mid-rune.
	if _, err := w.Write([]byte{0xc3}); err != nil {
		t.Fatalf("Write first half: %v", err)
	}
	if _, err := w.Write([]byte{0xa9}); err != nil {
		t.Fatalf("Write second half: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := out.String(); got != "é" {
		t.Errorf("decoded: got %q, want %q", got, "é")
	}
}

func TestDecodeWriterFlushesTrailingPartialRune(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	w := newDecodeWriter(&out, unicode.UTF8)

	// A dangling lead byte with no continuation: Close must flush it
	// as a replacement rune rather than drop it.
	if _, err := w.Write([]byte{'x', 0xc3}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := out.String(); got != "x�" {
		t.Errorf("decoded: got %q, want %q", got, "x�")
	}
}

func TestDecodeWriterLatin1(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	w := newDecodeWriter(&out, charmap.ISO8859_1)

	if _, err := w.Write([]byte{'c', 'a', 'f', 0xe9}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := out.String(); got != "café" {
		t.Errorf("decoded: got %q, want %q", got, "café")
	}
}
