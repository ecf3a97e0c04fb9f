// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package capture_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/bureau-foundation/fdtap/capture"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
flush_interval: 50ms
encoding: utf-8
stdout:
  destination: file
  path: /var/log/native.log
stderr:
  destination: merge
`)
	config, err := capture.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if config.FlushInterval != "50ms" || config.Encoding != "utf-8" {
		t.Errorf("got interval=%q encoding=%q", config.FlushInterval, config.Encoding)
	}
	if config.Stdout.Destination != "file" || config.Stdout.Path != "/var/log/native.log" {
		t.Errorf("stdout: got %+v", config.Stdout)
	}
	if config.Stderr.Destination != "merge" {
		t.Errorf("stderr: got %+v", config.Stderr)
	}
}

func TestLoadConfigRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "flash_interval: 50ms\n")
	if _, err := capture.LoadConfig(path); err == nil {
		t.Fatal("LoadConfig accepted a misspelled field")
	}
}

func TestConfigRejectsBadValues(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		config capture.Config
	}{
		{"bad interval", capture.Config{FlushInterval: "fast"}},
		{"unknown encoding", capture.Config{Encoding: "not-a-charset"}},
		{"file without path", capture.Config{Stdout: capture.ChannelConfig{Destination: "file"}}},
		{"merge on stdout", capture.Config{Stdout: capture.ChannelConfig{Destination: "merge"}}},
		{"unknown destination", capture.Config{Stdout: capture.ChannelConfig{Destination: "socket"}}},
		{"unknown compress", capture.Config{Stdout: capture.ChannelConfig{
			Destination: "file", Path: "/tmp/x", Compress: "gzip",
		}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.config.Start(); err == nil {
				t.Errorf("Start accepted %+v", tc.config)
			}
		})
	}
}

func TestConfigCapturesToFile(t *testing.T) {
	// Touches the real fd 1: not parallel.
	path := filepath.Join(t.TempDir(), "native.log")
	config := capture.Config{
		Stdout: capture.ChannelConfig{Destination: "file", Path: path},
	}

	sess, err := config.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	stopLater(t, sess)

	writeFd(t, 1, []byte("logged natively\n"))

	if err := sess.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output file: %v", err)
	}
	if string(data) != "logged natively\n" {
		t.Errorf("file contents: got %q, want %q", data, "logged natively\n")
	}
}

func TestConfigCapturesToCompressedFile(t *testing.T) {
	// Touches the real fd 1: not parallel.
	path := filepath.Join(t.TempDir(), "native.log.zst")
	config := capture.Config{
		Stdout: capture.ChannelConfig{Destination: "file", Path: path, Compress: "zstd"},
	}

	sess, err := config.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	stopLater(t, sess)

	want := strings.Repeat("compressible native output\n", 200)
	writeFd(t, 1, []byte(want))

	if err := sess.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output file: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer dec.Close()
	got, err := io.ReadAll(dec)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.Equal(got, []byte(want)) {
		t.Errorf("decompressed %d bytes, want %d; content mismatch", len(got), len(want))
	}
}
