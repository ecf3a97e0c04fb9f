// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/bureau-foundation/fdtap/capture"
)

type check struct {
	name string
	fn   func(opts probeOptions) error
}

// runProbe runs every check sequentially (the sessions under test all
// want fd 1/2) and prints the report once the descriptors are back in
// their original state.
func runProbe(opts probeOptions) error {
	if _, err := lookupEncoding(opts.encodingName); err != nil {
		return err
	}

	checks := []check{
		{"pipe-roundtrip", checkPipeRoundTrip},
		{"merge", checkMerge},
		{"restore", checkRestore},
		{"large-write", checkLargeWrite},
	}

	type result struct {
		name string
		err  error
	}
	results := make([]result, 0, len(checks))
	for _, c := range checks {
		if opts.verbose {
			// Printed before Start, so it reaches the real stdout.
			fmt.Printf("running %s...\n", c.name)
		}
		results = append(results, result{c.name, c.fn(opts)})
	}

	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Printf("FAIL %-14s %v\n", r.name, r.err)
		} else {
			fmt.Printf("ok   %s\n", r.name)
		}
	}
	fmt.Printf("%d/%d checks passed (stdout is a terminal: %v)\n",
		len(results)-failed, len(results), term.IsTerminal(int(os.Stdout.Fd())))

	if failed > 0 {
		return errChecksFailed
	}
	return nil
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("encoding %q is not supported", name)
	}
	return enc, nil
}

// writeAll writes all of p to a raw descriptor, looping on short
// writes.
func writeAll(fd int, p []byte) error {
	for len(p) > 0 {
		n, err := unix.Write(fd, p)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return err
		}
		p = p[n:]
	}
	return nil
}

func checkPipeRoundTrip(opts probeOptions) error {
	enc, err := lookupEncoding(opts.encodingName)
	if err != nil {
		return err
	}
	sess, err := capture.Start(capture.Options{
		Stdout:        capture.Pipe(),
		Encoding:      enc,
		FlushInterval: opts.flushInterval,
	})
	if err != nil {
		return err
	}

	want := "fdtap probe: α β γ\n"
	results := make(chan string, 1)
	go func() {
		data, _ := io.ReadAll(sess.Stdout())
		results <- string(data)
	}()

	writeErr := writeAll(1, []byte(want))
	if err := sess.Stop(); err != nil {
		return err
	}
	if writeErr != nil {
		return fmt.Errorf("write to redirected fd 1: %w", writeErr)
	}
	if got := <-results; got != want {
		return fmt.Errorf("captured %q, want %q", got, want)
	}
	return nil
}

func checkMerge(opts probeOptions) error {
	var out bytes.Buffer
	sess, err := capture.Start(capture.Options{
		Stdout:        capture.To(&out),
		Stderr:        capture.MergeWithStdout(),
		FlushInterval: opts.flushInterval,
	})
	if err != nil {
		return err
	}

	writeErr := errors.Join(writeAll(1, []byte("A")), writeAll(2, []byte("B")))
	if err := sess.Stop(); err != nil {
		return err
	}
	if writeErr != nil {
		return fmt.Errorf("write to redirected descriptors: %w", writeErr)
	}
	got := out.String()
	if len(got) != 2 || !strings.Contains(got, "A") || !strings.Contains(got, "B") {
		return fmt.Errorf("merged sink holds %q, want both bytes exactly once", got)
	}
	return nil
}

func checkRestore(opts probeOptions) error {
	var before, after unix.Stat_t
	if err := unix.Fstat(1, &before); err != nil {
		return fmt.Errorf("fstat fd 1: %w", err)
	}

	sess, err := capture.Start(capture.Options{
		Stdout:        capture.To(io.Discard),
		Stderr:        capture.MergeWithStdout(),
		FlushInterval: opts.flushInterval,
	})
	if err != nil {
		return err
	}
	if err := sess.Stop(); err != nil {
		return err
	}

	if err := unix.Fstat(1, &after); err != nil {
		return fmt.Errorf("fstat fd 1 after session: %w", err)
	}
	if before.Dev != after.Dev || before.Ino != after.Ino {
		return fmt.Errorf("fd 1 not restored: dev/ino %d/%d became %d/%d",
			before.Dev, before.Ino, after.Dev, after.Ino)
	}
	return nil
}

func checkLargeWrite(opts probeOptions) error {
	payload := bytes.Repeat([]byte{'#'}, opts.payloadSize)

	var out bytes.Buffer
	sess, err := capture.Start(capture.Options{
		Stdout:        capture.To(&out),
		FlushInterval: opts.flushInterval,
	})
	if err != nil {
		return err
	}

	writeErr := writeAll(1, payload)
	if err := sess.Stop(); err != nil {
		return err
	}
	if writeErr != nil {
		return fmt.Errorf("write to redirected fd 1: %w", writeErr)
	}
	if !bytes.Equal(out.Bytes(), payload) {
		return fmt.Errorf("captured %d bytes, want %d", out.Len(), len(payload))
	}
	return nil
}
