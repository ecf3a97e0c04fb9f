// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/fdtap/capture"
)

// errChecksFailed signals a probe that ran but found failures; the
// per-check detail has already been printed.
var errChecksFailed = errors.New("one or more probe checks failed")

type probeOptions struct {
	flushInterval time.Duration
	payloadSize   int
	encodingName  string
	verbose       bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, errChecksFailed) {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "fdtap-probe: %v\n", err)
		os.Exit(2)
	}
}

func run(args []string) error {
	var opts probeOptions
	flagSet := pflag.NewFlagSet("fdtap-probe", pflag.ContinueOnError)
	flagSet.DurationVar(&opts.flushInterval, "flush-interval", capture.DefaultFlushInterval,
		"relay flush/poll interval for the sessions under test")
	flagSet.IntVar(&opts.payloadSize, "payload", 256*1024,
		"bytes written by the large-write check")
	flagSet.StringVar(&opts.encodingName, "encoding", "utf-8",
		"IANA charset name exercised by the pipe-roundtrip check")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false,
		"announce each check before it runs")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if flagSet.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}
	if opts.payloadSize <= 0 {
		return fmt.Errorf("--payload must be positive")
	}

	return runProbe(opts)
}
