// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"golang.org/x/text/encoding/ianaindex"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/fdtap/sink"
)

// Config describes a capture installation in a form that can live in a
// YAML file. The intended use is whole-process-lifetime installation
// at startup, where the destination of native output (log file,
// compression, encoding) is an operational decision rather than a
// compile-time one:
//
//	flush_interval: 200ms
//	encoding: utf-8
//	stdout:
//	  destination: file
//	  path: /var/log/app/native.log.zst
//	  compress: zstd
//	stderr:
//	  destination: merge
type Config struct {
	// FlushInterval is a Go duration string ("200ms", "1s"). Empty
	// means DefaultFlushInterval.
	FlushInterval string `yaml:"flush_interval"`

	// Encoding is an IANA charset name ("utf-8", "iso-8859-1").
	// Empty delivers raw bytes.
	Encoding string `yaml:"encoding"`

	Stdout ChannelConfig `yaml:"stdout"`
	Stderr ChannelConfig `yaml:"stderr"`
}

// ChannelConfig selects one channel's destination.
type ChannelConfig struct {
	// Destination is "discard" (default), "file", or — for stderr
	// only — "merge" (share stdout's destination).
	Destination string `yaml:"destination"`

	// Path is the output file for the "file" destination. The file is
	// created if needed and appended to.
	Path string `yaml:"path"`

	// Compress is "none" (default) or "zstd" for the "file"
	// destination.
	Compress string `yaml:"compress"`
}

// LoadConfig reads and parses a capture config file. Unknown fields
// are rejected so a typo fails at startup instead of silently
// discarding output.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read capture config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	var config Config
	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("parse capture config %s: %w", path, err)
	}
	return &config, nil
}

// Start builds sinks from the config and starts a capture session.
// Files opened for "file" destinations are closed by Session.Stop.
func (c *Config) Start() (*Session, error) {
	options, err := c.buildOptions()
	if err != nil {
		return nil, err
	}
	session, err := Start(options)
	if err != nil {
		for _, closer := range options.closers {
			closer.Close()
		}
		return nil, err
	}
	return session, nil
}

// Forever installs the configured capture for the remainder of the
// process lifetime. As with the package-level Forever, the session
// (and any files it opened) is deliberately leaked until process exit.
func (c *Config) Forever() error {
	_, err := c.Start()
	return err
}

func (c *Config) buildOptions() (Options, error) {
	var options Options

	if c.FlushInterval != "" {
		interval, err := time.ParseDuration(c.FlushInterval)
		if err != nil {
			return options, fmt.Errorf("flush_interval: %w", err)
		}
		options.FlushInterval = interval
	}

	if c.Encoding != "" {
		enc, err := ianaindex.IANA.Encoding(c.Encoding)
		if err != nil {
			return options, fmt.Errorf("encoding %q: %w", c.Encoding, err)
		}
		if enc == nil {
			// The IANA index knows the name but x/text has no decoder
			// for it.
			return options, fmt.Errorf("encoding %q is not supported", c.Encoding)
		}
		options.Encoding = enc
	}

	fail := func(err error) (Options, error) {
		for _, closer := range options.closers {
			closer.Close()
		}
		return Options{}, err
	}

	stdout, err := c.Stdout.destination(Stdout, &options)
	if err != nil {
		return fail(fmt.Errorf("stdout: %w", err))
	}
	options.Stdout = stdout

	stderr, err := c.Stderr.destination(Stderr, &options)
	if err != nil {
		return fail(fmt.Errorf("stderr: %w", err))
	}
	options.Stderr = stderr

	return options, nil
}

// destination resolves one channel's config into a Destination,
// opening output files as needed and registering them for close at
// teardown.
func (cc *ChannelConfig) destination(c Channel, options *Options) (Destination, error) {
	switch cc.Destination {
	case "", "discard":
		return Discard(), nil
	case "merge":
		if c != Stderr {
			return Destination{}, fmt.Errorf("destination %q is valid only for stderr", cc.Destination)
		}
		return MergeWithStdout(), nil
	case "file":
		if cc.Path == "" {
			return Destination{}, fmt.Errorf("destination \"file\" requires a path")
		}
		switch cc.Compress {
		case "", "none":
			f, err := os.OpenFile(cc.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return Destination{}, fmt.Errorf("open output file: %w", err)
			}
			options.closers = append(options.closers, f)
			return To(f), nil
		case "zstd":
			z, err := sink.NewZstdFile(cc.Path)
			if err != nil {
				return Destination{}, fmt.Errorf("open compressed output file: %w", err)
			}
			options.closers = append(options.closers, z)
			return To(z), nil
		default:
			return Destination{}, fmt.Errorf("unknown compress mode %q", cc.Compress)
		}
	default:
		return Destination{}, fmt.Errorf("unknown destination %q", cc.Destination)
	}
}
