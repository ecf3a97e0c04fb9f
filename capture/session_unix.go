// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package capture

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding"
)

// startSession validates the options, builds the per-channel sinks,
// redirects the configured descriptors, and launches the relay. Any
// failure along the way unwinds completely: descriptors restored,
// created pipes closed, channel ownership released.
func startSession(options Options) (*Session, error) {
	if options.Stdout.kind == destMerge {
		return nil, fmt.Errorf("MergeWithStdout is valid only as a stderr destination")
	}
	if options.Stderr.kind == destMerge && options.Stdout.kind == destDiscard {
		return nil, fmt.Errorf("stderr merges into stdout but stdout is discarded; configure a stdout destination")
	}

	s := &Session{
		flushInterval: options.flushInterval(),
		logger:        options.logger(),
		done:          make(chan struct{}),
		closers:       options.closers,
	}

	var held []Channel
	for c := Stdout; c < numChannels; c++ {
		if destinationFor(&options, c).kind != destDiscard {
			held = append(held, c)
		}
	}
	if err := acquireChannels(s, held); err != nil {
		return nil, err
	}

	fail := func(err error) (*Session, error) {
		for c := Stdout; c < numChannels; c++ {
			if s.readers[c] != nil {
				s.readers[c].Close()
			}
		}
		for _, cs := range s.channels {
			if cs == nil {
				continue
			}
			for _, closer := range cs.finalizers {
				closer.Close()
			}
		}
		releaseChannels(s)
		return nil, err
	}

	// Build stdout first: a merged stderr aliases its sink.
	for _, c := range held {
		dest := destinationFor(&options, c)
		if dest.kind == destMerge {
			s.channels[c] = &channelState{
				channel: c,
				realFd:  c.fd(),
				sink:    s.channels[Stdout].sink,
			}
			continue
		}
		cs, err := buildChannel(s, c, dest, options.Encoding)
		if err != nil {
			return fail(err)
		}
		s.channels[c] = cs
	}

	var armed []*channelState
	for _, cs := range s.channels {
		if cs == nil {
			continue
		}
		if err := cs.redirect(); err != nil {
			for _, a := range armed {
				a.unwind()
			}
			return fail(err)
		}
		armed = append(armed, cs)
	}
	s.state = stateArmed

	go s.relay()
	s.state = stateActive
	return s, nil
}

func destinationFor(options *Options, c Channel) Destination {
	if c == Stdout {
		return options.Stdout
	}
	return options.Stderr
}

// buildChannel assembles the sink chain for one channel: the base sink
// (internal pipe write end or caller-supplied writer), optionally
// wrapped in a stateful decoder when an encoding is configured.
func buildChannel(s *Session, c Channel, dest Destination, enc encoding.Encoding) (*channelState, error) {
	cs := &channelState{channel: c, realFd: c.fd()}

	switch dest.kind {
	case destPipe:
		readEnd, writeEnd, err := os.Pipe()
		if err != nil {
			return nil, &DescriptorError{Channel: c, Op: "pipe", Err: err}
		}
		s.readers[c] = readEnd
		cs.sink = writeEnd
		cs.finalizers = append(cs.finalizers, writeEnd)
	case destWriter:
		if f, ok := dest.writer.(*os.File); ok && int(f.Fd()) == cs.realFd {
			return nil, fmt.Errorf("%s destination still refers to the real %s descriptor; forwarded output would loop back into the capture pipe", c, c)
		}
		cs.sink = dest.writer
	}

	if enc != nil {
		decoder := newDecodeWriter(cs.sink, enc)
		cs.sink = decoder
		// The decoder closes first so a trailing partial sequence is
		// flushed into the pipe before the pipe's write end closes.
		cs.finalizers = append([]io.Closer{decoder}, cs.finalizers...)
	}
	return cs, nil
}

// Stop ends the capture session: it flushes the native stdio buffers,
// closes the redirected real descriptors (the relay's end-of-stream
// signal), waits for the relay to drain the remaining buffered bytes
// and exit, restores the original descriptor bindings, and finalizes
// the sinks so a caller reading an internal pipe observes EOF.
//
// Restoration is attempted for every channel independently; a failure
// on one never skips the other. All errors, including a fatal relay
// error, are joined into the return value. Output written to the
// captured descriptors after Stop begins is not captured.
//
// Stop returns ErrSessionStopped if the session was already stopped.
func (s *Session) Stop() error {
	s.mu.Lock()
	if s.state != stateActive {
		s.mu.Unlock()
		return ErrSessionStopped
	}
	s.state = stateDraining
	s.mu.Unlock()

	// Push buffered native output into the pipes while the write ends
	// still exist.
	flushNativeBuffers()

	var errs []error
	for _, cs := range s.channels {
		if cs == nil {
			continue
		}
		if err := cs.closeReal(); err != nil {
			errs = append(errs, err)
			// Restoring rebinds the real slot, which also releases
			// the pipe write end living there, so the relay still
			// observes end-of-stream and the join below terminates.
			if rerr := cs.restore(); rerr != nil {
				errs = append(errs, rerr)
			}
			cs.restored = true
		}
	}

	<-s.done
	if s.relayErr != nil {
		errs = append(errs, s.relayErr)
	}

	for _, cs := range s.channels {
		if cs == nil || cs.restored {
			continue
		}
		if err := cs.restore(); err != nil {
			s.logger.Warn("descriptor restore failed", "channel", cs.channel, "error", err)
			errs = append(errs, err)
		}
	}

	for _, cs := range s.channels {
		if cs == nil {
			continue
		}
		for _, closer := range cs.finalizers {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	for _, closer := range s.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	s.mu.Lock()
	s.state = stateIdle
	s.mu.Unlock()
	releaseChannels(s)
	return errors.Join(errs...)
}
