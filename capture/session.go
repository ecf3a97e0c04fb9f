// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// sessionState tracks the capture lifecycle. Transitions:
// idle → armed (descriptors redirected) → active (relay running) →
// draining (real fds closed, relay unwinding) → idle (restored).
type sessionState int

const (
	stateIdle sessionState = iota
	stateArmed
	stateActive
	stateDraining
)

// channelState holds everything needed to redirect one channel and to
// undo the redirection later. Mutated only by Start and Stop; the
// relay goroutine reads sink and readFd but never changes descriptor
// bindings.
type channelState struct {
	channel Channel

	// realFd is the process-global descriptor slot (1 or 2).
	realFd int

	// savedFd is a duplicate of the original descriptor, made before
	// the slot was rebound. Owned by the session; closed by restore.
	savedFd int

	// readFd is the non-blocking read end of the capture pipe. The
	// write end lives only in the realFd slot once redirection is
	// installed, so closing realFd is the relay's end-of-stream
	// signal.
	readFd int

	// sink receives the channel's captured bytes (possibly through a
	// decode wrapper). For merged stderr this aliases stdout's sink.
	sink io.Writer

	// finalizers are closed, in order, after the relay has exited:
	// first any decode wrapper (flushing a trailing partial rune),
	// then any internally created pipe write end (so the caller's
	// read end observes EOF). Empty for merged stderr; the aliased
	// stdout entry owns them.
	finalizers []io.Closer

	// restored marks a channel whose original binding was already put
	// back during the close phase of teardown (only happens when
	// closing the redirected descriptor itself failed).
	restored bool
}

// Session is an active capture of one or both output channels. Create
// with Start (or Run for the scoped form); end with Stop. A Session
// must not be copied.
type Session struct {
	mu    sync.Mutex
	state sessionState

	flushInterval time.Duration
	logger        *slog.Logger

	// channels is indexed by Channel; nil entries are not captured.
	channels [numChannels]*channelState

	// readers holds the caller-facing read ends for Pipe
	// destinations, indexed by Channel.
	readers [numChannels]*os.File

	// done is closed when the relay goroutine has observed
	// end-of-stream on every capture pipe and exited.
	done chan struct{}

	// relayErr records a fatal relay failure. Written by the relay
	// goroutine before done is closed; read by Stop after the join.
	relayErr error

	// closers are extra resources (config-opened files) released at
	// the end of teardown.
	closers []io.Closer
}

// Stdout returns the read end of the internally created stdout pipe,
// or nil when the stdout destination was not Pipe. Valid during and
// after the session; reports EOF once Stop has drained and finalized
// the sink. Closing it is the caller's responsibility.
func (s *Session) Stdout() *os.File {
	return s.readers[Stdout]
}

// Stderr returns the read end of the internally created stderr pipe,
// or nil when the stderr destination was not Pipe (including merged
// stderr, whose bytes arrive on the stdout reader).
func (s *Session) Stderr() *os.File {
	return s.readers[Stderr]
}

// owners enforces single ownership of the process-wide descriptor
// slots: at most one session may hold a given channel redirected.
var owners struct {
	mu       sync.Mutex
	sessions [numChannels]*Session
}

// acquireChannels registers s as the owner of every channel in chans,
// or fails without registering any of them if one is already held.
func acquireChannels(s *Session, chans []Channel) error {
	owners.mu.Lock()
	defer owners.mu.Unlock()
	for _, c := range chans {
		if owners.sessions[c] != nil {
			return &DescriptorError{Channel: c, Op: "bind", Err: ErrChannelHeld}
		}
	}
	for _, c := range chans {
		owners.sessions[c] = s
	}
	return nil
}

// releaseChannels drops every channel registration held by s.
func releaseChannels(s *Session) {
	owners.mu.Lock()
	defer owners.mu.Unlock()
	for c := range owners.sessions {
		if owners.sessions[c] == s {
			owners.sessions[c] = nil
		}
	}
}

// Start redirects the configured channels and launches the relay
// goroutine. On success the caller's code (including native code) runs
// with fd 1/2 writes flowing into the capture pipes until Stop. On
// failure nothing is left redirected and no output is captured.
func Start(options Options) (*Session, error) {
	return startSession(options)
}

// Run captures around fn: it starts a session, invokes fn, and stops
// the session on every exit path, including panic (the panic
// propagates after the descriptors are restored). The returned error
// joins fn's error with any teardown error.
func Run(options Options, fn func() error) error {
	s, err := Start(options)
	if err != nil {
		return err
	}
	stopped := false
	defer func() {
		if !stopped {
			// Panic path: restore descriptors, let the panic continue.
			_ = s.Stop()
		}
	}()
	fnErr := fn()
	stopped = true
	return errors.Join(fnErr, s.Stop())
}

// ForwardToOS captures both channels and forwards the bytes into the
// current os.Stdout and os.Stderr variables. This is only meaningful
// when those variables have been re-pointed somewhere (a log file, a
// test harness pipe): forwarding into a variable that still refers to
// the real descriptor would feed captured output straight back into
// the capture pipe, so Start rejects that case.
//
// The Stdout and Stderr fields of options are overridden; Encoding,
// FlushInterval, and Logger are respected.
func ForwardToOS(options Options) (*Session, error) {
	options.Stdout = To(os.Stdout)
	options.Stderr = To(os.Stderr)
	return Start(options)
}

// Forever installs capture for the remainder of the process lifetime.
// The session is deliberately leaked: there is no handle to stop it,
// the descriptors stay redirected and the relay goroutine runs until
// the process exits. Intended for one-time installation at startup.
func Forever(options Options) error {
	_, err := Start(options)
	return err
}
