// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package capture

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// relay is the session's single background worker. It loops while any
// capture pipe is open: flush the native stdio buffers so buffered
// output becomes visible, poll all open read ends with the flush
// interval as the timeout, drain whatever is readable, and forward it
// to the per-channel sinks. A read end reporting end-of-stream (its
// write end — the redirected real descriptor — was closed) retires
// that channel; when every channel is retired the relay flushes once
// more and exits, signalling completion by closing s.done.
//
// The relay never blocks on an individual read (the read ends are
// non-blocking) and never touches the descriptor table. A poll, read,
// or sink-write failure is fatal to the session: it is recorded for
// Stop to surface, and the relay exits so teardown can proceed to
// restoration.
func (s *Session) relay() {
	defer close(s.done)

	var open []*channelState
	for _, cs := range s.channels {
		if cs != nil {
			open = append(open, cs)
		}
	}
	fds := make([]unix.PollFd, len(open))
	for i, cs := range open {
		fds[i] = unix.PollFd{Fd: int32(cs.readFd), Events: unix.POLLIN}
	}

	buf := make([]byte, readChunkSize)
	timeout := int(s.flushInterval / time.Millisecond)
	if timeout < 1 {
		timeout = 1
	}

	for len(open) > 0 {
		flushNativeBuffers()

		n, err := unix.Poll(fds, timeout)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			s.relayErr = fmt.Errorf("poll capture pipes: %w", err)
			return
		}
		if n == 0 {
			// Timeout. Not an error: loop back to flush again.
			continue
		}

		for i := 0; i < len(open); i++ {
			if fds[i].Revents == 0 {
				continue
			}
			nr, err := unix.Read(int(fds[i].Fd), buf)
			switch {
			case err != nil && (errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR)):
				// Spurious wakeup; an empty pipe with a closed write
				// end reads as EOF, not EAGAIN, so just move on.
			case err != nil:
				s.relayErr = fmt.Errorf("read %s capture pipe: %w", open[i].channel, err)
				return
			case nr == 0:
				// End-of-stream: the write end is closed and the pipe
				// is drained. Retire the channel.
				s.logger.Debug("capture channel retired", "channel", open[i].channel)
				open = append(open[:i], open[i+1:]...)
				fds = append(fds[:i], fds[i+1:]...)
				i--
			default:
				if _, werr := open[i].sink.Write(buf[:nr]); werr != nil {
					s.relayErr = fmt.Errorf("forward %s output: %w", open[i].channel, werr)
					return
				}
			}
		}
	}

	// The real descriptors are closed by the time the last channel
	// retires, so this mostly clears libc state; output racing
	// teardown is explicitly out of scope.
	flushNativeBuffers()
}
