// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package capture

import (
	"golang.org/x/sys/unix"
)

// redirect installs the capture pipe for one channel: duplicate the
// original descriptor so it can be restored later, create a pipe, bind
// the write end onto the real descriptor slot, close the now-redundant
// write end, and make the read end non-blocking for the relay.
//
// On failure every step taken so far is undone; the channel is left
// exactly as found.
func (cs *channelState) redirect() error {
	saved, err := unix.Dup(cs.realFd)
	if err != nil {
		return &DescriptorError{Channel: cs.channel, Op: "dup", Err: err}
	}
	// Keep the saved duplicate out of child processes. The real slot
	// must stay inheritable, but this copy exists only for restore.
	unix.CloseOnExec(saved)

	var p [2]int
	if err := unix.Pipe(p[:]); err != nil {
		unix.Close(saved)
		return &DescriptorError{Channel: cs.channel, Op: "pipe", Err: err}
	}
	readEnd, writeEnd := p[0], p[1]
	unix.CloseOnExec(readEnd)

	if err := bindFd(writeEnd, cs.realFd); err != nil {
		unix.Close(readEnd)
		unix.Close(writeEnd)
		unix.Close(saved)
		return &DescriptorError{Channel: cs.channel, Op: "bind", Err: err}
	}
	// The write end now lives solely in the real slot. Closing this
	// copy means that closing the real fd later is the pipe's
	// end-of-stream signal.
	unix.Close(writeEnd)

	if err := unix.SetNonblock(readEnd, true); err != nil {
		// Undo the binding before reporting: restore the original
		// descriptor and drop everything we created.
		unix.Close(readEnd)
		bindFd(saved, cs.realFd)
		unix.Close(saved)
		return &DescriptorError{Channel: cs.channel, Op: "nonblock", Err: err}
	}

	cs.savedFd = saved
	cs.readFd = readEnd
	return nil
}

// closeReal closes the real descriptor — the pipe write end installed
// by redirect. This is the explicit "no more input" signal: the relay
// observes end-of-stream on readFd once the pipe drains. It must run
// before restore; rebinding first would keep a write end alive and
// the relay would never see EOF.
func (cs *channelState) closeReal() error {
	if err := unix.Close(cs.realFd); err != nil {
		return &DescriptorError{Channel: cs.channel, Op: "close", Err: err}
	}
	return nil
}

// restore rebinds the saved original descriptor onto the real slot and
// releases the saved duplicate and the capture pipe's read end.
func (cs *channelState) restore() error {
	var result error
	if err := bindFd(cs.savedFd, cs.realFd); err != nil {
		result = &DescriptorError{Channel: cs.channel, Op: "restore", Err: err}
	}
	unix.Close(cs.savedFd)
	unix.Close(cs.readFd)
	return result
}

// unwind reverts a redirect when arming fails partway through a
// session: the relay never started, so there is no drain protocol —
// just put the original descriptor back and drop the pipe.
func (cs *channelState) unwind() {
	bindFd(cs.savedFd, cs.realFd)
	unix.Close(cs.savedFd)
	unix.Close(cs.readFd)
}
