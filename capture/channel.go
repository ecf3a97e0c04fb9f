// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import "fmt"

// Channel identifies one of the two process-level output descriptors.
type Channel int

const (
	// Stdout is the standard output channel (file descriptor 1).
	Stdout Channel = iota

	// Stderr is the standard error channel (file descriptor 2).
	Stderr

	// numChannels sizes the per-channel arrays. Channels index arrays
	// directly so there is no name-based dispatch anywhere.
	numChannels
)

// fd returns the real descriptor number the channel represents.
func (c Channel) fd() int {
	return int(c) + 1
}

// String returns the conventional name of the channel.
func (c Channel) String() string {
	switch c {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}
