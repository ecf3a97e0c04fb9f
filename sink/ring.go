// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import "sync"

// DefaultRingCapacity is the default Ring capacity in bytes. 1 MB
// holds a long tail of typical native library output while keeping a
// permanently-installed capture bounded.
const DefaultRingCapacity = 1024 * 1024

// Ring is a fixed-capacity circular byte buffer. Writes never fail
// and never grow the buffer: once full, new bytes overwrite the
// oldest. A monotonically increasing byte offset lets an observer ask
// for "everything since offset N" and detect when it fell behind.
//
// All methods are safe for concurrent use, so a Ring may serve as the
// merged destination for both channels or be read while a session is
// still active.
type Ring struct {
	mu       sync.Mutex
	data     []byte
	capacity int

	// next is the next write position within the circular buffer
	// (0 to capacity-1).
	next int

	// total is the number of bytes ever written. The retained window
	// spans offsets [total-min(total,capacity), total).
	total uint64
}

// NewRing creates a ring with the given capacity in bytes. Use
// DefaultRingCapacity for the standard 1 MB buffer.
func NewRing(capacity int) *Ring {
	return &Ring{
		data:     make([]byte, capacity),
		capacity: capacity,
	}
}

// Write appends p, overwriting the oldest bytes when full. It always
// returns len(p), nil; the Ring drops old data, never new writes.
func (r *Ring) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for offset := 0; offset < len(p); {
		n := min(len(p)-offset, r.capacity-r.next)
		copy(r.data[r.next:r.next+n], p[offset:offset+n])
		r.next = (r.next + n) % r.capacity
		offset += n
	}
	r.total += uint64(len(p))
	return len(p), nil
}

// Since returns a copy of all bytes written at or after the given
// offset. If the offset has already been overwritten, everything still
// retained is returned (the caller missed the difference). Returns nil
// when offset is at or beyond the current write offset.
func (r *Ring) Since(offset uint64) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	if offset >= r.total {
		return nil
	}

	retained := r.total
	if retained > uint64(r.capacity) {
		retained = uint64(r.capacity)
	}
	oldest := r.total - retained
	if offset < oldest {
		offset = oldest
	}

	length := int(r.total - offset)
	result := make([]byte, length)

	// next points one past the newest byte; the requested window ends
	// there and starts length bytes earlier, wrapping around.
	pos := (r.next - length) % r.capacity
	if pos < 0 {
		pos += r.capacity
	}
	for copied := 0; copied < length; {
		n := min(length-copied, r.capacity-pos)
		copy(result[copied:copied+n], r.data[pos:pos+n])
		pos = (pos + n) % r.capacity
		copied += n
	}
	return result
}

// Bytes returns a copy of everything currently retained, oldest first.
func (r *Ring) Bytes() []byte {
	return r.Since(0)
}

// Offset returns the total number of bytes ever written. An observer
// stores this and passes it to Since to read only what is new.
func (r *Ring) Offset() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}
