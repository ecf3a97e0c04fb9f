// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sink provides ready-made destinations for captured output.
//
// [Ring] is a fixed-capacity circular byte buffer with monotonic
// offset tracking: bounded memory for arbitrarily long sessions, with
// "everything since offset N" reads for observers that poll.
//
// [ZstdFile] appends zstd-compressed output to a file. Native
// library output is chatty and highly compressible; this is the
// destination of choice for permanent whole-process capture.
//
// [DeltaStream] frames captured chunks as CBOR records on an
// io.Writer (typically a unix socket), tagging each chunk with its
// channel, a sequence number, and a timestamp so a consumer on the
// other side can reassemble ordered per-channel streams and detect
// gaps.
//
// All three implement io.Writer and are used directly as capture
// destinations via capture.To.
package sink
