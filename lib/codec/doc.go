// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec centralizes CBOR encoding configuration. Delta frames
// written by one process and read back by another (possibly after an
// upgrade) must byte-compare equal for identical logical content, so
// encoding uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer widths, no indefinite-length items.
// Decoding ignores unknown fields for forward compatibility.
//
// Consumers import only this package, not fxamacker/cbor directly, so
// the configuration cannot drift between call sites.
package codec
