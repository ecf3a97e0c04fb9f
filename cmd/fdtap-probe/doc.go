// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// fdtap-probe verifies that process-level fd capture works in the
// current environment. Sandboxes, seccomp profiles, and exotic stdio
// arrangements can break the primitives capture depends on (dup,
// dup2/dup3, pipe, poll, non-blocking reads); this binary exercises
// them end to end against its own descriptors and reports per check.
//
// Checks:
//
//   - pipe-roundtrip: raw writes to fd 1 come back byte-exact through
//     a piped capture session, decoded with the configured encoding
//   - merge: stderr writes delivered into stdout's sink exactly once
//   - restore: fd 1 is bound to the same file after a session as before
//   - large-write: a single write larger than the kernel pipe buffer
//     completes without deadlock and arrives intact
//
// Exit status 0 when every check passes, 1 when any check fails, 2 on
// usage or environment errors. All reporting is printed after the
// capture sessions have ended, so the probe's own output is never
// swallowed by the session under test.
package main
