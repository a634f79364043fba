// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package expect implements the binary protocol that compiled code
// under test uses to report expectation failures and debug records to
// the host through a shared buffer.
//
// # Layout
//
// The buffer starts with a header of three native machine words:
//
//	word 0  count        failures recorded since the last reset
//	word 1  next offset  where the next frame will be written
//	word 2  sync cell    cross-process signalling
//
// Frames follow at [StartOffset] (three words, 24 bytes on 64-bit
// targets). Each frame is a fixed 24-byte header followed by the CBOR
// sequence of captured values:
//
//	bytes 0..16   region: start line, start column, end line, end column (uint32 each)
//	bytes 16..20  module id (uint32)
//	bytes 20..24  identity (uint32, debug record identity; 0 for expectations)
//	bytes 24..    payload
//
// The frame does not record its payload length. Only the value decoder,
// which knows how many values were captured and their types, can say
// where one frame ends and the next begins.
//
// # Pure and isolated recording
//
// In the pure regime the host resets the header, calls the test
// function synchronously, and inspects the header after the call
// returns. The [Recorder] appends one frame per failure and bumps the
// count; nothing is concurrent.
//
// In the isolated regime the test runs in a separate process. The
// Recorder writes each record at StartOffset, stores a [ChildMessage]
// into the 32-bit signal cell at [SignalOffset], and spins until the
// host acknowledges. The host spins in [Sequence.WaitForChild] on the
// same cell. The atomic store after the frame write and the atomic load
// before the frame read give the host a consistent view of the frame.
package expect
