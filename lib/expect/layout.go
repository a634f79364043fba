// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package expect

import "github.com/bureau-foundation/expectrun/lib/shm"

// BufferSize is the protocol-defined size of the shared region.
// Captured values must fit; the Recorder refuses writes that would
// run past it.
const BufferSize = 1024

// WordSize is the width of one header field.
const WordSize = shm.WordSize

const (
	countOffset      = 0
	nextOffsetOffset = WordSize
	syncOffset       = 2 * WordSize
)

// StartOffset is where the first frame begins, just past the header.
const StartOffset = 3 * WordSize

// SignalOffset is the byte offset of the 32-bit signal cell: the last
// four bytes of the sync cell.
const SignalOffset = syncOffset + WordSize - 4

// FrameHeaderSize is the fixed part of a frame that precedes the
// captured values.
const FrameHeaderSize = 24
