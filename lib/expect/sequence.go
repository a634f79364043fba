// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package expect

import (
	"fmt"
	"sync/atomic"

	"github.com/bureau-foundation/expectrun/lib/shm"
)

// Sequence reads and resets the header at the front of a shared
// buffer.
type Sequence struct {
	buffer *shm.Buffer
}

// NewSequence wraps buffer and writes the initial header.
func NewSequence(buffer *shm.Buffer) *Sequence {
	sequence := AttachSequence(buffer)
	sequence.Reset()
	return sequence
}

// AttachSequence wraps buffer without touching the header. The
// isolated child uses it to join a region the host already
// initialized.
func AttachSequence(buffer *shm.Buffer) *Sequence {
	if buffer.Len() < StartOffset {
		panic(fmt.Sprintf("expect: buffer of %d bytes cannot hold the %d-byte header", buffer.Len(), StartOffset))
	}
	return &Sequence{buffer: buffer}
}

// Buffer returns the underlying shared buffer.
func (s *Sequence) Buffer() *shm.Buffer { return s.buffer }

// Reset writes (count 0, next offset StartOffset, sync 0). It must run
// before every invocation that reuses the buffer.
func (s *Sequence) Reset() {
	s.buffer.PutWord(countOffset, 0)
	s.buffer.PutWord(nextOffsetOffset, uint64(StartOffset))
	s.buffer.PutWord(syncOffset, 0)
}

// FailureCount returns the number of failures recorded since the last
// reset. The value is only meaningful once the writer has finished.
func (s *Sequence) FailureCount() int {
	return int(s.buffer.Word(countOffset))
}

// NextOffset returns the write cursor for the next frame.
func (s *Sequence) NextOffset() int {
	return int(s.buffer.Word(nextOffsetOffset))
}

// SyncCell returns the raw synchronization word.
func (s *Sequence) SyncCell() uint64 {
	return s.buffer.Word(syncOffset)
}

func (s *Sequence) signal() *atomic.Uint32 {
	return s.buffer.AtomicUint32(SignalOffset)
}

func (s *Sequence) setCursor(count, next int) {
	s.buffer.PutWord(countOffset, uint64(count))
	s.buffer.PutWord(nextOffsetOffset, uint64(next))
}
