// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package expect

import (
	"testing"

	"github.com/bureau-foundation/expectrun/lib/shm"
)

func newFilledBuffer(size int) *shm.Buffer {
	buffer := shm.FromSlice(make([]byte, size))
	buffer.Fill(shm.FillPattern)
	return buffer
}

func TestLayoutConstants(t *testing.T) {
	if StartOffset != 3*WordSize {
		t.Errorf("StartOffset = %d, want 3 words (%d)", StartOffset, 3*WordSize)
	}
	if WordSize == 8 {
		if StartOffset != 24 {
			t.Errorf("StartOffset on a 64-bit target = %d, want 24", StartOffset)
		}
		if SignalOffset != 20 {
			t.Errorf("SignalOffset on a 64-bit target = %d, want 20", SignalOffset)
		}
	}
	if SignalOffset < syncOffset || SignalOffset+4 > StartOffset {
		t.Errorf("SignalOffset %d is outside the sync cell [%d, %d)", SignalOffset, syncOffset, StartOffset)
	}
	if BufferSize != 1024 {
		t.Errorf("BufferSize = %d, want 1024", BufferSize)
	}
}

func TestNewSequence_WritesInitialHeader(t *testing.T) {
	sequence := NewSequence(newFilledBuffer(BufferSize))
	assertInitialHeader(t, sequence)
}

func TestReset_IsIdempotentOverAnyContents(t *testing.T) {
	buffer := newFilledBuffer(BufferSize)
	sequence := AttachSequence(buffer)

	// Arbitrary prior contents, including a pending signal.
	buffer.PutWord(countOffset, 17)
	buffer.PutWord(nextOffsetOffset, 900)
	buffer.PutUint32(SignalOffset, 2)

	sequence.Reset()
	assertInitialHeader(t, sequence)

	sequence.Reset()
	assertInitialHeader(t, sequence)
}

func TestAttachSequence_PreservesHeader(t *testing.T) {
	buffer := newFilledBuffer(BufferSize)
	NewSequence(buffer)
	buffer.PutWord(countOffset, 3)

	if got := AttachSequence(buffer).FailureCount(); got != 3 {
		t.Errorf("FailureCount() after attach = %d, want 3", got)
	}
}

func TestAttachSequence_TooSmallPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for a buffer smaller than the header")
		}
	}()
	AttachSequence(shm.FromSlice(make([]byte, StartOffset-1)))
}

func assertInitialHeader(t *testing.T, sequence *Sequence) {
	t.Helper()
	if got := sequence.FailureCount(); got != 0 {
		t.Errorf("FailureCount() = %d, want 0", got)
	}
	if got := sequence.NextOffset(); got != StartOffset {
		t.Errorf("NextOffset() = %d, want %d", got, StartOffset)
	}
	if got := sequence.SyncCell(); got != 0 {
		t.Errorf("SyncCell() = %#x, want 0", got)
	}
}
