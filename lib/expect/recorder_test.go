// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package expect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bureau-foundation/expectrun/lib/codec"
	"github.com/bureau-foundation/expectrun/lib/testutil"
)

var sampleRegion = Region{
	Start: Position{Line: 4, Column: 5},
	End:   Position{Line: 6, Column: 15},
}

func TestRecorder_AppendsFramesAndCounts(t *testing.T) {
	buffer := newFilledBuffer(BufferSize)
	sequence := NewSequence(buffer)
	recorder := NewRecorder(buffer)

	captures := [][]any{
		{int64(1), "two"},
		{[]any{int64(3)}},
		{},
	}

	want := StartOffset
	var offsets []int
	for _, values := range captures {
		offsets = append(offsets, want)
		if err := recorder.Expect(sampleRegion, 7, values...); err != nil {
			t.Fatalf("Expect: %v", err)
		}
		payload, err := codec.AppendSequence(nil, values...)
		if err != nil {
			t.Fatalf("AppendSequence: %v", err)
		}
		want += FrameHeaderSize + len(payload)
	}

	if got := sequence.FailureCount(); got != len(captures) {
		t.Errorf("FailureCount() = %d, want %d", got, len(captures))
	}
	if got := sequence.NextOffset(); got != want {
		t.Errorf("NextOffset() = %d, want %d", got, want)
	}

	for index, offset := range offsets {
		frame := ReadFrame(buffer, offset)
		if frame.Region != sampleRegion {
			t.Errorf("frame %d region = %v, want %v", index, frame.Region, sampleRegion)
		}
		if frame.Module != 7 {
			t.Errorf("frame %d module = %d, want 7", index, frame.Module)
		}
		if frame.Identity != 0 {
			t.Errorf("frame %d identity = %d, want 0", index, frame.Identity)
		}
		if frame.PayloadOffset != offset+FrameHeaderSize {
			t.Errorf("frame %d payload offset = %d, want %d", index, frame.PayloadOffset, offset+FrameHeaderSize)
		}
	}
}

func TestRecorder_NeverWritesPastBuffer(t *testing.T) {
	buffer := newFilledBuffer(128)
	sequence := NewSequence(buffer)
	recorder := NewRecorder(buffer)

	large := make([]byte, 40)
	var err error
	for attempt := 0; attempt < 10; attempt++ {
		if err = recorder.Expect(sampleRegion, 1, large); err != nil {
			break
		}
		if sequence.NextOffset() > buffer.Len() {
			t.Fatalf("NextOffset() = %d exceeds buffer length %d", sequence.NextOffset(), buffer.Len())
		}
	}
	if !errors.Is(err, ErrBufferFull) {
		t.Fatalf("err = %v, want ErrBufferFull", err)
	}

	countBefore, offsetBefore := sequence.FailureCount(), sequence.NextOffset()
	if err := recorder.Expect(sampleRegion, 1, large); !errors.Is(err, ErrBufferFull) {
		t.Fatalf("second overflow: err = %v, want ErrBufferFull", err)
	}
	if sequence.FailureCount() != countBefore || sequence.NextOffset() != offsetBefore {
		t.Errorf("header changed by a rejected write: (%d, %d) -> (%d, %d)",
			countBefore, offsetBefore, sequence.FailureCount(), sequence.NextOffset())
	}
}

func TestRecorder_DbgRequiresIsolation(t *testing.T) {
	buffer := newFilledBuffer(BufferSize)
	NewSequence(buffer)
	recorder := NewRecorder(buffer)

	if err := recorder.Dbg(3, sampleRegion, 1, "x"); !errors.Is(err, ErrNotIsolated) {
		t.Errorf("Dbg in pure regime: err = %v, want ErrNotIsolated", err)
	}
	recorder.SetIsolated(true)
	if err := recorder.Dbg(0, sampleRegion, 1, "x"); err == nil {
		t.Error("Dbg with identity 0 succeeded")
	}
}

func TestRecorder_IsolatedHandOff(t *testing.T) {
	buffer := newFilledBuffer(BufferSize)
	host := NewSequence(buffer)
	recorder := NewRecorder(buffer)
	recorder.SetIsolated(true)

	childDone := make(chan error, 1)
	go func() {
		if err := recorder.Expect(sampleRegion, 2, int64(5)); err != nil {
			childDone <- err
			return
		}
		childDone <- recorder.Dbg(9, Region{}, 2, "trace")
	}()

	messages := make(chan ChildMessage, 1)
	wait := func() ChildMessage {
		go func() { messages <- host.WaitForChild(context.Background(), Waiter{}) }()
		return testutil.RequireReceive(t, messages, 5*time.Second, "waiting for child signal")
	}

	if message := wait(); message != MessageExpect {
		t.Fatalf("first message = %v, want expect", message)
	}
	frame := ReadFrame(buffer, StartOffset)
	if frame.Module != 2 || frame.Region != sampleRegion {
		t.Errorf("expect frame = %+v", frame)
	}
	if host.FailureCount() != 1 {
		t.Errorf("FailureCount() during hand-off = %d, want 1", host.FailureCount())
	}
	host.Acknowledge()

	if message := wait(); message != MessageDbg {
		t.Fatalf("second message = %v, want dbg", message)
	}
	if frame := ReadFrame(buffer, StartOffset); frame.Identity != 9 {
		t.Errorf("dbg frame identity = %d, want 9", frame.Identity)
	}
	host.Acknowledge()

	if err := testutil.RequireReceive(t, childDone, 5*time.Second, "waiting for child to finish"); err != nil {
		t.Fatalf("child: %v", err)
	}
	if host.NextOffset() != StartOffset || host.FailureCount() != 0 {
		t.Errorf("header after acknowledge = (%d, %d), want (0, %d)",
			host.FailureCount(), host.NextOffset(), StartOffset)
	}
}
