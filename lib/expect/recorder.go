// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package expect

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/bureau-foundation/expectrun/lib/codec"
	"github.com/bureau-foundation/expectrun/lib/shm"
)

// ErrBufferFull is returned when a record would run past the end of
// the shared buffer. Nothing is written in that case.
var ErrBufferFull = errors.New("record does not fit in the shared buffer")

// ErrNotIsolated is returned for debug records outside an isolated
// invocation. The pure regime counts every frame as a failure, so it
// has no place for records that are not failures.
var ErrNotIsolated = errors.New("debug records require an isolated invocation")

// Recorder is the producer side of the protocol: the code under test
// uses it to write frames into the shared buffer. It never resets the
// header; the host owns resets.
type Recorder struct {
	sequence *Sequence
	isolated bool
}

// NewRecorder returns a Recorder writing into buffer in the pure
// regime.
func NewRecorder(buffer *shm.Buffer) *Recorder {
	return &Recorder{sequence: AttachSequence(buffer)}
}

// SetIsolated switches between the pure regime (append frames, bump
// the count) and the isolated regime (hand each record to the host
// through the signal cell and wait for acknowledgement).
func (r *Recorder) SetIsolated(isolated bool) {
	r.isolated = isolated
}

// Expect records an expectation failure at region in module, capturing
// values in order.
func (r *Recorder) Expect(region Region, module ModuleID, values ...any) error {
	payload, err := codec.AppendSequence(nil, values...)
	if err != nil {
		return fmt.Errorf("encoding captured values: %w", err)
	}
	frame := Frame{Region: region, Module: module}
	if r.isolated {
		return r.handOff(MessageExpect, frame, payload)
	}
	return r.append(frame, payload)
}

// Dbg records the value of a debug statement. identity names the
// statement in the host's side table and must be non-zero.
func (r *Recorder) Dbg(identity uint32, region Region, module ModuleID, value any) error {
	if identity == 0 {
		return fmt.Errorf("debug record identity 0 is reserved for expectations")
	}
	if !r.isolated {
		return ErrNotIsolated
	}
	payload, err := codec.AppendSequence(nil, value)
	if err != nil {
		return fmt.Errorf("encoding debug value: %w", err)
	}
	return r.handOff(MessageDbg, Frame{Region: region, Module: module, Identity: identity}, payload)
}

func (r *Recorder) append(frame Frame, payload []byte) error {
	offset := r.sequence.NextOffset()
	if offset < StartOffset {
		panic(fmt.Sprintf("expect: write cursor %d is inside the header", offset))
	}
	length := r.sequence.buffer.Len()
	if offset > length || FrameHeaderSize+len(payload) > length-offset {
		return fmt.Errorf("%w: %d-byte frame at offset %d, buffer is %d bytes",
			ErrBufferFull, FrameHeaderSize+len(payload), offset, length)
	}
	end := offset + FrameHeaderSize + len(payload)
	writeFrame(r.sequence.buffer, offset, frame, payload)
	r.sequence.setCursor(r.sequence.FailureCount()+1, end)
	return nil
}

func (r *Recorder) handOff(message ChildMessage, frame Frame, payload []byte) error {
	length := r.sequence.buffer.Len()
	end := StartOffset + FrameHeaderSize + len(payload)
	if end > length {
		return fmt.Errorf("%w: %d-byte frame, buffer is %d bytes",
			ErrBufferFull, FrameHeaderSize+len(payload), length)
	}
	writeFrame(r.sequence.buffer, StartOffset, frame, payload)
	count := 0
	if message == MessageExpect {
		count = 1
	}
	r.sequence.setCursor(count, end)

	cell := r.sequence.signal()
	cell.Store(uint32(message))
	for cell.Load() != 0 {
		runtime.Gosched()
	}
	return nil
}
