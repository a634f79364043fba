// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package expect

import (
	"encoding/binary"
	"fmt"

	"github.com/bureau-foundation/expectrun/lib/shm"
)

// Frame is the fixed part of one record in the shared buffer.
type Frame struct {
	// Region is the source region the compiled code recorded.
	Region Region

	// Module owns the expectation or debug statement.
	Module ModuleID

	// Identity names the debug statement that produced a debug
	// record. Zero for expectation failures.
	Identity uint32

	// Offset is where the frame starts.
	Offset int

	// PayloadOffset is where the captured values start.
	PayloadOffset int
}

// ReadFrame decodes the frame header at offset. The buffer is only
// ever written by compiled code that shares this layout, so an offset
// that cannot hold a frame is a protocol violation and panics.
func ReadFrame(buffer *shm.Buffer, offset int) Frame {
	if offset < StartOffset {
		panic(fmt.Sprintf("expect: frame offset %d overlaps the %d-byte header", offset, StartOffset))
	}
	header := buffer.Slice(offset, FrameHeaderSize)
	return Frame{
		Region: Region{
			Start: Position{
				Line:   binary.NativeEndian.Uint32(header[0:]),
				Column: binary.NativeEndian.Uint32(header[4:]),
			},
			End: Position{
				Line:   binary.NativeEndian.Uint32(header[8:]),
				Column: binary.NativeEndian.Uint32(header[12:]),
			},
		},
		Module:        ModuleID(binary.NativeEndian.Uint32(header[16:])),
		Identity:      binary.NativeEndian.Uint32(header[20:]),
		Offset:        offset,
		PayloadOffset: offset + FrameHeaderSize,
	}
}

// writeFrame encodes the frame header at offset followed by payload.
func writeFrame(buffer *shm.Buffer, offset int, frame Frame, payload []byte) {
	header := buffer.Slice(offset, FrameHeaderSize)
	binary.NativeEndian.PutUint32(header[0:], frame.Region.Start.Line)
	binary.NativeEndian.PutUint32(header[4:], frame.Region.Start.Column)
	binary.NativeEndian.PutUint32(header[8:], frame.Region.End.Line)
	binary.NativeEndian.PutUint32(header[12:], frame.Region.End.Column)
	binary.NativeEndian.PutUint32(header[16:], uint32(frame.Module))
	binary.NativeEndian.PutUint32(header[20:], frame.Identity)
	copy(buffer.Slice(offset+FrameHeaderSize, len(payload)), payload)
}
