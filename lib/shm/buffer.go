// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package shm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"
)

// WordSize is the width in bytes of a native machine word. Header
// fields written by compiled code are native words.
const WordSize = int(unsafe.Sizeof(uintptr(0)))

// FillPattern is written over a freshly mapped region. Uninitialized
// reads show up as runs of 0xAA instead of plausible zeros.
const FillPattern byte = 0xAA

// ErrEnvironment marks failures of the platform shared memory
// primitive: the object could not be opened, sized, or mapped.
var ErrEnvironment = errors.New("shared memory unavailable")

// DefaultName returns the region name derived from a process id. A
// cooperating process that knows the host pid can find the region
// without inheriting a handle.
func DefaultName(pid int) string {
	return fmt.Sprintf("expectrun_buffer_%d", pid)
}

// Buffer is a fixed-length byte region with bounds-checked accessors.
// It is either a shared memory mapping (from CreateOrAttach or Attach)
// or a wrapper around caller-owned memory (from FromSlice).
//
// A Buffer must not be copied after creation. Accessors are not
// synchronized with Close; the owner closes the buffer only after the
// last invocation using it has returned.
type Buffer struct {
	data []byte
	name string
	path string
	fd   int

	mapped bool
	closed bool
}

// FromSlice wraps data as a Buffer. The buffer has no name and Close
// does not release data.
func FromSlice(data []byte) *Buffer {
	return &Buffer{data: data, fd: -1}
}

// FromPointer wraps n bytes at p, as handed to a test library by the
// runner's SetSharedBuffer call. The memory must stay mapped for the
// life of the Buffer.
func FromPointer(p unsafe.Pointer, n int) *Buffer {
	if p == nil || n <= 0 {
		return FromSlice(nil)
	}
	return FromSlice(unsafe.Slice((*byte)(p), n))
}

// Name returns the cross-process name of the region, or "" for
// buffers created by FromSlice.
func (b *Buffer) Name() string { return b.name }

// Len returns the region length in bytes.
func (b *Buffer) Len() int { return len(b.data) }

// Bytes returns the whole region. The slice aliases the mapping and is
// invalid after Close.
func (b *Buffer) Bytes() []byte {
	b.checkOpen()
	return b.data
}

// Pointer returns the address of the first byte of the region, for
// handing to code that cannot take a Go slice.
func (b *Buffer) Pointer() unsafe.Pointer {
	b.checkOpen()
	if len(b.data) == 0 {
		return nil
	}
	return unsafe.Pointer(&b.data[0])
}

// Slice returns the n bytes starting at offset. The returned slice has
// its capacity clipped so appends cannot spill past the range.
func (b *Buffer) Slice(offset, n int) []byte {
	b.check(offset, n)
	return b.data[offset : offset+n : offset+n]
}

// Tail returns every byte from offset to the end of the region.
func (b *Buffer) Tail(offset int) []byte {
	b.check(offset, 0)
	return b.data[offset:]
}

// Fill sets every byte of the region to value.
func (b *Buffer) Fill(value byte) {
	b.checkOpen()
	for index := range b.data {
		b.data[index] = value
	}
}

// Word reads the native-endian machine word at offset.
func (b *Buffer) Word(offset int) uint64 {
	b.check(offset, WordSize)
	if WordSize == 8 {
		return binary.NativeEndian.Uint64(b.data[offset:])
	}
	return uint64(binary.NativeEndian.Uint32(b.data[offset:]))
}

// PutWord writes value as a native-endian machine word at offset.
func (b *Buffer) PutWord(offset int, value uint64) {
	b.check(offset, WordSize)
	if WordSize == 8 {
		binary.NativeEndian.PutUint64(b.data[offset:], value)
		return
	}
	binary.NativeEndian.PutUint32(b.data[offset:], uint32(value))
}

// Uint32 reads the native-endian 32-bit value at offset.
func (b *Buffer) Uint32(offset int) uint32 {
	b.check(offset, 4)
	return binary.NativeEndian.Uint32(b.data[offset:])
}

// PutUint32 writes value as a native-endian 32-bit value at offset.
func (b *Buffer) PutUint32(offset int, value uint32) {
	b.check(offset, 4)
	binary.NativeEndian.PutUint32(b.data[offset:], value)
}

// AtomicUint32 returns an atomic view of the 32-bit cell at offset.
// Loads and stores through it synchronize with another process that
// maps the same object. Panics if the cell is not 4-byte aligned.
func (b *Buffer) AtomicUint32(offset int) *atomic.Uint32 {
	b.check(offset, 4)
	pointer := unsafe.Pointer(&b.data[offset])
	if uintptr(pointer)%4 != 0 {
		panic(fmt.Sprintf("shm: atomic cell at offset %d is not 4-byte aligned", offset))
	}
	return (*atomic.Uint32)(pointer)
}

// Close unmaps the region and closes the backing descriptor. Close is
// idempotent and does nothing for buffers created by FromSlice. The
// named object survives Close; call Unlink to remove it.
func (b *Buffer) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	if !b.mapped {
		return nil
	}
	err := unmap(b)
	b.data = nil
	b.fd = -1
	return err
}

// Unlink removes the named backing object so that later CreateOrAttach
// calls with the same name start from a new object. Existing mappings
// stay valid until closed. Unlinking an already-removed object is not
// an error.
func (b *Buffer) Unlink() error {
	if b.path == "" {
		return nil
	}
	if err := os.Remove(b.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("unlinking shared memory object %s: %w", b.path, err)
	}
	return nil
}

func (b *Buffer) checkOpen() {
	if b.closed {
		panic("shm: access to closed buffer")
	}
}

func (b *Buffer) check(offset, n int) {
	b.checkOpen()
	if offset < 0 || n < 0 || offset > len(b.data) || n > len(b.data)-offset {
		panic(fmt.Sprintf("shm: access [%d, %d) outside buffer of %d bytes", offset, offset+n, len(b.data)))
	}
}
