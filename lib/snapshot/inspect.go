// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"fmt"
	"io"

	"github.com/bureau-foundation/expectrun/lib/codec"
	"github.com/bureau-foundation/expectrun/lib/expect"
	"github.com/bureau-foundation/expectrun/lib/manifest"
	"github.com/bureau-foundation/expectrun/lib/shm"
)

// Inspect walks the frames recorded in a snapshot and writes each
// frame's location and captured values in CBOR diagnostic notation.
//
// Unlike the runner, which trusts the buffer because only matching
// compiled code writes it, Inspect reads files from disk and reports
// inconsistencies as errors.
func Inspect(w io.Writer, snapshot Snapshot, build *manifest.Manifest) error {
	if snapshot.WordSize != expect.WordSize {
		return fmt.Errorf("snapshot was written with %d-byte words, this host uses %d", snapshot.WordSize, expect.WordSize)
	}
	if len(snapshot.Memory) < expect.StartOffset {
		return fmt.Errorf("snapshot buffer of %d bytes is smaller than the header", len(snapshot.Memory))
	}

	buffer := shm.FromSlice(snapshot.Memory)
	sequence := expect.AttachSequence(buffer)
	count := sequence.FailureCount()
	if _, err := fmt.Fprintf(w, "test %s: %d recorded frame(s), next offset %d\n",
		snapshot.Test, count, sequence.NextOffset()); err != nil {
		return err
	}

	offset := expect.StartOffset
	for index := 0; index < count; index++ {
		if offset+expect.FrameHeaderSize > buffer.Len() {
			return fmt.Errorf("frame %d at offset %d runs past the buffer", index, offset)
		}
		frame := expect.ReadFrame(buffer, offset)

		module, ok := build.Modules[frame.Module]
		if !ok {
			return fmt.Errorf("frame %d: module %d is not in the manifest", index, frame.Module)
		}
		names, err := capturedNames(module, frame)
		if err != nil {
			return fmt.Errorf("frame %d: %w", index, err)
		}

		if _, err := fmt.Fprintf(w, "\nframe %d @%d  %s:%s\n", index, offset, module.Path, frame.Region); err != nil {
			return err
		}
		remaining := snapshot.Memory[frame.PayloadOffset:]
		for _, name := range names {
			diagnostic, rest, err := codec.DiagnoseFirst(remaining)
			if err != nil {
				return fmt.Errorf("frame %d: decoding %s: %w", index, name, err)
			}
			remaining = rest
			if _, err := fmt.Fprintf(w, "  %s = %s\n", name, diagnostic); err != nil {
				return err
			}
		}
		offset = len(snapshot.Memory) - len(remaining)
	}
	return nil
}

// capturedNames returns the variables a frame's payload holds, in
// payload order.
func capturedNames(module *manifest.Module, frame expect.Frame) ([]string, error) {
	if frame.Identity != 0 {
		dbg, ok := module.Dbgs[frame.Identity]
		if !ok {
			return nil, fmt.Errorf("debug identity %d is not in the manifest", frame.Identity)
		}
		return []string{dbg.Symbol}, nil
	}

	lookups, ok := module.Expectations[frame.Region]
	if !ok {
		return nil, fmt.Errorf("region %s is not an expectation in %s", frame.Region, module.Path)
	}
	var names []string
	for _, lookup := range lookups {
		if !lookup.Function {
			names = append(names, lookup.Symbol)
		}
	}
	return names, nil
}
