// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"fmt"
	"io"

	"github.com/bureau-foundation/expectrun/lib/expect"
	"github.com/bureau-foundation/expectrun/lib/manifest"
	"github.com/bureau-foundation/expectrun/lib/render"
	"github.com/bureau-foundation/expectrun/lib/shm"
	"github.com/bureau-foundation/expectrun/lib/values"
)

// Bridge renders frames using the manifest's side tables.
type Bridge struct {
	manifest *manifest.Manifest
	decoder  values.Decoder
	sources  *SourceLoader
	target   render.Target

	renderers map[expect.ModuleID]*render.Renderer
}

// NewBridge returns a bridge over the given manifest.
func NewBridge(build *manifest.Manifest, decoder values.Decoder, sources *SourceLoader, target render.Target) *Bridge {
	return &Bridge{
		manifest:  build,
		decoder:   decoder,
		sources:   sources,
		target:    target,
		renderers: make(map[expect.ModuleID]*render.Renderer),
	}
}

// module returns the side tables and renderer for a module id. Source
// read failures are returned; an id the manifest lacks panics.
func (b *Bridge) module(id expect.ModuleID) (*manifest.Module, *render.Renderer, error) {
	module, ok := b.manifest.Modules[id]
	if !ok {
		panic(fmt.Sprintf("runner: module %d not in the manifest", id))
	}
	if renderer, ok := b.renderers[id]; ok {
		return module, renderer, nil
	}
	source, err := b.sources.Load(module)
	if err != nil {
		return nil, nil, err
	}
	renderer := render.New(b.target, module.Path, source)
	b.renderers[id] = renderer
	return module, renderer, nil
}

// RenderExpectFailure renders the expectation frame at offset and
// returns the number of bytes the frame occupies. expectRegion is the
// region of the test that was running, or nil when unknown.
func (b *Bridge) RenderExpectFailure(w io.Writer, buffer *shm.Buffer, offset int, expectRegion *expect.Region) (int, error) {
	frame := expect.ReadFrame(buffer, offset)
	module, renderer, err := b.module(frame.Module)
	if err != nil {
		return 0, err
	}

	lookups, ok := module.Expectations[frame.Region]
	if !ok {
		panic(fmt.Sprintf("runner: region %s not in the expectations of module %d", frame.Region, frame.Module))
	}
	lookups = capturedLookups(lookups)

	declared := make([]string, len(lookups))
	for index, lookup := range lookups {
		declared[index] = lookup.Type
	}
	result := b.decode(buffer, frame, declared, module)

	captures := make([]render.Capture, len(lookups))
	for index, lookup := range lookups {
		captures[index] = render.Capture{Name: lookup.Symbol, Value: result.Values[index]}
	}
	if err := renderer.RenderFailure(w, captures, expectRegion, frame.Region); err != nil {
		return 0, err
	}
	return expect.FrameHeaderSize + result.Consumed, nil
}

// RenderDbg renders the debug frame at offset and returns the number
// of bytes the frame occupies.
func (b *Bridge) RenderDbg(w io.Writer, buffer *shm.Buffer, offset int) (int, error) {
	frame := expect.ReadFrame(buffer, offset)
	module, renderer, err := b.module(frame.Module)
	if err != nil {
		return 0, err
	}

	dbg, ok := module.Dbgs[frame.Identity]
	if !ok {
		panic(fmt.Sprintf("runner: debug identity %d not in module %d", frame.Identity, frame.Module))
	}
	result := b.decode(buffer, frame, []string{dbg.Type}, module)

	if err := renderer.RenderDbg(w, dbg.Symbol, result.Values[0], dbg.Region); err != nil {
		return 0, err
	}
	return expect.FrameHeaderSize + result.Consumed, nil
}

// RenderExpectInMemory renders the single expectation frame a child
// process handed off at the start offset.
func (b *Bridge) RenderExpectInMemory(w io.Writer, buffer *shm.Buffer) (int, error) {
	return b.RenderExpectFailure(w, buffer, expect.StartOffset, nil)
}

// RenderDbgInMemory renders the single debug frame a child process
// handed off at the start offset.
func (b *Bridge) RenderDbgInMemory(w io.Writer, buffer *shm.Buffer) (int, error) {
	return b.RenderDbg(w, buffer, expect.StartOffset)
}

// RenderPanic renders a test that terminated abnormally.
func (b *Bridge) RenderPanic(w io.Writer, test manifest.Descriptor, message string) error {
	_, renderer, err := b.module(test.Symbol.Module)
	if err != nil {
		return err
	}
	return renderer.RenderPanic(w, message, test.Region)
}

// decode materializes the frame's payload. The payload was written by
// compiled code for exactly these types, so a failure is a protocol
// violation.
func (b *Bridge) decode(buffer *shm.Buffer, frame expect.Frame, declared []string, module *manifest.Module) values.Result {
	result, err := b.decoder.Decode(buffer.Bytes(), frame.PayloadOffset, declared, module.Types)
	if err != nil {
		panic(fmt.Sprintf("runner: malformed payload in frame at offset %d: %v", frame.Offset, err))
	}
	if len(result.Values) != len(declared) {
		panic(fmt.Sprintf("runner: decoder returned %d values for %d captures", len(result.Values), len(declared)))
	}
	return result
}

// capturedLookups drops function-typed lookups, which compiled code
// never writes into a frame.
func capturedLookups(lookups []manifest.Lookup) []manifest.Lookup {
	captured := make([]manifest.Lookup, 0, len(lookups))
	for _, lookup := range lookups {
		if !lookup.Function {
			captured = append(captured, lookup)
		}
	}
	return captured
}
