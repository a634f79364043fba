// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bureau-foundation/expectrun/lib/expect"
	"github.com/bureau-foundation/expectrun/lib/manifest"
	"github.com/bureau-foundation/expectrun/lib/shm"
	"github.com/bureau-foundation/expectrun/lib/values"
)

const fixtureSource = `module [add]

add = \a, b -> a + b

expect
    x = add 1 1
    x == 3

expect
    name = "sum"
    n = add 2 2
    name == "total" && n == 5

main =
    y = dbg "value"
    y
`

var (
	singleRegion = region(7, 5, 7, 11)
	pairRegion   = region(12, 5, 12, 30)
	unknownZone  = region(99, 1, 99, 2)
	dbgRegion    = region(15, 9, 15, 20)

	testSingleRegion = region(5, 1, 7, 11)
	testPairRegion   = region(9, 1, 12, 30)
)

func region(startLine, startColumn, endLine, endColumn uint32) expect.Region {
	return expect.Region{
		Start: expect.Position{Line: startLine, Column: startColumn},
		End:   expect.Position{Line: endLine, Column: endColumn},
	}
}

// newFixture writes the fixture source and returns a manifest whose
// module 1 describes it. Tests are added by the caller.
func newFixture(t *testing.T) *manifest.Manifest {
	t.Helper()
	path := filepath.Join(t.TempDir(), "add.roc")
	if err := os.WriteFile(path, []byte(fixtureSource), 0o644); err != nil {
		t.Fatal(err)
	}
	return &manifest.Manifest{
		Library: "fixture.so",
		Modules: map[expect.ModuleID]*manifest.Module{
			1: {
				ID:    1,
				Path:  path,
				Types: values.NewTypeTable(nil),
				Expectations: map[expect.Region][]manifest.Lookup{
					singleRegion: {{Symbol: "x", Type: "I64"}},
					pairRegion: {
						{Symbol: "name", Type: "Str"},
						{Symbol: "add", Type: "I64, I64 -> I64", Function: true},
						{Symbol: "n", Type: "a"},
					},
				},
				Dbgs: map[uint32]manifest.Dbg{
					5: {Identity: 5, Region: dbgRegion, Symbol: "y", Type: "Str"},
				},
			},
		},
	}
}

func descriptor(name string, declared expect.Region) manifest.Descriptor {
	return manifest.Descriptor{Name: name, Symbol: expect.Symbol{Module: 1, Ident: 1}, Region: declared}
}

func newBuffer() *shm.Buffer {
	buffer := shm.FromSlice(make([]byte, expect.BufferSize))
	buffer.Fill(shm.FillPattern)
	return buffer
}

// fakeLibrary runs test bodies in-process against the shared buffer,
// the way a loaded plugin would.
type fakeLibrary struct {
	tests map[string]func(recorder *expect.Recorder)

	mu       sync.Mutex
	recorder *expect.Recorder
	calls    []string
}

func (l *fakeLibrary) ShareBuffer(buffer *shm.Buffer) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, SetSharedBufferSymbol)
	l.recorder = expect.NewRecorder(buffer)
	return nil
}

func (l *fakeLibrary) Lookup(name string) (TestFunc, error) {
	body, ok := l.tests[name]
	if !ok {
		return nil, fmt.Errorf("symbol %s not found", name)
	}
	return Guard(name, func() {
		l.mu.Lock()
		l.calls = append(l.calls, name)
		recorder := l.recorder
		l.mu.Unlock()
		body(recorder)
	}), nil
}

func (l *fakeLibrary) Close() error { return nil }

// must records a frame or fails loudly.
func must(err error) {
	if err != nil {
		panic(err)
	}
}

// fakeSpawner runs effectful test bodies on goroutines standing in for
// child processes. Each body gets an isolated recorder on the shared
// buffer and a channel closed when the runner kills it.
type fakeSpawner struct {
	buffer  *shm.Buffer
	bodies  map[string]func(recorder *expect.Recorder, killed <-chan struct{}) error
	spawned chan string
}

func (s *fakeSpawner) Spawn(ctx context.Context, test manifest.Descriptor) (Child, error) {
	body, ok := s.bodies[test.Name]
	if !ok {
		return nil, errors.New("no such effectful test")
	}
	recorder := expect.NewRecorder(s.buffer)
	recorder.SetIsolated(true)

	child := &fakeChild{done: make(chan struct{}), killed: make(chan struct{})}
	go func() {
		defer close(child.done)
		child.err = body(recorder, child.killed)
	}()
	if s.spawned != nil {
		s.spawned <- test.Name
	}
	return child, nil
}

type fakeChild struct {
	done     chan struct{}
	killed   chan struct{}
	killOnce sync.Once
	err      error
}

func (c *fakeChild) Exited() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *fakeChild) Wait() error {
	<-c.done
	return c.err
}

func (c *fakeChild) Kill() error {
	c.killOnce.Do(func() { close(c.killed) })
	return nil
}

// recordingObserver keeps every invocation and the header as it was
// when each one was reported.
type recordingObserver struct {
	buffer      *shm.Buffer
	invocations []Invocation
	headers     [][2]int
}

func (o *recordingObserver) Observe(invocation Invocation) error {
	o.invocations = append(o.invocations, invocation)
	sequence := expect.AttachSequence(o.buffer)
	o.headers = append(o.headers, [2]int{sequence.FailureCount(), sequence.NextOffset()})
	return nil
}
