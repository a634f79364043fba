// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/bureau-foundation/expectrun/lib/clock"
	"github.com/bureau-foundation/expectrun/lib/expect"
	"github.com/bureau-foundation/expectrun/lib/manifest"
	"github.com/bureau-foundation/expectrun/lib/render"
	"github.com/bureau-foundation/expectrun/lib/shm"
	"github.com/bureau-foundation/expectrun/lib/values"
)

// DefaultTimeout bounds an effectful child's silence when Config.Timeout
// is zero.
const DefaultTimeout = 30 * time.Second

// Config holds everything a Runner needs. Buffer, Library and Manifest
// are required.
type Config struct {
	Buffer   *shm.Buffer
	Library  Library
	Manifest *manifest.Manifest

	// Decoder defaults to values.CBORDecoder.
	Decoder values.Decoder

	Target render.Target

	// Sources defaults to a loader that verifies fingerprints.
	Sources *SourceLoader

	// Spawner runs effectful tests. Nil makes a run with effectful
	// tests fail with ErrEffectfulUnsupported.
	Spawner Spawner

	// Timeout bounds how long an effectful child may go without
	// signalling or exiting.
	Timeout time.Duration

	Clock     clock.Clock
	Observers []Observer
	Logger    *slog.Logger
}

// Summary is the result of a run.
type Summary struct {
	Failed int
	Passed int
}

// Runner executes the tests of one library against one shared buffer.
// A Runner is not safe for concurrent use: one invocation is in flight
// per buffer.
type Runner struct {
	buffer    *shm.Buffer
	sequence  *expect.Sequence
	library   Library
	manifest  *manifest.Manifest
	bridge    *Bridge
	spawner   Spawner
	timeout   time.Duration
	clock     clock.Clock
	observers []Observer
	logger    *slog.Logger

	state          State
	isolationState IsolationState
}

// New validates cfg and returns a Runner.
func New(cfg Config) (*Runner, error) {
	var errs []error
	if cfg.Buffer == nil {
		errs = append(errs, errors.New("runner: buffer is required"))
	} else if cfg.Buffer.Len() < expect.StartOffset+expect.FrameHeaderSize {
		errs = append(errs, fmt.Errorf("runner: buffer of %d bytes is too small", cfg.Buffer.Len()))
	}
	if cfg.Library == nil {
		errs = append(errs, errors.New("runner: library is required"))
	}
	if cfg.Manifest == nil {
		errs = append(errs, errors.New("runner: manifest is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Decoder == nil {
		cfg.Decoder = values.CBORDecoder{}
	}
	if cfg.Sources == nil {
		cfg.Sources = NewSourceLoader(true, cfg.Logger)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}

	return &Runner{
		buffer:    cfg.Buffer,
		sequence:  expect.AttachSequence(cfg.Buffer),
		library:   cfg.Library,
		manifest:  cfg.Manifest,
		bridge:    NewBridge(cfg.Manifest, cfg.Decoder, cfg.Sources, cfg.Target),
		spawner:   cfg.Spawner,
		timeout:   cfg.Timeout,
		clock:     cfg.Clock,
		observers: cfg.Observers,
		logger:    cfg.Logger,
	}, nil
}

// State returns the pure-invocation state.
func (r *Runner) State() State { return r.state }

// IsolationState returns the effectful-invocation state.
func (r *Runner) IsolationState() IsolationState { return r.isolationState }

// Run shares the buffer with the library, then runs every effectful
// test followed by every pure test, writing diagnostics to w.
//
// Test failures are counted in the summary. The returned error is
// reserved for failures of the run itself: the library rejecting the
// buffer or a missing symbol, unreadable source text, a failed write
// to w, an observer error, or cancellation.
func (r *Runner) Run(ctx context.Context, w io.Writer) (Summary, error) {
	var summary Summary

	if len(r.manifest.Effectful) > 0 && r.spawner == nil {
		return summary, fmt.Errorf("%w: %d effectful test(s), first is %s",
			ErrEffectfulUnsupported, len(r.manifest.Effectful), r.manifest.Effectful[0].Name)
	}

	if err := r.library.ShareBuffer(r.buffer); err != nil {
		return summary, fmt.Errorf("sharing buffer with library: %w", err)
	}

	for _, test := range r.manifest.Effectful {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		passed, err := r.runEffectful(ctx, w, test)
		if err != nil {
			return summary, err
		}
		summary.count(passed)
	}

	for _, test := range r.manifest.Pure {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		passed, err := r.runPure(w, test)
		if err != nil {
			return summary, err
		}
		summary.count(passed)
	}

	r.logger.Info("run complete", "failed", summary.Failed, "passed", summary.Passed)
	return summary, nil
}

func (s *Summary) count(passed bool) {
	if passed {
		s.Passed++
	} else {
		s.Failed++
	}
}

func (r *Runner) transition(test string, next State) {
	r.logger.Debug("test state", "test", test, "from", r.state.String(), "to", next.String())
	r.state = next
}

// runPure invokes one pure test in-process.
func (r *Runner) runPure(w io.Writer, test manifest.Descriptor) (bool, error) {
	fn, err := r.library.Lookup(test.Name)
	if err != nil {
		return false, err
	}

	r.sequence.Reset()
	r.transition(test.Name, StateInvoking)
	callErr := fn()

	var abnormal *AbnormalTermination
	if callErr != nil && !errors.As(callErr, &abnormal) {
		abnormal = &AbnormalTermination{Test: test.Name, Message: callErr.Error()}
	}
	count := r.sequence.FailureCount()

	if abnormal == nil && count == 0 {
		r.transition(test.Name, StateSuccess)
		defer r.transition(test.Name, StateIdle)
		return true, r.notify(Invocation{Test: test, Passed: true, Cursor: expect.StartOffset})
	}

	r.transition(test.Name, StateFailed)
	defer r.transition(test.Name, StateIdle)

	var out bytes.Buffer
	invocation := Invocation{Test: test}
	if abnormal != nil {
		r.logger.Info("test crashed", "test", test.Name, "message", abnormal.Message)
		if err := r.bridge.RenderPanic(&out, test, abnormal.Message); err != nil {
			return false, err
		}
		invocation.Failures = 1
	} else {
		cursor := expect.StartOffset
		for index := 0; index < count; index++ {
			consumed, err := r.bridge.RenderExpectFailure(&out, r.buffer, cursor, &test.Region)
			if err != nil {
				return false, err
			}
			cursor += consumed
		}
		if cursor != r.sequence.NextOffset() {
			r.logger.Warn("frame walk ended away from the write cursor",
				"test", test.Name, "walked_to", cursor, "next_offset", r.sequence.NextOffset())
		}
		invocation.Failures = count
		invocation.Cursor = cursor
	}
	out.WriteByte('\n')

	invocation.Output = out.String()
	invocation.Memory = append([]byte(nil), r.buffer.Bytes()...)
	if _, err := w.Write(out.Bytes()); err != nil {
		return false, fmt.Errorf("writing diagnostics: %w", err)
	}
	return false, r.notify(invocation)
}

// runEffectful runs one effectful test in an isolated child and
// renders each record the child hands off.
func (r *Runner) runEffectful(ctx context.Context, w io.Writer, test manifest.Descriptor) (bool, error) {
	r.sequence.Reset()
	deadline := r.clock.Now().Add(r.timeout)

	child, err := r.spawner.Spawn(ctx, test)
	if err != nil {
		return false, fmt.Errorf("spawning %s: %w", test.Name, err)
	}
	r.setIsolation(test.Name, IsolationSpawned)
	defer r.setIsolation(test.Name, IsolationIdle)

	var out bytes.Buffer
	failures := 0
	crashed := ""

wait:
	for {
		message := r.sequence.WaitForChild(ctx, expect.Waiter{
			Terminated: child.Exited,
			Clock:      r.clock,
			Deadline:   deadline,
		})
		switch message {
		case expect.MessageExpect:
			r.setIsolation(test.Name, IsolationSignalReceived)
			if _, err := r.bridge.RenderExpectInMemory(&out, r.buffer); err != nil {
				r.abandon(child)
				return false, err
			}
			failures++
			r.sequence.Acknowledge()
			r.setIsolation(test.Name, IsolationSpawned)
			deadline = r.clock.Now().Add(r.timeout)

		case expect.MessageDbg:
			r.setIsolation(test.Name, IsolationSignalReceived)
			if _, err := r.bridge.RenderDbgInMemory(&out, r.buffer); err != nil {
				r.abandon(child)
				return false, err
			}
			r.sequence.Acknowledge()
			r.setIsolation(test.Name, IsolationSpawned)
			deadline = r.clock.Now().Add(r.timeout)

		case expect.MessageTimedOut:
			r.setIsolation(test.Name, IsolationTimedOut)
			r.abandon(child)
			crashed = fmt.Sprintf("test did not finish within %s", r.timeout)
			break wait

		case expect.MessageTerminated:
			if err := ctx.Err(); err != nil {
				r.abandon(child)
				return false, err
			}
			r.setIsolation(test.Name, IsolationTerminated)
			if err := child.Wait(); err != nil {
				crashed = err.Error()
			}
			break wait
		}
	}

	if crashed != "" {
		r.logger.Info("effectful test crashed", "test", test.Name, "message", crashed)
		if err := r.bridge.RenderPanic(&out, test, crashed); err != nil {
			return false, err
		}
		failures++
	}

	passed := failures == 0
	if !passed {
		out.WriteByte('\n')
	}
	if out.Len() > 0 {
		if _, err := w.Write(out.Bytes()); err != nil {
			return false, fmt.Errorf("writing diagnostics: %w", err)
		}
	}
	return passed, r.notify(Invocation{
		Test:      test,
		Effectful: true,
		Passed:    passed,
		Failures:  failures,
		Output:    out.String(),
	})
}

func (r *Runner) setIsolation(test string, next IsolationState) {
	r.logger.Debug("isolation state", "test", test, "from", r.isolationState.String(), "to", next.String())
	r.isolationState = next
}

// abandon kills a child the runner has stopped listening to and reaps
// it.
func (r *Runner) abandon(child Child) {
	if err := child.Kill(); err != nil {
		r.logger.Warn("killing child failed", "error", err)
	}
	child.Wait()
}

func (r *Runner) notify(invocation Invocation) error {
	for _, observer := range r.observers {
		if err := observer.Observe(invocation); err != nil {
			return err
		}
	}
	return nil
}
