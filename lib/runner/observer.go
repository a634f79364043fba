// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/expectrun/lib/manifest"
	"github.com/bureau-foundation/expectrun/lib/render"
	"github.com/bureau-foundation/expectrun/lib/snapshot"
)

// Invocation is the outcome of one test, passed to every Observer.
type Invocation struct {
	Test      manifest.Descriptor
	Effectful bool
	Passed    bool

	// Failures is the number of records rendered. A crash counts as
	// one.
	Failures int

	// Cursor is where the frame walk of a pure test ended.
	Cursor int

	// Output is the diagnostic text printed for the test.
	Output string

	// Memory is a copy of the shared buffer, set for failed pure
	// tests only.
	Memory []byte
}

// Observer is notified after each test. An error aborts the run.
type Observer interface {
	Observe(invocation Invocation) error
}

// ReportObserver adds each invocation to an HTML run report.
type ReportObserver struct {
	Report *render.Report
}

func (o ReportObserver) Observe(invocation Invocation) error {
	outcome := render.OutcomePassed
	if !invocation.Passed {
		outcome = render.OutcomeFailed
	}
	o.Report.Add(invocation.Test.Name, outcome, invocation.Output)
	return nil
}

// SnapshotObserver writes a buffer snapshot for each failed pure test.
type SnapshotObserver struct {
	Directory   string
	Compression snapshot.CompressionTag
	WordSize    int
	Logger      *slog.Logger
}

func (o SnapshotObserver) Observe(invocation Invocation) error {
	if invocation.Passed || invocation.Memory == nil {
		return nil
	}
	path, err := snapshot.WriteFile(o.Directory, snapshot.Snapshot{
		Test:     invocation.Test.Name,
		WordSize: o.WordSize,
		Memory:   invocation.Memory,
	}, o.Compression)
	if err != nil {
		return fmt.Errorf("snapshot of %s: %w", invocation.Test.Name, err)
	}
	if o.Logger != nil {
		o.Logger.Info("wrote buffer snapshot", "test", invocation.Test.Name, "path", path)
	}
	return nil
}
