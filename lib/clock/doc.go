// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// Code that waits on time (the child-signal deadline and the isolated
// test timeout) accepts a Clock instead of calling time.Now directly. Production code passes Real(); tests
// pass Fake() and move time with Advance, so a timeout test takes no
// wall-clock time and cannot flake.
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	waiter := expect.Waiter{Clock: c, Deadline: c.Now().Add(time.Second)}
//	go func() { result <- sequence.WaitForChild(ctx, waiter) }()
//	c.Advance(2 * time.Second) // the spin loop observes the deadline
package clock
