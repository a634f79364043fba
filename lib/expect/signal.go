// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package expect

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/bureau-foundation/expectrun/lib/clock"
)

// ChildMessage is the outcome of waiting on the signal cell.
type ChildMessage uint32

const (
	// MessageExpect: an expectation failure frame is ready at
	// StartOffset.
	MessageExpect ChildMessage = 1

	// MessageDbg: a debug record frame is ready at StartOffset.
	MessageDbg ChildMessage = 2

	// MessageTerminated: the isolated context exited or the wait was
	// cancelled before anything was signalled.
	MessageTerminated ChildMessage = 3

	// MessageTimedOut: the deadline passed with no signal.
	MessageTimedOut ChildMessage = 4
)

func (m ChildMessage) String() string {
	switch m {
	case MessageExpect:
		return "expect"
	case MessageDbg:
		return "dbg"
	case MessageTerminated:
		return "terminated"
	case MessageTimedOut:
		return "timed-out"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(m))
	}
}

// Waiter configures WaitForChild.
type Waiter struct {
	// Terminated reports whether the isolated context has exited.
	// Polled on every iteration; nil means the wait is only bounded
	// by the context and deadline.
	Terminated func() bool

	// Clock is consulted for Deadline. Nil means clock.Real().
	Clock clock.Clock

	// Deadline bounds the wait. The zero value waits without a
	// deadline.
	Deadline time.Time
}

// WaitForChild spins on the signal cell until the child announces a
// record, the child terminates, ctx is cancelled, or the deadline
// passes. A signal value outside the protocol panics: it means the
// child and host disagree about the layout. Waiting never writes the
// header.
func (s *Sequence) WaitForChild(ctx context.Context, waiter Waiter) ChildMessage {
	cell := s.signal()
	checkDeadline := !waiter.Deadline.IsZero()
	if checkDeadline && waiter.Clock == nil {
		waiter.Clock = clock.Real()
	}

	for {
		// The signal is checked before termination so a record
		// announced just before the child exited is not lost.
		switch value := cell.Load(); value {
		case 0:
		case uint32(MessageExpect):
			return MessageExpect
		case uint32(MessageDbg):
			return MessageDbg
		default:
			panic(fmt.Sprintf("expect: invalid signal value set by the child: %#x", value))
		}

		if waiter.Terminated != nil && waiter.Terminated() {
			return MessageTerminated
		}
		if ctx.Err() != nil {
			return MessageTerminated
		}
		if checkDeadline && !waiter.Clock.Now().Before(waiter.Deadline) {
			return MessageTimedOut
		}
		runtime.Gosched()
	}
}

// Acknowledge releases a child that is waiting after announcing a
// record. The cursor is rewound so the next record lands at
// StartOffset, then the signal cell is cleared. The clearing store is
// last so the child never observes a half-reset header.
func (s *Sequence) Acknowledge() {
	s.setCursor(0, StartOffset)
	s.signal().Store(0)
}
