// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package runner

import "fmt"

// State is where a pure test invocation is in its lifecycle:
// Idle → Invoking → (Success | Failed) → Idle.
type State int

const (
	StateIdle State = iota
	StateInvoking
	StateSuccess
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInvoking:
		return "invoking"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// IsolationState is where an effectful test invocation is in its
// lifecycle. Spawned and SignalReceived alternate once per record the
// child hands off; TimedOut and Terminated are final.
type IsolationState int

const (
	IsolationIdle IsolationState = iota
	IsolationSpawned
	IsolationSignalReceived
	IsolationTimedOut
	IsolationTerminated
)

func (s IsolationState) String() string {
	switch s {
	case IsolationIdle:
		return "idle"
	case IsolationSpawned:
		return "spawned"
	case IsolationSignalReceived:
		return "signal-received"
	case IsolationTimedOut:
		return "timed-out"
	case IsolationTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("IsolationState(%d)", int(s))
	}
}
