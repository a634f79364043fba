// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"fmt"
	"runtime/debug"

	"github.com/bureau-foundation/expectrun/lib/shm"
)

// Exported symbol names a test library provides.
const (
	// SetSharedBufferSymbol receives the buffer address and length:
	// func(unsafe.Pointer, int).
	SetSharedBufferSymbol = "SetSharedBuffer"

	// SetIsolatedSymbol, when present, switches the library's recorder
	// to the signal hand-off used in a child process: func(bool).
	SetIsolatedSymbol = "SetIsolated"
)

// TestFunc runs one test function. It returns *AbnormalTermination
// when the test crashed instead of returning.
type TestFunc func() error

// Library is a loaded test library.
type Library interface {
	// ShareBuffer passes the buffer's address and length to the
	// library's SetSharedBuffer export.
	ShareBuffer(buffer *shm.Buffer) error

	// Lookup returns the test exported under name.
	Lookup(name string) (TestFunc, error)

	Close() error
}

// AbnormalTermination reports a test that crashed.
type AbnormalTermination struct {
	Test    string
	Message string
}

func (e *AbnormalTermination) Error() string {
	return fmt.Sprintf("test %s terminated abnormally: %s", e.Test, e.Message)
}

// Guard adapts a raw test function to a TestFunc. A panic, including a
// memory fault inside the test, becomes an *AbnormalTermination.
func Guard(name string, fn func()) TestFunc {
	return func() (err error) {
		defer func() {
			if recovered := recover(); recovered != nil {
				err = &AbnormalTermination{Test: name, Message: fmt.Sprint(recovered)}
			}
		}()
		previous := debug.SetPanicOnFault(true)
		defer debug.SetPanicOnFault(previous)

		fn()
		return nil
	}
}
