// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// exitCoder is implemented by errors that carry their own process exit
// status and have already reported themselves.
type exitCoder interface {
	ExitCode() int
}

// Fatal writes "error: err" to stderr and exits with code 1. Use it in
// main() for errors from run() where the structured logger may not be
// initialized.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

// Exit terminates the process with the status for err: 0 for nil, the
// error's own code when it implements ExitCode, otherwise 1 after
// printing the error like Fatal.
func Exit(err error) {
	os.Exit(report(os.Stderr, err))
}

// report writes err to w unless it carries its own exit code, and
// returns the status the process should exit with.
func report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	var coded exitCoder
	if errors.As(err, &coded) {
		return coded.ExitCode()
	}
	fmt.Fprintf(w, "error: %v\n", err)
	return 1
}
