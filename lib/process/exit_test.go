// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

type codedError struct{ code int }

func (e *codedError) Error() string { return fmt.Sprintf("exit code %d", e.code) }
func (e *codedError) ExitCode() int { return e.code }

func TestReport(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantOutput string
	}{
		{name: "nil", err: nil, wantCode: 0},
		{name: "plain", err: errors.New("manifest missing"), wantCode: 1, wantOutput: "error: manifest missing\n"},
		{name: "coded", err: &codedError{code: 2}, wantCode: 2},
		{name: "wrapped coded", err: fmt.Errorf("running: %w", &codedError{code: 1}), wantCode: 1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var output bytes.Buffer
			if code := report(&output, test.err); code != test.wantCode {
				t.Errorf("report(%v) = %d, want %d", test.err, code, test.wantCode)
			}
			if output.String() != test.wantOutput {
				t.Errorf("report(%v) wrote %q, want %q", test.err, output.String(), test.wantOutput)
			}
		})
	}
}
