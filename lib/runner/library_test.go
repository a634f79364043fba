// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func newTextLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, nil))
}

func TestGuard(t *testing.T) {
	if err := Guard("TestOK", func() {})(); err != nil {
		t.Errorf("Guard(ok)() = %v, want nil", err)
	}

	err := Guard("TestBoom", func() { panic("boom") })()
	var abnormal *AbnormalTermination
	if !errors.As(err, &abnormal) {
		t.Fatalf("Guard(panic)() = %v, want *AbnormalTermination", err)
	}
	if abnormal.Test != "TestBoom" || abnormal.Message != "boom" {
		t.Errorf("AbnormalTermination = %+v", abnormal)
	}
	if !strings.Contains(err.Error(), "TestBoom terminated abnormally: boom") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestGuard_RuntimeError(t *testing.T) {
	err := Guard("TestNil", func() {
		var values map[string]int
		values["x"] = 1
	})()
	var abnormal *AbnormalTermination
	if !errors.As(err, &abnormal) {
		t.Fatalf("Guard() = %v, want *AbnormalTermination", err)
	}
	if !strings.Contains(abnormal.Message, "nil map") {
		t.Errorf("Message = %q, want the runtime error text", abnormal.Message)
	}
}
