// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build darwin || linux

package runner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestExecSpawner_PassesArgumentsAndReportsFailure(t *testing.T) {
	spawner := &ExecSpawner{
		Command:    []string{"/bin/sh", "-c", `echo "$@" >&2; exit 3`, "child"},
		BufferName: "expectrun_buffer_42",
		BufferSize: 1024,
		Library:    "/tmp/lib.so",
		Output:     &lockedBuffer{},
	}

	child, err := spawner.Spawn(context.Background(), descriptor("TestWrite", testSingleRegion))
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	err = child.Wait()
	if err == nil {
		t.Fatal("Wait() = nil for a child exiting with status 3")
	}
	want := "--buffer expectrun_buffer_42 --size 1024 --library /tmp/lib.so --test TestWrite"
	if !strings.Contains(err.Error(), want) {
		t.Errorf("Wait() error %q does not carry the child's stderr %q", err, want)
	}
	if !child.Exited() {
		t.Error("Exited() = false after Wait")
	}
}

func TestExecSpawner_Kill(t *testing.T) {
	spawner := &ExecSpawner{Command: []string{"/bin/sh", "-c", "sleep 30", "child"}}
	child, err := spawner.Spawn(context.Background(), descriptor("TestHang", testSingleRegion))
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if child.Exited() {
		t.Fatal("child exited immediately")
	}
	if err := child.Kill(); err != nil {
		t.Fatalf("Kill: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- child.Wait() }()
	select {
	case err := <-done:
		if err == nil {
			t.Error("Wait() = nil for a killed child")
		}
	case <-time.After(5 * time.Second): //nolint:realclock test hang prevention
		t.Fatal("killed child did not exit")
	}
}

func TestExecSpawner_NoCommand(t *testing.T) {
	_, err := (&ExecSpawner{}).Spawn(context.Background(), descriptor("TestX", testSingleRegion))
	if !errors.Is(err, ErrEffectfulUnsupported) {
		t.Fatalf("Spawn() error = %v, want ErrEffectfulUnsupported", err)
	}
}
