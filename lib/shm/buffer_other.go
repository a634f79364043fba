// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !(darwin || linux)

package shm

import (
	"fmt"
	"runtime"
)

// CreateOrAttach is not supported on this platform.
func CreateOrAttach(name string, size int) (*Buffer, error) {
	return nil, fmt.Errorf("%w: not supported on %s", ErrEnvironment, runtime.GOOS)
}

// Attach is not supported on this platform.
func Attach(name string, size int) (*Buffer, error) {
	return nil, fmt.Errorf("%w: not supported on %s", ErrEnvironment, runtime.GOOS)
}

func unmap(*Buffer) error { return nil }
