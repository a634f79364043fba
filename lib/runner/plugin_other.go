// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !((linux || darwin) && cgo)

package runner

import (
	"errors"

	"github.com/bureau-foundation/expectrun/lib/shm"
)

var errPluginUnsupported = errors.New("test libraries require plugin support (linux or darwin with cgo)")

// PluginLibrary is unavailable on this platform.
type PluginLibrary struct{}

func OpenPlugin(path string) (*PluginLibrary, error) {
	return nil, errPluginUnsupported
}

func (l *PluginLibrary) ShareBuffer(buffer *shm.Buffer) error { return errPluginUnsupported }
func (l *PluginLibrary) SetIsolated(isolated bool) error { return errPluginUnsupported }
func (l *PluginLibrary) Lookup(name string) (TestFunc, error) { return nil, errPluginUnsupported }
func (l *PluginLibrary) Close() error { return nil }
