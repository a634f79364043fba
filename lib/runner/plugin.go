// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build (linux || darwin) && cgo

package runner

import (
	"fmt"
	"plugin"
	"unsafe"

	"github.com/bureau-foundation/expectrun/lib/shm"
)

// PluginLibrary is a test library built with -buildmode=plugin.
type PluginLibrary struct {
	path   string
	plugin *plugin.Plugin
}

// OpenPlugin loads the plugin at path.
func OpenPlugin(path string) (*PluginLibrary, error) {
	loaded, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loading test library %s: %w", path, err)
	}
	return &PluginLibrary{path: path, plugin: loaded}, nil
}

func (l *PluginLibrary) ShareBuffer(buffer *shm.Buffer) error {
	symbol, err := l.plugin.Lookup(SetSharedBufferSymbol)
	if err != nil {
		return fmt.Errorf("test library %s: %w", l.path, err)
	}
	setter, ok := symbol.(func(unsafe.Pointer, int))
	if !ok {
		return fmt.Errorf("test library %s: %s has type %T, want func(unsafe.Pointer, int)",
			l.path, SetSharedBufferSymbol, symbol)
	}
	setter(buffer.Pointer(), buffer.Len())
	return nil
}

// SetIsolated tells the library it runs inside a child process. It is
// an error for a library without the export.
func (l *PluginLibrary) SetIsolated(isolated bool) error {
	symbol, err := l.plugin.Lookup(SetIsolatedSymbol)
	if err != nil {
		return fmt.Errorf("test library %s: %w", l.path, err)
	}
	setter, ok := symbol.(func(bool))
	if !ok {
		return fmt.Errorf("test library %s: %s has type %T, want func(bool)", l.path, SetIsolatedSymbol, symbol)
	}
	setter(isolated)
	return nil
}

func (l *PluginLibrary) Lookup(name string) (TestFunc, error) {
	symbol, err := l.plugin.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("test library %s: %w", l.path, err)
	}
	fn, ok := symbol.(func())
	if !ok {
		return nil, fmt.Errorf("test library %s: %s has type %T, want func()", l.path, name, symbol)
	}
	return Guard(name, fn), nil
}

// Close is a no-op: Go plugins cannot be unloaded.
func (l *PluginLibrary) Close() error { return nil }
