// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/expectrun/lib/expect"
	"github.com/bureau-foundation/expectrun/lib/values"
)

// Descriptor identifies one top-level test function in the library.
type Descriptor struct {
	// Name is the exported symbol the runner calls.
	Name string `json:"name"`

	// Symbol is the test's identity in the source program. Its module
	// selects the side tables used to render the test's failures.
	Symbol expect.Symbol `json:"symbol"`

	// Region is where the test is declared.
	Region expect.Region `json:"region"`
}

// Lookup is one variable an expectation captures.
type Lookup struct {
	Symbol string `json:"symbol"`
	Type   string `json:"type"`

	// Function lookups are never written by compiled code; the runner
	// drops them before decoding.
	Function bool `json:"function,omitempty"`
}

// Expectation is the capture list for one expectation region.
type Expectation struct {
	Region  expect.Region `json:"region"`
	Lookups []Lookup      `json:"lookups"`
}

// Dbg describes one debug statement.
type Dbg struct {
	Identity uint32        `json:"identity"`
	Region   expect.Region `json:"region"`
	Symbol   string        `json:"symbol"`
	Type     string        `json:"type"`
}

// Module holds the side tables for one source module.
type Module struct {
	ID   expect.ModuleID
	Path string

	// Fingerprint is the source hash at compile time. Zero when the
	// compiler did not record one.
	Fingerprint Fingerprint

	// Types is mutated by value decoding as type variables bind.
	Types *values.TypeTable

	Expectations map[expect.Region][]Lookup
	Dbgs         map[uint32]Dbg
}

// Manifest is a parsed and validated build manifest.
type Manifest struct {
	Library   string
	Pure      []Descriptor
	Effectful []Descriptor
	Modules   map[expect.ModuleID]*Module
}

// Tests returns every test, effectful first, in run order.
func (m *Manifest) Tests() []Descriptor {
	tests := make([]Descriptor, 0, len(m.Effectful)+len(m.Pure))
	tests = append(tests, m.Effectful...)
	return append(tests, m.Pure...)
}

// ModuleIDs returns the module ids in ascending order.
func (m *Manifest) ModuleIDs() []expect.ModuleID {
	ids := make([]expect.ModuleID, 0, len(m.Modules))
	for id := range m.Modules {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// file is the on-disk shape.
type file struct {
	Library string `json:"library"`
	Tests   struct {
		Pure      []Descriptor `json:"pure"`
		Effectful []Descriptor `json:"effectful"`
	} `json:"tests"`
	Modules map[expect.ModuleID]moduleFile `json:"modules"`
}

type moduleFile struct {
	Path         string            `json:"path"`
	Fingerprint  string            `json:"fingerprint"`
	Types        map[string]string `json:"types"`
	Expectations []Expectation     `json:"expectations"`
	Dbgs         []Dbg             `json:"dbgs"`
}

// Parse strips JSONC comments and trailing commas from data, then
// decodes and validates the manifest.
func Parse(data []byte) (*Manifest, error) {
	var raw file
	if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	manifest := &Manifest{
		Library:   raw.Library,
		Pure:      raw.Tests.Pure,
		Effectful: raw.Tests.Effectful,
		Modules:   make(map[expect.ModuleID]*Module, len(raw.Modules)),
	}

	var errs []error
	for id, entry := range raw.Modules {
		module, err := buildModule(id, entry)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		manifest.Modules[id] = module
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := manifest.Validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

// ReadFile reads and parses a manifest, resolving the library path and
// module source paths relative to the manifest's directory.
func ReadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	manifest, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	directory := filepath.Dir(path)
	manifest.Library = resolve(directory, manifest.Library)
	for _, module := range manifest.Modules {
		module.Path = resolve(directory, module.Path)
	}
	return manifest, nil
}

func resolve(directory, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(directory, path)
}

func buildModule(id expect.ModuleID, entry moduleFile) (*Module, error) {
	module := &Module{
		ID:           id,
		Path:         entry.Path,
		Types:        values.NewTypeTable(entry.Types),
		Expectations: make(map[expect.Region][]Lookup, len(entry.Expectations)),
		Dbgs:         make(map[uint32]Dbg, len(entry.Dbgs)),
	}

	var errs []error
	if entry.Fingerprint != "" {
		fingerprint, err := ParseFingerprint(entry.Fingerprint)
		if err != nil {
			errs = append(errs, fmt.Errorf("module %d: %w", id, err))
		}
		module.Fingerprint = fingerprint
	}
	for _, expectation := range entry.Expectations {
		if _, exists := module.Expectations[expectation.Region]; exists {
			errs = append(errs, fmt.Errorf("module %d: duplicate expectation region %s", id, expectation.Region))
			continue
		}
		module.Expectations[expectation.Region] = expectation.Lookups
	}
	for _, dbg := range entry.Dbgs {
		if dbg.Identity == 0 {
			errs = append(errs, fmt.Errorf("module %d: debug record at %s has reserved identity 0", id, dbg.Region))
			continue
		}
		if _, exists := module.Dbgs[dbg.Identity]; exists {
			errs = append(errs, fmt.Errorf("module %d: duplicate debug identity %d", id, dbg.Identity))
			continue
		}
		module.Dbgs[dbg.Identity] = dbg
	}
	return module, errors.Join(errs...)
}

// Validate checks the manifest for structural errors and returns all
// of them joined.
func (m *Manifest) Validate() error {
	var errs []error
	if m.Library == "" {
		errs = append(errs, errors.New("library is required"))
	}

	names := make(map[string]bool)
	check := func(kind string, descriptors []Descriptor) {
		for index, descriptor := range descriptors {
			if descriptor.Name == "" {
				errs = append(errs, fmt.Errorf("%s test %d: name is required", kind, index))
				continue
			}
			if names[descriptor.Name] {
				errs = append(errs, fmt.Errorf("test %q is listed more than once", descriptor.Name))
			}
			names[descriptor.Name] = true
			if _, ok := m.Modules[descriptor.Symbol.Module]; !ok {
				errs = append(errs, fmt.Errorf("test %q: module %d has no side tables", descriptor.Name, descriptor.Symbol.Module))
			}
		}
	}
	check("pure", m.Pure)
	check("effectful", m.Effectful)

	for _, id := range m.ModuleIDs() {
		if m.Modules[id].Path == "" {
			errs = append(errs, fmt.Errorf("module %d: path is required", id))
		}
	}
	return errors.Join(errs...)
}
