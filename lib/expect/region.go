// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package expect

import "fmt"

// ModuleID identifies the compilation module an expectation belongs
// to. The host's side tables are keyed by it.
type ModuleID uint32

// Symbol identifies a top-level definition: the module that defines it
// and its identifier within that module.
type Symbol struct {
	Module ModuleID `json:"module"`
	Ident  uint32   `json:"ident"`
}

func (s Symbol) String() string {
	return fmt.Sprintf("%d.%d", s.Module, s.Ident)
}

// Position is a one-based line and column in a source file.
type Position struct {
	Line   uint32 `json:"line"`
	Column uint32 `json:"column"`
}

// Region is a span of source text. End is inclusive of its line and
// exclusive of its column.
type Region struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// IsZero reports whether the region is unset.
func (r Region) IsZero() bool {
	return r == Region{}
}

// Lines returns the number of source lines the region spans.
func (r Region) Lines() int {
	if r.End.Line < r.Start.Line {
		return 0
	}
	return int(r.End.Line-r.Start.Line) + 1
}

func (r Region) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", r.Start.Line, r.Start.Column, r.End.Line, r.End.Column)
}
