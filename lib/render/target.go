// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// Target selects how diagnostics are styled.
type Target int

const (
	// TargetPlain emits text with no escape sequences.
	TargetPlain Target = iota
	// TargetColor emits ANSI 256-color styling.
	TargetColor
)

func (t Target) String() string {
	switch t {
	case TargetPlain:
		return "plain"
	case TargetColor:
		return "color"
	default:
		return fmt.Sprintf("Target(%d)", int(t))
	}
}

// ParseTarget resolves a configured target name. "auto" picks color
// when output is a terminal.
func ParseTarget(name string, output *os.File) (Target, error) {
	switch name {
	case "color", "always":
		return TargetColor, nil
	case "plain", "never":
		return TargetPlain, nil
	case "", "auto":
		if output != nil && term.IsTerminal(int(output.Fd())) {
			return TargetColor, nil
		}
		return TargetPlain, nil
	default:
		return TargetPlain, fmt.Errorf("unknown render target %q (expected auto, color, or plain)", name)
	}
}
