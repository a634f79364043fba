// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package render formats expectation diagnostics for people.
//
// A [Renderer] is bound to one source file. It prints a titled block
// per event: a failed expectation with the values its captured
// variables held, a test that crashed, or a debug record. Each block
// quotes the relevant source lines with the failing region underlined.
// [TargetColor] output highlights the quoted source with chroma and
// styles titles with lipgloss; [TargetPlain] output contains no escape
// sequences and is what tests and log files receive.
//
// [Report] collects the blocks of a whole run and writes them as an
// HTML document.
package render
