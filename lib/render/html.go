// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Outcome is the result of one test as recorded in a [Report].
type Outcome string

const (
	OutcomePassed Outcome = "passed"
	OutcomeFailed Outcome = "failed"
)

// reportEntry is one test's row in the report.
type reportEntry struct {
	test    string
	outcome Outcome
	output  string
}

// Report accumulates the outcome of every test in a run.
type Report struct {
	title   string
	entries []reportEntry
}

// NewReport returns an empty report with the given document title.
func NewReport(title string) *Report {
	return &Report{title: title}
}

// Add records one test. output is the diagnostic text printed for the
// test; escape sequences are stripped.
func (r *Report) Add(test string, outcome Outcome, output string) {
	r.entries = append(r.entries, reportEntry{
		test:    test,
		outcome: outcome,
		output:  ansi.Strip(output),
	})
}

// Markdown returns the report body as GitHub-flavored markdown.
func (r *Report) Markdown() string {
	var failed, passed int
	for _, entry := range r.entries {
		if entry.outcome == OutcomeFailed {
			failed++
		} else {
			passed++
		}
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "# %s\n\n", r.title)
	builder.WriteString("| Outcome | Tests |\n|---|---:|\n")
	fmt.Fprintf(&builder, "| failed | %d |\n| passed | %d |\n\n", failed, passed)

	builder.WriteString("| Test | Outcome |\n|---|---|\n")
	for _, entry := range r.entries {
		fmt.Fprintf(&builder, "| `%s` | %s |\n", strings.ReplaceAll(entry.test, "|", `\|`), entry.outcome)
	}

	for _, entry := range r.entries {
		if entry.outcome != OutcomeFailed || entry.output == "" {
			continue
		}
		fmt.Fprintf(&builder, "\n## %s\n\n", entry.test)
		fence := "```"
		for strings.Contains(entry.output, fence) {
			fence += "`"
		}
		fmt.Fprintf(&builder, "%s\n%s\n%s\n", fence, strings.TrimRight(entry.output, "\n"), fence)
	}
	return builder.String()
}

// WriteHTML renders the report as a standalone HTML document.
func (r *Report) WriteHTML(w io.Writer) error {
	var body bytes.Buffer
	markdown := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := markdown.Convert([]byte(r.Markdown()), &body); err != nil {
		return fmt.Errorf("converting report markdown: %w", err)
	}

	_, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n%s</body>\n</html>\n",
		html.EscapeString(r.title), body.String())
	return err
}
