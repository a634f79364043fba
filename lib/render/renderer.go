// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/bureau-foundation/expectrun/lib/expect"
	"github.com/bureau-foundation/expectrun/lib/values"
)

// titleWidth is the column the title rule extends to.
const titleWidth = 80

// Capture is one variable captured by a failed expectation.
type Capture struct {
	Name  string
	Value values.Value
}

// Renderer formats diagnostics for one source file.
type Renderer struct {
	target Target
	path   string
	lines  []string
	lexer  string

	title   lipgloss.Style
	caret   lipgloss.Style
	gutter  lipgloss.Style
	message lipgloss.Style
}

// New returns a renderer for the file at path whose text is source.
func New(target Target, path, source string) *Renderer {
	renderer := &Renderer{
		target: target,
		path:   path,
		lines:  strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n"),
	}
	if lexer := lexers.Match(path); lexer != nil {
		renderer.lexer = lexer.Config().Name
	}

	// The profile is forced rather than detected: the caller already
	// decided whether the destination wants color.
	lipRenderer := lipgloss.NewRenderer(os.Stderr, termenv.WithProfile(termenv.ANSI256))
	lipRenderer.SetColorProfile(termenv.ANSI256)
	renderer.title = lipRenderer.NewStyle().Foreground(lipgloss.Color("45")).Bold(true)
	renderer.caret = lipRenderer.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	renderer.gutter = lipRenderer.NewStyle().Foreground(lipgloss.Color("244"))
	renderer.message = lipRenderer.NewStyle().Foreground(lipgloss.Color("220"))
	return renderer
}

// RenderFailure prints one failed expectation. When expectRegion is
// non-nil the quoted snippet spans it, with failureRegion underlined
// inside; otherwise the snippet is failureRegion alone. The block ends
// with its last line; separating a test's blocks from the next test is
// the caller's job.
func (r *Renderer) RenderFailure(w io.Writer, captures []Capture, expectRegion *expect.Region, failureRegion expect.Region) error {
	var out bytes.Buffer
	r.writeTitle(&out, "EXPECT FAILED")
	out.WriteString("This expectation failed:\n\n")

	shown := failureRegion
	if expectRegion != nil && !expectRegion.IsZero() {
		shown = *expectRegion
	}
	r.writeSnippet(&out, shown, failureRegion)

	if len(captures) > 0 {
		out.WriteString("\nWhen it failed, these variables had these values:\n")
		for _, capture := range captures {
			out.WriteByte('\n')
			fmt.Fprintf(&out, "%s : %s\n", capture.Name, capture.Value.Type)
			fmt.Fprintf(&out, "%s = %s\n", capture.Name, r.style(r.message, capture.Value.String()))
		}
	}

	_, err := w.Write(out.Bytes())
	return err
}

// RenderPanic prints a test that terminated abnormally. region is the
// test's own declared region.
func (r *Renderer) RenderPanic(w io.Writer, message string, region expect.Region) error {
	var out bytes.Buffer
	r.writeTitle(&out, "EXPECT PANICKED")
	out.WriteString("This expectation crashed while running:\n\n")
	r.writeSnippet(&out, region, region)
	out.WriteString("\nThe crash reported this message:\n\n")
	for _, line := range strings.Split(strings.TrimRight(message, "\n"), "\n") {
		out.WriteString("    ")
		out.WriteString(r.style(r.message, line))
		out.WriteByte('\n')
	}

	_, err := w.Write(out.Bytes())
	return err
}

// RenderDbg prints one debug record.
func (r *Renderer) RenderDbg(w io.Writer, name string, value values.Value, region expect.Region) error {
	location := fmt.Sprintf("[%s:%d]", r.path, region.Start.Line)
	_, err := fmt.Fprintf(w, "%s %s = %s\n",
		r.style(r.gutter, location), name, r.style(r.message, value.String()))
	return err
}

func (r *Renderer) writeTitle(out *bytes.Buffer, heading string) {
	text := fmt.Sprintf("── %s in %s ", heading, r.path)
	if pad := titleWidth - ansi.StringWidth(text); pad > 0 {
		text += strings.Repeat("─", pad)
	}
	out.WriteString(r.style(r.title, text))
	out.WriteString("\n\n")
}

// writeSnippet quotes the lines of shown, underlining the columns that
// fall within underline. Lines and columns are 1-based; the end column
// is exclusive.
func (r *Renderer) writeSnippet(out *bytes.Buffer, shown, underline expect.Region) {
	first, last := int(shown.Start.Line), int(shown.End.Line)
	if first < 1 {
		first = 1
	}
	if last < first {
		last = first
	}
	if last > len(r.lines) {
		last = len(r.lines)
	}
	gutterWidth := len(fmt.Sprint(last))

	for line := first; line <= last; line++ {
		text := r.lines[line-1]
		number := fmt.Sprintf("%*d│", gutterWidth, line)
		fmt.Fprintf(out, "%s  %s\n", r.style(r.gutter, number), r.highlight(text))

		runes := []rune(text)
		from, to, ok := columnsOnLine(underline, line, len(runes))
		if !ok {
			continue
		}
		indent := strings.Repeat(" ", gutterWidth+3+ansi.StringWidth(string(runes[:from])))
		carets := strings.Repeat("^", max(1, ansi.StringWidth(string(runes[from:to]))))
		fmt.Fprintf(out, "%s%s\n", indent, r.style(r.caret, carets))
	}
}

// columnsOnLine returns the rune range covered by region on a line of
// length runes. Columns count characters, not bytes.
func columnsOnLine(region expect.Region, line int, length int) (from, to int, ok bool) {
	if line < int(region.Start.Line) || line > int(region.End.Line) {
		return 0, 0, false
	}
	from = 0
	if line == int(region.Start.Line) && region.Start.Column > 0 {
		from = int(region.Start.Column) - 1
	}
	to = length
	if line == int(region.End.Line) && region.End.Column > 0 {
		to = int(region.End.Column) - 1
	}
	from = min(from, length)
	to = min(max(to, from), length)
	return from, to, true
}

func (r *Renderer) highlight(text string) string {
	if r.target != TargetColor || r.lexer == "" || text == "" {
		return text
	}
	var buffer strings.Builder
	if err := quick.Highlight(&buffer, text, r.lexer, "terminal256", "monokai"); err != nil {
		return text
	}
	// Lexers that ensure a trailing newline put it before the final
	// reset sequence, so trimming the suffix is not enough.
	return strings.ReplaceAll(buffer.String(), "\n", "")
}

func (r *Renderer) style(style lipgloss.Style, text string) string {
	if r.target != TargetColor {
		return text
	}
	return style.Render(text)
}
