// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/expectrun/lib/expect"
	"github.com/bureau-foundation/expectrun/lib/values"
)

const sampleSource = `app "sample"

main =
    x = 1
    expect x == 2
    x
`

func region(startLine, startColumn, endLine, endColumn uint32) expect.Region {
	return expect.Region{
		Start: expect.Position{Line: startLine, Column: startColumn},
		End:   expect.Position{Line: endLine, Column: endColumn},
	}
}

func TestRenderFailure_Plain(t *testing.T) {
	renderer := New(TargetPlain, "sample.roc", sampleSource)
	var out bytes.Buffer
	captures := []Capture{{Name: "x", Value: values.Value{Type: "I64", Kind: values.KindInt, Data: int64(1)}}}

	if err := renderer.RenderFailure(&out, captures, nil, region(5, 5, 5, 18)); err != nil {
		t.Fatalf("RenderFailure: %v", err)
	}
	got := out.String()

	for _, want := range []string{
		"── EXPECT FAILED in sample.roc ",
		"This expectation failed:",
		"5│      expect x == 2\n",
		"        ^^^^^^^^^^^^^\n",
		"When it failed, these variables had these values:",
		"x : I64\nx = 1\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "\x1b[") {
		t.Errorf("plain output contains escape sequences:\n%q", got)
	}
	if !strings.HasSuffix(got, "x = 1\n") {
		t.Errorf("block should end with its last line and no blank line: %q", got[max(0, len(got)-12):])
	}
}

func TestRenderFailure_ColumnsCountCharacters(t *testing.T) {
	source := "main =\n    expect \"héllo wörld\" == greeting\n"
	renderer := New(TargetPlain, "greeting.roc", source)
	var out bytes.Buffer
	// "greeting" starts at character column 29 and ends before 37.
	if err := renderer.RenderFailure(&out, nil, nil, region(2, 29, 2, 37)); err != nil {
		t.Fatalf("RenderFailure: %v", err)
	}
	snippet, carets := "", ""
	for _, line := range strings.Split(out.String(), "\n") {
		if strings.HasPrefix(line, "2│") {
			snippet = line
		}
		if strings.Contains(line, "^") {
			carets = line
		}
	}
	if snippet == "" || carets == "" {
		t.Fatalf("snippet or carets missing:\n%s", out.String())
	}
	column := strings.Index(carets, "^")
	underlined := string([]rune(snippet)[column : column+8])
	if underlined != "greeting" {
		t.Errorf("carets underline %q, want %q:\n%s\n%s", underlined, "greeting", snippet, carets)
	}
	if got := strings.Count(carets, "^"); got != 8 {
		t.Errorf("caret count = %d, want 8", got)
	}
}

func TestRenderFailure_TitleWidth(t *testing.T) {
	renderer := New(TargetPlain, "sample.roc", sampleSource)
	var out bytes.Buffer
	if err := renderer.RenderFailure(&out, nil, nil, region(5, 5, 5, 18)); err != nil {
		t.Fatalf("RenderFailure: %v", err)
	}
	title, _, _ := strings.Cut(out.String(), "\n")
	if width := ansi.StringWidth(title); width != titleWidth {
		t.Errorf("title width = %d, want %d: %q", width, titleWidth, title)
	}
}

func TestRenderFailure_ExpectRegionSpansSnippet(t *testing.T) {
	renderer := New(TargetPlain, "sample.roc", sampleSource)
	var out bytes.Buffer
	enclosing := region(3, 1, 6, 6)
	if err := renderer.RenderFailure(&out, nil, &enclosing, region(5, 12, 5, 18)); err != nil {
		t.Fatalf("RenderFailure: %v", err)
	}
	got := out.String()
	for _, want := range []string{"3│  main =", "6│      x\n", "               ^^^^^^\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRenderPanic(t *testing.T) {
	renderer := New(TargetPlain, "sample.roc", sampleSource)
	var out bytes.Buffer
	if err := renderer.RenderPanic(&out, "integer overflow", region(3, 1, 3, 7)); err != nil {
		t.Fatalf("RenderPanic: %v", err)
	}
	got := out.String()
	for _, want := range []string{"── EXPECT PANICKED in sample.roc", "    integer overflow\n", "3│  main ="} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.HasSuffix(got, "\n\n") {
		t.Errorf("block should not end with a blank line: %q", got[max(0, len(got)-24):])
	}
}

func TestRenderDbg(t *testing.T) {
	renderer := New(TargetPlain, "sample.roc", sampleSource)
	var out bytes.Buffer
	value := values.Value{Type: "Str", Kind: values.KindStr, Data: "hi"}
	if err := renderer.RenderDbg(&out, "greeting", value, region(4, 5, 4, 10)); err != nil {
		t.Fatalf("RenderDbg: %v", err)
	}
	if got, want := out.String(), "[sample.roc:4] greeting = \"hi\"\n"; got != want {
		t.Errorf("RenderDbg() = %q, want %q", got, want)
	}
}

func TestColorTargetStripsToPlain(t *testing.T) {
	captures := []Capture{{Name: "x", Value: values.Value{Type: "I64", Kind: values.KindInt, Data: int64(1)}}}

	var plain, colored bytes.Buffer
	if err := New(TargetPlain, "sample.go", sampleSource).RenderFailure(&plain, captures, nil, region(5, 5, 5, 18)); err != nil {
		t.Fatalf("plain: %v", err)
	}
	if err := New(TargetColor, "sample.go", sampleSource).RenderFailure(&colored, captures, nil, region(5, 5, 5, 18)); err != nil {
		t.Fatalf("color: %v", err)
	}
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Fatal("color output has no escape sequences")
	}
	if ansi.Strip(colored.String()) != plain.String() {
		t.Errorf("visible text differs:\ncolor: %q\nplain: %q", ansi.Strip(colored.String()), plain.String())
	}
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name    string
		want    Target
		wantErr bool
	}{
		{"color", TargetColor, false},
		{"always", TargetColor, false},
		{"plain", TargetPlain, false},
		{"never", TargetPlain, false},
		{"auto", TargetPlain, false},
		{"sepia", TargetPlain, true},
	}
	for _, test := range tests {
		got, err := ParseTarget(test.name, nil)
		if (err != nil) != test.wantErr {
			t.Errorf("ParseTarget(%q) error = %v, wantErr %v", test.name, err, test.wantErr)
		}
		if got != test.want {
			t.Errorf("ParseTarget(%q) = %v, want %v", test.name, got, test.want)
		}
	}
}
