package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"keel/internal/diag"
	"keel/internal/source"
)

func sample() ([]diag.Diagnostic, *source.FileSet) {
	fs := source.NewFileSet()
	file := fs.Add("types.toml", []byte("[[type]]\nname = \"A\"\n"), 0)
	return []diag.Diagnostic{{
		Severity: diag.SevError,
		Code:     diag.SemaIllegalTypeCycle,
		Message:  "illegal type declaration cycle of `A`",
		Primary:  source.Span{File: file, Start: 16, End: 19},
		Notes:    []diag.Note{{Span: source.Span{File: file, Start: 16, End: 19}, Msg: "A contains itself"}},
		Fixes:    []diag.Fix{{Title: "store it behind a pointer", Edits: []diag.FixEdit{{Span: source.Span{File: file, Start: 16, End: 16}, NewText: "^"}}}},
	}}, fs
}

func TestJSON(t *testing.T) {
	diags, fs := sample()
	var buf bytes.Buffer
	if err := Write(&buf, diags, fs, Options{Format: FormatJSON, ShowNotes: true, IncludePositions: true}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 1 {
		t.Fatalf("count = %d", out.Count)
	}
	d := out.Diagnostics[0]
	if d.Severity != "ERROR" || d.Code != "SEM3001" {
		t.Fatalf("diagnostic = %+v", d)
	}
	if d.Location.File != "types.toml" || d.Location.StartLine != 2 || d.Location.StartCol != 8 {
		t.Fatalf("location = %+v", d.Location)
	}
	if len(d.Notes) != 1 || len(d.Fixes) != 1 || d.Fixes[0].Edits[0].NewText != "^" {
		t.Fatalf("notes/fixes = %+v %+v", d.Notes, d.Fixes)
	}
}

func TestShort(t *testing.T) {
	diags, fs := sample()
	var buf bytes.Buffer
	if err := Write(&buf, diags, fs, Options{Format: FormatShort}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := "error SEM3001 types.toml:2:8 illegal type declaration cycle of `A`\n"
	if buf.String() != want {
		t.Fatalf("short = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	if err := Write(&buf, nil, fs, Options{Format: FormatShort}); err != nil || buf.Len() != 0 {
		t.Fatalf("empty list must print nothing, got %q %v", buf.String(), err)
	}
}

func TestPretty(t *testing.T) {
	diags, fs := sample()
	var buf bytes.Buffer
	if err := Write(&buf, diags, fs, Options{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), "SEM3001") {
		t.Fatalf("pretty output lacks the code:\n%s", buf.String())
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatPretty, "pretty": FormatPretty, "short": FormatShort, "json": FormatJSON} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("sarif"); err == nil {
		t.Fatalf("sarif is not supported")
	}
}
