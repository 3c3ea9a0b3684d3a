package diag

import (
	"bytes"
	"strings"
	"testing"

	"keel/internal/source"
)

func TestFormatShortDiagnostics(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.Add("testdata/cycle.toml", []byte("[A]\nkind = \"struct\"\n"), 0)

	diags := []Diagnostic{
		{
			Severity: SevWarning,
			Code:     ProjBadAttribute,
			Message:  "unknown attribute",
			Primary:  source.Span{File: file, Start: 4, End: 8},
		},
		{
			Severity: SevError,
			Code:     SemaIllegalTypeCycle,
			Message:  "illegal type declaration cycle of `A`\nsecond",
			Primary:  source.Span{File: file, Start: 0, End: 3},
			Notes: []Note{
				{Span: source.Span{File: file, Start: 1, End: 2}, Msg: "\tA refers to"},
			},
		},
	}

	expected := "error SEM3001 testdata/cycle.toml:1:1 illegal type declaration cycle of `A` second\n" +
		"note SEM3001 testdata/cycle.toml:1:2 A refers to\n" +
		"warning PRJ5004 testdata/cycle.toml:2:1 unknown attribute"

	if got := FormatShortDiagnostics(diags, fs, true); got != expected {
		t.Fatalf("unexpected short diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
}

func TestFormatShortDiagnosticsUnknownFile(t *testing.T) {
	diags := []Diagnostic{NewError(SemaUnresolvedType, source.Span{File: 42}, "unresolved `T`")}
	if got, want := FormatShortDiagnostics(diags, source.NewFileSet(), false), "error SEM3002 unresolved `T`"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if got := FormatShortDiagnostics(nil, nil, true); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestPrettyExcerpt(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.Add("a.toml", []byte("[Node]\nfields = [\"next: Node\"]\n"), 0)
	d := NewError(SemaIllegalTypeCycle, source.Span{File: file, Start: 18, End: 22}, "illegal type declaration cycle of `Node`").
		WithNote(source.Span{File: file, Start: 18, End: 22}, "\tNode refers to")

	var buf bytes.Buffer
	Pretty(&buf, []Diagnostic{d}, fs, PrettyOpts{ShowNotes: true})
	out := buf.String()

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), out)
	}
	if want := "a.toml:2:12: ERROR SEM3001: illegal type declaration cycle of `Node`"; lines[0] != want {
		t.Fatalf("header: got %q, want %q", lines[0], want)
	}
	if want := "   2 | fields = [\"next: Node\"]"; lines[1] != want {
		t.Fatalf("excerpt: got %q, want %q", lines[1], want)
	}
	if want := strings.Repeat(" ", 7+11) + "^~~~"; lines[2] != want {
		t.Fatalf("caret: got %q, want %q", lines[2], want)
	}
	if want := "  note \tNode refers to"; lines[3] != want {
		t.Fatalf("note: got %q, want %q", lines[3], want)
	}
}
