package diag

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"keel/internal/source"
)

type shortDiagnostic struct {
	Severity string
	Code     string
	Path     string
	Line     uint32
	Column   uint32
	Message  string
}

// FormatShortDiagnostics renders diagnostics into a stable, single-line-per-entry
// representation. Entries are sorted by path, position, severity and code, and
// returned as one string (empty when nothing remains).
func FormatShortDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if len(diags) == 0 {
		return ""
	}

	rendered := make([]shortDiagnostic, 0, len(diags))
	for i := range diags {
		rendered = appendDiagnostic(rendered, &diags[i], fs, includeNotes)
	}

	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i], rendered[j]
		if di.Path != dj.Path {
			return di.Path < dj.Path
		}
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		if di.Column != dj.Column {
			return di.Column < dj.Column
		}
		if di.Severity != dj.Severity {
			return di.Severity < dj.Severity
		}
		return di.Code < dj.Code
	})

	var b strings.Builder
	for i, d := range rendered {
		if d.Path == "" {
			fmt.Fprintf(&b, "%s %s %s", d.Severity, d.Code, d.Message)
		} else {
			fmt.Fprintf(&b, "%s %s %s:%d:%d %s", d.Severity, d.Code, d.Path, d.Line, d.Column, d.Message)
		}
		if i < len(rendered)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func appendDiagnostic(out []shortDiagnostic, d *Diagnostic, fs *source.FileSet, includeNotes bool) []shortDiagnostic {
	loc := resolveSpan(fs, d.Primary)
	out = append(out, shortDiagnostic{
		Severity: d.Severity.Label(),
		Code:     d.Code.ID(),
		Path:     loc.Path,
		Line:     loc.Line,
		Column:   loc.Column,
		Message:  sanitizeMessage(d.Message),
	})

	if includeNotes {
		for _, note := range d.Notes {
			nloc := resolveSpan(fs, note.Span)
			out = append(out, shortDiagnostic{
				Severity: "note",
				Code:     d.Code.ID(),
				Path:     nloc.Path,
				Line:     nloc.Line,
				Column:   nloc.Column,
				Message:  sanitizeMessage(note.Msg),
			})
		}
	}

	return out
}

type resolvedSpan struct {
	Path   string
	Line   uint32
	Column uint32
}

// resolveSpan maps a span to path:line:col. Synthetic spans (unknown file)
// resolve to the zero location.
func resolveSpan(fs *source.FileSet, span source.Span) resolvedSpan {
	if fs == nil {
		return resolvedSpan{}
	}
	file := fs.Get(span.File)
	if file == nil {
		return resolvedSpan{}
	}
	start, _ := fs.Resolve(span)
	return resolvedSpan{
		Path:   normalizePath(file.Path),
		Line:   start.Line,
		Column: start.Col,
	}
}

func normalizePath(path string) string {
	p := filepath.ToSlash(path)
	for strings.HasPrefix(p, "./") {
		p = strings.TrimPrefix(p, "./")
	}
	return p
}


func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
