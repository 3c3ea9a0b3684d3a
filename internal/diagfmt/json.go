package diagfmt

import (
	"encoding/json"
	"io"

	"keel/internal/diag"
	"keel/internal/source"
)

// LocationJSON представляет местоположение в файле для JSON
type LocationJSON struct {
	File      string `json:"file,omitempty"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty"`
}

// NoteJSON представляет дополнительную заметку для JSON
type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

// FixEditJSON представляет одно редактирование для JSON
type FixEditJSON struct {
	Location LocationJSON `json:"location"`
	NewText  string       `json:"new_text"`
}

// FixJSON is a suggested edit.
type FixJSON struct {
	Title string        `json:"title"`
	Edits []FixEditJSON `json:"edits,omitempty"`
}

// DiagnosticJSON представляет диагностику в JSON формате
type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty"`
	Fixes    []FixJSON    `json:"fixes,omitempty"`
}

// DiagnosticsOutput представляет корневую структуру JSON вывода
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
}

func makeLocation(span source.Span, fs *source.FileSet, includePositions bool) LocationJSON {
	loc := LocationJSON{StartByte: span.Start, EndByte: span.End}
	if fs == nil {
		return loc
	}
	f := fs.Get(span.File)
	if f == nil {
		return loc
	}
	loc.File = f.Path
	if includePositions {
		startPos, endPos := fs.Resolve(span)
		loc.StartLine = startPos.Line
		loc.StartCol = startPos.Col
		loc.EndLine = endPos.Line
		loc.EndCol = endPos.Col
	}
	return loc
}

// BuildDiagnosticsOutput формирует структуру JSON-вывода без сериализации.
func BuildDiagnosticsOutput(diags []diag.Diagnostic, fs *source.FileSet, opts Options) DiagnosticsOutput {
	out := DiagnosticsOutput{Diagnostics: make([]DiagnosticJSON, 0, len(diags))}
	for i := range diags {
		d := &diags[i]
		dj := DiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Message:  d.Message,
			Location: makeLocation(d.Primary, fs, opts.IncludePositions),
		}
		if opts.ShowNotes {
			for _, n := range d.Notes {
				dj.Notes = append(dj.Notes, NoteJSON{Message: n.Msg, Location: makeLocation(n.Span, fs, opts.IncludePositions)})
			}
		}
		for _, f := range d.Fixes {
			fj := FixJSON{Title: f.Title}
			for _, e := range f.Edits {
				fj.Edits = append(fj.Edits, FixEditJSON{
					Location: makeLocation(e.Span, fs, opts.IncludePositions),
					NewText:  e.NewText,
				})
			}
			dj.Fixes = append(dj.Fixes, fj)
		}
		out.Diagnostics = append(out.Diagnostics, dj)
	}
	out.Count = len(out.Diagnostics)
	return out
}

// JSON форматирует диагностики в JSON формат.
func JSON(w io.Writer, diags []diag.Diagnostic, fs *source.FileSet, opts Options) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildDiagnosticsOutput(diags, fs, opts))
}
