package diagfmt

import (
	"fmt"
	"io"

	"keel/internal/diag"
	"keel/internal/source"
)

// Write renders diags in opts.Format.
func Write(w io.Writer, diags []diag.Diagnostic, fs *source.FileSet, opts Options) error {
	switch opts.Format {
	case FormatJSON:
		return JSON(w, diags, fs, opts)
	case FormatShort:
		if s := diag.FormatShortDiagnostics(diags, fs, opts.ShowNotes); s != "" {
			_, err := fmt.Fprintln(w, s)
			return err
		}
		return nil
	default:
		diag.Pretty(w, diags, fs, diag.PrettyOpts{
			Color:     opts.Color,
			ShowNotes: opts.ShowNotes,
			ShowFixes: true,
			Width:     opts.Width,
		})
		return nil
	}
}
