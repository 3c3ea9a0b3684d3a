// Package diagfmt renders diagnostic lists for the command line.
package diagfmt

import "fmt"

// Format selects a renderer.
type Format uint8

const (
	// FormatPretty prints source excerpts with carets.
	FormatPretty Format = iota
	// FormatShort prints one line per diagnostic.
	FormatShort
	FormatJSON
)

// ParseFormat maps a --diag-format value.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "pretty":
		return FormatPretty, nil
	case "short":
		return FormatShort, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatPretty, fmt.Errorf("unsupported diagnostic format %q (must be pretty, short or json)", s)
	}
}

// Options configures Write.
type Options struct {
	Format    Format
	Color     bool
	Width     int // максимальная ширина строки, 0 - не ограничено
	ShowNotes bool
	// IncludePositions adds line and column to JSON locations.
	IncludePositions bool
}
