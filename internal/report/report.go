// Package report renders layout snapshots for the terminal and for tools.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"keel/internal/layout"
)

// Format selects the output of Write.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat accepts table or json, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format %q (must be table or json)", s)
	}
}

// Options configures table output.
type Options struct {
	Color bool
	// Width caps the line width; 0 means unlimited. Only the type column
	// is shortened.
	Width int
	// Fields lists member offsets under each record.
	Fields bool
}

// Write renders snap in the given format.
func Write(w io.Writer, snap *layout.Snapshot, format Format, opts Options) error {
	if snap == nil {
		return fmt.Errorf("report: nil snapshot")
	}
	if format == FormatJSON {
		return JSON(w, snap)
	}
	return Table(w, snap, opts)
}

type rowKind uint8

const (
	rowType rowKind = iota
	rowField
	rowFailed
)

type row struct {
	kind  rowKind
	cells [4]string // name, size, align, type
}

var header = [4]string{"NAME", "SIZE", "ALIGN", "TYPE"}

type styles struct {
	header, name, field, failed, dim lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{plain, plain, plain, plain, plain}
	}
	return styles{
		header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7")),
		name:   lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		field:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		failed: lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		dim:    lipgloss.NewStyle().Faint(true),
	}
}

// Table writes one row per declared type with its size and alignment.
func Table(w io.Writer, snap *layout.Snapshot, opts Options) error {
	rows := buildRows(snap, opts.Fields)

	var widths [4]int
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, r := range rows {
		for i := 0; i < 3; i++ {
			widths[i] = max(widths[i], runewidth.StringWidth(r.cells[i]))
		}
	}
	typeWidth := 0 // unlimited
	if opts.Width > 0 {
		typeWidth = max(opts.Width-widths[0]-widths[1]-widths[2]-6, 8)
	}

	st := newStyles(opts.Color)
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", st.dim.Render(fmt.Sprintf("target %s, %d types, written by %s", snap.Target, len(snap.Entries), valueOr(snap.Tool, "unknown"))))
	b.WriteString(st.header.Render(line(header, widths, typeWidth)))
	b.WriteByte('\n')
	for _, r := range rows {
		text := line(r.cells, widths, typeWidth)
		switch r.kind {
		case rowFailed:
			text = st.failed.Render(text)
		case rowField:
			text = st.field.Render(text)
		default:
			name := runewidth.FillRight(r.cells[0], widths[0])
			text = st.name.Render(name) + text[len(name):]
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func line(cells [4]string, widths [4]int, typeWidth int) string {
	typ := cells[3]
	if typeWidth > 0 {
		typ = truncate(typ, typeWidth)
	}
	out := runewidth.FillRight(cells[0], widths[0]) + "  " +
		runewidth.FillLeft(cells[1], widths[1]) + "  " +
		runewidth.FillLeft(cells[2], widths[2]) + "  " + typ
	return strings.TrimRight(out, " ")
}

func buildRows(snap *layout.Snapshot, fields bool) []row {
	rows := make([]row, 0, len(snap.Entries))
	for _, e := range snap.Entries {
		if e.Error != "" {
			rows = append(rows, row{kind: rowFailed, cells: [4]string{e.Name, "-", "-", "error: " + e.Error}})
			continue
		}
		rows = append(rows, row{kind: rowType, cells: [4]string{e.Name, strconv.FormatInt(e.Size, 10), strconv.FormatInt(e.Align, 10), e.Type}})
		if !fields {
			continue
		}
		for i, off := range e.FieldOffsets {
			rows = append(rows, row{kind: rowField, cells: [4]string{"  ." + fieldName(e, i), "@" + strconv.FormatInt(off, 10), "", ""}})
		}
		if e.TagSize > 0 {
			rows = append(rows, row{kind: rowField, cells: [4]string{"  tag", strconv.FormatInt(e.TagSize, 10), "", ""}})
		}
	}
	return rows
}

func fieldName(e layout.SnapshotEntry, i int) string {
	if i < len(e.FieldNames) && e.FieldNames[i] != "" {
		return e.FieldNames[i]
	}
	return strconv.Itoa(i)
}

func truncate(value string, width int) string {
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

type jsonField struct {
	Name   string `json:"name"`
	Offset int64  `json:"offset"`
}

type jsonType struct {
	Name    string      `json:"name"`
	Type    string      `json:"type,omitempty"`
	Size    int64       `json:"size"`
	Align   int64       `json:"align"`
	Fields  []jsonField `json:"fields,omitempty"`
	TagSize int64       `json:"tag_size,omitempty"`
	Failed  bool        `json:"failed,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type jsonSnapshot struct {
	Tool   string     `json:"tool,omitempty"`
	Target string     `json:"target"`
	Source string     `json:"source,omitempty"`
	Types  []jsonType `json:"types"`
}

// JSON writes snap as indented JSON.
func JSON(w io.Writer, snap *layout.Snapshot) error {
	out := jsonSnapshot{
		Tool:   snap.Tool,
		Target: snap.Target,
		Source: snap.Source,
		Types:  make([]jsonType, 0, len(snap.Entries)),
	}
	for _, e := range snap.Entries {
		t := jsonType{
			Name:    e.Name,
			Type:    e.Type,
			Size:    e.Size,
			Align:   e.Align,
			TagSize: e.TagSize,
			Failed:  e.Failed,
			Error:   e.Error,
		}
		for i, off := range e.FieldOffsets {
			t.Fields = append(t.Fields, jsonField{Name: fieldName(e, i), Offset: off})
		}
		out.Types = append(out.Types, t)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
