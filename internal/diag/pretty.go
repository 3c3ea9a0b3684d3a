package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"keel/internal/source"
)

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	ShowNotes bool
	ShowFixes bool
	Width     int // максимальная ширина строки, 0 - не ограничено
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем строку исходника с подчёркиванием ^~~~ по Span, затем Notes.
func Pretty(w io.Writer, diags []Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	p := prettyPrinter{w: w, fs: fs, opts: opts}
	p.sev = map[Severity]*color.Color{
		SevError:   color.New(color.FgRed, color.Bold),
		SevWarning: color.New(color.FgYellow, color.Bold),
		SevInfo:    color.New(color.FgCyan, color.Bold),
	}
	p.caret = color.New(color.FgGreen, color.Bold)
	p.note = color.New(color.FgBlue)
	for _, c := range p.sev {
		p.paint(c)
	}
	p.paint(p.caret)
	p.paint(p.note)

	for i := range diags {
		p.diagnostic(&diags[i])
	}
}

type prettyPrinter struct {
	w     io.Writer
	fs    *source.FileSet
	opts  PrettyOpts
	sev   map[Severity]*color.Color
	caret *color.Color
	note  *color.Color
}

func (p *prettyPrinter) paint(c *color.Color) {
	if p.opts.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
}

func (p *prettyPrinter) diagnostic(d *Diagnostic) {
	loc := resolveSpan(p.fs, d.Primary)
	header := fmt.Sprintf("%s %s: %s", p.sev[d.Severity].Sprint(d.Severity.String()), d.Code.ID(), sanitizeMessage(d.Message))
	if loc.Path != "" {
		header = fmt.Sprintf("%s:%d:%d: %s", loc.Path, loc.Line, loc.Column, header)
	}
	fmt.Fprintln(p.w, header)
	p.excerpt(d.Primary)

	if p.opts.ShowNotes {
		for _, n := range d.Notes {
			nloc := resolveSpan(p.fs, n.Span)
			msg := strings.TrimRight(n.Msg, "\n")
			if nloc.Path != "" && n.Span != d.Primary {
				fmt.Fprintf(p.w, "  %s %s:%d:%d: %s\n", p.note.Sprint("note"), nloc.Path, nloc.Line, nloc.Column, msg)
				continue
			}
			fmt.Fprintf(p.w, "  %s %s\n", p.note.Sprint("note"), msg)
		}
	}
	if p.opts.ShowFixes {
		for _, f := range d.Fixes {
			fmt.Fprintf(p.w, "  %s %s\n", p.note.Sprint("fix"), f.Title)
		}
	}
}

// excerpt prints the first line of span with an underline.
func (p *prettyPrinter) excerpt(span source.Span) {
	if p.fs == nil {
		return
	}
	file := p.fs.Get(span.File)
	if file == nil {
		return
	}
	start, end := p.fs.Resolve(span)
	line := strings.ReplaceAll(file.GetLine(start.Line), "\t", "    ")
	if line == "" {
		return
	}
	if p.opts.Width > 0 && runewidth.StringWidth(line) > p.opts.Width {
		line = runewidth.Truncate(line, p.opts.Width, "...")
	}
	raw := file.GetLine(start.Line)

	col := int(start.Col) - 1
	col = min(max(col, 0), len(raw))
	lead := runewidth.StringWidth(strings.ReplaceAll(raw[:col], "\t", "    "))

	width := 1
	if end.Line == start.Line && end.Col > start.Col {
		stop := min(int(end.Col)-1, len(raw))
		width = max(runewidth.StringWidth(raw[col:stop]), 1)
	}

	gutter := fmt.Sprintf("%4d | ", start.Line)
	fmt.Fprintf(p.w, "%s%s\n", gutter, line)
	mark := "^" + strings.Repeat("~", width-1)
	fmt.Fprintf(p.w, "%s%s%s\n", strings.Repeat(" ", len(gutter)), strings.Repeat(" ", lead), p.caret.Sprint(mark))
}
