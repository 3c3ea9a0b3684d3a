package decl

import (
	"bytes"
	"fmt"
	"regexp"

	"fortio.org/safecast"

	"keel/internal/source"
)

var typeHeader = regexp.MustCompile(`(?m)^[ \t]*\[\[[ \t]*type[ \t]*\]\][ \t]*(#.*)?$`)

// locator maps declarations back to byte ranges of the file. The TOML
// decoder keeps no positions, so the text is searched instead.
type locator struct {
	file    source.FileID
	content []byte
	blocks  [][2]int // [[type]] table i spans content[blocks[i][0]:blocks[i][1]]
}

func newLocator(file source.FileID, content []byte) *locator {
	l := &locator{file: file, content: content}
	headers := typeHeader.FindAllIndex(content, -1)
	for i, h := range headers {
		end := len(content)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}
		// a following table of another kind ends the block too
		if next := nextTable(content[h[1]:end]); next >= 0 {
			end = h[1] + next
		}
		l.blocks = append(l.blocks, [2]int{h[0], end})
	}
	return l
}

var tableHeader = regexp.MustCompile(`(?m)^[ \t]*\[[^\[]`)

func nextTable(b []byte) int {
	if loc := tableHeader.FindIndex(b); loc != nil {
		return loc[0]
	}
	return -1
}

func (l *locator) span(start, end int) source.Span {
	s, err := safecast.Conv[uint32](start)
	if err != nil {
		panic(fmt.Errorf("span start overflow: %w", err))
	}
	e, err := safecast.Conv[uint32](end)
	if err != nil {
		panic(fmt.Errorf("span end overflow: %w", err))
	}
	return source.Span{File: l.file, Start: s, End: e}
}

// block is the span of the i-th [[type]] header, or of the file start.
func (l *locator) block(i int) source.Span {
	if i < 0 || i >= len(l.blocks) {
		return l.span(0, 0)
	}
	b := l.blocks[i]
	end := b[0] + bytes.IndexByte(l.content[b[0]:b[1]], ']') + 2
	return l.span(b[0], min(end, b[1]))
}

// name is the span of the quoted name value of block i.
func (l *locator) name(i int, name string) source.Span {
	if i < 0 || i >= len(l.blocks) {
		return l.span(0, 0)
	}
	b := l.blocks[i]
	re := regexp.MustCompile(`(?m)^[ \t]*name[ \t]*=[ \t]*"` + regexp.QuoteMeta(name) + `"`)
	loc := re.FindIndex(l.content[b[0]:b[1]])
	if loc == nil {
		return l.block(i)
	}
	quoted := b[0] + loc[1] - len(name) - 2
	return l.span(quoted, b[0]+loc[1])
}

// quoted finds the first occurrence of "text" in block i at or after the
// block offset from, and returns its span and the offset past it.
func (l *locator) quoted(i int, from int, text string) (source.Span, int) {
	if i < 0 || i >= len(l.blocks) {
		return l.span(0, 0), from
	}
	b := l.blocks[i]
	start := max(b[0], from)
	if start > b[1] {
		return l.block(i), from
	}
	needle := []byte(`"` + text + `"`)
	idx := bytes.Index(l.content[start:b[1]], needle)
	if idx < 0 {
		return l.block(i), from
	}
	at := start + idx
	return l.span(at, at+len(needle)), at + len(needle)
}

// eof is an empty span at the end of the file.
func (l *locator) eof() source.Span {
	return l.span(len(l.content), len(l.content))
}
