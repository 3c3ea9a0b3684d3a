package source

import "fmt"

// Span is a half-open byte range [Start, End) inside one file. The zero
// Span means "no location" for diagnostics without a source.
type Span struct {
	File  FileID
	Start uint32
	End   uint32
}

func (s Span) Empty() bool { return s.Start == s.End }

func (s Span) Len() uint32 { return s.End - s.Start }

func (s Span) String() string { return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End) }

// Contains reports whether other lies inside s.
func (s Span) Contains(other Span) bool {
	return s.File == other.File && s.Start <= other.Start && other.End <= s.End
}

// Cover returns the smallest span containing both s and other.
// Spans from different files are not merged.
func (s Span) Cover(other Span) Span {
	if s.File != other.File {
		return s
	}
	s.Start = min(s.Start, other.Start)
	s.End = max(s.End, other.End)
	return s
}
