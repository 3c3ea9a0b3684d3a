// Package testkit holds checks shared by package tests.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"keel/internal/decl"
	"keel/internal/source"
)

// CheckDeclSpans runs a minimal set of span invariants on a loaded unit:
// 1) every declaration span points into sf and is non-empty
// 2) spans follow file order
// 3) a span that covers a quoted name covers the whole quoted string
func CheckDeclSpans(u *decl.Unit, sf *source.File) error {
	if u == nil || sf == nil {
		return fmt.Errorf("nil unit or file")
	}
	if u.File != sf.ID {
		return fmt.Errorf("unit points to different file id: got=%d want=%d", u.File, sf.ID)
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}

	var prev uint32
	for i, d := range u.Decls {
		sp := d.Span
		if sp.File != sf.ID {
			return fmt.Errorf("decl %d (%s): span in file %d, want %d", i, d.Name, sp.File, sf.ID)
		}
		if sp.End <= sp.Start {
			return fmt.Errorf("decl %d (%s): empty span %v", i, d.Name, sp)
		}
		if sp.End > lenContent {
			return fmt.Errorf("decl %d (%s): span end beyond content: %d > %d", i, d.Name, sp.End, lenContent)
		}
		if sp.Start < prev {
			return fmt.Errorf("decl %d (%s): span starts at %d, before the previous one at %d", i, d.Name, sp.Start, prev)
		}
		prev = sp.Start

		text := sf.Text(sp)
		if text[0] == '"' && (len(text) < 2 || text[len(text)-1] != '"') {
			return fmt.Errorf("decl %d (%s): span cuts a quoted name: %q", i, d.Name, text)
		}
	}
	return nil
}
