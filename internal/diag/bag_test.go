package diag

import (
	"sync"
	"testing"

	"keel/internal/source"
)

func TestBagLimitAndSort(t *testing.T) {
	b := NewBag(2)
	if !b.Add(NewError(SemaDuplicateDecl, source.Span{Start: 10, End: 11}, "b")) {
		t.Fatalf("first add rejected")
	}
	b.Add(New(SevWarning, ProjBadAttribute, source.Span{Start: 1, End: 2}, "a"))
	if b.Add(NewError(SemaInfo, source.Span{}, "dropped")) {
		t.Fatalf("add beyond limit accepted")
	}
	b.Sort()
	items := b.Items()
	if items[0].Message != "a" || items[1].Message != "b" {
		t.Fatalf("unexpected order: %q, %q", items[0].Message, items[1].Message)
	}
	if !b.HasErrors() || !b.HasWarnings() {
		t.Fatalf("expected errors and warnings")
	}
}

func TestBagMergeGrowsLimit(t *testing.T) {
	a, b := NewBag(1), NewBag(2)
	a.Add(NewError(SemaInfo, source.Span{}, "x"))
	b.Add(NewError(SemaInfo, source.Span{Start: 1}, "y"))
	b.Add(NewError(SemaInfo, source.Span{Start: 2}, "z"))
	a.Merge(b)
	if a.Len() != 3 || a.Cap() != 3 {
		t.Fatalf("len=%d cap=%d, want 3/3", a.Len(), a.Cap())
	}
}

func TestBagDedup(t *testing.T) {
	b := NewBag(10)
	sp := source.Span{Start: 3, End: 4}
	b.Add(NewError(SemaIllegalTypeCycle, sp, "one"))
	b.Add(NewError(SemaIllegalTypeCycle, sp, "two"))
	b.Add(NewError(SemaUnresolvedType, sp, "three"))
	b.Dedup()
	if b.Len() != 2 {
		t.Fatalf("expected 2 after dedup, got %d", b.Len())
	}
}

func TestConcurrentReporters(t *testing.T) {
	bag := NewBag(100)
	r := NewDedupReporter(BagReporter{Bag: bag})
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ReportError(r, SemaIllegalTypeCycle, source.Span{Start: 1, End: 2}, "cycle").
				WithNote(source.Span{}, "\tA refers to").
				Emit()
			ReportInfo(r, SemaInfo, source.Span{Start: uint32(i)}, "info").Emit() // #nosec G115
		}(i)
	}
	wg.Wait()
	if got := bag.Count(SemaIllegalTypeCycle); got != 1 {
		t.Fatalf("expected one cycle diagnostic, got %d", got)
	}
	if got := bag.Count(SemaInfo); got != 16 {
		t.Fatalf("expected 16 info diagnostics, got %d", got)
	}
}

func TestCodeID(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{SemaIllegalTypeCycle, "SEM3001"},
		{IOLoadFileError, "IO4001"},
		{ProjBadTypeExpr, "PRJ5003"},
		{ObsTimings, "OBS6001"},
		{UnknownCode, "E0000"},
	}
	for _, tt := range tests {
		if got := tt.code.ID(); got != tt.want {
			t.Errorf("%d: got %s, want %s", tt.code, got, tt.want)
		}
	}
	if got := SemaIllegalTypeCycle.String(); got != "[SEM3001]: Illegal type declaration cycle" {
		t.Fatalf("unexpected String: %q", got)
	}
}

func TestSeverityNames(t *testing.T) {
	for _, sev := range []Severity{SevInfo, SevWarning, SevError} {
		got, ok := ParseSeverity(sev.String())
		if !ok || got != sev {
			t.Fatalf("ParseSeverity(%q) = %v, %v", sev.String(), got, ok)
		}
	}
	if SevError.String() != "ERROR" || SevWarning.Label() != "warning" {
		t.Fatalf("unexpected names %q %q", SevError.String(), SevWarning.Label())
	}
	if _, ok := ParseSeverity("fatal"); ok {
		t.Fatalf("unknown label accepted")
	}
}

func TestWithNoteDoesNotAlias(t *testing.T) {
	base := NewError(SemaIllegalTypeCycle, source.Span{}, "cycle").WithNote(source.Span{}, "a")
	x := base.WithNote(source.Span{Start: 1}, "x")
	y := base.WithNote(source.Span{Start: 2}, "y")
	if len(base.Notes) != 1 || x.Notes[1].Msg != "x" || y.Notes[1].Msg != "y" {
		t.Fatalf("notes alias: base=%v x=%v y=%v", base.Notes, x.Notes, y.Notes)
	}
}
