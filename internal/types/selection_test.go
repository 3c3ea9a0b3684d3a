package types

import "testing"

func TestSelectionCopiesOnAppend(t *testing.T) {
	base := Selection{}.With(0).With(1)
	a := base.With(2)
	b := base.With(3)
	if !indexEqual(a.Index, 0, 1, 2) || !indexEqual(b.Index, 0, 1, 3) {
		t.Fatalf("branches alias each other: %v %v", a.Index, b.Index)
	}
	if !indexEqual(base.Index, 0, 1) {
		t.Fatalf("base mutated: %v", base.Index)
	}
}

func TestSelectionCombineSubTrim(t *testing.T) {
	lhs := Selection{Indirect: true}.With(1)
	rhs := Selection{}.With(2).With(0)
	c := Combine(lhs, rhs)
	if !c.Indirect || !indexEqual(c.Index, 1, 2, 0) {
		t.Fatalf("combine = %+v", c)
	}
	if sub := c.Sub(1); !indexEqual(sub.Index, 2, 0) || sub.Indirect {
		t.Fatalf("sub = %+v", sub)
	}
	if sub := c.Sub(7); len(sub.Index) != 0 {
		t.Fatalf("sub past end = %v", sub.Index)
	}
	tr := c.Trim()
	if !indexEqual(tr.Index, 1, 2) {
		t.Fatalf("trim = %v", tr.Index)
	}
	tr = tr.With(9)
	if !indexEqual(c.Index, 1, 2, 0) {
		t.Fatalf("append after trim overwrote the original: %v", c.Index)
	}
	if len(Selection{}.Trim().Index) != 0 {
		t.Fatalf("trim of empty selection")
	}
}

func TestWaitSignal(t *testing.T) {
	var s WaitSignal
	if s.Ready() {
		t.Fatalf("zero signal must not be ready")
	}
	s.Set()
	s.Set()
	s.Wait()
	if !s.Ready() {
		t.Fatalf("signal not ready after Set")
	}
	select {
	case <-s.Done():
	default:
		t.Fatalf("Done channel not closed")
	}
}
