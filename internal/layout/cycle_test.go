package layout_test

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"keel/internal/diag"
	"keel/internal/layout"
	"keel/internal/source"
	"keel/internal/target"
	"keel/internal/types"
)

func TestMutualCycleIsPoisonedOnce(t *testing.T) {
	f := newFixture(t, target.Default())
	a, b := f.declareLater("A"), f.declareLater("B")
	f.store.SetBase(a, f.structOf(field("b", b, 0)))
	f.store.SetBase(b, f.structOf(field("a", a, 0)))

	if got := f.engine.SizeOf(a); got != 0 {
		t.Fatalf("size of A = %d, want 0", got)
	}
	if !a.Failed() || !b.Failed() {
		t.Fatalf("both cycle members must be poisoned: A=%v B=%v", a.Failed(), b.Failed())
	}
	if got := f.engine.SizeOf(b); got != 0 {
		t.Fatalf("size of B = %d, want 0", got)
	}
	if got := f.engine.AlignOf(a); got != 0 {
		t.Fatalf("align of A = %d, want 0", got)
	}

	if n := f.bag.Count(diag.SemaIllegalTypeCycle); n != 1 {
		t.Fatalf("cycle diagnostics = %d, want 1", n)
	}
	d := f.bag.Items()[0]
	if d.Message != "illegal type declaration cycle of `A`" {
		t.Fatalf("message = %q", d.Message)
	}
	var notes []string
	for _, n := range d.Notes {
		notes = append(notes, n.Msg)
	}
	if got := strings.Join(notes, "|"); got != "\tA refers to|\tB refers to|\tA" {
		t.Fatalf("notes = %q", got)
	}
	if st := f.engine.Stats(); st.Cycles != 1 {
		t.Fatalf("stats cycles = %d, want 1", st.Cycles)
	}

	chain, ok := f.engine.CycleOf(b)
	if !ok || strings.Join(chain, " -> ") != "A -> B -> A" {
		t.Fatalf("CycleOf(B) = %v, %v", chain, ok)
	}
}

func TestNamedOnlyCycleIsRejected(t *testing.T) {
	f := newFixture(t, target.Default())
	a, b := f.declareLater("A"), f.declareLater("B")
	f.store.SetBase(a, b)

	mustPanic(t, "SetBase(B, A)", func() { f.store.SetBase(b, a) })
	if b.Named().Base() != nil {
		t.Fatalf("rejected base must not be published")
	}
}

func TestCycleThroughNamedChainTerminates(t *testing.T) {
	f := newFixture(t, target.Default())
	a, b := f.declareLater("A"), f.declareLater("B")
	f.store.SetBase(a, b)
	f.store.SetBase(b, f.structOf(field("a", a, 0)))

	done := make(chan int64, 1)
	go func() { done <- f.engine.SizeOf(a) }()
	select {
	case got := <-done:
		if got != 0 {
			t.Fatalf("size of A = %d, want 0", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("SizeOf on A -> B -> struct{a: A} did not return")
	}
	if !a.Failed() || !b.Failed() {
		t.Fatalf("cycle members must be poisoned: A=%v B=%v", a.Failed(), b.Failed())
	}
	if n := f.bag.Count(diag.SemaIllegalTypeCycle); n != 1 {
		t.Fatalf("cycle diagnostics = %d, want 1", n)
	}
}

func TestSelfCycle(t *testing.T) {
	f := newFixture(t, target.Default())
	s := f.declareLater("S")
	f.store.SetBase(s, f.structOf(field("x", f.basic(types.BasicI32), 0), field("self", s, 1)))

	if got := f.engine.AlignOf(s); got != 0 {
		t.Fatalf("align = %d, want 0", got)
	}
	if f.engine.Offsets(s) != nil {
		t.Fatalf("poisoned record must have no offsets")
	}
	items := f.bag.Items()
	if len(items) != 1 || len(items[0].Notes) != 2 {
		t.Fatalf("want one diagnostic with two notes, got %+v", items)
	}
}

func TestCycleThroughArray(t *testing.T) {
	f := newFixture(t, target.Default())
	tree := f.declareLater("Tree")
	f.store.SetBase(tree, f.structOf(field("kids", f.store.Array(tree, 2), 0)))

	if got := f.engine.SizeOf(tree); got != 0 || !tree.Failed() {
		t.Fatalf("size = %d failed = %v, want poisoned", got, tree.Failed())
	}
}

func TestPointerBreaksCycle(t *testing.T) {
	f := newFixture(t, target.Default())
	node := f.declareLater("Node")
	f.store.SetBase(node, f.structOf(
		field("next", f.store.Pointer(node), 0),
		field("items", f.store.Slice(node), 1),
		field("v", f.basic(types.BasicI32), 2),
	))

	l, err := f.engine.LayoutOf(node)
	if err != nil {
		t.Fatalf("LayoutOf: %v", err)
	}
	if l.Size != 32 || l.Align != 8 || !offsetsEqual(l.FieldOffsets, 0, 8, 24) {
		t.Fatalf("layout = %+v", l)
	}
	if f.bag.Len() != 0 || node.Failed() {
		t.Fatalf("indirection must not be reported as a cycle")
	}
}

func TestDependentTypeIsPoisoned(t *testing.T) {
	f := newFixture(t, target.Default())
	a, b := f.declareLater("A"), f.declareLater("B")
	f.store.SetBase(a, f.structOf(field("b", b, 0)))
	f.store.SetBase(b, f.structOf(field("a", a, 0)))
	c := f.declare("C", f.structOf(field("x", f.basic(types.BasicI32), 0), field("a", a, 1)))

	if got := f.engine.SizeOf(c); got != 0 {
		t.Fatalf("size of C = %d, want 0", got)
	}
	if !c.Failed() || !a.Failed() {
		t.Fatalf("C and A must be poisoned")
	}
	if f.bag.Count(diag.SemaIllegalTypeCycle) != 1 {
		t.Fatalf("dependent type must not repeat the cycle diagnostic")
	}
	// nothing new once everything is poisoned
	f.engine.SizeOf(a)
	f.engine.SizeOf(b)
	f.engine.SizeOf(c)
	if f.bag.Len() != 1 {
		t.Fatalf("diagnostics = %d, want 1", f.bag.Len())
	}

	_, err := f.engine.LayoutOf(c)
	var le *layout.LayoutError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LayoutError, got %v", err)
	}
	if le.Kind != layout.LayoutErrIllegalCycle || le.Type != c {
		t.Fatalf("error = %+v", le)
	}
	if !errors.Is(err, layout.ErrIllegalCycle) {
		t.Fatalf("errors.Is(%v, ErrIllegalCycle) = false", err)
	}
	if !strings.Contains(err.Error(), "infinite size") {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestConcurrentQueriesAgree(t *testing.T) {
	store := types.NewStore(nil)
	var reported atomic.Int32
	eng, err := layout.New(store, target.Default(), layout.Options{
		Sink: layout.CycleReporterFunc(func([]*types.Entity) { reported.Add(1) }),
	})
	if err != nil {
		t.Fatalf("layout.New: %v", err)
	}
	i64 := store.Basic(types.BasicI64)
	inner := store.NewNamed("Inner", types.NewTypeName("Inner", source.Span{}), store.NewStruct(types.StructSpec{
		Fields: []*types.Entity{field("a", store.Basic(types.BasicU8), 0), field("b", i64, 1)},
	}))
	outer := store.NewStruct(types.StructSpec{
		Fields: []*types.Entity{field("x", inner, 0), field("y", store.Array(inner, 4), 1), field("z", store.Basic(types.BasicU16), 2)},
	})
	loop := store.NewNamed("Loop", types.NewTypeName("Loop", source.Span{}), nil)
	store.SetBase(loop, store.NewStruct(types.StructSpec{Fields: []*types.Entity{field("l", loop, 0)}}))

	const workers = 32
	sizes := make([]int64, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if eng.SizeOf(loop) != 0 {
				t.Errorf("worker %d: loop size must be 0", i)
			}
			sizes[i] = eng.SizeOf(outer)
			if off := eng.OffsetOf(outer, 2); off != 80 {
				t.Errorf("worker %d: offset of z = %d, want 80", i, off)
			}
		}(i)
	}
	wg.Wait()

	for i, s := range sizes {
		if s != 88 {
			t.Fatalf("worker %d: size = %d, want 88", i, s)
		}
	}
	if n := reported.Load(); n != 1 {
		t.Fatalf("cycle reported %d times, want 1", n)
	}
}
