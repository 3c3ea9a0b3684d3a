package driver

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"keel/internal/diag"
	"keel/internal/layout"
	"keel/internal/observ"
	"keel/internal/target"
	"keel/internal/testkit"
)

const unitSource = `
[[type]]
name = "Vec2"
kind = "struct"
fields = [
  { name = "x", type = "f32" },
  { name = "y", type = "f32" },
]

[[type]]
name = "Node"
kind = "struct"
fields = [
  { name = "next", type = "^Node" },
  { name = "pos", type = "Vec2", using = true },
  { name = "kids", type = "[dynamic]Node" },
]

[[type]]
name = "Quad"
kind = "struct"
fields = [
  { name = "corners", type = "[4]Vec2" },
  { name = "tag", type = "u8" },
]

[[type]]
name = "Box"
kind = "struct"
params = ["T"]
fields = [{ name = "value", type = "$T" }]
`

const cycleSource = `
[[type]]
name = "A"
kind = "struct"
fields = [{ name = "b", type = "B" }]

[[type]]
name = "B"
kind = "struct"
fields = [{ name = "a", type = "A" }]

[[type]]
name = "Holder"
kind = "struct"
fields = [{ name = "a", type = "A" }]

[[type]]
name = "Ok"
kind = "struct"
fields = [{ name = "n", type = "i32" }]

[[type]]
name = "Bad"
kind = "struct"
fields = [{ name = "m", type = "Missing" }]
`

func writeUnit(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "types.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func entry(t *testing.T, snap *layout.Snapshot, name string) layout.SnapshotEntry {
	t.Helper()
	for _, e := range snap.Entries {
		if e.Name == name {
			return e
		}
	}
	t.Fatalf("no entry %q in snapshot", name)
	return layout.SnapshotEntry{}
}

func TestRunLaysOutUnit(t *testing.T) {
	path := writeUnit(t, unitSource)
	res, err := Run(context.Background(), path, Options{Jobs: 4, MaxDiagnostics: 100, Tool: "0.1.0"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", res.Bag.Items())
	}
	if err := testkit.CheckDeclSpans(res.Unit, res.File); err != nil {
		t.Fatalf("spans: %v", err)
	}
	if res.Snapshot.Target != target.Default().Key() || res.Snapshot.Tool != "0.1.0" {
		t.Fatalf("snapshot header = %+v", res.Snapshot)
	}
	if len(res.Snapshot.Entries) != 4 {
		t.Fatalf("entries = %d, want 4", len(res.Snapshot.Entries))
	}

	tests := []struct {
		name    string
		size    int64
		align   int64
		offsets []int64
	}{
		{"Vec2", 8, 4, []int64{0, 4}},
		{"Node", 56, 8, []int64{0, 8, 16}},
		{"Quad", 36, 4, []int64{0, 32}},
	}
	for _, tt := range tests {
		e := entry(t, res.Snapshot, tt.name)
		if e.Error != "" || e.Size != tt.size || e.Align != tt.align || !reflect.DeepEqual(e.FieldOffsets, tt.offsets) {
			t.Errorf("%s = %+v, want size %d align %d offsets %v", tt.name, e, tt.size, tt.align, tt.offsets)
		}
	}
	if names := entry(t, res.Snapshot, "Node").FieldNames; !reflect.DeepEqual(names, []string{"next", "pos", "kids"}) {
		t.Errorf("Node field names = %v", names)
	}

	box := entry(t, res.Snapshot, "Box")
	if box.Error == "" || box.Failed {
		t.Errorf("Box should have no layout without being poisoned: %+v", box)
	}
	if n := res.Bag.Count(diag.SemaPolymorphicLayout); n != 1 {
		t.Errorf("polymorphic notes = %d, want 1", n)
	}
	if res.Waves < 2 {
		t.Errorf("waves = %d, want at least 2", res.Waves)
	}
}

func TestRunReportsCyclesOnce(t *testing.T) {
	path := writeUnit(t, cycleSource)
	res, err := Run(context.Background(), path, Options{Jobs: 8, MaxDiagnostics: 100})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n := res.Bag.Count(diag.SemaIllegalTypeCycle); n != 1 {
		t.Fatalf("cycle diagnostics = %d, want 1", n)
	}
	if !reflect.DeepEqual(res.Cyclic, []string{"A", "B", "Holder"}) {
		t.Fatalf("cyclic = %v", res.Cyclic)
	}
	for _, name := range []string{"A", "B", "Holder"} {
		if e := entry(t, res.Snapshot, name); !e.Failed || e.Size != 0 {
			t.Errorf("%s should be poisoned: %+v", name, e)
		}
	}
	if e := entry(t, res.Snapshot, "Ok"); e.Failed || e.Size != 4 {
		t.Errorf("Ok = %+v", e)
	}
	bad := entry(t, res.Snapshot, "Bad")
	if !bad.Failed || bad.Error != "declaration has errors" {
		t.Errorf("Bad = %+v", bad)
	}

	var cycle diag.Diagnostic
	for _, d := range res.Bag.Items() {
		if d.Code == diag.SemaIllegalTypeCycle {
			cycle = d
		}
	}
	if !strings.Contains(cycle.Message, "`A`") {
		t.Fatalf("cycle should be reported on A: %q", cycle.Message)
	}
}

func TestLayoutIsDeterministicAcrossJobs(t *testing.T) {
	path := writeUnit(t, cycleSource+unitSource)
	var first *Result
	for _, jobs := range []int{1, 2, 16} {
		res, err := Run(context.Background(), path, Options{Jobs: jobs, MaxDiagnostics: 100})
		if err != nil {
			t.Fatalf("Run(jobs=%d): %v", jobs, err)
		}
		if first == nil {
			first = res
			continue
		}
		if !reflect.DeepEqual(first.Snapshot.Entries, res.Snapshot.Entries) {
			t.Fatalf("jobs=%d changed the entries", jobs)
		}
		if !reflect.DeepEqual(first.Bag.Items(), res.Bag.Items()) {
			t.Fatalf("jobs=%d changed the diagnostics", jobs)
		}
	}
}

func TestRunUsesCache(t *testing.T) {
	path := writeUnit(t, unitSource)
	dir := t.TempDir()
	cache, err := NewSnapshotCache(dir)
	if err != nil {
		t.Fatalf("NewSnapshotCache: %v", err)
	}
	opts := Options{Jobs: 2, MaxDiagnostics: 100, Cache: cache, Tool: "0.1.0"}

	cold, err := Run(context.Background(), path, opts)
	if err != nil || cold.Cached {
		t.Fatalf("cold run: cached=%v err=%v", cold.Cached, err)
	}

	// a fresh cache on the same directory reads the file back
	opts.Cache, err = NewSnapshotCache(dir)
	if err != nil {
		t.Fatalf("NewSnapshotCache: %v", err)
	}
	warm, err := Run(context.Background(), path, opts)
	if err != nil {
		t.Fatalf("warm run: %v", err)
	}
	if !warm.Cached {
		t.Fatalf("second run should hit the cache")
	}
	if !reflect.DeepEqual(cold.Snapshot.Entries, warm.Snapshot.Entries) {
		t.Fatalf("cached entries differ")
	}
	if warm.Bag.Count(diag.SemaPolymorphicLayout) != 1 {
		t.Fatalf("cached runs still report generic declarations")
	}

	opts.Target, _ = target.Lookup("i386")
	other, err := Run(context.Background(), path, opts)
	if err != nil || other.Cached {
		t.Fatalf("another target must miss: cached=%v err=%v", other.Cached, err)
	}
	opts.Tool = "0.2.0"
	opts.Target = target.Target{}
	bumped, err := Run(context.Background(), path, opts)
	if err != nil || bumped.Cached {
		t.Fatalf("another tool version must miss: cached=%v err=%v", bumped.Cached, err)
	}
}

func TestRunDoesNotCacheErrors(t *testing.T) {
	path := writeUnit(t, cycleSource)
	cache, err := NewSnapshotCache("")
	if err != nil {
		t.Fatalf("NewSnapshotCache: %v", err)
	}
	opts := Options{MaxDiagnostics: 100, Cache: cache}
	for i := 0; i < 2; i++ {
		res, err := Run(context.Background(), path, opts)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if res.Cached {
			t.Fatalf("run %d: a unit with errors must not be cached", i)
		}
		if res.Bag.Count(diag.SemaIllegalTypeCycle) != 1 {
			t.Fatalf("run %d: cycle must be reported every time", i)
		}
	}
}

func TestRunMissingFile(t *testing.T) {
	res, err := Run(context.Background(), filepath.Join(t.TempDir(), "nope.toml"), Options{MaxDiagnostics: 10})
	if err == nil {
		t.Fatalf("expected an error")
	}
	if res == nil || res.Bag.Count(diag.IOLoadFileError) != 1 {
		t.Fatalf("expected an IO4001 diagnostic")
	}
}

func TestRunMalformedFile(t *testing.T) {
	path := writeUnit(t, "[[type]\nname = 1\n")
	res, err := Run(context.Background(), path, Options{MaxDiagnostics: 10})
	if err == nil {
		t.Fatalf("expected an error")
	}
	if res.Bag.Count(diag.ProjBadFixture) != 1 {
		t.Fatalf("expected a PRJ5001 diagnostic, got %v", res.Bag.Items())
	}
}

func TestRunTimings(t *testing.T) {
	path := writeUnit(t, unitSource)
	var (
		mu     sync.Mutex
		events []observ.Event
	)
	res, err := Run(context.Background(), path, Options{
		MaxDiagnostics: 1,
		Timings:        true,
		Observer: func(e observ.Event) {
			mu.Lock()
			events = append(events, e)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// the limit is already used by the generic note
	if n := res.Bag.Count(diag.ObsTimings); n != 1 {
		t.Fatalf("timings diagnostics = %d, want 1", n)
	}
	if len(res.Timing.Phases) != 2 || res.Timing.Phases[0].Name != "load" || res.Timing.Phases[1].Name != "layout" {
		t.Fatalf("phases = %+v", res.Timing.Phases)
	}
	if len(events) != 4 {
		t.Fatalf("events = %+v", events)
	}
}

func TestRunCancelled(t *testing.T) {
	path := writeUnit(t, unitSource)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, path, Options{MaxDiagnostics: 10}); err == nil {
		t.Fatalf("cancelled run should fail")
	}
}
