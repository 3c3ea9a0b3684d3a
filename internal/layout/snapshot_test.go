package layout_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"keel/internal/layout"
	"keel/internal/target"
)

func TestSnapshotRoundTrip(t *testing.T) {
	f := newFixture(t, target.Default())
	pair := f.declare("Pair", f.pair())
	loop := f.declareLater("Loop")
	f.store.SetBase(loop, f.structOf(field("l", loop, 0)))

	snap := f.engine.NewSnapshot("0.1.0", "types.toml")
	snap.Entries = append(snap.Entries, f.engine.Entry("Pair", pair), f.engine.Entry("Loop", loop))

	var buf bytes.Buffer
	if err := layout.EncodeSnapshot(&buf, snap); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := layout.DecodeSnapshot(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Target != target.Default().Key() || got.Source != "types.toml" || len(got.Entries) != 2 {
		t.Fatalf("snapshot header = %+v", got)
	}
	p := got.Entries[0]
	if p.Size != 8 || p.Align != 4 || !offsetsEqual(p.FieldOffsets, 0, 4) || len(p.FieldNames) != 2 || p.FieldNames[1] != "b" {
		t.Fatalf("Pair entry = %+v", p)
	}
	l := got.Entries[1]
	if !l.Failed || l.Error == "" || l.Size != 0 {
		t.Fatalf("Loop entry = %+v", l)
	}
}

func TestSnapshotSchemaMismatch(t *testing.T) {
	var buf bytes.Buffer
	stale := layout.Snapshot{Schema: layout.SnapshotSchema + 1, Target: "amd64"}
	if err := msgpack.NewEncoder(&buf).Encode(&stale); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := layout.DecodeSnapshot(&buf); !errors.Is(err, layout.ErrSnapshotSchema) {
		t.Fatalf("expected schema error, got %v", err)
	}
	if err := layout.EncodeSnapshot(&buf, nil); err == nil {
		t.Fatalf("expected error for nil snapshot")
	}
}
