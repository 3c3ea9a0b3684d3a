package driver

import (
	"os"
	"path/filepath"
	"testing"

	"keel/internal/layout"
	"keel/internal/project"
	"keel/internal/target"
)

func TestSnapshotCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c, err := NewSnapshotCache(dir)
	if err != nil {
		t.Fatalf("NewSnapshotCache: %v", err)
	}
	key := SnapshotKey(project.StringDigest("content"), target.Default(), "0.1.0")
	if _, ok, err := c.Get(key); ok || err != nil {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}

	snap := &layout.Snapshot{
		Schema:  layout.SnapshotSchema,
		Tool:    "0.1.0",
		Target:  target.Default().Key(),
		Entries: []layout.SnapshotEntry{{Name: "T", Type: "struct {a: i32}", Size: 4, Align: 4, FieldNames: []string{"a"}, FieldOffsets: []int64{0}}},
	}
	if err := c.Put(key, snap); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := os.Stat(c.pathFor(key)); err != nil {
		t.Fatalf("entry not written: %v", err)
	}
	leftovers, _ := filepath.Glob(filepath.Join(dir, "layouts", "tmp-*"))
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}

	fresh, err := NewSnapshotCache(dir)
	if err != nil {
		t.Fatalf("NewSnapshotCache: %v", err)
	}
	got, ok, err := fresh.Get(key)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.Entries[0].Name != "T" || got.Entries[0].Size != 4 {
		t.Fatalf("entries = %+v", got.Entries)
	}

	if err := fresh.DropAll(); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	if _, ok, _ := fresh.Get(key); ok {
		t.Fatalf("DropAll should empty the cache")
	}
}

func TestSnapshotCacheSchemaMismatchIsMiss(t *testing.T) {
	c, err := NewSnapshotCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewSnapshotCache: %v", err)
	}
	key := project.StringDigest("old")
	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := layout.EncodeSnapshot(f, &layout.Snapshot{Schema: layout.SnapshotSchema + 1}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	_ = f.Close()

	if _, ok, err := c.Get(key); ok || err != nil {
		t.Fatalf("old schema: ok=%v err=%v, want a plain miss", ok, err)
	}
}

func TestSnapshotCacheCorruptEntry(t *testing.T) {
	c, err := NewSnapshotCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewSnapshotCache: %v", err)
	}
	key := project.StringDigest("junk")
	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte{0xc1}, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := c.Get(key); err == nil {
		t.Fatalf("corrupt entry should fail to decode")
	}
}

func TestNilSnapshotCache(t *testing.T) {
	var c *SnapshotCache
	if err := c.Put(project.Digest{}, &layout.Snapshot{}); err != nil {
		t.Fatalf("Put on nil cache: %v", err)
	}
	if _, ok, err := c.Get(project.Digest{}); ok || err != nil {
		t.Fatalf("Get on nil cache: ok=%v err=%v", ok, err)
	}
}
