package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.toml", []byte("ab\ncd\n\nef"))

	tests := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{1, 1}},
		{2, LineCol{1, 3}},
		{3, LineCol{2, 1}},
		{4, LineCol{2, 2}},
		{6, LineCol{3, 1}},
		{7, LineCol{4, 1}},
		{8, LineCol{4, 2}},
	}
	for _, tt := range tests {
		got, _ := fs.Resolve(Span{File: id, Start: tt.off, End: tt.off})
		if got != tt.want {
			t.Errorf("offset %d: got %+v, want %+v", tt.off, got, tt.want)
		}
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	f := fs.Get(fs.AddVirtual("x", []byte("first\nsecond\nthird")))
	for i, want := range []string{"", "first", "second", "third", ""} {
		if got := f.GetLine(uint32(i)); got != want {
			t.Errorf("line %d: got %q, want %q", i, got, want)
		}
	}
}

func TestLoadNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.toml")
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBFa\r\nb\r\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "a\nb\n" {
		t.Fatalf("content not normalized: %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("flags = %b", f.Flags)
	}
	if latest, ok := fs.GetLatest(path); !ok || latest != id {
		t.Fatalf("GetLatest = %d, %v", latest, ok)
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 8}
	b := Span{File: 1, Start: 2, End: 6}
	if got := a.Cover(b); got != (Span{File: 1, Start: 2, End: 8}) {
		t.Fatalf("cover = %v", got)
	}
	if got := a.Cover(Span{File: 2, Start: 0, End: 100}); got != a {
		t.Fatalf("cross-file cover changed span: %v", got)
	}
}

func TestSpanText(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.toml", []byte("name = \"Vec2\"\n"))
	f := fs.Get(id)
	sp := Span{File: id, Start: 7, End: 13}
	if got := f.Text(sp); got != `"Vec2"` {
		t.Fatalf("Text = %q", got)
	}
	if got := f.Text(Span{File: id, Start: 10, End: 500}); got != "c2\"\n" {
		t.Fatalf("clamped Text = %q", got)
	}
	if got := f.Text(Span{File: id + 1, Start: 0, End: 3}); got != "" {
		t.Fatalf("foreign span Text = %q", got)
	}
	whole := Span{File: id, Start: 0, End: 14}
	if !whole.Contains(sp) || sp.Contains(whole) {
		t.Fatalf("Contains is wrong")
	}
}
