package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestName), `
[layout]
target = "i386"
jobs = 4
decls = ["types/core.toml"]
`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	m, ok, err := Discover(nested)
	if err != nil || !ok {
		t.Fatalf("Discover: ok=%v err=%v", ok, err)
	}
	if m.Target != "i386" || m.Jobs != 4 || !m.Cache {
		t.Fatalf("manifest = %+v", m)
	}
	if len(m.Decls) != 1 || m.Decls[0] != filepath.Join(root, "types", "core.toml") {
		t.Fatalf("decls = %v", m.Decls)
	}

	dir, ok, err := FindProjectRoot(nested)
	if err != nil || !ok || dir != root {
		t.Fatalf("FindProjectRoot = %q %v %v", dir, ok, err)
	}
}

func TestLoadManifest(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
		check   func(t *testing.T, m Manifest)
	}{
		{
			name:    "missing section",
			content: "[other]\nx = 1\n",
			wantErr: ErrLayoutSectionMissing,
		},
		{
			name:    "cache off and target file",
			content: "[layout]\ncache = false\ntarget = \"targets/custom.toml\"\n",
			check: func(t *testing.T, m Manifest) {
				if m.Cache {
					t.Fatalf("cache should be off")
				}
				if m.Target != filepath.Join(m.Root, "targets", "custom.toml") {
					t.Fatalf("target = %q", m.Target)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ManifestName)
			writeFile(t, path, tt.content)
			m, err := LoadManifest(path)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadManifest: %v", err)
			}
			tt.check(t, m)
		})
	}
}

func TestNoManifest(t *testing.T) {
	_, ok, err := Discover(t.TempDir())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	// a keel.toml above the temp dir would be found too; only check it is not in it
	if ok {
		t.Skip("a keel.toml exists above the temp directory")
	}
}

func TestCombineIsOrderSensitive(t *testing.T) {
	a, b := StringDigest("a"), StringDigest("b")
	if Combine(a, b) == Combine(b, a) {
		t.Fatalf("combine must depend on order")
	}
	if Combine(a, b) != Combine(a, b) {
		t.Fatalf("combine must be deterministic")
	}
}
