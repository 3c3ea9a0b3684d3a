package target

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPresetsValidate(t *testing.T) {
	for _, name := range Names() {
		tgt, ok := Lookup(name)
		if !ok {
			t.Fatalf("preset %s missing", name)
		}
		if err := tgt.Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
		check   func(t *testing.T, tgt Target)
	}{
		{
			name: "full",
			body: "[target]\nname = \"tiny\"\nptr_size = 2\nint_size = 2\nmax_align = 2\nmax_simd_align = 4\nendian = \"big\"\n",
			check: func(t *testing.T, tgt Target) {
				if tgt.PtrSize != 2 || tgt.MaxSimdAlign != 4 || tgt.Endian != BigEndian || tgt.Triple != "tiny" {
					t.Fatalf("unexpected target %+v", tgt)
				}
			},
		},
		{
			name: "based on preset",
			body: "[target]\nbase = \"wasm32\"\nmax_simd_align = 8\n",
			check: func(t *testing.T, tgt Target) {
				if tgt.PtrSize != 4 || tgt.MaxSimdAlign != 8 || tgt.Triple != "wasm32-freestanding" {
					t.Fatalf("unexpected target %+v", tgt)
				}
			},
		},
		{name: "missing table", body: "x = 1\n", wantErr: "missing [target]"},
		{name: "missing key", body: "[target]\nptr_size = 8\n", wantErr: "missing [target].int_size"},
		{name: "not a power of two", body: "[target]\nbase = \"amd64\"\nmax_align = 12\n", wantErr: "power of two"},
		{name: "bad endian", body: "[target]\nbase = \"amd64\"\nendian = \"middle\"\n", wantErr: "endian"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "target.toml")
			if err := os.WriteFile(path, []byte(tt.body), 0o600); err != nil {
				t.Fatal(err)
			}
			tgt, err := LoadFile(path)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want substring %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadFile: %v", err)
			}
			tt.check(t, tgt)
		})
	}
}

func TestResolveUnknown(t *testing.T) {
	if _, err := Resolve("pdp11"); err == nil {
		t.Fatalf("expected error for unknown target")
	}
	if tgt, err := Resolve(""); err != nil || tgt.Name != "amd64" {
		t.Fatalf("default = %+v, %v", tgt, err)
	}
}
