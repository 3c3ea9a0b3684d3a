package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest is the [layout] section of keel.toml.
type Manifest struct {
	Path string // the manifest file
	Root string // its directory

	Target string // preset name or a target file relative to Root
	Jobs   int
	Cache  bool
	// CacheDir overrides the snapshot cache location.
	CacheDir string
	// Decls lists declaration files relative to Root.
	Decls []string
}

// ErrLayoutSectionMissing indicates that [layout] is missing in keel.toml.
var ErrLayoutSectionMissing = errors.New("missing [layout]")

type manifestFile struct {
	Layout struct {
		Target   string   `toml:"target"`
		Jobs     int      `toml:"jobs"`
		Cache    bool     `toml:"cache"`
		CacheDir string   `toml:"cache_dir"`
		Decls    []string `toml:"decls"`
	} `toml:"layout"`
}

// LoadManifest parses keel.toml. Cache defaults to on when the key is
// absent.
func LoadManifest(path string) (Manifest, error) {
	var cfg manifestFile
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Manifest{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("layout") {
		return Manifest{}, fmt.Errorf("%s: %w", path, ErrLayoutSectionMissing)
	}
	if cfg.Layout.Jobs < 0 {
		return Manifest{}, fmt.Errorf("%s: [layout].jobs must not be negative, got %d", path, cfg.Layout.Jobs)
	}
	root := filepath.Dir(path)
	m := Manifest{
		Path:     path,
		Root:     root,
		Target:   strings.TrimSpace(cfg.Layout.Target),
		Jobs:     cfg.Layout.Jobs,
		Cache:    cfg.Layout.Cache || !meta.IsDefined("layout", "cache"),
		CacheDir: resolve(root, cfg.Layout.CacheDir),
	}
	for _, d := range cfg.Layout.Decls {
		if d = strings.TrimSpace(d); d != "" {
			m.Decls = append(m.Decls, resolve(root, d))
		}
	}
	if m.Target != "" && (strings.HasSuffix(m.Target, ".toml") || strings.ContainsRune(m.Target, filepath.Separator)) {
		m.Target = resolve(root, m.Target)
	}
	return m, nil
}

func resolve(root, p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// Discover finds and loads the manifest above startDir. ok is false when
// there is none.
func Discover(startDir string) (m Manifest, ok bool, err error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return Manifest{}, false, err
	}
	m, err = LoadManifest(path)
	if err != nil {
		return Manifest{}, false, err
	}
	return m, true, nil
}
