package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"keel/internal/layout"
	"keel/internal/project"
	"keel/internal/target"
)

// SnapshotKey identifies the layout of one file content for one target and
// tool version.
func SnapshotKey(content project.Digest, tgt target.Target, tool string) project.Digest {
	return project.Combine(content, project.StringDigest(tgt.Key()), project.StringDigest(tool))
}

// SnapshotCache хранит снапшоты раскладки по ключу на диске, с копией в
// памяти для повторных запусков в одном процессе (watch, repl).
// Thread-safe for concurrent access.
type SnapshotCache struct {
	mu  sync.RWMutex
	dir string // empty: memory only
	mem map[project.Digest]*layout.Snapshot
}

// NewSnapshotCache opens a cache rooted at dir. An empty dir keeps
// snapshots in memory only.
func NewSnapshotCache(dir string) (*SnapshotCache, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &SnapshotCache{dir: dir, mem: make(map[project.Digest]*layout.Snapshot, 16)}, nil
}

// OpenSnapshotCache opens the cache at the standard location.
func OpenSnapshotCache(app string) (*SnapshotCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return NewSnapshotCache(filepath.Join(base, app))
}

// Dir returns the on-disk location, empty for a memory-only cache.
func (c *SnapshotCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *SnapshotCache) pathFor(key project.Digest) string {
	// подкаталог "layouts" для удобства очистки
	return filepath.Join(c.dir, "layouts", key.Hex()+".mp")
}

// Put stores a snapshot under key.
func (c *SnapshotCache) Put(key project.Digest, snap *layout.Snapshot) error {
	if c == nil {
		return nil
	}
	if snap == nil {
		return fmt.Errorf("driver: nil snapshot")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mem[key] = snap
	if c.dir == "" {
		return nil
	}

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		// after a successful rename the temp name is gone
		if rmErr := os.Remove(tmp); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			Logger().Warn("failed to remove temp file", zap.String("path", tmp), zap.Error(rmErr))
		}
	}()

	if err := layout.EncodeSnapshot(f, snap); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(tmp, p)
}

// Get returns the snapshot stored under key. Entries written with another
// snapshot schema count as a miss.
func (c *SnapshotCache) Get(key project.Digest) (*layout.Snapshot, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	if snap, ok := c.mem[key]; ok {
		return snap, true, nil
	}
	if c.dir == "" {
		return nil, false, nil
	}
	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			Logger().Warn("failed to close cache entry", zap.Error(closeErr))
		}
	}()
	snap, err := layout.DecodeSnapshot(f)
	if err != nil {
		if errors.Is(err, layout.ErrSnapshotSchema) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return snap, true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *SnapshotCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mem = make(map[project.Digest]*layout.Snapshot, 16)
	if c.dir == "" {
		return nil
	}
	// тривиально: переименуем каталог и удалим
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}
