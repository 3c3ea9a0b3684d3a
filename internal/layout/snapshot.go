package layout

import (
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"keel/internal/types"
)

// Current schema version - increment when Snapshot format changes
const SnapshotSchema uint16 = 1

// ErrSnapshotSchema is returned for snapshots written with another schema.
var ErrSnapshotSchema = errors.New("unsupported snapshot schema")

// Snapshot is the stored layout of a declaration unit.
type Snapshot struct {
	Schema  uint16
	Tool    string // semantic version of the writer
	Target  string // target key
	Source  string // declaration file
	Entries []SnapshotEntry
}

// SnapshotEntry is the layout of one declared type.
type SnapshotEntry struct {
	Name         string
	Type         string
	Size         int64
	Align        int64
	FieldNames   []string
	FieldOffsets []int64
	TagSize      int64
	Failed       bool
	Error        string
}

// Entry captures the layout of t under name.
func (e *Engine) Entry(name string, t *types.Type) SnapshotEntry {
	ent := SnapshotEntry{Name: name, Type: types.TypeString(t)}
	l, err := e.LayoutOf(t)
	if err != nil {
		ent.Failed = t.Failed()
		ent.Error = err.Error()
		return ent
	}
	ent.Size, ent.Align = l.Size, l.Align
	ent.FieldOffsets = l.FieldOffsets
	ent.TagSize = l.TagSize
	if b := types.BaseType(t); b.Kind() == types.KindStruct {
		for _, f := range b.Struct().Fields() {
			ent.FieldNames = append(ent.FieldNames, f.Name)
		}
	}
	return ent
}

// NewSnapshot starts a snapshot stamped with the engine's target.
func (e *Engine) NewSnapshot(tool, source string) *Snapshot {
	return &Snapshot{
		Schema: SnapshotSchema,
		Tool:   tool,
		Target: e.target.Key(),
		Source: source,
	}
}

// EncodeSnapshot writes s as msgpack.
func EncodeSnapshot(w io.Writer, s *Snapshot) error {
	if s == nil {
		return fmt.Errorf("nil snapshot")
	}
	return msgpack.NewEncoder(w).Encode(s)
}

// DecodeSnapshot reads a snapshot and checks its schema.
func DecodeSnapshot(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := msgpack.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Schema != SnapshotSchema {
		return nil, fmt.Errorf("%w: %d (want %d)", ErrSnapshotSchema, s.Schema, SnapshotSchema)
	}
	return &s, nil
}
