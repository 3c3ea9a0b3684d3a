package types

import (
	"fmt"
	"go/constant"
	"go/token"
	"sync"

	"fortio.org/safecast"

	"keel/internal/source"
)

// typeKey identifies structural nodes that are interned: two requests for
// the same pointer, slice, array etc. return the same node.
type typeKey struct {
	kind  Kind
	a, b  TypeID
	n, m  int64
	extra bool
}

// Store owns every type node of a compilation. Nodes are never freed.
// Safe for concurrent use.
type Store struct {
	reg *Registry

	mu    sync.RWMutex
	nodes []*Type
	index map[typeKey]*Type

	layoutMu  sync.Mutex
	layoutKey string

	allocOnce sync.Once
	allocator *Type

	synth sync.Map // string -> *Entity
}

// NewStore creates a store backed by reg. A nil reg gets a fresh registry.
func NewStore(reg *Registry) *Store {
	if reg == nil {
		reg = NewRegistry()
	}
	return &Store{
		reg:   reg,
		nodes: make([]*Type, 0, 256),
		index: make(map[typeKey]*Type, 256),
	}
}

func (s *Store) Registry() *Registry { return s.reg }

// Basic returns the registry node for kind.
func (s *Store) Basic(kind BasicKind) *Type { return s.reg.Type(kind) }

// Lookup returns the node for id.
func (s *Store) Lookup(id TypeID) (*Type, bool) {
	if int(id) < s.reg.Len() {
		if id == NoTypeID {
			return nil, false
		}
		return s.reg.Type(BasicKind(id)), true // #nosec G115 -- bounded by registry size
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := int(id) - s.reg.Len()
	if i >= len(s.nodes) {
		return nil, false
	}
	return s.nodes[i], true
}

// Len is the number of nodes including registry entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reg.Len() + len(s.nodes)
}

// ClaimLayout binds the store's layout caches to one target key. Caches
// live on the nodes, so a second engine for a different target is refused.
func (s *Store) ClaimLayout(key string) error {
	s.layoutMu.Lock()
	defer s.layoutMu.Unlock()
	if s.layoutKey == "" {
		s.layoutKey = key
		return nil
	}
	if s.layoutKey != key {
		return fmt.Errorf("type store already laid out for %s, cannot reuse for %s", s.layoutKey, key)
	}
	return nil
}

func (s *Store) alloc(kind Kind, payload any) *Type {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allocLocked(kind, payload)
}

func (s *Store) allocLocked(kind Kind, payload any) *Type {
	raw, err := safecast.Conv[uint32](s.reg.Len() + len(s.nodes))
	if err != nil {
		panic(fmt.Errorf("type id overflow: %w", err))
	}
	t := newType(TypeID(raw), kind, payload)
	s.nodes = append(s.nodes, t)
	return t
}

func (s *Store) intern(key typeKey, payload func() any) *Type {
	s.mu.RLock()
	t, ok := s.index[key]
	s.mu.RUnlock()
	if ok {
		return t
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.index[key]; ok {
		return t
	}
	t = s.allocLocked(key.kind, payload())
	s.index[key] = t
	return t
}

func idOf(t *Type) TypeID {
	if t == nil {
		return NoTypeID
	}
	return t.id
}

// NewNamed creates a declared type. base may be nil and set later with SetBase.
func (s *Store) NewNamed(name string, typeName *Entity, base *Type) *Type {
	n := &Named{Name: name, TypeName: typeName}
	if base != nil {
		n.base.Store(base)
	}
	t := s.alloc(KindNamed, n)
	if typeName != nil && typeName.Type == nil {
		typeName.Type = t
	}
	return t
}

// NewAlias creates a pure alias of base.
func (s *Store) NewAlias(name string, typeName *Entity, base *Type) *Type {
	t := s.NewNamed(name, typeName, base)
	t.Named().Alias = true
	return t
}

// SetBase resolves a named type. Setting a different base twice panics, as
// does a base whose chain of named types leads back to named.
func (s *Store) SetBase(named, base *Type) {
	n := named.Named()
	if n == nil {
		panic(fmt.Errorf("SetBase on %s type", named.Kind()))
	}
	if ClosesNamedCycle(named, base) {
		panic(fmt.Errorf("named type %s would be its own base", n.Name))
	}
	if !n.base.CompareAndSwap(nil, base) && n.base.Load() != base {
		panic(fmt.Errorf("named type %s already resolved", n.Name))
	}
}

// ClosesNamedCycle reports whether resolving named to base makes a chain of
// named types, with no composite type in between, lead back to named.
func ClosesNamedCycle(named, base *Type) bool {
	for t := base; t != nil && t.kind == KindNamed; t = t.Named().Base() {
		if t == named {
			return true
		}
	}
	return false
}

// NewGeneric creates a type parameter.
func (s *Store) NewGeneric(name string, typeName *Entity, specialized, constraint *Type) *Type {
	return s.alloc(KindGeneric, &Generic{Name: name, TypeName: typeName, Specialized: specialized, Constraint: constraint})
}

func (s *Store) Pointer(elem *Type) *Type {
	return s.intern(typeKey{kind: KindPointer, a: idOf(elem)}, func() any { return &Pointer{Elem: elem} })
}

func (s *Store) MultiPointer(elem *Type) *Type {
	return s.intern(typeKey{kind: KindMultiPointer, a: idOf(elem)}, func() any { return &MultiPointer{Elem: elem} })
}

func (s *Store) SoaPointer(elem *Type) *Type {
	return s.intern(typeKey{kind: KindSoaPointer, a: idOf(elem)}, func() any { return &SoaPointer{Elem: elem} })
}

// Array returns [count]elem.
func (s *Store) Array(elem *Type, count int64) *Type {
	if count < 0 {
		panic(fmt.Errorf("negative array length %d", count))
	}
	return s.intern(typeKey{kind: KindArray, a: idOf(elem), n: count}, func() any { return &Array{Elem: elem, Count: count} })
}

// NewGenericArray returns [$N]elem where the length is the parameter n.
func (s *Store) NewGenericArray(elem, n *Type) *Type {
	return s.alloc(KindArray, &Array{Elem: elem, GenericCount: n})
}

// EnumeratedArray returns [index]elem covering min..max of the index type.
func (s *Store) EnumeratedArray(elem, index *Type, lo, hi constant.Value, sparse bool) *Type {
	count := int64(0)
	if lo != nil && hi != nil && lo.Kind() == constant.Int && hi.Kind() == constant.Int {
		l, _ := constant.Int64Val(lo)
		h, _ := constant.Int64Val(hi)
		if h >= l {
			count = h - l + 1
		}
	}
	return s.alloc(KindEnumeratedArray, &EnumeratedArray{Elem: elem, Index: index, Min: lo, Max: hi, Count: count, Sparse: sparse})
}

func (s *Store) Slice(elem *Type) *Type {
	return s.intern(typeKey{kind: KindSlice, a: idOf(elem)}, func() any { return &Slice{Elem: elem} })
}

func (s *Store) DynamicArray(elem *Type) *Type {
	return s.intern(typeKey{kind: KindDynamicArray, a: idOf(elem)}, func() any { return &DynamicArray{Elem: elem} })
}

func (s *Store) Map(key, value *Type) *Type {
	return s.intern(typeKey{kind: KindMap, a: idOf(key), b: idOf(value)}, func() any { return &Map{Key: key, Value: value} })
}

func (s *Store) SimdVector(elem *Type, count int64) *Type {
	return s.intern(typeKey{kind: KindSimdVector, a: idOf(elem), n: count}, func() any { return &SimdVector{Elem: elem, Count: count} })
}

func (s *Store) Matrix(elem *Type, rows, cols int64, rowMajor bool) *Type {
	key := typeKey{kind: KindMatrix, a: idOf(elem), n: rows, m: cols, extra: rowMajor}
	return s.intern(key, func() any { return &Matrix{Elem: elem, Rows: rows, Cols: cols, RowMajor: rowMajor} })
}

// StructSpec describes a record for NewStruct.
type StructSpec struct {
	Fields              []*Entity
	Tags                []string
	Scope               *Scope
	Packed              bool
	RawUnion            bool
	NoCopy              bool
	CustomAlign         int64
	CustomMinFieldAlign int64
	CustomMaxFieldAlign int64

	SoaKind  SoaKind
	SoaElem  *Type
	SoaCount int64

	// Polymorphic marks a generic record. Its parameters are published
	// with PublishPolyParams unless PolyParams is already known.
	Polymorphic bool
	PolyParams  *Type
	PolyParent  *Type
}

// NewStruct creates a record whose fields are known.
func (s *Store) NewStruct(spec StructSpec) *Type {
	t := s.NewPendingStruct(spec)
	s.PublishFields(t, spec.Fields, spec.Tags)
	return t
}

// NewPendingStruct creates a record whose fields another worker publishes
// later with PublishFields. Field readers block until then.
func (s *Store) NewPendingStruct(spec StructSpec) *Type {
	st := &Struct{
		Scope:               spec.Scope,
		Packed:              spec.Packed,
		RawUnion:            spec.RawUnion,
		NoCopy:              spec.NoCopy,
		CustomAlign:         spec.CustomAlign,
		CustomMinFieldAlign: spec.CustomMinFieldAlign,
		CustomMaxFieldAlign: spec.CustomMaxFieldAlign,
		SoaKind:             spec.SoaKind,
		SoaElem:             spec.SoaElem,
		SoaCount:            spec.SoaCount,
		PolyParent:          spec.PolyParent,
	}
	if st.Scope == nil {
		st.Scope = NewScope(nil)
	}
	t := s.alloc(KindStruct, st)
	markPoly(t, spec.Polymorphic, spec.PolyParent)
	if spec.PolyParams != nil || !spec.Polymorphic {
		st.polyParams = spec.PolyParams
		st.polyReady.Set()
	}
	return t
}

// PublishFields completes a pending record. Only the first call counts.
func (s *Store) PublishFields(t *Type, fields []*Entity, tags []string) {
	st := t.Struct()
	if st == nil {
		panic(fmt.Errorf("PublishFields on %s type", t.Kind()))
	}
	if st.fieldsReady.Ready() {
		return
	}
	if len(tags) < len(fields) {
		padded := make([]string, len(fields))
		copy(padded, tags)
		tags = padded
	}
	for _, f := range fields {
		st.Scope.Insert(f)
	}
	st.fields = fields
	st.tags = tags
	st.fieldsReady.Set()
}

// PublishPolyParams releases readers waiting for a generic record's
// parameter list. The parameters are a tuple of the generic entities.
func (s *Store) PublishPolyParams(t *Type, params *Type) {
	switch p := t.payload.(type) {
	case *Struct:
		if !p.polyReady.Ready() {
			p.polyParams = params
			p.polyReady.Set()
		}
	case *Union:
		if !p.polyReady.Ready() {
			p.polyParams = params
			p.polyReady.Set()
		}
	default:
		panic(fmt.Errorf("PublishPolyParams on %s type", t.Kind()))
	}
}

func markPoly(t *Type, polymorphic bool, parent *Type) {
	if polymorphic {
		t.SetFlag(FlagPolymorphic)
	}
	if parent != nil {
		t.SetFlag(FlagPolySpecialized)
	}
}

// UnionSpec describes a tagged union for NewUnion.
type UnionSpec struct {
	Variants    []*Type
	Kind        UnionKind
	CustomAlign int64
	Scope       *Scope
	Polymorphic bool
	PolyParams  *Type
	PolyParent  *Type
}

func (s *Store) NewUnion(spec UnionSpec) *Type {
	u := &Union{
		variants:    spec.Variants,
		Kind:        spec.Kind,
		CustomAlign: spec.CustomAlign,
		Scope:       spec.Scope,
		PolyParent:  spec.PolyParent,
	}
	u.tagSize.Store(unset)
	u.blockSize.Store(unset)
	t := s.alloc(KindUnion, u)
	markPoly(t, spec.Polymorphic, spec.PolyParent)
	if spec.PolyParams != nil || !spec.Polymorphic {
		u.polyParams = spec.PolyParams
		u.polyReady.Set()
	}
	return t
}

// NewEnum creates an enumeration. Constant fields without a type get the
// enum itself; min and max are derived from the folded values.
func (s *Store) NewEnum(base *Type, fields []*Entity) *Type {
	e := &Enum{Fields: fields, Base: base, Scope: NewScope(nil)}
	t := s.alloc(KindEnum, e)
	for i, f := range fields {
		if f.Type == nil {
			f.Type = t
		}
		e.Scope.Insert(f)
		if f.Value == nil {
			continue
		}
		if e.MinValue == nil || constant.Compare(f.Value, token.LSS, e.MinValue) {
			e.MinValue, e.MinIndex = f.Value, i
		}
		if e.MaxValue == nil || constant.Compare(f.Value, token.GTR, e.MaxValue) {
			e.MaxValue, e.MaxIndex = f.Value, i
		}
	}
	return t
}

// NewTuple creates a variable list.
func (s *Store) NewTuple(vars []*Entity, packed bool) *Type {
	return s.alloc(KindTuple, &Tuple{Vars: vars, Packed: packed})
}

// ProcSpec describes a procedure signature for NewProc.
type ProcSpec struct {
	Params      []*Entity
	Results     []*Entity
	CC          CallingConvention
	CVararg     bool
	Diverging   bool
	OptionalOK  bool
	Polymorphic bool
	Specialized bool
}

// NewProc creates a signature. Variadic is derived from an ellipsis parameter.
func (s *Store) NewProc(spec ProcSpec) *Type {
	p := &Proc{
		ParamCount:    len(spec.Params),
		ResultCount:   len(spec.Results),
		CC:            spec.CC,
		CVararg:       spec.CVararg,
		Diverging:     spec.Diverging,
		OptionalOK:    spec.OptionalOK,
		VariadicIndex: -1,
	}
	if p.CC == CCInvalid {
		p.CC = CCNative
	}
	if len(spec.Params) > 0 {
		p.Params = s.NewTuple(spec.Params, false)
		for i, e := range spec.Params {
			if e.Has(EntityFlagEllipsis) {
				p.Variadic = true
				p.VariadicIndex = i
			}
		}
	}
	if len(spec.Results) > 0 {
		p.Results = s.NewTuple(spec.Results, false)
	}
	t := s.alloc(KindProc, p)
	if spec.Polymorphic {
		t.SetFlag(FlagPolymorphic)
	}
	if spec.Specialized {
		t.SetFlag(FlagPolySpecialized)
	}
	return t
}

// NewBitSet creates bit_set[lower..=upper; underlying] over elem.
func (s *Store) NewBitSet(elem, underlying *Type, lower, upper int64) *Type {
	return s.alloc(KindBitSet, &BitSet{Elem: elem, Underlying: underlying, Lower: lower, Upper: upper})
}

// NewBitField creates a bit_field. Bit offsets are assigned in order.
func (s *Store) NewBitField(backing *Type, fields []*Entity, bitSizes []uint8, tags []string) *Type {
	if len(bitSizes) != len(fields) {
		panic(fmt.Errorf("bit_field: %d fields but %d bit sizes", len(fields), len(bitSizes)))
	}
	bf := &BitField{Backing: backing, Fields: fields, BitSizes: bitSizes, Tags: tags, Scope: NewScope(nil)}
	bf.BitOffsets = make([]int64, len(fields))
	var off int64
	for i, f := range fields {
		f.Flags |= EntityFlagBitFieldField
		bf.BitOffsets[i] = off
		off += int64(bitSizes[i])
		bf.Scope.Insert(f)
	}
	return s.alloc(KindBitField, bf)
}

// Allocator is the runtime allocator record embedded in dynamic arrays
// and maps: struct {procedure: rawptr, data: rawptr}.
func (s *Store) Allocator() *Type {
	s.allocOnce.Do(func() {
		raw := s.Basic(BasicRawptr)
		st := s.NewStruct(StructSpec{Fields: []*Entity{
			NewField("procedure", raw, 0, EntityFlagSynthetic),
			NewField("data", raw, 1, EntityFlagSynthetic),
		}})
		s.allocator = s.NewNamed("Allocator", NewTypeName("Allocator", source.Span{}), st)
	})
	return s.allocator
}
