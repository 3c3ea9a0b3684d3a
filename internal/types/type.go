package types

import (
	"go/constant"
	"sync/atomic"
)

// unset marks a layout cache that has not been published yet.
const unset int64 = -1

// Type is one node of the type graph. The payload depends on Kind; the
// layout caches, flags and failure bit live outside it so every kind shares
// the same atomic layout.
type Type struct {
	id      TypeID
	kind    Kind
	payload any

	size    atomic.Int64
	align   atomic.Int64
	flags   atomic.Uint32
	failure atomic.Bool
}

func newType(id TypeID, kind Kind, payload any) *Type {
	t := &Type{id: id, kind: kind, payload: payload}
	t.size.Store(unset)
	t.align.Store(unset)
	return t
}

func (t *Type) ID() TypeID { return t.id }
func (t *Type) Kind() Kind { return t.kind }

// Flags returns the current flag set.
func (t *Type) Flags() TypeFlag { return TypeFlag(t.flags.Load()) }

// HasFlag reports whether every bit of f is set.
func (t *Type) HasFlag(f TypeFlag) bool { return t.Flags()&f == f }

// SetFlag sets the bits of f.
func (t *Type) SetFlag(f TypeFlag) { t.flags.Or(uint32(f)) }

// ClearFlag clears the bits of f.
func (t *Type) ClearFlag(f TypeFlag) { t.flags.And(^uint32(f)) }

// CachedSize returns the published size, or -1.
func (t *Type) CachedSize() int64 { return t.size.Load() }

// CachedAlign returns the published alignment, or -1.
func (t *Type) CachedAlign() int64 { return t.align.Load() }

// PublishSize stores v if no size was published yet and returns the
// value that won.
func (t *Type) PublishSize(v int64) int64 {
	if t.size.CompareAndSwap(unset, v) {
		return v
	}
	return t.size.Load()
}

// PublishAlign is the alignment counterpart of PublishSize.
func (t *Type) PublishAlign(v int64) int64 {
	if t.align.CompareAndSwap(unset, v) {
		return v
	}
	return t.align.Load()
}

// Failed reports whether the node was poisoned by an illegal cycle.
func (t *Type) Failed() bool { return t.failure.Load() }

// Poison marks the node failed and pins its layout at failure (0) for good.
// It reports whether this call did the poisoning.
func (t *Type) Poison() bool {
	if !t.failure.CompareAndSwap(false, true) {
		return false
	}
	t.size.Store(0)
	t.align.Store(0)
	return true
}

func (t *Type) String() string { return TypeString(t) }

// Payload accessors return nil when the kind does not match.

func (t *Type) Basic() *BasicInfo { p, _ := t.payload.(*BasicInfo); return p }
func (t *Type) Named() *Named { p, _ := t.payload.(*Named); return p }
func (t *Type) Generic() *Generic { p, _ := t.payload.(*Generic); return p }
func (t *Type) Pointer() *Pointer { p, _ := t.payload.(*Pointer); return p }
func (t *Type) MultiPointer() *MultiPointer { p, _ := t.payload.(*MultiPointer); return p }
func (t *Type) SoaPointer() *SoaPointer { p, _ := t.payload.(*SoaPointer); return p }
func (t *Type) Array() *Array { p, _ := t.payload.(*Array); return p }
func (t *Type) EnumeratedArray() *EnumeratedArray { p, _ := t.payload.(*EnumeratedArray); return p }
func (t *Type) Slice() *Slice { p, _ := t.payload.(*Slice); return p }
func (t *Type) DynamicArray() *DynamicArray { p, _ := t.payload.(*DynamicArray); return p }
func (t *Type) Map() *Map { p, _ := t.payload.(*Map); return p }
func (t *Type) Struct() *Struct { p, _ := t.payload.(*Struct); return p }
func (t *Type) Union() *Union { p, _ := t.payload.(*Union); return p }
func (t *Type) Enum() *Enum { p, _ := t.payload.(*Enum); return p }
func (t *Type) Tuple() *Tuple { p, _ := t.payload.(*Tuple); return p }
func (t *Type) Proc() *Proc { p, _ := t.payload.(*Proc); return p }
func (t *Type) BitSet() *BitSet { p, _ := t.payload.(*BitSet); return p }
func (t *Type) SimdVector() *SimdVector { p, _ := t.payload.(*SimdVector); return p }
func (t *Type) Matrix() *Matrix { p, _ := t.payload.(*Matrix); return p }
func (t *Type) BitField() *BitField { p, _ := t.payload.(*BitField); return p }

// Named is a declared type. Alias declarations are transparent for identity.
type Named struct {
	Name     string
	TypeName *Entity
	Alias    bool
	base     atomic.Pointer[Type]
}

// Base returns the declared underlying type, or nil while unresolved.
func (n *Named) Base() *Type { return n.base.Load() }

// Generic is a type parameter such as $T.
type Generic struct {
	Name        string
	TypeName    *Entity
	Specialized *Type
	Constraint  *Type
}

type Pointer struct{ Elem *Type }

type MultiPointer struct{ Elem *Type }

type SoaPointer struct{ Elem *Type }

// Array is a fixed-length array. GenericCount is set when the length is a
// polymorphic parameter.
type Array struct {
	Elem         *Type
	Count        int64
	GenericCount *Type
}

// EnumeratedArray is indexed by an enum or integer range.
type EnumeratedArray struct {
	Elem   *Type
	Index  *Type
	Min    constant.Value
	Max    constant.Value
	Count  int64
	Sparse bool
}

type Slice struct{ Elem *Type }

type DynamicArray struct{ Elem *Type }

type Map struct {
	Key   *Type
	Value *Type
}

// Struct is a record. Fields are published once through fieldsReady; a
// record built in one step is ready on construction.
type Struct struct {
	fields []*Entity
	tags   []string

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

	PolyParent  *Type
	polyParams  *Type
	polyReady   WaitSignal
	fieldsReady WaitSignal

	Offsets OffsetTable
}

// Fields blocks until the field list is published.
func (s *Struct) Fields() []*Entity {
	s.fieldsReady.Wait()
	return s.fields
}

// Tags returns the per-field tag strings, parallel to Fields.
func (s *Struct) Tags() []string {
	s.fieldsReady.Wait()
	return s.tags
}

// FieldsReady reports whether the field list was published.
func (s *Struct) FieldsReady() bool { return s.fieldsReady.Ready() }

// Tag returns the tag of field i.
func (s *Struct) Tag(i int) string {
	tags := s.Tags()
	if i < 0 || i >= len(tags) {
		return ""
	}
	return tags[i]
}

// Union is a tagged union.
type Union struct {
	variants    []*Type
	Kind        UnionKind
	CustomAlign int64
	Scope       *Scope

	PolyParent *Type
	polyParams *Type
	polyReady  WaitSignal

	tagSize   atomic.Int64
	blockSize atomic.Int64
}

// Variants returns the variant list in declaration order.
func (u *Union) Variants() []*Type { return u.variants }

// TagLayout returns the published tag width and variant block size.
func (u *Union) TagLayout() (tag, block int64, ok bool) {
	tag, block = u.tagSize.Load(), u.blockSize.Load()
	return tag, block, tag >= 0 && block >= 0
}

// SetTagLayout publishes the tag layout once; later calls are ignored.
func (u *Union) SetTagLayout(tag, block int64) {
	if u.blockSize.CompareAndSwap(unset, block) {
		u.tagSize.Store(tag)
	}
}

// Enum is an enumeration over a backing integer type.
type Enum struct {
	Fields   []*Entity // constants, Value set
	Base     *Type
	MinValue constant.Value
	MaxValue constant.Value
	MinIndex int
	MaxIndex int
	Scope    *Scope
}

// Tuple is an ordered variable list, used for parameters and results.
type Tuple struct {
	Vars    []*Entity
	Packed  bool
	Offsets OffsetTable
}

// Proc is a procedure signature.
type Proc struct {
	Params      *Type // tuple or nil
	Results     *Type // tuple or nil
	ParamCount  int
	ResultCount int
	CC          CallingConvention
	Variadic    bool
	// VariadicIndex is the index of the ..T parameter, -1 when absent.
	VariadicIndex int
	CVararg       bool
	Diverging     bool
	OptionalOK    bool
	Scope         *Scope
}

// BitSet is a set over an enum or an integer range.
type BitSet struct {
	Elem       *Type
	Underlying *Type
	Lower      int64
	Upper      int64
}

type SimdVector struct {
	Elem         *Type
	Count        int64
	GenericCount *Type
}

type Matrix struct {
	Elem        *Type
	Rows        int64
	Cols        int64
	RowMajor    bool
	GenericRows *Type
	GenericCols *Type
}

// BitField packs named fields into a backing integer.
type BitField struct {
	Backing    *Type
	Fields     []*Entity
	BitSizes   []uint8
	BitOffsets []int64
	Tags       []string
	Scope      *Scope
}
