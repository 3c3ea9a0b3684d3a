package types

import (
	"testing"

	"keel/internal/source"
)

func indexEqual(got []int32, want ...int32) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestLookupThroughEmbedding(t *testing.T) {
	s := NewStore(nil)
	i32 := s.Basic(BasicI32)
	base := declare(s, "Base", structOf(s, fld("x", i32, 0, 0)))
	mid := declare(s, "Mid", structOf(s, fld("pad", i32, 0, 0), fld("b", base, 1, EntityFlagUsing)))
	outer := structOf(s, fld("m", mid, 0, EntityFlagUsing), fld("y", i32, 1, 0))

	sel := s.LookupField(outer, "x", false)
	if !sel.Found() || sel.Entity.Name != "x" {
		t.Fatalf("x not found: %+v", sel)
	}
	if !indexEqual(sel.Index, 0, 1, 0) {
		t.Fatalf("path = %v, want [0 1 0]", sel.Index)
	}
	if sel.Indirect {
		t.Fatalf("value embedding must not be indirect")
	}

	sel = s.LookupField(s.Pointer(outer), "y", false)
	if !sel.Indirect || !indexEqual(sel.Index, 1) {
		t.Fatalf("through pointer: %+v", sel)
	}

	if s.LookupField(outer, "nope", false).Found() {
		t.Fatalf("missing name must not resolve")
	}
	if got := s.LookupField(outer, "nope", false); len(got.Index) != 0 {
		t.Fatalf("failed lookup leaked path %v", got.Index)
	}
}

func TestLookupBacktracksFailedEmbedding(t *testing.T) {
	s := NewStore(nil)
	i32 := s.Basic(BasicI32)
	empty := structOf(s, fld("q", i32, 0, 0))
	withZ := structOf(s, fld("z", i32, 0, 0))
	outer := structOf(s,
		fld("a", empty, 0, EntityFlagUsing),
		fld("b", s.Pointer(withZ), 1, EntityFlagUsing),
	)
	sel := s.LookupField(outer, "z", false)
	if !indexEqual(sel.Index, 1, 0) {
		t.Fatalf("path = %v, want [1 0]", sel.Index)
	}
	if !sel.Indirect {
		t.Fatalf("embedding through a pointer field must be indirect")
	}
}

func TestLookupBlank(t *testing.T) {
	s := NewStore(nil)
	st := structOf(s, fld("_", s.Basic(BasicI32), 0, 0))
	if s.LookupField(st, "_", false).Found() {
		t.Fatalf("blank lookups are rejected")
	}
	if !s.LookupFieldWith(st, "_", false, Selection{}, true).Found() {
		t.Fatalf("blank lookup allowed for internal callers")
	}
}

func TestLookupBuiltinMembers(t *testing.T) {
	s := NewStore(nil)
	cases := []struct {
		name  string
		typ   *Type
		field string
		index int32
		elem  *Type
	}{
		{"any data", s.Basic(BasicAny), "data", 0, s.Basic(BasicRawptr)},
		{"any id", s.Basic(BasicAny), "id", 1, s.Basic(BasicTypeid)},
		{"quaternion w", s.Basic(BasicQuaternion128), "w", 3, s.Basic(BasicF32)},
		{"complex y", s.Basic(BasicComplex128), "y", 1, s.Basic(BasicF64)},
		{"dynamic allocator", s.DynamicArray(s.Basic(BasicU8)), "allocator", 3, s.Allocator()},
		{"map allocator", s.Map(s.Basic(BasicU8), s.Basic(BasicU8)), "allocator", 2, s.Allocator()},
	}
	for _, tt := range cases {
		sel := s.LookupField(tt.typ, tt.field, false)
		if !sel.Found() {
			t.Fatalf("%s: not found", tt.name)
		}
		if !indexEqual(sel.Index, tt.index) || sel.Entity.Type != tt.elem {
			t.Fatalf("%s: index %v type %s", tt.name, sel.Index, sel.Entity.Type)
		}
		if again := s.LookupField(tt.typ, tt.field, false); again.Entity != sel.Entity {
			t.Fatalf("%s: synthetic members should be shared", tt.name)
		}
	}
	if s.LookupField(s.Basic(BasicComplex64), "z", false).Found() {
		t.Fatalf("complex has no z")
	}
}

func TestLookupSwizzle(t *testing.T) {
	s := NewStore(nil)
	f32 := s.Basic(BasicF32)
	v3 := s.Array(f32, 3)

	sel := s.LookupField(v3, "z", false)
	if !indexEqual(sel.Index, 2) || sel.Entity.Type != f32 {
		t.Fatalf("z: %+v", sel)
	}
	if s.LookupField(v3, "w", false).Found() {
		t.Fatalf("w is out of range for a 3-array")
	}
	sel = s.LookupField(v3, "g", false)
	if !indexEqual(sel.Index, 1) {
		t.Fatalf("g: %+v", sel)
	}

	sel = s.LookupField(v3, "zyx", false)
	if sel.SwizzleCount != 3 || sel.Swizzle(0) != 2 || sel.Swizzle(1) != 1 || sel.Swizzle(2) != 0 {
		t.Fatalf("zyx: count %d packed %b", sel.SwizzleCount, sel.SwizzleIndices)
	}
	if sel.Entity.Type != s.Array(f32, 3) {
		t.Fatalf("swizzle result type = %s", sel.Entity.Type)
	}
	if s.LookupField(v3, "xg", false).Found() {
		t.Fatalf("mixed coordinate sets must not resolve")
	}
	if s.LookupField(s.Array(f32, 5), "x", false).Found() {
		t.Fatalf("arrays longer than four have no swizzles")
	}
	if !s.LookupField(s.SimdVector(f32, 4), "w", false).Found() {
		t.Fatalf("simd vectors swizzle like arrays")
	}
}

func TestLookupSoaColorNames(t *testing.T) {
	s := NewStore(nil)
	f32 := s.Basic(BasicF32)
	soa := s.NewStruct(StructSpec{
		Fields: []*Entity{
			fld("x", s.Array(f32, 8), 0, 0),
			fld("y", s.Array(f32, 8), 1, 0),
		},
		SoaKind:  SoaFixed,
		SoaElem:  s.Array(f32, 2),
		SoaCount: 8,
	})
	sel := s.LookupField(soa, "g", false)
	if !sel.Found() || sel.Entity.Name != "y" || !indexEqual(sel.Index, 1) {
		t.Fatalf("g should map to y: %+v", sel)
	}
	if s.LookupField(soa, "q", false).Found() {
		t.Fatalf("q is not a member")
	}
}

func TestLookupOnTypeExpression(t *testing.T) {
	s := NewStore(nil)
	e := enumOf(s, s.Basic(BasicU8), "Red", "Green")
	sel := s.LookupField(e, "Green", true)
	if !sel.Found() || len(sel.Index) != 0 {
		t.Fatalf("enum constant lookup: %+v", sel)
	}
	if s.LookupField(e, "Green", false).Found() {
		t.Fatalf("enum values have no members")
	}

	set := s.NewBitSet(e, nil, 0, 1)
	if !s.LookupField(set, "Red", true).Found() {
		t.Fatalf("bit_set type lookup goes through its element")
	}

	scope := NewScope(nil)
	nested := NewTypeName("Inner", source.Span{})
	scope.Insert(nested)
	st := s.NewStruct(StructSpec{Scope: scope, Fields: []*Entity{fld("v", s.Basic(BasicI32), 0, 0)}})
	if got := s.LookupField(st, "Inner", true); got.Entity != nested {
		t.Fatalf("record scope declaration not found")
	}
	if s.LookupField(st, "v", true).Found() {
		t.Fatalf("fields are not visible on the type")
	}
}

func TestLookupBitField(t *testing.T) {
	s := NewStore(nil)
	u8 := s.Basic(BasicU8)
	bf := s.NewBitField(u8, []*Entity{fld("lo", u8, 0, 0), fld("hi", u8, 1, 0)}, []uint8{4, 4}, nil)
	sel := s.LookupField(bf, "hi", false)
	if !sel.IsBitField || !indexEqual(sel.Index, 1) {
		t.Fatalf("hi: %+v", sel)
	}
}

func TestLookupFieldFromIndex(t *testing.T) {
	s := NewStore(nil)
	i32 := s.Basic(BasicI32)
	st := structOf(s, fld("a", i32, 0, 0), fld("b", i32, 1, 0))
	if sel := s.LookupFieldFromIndex(st, 1); sel.Entity.Name != "b" || !indexEqual(sel.Index, 1) {
		t.Fatalf("index 1: %+v", sel)
	}
	if s.LookupFieldFromIndex(st, 5).Found() {
		t.Fatalf("out of range index should be empty")
	}
	tu := s.NewTuple([]*Entity{NewParam("p", i32, 0)}, false)
	if sel := s.LookupFieldFromIndex(tu, 0); sel.Entity.Name != "p" {
		t.Fatalf("tuple index 0: %+v", sel)
	}
	mustPanic(t, "non-record", func() { s.LookupFieldFromIndex(i32, 0) })
}
