package types

import "testing"

func TestBasicPredicates(t *testing.T) {
	s := NewStore(nil)
	cases := []struct {
		name string
		fn   func(*Type) bool
		yes  []BasicKind
		no   []BasicKind
	}{
		{"IsInteger", IsInteger, []BasicKind{BasicI8, BasicUintptr, BasicRune, BasicU32BE}, []BasicKind{BasicF32, BasicBool}},
		{"IsUnsigned", IsUnsigned, []BasicKind{BasicU8, BasicUint}, []BasicKind{BasicI64}},
		{"IsFloat", IsFloat, []BasicKind{BasicF16, BasicF64LE}, []BasicKind{BasicComplex64}},
		{"IsUntyped", IsUntyped, []BasicKind{BasicUntypedNil, BasicUntypedFloat}, []BasicKind{BasicF32}},
		{"IsEndianSpecific", IsEndianSpecific, []BasicKind{BasicI32BE, BasicF32LE}, []BasicKind{BasicI32, BasicU8}},
		{"IsPointer", IsPointer, []BasicKind{BasicRawptr}, []BasicKind{BasicUintptr, BasicCstring}},
	}
	for _, tt := range cases {
		for _, k := range tt.yes {
			if !tt.fn(s.Basic(k)) {
				t.Fatalf("%s(%s) = false", tt.name, s.Basic(k))
			}
		}
		for _, k := range tt.no {
			if tt.fn(s.Basic(k)) {
				t.Fatalf("%s(%s) = true", tt.name, s.Basic(k))
			}
		}
	}
}

func TestEndianToPlatform(t *testing.T) {
	s := NewStore(nil)
	if got := s.EndianToPlatform(s.Basic(BasicU32BE)); got != s.Basic(BasicU32) {
		t.Fatalf("u32be -> %s", got)
	}
	if got := s.EndianToPlatform(s.Basic(BasicF64LE)); got != s.Basic(BasicF64) {
		t.Fatalf("f64le -> %s", got)
	}
	if got := s.EndianToPlatform(s.Basic(BasicI8)); got != s.Basic(BasicI8) {
		t.Fatalf("i8 -> %s", got)
	}
}

func TestNilAndComparison(t *testing.T) {
	s := NewStore(nil)
	i32 := s.Basic(BasicI32)
	str := s.Basic(BasicString)
	plain := structOf(s, fld("a", i32, 0, 0))
	withString := structOf(s, fld("a", str, 0, 0))
	withAny := structOf(s, fld("a", s.Basic(BasicAny), 0, 0))
	maybe := s.NewUnion(UnionSpec{Variants: []*Type{s.Pointer(i32)}})
	noNil := s.NewUnion(UnionSpec{Variants: []*Type{i32}, Kind: UnionNoNil})

	cases := []struct {
		name                string
		typ                 *Type
		hasNil, cmp, simple bool
	}{
		{"i32", i32, false, true, true},
		{"string", str, false, true, false},
		{"rawptr", s.Basic(BasicRawptr), true, true, true},
		{"any", s.Basic(BasicAny), true, false, false},
		{"pointer", s.Pointer(i32), true, true, true},
		{"slice", s.Slice(i32), true, false, false},
		{"map", s.Map(i32, i32), true, false, false},
		{"plain record", plain, false, true, true},
		{"record with string", withString, false, true, false},
		{"record with any", withAny, false, false, false},
		{"array", s.Array(i32, 3), false, true, true},
		{"maybe pointer", maybe, true, true, true},
		{"no nil union", noNil, false, true, true},
	}
	for _, tt := range cases {
		if got := HasNil(tt.typ); got != tt.hasNil {
			t.Fatalf("%s: HasNil = %v", tt.name, got)
		}
		if got := IsComparable(tt.typ); got != tt.cmp {
			t.Fatalf("%s: IsComparable = %v", tt.name, got)
		}
		if got := IsSimpleCompare(tt.typ); got != tt.simple {
			t.Fatalf("%s: IsSimpleCompare = %v", tt.name, got)
		}
	}
	if !IsUnionMaybePointer(maybe) || IsUnionMaybePointer(noNil) {
		t.Fatalf("maybe-pointer detection")
	}
}

func TestStructFieldIndexByName(t *testing.T) {
	s := NewStore(nil)
	st := declare(s, "S", structOf(s, fld("a", s.Basic(BasicI32), 0, 0), fld("b", s.Basic(BasicI32), 1, 0)))
	if StructFieldIndexByName(st, "b") != 1 || StructFieldIndexByName(st, "c") != -1 {
		t.Fatalf("field index lookup")
	}
}
