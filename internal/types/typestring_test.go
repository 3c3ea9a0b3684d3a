package types

import (
	"go/constant"
	"strings"
	"testing"
)

func TestTypeString(t *testing.T) {
	s := NewStore(nil)
	i32 := s.Basic(BasicI32)
	f32 := s.Basic(BasicF32)
	color := declare(s, "Color", enumOf(s, s.Basic(BasicU8), "Red", "Green"))

	cases := []struct {
		typ  *Type
		want string
	}{
		{i32, "i32"},
		{s.Pointer(i32), "^i32"},
		{s.MultiPointer(s.Basic(BasicU8)), "[^]u8"},
		{s.SoaPointer(i32), "#soa ^i32"},
		{s.Array(f32, 4), "[4]f32"},
		{s.Slice(s.Basic(BasicString)), "[]string"},
		{s.DynamicArray(i32), "[dynamic]i32"},
		{s.Map(s.Basic(BasicString), i32), "map[string]i32"},
		{s.SimdVector(f32, 4), "#simd[4]f32"},
		{s.Matrix(f32, 2, 3, true), "#row_major matrix[2, 3]f32"},
		{s.NewBitSet(nil, nil, 0, 7), "bit_set[<unresolved>]"},
		{s.NewBitSet(color, s.Basic(BasicU16), 0, 1), "bit_set[Color; u16]"},
		{s.NewBitSet(i32, nil, 2, 9), "bit_set[2..=9]"},
		{color, "Color"},
		{BaseType(color), "enum u8 {Red, Green}"},
		{structOf(s, fld("x", i32, 0, 0), fld("y", f32, 1, 0)), "struct {x: i32, y: f32}"},
		{s.NewStruct(StructSpec{Packed: true, CustomAlign: 4}), "struct #packed #align 4 {}"},
		{s.NewUnion(UnionSpec{Variants: []*Type{i32, f32}, Kind: UnionNoNil}), "union #no_nil {i32, f32}"},
		{s.NewProc(ProcSpec{
			Params:  []*Entity{NewParam("a", i32, 0), NewParam("rest", s.Slice(f32), EntityFlagEllipsis)},
			Results: []*Entity{NewParam("", i32, 0), NewParam("", s.Basic(BasicBool), 0)},
			CC:      CCC,
		}), `proc "c" (i32, ..f32) -> (i32, bool)`},
		{s.NewProc(ProcSpec{Results: []*Entity{NewParam("", i32, 0)}}), "proc() -> i32"},
		{s.NewTuple([]*Entity{NewConstant("N", i32, constant.MakeInt64(4))}, false), "$N: i32 = 4"},
		{s.NewGeneric("T", nil, i32, nil), "$T/i32"},
		{s.NewBitField(s.Basic(BasicU8), []*Entity{fld("lo", s.Basic(BasicU8), 0, 0)}, []uint8{4}, nil), "bit_field u8 {lo: u8 | 4 }"},
		{nil, "<no type>"},
	}
	for _, tt := range cases {
		if got := TypeString(tt.typ); got != tt.want {
			t.Fatalf("TypeString = %q, want %q", got, tt.want)
		}
	}
}

func TestTypeStringShortElidesLargeRecords(t *testing.T) {
	s := NewStore(nil)
	fields := make([]*Entity, 20)
	for i := range fields {
		fields[i] = fld(strings.Repeat("f", i+1), s.Basic(BasicU8), i, 0)
	}
	rec := structOf(s, fields...)
	if got := TypeStringShort(rec); got != "struct {20 fields...}" {
		t.Fatalf("short = %q", got)
	}
	if got := TypeString(rec); !strings.Contains(got, "ffffffffffffffffffff: u8") {
		t.Fatalf("full rendering lost fields: %q", got)
	}
	pending := s.NewPendingStruct(StructSpec{})
	if got := pending.String(); got != "struct {...}" {
		t.Fatalf("pending = %q", got)
	}
}
