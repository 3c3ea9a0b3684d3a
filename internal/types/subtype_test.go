package types

import "testing"

func TestSubtypeLevel(t *testing.T) {
	s := NewStore(nil)
	i32 := s.Basic(BasicI32)
	entity := declare(s, "Entity", structOf(s, fld("id", i32, 0, 0)))
	player := declare(s, "Player", structOf(s, fld("base", entity, 0, EntityFlagUsing), fld("hp", i32, 1, 0)))
	boss := declare(s, "Boss", structOf(s, fld("p", player, 0, EntityFlagSubtype)))
	plain := declare(s, "Plain", structOf(s, fld("e", entity, 0, 0)))

	loop := declare(s, "Loop", nil)
	s.SetBase(loop, structOf(s, fld("self", s.Pointer(loop), 0, EntityFlagUsing)))

	var c Comparer
	cases := []struct {
		name     string
		src, dst *Type
		want     int
	}{
		{"direct", player, entity, 1},
		{"nested", boss, entity, 2},
		{"pointer to pointer", s.Pointer(boss), s.Pointer(entity), 2},
		{"not using", plain, entity, 0},
		{"unrelated", entity, player, 0},
		{"self embedding", loop, entity, 0},
	}
	for _, tt := range cases {
		if got := c.SubtypeLevel(tt.src, tt.dst, false); got != tt.want {
			t.Fatalf("%s: level = %d, want %d", tt.name, got, tt.want)
		}
	}
	if !IsSubtypeOf(player, player) || !IsSubtypeOf(boss, entity) || IsSubtypeOf(plain, entity) {
		t.Fatalf("IsSubtypeOf")
	}
}

func TestSubtypeOfPolymorphicParent(t *testing.T) {
	s := NewStore(nil)
	gen := s.NewStruct(StructSpec{Polymorphic: true, PolyParams: s.NewTuple(nil, false)})
	spec := s.NewStruct(StructSpec{Fields: []*Entity{fld("v", s.Basic(BasicI32), 0, 0)}, PolyParent: gen})
	holder := structOf(s, fld("inner", spec, 0, EntityFlagUsing))
	var c Comparer
	if c.SubtypeLevel(holder, gen, false) != 0 {
		t.Fatalf("generic parent only matches when allowed")
	}
	if c.SubtypeLevel(holder, gen, true) != 1 {
		t.Fatalf("specialization should match its generic parent")
	}
}
