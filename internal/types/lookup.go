package types

import (
	"fmt"
	"strings"
)

const blankIdent = "_"

// LookupField resolves name as a member of t. isType selects the lookup on
// a type expression (enum constants, record-scoped declarations) rather
// than on a value. A miss yields an empty Selection.
func (s *Store) LookupField(t *Type, name string, isType bool) Selection {
	sel := s.LookupFieldWith(t, name, isType, Selection{}, false)
	if !sel.Found() {
		return Selection{}
	}
	return sel
}

// LookupFieldWith continues a lookup from sel. allowBlank lets internal
// callers resolve "_".
func (s *Store) LookupFieldWith(t *Type, name string, isType bool, sel Selection, allowBlank bool) Selection {
	if t == nil {
		panic("LookupField on nil type")
	}
	if !allowBlank && name == blankIdent {
		return Selection{}
	}

	typ := Deref(t)
	sel.Indirect = sel.Indirect || typ != t
	b := BaseType(typ)
	if b == nil {
		return sel
	}

	if isType {
		return s.lookupOnType(b, name, sel, allowBlank)
	}

	switch b.kind {
	case KindStruct:
		return s.lookupStruct(b, name, sel, allowBlank)

	case KindBitField:
		for i, f := range b.BitField().Fields {
			if f.IsField() && f.Name == name {
				sel = sel.With(i)
				sel.Entity = f
				sel.IsBitField = true
				return sel
			}
		}

	case KindBasic:
		return s.lookupBasic(b.Basic().Kind, name, sel)

	case KindDynamicArray:
		if name == "allocator" {
			sel = sel.With(3)
			sel.Entity = s.synthetic("dynamic.allocator", "allocator", s.Allocator(), 3)
			return sel
		}

	case KindMap:
		if name == "allocator" {
			sel = sel.With(2)
			sel.Entity = s.synthetic("map.allocator", "allocator", s.Allocator(), 2)
			return sel
		}

	case KindArray:
		a := b.Array()
		return s.lookupSwizzle(a.Elem, a.Count, name, sel)

	case KindSimdVector:
		v := b.SimdVector()
		return s.lookupSwizzle(v.Elem, v.Count, name, sel)
	}
	return sel
}

func (s *Store) lookupOnType(b *Type, name string, sel Selection, allowBlank bool) Selection {
	switch b.kind {
	case KindEnum:
		for _, f := range b.Enum().Fields {
			if f.Name == name {
				sel.Entity = f
				return sel
			}
		}
	case KindStruct:
		if found := b.Struct().Scope.LookupCurrent(name); found != nil && found.Kind != EntityVariable {
			sel.Entity = found
			return sel
		}
	case KindUnion:
		if found := b.Union().Scope.LookupCurrent(name); found != nil && found.Kind != EntityVariable {
			sel.Entity = found
			return sel
		}
	case KindBitSet:
		if elem := b.BitSet().Elem; elem != nil {
			return s.LookupFieldWith(elem, name, true, sel, allowBlank)
		}
	case KindGeneric:
		if spec := b.Generic().Specialized; spec != nil {
			return s.LookupFieldWith(spec, name, true, sel, allowBlank)
		}
	}
	return sel
}

func (s *Store) lookupStruct(b *Type, name string, sel Selection, allowBlank bool) Selection {
	if IsPolymorphic(b, false) {
		// a generic record has no fields until specialized
		return sel
	}
	st := b.Struct()
	for i, f := range st.Fields() {
		if !f.IsField() {
			continue
		}
		if f.Name == name {
			sel = sel.With(i)
			sel.Entity = f
			return sel
		}
		if f.Flags&EntityFlagUsing != 0 {
			cand := s.LookupFieldWith(f.Type, name, false, sel.With(i), allowBlank)
			if cand.Found() {
				if IsPointer(f.Type) {
					cand.Indirect = true
				}
				return cand
			}
		}
	}

	if st.SoaKind != SoaNone && IsArray(st.SoaElem) {
		if mapped := colorToCoord(name); mapped != "" {
			return s.LookupFieldWith(b, mapped, false, sel, allowBlank)
		}
	}
	return sel
}

func colorToCoord(name string) string {
	switch name {
	case "r":
		return "x"
	case "g":
		return "y"
	case "b":
		return "z"
	case "a":
		return "w"
	}
	return ""
}

func (s *Store) lookupBasic(kind BasicKind, name string, sel Selection) Selection {
	var comps string
	var elem BasicKind
	switch kind {
	case BasicAny:
		switch name {
		case "data":
			sel = sel.With(0)
			sel.Entity = s.synthetic("any.data", "data", s.Basic(BasicRawptr), 0)
		case "id":
			sel = sel.With(1)
			sel.Entity = s.synthetic("any.id", "id", s.Basic(BasicTypeid), 1)
		}
		return sel
	case BasicComplex32:
		comps, elem = "xy", BasicF16
	case BasicComplex64:
		comps, elem = "xy", BasicF32
	case BasicComplex128:
		comps, elem = "xy", BasicF64
	case BasicUntypedComplex:
		comps, elem = "xy", BasicUntypedFloat
	case BasicQuaternion64:
		comps, elem = "xyzw", BasicF16
	case BasicQuaternion128:
		comps, elem = "xyzw", BasicF32
	case BasicQuaternion256:
		comps, elem = "xyzw", BasicF64
	case BasicUntypedQuaternion:
		comps, elem = "xyzw", BasicUntypedFloat
	default:
		return sel
	}
	// memory order is x y z w; the real part w is last
	i := strings.Index(comps, name)
	if len(name) != 1 || i < 0 {
		return sel
	}
	sel = sel.With(i)
	key := fmt.Sprintf("%s.%s", s.Basic(kind).Basic().Name, name)
	sel.Entity = s.synthetic(key, name, s.Basic(elem), i)
	return sel
}

const (
	coordNames = "xyzw"
	colorNames = "rgba"
)

func (s *Store) lookupSwizzle(elem *Type, count int64, name string, sel Selection) Selection {
	if count > 4 || len(name) == 0 || len(name) > 4 {
		return sel
	}
	set := coordNames
	if strings.IndexByte(coordNames, name[0]) < 0 {
		set = colorNames
	}
	var packed uint8
	for i := 0; i < len(name); i++ {
		idx := strings.IndexByte(set, name[i])
		if idx < 0 || int64(idx) >= count {
			return sel
		}
		packed |= uint8(idx) << (2 * uint(i)) // #nosec G115 -- idx < 4
	}
	if len(name) == 1 {
		idx := int(packed)
		sel = sel.With(idx)
		sel.Entity = &Entity{
			Kind: EntityVariable, Name: name, Type: elem,
			Flags: EntityFlagField | EntityFlagSynthetic, FieldIndex: int32(idx), // #nosec G115
		}
		return sel
	}
	sel.SwizzleCount = uint8(len(name)) // #nosec G115 -- at most 4
	sel.SwizzleIndices = packed
	sel.Entity = &Entity{
		Kind: EntityVariable, Name: name, Type: s.Array(elem, int64(len(name))),
		Flags: EntityFlagSynthetic,
	}
	return sel
}

// synthetic returns the store-wide member entity for a built-in kind.
func (s *Store) synthetic(key, name string, t *Type, index int) *Entity {
	if e, ok := s.synth.Load(key); ok {
		return e.(*Entity)
	}
	e := &Entity{
		Kind: EntityVariable, Name: name, Type: t,
		Flags: EntityFlagField | EntityFlagSynthetic, FieldIndex: int32(index), // #nosec G115
	}
	actual, _ := s.synth.LoadOrStore(key, e)
	return actual.(*Entity)
}

// LookupFieldFromIndex returns the selection of the member whose source
// index is index. It panics when a record has no such member.
func (s *Store) LookupFieldFromIndex(t *Type, index int) Selection {
	b := BaseType(t)
	switch {
	case b == nil:
		panic("LookupFieldFromIndex on nil type")
	case b.kind == KindStruct:
		fields := b.Struct().Fields()
		if index >= len(fields) {
			return Selection{}
		}
		for i, f := range fields {
			if f.Kind == EntityVariable && int(f.FieldIndex) == index {
				return Selection{Entity: f, Index: []int32{int32(i)}} // #nosec G115
			}
		}
	case b.kind == KindTuple:
		vars := b.Tuple().Vars
		if index >= len(vars) {
			return Selection{}
		}
		return Selection{Entity: vars[index], Index: []int32{int32(index)}} // #nosec G115
	case b.kind == KindUnion:
		return Selection{}
	default:
		panic(fmt.Errorf("LookupFieldFromIndex on %s type", b.kind))
	}
	panic(fmt.Errorf("illegal field index %d", index))
}
