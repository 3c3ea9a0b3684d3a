package types

// BaseType strips named types down to their underlying definition.
// An unresolved named type is returned as is.
func BaseType(t *Type) *Type {
	for t != nil && t.kind == KindNamed {
		b := t.Named().Base()
		if b == nil {
			break
		}
		t = b
	}
	return t
}

// UnwrapAlias follows alias declarations only; distinct named types stay.
func UnwrapAlias(t *Type) *Type {
	for t != nil && t.kind == KindNamed {
		n := t.Named()
		if !n.Alias || n.Base() == nil {
			break
		}
		t = n.Base()
	}
	return t
}

// CoreType is BaseType that also looks through specialized generics.
func CoreType(t *Type) *Type {
	for {
		t = BaseType(t)
		if t == nil || t.kind != KindGeneric || t.Generic().Specialized == nil {
			return t
		}
		t = t.Generic().Specialized
	}
}

// Deref removes one pointer or soa-pointer layer.
func Deref(t *Type) *Type {
	switch b := BaseType(t); {
	case b == nil:
		return t
	case b.kind == KindPointer:
		return b.Pointer().Elem
	case b.kind == KindSoaPointer:
		return b.SoaPointer().Elem
	}
	return t
}

func basicFlags(t *Type) BasicFlag {
	if b := BaseType(t); b != nil && b.kind == KindBasic {
		return b.Basic().Flags
	}
	return 0
}

func basicKind(t *Type) BasicKind {
	if b := BaseType(t); b != nil && b.kind == KindBasic {
		return b.Basic().Kind
	}
	return BasicInvalid
}

func kindOf(t *Type) Kind {
	if b := BaseType(t); b != nil {
		return b.kind
	}
	return KindInvalid
}

func IsUntyped(t *Type) bool    { return basicFlags(t)&BasicFlagUntyped != 0 }
func IsTyped(t *Type) bool      { return t != nil && !IsUntyped(t) }
func IsBoolean(t *Type) bool    { return basicFlags(t)&BasicFlagBoolean != 0 }
func IsInteger(t *Type) bool    { return basicFlags(t)&BasicFlagInteger != 0 }
func IsUnsigned(t *Type) bool   { return basicFlags(t)&BasicFlagUnsigned != 0 }
func IsFloat(t *Type) bool      { return basicFlags(t)&BasicFlagFloat != 0 }
func IsComplex(t *Type) bool    { return basicFlags(t)&BasicFlagComplex != 0 }
func IsQuaternion(t *Type) bool { return basicFlags(t)&BasicFlagQuaternion != 0 }
func IsNumeric(t *Type) bool    { return basicFlags(t)&BasicFlagNumeric != 0 }
func IsString(t *Type) bool     { return basicFlags(t)&BasicFlagString != 0 }
func IsRune(t *Type) bool       { return basicFlags(t)&BasicFlagRune != 0 }
func IsCstring(t *Type) bool    { return basicKind(t) == BasicCstring }
func IsRawptr(t *Type) bool     { return basicKind(t) == BasicRawptr }
func IsAny(t *Type) bool        { return basicKind(t) == BasicAny }
func IsTypeid(t *Type) bool     { return basicKind(t) == BasicTypeid }

// IsPointer covers ^T and rawptr.
func IsPointer(t *Type) bool {
	return kindOf(t) == KindPointer || basicFlags(t)&BasicFlagPointer != 0
}

func IsMultiPointer(t *Type) bool    { return kindOf(t) == KindMultiPointer }
func IsSoaPointer(t *Type) bool      { return kindOf(t) == KindSoaPointer }
func IsProc(t *Type) bool            { return kindOf(t) == KindProc }
func IsUnion(t *Type) bool           { return kindOf(t) == KindUnion }
func IsEnum(t *Type) bool            { return kindOf(t) == KindEnum }
func IsTuple(t *Type) bool           { return kindOf(t) == KindTuple }
func IsArray(t *Type) bool           { return kindOf(t) == KindArray }
func IsEnumeratedArray(t *Type) bool { return kindOf(t) == KindEnumeratedArray }
func IsSlice(t *Type) bool           { return kindOf(t) == KindSlice }
func IsDynamicArray(t *Type) bool    { return kindOf(t) == KindDynamicArray }
func IsMap(t *Type) bool             { return kindOf(t) == KindMap }
func IsBitSet(t *Type) bool          { return kindOf(t) == KindBitSet }
func IsSimdVector(t *Type) bool      { return kindOf(t) == KindSimdVector }
func IsMatrix(t *Type) bool          { return kindOf(t) == KindMatrix }
func IsBitField(t *Type) bool        { return kindOf(t) == KindBitField }
func IsGeneric(t *Type) bool         { return kindOf(t) == KindGeneric }

// IsStruct reports records, raw unions included.
func IsStruct(t *Type) bool { return kindOf(t) == KindStruct }

func IsRawUnion(t *Type) bool {
	b := BaseType(t)
	return b != nil && b.kind == KindStruct && b.Struct().RawUnion
}

func IsSoaStruct(t *Type) bool {
	b := BaseType(t)
	return b != nil && b.kind == KindStruct && b.Struct().SoaKind != SoaNone
}

func IsEndianLittle(t *Type) bool { return basicFlags(t)&BasicFlagEndianLittle != 0 }
func IsEndianBig(t *Type) bool    { return basicFlags(t)&BasicFlagEndianBig != 0 }

// IsEndianSpecific reports i32le, u64be and friends.
func IsEndianSpecific(t *Type) bool {
	return basicFlags(t)&(BasicFlagEndianLittle|BasicFlagEndianBig) != 0
}

var endianToPlatform = map[BasicKind]BasicKind{
	BasicI16LE: BasicI16, BasicU16LE: BasicU16, BasicI32LE: BasicI32, BasicU32LE: BasicU32,
	BasicI64LE: BasicI64, BasicU64LE: BasicU64, BasicI128LE: BasicI128, BasicU128LE: BasicU128,
	BasicI16BE: BasicI16, BasicU16BE: BasicU16, BasicI32BE: BasicI32, BasicU32BE: BasicU32,
	BasicI64BE: BasicI64, BasicU64BE: BasicU64, BasicI128BE: BasicI128, BasicU128BE: BasicU128,
	BasicF16LE: BasicF16, BasicF32LE: BasicF32, BasicF64LE: BasicF64,
	BasicF16BE: BasicF16, BasicF32BE: BasicF32, BasicF64BE: BasicF64,
}

// EndianToPlatform maps an endian-specific primitive to the plain one of the
// same width. Other types are returned unchanged.
func (s *Store) EndianToPlatform(t *Type) *Type {
	if k, ok := endianToPlatform[basicKind(t)]; ok {
		return s.Basic(k)
	}
	return t
}

// IsInternallyPointerLike reports types whose zero value is a null pointer:
// ^T, rawptr, [^]T, cstring and procedures.
func IsInternallyPointerLike(t *Type) bool {
	return IsPointer(t) || IsMultiPointer(t) || IsCstring(t) || IsProc(t)
}

// IsUnionMaybePointer reports a union with a single pointer-like variant.
// Such a union has no tag; nil is the variant's null pointer.
func IsUnionMaybePointer(t *Type) bool {
	b := BaseType(t)
	if b == nil || b.kind != KindUnion {
		return false
	}
	vs := b.Union().Variants()
	return len(vs) == 1 && IsInternallyPointerLike(vs[0])
}

// HasNil reports whether the type has a nil value.
func HasNil(t *Type) bool {
	b := BaseType(t)
	if b == nil {
		return false
	}
	switch b.kind {
	case KindBasic:
		switch b.Basic().Kind {
		case BasicRawptr, BasicAny, BasicCstring, BasicTypeid, BasicUntypedNil:
			return true
		}
		return false
	case KindEnum, KindBitSet, KindSlice, KindProc, KindPointer, KindSoaPointer,
		KindMultiPointer, KindDynamicArray, KindMap:
		return true
	case KindUnion:
		return b.Union().Kind != UnionNoNil
	case KindStruct:
		switch b.Struct().SoaKind {
		case SoaSlice, SoaDynamic:
			return true
		}
	}
	return false
}

// IsComparable reports whether == is defined on values of t.
func IsComparable(t *Type) bool {
	b := BaseType(t)
	if b == nil {
		return false
	}
	switch b.kind {
	case KindBasic:
		switch b.Basic().Kind {
		case BasicUntypedNil, BasicAny:
			return false
		}
		return true
	case KindPointer, KindSoaPointer, KindMultiPointer, KindProc, KindBitSet, KindSimdVector:
		return true
	case KindEnum:
		return IsComparable(b.Enum().Base)
	case KindEnumeratedArray:
		return IsComparable(b.EnumeratedArray().Elem)
	case KindArray:
		return IsComparable(b.Array().Elem)
	case KindMatrix:
		return IsComparable(b.Matrix().Elem)
	case KindStruct:
		st := b.Struct()
		if st.SoaKind != SoaNone {
			return false
		}
		if st.RawUnion {
			return IsSimpleCompare(b)
		}
		for _, f := range st.Fields() {
			if !IsComparable(f.Type) {
				return false
			}
		}
		return true
	case KindUnion:
		for _, v := range b.Union().Variants() {
			if !IsComparable(v) {
				return false
			}
		}
		return true
	case KindBitField:
		return IsComparable(b.BitField().Backing)
	}
	return false
}

// IsSimpleCompare reports types comparable with a plain memory compare.
func IsSimpleCompare(t *Type) bool {
	b := CoreType(t)
	if b == nil {
		return false
	}
	switch b.kind {
	case KindArray:
		return IsSimpleCompare(b.Array().Elem)
	case KindEnumeratedArray:
		return IsSimpleCompare(b.EnumeratedArray().Elem)
	case KindBasic:
		return b.Basic().Flags&BasicFlagSimpleCompare != 0 || b.Basic().Kind == BasicTypeid
	case KindPointer, KindMultiPointer, KindSoaPointer, KindProc, KindBitSet:
		return true
	case KindEnum:
		return IsSimpleCompare(b.Enum().Base)
	case KindMatrix:
		return IsSimpleCompare(b.Matrix().Elem)
	case KindStruct:
		for _, f := range b.Struct().Fields() {
			if !IsSimpleCompare(f.Type) {
				return false
			}
		}
		return true
	case KindUnion:
		vs := b.Union().Variants()
		for _, v := range vs {
			if !IsSimpleCompare(v) {
				return false
			}
		}
		return len(vs) == 1
	case KindSimdVector:
		return IsSimpleCompare(b.SimdVector().Elem)
	}
	return false
}

// StructFieldIndexByName returns the position of a direct data member.
func StructFieldIndexByName(t *Type, name string) int {
	b := BaseType(t)
	if b == nil || b.kind != KindStruct {
		return -1
	}
	for i, f := range b.Struct().Fields() {
		if f.IsField() && f.Name == name {
			return i
		}
	}
	return -1
}
