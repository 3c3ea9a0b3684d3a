package types

import (
	"fmt"
	"go/constant"
)

// IsPolymorphic reports whether t still depends on unresolved generic
// parameters. With orSpecialized, instantiations of generic records and
// tuples carrying bound constants count as well.
//
// Recursion through named types is bounded by a per-call visited set, so
// concurrent queries never observe each other's progress.
func IsPolymorphic(t *Type, orSpecialized bool) bool {
	return isPolymorphic(t, orSpecialized, make(map[*Type]struct{}))
}

func isPolymorphic(t *Type, orSpecialized bool, visited map[*Type]struct{}) bool {
	if t == nil {
		return false
	}
	rec := func(u *Type) bool { return isPolymorphic(u, orSpecialized, visited) }

	switch t.kind {
	case KindNamed:
		if t.HasFlag(FlagCheckingPolymorphic) {
			return false
		}
		if _, seen := visited[t]; seen {
			return false
		}
		visited[t] = struct{}{}
		return rec(t.Named().Base())

	case KindGeneric:
		return true

	case KindPointer:
		return rec(t.Pointer().Elem)
	case KindMultiPointer:
		return rec(t.MultiPointer().Elem)
	case KindSoaPointer:
		return rec(t.SoaPointer().Elem)
	case KindSlice:
		return rec(t.Slice().Elem)
	case KindDynamicArray:
		return rec(t.DynamicArray().Elem)

	case KindEnumeratedArray:
		a := t.EnumeratedArray()
		return rec(a.Index) || rec(a.Elem)

	case KindArray:
		a := t.Array()
		if a.GenericCount != nil {
			return true
		}
		return rec(a.Elem)

	case KindSimdVector:
		v := t.SimdVector()
		if v.GenericCount != nil {
			return true
		}
		return rec(v.Elem)

	case KindMatrix:
		m := t.Matrix()
		if m.GenericRows != nil || m.GenericCols != nil {
			return true
		}
		return rec(m.Elem)

	case KindTuple:
		for _, v := range t.Tuple().Vars {
			if v.Kind == EntityConstant {
				if v.Value != nil && v.Value.Kind() != constant.Unknown {
					return orSpecialized
				}
				continue
			}
			if rec(v.Type) {
				return true
			}
		}

	case KindProc:
		if t.HasFlag(FlagPolymorphic) {
			return true
		}
		p := t.Proc()
		return rec(p.Params) || rec(p.Results)

	case KindEnum:
		return rec(t.Enum().Base)

	case KindUnion:
		if t.HasFlag(FlagPolymorphic) {
			return true
		}
		if orSpecialized && t.HasFlag(FlagPolySpecialized) {
			return true
		}
		for _, v := range t.Union().Variants() {
			if rec(v) {
				return true
			}
		}

	case KindStruct:
		if t.HasFlag(FlagPolymorphic) {
			return true
		}
		if orSpecialized && t.HasFlag(FlagPolySpecialized) {
			return true
		}

	case KindMap:
		m := t.Map()
		return rec(m.Key) || rec(m.Value)

	case KindBitSet:
		b := t.BitSet()
		return rec(b.Elem) || rec(b.Underlying)
	}
	return false
}

// PolymorphicParams returns the parameter tuple of a generic record,
// blocking until the declaring checker publishes it.
func PolymorphicParams(t *Type) *Type {
	switch b := BaseType(t); {
	case b == nil:
		return nil
	case b.kind == KindStruct:
		st := b.Struct()
		st.polyReady.Wait()
		return st.polyParams
	case b.kind == KindUnion:
		u := b.Union()
		u.polyReady.Wait()
		return u.polyParams
	default:
		panic(fmt.Errorf("PolymorphicParams on %s type", b.kind))
	}
}

// PolymorphicParamsReady reports whether PolymorphicParams would return
// without blocking.
func PolymorphicParamsReady(t *Type) bool {
	switch b := BaseType(t); {
	case b == nil:
		return true
	case b.kind == KindStruct:
		return b.Struct().polyReady.Ready()
	case b.kind == KindUnion:
		return b.Union().polyReady.Ready()
	}
	return true
}
