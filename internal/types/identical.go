package types

import (
	"go/constant"
	"go/token"
)

// Aligner supplies alignments when two records differ only in their
// custom alignment. The layout engine implements it.
type Aligner interface {
	AlignOf(t *Type) int64
}

// Comparer decides type identity. The zero value compares custom
// alignments literally; with an Aligner it compares the resulting
// alignments instead.
type Comparer struct {
	Aligner Aligner
}

// Identical reports whether x and y denote the same type. Parameter and
// result names are ignored.
func Identical(x, y *Type) bool { return Comparer{}.Identical(x, y) }

// IdenticalUniqueTuples is Identical that also requires tuple member names
// to match, as overload comparison does.
func IdenticalUniqueTuples(x, y *Type) bool { return Comparer{}.IdenticalUniqueTuples(x, y) }

func (c Comparer) Identical(x, y *Type) bool {
	return c.identicalTop(x, y, false)
}

func (c Comparer) IdenticalUniqueTuples(x, y *Type) bool {
	return c.identicalTop(x, y, true)
}

func (c Comparer) identicalTop(x, y *Type, names bool) bool {
	if x == y {
		return true
	}
	if x == nil || y == nil {
		return false
	}
	x, y = UnwrapAlias(x), UnwrapAlias(y)
	if x == y {
		return true
	}
	if x == nil || y == nil || x.kind != y.kind {
		return false
	}
	return c.identical(x, y, names)
}

func (c Comparer) same(x, y *Type) bool { return c.identicalTop(x, y, false) }

func (c Comparer) alignsEqual(x, y *Type, ax, ay int64) bool {
	if ax == ay {
		return true
	}
	if c.Aligner == nil {
		return false
	}
	return c.Aligner.AlignOf(x) == c.Aligner.AlignOf(y)
}

func (c Comparer) identical(x, y *Type, names bool) bool {
	if x == y {
		return true
	}
	if x == nil || y == nil {
		return false
	}

	switch x.kind {
	case KindGeneric:
		return c.same(x.Generic().Specialized, y.Generic().Specialized)

	case KindBasic:
		return x.Basic().Kind == y.Basic().Kind

	case KindEnumeratedArray:
		xa, ya := x.EnumeratedArray(), y.EnumeratedArray()
		return c.same(xa.Index, ya.Index) && c.same(xa.Elem, ya.Elem)

	case KindArray:
		xa, ya := x.Array(), y.Array()
		return xa.Count == ya.Count && c.same(xa.Elem, ya.Elem)

	case KindMatrix:
		xm, ym := x.Matrix(), y.Matrix()
		return xm.Rows == ym.Rows && xm.Cols == ym.Cols && xm.RowMajor == ym.RowMajor &&
			c.same(xm.Elem, ym.Elem)

	case KindDynamicArray:
		return c.same(x.DynamicArray().Elem, y.DynamicArray().Elem)

	case KindSlice:
		return c.same(x.Slice().Elem, y.Slice().Elem)

	case KindBitSet:
		xb, yb := x.BitSet(), y.BitSet()
		if !c.same(xb.Elem, yb.Elem) || !c.same(xb.Underlying, yb.Underlying) {
			return false
		}
		if IsEnum(xb.Elem) {
			return true
		}
		return xb.Lower == yb.Lower && xb.Upper == yb.Upper

	case KindEnum:
		return c.identicalEnum(x.Enum(), y.Enum())

	case KindUnion:
		xu, yu := x.Union(), y.Union()
		xv, yv := xu.Variants(), yu.Variants()
		if len(xv) != len(yv) || xu.Kind != yu.Kind {
			return false
		}
		if !c.alignsEqual(x, y, xu.CustomAlign, yu.CustomAlign) {
			return false
		}
		for i := range xv {
			if !c.same(xv[i], yv[i]) {
				return false
			}
		}
		return true

	case KindStruct:
		return c.identicalStruct(x, y)

	case KindPointer:
		return c.same(x.Pointer().Elem, y.Pointer().Elem)

	case KindMultiPointer:
		return c.same(x.MultiPointer().Elem, y.MultiPointer().Elem)

	case KindSoaPointer:
		return c.same(x.SoaPointer().Elem, y.SoaPointer().Elem)

	case KindNamed:
		xn, yn := x.Named(), y.Named()
		return xn.TypeName != nil && xn.TypeName == yn.TypeName

	case KindTuple:
		return c.identicalTuple(x.Tuple(), y.Tuple(), names)

	case KindProc:
		xp, yp := x.Proc(), y.Proc()
		return xp.CC == yp.CC &&
			xp.CVararg == yp.CVararg &&
			xp.Variadic == yp.Variadic &&
			xp.Diverging == yp.Diverging &&
			xp.OptionalOK == yp.OptionalOK &&
			c.identical(xp.Params, yp.Params, names) &&
			c.identical(xp.Results, yp.Results, names)

	case KindMap:
		xm, ym := x.Map(), y.Map()
		return c.same(xm.Key, ym.Key) && c.same(xm.Value, ym.Value)

	case KindSimdVector:
		xs, ys := x.SimdVector(), y.SimdVector()
		return xs.Count == ys.Count && c.same(xs.Elem, ys.Elem)

	case KindBitField:
		return c.identicalBitField(x.BitField(), y.BitField())
	}
	return false
}

func (c Comparer) identicalStruct(x, y *Type) bool {
	xs, ys := x.Struct(), y.Struct()
	xf, yf := xs.Fields(), ys.Fields()
	if xs.RawUnion != ys.RawUnion || len(xf) != len(yf) || xs.Packed != ys.Packed ||
		xs.SoaKind != ys.SoaKind || xs.SoaCount != ys.SoaCount || !c.same(xs.SoaElem, ys.SoaElem) {
		return false
	}
	if !c.alignsEqual(x, y, xs.CustomAlign, ys.CustomAlign) {
		return false
	}
	for i := range xf {
		a, b := xf[i], yf[i]
		if a.Kind != b.Kind || !c.same(a.Type, b.Type) || a.Name != b.Name {
			return false
		}
		if xs.Tag(i) != ys.Tag(i) {
			return false
		}
		if a.Flags&EntityFlagsIsSubtype != b.Flags&EntityFlagsIsSubtype {
			return false
		}
	}
	return true
}

func (c Comparer) identicalTuple(x, y *Tuple, names bool) bool {
	if len(x.Vars) != len(y.Vars) || x.Packed != y.Packed {
		return false
	}
	for i := range x.Vars {
		a, b := x.Vars[i], y.Vars[i]
		if a.Kind != b.Kind || !c.same(a.Type, b.Type) {
			return false
		}
		if names && a.Name != b.Name {
			return false
		}
		// distinguishes instantiations of one generic procedure
		if a.Kind == EntityConstant && !constantsEqual(a.Value, b.Value) {
			return false
		}
	}
	return true
}

func (c Comparer) identicalEnum(x, y *Enum) bool {
	if len(x.Fields) != len(y.Fields) || !c.same(x.Base, y.Base) {
		return false
	}
	if x.MinIndex != y.MinIndex || x.MaxIndex != y.MaxIndex {
		return false
	}
	for i := range x.Fields {
		a, b := x.Fields[i], y.Fields[i]
		if a.Name != b.Name || !constantsEqual(a.Value, b.Value) {
			return false
		}
	}
	return true
}

func (c Comparer) identicalBitField(x, y *BitField) bool {
	if !c.same(x.Backing, y.Backing) || len(x.Fields) != len(y.Fields) {
		return false
	}
	for i := range x.Fields {
		a, b := x.Fields[i], y.Fields[i]
		if !c.same(a.Type, b.Type) || a.Name != b.Name {
			return false
		}
		if x.BitSizes[i] != y.BitSizes[i] || x.BitOffsets[i] != y.BitOffsets[i] {
			return false
		}
	}
	return true
}

func constantsEqual(a, b constant.Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ka, kb := a.Kind(), b.Kind()
	if ka == constant.Unknown || kb == constant.Unknown {
		return ka == kb
	}
	if ka != kb && !(isNumericConst(ka) && isNumericConst(kb)) {
		return false
	}
	return constant.Compare(a, token.EQL, b)
}

func isNumericConst(k constant.Kind) bool {
	return k == constant.Int || k == constant.Float || k == constant.Complex
}

// UnionVariantIndex returns the tag value selecting v in union u: 1-based
// so 0 can mean nil, 0-based for #no_nil unions. -1 when v is not a variant.
func UnionVariantIndex(u, v *Type) int {
	b := BaseType(u)
	if b == nil || b.kind != KindUnion {
		return -1
	}
	un := b.Union()
	for i, variant := range un.Variants() {
		if Identical(v, variant) {
			if un.Kind == UnionNoNil {
				return i
			}
			return i + 1
		}
	}
	return -1
}
