package types

import (
	"strconv"
	"strings"
)

// shortFieldLimit is the record size above which the short form elides fields.
const shortFieldLimit = 16

// TypeString renders t in source syntax.
func TypeString(t *Type) string {
	var w typeWriter
	w.write(t)
	return w.sb.String()
}

// TypeStringShort is TypeString with large records elided.
func TypeStringShort(t *Type) string {
	w := typeWriter{short: true}
	w.write(t)
	return w.sb.String()
}

// TypeStringPoly also prints the parameter lists of generic records.
func TypeStringPoly(t *Type) string {
	w := typeWriter{poly: true}
	w.write(t)
	return w.sb.String()
}

type typeWriter struct {
	sb    strings.Builder
	short bool
	poly  bool
}

func (w *typeWriter) str(s string) { w.sb.WriteString(s) }
func (w *typeWriter) int(n int64)  { w.sb.WriteString(strconv.FormatInt(n, 10)) }

func (w *typeWriter) sep(i int) {
	if i > 0 {
		w.str(", ")
	}
}

func (w *typeWriter) write(t *Type) {
	if t == nil {
		w.str("<no type>")
		return
	}
	switch t.kind {
	case KindBasic:
		w.str(t.Basic().Name)

	case KindNamed:
		if n := t.Named(); n.TypeName != nil || n.Name != "" {
			w.str(n.Name)
		} else {
			w.str("<named type>")
		}

	case KindGeneric:
		g := t.Generic()
		switch {
		case g.Name != "":
			w.str("$" + g.Name)
			if g.Specialized != nil {
				w.str("/")
				w.write(g.Specialized)
			}
		case g.TypeName != nil:
			w.str("$" + g.TypeName.Name)
		default:
			w.str("type")
		}

	case KindPointer:
		w.str("^")
		w.write(t.Pointer().Elem)
	case KindSoaPointer:
		w.str("#soa ^")
		w.write(t.SoaPointer().Elem)
	case KindMultiPointer:
		w.str("[^]")
		w.write(t.MultiPointer().Elem)

	case KindEnumeratedArray:
		a := t.EnumeratedArray()
		if a.Sparse {
			w.str("#sparse")
		}
		w.str("[")
		w.write(a.Index)
		w.str("]")
		w.write(a.Elem)

	case KindArray:
		a := t.Array()
		w.str("[")
		if a.GenericCount != nil {
			w.write(a.GenericCount)
		} else {
			w.int(a.Count)
		}
		w.str("]")
		w.write(a.Elem)
	case KindSlice:
		w.str("[]")
		w.write(t.Slice().Elem)
	case KindDynamicArray:
		w.str("[dynamic]")
		w.write(t.DynamicArray().Elem)

	case KindMap:
		m := t.Map()
		w.str("map[")
		w.write(m.Key)
		w.str("]")
		w.write(m.Value)

	case KindEnum:
		e := t.Enum()
		w.str("enum")
		if e.Base != nil {
			w.str(" ")
			w.write(e.Base)
		}
		w.str(" {")
		for i, f := range e.Fields {
			w.sep(i)
			w.str(f.Name)
		}
		w.str("}")

	case KindUnion:
		w.writeUnion(t)
	case KindStruct:
		w.writeStruct(t)
	case KindTuple:
		w.writeTuple(t.Tuple())
	case KindProc:
		w.writeProc(t.Proc())

	case KindBitSet:
		b := t.BitSet()
		w.str("bit_set[")
		switch {
		case b.Elem == nil:
			w.str("<unresolved>")
		case IsEnum(b.Elem):
			w.write(b.Elem)
		default:
			w.int(b.Lower)
			w.str("..=")
			w.int(b.Upper)
		}
		if b.Underlying != nil {
			w.str("; ")
			w.write(b.Underlying)
		}
		w.str("]")

	case KindSimdVector:
		v := t.SimdVector()
		w.str("#simd[")
		w.int(v.Count)
		w.str("]")
		w.write(v.Elem)

	case KindMatrix:
		m := t.Matrix()
		if m.RowMajor {
			w.str("#row_major ")
		}
		w.str("matrix[")
		w.int(m.Rows)
		w.str(", ")
		w.int(m.Cols)
		w.str("]")
		w.write(m.Elem)

	case KindBitField:
		bf := t.BitField()
		w.str("bit_field ")
		w.write(bf.Backing)
		w.str(" {")
		for i, f := range bf.Fields {
			w.sep(i)
			w.str(f.Name + ": ")
			w.write(f.Type)
			w.str(" | ")
			w.int(int64(bf.BitSizes[i]))
		}
		w.str(" }")

	default:
		w.str("<" + t.kind.String() + ">")
	}
}

func (w *typeWriter) writeUnion(t *Type) {
	u := t.Union()
	w.str("union")
	if w.poly && u.polyReady.Ready() && u.polyParams != nil {
		w.str("(")
		w.write(u.polyParams)
		w.str(")")
	}
	switch u.Kind {
	case UnionNoNil:
		w.str(" #no_nil")
	case UnionSharedNil:
		w.str(" #shared_nil")
	}
	if u.CustomAlign != 0 {
		w.str(" #align ")
		w.int(u.CustomAlign)
	}
	w.str(" {")
	for i, v := range u.Variants() {
		w.sep(i)
		w.write(v)
	}
	w.str("}")
}

func (w *typeWriter) writeStruct(t *Type) {
	st := t.Struct()
	switch st.SoaKind {
	case SoaFixed:
		w.str("#soa[")
		w.int(st.SoaCount)
		w.str("]")
		w.write(st.SoaElem)
		return
	case SoaSlice:
		w.str("#soa[]")
		w.write(st.SoaElem)
		return
	case SoaDynamic:
		w.str("#soa[dynamic]")
		w.write(st.SoaElem)
		return
	}

	w.str("struct")
	if w.poly && st.polyReady.Ready() && st.polyParams != nil {
		w.str("(")
		w.write(st.polyParams)
		w.str(")")
	}
	if st.Packed {
		w.str(" #packed")
	}
	if st.RawUnion {
		w.str(" #raw_union")
	}
	if st.CustomAlign != 0 {
		w.str(" #align ")
		w.int(st.CustomAlign)
	}
	w.str(" {")
	switch {
	case !st.FieldsReady():
		// never block a renderer on an unfinished declaration
		w.str("...")
	case w.short && len(st.fields) > shortFieldLimit:
		w.int(int64(len(st.fields)))
		w.str(" fields...")
	default:
		for i, f := range st.fields {
			w.sep(i)
			w.str(f.Name + ": ")
			w.write(f.Type)
		}
	}
	w.str("}")
}

func (w *typeWriter) writeTuple(tu *Tuple) {
	n := 0
	for _, v := range tu.Vars {
		if v == nil {
			continue
		}
		w.sep(n)
		n++
		switch v.Kind {
		case EntityConstant:
			w.str("$" + v.Name)
			if !IsUntyped(v.Type) {
				w.str(": ")
				w.write(v.Type)
				if v.Value != nil {
					w.str(" = " + v.Value.ExactString())
				}
			} else if v.Value != nil {
				w.str(" := " + v.Value.ExactString())
			}
		case EntityVariable:
			if v.Flags&EntityFlagCVararg != 0 {
				w.str("#c_vararg ")
			}
			if s := BaseType(v.Type); v.Flags&EntityFlagEllipsis != 0 && s != nil && s.kind == KindSlice {
				w.str("..")
				w.write(s.Slice().Elem)
			} else {
				w.write(v.Type)
			}
		default:
			if v.Type != nil && v.Type.kind == KindGeneric {
				w.str("$" + v.Name + ": typeid")
				if spec := v.Type.Generic().Specialized; spec != nil {
					w.str("/")
					w.write(spec)
				}
			} else {
				w.str("$" + v.Name + "=")
				w.write(v.Type)
			}
		}
	}
}

func (w *typeWriter) writeProc(p *Proc) {
	w.str("proc")
	if p.CC != CCNative && p.CC != CCInvalid {
		w.str(` "` + p.CC.String() + `" `)
	}
	w.str("(")
	if p.Params != nil {
		w.writeTuple(p.Params.Tuple())
	}
	w.str(")")
	if p.Results != nil {
		multi := len(p.Results.Tuple().Vars) > 1
		w.str(" -> ")
		if multi {
			w.str("(")
		}
		w.writeTuple(p.Results.Tuple())
		if multi {
			w.str(")")
		}
	}
}
