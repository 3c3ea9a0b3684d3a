package types

// ProcOverload classifies why two procedure signatures may or may not
// share an overload set. Anything other than ProcOverloadIdentical is a
// usable distinction.
type ProcOverload uint8

const (
	ProcOverloadIdentical ProcOverload = iota
	ProcOverloadParamCount
	ProcOverloadParamVariadic
	ProcOverloadParamTypes
	ProcOverloadResultCount
	ProcOverloadResultTypes
	ProcOverloadPolymorphic
	ProcOverloadNotProcedure
)

var procOverloadNames = [...]string{
	ProcOverloadIdentical:     "identical",
	ProcOverloadParamCount:    "parameter count",
	ProcOverloadParamVariadic: "variadic parameter",
	ProcOverloadParamTypes:    "parameter types",
	ProcOverloadResultCount:   "result count",
	ProcOverloadResultTypes:   "result types",
	ProcOverloadPolymorphic:   "polymorphism",
	ProcOverloadNotProcedure:  "not a procedure",
}

func (k ProcOverload) String() string {
	if int(k) < len(procOverloadNames) {
		return procOverloadNames[k]
	}
	return "ProcOverload(?)"
}

// Safe reports whether the two signatures can coexist in an overload set.
func (k ProcOverload) Safe() bool {
	return k != ProcOverloadIdentical && k != ProcOverloadNotProcedure
}

// AreProcTypesOverloadSafe compares two signatures and returns the first
// distinguishing property found.
func (c Comparer) AreProcTypesOverloadSafe(x, y *Type) ProcOverload {
	if x == nil || y == nil {
		return ProcOverloadNotProcedure
	}
	x, y = BaseType(x), BaseType(y)
	if x.kind != KindProc || y.kind != KindProc {
		return ProcOverloadNotProcedure
	}
	px, py := x.Proc(), y.Proc()

	if px.ParamCount != py.ParamCount {
		return ProcOverloadParamCount
	}
	for i := 0; i < px.ParamCount; i++ {
		if !c.Identical(paramType(px.Params, i), paramType(py.Params, i)) {
			return ProcOverloadParamTypes
		}
	}
	// parameter types matched, so the variadic flag is the only shape left
	if px.Variadic != py.Variadic {
		return ProcOverloadParamVariadic
	}
	if x.HasFlag(FlagPolymorphic) != y.HasFlag(FlagPolymorphic) {
		return ProcOverloadPolymorphic
	}

	if px.ResultCount != py.ResultCount {
		return ProcOverloadResultCount
	}
	for i := 0; i < px.ResultCount; i++ {
		if !c.Identical(paramType(px.Results, i), paramType(py.Results, i)) {
			return ProcOverloadResultTypes
		}
	}

	// calling conventions do not distinguish overloads
	return ProcOverloadIdentical
}

// AreProcTypesOverloadSafe is Comparer.AreProcTypesOverloadSafe without an
// alignment source.
func AreProcTypesOverloadSafe(x, y *Type) ProcOverload {
	return Comparer{}.AreProcTypesOverloadSafe(x, y)
}

func paramType(tuple *Type, i int) *Type {
	if tuple == nil {
		return nil
	}
	vars := tuple.Tuple().Vars
	if i >= len(vars) {
		return nil
	}
	return vars[i].Type
}
