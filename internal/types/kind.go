package types

import "fmt"

// TypeID uniquely identifies a type node inside a Store.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind selects the payload carried by a Type.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBasic
	KindNamed
	KindGeneric
	KindPointer
	KindMultiPointer
	KindSoaPointer
	KindArray
	KindEnumeratedArray
	KindSlice
	KindDynamicArray
	KindMap
	KindStruct
	KindUnion
	KindEnum
	KindTuple
	KindProc
	KindBitSet
	KindSimdVector
	KindMatrix
	KindBitField
)

var kindNames = [...]string{
	KindInvalid:         "invalid",
	KindBasic:           "basic",
	KindNamed:           "named",
	KindGeneric:         "generic",
	KindPointer:         "pointer",
	KindMultiPointer:    "multi-pointer",
	KindSoaPointer:      "soa-pointer",
	KindArray:           "array",
	KindEnumeratedArray: "enumerated-array",
	KindSlice:           "slice",
	KindDynamicArray:    "dynamic-array",
	KindMap:             "map",
	KindStruct:          "struct",
	KindUnion:           "union",
	KindEnum:            "enum",
	KindTuple:           "tuple",
	KindProc:            "proc",
	KindBitSet:          "bit_set",
	KindSimdVector:      "simd-vector",
	KindMatrix:          "matrix",
	KindBitField:        "bit_field",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// TypeFlag is a bit in the per-node flag set.
type TypeFlag uint32

const (
	// FlagPolymorphic marks a generic record or procedure whose parameters are unresolved.
	FlagPolymorphic TypeFlag = 1 << iota
	// FlagPolySpecialized marks an instantiation of a generic record or procedure.
	FlagPolySpecialized
	// FlagCheckingPolymorphic is set by the checker while a generic definition is being resolved.
	FlagCheckingPolymorphic
	// FlagRequiresComparison marks nodes the checker must compare structurally.
	FlagRequiresComparison
)

// CallingConvention of a procedure type.
type CallingConvention uint8

const (
	CCInvalid CallingConvention = iota
	CCNative
	CCContextless
	CCC
	CCStdCall
	CCFastCall
	CCNone
	CCNaked
)

var ccNames = [...]string{
	CCInvalid:     "invalid",
	CCNative:      "native",
	CCContextless: "contextless",
	CCC:           "c",
	CCStdCall:     "stdcall",
	CCFastCall:    "fastcall",
	CCNone:        "none",
	CCNaked:       "naked",
}

func (cc CallingConvention) String() string {
	if int(cc) < len(ccNames) {
		return ccNames[cc]
	}
	return fmt.Sprintf("CallingConvention(%d)", cc)
}

// ParseCallingConvention maps a convention name to its value.
func ParseCallingConvention(name string) (CallingConvention, bool) {
	for i, n := range ccNames {
		if i != int(CCInvalid) && n == name {
			return CallingConvention(i), true // #nosec G115 -- small table
		}
	}
	return CCInvalid, false
}

// UnionKind distinguishes the nil behaviour of a tagged union.
type UnionKind uint8

const (
	UnionNormal UnionKind = iota
	UnionNoNil
	UnionSharedNil
)

// SoaKind is the struct-of-arrays form of a record.
type SoaKind uint8

const (
	SoaNone SoaKind = iota
	SoaFixed
	SoaSlice
	SoaDynamic
)
