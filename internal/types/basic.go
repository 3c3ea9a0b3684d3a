package types

// BasicKind identifies a primitive type.
type BasicKind uint8

const (
	BasicInvalid BasicKind = iota

	BasicLLVMBool
	BasicBool
	BasicB8
	BasicB16
	BasicB32
	BasicB64

	BasicI8
	BasicU8
	BasicI16
	BasicU16
	BasicI32
	BasicU32
	BasicI64
	BasicU64
	BasicI128
	BasicU128

	BasicRune

	BasicF16
	BasicF32
	BasicF64

	BasicComplex32
	BasicComplex64
	BasicComplex128

	BasicQuaternion64
	BasicQuaternion128
	BasicQuaternion256

	BasicInt
	BasicUint
	BasicUintptr
	BasicRawptr
	BasicString
	BasicCstring
	BasicAny
	BasicTypeid

	BasicI16LE
	BasicU16LE
	BasicI32LE
	BasicU32LE
	BasicI64LE
	BasicU64LE
	BasicI128LE
	BasicU128LE

	BasicI16BE
	BasicU16BE
	BasicI32BE
	BasicU32BE
	BasicI64BE
	BasicU64BE
	BasicI128BE
	BasicU128BE

	BasicF16LE
	BasicF32LE
	BasicF64LE

	BasicF16BE
	BasicF32BE
	BasicF64BE

	BasicUntypedBool
	BasicUntypedInteger
	BasicUntypedFloat
	BasicUntypedComplex
	BasicUntypedQuaternion
	BasicUntypedString
	BasicUntypedRune
	BasicUntypedNil
	BasicUntypedUninit

	basicKindCount
)

// BasicFlag classifies a primitive.
type BasicFlag uint32

const (
	BasicFlagBoolean BasicFlag = 1 << iota
	BasicFlagInteger
	BasicFlagUnsigned
	BasicFlagFloat
	BasicFlagComplex
	BasicFlagQuaternion
	BasicFlagPointer
	BasicFlagString
	BasicFlagRune
	BasicFlagUntyped
	BasicFlagLLVM
	BasicFlagEndianLittle
	BasicFlagEndianBig

	BasicFlagNumeric        = BasicFlagInteger | BasicFlagFloat | BasicFlagComplex | BasicFlagQuaternion
	BasicFlagOrdered        = BasicFlagInteger | BasicFlagFloat | BasicFlagString | BasicFlagPointer | BasicFlagRune
	BasicFlagOrderedNumeric = BasicFlagInteger | BasicFlagFloat | BasicFlagRune
	BasicFlagConstantType   = BasicFlagBoolean | BasicFlagNumeric | BasicFlagString | BasicFlagPointer | BasicFlagRune
	BasicFlagSimpleCompare  = BasicFlagBoolean | BasicFlagNumeric | BasicFlagPointer | BasicFlagRune
)

// SizeArchDependent marks primitives whose size comes from the target.
const SizeArchDependent int64 = -1

// BasicInfo is the payload of a KindBasic node.
type BasicInfo struct {
	Kind  BasicKind
	Flags BasicFlag
	Size  int64 // SizeArchDependent for int, uint, uintptr, rawptr, string, cstring
	Name  string
}

const (
	fLE      = BasicFlagEndianLittle
	fBE      = BasicFlagEndianBig
	fInt     = BasicFlagInteger
	fUint    = BasicFlagInteger | BasicFlagUnsigned
	fFloat   = BasicFlagFloat
	fUntyped = BasicFlagUntyped
)

var basicTable = [basicKindCount]BasicInfo{
	BasicInvalid: {BasicInvalid, 0, 0, "invalid type"},

	BasicLLVMBool: {BasicLLVMBool, BasicFlagBoolean | BasicFlagLLVM, 1, "llvm bool"},
	BasicBool:     {BasicBool, BasicFlagBoolean, 1, "bool"},
	BasicB8:       {BasicB8, BasicFlagBoolean, 1, "b8"},
	BasicB16:      {BasicB16, BasicFlagBoolean, 2, "b16"},
	BasicB32:      {BasicB32, BasicFlagBoolean, 4, "b32"},
	BasicB64:      {BasicB64, BasicFlagBoolean, 8, "b64"},

	BasicI8:   {BasicI8, fInt, 1, "i8"},
	BasicU8:   {BasicU8, fUint, 1, "u8"},
	BasicI16:  {BasicI16, fInt, 2, "i16"},
	BasicU16:  {BasicU16, fUint, 2, "u16"},
	BasicI32:  {BasicI32, fInt, 4, "i32"},
	BasicU32:  {BasicU32, fUint, 4, "u32"},
	BasicI64:  {BasicI64, fInt, 8, "i64"},
	BasicU64:  {BasicU64, fUint, 8, "u64"},
	BasicI128: {BasicI128, fInt, 16, "i128"},
	BasicU128: {BasicU128, fUint, 16, "u128"},

	BasicRune: {BasicRune, fInt | BasicFlagRune, 4, "rune"},

	BasicF16: {BasicF16, fFloat, 2, "f16"},
	BasicF32: {BasicF32, fFloat, 4, "f32"},
	BasicF64: {BasicF64, fFloat, 8, "f64"},

	BasicComplex32:  {BasicComplex32, BasicFlagComplex, 4, "complex32"},
	BasicComplex64:  {BasicComplex64, BasicFlagComplex, 8, "complex64"},
	BasicComplex128: {BasicComplex128, BasicFlagComplex, 16, "complex128"},

	BasicQuaternion64:  {BasicQuaternion64, BasicFlagQuaternion, 8, "quaternion64"},
	BasicQuaternion128: {BasicQuaternion128, BasicFlagQuaternion, 16, "quaternion128"},
	BasicQuaternion256: {BasicQuaternion256, BasicFlagQuaternion, 32, "quaternion256"},

	BasicInt:     {BasicInt, fInt, SizeArchDependent, "int"},
	BasicUint:    {BasicUint, fUint, SizeArchDependent, "uint"},
	BasicUintptr: {BasicUintptr, fUint, SizeArchDependent, "uintptr"},
	BasicRawptr:  {BasicRawptr, BasicFlagPointer, SizeArchDependent, "rawptr"},
	BasicString:  {BasicString, BasicFlagString, SizeArchDependent, "string"},
	BasicCstring: {BasicCstring, BasicFlagString, SizeArchDependent, "cstring"},
	BasicAny:     {BasicAny, 0, 16, "any"},
	BasicTypeid:  {BasicTypeid, 0, 8, "typeid"},

	BasicI16LE:  {BasicI16LE, fInt | fLE, 2, "i16le"},
	BasicU16LE:  {BasicU16LE, fUint | fLE, 2, "u16le"},
	BasicI32LE:  {BasicI32LE, fInt | fLE, 4, "i32le"},
	BasicU32LE:  {BasicU32LE, fUint | fLE, 4, "u32le"},
	BasicI64LE:  {BasicI64LE, fInt | fLE, 8, "i64le"},
	BasicU64LE:  {BasicU64LE, fUint | fLE, 8, "u64le"},
	BasicI128LE: {BasicI128LE, fInt | fLE, 16, "i128le"},
	BasicU128LE: {BasicU128LE, fUint | fLE, 16, "u128le"},

	BasicI16BE:  {BasicI16BE, fInt | fBE, 2, "i16be"},
	BasicU16BE:  {BasicU16BE, fUint | fBE, 2, "u16be"},
	BasicI32BE:  {BasicI32BE, fInt | fBE, 4, "i32be"},
	BasicU32BE:  {BasicU32BE, fUint | fBE, 4, "u32be"},
	BasicI64BE:  {BasicI64BE, fInt | fBE, 8, "i64be"},
	BasicU64BE:  {BasicU64BE, fUint | fBE, 8, "u64be"},
	BasicI128BE: {BasicI128BE, fInt | fBE, 16, "i128be"},
	BasicU128BE: {BasicU128BE, fUint | fBE, 16, "u128be"},

	BasicF16LE: {BasicF16LE, fFloat | fLE, 2, "f16le"},
	BasicF32LE: {BasicF32LE, fFloat | fLE, 4, "f32le"},
	BasicF64LE: {BasicF64LE, fFloat | fLE, 8, "f64le"},

	BasicF16BE: {BasicF16BE, fFloat | fBE, 2, "f16be"},
	BasicF32BE: {BasicF32BE, fFloat | fBE, 4, "f32be"},
	BasicF64BE: {BasicF64BE, fFloat | fBE, 8, "f64be"},

	BasicUntypedBool:       {BasicUntypedBool, BasicFlagBoolean | fUntyped, 0, "untyped bool"},
	BasicUntypedInteger:    {BasicUntypedInteger, fInt | fUntyped, 0, "untyped integer"},
	BasicUntypedFloat:      {BasicUntypedFloat, fFloat | fUntyped, 0, "untyped float"},
	BasicUntypedComplex:    {BasicUntypedComplex, BasicFlagComplex | fUntyped, 0, "untyped complex"},
	BasicUntypedQuaternion: {BasicUntypedQuaternion, BasicFlagQuaternion | fUntyped, 0, "untyped quaternion"},
	BasicUntypedString:     {BasicUntypedString, BasicFlagString | fUntyped, 0, "untyped string"},
	BasicUntypedRune:       {BasicUntypedRune, fInt | BasicFlagRune | fUntyped, 0, "untyped rune"},
	BasicUntypedNil:        {BasicUntypedNil, fUntyped, 0, "untyped nil"},
	BasicUntypedUninit:     {BasicUntypedUninit, fUntyped, 0, "untyped uninit"},
}

// Registry holds one immutable node per primitive kind.
// Built once per process; safe for concurrent reads.
type Registry struct {
	nodes  [basicKindCount]*Type
	byName map[string]*Type
}

// NewRegistry builds the primitive table. Node ids equal the BasicKind value,
// so BasicInvalid occupies NoTypeID.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]*Type, int(basicKindCount))}
	for k := BasicKind(0); k < basicKindCount; k++ {
		info := basicTable[k]
		t := newType(TypeID(k), KindBasic, &info)
		r.nodes[k] = t
		if k != BasicInvalid && info.Flags&BasicFlagUntyped == 0 && k != BasicLLVMBool {
			r.byName[info.Name] = t
		}
	}
	return r
}

// Type returns the node for kind. Out-of-range kinds yield the invalid node.
func (r *Registry) Type(kind BasicKind) *Type {
	if kind >= basicKindCount {
		return r.nodes[BasicInvalid]
	}
	return r.nodes[kind]
}

// ByName resolves a typed primitive by its source spelling.
func (r *Registry) ByName(name string) (*Type, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Info returns the static table entry for kind.
func (r *Registry) Info(kind BasicKind) BasicInfo {
	if kind >= basicKindCount {
		return basicTable[BasicInvalid]
	}
	return basicTable[kind]
}

// Len is the number of registry nodes, including the invalid one.
func (r *Registry) Len() int { return int(basicKindCount) }
