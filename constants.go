// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package movebc

// Magic is the fixed prefix every Move VM bytecode binary starts with,
// before the ULEB128-encoded format version.
var Magic = [4]byte{0xA1, 0x1C, 0xEB, 0x0B}

// Format version history. Gates referenced throughout the decoder:
// friend decls >= VersionFriendDecls, phantom type parameters >=
// VersionPhantomTypeParams, vector opcodes >= VersionVectors, the metadata
// table and entry-function flag >= VersionMetadata, 16/32/256-bit integer
// types and opcodes >= VersionU16U32U256.
const (
	VersionMin = uint32(1)

	VersionDeprecatedKindShim = uint32(1)
	VersionAbilities          = uint32(2)
	VersionFriendDecls        = uint32(2)
	VersionPhantomTypeParams  = uint32(3)
	VersionVectors            = uint32(4)
	VersionMetadata           = uint32(5)
	VersionU16U32U256         = uint32(6)

	VersionMax = uint32(6)
)

// TableType identifies one of the table-of-contents entries in the binary
// format's header.
type TableType uint8

// Table kind byte values, exactly as they appear in the wire format.
const (
	TableModuleHandles           TableType = 0x01
	TableStructHandles           TableType = 0x02
	TableFunctionHandles         TableType = 0x03
	TableFunctionInstantiations  TableType = 0x04
	TableSignatures              TableType = 0x05
	TableConstantPool            TableType = 0x06
	TableIdentifiers             TableType = 0x07
	TableAddressIdentifiers      TableType = 0x08
	TableStructDefs              TableType = 0x0A
	TableStructDefInstantiations TableType = 0x0B
	TableFunctionDefs            TableType = 0x0C
	TableFieldHandles            TableType = 0x0D
	TableFieldInstantiations     TableType = 0x0E
	TableFriendDecls             TableType = 0x0F
	TableMetadata                TableType = 0x10
)

func (t TableType) String() string {
	switch t {
	case TableModuleHandles:
		return "ModuleHandles"
	case TableStructHandles:
		return "StructHandles"
	case TableFunctionHandles:
		return "FunctionHandles"
	case TableFunctionInstantiations:
		return "FunctionInstantiations"
	case TableSignatures:
		return "Signatures"
	case TableConstantPool:
		return "ConstantPool"
	case TableIdentifiers:
		return "Identifiers"
	case TableAddressIdentifiers:
		return "AddressIdentifiers"
	case TableStructDefs:
		return "StructDefs"
	case TableStructDefInstantiations:
		return "StructDefInstantiations"
	case TableFunctionDefs:
		return "FunctionDefs"
	case TableFieldHandles:
		return "FieldHandles"
	case TableFieldInstantiations:
		return "FieldInstantiations"
	case TableFriendDecls:
		return "FriendDecls"
	case TableMetadata:
		return "Metadata"
	default:
		return "Unknown"
	}
}

// isKnownTableType reports whether b is one of the recognized table kind
// bytes.
func isKnownTableType(b byte) (TableType, bool) {
	switch TableType(b) {
	case TableModuleHandles, TableStructHandles, TableFunctionHandles,
		TableFunctionInstantiations, TableSignatures, TableConstantPool,
		TableIdentifiers, TableAddressIdentifiers, TableStructDefs,
		TableStructDefInstantiations, TableFunctionDefs, TableFieldHandles,
		TableFieldInstantiations, TableFriendDecls, TableMetadata:
		return TableType(b), true
	default:
		return 0, false
	}
}

// scriptForbiddenTables lists the table kinds a CompiledScript's directory
// may never contain.
var scriptForbiddenTables = map[TableType]bool{
	TableStructDefs:              true,
	TableStructDefInstantiations: true,
	TableFunctionDefs:            true,
	TableFieldHandles:            true,
	TableFieldInstantiations:     true,
	TableFriendDecls:             true,
}

// SerializedType is the one-byte tag that precedes a SignatureToken node in
// the wire format.
type SerializedType uint8

// Serialized-type tag byte values.
const (
	SerBool             SerializedType = 0x01
	SerU8               SerializedType = 0x02
	SerU64              SerializedType = 0x03
	SerU128             SerializedType = 0x04
	SerAddress          SerializedType = 0x05
	SerReference        SerializedType = 0x06
	SerMutableReference SerializedType = 0x07
	SerStruct           SerializedType = 0x08
	SerTypeParameter    SerializedType = 0x09
	SerVector           SerializedType = 0x0A
	SerStructInst       SerializedType = 0x0B
	SerSigner           SerializedType = 0x0C
	SerU16              SerializedType = 0x0D
	SerU32              SerializedType = 0x0E
	SerU256             SerializedType = 0x0F
)

// Opcode identifies one bytecode instruction. Values are contiguous from
// OpPop through OpCastU256; this contiguous range is the format's wire
// specification surface and must match exactly.
type Opcode uint8

// Opcode byte values, 0x01..0x4D.
const (
	OpPop Opcode = iota + 0x01
	OpRet
	OpBrTrue
	OpBrFalse
	OpBranch
	OpLdU64
	OpLdConst
	OpLdTrue
	OpLdFalse
	OpCopyLoc
	OpMoveLoc
	OpStLoc
	OpMutBorrowLoc
	OpImmBorrowLoc
	OpMutBorrowField
	OpImmBorrowField
	OpCall
	OpPack
	OpUnpack
	OpReadRef
	OpWriteRef
	OpAdd
	OpSub
	OpMul
	OpMod
	OpDiv
	OpBitOr
	OpBitAnd
	OpXor
	OpOr
	OpAnd
	OpNot
	OpEq
	OpNeq
	OpLt
	OpGt
	OpLe
	OpGe
	OpAbort
	OpNop
	OpExists
	OpMutBorrowGlobal
	OpImmBorrowGlobal
	OpMoveFrom
	OpMoveTo
	OpFreezeRef
	OpShl
	OpShr
	OpLdU8
	OpLdU128
	OpCastU8
	OpCastU64
	OpCastU128
	OpMutBorrowFieldGeneric
	OpImmBorrowFieldGeneric
	OpCallGeneric
	OpPackGeneric
	OpUnpackGeneric
	OpExistsGeneric
	OpMutBorrowGlobalGeneric
	OpImmBorrowGlobalGeneric
	OpMoveFromGeneric
	OpMoveToGeneric
	OpVecPack
	OpVecLen
	OpVecImmBorrow
	OpVecMutBorrow
	OpVecPushBack
	OpVecPopBack
	OpVecUnpack
	OpVecSwap
	OpLdU16
	OpLdU32
	OpLdU256
	OpCastU16
	OpCastU32
	OpCastU256
)

const (
	opcodeMin = OpPop
	opcodeMax = OpCastU256
)

// vectorOpcodes are gated behind VersionVectors.
var vectorOpcodes = map[Opcode]bool{
	OpVecPack: true, OpVecLen: true, OpVecImmBorrow: true,
	OpVecMutBorrow: true, OpVecPushBack: true, OpVecPopBack: true,
	OpVecUnpack: true, OpVecSwap: true,
}

// wideIntOpcodes are gated behind VersionU16U32U256.
var wideIntOpcodes = map[Opcode]bool{
	OpLdU16: true, OpLdU32: true, OpLdU256: true,
	OpCastU16: true, OpCastU32: true, OpCastU256: true,
}

// AddressLength is the fixed byte width of one address identifier.
const AddressLength = 16

// Config bundles the format version ceiling and every per-field ULEB128
// maximum the decoder enforces. The original implementation threads an
// equivalent configuration through every loader rather than hardcoding
// magic numbers; DefaultConfig reproduces the format's stock limits.
type Config struct {
	MaxVersion uint32

	TableCountMax uint64

	// Per-pool index and count maxima. Every ULEB128-decoded index or
	// count is checked against the matching field here.
	ModuleHandleMax     uint64
	StructHandleMax     uint64
	FunctionHandleMax   uint64
	StructDefMax        uint64
	StructDefInstMax    uint64
	FunctionDefMax      uint64
	FieldHandleMax      uint64
	FieldInstMax        uint64
	FunctionInstMax     uint64
	SignatureMax        uint64
	IdentifierMax       uint64
	AddressIdentifierMax uint64
	ConstantPoolMax     uint64
	MetadataMax         uint64
	FriendDeclMax       uint64

	LocalIndexMax      uint64
	TypeParameterMax   uint64
	FieldOffsetMax     uint64
	StructInstArityMax uint64

	IdentifierSizeMax uint64
	ConstantSizeMax   uint64
	MetadataKeySizeMax   uint64
	MetadataValueSizeMax uint64

	CodeUnitMax uint64

	MaxTypeDepth int
}

// DefaultConfig returns the format's stock limits, used when a caller does
// not supply its own Config.
func DefaultConfig() Config {
	return Config{
		MaxVersion:    VersionMax,
		TableCountMax: 255,

		ModuleHandleMax:      1 << 16,
		StructHandleMax:      1 << 16,
		FunctionHandleMax:    1 << 16,
		StructDefMax:         1 << 16,
		StructDefInstMax:     1 << 16,
		FunctionDefMax:       1 << 16,
		FieldHandleMax:       1 << 16,
		FieldInstMax:         1 << 16,
		FunctionInstMax:      1 << 16,
		SignatureMax:         1 << 16,
		IdentifierMax:        1 << 16,
		AddressIdentifierMax: 1 << 16,
		ConstantPoolMax:      1 << 16,
		MetadataMax:          1 << 16,
		FriendDeclMax:        1 << 16,

		LocalIndexMax:      1<<8 - 1,
		TypeParameterMax:   1 << 16,
		FieldOffsetMax:     1 << 16,
		StructInstArityMax: 1 << 16,

		IdentifierSizeMax: 1 << 16,
		ConstantSizeMax:   1 << 20,
		MetadataKeySizeMax:   1 << 16,
		MetadataValueSizeMax: 1 << 20,

		CodeUnitMax: 1 << 16,

		MaxTypeDepth: 20,
	}
}
