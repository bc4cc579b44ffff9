// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package movebc

import "math/big"

// Bytecode is one decoded instruction. Op selects which fields of the
// operand payload are meaningful; unused fields are left at their zero
// value. A single flat struct plays the role of the format's closed
// instruction sum type — the Op switch in decodeInstruction is the one
// place that must stay exhaustive as opcodes are added.
type Bytecode struct {
	Op Opcode

	U8           uint8
	U16          uint16
	U32          uint32
	U64          uint64
	U128         *big.Int
	U256         *big.Int
	BranchOffset CodeOffset
	Local        LocalIndex
	Const        ConstantPoolIndex
	FieldHandle  FieldHandleIndex
	FieldInst    FieldInstIndex
	Func         FunctionHandleIndex
	FuncInst     FunctionInstIndex
	StructDef    StructDefIndex
	StructInst   StructDefInstIndex
	Signature    SignatureIndex
	VecLen       uint64
}

// CodeUnit is a function's locals signature plus its instruction stream.
type CodeUnit struct {
	Locals SignatureIndex
	Code   []Bytecode
}

func decodeCodeUnit(c *cursor, cfg Config) (CodeUnit, error) {
	locals, err := c.readULEB128Bounded(cfg.SignatureMax, "code unit locals index")
	if err != nil {
		return CodeUnit{}, err
	}

	count, err := c.readULEB128Bounded(cfg.CodeUnitMax, "bytecode count")
	if err != nil {
		return CodeUnit{}, err
	}

	code := make([]Bytecode, 0, count)
	for uint64(len(code)) < count {
		instr, err := decodeInstruction(c, cfg)
		if err != nil {
			return CodeUnit{}, err
		}
		code = append(code, instr)
	}

	return CodeUnit{Locals: SignatureIndex(locals), Code: code}, nil
}

func decodeInstruction(c *cursor, cfg Config) (Bytecode, error) {
	b, err := c.readU8()
	if err != nil {
		return Bytecode{}, newError(Malformed, "unexpected EOF reading opcode")
	}
	if b < uint8(opcodeMin) || b > uint8(opcodeMax) {
		return Bytecode{}, newError(UnknownOpcode, "opcode byte 0x%02x", b)
	}
	op := Opcode(b)

	if vectorOpcodes[op] && c.version < VersionVectors {
		return Bytecode{}, newError(Malformed, "vector operations not available before bytecode version %d", VersionVectors)
	}
	if wideIntOpcodes[op] && c.version < VersionU16U32U256 {
		return Bytecode{}, newError(Malformed, "16/32/256-bit integers not supported in bytecode version %d", c.version)
	}

	switch op {
	// no operand
	case OpPop, OpRet, OpLdTrue, OpLdFalse, OpReadRef, OpWriteRef,
		OpAdd, OpSub, OpMul, OpMod, OpDiv, OpBitOr, OpBitAnd, OpXor,
		OpShl, OpShr, OpOr, OpAnd, OpNot, OpEq, OpNeq, OpLt, OpGt, OpLe,
		OpGe, OpAbort, OpNop, OpFreezeRef,
		OpCastU8, OpCastU64, OpCastU128, OpCastU16, OpCastU32, OpCastU256:
		return Bytecode{Op: op}, nil

	// ULEB128 branch offset
	case OpBrTrue, OpBrFalse, OpBranch:
		off, err := c.readULEB128Bounded(cfg.CodeUnitMax, "branch offset")
		if err != nil {
			return Bytecode{}, err
		}
		return Bytecode{Op: op, BranchOffset: CodeOffset(off)}, nil

	// one raw byte
	case OpLdU8:
		v, err := c.readU8()
		if err != nil {
			return Bytecode{}, err
		}
		return Bytecode{Op: op, U8: v}, nil

	// fixed little-endian
	case OpLdU64:
		v, err := c.readU64()
		if err != nil {
			return Bytecode{}, err
		}
		return Bytecode{Op: op, U64: v}, nil
	case OpLdU128:
		v, err := c.readU128()
		if err != nil {
			return Bytecode{}, err
		}
		return Bytecode{Op: op, U128: v}, nil
	case OpLdU16:
		v, err := c.readU16()
		if err != nil {
			return Bytecode{}, err
		}
		return Bytecode{Op: op, U16: v}, nil
	case OpLdU32:
		v, err := c.readU32()
		if err != nil {
			return Bytecode{}, err
		}
		return Bytecode{Op: op, U32: v}, nil
	case OpLdU256:
		v, err := c.readU256()
		if err != nil {
			return Bytecode{}, err
		}
		return Bytecode{Op: op, U256: v}, nil

	// local index
	case OpCopyLoc, OpMoveLoc, OpStLoc, OpMutBorrowLoc, OpImmBorrowLoc:
		idx, err := c.readULEB128Bounded(cfg.LocalIndexMax, "local index")
		if err != nil {
			return Bytecode{}, err
		}
		return Bytecode{Op: op, Local: LocalIndex(idx)}, nil

	// constant pool index
	case OpLdConst:
		idx, err := c.readULEB128Bounded(cfg.ConstantPoolMax, "constant pool index")
		if err != nil {
			return Bytecode{}, err
		}
		return Bytecode{Op: op, Const: ConstantPoolIndex(idx)}, nil

	// field handle / instantiation index
	case OpMutBorrowField, OpImmBorrowField:
		idx, err := c.readULEB128Bounded(cfg.FieldHandleMax, "field handle index")
		if err != nil {
			return Bytecode{}, err
		}
		return Bytecode{Op: op, FieldHandle: FieldHandleIndex(idx)}, nil
	case OpMutBorrowFieldGeneric, OpImmBorrowFieldGeneric:
		idx, err := c.readULEB128Bounded(cfg.FieldInstMax, "field instantiation index")
		if err != nil {
			return Bytecode{}, err
		}
		return Bytecode{Op: op, FieldInst: FieldInstIndex(idx)}, nil

	// function handle / instantiation index
	case OpCall:
		idx, err := c.readULEB128Bounded(cfg.FunctionHandleMax, "function handle index")
		if err != nil {
			return Bytecode{}, err
		}
		return Bytecode{Op: op, Func: FunctionHandleIndex(idx)}, nil
	case OpCallGeneric:
		idx, err := c.readULEB128Bounded(cfg.FunctionInstMax, "function instantiation index")
		if err != nil {
			return Bytecode{}, err
		}
		return Bytecode{Op: op, FuncInst: FunctionInstIndex(idx)}, nil

	// struct def / instantiation index
	case OpPack, OpUnpack, OpExists, OpMutBorrowGlobal, OpImmBorrowGlobal, OpMoveFrom, OpMoveTo:
		idx, err := c.readULEB128Bounded(cfg.StructDefMax, "struct def index")
		if err != nil {
			return Bytecode{}, err
		}
		return Bytecode{Op: op, StructDef: StructDefIndex(idx)}, nil
	case OpPackGeneric, OpUnpackGeneric, OpExistsGeneric, OpMutBorrowGlobalGeneric,
		OpImmBorrowGlobalGeneric, OpMoveFromGeneric, OpMoveToGeneric:
		idx, err := c.readULEB128Bounded(cfg.StructDefInstMax, "struct def instantiation index")
		if err != nil {
			return Bytecode{}, err
		}
		return Bytecode{Op: op, StructInst: StructDefInstIndex(idx)}, nil

	// signature index, possibly followed by a u64 length
	case OpVecLen, OpVecImmBorrow, OpVecMutBorrow, OpVecPushBack, OpVecPopBack, OpVecSwap:
		idx, err := c.readULEB128Bounded(cfg.SignatureMax, "vector signature index")
		if err != nil {
			return Bytecode{}, err
		}
		return Bytecode{Op: op, Signature: SignatureIndex(idx)}, nil
	case OpVecPack, OpVecUnpack:
		idx, err := c.readULEB128Bounded(cfg.SignatureMax, "vector signature index")
		if err != nil {
			return Bytecode{}, err
		}
		n, err := c.readU64()
		if err != nil {
			return Bytecode{}, err
		}
		return Bytecode{Op: op, Signature: SignatureIndex(idx), VecLen: n}, nil

	default:
		return Bytecode{}, newError(UnknownOpcode, "opcode byte 0x%02x", b)
	}
}
