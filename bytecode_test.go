// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package movebc

import "testing"

func TestDecodeInstructionNoOperand(t *testing.T) {
	c := newCursorAt([]byte{byte(OpAdd)}, 0, VersionMin)
	instr, err := decodeInstruction(c, DefaultConfig())
	if err != nil {
		t.Fatalf("decodeInstruction: %v", err)
	}
	if instr.Op != OpAdd {
		t.Fatalf("got op %v", instr.Op)
	}
}

func TestDecodeInstructionBranchOffset(t *testing.T) {
	buf := append([]byte{byte(OpBranch)}, appendULEB128(nil, 300)...)
	c := newCursorAt(buf, 0, VersionMin)
	instr, err := decodeInstruction(c, DefaultConfig())
	if err != nil {
		t.Fatalf("decodeInstruction: %v", err)
	}
	if instr.BranchOffset != 300 {
		t.Fatalf("got branch offset %d, want 300", instr.BranchOffset)
	}
}

func TestDecodeInstructionLdU64FixedWidth(t *testing.T) {
	buf := []byte{byte(OpLdU64), 0x01, 0, 0, 0, 0, 0, 0, 0}
	c := newCursorAt(buf, 0, VersionMin)
	instr, err := decodeInstruction(c, DefaultConfig())
	if err != nil {
		t.Fatalf("decodeInstruction: %v", err)
	}
	if instr.U64 != 1 {
		t.Fatalf("got U64 %d, want 1", instr.U64)
	}
}

func TestDecodeInstructionVectorOpcodeGatedByVersion(t *testing.T) {
	buf := append([]byte{byte(OpVecLen)}, appendULEB128(nil, 0)...)
	c := newCursorAt(buf, 0, VersionVectors-1)
	if _, err := decodeInstruction(c, DefaultConfig()); err == nil {
		t.Fatal("expected vector opcode to be rejected before VersionVectors")
	}

	c = newCursorAt(buf, 0, VersionVectors)
	if _, err := decodeInstruction(c, DefaultConfig()); err != nil {
		t.Fatalf("unexpected error at VersionVectors: %v", err)
	}
}

func TestDecodeInstructionWideIntOpcodeGatedByVersion(t *testing.T) {
	buf := []byte{byte(OpLdU16), 0x01, 0x00}
	c := newCursorAt(buf, 0, VersionU16U32U256-1)
	if _, err := decodeInstruction(c, DefaultConfig()); err == nil {
		t.Fatal("expected wide-int opcode to be rejected before VersionU16U32U256")
	}

	c = newCursorAt(buf, 0, VersionU16U32U256)
	instr, err := decodeInstruction(c, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error at VersionU16U32U256: %v", err)
	}
	if instr.U16 != 1 {
		t.Fatalf("got U16 %d, want 1", instr.U16)
	}
}

func TestDecodeInstructionVecPackCompoundOperand(t *testing.T) {
	var buf []byte
	buf = append(buf, byte(OpVecPack))
	buf = appendULEB128(buf, 5) // signature index
	buf = append(buf, 3, 0, 0, 0, 0, 0, 0, 0) // u64 length = 3
	c := newCursorAt(buf, 0, VersionVectors)
	instr, err := decodeInstruction(c, DefaultConfig())
	if err != nil {
		t.Fatalf("decodeInstruction: %v", err)
	}
	if instr.Signature != 5 || instr.VecLen != 3 {
		t.Fatalf("got signature=%d veclen=%d", instr.Signature, instr.VecLen)
	}
}

func TestDecodeInstructionUnknownOpcode(t *testing.T) {
	c := newCursorAt([]byte{0xFE}, 0, VersionMin)
	_, err := decodeInstruction(c, DefaultConfig())
	if st, ok := StatusOf(err); !ok || st != UnknownOpcode {
		t.Fatalf("want UnknownOpcode, got %v", err)
	}
}

func TestDecodeCodeUnit(t *testing.T) {
	var buf []byte
	buf = appendULEB128(buf, 0) // locals signature index
	buf = appendULEB128(buf, 2) // 2 instructions
	buf = append(buf, byte(OpLdTrue), byte(OpRet))

	c := newCursorAt(buf, 0, VersionMin)
	cu, err := decodeCodeUnit(c, DefaultConfig())
	if err != nil {
		t.Fatalf("decodeCodeUnit: %v", err)
	}
	if len(cu.Code) != 2 || cu.Code[0].Op != OpLdTrue || cu.Code[1].Op != OpRet {
		t.Fatalf("got %+v", cu)
	}
}
