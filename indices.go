// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package movebc

// Typed pool indices. Every cross-record link in the format is a small
// integer naming a position in one of the pools below — no pointers, no
// graph construction happens during decode, cycles are impossible at this
// layer.
type (
	ModuleHandleIndex     uint16
	StructHandleIndex     uint16
	FunctionHandleIndex   uint16
	StructDefIndex        uint16
	StructDefInstIndex    uint16
	FunctionDefIndex      uint16
	FieldHandleIndex      uint16
	FieldInstIndex        uint16
	FunctionInstIndex     uint16
	SignatureIndex        uint16
	IdentifierIndex       uint16
	AddressIdentifierIndex uint16
	ConstantPoolIndex     uint16
	LocalIndex            uint8
	CodeOffset            uint16
)
