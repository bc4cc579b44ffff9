// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package movebc

// Visibility is a function's declared visibility. Values match the wire
// byte directly; 0x2 is deliberately skipped, reserved for the v2-4
// deprecatedScriptVisibility sentinel rather than a fourth visibility.
type Visibility uint8

const (
	VisibilityPrivate Visibility = 0x0
	VisibilityPublic  Visibility = 0x1
	VisibilityFriend  Visibility = 0x3
)

func visibilityFromByte(b uint8) (Visibility, bool) {
	switch b {
	case uint8(VisibilityPrivate):
		return VisibilityPrivate, true
	case uint8(VisibilityPublic):
		return VisibilityPublic, true
	case uint8(VisibilityFriend):
		return VisibilityFriend, true
	default:
		return 0, false
	}
}

// deprecatedScriptVisibility is the v2-4 sentinel flag byte meaning
// "public and an entry point", before entry points became their own bit.
const deprecatedScriptVisibility = 0x2

// Flag bits packed into a function definition's second flag byte (or,
// at version 1, shared with the visibility bit in the single flag byte).
const (
	flagDeprecatedPublicBit = 0b01
	flagNative              = 0b01
	flagEntry               = 0b10
)

// FunctionDefinition is one entry of the function-definitions table.
type FunctionDefinition struct {
	Function                FunctionHandleIndex
	Visibility              Visibility
	IsEntry                 bool
	AcquiresGlobalResources []StructDefIndex
	Code                    *CodeUnit // nil for native functions
}

// decodeFunctionDefFlags is the single call site for the function-
// definition flag-layout version switch (v1 vs v2-4 vs v>=5). It returns
// the decoded visibility, entry flag, and whatever flag bits remain
// unclaimed after visibility/entry extraction — the caller still needs to
// strip the NATIVE bit before checking for residual bits.
func decodeFunctionDefFlags(c *cursor) (Visibility, bool, uint8, error) {
	first, err := c.readU8()
	if err != nil {
		return 0, false, 0, err
	}

	switch {
	case c.version == 1:
		var vis Visibility
		if first&flagDeprecatedPublicBit != 0 {
			vis = VisibilityPublic
			first &^= flagDeprecatedPublicBit
		} else {
			vis = VisibilityPrivate
		}
		return vis, false, first, nil

	case c.version < VersionMetadata: // versions 2-4
		var vis Visibility
		var isEntry bool
		if first == deprecatedScriptVisibility {
			vis, isEntry = VisibilityPublic, true
		} else {
			v, ok := visibilityFromByte(first)
			if !ok {
				return 0, false, 0, newError(Malformed, "invalid visibility byte 0x%02x", first)
			}
			vis, isEntry = v, false
		}
		extra, err := c.readU8()
		if err != nil {
			return 0, false, 0, err
		}
		return vis, isEntry, extra, nil

	default: // version >= 5
		vis, ok := visibilityFromByte(first)
		if !ok {
			return 0, false, 0, newError(Malformed, "invalid visibility byte 0x%02x", first)
		}
		extra, err := c.readU8()
		if err != nil {
			return 0, false, 0, err
		}
		isEntry := extra&flagEntry != 0
		if isEntry {
			extra &^= flagEntry
		}
		return vis, isEntry, extra, nil
	}
}

func decodeFunctionDefinition(c *cursor, cfg Config) (FunctionDefinition, error) {
	fnHandle, err := c.readULEB128Bounded(cfg.FunctionHandleMax, "function def handle index")
	if err != nil {
		return FunctionDefinition{}, err
	}

	visibility, isEntry, extraFlags, err := decodeFunctionDefFlags(c)
	if err != nil {
		return FunctionDefinition{}, err
	}

	acquiresCount, err := c.readULEB128Bounded(cfg.StructDefMax, "acquires count")
	if err != nil {
		return FunctionDefinition{}, err
	}
	acquires := make([]StructDefIndex, 0, acquiresCount)
	for i := uint64(0); i < acquiresCount; i++ {
		idx, err := c.readULEB128Bounded(cfg.StructDefMax, "acquires struct def index")
		if err != nil {
			return FunctionDefinition{}, err
		}
		acquires = append(acquires, StructDefIndex(idx))
	}

	isNative := extraFlags&flagNative != 0
	extraFlags &^= flagNative
	if extraFlags != 0 {
		return FunctionDefinition{}, newError(InvalidFlagBits, "unexpected flag bits 0x%02x remain set", extraFlags)
	}

	var code *CodeUnit
	if !isNative {
		cu, err := decodeCodeUnit(c, cfg)
		if err != nil {
			return FunctionDefinition{}, err
		}
		code = &cu
	}

	return FunctionDefinition{
		Function:                FunctionHandleIndex(fnHandle),
		Visibility:              visibility,
		IsEntry:                 isEntry,
		AcquiresGlobalResources: acquires,
		Code:                    code,
	}, nil
}
