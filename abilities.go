// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package movebc

// Ability is one capability bit attached to a type or a type-parameter
// constraint.
type Ability uint8

// The four abilities, as bits of an AbilitySet.
const (
	AbilityCopy  Ability = 1 << 0
	AbilityDrop  Ability = 1 << 1
	AbilityStore Ability = 1 << 2
	AbilityKey   Ability = 1 << 3
)

// abilityFullMask is every bit a valid AbilitySet may set, for versions
// that encode the set as a single bounded ULEB128 byte.
const abilityFullMask = uint64(AbilityCopy | AbilityDrop | AbilityStore | AbilityKey)

// AbilitySet is a bitfield over {Copy, Drop, Store, Key}.
type AbilitySet uint8

// Has reports whether a is present in the set.
func (s AbilitySet) Has(a Ability) bool { return s&AbilitySet(a) != 0 }

// abilityContext identifies which of the three positions a deprecated v1
// ability byte is being decoded for; the v1 shim assigns different
// meanings to the same two byte values depending on this context.
type abilityContext int

const (
	contextStructHandle abilityContext = iota
	contextFunctionTypeParameter
	contextStructTypeParameter
)

// Deprecated v1 kind byte values.
const (
	deprecatedNominalResource = 0x1
	deprecatedNormalStruct    = 0x2
	deprecatedAll             = 0x1
	deprecatedCopyable        = 0x2
	deprecatedResource        = 0x3
)

// decodeAbilitySet is the single call site for the ability-set version
// switch: every caller (struct handles, function type parameters, struct
// type parameters) funnels through here instead of re-checking the
// version inline.
func decodeAbilitySet(c *cursor, ctx abilityContext) (AbilitySet, error) {
	if c.version >= VersionAbilities {
		v, err := c.readULEB128()
		if err != nil {
			return 0, err
		}
		if v&^abilityFullMask != 0 {
			return 0, newError(UnknownAbility, "ability set 0x%x has bits outside the known abilities", v)
		}
		return AbilitySet(v), nil
	}
	return decodeDeprecatedKind(c, ctx)
}

// decodeDeprecatedKind implements the version-1 deprecated-kind shim
// described in the format's ability/kind rewrite: a single byte whose
// meaning depends on which of the three positions is being decoded.
func decodeDeprecatedKind(c *cursor, ctx abilityContext) (AbilitySet, error) {
	b, err := c.readU8()
	if err != nil {
		return 0, err
	}
	switch ctx {
	case contextStructHandle:
		switch b {
		case deprecatedNominalResource:
			return AbilitySet(AbilityStore | AbilityKey), nil
		case deprecatedNormalStruct:
			return AbilitySet(AbilityStore | AbilityCopy | AbilityDrop), nil
		default:
			return 0, newError(UnknownAbility, "unknown deprecated struct-handle kind byte 0x%02x", b)
		}
	case contextFunctionTypeParameter:
		switch b {
		case deprecatedAll:
			return AbilitySet(AbilityStore), nil
		case deprecatedCopyable:
			return AbilitySet(AbilityStore | AbilityCopy | AbilityDrop), nil
		case deprecatedResource:
			return AbilitySet(AbilityStore | AbilityKey), nil
		default:
			return 0, newError(UnknownAbility, "unknown deprecated function-type-parameter kind byte 0x%02x", b)
		}
	case contextStructTypeParameter:
		switch b {
		case deprecatedAll:
			return AbilitySet(0), nil
		case deprecatedCopyable:
			return AbilitySet(AbilityCopy | AbilityDrop), nil
		case deprecatedResource:
			return AbilitySet(AbilityKey), nil
		default:
			return 0, newError(UnknownAbility, "unknown deprecated struct-type-parameter kind byte 0x%02x", b)
		}
	default:
		return 0, newError(VerifierInvariantViolation, "unreachable ability context")
	}
}

// StructTypeParameter is one entry of a StructHandle's type-parameter
// list: the constraint abilities plus whether the parameter is phantom.
type StructTypeParameter struct {
	Constraints AbilitySet
	IsPhantom   bool
}

// decodeStructTypeParameter reads one struct type-parameter entry: its
// constraint ability set (version-gated per decodeAbilitySet) followed by
// a phantom flag available only from VersionPhantomTypeParams onward.
func decodeStructTypeParameter(c *cursor, cfg Config) (StructTypeParameter, error) {
	constraints, err := decodeAbilitySet(c, contextStructTypeParameter)
	if err != nil {
		return StructTypeParameter{}, err
	}

	if c.version < VersionPhantomTypeParams {
		return StructTypeParameter{Constraints: constraints, IsPhantom: false}, nil
	}

	v, err := c.readULEB128Bounded(1, "phantom flag")
	if err != nil {
		return StructTypeParameter{}, err
	}
	return StructTypeParameter{Constraints: constraints, IsPhantom: v == 1}, nil
}
