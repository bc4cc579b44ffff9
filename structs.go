// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package movebc

// FieldDefinition names one field of a declared struct and its type.
type FieldDefinition struct {
	Name      IdentifierIndex
	Signature SignatureToken
}

// FieldInfoTag distinguishes a native struct (no declared fields, body
// supplied by the host) from one with a concrete field list.
type FieldInfoTag uint8

const (
	FieldInfoNative FieldInfoTag = iota
	FieldInfoDeclared
)

const (
	nativeStructFlagNative   = 0x1
	nativeStructFlagDeclared = 0x2
)

// StructDefinition is one entry of the struct-definitions table.
type StructDefinition struct {
	StructHandle StructHandleIndex
	FieldInfo    FieldInfoTag
	Fields       []FieldDefinition // empty when FieldInfo == FieldInfoNative
}

func decodeStructDefinition(c *cursor, cfg Config) (StructDefinition, error) {
	handle, err := c.readULEB128Bounded(cfg.StructHandleMax, "struct def handle index")
	if err != nil {
		return StructDefinition{}, err
	}

	flag, err := c.readU8()
	if err != nil {
		return StructDefinition{}, err
	}

	switch flag {
	case nativeStructFlagNative:
		return StructDefinition{StructHandle: StructHandleIndex(handle), FieldInfo: FieldInfoNative}, nil
	case nativeStructFlagDeclared:
		n, err := c.readULEB128Bounded(cfg.FieldHandleMax, "struct field count")
		if err != nil {
			return StructDefinition{}, err
		}
		fields := make([]FieldDefinition, 0, n)
		for i := uint64(0); i < n; i++ {
			nameIdx, err := c.readULEB128Bounded(cfg.IdentifierMax, "field name index")
			if err != nil {
				return StructDefinition{}, err
			}
			tok, err := decodeSignatureToken(c, cfg)
			if err != nil {
				return StructDefinition{}, err
			}
			fields = append(fields, FieldDefinition{Name: IdentifierIndex(nameIdx), Signature: tok})
		}
		return StructDefinition{StructHandle: StructHandleIndex(handle), FieldInfo: FieldInfoDeclared, Fields: fields}, nil
	default:
		return StructDefinition{}, newError(UnknownNativeStructFlag, "field info tag 0x%02x", flag)
	}
}

// StructDefInstantiation pairs a generic struct definition with the
// concrete type arguments instantiating it.
type StructDefInstantiation struct {
	StructDef StructDefIndex
	TypeArgs  SignatureIndex
}

func decodeStructDefInstantiation(c *cursor, cfg Config) (StructDefInstantiation, error) {
	sd, err := c.readULEB128Bounded(cfg.StructDefMax, "struct def instantiation def index")
	if err != nil {
		return StructDefInstantiation{}, err
	}
	args, err := c.readULEB128Bounded(cfg.SignatureMax, "struct def instantiation type args index")
	if err != nil {
		return StructDefInstantiation{}, err
	}
	return StructDefInstantiation{StructDef: StructDefIndex(sd), TypeArgs: SignatureIndex(args)}, nil
}
