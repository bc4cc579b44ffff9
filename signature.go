// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package movebc

// SignatureTokenTag identifies which variant of the recursive
// SignatureToken sum type a node holds.
type SignatureTokenTag int

// SignatureToken variants.
const (
	TokBool SignatureTokenTag = iota
	TokU8
	TokU16
	TokU32
	TokU64
	TokU128
	TokU256
	TokAddress
	TokSigner
	TokVector
	TokReference
	TokMutableReference
	TokStruct
	TokStructInstantiation
	TokTypeParameter
)

// SignatureToken is one node of the type algebra. Inner holds the nested
// token for Vector/Reference/MutableReference. StructIndex is valid for
// Struct and StructInstantiation. TypeArgs holds the (non-empty) argument
// list for StructInstantiation. TypeParamIndex is valid for TypeParameter.
type SignatureToken struct {
	Tag            SignatureTokenTag
	Inner          *SignatureToken
	StructIndex    StructHandleIndex
	TypeArgs       []SignatureToken
	TypeParamIndex uint16
}

// Signature is an ordered list of SignatureToken, the unit stored in the
// signature pool.
type Signature struct {
	Tokens []SignatureToken
}

// typeBuilder is one frame of the explicit LIFO stack used to reconstruct
// SignatureToken trees without recursing into the host call stack. A
// builder is either already Saturated (holding a finished token) or still
// waiting on one or more nested tokens.
type typeBuilder struct {
	saturated bool
	token     SignatureToken

	// unsaturated state.
	kind      SignatureTokenTag // TokVector, TokReference, TokMutableReference, or TokStructInstantiation
	structIdx StructHandleIndex
	arity     int
	args      []SignatureToken
}

func saturatedBuilder(tok SignatureToken) typeBuilder {
	return typeBuilder{saturated: true, token: tok}
}

// apply feeds a freshly saturated child token into an unsaturated parent
// builder, returning the builder (now possibly itself saturated).
func (b typeBuilder) apply(child SignatureToken) typeBuilder {
	switch b.kind {
	case TokVector:
		return saturatedBuilder(SignatureToken{Tag: TokVector, Inner: &child})
	case TokReference:
		return saturatedBuilder(SignatureToken{Tag: TokReference, Inner: &child})
	case TokMutableReference:
		return saturatedBuilder(SignatureToken{Tag: TokMutableReference, Inner: &child})
	case TokStructInstantiation:
		b.args = append(b.args, child)
		if len(b.args) == b.arity {
			return saturatedBuilder(SignatureToken{
				Tag:         TokStructInstantiation,
				StructIndex: b.structIdx,
				TypeArgs:    b.args,
			})
		}
		return b
	default:
		return b
	}
}

// decodeSignatureToken decodes exactly one SignatureToken starting at the
// cursor's current position, using an explicit stack so that nesting depth
// is bounded by cfg.MaxTypeDepth rather than by host call-stack depth.
func decodeSignatureToken(c *cursor, cfg Config) (SignatureToken, error) {
	var stack []typeBuilder

	for {
		if len(stack) > 0 && stack[len(stack)-1].saturated {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if len(stack) == 0 {
				return top.token, nil
			}

			parent := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			stack = append(stack, parent.apply(top.token))
			continue
		}

		if len(stack) >= cfg.MaxTypeDepth {
			return SignatureToken{}, newError(Malformed, "maximum recursion depth reached")
		}

		tagByte, err := c.readU8()
		if err != nil {
			return SignatureToken{}, err
		}

		switch SerializedType(tagByte) {
		case SerBool:
			stack = append(stack, saturatedBuilder(SignatureToken{Tag: TokBool}))
		case SerU8:
			stack = append(stack, saturatedBuilder(SignatureToken{Tag: TokU8}))
		case SerU64:
			stack = append(stack, saturatedBuilder(SignatureToken{Tag: TokU64}))
		case SerU128:
			stack = append(stack, saturatedBuilder(SignatureToken{Tag: TokU128}))
		case SerAddress:
			stack = append(stack, saturatedBuilder(SignatureToken{Tag: TokAddress}))
		case SerSigner:
			stack = append(stack, saturatedBuilder(SignatureToken{Tag: TokSigner}))
		case SerU16:
			if c.version < VersionU16U32U256 {
				return SignatureToken{}, newError(Malformed, "U16 type requires format version >= %d", VersionU16U32U256)
			}
			stack = append(stack, saturatedBuilder(SignatureToken{Tag: TokU16}))
		case SerU32:
			if c.version < VersionU16U32U256 {
				return SignatureToken{}, newError(Malformed, "U32 type requires format version >= %d", VersionU16U32U256)
			}
			stack = append(stack, saturatedBuilder(SignatureToken{Tag: TokU32}))
		case SerU256:
			if c.version < VersionU16U32U256 {
				return SignatureToken{}, newError(Malformed, "U256 type requires format version >= %d", VersionU16U32U256)
			}
			stack = append(stack, saturatedBuilder(SignatureToken{Tag: TokU256}))
		case SerVector:
			stack = append(stack, typeBuilder{kind: TokVector})
		case SerReference:
			stack = append(stack, typeBuilder{kind: TokReference})
		case SerMutableReference:
			stack = append(stack, typeBuilder{kind: TokMutableReference})
		case SerStruct:
			idx, err := c.readULEB128Bounded(cfg.StructHandleMax, "struct handle index")
			if err != nil {
				return SignatureToken{}, err
			}
			stack = append(stack, saturatedBuilder(SignatureToken{Tag: TokStruct, StructIndex: StructHandleIndex(idx)}))
		case SerStructInst:
			idx, err := c.readULEB128Bounded(cfg.StructHandleMax, "struct handle index")
			if err != nil {
				return SignatureToken{}, err
			}
			arity, err := c.readULEB128Bounded(cfg.StructInstArityMax, "struct instantiation arity")
			if err != nil {
				return SignatureToken{}, err
			}
			if arity == 0 {
				return SignatureToken{}, newError(Malformed, "Struct inst with arity 0")
			}
			stack = append(stack, typeBuilder{
				kind:      TokStructInstantiation,
				structIdx: StructHandleIndex(idx),
				arity:     int(arity),
				args:      make([]SignatureToken, 0, arity),
			})
		case SerTypeParameter:
			idx, err := c.readULEB128Bounded(cfg.TypeParameterMax, "type parameter index")
			if err != nil {
				return SignatureToken{}, err
			}
			stack = append(stack, saturatedBuilder(SignatureToken{Tag: TokTypeParameter, TypeParamIndex: uint16(idx)}))
		default:
			return SignatureToken{}, newError(UnknownSerializedType, "tag byte 0x%02x", tagByte)
		}
	}
}

// decodeSignature reads a ULEB128 token count followed by that many
// SignatureToken decodes.
func decodeSignature(c *cursor, cfg Config) (Signature, error) {
	n, err := c.readULEB128Bounded(cfg.SignatureMax, "signature token count")
	if err != nil {
		return Signature{}, err
	}
	toks := make([]SignatureToken, 0, n)
	for i := uint64(0); i < n; i++ {
		tok, err := decodeSignatureToken(c, cfg)
		if err != nil {
			return Signature{}, err
		}
		toks = append(toks, tok)
	}
	return Signature{Tokens: toks}, nil
}
