// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package movebc

// ModuleHandle references a module by its address-pool and
// identifier-pool positions. FriendDecl shares the exact same shape.
type ModuleHandle struct {
	Address    AddressIdentifierIndex
	Identifier IdentifierIndex
}

type FriendDecl = ModuleHandle

func decodeModuleHandle(c *cursor, cfg Config) (ModuleHandle, error) {
	addr, err := c.readULEB128Bounded(cfg.AddressIdentifierMax, "module handle address index")
	if err != nil {
		return ModuleHandle{}, err
	}
	ident, err := c.readULEB128Bounded(cfg.IdentifierMax, "module handle identifier index")
	if err != nil {
		return ModuleHandle{}, err
	}
	return ModuleHandle{Address: AddressIdentifierIndex(addr), Identifier: IdentifierIndex(ident)}, nil
}

// StructHandle references a struct declared in (possibly) another module.
type StructHandle struct {
	Module              ModuleHandleIndex
	Identifier          IdentifierIndex
	Abilities           AbilitySet
	StructTypeParameters []StructTypeParameter
}

func decodeStructHandle(c *cursor, cfg Config) (StructHandle, error) {
	module, err := c.readULEB128Bounded(cfg.ModuleHandleMax, "struct handle module index")
	if err != nil {
		return StructHandle{}, err
	}
	ident, err := c.readULEB128Bounded(cfg.IdentifierMax, "struct handle identifier index")
	if err != nil {
		return StructHandle{}, err
	}
	abilities, err := decodeAbilitySet(c, contextStructHandle)
	if err != nil {
		return StructHandle{}, err
	}
	n, err := c.readULEB128Bounded(cfg.TypeParameterMax, "struct type parameter count")
	if err != nil {
		return StructHandle{}, err
	}
	params := make([]StructTypeParameter, 0, n)
	for i := uint64(0); i < n; i++ {
		p, err := decodeStructTypeParameter(c, cfg)
		if err != nil {
			return StructHandle{}, err
		}
		params = append(params, p)
	}
	return StructHandle{
		Module:               ModuleHandleIndex(module),
		Identifier:           IdentifierIndex(ident),
		Abilities:            abilities,
		StructTypeParameters: params,
	}, nil
}

// FunctionHandle references a function declared in (possibly) another
// module.
type FunctionHandle struct {
	Module             ModuleHandleIndex
	Identifier         IdentifierIndex
	Parameters         SignatureIndex
	Return             SignatureIndex
	TypeParameters     []AbilitySet
}

func decodeFunctionHandle(c *cursor, cfg Config) (FunctionHandle, error) {
	module, err := c.readULEB128Bounded(cfg.ModuleHandleMax, "function handle module index")
	if err != nil {
		return FunctionHandle{}, err
	}
	ident, err := c.readULEB128Bounded(cfg.IdentifierMax, "function handle identifier index")
	if err != nil {
		return FunctionHandle{}, err
	}
	params, err := c.readULEB128Bounded(cfg.SignatureMax, "function handle parameters index")
	if err != nil {
		return FunctionHandle{}, err
	}
	ret, err := c.readULEB128Bounded(cfg.SignatureMax, "function handle return index")
	if err != nil {
		return FunctionHandle{}, err
	}
	n, err := c.readULEB128Bounded(cfg.TypeParameterMax, "function type parameter count")
	if err != nil {
		return FunctionHandle{}, err
	}
	tps := make([]AbilitySet, 0, n)
	for i := uint64(0); i < n; i++ {
		ab, err := decodeAbilitySet(c, contextFunctionTypeParameter)
		if err != nil {
			return FunctionHandle{}, err
		}
		tps = append(tps, ab)
	}
	return FunctionHandle{
		Module:         ModuleHandleIndex(module),
		Identifier:     IdentifierIndex(ident),
		Parameters:     SignatureIndex(params),
		Return:         SignatureIndex(ret),
		TypeParameters: tps,
	}, nil
}

// FunctionInstantiation pairs a generic function handle with the concrete
// type arguments instantiating it.
type FunctionInstantiation struct {
	Handle   FunctionHandleIndex
	TypeArgs SignatureIndex
}

func decodeFunctionInstantiation(c *cursor, cfg Config) (FunctionInstantiation, error) {
	h, err := c.readULEB128Bounded(cfg.FunctionHandleMax, "function instantiation handle index")
	if err != nil {
		return FunctionInstantiation{}, err
	}
	args, err := c.readULEB128Bounded(cfg.SignatureMax, "function instantiation type args index")
	if err != nil {
		return FunctionInstantiation{}, err
	}
	return FunctionInstantiation{Handle: FunctionHandleIndex(h), TypeArgs: SignatureIndex(args)}, nil
}

// FieldHandle names one field of a struct definition by offset.
type FieldHandle struct {
	StructDef StructDefIndex
	Field     uint16
}

func decodeFieldHandle(c *cursor, cfg Config) (FieldHandle, error) {
	sd, err := c.readULEB128Bounded(cfg.StructDefMax, "field handle struct def index")
	if err != nil {
		return FieldHandle{}, err
	}
	off, err := c.readULEB128Bounded(cfg.FieldOffsetMax, "field handle offset")
	if err != nil {
		return FieldHandle{}, err
	}
	return FieldHandle{StructDef: StructDefIndex(sd), Field: uint16(off)}, nil
}

// FieldInstantiation pairs a generic field handle with the concrete type
// arguments instantiating its owning struct.
type FieldInstantiation struct {
	Handle   FieldHandleIndex
	TypeArgs SignatureIndex
}

func decodeFieldInstantiation(c *cursor, cfg Config) (FieldInstantiation, error) {
	h, err := c.readULEB128Bounded(cfg.FieldHandleMax, "field instantiation handle index")
	if err != nil {
		return FieldInstantiation{}, err
	}
	args, err := c.readULEB128Bounded(cfg.SignatureMax, "field instantiation type args index")
	if err != nil {
		return FieldInstantiation{}, err
	}
	return FieldInstantiation{Handle: FieldHandleIndex(h), TypeArgs: SignatureIndex(args)}, nil
}
