// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package movebc

// UnitKind distinguishes the two CompiledUnit variants.
type UnitKind int

const (
	KindModule UnitKind = iota
	KindScript
)

// commonTables holds the pools and handle sequences shared by both
// CompiledModule and CompiledScript.
type commonTables struct {
	ModuleHandles          []ModuleHandle
	StructHandles          []StructHandle
	FunctionHandles        []FunctionHandle
	FunctionInstantiations []FunctionInstantiation
	Signatures             []Signature
	Identifiers            []string
	AddressIdentifiers     [][AddressLength]byte
	ConstantPool           []Constant
	Metadata               []Metadata
}

// CompiledModule is a fully materialized module: a code library other
// modules and scripts may depend on.
type CompiledModule struct {
	Version          uint32
	SelfModuleHandle ModuleHandleIndex

	commonTables

	StructDefs              []StructDefinition
	StructDefInstantiations []StructDefInstantiation
	FunctionDefs            []FunctionDefinition
	FieldHandles            []FieldHandle
	FieldInstantiations     []FieldInstantiation
	FriendDecls             []FriendDecl
}

// CompiledScript is a fully materialized one-shot entry point. It never
// carries struct/function definitions, field handles/instantiations, or
// friend declarations.
type CompiledScript struct {
	Version uint32

	commonTables

	TypeParameters []AbilitySet
	Parameters     SignatureIndex
	Code           CodeUnit
}

// CompiledUnit is the top-level decoded artifact: either a CompiledModule
// or a CompiledScript.
type CompiledUnit struct {
	Kind    UnitKind
	Module  *CompiledModule
	Script  *CompiledScript
	Version uint32
}

// DecodeModule decodes buf as a CompiledModule using DefaultConfig. The
// wire format itself carries no module/script discriminant bit — exactly
// like the source format's two separate top-level entry points
// (deserialize_compiled_module / deserialize_compiled_script), the caller
// is expected to already know which grammar applies (a publish call
// decodes a module, an execute call decodes a script) and picks the
// matching function.
func DecodeModule(buf []byte) (*CompiledModule, error) {
	return DecodeModuleWithConfig(buf, DefaultConfig())
}

// DecodeScript decodes buf as a CompiledScript using DefaultConfig.
func DecodeScript(buf []byte) (*CompiledScript, error) {
	return DecodeScriptWithConfig(buf, DefaultConfig())
}

// DecodeModuleWithConfig decodes buf as a CompiledModule under a
// caller-supplied Config, guarding against host-level panics (e.g. an
// unexpected offset-arithmetic overflow): any panic reaching this
// boundary is converted to a VerifierInvariantViolation instead of
// propagating. No intentional decode path returns that status directly.
func DecodeModuleWithConfig(buf []byte, cfg Config) (mod *CompiledModule, err error) {
	defer func() {
		if r := recover(); r != nil {
			mod = nil
			err = newError(VerifierInvariantViolation, "internal fault during decode: %v", r)
		}
	}()
	u, err := decode(buf, cfg, KindModule)
	if err != nil {
		return nil, err
	}
	return u.Module, nil
}

// DecodeScriptWithConfig decodes buf as a CompiledScript under a
// caller-supplied Config. See DecodeModuleWithConfig for the panic-guard
// behavior.
func DecodeScriptWithConfig(buf []byte, cfg Config) (script *CompiledScript, err error) {
	defer func() {
		if r := recover(); r != nil {
			script = nil
			err = newError(VerifierInvariantViolation, "internal fault during decode: %v", r)
		}
	}()
	u, err := decode(buf, cfg, KindScript)
	if err != nil {
		return nil, err
	}
	return u.Script, nil
}

func decode(buf []byte, cfg Config, kind UnitKind) (*CompiledUnit, error) {
	isScript := kind == KindScript

	top := newCursorAt(buf, 0, 0)

	hdr, err := parseHeader(top, cfg)
	if err != nil {
		return nil, err
	}
	top.version = hdr.version

	tablesStart := hdr.contentBase
	loaded, err := loadTables(buf, tablesStart, hdr, cfg, isScript)
	if err != nil {
		return nil, err
	}

	// The trailer is read from the top-level cursor positioned right
	// after the table-content region, never from inside a table window.
	trailer := newCursorAt(buf, tablesStart+int(hdr.contentLen), hdr.version)

	if isScript {
		script, err := decodeScriptTrailer(trailer, cfg, loaded)
		if err != nil {
			return nil, err
		}
		return &CompiledUnit{Kind: KindScript, Script: script, Version: hdr.version}, nil
	}

	module, err := decodeModuleTrailer(trailer, cfg, loaded)
	if err != nil {
		return nil, err
	}
	return &CompiledUnit{Kind: KindModule, Module: module, Version: hdr.version}, nil
}

// loadedTables collects the raw per-kind record slices decoded from the
// table directory, before they are assembled into a CompiledModule or
// CompiledScript.
type loadedTables struct {
	commonTables

	StructDefs              []StructDefinition
	StructDefInstantiations []StructDefInstantiation
	FunctionDefs            []FunctionDefinition
	FieldHandles            []FieldHandle
	FieldInstantiations     []FieldInstantiation
	FriendDecls             []FriendDecl
}

func loadTables(buf []byte, tablesStart int, hdr *header, cfg Config, isScript bool) (*loadedTables, error) {
	out := &loadedTables{}

	for _, e := range hdr.tables {
		if isScript && scriptForbiddenTables[e.kind] {
			return nil, newError(Malformed, "bad table in script: %s", e.kind)
		}

		start := tablesStart + int(e.offset)
		end := start + int(e.count)
		sub, err := newSubCursor(buf, start, end, hdr.version)
		if err != nil {
			return nil, err
		}

		if err := loadOneTable(sub, e, cfg, out); err != nil {
			return nil, err
		}
		if !sub.atEnd() {
			return nil, newError(Malformed, "table %s left %d unread trailing bytes", e.kind, sub.remaining())
		}
	}

	return out, nil
}

func loadOneTable(c *cursor, e tableEntry, cfg Config, out *loadedTables) error {
	switch e.kind {
	case TableModuleHandles:
		for !c.atEnd() {
			h, err := decodeModuleHandle(c, cfg)
			if err != nil {
				return err
			}
			out.ModuleHandles = append(out.ModuleHandles, h)
		}
	case TableFriendDecls:
		for !c.atEnd() {
			h, err := decodeModuleHandle(c, cfg)
			if err != nil {
				return err
			}
			out.FriendDecls = append(out.FriendDecls, h)
		}
	case TableStructHandles:
		for !c.atEnd() {
			h, err := decodeStructHandle(c, cfg)
			if err != nil {
				return err
			}
			out.StructHandles = append(out.StructHandles, h)
		}
	case TableFunctionHandles:
		for !c.atEnd() {
			h, err := decodeFunctionHandle(c, cfg)
			if err != nil {
				return err
			}
			out.FunctionHandles = append(out.FunctionHandles, h)
		}
	case TableFunctionInstantiations:
		for !c.atEnd() {
			h, err := decodeFunctionInstantiation(c, cfg)
			if err != nil {
				return err
			}
			out.FunctionInstantiations = append(out.FunctionInstantiations, h)
		}
	case TableSignatures:
		for !c.atEnd() {
			s, err := decodeSignature(c, cfg)
			if err != nil {
				return err
			}
			out.Signatures = append(out.Signatures, s)
		}
	case TableIdentifiers:
		for !c.atEnd() {
			s, err := c.readIdentifier(cfg.IdentifierSizeMax)
			if err != nil {
				return err
			}
			out.Identifiers = append(out.Identifiers, s)
		}
	case TableAddressIdentifiers:
		addrs, err := decodeAddressIdentifiers(c)
		if err != nil {
			return err
		}
		out.AddressIdentifiers = addrs
	case TableConstantPool:
		for !c.atEnd() {
			k, err := decodeConstant(c, cfg)
			if err != nil {
				return err
			}
			out.ConstantPool = append(out.ConstantPool, k)
		}
	case TableMetadata:
		if c.version < VersionMetadata {
			return newError(Malformed, "metadata table requires format version >= %d", VersionMetadata)
		}
		for !c.atEnd() {
			m, err := decodeMetadata(c, cfg)
			if err != nil {
				return err
			}
			out.Metadata = append(out.Metadata, m)
		}
	case TableStructDefs:
		for !c.atEnd() {
			s, err := decodeStructDefinition(c, cfg)
			if err != nil {
				return err
			}
			out.StructDefs = append(out.StructDefs, s)
		}
	case TableStructDefInstantiations:
		for !c.atEnd() {
			s, err := decodeStructDefInstantiation(c, cfg)
			if err != nil {
				return err
			}
			out.StructDefInstantiations = append(out.StructDefInstantiations, s)
		}
	case TableFunctionDefs:
		for !c.atEnd() {
			f, err := decodeFunctionDefinition(c, cfg)
			if err != nil {
				return err
			}
			out.FunctionDefs = append(out.FunctionDefs, f)
		}
	case TableFieldHandles:
		for !c.atEnd() {
			f, err := decodeFieldHandle(c, cfg)
			if err != nil {
				return err
			}
			out.FieldHandles = append(out.FieldHandles, f)
		}
	case TableFieldInstantiations:
		for !c.atEnd() {
			f, err := decodeFieldInstantiation(c, cfg)
			if err != nil {
				return err
			}
			out.FieldInstantiations = append(out.FieldInstantiations, f)
		}
	default:
		return newError(UnknownTableType, "unhandled table kind %s", e.kind)
	}
	return nil
}

func decodeModuleTrailer(c *cursor, cfg Config, t *loadedTables) (*CompiledModule, error) {
	self, err := c.readULEB128Bounded(cfg.ModuleHandleMax, "self module handle index")
	if err != nil {
		return nil, err
	}
	return &CompiledModule{
		Version:          c.version,
		SelfModuleHandle: ModuleHandleIndex(self),
		commonTables:     t.commonTables,

		StructDefs:              t.StructDefs,
		StructDefInstantiations: t.StructDefInstantiations,
		FunctionDefs:            t.FunctionDefs,
		FieldHandles:            t.FieldHandles,
		FieldInstantiations:     t.FieldInstantiations,
		FriendDecls:             t.FriendDecls,
	}, nil
}

func decodeScriptTrailer(c *cursor, cfg Config, t *loadedTables) (*CompiledScript, error) {
	n, err := c.readULEB128Bounded(cfg.TypeParameterMax, "script type parameter count")
	if err != nil {
		return nil, err
	}
	tps := make([]AbilitySet, 0, n)
	for i := uint64(0); i < n; i++ {
		ab, err := decodeAbilitySet(c, contextFunctionTypeParameter)
		if err != nil {
			return nil, err
		}
		tps = append(tps, ab)
	}

	params, err := c.readULEB128Bounded(cfg.SignatureMax, "script parameters index")
	if err != nil {
		return nil, err
	}

	code, err := decodeCodeUnit(c, cfg)
	if err != nil {
		return nil, err
	}

	return &CompiledScript{
		Version:        c.version,
		commonTables:   t.commonTables,
		TypeParameters: tps,
		Parameters:     SignatureIndex(params),
		Code:           code,
	}, nil
}
