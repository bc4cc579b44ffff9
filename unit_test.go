// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package movebc

import "testing"

// emptyModuleBytes builds the smallest legal module: one address
// identifier, one identifier naming the module, a single module handle
// referencing them, and a self-handle trailer pointing back at it.
func emptyModuleBytes() []byte {
	b := newBin(VersionMin)
	b.table(TableAddressIdentifiers, address(0x01))
	b.table(TableIdentifiers, identifierRecord("m"))
	b.table(TableModuleHandles, moduleHandleRecord(0, 0))
	b.setTrailer(appendULEB128(nil, 0)) // self module handle index
	return b.bytes()
}

func TestDecodeModuleEmptyModule(t *testing.T) {
	mod, err := DecodeModule(emptyModuleBytes())
	if err != nil {
		t.Fatalf("DecodeModule: %v", err)
	}
	if mod.SelfModuleHandle != 0 {
		t.Fatalf("got self handle %d, want 0", mod.SelfModuleHandle)
	}
	if len(mod.ModuleHandles) != 1 || len(mod.Identifiers) != 1 {
		t.Fatalf("got %+v", mod)
	}
}

func TestDecodeScriptRejectsModuleTrailerGrammar(t *testing.T) {
	// The directory alone doesn't disambiguate an empty module from a
	// script: none of its tables are script-forbidden. The trailer
	// grammars differ though, so reading a module's single-byte
	// self-handle trailer as a script's longer type-parameter/parameters/
	// code-unit sequence runs out of input.
	_, err := DecodeScript(emptyModuleBytes())
	if err == nil {
		t.Fatal("expected a module's trailer to be rejected by the script grammar")
	}
}

func TestDecodeModuleWithStructAndFunctionDefs(t *testing.T) {
	b := newBin(VersionMetadata)
	b.table(TableAddressIdentifiers, address(0x01))
	b.table(TableIdentifiers, append(identifierRecord("m"), identifierRecord("S")...))
	b.table(TableModuleHandles, moduleHandleRecord(0, 0))

	var structHandle []byte
	structHandle = appendULEB128(structHandle, 0) // module handle index
	structHandle = appendULEB128(structHandle, 1) // identifier index "S"
	structHandle = append(structHandle, byte(AbilityStore|AbilityKey))
	structHandle = appendULEB128(structHandle, 0) // zero type parameters
	b.table(TableStructHandles, structHandle)

	var structDef []byte
	structDef = appendULEB128(structDef, 0) // struct handle index
	structDef = append(structDef, nativeStructFlagNative)
	b.table(TableStructDefs, structDef)

	var fnHandle []byte
	fnHandle = appendULEB128(fnHandle, 0) // module handle index
	fnHandle = appendULEB128(fnHandle, 0) // identifier index "m"
	fnHandle = appendULEB128(fnHandle, 0) // parameters signature index -- none declared below, index 0 is fine since Signatures table absent means index unused unless referenced
	fnHandle = appendULEB128(fnHandle, 0) // return signature index
	fnHandle = appendULEB128(fnHandle, 0) // zero type parameters
	b.table(TableFunctionHandles, fnHandle)

	var fnDef []byte
	fnDef = appendULEB128(fnDef, 0) // function handle index
	fnDef = append(fnDef, byte(VisibilityPrivate), flagNative)
	fnDef = appendULEB128(fnDef, 0) // acquires count
	b.table(TableFunctionDefs, fnDef)

	b.setTrailer(appendULEB128(nil, 0))

	mod, err := DecodeModule(b.bytes())
	if err != nil {
		t.Fatalf("DecodeModule: %v", err)
	}
	if len(mod.StructDefs) != 1 || mod.StructDefs[0].FieldInfo != FieldInfoNative {
		t.Fatalf("got %+v", mod.StructDefs)
	}
	if len(mod.FunctionDefs) != 1 || mod.FunctionDefs[0].Code != nil {
		t.Fatalf("got %+v", mod.FunctionDefs)
	}
}

func TestDecodeModuleRejectsForbiddenTableOnlyViaScriptPath(t *testing.T) {
	// DecodeScript must reject a directory containing a module-only table
	// kind (struct defs), even though the same directory is legal in a
	// module.
	b := newBin(VersionMetadata)
	b.table(TableAddressIdentifiers, address(0x01))
	b.table(TableIdentifiers, identifierRecord("m"))
	b.table(TableModuleHandles, moduleHandleRecord(0, 0))

	var structHandle []byte
	structHandle = appendULEB128(structHandle, 0)
	structHandle = appendULEB128(structHandle, 0)
	structHandle = append(structHandle, byte(AbilityStore))
	structHandle = appendULEB128(structHandle, 0)
	b.table(TableStructHandles, structHandle)

	var structDef []byte
	structDef = appendULEB128(structDef, 0)
	structDef = append(structDef, nativeStructFlagNative)
	b.table(TableStructDefs, structDef)

	b.setTrailer(appendULEB128(nil, 0))

	_, err := DecodeScript(b.bytes())
	if st, ok := StatusOf(err); !ok || st != Malformed {
		t.Fatalf("want Malformed (bad table in script), got %v", err)
	}
}

func TestDecodeScriptEmpty(t *testing.T) {
	b := newBin(VersionMin)
	b.table(TableAddressIdentifiers, address(0x01))
	b.table(TableIdentifiers, identifierRecord("m"))
	b.table(TableModuleHandles, moduleHandleRecord(0, 0))

	var trailer []byte
	trailer = appendULEB128(trailer, 0) // zero type parameters
	trailer = appendULEB128(trailer, 0) // parameters signature index
	trailer = appendULEB128(trailer, 0) // code unit locals index
	trailer = appendULEB128(trailer, 1) // one instruction
	trailer = append(trailer, byte(OpRet))
	b.setTrailer(trailer)

	script, err := DecodeScript(b.bytes())
	if err != nil {
		t.Fatalf("DecodeScript: %v", err)
	}
	if len(script.Code.Code) != 1 || script.Code.Code[0].Op != OpRet {
		t.Fatalf("got %+v", script.Code)
	}
}

func TestDecodeModuleTruncatedInputFails(t *testing.T) {
	buf := emptyModuleBytes()
	_, err := DecodeModule(buf[:len(buf)-1])
	if err == nil {
		t.Fatal("expected truncated input to be rejected")
	}
}

func TestDecodeModuleDeterministic(t *testing.T) {
	buf := emptyModuleBytes()
	a, errA := DecodeModule(buf)
	b, errB := DecodeModule(buf)
	if errA != nil || errB != nil {
		t.Fatalf("unexpected errors: %v, %v", errA, errB)
	}
	if a.SelfModuleHandle != b.SelfModuleHandle || len(a.ModuleHandles) != len(b.ModuleHandles) {
		t.Fatal("repeated decode of identical input produced different results")
	}
}
