// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package movebc

import "testing"

func TestDecodeFunctionDefFlagsV1DeprecatedPublicBit(t *testing.T) {
	c := newCursorAt([]byte{flagDeprecatedPublicBit}, 0, 1)
	vis, isEntry, extra, err := decodeFunctionDefFlags(c)
	if err != nil {
		t.Fatalf("decodeFunctionDefFlags: %v", err)
	}
	if vis != VisibilityPublic || isEntry || extra != 0 {
		t.Fatalf("got vis=%v entry=%v extra=%x", vis, isEntry, extra)
	}
}

func TestDecodeFunctionDefFlagsV2To4ScriptVisibilitySentinel(t *testing.T) {
	c := newCursorAt([]byte{deprecatedScriptVisibility, 0x00}, 0, VersionAbilities)
	vis, isEntry, _, err := decodeFunctionDefFlags(c)
	if err != nil {
		t.Fatalf("decodeFunctionDefFlags: %v", err)
	}
	if vis != VisibilityPublic || !isEntry {
		t.Fatalf("got vis=%v entry=%v, want Public+entry", vis, isEntry)
	}
}

func TestDecodeFunctionDefFlagsV2To4OrdinaryVisibility(t *testing.T) {
	c := newCursorAt([]byte{byte(VisibilityFriend), flagNative}, 0, VersionPhantomTypeParams)
	vis, isEntry, extra, err := decodeFunctionDefFlags(c)
	if err != nil {
		t.Fatalf("decodeFunctionDefFlags: %v", err)
	}
	if vis != VisibilityFriend || isEntry || extra != flagNative {
		t.Fatalf("got vis=%v entry=%v extra=%x", vis, isEntry, extra)
	}
}

func TestDecodeFunctionDefFlagsModernEntryBit(t *testing.T) {
	c := newCursorAt([]byte{byte(VisibilityPublic), flagEntry | flagNative}, 0, VersionMetadata)
	vis, isEntry, extra, err := decodeFunctionDefFlags(c)
	if err != nil {
		t.Fatalf("decodeFunctionDefFlags: %v", err)
	}
	if vis != VisibilityPublic || !isEntry || extra != flagNative {
		t.Fatalf("got vis=%v entry=%v extra=%x", vis, isEntry, extra)
	}
}

func TestDecodeFunctionDefinitionNativeHasNilCode(t *testing.T) {
	var buf []byte
	buf = appendULEB128(buf, 1) // function handle index
	buf = append(buf, byte(VisibilityPrivate), flagNative)
	buf = appendULEB128(buf, 0) // acquires count

	c := newCursorAt(buf, 0, VersionMetadata)
	fd, err := decodeFunctionDefinition(c, DefaultConfig())
	if err != nil {
		t.Fatalf("decodeFunctionDefinition: %v", err)
	}
	if fd.Code != nil {
		t.Fatal("expected nil Code for a native function")
	}
}

func TestDecodeFunctionDefinitionInvalidFlagBits(t *testing.T) {
	var buf []byte
	buf = appendULEB128(buf, 1)
	buf = append(buf, byte(VisibilityPrivate), 0x80) // stray high bit never cleared
	buf = appendULEB128(buf, 0)

	c := newCursorAt(buf, 0, VersionMetadata)
	_, err := decodeFunctionDefinition(c, DefaultConfig())
	if st, ok := StatusOf(err); !ok || st != InvalidFlagBits {
		t.Fatalf("want InvalidFlagBits, got %v", err)
	}
}

func TestDecodeFunctionDefinitionDeclaredReadsCodeUnit(t *testing.T) {
	var buf []byte
	buf = appendULEB128(buf, 1)
	buf = append(buf, byte(VisibilityPrivate), 0x00)
	buf = appendULEB128(buf, 0) // acquires count
	buf = appendULEB128(buf, 0) // code unit locals index
	buf = appendULEB128(buf, 1) // 1 instruction
	buf = append(buf, byte(OpRet))

	c := newCursorAt(buf, 0, VersionMetadata)
	fd, err := decodeFunctionDefinition(c, DefaultConfig())
	if err != nil {
		t.Fatalf("decodeFunctionDefinition: %v", err)
	}
	if fd.Code == nil || len(fd.Code.Code) != 1 {
		t.Fatalf("got %+v", fd)
	}
}
