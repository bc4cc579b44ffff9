// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package cache

import (
	"path/filepath"
	"testing"

	"github.com/saferwall/movebc"
)

// appendULEB128 and the record helpers below mirror the wire grammar
// movebc itself decodes; this package only ever sees bytes that already
// passed through movebc.DecodeModule, so building a minimal module by
// hand is the simplest way to get something real to cache.
func appendULEB128(buf []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			buf = append(buf, b|0x80)
		} else {
			buf = append(buf, b)
			return buf
		}
	}
}

func identifierRecord(s string) []byte {
	buf := appendULEB128(nil, uint64(len(s)))
	return append(buf, []byte(s)...)
}

func moduleHandleRecord(addressIdx, identifierIdx uint64) []byte {
	buf := appendULEB128(nil, addressIdx)
	return appendULEB128(buf, identifierIdx)
}

func address(b byte) []byte {
	addr := make([]byte, movebc.AddressLength)
	addr[0] = b
	return addr
}

// emptyModuleBytes builds the smallest legal module binary: one address
// identifier, one identifier naming the module, a module handle tying
// them together, and a self-handle trailer.
func emptyModuleBytes() []byte {
	type table struct {
		kind movebc.TableType
		data []byte
	}
	tables := []table{
		{movebc.TableAddressIdentifiers, address(0x01)},
		{movebc.TableIdentifiers, identifierRecord("m")},
		{movebc.TableModuleHandles, moduleHandleRecord(0, 0)},
	}

	var content, dir []byte
	offset := uint32(0)
	for _, t := range tables {
		dir = append(dir, byte(t.kind))
		dir = appendULEB128(dir, uint64(offset))
		dir = appendULEB128(dir, uint64(len(t.data)))
		content = append(content, t.data...)
		offset += uint32(len(t.data))
	}

	var out []byte
	out = append(out, movebc.Magic[:]...)
	out = appendULEB128(out, uint64(movebc.VersionMin))
	out = appendULEB128(out, uint64(len(tables)))
	out = append(out, dir...)
	out = append(out, content...)
	out = appendULEB128(out, 0) // self module handle index
	return out
}

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movebcd.sqlite3")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func decodeFixture(t *testing.T) (*movebc.CompiledUnit, []byte) {
	t.Helper()
	buf := emptyModuleBytes()
	mod, err := movebc.DecodeModule(buf)
	if err != nil {
		t.Fatalf("DecodeModule: %v", err)
	}
	unit := &movebc.CompiledUnit{Kind: movebc.KindModule, Module: mod, Version: mod.Version}
	return unit, buf
}

func TestStoreGetMiss(t *testing.T) {
	s, _ := openTestStore(t)
	_, buf := decodeFixture(t)

	got, err := s.Get(buf)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected a miss on an empty store, got %+v", got)
	}
}

func TestStorePutGetRoundTrip(t *testing.T) {
	s, _ := openTestStore(t)
	unit, buf := decodeFixture(t)

	if err := s.Put(buf, unit); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(buf)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("expected a hit after Put")
	}
	if got.Kind != movebc.KindModule {
		t.Fatalf("got kind %v, want KindModule", got.Kind)
	}
	if len(got.Module.Identifiers) != len(unit.Module.Identifiers) {
		t.Fatalf("identifiers mismatch: got %v, want %v", got.Module.Identifiers, unit.Module.Identifiers)
	}
	for i, id := range unit.Module.Identifiers {
		if got.Module.Identifiers[i] != id {
			t.Fatalf("identifier %d: got %q, want %q", i, got.Module.Identifiers[i], id)
		}
	}
	if got.Module.SelfModuleHandle != unit.Module.SelfModuleHandle {
		t.Fatalf("got self handle %d, want %d", got.Module.SelfModuleHandle, unit.Module.SelfModuleHandle)
	}
}

// TestStoreSymbolTablePersistsAcrossProcesses confirms a second Store
// opened against the same database file can still decode identifiers
// cached by a prior instance, exercising the FSST table's persistence
// rather than relying on it staying resident in memory.
func TestStoreSymbolTablePersistsAcrossProcesses(t *testing.T) {
	s1, path := openTestStore(t)
	unit, buf := decodeFixture(t)
	if err := s1.Put(buf, unit); err != nil {
		t.Fatalf("Put: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	defer s2.Close()

	if s2.symbols == nil {
		t.Fatal("expected the persisted symbol table to be loaded on reopen")
	}

	got, err := s2.Get(buf)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got == nil {
		t.Fatal("expected a hit from a second Store against the same database")
	}
	if got.Module.Identifiers[0] != unit.Module.Identifiers[0] {
		t.Fatalf("got identifier %q, want %q", got.Module.Identifiers[0], unit.Module.Identifiers[0])
	}
}

func TestStorePutOverwritesExistingEntry(t *testing.T) {
	s, _ := openTestStore(t)
	unit, buf := decodeFixture(t)

	if err := s.Put(buf, unit); err != nil {
		t.Fatalf("first Put: %v", err)
	}
	if err := s.Put(buf, unit); err != nil {
		t.Fatalf("second Put: %v", err)
	}

	got, err := s.Get(buf)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("expected a hit after overwriting")
	}
}
