// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package cache memoizes decode results of previously seen binaries,
// keyed by a content hash, so a long-lived service doesn't redecode a
// module or script it has already parsed.
package cache

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/blake2b"

	"github.com/axiomhq/fsst"

	"github.com/saferwall/movebc"
)

var errTruncatedCacheRecord = errors.New("cache: truncated identifier record")

// Store is a sqlite3-backed decode-result cache.
type Store struct {
	db      *sql.DB
	symbols *fsst.Table
}

const schema = `
CREATE TABLE IF NOT EXISTS decoded_units (
	hash TEXT PRIMARY KEY,
	kind INTEGER NOT NULL,
	unit BLOB NOT NULL,
	identifiers BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS symbol_table (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	data BLOB NOT NULL
);
`

// Open opens (creating if necessary) a sqlite3 database at path for use as
// a decode cache. The FSST symbol table used to compress identifier pools
// is loaded from the database if one was persisted by a previous process.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db}

	var blob []byte
	err = db.QueryRow("SELECT data FROM symbol_table WHERE id = 1").Scan(&blob)
	if err == nil {
		tbl := new(fsst.Table)
		if err := tbl.UnmarshalBinary(blob); err == nil {
			s.symbols = tbl
		}
	} else if err != sql.ErrNoRows {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// hashKey returns the blake2b-256 digest of buf, hex-encoded, used as the
// cache's primary key.
func hashKey(buf []byte) (string, error) {
	sum := blake2b.Sum256(buf)
	return hex.EncodeToString(sum[:]), nil
}

// trainSymbols returns the FSST symbol table used to compress the
// identifier pool before it's written to the cache. The table is trained
// once, lazily, on the identifiers of the first Put that needs it, and is
// persisted and reused from then on; it is never retrained.
func (s *Store) trainSymbols(identifiers []string) *fsst.Table {
	if s.symbols != nil {
		return s.symbols
	}
	inputs := make([][]byte, 0, len(identifiers))
	for _, id := range identifiers {
		inputs = append(inputs, []byte(id))
	}
	if len(inputs) == 0 {
		inputs = [][]byte{[]byte("")}
	}
	s.symbols = fsst.Train(inputs)
	if blob, err := s.symbols.MarshalBinary(); err == nil {
		s.db.Exec("INSERT OR REPLACE INTO symbol_table (id, data) VALUES (1, ?)", blob)
	}
	return s.symbols
}

// Get returns the cached unit for buf's content hash, or (nil, nil) on a
// cache miss.
func (s *Store) Get(buf []byte) (*movebc.CompiledUnit, error) {
	key, err := hashKey(buf)
	if err != nil {
		return nil, err
	}

	var kind int
	var unitJSON, identBlob []byte
	err = s.db.QueryRow(
		"SELECT kind, unit, identifiers FROM decoded_units WHERE hash = ?", key,
	).Scan(&kind, &unitJSON, &identBlob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	identifiers, err := s.decodeIdentifiers(identBlob)
	if err != nil {
		return nil, err
	}

	switch movebc.UnitKind(kind) {
	case movebc.KindModule:
		var mod movebc.CompiledModule
		if err := json.Unmarshal(unitJSON, &mod); err != nil {
			return nil, err
		}
		mod.Identifiers = identifiers
		return &movebc.CompiledUnit{Kind: movebc.KindModule, Module: &mod, Version: mod.Version}, nil
	case movebc.KindScript:
		var script movebc.CompiledScript
		if err := json.Unmarshal(unitJSON, &script); err != nil {
			return nil, err
		}
		script.Identifiers = identifiers
		return &movebc.CompiledUnit{Kind: movebc.KindScript, Script: &script, Version: script.Version}, nil
	default:
		return nil, nil
	}
}

// Put stores unit under buf's content hash, compressing its identifier
// pool with a freshly trained (or reused) FSST symbol table.
func (s *Store) Put(buf []byte, unit *movebc.CompiledUnit) error {
	key, err := hashKey(buf)
	if err != nil {
		return err
	}

	var identifiers []string
	var payload interface{}
	switch unit.Kind {
	case movebc.KindModule:
		identifiers = unit.Module.Identifiers
		payload = unit.Module
	case movebc.KindScript:
		identifiers = unit.Script.Identifiers
		payload = unit.Script
	default:
		return nil
	}

	unitJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	identBlob := s.encodeIdentifiers(identifiers)

	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO decoded_units (hash, kind, unit, identifiers) VALUES (?, ?, ?, ?)",
		key, int(unit.Kind), unitJSON, identBlob,
	)
	return err
}

// encodeIdentifiers serializes identifiers as FSST-encoded strings: a
// 4-byte little-endian header length, a JSON array of the encoded lengths,
// then the concatenated encoded bytes. decodeIdentifiers uses the lengths
// to split the bytes and decodes each string separately.
func (s *Store) encodeIdentifiers(identifiers []string) []byte {
	tbl := s.trainSymbols(identifiers)

	lengths := make([]int, len(identifiers))
	var encoded []byte
	for i, id := range identifiers {
		enc := tbl.EncodeAll([]byte(id))
		lengths[i] = len(enc)
		encoded = append(encoded, enc...)
	}

	header, _ := json.Marshal(lengths)
	headerLen := make([]byte, 4)
	putUint32(headerLen, uint32(len(header)))

	out := append([]byte{}, headerLen...)
	out = append(out, header...)
	out = append(out, encoded...)
	return out
}

func (s *Store) decodeIdentifiers(blob []byte) ([]string, error) {
	if len(blob) < 4 {
		return nil, nil
	}
	headerLen := getUint32(blob[:4])
	if int(4+headerLen) > len(blob) {
		return nil, errTruncatedCacheRecord
	}

	var lengths []int
	if err := json.Unmarshal(blob[4:4+headerLen], &lengths); err != nil {
		return nil, err
	}

	encoded := blob[4+headerLen:]
	out := make([]string, len(lengths))
	pos := 0
	for i, n := range lengths {
		if pos+n > len(encoded) {
			return nil, errTruncatedCacheRecord
		}
		decoded := s.symbols.DecodeAll(encoded[pos : pos+n])
		out[i] = string(decoded)
		pos += n
	}
	return out, nil
}

func putUint32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func getUint32(b []byte) int {
	return int(b[0]) | int(b[1])<<8 | int(b[2])<<16 | int(b[3])<<24
}
