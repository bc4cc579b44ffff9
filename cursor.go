// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package movebc

import (
	"encoding/binary"
	"math/big"
	"unicode/utf8"
)

// cursor is a forward-only reader over a byte slice tagged with the
// resolved format version. Every read is bounds-checked against what
// remains before it touches the buffer; an out-of-bounds read never
// panics, it returns a *DecodeError, generalizing a fixed-offset bounds
// check to a moving position.
type cursor struct {
	buf     []byte
	pos     int
	version uint32
}

func newCursorAt(buf []byte, pos int, version uint32) *cursor {
	return &cursor{buf: buf, pos: pos, version: version}
}

// newSubCursor returns a cursor bounded to buf[start:end], used by table
// loaders to read a record window without being able to wander into
// adjacent tables.
func newSubCursor(buf []byte, start, end int, version uint32) (*cursor, error) {
	if start < 0 || end < start || end > len(buf) {
		return nil, newError(Malformed, "table window [%d,%d) out of range", start, end)
	}
	return &cursor{buf: buf[start:end], pos: 0, version: version}, nil
}

func (c *cursor) version_() uint32 { return c.version }

func (c *cursor) position() int { return c.pos }

func (c *cursor) remaining() int { return len(c.buf) - c.pos }

func (c *cursor) atEnd() bool { return c.pos == len(c.buf) }

// readExact returns the next n bytes and advances the position.
func (c *cursor) readExact(n int) ([]byte, error) {
	if n < 0 || n > c.remaining() {
		return nil, newError(Malformed, "unexpected end of input, wanted %d bytes, have %d", n, c.remaining())
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *cursor) readU8() (uint8, error) {
	b, err := c.readExact(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) readU16() (uint16, error) {
	b, err := c.readExact(2)
	if err != nil {
		return 0, &DecodeError{Status: BadU16, Message: err.Error()}
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *cursor) readU32() (uint32, error) {
	b, err := c.readExact(4)
	if err != nil {
		return 0, &DecodeError{Status: BadU32, Message: err.Error()}
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *cursor) readU64() (uint64, error) {
	b, err := c.readExact(8)
	if err != nil {
		return 0, &DecodeError{Status: BadU64, Message: err.Error()}
	}
	return binary.LittleEndian.Uint64(b), nil
}

// readU128 returns the little-endian 16-byte value as a big.Int so callers
// don't need a native 128-bit type.
func (c *cursor) readU128() (*big.Int, error) {
	b, err := c.readExact(16)
	if err != nil {
		return nil, &DecodeError{Status: BadU128, Message: err.Error()}
	}
	return leBytesToBigInt(b), nil
}

// readU256 returns the little-endian 32-byte value as a big.Int.
func (c *cursor) readU256() (*big.Int, error) {
	b, err := c.readExact(32)
	if err != nil {
		return nil, &DecodeError{Status: BadU256, Message: err.Error()}
	}
	return leBytesToBigInt(b), nil
}

func leBytesToBigInt(b []byte) *big.Int {
	be := make([]byte, len(b))
	for i, v := range b {
		be[len(b)-1-i] = v
	}
	return new(big.Int).SetBytes(be)
}

// readULEB128 decodes an unsigned LEB128 integer, accepting up to 10
// continuation bytes and rejecting over-long encodings (a final byte whose
// value could have been represented in fewer bytes, or one that overflows
// u64).
func (c *cursor) readULEB128() (uint64, error) {
	var result uint64
	var shift uint
	for i := 0; i < 10; i++ {
		b, err := c.readU8()
		if err != nil {
			return 0, newError(Malformed, "unexpected end of input while reading ULEB128")
		}
		if shift == 63 && b > 1 {
			return 0, newError(Malformed, "ULEB128 value overflows u64")
		}
		low7 := uint64(b & 0x7f)
		result |= low7 << shift
		if b&0x80 == 0 {
			if shift > 0 && low7 == 0 {
				return 0, newError(Malformed, "over-long ULEB128 encoding")
			}
			return result, nil
		}
		shift += 7
	}
	return 0, newError(Malformed, "ULEB128 encoding uses more than 10 bytes")
}

// readULEB128Bounded reads a ULEB128 value and checks it against max. The
// returned error identifies the failing field by name.
func (c *cursor) readULEB128Bounded(max uint64, field string) (uint64, error) {
	v, err := c.readULEB128()
	if err != nil {
		return 0, err
	}
	if v > max {
		return 0, newError(Malformed, "%s value %d exceeds maximum %d", field, v, max)
	}
	return v, nil
}

// readULEB128AsIndex reads a bounded ULEB128 value intended to be used as
// a small integer index or count, returning it as int.
func (c *cursor) readULEB128AsIndex(max uint64, field string) (int, error) {
	v, err := c.readULEB128Bounded(max, field)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// readLengthPrefixedBytes reads a ULEB128 length (bounded by max) followed
// by that many raw bytes.
func (c *cursor) readLengthPrefixedBytes(max uint64, field string) ([]byte, error) {
	n, err := c.readULEB128Bounded(max, field)
	if err != nil {
		return nil, err
	}
	return c.readExact(int(n))
}

// selfModuleIdentifier is the one identifier spelling the grammar below
// would otherwise reject (it starts with '<'), reserved by convention for
// a module referring to itself before its own name is known.
const selfModuleIdentifier = "<SELF>"

// readIdentifier reads a length-prefixed UTF-8 string and validates it
// against the identifier grammar: non-empty, valid UTF-8, and either the
// <SELF> sentinel or a leading letter/underscore followed by any number
// of letters, digits, or underscores.
func (c *cursor) readIdentifier(max uint64) (string, error) {
	b, err := c.readLengthPrefixedBytes(max, "identifier size")
	if err != nil {
		return "", err
	}
	if len(b) == 0 {
		return "", newError(Malformed, "empty identifier")
	}
	if !utf8.Valid(b) {
		return "", newError(Malformed, "identifier is not valid UTF-8")
	}
	s := string(b)
	if s != selfModuleIdentifier && !isIdentifierGrammar(s) {
		return "", newError(Malformed, "identifier %q does not match the identifier grammar", s)
	}
	return s, nil
}

// isIdentifierGrammar reports whether s matches [a-zA-Z_][a-zA-Z0-9_]*.
func isIdentifierGrammar(s string) bool {
	for i, r := range s {
		switch {
		case r == '_':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
