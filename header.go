// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package movebc

import (
	"fmt"
	"sort"
)

// tableEntry is one record of the table-of-contents directory.
type tableEntry struct {
	kind   TableType
	offset uint32
	count  uint32
}

// header holds the parsed magic/version/table-directory prefix of a
// binary, plus the byte offset at which the table-content region begins.
type header struct {
	version     uint32
	tables      []tableEntry
	contentBase int
	contentLen  uint32
}

// parseHeader reads the magic, ULEB128 version, ULEB128 table count, and
// that many table directory entries from c. It does not read the table
// contents themselves.
func parseHeader(c *cursor, cfg Config) (*header, error) {
	magic, err := c.readExact(len(Magic))
	if err != nil {
		return nil, &DecodeError{Status: BadMagic, Message: "input shorter than the magic prefix"}
	}
	for i, b := range magic {
		if b != Magic[i] {
			return nil, &DecodeError{Status: BadMagic, Message: "magic prefix mismatch"}
		}
	}

	rawVersion, err := c.readULEB128()
	if err != nil {
		return nil, err
	}
	if rawVersion < uint64(VersionMin) || rawVersion > uint64(cfg.MaxVersion) {
		return nil, &DecodeError{Status: UnknownVersion,
			Message: fmtVersion(rawVersion, cfg.MaxVersion)}
	}
	version := uint32(rawVersion)
	c.version = version

	// The table count is ULEB128-encoded on the wire but the format
	// defines TableCountMax as a u8 upper bound. A directory whose
	// ULEB128 encoding could represent more entries than that is still
	// rejected: the u8 bound is authoritative regardless of how the
	// count was spelled.
	tableCount, err := c.readULEB128Bounded(cfg.TableCountMax, "table count")
	if err != nil {
		return nil, err
	}

	entries := make([]tableEntry, 0, tableCount)
	for i := uint64(0); i < tableCount; i++ {
		kindByte, err := c.readU8()
		if err != nil {
			return nil, err
		}
		kind, ok := isKnownTableType(kindByte)
		if !ok {
			return nil, newError(UnknownTableType, "table kind byte 0x%02x", kindByte)
		}
		offset, err := c.readULEB128Bounded(1<<32-1, "table offset")
		if err != nil {
			return nil, err
		}
		size, err := c.readULEB128Bounded(1<<32-1, "table size")
		if err != nil {
			return nil, err
		}
		entries = append(entries, tableEntry{kind: kind, offset: uint32(offset), count: uint32(size)})
	}

	contentLen, err := checkTables(entries, len(c.buf)-c.pos)
	if err != nil {
		return nil, err
	}

	return &header{
		version:     version,
		tables:      entries,
		contentBase: c.pos,
		contentLen:  contentLen,
	}, nil
}

// checkTables validates that entries form a contiguous, disjoint,
// zero-based run sorted by offset with no duplicate kind and no
// zero-length table, and returns the total content length. remaining is
// the number of bytes left in the outer cursor after the directory.
func checkTables(entries []tableEntry, remaining int) (uint32, error) {
	sorted := make([]tableEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].offset < sorted[j].offset })

	seen := make(map[TableType]bool, len(sorted))
	var runningOffset uint64
	for _, e := range sorted {
		if seen[e.kind] {
			return 0, newError(DuplicateTable, "table kind %s appears more than once", e.kind)
		}
		seen[e.kind] = true

		if e.count == 0 {
			return 0, newError(BadHeaderTable, "table %s has zero length", e.kind)
		}
		if uint64(e.offset) != runningOffset {
			return 0, newError(BadHeaderTable, "table %s is not contiguous with the previous table (expected offset %d, got %d)", e.kind, runningOffset, e.offset)
		}

		next := runningOffset + uint64(e.count)
		if next < runningOffset {
			return 0, newError(BadHeaderTable, "table %s overflows the offset space", e.kind)
		}
		runningOffset = next
	}

	if runningOffset > uint64(remaining) {
		return 0, newError(BadHeaderTable, "table content length %d exceeds remaining input %d", runningOffset, remaining)
	}

	return uint32(runningOffset), nil
}

func fmtVersion(got uint64, max uint32) string {
	if got == 0 {
		return "version 0 is not a valid format version"
	}
	return fmt.Sprintf("unsupported version %d (max %d)", got, max)
}
