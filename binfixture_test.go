// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package movebc

// binBuilder assembles a well-formed (or deliberately broken) binary
// container for tests: a magic/version/table-directory header, the table
// contents in directory order, and a trailer appended last.
type binBuilder struct {
	version uint32
	tables  []builtTable
	trailer []byte
}

type builtTable struct {
	kind TableType
	data []byte
}

func newBin(version uint32) *binBuilder {
	return &binBuilder{version: version}
}

func (b *binBuilder) table(kind TableType, data []byte) *binBuilder {
	b.tables = append(b.tables, builtTable{kind: kind, data: data})
	return b
}

func (b *binBuilder) setTrailer(data []byte) *binBuilder {
	b.trailer = data
	return b
}

func (b *binBuilder) bytes() []byte {
	var content []byte
	var dir []byte
	offset := uint32(0)
	for _, t := range b.tables {
		dir = append(dir, byte(t.kind))
		dir = appendULEB128(dir, uint64(offset))
		dir = appendULEB128(dir, uint64(len(t.data)))
		content = append(content, t.data...)
		offset += uint32(len(t.data))
	}

	var out []byte
	out = append(out, Magic[:]...)
	out = appendULEB128(out, uint64(b.version))
	out = appendULEB128(out, uint64(len(b.tables)))
	out = append(out, dir...)
	out = append(out, content...)
	out = append(out, b.trailer...)
	return out
}

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
	addr := make([]byte, AddressLength)
	addr[0] = b
	return addr
}
