// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package movebc

// Constant is one entry of the constant pool: a type tag describing how
// to interpret Data plus the raw serialized bytes themselves. Contents of
// Data are opaque to this decoder.
type Constant struct {
	Type SignatureToken
	Data []byte
}

func decodeConstant(c *cursor, cfg Config) (Constant, error) {
	tok, err := decodeSignatureToken(c, cfg)
	if err != nil {
		return Constant{}, err
	}
	data, err := c.readLengthPrefixedBytes(cfg.ConstantSizeMax, "constant data size")
	if err != nil {
		return Constant{}, err
	}
	// Copy out of the sub-cursor's backing slice so the returned
	// CompiledUnit never aliases the caller's input buffer.
	owned := make([]byte, len(data))
	copy(owned, data)
	return Constant{Type: tok, Data: owned}, nil
}

// Metadata is one opaque key/value entry, only legal from VersionMetadata
// onward. Contents are not interpreted by this decoder.
type Metadata struct {
	Key   []byte
	Value []byte
}

func decodeMetadata(c *cursor, cfg Config) (Metadata, error) {
	key, err := c.readLengthPrefixedBytes(cfg.MetadataKeySizeMax, "metadata key size")
	if err != nil {
		return Metadata{}, err
	}
	value, err := c.readLengthPrefixedBytes(cfg.MetadataValueSizeMax, "metadata value size")
	if err != nil {
		return Metadata{}, err
	}
	k := make([]byte, len(key))
	copy(k, key)
	v := make([]byte, len(value))
	copy(v, value)
	return Metadata{Key: k, Value: v}, nil
}

// decodeAddressIdentifiers reads the whole address-identifier table
// window as a concatenation of fixed-width addresses. The total window
// length must be a multiple of AddressLength.
func decodeAddressIdentifiers(c *cursor) ([][AddressLength]byte, error) {
	total := c.remaining()
	if total%AddressLength != 0 {
		return nil, newError(Malformed, "address identifier table length %d is not a multiple of %d", total, AddressLength)
	}
	n := total / AddressLength
	out := make([][AddressLength]byte, 0, n)
	for i := 0; i < n; i++ {
		b, err := c.readExact(AddressLength)
		if err != nil {
			return nil, err
		}
		var addr [AddressLength]byte
		copy(addr[:], b)
		out = append(out, addr)
	}
	return out, nil
}
