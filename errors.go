// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package movebc

import (
	"errors"
	"fmt"
)

// StatusCode identifies the broad class of a decode failure. Every decode
// error in the package carries one of these so a caller (or a fuzzer) can
// discriminate malformed input from resource-exhaustion attempts without
// string-matching a message.
type StatusCode int

// The closed error taxonomy. Decoding is all-or-nothing: the first error
// encountered aborts the whole decode and no partial CompiledModule or
// CompiledScript is ever returned.
const (
	_ StatusCode = iota

	// BadMagic is returned when the leading magic bytes don't match.
	BadMagic
	// UnknownVersion is returned when the format version is unrecognized or
	// exceeds the caller-supplied max_version.
	UnknownVersion
	// UnknownTableType is returned for a table directory entry whose kind
	// byte isn't one of the known table kinds.
	UnknownTableType
	// BadHeaderTable is returned when the table directory isn't a
	// contiguous, non-overlapping, zero-based run of tables.
	BadHeaderTable
	// DuplicateTable is returned when two directory entries share a kind.
	DuplicateTable
	// Malformed is the catch-all for structural violations: EOF, record
	// count mismatch, invalid UTF-8, zero-arity struct instantiation,
	// excessive signature depth, a feature used below its version gate, a
	// bad blob size, and so on.
	Malformed
	// BadU16 is returned when a fixed-width u16 read runs out of bytes.
	BadU16
	// BadU32 is returned when a fixed-width u32 read runs out of bytes.
	BadU32
	// BadU64 is returned when a fixed-width u64 read runs out of bytes.
	BadU64
	// BadU128 is returned when a fixed-width u128 read runs out of bytes.
	BadU128
	// BadU256 is returned when a fixed-width u256 read runs out of bytes.
	BadU256
	// UnknownSerializedType is returned for an unrecognized signature-token
	// tag byte.
	UnknownSerializedType
	// UnknownOpcode is returned for an opcode byte outside the known range.
	UnknownOpcode
	// UnknownAbility is returned for an invalid ability bit pattern.
	UnknownAbility
	// UnknownNativeStructFlag is returned for an invalid struct field-info
	// tag.
	UnknownNativeStructFlag
	// InvalidFlagBits is returned when residual bits remain set in a
	// function-definition flag byte after extracting the known ones.
	InvalidFlagBits
	// VerifierInvariantViolation is reserved for host-level faults (e.g. an
	// offset-arithmetic panic) caught by the package's panic guard. No
	// intentional decoder path ever returns it directly.
	VerifierInvariantViolation
)

var statusNames = map[StatusCode]string{
	BadMagic:                   "BadMagic",
	UnknownVersion:             "UnknownVersion",
	UnknownTableType:           "UnknownTableType",
	BadHeaderTable:             "BadHeaderTable",
	DuplicateTable:             "DuplicateTable",
	Malformed:                  "Malformed",
	BadU16:                     "BadU16",
	BadU32:                     "BadU32",
	BadU64:                     "BadU64",
	BadU128:                    "BadU128",
	BadU256:                    "BadU256",
	UnknownSerializedType:      "UnknownSerializedType",
	UnknownOpcode:              "UnknownOpcode",
	UnknownAbility:             "UnknownAbility",
	UnknownNativeStructFlag:    "UnknownNativeStructFlag",
	InvalidFlagBits:            "InvalidFlagBits",
	VerifierInvariantViolation: "VerifierInvariantViolation",
}

func (s StatusCode) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("StatusCode(%d)", int(s))
}

// DecodeError is the error type every decode failure in this package
// surfaces as. It carries enough context (status plus a short message) to
// identify the failing record kind.
type DecodeError struct {
	Status  StatusCode
	Message string
}

func (e *DecodeError) Error() string {
	if e.Message == "" {
		return e.Status.String()
	}
	return fmt.Sprintf("%s: %s", e.Status, e.Message)
}

func newError(status StatusCode, format string, args ...interface{}) *DecodeError {
	return &DecodeError{Status: status, Message: fmt.Sprintf(format, args...)}
}

// StatusOf extracts the StatusCode from err if it is (or wraps) a
// *DecodeError, and false otherwise.
func StatusOf(err error) (StatusCode, bool) {
	var de *DecodeError
	if !errors.As(err, &de) {
		return 0, false
	}
	return de.Status, true
}
