// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package movebc

// Fuzz is a github.com/dvyukov/go-fuzz entry point. It exercises both the
// module and script grammars against the same input, since a well-formed
// decode under either is equally interesting corpus material.
func Fuzz(data []byte) int {
	interesting := 0
	if _, err := DecodeModule(data); err == nil {
		interesting = 1
	}
	if _, err := DecodeScript(data); err == nil {
		interesting = 1
	}
	return interesting
}
