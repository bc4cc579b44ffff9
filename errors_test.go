// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package movebc

import "testing"

func TestDecodeErrorMessage(t *testing.T) {
	err := newError(Malformed, "bad thing %d", 7)
	if err.Error() != "Malformed: bad thing 7" {
		t.Fatalf("got %q", err.Error())
	}
}

func TestStatusOfNonDecodeError(t *testing.T) {
	if _, ok := StatusOf(nil); ok {
		t.Fatal("StatusOf(nil) should report false")
	}
}

func TestDecodeModuleWithConfigNeverPanics(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTypeDepth = -1 // nonsensical on purpose
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic escaped the decode boundary: %v", r)
		}
	}()
	if _, err := DecodeModuleWithConfig(emptyModuleBytes(), cfg); err != nil {
		t.Logf("decode failed as expected under a hostile config: %v", err)
	}
}
