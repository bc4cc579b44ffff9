// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package movebc

import (
	"os"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/saferwall/movebc/log"
)

// Options tunes Open/OpenBytes beyond DefaultConfig.
type Options struct {
	// Config bounds table/pool sizes and decode depth. Zero value means
	// DefaultConfig().
	Config Config

	// Logger receives Errorf-level diagnostics when Close fails to
	// unmap a file. A custom logger.
	Logger log.Logger
}

func (o *Options) config() Config {
	if o == nil || (o.Config == Config{}) {
		return DefaultConfig()
	}
	return o.Config
}

func (o *Options) helper() *log.Helper {
	var logger log.Logger
	if o == nil || o.Logger == nil {
		logger = log.NewStdLogger(os.Stdout)
		return log.NewHelper(log.NewFilter(logger, log.FilterLevel(log.LevelError)))
	}
	return log.NewHelper(o.Logger)
}

// MappedUnit is a CompiledUnit decoded from a memory-mapped file. Close
// unmaps the backing pages; after Close, the CompiledModule/CompiledScript
// it returned remain valid since decodeConstant/decodeMetadata copy their
// payloads out of the mapped region.
type MappedUnit struct {
	*CompiledUnit

	data   mmap.MMap
	f      *os.File
	logger *log.Helper
}

// Open memory-maps the file at name read-only and decodes it as either a
// CompiledModule or CompiledScript depending on kind.
func Open(name string, kind UnitKind, opts *Options) (*MappedUnit, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}

	unit, err := decodeMapped(data, kind, opts.config())
	if err != nil {
		data.Unmap()
		f.Close()
		return nil, err
	}

	return &MappedUnit{CompiledUnit: unit, data: data, f: f, logger: opts.helper()}, nil
}

// OpenBytes decodes buf as either a CompiledModule or CompiledScript
// without requiring a backing file. The returned MappedUnit's Close is a
// no-op.
func OpenBytes(buf []byte, kind UnitKind, opts *Options) (*MappedUnit, error) {
	unit, err := decodeMapped(buf, kind, opts.config())
	if err != nil {
		return nil, err
	}
	return &MappedUnit{CompiledUnit: unit}, nil
}

func decodeMapped(buf []byte, kind UnitKind, cfg Config) (*CompiledUnit, error) {
	switch kind {
	case KindModule:
		mod, err := DecodeModuleWithConfig(buf, cfg)
		if err != nil {
			return nil, err
		}
		return &CompiledUnit{Kind: KindModule, Module: mod, Version: mod.Version}, nil
	case KindScript:
		script, err := DecodeScriptWithConfig(buf, cfg)
		if err != nil {
			return nil, err
		}
		return &CompiledUnit{Kind: KindScript, Script: script, Version: script.Version}, nil
	default:
		return nil, newError(Malformed, "unknown unit kind %d", kind)
	}
}

// Close unmaps the file, if one was mapped, and closes its descriptor.
func (u *MappedUnit) Close() error {
	if u.data != nil {
		if err := u.data.Unmap(); err != nil && u.logger != nil {
			u.logger.Errorf("unmap failed: %v", err)
		}
	}
	if u.f != nil {
		return u.f.Close()
	}
	return nil
}
