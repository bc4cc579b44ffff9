// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/saferwall/movebc"
	"github.com/saferwall/movebc/internal/cache"
)

type server struct {
	cfg   Config
	cache *cache.Store
}

func respondJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, map[string]string{"error": message})
}

// healthResponse is the body returned by GET /v1/health.
type healthResponse struct {
	Status       string `json:"status"`
	VersionMin   uint32 `json:"version_min"`
	VersionMax   uint32 `json:"version_max"`
}

// handleHealth godoc
// @Summary     Health check
// @Success     200 {object} healthResponse
// @Router      /v1/health [get]
func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, healthResponse{
		Status:     "ok",
		VersionMin: movebc.VersionMin,
		VersionMax: movebc.VersionMax,
	})
}

// handleDecode godoc
// @Summary     Decode a Move VM bytecode binary
// @Param       kind query string false "module or script" default(module)
// @Success     200 {object} movebc.CompiledUnit
// @Failure     400 {object} map[string]string
// @Router      /v1/decode [post]
func (s *server) handleDecode(w http.ResponseWriter, r *http.Request) {
	kind := movebc.KindModule
	if r.URL.Query().Get("kind") == "script" {
		kind = movebc.KindScript
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxRequestSize+1))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if int64(len(body)) > s.cfg.MaxRequestSize {
		respondError(w, http.StatusRequestEntityTooLarge, "request body exceeds max_request_size")
		return
	}

	if s.cache != nil {
		if cached, err := s.cache.Get(body); err == nil && cached != nil {
			respondJSON(w, http.StatusOK, cached)
			return
		}
	}

	var unit *movebc.CompiledUnit
	switch kind {
	case movebc.KindModule:
		mod, err := movebc.DecodeModule(body)
		if err != nil {
			respondDecodeError(w, err)
			return
		}
		unit = &movebc.CompiledUnit{Kind: movebc.KindModule, Module: mod, Version: mod.Version}
	case movebc.KindScript:
		script, err := movebc.DecodeScript(body)
		if err != nil {
			respondDecodeError(w, err)
			return
		}
		unit = &movebc.CompiledUnit{Kind: movebc.KindScript, Script: script, Version: script.Version}
	}

	if s.cache != nil {
		s.cache.Put(body, unit)
	}

	respondJSON(w, http.StatusOK, unit)
}

func respondDecodeError(w http.ResponseWriter, err error) {
	status, _ := movebc.StatusOf(err)
	respondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
		"error":  err.Error(),
		"status": status.String(),
	})
}
