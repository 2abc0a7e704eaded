// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kosenkov

// Package diag counts encryption degradations so operators can see how
// often the subsystem falls back to plaintext or partial results. The
// counters complement the warning logs the codec emits on the same paths.
package diag

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"

	"github.com/pkosenkov/fieldvault/internal/logger"
)

// Stats aggregates degradation counters. All methods are safe for
// concurrent use and tolerate a nil receiver so the codec can run without
// diagnostics wired up.
type Stats struct {
	encodeFallbacks atomic.Int64
	partialDecodes  atomic.Int64
	fieldFailures   atomic.Int64
}

// NewStats constructs an empty counter set.
func NewStats() *Stats {
	return &Stats{}
}

// RecordEncodeFallback counts a record persisted in plaintext because the
// key was not ready or encryption was disabled.
func (s *Stats) RecordEncodeFallback() {
	if s == nil {
		return
	}
	s.encodeFallbacks.Add(1)
}

// RecordPartialDecode counts a record returned with fewer fields than it
// was stored with.
func (s *Stats) RecordPartialDecode() {
	if s == nil {
		return
	}
	s.partialDecodes.Add(1)
}

// RecordFieldFailure counts a single field that failed authentication
// during decode.
func (s *Stats) RecordFieldFailure() {
	if s == nil {
		return
	}
	s.fieldFailures.Add(1)
}

// Snapshot is a point-in-time copy of the counters, JSON-ready for the
// debug endpoint.
type Snapshot struct {
	EncodeFallbacks int64 `json:"encode_fallbacks"`
	PartialDecodes  int64 `json:"partial_decodes"`
	FieldFailures   int64 `json:"field_failures"`
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	return Snapshot{
		EncodeFallbacks: s.encodeFallbacks.Load(),
		PartialDecodes:  s.partialDecodes.Load(),
		FieldFailures:   s.fieldFailures.Load(),
	}
}

// Handler returns the debug router exposing the counters at
// GET /debug/vault.
func Handler(stats *Stats) http.Handler {
	r := chi.NewRouter()
	r.Get("/debug/vault", func(w http.ResponseWriter, req *http.Request) {
		log := logger.FromRequest(req)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(stats.Snapshot()); err != nil {
			log.Err(err).Msg("write diag snapshot")
		}
	})
	return r
}
