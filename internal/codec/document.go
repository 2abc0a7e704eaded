// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kosenkov

// Package codec applies collection policies to whole records: sensitive and
// default-deny fields are sanitized, ciphered, and moved into a
// self-describing container on the way to the store, and recovered on the
// way back.
//
// The central design decisions live here: per-field failure isolation and
// graceful degradation. One corrupted field, or one not-yet-ready key, must
// never block access to the rest of a record's data, and a record that
// cannot be ciphered yet is still persisted in plaintext rather than
// blocking the user's write.
package codec

import (
	"context"
	"sort"
	"time"

	"github.com/pkosenkov/fieldvault/internal/crypto"
	"github.com/pkosenkov/fieldvault/internal/diag"
	"github.com/pkosenkov/fieldvault/internal/logger"
	"github.com/pkosenkov/fieldvault/internal/policy"
	"github.com/pkosenkov/fieldvault/models"
)

// Config tunes the codec's degradation behaviour.
type Config struct {
	// Enabled turns field encryption on. When false every record passes
	// through in plaintext.
	Enabled bool

	// EncodeWait bounds how long Encode waits for the key before saving in
	// plaintext.
	EncodeWait time.Duration

	// DecodeWait bounds how long Decode waits for the key before returning
	// a partial record.
	DecodeWait time.Duration
}

// DefaultConfig matches the shipped client: encryption on, short wait on
// writes, longer wait on reads.
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		EncodeWait: 2 * time.Second,
		DecodeWait: 6 * time.Second,
	}
}

// DocumentCodec is the policy-driven record encoder/decoder.
type DocumentCodec struct {
	keys     KeyProvider
	cipher   crypto.FieldCipher
	policies *policy.Table
	cfg      Config
	stats    *diag.Stats
	log      *logger.Logger
}

// NewDocumentCodec constructs a DocumentCodec. stats may be nil when
// diagnostics are not wired up.
func NewDocumentCodec(keys KeyProvider, cipher crypto.FieldCipher, policies *policy.Table, cfg Config, stats *diag.Stats, log *logger.Logger) *DocumentCodec {
	return &DocumentCodec{
		keys:     keys,
		cipher:   cipher,
		policies: policies,
		cfg:      cfg,
		stats:    stats,
		log:      log,
	}
}

// Encode implements [RecordCodec]. Sensitive fields and, by default-deny,
// every scalar field not explicitly exempt are sanitized, ciphered, and
// moved into the encryptedFields container. Nested objects outside the
// sensitive list stay in plaintext (a known limitation of the scheme).
//
// When the collection has no policy, encryption is disabled, or the key is
// not ready within the bounded wait, the record is returned unmodified and
// the degradation is logged: callers must be able to persist even when
// encryption is unavailable.
func (c *DocumentCodec) Encode(ctx context.Context, collection string, record models.Record) models.Record {
	if record == nil {
		return record
	}

	pol, covered := c.policies.Lookup(collection)
	if !covered {
		c.log.Debug().Str("collection", collection).Msg("no policy for collection, storing plaintext")
		return record
	}
	if !c.cfg.Enabled {
		c.log.Debug().Str("collection", collection).Msg("encryption disabled, storing plaintext")
		return record
	}

	key, ok := c.waitForKey(ctx, c.cfg.EncodeWait)
	if !ok {
		c.stats.RecordEncodeFallback()
		c.log.Warn().
			Str("collection", collection).
			Msg("encryption key not ready, record persisted in plaintext")
		return record
	}

	out := record.Clone()
	encrypted := make(map[string]string)

	for name, value := range record {
		if name == models.EncryptedFieldsKey || name == models.SchemeVersionKey {
			continue
		}
		if !shouldEncrypt(pol, name, value) {
			continue
		}

		ct, err := c.cipher.Encrypt(key, crypto.EscapeValue(value))
		if err != nil {
			// Leave the field in plaintext rather than losing the write.
			c.log.Warn().Err(err).
				Str("collection", collection).
				Str("field", name).
				Msg("field encryption failed, leaving plaintext")
			continue
		}

		encrypted[name] = ct
		delete(out, name)
	}

	if len(encrypted) > 0 {
		out[models.EncryptedFieldsKey] = encrypted
		out[models.SchemeVersionKey] = pol.SchemeVersion
	}

	return out
}

// shouldEncrypt applies the policy to a single field. Sensitive fields are
// always ciphered when they carry a value; everything else follows
// default-deny: scalar and not exempt means encrypt.
func shouldEncrypt(pol models.CollectionPolicy, name string, value any) bool {
	if value == nil {
		return false
	}
	if s, isString := value.(string); isString && s == "" {
		return false
	}

	if pol.IsSensitive(name) {
		return true
	}
	if pol.IsExempt(name) {
		return false
	}
	return !isNested(value)
}

func isNested(value any) bool {
	switch value.(type) {
	case map[string]any, []any, models.Record:
		return true
	default:
		return false
	}
}

// Decode implements [RecordCodec]. Records without the ciphered container
// pass through untouched (legacy data and uncovered collections). When the
// key is not ready within the bounded wait the container is stripped and
// only the plaintext fields come back, explicitly marked PartiallyDecoded.
// Otherwise every field is decrypted independently: a failing field keeps
// its last-known plaintext value if one is still present in the record and
// is dropped otherwise, while the rest of the document decodes normally.
func (c *DocumentCodec) Decode(ctx context.Context, collection string, record models.Record) models.DecodeResult {
	if record == nil {
		return models.DecodeResult{Status: models.Passthrough}
	}

	encryptedFields, present := record.EncryptedFields()
	if !present {
		return models.DecodeResult{Record: record, Status: models.Passthrough}
	}

	out := record.Clone()
	out.StripEncryptionMarkers()

	key, ok := c.waitForKey(ctx, c.cfg.DecodeWait)
	if !ok {
		c.stats.RecordPartialDecode()
		c.log.Warn().
			Str("collection", collection).
			Int("ciphered_fields", len(encryptedFields)).
			Msg("encryption key not ready, returning partial record")

		return models.DecodeResult{
			Record:        out,
			Status:        models.PartiallyDecoded,
			MissingFields: sortedFieldNames(encryptedFields),
		}
	}

	var missing []string
	hadErrors := false

	for name, ct := range encryptedFields {
		value, err := c.cipher.Decrypt(key, ct)
		if err != nil {
			hadErrors = true
			c.stats.RecordFieldFailure()
			c.log.Warn().Err(err).
				Str("collection", collection).
				Str("field", name).
				Msg("field decryption failed")

			// A last-known plaintext value may still sit in the record
			// (written before the field became sensitive). Keep it; only
			// report the field missing when there is nothing to show.
			if _, hasLast := out[name]; !hasLast {
				missing = append(missing, name)
			}
			continue
		}

		out[name] = crypto.UnescapeValue(value)
	}

	sort.Strings(missing)

	status := models.Decoded
	if hadErrors {
		status = models.PartiallyDecoded
		c.stats.RecordPartialDecode()
	}

	return models.DecodeResult{
		Record:        out,
		Status:        status,
		MissingFields: missing,
		HadErrors:     hadErrors,
	}
}

func (c *DocumentCodec) waitForKey(ctx context.Context, timeout time.Duration) ([]byte, bool) {
	if !c.keys.WaitForReady(ctx, timeout) {
		return nil, false
	}
	return c.keys.Key()
}

func sortedFieldNames(fields map[string]string) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
