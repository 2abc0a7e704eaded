// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kosenkov

package models

// Keys reserved inside a record by the encryption layer. A field with one of
// these names never belongs to the caller's payload.
const (
	// EncryptedFieldsKey is the record key under which the codec stores the
	// container of ciphered field values.
	EncryptedFieldsKey = "encryptedFields"

	// SchemeVersionKey is the record key carrying the encryption scheme
	// version marker, attached whenever at least one field was ciphered.
	SchemeVersionKey = "schemeVersion"
)

// Record is a flat JSON-like document as produced by the rest of the
// application: field name mapped to a scalar or nested value. Records are
// transient, created per read/write call and owned by the caller.
type Record map[string]any

// Clone returns a shallow copy of the record. The codec works on a copy so
// the caller's input is never mutated in place.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// EncryptedFields extracts the ciphered-field container from the record.
// The second return value reports whether the container is present, i.e.
// whether the record was produced by the encoder at all.
func (r Record) EncryptedFields() (map[string]string, bool) {
	raw, ok := r[EncryptedFieldsKey]
	if !ok {
		return nil, false
	}

	switch fields := raw.(type) {
	case map[string]string:
		return fields, true
	case map[string]any:
		// Records that went through JSON unmarshalling come back as
		// map[string]any; non-string entries are garbage and are skipped.
		out := make(map[string]string, len(fields))
		for name, value := range fields {
			if s, isString := value.(string); isString {
				out[name] = s
			}
		}
		return out, true
	default:
		return nil, false
	}
}

// StripEncryptionMarkers removes the ciphered-field container and the scheme
// version marker, leaving only the plaintext fields.
func (r Record) StripEncryptionMarkers() {
	delete(r, EncryptedFieldsKey)
	delete(r, SchemeVersionKey)
}
