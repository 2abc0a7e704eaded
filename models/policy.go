// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kosenkov

package models

// CollectionPolicy describes, for a single collection, which record fields
// are ciphered and which are stored in the clear. Policies are read-only
// configuration loaded once at startup.
type CollectionPolicy struct {
	// SensitiveFields are always ciphered when present with a non-empty value.
	SensitiveFields []string `json:"sensitive_fields"`

	// ExemptFields are never ciphered. Every scalar field that is neither
	// sensitive nor exempt is ciphered by default.
	ExemptFields []string `json:"exempt_fields"`

	// SchemeVersion is the marker attached to encoded records so they are
	// self-describing (e.g. "v1").
	SchemeVersion string `json:"scheme_version"`
}

// IsSensitive reports whether the named field is explicitly listed as
// sensitive.
func (p CollectionPolicy) IsSensitive(field string) bool {
	return containsField(p.SensitiveFields, field)
}

// IsExempt reports whether the named field is explicitly excluded from
// encryption.
func (p CollectionPolicy) IsExempt(field string) bool {
	return containsField(p.ExemptFields, field)
}

func containsField(fields []string, field string) bool {
	for _, f := range fields {
		if f == field {
			return true
		}
	}
	return false
}
