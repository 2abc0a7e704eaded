// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kosenkov

package models

// DecodeStatus classifies the outcome of decoding a single record.
type DecodeStatus int

const (
	// Decoded means every ciphered field was recovered.
	Decoded DecodeStatus = iota

	// PartiallyDecoded means the record is usable but degraded: the key was
	// not ready in time, or one or more fields failed authentication and
	// were substituted or dropped.
	PartiallyDecoded

	// Passthrough means the record carried no ciphered fields and was
	// returned as-is (legacy records, unknown collections).
	Passthrough
)

// String returns a human-readable status label for logs.
func (s DecodeStatus) String() string {
	switch s {
	case Decoded:
		return "decoded"
	case PartiallyDecoded:
		return "partially_decoded"
	case Passthrough:
		return "passthrough"
	default:
		return "unknown"
	}
}

// DecodeResult is the typed outcome of DocumentCodec.Decode. Callers must
// consciously handle the degraded case instead of guessing from missing map
// keys.
type DecodeResult struct {
	// Record holds every field that could be recovered.
	Record Record

	// Status classifies the overall outcome.
	Status DecodeStatus

	// MissingFields lists fields that were ciphered in the input but could
	// not be recovered and had no last-known plaintext fallback.
	MissingFields []string

	// HadErrors is set when at least one field failed to decrypt, even if a
	// plaintext fallback kept it out of MissingFields.
	HadErrors bool
}
