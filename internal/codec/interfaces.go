package codec

import (
	"context"
	"time"

	"github.com/pkosenkov/fieldvault/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/codec_mock.go -package=mock

// KeyProvider is the slice of the session coordinator the codec depends on:
// a bounded wait for readiness and access to the current key. The codec
// never writes key state.
type KeyProvider interface {
	// WaitForReady blocks until a key is ready or the timeout elapses,
	// returning a definite answer either way.
	WaitForReady(ctx context.Context, timeout time.Duration) bool

	// Key returns the current key; the second value is false while no key
	// is ready.
	Key() ([]byte, bool)
}

// RecordCodec encrypts and decrypts all applicable fields of one record
// according to the collection's policy.
type RecordCodec interface {
	// Encode moves sensitive and default-deny fields into the ciphered
	// container. It never fails: when encryption is unavailable the record
	// comes back unmodified and the degradation is logged, so a write can
	// always proceed.
	Encode(ctx context.Context, collection string, record models.Record) models.Record

	// Decode recovers the ciphered fields. Per-field failures never abort
	// the rest of the document; the typed result reports what was lost.
	Decode(ctx context.Context, collection string, record models.Record) models.DecodeResult
}

// BatchRecordCodec applies RecordCodec across a slice of records with
// per-item failure isolation and parallel execution. Output order always
// matches input order.
type BatchRecordCodec interface {
	EncodeAll(ctx context.Context, collection string, records []models.Record) []models.Record
	DecodeAll(ctx context.Context, collection string, records []models.Record) []models.DecodeResult
}
