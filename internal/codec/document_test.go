package codec_test

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkosenkov/fieldvault/internal/codec"
	"github.com/pkosenkov/fieldvault/internal/crypto"
	"github.com/pkosenkov/fieldvault/internal/diag"
	"github.com/pkosenkov/fieldvault/internal/logger"
	"github.com/pkosenkov/fieldvault/internal/policy"
	"github.com/pkosenkov/fieldvault/models"
)

// staticKeys is a KeyProvider stub: either permanently ready with a fixed
// key or permanently not ready.
type staticKeys struct {
	key   []byte
	ready bool
}

func (s staticKeys) WaitForReady(_ context.Context, _ time.Duration) bool { return s.ready }

func (s staticKeys) Key() ([]byte, bool) {
	if !s.ready {
		return nil, false
	}
	return s.key, true
}

const testPolicies = `{
	"expenses": {
		"sensitive_fields": ["note"],
		"exempt_fields": ["date", "category", "currency"],
		"scheme_version": "v1"
	}
}`

type codecFixture struct {
	codec *codec.DocumentCodec
	stats *diag.Stats
	key   []byte
}

func newFixture(t *testing.T, ready bool, cfg codec.Config) codecFixture {
	t.Helper()

	table, err := policy.Load([]byte(testPolicies))
	require.NoError(t, err)

	key, err := crypto.NewKeyDeriver().DeriveKey("codec-test-account")
	require.NoError(t, err)

	stats := diag.NewStats()
	c := codec.NewDocumentCodec(
		staticKeys{key: key, ready: ready},
		crypto.NewFieldCipher(),
		table,
		cfg,
		stats,
		logger.Nop(),
	)

	return codecFixture{codec: c, stats: stats, key: key}
}

func readyConfig() codec.Config {
	return codec.Config{Enabled: true, EncodeWait: time.Second, DecodeWait: time.Second}
}

func TestEncodeDecode_ExpenseScenario(t *testing.T) {
	fx := newFixture(t, true, readyConfig())
	ctx := context.Background()

	record := models.Record{
		"amount":   450,
		"note":     "Coffee <script>",
		"category": "food",
	}

	encoded := fx.codec.Encode(ctx, "expenses", record)

	// note is sensitive, amount is a non-exempt scalar: both move into the
	// container. category is exempt and stays put.
	assert.NotContains(t, encoded, "note")
	assert.NotContains(t, encoded, "amount")
	assert.Equal(t, "food", encoded["category"])
	assert.Equal(t, "v1", encoded[models.SchemeVersionKey])

	fields, ok := encoded.EncryptedFields()
	require.True(t, ok)
	assert.Len(t, fields, 2)
	assert.NotContains(t, fields["note"], "Coffee")

	result := fx.codec.Decode(ctx, "expenses", encoded)
	require.Equal(t, models.Decoded, result.Status)
	assert.False(t, result.HadErrors)
	assert.Empty(t, result.MissingFields)

	assert.Equal(t, float64(450), result.Record["amount"])
	assert.Equal(t, "Coffee <script>", result.Record["note"])
	assert.Equal(t, "food", result.Record["category"])
	assert.NotContains(t, result.Record, models.EncryptedFieldsKey)
	assert.NotContains(t, result.Record, models.SchemeVersionKey)
}

func TestEncode_NestedObjectsStayPlaintext(t *testing.T) {
	fx := newFixture(t, true, readyConfig())

	record := models.Record{
		"amount": 12.5,
		"split":  map[string]any{"alice": 6.25, "bob": 6.25},
		"tags":   []any{"food"},
	}

	encoded := fx.codec.Encode(context.Background(), "expenses", record)

	assert.Contains(t, encoded, "split")
	assert.Contains(t, encoded, "tags")
	assert.NotContains(t, encoded, "amount")
}

func TestEncode_NilAndEmptyValuesNeverEncrypted(t *testing.T) {
	fx := newFixture(t, true, readyConfig())

	record := models.Record{
		"note":   "",
		"payee":  nil,
		"amount": 3,
	}

	encoded := fx.codec.Encode(context.Background(), "expenses", record)

	fields, ok := encoded.EncryptedFields()
	require.True(t, ok)
	assert.Len(t, fields, 1, "only amount should be ciphered")
	assert.Equal(t, "", encoded["note"])
	assert.Contains(t, encoded, "payee")
}

func TestEncode_UnknownCollectionPassesThrough(t *testing.T) {
	fx := newFixture(t, true, readyConfig())

	record := models.Record{"secret": "visible"}
	encoded := fx.codec.Encode(context.Background(), "dashboard_widgets", record)

	assert.Equal(t, record, encoded)
	assert.NotContains(t, encoded, models.EncryptedFieldsKey)
}

func TestEncode_DisabledPassesThrough(t *testing.T) {
	cfg := readyConfig()
	cfg.Enabled = false
	fx := newFixture(t, true, cfg)

	record := models.Record{"note": "plain"}
	encoded := fx.codec.Encode(context.Background(), "expenses", record)

	assert.Equal(t, record, encoded)
}

func TestEncode_NotReadyFallsBackToPlaintext(t *testing.T) {
	cfg := readyConfig()
	cfg.EncodeWait = 50 * time.Millisecond
	fx := newFixture(t, false, cfg)

	record := models.Record{"note": "unsent", "amount": 9}
	encoded := fx.codec.Encode(context.Background(), "expenses", record)

	assert.Equal(t, record, encoded)
	assert.NotContains(t, encoded, models.EncryptedFieldsKey)
	assert.Equal(t, int64(1), fx.stats.Snapshot().EncodeFallbacks,
		"plaintext fallback must be observable")
}

func TestDecode_LegacyRecordPassesThrough(t *testing.T) {
	fx := newFixture(t, true, readyConfig())

	record := models.Record{"note": "written before encryption", "amount": 7}
	result := fx.codec.Decode(context.Background(), "expenses", record)

	assert.Equal(t, models.Passthrough, result.Status)
	assert.Equal(t, record, result.Record)
}

func TestDecode_NotReadyReturnsPartialRecord(t *testing.T) {
	ready := newFixture(t, true, readyConfig())
	encoded := ready.codec.Encode(context.Background(), "expenses", models.Record{
		"note":     "hidden",
		"amount":   42,
		"category": "food",
	})

	cfg := readyConfig()
	cfg.DecodeWait = 50 * time.Millisecond
	notReady := newFixture(t, false, cfg)

	result := notReady.codec.Decode(context.Background(), "expenses", encoded)

	assert.Equal(t, models.PartiallyDecoded, result.Status)
	assert.Equal(t, []string{"amount", "note"}, result.MissingFields)
	assert.Equal(t, "food", result.Record["category"])
	assert.NotContains(t, result.Record, models.EncryptedFieldsKey)
	assert.Equal(t, int64(1), notReady.stats.Snapshot().PartialDecodes)
}

func TestDecode_CorruptedFieldIsIsolated(t *testing.T) {
	fx := newFixture(t, true, readyConfig())
	ctx := context.Background()

	encoded := fx.codec.Encode(ctx, "expenses", models.Record{
		"note":   "still readable?",
		"amount": 100,
	})

	fields, ok := encoded.EncryptedFields()
	require.True(t, ok)
	fields["note"] = tamper(t, fields["note"])

	result := fx.codec.Decode(ctx, "expenses", encoded)

	assert.Equal(t, models.PartiallyDecoded, result.Status)
	assert.True(t, result.HadErrors)
	assert.Equal(t, []string{"note"}, result.MissingFields)
	assert.Equal(t, float64(100), result.Record["amount"],
		"one corrupted field must not block the rest of the record")
	assert.Equal(t, int64(1), fx.stats.Snapshot().FieldFailures)
}

func TestDecode_LastKnownPlaintextSurvivesCorruption(t *testing.T) {
	fx := newFixture(t, true, readyConfig())
	ctx := context.Background()

	encoded := fx.codec.Encode(ctx, "expenses", models.Record{"note": "fresh", "amount": 1})
	fields, ok := encoded.EncryptedFields()
	require.True(t, ok)
	fields["note"] = tamper(t, fields["note"])

	// A stale plaintext copy of the field is still sitting in the record.
	encoded["note"] = "last known note"

	result := fx.codec.Decode(ctx, "expenses", encoded)

	assert.True(t, result.HadErrors)
	assert.Empty(t, result.MissingFields)
	assert.Equal(t, "last known note", result.Record["note"])
}

func TestEncodeDecode_UnicodeRoundTrip(t *testing.T) {
	fx := newFixture(t, true, readyConfig())
	ctx := context.Background()

	record := models.Record{"note": `обед с "друзьями" / 団子 <tasty>`}
	result := fx.codec.Decode(ctx, "expenses", fx.codec.Encode(ctx, "expenses", record))

	require.Equal(t, models.Decoded, result.Status)
	assert.Equal(t, record["note"], result.Record["note"])
}

// tamper flips one ciphertext byte past the nonce.
func tamper(t *testing.T, ciphertext string) string {
	t.Helper()
	blob, err := base64.StdEncoding.DecodeString(ciphertext)
	require.NoError(t, err)
	blob[len(blob)-1] ^= 0x01
	return base64.StdEncoding.EncodeToString(blob)
}
