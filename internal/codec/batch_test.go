package codec_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkosenkov/fieldvault/internal/codec"
	"github.com/pkosenkov/fieldvault/internal/logger"
	"github.com/pkosenkov/fieldvault/models"
)

func TestBatch_OrderMatchesInput(t *testing.T) {
	fx := newFixture(t, true, readyConfig())
	batch := codec.NewBatchCodec(fx.codec, logger.Nop())
	ctx := context.Background()

	const n = 50
	records := make([]models.Record, n)
	for i := range records {
		records[i] = models.Record{
			"note":   fmt.Sprintf("note-%d", i),
			"amount": i,
		}
	}

	encoded := batch.EncodeAll(ctx, "expenses", records)
	require.Len(t, encoded, n)

	results := batch.DecodeAll(ctx, "expenses", encoded)
	require.Len(t, results, n)

	for i, result := range results {
		require.Equal(t, models.Decoded, result.Status, "item %d", i)
		assert.Equal(t, fmt.Sprintf("note-%d", i), result.Record["note"], "item %d", i)
		assert.Equal(t, float64(i), result.Record["amount"], "item %d", i)
	}
}

func TestBatch_CorruptedItemIsIsolated(t *testing.T) {
	fx := newFixture(t, true, readyConfig())
	batch := codec.NewBatchCodec(fx.codec, logger.Nop())
	ctx := context.Background()

	records := make([]models.Record, 10)
	for i := range records {
		records[i] = models.Record{
			"note":   fmt.Sprintf("note-%d", i),
			"amount": i,
		}
	}

	encoded := batch.EncodeAll(ctx, "expenses", records)

	// Corrupt one ciphered field of document #5.
	fields, ok := encoded[5].EncryptedFields()
	require.True(t, ok)
	fields["note"] = tamper(t, fields["note"])

	results := batch.DecodeAll(ctx, "expenses", encoded)
	require.Len(t, results, 10)

	for i, result := range results {
		if i == 5 {
			assert.Equal(t, models.PartiallyDecoded, result.Status)
			assert.Equal(t, []string{"note"}, result.MissingFields)
			assert.Equal(t, float64(5), result.Record["amount"],
				"the intact field of the corrupted document must survive")
			continue
		}
		assert.Equal(t, models.Decoded, result.Status, "item %d", i)
		assert.Equal(t, fmt.Sprintf("note-%d", i), result.Record["note"], "item %d", i)
	}
}

// panickyCodec panics on records carrying a "boom" field and delegates the
// rest.
type panickyCodec struct {
	inner codec.RecordCodec
}

func (p panickyCodec) Encode(ctx context.Context, collection string, record models.Record) models.Record {
	if _, boom := record["boom"]; boom {
		panic("codec blew up")
	}
	return p.inner.Encode(ctx, collection, record)
}

func (p panickyCodec) Decode(ctx context.Context, collection string, record models.Record) models.DecodeResult {
	if _, boom := record["boom"]; boom {
		panic("codec blew up")
	}
	return p.inner.Decode(ctx, collection, record)
}

func TestBatch_PanicFallsBackToInput(t *testing.T) {
	fx := newFixture(t, true, readyConfig())
	batch := codec.NewBatchCodec(panickyCodec{inner: fx.codec}, logger.Nop())
	ctx := context.Background()

	records := []models.Record{
		{"note": "first", "amount": 1},
		{"boom": true, "note": "second"},
		{"note": "third", "amount": 3},
	}

	encoded := batch.EncodeAll(ctx, "expenses", records)
	require.Len(t, encoded, 3)

	assert.Contains(t, encoded[0], models.EncryptedFieldsKey)
	assert.Equal(t, records[1], encoded[1], "panicking slot keeps its input")
	assert.Contains(t, encoded[2], models.EncryptedFieldsKey)

	results := batch.DecodeAll(ctx, "expenses", encoded)
	require.Len(t, results, 3)

	assert.Equal(t, models.Decoded, results[0].Status)
	assert.Equal(t, models.PartiallyDecoded, results[1].Status)
	assert.True(t, results[1].HadErrors)
	assert.Equal(t, records[1], results[1].Record)
	assert.Equal(t, models.Decoded, results[2].Status)
}
