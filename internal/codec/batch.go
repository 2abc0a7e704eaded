// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kosenkov

package codec

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/pkosenkov/fieldvault/internal/logger"
	"github.com/pkosenkov/fieldvault/models"
)

// BatchCodec fans a RecordCodec out over a collection of records. Field
// AES/PBKDF2 work is CPU-bound but independent per item, so parallel
// execution cuts the wall-clock time of large reads and writes roughly by
// the core count.
type BatchCodec struct {
	codec RecordCodec
	limit int
	log   *logger.Logger
}

// NewBatchCodec constructs a BatchCodec bounded to one worker per available
// CPU.
func NewBatchCodec(codec RecordCodec, log *logger.Logger) *BatchCodec {
	return &BatchCodec{
		codec: codec,
		limit: runtime.GOMAXPROCS(0),
		log:   log,
	}
}

// EncodeAll implements [BatchRecordCodec]. Every item is encoded
// concurrently; a panicking item falls back to its original input and every
// other slot still resolves. Output order matches input order.
func (b *BatchCodec) EncodeAll(ctx context.Context, collection string, records []models.Record) []models.Record {
	out := make([]models.Record, len(records))

	g := new(errgroup.Group)
	g.SetLimit(b.limit)

	for i, record := range records {
		g.Go(func() error {
			defer b.recoverSlot(collection, i, func() { out[i] = record })
			out[i] = b.codec.Encode(ctx, collection, record)
			return nil
		})
	}

	// Item failures become values, never errors, so Wait only joins.
	_ = g.Wait()
	return out
}

// DecodeAll implements [BatchRecordCodec]. Per-item isolation mirrors
// EncodeAll: a panicking item resolves to its input marked
// PartiallyDecoded, the other nine-of-ten still decode fully.
func (b *BatchCodec) DecodeAll(ctx context.Context, collection string, records []models.Record) []models.DecodeResult {
	out := make([]models.DecodeResult, len(records))

	g := new(errgroup.Group)
	g.SetLimit(b.limit)

	for i, record := range records {
		g.Go(func() error {
			defer b.recoverSlot(collection, i, func() {
				out[i] = models.DecodeResult{
					Record:    record,
					Status:    models.PartiallyDecoded,
					HadErrors: true,
				}
			})
			out[i] = b.codec.Decode(ctx, collection, record)
			return nil
		})
	}

	_ = g.Wait()
	return out
}

func (b *BatchCodec) recoverSlot(collection string, index int, fallback func()) {
	if r := recover(); r != nil {
		b.log.Error().
			Str("collection", collection).
			Int("item", index).
			Any("panic", r).
			Msg("batch item failed, falling back to input")
		fallback()
	}
}
