// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kosenkov

package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkosenkov/fieldvault/internal/codec"
	"github.com/pkosenkov/fieldvault/internal/logger"
	"github.com/pkosenkov/fieldvault/models"
)

// EncryptedStore sits between the application and the document repository:
// every record is encoded immediately before a write and decoded
// immediately after a read, so the repository only ever sees opaque JSON
// with the encryptedFields/schemeVersion markers.
type EncryptedStore struct {
	repo   DocumentRepository
	codec  codec.RecordCodec
	batch  codec.BatchRecordCodec
	logger *logger.Logger
}

// NewEncryptedStore constructs an [EncryptedStore].
func NewEncryptedStore(repo DocumentRepository, recordCodec codec.RecordCodec, batchCodec codec.BatchRecordCodec, log *logger.Logger) *EncryptedStore {
	return &EncryptedStore{
		repo:   repo,
		codec:  recordCodec,
		batch:  batchCodec,
		logger: log,
	}
}

// Save encodes record and persists it. A fresh document id is assigned when
// documentID is empty. The write never fails for encryption reasons: with
// the key unavailable the record is stored in plaintext and the degradation
// is logged by the codec.
func (s *EncryptedStore) Save(ctx context.Context, collection, documentID string, record models.Record) (string, error) {
	if documentID == "" {
		documentID = uuid.NewString()
	}

	encoded := s.codec.Encode(ctx, collection, record)

	doc, err := models.NewDocument(collection, documentID, encoded)
	if err != nil {
		return "", fmt.Errorf("marshal document body: %w", err)
	}

	if err = s.repo.Save(ctx, doc); err != nil {
		return "", err
	}

	return documentID, nil
}

// Get loads one document and decodes it. The typed result tells the caller
// whether every field was recovered.
func (s *EncryptedStore) Get(ctx context.Context, collection, documentID string) (models.DecodeResult, error) {
	doc, err := s.repo.Get(ctx, collection, documentID)
	if err != nil {
		return models.DecodeResult{}, err
	}

	record, err := doc.Record()
	if err != nil {
		return models.DecodeResult{}, fmt.Errorf("unmarshal document body: %w", err)
	}

	return s.codec.Decode(ctx, collection, record), nil
}

// List loads a whole collection and decodes it in parallel. Slots that fail
// to decode keep their input; the order matches the repository's.
func (s *EncryptedStore) List(ctx context.Context, collection string) ([]models.DecodeResult, error) {
	docs, err := s.repo.List(ctx, collection)
	if err != nil {
		return nil, err
	}

	records := make([]models.Record, len(docs))
	for i, doc := range docs {
		record, recErr := doc.Record()
		if recErr != nil {
			s.logger.Warn().Err(recErr).
				Str("collection", collection).
				Str("document_id", doc.DocumentID).
				Msg("skipping document with unreadable body")
			record = models.Record{}
		}
		records[i] = record
	}

	return s.batch.DecodeAll(ctx, collection, records), nil
}

// Delete removes a document without touching the codec.
func (s *EncryptedStore) Delete(ctx context.Context, collection, documentID string) error {
	return s.repo.Delete(ctx, collection, documentID)
}
