// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kosenkov

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/pkosenkov/fieldvault/internal/logger"
	"github.com/pkosenkov/fieldvault/models"
)

const documentsTable = "documents"

var documentColumns = []string{"collection", "document_id", "body", "created_at", "updated_at"}

type documentRepository struct {
	*DB
	logger *logger.Logger
}

// NewDocumentRepository constructs the SQL-backed [DocumentRepository].
// The same implementation serves both drivers; the DB handle carries the
// right placeholder style.
func NewDocumentRepository(db *DB, log *logger.Logger) DocumentRepository {
	return &documentRepository{
		DB:     db,
		logger: log,
	}
}

func (r *documentRepository) Save(ctx context.Context, doc models.Document) error {
	log := logger.FromContext(ctx)
	now := time.Now().UTC()

	query, args, err := r.builder.
		Insert(documentsTable).
		Columns(documentColumns...).
		Values(doc.Collection, doc.DocumentID, []byte(doc.Body), now, now).
		Suffix("ON CONFLICT(collection, document_id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert query: %w", err)
	}

	if _, err = r.DB.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "documentRepository.Save").
			Str("collection", doc.Collection).
			Str("document_id", doc.DocumentID).
			Msg("failed to execute upsert for document")
		return fmt.Errorf("failed to save document (document_id=%s): %w", doc.DocumentID, err)
	}

	return nil
}

func (r *documentRepository) Get(ctx context.Context, collection, documentID string) (models.Document, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Select(documentColumns...).
		From(documentsTable).
		Where(sq.Eq{"collection": collection, "document_id": documentID}).
		ToSql()
	if err != nil {
		return models.Document{}, fmt.Errorf("build select query: %w", err)
	}

	var doc models.Document
	var body []byte

	row := r.DB.QueryRowContext(ctx, query, args...)
	scanErr := row.Scan(&doc.Collection, &doc.DocumentID, &body, &doc.CreatedAt, &doc.UpdatedAt)
	if scanErr != nil {
		if errors.Is(scanErr, sql.ErrNoRows) {
			return models.Document{}, ErrNotFound
		}
		log.Err(scanErr).
			Str("func", "documentRepository.Get").
			Str("collection", collection).
			Str("document_id", documentID).
			Msg("failed to scan document row")
		return models.Document{}, fmt.Errorf("failed to scan document row: %w", scanErr)
	}

	doc.Body = body
	return doc, nil
}

func (r *documentRepository) List(ctx context.Context, collection string) ([]models.Document, error) {
	builder := r.builder.
		Select(documentColumns...).
		From(documentsTable).
		Where(sq.Eq{"collection": collection}).
		OrderBy("created_at")

	return r.queryDocuments(ctx, "documentRepository.List", builder)
}

func (r *documentRepository) ListByIDs(ctx context.Context, collection string, documentIDs []string) ([]models.Document, error) {
	// squirrel turns the id slice into an IN (...) clause.
	builder := r.builder.
		Select(documentColumns...).
		From(documentsTable).
		Where(sq.Eq{"collection": collection, "document_id": documentIDs}).
		OrderBy("created_at")

	return r.queryDocuments(ctx, "documentRepository.ListByIDs", builder)
}

func (r *documentRepository) queryDocuments(ctx context.Context, caller string, builder sq.SelectBuilder) ([]models.Document, error) {
	log := logger.FromContext(ctx)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select query: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", caller).
			Msg("failed to execute query for documents")
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document

	for rows.Next() {
		var doc models.Document
		var body []byte

		scanErr := rows.Scan(&doc.Collection, &doc.DocumentID, &body, &doc.CreatedAt, &doc.UpdatedAt)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", caller).
				Msg("failed to scan document row")
			return nil, fmt.Errorf("failed to scan document row: %w", scanErr)
		}

		doc.Body = body
		docs = append(docs, doc)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", caller).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("error iterating document rows: %w", rowsErr)
	}

	return docs, nil
}

func (r *documentRepository) Delete(ctx context.Context, collection, documentID string) error {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Delete(documentsTable).
		Where(sq.Eq{"collection": collection, "document_id": documentID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}

	result, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "documentRepository.Delete").
			Str("collection", collection).
			Str("document_id", documentID).
			Msg("failed to execute delete for document")
		return fmt.Errorf("failed to delete document (document_id=%s): %w", documentID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected (document_id=%s): %w", documentID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
