package store

import (
	"context"

	"github.com/pkosenkov/fieldvault/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// DocumentRepository persists opaque documents keyed by collection name and
// document id. The repository never inspects document bodies and has no
// knowledge of which fields inside them are ciphered.
type DocumentRepository interface {
	// Save inserts the document or replaces the body of an existing one.
	Save(ctx context.Context, doc models.Document) error

	// Get returns the document with the given id. Returns ErrNotFound if no
	// such document exists.
	Get(ctx context.Context, collection, documentID string) (models.Document, error)

	// List returns every document of the collection ordered by creation
	// time.
	List(ctx context.Context, collection string) ([]models.Document, error)

	// ListByIDs returns the documents matching the given ids. Missing ids
	// are skipped silently.
	ListByIDs(ctx context.Context, collection string, documentIDs []string) ([]models.Document, error)

	// Delete removes the document. Returns ErrNotFound if no such document
	// exists.
	Delete(ctx context.Context, collection, documentID string) error
}

// ErrorClassificator decides whether a failed database operation is worth
// retrying.
type ErrorClassificator interface {
	// Classify maps a driver error to a retryability verdict.
	Classify(err error) ErrorClassification
}
