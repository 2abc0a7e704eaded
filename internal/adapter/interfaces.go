package adapter

import (
	"context"

	"github.com/pkosenkov/fieldvault/models"
)

// SyncAdapter talks to the backend that mirrors the local document store.
// Documents cross this boundary already encoded: the backend only ever sees
// the ciphered container, never plaintext field values.
type SyncAdapter interface {
	// SetToken stores the bearer token used on all subsequent requests.
	SetToken(token string)

	// Token returns the bearer token currently held by the adapter, or an
	// empty string if none has been set.
	Token() string

	// Push uploads encoded documents to the backend. Requires a valid
	// bearer token.
	Push(ctx context.Context, docs []models.Document) error

	// Pull downloads every encoded document of the collection. Requires a
	// valid bearer token.
	Pull(ctx context.Context, collection string) ([]models.Document, error)
}
