package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkosenkov/fieldvault/internal/logger"
	"github.com/pkosenkov/fieldvault/models"
)

func newMockRepository(t *testing.T) (DocumentRepository, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db := &DB{
		DB:                 conn,
		builder:            sq.StatementBuilder.PlaceholderFormat(sq.Question),
		errorClassificator: NewSQLiteErrorClassifier(),
		logger:             logger.Nop(),
	}

	return NewDocumentRepository(db, logger.Nop()), mock
}

func documentRows(docs ...models.Document) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"collection", "document_id", "body", "created_at", "updated_at"})
	for _, doc := range docs {
		rows.AddRow(doc.Collection, doc.DocumentID, []byte(doc.Body), doc.CreatedAt, doc.UpdatedAt)
	}
	return rows
}

func TestDocumentRepository_Save(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO documents (collection,document_id,body,created_at,updated_at) VALUES (?,?,?,?,?) "+
			"ON CONFLICT(collection, document_id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at")).
		WithArgs("expenses", "doc-1", []byte(`{"amount":450}`), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Save(context.Background(), models.Document{
		Collection: "expenses",
		DocumentID: "doc-1",
		Body:       []byte(`{"amount":450}`),
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_SaveExecError(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec("INSERT INTO documents").
		WillReturnError(errors.New("disk I/O error"))

	err := repo.Save(context.Background(), models.Document{
		Collection: "expenses",
		DocumentID: "doc-1",
		Body:       []byte(`{}`),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "doc-1")
}

func TestDocumentRepository_Get(t *testing.T) {
	repo, mock := newMockRepository(t)

	now := time.Now().UTC()
	want := models.Document{
		Collection: "expenses",
		DocumentID: "doc-1",
		Body:       []byte(`{"amount":450}`),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT collection, document_id, body, created_at, updated_at FROM documents "+
			"WHERE collection = ? AND document_id = ?")).
		WithArgs("expenses", "doc-1").
		WillReturnRows(documentRows(want))

	got, err := repo.Get(context.Background(), "expenses", "doc-1")

	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_GetNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("SELECT collection, document_id, body").
		WithArgs("expenses", "missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "expenses", "missing")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDocumentRepository_List(t *testing.T) {
	repo, mock := newMockRepository(t)

	now := time.Now().UTC()
	first := models.Document{Collection: "expenses", DocumentID: "doc-1", Body: []byte(`{"a":1}`), CreatedAt: now, UpdatedAt: now}
	second := models.Document{Collection: "expenses", DocumentID: "doc-2", Body: []byte(`{"a":2}`), CreatedAt: now.Add(time.Second), UpdatedAt: now.Add(time.Second)}

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT collection, document_id, body, created_at, updated_at FROM documents "+
			"WHERE collection = ? ORDER BY created_at")).
		WithArgs("expenses").
		WillReturnRows(documentRows(first, second))

	docs, err := repo.List(context.Background(), "expenses")

	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "doc-1", docs[0].DocumentID)
	assert.Equal(t, "doc-2", docs[1].DocumentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_ListEmpty(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("SELECT collection, document_id, body").
		WithArgs("budgets").
		WillReturnRows(documentRows())

	docs, err := repo.List(context.Background(), "budgets")

	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDocumentRepository_ListByIDs(t *testing.T) {
	repo, mock := newMockRepository(t)

	now := time.Now().UTC()
	doc := models.Document{Collection: "expenses", DocumentID: "doc-2", Body: []byte(`{"a":2}`), CreatedAt: now, UpdatedAt: now}

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT collection, document_id, body, created_at, updated_at FROM documents "+
			"WHERE collection = ? AND document_id IN (?,?) ORDER BY created_at")).
		WithArgs("expenses", "doc-2", "missing").
		WillReturnRows(documentRows(doc))

	docs, err := repo.ListByIDs(context.Background(), "expenses", []string{"doc-2", "missing"})

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc-2", docs[0].DocumentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_Delete(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta(
		"DELETE FROM documents WHERE collection = ? AND document_id = ?")).
		WithArgs("expenses", "doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), "expenses", "doc-1")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepository_DeleteNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec("DELETE FROM documents").
		WithArgs("expenses", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "expenses", "missing")

	assert.ErrorIs(t, err, ErrNotFound)
}
