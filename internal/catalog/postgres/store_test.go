package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/harwoodm/atheneum/internal/ingest"
)

func ptr(s string) *string { return &s }

func TestInsert_DerivesCategory(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock)
	require.NoError(t, err)

	rec := ingest.CatalogRecord{
		Title:            "Moby Dick",
		Author:           "Melville, Herman",
		Source:           ptr("archive"),
		SourceIdentifier: ptr("mobydick00melv"),
		PDFURL:           ptr("https://storage.googleapis.com/bkt/archive/mobydick00melv.pdf"),
		Language:         ptr("eng"),
		Genres:           []string{"Fiction", "Adventure"},
		Subgenre:         ptr("Whaling"),
	}

	mock.ExpectQuery("INSERT INTO books").
		WithArgs(
			rec.Title,
			rec.Author,
			rec.Source,
			rec.SourceIdentifier,
			rec.PDFURL,
			rec.Language,
			rec.Genres,
			rec.Subgenre,
			"Fiction",
		).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("book-uuid"))

	id, err := store.Insert(context.Background(), rec)
	require.NoError(t, err)
	require.Equal(t, "book-uuid", id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_EmptyGenresUncategorized(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock)
	require.NoError(t, err)

	rec := ingest.CatalogRecord{
		Title:            "Mystery Item",
		Source:           ptr("archive"),
		SourceIdentifier: ptr("mystery01"),
	}

	mock.ExpectQuery("INSERT INTO books").
		WithArgs(
			rec.Title, rec.Author, rec.Source, rec.SourceIdentifier,
			rec.PDFURL, rec.Language, rec.Genres, rec.Subgenre,
			ingest.UncategorizedCategory,
		).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("book-uuid-2"))

	_, err = store.Insert(context.Background(), rec)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_DuplicateSourceIdentifier(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock)
	require.NoError(t, err)

	mock.ExpectQuery("INSERT INTO books").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "books_source_identifier_key"})

	_, err = store.Insert(context.Background(), ingest.CatalogRecord{
		Title:            "Moby Dick",
		Source:           ptr("archive"),
		SourceIdentifier: ptr("mobydick00melv"),
	})
	require.ErrorIs(t, err, ingest.ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExists(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("archive", "mobydick00melv").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := store.Exists(context.Background(), "archive", "mobydick00melv")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetBySourceIdentifier_NotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id, title").
		WithArgs("archive", "missing").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "title", "author", "source", "source_identifier", "pdf_url",
			"language", "genres", "subgenre", "category", "created_at",
		}))

	_, err = store.GetBySourceIdentifier(context.Background(), "archive", "missing")
	require.ErrorIs(t, err, ingest.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecords(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock)
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	mock.ExpectQuery("SELECT id, title").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "title", "author", "source", "source_identifier", "pdf_url",
			"language", "genres", "subgenre", "category", "created_at",
		}).
			AddRow("b1", "Moby Dick", "Melville", ptr("archive"), ptr("mobydick00melv"),
				ptr("https://example.com/m.pdf"), ptr("eng"), []string{"Fiction"}, (*string)(nil), "Fiction", now).
			AddRow("b2", "Hand-Curated", "Someone", (*string)(nil), (*string)(nil),
				(*string)(nil), (*string)(nil), []string(nil), (*string)(nil), "Uncategorized", now))

	records, err := store.ListRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.True(t, records[0].Ingested())
	require.False(t, records[1].Ingested())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCategory(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock)
	require.NoError(t, err)

	mock.ExpectExec("UPDATE books SET category").
		WithArgs("b1", "Fiction").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, store.UpdateCategory(context.Background(), "b1", "Fiction"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCategory_MissingRecord(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock)
	require.NoError(t, err)

	mock.ExpectExec("UPDATE books SET category").
		WithArgs("missing", "Fiction").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = store.UpdateCategory(context.Background(), "missing", "Fiction")
	require.ErrorIs(t, err, ingest.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewWithPool_RequiresPool(t *testing.T) {
	t.Parallel()

	_, err := NewWithPool(nil)
	require.Error(t, err)
}

func TestUpdateCategory_ExecError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock)
	require.NoError(t, err)

	mock.ExpectExec("UPDATE books SET category").
		WithArgs("b1", "Fiction").
		WillReturnError(errors.New("connection reset"))

	require.Error(t, store.UpdateCategory(context.Background(), "b1", "Fiction"))
	require.NoError(t, mock.ExpectationsWereMet())
}
