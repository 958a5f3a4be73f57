package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveCategory_FirstGenre(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Fiction", DeriveCategory([]string{"Fiction", "Adventure"}))
	require.Equal(t, "History", DeriveCategory([]string{"History"}))
}

func TestDeriveCategory_EmptyGenres(t *testing.T) {
	t.Parallel()

	require.Equal(t, UncategorizedCategory, DeriveCategory(nil))
	require.Equal(t, UncategorizedCategory, DeriveCategory([]string{}))
}

func TestCatalogRecord_Ingested(t *testing.T) {
	t.Parallel()

	id := "item-001"
	require.True(t, CatalogRecord{SourceIdentifier: &id}.Ingested())
	require.False(t, CatalogRecord{}.Ingested())
}
