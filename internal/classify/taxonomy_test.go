package classify

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalGenre_CaseInsensitive(t *testing.T) {
	t.Parallel()

	g, ok := CanonicalGenre("fiction")
	require.True(t, ok)
	require.Equal(t, "Fiction", g)

	g, ok = CanonicalGenre("  SCIENCE FICTION  ")
	require.True(t, ok)
	require.Equal(t, "Science Fiction", g)
}

func TestCanonicalGenre_Unknown(t *testing.T) {
	t.Parallel()

	_, ok := CanonicalGenre("Cooking")
	require.False(t, ok)
}

func TestValidGenres_DiscardsUnknownAndDuplicates(t *testing.T) {
	t.Parallel()

	got := ValidGenres([]string{"fiction", "Cooking", "FICTION", "history"})
	require.Equal(t, []string{"Fiction", "History"}, got)
}

func TestValidGenres_KeepsFirstThreeInInputOrder(t *testing.T) {
	t.Parallel()

	got := ValidGenres([]string{"Poetry", "Drama", "History", "Science", "Art"})
	require.Equal(t, []string{"Poetry", "Drama", "History"}, got)
}

func TestValidGenres_Empty(t *testing.T) {
	t.Parallel()

	require.Empty(t, ValidGenres(nil))
	require.Empty(t, ValidGenres([]string{"Cooking", "Knitting"}))
}
