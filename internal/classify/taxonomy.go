// Package classify assigns taxonomy genres to books using an LLM and
// validates every label against the fixed primary-genre taxonomy.
package classify

import "strings"

// MaxGenres caps how many genres a classification may carry.
const MaxGenres = 3

// PrimaryGenres is the fixed taxonomy. Classification output and filter
// configuration are validated against this list; matching is
// case-insensitive and always resolves to the casing below.
var PrimaryGenres = []string{
	"Fiction",
	"Science Fiction",
	"Fantasy",
	"Mystery",
	"Adventure",
	"Romance",
	"Horror",
	"Poetry",
	"Drama",
	"History",
	"Biography",
	"Philosophy",
	"Religion",
	"Science",
	"Mathematics",
	"Politics",
	"Travel",
	"Art",
	"Children",
	"Reference",
}

var canonicalByLower = func() map[string]string {
	m := make(map[string]string, len(PrimaryGenres))
	for _, g := range PrimaryGenres {
		m[strings.ToLower(g)] = g
	}
	return m
}()

// CanonicalGenre resolves a label to its taxonomy casing. The second return
// is false when the label is not in the taxonomy.
func CanonicalGenre(label string) (string, bool) {
	g, ok := canonicalByLower[strings.ToLower(strings.TrimSpace(label))]
	return g, ok
}

// ValidGenres canonicalizes labels against the taxonomy, discarding unknown
// entries and duplicates, and keeps at most MaxGenres in input order.
func ValidGenres(labels []string) []string {
	var out []string
	seen := make(map[string]bool, len(labels))
	for _, label := range labels {
		g, ok := CanonicalGenre(label)
		if !ok || seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, g)
		if len(out) == MaxGenres {
			break
		}
	}
	return out
}
