package archive

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harwoodm/atheneum/internal/ingest"
)

// searchResponse mirrors the archive search API envelope.
type searchResponse struct {
	Response struct {
		NumFound int      `json:"numFound"`
		Docs     []rawDoc `json:"docs"`
	} `json:"response"`
}

// rawDoc is a single document as returned by the API. Every field may be a
// scalar or an array.
type rawDoc struct {
	Identifier  multiValue `json:"identifier"`
	Title       multiValue `json:"title"`
	Creator     multiValue `json:"creator"`
	Date        multiValue `json:"date"`
	Language    multiValue `json:"language"`
	Description multiValue `json:"description"`
}

// normalize converts a raw document into BookMetadata. Missing fields get
// lenient defaults; only a missing identifier disqualifies the record, since
// it cannot be deduplicated or stored. Multiple creators are joined with
// ", ", languages take the first value, and descriptions are joined with a
// single space.
func (d rawDoc) normalize() (ingest.BookMetadata, bool) {
	identifier := d.Identifier.first()
	if identifier == "" {
		return ingest.BookMetadata{}, false
	}
	title := d.Title.first()
	if title == "" {
		title = unknownTitle
	}
	return ingest.BookMetadata{
		Identifier:  identifier,
		Title:       title,
		Creator:     d.Creator.join(", "),
		Date:        d.Date.first(),
		Language:    d.Language.first(),
		Description: d.Description.join(" "),
	}, true
}

// multiValue decodes archive fields that may be a string, a number, or an
// array of either.
type multiValue []string

func (m *multiValue) UnmarshalJSON(data []byte) error {
	var value any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&value); err != nil {
		return fmt.Errorf("decode field: %w", err)
	}
	*m = flatten(value)
	return nil
}

func flatten(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case json.Number:
		return []string{v.String()}
	case []any:
		var out []string
		for _, item := range v {
			out = append(out, flatten(item)...)
		}
		return out
	default:
		return nil
	}
}

func (m multiValue) first() string {
	if len(m) == 0 {
		return ""
	}
	return strings.TrimSpace(m[0])
}

func (m multiValue) join(sep string) string {
	var parts []string
	for _, v := range m {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, sep)
}
