package postgres

import (
	"fmt"

	"github.com/quillsearch/quill/quill/backend"
	"github.com/quillsearch/quill/quill/storage/sqlbuilder"
)

// tsvectorMatcher lowers a single-field term to a tsquery probe of the
// search table. Phrase terms use phraseto_tsquery so word order and
// adjacency are enforced.
type tsvectorMatcher struct{}

func (tsvectorMatcher) MatchSQL(b *sqlbuilder.Builder, t backend.Term) (string, error) {
	fn := "plainto_tsquery"
	if t.Phrase {
		fn = "phraseto_tsquery"
	}
	// Field names are schema-validated alphanumerics, safe to splice.
	return fmt.Sprintf("SELECT note_id FROM search WHERE %s @@ %s('simple', %s)", t.Field, fn, b.Arg(t.Value)), nil
}
