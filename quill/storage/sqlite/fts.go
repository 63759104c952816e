package sqlite

import (
	"fmt"
	"strings"

	"github.com/quillsearch/quill/quill/backend"
	"github.com/quillsearch/quill/quill/storage/sqlbuilder"
)

// fts5Matcher lowers a single-field term to an FTS5 MATCH over the
// search virtual table.
type fts5Matcher struct{}

func (fts5Matcher) MatchSQL(b *sqlbuilder.Builder, t backend.Term) (string, error) {
	match := fmt.Sprintf("%s:%s", t.Field, quoteMatchTerm(t.Value, t.Phrase))
	return fmt.Sprintf("SELECT rowid AS note_id FROM search WHERE search MATCH %s", b.Arg(match)), nil
}

// quoteMatchTerm quotes a term for the FTS5 MATCH grammar. Phrases are
// always quoted so they match contiguously; barewords are quoted only
// when they contain characters MATCH would otherwise interpret.
func quoteMatchTerm(term string, phrase bool) string {
	needsQuote := phrase
	for _, c := range term {
		if needsQuote {
			break
		}
		switch {
		case c == '"' || c == ':' || c == '*' || c == '(' || c == ')' || c == '^' || c == '-' || c == '+':
			needsQuote = true
		case c <= ' ':
			needsQuote = true
		}
	}
	if !needsQuote {
		return term
	}
	escaped := strings.ReplaceAll(term, `"`, `""`)
	return fmt.Sprintf(`"%s"`, escaped)
}
