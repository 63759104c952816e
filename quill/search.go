package quill

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/quillsearch/quill/quill/aql"
	"github.com/quillsearch/quill/quill/backend"
	"github.com/quillsearch/quill/quill/compiler"
	"github.com/quillsearch/quill/quill/storage"
	"github.com/quillsearch/quill/quill/storage/sqlbuilder"
)

// Search parses, compiles and executes an AQL query, returning matching
// notes newest first.
func (ix *Index) Search(ctx context.Context, query string, opts SearchOptions) (*SearchResult, error) {
	expr, err := aql.Parse(query)
	if err != nil {
		return nil, Wrap(ErrSyntax, "parse query", err)
	}

	compiled, err := compiler.Compile(expr, ix.schema)
	if err != nil {
		var unknown *compiler.UnknownFieldError
		if errors.As(err, &unknown) {
			return nil, UnknownFieldError(unknown.Field)
		}
		return nil, Wrap(ErrValue, "compile query", err)
	}

	builder := sqlbuilder.New(ix.adapter.PlaceholderStyle())
	lowered, err := ix.adapter.Lower(builder, compiled)
	if err != nil {
		return nil, Wrap(ErrSQL, "lower query", err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	searchSQL := storage.BuildSearchSQL(lowered, builder, limit+1)

	rows, err := ix.db.QueryContext(ctx, searchSQL, builder.Args()...)
	if err != nil {
		return nil, Wrap(ErrSQL, "execute search", err)
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		var noteID, dataJSON string
		var createdAt, updatedAt int64
		if err := rows.Scan(&noteID, &dataJSON, &createdAt, &updatedAt); err != nil {
			return nil, Wrap(ErrSQL, "scan row", err)
		}
		var note Note
		if err := json.Unmarshal([]byte(dataJSON), &note); err != nil {
			return nil, Wrap(ErrValue, "decode stored note", err)
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, Wrap(ErrSQL, "iterate rows", err)
	}

	result := &SearchResult{}
	if len(notes) > limit {
		result.HasMore = true
		notes = notes[:limit]
	}
	result.Notes = notes

	if opts.Explain {
		result.ExplainQuery = backend.Dump(compiled)
		result.ExplainSQL = searchSQL
		result.ExplainSteps = lowered.ExplainSteps
	}
	return result, nil
}
