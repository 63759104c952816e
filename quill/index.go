// Package quill is a small personal note index: notes go in through Put,
// and come back out through AQL queries parsed by quill/aql, compiled by
// quill/compiler and lowered to a concrete engine by a storage adapter.
package quill

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/quillsearch/quill/quill/compiler"
	"github.com/quillsearch/quill/quill/storage"
)

// Index is an open note index.
type Index struct {
	adapter storage.Adapter
	db      *sql.DB
	schema  Schema
	opts    IndexOptions
}

// Create creates a new index with the given schema.
func Create(ctx context.Context, adapter storage.Adapter, schema Schema, opts IndexOptions) (*Index, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	db, err := adapter.Connect(ctx)
	if err != nil {
		return nil, Wrap(ErrIO, "connect to database", err)
	}
	if err := adapter.CreateIndex(ctx, db, schema); err != nil {
		db.Close()
		return nil, Wrap(ErrSQL, "create index", err)
	}
	return newIndex(adapter, db, schema, opts), nil
}

// Open opens an existing index, reading its schema back from the store.
func Open(ctx context.Context, adapter storage.Adapter, opts IndexOptions) (*Index, error) {
	db, err := adapter.Connect(ctx)
	if err != nil {
		return nil, Wrap(ErrIO, "connect to database", err)
	}
	schemaJSON, err := adapter.OpenIndex(ctx, db)
	if err != nil {
		db.Close()
		return nil, Wrap(ErrSQL, "open index", err)
	}
	schema, err := SchemaFromJSON(schemaJSON)
	if err != nil {
		db.Close()
		return nil, err
	}
	return newIndex(adapter, db, schema, opts), nil
}

func newIndex(adapter storage.Adapter, db *sql.DB, schema Schema, opts IndexOptions) *Index {
	if opts.Now == nil {
		opts = DefaultIndexOptions()
	}
	return &Index{adapter: adapter, db: db, schema: schema, opts: opts}
}

// Schema returns the index schema.
func (ix *Index) Schema() Schema {
	return ix.schema
}

// Close closes the underlying database.
func (ix *Index) Close() error {
	err := ix.db.Close()
	if cerr := ix.adapter.Close(); err == nil {
		err = cerr
	}
	return err
}

// Put upserts a note and returns its ID, generating one when absent.
func (ix *Index) Put(ctx context.Context, note Note) (string, error) {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	rec, err := ix.prepareRecord(note)
	if err != nil {
		return "", err
	}
	if err := ix.adapter.PutNote(ctx, ix.db, ix.schema, rec); err != nil {
		return "", Wrap(ErrSQL, "put note", err)
	}
	return note.ID, nil
}

// Get retrieves a note by ID.
func (ix *Index) Get(ctx context.Context, id string) (*Note, error) {
	rec, err := ix.adapter.GetNote(ctx, ix.db, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFoundError(id)
	}
	if err != nil {
		return nil, Wrap(ErrSQL, "get note", err)
	}
	var note Note
	if err := json.Unmarshal(rec.DataJSON, &note); err != nil {
		return nil, Wrap(ErrValue, "decode stored note", err)
	}
	return &note, nil
}

// Delete removes a note by ID.
func (ix *Index) Delete(ctx context.Context, id string) error {
	err := ix.adapter.DeleteNote(ctx, ix.db, id)
	if errors.Is(err, sql.ErrNoRows) {
		return NotFoundError(id)
	}
	if err != nil {
		return Wrap(ErrSQL, "delete note", err)
	}
	return nil
}

// prepareRecord projects a note onto the schema: text fields become
// full-text columns (slices joined by spaces), date fields become epoch
// seconds via the same day-count conversion queries compile with.
func (ix *Index) prepareRecord(note Note) (storage.NoteRecord, error) {
	now := ix.opts.Now().UnixMilli()
	data, err := json.Marshal(note)
	if err != nil {
		return storage.NoteRecord{}, Wrap(ErrValue, "encode note", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return storage.NoteRecord{}, Wrap(ErrValue, "decode note", err)
	}

	rec := storage.NoteRecord{
		NoteID:    note.ID,
		DataJSON:  data,
		TextVals:  make(map[string]string),
		DateVals:  make(map[string]int64),
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, name := range ix.schema.TextFieldsInOrder() {
		val, ok := doc[name]
		if !ok || val == nil {
			continue
		}
		switch v := val.(type) {
		case string:
			if v != "" {
				rec.TextVals[name] = v
			}
		case []any:
			parts := make([]string, 0, len(v))
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return storage.NoteRecord{}, New(ErrValue, fmt.Sprintf("field %q must hold strings", name))
				}
				parts = append(parts, s)
			}
			if len(parts) > 0 {
				rec.TextVals[name] = strings.Join(parts, " ")
			}
		default:
			return storage.NoteRecord{}, New(ErrValue, fmt.Sprintf("field %q must be text", name))
		}
	}

	for _, name := range ix.schema.DateFieldsInOrder() {
		val, ok := doc[name].(string)
		if !ok || val == "" {
			continue
		}
		secs, err := compiler.DateSeconds(val)
		if err != nil {
			return storage.NoteRecord{}, Wrap(ErrValue, fmt.Sprintf("field %q", name), err)
		}
		rec.DateVals[name] = secs
	}

	return rec, nil
}
