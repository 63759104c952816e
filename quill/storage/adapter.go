package storage

import (
	"context"
	"database/sql"

	"github.com/quillsearch/quill/quill/backend"
	"github.com/quillsearch/quill/quill/storage/sqlbuilder"
)

type Engine string

const (
	EngineSQLite   Engine = "sqlite"
	EnginePostgres Engine = "postgres"
)

// Adapter abstracts database-specific operations: connecting, laying out
// the index tables, maintaining note rows, and lowering backend queries
// to the engine's SQL.
type Adapter interface {
	Engine() Engine
	PlaceholderStyle() sqlbuilder.PlaceholderStyle

	Connect(ctx context.Context) (*sql.DB, error)
	Close() error

	CreateIndex(ctx context.Context, db *sql.DB, schema Schema) error
	OpenIndex(ctx context.Context, db *sql.DB) (schemaJSON []byte, err error)

	PutNote(ctx context.Context, db *sql.DB, schema Schema, rec NoteRecord) error
	GetNote(ctx context.Context, db *sql.DB, noteID string) (*NoteRecord, error)
	DeleteNote(ctx context.Context, db *sql.DB, noteID string) error

	// Lower translates a compiled backend query into CTEs over the
	// engine's tables.
	Lower(b *sqlbuilder.Builder, q backend.Query) (*Lowered, error)
}

// Schema is a minimal interface to avoid a dependency on the concrete
// schema type.
type Schema interface {
	ToJSON() ([]byte, error)
	TextFieldsInOrder() []string
	DateFieldsInOrder() []string
}

// NoteRecord is the storage shape of one note.
type NoteRecord struct {
	NoteID    string
	DataJSON  []byte
	TextVals  map[string]string
	DateVals  map[string]int64
	CreatedAt int64
	UpdatedAt int64
}

// CTE is one named step of a lowered query.
type CTE struct {
	Name string
	SQL  string
}

// Lowered is the result of lowering a backend query: a chain of CTEs
// whose final member yields matching note_id rows.
type Lowered struct {
	CTEs         []CTE
	ResultCTE    string
	ExplainSteps []string
}
