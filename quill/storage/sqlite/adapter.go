// Package sqlite stores the note index in a single SQLite database, with
// full-text search provided by an FTS5 virtual table.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/quillsearch/quill/quill/backend"
	"github.com/quillsearch/quill/quill/storage"
	"github.com/quillsearch/quill/quill/storage/sqlbuilder"
)

type Adapter struct {
	Path       string
	DriverName string
}

// New returns an adapter using the pure-Go driver (modernc.org/sqlite).
func New(path string) *Adapter {
	return &Adapter{Path: path, DriverName: "sqlite"}
}

// NewWithDriver selects an explicit driver name, e.g. "sqlite3" for the
// cgo driver (mattn/go-sqlite3).
func NewWithDriver(path, driver string) *Adapter {
	return &Adapter{Path: path, DriverName: driver}
}

func (a *Adapter) Engine() storage.Engine {
	return storage.EngineSQLite
}

func (a *Adapter) PlaceholderStyle() sqlbuilder.PlaceholderStyle {
	return sqlbuilder.PlaceholderQuestion
}

func (a *Adapter) Connect(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(a.DriverName, a.Path)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	// Statement form so it works across both sqlite drivers.
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, err
	}
	_, _ = db.ExecContext(ctx, "PRAGMA busy_timeout=5000;")
	return db, nil
}

func (a *Adapter) Close() error {
	return nil
}

func (a *Adapter) CreateIndex(ctx context.Context, db *sql.DB, schema storage.Schema) error {
	if _, err := db.ExecContext(ctx, ddlBase); err != nil {
		return err
	}
	_, _ = db.ExecContext(ctx, "PRAGMA journal_mode=WAL;")
	_, _ = db.ExecContext(ctx, "PRAGMA synchronous=NORMAL;")

	schemaJSON, err := schema.ToJSON()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, setMetaSQL, "quill_magic", "quill"); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, setMetaSQL, "quill_version", "1"); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, setMetaSQL, "schema_json", string(schemaJSON)); err != nil {
		return err
	}

	cols := schema.TextFieldsInOrder()
	if len(cols) == 0 {
		return nil
	}
	ftsSQL := fmt.Sprintf("CREATE VIRTUAL TABLE IF NOT EXISTS search USING fts5(%s, tokenize='unicode61')", strings.Join(cols, ", "))
	if _, err := db.ExecContext(ctx, ftsSQL); err != nil {
		return fmt.Errorf("create fts: %w", err)
	}
	return nil
}

func (a *Adapter) OpenIndex(ctx context.Context, db *sql.DB) ([]byte, error) {
	var magic string
	if err := db.QueryRowContext(ctx, getMetaSQL, "quill_magic").Scan(&magic); err != nil {
		return nil, err
	}
	if magic != "quill" {
		return nil, fmt.Errorf("not a quill index")
	}
	var schemaStr string
	if err := db.QueryRowContext(ctx, getMetaSQL, "schema_json").Scan(&schemaStr); err != nil {
		return nil, err
	}
	return []byte(schemaStr), nil
}

func (a *Adapter) PutNote(ctx context.Context, db *sql.DB, schema storage.Schema, rec storage.NoteRecord) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var rowID int64
	err = tx.QueryRowContext(ctx, upsertNoteSQL, rec.NoteID, string(rec.DataJSON), rec.CreatedAt, rec.UpdatedAt).Scan(&rowID)
	if err != nil {
		return fmt.Errorf("upsert note: %w", err)
	}

	if _, err := tx.ExecContext(ctx, deleteDatesSQL, rowID); err != nil {
		return err
	}
	for _, field := range sortedKeys(rec.DateVals) {
		if _, err := tx.ExecContext(ctx, insertDateSQL, rowID, field, rec.DateVals[field]); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, deleteSearchSQL, rowID); err != nil {
		return err
	}
	cols := schema.TextFieldsInOrder()
	if len(cols) > 0 {
		names := make([]string, 0, len(cols)+1)
		placeholders := make([]string, 0, len(cols)+1)
		args := make([]any, 0, len(cols)+1)
		names = append(names, "rowid")
		placeholders = append(placeholders, "?")
		args = append(args, rowID)
		for _, col := range cols {
			names = append(names, col)
			placeholders = append(placeholders, "?")
			if v, ok := rec.TextVals[col]; ok {
				args = append(args, v)
			} else {
				args = append(args, nil)
			}
		}
		insertSQL := fmt.Sprintf("INSERT INTO search(%s) VALUES(%s)", strings.Join(names, ", "), strings.Join(placeholders, ", "))
		if _, err := tx.ExecContext(ctx, insertSQL, args...); err != nil {
			return fmt.Errorf("insert fts row: %w", err)
		}
	}

	return tx.Commit()
}

func (a *Adapter) GetNote(ctx context.Context, db *sql.DB, noteID string) (*storage.NoteRecord, error) {
	var rec storage.NoteRecord
	var data string
	err := db.QueryRowContext(ctx, getNoteSQL, noteID).Scan(&rec.NoteID, &data, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rec.DataJSON = []byte(data)
	return &rec, nil
}

func (a *Adapter) DeleteNote(ctx context.Context, db *sql.DB, noteID string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var rowID int64
	if err := tx.QueryRowContext(ctx, getNoteRowIDSQL, noteID).Scan(&rowID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, deleteSearchSQL, rowID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, deleteDatesSQL, rowID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, deleteNoteSQL, rowID); err != nil {
		return err
	}
	return tx.Commit()
}

func (a *Adapter) Lower(b *sqlbuilder.Builder, q backend.Query) (*storage.Lowered, error) {
	return storage.LowerQuery(b, fts5Matcher{}, q)
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
