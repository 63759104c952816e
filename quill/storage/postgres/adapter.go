// Package postgres stores the note index in PostgreSQL, with full-text
// search provided by tsvector columns under GIN indexes.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/quillsearch/quill/quill/backend"
	"github.com/quillsearch/quill/quill/storage"
	"github.com/quillsearch/quill/quill/storage/sqlbuilder"
)

type Adapter struct {
	DSN string
}

func New(dsn string) *Adapter {
	return &Adapter{DSN: dsn}
}

func (a *Adapter) Engine() storage.Engine {
	return storage.EnginePostgres
}

func (a *Adapter) PlaceholderStyle() sqlbuilder.PlaceholderStyle {
	return sqlbuilder.PlaceholderDollar
}

func (a *Adapter) Connect(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("pgx", a.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (a *Adapter) Close() error {
	return nil
}

func (a *Adapter) CreateIndex(ctx context.Context, db *sql.DB, schema storage.Schema) error {
	if _, err := db.ExecContext(ctx, ddlBase); err != nil {
		return err
	}

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

	fields := schema.TextFieldsInOrder()
	if len(fields) == 0 {
		return nil
	}
	cols := make([]string, 0, len(fields)+1)
	cols = append(cols, "note_id BIGINT PRIMARY KEY REFERENCES notes(id) ON DELETE CASCADE")
	for _, f := range fields {
		cols = append(cols, fmt.Sprintf("%s TSVECTOR NOT NULL DEFAULT ''::tsvector", f))
	}
	createSQL := fmt.Sprintf("CREATE TABLE IF NOT EXISTS search (%s)", strings.Join(cols, ", "))
	if _, err := db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("create search table: %w", err)
	}
	for _, f := range fields {
		idx := fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_search_%s ON search USING GIN(%s)", f, f)
		if _, err := db.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("create gin index for %s: %w", f, err)
		}
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

	cols := schema.TextFieldsInOrder()
	if len(cols) > 0 {
		names := []string{"note_id"}
		values := []string{"$1"}
		updates := make([]string, 0, len(cols))
		args := []any{rowID}
		for i, col := range cols {
			names = append(names, col)
			values = append(values, fmt.Sprintf("to_tsvector('simple', $%d)", i+2))
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
			args = append(args, rec.TextVals[col])
		}
		upsert := fmt.Sprintf(
			"INSERT INTO search(%s) VALUES(%s) ON CONFLICT (note_id) DO UPDATE SET %s",
			strings.Join(names, ", "), strings.Join(values, ", "), strings.Join(updates, ", "),
		)
		if _, err := tx.ExecContext(ctx, upsert, args...); err != nil {
			return fmt.Errorf("upsert search row: %w", err)
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
	return storage.LowerQuery(b, tsvectorMatcher{}, q)
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
