package postgres

const ddlBase = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS notes (
	id         BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	note_id    TEXT NOT NULL UNIQUE,
	data_json  TEXT NOT NULL,
	created_at BIGINT NOT NULL,
	updated_at BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS field_date (
	note_id BIGINT NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
	field   TEXT NOT NULL,
	value   BIGINT NOT NULL,
	PRIMARY KEY (note_id, field)
);
CREATE INDEX IF NOT EXISTS idx_field_date_value ON field_date(field, value);
`

const (
	getMetaSQL = `SELECT value FROM meta WHERE key = $1`
	setMetaSQL = `INSERT INTO meta(key, value) VALUES($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`

	upsertNoteSQL = `INSERT INTO notes(note_id, data_json, created_at, updated_at) VALUES($1, $2, $3, $4)
ON CONFLICT (note_id) DO UPDATE SET data_json = EXCLUDED.data_json, updated_at = EXCLUDED.updated_at
RETURNING id`

	getNoteSQL      = `SELECT note_id, data_json, created_at, updated_at FROM notes WHERE note_id = $1`
	getNoteRowIDSQL = `SELECT id FROM notes WHERE note_id = $1`
	deleteNoteSQL   = `DELETE FROM notes WHERE id = $1`
	deleteDatesSQL  = `DELETE FROM field_date WHERE note_id = $1`
	insertDateSQL   = `INSERT INTO field_date(note_id, field, value) VALUES($1, $2, $3)`
	deleteSearchSQL = `DELETE FROM search WHERE note_id = $1`
)
