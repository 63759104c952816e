package sqlite

const ddlBase = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS notes (
	id         INTEGER PRIMARY KEY,
	note_id    TEXT NOT NULL UNIQUE,
	data_json  TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS field_date (
	note_id INTEGER NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
	field   TEXT NOT NULL,
	value   INTEGER NOT NULL,
	PRIMARY KEY (note_id, field)
);
CREATE INDEX IF NOT EXISTS idx_field_date_value ON field_date(field, value);
`

const (
	getMetaSQL = `SELECT value FROM meta WHERE key = ?`
	setMetaSQL = `INSERT INTO meta(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`

	upsertNoteSQL = `INSERT INTO notes(note_id, data_json, created_at, updated_at) VALUES(?, ?, ?, ?)
ON CONFLICT(note_id) DO UPDATE SET data_json = excluded.data_json, updated_at = excluded.updated_at
RETURNING id`

	getNoteSQL      = `SELECT note_id, data_json, created_at, updated_at FROM notes WHERE note_id = ?`
	getNoteRowIDSQL = `SELECT id FROM notes WHERE note_id = ?`
	deleteNoteSQL   = `DELETE FROM notes WHERE id = ?`
	deleteDatesSQL  = `DELETE FROM field_date WHERE note_id = ?`
	insertDateSQL   = `INSERT INTO field_date(note_id, field, value) VALUES(?, ?, ?)`
	deleteSearchSQL = `DELETE FROM search WHERE rowid = ?`
)
