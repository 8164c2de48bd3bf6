package store

import (
	"database/sql"
	"strings"

	apperrors "github.com/smith-and-web/kindling-sub000/core/errors"
)

// createTables is the full current tableset. CREATE TABLE IF NOT EXISTS makes
// the bootstrap safe to run on every startup.
const createTables = `
CREATE TABLE IF NOT EXISTS projects (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	source_type TEXT NOT NULL,
	source_path TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	modified_at TEXT NOT NULL,
	pen_name TEXT NOT NULL DEFAULT '',
	genre TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	word_target INTEGER NOT NULL DEFAULT 0,
	reference_types TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS chapters (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	source_id TEXT,
	position INTEGER NOT NULL DEFAULT 0,
	archived INTEGER NOT NULL DEFAULT 0,
	locked INTEGER NOT NULL DEFAULT 0,
	is_part INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS scenes (
	id TEXT PRIMARY KEY,
	chapter_id TEXT NOT NULL REFERENCES chapters(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	synopsis TEXT NOT NULL DEFAULT '',
	prose TEXT NOT NULL DEFAULT '',
	source_id TEXT,
	position INTEGER NOT NULL DEFAULT 0,
	archived INTEGER NOT NULL DEFAULT 0,
	locked INTEGER NOT NULL DEFAULT 0,
	scene_type TEXT NOT NULL DEFAULT 'normal',
	scene_status TEXT NOT NULL DEFAULT 'draft'
);

CREATE TABLE IF NOT EXISTS beats (
	id TEXT PRIMARY KEY,
	scene_id TEXT NOT NULL REFERENCES scenes(id) ON DELETE CASCADE,
	content TEXT NOT NULL DEFAULT '',
	prose TEXT NOT NULL DEFAULT '',
	position INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS characters (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS locations (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS reference_items (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	reference_type TEXT NOT NULL,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS entity_attributes (
	owner_id TEXT NOT NULL,
	key TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (owner_id, key)
);

CREATE TABLE IF NOT EXISTS scene_character_refs (
	scene_id TEXT NOT NULL REFERENCES scenes(id) ON DELETE CASCADE,
	character_id TEXT NOT NULL REFERENCES characters(id) ON DELETE CASCADE,
	PRIMARY KEY (scene_id, character_id)
);

CREATE TABLE IF NOT EXISTS scene_location_refs (
	scene_id TEXT NOT NULL REFERENCES scenes(id) ON DELETE CASCADE,
	location_id TEXT NOT NULL REFERENCES locations(id) ON DELETE CASCADE,
	PRIMARY KEY (scene_id, location_id)
);

CREATE TABLE IF NOT EXISTS scene_reference_item_refs (
	scene_id TEXT NOT NULL REFERENCES scenes(id) ON DELETE CASCADE,
	reference_item_id TEXT NOT NULL REFERENCES reference_items(id) ON DELETE CASCADE,
	PRIMARY KEY (scene_id, reference_item_id)
);

CREATE TABLE IF NOT EXISTS scene_reference_states (
	scene_id TEXT NOT NULL REFERENCES scenes(id) ON DELETE CASCADE,
	reference_type TEXT NOT NULL,
	reference_id TEXT NOT NULL,
	expanded INTEGER NOT NULL DEFAULT 0,
	position INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (scene_id, reference_type, reference_id)
);

CREATE TABLE IF NOT EXISTS snapshots (
	id TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	trigger_type TEXT NOT NULL,
	created_at TEXT NOT NULL,
	file_path TEXT NOT NULL,
	compressed_size INTEGER NOT NULL DEFAULT 0,
	uncompressed_size INTEGER NOT NULL DEFAULT 0,
	chapter_count INTEGER NOT NULL DEFAULT 0,
	scene_count INTEGER NOT NULL DEFAULT 0,
	beat_count INTEGER NOT NULL DEFAULT 0,
	word_count INTEGER NOT NULL DEFAULT 0,
	schema_version INTEGER NOT NULL DEFAULT 1,
	checksum TEXT NOT NULL DEFAULT ''
);
`

// lateColumns lists every column added after the original schema shipped.
// The migration pass re-adds them blindly and tolerates the duplicate-column
// error from databases that already have them.
var lateColumns = []struct {
	table  string
	column string
	ddl    string
}{
	{"projects", "pen_name", "ALTER TABLE projects ADD COLUMN pen_name TEXT NOT NULL DEFAULT ''"},
	{"projects", "genre", "ALTER TABLE projects ADD COLUMN genre TEXT NOT NULL DEFAULT ''"},
	{"projects", "description", "ALTER TABLE projects ADD COLUMN description TEXT NOT NULL DEFAULT ''"},
	{"projects", "word_target", "ALTER TABLE projects ADD COLUMN word_target INTEGER NOT NULL DEFAULT 0"},
	{"projects", "reference_types", "ALTER TABLE projects ADD COLUMN reference_types TEXT NOT NULL DEFAULT ''"},
	{"chapters", "source_id", "ALTER TABLE chapters ADD COLUMN source_id TEXT"},
	{"chapters", "archived", "ALTER TABLE chapters ADD COLUMN archived INTEGER NOT NULL DEFAULT 0"},
	{"chapters", "locked", "ALTER TABLE chapters ADD COLUMN locked INTEGER NOT NULL DEFAULT 0"},
	{"chapters", "is_part", "ALTER TABLE chapters ADD COLUMN is_part INTEGER NOT NULL DEFAULT 0"},
	{"scenes", "source_id", "ALTER TABLE scenes ADD COLUMN source_id TEXT"},
	{"scenes", "archived", "ALTER TABLE scenes ADD COLUMN archived INTEGER NOT NULL DEFAULT 0"},
	{"scenes", "locked", "ALTER TABLE scenes ADD COLUMN locked INTEGER NOT NULL DEFAULT 0"},
	{"scenes", "scene_type", "ALTER TABLE scenes ADD COLUMN scene_type TEXT NOT NULL DEFAULT 'normal'"},
	{"scenes", "scene_status", "ALTER TABLE scenes ADD COLUMN scene_status TEXT NOT NULL DEFAULT 'draft'"},
	{"snapshots", "checksum", "ALTER TABLE snapshots ADD COLUMN checksum TEXT NOT NULL DEFAULT ''"},
}

// bootstrap creates the tableset and runs the idempotent migration pass.
// It is safe to call on every startup against an already-current database.
func bootstrap(db *sql.DB) error {
	if _, err := db.Exec(createTables); err != nil {
		return apperrors.NewDB("create tables", err)
	}
	for _, mc := range lateColumns {
		if _, err := db.Exec(mc.ddl); err != nil {
			if isDuplicateColumn(err) {
				continue
			}
			return apperrors.NewDB("migrate "+mc.table+"."+mc.column, err)
		}
	}
	return nil
}

// isDuplicateColumn matches the SQLite error for re-adding an existing
// column; both supported drivers surface the same message text.
func isDuplicateColumn(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate column name")
}
