package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS index_files (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    asset TEXT NOT NULL,
    shape TEXT NOT NULL,
    header_offset INTEGER NOT NULL,
    record_size INTEGER NOT NULL,
    fallback INTEGER NOT NULL,
    record_count INTEGER NOT NULL,
    imported_at TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS mold_records (
    file_id INTEGER NOT NULL REFERENCES index_files(id) ON DELETE CASCADE,
    _index INTEGER NOT NULL,
    standard_id INTEGER NOT NULL,
    texture_id INTEGER NOT NULL,
    start_x INTEGER NOT NULL,
    start_y INTEGER NOT NULL,
    PRIMARY KEY (file_id, _index)
)`,
	`CREATE TABLE IF NOT EXISTS directional_records (
    file_id INTEGER NOT NULL REFERENCES index_files(id) ON DELETE CASCADE,
    _index INTEGER NOT NULL,
    north INTEGER NOT NULL,
    south INTEGER NOT NULL,
    east INTEGER NOT NULL,
    west INTEGER NOT NULL,
    PRIMARY KEY (file_id, _index)
)`,
	`CREATE TABLE IF NOT EXISTS atlas_records (
    file_id INTEGER NOT NULL REFERENCES index_files(id) ON DELETE CASCADE,
    _index INTEGER NOT NULL,
    grh_id INTEGER NOT NULL,
    frame_count INTEGER NOT NULL,
    file_num INTEGER,
    x INTEGER,
    y INTEGER,
    w INTEGER,
    h INTEGER,
    frames TEXT,
    speed_ms REAL,
    PRIMARY KEY (file_id, _index)
)`,
	`CREATE TABLE IF NOT EXISTS detection_runs (
    id TEXT PRIMARY KEY,
    image TEXT NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    mode TEXT NOT NULL,
    rule TEXT NOT NULL,
    region_count INTEGER NOT NULL,
    created_at TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS regions (
    run_id TEXT NOT NULL REFERENCES detection_runs(id) ON DELETE CASCADE,
    ordinal INTEGER NOT NULL,
    x INTEGER NOT NULL,
    y INTEGER NOT NULL,
    w INTEGER NOT NULL,
    h INTEGER NOT NULL,
    PRIMARY KEY (run_id, ordinal)
)`,
	`CREATE INDEX IF NOT EXISTS idx_detection_runs_image ON detection_runs(image)`,
}

// createSchema executes every DDL statement in one transaction
func (d *Database) createSchema(ctx context.Context) error {
	tx, err := d.beginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, ddl := range schemaDDL {
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("executing DDL %q: %w", firstLine(ddl), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema: %w", err)
	}

	slog.Debug("Catalog schema ready", "path", d.path, "statements", len(schemaDDL))
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// QuoteIdentifier quotes a SQLite identifier
func QuoteIdentifier(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}
