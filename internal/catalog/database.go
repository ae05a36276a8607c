// Package catalog stores decoded index records and sprite detection runs in a
// SQLite database so they can be queried after the fact.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var errClosed = errors.New("catalog database is closed")

// Database is an open catalog. All access goes through one connection, which
// keeps the foreign key pragma that the cascading re-imports rely on.
type Database struct {
	db   *sql.DB
	path string
}

// DatabaseOptions configures how the catalog file is opened
type DatabaseOptions struct {
	Path string

	// BusyTimeout bounds how long a statement waits on another process' lock
	BusyTimeout time.Duration
}

// DefaultDatabaseOptions returns options for the catalog at path
func DefaultDatabaseOptions(path string) *DatabaseOptions {
	return &DatabaseOptions{
		Path:        path,
		BusyTimeout: 30 * time.Second,
	}
}

// NewDatabase opens the catalog at options.Path, creating the file, its
// directory and the schema when missing
func NewDatabase(options *DatabaseOptions) (*Database, error) {
	if options == nil || options.Path == "" {
		return nil, fmt.Errorf("catalog path cannot be empty")
	}

	if dir := filepath.Dir(options.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dsn(options))
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", options.Path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to catalog %s: %w", options.Path, err)
	}

	d := &Database{db: db, path: options.Path}
	if err := d.createSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating catalog schema: %w", err)
	}

	return d, nil
}

// dsn builds the go-sqlite3 connection string
func dsn(options *DatabaseOptions) string {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_foreign_keys", "on")
	params.Set("_synchronous", "NORMAL")
	if options.BusyTimeout > 0 {
		params.Set("_busy_timeout", strconv.FormatInt(options.BusyTimeout.Milliseconds(), 10))
	}

	return "file:" + options.Path + "?" + params.Encode()
}

// Path returns the catalog file path
func (d *Database) Path() string {
	return d.path
}

// Close closes the catalog. Closing twice is a no-op.
func (d *Database) Close() error {
	if d.db == nil {
		return nil
	}

	err := d.db.Close()
	d.db = nil
	if err != nil {
		return fmt.Errorf("closing catalog: %w", err)
	}
	return nil
}

func (d *Database) conn() (*sql.DB, error) {
	if d.db == nil {
		return nil, errClosed
	}
	return d.db, nil
}

// beginTx starts a transaction on the catalog connection
func (d *Database) beginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	db, err := d.conn()
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	return tx, nil
}

// exec runs a statement that returns no rows
func (d *Database) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	db, err := d.conn()
	if err != nil {
		return nil, err
	}
	return db.ExecContext(ctx, query, args...)
}

// Query runs a statement that returns rows, used by the query command and
// the listing helpers
func (d *Database) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	db, err := d.conn()
	if err != nil {
		return nil, err
	}
	return db.QueryContext(ctx, query, args...)
}

// queryRow runs a single-row lookup; a closed catalog surfaces as a scan error
func (d *Database) queryRow(ctx context.Context, query string, args ...interface{}) scanner {
	db, err := d.conn()
	if err != nil {
		return errScanner{err}
	}
	return db.QueryRowContext(ctx, query, args...)
}

type errScanner struct{ err error }

func (s errScanner) Scan(...interface{}) error { return s.err }

// Tables lists the catalog tables in name order
func (d *Database) Tables(ctx context.Context) ([]string, error) {
	rows, err := d.Query(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		tables = append(tables, name)
	}

	return tables, rows.Err()
}

// Count returns the number of rows in a catalog table
func (d *Database) Count(ctx context.Context, table string) (int, error) {
	var n int
	if err := d.queryRow(ctx, `SELECT COUNT(*) FROM `+QuoteIdentifier(table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}
	return n, nil
}
