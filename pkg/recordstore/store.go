// Package recordstore wraps a SQLite database file with the small surface the
// catalogues need: schema bootstrap, parameterized mutations and typed reads.
//
// Every failure of the database itself is reported as a *StoreError, and
// unique key violations as ErrConflict, so callers never inspect driver errors.
package recordstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"catalogue/pkg/log"

	_ "modernc.org/sqlite"
)

const (
	dirPerm = 0750

	// busyTimeoutMillis lets separate handles on the same file wait for each other's writes.
	busyTimeoutMillis = 5000
)

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanFunc converts the current row into a record.
type ScanFunc[T any] func(row Scanner) (T, error)

// Execer runs a single mutating statement and reports the affected row count.
type Execer interface {
	Run(ctx context.Context, query string, args ...any) (int64, error)
}

// Store is a handle on one SQLite database file.
type Store struct {
	db   *sql.DB
	path string
	// writes are serialized per handle; reads are not.
	writeMu sync.Mutex
}

// Open opens (creating if absent) the database at path and applies the given
// schema statements, each of which must be idempotent.
func Open(ctx context.Context, path string, schema ...string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return nil, storeError(OpOpen, fmt.Errorf("failed to create directory %s: %w", dir, err))
		}
	}

	database, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, storeError(OpOpen, err)
	}

	if err := database.PingContext(ctx); err != nil {
		_ = database.Close()
		return nil, storeError(OpOpen, err)
	}

	store := &Store{db: database, path: path}
	for _, stmt := range schema {
		if _, err := database.ExecContext(ctx, stmt); err != nil {
			_ = database.Close()
			return nil, storeError(OpSchema, err)
		}
	}

	log.Debug().Str("path", path).Int("statements", len(schema)).Msg("Record store opened")
	return store, nil
}

func dsn(path string) string {
	params := url.Values{}
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeoutMillis))
	params.Add("_pragma", "journal_mode(WAL)")
	return "file:" + path + "?" + params.Encode()
}

// Path returns the database file the store was opened on.
func (s *Store) Path() string {
	return s.path
}

// Close releases the database handle.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return storeError(OpClose, err)
	}
	return nil
}

// Run executes a mutating statement and returns the number of rows it affected.
func (s *Store) Run(ctx context.Context, query string, args ...any) (int64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return run(ctx, s.db, query, args...)
}

// Tx runs fn inside a single transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
func (s *Store) Tx(ctx context.Context, fn func(Execer) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError(OpQuery, err)
	}

	if err := fn(txExecer{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Warn().Err(rbErr).Str("path", s.path).Msg("Rollback failed")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return storeError(OpQuery, err)
	}
	return nil
}

// QueryOne returns the first row of query, or nil when there is none.
func QueryOne[T any](ctx context.Context, s *Store, scan ScanFunc[T], query string, args ...any) (*T, error) {
	record, err := scan(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(OpQuery, err)
	}
	return &record, nil
}

// QueryAll returns every row of query. The result is never nil.
func QueryAll[T any](ctx context.Context, s *Store, scan ScanFunc[T], query string, args ...any) ([]T, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError(OpQuery, err)
	}
	defer func() { _ = rows.Close() }()

	records := []T{}
	for rows.Next() {
		record, scanErr := scan(rows)
		if scanErr != nil {
			return nil, storeError(OpQuery, scanErr)
		}
		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, storeError(OpQuery, err)
	}
	return records, nil
}

// Exists reports whether query yields at least one row.
func (s *Store) Exists(ctx context.Context, query string, args ...any) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS("+query+")", args...).Scan(&exists)
	if err != nil {
		return false, storeError(OpQuery, err)
	}
	return exists, nil
}

type execContexter interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type txExecer struct {
	tx *sql.Tx
}

func (t txExecer) Run(ctx context.Context, query string, args ...any) (int64, error) {
	return run(ctx, t.tx, query, args...)
}

func run(ctx context.Context, db execContexter, query string, args ...any) (int64, error) {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		if isConstraintViolation(err) {
			return 0, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return 0, storeError(OpQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, storeError(OpQuery, err)
	}
	return rowsAffected, nil
}

// isConstraintViolation matches SQLite's message for both UNIQUE and
// non-rowid PRIMARY KEY violations.
func isConstraintViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
