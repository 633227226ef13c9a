package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SqliteStorage implements ResultStorage using SQLite.
// Thread-safe: sql.DB handles connection pooling and concurrent access.
type SqliteStorage struct {
	db *sql.DB
}

// OpenSqlite opens or creates a SQLite database at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteStorage, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	storage := &SqliteStorage{db: db}
	if err := storage.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// NewSqliteInMemory creates an in-memory database (useful for testing).
func NewSqliteInMemory() (*SqliteStorage, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	storage := &SqliteStorage{db: db}
	if err := storage.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// Close closes the database connection.
func (s *SqliteStorage) Close() error {
	return s.db.Close()
}

func (s *SqliteStorage) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS query_results (
			key TEXT PRIMARY KEY,
			payload BLOB NOT NULL,
			expiry INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_query_results_expiry
		ON query_results(expiry);

		CREATE TABLE IF NOT EXISTS query_result_cameras (
			key TEXT NOT NULL,
			camera_id TEXT NOT NULL,
			PRIMARY KEY (key, camera_id)
		);

		CREATE INDEX IF NOT EXISTS idx_query_result_cameras_camera
		ON query_result_cameras(camera_id);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// StoreResult stores a result, replacing any previous result for the key.
func (s *SqliteStorage) StoreResult(ctx context.Context, result PersistedResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// defer tx.Rollback() is safe even after Commit() - it becomes a no-op
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO query_results (key, payload, expiry, created_at)
		VALUES (?, ?, ?, ?)`,
		result.Key,
		result.Payload,
		result.Expiry,
		result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store result: %w", err)
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM query_result_cameras WHERE key = ?", result.Key); err != nil {
		return fmt.Errorf("failed to clear result cameras: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR IGNORE INTO query_result_cameras (key, camera_id) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for _, cameraID := range result.CameraIDs {
		if _, err = stmt.ExecContext(ctx, result.Key, cameraID); err != nil {
			return fmt.Errorf("failed to insert result camera: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LoadResult loads a result and the cameras it covers.
func (s *SqliteStorage) LoadResult(ctx context.Context, key string) (*PersistedResult, error) {
	r := PersistedResult{Key: key}
	err := s.db.QueryRowContext(ctx,
		"SELECT payload, expiry, created_at FROM query_results WHERE key = ?", key,
	).Scan(&r.Payload, &r.Expiry, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load result: %w", err)
	}

	cameras, err := s.queryStrings(ctx,
		"SELECT camera_id FROM query_result_cameras WHERE key = ? ORDER BY camera_id", key)
	if err != nil {
		return nil, err
	}
	r.CameraIDs = cameras
	return &r, nil
}

// queryStrings executes a single-column query and scans the rows.
func (s *SqliteStorage) queryStrings(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		out = append(out, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iteration failed: %w", err)
	}
	return out, nil
}

// DeleteResult removes a specific result.
func (s *SqliteStorage) DeleteResult(ctx context.Context, key string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM query_result_cameras WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete result cameras: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM query_results WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete result: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteCameraResults removes every result that covers cameraID, including
// multi-camera results.
func (s *SqliteStorage) DeleteCameraResults(ctx context.Context, cameraID string) (int64, error) {
	return s.deleteWhere(ctx,
		"SELECT key FROM query_result_cameras WHERE camera_id = ?", cameraID)
}

// DeleteExpired removes every result whose expiry is at or before now.
func (s *SqliteStorage) DeleteExpired(ctx context.Context, now int64) (int64, error) {
	return s.deleteWhere(ctx,
		"SELECT key FROM query_results WHERE expiry <= ?", now)
}

// deleteWhere removes the results whose keys the selector returns.
func (s *SqliteStorage) deleteWhere(ctx context.Context, selector string, args ...interface{}) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"DELETE FROM query_results WHERE key IN ("+selector+")", args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete results: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted results: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"DELETE FROM query_result_cameras WHERE key NOT IN (SELECT key FROM query_results)")
	if err != nil {
		return 0, fmt.Errorf("failed to delete orphaned result cameras: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return n, nil
}

// Verify SqliteStorage implements ResultStorage
var _ ResultStorage = (*SqliteStorage)(nil)
