package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"

	"andesgo/intake/internal/models"
)

// SQLiteStore persists records in an embedded SQLite database. The full
// record is kept as JSON next to the indexed columns.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory for sqlite database '%s': %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writes.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS request_records (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			kind TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			payload TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_request_records_created_at ON request_records(created_at);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create request_records table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Append(ctx context.Context, record *models.RequestRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", record.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO request_records (id, kind, status, created_at, payload)
		VALUES (?, ?, ?, ?, ?)
	`, record.ID, string(record.Kind), string(record.Status), record.CreatedAt.UTC().Format(time.RFC3339Nano), string(payload))
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return ErrDuplicateID
		}
		return fmt.Errorf("failed to insert record %s: %w", record.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetByID(ctx context.Context, id string) (*models.RequestRecord, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM request_records WHERE id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find record %s: %w", id, err)
	}
	return decodeRecord(payload)
}

func (s *SQLiteStore) ListAll(ctx context.Context) ([]*models.RequestRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM request_records ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	records := []*models.RequestRecord{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		record, err := decodeRecord(payload)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func decodeRecord(payload string) (*models.RequestRecord, error) {
	var record models.RequestRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return &record, nil
}
