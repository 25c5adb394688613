// Package catalog records which headline partitions have been written so
// downstream jobs can discover them without listing the object store.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// ErrPartitionNotFound is returned when no partition matches a lookup.
var ErrPartitionNotFound = errors.New("partition not found")

// dateLayout is the partition date format stored in the catalog.
const dateLayout = "2006-01-02"

// Partition describes one written headline table.
type Partition struct {
	Publisher string    `json:"publisher"`
	Date      string    `json:"date"` // yyyy-mm-dd
	Key       string    `json:"key"`
	Rows      int       `json:"rows"`
	Enriched  bool      `json:"enriched"`
	RunID     uuid.UUID `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Store manages the partition catalog using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the catalog database at dsn.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the partitions table if it doesn't exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS partitions (
		publisher TEXT NOT NULL,
		date TEXT NOT NULL,
		object_key TEXT NOT NULL,
		rows INTEGER NOT NULL DEFAULT 0,
		enriched INTEGER NOT NULL DEFAULT 0,
		run_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (publisher, date)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts a partition, replacing any earlier run for the same
// publisher and date.
func (s *Store) Record(ctx context.Context, p Partition) error {
	if p.Publisher == "" {
		return errors.New("partition publisher is required")
	}
	if _, err := time.Parse(dateLayout, p.Date); err != nil {
		return fmt.Errorf("invalid partition date %q: %w", p.Date, err)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	query := `
		INSERT OR REPLACE INTO partitions (
			publisher, date, object_key, rows, enriched, run_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		p.Publisher,
		p.Date,
		p.Key,
		p.Rows,
		boolToInt(p.Enriched),
		p.RunID.String(),
		p.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record partition: %w", err)
	}

	return nil
}

// Get returns the partition for a publisher and date.
func (s *Store) Get(ctx context.Context, publisher, date string) (*Partition, error) {
	query := `
		SELECT publisher, date, object_key, rows, enriched, run_id, created_at
		FROM partitions
		WHERE publisher = ? AND date = ?
	`

	p, err := scanPartition(s.db.QueryRowContext(ctx, query, publisher, date))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPartitionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query partition: %w", err)
	}

	return p, nil
}

// List returns partitions, newest date first. An empty publisher lists
// every publisher.
func (s *Store) List(ctx context.Context, publisher string) ([]Partition, error) {
	query := `
		SELECT publisher, date, object_key, rows, enriched, run_id, created_at
		FROM partitions
	`
	var args []any
	if publisher != "" {
		query += " WHERE publisher = ?"
		args = append(args, publisher)
	}
	query += " ORDER BY date DESC, publisher ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query partitions: %w", err)
	}
	defer rows.Close()

	partitions := []Partition{}
	for rows.Next() {
		p, err := scanPartition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan partition: %w", err)
		}
		partitions = append(partitions, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate partitions: %w", err)
	}

	return partitions, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPartition(row scanner) (*Partition, error) {
	var p Partition
	var enriched int
	var runID, createdAt string

	if err := row.Scan(&p.Publisher, &p.Date, &p.Key, &p.Rows, &enriched, &runID, &createdAt); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(runID)
	if err != nil {
		return nil, fmt.Errorf("invalid run_id %q: %w", runID, err)
	}
	p.RunID = id

	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
	}
	p.CreatedAt = created
	p.Enriched = enriched != 0

	return &p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
