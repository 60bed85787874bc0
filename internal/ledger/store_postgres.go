package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PostgresStore persists command records in PostgreSQL. The upsert keeps the
// latest-write-wins semantics of the other backends.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the command record table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS command_records (
			record_key  TEXT PRIMARY KEY,
			command_id  TEXT NOT NULL,
			instance_id TEXT NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("migrate command_records: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, physicalResourceID string) (*Record, error) {
	var record Record
	err := s.db.QueryRowContext(ctx,
		`SELECT command_id, instance_id FROM command_records WHERE record_key = $1`,
		RecordKey(physicalResourceID),
	).Scan(&record.CommandID, &record.InstanceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get command record: %w", err)
	}
	return &record, nil
}

func (s *PostgresStore) Put(ctx context.Context, physicalResourceID string, record Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO command_records (record_key, command_id, instance_id, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (record_key) DO UPDATE
		SET command_id = EXCLUDED.command_id,
		    instance_id = EXCLUDED.instance_id,
		    updated_at = EXCLUDED.updated_at`,
		RecordKey(physicalResourceID), record.CommandID, record.InstanceID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("put command record: %w", err)
	}
	return nil
}
