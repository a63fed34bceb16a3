package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// Download is one served export
type Download struct {
	Season    int
	Format    string
	Teams     []string
	Positions []string
	Rows      int
	Bytes     int
	RequestID string
}

// Recorder stores download actions
type Recorder interface {
	RecordDownload(ctx context.Context, d Download) error
	Close() error
}

// Nop discards every record; used when no audit database is configured
type Nop struct{}

func (Nop) RecordDownload(context.Context, Download) error { return nil }
func (Nop) Close() error                                   { return nil }

const schema = `
	CREATE TABLE IF NOT EXISTS stats_download_logs (
		id          BIGSERIAL PRIMARY KEY,
		season      INTEGER NOT NULL,
		format      TEXT NOT NULL,
		teams       TEXT NOT NULL,
		positions   TEXT NOT NULL,
		row_count   INTEGER NOT NULL,
		byte_count  INTEGER NOT NULL,
		request_id  TEXT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// PostgresRecorder writes download actions to stats_download_logs
type PostgresRecorder struct {
	db *sql.DB
}

// NewPostgresRecorder opens the audit database and ensures its table exists
func NewPostgresRecorder(dsn string) (*PostgresRecorder, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create audit table: %w", err)
	}

	return &PostgresRecorder{db: db}, nil
}

// RecordDownload logs a served export
func (r *PostgresRecorder) RecordDownload(ctx context.Context, d Download) error {
	query := `
		INSERT INTO stats_download_logs (
			season, format, teams, positions, row_count, byte_count, request_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		d.Season,
		d.Format,
		strings.Join(d.Teams, ","),
		strings.Join(d.Positions, ","),
		d.Rows,
		d.Bytes,
		d.RequestID,
	)
	if err != nil {
		return fmt.Errorf("failed to log download: %w", err)
	}

	return nil
}

// Close closes the database connection
func (r *PostgresRecorder) Close() error {
	return r.db.Close()
}
