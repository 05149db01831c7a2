package stats

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"
)

// DriftSample is one recorded observation of a node's sync state.
type DriftSample struct {
	NodeID     string
	Master     bool
	Drift      float64
	MasterTime float64
	LocalTime  float64
	Rate       float64
	Seeks      uint64
	Samples    uint64
	RecordedAt time.Time
	Details    json.RawMessage
}

// OpenDatabase opens and pings the stats database.
func OpenDatabase(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Repository persists drift samples and seek events.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InsertDriftSample records one snapshot row. Details lands in a JSONB
// column and may be empty.
func (r *Repository) InsertDriftSample(ctx context.Context, s DriftSample) error {
	query := `
		INSERT INTO drift_samples (
			node_id, is_master, drift, master_time, local_time,
			rate, seeks, samples_received, recorded_at, details
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		s.NodeID,
		s.Master,
		s.Drift,
		s.MasterTime,
		s.LocalTime,
		s.Rate,
		int64(s.Seeks),
		int64(s.Samples),
		s.RecordedAt,
		pqtype.NullRawMessage{RawMessage: s.Details, Valid: len(s.Details) > 0},
	)
	if err != nil {
		return fmt.Errorf("failed to insert drift sample: %w", err)
	}
	return nil
}

// InsertSeekEvent records a hard seek for later analysis of thrashing.
func (r *Repository) InsertSeekEvent(ctx context.Context, nodeID string, target, drift float64, at time.Time) error {
	query := `
		INSERT INTO seek_events (node_id, target, drift, occurred_at)
		VALUES ($1, $2, $3, $4)`

	if _, err := r.db.ExecContext(ctx, query, nodeID, target, drift, at); err != nil {
		return fmt.Errorf("failed to insert seek event: %w", err)
	}
	return nil
}

// PruneBefore deletes drift samples older than the cutoff.
func (r *Repository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM drift_samples WHERE recorded_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune drift samples: %w", err)
	}
	return res.RowsAffected()
}
