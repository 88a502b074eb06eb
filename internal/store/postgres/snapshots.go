package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/XavierBriggs/Janus/pkg/contracts"
	"github.com/XavierBriggs/Janus/pkg/models"
	"github.com/google/uuid"
)

const defaultRetention = 50

// Store is the Postgres-backed SnapshotRepository. Snapshots are immutable
// rows; the only mutation is pruning history beyond the retention cap, so
// derived views and change lists are always recomputed, never persisted.
type Store struct {
	db        *sql.DB
	retention int
}

var _ contracts.SnapshotRepository = (*Store)(nil)

// NewStore creates a snapshot store. retention caps how many snapshots are
// kept per (event, market) key; zero or negative selects the default.
func NewStore(db *sql.DB, retention int) *Store {
	if retention <= 0 {
		retention = defaultRetention
	}
	return &Store{db: db, retention: retention}
}

// EnsureSchema creates the snapshots table if it does not exist.
// seq breaks capture-time ties by insertion order.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id          UUID PRIMARY KEY,
			seq         BIGSERIAL,
			event_id    TEXT NOT NULL,
			market_key  TEXT NOT NULL,
			captured_at TIMESTAMPTZ NOT NULL,
			raw         JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_key_time
			ON snapshots (event_id, market_key, captured_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create snapshots schema: %w", err)
		}
	}
	return nil
}

// Save persists one snapshot and prunes that key's history beyond the
// retention cap. Assigns the snapshot a new ID when it has none.
func (s *Store) Save(ctx context.Context, snap models.Snapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.CapturedAt.IsZero() {
		snap.CapturedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, event_id, market_key, captured_at, raw)
		VALUES ($1, $2, $3, $4, $5)`,
		snap.ID, snap.Key.EventID, string(snap.Key.Market), snap.CapturedAt, []byte(snap.Raw),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM snapshots
		WHERE event_id = $1 AND market_key = $2 AND id NOT IN (
			SELECT id FROM snapshots
			WHERE event_id = $1 AND market_key = $2
			ORDER BY captured_at DESC, seq DESC
			LIMIT $3
		)`,
		snap.Key.EventID, string(snap.Key.Market), s.retention,
	)
	if err != nil {
		return fmt.Errorf("prune snapshot history: %w", err)
	}

	return tx.Commit()
}

// ListSnapshots returns the history for key ascending by capture time,
// newest last. Capture-time ties keep insertion order.
func (s *Store) ListSnapshots(ctx context.Context, key models.SnapshotKey) ([]models.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, captured_at, raw
		FROM snapshots
		WHERE event_id = $1 AND market_key = $2
		ORDER BY captured_at ASC, seq ASC`,
		key.EventID, string(key.Market),
	)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []models.Snapshot
	for rows.Next() {
		snap := models.Snapshot{Key: key}
		var raw []byte
		if err := rows.Scan(&snap.ID, &snap.CapturedAt, &raw); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.Raw = raw
		snaps = append(snaps, snap)
	}

	return snaps, rows.Err()
}

// ListKeys returns every (event, market) key with stored history for one
// market type
func (s *Store) ListKeys(ctx context.Context, market models.MarketType) ([]models.SnapshotKey, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT event_id
		FROM snapshots
		WHERE market_key = $1
		ORDER BY event_id`,
		string(market),
	)
	if err != nil {
		return nil, fmt.Errorf("query snapshot keys: %w", err)
	}
	defer rows.Close()

	var keys []models.SnapshotKey
	for rows.Next() {
		var eventID string
		if err := rows.Scan(&eventID); err != nil {
			return nil, fmt.Errorf("scan snapshot key: %w", err)
		}
		keys = append(keys, models.SnapshotKey{EventID: eventID, Market: market})
	}

	return keys, rows.Err()
}

// LatestPerEvent returns the most recent snapshot for every event in one
// market type, in event-id order. This is the input set the View Builder
// expects: at most one snapshot per event.
func (s *Store) LatestPerEvent(ctx context.Context, market models.MarketType) ([]models.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT ON (event_id) id, event_id, captured_at, raw
		FROM snapshots
		WHERE market_key = $1
		ORDER BY event_id, captured_at DESC, seq DESC`,
		string(market),
	)
	if err != nil {
		return nil, fmt.Errorf("query latest snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []models.Snapshot
	for rows.Next() {
		snap := models.Snapshot{Key: models.SnapshotKey{Market: market}}
		var raw []byte
		if err := rows.Scan(&snap.ID, &snap.Key.EventID, &snap.CapturedAt, &raw); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.Raw = raw
		snaps = append(snaps, snap)
	}

	return snaps, rows.Err()
}
