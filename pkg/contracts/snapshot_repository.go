package contracts

import (
	"context"

	"github.com/XavierBriggs/Janus/pkg/models"
)

// SnapshotRepository provides ordered access to the snapshot history of a
// (event, market) key. Snapshots are immutable once saved.
type SnapshotRepository interface {
	// Save persists one snapshot and prunes history beyond the retention cap
	Save(ctx context.Context, snap models.Snapshot) error

	// ListSnapshots returns the history for key ascending by capture time,
	// newest LAST. Ties preserve insertion order; callers must not assume
	// any other tie-break.
	ListSnapshots(ctx context.Context, key models.SnapshotKey) ([]models.Snapshot, error)

	// ListKeys returns every key with at least one stored snapshot
	ListKeys(ctx context.Context, market models.MarketType) ([]models.SnapshotKey, error)
}
