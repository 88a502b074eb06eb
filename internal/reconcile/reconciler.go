package reconcile

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/XavierBriggs/Janus/internal/normalize"
	"github.com/XavierBriggs/Janus/pkg/contracts"
	"github.com/XavierBriggs/Janus/pkg/models"
)

// Matching across snapshots is by name equality only: the vendor offers no
// stable sub-document identifiers, so a bookmaker in the newest snapshot is
// paired with the prior bookmaker of the identical name (first match if
// duplicates exist), markets by key, outcomes by (player, side). Entities
// present on only one side produce no record: appearance and disappearance
// are not changes, only value drift on matched entities is.

// epsilon guards float comparisons; deltas themselves are exact
const epsilon = 1e-9

// outcomeKey is the deterministic surrogate for one outcome's identity
type outcomeKey struct {
	Bookmaker string
	MarketKey string
	Player    string
	Side      models.Side
}

// Reconcile computes change records between the two most recent snapshots
// of one (event, market) key. History must be ascending by capture time,
// newest last, as the SnapshotRepository contract guarantees.
//
// Fewer than two snapshots is not an error: no comparison is possible yet,
// so the result is empty. Capture-time ties keep the repository's return
// order; that tie-break is policy, not something derived here.
func Reconcile(key models.SnapshotKey, history []models.Snapshot) ([]models.ChangeRecord, error) {
	if len(history) < 2 {
		return nil, nil
	}

	ordered := make([]models.Snapshot, len(history))
	copy(ordered, history)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CapturedAt.Before(ordered[j].CapturedAt)
	})

	newest := ordered[len(ordered)-1]
	prior := ordered[len(ordered)-2]

	newInfo, newRecords, err := normalize.Normalize(newest.Raw)
	if err != nil {
		return nil, fmt.Errorf("reconcile %s: newest snapshot: %w", key, err)
	}
	_, priorRecords, err := normalize.Normalize(prior.Raw)
	if err != nil {
		return nil, fmt.Errorf("reconcile %s: prior snapshot: %w", key, err)
	}

	// First occurrence wins when the vendor duplicates an outcome
	priorByKey := make(map[outcomeKey]models.OutcomeRecord, len(priorRecords))
	for _, rec := range priorRecords {
		k := keyOf(rec)
		if _, exists := priorByKey[k]; !exists {
			priorByKey[k] = rec
		}
	}

	var changes []models.ChangeRecord
	seen := make(map[outcomeKey]bool, len(newRecords))

	for _, rec := range newRecords {
		k := keyOf(rec)
		if seen[k] {
			continue
		}
		seen[k] = true

		prev, matched := priorByKey[k]
		if !matched {
			continue
		}

		fields := diffOutcome(prev, rec)
		if len(fields) == 0 {
			continue
		}

		changes = append(changes, models.ChangeRecord{
			Player:       rec.Player,
			Bookmaker:    rec.Bookmaker,
			BetType:      rec.Side,
			Event:        newInfo,
			LatestUpdate: rec.LastUpdate,
			Changes:      fields,
		})
	}

	return changes, nil
}

// diffOutcome compares line and price independently. Absence on either side
// suppresses that comparison: no change is ever inferred from missing data.
func diffOutcome(prev, cur models.OutcomeRecord) []models.FieldChange {
	var fields []models.FieldChange

	if prev.Line != nil && cur.Line != nil && differs(*prev.Line, *cur.Line) {
		fields = append(fields, models.FieldChange{
			Kind:     models.FieldLine,
			Previous: *prev.Line,
			Current:  *cur.Line,
			Delta:    *cur.Line - *prev.Line,
		})
	}

	if prev.Price != nil && cur.Price != nil && differs(*prev.Price, *cur.Price) {
		fields = append(fields, models.FieldChange{
			Kind:     models.FieldOdds,
			Previous: *prev.Price,
			Current:  *cur.Price,
			Delta:    *cur.Price - *prev.Price,
		})
	}

	return fields
}

func differs(a, b float64) bool {
	return math.Abs(a-b) > epsilon
}

func keyOf(rec models.OutcomeRecord) outcomeKey {
	return outcomeKey{
		Bookmaker: rec.Bookmaker,
		MarketKey: rec.MarketKey,
		Player:    rec.Player,
		Side:      rec.Side,
	}
}

// KeyResult is the per-key outcome of a batch reconciliation: either a
// change list or a tagged failure, never both
type KeyResult struct {
	Key     models.SnapshotKey
	Changes []models.ChangeRecord
	Err     error
}

// ReconcileAll runs Reconcile over every key, loading each key's history
// from the repository. One malformed snapshot fails that key alone; all
// other keys are still processed and reported.
func ReconcileAll(ctx context.Context, repo contracts.SnapshotRepository, keys []models.SnapshotKey) []KeyResult {
	results := make([]KeyResult, 0, len(keys))

	for _, key := range keys {
		history, err := repo.ListSnapshots(ctx, key)
		if err != nil {
			results = append(results, KeyResult{Key: key, Err: fmt.Errorf("list snapshots: %w", err)})
			continue
		}

		changes, err := Reconcile(key, history)
		if err != nil {
			results = append(results, KeyResult{Key: key, Err: err})
			continue
		}

		results = append(results, KeyResult{Key: key, Changes: changes})
	}

	return results
}
