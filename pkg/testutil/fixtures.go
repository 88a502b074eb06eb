package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/XavierBriggs/Janus/pkg/contracts"
	"github.com/XavierBriggs/Janus/pkg/models"
)

// Float creates a pointer to float64
func Float(val float64) *float64 {
	return &val
}

// NewTestEvent creates a test event
func NewTestEvent(eventID, homeTeam, awayTeam string, hoursUntilStart float64) models.EventInfo {
	return models.EventInfo{
		ID:           eventID,
		HomeTeam:     homeTeam,
		AwayTeam:     awayTeam,
		CommenceTime: time.Now().Add(time.Duration(hoursUntilStart * float64(time.Hour))).UTC().Truncate(time.Second),
	}
}

// Outcome is one outcome entry of a document under construction
type Outcome struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Point       *float64 `json:"point,omitempty"`
}

// Bookmaker is one bookmaker entry of a document under construction
type Bookmaker struct {
	Title      string
	LastUpdate string // RFC3339, empty means absent
	Outcomes   []Outcome
}

// OverUnder builds the usual pair of prop outcomes for one player
func OverUnder(player string, line, over, under float64) []Outcome {
	return []Outcome{
		{Name: "Over", Description: player, Price: Float(over), Point: Float(line)},
		{Name: "Under", Description: player, Price: Float(under), Point: Float(line)},
	}
}

// BuildDocument renders a raw snapshot document in The Odds API event-odds
// shape, ready to be normalized
func BuildDocument(info models.EventInfo, market models.MarketType, books ...Bookmaker) json.RawMessage {
	type outDoc struct {
		Key        string    `json:"key"`
		LastUpdate string    `json:"last_update,omitempty"`
		Outcomes   []Outcome `json:"outcomes"`
	}
	type bookDoc struct {
		Key     string   `json:"key"`
		Title   string   `json:"title"`
		Markets []outDoc `json:"markets"`
	}

	doc := map[string]interface{}{
		"id":            info.ID,
		"sport_key":     "basketball_nba",
		"home_team":     info.HomeTeam,
		"away_team":     info.AwayTeam,
		"commence_time": info.CommenceTime.Format(time.RFC3339),
	}

	bookDocs := make([]bookDoc, 0, len(books))
	for _, b := range books {
		bookDocs = append(bookDocs, bookDoc{
			Key:   b.Title,
			Title: b.Title,
			Markets: []outDoc{{
				Key:        string(market),
				LastUpdate: b.LastUpdate,
				Outcomes:   b.Outcomes,
			}},
		})
	}
	doc["bookmakers"] = bookDocs

	raw, err := json.Marshal(doc)
	if err != nil {
		panic(fmt.Sprintf("build document: %v", err))
	}
	return raw
}

// NewSnapshot wraps a raw document as a stored snapshot
func NewSnapshot(key models.SnapshotKey, capturedAt time.Time, raw json.RawMessage) models.Snapshot {
	return models.Snapshot{
		ID:         fmt.Sprintf("snap-%s-%d", key.EventID, capturedAt.Unix()),
		Key:        key,
		CapturedAt: capturedAt,
		Raw:        raw,
	}
}

// MemoryRepo is an in-memory SnapshotRepository for tests. Histories are
// returned in insertion order, ascending by the order Save was called,
// matching the ListSnapshots contract when saves happen in capture order.
type MemoryRepo struct {
	mu    sync.Mutex
	snaps map[models.SnapshotKey][]models.Snapshot
}

var _ contracts.SnapshotRepository = (*MemoryRepo)(nil)

// NewMemoryRepo creates an empty in-memory repository
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{snaps: make(map[models.SnapshotKey][]models.Snapshot)}
}

func (m *MemoryRepo) Save(ctx context.Context, snap models.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[snap.Key] = append(m.snaps[snap.Key], snap)
	return nil
}

func (m *MemoryRepo) ListSnapshots(ctx context.Context, key models.SnapshotKey) ([]models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Snapshot, len(m.snaps[key]))
	copy(out, m.snaps[key])
	return out, nil
}

func (m *MemoryRepo) ListKeys(ctx context.Context, market models.MarketType) ([]models.SnapshotKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []models.SnapshotKey
	for k := range m.snaps {
		if k.Market == market {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
