package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// MarketType identifies a player prop market tracked by Janus
type MarketType string

const (
	MarketPoints   MarketType = "player_points"
	MarketRebounds MarketType = "player_rebounds"
	MarketAssists  MarketType = "player_assists"
)

// AllMarkets returns every market type Janus tracks
func AllMarkets() []MarketType {
	return []MarketType{MarketPoints, MarketRebounds, MarketAssists}
}

// ParseMarketType converts a vendor market key to a MarketType
func ParseMarketType(key string) (MarketType, error) {
	switch MarketType(key) {
	case MarketPoints, MarketRebounds, MarketAssists:
		return MarketType(key), nil
	}
	return "", fmt.Errorf("unknown market type: %s", key)
}

// SnapshotKey identifies one logical timeline of snapshots
type SnapshotKey struct {
	EventID string
	Market  MarketType
}

// String returns the key in event:market form, used for cache keys and logs
func (k SnapshotKey) String() string {
	return fmt.Sprintf("%s:%s", k.EventID, k.Market)
}

// Snapshot is one immutable capture of market data for one (event, market)
// pair. Raw holds the vendor document exactly as fetched.
type Snapshot struct {
	ID         string
	Key        SnapshotKey
	CapturedAt time.Time
	Raw        json.RawMessage
}

// MalformedSnapshotError indicates a raw document missing required
// event-level fields. Fatal for that snapshot only, never for a batch.
type MalformedSnapshotError struct {
	Field string
}

func (e *MalformedSnapshotError) Error() string {
	return fmt.Sprintf("malformed snapshot: missing %s", e.Field)
}
