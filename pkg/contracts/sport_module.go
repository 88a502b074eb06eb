package contracts

import (
	"time"

	"github.com/XavierBriggs/Janus/pkg/models"
)

// SportModule defines the interface for sport-specific polling logic.
// This enables Janus to track props for multiple sports dynamically.
type SportModule interface {
	// GetSportKey returns the unique identifier for this sport (e.g., "basketball_nba")
	GetSportKey() string

	// GetDisplayName returns the human-readable name (e.g., "NBA Basketball")
	GetDisplayName() string

	// GetRegions returns the regions to poll (e.g., ["us", "eu"])
	GetRegions() []string

	// GetPropMarkets returns the prop markets to snapshot for this sport
	GetPropMarkets() []models.MarketType

	// GetPollInterval returns how often to capture snapshots
	GetPollInterval() time.Duration

	// GetDiscoveryWindowHours returns how many hours ahead to discover events
	GetDiscoveryWindowHours() int

	// GetSnapshotRetention returns how many snapshots to keep per (event, market) key
	GetSnapshotRetention() int

	// ValidateOutcome performs sport-specific validation on a normalized outcome
	ValidateOutcome(rec models.OutcomeRecord) error
}
