package basketball_nba

import (
	"time"

	"github.com/XavierBriggs/Janus/pkg/models"
)

// Config contains NBA-specific snapshot capture configuration
type Config struct {
	// Sport identification
	SportKey    string
	DisplayName string

	// Regions to poll
	Regions []string

	// Prop markets to snapshot each sweep
	PropMarkets []models.MarketType

	// How often to capture a snapshot of every tracked key
	PollInterval time.Duration

	// How many hours ahead to discover events
	DiscoveryWindowHours int

	// How many snapshots to keep per (event, market) key
	SnapshotRetention int
}

// DefaultConfig returns the NBA tracking configuration
func DefaultConfig() *Config {
	return &Config{
		SportKey:    "basketball_nba",
		DisplayName: "NBA Basketball",
		Regions:     []string{"us", "eu"},

		PropMarkets: []models.MarketType{
			models.MarketPoints,
			models.MarketRebounds,
			models.MarketAssists,
		},

		PollInterval:         5 * time.Minute,
		DiscoveryWindowHours: 48,
		SnapshotRetention:    50,
	}
}
