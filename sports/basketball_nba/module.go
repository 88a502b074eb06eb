package basketball_nba

import (
	"fmt"
	"time"

	"github.com/XavierBriggs/Janus/pkg/models"
)

// Module implements the SportModule interface for NBA Basketball
type Module struct {
	config *Config
}

// NewModule creates a new NBA sport module
func NewModule() *Module {
	return &Module{
		config: DefaultConfig(),
	}
}

// NewModuleWithConfig creates an NBA module with a custom configuration
func NewModuleWithConfig(config *Config) *Module {
	return &Module{config: config}
}

// GetSportKey returns the sport identifier
func (m *Module) GetSportKey() string {
	return m.config.SportKey
}

// GetDisplayName returns the human-readable name
func (m *Module) GetDisplayName() string {
	return m.config.DisplayName
}

// GetRegions returns the regions to poll
func (m *Module) GetRegions() []string {
	return m.config.Regions
}

// GetPropMarkets returns the prop markets to snapshot
func (m *Module) GetPropMarkets() []models.MarketType {
	return m.config.PropMarkets
}

// GetPollInterval returns how often to capture snapshots
func (m *Module) GetPollInterval() time.Duration {
	return m.config.PollInterval
}

// GetDiscoveryWindowHours returns the discovery window in hours
func (m *Module) GetDiscoveryWindowHours() int {
	return m.config.DiscoveryWindowHours
}

// GetSnapshotRetention returns the per-key snapshot cap
func (m *Module) GetSnapshotRetention() int {
	return m.config.SnapshotRetention
}

// ValidateOutcome performs NBA-specific validation on a normalized outcome
func (m *Module) ValidateOutcome(rec models.OutcomeRecord) error {
	if !IsPropsMarket(rec.MarketKey) {
		return fmt.Errorf("invalid market_key for NBA props: %s", rec.MarketKey)
	}

	if rec.Player == "" {
		return fmt.Errorf("outcome has no player name")
	}

	if rec.Side != models.SideOver && rec.Side != models.SideUnder {
		return fmt.Errorf("invalid side: %s", rec.Side)
	}

	// Decimal odds are always >= 1.0 when present
	if rec.Price != nil && *rec.Price < 1.0 {
		return fmt.Errorf("invalid decimal price: %v", *rec.Price)
	}

	if rec.Line != nil && *rec.Line < 0 {
		return fmt.Errorf("invalid negative line: %v", *rec.Line)
	}

	return nil
}
