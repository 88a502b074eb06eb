package contracts

import (
	"context"
	"encoding/json"

	"github.com/XavierBriggs/Janus/pkg/models"
)

// VendorAdapter defines the interface for fetching odds documents from an
// external provider. The raw body returned by FetchMarketDocument is stored
// verbatim as Snapshot.Raw; parsing it is the Normalizer's job.
type VendorAdapter interface {
	// FetchEvents retrieves upcoming events without odds (for discovery)
	FetchEvents(ctx context.Context, sport string) ([]models.EventInfo, error)

	// FetchMarketDocument retrieves one event's odds for a single prop
	// market and returns the raw response document
	FetchMarketDocument(ctx context.Context, opts *models.FetchMarketOptions) (json.RawMessage, error)

	// SupportsMarket checks if this adapter supports a given market key
	SupportsMarket(market string) bool

	// GetRateLimits returns current rate limit information
	GetRateLimits() *models.RateLimits
}
