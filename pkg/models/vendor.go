package models

// FetchMarketOptions contains parameters for fetching one event's odds for
// a single prop market
type FetchMarketOptions struct {
	Sport   string
	EventID string
	Market  MarketType
	Regions []string
}

// RateLimits contains rate limiting information reported by the vendor
type RateLimits struct {
	RequestsRemaining int
	RequestsUsed      int
}
