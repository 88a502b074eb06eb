package basketball_nba

import "github.com/XavierBriggs/Janus/pkg/models"

// PropsMarkets returns the player prop markets tracked for NBA
func PropsMarkets() []models.MarketType {
	return []models.MarketType{
		models.MarketPoints,
		models.MarketRebounds,
		models.MarketAssists,
	}
}

// IsPropsMarket returns true if the market key is a tracked player prop
func IsPropsMarket(marketKey string) bool {
	for _, m := range PropsMarkets() {
		if string(m) == marketKey {
			return true
		}
	}
	return false
}
