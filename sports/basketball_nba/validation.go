package basketball_nba

import (
	"fmt"
	"strings"
	"time"

	"github.com/XavierBriggs/Janus/pkg/models"
)

// ValidateEvent checks if an NBA event is usable for snapshot capture
func ValidateEvent(event *models.EventInfo) error {
	if event.HomeTeam == "" {
		return fmt.Errorf("home team cannot be empty")
	}

	if event.AwayTeam == "" {
		return fmt.Errorf("away team cannot be empty")
	}

	if event.HomeTeam == event.AwayTeam {
		return fmt.Errorf("home and away teams cannot be the same")
	}

	if event.CommenceTime.Before(time.Now().Add(-24 * time.Hour)) {
		return fmt.Errorf("event commence time is too far in the past")
	}

	return nil
}

// NormalizeTeamName standardizes team names from vendor
// Handles variations like "LA Lakers" vs "Los Angeles Lakers"
func NormalizeTeamName(name string) string {
	name = strings.TrimSpace(name)

	// Common normalizations
	replacements := map[string]string{
		"LA Lakers":   "Los Angeles Lakers",
		"LA Clippers": "Los Angeles Clippers",
		"NY Knicks":   "New York Knicks",
		"GS Warriors": "Golden State Warriors",
		"SA Spurs":    "San Antonio Spurs",
		"OKC Thunder": "Oklahoma City Thunder",
		"NO Pelicans": "New Orleans Pelicans",
	}

	if normalized, ok := replacements[name]; ok {
		return normalized
	}

	return name
}
