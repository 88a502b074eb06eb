package normalize

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/XavierBriggs/Janus/pkg/models"
)

// Normalize converts one raw vendor document into the canonical event plus
// outcome records. It fails with *models.MalformedSnapshotError when any of
// the event-level id/home_team/away_team fields is absent.
//
// Outcomes without a player description are skipped silently: they are
// non-player markets (team totals and the like) and out of scope. Outcome
// names other than Over/Under are skipped too; provider schemas evolve,
// so unknown shapes are ignored rather than errored.
func Normalize(raw []byte) (models.EventInfo, []models.OutcomeRecord, error) {
	var doc eventDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return models.EventInfo{}, nil, fmt.Errorf("parse snapshot document: %w", err)
	}

	switch {
	case doc.ID == "":
		return models.EventInfo{}, nil, &models.MalformedSnapshotError{Field: "id"}
	case doc.HomeTeam == "":
		return models.EventInfo{}, nil, &models.MalformedSnapshotError{Field: "home_team"}
	case doc.AwayTeam == "":
		return models.EventInfo{}, nil, &models.MalformedSnapshotError{Field: "away_team"}
	}

	info := models.EventInfo{
		ID:       doc.ID,
		HomeTeam: doc.HomeTeam,
		AwayTeam: doc.AwayTeam,
	}
	if t, err := time.Parse(time.RFC3339, doc.CommenceTime); err == nil {
		info.CommenceTime = t
	}

	var records []models.OutcomeRecord

	for _, book := range doc.Bookmakers {
		bookName := book.Title
		if bookName == "" {
			bookName = book.Key
		}

		for _, market := range book.Markets {
			// Market-level timestamp applies to every outcome beneath it.
			// When absent it stays absent; zero time never means "now".
			var lastUpdate time.Time
			if market.LastUpdate != "" {
				if t, err := time.Parse(time.RFC3339, market.LastUpdate); err == nil {
					lastUpdate = t
				}
			}

			for _, outcome := range market.Outcomes {
				if outcome.Description == "" {
					continue
				}

				var side models.Side
				switch outcome.Name {
				case string(models.SideOver):
					side = models.SideOver
				case string(models.SideUnder):
					side = models.SideUnder
				default:
					continue
				}

				records = append(records, models.OutcomeRecord{
					Bookmaker:  bookName,
					MarketKey:  market.Key,
					Player:     outcome.Description,
					Side:       side,
					Line:       outcome.Point,
					Price:      outcome.Price,
					LastUpdate: lastUpdate,
				})
			}
		}
	}

	return info, records, nil
}

// Document structures matching The Odds API event-odds JSON format

type eventDocument struct {
	ID           string        `json:"id"`
	SportKey     string        `json:"sport_key"`
	CommenceTime string        `json:"commence_time"`
	HomeTeam     string        `json:"home_team"`
	AwayTeam     string        `json:"away_team"`
	Bookmakers   []bookmakerDoc `json:"bookmakers"`
}

type bookmakerDoc struct {
	Key     string      `json:"key"`
	Title   string      `json:"title"`
	Markets []marketDoc `json:"markets"`
}

type marketDoc struct {
	Key        string       `json:"key"`
	LastUpdate string       `json:"last_update"`
	Outcomes   []outcomeDoc `json:"outcomes"`
}

type outcomeDoc struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       *float64 `json:"price,omitempty"`
	Point       *float64 `json:"point,omitempty"`
}
