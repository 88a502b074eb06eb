package view

import (
	"fmt"
	"sort"

	"github.com/XavierBriggs/Janus/internal/normalize"
	"github.com/XavierBriggs/Janus/pkg/models"
)

// Build merges snapshots (same or different events, one market type) into a
// player-centric index: player → event → bookmaker → {line, over, under}.
//
// Snapshots are processed in the order given, never re-sorted; when two
// snapshots carry the same (player, event, bookmaker) triple the later one
// wins. Merge order is therefore the caller's explicit parameter; pass at
// most one snapshot per event, the latest available, unless overwriting is
// intended.
//
// A malformed snapshot aborts the build; the error names the offending
// snapshot so the caller can drop it and retry.
func Build(snapshots []models.Snapshot) (map[string]*models.PlayerView, error) {
	players := make(map[string]*models.PlayerView)

	for _, snap := range snapshots {
		info, records, err := normalize.Normalize(snap.Raw)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s (%s): %w", snap.ID, snap.Key, err)
		}

		for _, rec := range records {
			pv, ok := players[rec.Player]
			if !ok {
				pv = &models.PlayerView{
					Events: make(map[string]*models.EventLines),
				}
				players[rec.Player] = pv
			}

			ev, ok := pv.Events[info.ID]
			if !ok {
				ev = &models.EventLines{
					Info:  info,
					Books: make(map[string]*models.BookLine),
				}
				pv.Events[info.ID] = ev
			}

			line, ok := ev.Books[rec.Bookmaker]
			if !ok {
				line = &models.BookLine{LastUpdate: rec.LastUpdate}
				ev.Books[rec.Bookmaker] = line
			}

			// The Over outcome carries the line; Under carries only its
			// price. Partial outcomes are retained with nil fields.
			switch rec.Side {
			case models.SideOver:
				line.Line = rec.Line
				line.Over = rec.Price
			case models.SideUnder:
				line.Under = rec.Price
			}
			line.LastUpdate = rec.LastUpdate

			pv.Bookmakers = appendBookmaker(pv.Bookmakers, rec.Bookmaker)
		}
	}

	// Sorted for deterministic display ordering regardless of merge order
	for _, pv := range players {
		sort.Strings(pv.Bookmakers)
	}

	return players, nil
}

// EventNames returns the distinct (event id, display name) pairs present in
// a built view, sorted by display name. Used by the presentation layer to
// populate event filters.
func EventNames(players map[string]*models.PlayerView) [][2]string {
	seen := make(map[string]string)
	for _, pv := range players {
		for id, ev := range pv.Events {
			seen[id] = ev.Info.HomeTeam + " vs " + ev.Info.AwayTeam
		}
	}

	names := make([][2]string, 0, len(seen))
	for id, name := range seen {
		names = append(names, [2]string{id, name})
	}
	sort.Slice(names, func(i, j int) bool { return names[i][1] < names[j][1] })
	return names
}

func appendBookmaker(books []string, name string) []string {
	for _, b := range books {
		if b == name {
			return books
		}
	}
	return append(books, name)
}
