package models

import "time"

// PlayerView is the denormalized, player-centric aggregate built from many
// snapshots of one market type. It is recomputed from scratch on every
// build; consumers must treat it as an immutable value.
type PlayerView struct {
	Events     map[string]*EventLines `json:"events"`
	Bookmakers []string               `json:"bookmakers"` // sorted lexicographically
}

// EventLines groups one player's lines for a single event
type EventLines struct {
	Info  EventInfo            `json:"info"`
	Books map[string]*BookLine `json:"bookmakers"`
}

// BookLine holds one bookmaker's quote for a player prop. Fields are nil
// when the source outcome did not carry them; downstream consumers handle
// absence explicitly.
type BookLine struct {
	Line       *float64  `json:"line"`
	Over       *float64  `json:"over"`
	Under      *float64  `json:"under"`
	LastUpdate time.Time `json:"last_update"`
}
