package models

import "time"

// EventInfo represents a sporting event. ID is stable across every snapshot
// describing the same real-world game.
type EventInfo struct {
	ID           string
	HomeTeam     string
	AwayTeam     string
	CommenceTime time.Time
}

// Side is the over/under direction of a prop outcome
type Side string

const (
	SideOver  Side = "Over"
	SideUnder Side = "Under"
)

// OutcomeRecord is one normalized prop outcome: one side of one player's
// line at one bookmaker. Bookmaker + Player + Side + event ID form the
// natural matching key across snapshots; the vendor provides no surrogate
// id for sub-documents.
//
// Line and Price are nil when the vendor omitted them. LastUpdate is the
// market-level timestamp; its zero value means absent and must not be
// treated as "now".
type OutcomeRecord struct {
	Bookmaker  string
	MarketKey  string
	Player     string
	Side       Side
	Line       *float64
	Price      *float64
	LastUpdate time.Time
}
