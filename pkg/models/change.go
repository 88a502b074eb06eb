package models

import "time"

// FieldKind indicates which scalar moved between two snapshots
type FieldKind string

const (
	FieldLine FieldKind = "line"
	FieldOdds FieldKind = "odds"
)

// FieldChange is one detected movement on a matched outcome.
// Delta is signed, Current minus Previous, with no rounding applied;
// display formatting belongs to the presentation layer.
type FieldChange struct {
	Kind     FieldKind `json:"type"`
	Previous float64   `json:"previous"`
	Current  float64   `json:"current"`
	Delta    float64   `json:"difference"`
}

// ChangeRecord reports value drift on one bookmaker/outcome between the two
// most recent snapshots of a key. A record always carries at least one
// FieldChange; a single outcome update is reported as one record, not split
// per field.
type ChangeRecord struct {
	Player       string        `json:"player"`
	Bookmaker    string        `json:"bookmaker"`
	BetType      Side          `json:"bet_type"`
	Event        EventInfo     `json:"event"`
	LatestUpdate time.Time     `json:"latest_update"`
	Changes      []FieldChange `json:"changes"`
}
