// Package events carries the engine's outbound domain events. Delivery
// beyond the broker (mail, SMS, web push) belongs to downstream
// consumers.
package events

import "time"

// Event types published on the bus.
const (
	TypePickCommitted       = "PickCommitted"
	TypeTransitionCompleted = "TransitionCompleted"
)

// PickCommittedPayload announces a successful draft commit.
type PickCommittedPayload struct {
	PlayerID     string    `json:"player_id"`
	PlayerName   string    `json:"player_name"`
	PersonID     string    `json:"person_id"`
	PersonName   string    `json:"person_name"`
	Year         int       `json:"year"`
	WasNewPerson bool      `json:"was_new_person"`
	CommittedAt  time.Time `json:"committed_at"`
}

// TransitionCompletedPayload announces a finished season rollover.
type TransitionCompletedPayload struct {
	FromYear             int       `json:"from_year"`
	ToYear               int       `json:"to_year"`
	Status               string    `json:"status"`
	PlayersProcessed     int       `json:"players_processed"`
	ActivePicksMigrated  int       `json:"active_picks_migrated"`
	DeceasedPicksSkipped int       `json:"deceased_picks_skipped"`
	ErrorCount           int       `json:"error_count"`
	CompletedAt          time.Time `json:"completed_at"`
}
