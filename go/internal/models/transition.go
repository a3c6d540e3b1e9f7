package models

import "time"

// Transition strategies and completion states recorded on the audit row.
const (
	TransitionStrategyActivePicksOnly = "ACTIVE_PICKS_ONLY"

	TransitionStatusCompleted           = "COMPLETED"
	TransitionStatusCompletedWithErrors = "COMPLETED_WITH_ERRORS"
)

// TransitionRecord is the idempotency/audit marker for a season rollover.
// One record exists per (from, to) year pair and is overwritten on rerun.
type TransitionRecord struct {
	FromYear             int       `json:"from_year"`
	ToYear               int       `json:"to_year"`
	Strategy             string    `json:"strategy"`
	PlayersProcessed     int       `json:"players_processed"`
	ActivePicksMigrated  int       `json:"active_picks_migrated"`
	DeceasedPicksSkipped int       `json:"deceased_picks_skipped"`
	DraftOrdersCreated   int       `json:"draft_orders_created"`
	ErrorCount           int       `json:"error_count"`
	Status               string    `json:"status"`
	CompletedAt          time.Time `json:"completed_at"`
}
