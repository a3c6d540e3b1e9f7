package transition

import (
	"time"

	"github.com/mcdev12/deadpool/go/internal/models"
	"github.com/mcdev12/deadpool/go/internal/scoring"
)

// Request configures a season rollover run.
type Request struct {
	FromYear int
	ToYear   int
	// DryRun executes every stage's read/compute path but writes
	// nothing, returning the same report a real run would.
	DryRun bool
	// Verbose logs each per-player partition and order assignment.
	Verbose bool
}

// SkippedPick records a pick dropped at the year boundary and why.
type SkippedPick struct {
	PersonID   string `json:"person_id"`
	PersonName string `json:"person_name"`
	Reason     string `json:"reason"`
}

// PlayerResult is the carry-forward outcome for one player. Failures on
// one player never block the others; Error carries the failure text.
type PlayerResult struct {
	PlayerID       string        `json:"player_id"`
	PlayerName     string        `json:"player_name"`
	ActivePicks    int           `json:"active_picks"`
	SkippedPicks   []SkippedPick `json:"skipped_picks,omitempty"`
	AvailableSlots int           `json:"available_slots"`
	Error          string        `json:"error,omitempty"`
}

// ValidationIssue is a post-write invariant violation. Issues are
// reported in full; completed stages are never rolled back.
type ValidationIssue struct {
	PlayerID string `json:"player_id,omitempty"`
	Message  string `json:"message"`
}

// Report is the full outcome of a transition run.
type Report struct {
	FromYear int  `json:"from_year"`
	ToYear   int  `json:"to_year"`
	DryRun   bool `json:"dry_run"`

	Strategy    string                     `json:"strategy"`
	Leaderboard []scoring.LeaderboardEntry `json:"outgoing_leaderboard"`
	DraftOrder  []models.DraftOrderEntry   `json:"new_draft_order"`
	Players     []PlayerResult             `json:"players"`
	Validation  []ValidationIssue          `json:"validation_issues,omitempty"`

	PlayersProcessed     int `json:"players_processed"`
	ActivePicksMigrated  int `json:"active_picks_migrated"`
	DeceasedPicksSkipped int `json:"deceased_picks_skipped"`
	DraftOrdersCreated   int `json:"draft_orders_created"`
	ErrorCount           int `json:"error_count"`

	Status      string    `json:"status"`
	CompletedAt time.Time `json:"completed_at"`
}

// Record converts the report into the stored audit marker.
func (r *Report) Record() models.TransitionRecord {
	return models.TransitionRecord{
		FromYear:             r.FromYear,
		ToYear:               r.ToYear,
		Strategy:             r.Strategy,
		PlayersProcessed:     r.PlayersProcessed,
		ActivePicksMigrated:  r.ActivePicksMigrated,
		DeceasedPicksSkipped: r.DeceasedPicksSkipped,
		DraftOrdersCreated:   r.DraftOrdersCreated,
		ErrorCount:           r.ErrorCount,
		Status:               r.Status,
		CompletedAt:          r.CompletedAt,
	}
}
