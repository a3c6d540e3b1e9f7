package models

import "time"

// DraftSlots caches a player's remaining draft capacity for a year. It is
// derived state, recomputed after every commit and at rollover, and is
// always reconcilable from the underlying picks.
type DraftSlots struct {
	PlayerID       string    `json:"player_id"`
	Year           int       `json:"year"`
	MaxPicks       int       `json:"max_picks"`
	CurrentPicks   int       `json:"current_picks"`
	AvailableSlots int       `json:"available_slots"`
	LastUpdated    time.Time `json:"last_updated"`
}
