package models

import "time"

// MaxPicks is the per-player cap on active picks in a season.
const MaxPicks = 20

// Pick records a player's claim on a person for a year. Picks are
// immutable once written and are never deleted; history accumulates
// across seasons.
type Pick struct {
	PlayerID  string    `json:"player_id"`
	PersonID  string    `json:"person_id"`
	Year      int       `json:"year"`
	Timestamp time.Time `json:"timestamp"`
}

// PickDetail is a pick joined with its player and person records, the
// shape served to read paths.
type PickDetail struct {
	PlayerID        string     `json:"player_id"`
	PlayerName      string     `json:"player_name"`
	DraftOrder      int        `json:"draft_order"`
	PersonID        string     `json:"pick_person_id"`
	PersonName      string     `json:"pick_person_name"`
	PersonAge       int        `json:"pick_person_age,omitempty"`
	PersonBirthDate string     `json:"pick_person_birth_date,omitempty"`
	PersonDeathDate string     `json:"pick_person_death_date,omitempty"`
	Timestamp       *time.Time `json:"pick_timestamp,omitempty"`
	Year            int        `json:"year"`
}
