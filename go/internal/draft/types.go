package draft

import "time"

// NextDrafter identifies the player who should pick next, with the
// counts the selection was based on.
type NextDrafter struct {
	PlayerID        string `json:"player_id"`
	PlayerName      string `json:"player_name"`
	DraftOrder      int    `json:"draft_order"`
	PickCount       int    `json:"current_pick_count"`
	ActivePickCount int    `json:"active_pick_count"`
}

// CommitDraftRequest asks the engine to record a pick of PersonName for
// PlayerID in Year. The name is free-form; the engine resolves it to an
// existing person or creates one.
type CommitDraftRequest struct {
	PlayerID   string
	PersonName string
	Year       int
}

// DraftResult reports a committed pick.
type DraftResult struct {
	PersonID       string    `json:"person_id"`
	PersonName     string    `json:"person_name"`
	WasNewPerson   bool      `json:"was_new_person"`
	Timestamp      time.Time `json:"timestamp"`
	AvailableSlots int       `json:"available_slots"`
}

// PersonMatch is a scored candidate from a name lookup.
type PersonMatch struct {
	PersonID   string  `json:"person_id"`
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
}
