package models

// DraftOrderEntry assigns a player a position in a year's draft order.
// For a given year the positions form a contiguous 1..N permutation over
// the participating players. Entries are written once per year and only
// replaced wholesale at the next season rollover.
type DraftOrderEntry struct {
	Year     int    `json:"year"`
	Position int    `json:"draft_order"`
	PlayerID string `json:"player_id"`
}
