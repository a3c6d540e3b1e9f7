package models

// Player represents a pool participant. Players are created at signup by
// the profile service; the engine only reads them.
type Player struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	// DraftOrder is the player's position for the year the player was
	// loaded for. Zero when the player was fetched outside a year scope.
	DraftOrder int `json:"draft_order,omitempty"`
	Year       int `json:"year,omitempty"`
}

// FullName returns the player's display name.
func (p Player) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
