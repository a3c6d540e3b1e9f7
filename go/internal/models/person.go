package models

import (
	"strconv"
	"strings"
)

// PersonStatus is derived from the presence of a death date, never stored.
type PersonStatus string

const (
	PersonStatusActive   PersonStatus = "active"
	PersonStatusDeceased PersonStatus = "deceased"
)

// Person is a draftable celebrity. Created on demand by the draft engine
// when no existing person matches the drafted name; the death fields are
// maintained by an external recorder.
type Person struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	NormalizedName string `json:"normalized_name"`
	Age            int    `json:"age,omitempty"`
	BirthDate      string `json:"birth_date,omitempty"`
	// DeathDate is an ISO-8601 date string, empty while the person lives.
	DeathDate string `json:"death_date,omitempty"`
}

// Status derives the person's state from the death date.
func (p Person) Status() PersonStatus {
	if p.DeathDate != "" {
		return PersonStatusDeceased
	}
	return PersonStatusActive
}

// DiedIn reports whether the person's recorded death falls in year.
func (p Person) DiedIn(year int) bool {
	return p.DeathDate != "" && strings.HasPrefix(p.DeathDate, strconv.Itoa(year))
}
