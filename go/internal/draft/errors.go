package draft

import (
	"errors"
	"fmt"
)

// ErrCapacityExceeded is returned when a commit would push a player past
// the active-pick cap.
var ErrCapacityExceeded = errors.New("player has no available draft slots")

// ErrEmptyName is returned when the drafted name normalizes to nothing.
var ErrEmptyName = errors.New("person name is empty")

// AlreadyDraftedError reports that the person is held by another pick
// this year, naming the holder.
type AlreadyDraftedError struct {
	PersonID   string
	PersonName string
	Year       int
	HolderID   string
	HolderName string
}

func (e *AlreadyDraftedError) Error() string {
	if e.HolderName != "" {
		return fmt.Sprintf("%s already drafted for %d by %s", e.PersonName, e.Year, e.HolderName)
	}
	return fmt.Sprintf("%s already drafted for %d", e.PersonName, e.Year)
}
