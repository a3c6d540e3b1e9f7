package repository

import (
	"time"

	"github.com/mcdev12/deadpool/go/internal/models"
	"github.com/mcdev12/deadpool/go/internal/store"
)

// Attribute names follow the production table's casing.

func personToItem(p models.Person) store.Item {
	attrs := map[string]any{
		"Name":           p.Name,
		"NormalizedName": p.NormalizedName,
	}
	if p.Age != 0 {
		attrs["Age"] = p.Age
	}
	if p.BirthDate != "" {
		attrs["BirthDate"] = p.BirthDate
	}
	if p.DeathDate != "" {
		attrs["DeathDate"] = p.DeathDate
	}
	return store.Item{Key: personKey(p.ID), Attributes: attrs}
}

func personFromItem(personID string, attrs map[string]any) models.Person {
	return models.Person{
		ID:             personID,
		Name:           attrString(attrs, "Name"),
		NormalizedName: attrString(attrs, "NormalizedName"),
		Age:            attrInt(attrs, "Age"),
		BirthDate:      attrString(attrs, "BirthDate"),
		DeathDate:      attrString(attrs, "DeathDate"),
	}
}

func playerFromItem(playerID string, attrs map[string]any) models.Player {
	return models.Player{
		ID:        playerID,
		FirstName: attrString(attrs, "FirstName"),
		LastName:  attrString(attrs, "LastName"),
	}
}

func pickToItem(p models.Pick) store.Item {
	return store.Item{
		Key: pickKey(p.PlayerID, p.Year, p.PersonID),
		Attributes: map[string]any{
			"Year":      p.Year,
			"PersonID":  p.PersonID,
			"Timestamp": p.Timestamp.UTC().Format(time.RFC3339),
		},
	}
}

func claimToItem(p models.Pick) store.Item {
	return store.Item{
		Key: claimKey(p.Year, p.PersonID),
		Attributes: map[string]any{
			"Type":      "PickClaim",
			"Year":      p.Year,
			"PlayerID":  p.PlayerID,
			"PersonID":  p.PersonID,
			"Timestamp": p.Timestamp.UTC().Format(time.RFC3339),
		},
	}
}

func orderToItem(e models.DraftOrderEntry) store.Item {
	return store.Item{
		Key: orderKey(e.Year, e.Position, e.PlayerID),
		Attributes: map[string]any{
			"Type":       "DraftOrder",
			"Year":       e.Year,
			"DraftOrder": e.Position,
			"PlayerID":   e.PlayerID,
		},
	}
}

func slotsToItem(s models.DraftSlots) store.Item {
	return store.Item{
		Key: slotsKey(s.PlayerID, s.Year),
		Attributes: map[string]any{
			"Type":           "DraftSlots",
			"Year":           s.Year,
			"MaxPicks":       s.MaxPicks,
			"CurrentPicks":   s.CurrentPicks,
			"AvailableSlots": s.AvailableSlots,
			"LastUpdated":    s.LastUpdated.UTC().Format(time.RFC3339),
		},
	}
}

func slotsFromItem(playerID string, attrs map[string]any) models.DraftSlots {
	return models.DraftSlots{
		PlayerID:       playerID,
		Year:           attrInt(attrs, "Year"),
		MaxPicks:       attrInt(attrs, "MaxPicks"),
		CurrentPicks:   attrInt(attrs, "CurrentPicks"),
		AvailableSlots: attrInt(attrs, "AvailableSlots"),
		LastUpdated:    attrTime(attrs, "LastUpdated"),
	}
}

func transitionToItem(r models.TransitionRecord) store.Item {
	return store.Item{
		Key: transitionKey(r.FromYear, r.ToYear),
		Attributes: map[string]any{
			"Type":                 "MigrationMetadata",
			"FromYear":             r.FromYear,
			"ToYear":               r.ToYear,
			"Strategy":             r.Strategy,
			"PlayersProcessed":     r.PlayersProcessed,
			"ActivePicksMigrated":  r.ActivePicksMigrated,
			"DeceasedPicksSkipped": r.DeceasedPicksSkipped,
			"DraftOrdersCreated":   r.DraftOrdersCreated,
			"ErrorCount":           r.ErrorCount,
			"Status":               r.Status,
			"MigrationDate":        r.CompletedAt.UTC().Format(time.RFC3339),
		},
	}
}

func transitionFromItem(fromYear, toYear int, attrs map[string]any) models.TransitionRecord {
	return models.TransitionRecord{
		FromYear:             fromYear,
		ToYear:               toYear,
		Strategy:             attrString(attrs, "Strategy"),
		PlayersProcessed:     attrInt(attrs, "PlayersProcessed"),
		ActivePicksMigrated:  attrInt(attrs, "ActivePicksMigrated"),
		DeceasedPicksSkipped: attrInt(attrs, "DeceasedPicksSkipped"),
		DraftOrdersCreated:   attrInt(attrs, "DraftOrdersCreated"),
		ErrorCount:           attrInt(attrs, "ErrorCount"),
		Status:               attrString(attrs, "Status"),
		CompletedAt:          attrTime(attrs, "MigrationDate"),
	}
}

func attrString(attrs map[string]any, name string) string {
	if v, ok := attrs[name].(string); ok {
		return v
	}
	return ""
}

// attrInt tolerates the numeric types the different store backends hand
// back: Go ints from memstore, float64 from the JSON and DynamoDB codecs.
func attrInt(attrs map[string]any, name string) int {
	switch v := attrs[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func attrTime(attrs map[string]any, name string) time.Time {
	t, err := time.Parse(time.RFC3339, attrString(attrs, name))
	if err != nil {
		return time.Time{}
	}
	return t
}
