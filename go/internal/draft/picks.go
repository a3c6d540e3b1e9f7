package draft

import (
	"context"
	"fmt"
	"sort"

	"github.com/mcdev12/deadpool/go/internal/models"
)

// ListPicks returns every pick for the year joined with player and
// person details, newest first. Players with no picks yet appear once
// with empty person fields so the caller sees the full roster.
func (a *App) ListPicks(ctx context.Context, year int) ([]models.PickDetail, error) {
	players, err := a.repo.ListPlayers(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}

	picksByPlayer := make(map[string][]models.Pick, len(players))
	personIDs := make(map[string]struct{})
	for _, player := range players {
		picks, err := a.repo.ListPlayerPicks(ctx, player.ID, year)
		if err != nil {
			return nil, fmt.Errorf("failed to list picks for %s: %w", player.ID, err)
		}
		picksByPlayer[player.ID] = picks
		for _, pick := range picks {
			personIDs[pick.PersonID] = struct{}{}
		}
	}

	people, err := a.repo.BatchGetPeople(ctx, keysOf(personIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to batch get people: %w", err)
	}

	var details []models.PickDetail
	for _, player := range players {
		picks := picksByPlayer[player.ID]
		if len(picks) == 0 {
			details = append(details, models.PickDetail{
				PlayerID:   player.ID,
				PlayerName: player.FullName(),
				DraftOrder: player.DraftOrder,
				Year:       year,
			})
			continue
		}
		for _, pick := range picks {
			person, ok := people[pick.PersonID]
			if !ok {
				a.logger.Warn().Str("person_id", pick.PersonID).Msg("pick references missing person")
				continue
			}
			ts := pick.Timestamp
			details = append(details, models.PickDetail{
				PlayerID:        player.ID,
				PlayerName:      player.FullName(),
				DraftOrder:      player.DraftOrder,
				PersonID:        person.ID,
				PersonName:      person.Name,
				PersonAge:       person.Age,
				PersonBirthDate: person.BirthDate,
				PersonDeathDate: person.DeathDate,
				Timestamp:       &ts,
				Year:            year,
			})
		}
	}

	sort.SliceStable(details, func(i, j int) bool {
		ti, tj := details[i].Timestamp, details[j].Timestamp
		switch {
		case ti == nil && tj == nil:
			return details[i].DraftOrder < details[j].DraftOrder
		case ti == nil:
			return false
		case tj == nil:
			return true
		default:
			return ti.After(*tj)
		}
	})
	return details, nil
}
