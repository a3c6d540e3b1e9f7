// Package scoring computes point totals and year leaderboards from
// committed picks. Everything here is a pure function of stored state;
// callers may layer caching on top, correctness never needs it.
package scoring

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/mcdev12/deadpool/go/internal/models"
)

// ScoringRepository defines what the scoring engine needs from the
// repository layer.
type ScoringRepository interface {
	ListPlayers(ctx context.Context, year int) ([]models.Player, error)
	ListPlayerPicks(ctx context.Context, playerID string, year int) ([]models.Pick, error)
	BatchGetPeople(ctx context.Context, personIDs []string) (map[string]models.Person, error)
}

// LeaderboardEntry is one row of a year's standings.
type LeaderboardEntry struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	DraftOrder int    `json:"draft_order"`
	Score      int    `json:"score"`
	PickCount  int    `json:"pick_count"`
}

type App struct {
	repo   ScoringRepository
	logger zerolog.Logger
}

func NewApp(repo ScoringRepository, logger zerolog.Logger) *App {
	return &App{
		repo:   repo,
		logger: logger.With().Str("component", "scoring").Logger(),
	}
}

// PickScore is the value of a death at the given age.
func PickScore(age int) int {
	return 50 + (100 - age)
}

// ComputeScore sums a player's points for the year: each pick whose
// person died inside that same year scores 50 + (100 - age). Deaths in
// other years score nothing.
func (a *App) ComputeScore(ctx context.Context, playerID string, year int) (int, error) {
	picks, err := a.repo.ListPlayerPicks(ctx, playerID, year)
	if err != nil {
		return 0, fmt.Errorf("failed to list picks for %s: %w", playerID, err)
	}
	ids := make([]string, len(picks))
	for i, pick := range picks {
		ids[i] = pick.PersonID
	}
	people, err := a.repo.BatchGetPeople(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to batch get people: %w", err)
	}
	return scorePicks(picks, people, year), nil
}

// ComputeLeaderboard scores every participating player, sorted by score
// descending with ties broken by draft position ascending.
func (a *App) ComputeLeaderboard(ctx context.Context, year int) ([]LeaderboardEntry, error) {
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

	ids := make([]string, 0, len(personIDs))
	for id := range personIDs {
		ids = append(ids, id)
	}
	people, err := a.repo.BatchGetPeople(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to batch get people: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(players))
	for _, player := range players {
		picks := picksByPlayer[player.ID]
		entries = append(entries, LeaderboardEntry{
			PlayerID:   player.ID,
			PlayerName: player.FullName(),
			DraftOrder: player.DraftOrder,
			Score:      scorePicks(picks, people, year),
			PickCount:  len(picks),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].DraftOrder < entries[j].DraftOrder
	})
	return entries, nil
}

func scorePicks(picks []models.Pick, people map[string]models.Person, year int) int {
	total := 0
	for _, pick := range picks {
		person, ok := people[pick.PersonID]
		if !ok {
			continue
		}
		if person.DiedIn(year) {
			total += PickScore(person.Age)
		}
	}
	return total
}
