// Package draft decides who picks next and commits picks exactly once
// under concurrent requests. Commit correctness rests on two conditional
// writes: the per-name claim that deduplicates person creation and the
// (year, person) claim that enforces global pick uniqueness.
package draft

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/mcdev12/deadpool/go/internal/events"
	"github.com/mcdev12/deadpool/go/internal/models"
	"github.com/mcdev12/deadpool/go/internal/names"
	"github.com/mcdev12/deadpool/go/internal/repository"
)

// DraftRepository defines what the draft engine needs from the
// repository layer.
type DraftRepository interface {
	GetPlayer(ctx context.Context, playerID string) (*models.Player, error)
	ListPlayers(ctx context.Context, year int) ([]models.Player, error)
	ListPlayerPicks(ctx context.Context, playerID string, year int) ([]models.Pick, error)
	GetPerson(ctx context.Context, personID string) (*models.Person, error)
	BatchGetPeople(ctx context.Context, personIDs []string) (map[string]models.Person, error)
	ScanPeople(ctx context.Context, prefix string) ([]repository.PersonRef, error)
	CreatePersonIfAbsent(ctx context.Context, person models.Person) (*models.Person, bool, error)
	CreateClaim(ctx context.Context, pick models.Pick) error
	GetClaim(ctx context.Context, year int, personID string) (*models.Pick, error)
	CreatePick(ctx context.Context, pick models.Pick) error
	DeleteClaim(ctx context.Context, year int, personID string) error
	DeletePick(ctx context.Context, playerID string, year int, personID string) error
	PutDraftSlots(ctx context.Context, slots models.DraftSlots) error
}

// App handles draft business logic.
type App struct {
	repo      DraftRepository
	matcher   *names.Matcher
	publisher events.Publisher
	clock     clockwork.Clock
	logger    zerolog.Logger
}

func NewApp(repo DraftRepository, matcher *names.Matcher, publisher events.Publisher, clock clockwork.Clock, logger zerolog.Logger) *App {
	return &App{
		repo:      repo,
		matcher:   matcher,
		publisher: publisher,
		clock:     clock,
		logger:    logger.With().Str("component", "draft").Logger(),
	}
}

// NextDrafter selects the next eligible drafter for the year: among
// players with fewer than MaxPicks active picks, the one with the fewest
// total picks, ties broken by draft position. Returns nil when nobody is
// eligible, which means the season's draft phase is complete.
//
// The answer is advisory; only CommitDraft enforces the hard invariants,
// so a stale-by-one-pick result under concurrent drafting is fine.
func (a *App) NextDrafter(ctx context.Context, year int) (*NextDrafter, error) {
	players, err := a.repo.ListPlayers(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	if len(players) == 0 {
		return nil, nil
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

	var eligible []NextDrafter
	for _, player := range players {
		picks := picksByPlayer[player.ID]
		active := countActive(picks, people)
		if active >= models.MaxPicks {
			continue
		}
		eligible = append(eligible, NextDrafter{
			PlayerID:        player.ID,
			PlayerName:      player.FullName(),
			DraftOrder:      player.DraftOrder,
			PickCount:       len(picks),
			ActivePickCount: active,
		})
	}
	if len(eligible) == 0 {
		return nil, nil
	}

	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].PickCount != eligible[j].PickCount {
			return eligible[i].PickCount < eligible[j].PickCount
		}
		return eligible[i].DraftOrder < eligible[j].DraftOrder
	})
	return &eligible[0], nil
}

// FindPerson returns the best-matching existing person for a name, or
// nil when nothing clears the similarity threshold. The scan is bounded
// to the normalized name's first-character bucket.
func (a *App) FindPerson(ctx context.Context, name string) (*PersonMatch, error) {
	normalized := a.matcher.Normalize(name)
	if normalized == "" {
		return nil, ErrEmptyName
	}

	refs, err := a.repo.ScanPeople(ctx, normalized[:1])
	if err != nil {
		return nil, fmt.Errorf("failed to scan people: %w", err)
	}

	var best *PersonMatch
	for _, ref := range refs {
		result := a.matcher.Match(name, ref.Name)
		if !result.Match {
			continue
		}
		if best == nil || result.Similarity > best.Similarity {
			best = &PersonMatch{PersonID: ref.ID, Name: ref.Name, Similarity: result.Similarity}
		}
		if result.ExactMatch {
			break
		}
	}
	return best, nil
}

// CommitDraft records a pick exactly once. Steps: resolve the player,
// resolve or create the person, pre-check capacity, claim the
// (year, person) uniqueness row, write the per-player pick, re-verify
// capacity, refresh the slots record. Any failure after the claim
// compensates by deleting the rows written so far, so no partial state
// survives.
func (a *App) CommitDraft(ctx context.Context, req CommitDraftRequest) (*DraftResult, error) {
	player, err := a.repo.GetPlayer(ctx, req.PlayerID)
	if err != nil {
		return nil, err
	}

	person, wasNew, err := a.resolvePerson(ctx, req.PersonName)
	if err != nil {
		return nil, err
	}

	picks, people, err := a.loadPickState(ctx, req.PlayerID, req.Year)
	if err != nil {
		return nil, err
	}
	if countActive(picks, people) >= models.MaxPicks {
		return nil, fmt.Errorf("player %s in %d: %w", req.PlayerID, req.Year, ErrCapacityExceeded)
	}

	pick := models.Pick{
		PlayerID:  req.PlayerID,
		PersonID:  person.ID,
		Year:      req.Year,
		Timestamp: a.clock.Now().UTC(),
	}

	if err := a.repo.CreateClaim(ctx, pick); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, a.alreadyDrafted(ctx, person, req.Year)
		}
		return nil, err
	}

	if err := a.repo.CreatePick(ctx, pick); err != nil {
		a.compensate(ctx, pick, false)
		if errors.Is(err, repository.ErrConflict) {
			return nil, a.alreadyDrafted(ctx, person, req.Year)
		}
		return nil, err
	}

	// Re-verify capacity now that the pick is visible: two commits from
	// the same player can both pass the pre-check.
	picks, people, err = a.loadPickState(ctx, req.PlayerID, req.Year)
	if err != nil {
		a.compensate(ctx, pick, true)
		return nil, err
	}
	active := countActive(picks, people)
	if active > models.MaxPicks {
		a.compensate(ctx, pick, true)
		return nil, fmt.Errorf("player %s in %d: %w", req.PlayerID, req.Year, ErrCapacityExceeded)
	}

	slots := models.DraftSlots{
		PlayerID:       req.PlayerID,
		Year:           req.Year,
		MaxPicks:       models.MaxPicks,
		CurrentPicks:   active,
		AvailableSlots: models.MaxPicks - active,
		LastUpdated:    pick.Timestamp,
	}
	if err := a.repo.PutDraftSlots(ctx, slots); err != nil {
		a.compensate(ctx, pick, true)
		return nil, err
	}

	a.logger.Info().
		Str("player_id", req.PlayerID).
		Str("person_id", person.ID).
		Int("year", req.Year).
		Bool("was_new_person", wasNew).
		Int("available_slots", slots.AvailableSlots).
		Msg("draft pick committed")

	a.emitPickCommitted(ctx, player, person, req.Year, wasNew, pick)

	return &DraftResult{
		PersonID:       person.ID,
		PersonName:     person.Name,
		WasNewPerson:   wasNew,
		Timestamp:      pick.Timestamp,
		AvailableSlots: slots.AvailableSlots,
	}, nil
}

// resolvePerson reuses the best-matching existing person or creates a
// new record through the per-name conditional claim.
func (a *App) resolvePerson(ctx context.Context, name string) (*models.Person, bool, error) {
	match, err := a.FindPerson(ctx, name)
	if err != nil {
		return nil, false, err
	}
	if match != nil {
		person, err := a.repo.GetPerson(ctx, match.PersonID)
		if err != nil {
			return nil, false, err
		}
		return person, false, nil
	}

	candidate := models.Person{
		ID:             uuid.New().String(),
		Name:           name,
		NormalizedName: a.matcher.Normalize(name),
	}
	person, created, err := a.repo.CreatePersonIfAbsent(ctx, candidate)
	if err != nil {
		return nil, false, err
	}
	return person, created, nil
}

func (a *App) loadPickState(ctx context.Context, playerID string, year int) ([]models.Pick, map[string]models.Person, error) {
	picks, err := a.repo.ListPlayerPicks(ctx, playerID, year)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list picks for %s: %w", playerID, err)
	}
	ids := make([]string, len(picks))
	for i, pick := range picks {
		ids[i] = pick.PersonID
	}
	people, err := a.repo.BatchGetPeople(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to batch get people: %w", err)
	}
	return picks, people, nil
}

// compensate undoes a partially applied commit. Failures here are logged
// and swallowed: the leftover rows are keyed, so a later identical
// commit or an offline reconciliation converges on them.
func (a *App) compensate(ctx context.Context, pick models.Pick, pickWritten bool) {
	if pickWritten {
		if err := a.repo.DeletePick(ctx, pick.PlayerID, pick.Year, pick.PersonID); err != nil {
			a.logger.Error().Err(err).Str("player_id", pick.PlayerID).Str("person_id", pick.PersonID).
				Msg("failed to compensate pick row")
		}
	}
	if err := a.repo.DeleteClaim(ctx, pick.Year, pick.PersonID); err != nil {
		a.logger.Error().Err(err).Str("person_id", pick.PersonID).Int("year", pick.Year).
			Msg("failed to compensate pick claim")
	}
}

func (a *App) alreadyDrafted(ctx context.Context, person *models.Person, year int) error {
	already := &AlreadyDraftedError{
		PersonID:   person.ID,
		PersonName: person.Name,
		Year:       year,
	}
	claim, err := a.repo.GetClaim(ctx, year, person.ID)
	if err != nil {
		a.logger.Warn().Err(err).Str("person_id", person.ID).Msg("failed to resolve claim holder")
		return already
	}
	already.HolderID = claim.PlayerID
	if holder, err := a.repo.GetPlayer(ctx, claim.PlayerID); err == nil {
		already.HolderName = holder.FullName()
	}
	return already
}

func (a *App) emitPickCommitted(ctx context.Context, player *models.Player, person *models.Person, year int, wasNew bool, pick models.Pick) {
	payload := events.PickCommittedPayload{
		PlayerID:     player.ID,
		PlayerName:   player.FullName(),
		PersonID:     person.ID,
		PersonName:   person.Name,
		Year:         year,
		WasNewPerson: wasNew,
		CommittedAt:  pick.Timestamp,
	}
	if err := a.publisher.Publish(ctx, events.TypePickCommitted, payload); err != nil {
		a.logger.Warn().Err(err).Str("person_id", person.ID).Msg("failed to publish PickCommitted event")
	}
}

// countActive counts picks whose person has no recorded death. A missing
// person record counts as active rather than silently freeing capacity.
func countActive(picks []models.Pick, people map[string]models.Person) int {
	active := 0
	for _, pick := range picks {
		person, ok := people[pick.PersonID]
		if !ok || person.DeathDate == "" {
			active++
		}
	}
	return active
}

func keysOf(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
