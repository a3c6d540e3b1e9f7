// Package repository maps the domain entities onto the entity store's
// key space. It is the only component that talks to the store; engines
// above it never see partition or sort keys.
package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mcdev12/deadpool/go/internal/models"
	"github.com/mcdev12/deadpool/go/internal/store"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")
	// ErrConflict is returned when a conditional create lost the race.
	ErrConflict = errors.New("conflicting write")
)

const (
	defaultMaxRetries = 3
	defaultRetryBase  = 100 * time.Millisecond
)

// PersonRef is a row of the normalized-name index, enough for the
// matcher to scan without fetching full person records.
type PersonRef struct {
	ID             string
	Name           string
	NormalizedName string
}

type Repository struct {
	store      store.Store
	logger     zerolog.Logger
	maxRetries int
	retryBase  time.Duration
}

func New(s store.Store, logger zerolog.Logger) *Repository {
	return &Repository{
		store:      s,
		logger:     logger.With().Str("component", "repository").Logger(),
		maxRetries: defaultMaxRetries,
		retryBase:  defaultRetryBase,
	}
}

// withRetry re-runs fn on transient store errors with doubling backoff.
// Definitive outcomes (not found, lost conditional writes) pass through
// untouched.
func (r *Repository) withRetry(ctx context.Context, op string, fn func() error) error {
	delay := r.retryBase
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, store.ErrTransient) || attempt == r.maxRetries {
			return err
		}
		r.logger.Warn().Err(err).Str("op", op).Int("attempt", attempt+1).Msg("retrying transient store error")
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// GetPlayer loads a player's profile row.
func (r *Repository) GetPlayer(ctx context.Context, playerID string) (*models.Player, error) {
	var item *store.Item
	err := r.withRetry(ctx, "get player", func() error {
		var err error
		item, err = r.store.Get(ctx, playerKey(playerID))
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("player %s: %w", playerID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	player := playerFromItem(playerID, item.Attributes)
	return &player, nil
}

// ListDraftOrder returns the year's draft order sorted by position.
func (r *Repository) ListDraftOrder(ctx context.Context, year int) ([]models.DraftOrderEntry, error) {
	var items []store.Item
	err := r.withRetry(ctx, "list draft order", func() error {
		var err error
		items, err = r.store.QueryPrefix(ctx, yearPartition(year), "ORDER#")
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list draft order: %w", err)
	}

	entries := make([]models.DraftOrderEntry, 0, len(items))
	for _, item := range items {
		position, playerID, err := parseOrderSK(item.SK)
		if err != nil {
			return nil, err
		}
		entries = append(entries, models.DraftOrderEntry{
			Year:     year,
			Position: position,
			PlayerID: playerID,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Position < entries[j].Position })
	return entries, nil
}

// PutDraftOrderEntry overwrites a single (year, position) order row.
// Overwrite keeps season-transition reruns idempotent.
func (r *Repository) PutDraftOrderEntry(ctx context.Context, entry models.DraftOrderEntry) error {
	err := r.withRetry(ctx, "put draft order entry", func() error {
		return r.store.Put(ctx, orderToItem(entry))
	})
	if err != nil {
		return fmt.Errorf("failed to put draft order entry: %w", err)
	}
	return nil
}

// ListPlayers resolves the year's draft order into full player records,
// sorted by draft position.
func (r *Repository) ListPlayers(ctx context.Context, year int) ([]models.Player, error) {
	entries, err := r.ListDraftOrder(ctx, year)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	keys := make([]store.Key, len(entries))
	for i, entry := range entries {
		keys[i] = playerKey(entry.PlayerID)
	}

	var items []store.Item
	err = r.withRetry(ctx, "batch get players", func() error {
		var err error
		items, err = r.store.BatchGet(ctx, keys)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to batch get players: %w", err)
	}

	details := make(map[string]map[string]any, len(items))
	for _, item := range items {
		details[strings.TrimPrefix(item.PK, "PLAYER#")] = item.Attributes
	}

	players := make([]models.Player, 0, len(entries))
	for _, entry := range entries {
		attrs, ok := details[entry.PlayerID]
		if !ok {
			r.logger.Warn().Str("player_id", entry.PlayerID).Int("year", year).
				Msg("draft order references missing player details")
			continue
		}
		player := playerFromItem(entry.PlayerID, attrs)
		player.DraftOrder = entry.Position
		player.Year = year
		players = append(players, player)
	}
	return players, nil
}

// GetPerson loads a person's detail row.
func (r *Repository) GetPerson(ctx context.Context, personID string) (*models.Person, error) {
	var item *store.Item
	err := r.withRetry(ctx, "get person", func() error {
		var err error
		item, err = r.store.Get(ctx, personKey(personID))
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("person %s: %w", personID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	person := personFromItem(personID, item.Attributes)
	return &person, nil
}

// BatchGetPeople loads person records by ID, keyed by ID in the result.
// Missing IDs are simply absent from the map.
func (r *Repository) BatchGetPeople(ctx context.Context, personIDs []string) (map[string]models.Person, error) {
	if len(personIDs) == 0 {
		return map[string]models.Person{}, nil
	}
	keys := make([]store.Key, len(personIDs))
	for i, id := range personIDs {
		keys[i] = personKey(id)
	}

	var items []store.Item
	err := r.withRetry(ctx, "batch get people", func() error {
		var err error
		items, err = r.store.BatchGet(ctx, keys)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to batch get people: %w", err)
	}

	people := make(map[string]models.Person, len(items))
	for _, item := range items {
		id := strings.TrimPrefix(item.PK, "PERSON#")
		people[id] = personFromItem(id, item.Attributes)
	}
	return people, nil
}

// ScanPeople returns name-index rows whose normalized name starts with
// prefix. An empty prefix scans the whole index; the draft engine passes
// the first character of the drafted name to bound the matcher's work.
func (r *Repository) ScanPeople(ctx context.Context, prefix string) ([]PersonRef, error) {
	var items []store.Item
	err := r.withRetry(ctx, "scan people", func() error {
		var err error
		items, err = r.store.QueryPrefix(ctx, peoplePartition, "NAME#"+prefix)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan people: %w", err)
	}

	refs := make([]PersonRef, 0, len(items))
	for _, item := range items {
		id, err := parsePersonIndexSK(item.SK)
		if err != nil {
			return nil, err
		}
		refs = append(refs, PersonRef{
			ID:             id,
			Name:           attrString(item.Attributes, "Name"),
			NormalizedName: attrString(item.Attributes, "NormalizedName"),
		})
	}
	return refs, nil
}

// CreatePersonIfAbsent resolves the person for a normalized name through
// a single conditional write on the per-name claim key. Concurrent
// creators of the same name converge on one record; the loser reads the
// winner's ID back. Returns the resolved person and whether this call
// created it.
func (r *Repository) CreatePersonIfAbsent(ctx context.Context, person models.Person) (*models.Person, bool, error) {
	claim := store.Item{
		Key:        nameClaimKey(person.NormalizedName),
		Attributes: map[string]any{"PersonID": person.ID},
	}

	err := r.withRetry(ctx, "claim person name", func() error {
		return r.store.PutIfAbsent(ctx, claim)
	})
	switch {
	case err == nil:
		// Claim won: write details and the name-index row. Both are
		// keyed deterministic overwrites, so a crash between the claim
		// and these writes heals on the next call.
		if err := r.putPersonRows(ctx, person); err != nil {
			return nil, false, err
		}
		return &person, true, nil

	case errors.Is(err, store.ErrConditionFailed):
		var existing *store.Item
		err := r.withRetry(ctx, "read person name claim", func() error {
			var err error
			existing, err = r.store.Get(ctx, nameClaimKey(person.NormalizedName))
			return err
		})
		if err != nil {
			return nil, false, fmt.Errorf("failed to read person name claim: %w", err)
		}
		existingID := attrString(existing.Attributes, "PersonID")

		resolved, err := r.GetPerson(ctx, existingID)
		if errors.Is(err, ErrNotFound) {
			// The claim holder crashed before writing details; finish
			// its work under the claimed ID.
			person.ID = existingID
			if err := r.putPersonRows(ctx, person); err != nil {
				return nil, false, err
			}
			return &person, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		return resolved, false, nil

	default:
		return nil, false, fmt.Errorf("failed to claim person name: %w", err)
	}
}

func (r *Repository) putPersonRows(ctx context.Context, person models.Person) error {
	err := r.withRetry(ctx, "put person details", func() error {
		return r.store.Put(ctx, personToItem(person))
	})
	if err != nil {
		return fmt.Errorf("failed to put person details: %w", err)
	}

	index := store.Item{
		Key: personIndexKey(person.NormalizedName, person.ID),
		Attributes: map[string]any{
			"PersonID":       person.ID,
			"Name":           person.Name,
			"NormalizedName": person.NormalizedName,
		},
	}
	err = r.withRetry(ctx, "put person index", func() error {
		return r.store.Put(ctx, index)
	})
	if err != nil {
		return fmt.Errorf("failed to put person index: %w", err)
	}
	return nil
}

// ListPlayerPicks returns a player's picks for a year.
func (r *Repository) ListPlayerPicks(ctx context.Context, playerID string, year int) ([]models.Pick, error) {
	var items []store.Item
	err := r.withRetry(ctx, "list player picks", func() error {
		var err error
		items, err = r.store.QueryPrefix(ctx, "PLAYER#"+playerID, pickPrefix(year))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list player picks: %w", err)
	}

	picks := make([]models.Pick, 0, len(items))
	for _, item := range items {
		pickYear, personID, err := parsePickSK(item.SK)
		if err != nil {
			return nil, err
		}
		picks = append(picks, models.Pick{
			PlayerID:  playerID,
			PersonID:  personID,
			Year:      pickYear,
			Timestamp: attrTime(item.Attributes, "Timestamp"),
		})
	}
	return picks, nil
}

// CreateClaim writes the global (year, person) uniqueness row. Returns
// ErrConflict when any player already holds the person that year.
func (r *Repository) CreateClaim(ctx context.Context, pick models.Pick) error {
	err := r.withRetry(ctx, "create pick claim", func() error {
		return r.store.PutIfAbsent(ctx, claimToItem(pick))
	})
	if errors.Is(err, store.ErrConditionFailed) {
		return fmt.Errorf("person %s already claimed for %d: %w", pick.PersonID, pick.Year, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to create pick claim: %w", err)
	}
	return nil
}

// GetClaim returns the pick holding the (year, person) claim.
func (r *Repository) GetClaim(ctx context.Context, year int, personID string) (*models.Pick, error) {
	var item *store.Item
	err := r.withRetry(ctx, "get pick claim", func() error {
		var err error
		item, err = r.store.Get(ctx, claimKey(year, personID))
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("claim %d/%s: %w", year, personID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pick claim: %w", err)
	}
	return &models.Pick{
		PlayerID:  attrString(item.Attributes, "PlayerID"),
		PersonID:  personID,
		Year:      year,
		Timestamp: attrTime(item.Attributes, "Timestamp"),
	}, nil
}

// CreatePick writes the per-player pick row. Returns ErrConflict when
// the player already holds this pick (an idempotent rerun).
func (r *Repository) CreatePick(ctx context.Context, pick models.Pick) error {
	err := r.withRetry(ctx, "create pick", func() error {
		return r.store.PutIfAbsent(ctx, pickToItem(pick))
	})
	if errors.Is(err, store.ErrConditionFailed) {
		return fmt.Errorf("pick %s/%d/%s: %w", pick.PlayerID, pick.Year, pick.PersonID, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to create pick: %w", err)
	}
	return nil
}

// DeleteClaim removes a uniqueness row. Compensation path only.
func (r *Repository) DeleteClaim(ctx context.Context, year int, personID string) error {
	err := r.withRetry(ctx, "delete pick claim", func() error {
		return r.store.Delete(ctx, claimKey(year, personID))
	})
	if err != nil {
		return fmt.Errorf("failed to delete pick claim: %w", err)
	}
	return nil
}

// DeletePick removes a per-player pick row. Compensation path only.
func (r *Repository) DeletePick(ctx context.Context, playerID string, year int, personID string) error {
	err := r.withRetry(ctx, "delete pick", func() error {
		return r.store.Delete(ctx, pickKey(playerID, year, personID))
	})
	if err != nil {
		return fmt.Errorf("failed to delete pick: %w", err)
	}
	return nil
}

// GetDraftSlots loads a player's capacity record for a year.
func (r *Repository) GetDraftSlots(ctx context.Context, playerID string, year int) (*models.DraftSlots, error) {
	var item *store.Item
	err := r.withRetry(ctx, "get draft slots", func() error {
		var err error
		item, err = r.store.Get(ctx, slotsKey(playerID, year))
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("draft slots %s/%d: %w", playerID, year, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft slots: %w", err)
	}
	slots := slotsFromItem(playerID, item.Attributes)
	slots.Year = year
	return &slots, nil
}

// PutDraftSlots overwrites a player's capacity record. The record is
// derived from pick state, so overwrite is always safe.
func (r *Repository) PutDraftSlots(ctx context.Context, slots models.DraftSlots) error {
	err := r.withRetry(ctx, "put draft slots", func() error {
		return r.store.Put(ctx, slotsToItem(slots))
	})
	if err != nil {
		return fmt.Errorf("failed to put draft slots: %w", err)
	}
	return nil
}

// GetTransitionRecord loads the rollover audit marker for a year pair.
func (r *Repository) GetTransitionRecord(ctx context.Context, fromYear, toYear int) (*models.TransitionRecord, error) {
	var item *store.Item
	err := r.withRetry(ctx, "get transition record", func() error {
		var err error
		item, err = r.store.Get(ctx, transitionKey(fromYear, toYear))
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("transition %d->%d: %w", fromYear, toYear, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transition record: %w", err)
	}
	record := transitionFromItem(fromYear, toYear, item.Attributes)
	return &record, nil
}

// PutTransitionRecord overwrites the rollover audit marker.
func (r *Repository) PutTransitionRecord(ctx context.Context, record models.TransitionRecord) error {
	err := r.withRetry(ctx, "put transition record", func() error {
		return r.store.Put(ctx, transitionToItem(record))
	})
	if err != nil {
		return fmt.Errorf("failed to put transition record: %w", err)
	}
	return nil
}
