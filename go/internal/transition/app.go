// Package transition performs the year-end rollover: it reconstructs
// the draft order from the outgoing leaderboard, carries forward still-
// living picks, and records per-player capacity. Every write is keyed
// and conditional on current state, never additive, so re-running a
// partially failed transition converges instead of duplicating.
package transition

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/mcdev12/deadpool/go/internal/events"
	"github.com/mcdev12/deadpool/go/internal/models"
	"github.com/mcdev12/deadpool/go/internal/repository"
	"github.com/mcdev12/deadpool/go/internal/scoring"
)

// TransitionRepository defines what the transition engine needs from
// the repository layer.
type TransitionRepository interface {
	ListPlayers(ctx context.Context, year int) ([]models.Player, error)
	ListDraftOrder(ctx context.Context, year int) ([]models.DraftOrderEntry, error)
	PutDraftOrderEntry(ctx context.Context, entry models.DraftOrderEntry) error
	ListPlayerPicks(ctx context.Context, playerID string, year int) ([]models.Pick, error)
	BatchGetPeople(ctx context.Context, personIDs []string) (map[string]models.Person, error)
	CreateClaim(ctx context.Context, pick models.Pick) error
	CreatePick(ctx context.Context, pick models.Pick) error
	PutDraftSlots(ctx context.Context, slots models.DraftSlots) error
	PutTransitionRecord(ctx context.Context, record models.TransitionRecord) error
}

// Scorer computes the outgoing year's standings.
type Scorer interface {
	ComputeLeaderboard(ctx context.Context, year int) ([]scoring.LeaderboardEntry, error)
}

// numWorkers bounds the per-player carry-forward fan-out. Players are
// independent; the store's conditional writes keep concurrent stages
// safe.
const numWorkers = 4

type App struct {
	repo      TransitionRepository
	scorer    Scorer
	publisher events.Publisher
	clock     clockwork.Clock
	logger    zerolog.Logger
}

func NewApp(repo TransitionRepository, scorer Scorer, publisher events.Publisher, clock clockwork.Clock, logger zerolog.Logger) *App {
	return &App{
		repo:      repo,
		scorer:    scorer,
		publisher: publisher,
		clock:     clock,
		logger:    logger.With().Str("component", "transition").Logger(),
	}
}

// Run executes the rollover stages in order. Per-player failures are
// collected and reported, not fatal; the run always reaches Finalize.
// The transition is not expected to run concurrently with live drafting
// for the same year pair; that is an operational precondition, not an
// enforced lock.
func (a *App) Run(ctx context.Context, req Request) (*Report, error) {
	if req.FromYear >= req.ToYear {
		return nil, fmt.Errorf("invalid year pair %d -> %d", req.FromYear, req.ToYear)
	}

	logger := a.logger.With().Int("from_year", req.FromYear).Int("to_year", req.ToYear).Bool("dry_run", req.DryRun).Logger()
	if req.Verbose {
		logger = logger.Level(zerolog.DebugLevel)
	}
	logger.Info().Msg("starting season transition")

	report := &Report{
		FromYear: req.FromYear,
		ToYear:   req.ToYear,
		DryRun:   req.DryRun,
		Strategy: models.TransitionStrategyActivePicksOnly,
	}

	leaderboard, err := a.scorer.ComputeLeaderboard(ctx, req.FromYear)
	if err != nil {
		return nil, fmt.Errorf("failed to compute outgoing leaderboard: %w", err)
	}
	if len(leaderboard) == 0 {
		return nil, fmt.Errorf("no players found for year %d", req.FromYear)
	}
	report.Leaderboard = leaderboard

	if err := a.buildDraftOrder(ctx, req, leaderboard, report, logger); err != nil {
		return nil, err
	}

	a.carryForward(ctx, req, leaderboard, report, logger)

	a.validate(ctx, req, report, logger)

	a.finalize(ctx, req, report, logger)

	logger.Info().
		Int("players_processed", report.PlayersProcessed).
		Int("active_picks_migrated", report.ActivePicksMigrated).
		Int("deceased_picks_skipped", report.DeceasedPicksSkipped).
		Int("error_count", report.ErrorCount).
		Str("status", report.Status).
		Msg("season transition finished")
	return report, nil
}

// buildDraftOrder inverts the outgoing standings: the lowest score
// drafts first, ties keep the players' prior draft positions.
func (a *App) buildDraftOrder(ctx context.Context, req Request, leaderboard []scoring.LeaderboardEntry, report *Report, logger zerolog.Logger) error {
	inverted := make([]scoring.LeaderboardEntry, len(leaderboard))
	copy(inverted, leaderboard)
	sort.SliceStable(inverted, func(i, j int) bool {
		if inverted[i].Score != inverted[j].Score {
			return inverted[i].Score < inverted[j].Score
		}
		return inverted[i].DraftOrder < inverted[j].DraftOrder
	})

	for i, entry := range inverted {
		orderEntry := models.DraftOrderEntry{
			Year:     req.ToYear,
			Position: i + 1,
			PlayerID: entry.PlayerID,
		}
		logger.Debug().Int("position", orderEntry.Position).Str("player_id", entry.PlayerID).
			Int("outgoing_score", entry.Score).Msg("assigning draft position")
		if !req.DryRun {
			if err := a.repo.PutDraftOrderEntry(ctx, orderEntry); err != nil {
				return fmt.Errorf("failed to write draft order position %d: %w", orderEntry.Position, err)
			}
		}
		report.DraftOrder = append(report.DraftOrder, orderEntry)
	}
	report.DraftOrdersCreated = len(report.DraftOrder)
	return nil
}

// carryForward partitions each player's outgoing picks and recreates the
// active ones in the new year. Players are processed by a small worker
// pool; one player's failure never blocks the rest.
func (a *App) carryForward(ctx context.Context, req Request, leaderboard []scoring.LeaderboardEntry, report *Report, logger zerolog.Logger) {
	seasonStart := time.Date(req.ToYear, 1, 1, 0, 0, 0, 0, time.UTC)

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		workCh  = make(chan scoring.LeaderboardEntry)
		results = make([]PlayerResult, 0, len(leaderboard))
	)

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range workCh {
				result := a.migratePlayer(ctx, req, entry, seasonStart, logger)
				mu.Lock()
				results = append(results, result)
				mu.Unlock()
			}
		}()
	}
	for _, entry := range leaderboard {
		workCh <- entry
	}
	close(workCh)
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].PlayerID < results[j].PlayerID })
	for _, result := range results {
		report.PlayersProcessed++
		report.ActivePicksMigrated += result.ActivePicks
		report.DeceasedPicksSkipped += len(result.SkippedPicks)
		if result.Error != "" {
			report.ErrorCount++
		}
	}
	report.Players = results
}

func (a *App) migratePlayer(ctx context.Context, req Request, entry scoring.LeaderboardEntry, seasonStart time.Time, logger zerolog.Logger) PlayerResult {
	result := PlayerResult{PlayerID: entry.PlayerID, PlayerName: entry.PlayerName}

	active, skipped, err := a.partitionPicks(ctx, entry.PlayerID, req.FromYear)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.SkippedPicks = skipped
	result.ActivePicks = len(active)
	result.AvailableSlots = models.MaxPicks - len(active)

	logger.Debug().Str("player_id", entry.PlayerID).
		Int("active", len(active)).Int("skipped", len(skipped)).
		Msg("partitioned outgoing picks")

	if req.DryRun {
		return result
	}

	for _, personID := range active {
		pick := models.Pick{
			PlayerID:  entry.PlayerID,
			PersonID:  personID,
			Year:      req.ToYear,
			Timestamp: seasonStart,
		}
		// Conflicts mean a previous run already wrote the row; reruns
		// converge instead of duplicating.
		if err := a.repo.CreateClaim(ctx, pick); err != nil && !errors.Is(err, repository.ErrConflict) {
			result.Error = fmt.Sprintf("failed to claim %s: %v", personID, err)
			return result
		}
		if err := a.repo.CreatePick(ctx, pick); err != nil && !errors.Is(err, repository.ErrConflict) {
			result.Error = fmt.Sprintf("failed to create pick %s: %v", personID, err)
			return result
		}
	}

	slots := models.DraftSlots{
		PlayerID:       entry.PlayerID,
		Year:           req.ToYear,
		MaxPicks:       models.MaxPicks,
		CurrentPicks:   len(active),
		AvailableSlots: models.MaxPicks - len(active),
		LastUpdated:    a.clock.Now().UTC(),
	}
	if err := a.repo.PutDraftSlots(ctx, slots); err != nil {
		result.Error = fmt.Sprintf("failed to record capacity: %v", err)
	}
	return result
}

// partitionPicks splits a player's outgoing picks into carried person
// IDs and skipped picks. A person is carried unless the recorded death
// falls inside the outgoing year.
func (a *App) partitionPicks(ctx context.Context, playerID string, fromYear int) ([]string, []SkippedPick, error) {
	picks, err := a.repo.ListPlayerPicks(ctx, playerID, fromYear)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list picks: %w", err)
	}
	ids := make([]string, len(picks))
	for i, pick := range picks {
		ids[i] = pick.PersonID
	}
	people, err := a.repo.BatchGetPeople(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to batch get people: %w", err)
	}

	var active []string
	var skipped []SkippedPick
	for _, pick := range picks {
		person, ok := people[pick.PersonID]
		if !ok {
			skipped = append(skipped, SkippedPick{PersonID: pick.PersonID, Reason: "person not found"})
			continue
		}
		if person.DiedIn(fromYear) {
			skipped = append(skipped, SkippedPick{
				PersonID:   person.ID,
				PersonName: person.Name,
				Reason:     fmt.Sprintf("died in %d (%s)", fromYear, person.DeathDate),
			})
			continue
		}
		active = append(active, pick.PersonID)
	}
	return active, skipped, nil
}

// validate asserts the post-transition invariants: carried pick counts
// match, and the new draft order is a full 1..N permutation over the
// processed players. Failures are reported, never rolled back.
func (a *App) validate(ctx context.Context, req Request, report *Report, logger zerolog.Logger) {
	expected := make(map[string]int, len(report.Players))
	for _, result := range report.Players {
		if result.Error != "" {
			continue
		}
		expected[result.PlayerID] = result.ActivePicks
	}

	if !req.DryRun {
		for playerID, want := range expected {
			picks, err := a.repo.ListPlayerPicks(ctx, playerID, req.ToYear)
			if err != nil {
				report.Validation = append(report.Validation, ValidationIssue{
					PlayerID: playerID,
					Message:  fmt.Sprintf("failed to verify picks: %v", err),
				})
				continue
			}
			if len(picks) != want {
				report.Validation = append(report.Validation, ValidationIssue{
					PlayerID: playerID,
					Message:  fmt.Sprintf("expected %d carried picks, found %d", want, len(picks)),
				})
			}
		}
	}

	order := report.DraftOrder
	if !req.DryRun {
		stored, err := a.repo.ListDraftOrder(ctx, req.ToYear)
		if err != nil {
			report.Validation = append(report.Validation, ValidationIssue{
				Message: fmt.Sprintf("failed to verify draft order: %v", err),
			})
		} else {
			order = stored
		}
	}

	positions := make(map[int]bool, len(order))
	players := make(map[string]bool, len(order))
	for _, entry := range order {
		if positions[entry.Position] {
			report.Validation = append(report.Validation, ValidationIssue{
				Message: fmt.Sprintf("duplicate draft position %d", entry.Position),
			})
		}
		positions[entry.Position] = true
		if players[entry.PlayerID] {
			report.Validation = append(report.Validation, ValidationIssue{
				PlayerID: entry.PlayerID,
				Message:  "player appears more than once in draft order",
			})
		}
		players[entry.PlayerID] = true
	}
	for position := 1; position <= len(report.Leaderboard); position++ {
		if !positions[position] {
			report.Validation = append(report.Validation, ValidationIssue{
				Message: fmt.Sprintf("draft position %d missing", position),
			})
		}
	}

	for _, issue := range report.Validation {
		logger.Warn().Str("player_id", issue.PlayerID).Msg("validation: " + issue.Message)
	}
}

// finalize stamps the report, writes the audit marker and announces the
// completed rollover.
func (a *App) finalize(ctx context.Context, req Request, report *Report, logger zerolog.Logger) {
	report.CompletedAt = a.clock.Now().UTC()
	report.Status = models.TransitionStatusCompleted
	if report.ErrorCount > 0 || len(report.Validation) > 0 {
		report.Status = models.TransitionStatusCompletedWithErrors
	}

	if req.DryRun {
		return
	}

	if err := a.repo.PutTransitionRecord(ctx, report.Record()); err != nil {
		logger.Error().Err(err).Msg("failed to write transition record")
		report.ErrorCount++
		report.Status = models.TransitionStatusCompletedWithErrors
	}

	payload := events.TransitionCompletedPayload{
		FromYear:             req.FromYear,
		ToYear:               req.ToYear,
		Status:               report.Status,
		PlayersProcessed:     report.PlayersProcessed,
		ActivePicksMigrated:  report.ActivePicksMigrated,
		DeceasedPicksSkipped: report.DeceasedPicksSkipped,
		ErrorCount:           report.ErrorCount,
		CompletedAt:          report.CompletedAt,
	}
	if err := a.publisher.Publish(ctx, events.TypeTransitionCompleted, payload); err != nil {
		logger.Warn().Err(err).Msg("failed to publish TransitionCompleted event")
	}
}
