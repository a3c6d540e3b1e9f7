package transition

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/deadpool/go/internal/events"
	"github.com/mcdev12/deadpool/go/internal/models"
	"github.com/mcdev12/deadpool/go/internal/repository"
	"github.com/mcdev12/deadpool/go/internal/scoring"
	"github.com/mcdev12/deadpool/go/internal/store/memstore"
	"github.com/mcdev12/deadpool/go/internal/testutil"
)

func newTestApp(t *testing.T) (*App, *repository.Repository, *memstore.MemStore) {
	t.Helper()
	repo, ms := testutil.NewRepo(t)
	scorer := scoring.NewApp(repo, zerolog.Nop())
	app := NewApp(repo, scorer, events.NopPublisher{}, clockwork.NewFakeClockAt(testutil.FrozenTime), zerolog.Nop())
	return app, repo, ms
}

// seedSeason sets up two players in 2025: p1 holds three picks of which
// one died in-year (scoring 80), p2 holds two living picks.
func seedSeason(t *testing.T, repo *repository.Repository) {
	t.Helper()
	testutil.SeedPlayer(t, repo, "p1", "Ada", "Lovelace", 2025, 1)
	testutil.SeedPlayer(t, repo, "p2", "Grace", "Hopper", 2025, 2)

	deceased := testutil.SeedPerson(t, repo, models.Person{
		ID: "celeb-dead", Name: "Scored Celebrity", Age: 70, DeathDate: "2025-06-01",
	})
	a := testutil.SeedPerson(t, repo, models.Person{ID: "celeb-a", Name: "Alive A", Age: 50})
	b := testutil.SeedPerson(t, repo, models.Person{ID: "celeb-b", Name: "Alive B", Age: 60})
	c := testutil.SeedPerson(t, repo, models.Person{ID: "celeb-c", Name: "Alive C", Age: 40})
	d := testutil.SeedPerson(t, repo, models.Person{ID: "celeb-d", Name: "Alive D", Age: 30})

	for _, person := range []models.Person{deceased, a, b} {
		testutil.SeedPick(t, repo, "p1", person.ID, 2025, testutil.FrozenTime)
	}
	for _, person := range []models.Person{c, d} {
		testutil.SeedPick(t, repo, "p2", person.ID, 2025, testutil.FrozenTime)
	}
}

func TestRunRejectsInvalidYearPair(t *testing.T) {
	app, _, _ := newTestApp(t)

	_, err := app.Run(context.Background(), Request{FromYear: 2026, ToYear: 2025})
	assert.Error(t, err)

	_, err = app.Run(context.Background(), Request{FromYear: 2025, ToYear: 2025})
	assert.Error(t, err)
}

func TestRunFailsWithoutPlayers(t *testing.T) {
	app, _, _ := newTestApp(t)

	_, err := app.Run(context.Background(), Request{FromYear: 2025, ToYear: 2026})
	assert.ErrorContains(t, err, "no players")
}

func TestRunCarriesActivePicksAndInvertsOrder(t *testing.T) {
	app, repo, _ := newTestApp(t)
	ctx := context.Background()
	seedSeason(t, repo)

	report, err := app.Run(ctx, Request{FromYear: 2025, ToYear: 2026})
	require.NoError(t, err)

	assert.Equal(t, models.TransitionStatusCompleted, report.Status)
	assert.Empty(t, report.Validation)
	assert.Equal(t, 2, report.PlayersProcessed)
	assert.Equal(t, 4, report.ActivePicksMigrated)
	assert.Equal(t, 1, report.DeceasedPicksSkipped)
	assert.Equal(t, 2, report.DraftOrdersCreated)

	// p1 scored 80, p2 scored 0; lowest score drafts first next year.
	order, err := repo.ListDraftOrder(ctx, 2026)
	require.NoError(t, err)
	require.Len(t, order, 2)
	assert.Equal(t, "p2", order[0].PlayerID)
	assert.Equal(t, 1, order[0].Position)
	assert.Equal(t, "p1", order[1].PlayerID)
	assert.Equal(t, 2, order[1].Position)

	// The deceased pick stays behind; survivors carry with the season
	// start timestamp.
	picks, err := repo.ListPlayerPicks(ctx, "p1", 2026)
	require.NoError(t, err)
	require.Len(t, picks, 2)
	seasonStart := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, pick := range picks {
		assert.NotEqual(t, "celeb-dead", pick.PersonID)
		assert.Equal(t, seasonStart, pick.Timestamp)
	}

	require.Len(t, report.Players, 2)
	p1Result := report.Players[0]
	assert.Equal(t, "p1", p1Result.PlayerID)
	assert.Equal(t, 2, p1Result.ActivePicks)
	require.Len(t, p1Result.SkippedPicks, 1)
	assert.Equal(t, "celeb-dead", p1Result.SkippedPicks[0].PersonID)
	assert.Contains(t, p1Result.SkippedPicks[0].Reason, "died in 2025")

	slots, err := repo.GetDraftSlots(ctx, "p1", 2026)
	require.NoError(t, err)
	assert.Equal(t, 2, slots.CurrentPicks)
	assert.Equal(t, models.MaxPicks-2, slots.AvailableSlots)

	record, err := repo.GetTransitionRecord(ctx, 2025, 2026)
	require.NoError(t, err)
	assert.Equal(t, models.TransitionStatusCompleted, record.Status)
	assert.Equal(t, models.TransitionStrategyActivePicksOnly, record.Strategy)
	assert.Equal(t, 4, record.ActivePicksMigrated)
	assert.Equal(t, testutil.FrozenTime, record.CompletedAt)
}

func TestRunTiedScoresKeepPriorOrder(t *testing.T) {
	app, repo, _ := newTestApp(t)
	ctx := context.Background()

	testutil.SeedPlayer(t, repo, "p1", "Ada", "Lovelace", 2025, 1)
	testutil.SeedPlayer(t, repo, "p2", "Grace", "Hopper", 2025, 2)

	report, err := app.Run(ctx, Request{FromYear: 2025, ToYear: 2026})
	require.NoError(t, err)

	require.Len(t, report.DraftOrder, 2)
	assert.Equal(t, "p1", report.DraftOrder[0].PlayerID)
	assert.Equal(t, "p2", report.DraftOrder[1].PlayerID)
}

func TestRunNearCapacityLeavesOneSlot(t *testing.T) {
	app, repo, _ := newTestApp(t)
	ctx := context.Background()

	testutil.SeedPlayer(t, repo, "p1", "Ada", "Lovelace", 2025, 1)
	for i := range models.MaxPicks {
		person := models.Person{ID: fmt.Sprintf("celeb-%02d", i), Name: fmt.Sprintf("Celebrity %02d", i), Age: 70}
		if i == 0 {
			person.DeathDate = "2025-06-01"
		}
		seeded := testutil.SeedPerson(t, repo, person)
		testutil.SeedPick(t, repo, "p1", seeded.ID, 2025, testutil.FrozenTime)
	}

	report, err := app.Run(ctx, Request{FromYear: 2025, ToYear: 2026})
	require.NoError(t, err)

	require.Len(t, report.Players, 1)
	assert.Equal(t, models.MaxPicks-1, report.Players[0].ActivePicks)
	assert.Equal(t, 1, report.Players[0].AvailableSlots)

	slots, err := repo.GetDraftSlots(ctx, "p1", 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, slots.AvailableSlots)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	app, repo, ms := newTestApp(t)
	ctx := context.Background()
	seedSeason(t, repo)

	before := ms.Len()
	report, err := app.Run(ctx, Request{FromYear: 2025, ToYear: 2026, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, before, ms.Len())

	// The report is still fully populated.
	assert.True(t, report.DryRun)
	assert.Len(t, report.DraftOrder, 2)
	assert.Equal(t, 4, report.ActivePicksMigrated)
	assert.Equal(t, 1, report.DeceasedPicksSkipped)
	assert.Equal(t, models.TransitionStatusCompleted, report.Status)

	_, err = repo.GetTransitionRecord(ctx, 2025, 2026)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRunRerunConverges(t *testing.T) {
	app, repo, ms := newTestApp(t)
	ctx := context.Background()
	seedSeason(t, repo)

	first, err := app.Run(ctx, Request{FromYear: 2025, ToYear: 2026})
	require.NoError(t, err)
	afterFirst := ms.Len()

	second, err := app.Run(ctx, Request{FromYear: 2025, ToYear: 2026})
	require.NoError(t, err)

	// Every write is keyed, so the rerun overwrites instead of growing
	// the table.
	assert.Equal(t, afterFirst, ms.Len())
	assert.Equal(t, models.TransitionStatusCompleted, second.Status)
	assert.Empty(t, second.Validation)
	assert.Equal(t, first.ActivePicksMigrated, second.ActivePicksMigrated)

	picks, err := repo.ListPlayerPicks(ctx, "p1", 2026)
	require.NoError(t, err)
	assert.Len(t, picks, 2)
	picks, err = repo.ListPlayerPicks(ctx, "p2", 2026)
	require.NoError(t, err)
	assert.Len(t, picks, 2)
}
