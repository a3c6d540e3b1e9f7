package scoring

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/deadpool/go/internal/models"
	"github.com/mcdev12/deadpool/go/internal/repository"
	"github.com/mcdev12/deadpool/go/internal/testutil"
)

func newTestApp(t *testing.T) (*App, *repository.Repository) {
	t.Helper()
	repo, _ := testutil.NewRepo(t)
	return NewApp(repo, zerolog.Nop()), repo
}

func TestPickScore(t *testing.T) {
	assert.Equal(t, 80, PickScore(70))
	assert.Equal(t, 50, PickScore(100))
	assert.Equal(t, 125, PickScore(25))
	// Past 100 the age bonus goes negative.
	assert.Equal(t, 45, PickScore(105))
}

func TestComputeScoreCountsOnlyTargetYearDeaths(t *testing.T) {
	app, repo := newTestApp(t)
	ctx := context.Background()

	testutil.SeedPlayer(t, repo, "p1", "Ada", "Lovelace", 2025, 1)

	inYear := testutil.SeedPerson(t, repo, models.Person{
		ID: "celeb-1", Name: "Target Year", Age: 70, DeathDate: "2025-06-01",
	})
	priorYear := testutil.SeedPerson(t, repo, models.Person{
		ID: "celeb-2", Name: "Prior Year", Age: 90, DeathDate: "2024-11-20",
	})
	alive := testutil.SeedPerson(t, repo, models.Person{
		ID: "celeb-3", Name: "Still Alive", Age: 60,
	})
	for _, person := range []models.Person{inYear, priorYear, alive} {
		testutil.SeedPick(t, repo, "p1", person.ID, 2025, testutil.FrozenTime)
	}

	score, err := app.ComputeScore(ctx, "p1", 2025)
	require.NoError(t, err)
	assert.Equal(t, 80, score)
}

func TestComputeScoreNoPicks(t *testing.T) {
	app, repo := newTestApp(t)
	testutil.SeedPlayer(t, repo, "p1", "Ada", "Lovelace", 2025, 1)

	score, err := app.ComputeScore(context.Background(), "p1", 2025)
	require.NoError(t, err)
	assert.Zero(t, score)
}

func TestComputeLeaderboardOrdering(t *testing.T) {
	app, repo := newTestApp(t)
	ctx := context.Background()

	testutil.SeedPlayer(t, repo, "p1", "Ada", "Lovelace", 2025, 1)
	testutil.SeedPlayer(t, repo, "p2", "Grace", "Hopper", 2025, 2)
	testutil.SeedPlayer(t, repo, "p3", "Alan", "Turing", 2025, 3)

	// p3 outscores the rest; p1 and p2 tie at zero, so their draft
	// positions decide.
	scored := testutil.SeedPerson(t, repo, models.Person{
		ID: "celeb-1", Name: "High Value", Age: 70, DeathDate: "2025-06-01",
	})
	alive := testutil.SeedPerson(t, repo, models.Person{ID: "celeb-2", Name: "Still Alive", Age: 50})
	testutil.SeedPick(t, repo, "p3", scored.ID, 2025, testutil.FrozenTime)
	testutil.SeedPick(t, repo, "p2", alive.ID, 2025, testutil.FrozenTime)

	entries, err := app.ComputeLeaderboard(ctx, 2025)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "p3", entries[0].PlayerID)
	assert.Equal(t, 80, entries[0].Score)
	assert.Equal(t, 1, entries[0].PickCount)

	assert.Equal(t, "p1", entries[1].PlayerID)
	assert.Zero(t, entries[1].Score)

	assert.Equal(t, "p2", entries[2].PlayerID)
	assert.Zero(t, entries[2].Score)
	assert.Equal(t, 1, entries[2].PickCount)
}

func TestComputeLeaderboardDeterministic(t *testing.T) {
	app, repo := newTestApp(t)
	ctx := context.Background()

	for i, id := range []string{"p1", "p2", "p3", "p4"} {
		testutil.SeedPlayer(t, repo, id, "Player", id, 2025, i+1)
	}

	first, err := app.ComputeLeaderboard(ctx, 2025)
	require.NoError(t, err)
	second, err := app.ComputeLeaderboard(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
