package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/deadpool/go/internal/models"
	"github.com/mcdev12/deadpool/go/internal/store/memstore"
)

func newTestRepo(t *testing.T) (*Repository, *memstore.MemStore) {
	t.Helper()
	ms := memstore.New()
	return New(ms, zerolog.Nop()), ms
}

func TestPlayerRoundTrip(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.GetPlayer(ctx, "p1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.PutPlayer(ctx, models.Player{ID: "p1", FirstName: "Ada", LastName: "Lovelace"}))

	player, err := repo.GetPlayer(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", player.FullName())
}

func TestListPlayersFollowsDraftOrder(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	for i, id := range []string{"p-c", "p-a", "p-b"} {
		require.NoError(t, repo.PutPlayer(ctx, models.Player{ID: id, FirstName: id}))
		require.NoError(t, repo.PutDraftOrderEntry(ctx, models.DraftOrderEntry{Year: 2025, Position: i + 1, PlayerID: id}))
	}

	players, err := repo.ListPlayers(ctx, 2025)
	require.NoError(t, err)
	require.Len(t, players, 3)
	assert.Equal(t, "p-c", players[0].ID)
	assert.Equal(t, 1, players[0].DraftOrder)
	assert.Equal(t, "p-b", players[2].ID)
	assert.Equal(t, 3, players[2].DraftOrder)
}

func TestCreatePersonIfAbsentConverges(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	first, created, err := repo.CreatePersonIfAbsent(ctx, models.Person{
		ID: "id-1", Name: "Norman Lear", NormalizedName: "norman lear",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "id-1", first.ID)

	// A second creator with a fresh ID resolves to the winner's record.
	second, created, err := repo.CreatePersonIfAbsent(ctx, models.Person{
		ID: "id-2", Name: "norman lear", NormalizedName: "norman lear",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "id-1", second.ID)
	assert.Equal(t, "Norman Lear", second.Name)

	refs, err := repo.ScanPeople(ctx, "n")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "id-1", refs[0].ID)
}

func TestCreatePersonIfAbsentConcurrent(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	const creators = 16
	var createdCount atomic.Int32
	ids := make([]string, creators)
	var wg sync.WaitGroup
	for i := range creators {
		wg.Add(1)
		go func() {
			defer wg.Done()
			person, created, err := repo.CreatePersonIfAbsent(ctx, models.Person{
				ID:             fmt.Sprintf("id-%d", i),
				Name:           "Norman Lear",
				NormalizedName: "norman lear",
			})
			if !assert.NoError(t, err) {
				return
			}
			if created {
				createdCount.Add(1)
			}
			ids[i] = person.ID
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), createdCount.Load())
	for _, id := range ids[1:] {
		assert.Equal(t, ids[0], id)
	}
	// One claim, one details row, one index row.
	assert.Equal(t, 3, ms.Len())
}

func TestPutPersonRefreshesIndex(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	person := models.Person{ID: "id-1", Name: "Betty White", NormalizedName: "betty white", Age: 99}
	require.NoError(t, repo.PutPerson(ctx, person))

	person.DeathDate = "2025-01-01"
	require.NoError(t, repo.PutPerson(ctx, person))

	got, err := repo.GetPerson(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", got.DeathDate)
	assert.Equal(t, 99, got.Age)

	refs, err := repo.ScanPeople(ctx, "b")
	require.NoError(t, err)
	assert.Len(t, refs, 1)
}

func TestClaimUniquenessPerYear(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	ts := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	pick := models.Pick{PlayerID: "p1", PersonID: "celeb-1", Year: 2025, Timestamp: ts}
	require.NoError(t, repo.CreateClaim(ctx, pick))

	rival := models.Pick{PlayerID: "p2", PersonID: "celeb-1", Year: 2025, Timestamp: ts}
	assert.ErrorIs(t, repo.CreateClaim(ctx, rival), ErrConflict)

	holder, err := repo.GetClaim(ctx, 2025, "celeb-1")
	require.NoError(t, err)
	assert.Equal(t, "p1", holder.PlayerID)
	assert.Equal(t, ts, holder.Timestamp)

	// The same person is claimable again in a different year.
	nextYear := models.Pick{PlayerID: "p2", PersonID: "celeb-1", Year: 2026, Timestamp: ts}
	assert.NoError(t, repo.CreateClaim(ctx, nextYear))
}

func TestListPlayerPicksIsYearScoped(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	ts := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.CreatePick(ctx, models.Pick{PlayerID: "p1", PersonID: "a", Year: 2025, Timestamp: ts}))
	require.NoError(t, repo.CreatePick(ctx, models.Pick{PlayerID: "p1", PersonID: "b", Year: 2025, Timestamp: ts}))
	require.NoError(t, repo.CreatePick(ctx, models.Pick{PlayerID: "p1", PersonID: "a", Year: 2026, Timestamp: ts}))

	picks, err := repo.ListPlayerPicks(ctx, "p1", 2025)
	require.NoError(t, err)
	require.Len(t, picks, 2)
	for _, pick := range picks {
		assert.Equal(t, 2025, pick.Year)
		assert.Equal(t, ts, pick.Timestamp)
	}
}

func TestCompensationRemovesRows(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	pick := models.Pick{PlayerID: "p1", PersonID: "a", Year: 2025, Timestamp: time.Now().UTC()}
	require.NoError(t, repo.CreateClaim(ctx, pick))
	require.NoError(t, repo.CreatePick(ctx, pick))

	require.NoError(t, repo.DeletePick(ctx, "p1", 2025, "a"))
	require.NoError(t, repo.DeleteClaim(ctx, 2025, "a"))
	assert.Equal(t, 0, ms.Len())
}

func TestDraftSlotsRoundTrip(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.GetDraftSlots(ctx, "p1", 2025)
	assert.ErrorIs(t, err, ErrNotFound)

	updated := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.PutDraftSlots(ctx, models.DraftSlots{
		PlayerID: "p1", Year: 2025,
		MaxPicks: models.MaxPicks, CurrentPicks: 19, AvailableSlots: 1,
		LastUpdated: updated,
	}))

	slots, err := repo.GetDraftSlots(ctx, "p1", 2025)
	require.NoError(t, err)
	assert.Equal(t, 19, slots.CurrentPicks)
	assert.Equal(t, 1, slots.AvailableSlots)
	assert.Equal(t, updated, slots.LastUpdated)
}

func TestTransitionRecordRoundTrip(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.GetTransitionRecord(ctx, 2025, 2026)
	assert.ErrorIs(t, err, ErrNotFound)

	record := models.TransitionRecord{
		FromYear: 2025, ToYear: 2026,
		Strategy:            models.TransitionStrategyActivePicksOnly,
		PlayersProcessed:    2,
		ActivePicksMigrated: 30,
		Status:              models.TransitionStatusCompleted,
		CompletedAt:         time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.PutTransitionRecord(ctx, record))

	got, err := repo.GetTransitionRecord(ctx, 2025, 2026)
	require.NoError(t, err)
	assert.Equal(t, record, *got)
}
