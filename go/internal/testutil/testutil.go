// Package testutil provides shared fixtures for engine tests. Everything
// runs against the in-memory store, which has the same conditional-write
// semantics as the production backends.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/deadpool/go/internal/models"
	"github.com/mcdev12/deadpool/go/internal/names"
	"github.com/mcdev12/deadpool/go/internal/repository"
	"github.com/mcdev12/deadpool/go/internal/store/memstore"
)

// FrozenTime is the instant fake clocks in tests start at.
var FrozenTime = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

// NewRepo builds a repository over a fresh in-memory store.
func NewRepo(t *testing.T) (*repository.Repository, *memstore.MemStore) {
	t.Helper()
	ms := memstore.New()
	return repository.New(ms, zerolog.Nop()), ms
}

// SeedPlayer writes a player profile and its draft order row for year.
func SeedPlayer(t *testing.T, repo *repository.Repository, id, firstName, lastName string, year, position int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, repo.PutPlayer(ctx, models.Player{ID: id, FirstName: firstName, LastName: lastName}))
	require.NoError(t, repo.PutDraftOrderEntry(ctx, models.DraftOrderEntry{Year: year, Position: position, PlayerID: id}))
}

// SeedPerson writes a person's detail and name-index rows, normalizing
// the name with the default matcher when the caller left it blank.
func SeedPerson(t *testing.T, repo *repository.Repository, person models.Person) models.Person {
	t.Helper()
	if person.NormalizedName == "" {
		person.NormalizedName = names.NewMatcher(names.DefaultConfig()).Normalize(person.Name)
	}
	require.NoError(t, repo.PutPerson(context.Background(), person))
	return person
}

// SeedPick writes both halves of a committed pick: the uniqueness claim
// and the per-player row.
func SeedPick(t *testing.T, repo *repository.Repository, playerID, personID string, year int, ts time.Time) {
	t.Helper()
	ctx := context.Background()
	pick := models.Pick{PlayerID: playerID, PersonID: personID, Year: year, Timestamp: ts}
	require.NoError(t, repo.CreateClaim(ctx, pick))
	require.NoError(t, repo.CreatePick(ctx, pick))
}
