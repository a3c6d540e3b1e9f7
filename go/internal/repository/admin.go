package repository

import (
	"context"
	"fmt"

	"github.com/mcdev12/deadpool/go/internal/models"
	"github.com/mcdev12/deadpool/go/internal/store"
)

// Administrative write paths. The engines never create players and never
// mutate people; signup and death recording happen upstream and land
// here, as does seed tooling.

// PutPlayer overwrites a player's profile row.
func (r *Repository) PutPlayer(ctx context.Context, player models.Player) error {
	item := store.Item{
		Key: playerKey(player.ID),
		Attributes: map[string]any{
			"FirstName": player.FirstName,
			"LastName":  player.LastName,
		},
	}
	err := r.withRetry(ctx, "put player", func() error {
		return r.store.Put(ctx, item)
	})
	if err != nil {
		return fmt.Errorf("failed to put player: %w", err)
	}
	return nil
}

// PutPerson overwrites a person's detail row and refreshes the
// normalized-name index, used when a death is recorded.
func (r *Repository) PutPerson(ctx context.Context, person models.Person) error {
	return r.putPersonRows(ctx, person)
}
