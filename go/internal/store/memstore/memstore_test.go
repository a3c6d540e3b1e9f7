package memstore

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/deadpool/go/internal/store"
)

func TestPutGetDelete(t *testing.T) {
	ms := New()
	ctx := context.Background()
	key := store.Key{PK: "PLAYER#p1", SK: "DETAILS"}

	_, err := ms.Get(ctx, key)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, ms.Put(ctx, store.Item{Key: key, Attributes: map[string]any{"FirstName": "Ada"}}))

	item, err := ms.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "Ada", item.Attributes["FirstName"])

	require.NoError(t, ms.Delete(ctx, key))
	_, err = ms.Get(ctx, key)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPutIfAbsentConflict(t *testing.T) {
	ms := New()
	ctx := context.Background()
	item := store.Item{
		Key:        store.Key{PK: "YEAR#2025", SK: "CLAIM#abc"},
		Attributes: map[string]any{"PlayerID": "p1"},
	}

	require.NoError(t, ms.PutIfAbsent(ctx, item))

	item.Attributes = map[string]any{"PlayerID": "p2"}
	err := ms.PutIfAbsent(ctx, item)
	assert.ErrorIs(t, err, store.ErrConditionFailed)

	// The loser must not have overwritten the winner.
	got, err := ms.Get(ctx, item.Key)
	require.NoError(t, err)
	assert.Equal(t, "p1", got.Attributes["PlayerID"])
}

func TestPutIfAbsentConcurrent(t *testing.T) {
	ms := New()
	ctx := context.Background()
	key := store.Key{PK: "NAME#norman lear", SK: "CLAIM"}

	const writers = 32
	var wins, losses atomic.Int32
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := ms.PutIfAbsent(ctx, store.Item{
				Key:        key,
				Attributes: map[string]any{"PersonID": fmt.Sprintf("id-%d", i)},
			})
			if err == nil {
				wins.Add(1)
			} else if assert.ErrorIs(t, err, store.ErrConditionFailed) {
				losses.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(writers-1), losses.Load())
	assert.Equal(t, 1, ms.Len())
}

func TestQueryPrefix(t *testing.T) {
	ms := New()
	ctx := context.Background()

	put := func(pk, sk string) {
		require.NoError(t, ms.Put(ctx, store.Item{Key: store.Key{PK: pk, SK: sk}, Attributes: map[string]any{}}))
	}
	put("PLAYER#p1", "PICK#2025#b")
	put("PLAYER#p1", "PICK#2025#a")
	put("PLAYER#p1", "PICK#2026#c")
	put("PLAYER#p1", "DETAILS")
	put("PLAYER#p2", "PICK#2025#d")

	items, err := ms.QueryPrefix(ctx, "PLAYER#p1", "PICK#2025#")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "PICK#2025#a", items[0].SK)
	assert.Equal(t, "PICK#2025#b", items[1].SK)

	items, err = ms.QueryPrefix(ctx, "PLAYER#p1", "")
	require.NoError(t, err)
	assert.Len(t, items, 4)
}

func TestBatchGetSkipsMissing(t *testing.T) {
	ms := New()
	ctx := context.Background()

	k1 := store.Key{PK: "PERSON#a", SK: "DETAILS"}
	require.NoError(t, ms.Put(ctx, store.Item{Key: k1, Attributes: map[string]any{"Name": "A"}}))

	items, err := ms.BatchGet(ctx, []store.Key{k1, {PK: "PERSON#missing", SK: "DETAILS"}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, k1, items[0].Key)
}

func TestAttributesAreCloned(t *testing.T) {
	ms := New()
	ctx := context.Background()
	key := store.Key{PK: "PERSON#a", SK: "DETAILS"}

	attrs := map[string]any{"Name": "Original"}
	require.NoError(t, ms.Put(ctx, store.Item{Key: key, Attributes: attrs}))
	attrs["Name"] = "MutatedInput"

	item, err := ms.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "Original", item.Attributes["Name"])

	item.Attributes["Name"] = "MutatedOutput"
	again, err := ms.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "Original", again.Attributes["Name"])
}
