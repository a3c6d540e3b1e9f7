// Package store defines the entity store contract the repository runs
// on: an ordered key-value store addressed by a composite (partition,
// sort) key with conditional writes. Implementations live in the
// memstore, dynamostore and pgstore subpackages.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when no item exists at the key.
	ErrNotFound = errors.New("item not found")

	// ErrConditionFailed is returned by PutIfAbsent when the key is
	// already occupied, i.e. the conditional write lost the race.
	ErrConditionFailed = errors.New("conditional write failed")

	// ErrTransient marks retryable I/O failures (throttling, timeouts,
	// dropped connections). The repository retries these with backoff.
	ErrTransient = errors.New("transient store error")
)

// Key addresses an item by partition and sort key.
type Key struct {
	PK string
	SK string
}

// Item is a stored record: its key plus a JSON-compatible attribute map.
type Item struct {
	Key
	Attributes map[string]any
}

// Store is the conditional-write key-value contract. QueryPrefix returns
// items in ascending sort-key order; BatchGet omits missing keys rather
// than erroring.
type Store interface {
	Get(ctx context.Context, key Key) (*Item, error)
	Put(ctx context.Context, item Item) error
	PutIfAbsent(ctx context.Context, item Item) error
	Delete(ctx context.Context, key Key) error
	QueryPrefix(ctx context.Context, pk, skPrefix string) ([]Item, error)
	BatchGet(ctx context.Context, keys []Key) ([]Item, error)
}
