// Package pgstore backs the entity store with a single Postgres table
// keyed (pk, sk), attributes stored as JSONB. Conditional writes ride on
// INSERT ... ON CONFLICT, which gives the same lost-the-race guarantee
// as DynamoDB condition expressions.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/deadpool/go/internal/store"
)

// Schema creates the entities table. Applied by the CLI on startup when
// the Postgres backend is selected.
const Schema = `
CREATE TABLE IF NOT EXISTS entities (
	pk    TEXT NOT NULL,
	sk    TEXT NOT NULL,
	attrs JSONB NOT NULL DEFAULT '{}',
	PRIMARY KEY (pk, sk)
);`

type PGStore struct {
	pool *pgxpool.Pool
}

// New connects to dsn and ensures the schema exists.
func New(ctx context.Context, dsn string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	s := &PGStore{pool: pool}
	if _, err := pool.Exec(ctx, Schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return s, nil
}

// NewWithPool wraps an existing pool without touching the schema.
func NewWithPool(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (p *PGStore) Close() {
	p.pool.Close()
}

func (p *PGStore) Get(ctx context.Context, key store.Key) (*store.Item, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx,
		`SELECT attrs FROM entities WHERE pk = $1 AND sk = $2`,
		key.PK, key.SK,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get %s/%s: %w", key.PK, key.SK, store.ErrNotFound)
	}
	if err != nil {
		return nil, wrapErr("get item", err)
	}
	return itemFromRow(key, raw)
}

func (p *PGStore) Put(ctx context.Context, item store.Item) error {
	raw, err := json.Marshal(item.Attributes)
	if err != nil {
		return fmt.Errorf("failed to marshal item attributes: %w", err)
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO entities (pk, sk, attrs) VALUES ($1, $2, $3)
		 ON CONFLICT (pk, sk) DO UPDATE SET attrs = EXCLUDED.attrs`,
		item.PK, item.SK, raw,
	)
	if err != nil {
		return wrapErr("put item", err)
	}
	return nil
}

func (p *PGStore) PutIfAbsent(ctx context.Context, item store.Item) error {
	raw, err := json.Marshal(item.Attributes)
	if err != nil {
		return fmt.Errorf("failed to marshal item attributes: %w", err)
	}
	tag, err := p.pool.Exec(ctx,
		`INSERT INTO entities (pk, sk, attrs) VALUES ($1, $2, $3)
		 ON CONFLICT (pk, sk) DO NOTHING`,
		item.PK, item.SK, raw,
	)
	if err != nil {
		return wrapErr("conditional put", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("put %s/%s: %w", item.PK, item.SK, store.ErrConditionFailed)
	}
	return nil
}

func (p *PGStore) Delete(ctx context.Context, key store.Key) error {
	_, err := p.pool.Exec(ctx,
		`DELETE FROM entities WHERE pk = $1 AND sk = $2`,
		key.PK, key.SK,
	)
	if err != nil {
		return wrapErr("delete item", err)
	}
	return nil
}

func (p *PGStore) QueryPrefix(ctx context.Context, pk, skPrefix string) ([]store.Item, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT sk, attrs FROM entities
		 WHERE pk = $1 AND sk >= $2 AND sk < $2 || chr(255)
		 ORDER BY sk`,
		pk, skPrefix,
	)
	if err != nil {
		return nil, wrapErr("query", err)
	}
	defer rows.Close()

	var items []store.Item
	for rows.Next() {
		var sk string
		var raw []byte
		if err := rows.Scan(&sk, &raw); err != nil {
			return nil, wrapErr("scan row", err)
		}
		item, err := itemFromRow(store.Key{PK: pk, SK: sk}, raw)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("query", err)
	}
	return items, nil
}

func (p *PGStore) BatchGet(ctx context.Context, keys []store.Key) ([]store.Item, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	pks := make([]string, len(keys))
	sks := make([]string, len(keys))
	for i, key := range keys {
		pks[i] = key.PK
		sks[i] = key.SK
	}

	rows, err := p.pool.Query(ctx,
		`SELECT e.pk, e.sk, e.attrs
		 FROM entities e
		 JOIN unnest($1::text[], $2::text[]) AS req(pk, sk)
		   ON e.pk = req.pk AND e.sk = req.sk`,
		pks, sks,
	)
	if err != nil {
		return nil, wrapErr("batch get", err)
	}
	defer rows.Close()

	var items []store.Item
	for rows.Next() {
		var pk, sk string
		var raw []byte
		if err := rows.Scan(&pk, &sk, &raw); err != nil {
			return nil, wrapErr("scan row", err)
		}
		item, err := itemFromRow(store.Key{PK: pk, SK: sk}, raw)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("batch get", err)
	}
	return items, nil
}

func itemFromRow(key store.Key, raw []byte) (*store.Item, error) {
	attrs := make(map[string]any)
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item attributes: %w", err)
	}
	return &store.Item{Key: key, Attributes: attrs}, nil
}

// wrapErr tags connection-level failures as transient; constraint and
// syntax errors stay definitive.
func wrapErr(op string, err error) error {
	if pgconn.SafeToRetry(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %v: %w", op, err, store.ErrTransient)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
