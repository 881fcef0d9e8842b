// Package pgx stores users in PostgreSQL through a pgx connection pool.
package pgx

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Keshav-Madhav/mern-authorization/core"
	"github.com/Keshav-Madhav/mern-authorization/pkg/crypto"
)

type Adapter struct {
	pool *pgxpool.Pool
	ids  *crypto.IDGenerator
}

var _ core.StorageCloser = (*Adapter)(nil)

func New(pool *pgxpool.Pool) *Adapter {
	return &Adapter{
		pool: pool,
		ids:  crypto.DefaultIDGenerator(),
	}
}

// Connect opens a pool for databaseURL and applies pending migrations.
func Connect(ctx context.Context, databaseURL string) (*Adapter, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return New(pool), nil
}

func (a *Adapter) Close(context.Context) error {
	a.pool.Close()
	return nil
}
