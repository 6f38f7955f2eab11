// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package store provides PostgreSQL connection and schema management.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// ErrUnavailable marks any underlying persistence failure. Repositories
// wrap store faults with it so callers can match the whole class with a
// single errors.Is check.
var ErrUnavailable = errors.New("store unavailable")

// Unavailable tags err as a store-layer fault while preserving it for
// inspection and logging.
func Unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// Pool is the subset of pgxpool.Pool used by repositories.
// pgxmock satisfies it, keeping repository tests database-free.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Connection retry configuration for startup.
const (
	connectRetryBase = 500 * time.Millisecond
	connectRetryMax  = 5
)

// Connect opens a pgx connection pool and verifies it with a ping,
// retrying with exponential backoff while the database comes up.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code("STORE_CONNECT_FAILED").
			With("operation", "create pool").
			Wrap(err)
	}

	backoff := retry.WithMaxRetries(connectRetryMax, retry.NewExponential(connectRetryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if pingErr := pool.Ping(ctx); pingErr != nil {
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("STORE_CONNECT_FAILED").
			With("operation", "ping database").
			Wrap(Unavailable(err))
	}

	return pool, nil
}
