// Copyright (c) 2025 Inventoryops
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package sqlexec implements datastore.Client directly against Postgres over
// a pgx connection pool. It is the backend of choice when the operator has a
// database DSN rather than REST API credentials.
//
// Statements are built with squirrel using dollar placeholders; deletes run
// inside a transaction so the reported row count is the committed one.
package sqlexec

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pterm/pterm"

	"inventoryops/cli/internal/datastore"
	"inventoryops/cli/internal/datastore/sqlbuild"
	"inventoryops/cli/internal/dsn"
	"inventoryops/cli/internal/logging"
)

// Executor executes datastore queries using a connection pool.
type Executor struct {
	// Pool is the PostgreSQL connection pool
	Pool    *pgxpool.Pool
	builder *sqlbuild.Builder
	log     *pterm.Logger
}

// New creates an Executor from an existing pgx pool.
func New(pool *pgxpool.Pool, log *pterm.Logger) *Executor {
	if log == nil {
		log = logging.Nop()
	}
	return &Executor{
		Pool:    pool,
		builder: sqlbuild.New(squirrel.Dollar),
		log:     log,
	}
}

// Connect normalizes rawDSN, opens a pool and pings it within timeout.
func Connect(ctx context.Context, rawDSN string, timeout time.Duration, log *pterm.Logger) (*Executor, error) {
	cfg, err := poolConfig(rawDSN)
	if err != nil {
		return nil, err
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect: %w", asBackendError(err))
	}
	return New(pool, log), nil
}

// poolConfig parses rawDSN into a single-connection pool config.
func poolConfig(rawDSN string) (*pgxpool.Config, error) {
	normalized, err := dsn.Normalize(rawDSN)
	if err != nil {
		return nil, err
	}
	cfg, err := pgxpool.ParseConfig(normalized)
	if err != nil {
		return nil, fmt.Errorf("invalid DSN: %w", err)
	}
	// one operation per invocation, one connection is plenty
	cfg.MaxConns = 1
	return cfg, nil
}

// Select implements datastore.Client.
func (e *Executor) Select(ctx context.Context, q datastore.SelectQuery) ([]*datastore.Row, error) {
	sql, args, err := e.builder.Select(q)
	if err != nil {
		return nil, err
	}
	e.log.Debug("select", e.log.Args("sql", sql, "args", len(args)))

	rows, err := e.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, asBackendError(err)
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	out := []*datastore.Row{}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, asBackendError(err)
		}
		r := datastore.NewRow()
		for i, fd := range fds {
			r.Set(fd.Name, pgValue(vals[i]))
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, asBackendError(err)
	}
	return out, nil
}

// Delete implements datastore.Client.
func (e *Executor) Delete(ctx context.Context, q datastore.DeleteQuery) (int64, error) {
	sql, args, err := e.builder.Delete(q)
	if err != nil {
		return 0, err
	}
	e.log.Debug("delete", e.log.Args("sql", sql))

	var affected int64
	err = pgx.BeginFunc(ctx, e.Pool, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return err
		}
		affected = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, asBackendError(err)
	}
	return affected, nil
}

// Close releases the pool.
func (e *Executor) Close() error {
	e.Pool.Close()
	return nil
}

// pgValue converts pgx-specific decoded values before datastore normalization.
func pgValue(v any) any {
	switch x := v.(type) {
	case pgtype.Numeric:
		if !x.Valid {
			return nil
		}
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case pgtype.Interval:
		if !x.Valid {
			return nil
		}
		return time.Duration(x.Microseconds)*time.Microsecond + time.Duration(x.Days)*24*time.Hour
	default:
		return v
	}
}

// asBackendError maps server-reported errors onto datastore.BackendError so
// every backend reports failures the same way.
func asBackendError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &datastore.BackendError{
			Code:    pgErr.Code,
			Message: pgErr.Message,
			Details: pgErr.Detail,
			Hint:    pgErr.Hint,
		}
	}
	return err
}
