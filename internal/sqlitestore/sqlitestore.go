// Package sqlitestore implements datastore.Client over a local SQLite file.
// It is used for offline fixtures and for exercising operations without a
// hosted datastore.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"inventoryops/cli/internal/datastore"
	"inventoryops/cli/internal/datastore/sqlbuild"
)

// DB wraps a SQLite database connection.
type DB struct {
	db      *sql.DB
	builder *sqlbuild.Builder
}

// Open opens the SQLite database at path. Use ":memory:" for a throwaway store.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return &DB{db: db, builder: sqlbuild.New(squirrel.Question)}, nil
}

// Exec runs a raw statement. It is meant for fixtures and migrations, not operations.
func (d *DB) Exec(ctx context.Context, stmt string, args ...any) error {
	_, err := d.db.ExecContext(ctx, stmt, args...)
	return err
}

// Select implements datastore.Client.
func (d *DB) Select(ctx context.Context, q datastore.SelectQuery) ([]*datastore.Row, error) {
	query, args, err := d.builder.Select(q)
	if err != nil {
		return nil, err
	}
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &datastore.BackendError{Message: err.Error()}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &datastore.BackendError{Message: err.Error()}
	}

	out := []*datastore.Row{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &datastore.BackendError{Message: err.Error()}
		}
		r := datastore.NewRow()
		for i, c := range cols {
			r.Set(c, vals[i])
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &datastore.BackendError{Message: err.Error()}
	}
	return out, nil
}

// Delete implements datastore.Client.
func (d *DB) Delete(ctx context.Context, q datastore.DeleteQuery) (int64, error) {
	query, args, err := d.builder.Delete(q)
	if err != nil {
		return 0, err
	}
	res, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, &datastore.BackendError{Message: err.Error()}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &datastore.BackendError{Message: err.Error()}
	}
	return n, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}
