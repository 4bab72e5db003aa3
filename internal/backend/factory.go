// Copyright (c) 2025 Inventoryops
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package backend selects and constructs the datastore client for an
// invocation. The REST client for the hosted database API lives here too;
// the SQL backends live in sqlexec and sqlitestore.
package backend

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"

	"inventoryops/cli/internal/config"
	"inventoryops/cli/internal/datastore"
	apperrors "inventoryops/cli/internal/errors"
	"inventoryops/cli/internal/sqlexec"
	"inventoryops/cli/internal/sqlitestore"
)

// Open creates the datastore client named by cfg.Backend. The configuration
// must already have passed Validate.
func Open(ctx context.Context, cfg *config.Config, log *pterm.Logger) (datastore.Client, error) {
	switch cfg.Backend {
	case config.BackendREST:
		return NewHTTP(cfg.Datastore.URL, cfg.Datastore.ServiceKey,
			WithTimeout(cfg.Datastore.Timeout),
			WithRateLimit(cfg.Datastore.RateLimit),
			WithLogger(log),
		), nil
	case config.BackendPostgres:
		ex, err := sqlexec.Connect(ctx, cfg.Datastore.DSN, cfg.Datastore.Timeout, log)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.BackendError, "cannot connect to Postgres", err)
		}
		return ex, nil
	case config.BackendSQLite:
		db, err := sqlitestore.Open(cfg.Datastore.Path)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.BackendError, "cannot open SQLite database", err)
		}
		return db, nil
	}
	return nil, apperrors.New(apperrors.MissingConfiguration, fmt.Sprintf("unknown backend %q", cfg.Backend))
}
