// Copyright (c) 2025 Inventoryops
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"sync"

	"github.com/pterm/pterm"

	"inventoryops/cli/internal/config"
	"inventoryops/cli/internal/datastore"
)

// OpenFunc opens a datastore client.
type OpenFunc func(ctx context.Context) (datastore.Client, error)

// Deferred is a datastore.Client that opens the real client on first use.
// Invocations rejected during parameter validation never connect.
type Deferred struct {
	open   OpenFunc
	once   sync.Once
	client datastore.Client
	err    error
}

// NewDeferred wraps open.
func NewDeferred(open OpenFunc) *Deferred {
	return &Deferred{open: open}
}

// Lazy returns a Deferred client for cfg.
func Lazy(cfg *config.Config, log *pterm.Logger) *Deferred {
	return NewDeferred(func(ctx context.Context) (datastore.Client, error) {
		return Open(ctx, cfg, log)
	})
}

func (d *Deferred) get(ctx context.Context) (datastore.Client, error) {
	d.once.Do(func() {
		d.client, d.err = d.open(ctx)
	})
	return d.client, d.err
}

// Opened reports whether the underlying client was opened.
func (d *Deferred) Opened() bool {
	return d.client != nil
}

func (d *Deferred) Select(ctx context.Context, q datastore.SelectQuery) ([]*datastore.Row, error) {
	c, err := d.get(ctx)
	if err != nil {
		return nil, err
	}
	return c.Select(ctx, q)
}

func (d *Deferred) Delete(ctx context.Context, q datastore.DeleteQuery) (int64, error) {
	c, err := d.get(ctx)
	if err != nil {
		return 0, err
	}
	return c.Delete(ctx, q)
}

// Close closes the underlying client if it was opened.
func (d *Deferred) Close() error {
	if d.client == nil {
		return nil
	}
	return d.client.Close()
}
