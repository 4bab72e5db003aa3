// Copyright (c) 2025 Inventoryops
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package marketsync is the client side of the market-data synchronization
// service. The service fetches a product's variants and prices from the
// marketplace and stores snapshots; this package only asks it to do so for
// one product and hands back what it reported.
package marketsync

import "context"

// Request identifies one product sync.
type Request struct {
	UserID    string
	ProductID string
	Currency  string
}

// SyncResult is the service's report. Fields the service did not send stay nil
// so they are omitted from output.
type SyncResult struct {
	Success          bool    `json:"success" yaml:"success"`
	VariantsCached   *int64  `json:"variantsCached,omitempty" yaml:"variantsCached,omitempty"`
	SnapshotsCreated *int64  `json:"snapshotsCreated,omitempty" yaml:"snapshotsCreated,omitempty"`
	Warning          *string `json:"warning,omitempty" yaml:"warning,omitempty"`
	Error            *string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Syncer triggers a product sync.
type Syncer interface {
	Sync(ctx context.Context, req Request) (*SyncResult, error)
	Close() error
}
