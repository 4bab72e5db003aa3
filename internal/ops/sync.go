// Copyright (c) 2025 Inventoryops
// Licensed under the MIT License. See LICENSE file in the project root for details.

package ops

import (
	"context"
	"errors"
	"regexp"
	"strings"

	apperrors "inventoryops/cli/internal/errors"
	"inventoryops/cli/internal/marketsync"
	"inventoryops/cli/internal/runner"
)

var currencyRe = regexp.MustCompile(`^[A-Z]{3}$`)

// Sync asks the market-data service to refresh one product and returns its
// report untouched. A report with success=false is still a result; the
// command layer turns it into a non-zero exit.
func Sync() *runner.Operation {
	return &runner.Operation{
		Name:    NameSync,
		Summary: "Synchronize market data for one product",
		Kind:    runner.KindInvoke,
		Params: []runner.ParamSpec{
			{Name: "user", Type: runner.TypeString, Required: true, Help: "owning user ID",
				Check: func(v any) error {
					if strings.TrimSpace(v.(string)) == "" {
						return errors.New("must not be blank")
					}
					return nil
				}},
			{Name: "product", Type: runner.TypeString, Required: true, Help: "product ID to sync"},
			{Name: "currency", Type: runner.TypeString, Default: "GBP", Help: "ISO 4217 currency code",
				Check: func(v any) error {
					if !currencyRe.MatchString(v.(string)) {
						return errors.New("must be a three-letter upper-case ISO 4217 code")
					}
					return nil
				}},
		},
		Execute: func(ctx context.Context, p runner.Params, d runner.Deps) (any, error) {
			if d.Sync == nil {
				return nil, apperrors.New(apperrors.MissingConfiguration,
					"sync service address not configured (INVOPS_SYNC_ADDRESS or --sync-address)")
			}
			res, err := d.Sync.Sync(ctx, marketsync.Request{
				UserID:    p.String("user"),
				ProductID: p.String("product"),
				Currency:  p.String("currency"),
			})
			if err != nil {
				return nil, apperrors.Wrap(apperrors.BackendError, "sync request failed", err)
			}
			return res, nil
		},
	}
}
