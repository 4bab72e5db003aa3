// Copyright (c) 2025 Inventoryops
// Licensed under the MIT License. See LICENSE file in the project root for details.

package ops

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventoryops/cli/internal/config"
	"inventoryops/cli/internal/datastore"
	"inventoryops/cli/internal/datastore/datastoretest"
	apperrors "inventoryops/cli/internal/errors"
	"inventoryops/cli/internal/marketsync"
	"inventoryops/cli/internal/runner"
)

type fakeSyncer struct {
	calls []marketsync.Request
	res   *marketsync.SyncResult
	err   error
}

func (f *fakeSyncer) Sync(_ context.Context, req marketsync.Request) (*marketsync.SyncResult, error) {
	f.calls = append(f.calls, req)
	return f.res, f.err
}

func (f *fakeSyncer) Close() error { return nil }

func setup(t *testing.T, overrides map[string]config.PresetConfig) (*runner.Runner, *datastoretest.Fake, *fakeSyncer) {
	t.Helper()
	reg := runner.NewRegistry()
	require.NoError(t, Register(reg, overrides))
	store := datastoretest.New()
	syncer := &fakeSyncer{}
	return runner.New(reg, runner.Deps{Store: store, Sync: syncer}), store, syncer
}

func run(t *testing.T, r *runner.Runner, name string, args ...string) (*runner.Result, error) {
	t.Helper()
	raw, err := runner.ParseArgs(args)
	require.NoError(t, err)
	return r.Run(context.Background(), name, raw)
}

func TestRegisterAll(t *testing.T) {
	r, _, _ := setup(t, nil)
	assert.Equal(t, []string{
		NameDelete, NameInspect, NameList, NameMappedProducts, NameSchema, NameSync, NameUnmappedProducts,
	}, r.Registry().Names())
}

func TestMissingRequiredParamMakesNoCalls(t *testing.T) {
	r, store, syncer := setup(t, nil)
	for _, op := range r.Registry().Operations() {
		var required []string
		for _, p := range op.Params {
			if p.Required {
				required = append(required, p.Name)
			}
		}
		for _, missing := range required {
			t.Run(op.Name+"/"+missing, func(t *testing.T) {
				raw := map[string][]string{}
				for _, p := range required {
					if p != missing {
						raw[p] = []string{validValue(p)}
					}
				}
				_, err := r.Run(context.Background(), op.Name, raw)
				e, ok := apperrors.As(err)
				require.True(t, ok)
				assert.Equal(t, apperrors.InvalidParameter, e.Kind)
				assert.Equal(t, missing, e.Param)
			})
		}
	}
	assert.Zero(t, store.Calls())
	assert.Empty(t, syncer.calls)
}

func validValue(param string) string {
	switch param {
	case "user":
		return "8d0c5a3e-6f43-4d4e-9a55-2f1c5b7a9e01"
	default:
		return "products"
	}
}

func TestSchemaDiscovery(t *testing.T) {
	r, store, _ := setup(t, nil)
	store.Add("master_market_data", datastore.RowOf("id", 1, "price", 100.5, "name", "shoe"))

	res, err := run(t, r, NameSchema, "table=master_market_data")
	require.NoError(t, err)

	report := res.Payload.(*SchemaReport)
	var names []string
	var types []datastore.Type
	for _, f := range report.Fields {
		names = append(names, f.Name)
		types = append(types, f.Type)
	}
	assert.Equal(t, []string{"id", "name", "price"}, names)
	assert.Equal(t, []datastore.Type{datastore.TypeNumber, datastore.TypeString, datastore.TypeNumber}, types)
	assert.Equal(t, "100.5", report.Fields[2].Example)
	require.Len(t, store.Selects, 1)
	assert.Equal(t, 1, store.Selects[0].Limit)
}

func TestSchemaEmptyTable(t *testing.T) {
	r, _, _ := setup(t, nil)
	res, err := run(t, r, NameSchema, "table=master_market_data")
	require.NoError(t, err)

	report := res.Payload.(*SchemaReport)
	assert.Empty(t, report.Fields)
	b, err := json.Marshal(report)
	require.NoError(t, err)
	assert.JSONEq(t, `{"table":"master_market_data","fields":[]}`, string(b))
}

func TestSchemaTypesAndTruncation(t *testing.T) {
	r, store, _ := setup(t, nil)
	long := strings.Repeat("é", 60)
	store.Add("products", datastore.RowOf("notes", long, "archived", false, "stockx_product_id", nil))

	res, err := run(t, r, NameSchema, "table=products")
	require.NoError(t, err)
	fields := res.Payload.(*SchemaReport).Fields

	assert.Equal(t, Field{Name: "archived", Type: datastore.TypeBoolean, Example: "false"}, fields[0])
	assert.Equal(t, datastore.TypeString, fields[1].Type)
	assert.Equal(t, strings.Repeat("é", 50)+"...", fields[1].Example)
	assert.Equal(t, Field{Name: "stockx_product_id", Type: datastore.TypeNull, Example: "null"}, fields[2])
}

func TestInspect(t *testing.T) {
	r, store, _ := setup(t, nil)

	_, err := run(t, r, NameInspect, "table=Inventory")
	assert.Equal(t, apperrors.NotFound, apperrors.KindOf(err))

	store.Add("Inventory", datastore.RowOf("sku", "DD1391-100", "id", "4119851b", "size", "UK 9"))
	res, err := run(t, r, NameInspect, "table=Inventory")
	require.NoError(t, err)
	report := res.Payload.(*InspectReport)
	assert.Equal(t, []string{"sku", "id", "size"}, report.Columns)
	v, _ := report.Row.Get("size")
	assert.Equal(t, "UK 9", v)

	store.SelectErr = &datastore.BackendError{Message: "permission denied for table Inventory"}
	_, err = run(t, r, NameInspect, "table=Inventory")
	assert.Equal(t, apperrors.BackendError, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "permission denied for table Inventory")
}

func TestDelete(t *testing.T) {
	const id = "4119851b-2f4e-4a3c-9b35-0f1d7c8e9a10"
	r, store, _ := setup(t, nil)
	store.Add("Inventory", datastore.RowOf("id", id), datastore.RowOf("id", "other"))

	res, err := run(t, r, NameDelete, "table=Inventory", "value="+id)
	require.NoError(t, err)
	assert.Equal(t, runner.KindWrite, res.Kind)
	assert.Equal(t, &DeleteReport{Table: "Inventory", Column: "id", Value: id, Affected: 1}, res.Payload)

	// deleting again is not an error
	res, err = run(t, r, NameDelete, "table=Inventory", "column=id", "value="+id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Payload.(*DeleteReport).Affected)

	require.Len(t, store.Deletes, 2)
	assert.Empty(t, store.Selects)
	assert.Len(t, store.Tables["Inventory"], 1)
}

func TestDeleteFailure(t *testing.T) {
	r, store, _ := setup(t, nil)
	store.DeleteErr = &datastore.BackendError{Code: "23503", Message: "violates foreign key constraint"}

	_, err := run(t, r, NameDelete, "table=products", "column=sku", "value=DD1391-100")
	require.Error(t, err)
	assert.Equal(t, apperrors.DeleteFailed, apperrors.KindOf(err))
	assert.Equal(t, 5, apperrors.ExitCode(err))
	assert.Contains(t, err.Error(), "violates foreign key constraint")
	assert.Len(t, store.Deletes, 1)
}

func productsFixture(store *datastoretest.Fake) {
	store.Add("products",
		datastore.RowOf("id", "p1", "name", "Jordan 1 Chicago", "sku", "DZ5485-612", "stockx_product_id", nil, "brand", "Nike"),
		datastore.RowOf("id", "p2", "name", "Samba OG", "sku", "B75806", "stockx_product_id", "sx-2", "brand", "adidas"),
		datastore.RowOf("id", "p3", "name", "Dunk Low Panda", "sku", "DD1391-100", "stockx_product_id", nil, "brand", "Nike"),
	)
}

func ids(t *testing.T, report *ListReport) []string {
	t.Helper()
	var out []string
	for _, r := range report.Rows {
		v, _ := r.Get("id")
		out = append(out, v.(string))
	}
	return out
}

func TestPresets(t *testing.T) {
	r, store, _ := setup(t, nil)
	productsFixture(store)

	res, err := run(t, r, NameUnmappedProducts)
	require.NoError(t, err)
	report := res.Payload.(*ListReport)
	assert.Equal(t, []string{"p1", "p3"}, ids(t, report))
	assert.Equal(t, 2, report.Count)
	assert.Equal(t, []string{"id", "name", "sku", "stockx_product_id"}, report.Rows[0].Columns())

	res, err = run(t, r, NameMappedProducts)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, ids(t, res.Payload.(*ListReport)))

	q := store.Selects[0]
	assert.Equal(t, "products", q.Table)
	assert.Zero(t, q.Limit)
	assert.Equal(t, []datastore.Predicate{{Column: "stockx_product_id", Op: datastore.OpIsNull}}, q.Where)
}

func TestList(t *testing.T) {
	r, store, _ := setup(t, nil)
	productsFixture(store)

	res, err := run(t, r, NameList, "table=products", "select=sku,id", "where=brand:eq:Nike", "where=stockx_product_id:is-null", "limit=1")
	require.NoError(t, err)
	report := res.Payload.(*ListReport)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, []string{"sku", "id"}, report.Rows[0].Columns())
	assert.Equal(t, []string{"sku", "id"}, report.Columns)

	res, err = run(t, r, NameList, "table=products")
	require.NoError(t, err)
	report = res.Payload.(*ListReport)
	assert.Equal(t, []string{"p1", "p2", "p3"}, ids(t, report))
	assert.Nil(t, report.Columns)
	assert.Nil(t, store.Selects[1].Columns)

	_, err = run(t, r, NameList, "table=products", "limit=0")
	assert.Equal(t, apperrors.InvalidParameter, apperrors.KindOf(err))
}

func TestListComparisonOperators(t *testing.T) {
	r, store, _ := setup(t, nil)
	store.Add("master_market_data",
		datastore.RowOf("id", "m1", "price", 90.0, "name", "Samba OG"),
		datastore.RowOf("id", "m2", "price", 100.5, "name", "Jordan 1 Chicago"),
		datastore.RowOf("id", "m3", "price", 250.0, "name", "Jordan 4 Bred"),
		datastore.RowOf("id", "m4", "price", nil, "name", "Dunk Low"),
	)

	tests := []struct {
		where string
		want  []string
	}{
		{where: "price:gt:100.5", want: []string{"m3"}},
		{where: "price:gte:100.5", want: []string{"m2", "m3"}},
		{where: "price:lt:100", want: []string{"m1"}},
		{where: "price:lte:250", want: []string{"m1", "m2", "m3"}},
		{where: "name:like:Jordan%", want: []string{"m2", "m3"}},
		{where: "name:like:%Low", want: []string{"m4"}},
	}
	for _, tt := range tests {
		t.Run(tt.where, func(t *testing.T) {
			res, err := run(t, r, NameList, "table=master_market_data", "where="+tt.where)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(t, res.Payload.(*ListReport)))
		})
	}
}

func TestPresetOverrides(t *testing.T) {
	r, store, _ := setup(t, map[string]config.PresetConfig{
		NameUnmappedProducts: {Table: "catalog.products", Select: []string{"sku"}},
	})
	store.Add("catalog.products", datastore.RowOf("sku", "A", "stockx_product_id", nil))

	res, err := run(t, r, NameUnmappedProducts)
	require.NoError(t, err)
	report := res.Payload.(*ListReport)
	assert.Equal(t, "catalog.products", report.Table)
	assert.Equal(t, []string{"sku"}, report.Rows[0].Columns())

	reg := runner.NewRegistry()
	assert.Error(t, Register(reg, map[string]config.PresetConfig{"stale-products": {}}))
	assert.Error(t, Register(runner.NewRegistry(), map[string]config.PresetConfig{NameMappedProducts: {Where: []string{"x:between"}}}))
}

func TestSyncPassThrough(t *testing.T) {
	r, store, syncer := setup(t, nil)
	twelve, three := int64(12), int64(3)
	syncer.res = &marketsync.SyncResult{Success: true, VariantsCached: &twelve, SnapshotsCreated: &three}

	res, err := run(t, r, NameSync, "user=8d0c5a3e-6f43-4d4e-9a55-2f1c5b7a9e01", "product=air-jordan-1-chicago")
	require.NoError(t, err)
	assert.Same(t, syncer.res, res.Payload)
	assert.Equal(t, []marketsync.Request{{
		UserID: "8d0c5a3e-6f43-4d4e-9a55-2f1c5b7a9e01", ProductID: "air-jordan-1-chicago", Currency: "GBP",
	}}, syncer.calls)
	assert.Zero(t, store.Calls())

	b, err := json.Marshal(res.Payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"variantsCached":12,"snapshotsCreated":3}`, string(b))
}

func TestSyncValidation(t *testing.T) {
	r, _, syncer := setup(t, nil)

	tests := []struct {
		name  string
		args  []string
		param string
	}{
		{name: "blank user", args: []string{"user=  ", "product=p"}, param: "user"},
		{name: "missing product", args: []string{"user=user_42"}, param: "product"},
		{name: "bad currency", args: []string{"user=8d0c5a3e-6f43-4d4e-9a55-2f1c5b7a9e01", "product=p", "currency=gbp"}, param: "currency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, r, NameSync, tt.args...)
			e, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.param, e.Param)
		})
	}
	assert.Empty(t, syncer.calls)
}

func TestSyncErrors(t *testing.T) {
	r, _, syncer := setup(t, nil)
	syncer.err = errors.New("sync service: Unavailable: connection refused")

	_, err := run(t, r, NameSync, "user=8d0c5a3e-6f43-4d4e-9a55-2f1c5b7a9e01", "product=p", "currency=USD")
	assert.Equal(t, apperrors.BackendError, apperrors.KindOf(err))
	assert.Len(t, syncer.calls, 1)

	reg := runner.NewRegistry()
	require.NoError(t, Register(reg, nil))
	unconfigured := runner.New(reg, runner.Deps{Store: datastoretest.New()})
	_, err = run(t, unconfigured, NameSync, "user=8d0c5a3e-6f43-4d4e-9a55-2f1c5b7a9e01", "product=p")
	assert.Equal(t, apperrors.MissingConfiguration, apperrors.KindOf(err))
}

func TestSyncAcceptsNonUUIDUserID(t *testing.T) {
	r, _, syncer := setup(t, nil)
	syncer.res = &marketsync.SyncResult{Success: true}

	_, err := run(t, r, NameSync, "user=user_42", "product=p")
	require.NoError(t, err)
	require.Len(t, syncer.calls, 1)
	assert.Equal(t, "user_42", syncer.calls[0].UserID)
}
