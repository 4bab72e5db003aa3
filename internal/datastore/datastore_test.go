package datastore

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParsePredicate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Predicate
		wantErr bool
	}{
		{name: "is null", in: "stockx_product_id:is-null", want: Predicate{Column: "stockx_product_id", Op: OpIsNull}},
		{name: "upper case op", in: "sku:IS-NOT-NULL", want: Predicate{Column: "sku", Op: OpIsNotNull}},
		{name: "value with colon", in: "created_at:gt:2025-01-01T00:00:00Z", want: Predicate{Column: "created_at", Op: OpGt, Value: "2025-01-01T00:00:00Z"}},
		{name: "missing op", in: "sku", wantErr: true},
		{name: "unknown op", in: "sku:between:1", wantErr: true},
		{name: "eq without value", in: "sku:eq", wantErr: true},
		{name: "is-null with value", in: "sku:is-null:x", wantErr: true},
		{name: "bad column", in: "sku;drop:eq:1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePredicate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateIdentifier(t *testing.T) {
	for _, ok := range []string{"Inventory", "master_market_data", "public.products", "_x1"} {
		assert.NoError(t, ValidateIdentifier(ok), ok)
	}
	for _, bad := range []string{"", "1abc", "a-b", "a.b.c", `x"; drop`} {
		assert.Error(t, ValidateIdentifier(bad), bad)
	}
}

func TestRowPreservesOrder(t *testing.T) {
	r := RowOf("id", 1, "price", 100.5, "name", "shoe", "deleted_at", nil)

	assert.Equal(t, []string{"id", "price", "name", "deleted_at"}, r.Columns())
	assert.Equal(t, TypeNumber, r.Type("id"))
	assert.Equal(t, TypeNumber, r.Type("price"))
	assert.Equal(t, TypeString, r.Type("name"))
	assert.Equal(t, TypeNull, r.Type("deleted_at"))

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"id":1,"price":100.5,"name":"shoe","deleted_at":null}`, string(b))

	y, err := yaml.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, "id: 1\nprice: 100.5\nname: shoe\ndeleted_at: null\n", string(y))
}

func TestRowProject(t *testing.T) {
	r := RowOf("id", "a", "name", "shoe", "sku", "X1")
	p := r.Project([]string{"sku", "id", "missing"})
	assert.Equal(t, []string{"sku", "id"}, p.Columns())
}

func TestNormalize(t *testing.T) {
	id := [16]byte{0x41, 0x19, 0x85, 0x1a, 0, 0, 0x40, 0, 0x80, 0, 0, 0, 0, 0, 0, 1}
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, int64(3), Normalize(int32(3)))
	assert.Equal(t, "4119851a-0000-4000-8000-000000000001", Normalize(id))
	assert.Equal(t, "2025-03-01T12:00:00Z", Normalize(ts))
	assert.Equal(t, `{"size":"10"}`, Normalize(map[string]any{"size": "10"}))
	assert.Equal(t, `\xff00`, Normalize([]byte{0xff, 0x00}))
	assert.Equal(t, TypeNumber, TypeOf(json.Number("12")))
}

func TestBackendErrorMessage(t *testing.T) {
	err := &BackendError{Code: "42P01", Message: `relation "public.nope" does not exist`}
	assert.Equal(t, `42P01: relation "public.nope" does not exist`, err.Error())
}
