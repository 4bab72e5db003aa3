// Copyright (c) 2025 Inventoryops
// Licensed under the MIT License. See LICENSE file in the project root for details.

package marketsync

import (
	"context"
	"encoding/json"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type handler func(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

// serve starts an in-process MarketSync server answering with h.
func serve(t *testing.T, h handler) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	srv.RegisterService(&grpc.ServiceDesc{
		ServiceName: "marketdata.MarketSync",
		HandlerType: (*any)(nil),
		Methods: []grpc.MethodDesc{{
			MethodName: "SyncProduct",
			Handler: func(_ any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
				in := &structpb.Struct{}
				if err := dec(in); err != nil {
					return nil, err
				}
				return h(ctx, in)
			},
		}},
	}, struct{}{})
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	c, err := Dial("passthrough:///bufnet", Options{
		Insecure: true,
		Token:    "service-key",
		DialOptions: []grpc.DialOption{
			grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
				return lis.DialContext(ctx)
			}),
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestSyncPassesResultThrough(t *testing.T) {
	var gotReq map[string]any
	var gotAuth []string
	c := serve(t, func(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
		gotReq = in.AsMap()
		md, _ := metadata.FromIncomingContext(ctx)
		gotAuth = md.Get("authorization")
		return structpb.NewStruct(map[string]any{
			"success":           true,
			"variants_cached":   12,
			"snapshots_created": 3,
		})
	})

	res, err := c.Sync(context.Background(), Request{
		UserID:    "8d0c5a3e-6f43-4d4e-9a55-2f1c5b7a9e01",
		ProductID: "air-jordan-1-retro-high-og-chicago",
		Currency:  "GBP",
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"user_id":    "8d0c5a3e-6f43-4d4e-9a55-2f1c5b7a9e01",
		"product_id": "air-jordan-1-retro-high-og-chicago",
		"currency":   "GBP",
	}, gotReq)
	assert.Equal(t, []string{"Bearer service-key"}, gotAuth)

	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"variantsCached":12,"snapshotsCreated":3}`, string(b))
}

func TestSyncReportedFailure(t *testing.T) {
	c := serve(t, func(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
		return structpb.NewStruct(map[string]any{
			"success": false,
			"error":   "product not found on marketplace",
			"warning": nil,
		})
	})

	res, err := c.Sync(context.Background(), Request{UserID: "u", ProductID: "p", Currency: "USD"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	require.NotNil(t, res.Error)
	assert.Equal(t, "product not found on marketplace", *res.Error)
	assert.Nil(t, res.Warning)
	assert.Nil(t, res.VariantsCached)
}

func TestSyncTransportError(t *testing.T) {
	calls := 0
	c := serve(t, func(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
		calls++
		return nil, status.Error(codes.Unavailable, "marketplace rate limited")
	})

	_, err := c.Sync(context.Background(), Request{UserID: "u", ProductID: "p", Currency: "GBP"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "marketplace rate limited")
	assert.Equal(t, 1, calls)
}

func TestDecodeResultCamelCase(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{"success": true, "variantsCached": 4, "warning": "stale price"})
	require.NoError(t, err)
	res, err := decodeResult(s)
	require.NoError(t, err)
	require.NotNil(t, res.VariantsCached)
	assert.Equal(t, int64(4), *res.VariantsCached)
	require.NotNil(t, res.Warning)
	assert.Equal(t, "stale price", *res.Warning)
	assert.Nil(t, res.SnapshotsCreated)
}

func TestDecodeResultRejectsMistypedFields(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]any
		want   string
	}{
		{name: "success as string", fields: map[string]any{"success": "true"}, want: "success is string"},
		{name: "missing success", fields: map[string]any{"variants_cached": 12}, want: "no success flag"},
		{name: "fractional count", fields: map[string]any{"success": true, "variants_cached": 12.9}, want: "want a whole number"},
		{name: "count as string", fields: map[string]any{"success": true, "snapshots_created": "3"}, want: "snapshots_created is string"},
		{name: "warning as number", fields: map[string]any{"success": true, "warning": 42}, want: "warning is number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := structpb.NewStruct(tt.fields)
			require.NoError(t, err)
			res, err := decodeResult(s)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSyncMalformedReplyIsAnError(t *testing.T) {
	c := serve(t, func(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
		return structpb.NewStruct(map[string]any{"success": "true", "variants_cached": 12.9})
	})

	res, err := c.Sync(context.Background(), Request{UserID: "u1", ProductID: "p1", Currency: "GBP"})
	require.Error(t, err)
	assert.Nil(t, res)
}
