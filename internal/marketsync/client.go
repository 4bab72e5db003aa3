// Copyright (c) 2025 Inventoryops
// Licensed under the MIT License. See LICENSE file in the project root for details.

package marketsync

import (
	"context"
	"crypto/tls"
	"fmt"
	"math"
	"net"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// SyncMethod is the unary RPC invoked for each sync. Request and response
// are google.protobuf.Struct messages.
const SyncMethod = "/marketdata.MarketSync/SyncProduct"

// Client implements Syncer over gRPC.
type Client struct {
	conn  *grpc.ClientConn
	token string
}

// Options configures Dial.
type Options struct {
	// Insecure disables TLS, for local development servers.
	Insecure bool
	// Token is sent as a bearer token with every call.
	Token string
	// DialOptions are appended to the defaults, e.g. a bufconn dialer in tests.
	DialOptions []grpc.DialOption
}

// Dial prepares a client for addr. A missing port defaults to 443 unless
// addr is a resolver URL such as dns:///host:port. No connection is made
// until the first call.
func Dial(addr string, opts Options) (*Client, error) {
	// ServerName stays empty for resolver URLs; grpc derives it from the authority.
	var host string
	target := addr
	if !strings.Contains(addr, "://") {
		host = addr
		if h, _, err := net.SplitHostPort(addr); err == nil {
			host = h
		} else {
			target = net.JoinHostPort(addr, "443")
		}
	}

	var creds credentials.TransportCredentials
	if opts.Insecure {
		creds = insecure.NewCredentials()
	} else {
		creds = credentials.NewTLS(&tls.Config{ServerName: host, MinVersion: tls.VersionTLS12})
	}

	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, opts.DialOptions...)
	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("sync service %s: %w", addr, err)
	}
	return &Client{conn: conn, token: opts.Token}, nil
}

// Sync implements Syncer. It makes exactly one call and never retries.
func (c *Client) Sync(ctx context.Context, req Request) (*SyncResult, error) {
	in, err := structpb.NewStruct(map[string]any{
		"user_id":    req.UserID,
		"product_id": req.ProductID,
		"currency":   req.Currency,
	})
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
	}

	out := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, SyncMethod, in, out); err != nil {
		if st, ok := status.FromError(err); ok {
			return nil, fmt.Errorf("sync service: %s: %s", st.Code(), st.Message())
		}
		return nil, err
	}
	return decodeResult(out)
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// decodeResult reads the reply. Both snake_case and camelCase keys are
// accepted. A field of the wrong type, a fractional count or a missing
// success flag is an error; values are never coerced.
func decodeResult(s *structpb.Struct) (*SyncResult, error) {
	f := s.GetFields()
	lookup := func(keys ...string) (string, *structpb.Value) {
		for _, k := range keys {
			if v, ok := f[k]; ok {
				if _, null := v.GetKind().(*structpb.Value_NullValue); !null {
					return k, v
				}
			}
		}
		return "", nil
	}
	count := func(keys ...string) (*int64, error) {
		k, v := lookup(keys...)
		if v == nil {
			return nil, nil
		}
		nv, ok := v.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return nil, fmt.Errorf("sync service: %s is %s, want number", k, kindName(v))
		}
		x := nv.NumberValue
		if x != math.Trunc(x) || math.IsInf(x, 0) || x < math.MinInt64 || x > math.MaxInt64 {
			return nil, fmt.Errorf("sync service: %s is %v, want a whole number", k, x)
		}
		n := int64(x)
		return &n, nil
	}
	text := func(key string) (*string, error) {
		_, v := lookup(key)
		if v == nil {
			return nil, nil
		}
		sv, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("sync service: %s is %s, want string", key, kindName(v))
		}
		t := sv.StringValue
		return &t, nil
	}

	res := &SyncResult{}
	_, v := lookup("success")
	if v == nil {
		return nil, fmt.Errorf("sync service: reply has no success flag")
	}
	bv, ok := v.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return nil, fmt.Errorf("sync service: success is %s, want bool", kindName(v))
	}
	res.Success = bv.BoolValue

	var err error
	if res.VariantsCached, err = count("variants_cached", "variantsCached"); err != nil {
		return nil, err
	}
	if res.SnapshotsCreated, err = count("snapshots_created", "snapshotsCreated"); err != nil {
		return nil, err
	}
	if res.Warning, err = text("warning"); err != nil {
		return nil, err
	}
	if res.Error, err = text("error"); err != nil {
		return nil, err
	}
	return res, nil
}

func kindName(v *structpb.Value) string {
	switch v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		return "number"
	case *structpb.Value_StringValue:
		return "string"
	case *structpb.Value_BoolValue:
		return "bool"
	case *structpb.Value_StructValue:
		return "object"
	case *structpb.Value_ListValue:
		return "list"
	}
	return "null"
}
