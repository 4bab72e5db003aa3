// Copyright (c) 2025 Inventoryops
// Licensed under the MIT License. See LICENSE file in the project root for details.

package httperrors

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"inventoryops/cli/internal/datastore"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{name: "nil", err: nil, want: None},
		{name: "deadline", err: fmt.Errorf("GET /rest/v1/products: %w", context.DeadlineExceeded), want: Timeout},
		{name: "dns", err: &net.DNSError{Err: "no such host", Name: "abcd.supabase.co"}, want: DNS},
		{name: "refused", err: &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, want: Refused},
		{name: "tls", err: errors.New("x509: certificate signed by unknown authority"), want: TLS},
		{name: "unauthorized", err: &datastore.BackendError{Status: 401, Message: "Invalid API key"}, want: Unauthorized},
		{name: "server", err: &datastore.BackendError{Status: 503, Message: "unavailable"}, want: Server},
		{name: "query error", err: &datastore.BackendError{Status: 400, Message: "column does not exist"}, want: None},
		{name: "other", err: errors.New("boom"), want: None},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWriteHints(t *testing.T) {
	var buf bytes.Buffer
	if WriteHints(&buf, errors.New("boom"), "listing products", "abcd.supabase.co") {
		t.Errorf("expected no hints for a non-network error")
	}
	if buf.Len() != 0 {
		t.Errorf("unexpected output %q", buf.String())
	}

	if !WriteHints(&buf, &net.DNSError{Err: "no such host", Name: "abcd.supabase.co"}, "listing products", "abcd.supabase.co") {
		t.Fatalf("expected hints for a DNS error")
	}
	if !bytes.Contains(buf.Bytes(), []byte("Cannot resolve abcd.supabase.co while listing products")) {
		t.Errorf("unexpected hint %q", buf.String())
	}
}

func TestExtractHostFromURL(t *testing.T) {
	if got := ExtractHostFromURL("https://abcd.supabase.co/rest/v1"); got != "abcd.supabase.co" {
		t.Errorf("got %q", got)
	}
	if got := ExtractHostFromURL("::bad"); got != "server" {
		t.Errorf("got %q", got)
	}
}
