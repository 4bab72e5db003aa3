// Copyright (c) 2025 Inventoryops
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"golang.org/x/time/rate"

	"inventoryops/cli/internal/datastore"
	"inventoryops/cli/internal/logging"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second
	// DefaultRateLimit caps requests per second against the hosted API.
	DefaultRateLimit = 10.0

	restPrefix = "/rest/v1/"
)

// HTTP implements datastore.Client over the hosted database's REST API
// (PostgREST dialect). Every call is a single HTTP round trip authenticated
// with the service-level key.
type HTTP struct {
	// baseURL is the project endpoint, e.g. "https://abcd.supabase.co"
	baseURL string
	// serviceKey is sent both as apikey and as bearer token
	serviceKey string
	client     *http.Client
	limiter    *rate.Limiter
	log        *pterm.Logger
}

// Option configures an HTTP client.
type Option func(*HTTP)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(h *HTTP) { h.client = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(h *HTTP) {
		if d > 0 {
			h.client.Timeout = d
		}
	}
}

// WithRateLimit sets the maximum requests per second. Zero or less disables limiting.
func WithRateLimit(rps float64) Option {
	return func(h *HTTP) {
		if rps <= 0 {
			h.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		h.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithLogger sets the debug logger.
func WithLogger(l *pterm.Logger) Option {
	return func(h *HTTP) {
		if l != nil {
			h.log = l
		}
	}
}

// NewHTTP creates a REST client for the project at baseURL.
func NewHTTP(baseURL, serviceKey string, opts ...Option) *HTTP {
	h := &HTTP{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		client:     &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		log:        logging.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Select implements datastore.Client.
func (h *HTTP) Select(ctx context.Context, q datastore.SelectQuery) ([]*datastore.Row, error) {
	params, err := filterParams(q.Where)
	if err != nil {
		return nil, err
	}
	sel := "*"
	if len(q.Columns) > 0 {
		for _, c := range q.Columns {
			if err := datastore.ValidateIdentifier(c); err != nil {
				return nil, err
			}
		}
		sel = strings.Join(q.Columns, ",")
	}
	params.Set("select", sel)
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	req, err := h.newRequest(ctx, http.MethodGet, q.Table, params)
	if err != nil {
		return nil, err
	}
	resp, err := h.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, decodeError(resp)
	}
	rows, err := decodeRows(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode rows from %s: %w", q.Table, err)
	}
	h.log.Debug("select complete", h.log.Args("table", q.Table, "rows", len(rows)))
	return rows, nil
}

// Delete implements datastore.Client. The affected count comes from the
// Content-Range header returned for "Prefer: count=exact".
func (h *HTTP) Delete(ctx context.Context, q datastore.DeleteQuery) (int64, error) {
	if err := q.Where.Validate(); err != nil {
		return 0, err
	}
	params, err := filterParams([]datastore.Predicate{q.Where})
	if err != nil {
		return 0, err
	}
	req, err := h.newRequest(ctx, http.MethodDelete, q.Table, params)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Prefer", "count=exact,return=minimal")

	resp, err := h.do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return 0, decodeError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	n := affectedFromContentRange(resp.Header.Get("Content-Range"))
	h.log.Debug("delete complete", h.log.Args("table", q.Table, "affected", n))
	return n, nil
}

// Probe checks that the endpoint is reachable and accepts the service key
// by reading at most one row of table.
func (h *HTTP) Probe(ctx context.Context, table string) error {
	_, err := h.Select(ctx, datastore.SelectQuery{Table: table, Limit: 1})
	return err
}

// Close implements datastore.Client. The HTTP client holds no session.
func (h *HTTP) Close() error {
	h.client.CloseIdleConnections()
	return nil
}

func (h *HTTP) newRequest(ctx context.Context, method, table string, params url.Values) (*http.Request, error) {
	if err := datastore.ValidateIdentifier(table); err != nil {
		return nil, err
	}
	schema, name := "", table
	if i := strings.Index(table, "."); i >= 0 {
		schema, name = table[:i], table[i+1:]
	}

	u := h.baseURL + restPrefix + url.PathEscape(name)
	if enc := params.Encode(); enc != "" {
		u += "?" + enc
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", h.serviceKey)
	req.Header.Set("Authorization", "Bearer "+h.serviceKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "invops-cli/1.0")
	if schema != "" {
		if method == http.MethodGet {
			req.Header.Set("Accept-Profile", schema)
		} else {
			req.Header.Set("Content-Profile", schema)
		}
	}
	return req, nil
}

func (h *HTTP) do(req *http.Request) (*http.Response, error) {
	if err := h.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	h.log.Debug("datastore request", h.log.Args("method", req.Method, "url", logging.Mask(req.URL.String())))
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	return resp, nil
}

// reservedParams are PostgREST query parameters that cannot double as
// column filters.
var reservedParams = map[string]bool{
	"select": true, "order": true, "limit": true, "offset": true,
	"and": true, "or": true, "not": true, "columns": true, "on_conflict": true,
}

// filterParams renders predicates as PostgREST horizontal filters.
// Repeated columns are ANDed by the server. Columns named like a reserved
// parameter are sent through the and=(...) logic tree instead.
func filterParams(preds []datastore.Predicate) (url.Values, error) {
	v := url.Values{}
	var tree []string
	for _, p := range preds {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if reservedParams[p.Column] {
			tree = append(tree, p.Column+"."+filterExpr(p, true))
			continue
		}
		v.Add(p.Column, filterExpr(p, false))
	}
	if len(tree) > 0 {
		v.Set("and", "("+strings.Join(tree, ",")+")")
	}
	return v, nil
}

func filterExpr(p datastore.Predicate, inTree bool) string {
	switch p.Op {
	case datastore.OpIsNull:
		return "is.null"
	case datastore.OpIsNotNull:
		return "not.is.null"
	}
	val := p.Value
	if p.Op == datastore.OpLike {
		val = strings.ReplaceAll(val, "%", "*")
	}
	if inTree && strings.ContainsAny(val, ",.:()\" \\") {
		val = `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(val) + `"`
	}
	return string(p.Op) + "." + val
}

// decodeRows reads a JSON array of objects, keeping each object's key order.
func decodeRows(r io.Reader) ([]*datastore.Row, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}
	rows := []*datastore.Row{}
	for dec.More() {
		if err := expectDelim(dec, '{'); err != nil {
			return nil, err
		}
		row := datastore.NewRow()
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := tok.(string)
			if !ok {
				return nil, fmt.Errorf("expected object key, got %v", tok)
			}
			var v any
			if err := dec.Decode(&v); err != nil {
				return nil, err
			}
			row.Set(key, v)
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	return rows, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

// decodeError converts a non-2xx response into a *datastore.BackendError.
func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	be := &datastore.BackendError{Status: resp.StatusCode}

	var payload struct {
		Message string          `json:"message"`
		Code    string          `json:"code"`
		Details json.RawMessage `json:"details"`
		Hint    json.RawMessage `json:"hint"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		be.Message = payload.Message
		be.Code = payload.Code
		be.Details = rawText(payload.Details)
		be.Hint = rawText(payload.Hint)
		return be
	}

	be.Message = strings.TrimSpace(string(body))
	if be.Message == "" {
		be.Message = http.StatusText(resp.StatusCode)
	}
	return be
}

func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// affectedFromContentRange parses "0-2/3" or "*/3" and returns the total.
func affectedFromContentRange(h string) int64 {
	_, total, ok := strings.Cut(h, "/")
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(total, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
