// Package datastoretest provides an in-memory datastore.Client for tests.
package datastoretest

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"inventoryops/cli/internal/datastore"
)

// Fake is an in-memory datastore.Client. Tables hold rows in insertion order.
// Select applies every predicate operator: comparisons are numeric when both
// sides parse as numbers and textual otherwise, and like follows SQL
// wildcards. Null never satisfies a comparison. Set SelectErr or DeleteErr to make the next calls fail.
type Fake struct {
	mu     sync.Mutex
	Tables map[string][]*datastore.Row

	SelectErr error
	DeleteErr error

	Selects []datastore.SelectQuery
	Deletes []datastore.DeleteQuery
	Closed  bool
}

// New returns an empty fake.
func New() *Fake {
	return &Fake{Tables: make(map[string][]*datastore.Row)}
}

// Add appends rows to table.
func (f *Fake) Add(table string, rows ...*datastore.Row) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Tables[table] = append(f.Tables[table], rows...)
	return f
}

// Calls returns the total number of Select and Delete calls.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Selects) + len(f.Deletes)
}

func (f *Fake) Select(_ context.Context, q datastore.SelectQuery) ([]*datastore.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Selects = append(f.Selects, q)
	if f.SelectErr != nil {
		return nil, f.SelectErr
	}

	out := []*datastore.Row{}
	for _, r := range f.Tables[q.Table] {
		if !matchesAll(r, q.Where) {
			continue
		}
		if len(q.Columns) > 0 {
			r = r.Project(q.Columns)
		}
		out = append(out, r)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (f *Fake) Delete(_ context.Context, q datastore.DeleteQuery) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Deletes = append(f.Deletes, q)
	if f.DeleteErr != nil {
		return 0, f.DeleteErr
	}

	var kept []*datastore.Row
	var n int64
	for _, r := range f.Tables[q.Table] {
		if matches(r, q.Where) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	f.Tables[q.Table] = kept
	return n, nil
}

func (f *Fake) Close() error {
	f.Closed = true
	return nil
}

func matchesAll(r *datastore.Row, preds []datastore.Predicate) bool {
	for _, p := range preds {
		if !matches(r, p) {
			return false
		}
	}
	return true
}

func matches(r *datastore.Row, p datastore.Predicate) bool {
	v, ok := r.Get(p.Column)
	switch p.Op {
	case datastore.OpIsNull:
		return !ok || v == nil
	case datastore.OpIsNotNull:
		return ok && v != nil
	case datastore.OpEq:
		return ok && v != nil && datastore.Text(v) == p.Value
	case datastore.OpNeq:
		return ok && v != nil && datastore.Text(v) != p.Value
	}
	if !ok || v == nil {
		return false
	}
	text := datastore.Text(v)
	switch p.Op {
	case datastore.OpLike:
		return likePattern(p.Value).MatchString(text)
	case datastore.OpGt:
		return compare(text, p.Value) > 0
	case datastore.OpGte:
		return compare(text, p.Value) >= 0
	case datastore.OpLt:
		return compare(text, p.Value) < 0
	case datastore.OpLte:
		return compare(text, p.Value) <= 0
	}
	panic(fmt.Sprintf("datastoretest: unsupported operator %q", p.Op))
}

func compare(a, b string) int {
	x, errA := strconv.ParseFloat(a, 64)
	y, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	return strings.Compare(a, b)
}

func likePattern(p string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range p {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}
