// Package sqlbuild turns datastore queries into parameterized SQL for the
// SQL-speaking backends. It wraps squirrel so identifiers are quoted and
// values are always bound as placeholders.
package sqlbuild

import (
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"inventoryops/cli/internal/datastore"
)

// Builder wraps squirrel to provide safe SQL generation.
type Builder struct {
	sq squirrel.StatementBuilderType
}

// New creates a builder for the given placeholder style
// (squirrel.Dollar for Postgres, squirrel.Question for SQLite).
func New(format squirrel.PlaceholderFormat) *Builder {
	return &Builder{sq: squirrel.StatementBuilder.PlaceholderFormat(format)}
}

// QuoteIdent double-quotes a plain or schema-qualified identifier.
func QuoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

// Select builds a SELECT statement. Predicates keep their given order.
func (b *Builder) Select(q datastore.SelectQuery) (string, []any, error) {
	if err := datastore.ValidateIdentifier(q.Table); err != nil {
		return "", nil, err
	}
	cols := []string{"*"}
	if len(q.Columns) > 0 {
		cols = make([]string, len(q.Columns))
		for i, c := range q.Columns {
			if err := datastore.ValidateIdentifier(c); err != nil {
				return "", nil, err
			}
			cols[i] = QuoteIdent(c)
		}
	}

	sel := b.sq.Select(cols...).From(QuoteIdent(q.Table))
	if len(q.Where) > 0 {
		and := squirrel.And{}
		for _, p := range q.Where {
			cond, err := Condition(p)
			if err != nil {
				return "", nil, err
			}
			and = append(and, cond)
		}
		sel = sel.Where(and)
	}
	if q.Limit > 0 {
		sel = sel.Limit(uint64(q.Limit))
	}
	return sel.ToSql()
}

// Delete builds a DELETE statement with a single condition.
func (b *Builder) Delete(q datastore.DeleteQuery) (string, []any, error) {
	if err := datastore.ValidateIdentifier(q.Table); err != nil {
		return "", nil, err
	}
	cond, err := Condition(q.Where)
	if err != nil {
		return "", nil, err
	}
	return b.sq.Delete(QuoteIdent(q.Table)).Where(cond).ToSql()
}

// Condition converts one predicate into a squirrel expression.
func Condition(p datastore.Predicate) (squirrel.Sqlizer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	col := QuoteIdent(p.Column)
	switch p.Op {
	case datastore.OpIsNull:
		return squirrel.Eq{col: nil}, nil
	case datastore.OpIsNotNull:
		return squirrel.NotEq{col: nil}, nil
	case datastore.OpEq:
		return squirrel.Eq{col: p.Value}, nil
	case datastore.OpNeq:
		return squirrel.NotEq{col: p.Value}, nil
	case datastore.OpGt:
		return squirrel.Gt{col: p.Value}, nil
	case datastore.OpGte:
		return squirrel.GtOrEq{col: p.Value}, nil
	case datastore.OpLt:
		return squirrel.Lt{col: p.Value}, nil
	case datastore.OpLte:
		return squirrel.LtOrEq{col: p.Value}, nil
	case datastore.OpLike:
		return squirrel.Like{col: p.Value}, nil
	}
	return nil, fmt.Errorf("unsupported operator %q", p.Op)
}
