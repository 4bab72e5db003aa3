// Copyright (c) 2025 Inventoryops
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package dsn parses and normalizes connection strings for the SQL backends.
// Postgres DSNs copied from hosting dashboards often carry unencoded special
// characters in the password; Parse repairs those before handing the string
// to pgx. SQLite targets are accepted as sqlite:// URLs or bare file paths.
package dsn

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Kind identifies which backend a DSN is for.
type Kind string

const (
	KindPostgres Kind = "postgres"
	KindSQLite   Kind = "sqlite"
	KindUnknown  Kind = "unknown"
)

// Info contains parsed information from a DSN string.
type Info struct {
	Kind     Kind
	Host     string
	Port     string
	User     string
	Password string
	Database string // database name, or file path for SQLite
	Params   map[string]string
	Original string
}

// ParseError represents an error that occurred during DSN parsing.
type ParseError struct {
	DSN    string
	Reason string
	Hint   string
}

func (e *ParseError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("invalid DSN format: %s\nHint: %s", e.Reason, e.Hint)
	}
	return fmt.Sprintf("invalid DSN format: %s", e.Reason)
}

func parseError(dsn, reason, hint string) *ParseError {
	return &ParseError{DSN: dsn, Reason: reason, Hint: hint}
}

// Detect detects the backend kind from a DSN string.
func Detect(dsn string) Kind {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return KindPostgres
	case strings.HasPrefix(lower, "sqlite://"), strings.HasPrefix(lower, "file:"),
		strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"), lower == ":memory:":
		return KindSQLite
	}
	return KindUnknown
}

// Parse returns detailed info for a Postgres or SQLite DSN.
func Parse(dsn string) (*Info, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, parseError(dsn, "empty DSN", "provide a valid database connection string")
	}
	switch Detect(dsn) {
	case KindPostgres:
		return parsePostgres(dsn)
	case KindSQLite:
		path := strings.TrimPrefix(dsn, "sqlite://")
		return &Info{Kind: KindSQLite, Database: path, Params: map[string]string{}, Original: dsn}, nil
	}
	return nil, parseError(dsn, "unknown database type", "use postgres://, postgresql:// or sqlite://")
}

// Normalize parses dsn and returns the canonical connection string.
func Normalize(dsn string) (string, error) {
	info, err := Parse(dsn)
	if err != nil {
		return "", err
	}
	return info.String(), nil
}

// String renders the canonical form. Postgres credentials are URL-encoded
// and query parameters sorted.
func (i *Info) String() string {
	if i.Kind == KindSQLite {
		return i.Database
	}
	var b strings.Builder
	b.WriteString("postgresql://")
	if i.User != "" {
		b.WriteString(url.QueryEscape(i.User))
		if i.Password != "" {
			b.WriteString(":")
			b.WriteString(url.QueryEscape(i.Password))
		}
		b.WriteString("@")
	}
	b.WriteString(i.Host)
	if i.Port != "" {
		b.WriteString(":")
		b.WriteString(i.Port)
	}
	b.WriteString("/")
	b.WriteString(i.Database)

	if len(i.Params) > 0 {
		keys := make([]string, 0, len(i.Params))
		for k := range i.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for n, k := range keys {
			if n == 0 {
				b.WriteString("?")
			} else {
				b.WriteString("&")
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteString("=")
			b.WriteString(url.QueryEscape(i.Params[k]))
		}
	}
	return b.String()
}

// Redacted renders the canonical form with the password replaced by ***.
func (i *Info) Redacted() string {
	c := *i
	if c.Password != "" {
		c.Password = "***"
	}
	return strings.Replace(c.String(), url.QueryEscape("***"), "***", 1)
}
