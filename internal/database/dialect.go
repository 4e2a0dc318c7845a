package database

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Dialect identifies the SQL flavour spoken by a connection.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ParseDialect maps a backend name to its dialect.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("unsupported sql dialect: %q", name)
	}
}

// DriverName returns the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	switch d {
	case Postgres:
		return "pgx"
	case SQLite:
		return "sqlite"
	default:
		return string(d)
	}
}

// Rebind rewrites ? placeholders into the dialect's native form. Queries in
// this module are written with ? and never contain literal question marks.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// DateArg converts a calendar date into a bind argument for a DATE column.
func (d Dialect) DateArg(date civil.Date) any {
	if d == Postgres {
		return date.In(time.UTC)
	}
	return date.String()
}

// NullDateArg is DateArg for optional dates.
func (d Dialect) NullDateArg(date *civil.Date) any {
	if date == nil {
		return nil
	}
	return d.DateArg(*date)
}
