package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Dialect identifies the SQL flavour behind a *sql.DB. Queries are written
// with "?" placeholders and rebound for Postgres.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pq":
		return DialectPostgres, nil
	}
	return "", fmt.Errorf("unsupported db driver %q", driver)
}

// Open connects using the dialect's driver. For SQLite dsn is a file path.
func Open(dialect Dialect, dsn string) (*sql.DB, error) {
	switch dialect {
	case DialectSQLite:
		return OpenSQLite(dsn)
	case DialectPostgres:
		return OpenPostgres(dsn)
	}
	return nil, fmt.Errorf("unsupported dialect %q", dialect)
}

// Rebind rewrites "?" placeholders into "$1, $2, ..." for Postgres.
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres {
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

// IsUniqueViolation reports whether err came from a UNIQUE constraint on
// either backend.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return isSQLiteUniqueViolation(err) || isPostgresUniqueViolation(err)
}

// Connect resolves driver and opens the matching database: sqlitePath for
// SQLite, postgresURL for Postgres.
func Connect(driver, sqlitePath, postgresURL string) (*sql.DB, Dialect, error) {
	dialect, err := ParseDialect(driver)
	if err != nil {
		return nil, "", err
	}
	dsn := sqlitePath
	if dialect == DialectPostgres {
		if postgresURL == "" {
			return nil, "", errors.New("database url is required for the postgres driver")
		}
		dsn = postgresURL
	}
	database, err := Open(dialect, dsn)
	if err != nil {
		return nil, "", err
	}
	return database, dialect, nil
}
