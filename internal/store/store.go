// Package store is the persistence contract shared by every storage engine the
// service can run on. Callers talk to a *DB; the engine behind it is picked once
// at startup and never changes for the lifetime of the process.
package store

import (
	"context"
	"regexp"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Result describes the outcome of a mutating statement.
type Result struct {
	RowsAffected int64
	// InsertedID is the engine-assigned primary key of the inserted row. It is
	// only meaningful when HasInsertedID is true.
	InsertedID    int64
	HasInsertedID bool
}

// Scanner is satisfied by both *sql.Rows and pgx.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanFunc reads the current row.
type ScanFunc func(Scanner) error

// Backend is a storage engine. Statements reaching a Backend already use the
// engine's own placeholder syntax.
type Backend interface {
	Name() string
	Placeholder() sq.PlaceholderFormat

	// Exec runs a mutating statement. For INSERT statements the inserted id is
	// read back as part of the same statement.
	Exec(ctx context.Context, stmt string, args ...any) (Result, error)
	// QueryOne scans the first row, if any. found is false when nothing matched.
	QueryOne(ctx context.Context, scan ScanFunc, stmt string, args ...any) (found bool, err error)
	// QueryMany calls scan once per row in the order the engine returns them.
	QueryMany(ctx context.Context, scan ScanFunc, stmt string, args ...any) error

	Bootstrap(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

var returningRe = regexp.MustCompile(`(?i)\bRETURNING\b`)

// IsInsert reports whether stmt is an INSERT statement.
func IsInsert(stmt string) bool {
	fields := strings.Fields(stmt)
	return len(fields) > 0 && strings.EqualFold(fields[0], "INSERT")
}

// HasReturning reports whether stmt already carries a RETURNING clause.
func HasReturning(stmt string) bool {
	return returningRe.MatchString(stmt)
}
