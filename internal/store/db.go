package store

import (
	"context"
	"errors"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/diagnosis/trainer-bookings/pkg/logger"
	"github.com/diagnosis/trainer-bookings/pkg/metrics"
)

// DB is the backend-agnostic facade. Statements are written once with `?`
// placeholders and rewritten for the active backend. Every `?` is a
// placeholder, including one inside a quoted literal; a literal question mark
// is written `??` or bound as a parameter.
type DB struct {
	backend Backend
}

func New(b Backend) *DB { return &DB{backend: b} }

// Backend returns the name of the active engine.
func (db *DB) Backend() string { return db.backend.Name() }

func (db *DB) Exec(ctx context.Context, stmt string, args ...any) (Result, error) {
	stmt, err := db.rewrite(stmt)
	if err != nil {
		return Result{}, err
	}
	res, err := db.backend.Exec(ctx, stmt, args...)
	if err != nil {
		db.observe(ctx, "exec", err)
		return Result{}, err
	}
	return res, nil
}

func (db *DB) QueryOne(ctx context.Context, scan ScanFunc, stmt string, args ...any) (bool, error) {
	stmt, err := db.rewrite(stmt)
	if err != nil {
		return false, err
	}
	found, err := db.backend.QueryOne(ctx, scan, stmt, args...)
	if err != nil {
		db.observe(ctx, "query_one", err)
		return false, err
	}
	return found, nil
}

func (db *DB) QueryMany(ctx context.Context, scan ScanFunc, stmt string, args ...any) error {
	stmt, err := db.rewrite(stmt)
	if err != nil {
		return err
	}
	if err := db.backend.QueryMany(ctx, scan, stmt, args...); err != nil {
		db.observe(ctx, "query_many", err)
		return err
	}
	return nil
}

func (db *DB) Bootstrap(ctx context.Context) error { return db.backend.Bootstrap(ctx) }

func (db *DB) Ping(ctx context.Context) error { return db.backend.Ping(ctx) }

func (db *DB) Close() error { return db.backend.Close() }

func (db *DB) rewrite(stmt string) (string, error) {
	format := db.backend.Placeholder()
	if format == sq.Question {
		// squirrel only unescapes `??` when it renumbers
		return strings.ReplaceAll(stmt, "??", "?"), nil
	}
	out, err := format.ReplacePlaceholders(stmt)
	if err != nil {
		return "", &StatementError{Backend: db.backend.Name(), Op: "placeholders", Err: err}
	}
	return out, nil
}

func (db *DB) observe(ctx context.Context, op string, err error) {
	kind := "statement"
	if errors.Is(err, ErrConstraintViolation) {
		kind = "constraint"
	}
	metrics.IncStoreError(db.backend.Name(), kind)
	logger.DebugContext(ctx, "store operation failed", "backend", db.backend.Name(), "op", op, "kind", kind, "error", err)
}
