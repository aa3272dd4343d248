// Package postgres is the networked engine, reached through a pgx connection
// pool. PostgreSQL does not hand back the id of an inserted row on its own, so
// INSERT statements are extended with a RETURNING clause.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/trainer-bookings/internal/store"
)

const (
	Name = "postgres"

	uniqueViolation = "23505"
	idColumn        = "id"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id SERIAL PRIMARY KEY,
	email TEXT UNIQUE NOT NULL,
	password_hash TEXT NOT NULL,
	name TEXT
);

CREATE TABLE IF NOT EXISTS bookings (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	phone TEXT NOT NULL,
	date TEXT NOT NULL,
	time TEXT NOT NULL,
	message TEXT,
	status TEXT NOT NULL DEFAULT 'pending',
	user_id INTEGER REFERENCES users(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS bookings_user_id_idx ON bookings (user_id);`

type Backend struct {
	pool *pgxpool.Pool
}

func Connect(ctx context.Context, databaseURL string) (*Backend, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	cfg.MinConns = 1
	cfg.MaxConns = 10
	cfg.MaxConnLifetime = time.Hour
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Backend{pool: pool}, nil
}

func (b *Backend) Name() string { return Name }

func (b *Backend) Placeholder() sq.PlaceholderFormat { return sq.Dollar }

func (b *Backend) Exec(ctx context.Context, stmt string, args ...any) (store.Result, error) {
	if !store.IsInsert(stmt) {
		tag, err := b.pool.Exec(ctx, stmt, args...)
		if err != nil {
			return store.Result{}, translate("exec", err)
		}
		return store.Result{RowsAffected: tag.RowsAffected()}, nil
	}

	rows, err := b.pool.Query(ctx, withReturning(stmt), args...)
	if err != nil {
		return store.Result{}, translate("exec", err)
	}
	defer rows.Close()

	var res store.Result
	for rows.Next() {
		// multi-row inserts report the last id, like sqlite's last_insert_rowid
		if err := rows.Scan(&res.InsertedID); err != nil {
			return store.Result{}, translate("scan", err)
		}
		res.HasInsertedID = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return store.Result{}, translate("exec", err)
	}
	res.RowsAffected = rows.CommandTag().RowsAffected()
	return res, nil
}

func (b *Backend) QueryOne(ctx context.Context, scan store.ScanFunc, stmt string, args ...any) (bool, error) {
	rows, err := b.pool.Query(ctx, stmt, args...)
	if err != nil {
		return false, translate("query", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return false, translate("query", err)
		}
		return false, nil
	}
	if err := scan(rows); err != nil {
		return false, translate("scan", err)
	}
	return true, nil
}

func (b *Backend) QueryMany(ctx context.Context, scan store.ScanFunc, stmt string, args ...any) error {
	rows, err := b.pool.Query(ctx, stmt, args...)
	if err != nil {
		return translate("query", err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return translate("scan", err)
		}
	}
	if err := rows.Err(); err != nil {
		return translate("query", err)
	}
	return nil
}

func (b *Backend) Bootstrap(ctx context.Context) error {
	if _, err := b.pool.Exec(ctx, schema); err != nil {
		return translate("bootstrap", err)
	}
	return nil
}

func (b *Backend) Ping(ctx context.Context) error { return b.pool.Ping(ctx) }

func (b *Backend) Close() error {
	b.pool.Close()
	return nil
}

func withReturning(stmt string) string {
	if store.HasReturning(stmt) {
		return stmt
	}
	return stmt + " RETURNING " + idColumn
}

func translate(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &store.ConstraintError{Backend: Name, Constraint: pgErr.ConstraintName, Err: err}
	}
	return &store.StatementError{Backend: Name, Op: op, Err: err}
}

var _ store.Backend = (*Backend)(nil)
