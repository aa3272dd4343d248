// Package sqlite is the embedded single-file engine. All statements share one
// connection, so writers queue behind each other instead of racing for the file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	sq "github.com/Masterminds/squirrel"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/diagnosis/trainer-bookings/internal/store"
)

const Name = "sqlite"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT UNIQUE NOT NULL,
	password_hash TEXT NOT NULL,
	name TEXT
)`,
	`CREATE TABLE IF NOT EXISTS bookings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	phone TEXT NOT NULL,
	date TEXT NOT NULL,
	time TEXT NOT NULL,
	message TEXT,
	status TEXT NOT NULL DEFAULT 'pending',
	user_id INTEGER REFERENCES users(id) ON DELETE SET NULL
)`,
	`CREATE INDEX IF NOT EXISTS bookings_user_id_idx ON bookings (user_id)`,
}

type Backend struct {
	db *sql.DB
}

// Open opens (creating if needed) the database file at path.
func Open(ctx context.Context, path string) (*Backend, error) {
	dsn := "file:" + path + "?" + url.Values{
		"_pragma": {"foreign_keys(1)", "busy_timeout(5000)"},
	}.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// One logical connection: statements execute serially in arrival order.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping %s: %w", path, err)
	}
	return &Backend{db: db}, nil
}

func (b *Backend) Name() string { return Name }

func (b *Backend) Placeholder() sq.PlaceholderFormat { return sq.Question }

func (b *Backend) Exec(ctx context.Context, stmt string, args ...any) (store.Result, error) {
	res, err := b.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return store.Result{}, translate("exec", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return store.Result{}, translate("rows affected", err)
	}
	out := store.Result{RowsAffected: n}
	if store.IsInsert(stmt) && n > 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return store.Result{}, translate("last insert id", err)
		}
		out.InsertedID, out.HasInsertedID = id, true
	}
	return out, nil
}

func (b *Backend) QueryOne(ctx context.Context, scan store.ScanFunc, stmt string, args ...any) (bool, error) {
	rows, err := b.db.QueryContext(ctx, stmt, args...)
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
	rows, err := b.db.QueryContext(ctx, stmt, args...)
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
	for _, ddl := range schema {
		if _, err := b.db.ExecContext(ctx, ddl); err != nil {
			return translate("bootstrap", err)
		}
	}
	return nil
}

func (b *Backend) Ping(ctx context.Context) error { return b.db.PingContext(ctx) }

func (b *Backend) Close() error { return b.db.Close() }

func translate(op string, err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return &store.ConstraintError{Backend: Name, Err: err}
		}
	}
	return &store.StatementError{Backend: Name, Op: op, Err: err}
}

var _ store.Backend = (*Backend)(nil)
