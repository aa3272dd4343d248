// Package storetest holds the behaviour every store.Backend must share. Engine
// packages run it from their own tests.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/diagnosis/trainer-bookings/internal/store"
)

// Run exercises a freshly bootstrapped, empty backend through the facade.
func Run(t *testing.T, open func(t *testing.T) store.Backend) {
	t.Run("insert returns generated ids", func(t *testing.T) {
		db := setup(t, open)
		ctx := context.Background()

		first := insertUser(t, db, "a@example.com")
		second := insertUser(t, db, "b@example.com")
		if first <= 0 || second <= first {
			t.Fatalf("ids not increasing: %d then %d", first, second)
		}

		var email string
		found, err := db.QueryOne(ctx, func(s store.Scanner) error { return s.Scan(&email) },
			"SELECT email FROM users WHERE id = ?", second)
		if err != nil || !found {
			t.Fatalf("QueryOne: found=%v err=%v", found, err)
		}
		if email != "b@example.com" {
			t.Fatalf("email = %q", email)
		}
	})

	t.Run("multi-row insert reports engine count and last id", func(t *testing.T) {
		db := setup(t, open)
		ctx := context.Background()

		res, err := db.Exec(ctx, "INSERT INTO users (email, password_hash) VALUES (?, ?), (?, ?)",
			"m1@example.com", "x", "m2@example.com", "y")
		if err != nil {
			t.Fatal(err)
		}
		if res.RowsAffected != 2 || !res.HasInsertedID {
			t.Fatalf("result = %+v, want 2 rows with an id", res)
		}

		var last int64
		if _, err := db.QueryOne(ctx, func(s store.Scanner) error { return s.Scan(&last) },
			"SELECT id FROM users WHERE email = ?", "m2@example.com"); err != nil {
			t.Fatal(err)
		}
		if res.InsertedID != last {
			t.Fatalf("inserted id = %d, want last row id %d", res.InsertedID, last)
		}
	})

	t.Run("duplicate email is a constraint violation", func(t *testing.T) {
		db := setup(t, open)
		insertUser(t, db, "dup@example.com")

		_, err := db.Exec(context.Background(),
			"INSERT INTO users (email, password_hash) VALUES (?, ?)", "dup@example.com", "x")
		if !errors.Is(err, store.ErrConstraintViolation) {
			t.Fatalf("err = %v, want constraint violation", err)
		}
		if n := count(t, db, "SELECT COUNT(*) FROM users WHERE email = ?", "dup@example.com"); n != 1 {
			t.Fatalf("rows for email = %d, want 1", n)
		}
	})

	t.Run("other failures are statement errors", func(t *testing.T) {
		db := setup(t, open)
		_, err := db.Exec(context.Background(), "INSERT INTO no_such_table (x) VALUES (?)", 1)
		var se *store.StatementError
		if !errors.As(err, &se) {
			t.Fatalf("err = %v, want *store.StatementError", err)
		}
		if errors.Is(err, store.ErrConstraintViolation) {
			t.Fatal("missing table reported as constraint violation")
		}
	})

	t.Run("query one reports absence without error", func(t *testing.T) {
		db := setup(t, open)
		found, err := db.QueryOne(context.Background(), func(s store.Scanner) error {
			t.Fatal("scan called for missing row")
			return nil
		}, "SELECT id FROM users WHERE email = ?", "nobody@example.com")
		if err != nil || found {
			t.Fatalf("found=%v err=%v", found, err)
		}
	})

	t.Run("rows affected counts matches only", func(t *testing.T) {
		db := setup(t, open)
		ctx := context.Background()
		id := insertUser(t, db, "c@example.com")

		res, err := db.Exec(ctx, "UPDATE users SET name = ? WHERE id = ?", "C", id)
		if err != nil || res.RowsAffected != 1 {
			t.Fatalf("update: %+v %v", res, err)
		}
		if res.HasInsertedID {
			t.Fatal("update reported an inserted id")
		}
		res, err = db.Exec(ctx, "DELETE FROM users WHERE id = ?", id+1000)
		if err != nil || res.RowsAffected != 0 {
			t.Fatalf("delete missing: %+v %v", res, err)
		}
	})

	t.Run("query many keeps engine order", func(t *testing.T) {
		db := setup(t, open)
		for _, e := range []string{"z@example.com", "m@example.com", "a@example.com"} {
			insertUser(t, db, e)
		}
		var got []string
		err := db.QueryMany(context.Background(), func(s store.Scanner) error {
			var e string
			if err := s.Scan(&e); err != nil {
				return err
			}
			got = append(got, e)
			return nil
		}, "SELECT email FROM users ORDER BY email")
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"a@example.com", "m@example.com", "z@example.com"}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			t.Fatalf("got %v, want %v", got, want)
		}
	})

	t.Run("bootstrap is idempotent", func(t *testing.T) {
		db := setup(t, open)
		insertUser(t, db, "keep@example.com")
		if err := db.Bootstrap(context.Background()); err != nil {
			t.Fatalf("second bootstrap: %v", err)
		}
		if n := count(t, db, "SELECT COUNT(*) FROM users"); n != 1 {
			t.Fatalf("users after re-bootstrap = %d", n)
		}
	})

	t.Run("concurrent inserts get distinct ids", func(t *testing.T) {
		db := setup(t, open)
		const n = 20
		ids := make([]int64, n)
		errs := make([]error, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				res, err := db.Exec(context.Background(),
					"INSERT INTO users (email, password_hash) VALUES (?, ?)",
					fmt.Sprintf("u%d@example.com", i), "x")
				ids[i], errs[i] = res.InsertedID, err
			}(i)
		}
		wg.Wait()

		seen := map[int64]bool{}
		for i := range ids {
			if errs[i] != nil {
				t.Fatalf("insert %d: %v", i, errs[i])
			}
			if seen[ids[i]] {
				t.Fatalf("id %d handed out twice", ids[i])
			}
			seen[ids[i]] = true
		}
	})
}

func setup(t *testing.T, open func(t *testing.T) store.Backend) *store.DB {
	t.Helper()
	db := store.New(open(t))
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return db
}

func insertUser(t *testing.T, db *store.DB, email string) int64 {
	t.Helper()
	res, err := db.Exec(context.Background(),
		"INSERT INTO users (email, password_hash) VALUES (?, ?)", email, "hash")
	if err != nil {
		t.Fatalf("insert %s: %v", email, err)
	}
	if !res.HasInsertedID || res.RowsAffected != 1 {
		t.Fatalf("insert %s: result %+v", email, res)
	}
	return res.InsertedID
}

func count(t *testing.T, db *store.DB, stmt string, args ...any) int64 {
	t.Helper()
	var n int64
	if _, err := db.QueryOne(context.Background(), func(s store.Scanner) error { return s.Scan(&n) }, stmt, args...); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
