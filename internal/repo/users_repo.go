package repo

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/diagnosis/trainer-bookings/internal/domain"
	"github.com/diagnosis/trainer-bookings/internal/store"
)

type UsersRepo interface {
	Create(ctx context.Context, email, hash, name string) (int64, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

type UsersRepoImpl struct{ db *store.DB }

func NewUsersRepo(db *store.DB) *UsersRepoImpl { return &UsersRepoImpl{db: db} }

var userCols = []string{"id", "email", "password_hash", "name"}

func scanUser(u *domain.User) store.ScanFunc {
	return func(s store.Scanner) error {
		return s.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name)
	}
}

// Create inserts a user and returns its id. A duplicate email fails with an
// error matching store.ErrConstraintViolation.
func (r *UsersRepoImpl) Create(ctx context.Context, email, hash, name string) (int64, error) {
	q, args, err := sq.Insert("users").
		Columns("email", "password_hash", "name").
		Values(email, hash, name).
		ToSql()
	if err != nil {
		return 0, err
	}
	res, err := r.db.Exec(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.InsertedID, nil
}

// FindByEmail returns nil when no user has that email.
func (r *UsersRepoImpl) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	q, args, err := sq.Select(userCols...).From("users").Where(sq.Eq{"email": email}).ToSql()
	if err != nil {
		return nil, err
	}
	var u domain.User
	found, err := r.db.QueryOne(ctx, scanUser(&u), q, args...)
	if err != nil || !found {
		return nil, err
	}
	return &u, nil
}

func (r *UsersRepoImpl) List(ctx context.Context) ([]domain.User, error) {
	q, args, err := sq.Select(userCols...).From("users").OrderBy("id").ToSql()
	if err != nil {
		return nil, err
	}
	users := []domain.User{}
	err = r.db.QueryMany(ctx, func(s store.Scanner) error {
		var u domain.User
		if err := scanUser(&u)(s); err != nil {
			return err
		}
		users = append(users, u)
		return nil
	}, q, args...)
	return users, err
}

var _ UsersRepo = (*UsersRepoImpl)(nil)
