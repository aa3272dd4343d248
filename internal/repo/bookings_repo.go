package repo

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/diagnosis/trainer-bookings/internal/domain"
	"github.com/diagnosis/trainer-bookings/internal/store"
)

type BookingRepo interface {
	Create(ctx context.Context, in *domain.BookingReq, userID *int64) (int64, error)
	ListByUserID(ctx context.Context, userID int64) ([]domain.Booking, error)
	List(ctx context.Context) ([]domain.Booking, error)
	UpdateForUser(ctx context.Context, userID, id int64, patch *domain.BookingPatch) (int64, error)
	DeleteForUser(ctx context.Context, userID, id int64) (int64, error)
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

type BookingRepoImpl struct{ db *store.DB }

func NewBookingRepo(db *store.DB) *BookingRepoImpl { return &BookingRepoImpl{db: db} }

var bookingCols = []string{"id", "name", "email", "phone", "date", "time", "message", "status", "user_id"}

func scanBooking(b *domain.Booking) store.ScanFunc {
	return func(s store.Scanner) error {
		return s.Scan(&b.ID, &b.Name, &b.Email, &b.Phone, &b.Date, &b.Time, &b.Message, &b.Status, &b.UserID)
	}
}

// optional maps a blank string to NULL.
func optional(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func (r *BookingRepoImpl) Create(ctx context.Context, in *domain.BookingReq, userID *int64) (int64, error) {
	q, args, err := sq.Insert("bookings").
		Columns("name", "email", "date", "time", "message", "phone", "status", "user_id").
		Values(in.Name, in.Email, in.Date, in.Time, optional(in.Message), in.Phone, string(domain.BookingPending), nullableID(userID)).
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

func (r *BookingRepoImpl) ListByUserID(ctx context.Context, userID int64) ([]domain.Booking, error) {
	return r.list(ctx, sq.Select(bookingCols...).From("bookings").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("date", "time", "id"))
}

func (r *BookingRepoImpl) List(ctx context.Context) ([]domain.Booking, error) {
	return r.list(ctx, sq.Select(bookingCols...).From("bookings").OrderBy("date", "time", "id"))
}

// UpdateForUser changes a booking only when it belongs to userID. Ownership
// and the write are one statement; zero rows means missing or not owned.
func (r *BookingRepoImpl) UpdateForUser(ctx context.Context, userID, id int64, patch *domain.BookingPatch) (int64, error) {
	return r.exec(ctx, sq.Update("bookings").
		Set("date", patch.Date).
		Set("time", patch.Time).
		Set("message", optional(patch.Message)).
		Set("phone", patch.Phone).
		Where(sq.Eq{"id": id, "user_id": userID}))
}

func (r *BookingRepoImpl) DeleteForUser(ctx context.Context, userID, id int64) (int64, error) {
	return r.exec(ctx, sq.Delete("bookings").Where(sq.Eq{"id": id, "user_id": userID}))
}

func (r *BookingRepoImpl) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) (int64, error) {
	return r.exec(ctx, sq.Update("bookings").Set("status", string(status)).Where(sq.Eq{"id": id}))
}

func (r *BookingRepoImpl) Delete(ctx context.Context, id int64) (int64, error) {
	return r.exec(ctx, sq.Delete("bookings").Where(sq.Eq{"id": id}))
}

func (r *BookingRepoImpl) exec(ctx context.Context, b sq.Sqlizer) (int64, error) {
	q, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	res, err := r.db.Exec(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}

func (r *BookingRepoImpl) list(ctx context.Context, b sq.SelectBuilder) ([]domain.Booking, error) {
	q, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	bs := []domain.Booking{}
	err = r.db.QueryMany(ctx, func(s store.Scanner) error {
		var b domain.Booking
		if err := scanBooking(&b)(s); err != nil {
			return err
		}
		bs = append(bs, b)
		return nil
	}, q, args...)
	if err != nil {
		return nil, err
	}
	return bs, nil
}

var _ BookingRepo = (*BookingRepoImpl)(nil)
