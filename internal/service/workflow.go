package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/diagnosis/trainer-bookings/internal/domain"
	"github.com/diagnosis/trainer-bookings/internal/repo"
	"github.com/diagnosis/trainer-bookings/internal/store"
	"github.com/diagnosis/trainer-bookings/internal/utils"
	"github.com/diagnosis/trainer-bookings/pkg/events"
	"github.com/diagnosis/trainer-bookings/pkg/logger"
	"github.com/diagnosis/trainer-bookings/pkg/metrics"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type TokenIssuer interface {
	NewClientToken(userID int64, email string) (string, error)
	NewAdminToken(username string) (string, error)
}

type Notifier interface {
	BookingCreated(ctx context.Context, b domain.Booking) error
}

// AdminCredentials is the single dashboard account.
type AdminCredentials struct {
	Username     string
	PasswordHash string
}

type Session struct {
	Token  string `json:"token"`
	Name   string `json:"name"`
	UserID int64  `json:"-"`
}

type Workflow struct {
	users    repo.UsersRepo
	bookings repo.BookingRepo
	hasher   PasswordHasher
	tokens   TokenIssuer
	notifier Notifier
	events   events.Publisher
	admin    AdminCredentials
}

func NewWorkflow(
	users repo.UsersRepo,
	bookings repo.BookingRepo,
	hasher PasswordHasher,
	tokens TokenIssuer,
	notifier Notifier,
	publisher events.Publisher,
	admin AdminCredentials,
) *Workflow {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Workflow{
		users:    users,
		bookings: bookings,
		hasher:   hasher,
		tokens:   tokens,
		notifier: notifier,
		events:   publisher,
		admin:    admin,
	}
}

// Register creates a client account and returns its id.
func (w *Workflow) Register(ctx context.Context, email, password, name string) (int64, error) {
	if err := required([2]string{"email", email}, [2]string{"password", password}, [2]string{"name", name}); err != nil {
		return 0, err
	}
	email = utils.NormalizeEmail(email)
	if !utils.IsValidEmail(email) {
		return 0, &ValidationError{Fields: []string{"email"}, Msg: "email is not valid"}
	}

	hash, err := w.hasher.Hash(password)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	id, err := w.users.Create(ctx, email, hash, utils.NormalizeString(name))
	if errors.Is(err, store.ErrConstraintViolation) {
		return 0, ErrConflict
	}
	if err != nil {
		return 0, storageErr("create user", err)
	}
	logger.InfoContext(ctx, "client registered", "user_id", id)
	return id, nil
}

// Login checks a client's credentials and issues a token for them.
func (w *Workflow) Login(ctx context.Context, email, password string) (*Session, error) {
	email = utils.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrUnauthorized
	}
	u, err := w.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, storageErr("find user", err)
	}
	if u == nil || !w.hasher.Verify(password, u.PasswordHash) {
		return nil, ErrUnauthorized
	}
	token, err := w.tokens.NewClientToken(u.ID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Token: token, Name: u.DisplayName(), UserID: u.ID}, nil
}

// AdminLogin checks the dashboard account. With no dashboard user configured
// nobody can sign in.
func (w *Workflow) AdminLogin(ctx context.Context, username, password string) (string, error) {
	if w.admin.Username == "" || w.admin.PasswordHash == "" {
		logger.WarnContext(ctx, "admin login attempted but no dashboard account is configured")
		return "", ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(username), []byte(w.admin.Username)) != 1 {
		return "", ErrUnauthorized
	}
	if !w.hasher.Verify(password, w.admin.PasswordHash) {
		return "", ErrUnauthorized
	}
	token, err := w.tokens.NewAdminToken(username)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// CreateBooking stores a pending booking owned by userID (nil for anonymous
// bookings) and notifies both parties. When the emails fail the booking stays
// saved: the id is returned together with an error wrapping ErrNotification.
func (w *Workflow) CreateBooking(ctx context.Context, userID *int64, in domain.BookingReq) (int64, error) {
	in = domain.BookingReq{
		Name:    utils.NormalizeString(in.Name),
		Email:   utils.NormalizeString(in.Email),
		Date:    utils.NormalizeString(in.Date),
		Time:    utils.NormalizeString(in.Time),
		Phone:   utils.NormalizeString(in.Phone),
		Message: utils.NormalizeString(in.Message),
	}
	if err := required(
		[2]string{"name", in.Name},
		[2]string{"email", in.Email},
		[2]string{"date", in.Date},
		[2]string{"time", in.Time},
		[2]string{"phone", in.Phone},
	); err != nil {
		return 0, err
	}

	id, err := w.bookings.Create(ctx, &in, userID)
	if err != nil {
		return 0, storageErr("create booking", err)
	}
	metrics.IncBookingCreated(userID != nil)
	logger.InfoContext(ctx, "booking created", "booking_id", id)

	b := domain.Booking{
		ID: id, Name: in.Name, Email: in.Email, Phone: in.Phone,
		Date: in.Date, Time: in.Time, Status: domain.BookingPending, UserID: userID,
	}
	if in.Message != "" {
		b.Message = &in.Message
	}

	notifyErr := w.notifier.BookingCreated(ctx, b)
	w.publish(ctx, events.BookingCreated, events.BookingCreatedEvent{
		BookingID: id, UserID: userID, Name: b.Name, Email: b.Email,
		Date: b.Date, Time: b.Time, Notified: notifyErr == nil,
	})
	if notifyErr != nil {
		metrics.IncNotificationFailed()
		logger.ErrorContext(ctx, "booking notification failed", "booking_id", id, "error", notifyErr)
		return id, fmt.Errorf("%w: %w", ErrNotification, notifyErr)
	}
	return id, nil
}

func (w *Workflow) ListBookings(ctx context.Context, userID int64) ([]domain.Booking, error) {
	bs, err := w.bookings.ListByUserID(ctx, userID)
	if err != nil {
		return nil, storageErr("list bookings", err)
	}
	return bs, nil
}

// UpdateBooking returns the number of rows changed; 0 means the booking does
// not exist or is not userID's.
func (w *Workflow) UpdateBooking(ctx context.Context, userID, bookingID int64, patch domain.BookingPatch) (int64, error) {
	patch = domain.BookingPatch{
		Date:    utils.NormalizeString(patch.Date),
		Time:    utils.NormalizeString(patch.Time),
		Phone:   utils.NormalizeString(patch.Phone),
		Message: utils.NormalizeString(patch.Message),
	}
	if err := required([2]string{"date", patch.Date}, [2]string{"time", patch.Time}, [2]string{"phone", patch.Phone}); err != nil {
		return 0, err
	}
	n, err := w.bookings.UpdateForUser(ctx, userID, bookingID, &patch)
	if err != nil {
		return 0, storageErr("update booking", err)
	}
	if n > 0 {
		w.publish(ctx, events.BookingUpdated, events.BookingUpdatedEvent{
			BookingID: bookingID, UserID: userID, Date: patch.Date, Time: patch.Time,
		})
	}
	return n, nil
}

func (w *Workflow) DeleteBooking(ctx context.Context, userID, bookingID int64) (int64, error) {
	n, err := w.bookings.DeleteForUser(ctx, userID, bookingID)
	if err != nil {
		return 0, storageErr("delete booking", err)
	}
	if n > 0 {
		w.publish(ctx, events.BookingDeleted, events.BookingDeletedEvent{BookingID: bookingID, UserID: &userID, By: "client"})
	}
	return n, nil
}

func (w *Workflow) ListAll(ctx context.Context) ([]domain.Booking, error) {
	bs, err := w.bookings.List(ctx)
	if err != nil {
		return nil, storageErr("list all bookings", err)
	}
	return bs, nil
}

// UpdateStatus sets any non-empty status; no transition rules apply.
func (w *Workflow) UpdateStatus(ctx context.Context, bookingID int64, status string) (int64, error) {
	st := domain.BookingStatus(strings.TrimSpace(status))
	if st == "" {
		return 0, &ValidationError{Fields: []string{"status"}, Msg: "Status is required"}
	}
	if !st.Known() {
		logger.InfoContext(ctx, "booking status outside the usual set", "booking_id", bookingID, "status", st)
	}
	n, err := w.bookings.UpdateStatus(ctx, bookingID, st)
	if err != nil {
		return 0, storageErr("update status", err)
	}
	if n > 0 {
		w.publish(ctx, events.BookingStatusChanged, events.BookingStatusChangedEvent{BookingID: bookingID, Status: string(st)})
	}
	return n, nil
}

func (w *Workflow) DeleteAny(ctx context.Context, bookingID int64) (int64, error) {
	n, err := w.bookings.Delete(ctx, bookingID)
	if err != nil {
		return 0, storageErr("delete booking", err)
	}
	if n > 0 {
		w.publish(ctx, events.BookingDeleted, events.BookingDeletedEvent{BookingID: bookingID, By: "admin"})
	}
	return n, nil
}

func (w *Workflow) ListUsers(ctx context.Context) ([]domain.User, error) {
	us, err := w.users.List(ctx)
	if err != nil {
		return nil, storageErr("list users", err)
	}
	return us, nil
}

func (w *Workflow) publish(ctx context.Context, subject string, payload interface{}) {
	if err := w.events.Publish(ctx, subject, payload); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event", "subject", subject, "error", err)
	}
}
