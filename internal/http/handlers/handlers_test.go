package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/trainer-bookings/internal/domain"
	"github.com/diagnosis/trainer-bookings/internal/http/handlers"
	mw "github.com/diagnosis/trainer-bookings/internal/http/middleware"
	"github.com/diagnosis/trainer-bookings/internal/platform/auth"
	"github.com/diagnosis/trainer-bookings/internal/service"
)

// ---------- Mocks ----------

type mockService struct {
	registerErr error
	createID    int64
	createErr   error
	createOwner *int64
	affected    int64
	lastStatus  string
	storeErr    error
}

func (m *mockService) Register(_ context.Context, email, password, name string) (int64, error) {
	if m.registerErr != nil {
		return 0, m.registerErr
	}
	return 5, nil
}

func (m *mockService) Login(_ context.Context, email, password string) (*service.Session, error) {
	if password != "right" {
		return nil, service.ErrUnauthorized
	}
	return &service.Session{Token: "tok", Name: "Ann", UserID: 5}, nil
}

func (m *mockService) AdminLogin(_ context.Context, username, password string) (string, error) {
	if username != "trainer" || password != "right" {
		return "", service.ErrUnauthorized
	}
	return "admin-tok", nil
}

func (m *mockService) CreateBooking(_ context.Context, userID *int64, in domain.BookingReq) (int64, error) {
	m.createOwner = userID
	return m.createID, m.createErr
}

func (m *mockService) ListBookings(_ context.Context, userID int64) ([]domain.Booking, error) {
	if m.storeErr != nil {
		return nil, m.storeErr
	}
	return []domain.Booking{{ID: 1, Name: "Ann", UserID: &userID, Status: domain.BookingPending}}, nil
}

func (m *mockService) UpdateBooking(context.Context, int64, int64, domain.BookingPatch) (int64, error) {
	return m.affected, nil
}

func (m *mockService) DeleteBooking(context.Context, int64, int64) (int64, error) {
	return m.affected, nil
}

func (m *mockService) ListAll(context.Context) ([]domain.Booking, error) {
	return []domain.Booking{}, nil
}

func (m *mockService) UpdateStatus(_ context.Context, _ int64, status string) (int64, error) {
	m.lastStatus = status
	if strings.TrimSpace(status) == "" {
		return 0, &service.ValidationError{Fields: []string{"status"}, Msg: "Status is required"}
	}
	return m.affected, nil
}

func (m *mockService) DeleteAny(context.Context, int64) (int64, error) { return m.affected, nil }

func (m *mockService) ListUsers(context.Context) ([]domain.User, error) {
	name := "Ann"
	return []domain.User{{ID: 1, Email: "ann@example.com", PasswordHash: "$argon2id$secret", Name: &name}}, nil
}

type mockPinger struct{ err error }

func (p mockPinger) Ping(context.Context) error { return p.err }
func (p mockPinger) Backend() string { return "sqlite" }

// ---------- Helpers ----------

func do(t *testing.T, h http.Handler, method, path, body string, claims *auth.Claims) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if claims != nil {
		req = req.WithContext(context.WithValue(req.Context(), mw.CtxClaims, claims))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("body %q: %v", rec.Body.String(), err)
	}
	return out
}

func clientRouter(svc *mockService) http.Handler {
	h := handlers.NewClientBookingsHandler(svc)
	r := chi.NewRouter()
	r.Post("/bookings", h.Create)
	r.Get("/bookings", h.List)
	r.Put("/bookings/{id}", h.Update)
	r.Delete("/bookings/{id}", h.Delete)
	return r
}

var client = &auth.Claims{Sub: 5, Email: "ann@example.com", Role: auth.RoleClient}

// ---------- Auth ----------

func TestRegister(t *testing.T) {
	h := handlers.NewAuthHandler(&mockService{})
	rec := do(t, http.HandlerFunc(h.Register), "POST", "/", `{"email":"a@example.com","password":"x","name":"A"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["id"] != float64(5) {
		t.Fatalf("body = %v", body)
	}
}

func TestRegisterErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
		want string
	}{
		{&service.ValidationError{Fields: []string{"email"}}, http.StatusBadRequest, "INVALID_INPUT"},
		{service.ErrConflict, http.StatusBadRequest, "EMAIL_EXISTS"},
		{fmt.Errorf("%w: boom", service.ErrStorage), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, c := range cases {
		h := handlers.NewAuthHandler(&mockService{registerErr: c.err})
		rec := do(t, http.HandlerFunc(h.Register), "POST", "/", `{}`, nil)
		if rec.Code != c.code {
			t.Errorf("%v: status = %d", c.err, rec.Code)
		}
		body := decodeBody(t, rec)
		if body["code"] != c.want {
			t.Errorf("%v: code = %v", c.err, body["code"])
		}
		if strings.Contains(rec.Body.String(), "boom") {
			t.Errorf("storage detail leaked: %s", rec.Body.String())
		}
	}
}

func TestRegisterInvalidJSON(t *testing.T) {
	h := handlers.NewAuthHandler(&mockService{})
	rec := do(t, http.HandlerFunc(h.Register), "POST", "/", `{`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestClientLogin(t *testing.T) {
	h := handlers.NewAuthHandler(&mockService{})
	rec := do(t, http.HandlerFunc(h.Login), "POST", "/", `{"email":"a@example.com","password":"right"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["token"] != "tok" || body["name"] != "Ann" {
		t.Fatalf("body = %v", body)
	}
	if _, ok := body["UserID"]; ok {
		t.Fatal("user id leaked into login response")
	}

	rec = do(t, http.HandlerFunc(h.Login), "POST", "/", `{"email":"a@example.com","password":"wrong"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d", rec.Code)
	}
}

func TestAdminLogin(t *testing.T) {
	h := handlers.NewAuthHandler(&mockService{})
	rec := do(t, http.HandlerFunc(h.AdminLogin), "POST", "/", `{"username":"trainer","password":"right"}`, nil)
	if rec.Code != http.StatusOK || decodeBody(t, rec)["token"] != "admin-tok" {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	rec = do(t, http.HandlerFunc(h.AdminLogin), "POST", "/", `{"username":"trainer","password":"x"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

// ---------- Client bookings ----------

func TestCreateBookingOwnedByCaller(t *testing.T) {
	svc := &mockService{createID: 9}
	rec := do(t, clientRouter(svc), "POST", "/bookings", `{"name":"Ann"}`, client)
	if rec.Code != http.StatusOK || decodeBody(t, rec)["id"] != float64(9) {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	if svc.createOwner == nil || *svc.createOwner != 5 {
		t.Fatalf("owner = %v", svc.createOwner)
	}
}

func TestCreateBookingAnonymous(t *testing.T) {
	svc := &mockService{createID: 3}
	rec := do(t, clientRouter(svc), "POST", "/bookings", `{"name":"Ann"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.createOwner != nil {
		t.Fatalf("owner = %d, want nil", *svc.createOwner)
	}
}

func TestCreateBookingEmailFailure(t *testing.T) {
	svc := &mockService{createID: 4, createErr: fmt.Errorf("%w: smtp", service.ErrNotification)}
	rec := do(t, clientRouter(svc), "POST", "/bookings", `{}`, client)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["id"] != float64(4) || body["code"] != "EMAIL_FAILED" {
		t.Fatalf("body = %v", body)
	}
}

func TestListBookings(t *testing.T) {
	rec := do(t, clientRouter(&mockService{}), "GET", "/bookings", "", client)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var bs []domain.Booking
	if err := json.Unmarshal(rec.Body.Bytes(), &bs); err != nil || len(bs) != 1 || *bs[0].UserID != 5 {
		t.Fatalf("bookings = %+v err = %v", bs, err)
	}

	rec = do(t, clientRouter(&mockService{storeErr: errors.New("disk")}), "GET", "/bookings", "", client)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("storage failure status = %d", rec.Code)
	}
}

func TestUpdateAndDeleteReportCounts(t *testing.T) {
	for _, n := range []int64{0, 1} {
		svc := &mockService{affected: n}
		rec := do(t, clientRouter(svc), "PUT", "/bookings/7", `{"date":"2024-01-01","time":"10:00","phone":"1"}`, client)
		if rec.Code != http.StatusOK || decodeBody(t, rec)["updated"] != float64(n) {
			t.Errorf("update n=%d: status = %d body = %s", n, rec.Code, rec.Body)
		}
		rec = do(t, clientRouter(svc), "DELETE", "/bookings/7", "", client)
		if rec.Code != http.StatusOK || decodeBody(t, rec)["deleted"] != float64(n) {
			t.Errorf("delete n=%d: status = %d body = %s", n, rec.Code, rec.Body)
		}
	}
}

func TestInvalidBookingID(t *testing.T) {
	rec := do(t, clientRouter(&mockService{}), "DELETE", "/bookings/abc", "", client)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

// ---------- Admin ----------

func adminRouter(svc *mockService) http.Handler {
	h := handlers.NewAdminHandler(svc)
	r := chi.NewRouter()
	r.Get("/bookings", h.ListAll)
	r.Patch("/bookings/{id}/status", h.UpdateStatus)
	r.Delete("/bookings/{id}", h.Delete)
	r.Get("/users", h.Users)
	return r
}

func TestAdminListAllEmptyArray(t *testing.T) {
	rec := do(t, adminRouter(&mockService{}), "GET", "/bookings", "", nil)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("status = %d body = %q", rec.Code, rec.Body)
	}
}

func TestAdminUpdateStatus(t *testing.T) {
	svc := &mockService{affected: 1}
	rec := do(t, adminRouter(svc), "PATCH", "/bookings/2/status", `{"status":"confirmed"}`, nil)
	if rec.Code != http.StatusOK || decodeBody(t, rec)["updated"] != float64(1) || svc.lastStatus != "confirmed" {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}

	rec = do(t, adminRouter(svc), "PATCH", "/bookings/2/status", `{}`, nil)
	if rec.Code != http.StatusBadRequest || decodeBody(t, rec)["error"] != "Status is required" {
		t.Fatalf("missing status: %d %s", rec.Code, rec.Body)
	}
}

func TestAdminDelete(t *testing.T) {
	rec := do(t, adminRouter(&mockService{affected: 0}), "DELETE", "/bookings/99", "", nil)
	if rec.Code != http.StatusOK || decodeBody(t, rec)["deleted"] != float64(0) {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
}

func TestAdminUsersOmitHashes(t *testing.T) {
	rec := do(t, adminRouter(&mockService{}), "GET", "/users", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "argon2id") || strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("hash leaked: %s", rec.Body)
	}
	if !strings.Contains(rec.Body.String(), `"email":"ann@example.com"`) {
		t.Fatalf("body = %s", rec.Body)
	}
}

// ---------- Health ----------

func TestHealth(t *testing.T) {
	rec := do(t, handlers.Health(mockPinger{}), "GET", "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "ok" || body["backend"] != "sqlite" {
		t.Fatalf("body = %v", body)
	}

	rec = do(t, handlers.Health(mockPinger{err: errors.New("down")}), "GET", "/healthz", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}
