package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/diagnosis/trainer-bookings/internal/domain"
	"github.com/diagnosis/trainer-bookings/internal/http/router"
	"github.com/diagnosis/trainer-bookings/internal/platform/auth"
	"github.com/diagnosis/trainer-bookings/internal/repo"
	"github.com/diagnosis/trainer-bookings/internal/service"
	"github.com/diagnosis/trainer-bookings/internal/store"
	"github.com/diagnosis/trainer-bookings/internal/store/sqlite"
)

type nopNotifier struct{}

func (nopNotifier) BookingCreated(context.Context, domain.Booking) error { return nil }

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	b, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "bookings.db"))
	if err != nil {
		t.Fatal(err)
	}
	db := store.New(b)
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Bootstrap(ctx); err != nil {
		t.Fatal(err)
	}

	adminHash, _ := auth.BcryptHash("dashpass")
	tokens := auth.NewIssuer("router-test", time.Hour)
	wf := service.NewWorkflow(repo.NewUsersRepo(db), repo.NewBookingRepo(db), auth.NewHasher(), tokens,
		nopNotifier{}, nil, service.AdminCredentials{Username: "trainer", PasswordHash: adminHash})

	srv := httptest.NewServer(router.New(router.Deps{
		Workflow:       wf,
		Tokens:         tokens,
		DB:             db,
		AllowedOrigins: []string{"http://localhost:3000"},
	}))
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path, token string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, srv.URL+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return res.StatusCode
}

type obj = map[string]any

func TestClientFlow(t *testing.T) {
	srv := newServer(t)

	var reg obj
	if code := call(t, srv, "POST", "/api/client/register", "", obj{"email": "a@example.com", "password": "pw", "name": "Ann"}, &reg); code != 201 {
		t.Fatalf("register: %d %v", code, reg)
	}
	var dup obj
	if code := call(t, srv, "POST", "/api/client/register", "", obj{"email": "a@example.com", "password": "x", "name": "X"}, &dup); code != 400 || dup["code"] != "EMAIL_EXISTS" {
		t.Fatalf("duplicate: %d %v", code, dup)
	}

	var login obj
	if code := call(t, srv, "POST", "/api/client/login", "", obj{"email": "a@example.com", "password": "pw"}, &login); code != 200 {
		t.Fatalf("login: %d %v", code, login)
	}
	token, _ := login["token"].(string)
	if token == "" || login["name"] != "Ann" {
		t.Fatalf("login body = %v", login)
	}

	var created obj
	req := obj{"name": "Ann", "email": "a@example.com", "date": "2024-01-01", "time": "10:00", "phone": "555"}
	if code := call(t, srv, "POST", "/api/client/bookings", token, req, &created); code != 200 || created["id"] != float64(1) {
		t.Fatalf("create: %d %v", code, created)
	}

	var list []domain.Booking
	if code := call(t, srv, "GET", "/api/client/bookings", token, nil, &list); code != 200 || len(list) != 1 {
		t.Fatalf("list: %d %+v", code, list)
	}
	if list[0].Status != domain.BookingPending || list[0].UserID == nil || *list[0].UserID != 1 {
		t.Fatalf("booking = %+v", list[0])
	}

	var upd obj
	patch := obj{"date": "2024-01-02", "time": "11:00", "phone": "556"}
	if code := call(t, srv, "PUT", "/api/client/bookings/1", token, patch, &upd); code != 200 || upd["updated"] != float64(1) {
		t.Fatalf("update: %d %v", code, upd)
	}
	var del obj
	if code := call(t, srv, "DELETE", "/api/client/bookings/1", token, nil, &del); code != 200 || del["deleted"] != float64(1) {
		t.Fatalf("delete: %d %v", code, del)
	}
	if code := call(t, srv, "DELETE", "/api/client/bookings/1", token, nil, &del); code != 200 || del["deleted"] != float64(0) {
		t.Fatalf("repeat delete: %d %v", code, del)
	}
}

func TestAuthRequired(t *testing.T) {
	srv := newServer(t)

	var body obj
	if code := call(t, srv, "GET", "/api/client/bookings", "", nil, &body); code != 401 || body["error"] != "No token" {
		t.Fatalf("no token: %d %v", code, body)
	}
	if code := call(t, srv, "GET", "/api/bookings", "bogus", nil, &body); code != 401 || body["error"] != "Invalid token" {
		t.Fatalf("bad token: %d %v", code, body)
	}

	call(t, srv, "POST", "/api/client/register", "", obj{"email": "a@example.com", "password": "pw", "name": "Ann"}, nil)
	var login obj
	call(t, srv, "POST", "/api/client/login", "", obj{"email": "a@example.com", "password": "pw"}, &login)
	if code := call(t, srv, "GET", "/api/bookings", login["token"].(string), nil, nil); code != 403 {
		t.Fatalf("client on admin route: %d", code)
	}
}

func TestAdminFlow(t *testing.T) {
	srv := newServer(t)

	// Anonymous booking through the public endpoint.
	var created obj
	req := obj{"name": "Walk In", "email": "w@example.com", "date": "2024-05-01", "time": "09:00", "phone": "1"}
	if code := call(t, srv, "POST", "/api/bookings", "", req, &created); code != 200 {
		t.Fatalf("public create: %d %v", code, created)
	}
	id := int64(created["id"].(float64))

	var login obj
	if code := call(t, srv, "POST", "/api/login", "", obj{"username": "trainer", "password": "dashpass"}, &login); code != 200 {
		t.Fatalf("admin login: %d %v", code, login)
	}
	admin := login["token"].(string)

	var all []domain.Booking
	if code := call(t, srv, "GET", "/api/bookings", admin, nil, &all); code != 200 || len(all) != 1 || all[0].UserID != nil {
		t.Fatalf("list all: %d %+v", code, all)
	}

	var upd obj
	path := fmt.Sprintf("/api/bookings/%d/status", id)
	if code := call(t, srv, "PATCH", path, admin, obj{"status": "confirmed"}, &upd); code != 200 || upd["updated"] != float64(1) {
		t.Fatalf("status: %d %v", code, upd)
	}
	if code := call(t, srv, "PATCH", path, admin, obj{}, &upd); code != 400 {
		t.Fatalf("missing status: %d %v", code, upd)
	}
	if code := call(t, srv, "PATCH", "/api/bookings/999/status", admin, obj{"status": "confirmed"}, &upd); code != 200 || upd["updated"] != float64(0) {
		t.Fatalf("unknown id: %d %v", code, upd)
	}

	var users []obj
	if code := call(t, srv, "GET", "/api/users", admin, nil, &users); code != 200 || len(users) != 0 {
		t.Fatalf("users: %d %v", code, users)
	}

	var del obj
	if code := call(t, srv, "DELETE", fmt.Sprintf("/api/bookings/%d", id), admin, nil, &del); code != 200 || del["deleted"] != float64(1) {
		t.Fatalf("delete: %d %v", code, del)
	}

	if code := call(t, srv, "POST", "/api/login", "", obj{"username": "trainer", "password": "wrong"}, nil); code != 401 {
		t.Fatalf("bad admin login: %d", code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newServer(t)

	var health obj
	if code := call(t, srv, "GET", "/healthz", "", nil, &health); code != 200 || health["backend"] != "sqlite" {
		t.Fatalf("health: %d %v", code, health)
	}

	res, err := srv.Client().Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(res.Body)
	if res.StatusCode != 200 || !strings.Contains(buf.String(), "trainer_bookings_http_requests_total") {
		t.Fatalf("metrics: %d\n%s", res.StatusCode, buf.String())
	}
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	srv := newServer(t)
	req, _ := http.NewRequest("OPTIONS", srv.URL+"/api/client/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	res, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if got := res.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("allow origin = %q", got)
	}
}
