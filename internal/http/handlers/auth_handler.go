package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/diagnosis/trainer-bookings/internal/http/response"
	"github.com/diagnosis/trainer-bookings/internal/service"
)

type AccountService interface {
	Register(ctx context.Context, email, password, name string) (int64, error)
	Login(ctx context.Context, email, password string) (*service.Session, error)
	AdminLogin(ctx context.Context, username, password string) (string, error)
}

type AuthHandler struct {
	Accounts AccountService
}

func NewAuthHandler(accounts AccountService) *AuthHandler {
	return &AuthHandler{Accounts: accounts}
}

// AdminLogin signs in the dashboard account.
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decode(w, r, &in) {
		return
	}
	token, err := h.Accounts.AdminLogin(r.Context(), in.Username, in.Password)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if !decode(w, r, &in) {
		return
	}
	id, err := h.Accounts.Register(r.Context(), in.Email, in.Password, in.Name)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &in) {
		return
	}
	sess, err := h.Accounts.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, sess)
}

// decode reads a JSON body into v, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		response.BadRequest(w, "invalid json")
		return false
	}
	return true
}
