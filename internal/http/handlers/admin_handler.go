package handlers

import (
	"context"
	"net/http"

	"github.com/diagnosis/trainer-bookings/internal/domain"
	"github.com/diagnosis/trainer-bookings/internal/http/response"
)

type AdminService interface {
	ListAll(ctx context.Context) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, bookingID int64, status string) (int64, error)
	DeleteAny(ctx context.Context, bookingID int64) (int64, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// AdminHandler serves the dashboard. Routes expect admin claims.
type AdminHandler struct {
	Admin AdminService
}

func NewAdminHandler(admin AdminService) *AdminHandler {
	return &AdminHandler{Admin: admin}
}

func (h *AdminHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	bs, err := h.Admin.ListAll(r.Context())
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, bs)
}

func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}
	var in struct {
		Status string `json:"status"`
	}
	if !decode(w, r, &in) {
		return
	}
	n, err := h.Admin.UpdateStatus(r.Context(), id, in.Status)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	logNoRows(r, "update_status", id, n)
	response.WriteJSON(w, http.StatusOK, map[string]int64{"updated": n})
}

func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}
	n, err := h.Admin.DeleteAny(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	logNoRows(r, "delete_any", id, n)
	response.WriteJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

// Users lists every account without password hashes.
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	us, err := h.Admin.ListUsers(r.Context())
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, us)
}
