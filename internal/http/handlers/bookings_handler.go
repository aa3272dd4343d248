package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/trainer-bookings/internal/domain"
	mw "github.com/diagnosis/trainer-bookings/internal/http/middleware"
	"github.com/diagnosis/trainer-bookings/internal/http/response"
	"github.com/diagnosis/trainer-bookings/internal/service"
	"github.com/diagnosis/trainer-bookings/pkg/logger"
)

type BookingService interface {
	CreateBooking(ctx context.Context, userID *int64, in domain.BookingReq) (int64, error)
	ListBookings(ctx context.Context, userID int64) ([]domain.Booking, error)
	UpdateBooking(ctx context.Context, userID, bookingID int64, patch domain.BookingPatch) (int64, error)
	DeleteBooking(ctx context.Context, userID, bookingID int64) (int64, error)
}

// ClientBookingsHandler serves a client's own bookings. Every route expects
// client claims in the request context.
type ClientBookingsHandler struct {
	Bookings BookingService
}

func NewClientBookingsHandler(bookings BookingService) *ClientBookingsHandler {
	return &ClientBookingsHandler{Bookings: bookings}
}

// Create also serves the public POST /api/bookings, where claims are optional.
func (h *ClientBookingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.BookingReq
	if !decode(w, r, &in) {
		return
	}
	var owner *int64
	if c := mw.Claims(r); c != nil && c.Sub != 0 {
		owner = &c.Sub
	}
	id, err := h.Bookings.CreateBooking(r.Context(), owner, in)
	if errors.Is(err, service.ErrNotification) {
		response.NotificationFailed(w, id)
		return
	}
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]int64{"id": id})
}

func (h *ClientBookingsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)
	if claims == nil {
		response.Unauthorized(w, "No token")
		return
	}
	bs, err := h.Bookings.ListBookings(r.Context(), claims.Sub)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, bs)
}

func (h *ClientBookingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)
	if claims == nil {
		response.Unauthorized(w, "No token")
		return
	}
	id, ok := bookingID(w, r)
	if !ok {
		return
	}
	var in domain.BookingPatch
	if !decode(w, r, &in) {
		return
	}
	n, err := h.Bookings.UpdateBooking(r.Context(), claims.Sub, id, in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	logNoRows(r, "update", id, n)
	response.WriteJSON(w, http.StatusOK, map[string]int64{"updated": n})
}

func (h *ClientBookingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := mw.Claims(r)
	if claims == nil {
		response.Unauthorized(w, "No token")
		return
	}
	id, ok := bookingID(w, r)
	if !ok {
		return
	}
	n, err := h.Bookings.DeleteBooking(r.Context(), claims.Sub, id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	logNoRows(r, "delete", id, n)
	response.WriteJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func bookingID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "invalid id")
		return 0, false
	}
	return id, true
}

// logNoRows notes mutations that matched nothing. The response still carries
// the zero count.
func logNoRows(r *http.Request, op string, id, affected int64) {
	if err := service.NoRows(affected); err != nil {
		logger.DebugContext(r.Context(), "booking mutation matched no rows", "op", op, "booking_id", id)
	}
}
