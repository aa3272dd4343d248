package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/diagnosis/trainer-bookings/internal/http/response"
	"github.com/diagnosis/trainer-bookings/pkg/logger"
)

type Pinger interface {
	Ping(ctx context.Context) error
	Backend() string
}

// Health reports 200 while the storage engine answers a ping, 503 otherwise.
func Health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		body := map[string]string{"status": "ok", "backend": db.Backend()}
		if err := db.Ping(ctx); err != nil {
			logger.WarnContext(ctx, "health check failed", "error", err)
			body["status"] = "unavailable"
			response.WriteJSON(w, http.StatusServiceUnavailable, body)
			return
		}
		response.WriteJSON(w, http.StatusOK, body)
	}
}
