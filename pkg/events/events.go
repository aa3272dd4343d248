package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/diagnosis/trainer-bookings/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("trainer-bookings"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSPublisher{conn: conn}, nil
}

func (n *NATSPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSPublisher) Close() error {
	return n.conn.Drain()
}

// Nop drops every event. Used when no NATS_URL is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, interface{}) error { return nil }
func (Nop) Close() error { return nil }

const (
	BookingCreated       = "booking.created"
	BookingUpdated       = "booking.updated"
	BookingDeleted       = "booking.deleted"
	BookingStatusChanged = "booking.status_changed"
)

type BookingCreatedEvent struct {
	BookingID int64  `json:"booking_id"`
	UserID    *int64 `json:"user_id,omitempty"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Notified  bool   `json:"notified"`
}

type BookingUpdatedEvent struct {
	BookingID int64  `json:"booking_id"`
	UserID    int64  `json:"user_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
}

type BookingDeletedEvent struct {
	BookingID int64  `json:"booking_id"`
	UserID    *int64 `json:"user_id,omitempty"`
	By        string `json:"by"`
}

type BookingStatusChangedEvent struct {
	BookingID int64  `json:"booking_id"`
	Status    string `json:"status"`
}
