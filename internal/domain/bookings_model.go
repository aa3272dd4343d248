package domain

type BookingStatus string

// Statuses the dashboard offers. Any non-empty value is accepted on write.
const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Known() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled:
		return true
	default:
		return false
	}
}

type Booking struct {
	ID      int64         `json:"id"`
	Name    string        `json:"name"`
	Email   string        `json:"email"`
	Phone   string        `json:"phone"`
	Date    string        `json:"date"`
	Time    string        `json:"time"`
	Message *string       `json:"message"`
	Status  BookingStatus `json:"status"`
	// UserID is nil for bookings made without signing in.
	UserID *int64 `json:"user_id"`
}

// BookingReq is the client-supplied part of a new booking.
type BookingReq struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// BookingPatch is what an owner may change on an existing booking.
type BookingPatch struct {
	Date    string `json:"date"`
	Time    string `json:"time"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}
