// Package notify pushes rental lifecycle events to connected websocket
// clients.
package notify

import (
	"time"

	"github.com/dejobratic/cosrent/internal/rental/domain"
)

const (
	EventBookingCreated       = "booking.created"
	EventBookingStatusChanged = "booking.status_changed"
	EventPaymentSubmitted     = "payment.submitted"
	EventPaymentAdjudicated   = "payment.adjudicated"
)

// Event is the wire message sent to subscribers. CustomerID selects the
// owner who receives it besides admins.
type Event struct {
	ID             string          `json:"id"`
	Type           string          `json:"type"`
	OccurredAt     time.Time       `json:"occurred_at"`
	CustomerID     string          `json:"customer_id"`
	PreviousStatus string          `json:"previous_status,omitempty"`
	Booking        *domain.Booking `json:"booking,omitempty"`
	Payment        *domain.Payment `json:"payment,omitempty"`
}

func (e Event) visibleTo(actor domain.Actor) bool {
	return actor.IsAdmin() || actor.Owns(e.CustomerID)
}
