package notify

import (
	"context"
	"time"

	"github.com/dejobratic/cosrent/internal/rental/domain"
	"github.com/google/uuid"
)

// Publisher accepts events for delivery.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Bus turns rental lifecycle changes into hub events.
type Bus struct {
	publisher Publisher
}

func NewBus(publisher Publisher) *Bus {
	return &Bus{publisher: publisher}
}

func (b *Bus) PublishBookingCreated(ctx context.Context, booking domain.Booking) error {
	return b.publisher.Publish(ctx, newEvent(EventBookingCreated, booking.CustomerID, &booking, nil))
}

func (b *Bus) PublishBookingStatusChanged(ctx context.Context, booking domain.Booking, from domain.BookingStatus) error {
	event := newEvent(EventBookingStatusChanged, booking.CustomerID, &booking, nil)
	event.PreviousStatus = string(from)
	return b.publisher.Publish(ctx, event)
}

func (b *Bus) PublishPaymentSubmitted(ctx context.Context, payment domain.Payment) error {
	return b.publisher.Publish(ctx, newEvent(EventPaymentSubmitted, payment.CustomerID, nil, &payment))
}

func (b *Bus) PublishPaymentAdjudicated(ctx context.Context, payment domain.Payment) error {
	return b.publisher.Publish(ctx, newEvent(EventPaymentAdjudicated, payment.CustomerID, nil, &payment))
}

func newEvent(eventType, customerID string, booking *domain.Booking, payment *domain.Payment) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		CustomerID: customerID,
		Booking:    booking,
		Payment:    payment,
	}
}
