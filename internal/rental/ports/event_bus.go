package ports

import (
	"context"

	"github.com/dejobratic/cosrent/internal/rental/domain"
)

// EventBus defines the contract for publishing rental lifecycle events.
type EventBus interface {
	PublishBookingCreated(ctx context.Context, booking domain.Booking) error
	PublishBookingStatusChanged(ctx context.Context, booking domain.Booking, from domain.BookingStatus) error
	PublishPaymentSubmitted(ctx context.Context, payment domain.Payment) error
	PublishPaymentAdjudicated(ctx context.Context, payment domain.Payment) error
}
