package domain

import (
	"fmt"
	"strings"
	"time"
)

// Booking is a customer's reservation of a product for a date range.
type Booking struct {
	ID               string        `json:"id"`
	CustomerID       string        `json:"customer_id"`
	ProductID        string        `json:"product_id"`
	StartDate        time.Time     `json:"start_date"`
	EndDate          time.Time     `json:"end_date"`
	Days             int           `json:"days"`
	PricePerDayCents int64         `json:"price_per_day_cents"`
	TotalCents       int64         `json:"total_cents"`
	Status           BookingStatus `json:"status"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// NewBooking prices a PENDING booking for product over [start, end].
func NewBooking(id, customerID string, product Product, start, end time.Time, now time.Time) (Booking, error) {
	if strings.TrimSpace(customerID) == "" {
		return Booking{}, fmt.Errorf("%w: customer_id is required", ErrValidation)
	}
	if !product.IsBookable() {
		return Booking{}, fmt.Errorf("%w: product %s", ErrProductUnavailable, product.ID)
	}

	quote, err := ComputeTotal(start, end, product.PricePerDayCents)
	if err != nil {
		return Booking{}, err
	}

	return Booking{
		ID:               id,
		CustomerID:       customerID,
		ProductID:        product.ID,
		StartDate:        TruncateDate(start),
		EndDate:          TruncateDate(end),
		Days:             quote.Days,
		PricePerDayCents: quote.PricePerDayCents,
		TotalCents:       quote.TotalCents,
		Status:           BookingPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Validate checks the stored invariants of a booking.
func (b Booking) Validate() error {
	if b.ID == "" || b.CustomerID == "" || b.ProductID == "" {
		return fmt.Errorf("%w: booking id, customer_id and product_id are required", ErrValidation)
	}
	if !b.Status.IsValid() {
		return fmt.Errorf("%w: unknown booking status %q", ErrValidation, b.Status)
	}
	quote, err := ComputeTotal(b.StartDate, b.EndDate, b.PricePerDayCents)
	if err != nil {
		return err
	}
	if quote.TotalCents != b.TotalCents || quote.Days != b.Days {
		return fmt.Errorf("%w: total does not match %d days at %d", ErrValidation, quote.Days, b.PricePerDayCents)
	}
	return nil
}

func (b Booking) IsTerminal() bool {
	return b.Status.IsTerminal()
}

// CheckTransition decides whether actor may move the booking to target.
// Ownership is checked first, then the graph, then role privilege, so an
// owner asking to leave a terminal state gets ErrInvalidTransition.
func (b Booking) CheckTransition(actor Actor, target BookingStatus) error {
	if !target.IsValid() {
		return fmt.Errorf("%w: unknown booking status %q", ErrValidation, target)
	}

	if !actor.IsAdmin() && !actor.Owns(b.CustomerID) {
		return fmt.Errorf("%w: booking %s belongs to another customer", ErrUnauthorized, b.ID)
	}

	if !b.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, target)
	}

	if actor.IsAdmin() {
		return nil
	}

	if b.Status == BookingPending && target == BookingCancelled {
		return nil
	}

	return fmt.Errorf("%w: only an admin may move a booking from %s to %s", ErrUnauthorized, b.Status, target)
}

// TransitionTo applies a checked transition in memory.
func (b *Booking) TransitionTo(actor Actor, target BookingStatus, now time.Time) error {
	if err := b.CheckTransition(actor, target); err != nil {
		return err
	}
	b.Status = target
	b.UpdatedAt = now
	return nil
}

// VisibleTo reports whether actor may read the booking.
func (b Booking) VisibleTo(actor Actor) bool {
	return actor.IsAdmin() || actor.Owns(b.CustomerID)
}
