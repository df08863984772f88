package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dejobratic/cosrent/internal/rental/domain"
	"github.com/dejobratic/cosrent/internal/rental/ports"
)

// PaymentRepository keeps payment proofs in memory, one per booking.
type PaymentRepository struct {
	mu        sync.RWMutex
	payments  map[string]domain.Payment
	byBooking map[string]string
	bookings  *BookingRepository
}

// NewPaymentRepository constructs a new in-memory payment repository.
// Upserts check the booking status in bookings; a nil bookings skips the
// check.
func NewPaymentRepository(bookings *BookingRepository) *PaymentRepository {
	return &PaymentRepository{
		payments:  make(map[string]domain.Payment),
		byBooking: make(map[string]string),
		bookings:  bookings,
	}
}

// Upsert inserts the payment or replaces the one already recorded for its
// booking. The original id and creation time are kept on replacement. The
// booking read lock is held until the write lands.
func (r *PaymentRepository) Upsert(_ context.Context, payment domain.Payment) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bookings != nil {
		r.bookings.mu.RLock()
		defer r.bookings.mu.RUnlock()

		booking, ok := r.bookings.bookings[payment.BookingID]
		if !ok {
			return nil, ports.ErrNotFound
		}
		if booking.Status != domain.BookingPending {
			return nil, ports.ErrBookingNotPending
		}
	}

	if id, ok := r.byBooking[payment.BookingID]; ok {
		existing := r.payments[id]
		if !existing.CanBeReplaced() {
			return nil, ports.ErrStatusConflict
		}
		existing.AmountCents = payment.AmountCents
		existing.ProofRef = payment.ProofRef
		existing.Status = domain.PaymentPending
		existing.ReviewedBy = ""
		existing.ReviewedAt = nil
		existing.UpdatedAt = payment.UpdatedAt
		r.payments[id] = existing
		return clonePayment(existing), nil
	}

	r.payments[payment.ID] = payment
	r.byBooking[payment.BookingID] = payment.ID
	return clonePayment(payment), nil
}

// GetByID fetches a payment by identifier.
func (r *PaymentRepository) GetByID(_ context.Context, id string) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	payment, ok := r.payments[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return clonePayment(payment), nil
}

// GetByBookingID fetches the payment recorded for a booking.
func (r *PaymentRepository) GetByBookingID(_ context.Context, bookingID string) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byBooking[bookingID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return clonePayment(r.payments[id]), nil
}

// List returns payments oldest first so review queues are worked in order.
func (r *PaymentRepository) List(_ context.Context, filter ports.PaymentFilter) ([]domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Payment
	for _, p := range r.payments {
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		result = append(result, p)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return paginate(result, filter.Page, filter.PageSize), nil
}

// Adjudicate records the decision when the payment is still PENDING.
func (r *PaymentRepository) Adjudicate(_ context.Context, id string, decision domain.PaymentStatus, reviewer string, at time.Time) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	payment, ok := r.payments[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if payment.Status != domain.PaymentPending {
		return nil, ports.ErrStatusConflict
	}

	reviewedAt := at
	payment.Status = decision
	payment.ReviewedBy = reviewer
	payment.ReviewedAt = &reviewedAt
	payment.UpdatedAt = at
	r.payments[id] = payment
	return clonePayment(payment), nil
}

func clonePayment(p domain.Payment) *domain.Payment {
	if p.ReviewedAt != nil {
		at := *p.ReviewedAt
		p.ReviewedAt = &at
	}
	return &p
}
