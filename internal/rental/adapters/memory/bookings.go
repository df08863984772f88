package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dejobratic/cosrent/internal/rental/domain"
	"github.com/dejobratic/cosrent/internal/rental/ports"
)

// BookingRepository provides an in-memory store useful for local development and tests.
type BookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]domain.Booking
}

// NewBookingRepository constructs a new in-memory booking repository.
func NewBookingRepository() *BookingRepository {
	return &BookingRepository{bookings: make(map[string]domain.Booking)}
}

// Create stores a new booking.
func (r *BookingRepository) Create(_ context.Context, booking domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[booking.ID] = booking
	return nil
}

// GetByID fetches a single booking by identifier.
func (r *BookingRepository) GetByID(_ context.Context, id string) (*domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	booking, ok := r.bookings[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &booking, nil
}

// List returns bookings newest first.
func (r *BookingRepository) List(_ context.Context, filter ports.BookingFilter) ([]domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Booking
	for _, b := range r.bookings {
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		if filter.CustomerID != "" && b.CustomerID != filter.CustomerID {
			continue
		}
		if filter.ProductID != "" && b.ProductID != filter.ProductID {
			continue
		}
		result = append(result, b)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return paginate(result, filter.Page, filter.PageSize), nil
}

// UpdateStatus swaps the status when it still equals from.
func (r *BookingRepository) UpdateStatus(_ context.Context, id string, from, to domain.BookingStatus) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	booking, ok := r.bookings[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if booking.Status != from {
		return nil, ports.ErrStatusConflict
	}

	booking.Status = to
	booking.UpdatedAt = time.Now().UTC()
	r.bookings[id] = booking
	return &booking, nil
}

func paginate[T any](items []T, page, pageSize int) []T {
	page, pageSize = ports.Normalize(page, pageSize)

	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}

	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}

	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}
