package ports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dejobratic/cosrent/internal/rental/domain"
)

// BookingRepository exposes persistence operations for bookings.
type BookingRepository interface {
	Create(ctx context.Context, booking domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	List(ctx context.Context, filter BookingFilter) ([]domain.Booking, error)
	// UpdateStatus moves the booking from one status to another in a single
	// conditional write. It returns ErrStatusConflict when the stored status
	// is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus) (*domain.Booking, error)
}

// PaymentRepository exposes persistence operations for payment proofs.
type PaymentRepository interface {
	// Upsert stores the submission for its booking, replacing an existing
	// PENDING or REJECTED payment. The booking must still be PENDING at the
	// moment of the write; otherwise it returns ErrBookingNotPending. It
	// returns ErrStatusConflict when the existing payment is APPROVED.
	Upsert(ctx context.Context, payment domain.Payment) (*domain.Payment, error)
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	GetByBookingID(ctx context.Context, bookingID string) (*domain.Payment, error)
	List(ctx context.Context, filter PaymentFilter) ([]domain.Payment, error)
	// Adjudicate records decision on a PENDING payment in a single
	// conditional write. It returns ErrStatusConflict when the payment is no
	// longer PENDING.
	Adjudicate(ctx context.Context, id string, decision domain.PaymentStatus, reviewer string, at time.Time) (*domain.Payment, error)
}

// ProductRepository exposes persistence operations for the catalogue.
type ProductRepository interface {
	Create(ctx context.Context, product domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
	UpdateInventory(ctx context.Context, id string, stock int, available bool) (*domain.Product, error)
	// AdjustStock adds delta to the stock counter unless the result would be
	// negative, in which case it returns ErrInsufficientStock.
	AdjustStock(ctx context.Context, id string, delta int) (*domain.Product, error)
}

// BookingFilter narrows booking list queries. Pagination is 1-based.
type BookingFilter struct {
	Status     *domain.BookingStatus
	CustomerID string
	ProductID  string
	Page       int
	PageSize   int
}

// PaymentFilter narrows payment list queries. Pagination is 1-based.
type PaymentFilter struct {
	Status   *domain.PaymentStatus
	Page     int
	PageSize int
}

// ProductFilter narrows catalogue queries. Pagination is 1-based.
type ProductFilter struct {
	CategoryID   string
	BookableOnly bool
	Page         int
	PageSize     int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// Normalize returns page and page size with defaults and bounds applied.
func Normalize(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

var (
	// ErrNotFound is returned when the requested record does not exist. It
	// matches domain.ErrNotFound.
	ErrNotFound = fmt.Errorf("record %w", domain.ErrNotFound)
	// ErrStatusConflict is returned when a conditional status write finds a
	// different status than expected.
	ErrStatusConflict = errors.New("status changed concurrently")
	// ErrBookingNotPending is returned when a payment is written for a
	// booking that has left PENDING.
	ErrBookingNotPending = errors.New("booking is no longer pending")
	// ErrInsufficientStock is returned when a stock adjustment would go below zero.
	ErrInsufficientStock = errors.New("insufficient stock")
)
