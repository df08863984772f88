package queries

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dejobratic/cosrent/internal/rental/domain"
	"github.com/dejobratic/cosrent/internal/rental/ports"
)

// GetBookingQuery represents a request to retrieve a booking by its ID.
type GetBookingQuery struct {
	Actor     domain.Actor
	BookingID string
}

// Validate ensures the query has valid parameters.
func (q GetBookingQuery) Validate() error {
	if strings.TrimSpace(q.BookingID) == "" {
		return fmt.Errorf("%w: booking_id is required", domain.ErrValidation)
	}
	return nil
}

// GetBookingQueryHandler returns a booking the actor is allowed to see.
// Bookings of other customers are reported as not found.
type GetBookingQueryHandler struct {
	repo ports.BookingRepository
}

func NewGetBookingQueryHandler(repo ports.BookingRepository) *GetBookingQueryHandler {
	return &GetBookingQueryHandler{repo: repo}
}

func (h *GetBookingQueryHandler) Handle(ctx context.Context, query GetBookingQuery) (*domain.Booking, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	booking, err := h.repo.GetByID(ctx, query.BookingID)
	if err != nil {
		return nil, notFound(err, "booking", query.BookingID)
	}
	if !booking.VisibleTo(query.Actor) {
		return nil, fmt.Errorf("%w: booking %s", domain.ErrNotFound, query.BookingID)
	}
	return booking, nil
}

// ListBookingsQuery lists bookings. Customers only ever see their own.
type ListBookingsQuery struct {
	Actor      domain.Actor
	Status     *domain.BookingStatus
	CustomerID string
	ProductID  string
	Page       int
	PageSize   int
}

func (q ListBookingsQuery) Validate() error {
	if q.Status != nil && !q.Status.IsValid() {
		return fmt.Errorf("%w: unknown booking status %q", domain.ErrValidation, *q.Status)
	}
	return nil
}

// Filter translates the query into a repository filter scoped to the actor.
func (q ListBookingsQuery) Filter() ports.BookingFilter {
	customerID := q.CustomerID
	if !q.Actor.IsAdmin() {
		customerID = q.Actor.ID
	}
	page, pageSize := ports.Normalize(q.Page, q.PageSize)
	return ports.BookingFilter{
		Status:     q.Status,
		CustomerID: customerID,
		ProductID:  q.ProductID,
		Page:       page,
		PageSize:   pageSize,
	}
}

type ListBookingsQueryHandler struct {
	repo ports.BookingRepository
}

func NewListBookingsQueryHandler(repo ports.BookingRepository) *ListBookingsQueryHandler {
	return &ListBookingsQueryHandler{repo: repo}
}

func (h *ListBookingsQueryHandler) Handle(ctx context.Context, query ListBookingsQuery) ([]domain.Booking, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if !query.Actor.IsAdmin() && query.Actor.ID == "" {
		return nil, fmt.Errorf("%w: anonymous callers cannot list bookings", domain.ErrUnauthorized)
	}

	bookings, err := h.repo.List(ctx, query.Filter())
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

func notFound(err error, entity, id string) error {
	if errors.Is(err, ports.ErrNotFound) {
		return fmt.Errorf("%w: %s %s", domain.ErrNotFound, entity, id)
	}
	return fmt.Errorf("get %s: %w", entity, err)
}
