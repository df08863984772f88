package queries

import (
	"context"
	"fmt"
	"strings"

	"github.com/dejobratic/cosrent/internal/rental/domain"
	"github.com/dejobratic/cosrent/internal/rental/ports"
)

type GetPaymentQuery struct {
	Actor     domain.Actor
	PaymentID string
}

type GetPaymentQueryHandler struct {
	repo ports.PaymentRepository
}

func NewGetPaymentQueryHandler(repo ports.PaymentRepository) *GetPaymentQueryHandler {
	return &GetPaymentQueryHandler{repo: repo}
}

func (h *GetPaymentQueryHandler) Handle(ctx context.Context, query GetPaymentQuery) (*domain.Payment, error) {
	if strings.TrimSpace(query.PaymentID) == "" {
		return nil, fmt.Errorf("%w: payment_id is required", domain.ErrValidation)
	}

	payment, err := h.repo.GetByID(ctx, query.PaymentID)
	if err != nil {
		return nil, notFound(err, "payment", query.PaymentID)
	}
	if !query.Actor.IsAdmin() && !query.Actor.Owns(payment.CustomerID) {
		return nil, fmt.Errorf("%w: payment %s", domain.ErrNotFound, query.PaymentID)
	}
	return payment, nil
}

// GetPaymentForBookingQuery fetches the single payment recorded for a booking.
type GetPaymentForBookingQuery struct {
	Actor     domain.Actor
	BookingID string
}

type GetPaymentForBookingQueryHandler struct {
	bookings ports.BookingRepository
	payments ports.PaymentRepository
}

func NewGetPaymentForBookingQueryHandler(bookings ports.BookingRepository, payments ports.PaymentRepository) *GetPaymentForBookingQueryHandler {
	return &GetPaymentForBookingQueryHandler{bookings: bookings, payments: payments}
}

func (h *GetPaymentForBookingQueryHandler) Handle(ctx context.Context, query GetPaymentForBookingQuery) (*domain.Payment, error) {
	if strings.TrimSpace(query.BookingID) == "" {
		return nil, fmt.Errorf("%w: booking_id is required", domain.ErrValidation)
	}

	booking, err := h.bookings.GetByID(ctx, query.BookingID)
	if err != nil {
		return nil, notFound(err, "booking", query.BookingID)
	}
	if !booking.VisibleTo(query.Actor) {
		return nil, fmt.Errorf("%w: booking %s", domain.ErrNotFound, query.BookingID)
	}

	payment, err := h.payments.GetByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, notFound(err, "payment for booking", booking.ID)
	}
	return payment, nil
}

// ListPaymentsQuery is the admin review queue.
type ListPaymentsQuery struct {
	Actor    domain.Actor
	Status   *domain.PaymentStatus
	Page     int
	PageSize int
}

type ListPaymentsQueryHandler struct {
	repo ports.PaymentRepository
}

func NewListPaymentsQueryHandler(repo ports.PaymentRepository) *ListPaymentsQueryHandler {
	return &ListPaymentsQueryHandler{repo: repo}
}

func (h *ListPaymentsQueryHandler) Handle(ctx context.Context, query ListPaymentsQuery) ([]domain.Payment, error) {
	if !query.Actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only an admin may list payments", domain.ErrUnauthorized)
	}
	if query.Status != nil && !query.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown payment status %q", domain.ErrValidation, *query.Status)
	}

	page, pageSize := ports.Normalize(query.Page, query.PageSize)
	payments, err := h.repo.List(ctx, ports.PaymentFilter{
		Status:   query.Status,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}
