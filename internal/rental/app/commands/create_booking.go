package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dejobratic/cosrent/internal/rental/domain"
	"github.com/dejobratic/cosrent/internal/rental/metrics"
	"github.com/dejobratic/cosrent/internal/rental/ports"
	"github.com/google/uuid"
)

type CreateBookingCommand struct {
	Actor      domain.Actor
	CustomerID string
	ProductID  string
	StartDate  time.Time
	EndDate    time.Time
}

func (c CreateBookingCommand) CommandName() string { return "CreateBookingCommand" }

func (c CreateBookingCommand) LogAttrs() []any {
	return []any{
		"actor_id", c.Actor.ID,
		"customer_id", c.CustomerID,
		"product_id", c.ProductID,
		"start_date", c.StartDate.Format(domain.DateLayout),
		"end_date", c.EndDate.Format(domain.DateLayout),
	}
}

func (c CreateBookingCommand) Validate() error {
	if strings.TrimSpace(c.CustomerID) == "" {
		return fmt.Errorf("%w: customer_id is required", domain.ErrValidation)
	}
	if strings.TrimSpace(c.ProductID) == "" {
		return fmt.Errorf("%w: product_id is required", domain.ErrValidation)
	}
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return fmt.Errorf("%w: start_date and end_date are required", domain.ErrValidation)
	}
	if !c.Actor.IsAdmin() && !c.Actor.Owns(c.CustomerID) {
		return fmt.Errorf("%w: cannot book on behalf of customer %s", domain.ErrUnauthorized, c.CustomerID)
	}
	return nil
}

type CreateBookingHandler struct {
	bookings ports.BookingRepository
	products ports.ProductRepository
	events   ports.EventBus
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewCreateBookingHandler(
	bookings ports.BookingRepository,
	products ports.ProductRepository,
	events ports.EventBus,
	logger *slog.Logger,
	metrics *metrics.Metrics,
) *CreateBookingHandler {
	return &CreateBookingHandler{
		bookings: bookings,
		products: products,
		events:   events,
		logger:   logger,
		metrics:  metrics,
	}
}

func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*domain.Booking, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	product, err := h.products.GetByID(ctx, cmd.ProductID)
	if err != nil {
		return nil, notFound(err, "product", cmd.ProductID)
	}

	booking, err := domain.NewBooking(uuid.NewString(), cmd.CustomerID, *product, cmd.StartDate, cmd.EndDate, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := h.bookings.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("save booking: %w", err)
	}

	h.metrics.RecordBookingCreated(ctx, booking.ProductID)
	publishFailed(ctx, h.logger, "booking.created", h.events.PublishBookingCreated(ctx, booking))

	return &booking, nil
}
