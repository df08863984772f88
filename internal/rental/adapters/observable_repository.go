package adapters

import (
	"context"
	"time"

	"github.com/dejobratic/cosrent/internal/database"
	"github.com/dejobratic/cosrent/internal/rental/domain"
	"github.com/dejobratic/cosrent/internal/rental/ports"
	"github.com/dejobratic/cosrent/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// traced runs one repository call inside a span and records its duration.
func traced[T any](
	ctx context.Context,
	metrics *database.Metrics,
	spanName, operation string,
	attrs []attribute.KeyValue,
	call func(ctx context.Context) (T, error),
) (T, error) {
	ctx, span := telemetry.StartSpan(ctx, spanName)
	defer span.End()

	telemetry.AddSpanAttributes(span, append(attrs, attribute.String("operation", operation))...)

	start := time.Now()
	result, err := call(ctx)
	metrics.RecordQuery(ctx, operation, time.Since(start).Seconds(), err)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return result, err
	}

	telemetry.SetSpanSuccess(span)
	return result, nil
}

func resultCount(span trace.Span, n int) {
	telemetry.AddSpanAttributes(span, attribute.Int("result.count", n))
}

type ObservableBookingRepository struct {
	repo    ports.BookingRepository
	metrics *database.Metrics
}

func NewObservableBookingRepository(repo ports.BookingRepository, metrics *database.Metrics) *ObservableBookingRepository {
	return &ObservableBookingRepository{repo: repo, metrics: metrics}
}

func (r *ObservableBookingRepository) Create(ctx context.Context, booking domain.Booking) error {
	_, err := traced(ctx, r.metrics, "BookingRepository.Create", "create_booking",
		[]attribute.KeyValue{
			attribute.String("booking.id", booking.ID),
			attribute.String("booking.product_id", booking.ProductID),
		},
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, r.repo.Create(ctx, booking)
		})
	return err
}

func (r *ObservableBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	return traced(ctx, r.metrics, "BookingRepository.GetByID", "get_booking_by_id",
		[]attribute.KeyValue{attribute.String("booking.id", id)},
		func(ctx context.Context) (*domain.Booking, error) {
			return r.repo.GetByID(ctx, id)
		})
}

func (r *ObservableBookingRepository) List(ctx context.Context, filter ports.BookingFilter) ([]domain.Booking, error) {
	attrs := []attribute.KeyValue{
		attribute.Int("page", filter.Page),
		attribute.Int("page_size", filter.PageSize),
	}
	if filter.Status != nil {
		attrs = append(attrs, attribute.String("filter.status", string(*filter.Status)))
	}
	return traced(ctx, r.metrics, "BookingRepository.List", "list_bookings", attrs,
		func(ctx context.Context) ([]domain.Booking, error) {
			bookings, err := r.repo.List(ctx, filter)
			resultCount(trace.SpanFromContext(ctx), len(bookings))
			return bookings, err
		})
}

func (r *ObservableBookingRepository) UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus) (*domain.Booking, error) {
	return traced(ctx, r.metrics, "BookingRepository.UpdateStatus", "update_booking_status",
		[]attribute.KeyValue{
			attribute.String("booking.id", id),
			attribute.String("booking.from_status", string(from)),
			attribute.String("booking.to_status", string(to)),
		},
		func(ctx context.Context) (*domain.Booking, error) {
			return r.repo.UpdateStatus(ctx, id, from, to)
		})
}

type ObservablePaymentRepository struct {
	repo    ports.PaymentRepository
	metrics *database.Metrics
}

func NewObservablePaymentRepository(repo ports.PaymentRepository, metrics *database.Metrics) *ObservablePaymentRepository {
	return &ObservablePaymentRepository{repo: repo, metrics: metrics}
}

func (r *ObservablePaymentRepository) Upsert(ctx context.Context, payment domain.Payment) (*domain.Payment, error) {
	return traced(ctx, r.metrics, "PaymentRepository.Upsert", "upsert_payment",
		[]attribute.KeyValue{attribute.String("payment.booking_id", payment.BookingID)},
		func(ctx context.Context) (*domain.Payment, error) {
			return r.repo.Upsert(ctx, payment)
		})
}

func (r *ObservablePaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	return traced(ctx, r.metrics, "PaymentRepository.GetByID", "get_payment_by_id",
		[]attribute.KeyValue{attribute.String("payment.id", id)},
		func(ctx context.Context) (*domain.Payment, error) {
			return r.repo.GetByID(ctx, id)
		})
}

func (r *ObservablePaymentRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.Payment, error) {
	return traced(ctx, r.metrics, "PaymentRepository.GetByBookingID", "get_payment_by_booking",
		[]attribute.KeyValue{attribute.String("payment.booking_id", bookingID)},
		func(ctx context.Context) (*domain.Payment, error) {
			return r.repo.GetByBookingID(ctx, bookingID)
		})
}

func (r *ObservablePaymentRepository) List(ctx context.Context, filter ports.PaymentFilter) ([]domain.Payment, error) {
	attrs := []attribute.KeyValue{
		attribute.Int("page", filter.Page),
		attribute.Int("page_size", filter.PageSize),
	}
	if filter.Status != nil {
		attrs = append(attrs, attribute.String("filter.status", string(*filter.Status)))
	}
	return traced(ctx, r.metrics, "PaymentRepository.List", "list_payments", attrs,
		func(ctx context.Context) ([]domain.Payment, error) {
			payments, err := r.repo.List(ctx, filter)
			resultCount(trace.SpanFromContext(ctx), len(payments))
			return payments, err
		})
}

func (r *ObservablePaymentRepository) Adjudicate(ctx context.Context, id string, decision domain.PaymentStatus, reviewer string, at time.Time) (*domain.Payment, error) {
	return traced(ctx, r.metrics, "PaymentRepository.Adjudicate", "adjudicate_payment",
		[]attribute.KeyValue{
			attribute.String("payment.id", id),
			attribute.String("payment.decision", string(decision)),
		},
		func(ctx context.Context) (*domain.Payment, error) {
			return r.repo.Adjudicate(ctx, id, decision, reviewer, at)
		})
}

type ObservableProductRepository struct {
	repo    ports.ProductRepository
	metrics *database.Metrics
}

func NewObservableProductRepository(repo ports.ProductRepository, metrics *database.Metrics) *ObservableProductRepository {
	return &ObservableProductRepository{repo: repo, metrics: metrics}
}

func (r *ObservableProductRepository) Create(ctx context.Context, product domain.Product) error {
	_, err := traced(ctx, r.metrics, "ProductRepository.Create", "create_product",
		[]attribute.KeyValue{attribute.String("product.id", product.ID)},
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, r.repo.Create(ctx, product)
		})
	return err
}

func (r *ObservableProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return traced(ctx, r.metrics, "ProductRepository.GetByID", "get_product_by_id",
		[]attribute.KeyValue{attribute.String("product.id", id)},
		func(ctx context.Context) (*domain.Product, error) {
			return r.repo.GetByID(ctx, id)
		})
}

func (r *ObservableProductRepository) List(ctx context.Context, filter ports.ProductFilter) ([]domain.Product, error) {
	return traced(ctx, r.metrics, "ProductRepository.List", "list_products",
		[]attribute.KeyValue{
			attribute.Bool("filter.bookable_only", filter.BookableOnly),
			attribute.String("filter.category_id", filter.CategoryID),
		},
		func(ctx context.Context) ([]domain.Product, error) {
			products, err := r.repo.List(ctx, filter)
			resultCount(trace.SpanFromContext(ctx), len(products))
			return products, err
		})
}

func (r *ObservableProductRepository) UpdateInventory(ctx context.Context, id string, stock int, available bool) (*domain.Product, error) {
	return traced(ctx, r.metrics, "ProductRepository.UpdateInventory", "update_product_inventory",
		[]attribute.KeyValue{
			attribute.String("product.id", id),
			attribute.Int("product.stock", stock),
		},
		func(ctx context.Context) (*domain.Product, error) {
			return r.repo.UpdateInventory(ctx, id, stock, available)
		})
}

func (r *ObservableProductRepository) AdjustStock(ctx context.Context, id string, delta int) (*domain.Product, error) {
	return traced(ctx, r.metrics, "ProductRepository.AdjustStock", "adjust_product_stock",
		[]attribute.KeyValue{
			attribute.String("product.id", id),
			attribute.Int("product.stock_delta", delta),
		},
		func(ctx context.Context) (*domain.Product, error) {
			return r.repo.AdjustStock(ctx, id, delta)
		})
}
