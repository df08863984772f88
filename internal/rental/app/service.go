package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dejobratic/cosrent/internal/rental/app/commands"
	"github.com/dejobratic/cosrent/internal/rental/app/queries"
	"github.com/dejobratic/cosrent/internal/rental/domain"
	"github.com/dejobratic/cosrent/internal/rental/metrics"
	"github.com/dejobratic/cosrent/internal/rental/ports"
	"github.com/dejobratic/cosrent/internal/reports"
)

// Dependencies collects the adapters the service is wired with.
type Dependencies struct {
	Bookings    ports.BookingRepository
	Payments    ports.PaymentRepository
	Products    ports.ProductRepository
	Events      ports.EventBus
	Idempotency ports.IdempotencyStore
	// Proofs may be nil; uploads are then rejected.
	Proofs  ports.ProofStore
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// AutoConfirmOnApproval moves a PENDING booking to CONFIRMED after its
	// payment is approved.
	AutoConfirmOnApproval bool
}

// Service bundles the rental use cases exposed to the API.
type Service struct {
	idemStore ports.IdempotencyStore

	createBooking     commands.Handler[commands.CreateBookingCommand, *domain.Booking]
	transitionBooking commands.Handler[commands.TransitionBookingCommand, *domain.Booking]
	submitPayment     commands.Handler[commands.SubmitPaymentProofCommand, *domain.Payment]
	adjudicatePayment commands.Handler[commands.AdjudicatePaymentCommand, *domain.Payment]
	createProduct     commands.Handler[commands.CreateProductCommand, *domain.Product]
	updateInventory   commands.Handler[commands.UpdateInventoryCommand, *domain.Product]
	adjustStock       commands.Handler[commands.AdjustStockCommand, *domain.Product]

	getBooking           *queries.GetBookingQueryHandler
	listBookings         *queries.ListBookingsQueryHandler
	getPayment           *queries.GetPaymentQueryHandler
	getPaymentForBooking *queries.GetPaymentForBookingQueryHandler
	listPayments         *queries.ListPaymentsQueryHandler
	getProduct           *queries.GetProductQueryHandler
	listProducts         *queries.ListProductsQueryHandler
	quoteBooking         *queries.QuoteBookingQueryHandler
}

// NewService wires required dependencies.
func NewService(deps Dependencies) *Service {
	logger, m := deps.Logger, deps.Metrics

	return &Service{
		idemStore: deps.Idempotency,

		createBooking: commands.NewObservableHandler[commands.CreateBookingCommand, *domain.Booking](
			commands.NewCreateBookingHandler(deps.Bookings, deps.Products, deps.Events, logger, m), logger, m),
		transitionBooking: commands.NewObservableHandler[commands.TransitionBookingCommand, *domain.Booking](
			commands.NewTransitionBookingHandler(deps.Bookings, deps.Events, logger, m), logger, m),
		submitPayment: commands.NewObservableHandler[commands.SubmitPaymentProofCommand, *domain.Payment](
			commands.NewSubmitPaymentProofHandler(deps.Bookings, deps.Payments, deps.Proofs, deps.Events, logger), logger, m),
		adjudicatePayment: commands.NewObservableHandler[commands.AdjudicatePaymentCommand, *domain.Payment](
			commands.NewAdjudicatePaymentHandler(deps.Payments, deps.Bookings, deps.Events, logger, m, deps.AutoConfirmOnApproval), logger, m),
		createProduct: commands.NewObservableHandler[commands.CreateProductCommand, *domain.Product](
			commands.NewCreateProductHandler(deps.Products), logger, m),
		updateInventory: commands.NewObservableHandler[commands.UpdateInventoryCommand, *domain.Product](
			commands.NewUpdateInventoryHandler(deps.Products), logger, m),
		adjustStock: commands.NewObservableHandler[commands.AdjustStockCommand, *domain.Product](
			commands.NewAdjustStockHandler(deps.Products), logger, m),

		getBooking:           queries.NewGetBookingQueryHandler(deps.Bookings),
		listBookings:         queries.NewListBookingsQueryHandler(deps.Bookings),
		getPayment:           queries.NewGetPaymentQueryHandler(deps.Payments),
		getPaymentForBooking: queries.NewGetPaymentForBookingQueryHandler(deps.Bookings, deps.Payments),
		listPayments:         queries.NewListPaymentsQueryHandler(deps.Payments),
		getProduct:           queries.NewGetProductQueryHandler(deps.Products),
		listProducts:         queries.NewListProductsQueryHandler(deps.Products),
		quoteBooking:         queries.NewQuoteBookingQueryHandler(deps.Products),
	}
}

// CreateBooking prices and stores a PENDING booking for customerID.
func (s *Service) CreateBooking(ctx context.Context, actor domain.Actor, customerID, productID string, start, end time.Time) (*domain.Booking, error) {
	return s.createBooking.Handle(ctx, commands.CreateBookingCommand{
		Actor:      actor,
		CustomerID: customerID,
		ProductID:  productID,
		StartDate:  start,
		EndDate:    end,
	})
}

// TransitionBooking moves a booking along the lifecycle graph.
func (s *Service) TransitionBooking(ctx context.Context, actor domain.Actor, bookingID string, target domain.BookingStatus) (*domain.Booking, error) {
	return s.transitionBooking.Handle(ctx, commands.TransitionBookingCommand{
		Actor:     actor,
		BookingID: bookingID,
		Target:    target,
	})
}

// CancelBooking is TransitionBooking to CANCELLED.
func (s *Service) CancelBooking(ctx context.Context, actor domain.Actor, bookingID string) (*domain.Booking, error) {
	return s.TransitionBooking(ctx, actor, bookingID, domain.BookingCancelled)
}

// SubmitPaymentProofInput carries either ProofRef or Upload.
type SubmitPaymentProofInput struct {
	BookingID   string
	AmountCents int64
	ProofRef    string
	Upload      *ports.ProofUpload
}

func (s *Service) SubmitPaymentProof(ctx context.Context, actor domain.Actor, input SubmitPaymentProofInput) (*domain.Payment, error) {
	return s.submitPayment.Handle(ctx, commands.SubmitPaymentProofCommand{
		Actor:       actor,
		BookingID:   input.BookingID,
		AmountCents: input.AmountCents,
		ProofRef:    input.ProofRef,
		Upload:      input.Upload,
	})
}

func (s *Service) AdjudicatePayment(ctx context.Context, actor domain.Actor, paymentID string, decision domain.PaymentStatus) (*domain.Payment, error) {
	return s.adjudicatePayment.Handle(ctx, commands.AdjudicatePaymentCommand{
		Actor:     actor,
		PaymentID: paymentID,
		Decision:  decision,
	})
}

// CreateProductInput captures the catalogue fields of a new product.
type CreateProductInput struct {
	NameEN           string   `json:"name_en"`
	NameTH           string   `json:"name_th"`
	PricePerDayCents int64    `json:"price_per_day_cents"`
	Stock            int      `json:"stock"`
	Available        bool     `json:"available"`
	Size             string   `json:"size"`
	CategoryID       string   `json:"category_id"`
	Images           []string `json:"images"`
}

func (s *Service) CreateProduct(ctx context.Context, actor domain.Actor, input CreateProductInput) (*domain.Product, error) {
	return s.createProduct.Handle(ctx, commands.CreateProductCommand{
		Actor:            actor,
		NameEN:           input.NameEN,
		NameTH:           input.NameTH,
		PricePerDayCents: input.PricePerDayCents,
		Stock:            input.Stock,
		Available:        input.Available,
		Size:             input.Size,
		CategoryID:       input.CategoryID,
		Images:           input.Images,
	})
}

func (s *Service) UpdateInventory(ctx context.Context, actor domain.Actor, productID string, stock int, available bool) (*domain.Product, error) {
	return s.updateInventory.Handle(ctx, commands.UpdateInventoryCommand{
		Actor:     actor,
		ProductID: productID,
		Stock:     stock,
		Available: available,
	})
}

func (s *Service) AdjustStock(ctx context.Context, actor domain.Actor, productID string, delta int) (*domain.Product, error) {
	return s.adjustStock.Handle(ctx, commands.AdjustStockCommand{
		Actor:     actor,
		ProductID: productID,
		Delta:     delta,
	})
}

func (s *Service) GetBooking(ctx context.Context, actor domain.Actor, id string) (*domain.Booking, error) {
	return s.getBooking.Handle(ctx, queries.GetBookingQuery{Actor: actor, BookingID: id})
}

func (s *Service) ListBookings(ctx context.Context, query queries.ListBookingsQuery) ([]domain.Booking, error) {
	return s.listBookings.Handle(ctx, query)
}

func (s *Service) GetPayment(ctx context.Context, actor domain.Actor, id string) (*domain.Payment, error) {
	return s.getPayment.Handle(ctx, queries.GetPaymentQuery{Actor: actor, PaymentID: id})
}

func (s *Service) GetPaymentForBooking(ctx context.Context, actor domain.Actor, bookingID string) (*domain.Payment, error) {
	return s.getPaymentForBooking.Handle(ctx, queries.GetPaymentForBookingQuery{Actor: actor, BookingID: bookingID})
}

func (s *Service) ListPayments(ctx context.Context, query queries.ListPaymentsQuery) ([]domain.Payment, error) {
	return s.listPayments.Handle(ctx, query)
}

func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.getProduct.Handle(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context, query queries.ListProductsQuery) ([]domain.Product, error) {
	return s.listProducts.Handle(ctx, query)
}

func (s *Service) QuoteBooking(ctx context.Context, productID string, start, end time.Time) (*queries.QuoteResult, error) {
	return s.quoteBooking.Handle(ctx, queries.QuoteBookingQuery{
		ProductID: productID,
		StartDate: start,
		EndDate:   end,
	})
}

// ExportBookings writes every booking matching query to w as an XLSX
// workbook. Page and PageSize on the query are ignored.
func (s *Service) ExportBookings(ctx context.Context, query queries.ListBookingsQuery, w io.Writer) error {
	if !query.Actor.IsAdmin() {
		return fmt.Errorf("%w: only an admin may export bookings", domain.ErrUnauthorized)
	}

	var all []domain.Booking
	query.PageSize = ports.MaxPageSize
	for page := 1; ; page++ {
		query.Page = page
		batch, err := s.listBookings.Handle(ctx, query)
		if err != nil {
			return err
		}
		all = append(all, batch...)
		if len(batch) < ports.MaxPageSize {
			break
		}
	}

	return reports.WriteBookings(w, all)
}

// SaveIdempotentResponse writes response details for a key.
func (s *Service) SaveIdempotentResponse(ctx context.Context, key string, response ports.StoredResponse) error {
	return s.idemStore.Save(ctx, key, response)
}

// GetIdempotentResponse retrieves previously stored response data.
func (s *Service) GetIdempotentResponse(ctx context.Context, key string) (*ports.StoredResponse, error) {
	return s.idemStore.Get(ctx, key)
}
