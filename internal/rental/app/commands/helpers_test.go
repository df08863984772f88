package commands_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dejobratic/cosrent/internal/rental/adapters/memory"
	"github.com/dejobratic/cosrent/internal/rental/domain"
	"github.com/dejobratic/cosrent/internal/rental/metrics"
	"github.com/dejobratic/cosrent/internal/rental/ports"
	"github.com/stretchr/testify/require"
)

var (
	admin    = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}
	customer = domain.Actor{ID: "cust-1", Role: domain.RoleCustomer}
	stranger = domain.Actor{ID: "cust-2", Role: domain.RoleCustomer}
)

type recordingBus struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (b *recordingBus) record(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, name)
	return b.err
}

func (b *recordingBus) PublishBookingCreated(context.Context, domain.Booking) error {
	return b.record("booking.created")
}

func (b *recordingBus) PublishBookingStatusChanged(context.Context, domain.Booking, domain.BookingStatus) error {
	return b.record("booking.status_changed")
}

func (b *recordingBus) PublishPaymentSubmitted(context.Context, domain.Payment) error {
	return b.record("payment.submitted")
}

func (b *recordingBus) PublishPaymentAdjudicated(context.Context, domain.Payment) error {
	return b.record("payment.adjudicated")
}

func (b *recordingBus) Events() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.events...)
}

type stubProofStore struct {
	ref      string
	err      error
	calls    int
	onUpload func()
}

func (s *stubProofStore) Upload(_ context.Context, _ string, upload ports.ProofUpload) (string, error) {
	s.calls++
	if s.onUpload != nil {
		s.onUpload()
	}
	if s.err != nil {
		return "", s.err
	}
	if _, err := io.ReadAll(upload.Body); err != nil {
		return "", err
	}
	return s.ref, nil
}

type fixture struct {
	bookings *memory.BookingRepository
	payments *memory.PaymentRepository
	products *memory.ProductRepository
	bus      *recordingBus
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	bookings := memory.NewBookingRepository()
	return &fixture{
		bookings: bookings,
		payments: memory.NewPaymentRepository(bookings),
		products: memory.NewProductRepository(),
		bus:      &recordingBus{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:  metrics.NewNoopMetrics(),
	}
}

func (f *fixture) addProduct(t *testing.T, id string, stock int, available bool, perDayCents int64) domain.Product {
	t.Helper()
	p := domain.Product{
		ID:               id,
		NameEN:           "Samurai armour",
		PricePerDayCents: perDayCents,
		Stock:            stock,
		Available:        available,
		CreatedAt:        time.Now().UTC(),
	}
	require.NoError(t, f.products.Create(context.Background(), p))
	return p
}

func (f *fixture) addBooking(t *testing.T, id, customerID string, status domain.BookingStatus) domain.Booking {
	t.Helper()
	b := domain.Booking{
		ID:               id,
		CustomerID:       customerID,
		ProductID:        "prod-1",
		StartDate:        date(t, "2024-03-01"),
		EndDate:          date(t, "2024-03-02"),
		Days:             2,
		PricePerDayCents: 80000,
		TotalCents:       160000,
		Status:           status,
		CreatedAt:        time.Now().UTC(),
	}
	require.NoError(t, f.bookings.Create(context.Background(), b))
	return b
}

func (f *fixture) addPayment(t *testing.T, id, bookingID string, status domain.PaymentStatus) domain.Payment {
	t.Helper()
	p := domain.Payment{
		ID:          id,
		BookingID:   bookingID,
		CustomerID:  customer.ID,
		AmountCents: 160000,
		ProofRef:    "proofs/" + id + ".jpg",
		Status:      domain.PaymentPending,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := f.payments.Upsert(context.Background(), p)
	require.NoError(t, err)
	if status != domain.PaymentPending {
		_, err = f.payments.Adjudicate(context.Background(), id, status, admin.ID, time.Now().UTC())
		require.NoError(t, err)
	}
	return p
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return d
}

var errBoom = errors.New("boom")
