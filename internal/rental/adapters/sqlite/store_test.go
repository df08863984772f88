package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dejobratic/cosrent/internal/rental/adapters/sqlite"
	"github.com/dejobratic/cosrent/internal/rental/domain"
	"github.com/dejobratic/cosrent/internal/rental/ports"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "cosrent.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Logf("failed to close store: %v", err)
		}
	})
	return store
}

func seedBooking(t *testing.T, store *sqlite.Store, id string) {
	t.Helper()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()
	err := store.Bookings().Create(context.Background(), domain.Booking{
		ID:               id,
		CustomerID:       "cust-1",
		ProductID:        "prod-1",
		StartDate:        start,
		EndDate:          start.AddDate(0, 0, 1),
		Days:             2,
		PricePerDayCents: 80000,
		TotalCents:       160000,
		Status:           domain.BookingPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		t.Fatalf("failed to create booking: %v", err)
	}
}

func TestStorePing(t *testing.T) {
	if err := openStore(t).Ping(context.Background()); err != nil {
		t.Fatalf("expected ping to succeed, got %v", err)
	}
}

func TestBookingRepository(t *testing.T) {
	repo := openStore(t).Bookings()
	ctx := context.Background()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()

	for i, id := range []string{"bk-1", "bk-2"} {
		err := repo.Create(ctx, domain.Booking{
			ID:               id,
			CustomerID:       "cust-1",
			ProductID:        "prod-1",
			StartDate:        start,
			EndDate:          start.AddDate(0, 0, 1),
			Days:             2,
			PricePerDayCents: 80000,
			TotalCents:       160000,
			Status:           domain.BookingPending,
			CreatedAt:        now.Add(time.Duration(i) * time.Minute),
			UpdatedAt:        now,
		})
		if err != nil {
			t.Fatalf("failed to create booking: %v", err)
		}
	}

	got, err := repo.GetByID(ctx, "bk-1")
	if err != nil {
		t.Fatalf("failed to get booking: %v", err)
	}
	if !got.StartDate.Equal(start) || got.TotalCents != 160000 || got.Status != domain.BookingPending {
		t.Errorf("unexpected booking %+v", got)
	}

	if _, err := repo.GetByID(ctx, "nope"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	list, err := repo.List(ctx, ports.BookingFilter{CustomerID: "cust-1"})
	if err != nil {
		t.Fatalf("failed to list bookings: %v", err)
	}
	if len(list) != 2 || list[0].ID != "bk-2" {
		t.Errorf("expected bk-2 first, got %+v", list)
	}

	updated, err := repo.UpdateStatus(ctx, "bk-1", domain.BookingPending, domain.BookingConfirmed)
	if err != nil {
		t.Fatalf("failed to update status: %v", err)
	}
	if updated.Status != domain.BookingConfirmed {
		t.Errorf("expected CONFIRMED, got %s", updated.Status)
	}

	if _, err := repo.UpdateStatus(ctx, "bk-1", domain.BookingPending, domain.BookingCancelled); !errors.Is(err, ports.ErrStatusConflict) {
		t.Errorf("expected ErrStatusConflict, got %v", err)
	}
	if _, err := repo.UpdateStatus(ctx, "nope", domain.BookingPending, domain.BookingCancelled); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	pending := domain.BookingPending
	list, err = repo.List(ctx, ports.BookingFilter{Status: &pending})
	if err != nil {
		t.Fatalf("failed to list bookings: %v", err)
	}
	if len(list) != 1 || list[0].ID != "bk-2" {
		t.Errorf("expected only bk-2 pending, got %+v", list)
	}
}

func TestPaymentRepository(t *testing.T) {
	store := openStore(t)
	repo := store.Payments()
	ctx := context.Background()
	now := time.Now().UTC()
	seedBooking(t, store, "bk-1")

	first, err := repo.Upsert(ctx, domain.Payment{
		ID:          "pay-1",
		BookingID:   "bk-1",
		CustomerID:  "cust-1",
		AmountCents: 160000,
		ProofRef:    "slip-1.jpg",
		Status:      domain.PaymentPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("failed to insert payment: %v", err)
	}

	if _, err := repo.Adjudicate(ctx, first.ID, domain.PaymentRejected, "admin-1", now); err != nil {
		t.Fatalf("failed to reject payment: %v", err)
	}

	replaced, err := repo.Upsert(ctx, domain.Payment{
		ID:          "pay-2",
		BookingID:   "bk-1",
		CustomerID:  "cust-1",
		AmountCents: 150000,
		ProofRef:    "slip-2.jpg",
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("failed to replace payment: %v", err)
	}
	if replaced.ID != "pay-1" || replaced.Status != domain.PaymentPending || replaced.ReviewedAt != nil || replaced.AmountCents != 150000 {
		t.Errorf("expected pay-1 reset to PENDING, got %+v", replaced)
	}

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Adjudicate(ctx, "pay-1", domain.PaymentApproved, "admin-1", time.Now().UTC())
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case !errors.Is(err, ports.ErrStatusConflict):
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("expected exactly one approval, got %d", succeeded)
	}

	_, err = repo.Upsert(ctx, domain.Payment{ID: "pay-3", BookingID: "bk-1", CustomerID: "cust-1", AmountCents: 1, ProofRef: "x", CreatedAt: now, UpdatedAt: now})
	if !errors.Is(err, ports.ErrStatusConflict) {
		t.Errorf("expected approved payment to be final, got %v", err)
	}

	approved := domain.PaymentApproved
	list, err := repo.List(ctx, ports.PaymentFilter{Status: &approved})
	if err != nil {
		t.Fatalf("failed to list payments: %v", err)
	}
	if len(list) != 1 || list[0].ReviewedBy != "admin-1" {
		t.Errorf("expected one approved payment, got %+v", list)
	}

	byBooking, err := repo.GetByBookingID(ctx, "bk-1")
	if err != nil {
		t.Fatalf("failed to get payment by booking: %v", err)
	}
	if byBooking.ID != "pay-1" {
		t.Errorf("expected pay-1, got %s", byBooking.ID)
	}
}

func TestPaymentUpsertRequiresPendingBooking(t *testing.T) {
	store := openStore(t)
	repo := store.Payments()
	ctx := context.Background()
	now := time.Now().UTC()
	seedBooking(t, store, "bk-1")

	if _, err := store.Bookings().UpdateStatus(ctx, "bk-1", domain.BookingPending, domain.BookingCancelled); err != nil {
		t.Fatalf("failed to cancel booking: %v", err)
	}

	payment := domain.Payment{ID: "pay-1", BookingID: "bk-1", CustomerID: "cust-1", AmountCents: 160000, ProofRef: "slip.jpg", CreatedAt: now, UpdatedAt: now}
	if _, err := repo.Upsert(ctx, payment); !errors.Is(err, ports.ErrBookingNotPending) {
		t.Errorf("expected ErrBookingNotPending, got %v", err)
	}
	if _, err := repo.GetByBookingID(ctx, "bk-1"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected no payment stored, got %v", err)
	}

	payment.BookingID = "missing"
	if _, err := repo.Upsert(ctx, payment); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestProductRepository(t *testing.T) {
	repo := openStore(t).Products()
	ctx := context.Background()

	for _, p := range []domain.Product{
		{ID: "prod-1", NameEN: "Geisha", PricePerDayCents: 50000, Stock: 2, Available: true, Images: []string{"a.jpg", "b.jpg"}},
		{ID: "prod-2", NameEN: "Astronaut", PricePerDayCents: 90000, Stock: 0, Available: true},
	} {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("failed to create product: %v", err)
		}
	}

	got, err := repo.GetByID(ctx, "prod-1")
	if err != nil {
		t.Fatalf("failed to get product: %v", err)
	}
	if len(got.Images) != 2 || got.Images[1] != "b.jpg" {
		t.Errorf("expected images to round trip, got %v", got.Images)
	}

	all, err := repo.List(ctx, ports.ProductFilter{})
	if err != nil {
		t.Fatalf("failed to list products: %v", err)
	}
	if len(all) != 2 || all[0].ID != "prod-2" {
		t.Errorf("expected products ordered by name, got %+v", all)
	}

	bookable, err := repo.List(ctx, ports.ProductFilter{BookableOnly: true})
	if err != nil {
		t.Fatalf("failed to list products: %v", err)
	}
	if len(bookable) != 1 || bookable[0].ID != "prod-1" {
		t.Errorf("expected only prod-1 bookable, got %+v", bookable)
	}

	if _, err := repo.AdjustStock(ctx, "prod-1", -3); !errors.Is(err, ports.ErrInsufficientStock) {
		t.Errorf("expected ErrInsufficientStock, got %v", err)
	}
	adjusted, err := repo.AdjustStock(ctx, "prod-1", -2)
	if err != nil {
		t.Fatalf("failed to adjust stock: %v", err)
	}
	if adjusted.Stock != 0 {
		t.Errorf("expected stock 0, got %d", adjusted.Stock)
	}

	updated, err := repo.UpdateInventory(ctx, "prod-2", 3, false)
	if err != nil {
		t.Fatalf("failed to update inventory: %v", err)
	}
	if updated.Stock != 3 || updated.Available {
		t.Errorf("unexpected inventory %+v", updated)
	}
	if _, err := repo.UpdateInventory(ctx, "nope", 1, true); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
