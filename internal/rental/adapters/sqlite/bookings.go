package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dejobratic/cosrent/internal/rental/domain"
	"github.com/dejobratic/cosrent/internal/rental/ports"
	"gorm.io/gorm"
)

type BookingRepository struct {
	db *gorm.DB
}

func (r *BookingRepository) Create(ctx context.Context, booking domain.Booking) error {
	rec := bookingFromDomain(booking)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	return getBooking(r.db.WithContext(ctx), id)
}

func (r *BookingRepository) List(ctx context.Context, filter ports.BookingFilter) ([]domain.Booking, error) {
	page, pageSize := ports.Normalize(filter.Page, filter.PageSize)

	q := r.db.WithContext(ctx).Model(&bookingRecord{})
	if filter.Status != nil {
		q = q.Where("status = ?", string(*filter.Status))
	}
	if filter.CustomerID != "" {
		q = q.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.ProductID != "" {
		q = q.Where("product_id = ?", filter.ProductID)
	}

	var recs []bookingRecord
	err := q.Order("created_at DESC").Order("id DESC").
		Limit(pageSize).Offset(offset(page, pageSize)).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}

	bookings := make([]domain.Booking, 0, len(recs))
	for _, rec := range recs {
		bookings = append(bookings, rec.toDomain())
	}
	return bookings, nil
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus) (*domain.Booking, error) {
	var updated *domain.Booking
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&bookingRecord{}).
			Where("id = ? AND status = ?", id, string(from)).
			Updates(map[string]any{"status": string(to), "updated_at": time.Now().UTC()})
		if res.Error != nil {
			return fmt.Errorf("update booking status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return missingOrConflict(tx, &bookingRecord{}, id, ports.ErrStatusConflict)
		}

		b, err := getBooking(tx, id)
		updated = b
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func getBooking(db *gorm.DB, id string) (*domain.Booking, error) {
	var rec bookingRecord
	if err := db.Where("id = ?", id).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("select booking: %w", err)
	}
	b := rec.toDomain()
	return &b, nil
}

// missingOrConflict runs after a guarded update matched no row.
func missingOrConflict(tx *gorm.DB, model any, id string, conflict error) error {
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return fmt.Errorf("check row: %w", err)
	}
	if n == 0 {
		return ports.ErrNotFound
	}
	return conflict
}
