package sqlite

import (
	"time"

	"github.com/dejobratic/cosrent/internal/rental/domain"
)

type productRecord struct {
	ID               string `gorm:"primaryKey"`
	NameEN           string `gorm:"column:name_en;index"`
	NameTH           string `gorm:"column:name_th"`
	PricePerDayCents int64  `gorm:"not null"`
	Stock            int    `gorm:"not null;default:0"`
	Available        bool   `gorm:"not null;default:true"`
	Size             string
	CategoryID       string   `gorm:"index"`
	Images           []string `gorm:"serializer:json"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (productRecord) TableName() string { return "products" }

func productFromDomain(p domain.Product) productRecord {
	return productRecord{
		ID:               p.ID,
		NameEN:           p.NameEN,
		NameTH:           p.NameTH,
		PricePerDayCents: p.PricePerDayCents,
		Stock:            p.Stock,
		Available:        p.Available,
		Size:             p.Size,
		CategoryID:       p.CategoryID,
		Images:           p.Images,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func (r productRecord) toDomain() domain.Product {
	return domain.Product{
		ID:               r.ID,
		NameEN:           r.NameEN,
		NameTH:           r.NameTH,
		PricePerDayCents: r.PricePerDayCents,
		Stock:            r.Stock,
		Available:        r.Available,
		Size:             r.Size,
		CategoryID:       r.CategoryID,
		Images:           r.Images,
		CreatedAt:        r.CreatedAt.UTC(),
		UpdatedAt:        r.UpdatedAt.UTC(),
	}
}

type bookingRecord struct {
	ID               string    `gorm:"primaryKey"`
	CustomerID       string    `gorm:"not null;index"`
	ProductID        string    `gorm:"not null;index"`
	StartDate        time.Time `gorm:"not null"`
	EndDate          time.Time `gorm:"not null"`
	Days             int       `gorm:"not null"`
	PricePerDayCents int64     `gorm:"not null"`
	TotalCents       int64     `gorm:"not null"`
	Status           string    `gorm:"size:16;not null;index"`
	CreatedAt        time.Time `gorm:"index"`
	UpdatedAt        time.Time
}

func (bookingRecord) TableName() string { return "bookings" }

func bookingFromDomain(b domain.Booking) bookingRecord {
	return bookingRecord{
		ID:               b.ID,
		CustomerID:       b.CustomerID,
		ProductID:        b.ProductID,
		StartDate:        b.StartDate,
		EndDate:          b.EndDate,
		Days:             b.Days,
		PricePerDayCents: b.PricePerDayCents,
		TotalCents:       b.TotalCents,
		Status:           string(b.Status),
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

func (r bookingRecord) toDomain() domain.Booking {
	return domain.Booking{
		ID:               r.ID,
		CustomerID:       r.CustomerID,
		ProductID:        r.ProductID,
		StartDate:        domain.TruncateDate(r.StartDate.UTC()),
		EndDate:          domain.TruncateDate(r.EndDate.UTC()),
		Days:             r.Days,
		PricePerDayCents: r.PricePerDayCents,
		TotalCents:       r.TotalCents,
		Status:           domain.BookingStatus(r.Status),
		CreatedAt:        r.CreatedAt.UTC(),
		UpdatedAt:        r.UpdatedAt.UTC(),
	}
}

type paymentRecord struct {
	ID          string `gorm:"primaryKey"`
	BookingID   string `gorm:"not null;uniqueIndex"`
	CustomerID  string `gorm:"not null"`
	AmountCents int64  `gorm:"not null"`
	ProofRef    string `gorm:"not null"`
	Status      string `gorm:"size:16;not null;index"`
	ReviewedBy  string
	ReviewedAt  *time.Time
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
}

func (paymentRecord) TableName() string { return "payments" }

func paymentFromDomain(p domain.Payment) paymentRecord {
	return paymentRecord{
		ID:          p.ID,
		BookingID:   p.BookingID,
		CustomerID:  p.CustomerID,
		AmountCents: p.AmountCents,
		ProofRef:    p.ProofRef,
		Status:      string(p.Status),
		ReviewedBy:  p.ReviewedBy,
		ReviewedAt:  p.ReviewedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (r paymentRecord) toDomain() domain.Payment {
	p := domain.Payment{
		ID:          r.ID,
		BookingID:   r.BookingID,
		CustomerID:  r.CustomerID,
		AmountCents: r.AmountCents,
		ProofRef:    r.ProofRef,
		Status:      domain.PaymentStatus(r.Status),
		ReviewedBy:  r.ReviewedBy,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
	if r.ReviewedAt != nil {
		at := r.ReviewedAt.UTC()
		p.ReviewedAt = &at
	}
	return p
}
