package domain

import (
	"fmt"
	"strings"
	"time"
)

// Product is a rentable costume.
type Product struct {
	ID               string    `json:"id"`
	NameEN           string    `json:"name_en"`
	NameTH           string    `json:"name_th"`
	PricePerDayCents int64     `json:"price_per_day_cents"`
	Stock            int       `json:"stock"`
	Available        bool      `json:"available"`
	Size             string    `json:"size"`
	CategoryID       string    `json:"category_id"`
	Images           []string  `json:"images"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// IsBookable reports whether a new booking may be placed against the product.
func (p Product) IsBookable() bool {
	return p.Stock > 0 && p.Available
}

// Name picks the localized name, falling back to English.
func (p Product) Name(lang string) string {
	if strings.EqualFold(lang, "th") && p.NameTH != "" {
		return p.NameTH
	}
	return p.NameEN
}

func (p Product) Validate() error {
	if strings.TrimSpace(p.NameEN) == "" && strings.TrimSpace(p.NameTH) == "" {
		return fmt.Errorf("%w: product needs a name", ErrValidation)
	}
	if p.PricePerDayCents <= 0 {
		return fmt.Errorf("%w: price_per_day_cents must be positive", ErrValidation)
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", ErrValidation)
	}
	for i, img := range p.Images {
		if strings.TrimSpace(img) == "" {
			return fmt.Errorf("%w: image %d is empty", ErrValidation, i)
		}
	}
	return nil
}
