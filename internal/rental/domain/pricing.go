package domain

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the wire format for rental dates.
const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// Quote is the priced outcome of a candidate rental period.
type Quote struct {
	Days             int   `json:"days"`
	PricePerDayCents int64 `json:"price_per_day_cents"`
	TotalCents       int64 `json:"total_cents"`
}

// ParseDate parses a calendar date in DateLayout.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be formatted as %s", ErrValidation, s, DateLayout)
	}
	return d, nil
}

// TruncateDate drops the time of day, keeping the calendar date as seen in
// the value's own location, and returns it as UTC midnight.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RentalDays counts calendar days in [start, end], both ends inclusive.
func RentalDays(start, end time.Time) (int, error) {
	s, e := TruncateDate(start), TruncateDate(end)
	if e.Before(s) {
		return 0, fmt.Errorf("%w: %s is before %s", ErrInvalidDateRange, e.Format(DateLayout), s.Format(DateLayout))
	}
	return int((e.Unix()-s.Unix())/secondsPerDay) + 1, nil
}

// ComputeTotal prices a rental of perDayCents per day between start and end
// inclusive. Amounts are integer minor units.
func ComputeTotal(start, end time.Time, perDayCents int64) (Quote, error) {
	if perDayCents < 0 {
		return Quote{}, fmt.Errorf("%w: per-day rate must not be negative", ErrValidation)
	}

	days, err := RentalDays(start, end)
	if err != nil {
		return Quote{}, err
	}

	if perDayCents > 0 && int64(days) > math.MaxInt64/perDayCents {
		return Quote{}, fmt.Errorf("%w: total price overflows", ErrValidation)
	}

	return Quote{
		Days:             days,
		PricePerDayCents: perDayCents,
		TotalCents:       int64(days) * perDayCents,
	}, nil
}
