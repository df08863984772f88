package domain

import "errors"

// Error kinds surfaced to callers. Handlers wrap them with detail via
// fmt.Errorf("%w: ...") and callers match with errors.Is.
var (
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrInvalidDateRange   = errors.New("end date must not be before start date")
	ErrValidation         = errors.New("validation failed")
	ErrUploadFailed       = errors.New("proof upload failed")
	ErrAlreadyAdjudicated = errors.New("payment already adjudicated")
	ErrProductUnavailable = errors.New("product is not available for booking")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrInvalidTransition, "invalid_transition"},
	{ErrUnauthorized, "unauthorized"},
	{ErrNotFound, "not_found"},
	{ErrInvalidDateRange, "invalid_date_range"},
	{ErrValidation, "validation_error"},
	{ErrUploadFailed, "upload_failed"},
	{ErrAlreadyAdjudicated, "already_adjudicated"},
	{ErrProductUnavailable, "product_unavailable"},
}

// Kind returns a stable identifier for the error kind wrapped by err, or
// "internal" when err does not carry one of the domain kinds.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "internal"
}
