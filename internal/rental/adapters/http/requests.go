package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dejobratic/cosrent/internal/rental/domain"
	"github.com/dejobratic/cosrent/internal/rental/ports"
)

type createBookingRequest struct {
	CustomerID string `json:"customer_id" validate:"omitempty,max=64"`
	ProductID  string `json:"product_id" validate:"required,max=64"`
	StartDate  string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

type transitionRequest struct {
	Status string `json:"status" validate:"required"`
}

type submitProofRequest struct {
	AmountCents int64  `json:"amount_cents" validate:"gt=0"`
	ProofRef    string `json:"proof_ref" validate:"required,max=2048"`
}

type decisionRequest struct {
	Decision string `json:"decision" validate:"required"`
}

type createProductRequest struct {
	NameEN           string   `json:"name_en" validate:"required_without=NameTH,max=200"`
	NameTH           string   `json:"name_th" validate:"required_without=NameEN,max=200"`
	PricePerDayCents int64    `json:"price_per_day_cents" validate:"gt=0"`
	Stock            int      `json:"stock" validate:"gte=0"`
	Available        bool     `json:"available"`
	Size             string   `json:"size" validate:"max=16"`
	CategoryID       string   `json:"category_id" validate:"max=64"`
	Images           []string `json:"images" validate:"dive,url"`
}

type inventoryRequest struct {
	Stock     *int  `json:"stock" validate:"required,gte=0"`
	Available *bool `json:"available" validate:"required"`
}

type adjustStockRequest struct {
	Delta int `json:"delta" validate:"ne=0"`
}

// decodeJSON reads a JSON body into dst and runs struct validation. Both
// failures surface as validation errors.
func (h *Handler) decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON payload", domain.ErrValidation)
	}
	return h.validateStruct(dst)
}

func (h *Handler) validateStruct(v any) error {
	err := h.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(msgs, "; "))
	}
	return fmt.Errorf("%w: %v", domain.ErrValidation, err)
}

func pageParams(r *http.Request) (page, pageSize int) {
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil {
		pageSize = v
	}
	return ports.Normalize(page, pageSize)
}

func boolParam(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}
