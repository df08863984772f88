package http

import (
	"net/http"

	"github.com/dejobratic/cosrent/internal/rental/app"
	"github.com/dejobratic/cosrent/internal/rental/app/queries"
	"github.com/dejobratic/cosrent/internal/rental/domain"
)

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), actorFrom(r.Context()), app.CreateProductInput{
		NameEN:           req.NameEN,
		NameTH:           req.NameTH,
		PricePerDayCents: req.PricePerDayCents,
		Stock:            req.Stock,
		Available:        req.Available,
		Size:             req.Size,
		CategoryID:       req.CategoryID,
		Images:           req.Images,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Location", "/v1/products/"+product.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"product": product})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": product})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	query := queries.ListProductsQuery{
		CategoryID:   r.URL.Query().Get("category_id"),
		BookableOnly: boolParam(r, "available"),
	}
	query.Page, query.PageSize = pageParams(r)

	products, err := h.service.ListProducts(r.Context(), query)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"products":  products,
		"page":      query.Page,
		"page_size": query.PageSize,
	})
}

// quoteBooking prices GET /v1/products/{id}/quote?start=YYYY-MM-DD&end=YYYY-MM-DD.
func (h *Handler) quoteBooking(w http.ResponseWriter, r *http.Request) {
	start, err := domain.ParseDate(r.URL.Query().Get("start"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	end, err := domain.ParseDate(r.URL.Query().Get("end"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	quote, err := h.service.QuoteBooking(r.Context(), r.PathValue("id"), start, end)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quote": quote})
}

func (h *Handler) updateInventory(w http.ResponseWriter, r *http.Request) {
	var req inventoryRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	product, err := h.service.UpdateInventory(r.Context(), actorFrom(r.Context()), r.PathValue("id"), *req.Stock, *req.Available)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": product})
}

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	var req adjustStockRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	product, err := h.service.AdjustStock(r.Context(), actorFrom(r.Context()), r.PathValue("id"), req.Delta)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": product})
}
