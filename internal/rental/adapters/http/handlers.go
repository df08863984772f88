package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dejobratic/cosrent/internal/auth"
	"github.com/dejobratic/cosrent/internal/rental/app"
	"github.com/dejobratic/cosrent/internal/rental/app/queries"
	"github.com/dejobratic/cosrent/internal/rental/domain"
	"github.com/dejobratic/cosrent/internal/rental/ports"
	"github.com/dejobratic/cosrent/internal/reports"
)

const defaultMaxUploadBytes = 5 << 20

// Subscriber serves the realtime event feed for an authenticated actor.
type Subscriber interface {
	ServeWS(w http.ResponseWriter, r *http.Request, actor domain.Actor) error
}

// Handler exposes HTTP endpoints for the rental back office.
type Handler struct {
	service        *app.Service
	verifier       Verifier
	feed           Subscriber
	logger         *slog.Logger
	validate       *validator.Validate
	maxUploadBytes int64
}

type Option func(*Handler)

// WithFeed enables GET /v1/ws.
func WithFeed(feed Subscriber) Option {
	return func(h *Handler) { h.feed = feed }
}

func WithMaxUploadBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// NewHandler constructs a Handler.
func NewHandler(service *app.Service, verifier Verifier, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		service:        service,
		verifier:       verifier,
		logger:         logger,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		maxUploadBytes: defaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register binds the rental handlers to the provided ServeMux. Every route
// requires a bearer token.
func (h *Handler) Register(mux *http.ServeMux) {
	route := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, Authenticate(fn, h.verifier))
	}

	route("POST /v1/bookings", h.createBooking)
	route("GET /v1/bookings", h.listBookings)
	route("GET /v1/bookings/export", h.exportBookings)
	route("GET /v1/bookings/{id}", h.getBooking)
	route("POST /v1/bookings/{id}/transitions", h.transitionBooking)
	route("POST /v1/bookings/{id}/cancel", h.cancelBooking)
	route("POST /v1/bookings/{id}/payment", h.submitPaymentProof)
	route("GET /v1/bookings/{id}/payment", h.getPaymentForBooking)

	route("GET /v1/payments", h.listPayments)
	route("GET /v1/payments/{id}", h.getPayment)
	route("POST /v1/payments/{id}/decision", h.adjudicatePayment)

	route("POST /v1/products", h.createProduct)
	route("GET /v1/products", h.listProducts)
	route("GET /v1/products/{id}", h.getProduct)
	route("GET /v1/products/{id}/quote", h.quoteBooking)
	route("PUT /v1/products/{id}/inventory", h.updateInventory)
	route("POST /v1/products/{id}/stock", h.adjustStock)

	if h.feed != nil {
		route("GET /v1/ws", h.subscribe)
	}
}

func actorFrom(ctx context.Context) domain.Actor {
	actor, _ := auth.ActorFrom(ctx)
	return actor
}

func (h *Handler) createBooking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := actorFrom(ctx)

	idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idemKey == "" {
		writeError(w, http.StatusBadRequest, "Idempotency-Key header required")
		return
	}
	scopedKey := actor.ID + ":" + idemKey

	if stored, err := h.service.GetIdempotentResponse(ctx, scopedKey); err != nil {
		writeDomainError(w, err)
		return
	} else if stored != nil {
		for key, values := range restoreHeaders(stored) {
			for _, value := range values {
				w.Header().Add(key, value)
			}
		}
		w.WriteHeader(stored.StatusCode)
		_, _ = w.Write(stored.Body)
		return
	}

	var req createBookingRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	start, err := domain.ParseDate(req.StartDate)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	end, err := domain.ParseDate(req.EndDate)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	customerID := req.CustomerID
	if customerID == "" {
		customerID = actor.ID
	}

	booking, err := h.service.CreateBooking(ctx, actor, customerID, req.ProductID, start, end)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	body, err := json.Marshal(map[string]any{"booking": booking})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	stored := ports.StoredResponse{
		StatusCode: http.StatusCreated,
		Body:       body,
		ResourceID: booking.ID,
	}
	if err := h.service.SaveIdempotentResponse(ctx, scopedKey, stored); err != nil {
		writeDomainError(w, err)
		return
	}

	for key, values := range restoreHeaders(&stored) {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(body)
}

func (h *Handler) getBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.service.GetBooking(r.Context(), actorFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"booking": booking})
}

func (h *Handler) bookingQuery(r *http.Request) (queries.ListBookingsQuery, error) {
	query := queries.ListBookingsQuery{
		Actor:      actorFrom(r.Context()),
		CustomerID: r.URL.Query().Get("customer_id"),
		ProductID:  r.URL.Query().Get("product_id"),
	}
	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		status, err := domain.ParseBookingStatus(statusParam)
		if err != nil {
			return query, err
		}
		query.Status = &status
	}
	query.Page, query.PageSize = pageParams(r)
	return query, nil
}

func (h *Handler) listBookings(w http.ResponseWriter, r *http.Request) {
	query, err := h.bookingQuery(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	bookings, err := h.service.ListBookings(r.Context(), query)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bookings":  bookings,
		"page":      query.Page,
		"page_size": query.PageSize,
	})
}

func (h *Handler) exportBookings(w http.ResponseWriter, r *http.Request) {
	query, err := h.bookingQuery(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := h.service.ExportBookings(r.Context(), query, &buf); err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", reports.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", `attachment; filename="bookings.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) transitionBooking(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	target, err := domain.ParseBookingStatus(req.Status)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	booking, err := h.service.TransitionBooking(r.Context(), actorFrom(r.Context()), r.PathValue("id"), target)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"booking": booking})
}

func (h *Handler) cancelBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.service.CancelBooking(r.Context(), actorFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"booking": booking})
}

// submitPaymentProof accepts either a JSON body carrying proof_ref or a
// multipart form with amount_cents and a proof image file.
func (h *Handler) submitPaymentProof(w http.ResponseWriter, r *http.Request) {
	input := app.SubmitPaymentProofInput{BookingID: r.PathValue("id")}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		upload, amount, err := h.readProofForm(w, r)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		input.AmountCents = amount
		input.Upload = upload
	} else {
		var req submitProofRequest
		if err := h.decodeJSON(r, &req); err != nil {
			writeDomainError(w, err)
			return
		}
		input.AmountCents = req.AmountCents
		input.ProofRef = req.ProofRef
	}

	payment, err := h.service.SubmitPaymentProof(r.Context(), actorFrom(r.Context()), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"payment": payment})
}

func (h *Handler) readProofForm(w http.ResponseWriter, r *http.Request) (*ports.ProofUpload, int64, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		return nil, 0, fmt.Errorf("%w: invalid multipart form: %v", domain.ErrValidation, err)
	}

	amount, err := strconv.ParseInt(r.FormValue("amount_cents"), 10, 64)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: amount_cents must be an integer", domain.ErrValidation)
	}

	file, header, err := r.FormFile("proof")
	if err != nil {
		return nil, 0, fmt.Errorf("%w: proof file is required", domain.ErrValidation)
	}

	// Sniff rather than trust the client's part header.
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, 0, fmt.Errorf("read proof: %w", err)
	}
	head = head[:n]

	return &ports.ProofUpload{
		Filename:    header.Filename,
		ContentType: http.DetectContentType(head),
		Body:        io.MultiReader(bytes.NewReader(head), file),
	}, amount, nil
}

func (h *Handler) getPaymentForBooking(w http.ResponseWriter, r *http.Request) {
	payment, err := h.service.GetPaymentForBooking(r.Context(), actorFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payment": payment})
}

func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := h.service.GetPayment(r.Context(), actorFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payment": payment})
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	query := queries.ListPaymentsQuery{Actor: actorFrom(r.Context())}
	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		status, err := domain.ParsePaymentStatus(statusParam)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		query.Status = &status
	}
	query.Page, query.PageSize = pageParams(r)

	payments, err := h.service.ListPayments(r.Context(), query)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if payments == nil {
		payments = []domain.Payment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"payments":  payments,
		"page":      query.Page,
		"page_size": query.PageSize,
	})
}

func (h *Handler) adjudicatePayment(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := h.decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	decision, err := domain.ParseDecision(req.Decision)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	payment, err := h.service.AdjudicatePayment(r.Context(), actorFrom(r.Context()), r.PathValue("id"), decision)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payment": payment})
}

func (h *Handler) subscribe(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	if err := h.feed.ServeWS(w, r, actor); err != nil {
		// The upgrader has already written the failure response.
		h.logger.WarnContext(r.Context(), "websocket upgrade failed",
			slog.String("actor_id", actor.ID),
			slog.String("error", err.Error()),
		)
	}
}

// restoreHeaders rebuilds the headers of a stored response.
func restoreHeaders(stored *ports.StoredResponse) http.Header {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	if stored.ResourceID != "" {
		header.Set("Location", "/v1/bookings/"+stored.ResourceID)
	}
	return header
}
