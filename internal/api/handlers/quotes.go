package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/georepute/backend/internal/contracts"
	"github.com/wonny/georepute/backend/internal/quote"
	"github.com/wonny/georepute/backend/pkg/logger"
)

// QuoteService is satisfied by *quote.Service
type QuoteService interface {
	Create(ctx context.Context, rc contracts.RequestContext, req quote.CreateRequest) (*contracts.Quote, error)
	Get(ctx context.Context, rc contracts.RequestContext, quoteID string) (*contracts.Quote, error)
	List(ctx context.Context, rc contracts.RequestContext, filter contracts.QuoteFilter) ([]*contracts.Quote, error)
	Update(ctx context.Context, rc contracts.RequestContext, quoteID string, raw map[string]json.RawMessage) (*contracts.Quote, error)
	Delete(ctx context.Context, rc contracts.RequestContext, quoteID string) error
	Activity(ctx context.Context, rc contracts.RequestContext, quoteID string) ([]*contracts.ActivityEntry, error)
}

// QuoteHandler handles quote CRUD endpoints
// ⭐ SSOT: 견적 API 핸들러는 이 구조체에서만
type QuoteHandler struct {
	service QuoteService
	logger  *logger.Logger
}

// NewQuoteHandler creates a new quote handler
func NewQuoteHandler(service QuoteService, log *logger.Logger) *QuoteHandler {
	return &QuoteHandler{
		service: service,
		logger:  log.Component("api_quotes"),
	}
}

// QuoteListResponse wraps a page of quotes
type QuoteListResponse struct {
	Quotes []*contracts.Quote `json:"quotes"`
	Count  int                `json:"count"`
}

// ActivityResponse wraps a quote's activity log
type ActivityResponse struct {
	QuoteID  string                     `json:"quote_id"`
	Activity []*contracts.ActivityEntry `json:"activity"`
}

// Create runs the pipeline and stores a draft quote
// POST /api/quotes
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	rc, _ := RequestContextFrom(r.Context())

	var req quote.CreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondErr(w, err)
		return
	}

	q, err := h.service.Create(r.Context(), rc, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, q)
}

// List returns the caller's quotes, newest first
// GET /api/quotes?project_id=&status=&limit=&offset=
func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	rc, _ := RequestContextFrom(r.Context())
	query := r.URL.Query()

	filter := contracts.QuoteFilter{
		ProjectID: query.Get("project_id"),
		Status:    contracts.QuoteStatus(query.Get("status")),
	}

	var err error
	if filter.Limit, err = intParam(query.Get("limit"), "limit"); err != nil {
		respondErr(w, err)
		return
	}
	if filter.Offset, err = intParam(query.Get("offset"), "offset"); err != nil {
		respondErr(w, err)
		return
	}

	quotes, err := h.service.List(r.Context(), rc, filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, QuoteListResponse{Quotes: quotes, Count: len(quotes)})
}

// Get returns one quote
// GET /api/quotes/{id}
func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	rc, _ := RequestContextFrom(r.Context())

	q, err := h.service.Get(r.Context(), rc, mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, q)
}

// Update applies an allow-listed partial update
// PATCH /api/quotes/{id}
func (h *QuoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	rc, _ := RequestContextFrom(r.Context())

	var raw map[string]json.RawMessage
	if err := decodeJSON(w, r, &raw); err != nil {
		respondErr(w, err)
		return
	}

	q, err := h.service.Update(r.Context(), rc, mux.Vars(r)["id"], raw)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, q)
}

// Delete removes a draft quote
// DELETE /api/quotes/{id}
func (h *QuoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	rc, _ := RequestContextFrom(r.Context())

	if err := h.service.Delete(r.Context(), rc, mux.Vars(r)["id"]); err != nil {
		h.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Activity returns the quote's activity log, oldest first
// GET /api/quotes/{id}/activity
func (h *QuoteHandler) Activity(w http.ResponseWriter, r *http.Request) {
	rc, _ := RequestContextFrom(r.Context())
	id := mux.Vars(r)["id"]

	entries, err := h.service.Activity(r.Context(), rc, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, ActivityResponse{QuoteID: id, Activity: entries})
}

func (h *QuoteHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	entry := h.logger.WithError(err).WithFields(map[string]interface{}{
		"method": r.Method,
		"path":   r.URL.Path,
		"status": status,
	})
	if status >= http.StatusInternalServerError {
		entry.Error("Quote request failed")
	} else {
		entry.Debug("Quote request rejected")
	}
	respondErr(w, err)
}

func intParam(value, name string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, contracts.NewValidationError(name, "must be a non-negative integer")
	}
	return n, nil
}
