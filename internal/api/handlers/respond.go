package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/georepute/backend/internal/contracts"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Stage string `json:"stage,omitempty"`
	Field string `json:"field,omitempty"`
}

type ctxKey struct{}

// WithRequestContext stores the caller identity on ctx
func WithRequestContext(ctx context.Context, rc contracts.RequestContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// RequestContextFrom returns the caller identity set by the auth middleware
func RequestContextFrom(ctx context.Context) (contracts.RequestContext, bool) {
	rc, ok := ctx.Value(ctxKey{}).(contracts.RequestContext)
	return rc, ok && rc.UserID != ""
}

// StatusFor maps a domain error to an HTTP status
// ⭐ SSOT: 에러 → HTTP 상태 매핑은 여기서만
func StatusFor(err error) int {
	switch contracts.ErrorKind(err) {
	case "validation":
		return http.StatusBadRequest
	case "not_found":
		return http.StatusNotFound
	case "invalid_transition", "not_deletable":
		return http.StatusConflict
	case "rate_limited":
		return http.StatusTooManyRequests
	case "stage_failed":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, kind, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Kind: kind})
}

// respondErr writes err with its mapped status. Internal errors hide their text.
func respondErr(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	body := ErrorResponse{Error: err.Error(), Kind: contracts.ErrorKind(err)}
	if stage, ok := contracts.FailedStage(err); ok {
		body.Stage = stage.Label()
	}
	var ve *contracts.ValidationError
	if errors.As(err, &ve) {
		body.Field = ve.Field
	}
	if status == http.StatusInternalServerError {
		body.Error = "Internal server error"
	}
	respondJSON(w, status, body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dest); err != nil {
		return contracts.NewValidationError("body", "invalid JSON: "+err.Error())
	}
	return nil
}
