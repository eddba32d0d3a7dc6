package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/LucasLaguilio/Doce-Traco-backend/internal/domain"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

type errorMapping struct {
	err    error
	status int
	code   string
}

// Order matters: an error wrapping several sentinels takes the first match.
var errorMappings = []errorMapping{
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "unauthorized"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
	{domain.ErrInvalidInput, http.StatusBadRequest, "invalid_request"},
	{domain.ErrProductNotFound, http.StatusNotFound, "product_not_found"},
	{domain.ErrCartNotFound, http.StatusNotFound, "cart_not_found"},
	{domain.ErrItemNotFound, http.StatusNotFound, "item_not_found"},
	{domain.ErrEmptyCart, http.StatusBadRequest, "empty_cart"},
	{domain.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{domain.ErrInvalidState, http.StatusBadRequest, "invalid_state"},
	{domain.ErrGatewayDown, http.StatusServiceUnavailable, "payment_unavailable"},
	{domain.ErrGateway, http.StatusBadRequest, "payment_failed"},
	{domain.ErrConflict, http.StatusConflict, "conflict"},
	{domain.ErrTimeout, http.StatusGatewayTimeout, "timeout"},
}

// handleServiceError converts an engine error into an HTTP response. Internal
// details are logged, never returned.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ge *domain.GatewayError
	if errors.As(err, &ge) {
		respondError(w, http.StatusBadRequest, "payment_failed", ge.Message)
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			if m.status >= http.StatusInternalServerError {
				slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
			}
			respondError(w, m.status, m.code, m.err.Error())
			return
		}
	}

	slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}
