package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"gamebank/internal/services"
	"gamebank/internal/validator"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps ledger errors to a status and a stable code.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var fieldErr *validator.FieldError
	switch {
	case errors.As(err, &fieldErr):
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "validation_error",
			"field": fieldErr.Field,
			"rule":  fieldErr.Rule,
		})
	case errors.Is(err, services.ErrValidation):
		respondError(w, http.StatusBadRequest, "validation_error")
	case errors.Is(err, services.ErrInvalidAmount):
		respondError(w, http.StatusBadRequest, "invalid_amount")
	case errors.Is(err, services.ErrSelfTransfer):
		respondError(w, http.StatusBadRequest, "self_transfer")
	case errors.Is(err, services.ErrInvalidDirection):
		respondError(w, http.StatusBadRequest, "invalid_type")
	case errors.Is(err, services.ErrInsufficientFunds):
		respondError(w, http.StatusBadRequest, "insufficient_funds")
	case errors.Is(err, services.ErrGameNotActive):
		respondError(w, http.StatusConflict, "game_not_active")
	case errors.Is(err, services.ErrBankInsolvent):
		respondError(w, http.StatusConflict, "bank_insolvent")
	case errors.Is(err, services.ErrGameNotFound):
		respondError(w, http.StatusNotFound, "game_not_found")
	case errors.Is(err, services.ErrInvalidAccount):
		respondError(w, http.StatusNotFound, "invalid_account")
	case errors.Is(err, services.ErrInvalidCode):
		respondError(w, http.StatusNotFound, "invalid_code")
	case errors.Is(err, services.ErrSessionNotFound):
		respondError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, services.ErrSessionExpired):
		respondError(w, http.StatusUnauthorized, "session_expired")
	case errors.Is(err, services.ErrAllocationExhausted):
		w.Header().Set("Retry-After", "1")
		respondError(w, http.StatusServiceUnavailable, "allocation_exhausted")
	case errors.Is(err, services.ErrPersistenceFault):
		w.Header().Set("Retry-After", "1")
		respondError(w, http.StatusServiceUnavailable, "persistence_fault")
	default:
		slog.ErrorContext(r.Context(), "unhandled error", "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error")
	}
}
