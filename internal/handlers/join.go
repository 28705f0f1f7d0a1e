package handlers

import (
	"encoding/json"
	"net/http"

	"gamebank/internal/middleware"
	"gamebank/internal/services"
)

type joinRequest struct {
	JoinCode    string `json:"joinCode"`
	DisplayName string `json:"displayName"`
}

func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	result, err := h.transfers.Join(r.Context(), services.JoinRequest{
		JoinCode:    req.JoinCode,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    result.SessionToken,
		Path:     "/",
		MaxAge:   int(h.cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"sessionToken": result.SessionToken,
		"gameId":       result.Game.ID,
		"accountId":    result.Account.ID,
		"balance":      result.Account.Balance,
		"account":      result.Account,
	})
}
