package handlers

import (
	"net/http"

	"gamebank/internal/middleware"
)

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("gameId")
	if gameID == "" {
		respondError(w, http.StatusBadRequest, "gameId is required")
		return
	}
	accounts, err := h.games.ListAccounts(r.Context(), gameID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, accounts)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.sessions.Touch(r.Context(), session); err != nil {
		respondServiceError(w, r, err)
		return
	}
	me, err := h.sessions.Me(r.Context(), session)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"gameId":  me.Session.GameID,
		"account": me.Account,
		"game":    me.Game,
	})
}
