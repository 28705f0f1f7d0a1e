package handlers

import (
	"encoding/json"
	"net/http"

	"gamebank/internal/services"

	"github.com/go-chi/chi/v5"
)

type createGameRequest struct {
	Name                   string          `json:"name"`
	CurrencySymbol         string          `json:"currencySymbol"`
	TotalBudget            json.RawMessage `json:"totalBudget"`
	StartingMoneyPerPlayer json.RawMessage `json:"startingMoneyPerPlayer"`
	AllowNegativeBalances  bool            `json:"allowNegativeBalances"`
}

func (h *Handler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	totalBudget, err := parseAmount(req.TotalBudget)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_amount", "field": "totalBudget"})
		return
	}
	startingMoney, err := parseAmount(req.StartingMoneyPerPlayer)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_amount", "field": "startingMoneyPerPlayer"})
		return
	}
	result, err := h.games.CreateGame(r.Context(), services.CreateGameRequest{
		Name:                   req.Name,
		CurrencySymbol:         req.CurrencySymbol,
		TotalBudget:            totalBudget,
		StartingMoneyPerPlayer: startingMoney,
		AllowNegativeBalances:  req.AllowNegativeBalances,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	summary, err := h.games.GetGameSummary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (h *Handler) EndGame(w http.ResponseWriter, r *http.Request) {
	summary, err := h.games.EndGame(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "summary": summary})
}

func (h *Handler) GameStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.games.GetGameStatistics(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *Handler) AuditGame(w http.ResponseWriter, r *http.Request) {
	report, err := h.games.AuditGame(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"healthy": report.Healthy(), "report": report})
}

func (h *Handler) AuditHistory(w http.ResponseWriter, r *http.Request) {
	findings, err := h.games.AuditHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, findings)
}
