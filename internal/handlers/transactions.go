package handlers

import (
	"encoding/json"
	"net/http"

	"gamebank/internal/models"
	"gamebank/internal/services"
)

type transferRequest struct {
	GameID        string          `json:"gameId"`
	FromAccountID string          `json:"fromAccountId"`
	ToAccountID   string          `json:"toAccountId"`
	Amount        json.RawMessage `json:"amount"`
	Note          *string         `json:"note"`
}

func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	result, err := h.transfers.Transfer(r.Context(), services.TransferRequest{
		GameID:        req.GameID,
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        amount,
		Note:          req.Note,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"success":          true,
		"transactionId":    result.Transaction.ID,
		"transaction":      result.Transaction,
		"balancesSnapshot": result.Balances,
	})
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	gameID := query.Get("gameId")
	if gameID == "" {
		respondError(w, http.StatusBadRequest, "gameId is required")
		return
	}
	limit, err := parseLimit(query.Get("limit"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_limit")
		return
	}
	rows, err := h.games.GetTransactions(r.Context(), services.TransactionFilter{
		GameID:    gameID,
		Limit:     limit,
		Direction: models.Direction(query.Get("type")),
		AccountID: query.Get("accountId"),
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rows)
}
