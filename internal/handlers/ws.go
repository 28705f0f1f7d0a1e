package handlers

import (
	"net/http"

	"gamebank/internal/fanout"
)

func (h *Handler) WS(w http.ResponseWriter, r *http.Request) {
	fanout.ServeWS(w, r, h.hub)
}
