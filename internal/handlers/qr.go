package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"gamebank/internal/models"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"
)

const qrSize = 256

func (h *Handler) JoinQR(w http.ResponseWriter, r *http.Request) {
	summary, err := h.games.GetGameSummary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if summary.Game.Status != models.GameActive {
		respondError(w, http.StatusConflict, "game_not_active")
		return
	}
	png, err := qrcode.Encode(h.joinURL(r, summary.Game.JoinCode), qrcode.Medium, qrSize)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "qr_failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// joinURL points at the join page, using PUBLIC_URL when set and the request
// host otherwise.
func (h *Handler) joinURL(r *http.Request, code string) string {
	base := strings.TrimRight(h.cfg.PublicURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return base + "/join?code=" + url.QueryEscape(code)
}
