package handlers

import (
	"net/http"
	"time"

	"gamebank/internal/config"
	"gamebank/internal/fanout"
	"gamebank/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handler struct {
	cfg       config.Config
	games     GameService
	transfers TransferService
	sessions  SessionService
	db        Pinger
	hub       *fanout.Hub
	started   time.Time
	localIPs  func() []string
	now       func() time.Time
}

func New(cfg config.Config, games GameService, transfers TransferService, sessions SessionService, db Pinger, hub *fanout.Hub) *Handler {
	return &Handler{
		cfg:       cfg,
		games:     games,
		transfers: transfers,
		sessions:  sessions,
		db:        db,
		hub:       hub,
		started:   time.Now(),
		localIPs:  localIPv4s,
		now:       time.Now,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", middleware.SessionHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/games", func(r chi.Router) {
		r.Post("/", h.CreateGame)
		r.Get("/{id}", h.GetGame)
		r.Delete("/{id}", h.EndGame)
		r.Get("/{id}/stats", h.GameStatistics)
		r.Get("/{id}/audit", h.AuditGame)
		r.Get("/{id}/audit/history", h.AuditHistory)
		r.Get("/{id}/qr.png", h.JoinQR)
	})
	router.Post("/join", h.Join)
	router.Post("/tx", h.Transfer)
	router.Get("/tx", h.ListTransactions)
	router.Get("/accounts", h.ListAccounts)
	router.With(middleware.Session(h.sessions)).Get("/me", h.Me)
	router.Get("/health", h.Health)
	router.Get("/ws", h.WS)
	return router
}
