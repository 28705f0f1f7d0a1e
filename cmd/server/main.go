package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gamebank/internal/config"
	"gamebank/internal/db"
	"gamebank/internal/fanout"
	"gamebank/internal/handlers"
	"gamebank/internal/joincode"
	"gamebank/internal/logging"
	"gamebank/internal/services"
	"gamebank/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.IsProduction())

	database, err := db.Connect(cfg.DatabaseURL, db.PoolOptions{
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
	})
	if err != nil {
		logger.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	games := store.NewGameStore(database)
	accounts := store.NewAccountStore(database)
	transactions := store.NewTransactionStore(database)
	ledger := store.NewLedgerStore(database)
	sessions := store.NewSessionStore(database)
	audits := store.NewAuditStore(database)
	txRunner := db.NewTxRunner(database)
	hub := fanout.NewHub()
	locks := services.NewGameLocks()

	gameService := services.NewGameService(txRunner, games, accounts, transactions, ledger, audits, hub, locks, joincode.NewAllocator(nil))
	transferService := services.NewTransferService(txRunner, games, accounts, transactions, sessions, hub, locks)
	sessionService := services.NewSessionService(txRunner, sessions, accounts, games)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go services.RunAuditor(ctx, gameService, cfg.AuditInterval)

	handler := handlers.New(cfg, gameService, transferService, sessionService, database, hub)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("game bank listening", "addr", server.Addr, "env", cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	hub.Close()
}
