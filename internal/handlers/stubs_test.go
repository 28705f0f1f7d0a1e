package handlers

import (
	"context"
	"errors"
	"time"

	"gamebank/internal/config"
	"gamebank/internal/fanout"
	"gamebank/internal/invariant"
	"gamebank/internal/models"
	"gamebank/internal/services"
)

type stubGames struct {
	createFn       func(context.Context, services.CreateGameRequest) (services.CreateGameResult, error)
	summaryFn      func(context.Context, string) (models.GameSummary, error)
	transactionsFn func(context.Context, services.TransactionFilter) ([]models.Transaction, error)
	accountsFn     func(context.Context, string) ([]models.Account, error)
	statisticsFn   func(context.Context, string) (services.GameStatistics, error)
	endFn          func(context.Context, string) (models.GameSummary, error)
	auditFn        func(context.Context, string) (invariant.BudgetReport, error)
	historyFn      func(context.Context, string) ([]models.AuditFinding, error)
}

func (s stubGames) CreateGame(ctx context.Context, req services.CreateGameRequest) (services.CreateGameResult, error) {
	if s.createFn == nil {
		return services.CreateGameResult{}, errors.New("unexpected call")
	}
	return s.createFn(ctx, req)
}

func (s stubGames) GetGameSummary(ctx context.Context, gameID string) (models.GameSummary, error) {
	if s.summaryFn == nil {
		return models.GameSummary{}, errors.New("unexpected call")
	}
	return s.summaryFn(ctx, gameID)
}

func (s stubGames) GetTransactions(ctx context.Context, filter services.TransactionFilter) ([]models.Transaction, error) {
	if s.transactionsFn == nil {
		return nil, errors.New("unexpected call")
	}
	return s.transactionsFn(ctx, filter)
}

func (s stubGames) ListAccounts(ctx context.Context, gameID string) ([]models.Account, error) {
	if s.accountsFn == nil {
		return nil, errors.New("unexpected call")
	}
	return s.accountsFn(ctx, gameID)
}

func (s stubGames) GetGameStatistics(ctx context.Context, gameID string) (services.GameStatistics, error) {
	if s.statisticsFn == nil {
		return services.GameStatistics{}, errors.New("unexpected call")
	}
	return s.statisticsFn(ctx, gameID)
}

func (s stubGames) EndGame(ctx context.Context, gameID string) (models.GameSummary, error) {
	if s.endFn == nil {
		return models.GameSummary{}, errors.New("unexpected call")
	}
	return s.endFn(ctx, gameID)
}

func (s stubGames) AuditGame(ctx context.Context, gameID string) (invariant.BudgetReport, error) {
	if s.auditFn == nil {
		return invariant.BudgetReport{}, errors.New("unexpected call")
	}
	return s.auditFn(ctx, gameID)
}

func (s stubGames) AuditHistory(ctx context.Context, gameID string) ([]models.AuditFinding, error) {
	if s.historyFn == nil {
		return nil, errors.New("unexpected call")
	}
	return s.historyFn(ctx, gameID)
}

type stubTransfers struct {
	transferFn func(context.Context, services.TransferRequest) (services.TransferResult, error)
	joinFn     func(context.Context, services.JoinRequest) (services.JoinResult, error)
}

func (s stubTransfers) Transfer(ctx context.Context, req services.TransferRequest) (services.TransferResult, error) {
	if s.transferFn == nil {
		return services.TransferResult{}, errors.New("unexpected call")
	}
	return s.transferFn(ctx, req)
}

func (s stubTransfers) Join(ctx context.Context, req services.JoinRequest) (services.JoinResult, error) {
	if s.joinFn == nil {
		return services.JoinResult{}, errors.New("unexpected call")
	}
	return s.joinFn(ctx, req)
}

type stubSessions struct {
	resolveFn func(context.Context, string) (services.SessionContext, error)
	touchFn   func(context.Context, services.SessionContext) error
	meFn      func(context.Context, services.SessionContext) (services.Me, error)
}

func (s stubSessions) Resolve(ctx context.Context, token string) (services.SessionContext, error) {
	if s.resolveFn == nil {
		return services.SessionContext{}, services.ErrSessionNotFound
	}
	return s.resolveFn(ctx, token)
}

func (s stubSessions) Touch(ctx context.Context, session services.SessionContext) error {
	if s.touchFn == nil {
		return nil
	}
	return s.touchFn(ctx, session)
}

func (s stubSessions) Me(ctx context.Context, session services.SessionContext) (services.Me, error) {
	if s.meFn == nil {
		return services.Me{}, errors.New("unexpected call")
	}
	return s.meFn(ctx, session)
}

type stubPinger struct {
	err error
}

func (s stubPinger) PingContext(context.Context) error {
	return s.err
}

func newTestHandler(games GameService, transfers TransferService, sessions SessionService, db Pinger) *Handler {
	cfg := config.Config{
		AppEnv:         "test",
		AllowedOrigins: []string{"*"},
		SessionTTL:     time.Hour,
	}
	h := New(cfg, games, transfers, sessions, db, fanout.NewHub())
	h.localIPs = func() []string { return []string{"192.168.1.20"} }
	return h
}
