package handlers

import (
	"context"

	"gamebank/internal/invariant"
	"gamebank/internal/models"
	"gamebank/internal/services"
)

type GameService interface {
	CreateGame(ctx context.Context, req services.CreateGameRequest) (services.CreateGameResult, error)
	GetGameSummary(ctx context.Context, gameID string) (models.GameSummary, error)
	GetTransactions(ctx context.Context, filter services.TransactionFilter) ([]models.Transaction, error)
	ListAccounts(ctx context.Context, gameID string) ([]models.Account, error)
	GetGameStatistics(ctx context.Context, gameID string) (services.GameStatistics, error)
	EndGame(ctx context.Context, gameID string) (models.GameSummary, error)
	AuditGame(ctx context.Context, gameID string) (invariant.BudgetReport, error)
	AuditHistory(ctx context.Context, gameID string) ([]models.AuditFinding, error)
}

type TransferService interface {
	Transfer(ctx context.Context, req services.TransferRequest) (services.TransferResult, error)
	Join(ctx context.Context, req services.JoinRequest) (services.JoinResult, error)
}

type SessionService interface {
	Resolve(ctx context.Context, token string) (services.SessionContext, error)
	Touch(ctx context.Context, session services.SessionContext) error
	Me(ctx context.Context, session services.SessionContext) (services.Me, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}
