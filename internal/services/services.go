package services

import (
	"context"
	"time"

	"gamebank/internal/models"
	"gamebank/internal/store"
)

type GameStore interface {
	Create(ctx context.Context, tx store.Execer, input store.GameInput) error
	GetByID(ctx context.Context, q store.Getter, gameID string) (store.GameRecord, error)
	GetForUpdate(ctx context.Context, tx store.Getter, gameID string) (store.GameRecord, error)
	GetActiveByJoinCode(ctx context.Context, q store.Getter, joinCode string) (store.GameRecord, error)
	ActiveJoinCodes(ctx context.Context) ([]string, error)
	ListActiveIDs(ctx context.Context) ([]string, error)
	End(ctx context.Context, tx store.Execer, gameID string, at time.Time) (int64, error)
}

type AccountStore interface {
	Create(ctx context.Context, tx store.Execer, input store.AccountInput) error
	GetByID(ctx context.Context, q store.Getter, accountID string) (models.Account, error)
	GetForUpdate(ctx context.Context, tx store.Getter, gameID, accountID string) (models.Account, error)
	GetBank(ctx context.Context, q store.Getter, gameID string) (models.Account, error)
	AdjustBalance(ctx context.Context, tx store.Execer, accountID string, delta int64, at time.Time) (int64, error)
	ListByGame(ctx context.Context, q store.Selecter, gameID string) ([]models.Account, error)
}

type TransactionStore interface {
	Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error
	List(ctx context.Context, q store.Selecter, query store.TransactionQuery) ([]models.Transaction, error)
}

type LedgerStore interface {
	ReplayAccounts(ctx context.Context, q store.Selecter, gameID string) ([]store.AccountReplay, error)
	Totals(ctx context.Context, q store.Getter, gameID string) (store.LedgerTotals, error)
}

type AuditStore interface {
	Record(ctx context.Context, tx store.Execer, input store.AuditInput) error
	ListByGame(ctx context.Context, q store.Selecter, gameID string, limit int) ([]models.AuditFinding, error)
}

type SessionStore interface {
	Create(ctx context.Context, tx store.Execer, input store.SessionInput) error
	GetByHash(ctx context.Context, tokenHash string) (store.SessionRecord, error)
	Touch(ctx context.Context, tokenHash string, at time.Time) error
}

// Publisher receives committed ledger events. Implementations must not block.
type Publisher interface {
	Publish(gameID string, kind models.EventKind, payload any)
}
