package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"gamebank/internal/db"
	"gamebank/internal/invariant"
	"gamebank/internal/joincode"
	"gamebank/internal/models"
	"gamebank/internal/money"
	"gamebank/internal/store"
	"gamebank/internal/validator"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const (
	summaryTransactionLimit = 50
	defaultTransactionLimit = 50
	maxTransactionLimit     = 100
	statisticsTopPlayers    = 3
	statisticsRecentLimit   = 10
	auditHistoryLimit       = 20
	bankDisplayName         = "Bank"
)

type GameService struct {
	txRunner     db.TxRunner
	games        GameStore
	accounts     AccountStore
	transactions TransactionStore
	ledger       LedgerStore
	audits       AuditStore
	publisher    Publisher
	locks        *GameLocks
	codes        *joincode.Allocator
	now          func() time.Time
}

func NewGameService(txRunner db.TxRunner, games GameStore, accounts AccountStore, transactions TransactionStore, ledger LedgerStore, audits AuditStore, publisher Publisher, locks *GameLocks, codes *joincode.Allocator) *GameService {
	return &GameService{
		txRunner:     txRunner,
		games:        games,
		accounts:     accounts,
		transactions: transactions,
		ledger:       ledger,
		audits:       audits,
		publisher:    publisher,
		locks:        locks,
		codes:        codes,
		now:          time.Now,
	}
}

type CreateGameRequest struct {
	Name                   string `validate:"required,max=100"`
	CurrencySymbol         string `validate:"required,max=10"`
	TotalBudget            int64  `validate:"min=1000,max=1000000"`
	StartingMoneyPerPlayer int64  `validate:"min=100"`
	AllowNegativeBalances  bool
}

type CreateGameResult struct {
	GameID        string `json:"gameId"`
	JoinCode      string `json:"joinCode"`
	BankAccountID string `json:"bankAccountId"`
}

// CreateGame stores the game, its settings and the bank holding the whole
// budget in one commit. A join code taken between allocation and insert is
// replaced with a fresh one.
func (s *GameService) CreateGame(ctx context.Context, req CreateGameRequest) (CreateGameResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.CurrencySymbol = strings.TrimSpace(req.CurrencySymbol)
	if err := validator.Struct(req); err != nil {
		return CreateGameResult{}, err
	}
	if req.StartingMoneyPerPlayer > req.TotalBudget/10 {
		return CreateGameResult{}, &validator.FieldError{Field: "startingMoneyPerPlayer", Rule: "budget"}
	}

	codes, err := s.games.ActiveJoinCodes(ctx)
	if err != nil {
		return CreateGameResult{}, fault(ctx, "create game", "", err)
	}
	active := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		active[code] = struct{}{}
	}

	for attempt := 0; attempt < joincode.MaxAttempts; attempt++ {
		code, err := s.codes.Allocate(active)
		if err != nil {
			return CreateGameResult{}, fault(ctx, "create game", "", err)
		}
		result := CreateGameResult{GameID: uuid.NewString(), JoinCode: code, BankAccountID: uuid.NewString()}
		now := s.now()
		err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
			if err := s.games.Create(ctx, tx, store.GameInput{
				ID:                     result.GameID,
				Name:                   req.Name,
				JoinCode:               code,
				CurrencySymbol:         req.CurrencySymbol,
				TotalBudget:            req.TotalBudget,
				StartingMoneyPerPlayer: req.StartingMoneyPerPlayer,
				AllowNegativeBalances:  req.AllowNegativeBalances,
				CreatedAt:              now,
			}); err != nil {
				return err
			}
			return s.accounts.Create(ctx, tx, store.AccountInput{
				ID:          result.BankAccountID,
				GameID:      result.GameID,
				Type:        models.AccountBank,
				DisplayName: bankDisplayName,
				Balance:     req.TotalBudget,
				CreatedAt:   now,
			})
		})
		if db.IsUniqueViolation(err, store.ActiveJoinCodeIndex) {
			active[code] = struct{}{}
			continue
		}
		if err != nil {
			return CreateGameResult{}, fault(ctx, "create game", result.GameID, err)
		}
		slog.InfoContext(ctx, "game created",
			"game_id", result.GameID,
			"join_code", code,
			"budget", money.Format(req.TotalBudget, req.CurrencySymbol),
		)
		return result, nil
	}
	return CreateGameResult{}, ErrAllocationExhausted
}

// GetGameSummary reads the game, its accounts and latest transactions from one
// snapshot.
func (s *GameService) GetGameSummary(ctx context.Context, gameID string) (models.GameSummary, error) {
	var summary models.GameSummary
	err := s.txRunner.WithReadTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		summary, err = s.summary(ctx, tx, gameID)
		return err
	})
	if err != nil {
		return models.GameSummary{}, fault(ctx, "game summary", gameID, err)
	}
	return summary, nil
}

func (s *GameService) summary(ctx context.Context, tx *sqlx.Tx, gameID string) (models.GameSummary, error) {
	game, err := s.loadGame(ctx, tx, gameID)
	if err != nil {
		return models.GameSummary{}, err
	}
	accounts, err := s.accounts.ListByGame(ctx, tx, gameID)
	if err != nil {
		return models.GameSummary{}, err
	}
	recent, err := s.transactions.List(ctx, tx, store.TransactionQuery{GameID: gameID, Limit: summaryTransactionLimit})
	if err != nil {
		return models.GameSummary{}, err
	}
	totals := totalsOf(accounts)
	return models.GameSummary{
		Game:               game.Game,
		Settings:           game.Settings(),
		Accounts:           accounts,
		RecentTransactions: recent,
		TotalBudget:        game.TotalBudget,
		BankBalance:        totals.bank,
		InCirculation:      totals.circulating,
		PlayerCount:        totals.players,
	}, nil
}

type TransactionFilter struct {
	GameID    string `validate:"required"`
	Limit     int    `validate:"min=0,max=100"`
	Direction models.Direction
	AccountID string
}

// GetTransactions returns one page of history, newest first. A zero limit
// means the default page size.
func (s *GameService) GetTransactions(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error) {
	if err := validator.Struct(filter); err != nil {
		return nil, err
	}
	if _, _, ok := filter.Direction.AccountTypes(); !ok {
		return nil, ErrInvalidDirection
	}
	if filter.Limit == 0 {
		filter.Limit = defaultTransactionLimit
	}
	var rows []models.Transaction
	err := s.txRunner.WithReadTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.loadGame(ctx, tx, filter.GameID); err != nil {
			return err
		}
		var err error
		rows, err = s.transactions.List(ctx, tx, store.TransactionQuery{
			GameID:    filter.GameID,
			Direction: filter.Direction,
			AccountID: filter.AccountID,
			Limit:     filter.Limit,
		})
		if errors.Is(err, store.ErrUnknownDirection) {
			return ErrInvalidDirection
		}
		return err
	})
	if err != nil {
		return nil, fault(ctx, "list transactions", filter.GameID, err)
	}
	return rows, nil
}

// ListAccounts returns the bank first, then players by name.
func (s *GameService) ListAccounts(ctx context.Context, gameID string) ([]models.Account, error) {
	var accounts []models.Account
	err := s.txRunner.WithReadTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.loadGame(ctx, tx, gameID); err != nil {
			return err
		}
		var err error
		accounts, err = s.accounts.ListByGame(ctx, tx, gameID)
		return err
	})
	if err != nil {
		return nil, fault(ctx, "list accounts", gameID, err)
	}
	return accounts, nil
}

type GameStatistics struct {
	TotalBudget       int64                `json:"totalBudget"`
	BankBalance       int64                `json:"bankBalance"`
	InCirculation     int64                `json:"totalInCirculation"`
	PlayerCount       int                  `json:"playerCount"`
	TransactionVolume int64                `json:"transactionVolume"`
	TransactionCount  int64                `json:"transactionCount"`
	TopPlayers        []models.Account     `json:"topPlayers"`
	RecentActivity    []models.Transaction `json:"recentActivity"`
	BudgetUtilization float64              `json:"budgetUtilization"`
}

func (s *GameService) GetGameStatistics(ctx context.Context, gameID string) (GameStatistics, error) {
	var stats GameStatistics
	err := s.txRunner.WithReadTx(ctx, func(tx *sqlx.Tx) error {
		game, err := s.loadGame(ctx, tx, gameID)
		if err != nil {
			return err
		}
		accounts, err := s.accounts.ListByGame(ctx, tx, gameID)
		if err != nil {
			return err
		}
		ledgerTotals, err := s.ledger.Totals(ctx, tx, gameID)
		if err != nil {
			return err
		}
		recent, err := s.transactions.List(ctx, tx, store.TransactionQuery{GameID: gameID, Limit: statisticsRecentLimit})
		if err != nil {
			return err
		}
		totals := totalsOf(accounts)
		stats = GameStatistics{
			TotalBudget:       game.TotalBudget,
			BankBalance:       totals.bank,
			InCirculation:     totals.circulating,
			PlayerCount:       totals.players,
			TransactionVolume: ledgerTotals.TransactionVolume,
			TransactionCount:  ledgerTotals.TransactionCount,
			TopPlayers:        topPlayers(accounts, statisticsTopPlayers),
			RecentActivity:    recent,
			BudgetUtilization: utilization(totals.circulating, game.TotalBudget),
		}
		return nil
	})
	if err != nil {
		return GameStatistics{}, fault(ctx, "game statistics", gameID, err)
	}
	return stats, nil
}

// EndGame moves an active game to ENDED. Ending an ended game is a no-op that
// still returns the summary, and publishes nothing.
func (s *GameService) EndGame(ctx context.Context, gameID string) (models.GameSummary, error) {
	unlock := s.locks.Lock(gameID)
	defer unlock()

	var summary models.GameSummary
	var ended bool
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		ended = false
		game, err := s.games.GetForUpdate(ctx, tx, gameID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrGameNotFound
		}
		if err != nil {
			return err
		}
		if game.Active() {
			rows, err := s.games.End(ctx, tx, gameID, s.now())
			if err != nil {
				return err
			}
			if rows != 1 {
				return fmt.Errorf("end game %s: %d rows affected", gameID, rows)
			}
			ended = true
		}
		summary, err = s.summary(ctx, tx, gameID)
		return err
	})
	if err != nil {
		return models.GameSummary{}, fault(ctx, "end game", gameID, err)
	}
	if ended {
		slog.InfoContext(ctx, "game ended", "game_id", gameID)
		s.publisher.Publish(gameID, models.EventGameEnded, models.GameEndedPayload{Summary: summary})
	}
	return summary, nil
}

// AuditGame recomputes the money supply and every stored balance from the
// transaction log. Faults are logged and reported, never repaired.
func (s *GameService) AuditGame(ctx context.Context, gameID string) (invariant.BudgetReport, error) {
	var report invariant.BudgetReport
	err := s.txRunner.WithReadTx(ctx, func(tx *sqlx.Tx) error {
		game, err := s.loadGame(ctx, tx, gameID)
		if err != nil {
			return err
		}
		accounts, err := s.accounts.ListByGame(ctx, tx, gameID)
		if err != nil {
			return err
		}
		replays, err := s.ledger.ReplayAccounts(ctx, tx, gameID)
		if err != nil {
			return err
		}
		report = invariant.AuditBudget(game.Game, game.Settings(), accounts)
		for _, replay := range replays {
			if replay.Difference() != 0 {
				report.Mismatched = append(report.Mismatched, invariant.AccountMismatch{
					AccountID: replay.AccountID,
					Stored:    replay.StoredBalance,
					Replayed:  replay.ReplayedBalance,
				})
			}
		}
		return nil
	})
	if err != nil {
		return invariant.BudgetReport{}, fault(ctx, "audit game", gameID, err)
	}
	if !report.Healthy() {
		slog.ErrorContext(ctx, "budget invariant violated",
			"game_id", gameID,
			"total_budget", report.TotalBudget,
			"sum", report.Sum,
			"drift", report.Drift,
			"negative_accounts", len(report.Negative),
			"mismatched_accounts", len(report.Mismatched),
		)
		s.recordFinding(ctx, report)
	}
	return report, nil
}

// recordFinding keeps a failed audit for later review. A failed write only
// costs the history entry; the report itself is still returned.
func (s *GameService) recordFinding(ctx context.Context, report invariant.BudgetReport) {
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.audits.Record(ctx, tx, store.AuditInput{
			ID:                 uuid.NewString(),
			GameID:             report.GameID,
			TotalBudget:        report.TotalBudget,
			Sum:                report.Sum,
			Drift:              report.Drift,
			NegativeAccounts:   len(report.Negative),
			MismatchedAccounts: len(report.Mismatched),
			CreatedAt:          s.now(),
		})
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to record audit finding", "game_id", report.GameID, "error", err)
	}
}

// AuditHistory lists the most recent recorded findings for a game.
func (s *GameService) AuditHistory(ctx context.Context, gameID string) ([]models.AuditFinding, error) {
	var findings []models.AuditFinding
	err := s.txRunner.WithReadTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := s.loadGame(ctx, tx, gameID); err != nil {
			return err
		}
		rows, err := s.audits.ListByGame(ctx, tx, gameID, auditHistoryLimit)
		if err != nil {
			return err
		}
		findings = rows
		return nil
	})
	if err != nil {
		return nil, fault(ctx, "audit history", gameID, err)
	}
	return findings, nil
}

// AuditActiveGames audits every active game and returns how many are faulty.
func (s *GameService) AuditActiveGames(ctx context.Context) (int, error) {
	ids, err := s.games.ListActiveIDs(ctx)
	if err != nil {
		return 0, fault(ctx, "audit active games", "", err)
	}
	faulty := 0
	for _, id := range ids {
		report, err := s.AuditGame(ctx, id)
		if errors.Is(err, ErrGameNotFound) {
			continue
		}
		if err != nil {
			return faulty, err
		}
		if !report.Healthy() {
			faulty++
		}
	}
	return faulty, nil
}

func (s *GameService) loadGame(ctx context.Context, tx *sqlx.Tx, gameID string) (store.GameRecord, error) {
	game, err := s.games.GetByID(ctx, tx, gameID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.GameRecord{}, ErrGameNotFound
	}
	return game, err
}

type accountTotals struct {
	bank        int64
	circulating int64
	players     int
}

func totalsOf(accounts []models.Account) accountTotals {
	var totals accountTotals
	for _, account := range accounts {
		switch account.Type {
		case models.AccountBank:
			totals.bank += account.Balance
		case models.AccountPlayer:
			totals.circulating += account.Balance
			totals.players++
		}
	}
	return totals
}

func topPlayers(accounts []models.Account, n int) []models.Account {
	players := make([]models.Account, 0, len(accounts))
	for _, account := range accounts {
		if account.Type == models.AccountPlayer {
			players = append(players, account)
		}
	}
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].Balance > players[j].Balance
	})
	if len(players) > n {
		players = players[:n]
	}
	return players
}

// utilization is the share of the budget held by players, in percent with
// two decimals.
func utilization(circulating, totalBudget int64) float64 {
	if totalBudget == 0 {
		return 0
	}
	return decimal.NewFromInt(circulating).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(totalBudget), 2).
		InexactFloat64()
}
