package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"gamebank/internal/db"
	"gamebank/internal/invariant"
	"gamebank/internal/models"
	"gamebank/internal/money"
	"gamebank/internal/store"
	"gamebank/internal/validator"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const startingMoneyNote = "Starting money"

// TransferService moves money between accounts of one game. Every mutation of
// a game, joins included, runs under that game's lock and inside one
// serializable storage transaction.
type TransferService struct {
	txRunner     db.TxRunner
	games        GameStore
	accounts     AccountStore
	transactions TransactionStore
	sessions     SessionStore
	publisher    Publisher
	locks        *GameLocks
	now          func() time.Time
	random       io.Reader
}

func NewTransferService(txRunner db.TxRunner, games GameStore, accounts AccountStore, transactions TransactionStore, sessions SessionStore, publisher Publisher, locks *GameLocks) *TransferService {
	return &TransferService{
		txRunner:     txRunner,
		games:        games,
		accounts:     accounts,
		transactions: transactions,
		sessions:     sessions,
		publisher:    publisher,
		locks:        locks,
		now:          time.Now,
		random:       rand.Reader,
	}
}

type TransferRequest struct {
	GameID        string `validate:"required"`
	FromAccountID string `validate:"required"`
	ToAccountID   string `validate:"required"`
	Amount        int64
	Note          *string `validate:"omitempty,max=200"`
}

type TransferResult struct {
	Transaction models.Transaction      `json:"transaction"`
	Balances    models.BalancesSnapshot `json:"balancesSnapshot"`
}

func (s *TransferService) Transfer(ctx context.Context, req TransferRequest) (TransferResult, error) {
	if err := validator.Struct(req); err != nil {
		return TransferResult{}, err
	}
	if err := invariant.CheckAmount(req.Amount); err != nil {
		return TransferResult{}, err
	}
	if err := invariant.CheckDistinct(req.FromAccountID, req.ToAccountID); err != nil {
		return TransferResult{}, err
	}
	if req.Note != nil && strings.TrimSpace(*req.Note) == "" {
		req.Note = nil
	}

	unlock := s.locks.Lock(req.GameID)
	defer unlock()

	var result TransferResult
	var symbol string
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		game, err := s.games.GetForUpdate(ctx, tx, req.GameID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrGameNotFound
		}
		if err != nil {
			return err
		}
		from, to, err := lockTwoAccounts(ctx, tx, s.accounts, game.ID, req.FromAccountID, req.ToAccountID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidAccount
		}
		if err != nil {
			return err
		}
		err = invariant.CheckTransfer(invariant.Proposal{
			Game:     game.Game,
			Settings: game.Settings(),
			From:     from,
			To:       to,
			Amount:   req.Amount,
		})
		if errors.Is(err, invariant.ErrForeignAccount) {
			return ErrInvalidAccount
		}
		if err != nil {
			return err
		}
		transaction, err := s.apply(ctx, tx, game.ID, from, to, req.Amount, req.Note)
		if err != nil {
			return err
		}
		accounts, err := s.accounts.ListByGame(ctx, tx, game.ID)
		if err != nil {
			return err
		}
		result = TransferResult{Transaction: transaction, Balances: models.SnapshotOf(accounts)}
		symbol = game.CurrencySymbol
		return nil
	})
	if err != nil {
		return TransferResult{}, fault(ctx, "transfer", req.GameID, err)
	}
	slog.DebugContext(ctx, "transfer applied",
		"game_id", req.GameID,
		"transaction_id", result.Transaction.ID,
		"amount", money.Format(req.Amount, symbol),
	)
	s.publisher.Publish(req.GameID, models.EventTransactionCreated, models.TransactionCreated{
		Transaction:      result.Transaction,
		BalancesSnapshot: result.Balances,
	})
	return result, nil
}

type JoinRequest struct {
	JoinCode    string `validate:"required,joincode"`
	DisplayName string `validate:"required,max=50"`
}

type JoinResult struct {
	SessionToken string             `json:"-"`
	Game         models.Game        `json:"game"`
	Account      models.Account     `json:"account"`
	Transaction  models.Transaction `json:"transaction"`
}

// Join opens a player account funded from the bank. The account, its funding
// transfer and the device session commit together or not at all.
func (s *TransferService) Join(ctx context.Context, req JoinRequest) (JoinResult, error) {
	req.JoinCode = strings.ToUpper(strings.TrimSpace(req.JoinCode))
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := validator.Struct(req); err != nil {
		return JoinResult{}, err
	}

	var gameID string
	err := s.txRunner.WithReadTx(ctx, func(tx *sqlx.Tx) error {
		game, err := s.games.GetActiveByJoinCode(ctx, tx, req.JoinCode)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidCode
		}
		if err != nil {
			return err
		}
		gameID = game.ID
		return nil
	})
	if err != nil {
		return JoinResult{}, fault(ctx, "join lookup", "", err)
	}

	token, tokenHash, err := newSessionToken(s.random)
	if err != nil {
		return JoinResult{}, fault(ctx, "join token", gameID, err)
	}

	unlock := s.locks.Lock(gameID)
	defer unlock()

	var result JoinResult
	var balances models.BalancesSnapshot
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		game, err := s.games.GetForUpdate(ctx, tx, gameID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidCode
		}
		if err != nil {
			return err
		}
		if !game.Active() {
			return ErrGameNotActive
		}
		bank, err := s.accounts.GetBank(ctx, tx, gameID)
		if err != nil {
			return err
		}
		bank, err = s.accounts.GetForUpdate(ctx, tx, gameID, bank.ID)
		if err != nil {
			return err
		}
		if bank.Balance < game.StartingMoneyPerPlayer {
			return ErrBankInsolvent
		}

		now := s.now()
		player := models.Account{
			ID:          uuid.NewString(),
			GameID:      gameID,
			Type:        models.AccountPlayer,
			DisplayName: req.DisplayName,
			CreatedAt:   now,
		}
		if err := s.accounts.Create(ctx, tx, store.AccountInput{
			ID:          player.ID,
			GameID:      player.GameID,
			Type:        player.Type,
			DisplayName: player.DisplayName,
			Balance:     0,
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		if err := invariant.CheckTransfer(invariant.Proposal{
			Game:     game.Game,
			Settings: game.Settings(),
			From:     bank,
			To:       player,
			Amount:   game.StartingMoneyPerPlayer,
		}); err != nil {
			return err
		}
		note := startingMoneyNote
		transaction, err := s.apply(ctx, tx, gameID, bank, player, game.StartingMoneyPerPlayer, &note)
		if err != nil {
			return err
		}
		player.Balance = game.StartingMoneyPerPlayer

		if err := storeSession(ctx, s.sessions, tx, tokenHash, gameID, player.ID, now); err != nil {
			return err
		}
		accounts, err := s.accounts.ListByGame(ctx, tx, gameID)
		if err != nil {
			return err
		}
		balances = models.SnapshotOf(accounts)
		result = JoinResult{SessionToken: token, Game: game.Game, Account: player, Transaction: transaction}
		return nil
	})
	if err != nil {
		return JoinResult{}, fault(ctx, "join", gameID, err)
	}
	s.publisher.Publish(gameID, models.EventPlayerJoined, models.PlayerJoined{Account: result.Account})
	s.publisher.Publish(gameID, models.EventTransactionCreated, models.TransactionCreated{
		Transaction:      result.Transaction,
		BalancesSnapshot: balances,
	})
	return result, nil
}

// apply writes both balance deltas and the transaction row. Callers have
// already locked both accounts and run the invariant checks.
func (s *TransferService) apply(ctx context.Context, tx *sqlx.Tx, gameID string, from, to models.Account, amount int64, note *string) (models.Transaction, error) {
	now := s.now()
	fromDelta, toDelta := invariant.Deltas(amount)
	if err := s.adjust(ctx, tx, from.ID, fromDelta, now); err != nil {
		return models.Transaction{}, err
	}
	if err := s.adjust(ctx, tx, to.ID, toDelta, now); err != nil {
		return models.Transaction{}, err
	}
	transaction := models.Transaction{
		ID:            uuid.NewString(),
		GameID:        gameID,
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		FromName:      from.DisplayName,
		ToName:        to.DisplayName,
		FromType:      from.Type,
		ToType:        to.Type,
		Amount:        amount,
		Note:          note,
		CreatedAt:     now,
	}
	if err := s.transactions.Create(ctx, tx, store.TransactionInput{
		ID:            transaction.ID,
		GameID:        gameID,
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        amount,
		Note:          note,
		CreatedAt:     now,
	}); err != nil {
		return models.Transaction{}, err
	}
	return transaction, nil
}

func (s *TransferService) adjust(ctx context.Context, tx *sqlx.Tx, accountID string, delta int64, at time.Time) error {
	rows, err := s.accounts.AdjustBalance(ctx, tx, accountID, delta, at)
	if err != nil {
		return err
	}
	if rows != 1 {
		return fmt.Errorf("adjust balance of %s: %d rows affected", accountID, rows)
	}
	return nil
}

// lockTwoAccounts row-locks both accounts of gameID in id order.
func lockTwoAccounts(ctx context.Context, tx store.Getter, accounts AccountStore, gameID, firstID, secondID string) (models.Account, models.Account, error) {
	leftID, rightID := orderedIDs(firstID, secondID)
	left, err := accounts.GetForUpdate(ctx, tx, gameID, leftID)
	if err != nil {
		return models.Account{}, models.Account{}, err
	}
	right, err := accounts.GetForUpdate(ctx, tx, gameID, rightID)
	if err != nil {
		return models.Account{}, models.Account{}, err
	}
	if firstID == leftID {
		return left, right, nil
	}
	return right, left, nil
}

func orderedIDs(firstID, secondID string) (string, string) {
	if firstID <= secondID {
		return firstID, secondID
	}
	return secondID, firstID
}
