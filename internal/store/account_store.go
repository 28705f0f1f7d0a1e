package store

import (
	"context"
	"time"

	"gamebank/internal/models"
)

type AccountStore struct {
	db DB
}

func NewAccountStore(db DB) *AccountStore {
	return &AccountStore{db: db}
}

type AccountInput struct {
	ID          string
	GameID      string
	Type        models.AccountType
	DisplayName string
	Balance     int64
	CreatedAt   time.Time
}

func (s *AccountStore) Create(ctx context.Context, tx Execer, input AccountInput) error {
	query := `
		INSERT INTO accounts (id, game_id, type, display_name, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`
	_, err := tx.ExecContext(ctx, query, input.ID, input.GameID, input.Type, input.DisplayName, input.Balance, input.CreatedAt)
	return err
}

func (s *AccountStore) GetByID(ctx context.Context, q Getter, accountID string) (models.Account, error) {
	var row models.Account
	err := q.GetContext(ctx, &row, `
		SELECT id, game_id, type, display_name, balance, created_at
		FROM accounts
		WHERE id = $1
	`, accountID)
	if err != nil {
		return models.Account{}, err
	}
	return row, nil
}

// GetForUpdate row-locks an account of gameID. Accounts of other games are
// reported as missing and never locked.
func (s *AccountStore) GetForUpdate(ctx context.Context, tx Getter, gameID, accountID string) (models.Account, error) {
	var row models.Account
	err := tx.GetContext(ctx, &row, `
		SELECT id, game_id, type, display_name, balance, created_at
		FROM accounts
		WHERE id = $1 AND game_id = $2
		FOR UPDATE
	`, accountID, gameID)
	if err != nil {
		return models.Account{}, err
	}
	return row, nil
}

func (s *AccountStore) GetBank(ctx context.Context, q Getter, gameID string) (models.Account, error) {
	var row models.Account
	err := q.GetContext(ctx, &row, `
		SELECT id, game_id, type, display_name, balance, created_at
		FROM accounts
		WHERE game_id = $1 AND type = 'BANK'
	`, gameID)
	if err != nil {
		return models.Account{}, err
	}
	return row, nil
}

// AdjustBalance applies delta and reports the number of rows touched.
func (s *AccountStore) AdjustBalance(ctx context.Context, tx Execer, accountID string, delta int64, at time.Time) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = balance + $1, updated_at = $2
		WHERE id = $3
	`, delta, at, accountID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListByGame returns the bank first, then players by display name.
func (s *AccountStore) ListByGame(ctx context.Context, q Selecter, gameID string) ([]models.Account, error) {
	var rows []models.Account
	err := q.SelectContext(ctx, &rows, `
		SELECT id, game_id, type, display_name, balance, created_at
		FROM accounts
		WHERE game_id = $1
		ORDER BY type ASC, display_name ASC, created_at ASC
	`, gameID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
