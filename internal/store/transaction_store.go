package store

import (
	"context"
	"errors"
	"time"

	"gamebank/internal/models"
)

var ErrUnknownDirection = errors.New("unknown transaction direction")

type TransactionStore struct {
	db DB
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

type TransactionInput struct {
	ID            string
	GameID        string
	FromAccountID string
	ToAccountID   string
	Amount        int64
	Note          *string
	CreatedAt     time.Time
}

// TransactionQuery selects one page of history, newest first.
type TransactionQuery struct {
	GameID    string
	Direction models.Direction
	AccountID string
	Limit     int
}

const transactionColumns = `
		SELECT t.id, t.game_id, t.from_account_id, t.to_account_id,
		       fa.display_name AS from_name, ta.display_name AS to_name,
		       fa.type AS from_type, ta.type AS to_type,
		       t.amount, t.note, t.created_at
		FROM transactions t
		JOIN accounts fa ON fa.id = t.from_account_id
		JOIN accounts ta ON ta.id = t.to_account_id
`

func (s *TransactionStore) Create(ctx context.Context, tx Execer, input TransactionInput) error {
	query := `
		INSERT INTO transactions (id, game_id, from_account_id, to_account_id, amount, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.GameID, input.FromAccountID, input.ToAccountID, input.Amount, input.Note, input.CreatedAt,
	)
	return err
}

func (s *TransactionStore) GetByID(ctx context.Context, q Getter, transactionID string) (models.Transaction, error) {
	var row models.Transaction
	if err := q.GetContext(ctx, &row, transactionColumns+` WHERE t.id = $1`, transactionID); err != nil {
		return models.Transaction{}, err
	}
	return row, nil
}

// List runs one fixed statement; the filter variants only change its
// parameters, an empty string disabling that clause.
func (s *TransactionStore) List(ctx context.Context, q Selecter, query TransactionQuery) ([]models.Transaction, error) {
	fromType, toType, ok := query.Direction.AccountTypes()
	if !ok {
		return nil, ErrUnknownDirection
	}
	rows := []models.Transaction{}
	err := q.SelectContext(ctx, &rows, transactionColumns+`
		WHERE t.game_id = $1
		  AND ($2::text = '' OR t.from_account_id = $2 OR t.to_account_id = $2)
		  AND ($3::text = '' OR (fa.type = $3 AND ta.type = $4))
		ORDER BY t.seq DESC
		LIMIT $5
	`, query.GameID, query.AccountID, string(fromType), string(toType), query.Limit)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
