package store

import (
	"context"
	"time"

	"gamebank/internal/models"
)

// AuditStore keeps the findings of failed budget audits. Healthy audits are
// not recorded.
type AuditStore struct {
	db DB
}

func NewAuditStore(db DB) *AuditStore {
	return &AuditStore{db: db}
}

type AuditInput struct {
	ID                 string
	GameID             string
	TotalBudget        int64
	Sum                int64
	Drift              int64
	NegativeAccounts   int
	MismatchedAccounts int
	CreatedAt          time.Time
}

func (s *AuditStore) Record(ctx context.Context, tx Execer, input AuditInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO budget_audits (id, game_id, total_budget, balance_sum, drift, negative_accounts, mismatched_accounts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, input.ID, input.GameID, input.TotalBudget, input.Sum, input.Drift, input.NegativeAccounts, input.MismatchedAccounts, input.CreatedAt)
	return err
}

func (s *AuditStore) ListByGame(ctx context.Context, q Selecter, gameID string, limit int) ([]models.AuditFinding, error) {
	rows := []models.AuditFinding{}
	err := q.SelectContext(ctx, &rows, `
		SELECT id, game_id, total_budget, balance_sum, drift, negative_accounts, mismatched_accounts, created_at
		FROM budget_audits
		WHERE game_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`, gameID, limit)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
