package store

import (
	"context"
	"time"

	"gamebank/internal/models"
)

// ActiveJoinCodeIndex is the partial unique index guarding join codes of
// active games.
const ActiveJoinCodeIndex = "games_active_join_code_idx"

type GameStore struct {
	db DB
}

func NewGameStore(db DB) *GameStore {
	return &GameStore{db: db}
}

// GameRecord is a game row joined with its settings.
type GameRecord struct {
	models.Game
	AllowNegativeBalances bool `db:"allow_negative_balances"`
}

func (r GameRecord) Settings() models.Settings {
	return models.Settings{GameID: r.ID, AllowNegativeBalances: r.AllowNegativeBalances}
}

type GameInput struct {
	ID                     string
	Name                   string
	JoinCode               string
	CurrencySymbol         string
	TotalBudget            int64
	StartingMoneyPerPlayer int64
	AllowNegativeBalances  bool
	CreatedAt              time.Time
}

const gameColumns = `
		SELECT g.id, g.name, g.join_code, g.currency_symbol, g.total_budget, g.starting_money_per_player,
		       g.status, g.created_at, g.ended_at,
		       COALESCE(s.allow_negative_balances, FALSE) AS allow_negative_balances
		FROM games g
		LEFT JOIN game_settings s ON s.game_id = g.id
`

// Create inserts the game row and its settings row. Callers run it in the
// same transaction as the bank account insert.
func (s *GameStore) Create(ctx context.Context, tx Execer, input GameInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO games (id, name, join_code, currency_symbol, total_budget, starting_money_per_player, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'ACTIVE', $7)
	`, input.ID, input.Name, input.JoinCode, input.CurrencySymbol, input.TotalBudget, input.StartingMoneyPerPlayer, input.CreatedAt)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO game_settings (game_id, allow_negative_balances)
		VALUES ($1, $2)
	`, input.ID, input.AllowNegativeBalances)
	return err
}

func (s *GameStore) GetByID(ctx context.Context, q Getter, gameID string) (GameRecord, error) {
	var row GameRecord
	if err := q.GetContext(ctx, &row, gameColumns+` WHERE g.id = $1`, gameID); err != nil {
		return GameRecord{}, err
	}
	return row, nil
}

// GetForUpdate row-locks the game so every mutation of one game queues
// behind the previous one at the storage level too.
func (s *GameStore) GetForUpdate(ctx context.Context, tx Getter, gameID string) (GameRecord, error) {
	var row GameRecord
	if err := tx.GetContext(ctx, &row, gameColumns+` WHERE g.id = $1 FOR UPDATE OF g`, gameID); err != nil {
		return GameRecord{}, err
	}
	return row, nil
}

func (s *GameStore) GetActiveByJoinCode(ctx context.Context, q Getter, joinCode string) (GameRecord, error) {
	var row GameRecord
	if err := q.GetContext(ctx, &row, gameColumns+` WHERE g.join_code = $1 AND g.status = 'ACTIVE'`, joinCode); err != nil {
		return GameRecord{}, err
	}
	return row, nil
}

func (s *GameStore) ActiveJoinCodes(ctx context.Context) ([]string, error) {
	var codes []string
	err := s.db.SelectContext(ctx, &codes, `SELECT join_code FROM games WHERE status = 'ACTIVE'`)
	return codes, err
}

func (s *GameStore) ListActiveIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids, `SELECT id FROM games WHERE status = 'ACTIVE' ORDER BY created_at`)
	return ids, err
}

// End flips an active game to ENDED. Status and timestamp are written by one
// statement; zero rows means the game is missing or already ended.
func (s *GameStore) End(ctx context.Context, tx Execer, gameID string, at time.Time) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE games
		SET status = 'ENDED', ended_at = $1
		WHERE id = $2 AND status = 'ACTIVE'
	`, at, gameID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
