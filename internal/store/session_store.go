package store

import (
	"context"
	"time"

	"gamebank/internal/models"
)

type SessionStore struct {
	db DB
}

func NewSessionStore(db DB) *SessionStore {
	return &SessionStore{db: db}
}

// SessionRecord is a session joined with the status of its game.
type SessionRecord struct {
	models.Session
	GameStatus models.GameStatus `db:"game_status"`
}

type SessionInput struct {
	TokenHash string
	GameID    string
	AccountID string
	CreatedAt time.Time
}

func (s *SessionStore) Create(ctx context.Context, tx Execer, input SessionInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (token_hash, game_id, account_id, created_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $4)
	`, input.TokenHash, input.GameID, input.AccountID, input.CreatedAt)
	return err
}

func (s *SessionStore) GetByHash(ctx context.Context, tokenHash string) (SessionRecord, error) {
	var row SessionRecord
	err := s.db.GetContext(ctx, &row, `
		SELECT se.token_hash, se.game_id, se.account_id, se.created_at, se.last_seen_at,
		       g.status AS game_status
		FROM sessions se
		JOIN games g ON g.id = se.game_id
		WHERE se.token_hash = $1
	`, tokenHash)
	if err != nil {
		return SessionRecord{}, err
	}
	return row, nil
}

func (s *SessionStore) Touch(ctx context.Context, tokenHash string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE sessions SET last_seen_at = $1 WHERE token_hash = $2`, at, tokenHash)
	return err
}
