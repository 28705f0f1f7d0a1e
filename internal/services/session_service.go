package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"gamebank/internal/db"
	"gamebank/internal/models"
	"gamebank/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/blake2b"
)

// SessionService binds a device to one account. Tokens are random v4 UUIDs
// handed to the device once; storage only ever sees their digest.
type SessionService struct {
	txRunner db.TxRunner
	sessions SessionStore
	accounts AccountStore
	games    GameStore
	now      func() time.Time
	random   io.Reader
}

func NewSessionService(txRunner db.TxRunner, sessions SessionStore, accounts AccountStore, games GameStore) *SessionService {
	return &SessionService{
		txRunner: txRunner,
		sessions: sessions,
		accounts: accounts,
		games:    games,
		now:      time.Now,
		random:   rand.Reader,
	}
}

// SessionContext is what a resolved token grants.
type SessionContext struct {
	GameID    string `json:"gameId"`
	AccountID string `json:"accountId"`
	TokenHash string `json:"-"`
}

// Create issues a new token for an existing account of gameID, e.g. when a
// player moves to another device. Join issues the first token itself.
func (s *SessionService) Create(ctx context.Context, gameID, accountID string) (string, error) {
	token, tokenHash, err := newSessionToken(s.random)
	if err != nil {
		return "", fault(ctx, "create session", gameID, err)
	}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		account, err := s.accounts.GetByID(ctx, tx, accountID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidAccount
		}
		if err != nil {
			return err
		}
		if account.GameID != gameID {
			return ErrInvalidAccount
		}
		return storeSession(ctx, s.sessions, tx, tokenHash, gameID, accountID, s.now())
	})
	if err != nil {
		return "", fault(ctx, "create session", gameID, err)
	}
	return token, nil
}

// Resolve maps a token to its session. Sessions of ended games are expired.
func (s *SessionService) Resolve(ctx context.Context, token string) (SessionContext, error) {
	if token == "" {
		return SessionContext{}, ErrSessionNotFound
	}
	tokenHash := HashToken(token)
	record, err := s.sessions.GetByHash(ctx, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionContext{}, ErrSessionNotFound
	}
	if err != nil {
		return SessionContext{}, fault(ctx, "resolve session", "", err)
	}
	if record.GameStatus != models.GameActive {
		return SessionContext{}, ErrSessionExpired
	}
	return SessionContext{GameID: record.GameID, AccountID: record.AccountID, TokenHash: tokenHash}, nil
}

// Touch records that the device was seen. It has no effect on expiry.
func (s *SessionService) Touch(ctx context.Context, session SessionContext) error {
	if err := s.sessions.Touch(ctx, session.TokenHash, s.now()); err != nil {
		return fault(ctx, "touch session", session.GameID, err)
	}
	return nil
}

type Me struct {
	Session SessionContext `json:"session"`
	Account models.Account `json:"account"`
	Game    models.Game    `json:"game"`
}

// Me loads the account and game a resolved session controls.
func (s *SessionService) Me(ctx context.Context, session SessionContext) (Me, error) {
	var me Me
	err := s.txRunner.WithReadTx(ctx, func(tx *sqlx.Tx) error {
		account, err := s.accounts.GetByID(ctx, tx, session.AccountID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		game, err := s.games.GetByID(ctx, tx, session.GameID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		me = Me{Session: session, Account: account, Game: game.Game}
		return nil
	})
	if err != nil {
		return Me{}, fault(ctx, "me", session.GameID, err)
	}
	return me, nil
}

// storeSession binds tokenHash to the account. Every issued token goes
// through here, inside the caller's transaction.
func storeSession(ctx context.Context, sessions SessionStore, tx store.Execer, tokenHash, gameID, accountID string, at time.Time) error {
	return sessions.Create(ctx, tx, store.SessionInput{
		TokenHash: tokenHash,
		GameID:    gameID,
		AccountID: accountID,
		CreatedAt: at,
	})
}

// HashToken is the storage key of a session token.
func HashToken(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newSessionToken(random io.Reader) (string, string, error) {
	id, err := uuid.NewRandomFromReader(random)
	if err != nil {
		return "", "", fmt.Errorf("generate session token: %w", err)
	}
	token := id.String()
	return token, HashToken(token), nil
}
