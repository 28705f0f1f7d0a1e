package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gamebank/internal/invariant"
	"gamebank/internal/joincode"
	"gamebank/internal/validator"
)

var (
	ErrGameNotFound      = errors.New("game not found")
	ErrInvalidAccount    = errors.New("account is not part of this game")
	ErrInsufficientFunds = invariant.ErrInsufficientFunds
	ErrSelfTransfer      = invariant.ErrSelfTransfer
	ErrInvalidAmount     = invariant.ErrInvalidAmount
	ErrGameNotActive     = invariant.ErrGameNotActive
	ErrBankInsolvent     = errors.New("bank cannot fund a new player")
	ErrInvalidCode       = errors.New("no active game with that join code")
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionExpired    = errors.New("session expired")
	ErrInvalidDirection  = errors.New("unknown transaction direction")
	ErrValidation        = validator.ErrInvalidInput

	ErrAllocationExhausted = joincode.ErrAllocationExhausted
	ErrPersistenceFault    = errors.New("persistence fault")
)

// PersistenceError is a storage failure that left nothing committed. The
// caller may resubmit.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistenceFault
}

var ledgerErrors = []error{
	ErrGameNotFound,
	ErrInvalidAccount,
	ErrInsufficientFunds,
	ErrSelfTransfer,
	ErrInvalidAmount,
	ErrGameNotActive,
	ErrBankInsolvent,
	ErrInvalidCode,
	ErrSessionNotFound,
	ErrSessionExpired,
	ErrInvalidDirection,
	ErrValidation,
	ErrAllocationExhausted,
	ErrPersistenceFault,
	context.Canceled,
	context.DeadlineExceeded,
}

// fault passes ledger errors through untouched and turns anything else into
// a logged PersistenceError.
func fault(ctx context.Context, op, gameID string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range ledgerErrors {
		if errors.Is(err, known) {
			return err
		}
	}
	slog.ErrorContext(ctx, "persistence fault", "op", op, "game_id", gameID, "error", err)
	return &PersistenceError{Op: op, Err: err}
}
