// Package invariant holds the side-effect free ledger rules. Callers load the
// state, ask these functions whether a mutation is allowed, and only then
// write.
package invariant

import (
	"errors"
	"math"
	"sort"

	"gamebank/internal/models"
)

var (
	ErrInvalidAmount     = errors.New("amount must be a positive integer")
	ErrSelfTransfer      = errors.New("cannot transfer to the same account")
	ErrGameNotActive     = errors.New("game is not active")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrForeignAccount    = errors.New("account does not belong to game")
)

// Proposal is a transfer as loaded from storage, before it is applied.
type Proposal struct {
	Game     models.Game
	Settings models.Settings
	From     models.Account
	To       models.Account
	Amount   int64
}

// CheckAmount rejects non-positive amounts.
func CheckAmount(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// CheckDistinct rejects transfers whose endpoints are the same account.
func CheckDistinct(fromAccountID, toAccountID string) error {
	if fromAccountID == toAccountID {
		return ErrSelfTransfer
	}
	return nil
}

func CheckGameActive(game models.Game) error {
	if !game.Active() {
		return ErrGameNotActive
	}
	return nil
}

// CheckSufficiency decides whether from may pay amount. The bank always may;
// a player may go below zero only when the game allows negative balances.
func CheckSufficiency(from models.Account, settings models.Settings, amount int64) error {
	if from.Type == models.AccountBank {
		return nil
	}
	if settings.AllowNegativeBalances {
		return nil
	}
	if from.Balance < amount {
		return ErrInsufficientFunds
	}
	return nil
}

// CheckBounds rejects amounts that would push either balance out of the int64
// range.
func CheckBounds(from, to models.Account, amount int64) error {
	if to.Balance > 0 && amount > math.MaxInt64-to.Balance {
		return ErrInvalidAmount
	}
	if from.Balance < 0 && from.Balance < math.MinInt64+amount {
		return ErrInvalidAmount
	}
	return nil
}

// CheckTransfer runs every rule in the order a caller should report them.
func CheckTransfer(p Proposal) error {
	if err := CheckAmount(p.Amount); err != nil {
		return err
	}
	if err := CheckDistinct(p.From.ID, p.To.ID); err != nil {
		return err
	}
	if p.From.GameID != p.Game.ID || p.To.GameID != p.Game.ID {
		return ErrForeignAccount
	}
	if err := CheckGameActive(p.Game); err != nil {
		return err
	}
	if err := CheckSufficiency(p.From, p.Settings, p.Amount); err != nil {
		return err
	}
	return CheckBounds(p.From, p.To, p.Amount)
}

// Deltas returns the balance change for each side of an accepted transfer.
// They always sum to zero.
func Deltas(amount int64) (from, to int64) {
	return -amount, amount
}

// BudgetReport is the outcome of recomputing a game's money supply.
type BudgetReport struct {
	GameID      string            `json:"gameId"`
	TotalBudget int64             `json:"totalBudget"`
	Sum         int64             `json:"sum"`
	Drift       int64             `json:"drift"`
	Negative    []string          `json:"negativeAccounts,omitempty"`
	Mismatched  []AccountMismatch `json:"mismatchedAccounts,omitempty"`
}

// AccountMismatch is an account whose stored balance disagrees with the
// balance rebuilt from its transactions.
type AccountMismatch struct {
	AccountID string `json:"accountId"`
	Stored    int64  `json:"stored"`
	Replayed  int64  `json:"replayed"`
}

// Healthy reports whether no fault was found.
func (r BudgetReport) Healthy() bool {
	return r.Drift == 0 && len(r.Negative) == 0 && len(r.Mismatched) == 0
}

// AuditBudget sums the snapshot against the game's total budget. Negative
// player balances are flagged unless the game allows them. It never corrects
// anything.
func AuditBudget(game models.Game, settings models.Settings, accounts []models.Account) BudgetReport {
	report := BudgetReport{GameID: game.ID, TotalBudget: game.TotalBudget}
	for _, account := range accounts {
		report.Sum += account.Balance
		if account.Type == models.AccountPlayer && account.Balance < 0 && !settings.AllowNegativeBalances {
			report.Negative = append(report.Negative, account.ID)
		}
	}
	report.Drift = report.Sum - game.TotalBudget
	sort.Strings(report.Negative)
	return report
}
