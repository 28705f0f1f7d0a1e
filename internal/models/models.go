package models

import "time"

type GameStatus string

const (
	GameActive GameStatus = "ACTIVE"
	GameEnded  GameStatus = "ENDED"
)

type AccountType string

const (
	AccountBank   AccountType = "BANK"
	AccountPlayer AccountType = "PLAYER"
)

type Game struct {
	ID                     string     `db:"id" json:"id"`
	Name                   string     `db:"name" json:"name"`
	JoinCode               string     `db:"join_code" json:"joinCode"`
	CurrencySymbol         string     `db:"currency_symbol" json:"currencySymbol"`
	TotalBudget            int64      `db:"total_budget" json:"totalBudget"`
	StartingMoneyPerPlayer int64      `db:"starting_money_per_player" json:"startingMoneyPerPlayer"`
	Status                 GameStatus `db:"status" json:"status"`
	CreatedAt              time.Time  `db:"created_at" json:"createdAt"`
	EndedAt                *time.Time `db:"ended_at" json:"endedAt,omitempty"`
}

func (g Game) Active() bool {
	return g.Status == GameActive
}

type Settings struct {
	GameID                string `db:"game_id" json:"gameId"`
	AllowNegativeBalances bool   `db:"allow_negative_balances" json:"allowNegativeBalances"`
}

type Account struct {
	ID          string      `db:"id" json:"id"`
	GameID      string      `db:"game_id" json:"gameId"`
	Type        AccountType `db:"type" json:"type"`
	DisplayName string      `db:"display_name" json:"displayName"`
	Balance     int64       `db:"balance" json:"balance"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
}

// Transaction is an applied transfer. Rows are append-only.
type Transaction struct {
	ID            string      `db:"id" json:"id"`
	GameID        string      `db:"game_id" json:"gameId"`
	FromAccountID string      `db:"from_account_id" json:"fromAccountId"`
	ToAccountID   string      `db:"to_account_id" json:"toAccountId"`
	FromName      string      `db:"from_name" json:"fromName"`
	ToName        string      `db:"to_name" json:"toName"`
	FromType      AccountType `db:"from_type" json:"fromType"`
	ToType        AccountType `db:"to_type" json:"toType"`
	Amount        int64       `db:"amount" json:"amount"`
	Note          *string     `db:"note" json:"note,omitempty"`
	CreatedAt     time.Time   `db:"created_at" json:"createdAt"`
}

type Session struct {
	TokenHash  string    `db:"token_hash" json:"-"`
	GameID     string    `db:"game_id" json:"gameId"`
	AccountID  string    `db:"account_id" json:"accountId"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	LastSeenAt time.Time `db:"last_seen_at" json:"lastSeenAt"`
}

// BalancesSnapshot maps account id to balance for every account of a game.
type BalancesSnapshot map[string]int64

func SnapshotOf(accounts []Account) BalancesSnapshot {
	snapshot := make(BalancesSnapshot, len(accounts))
	for _, account := range accounts {
		snapshot[account.ID] = account.Balance
	}
	return snapshot
}

// Direction is the closed set of history filters by account types.
type Direction string

const (
	DirectionAny            Direction = ""
	DirectionBankToPlayer   Direction = "BANK_TO_PLAYER"
	DirectionPlayerToBank   Direction = "PLAYER_TO_BANK"
	DirectionPlayerToPlayer Direction = "PLAYER_TO_PLAYER"
)

// AccountTypes returns the (from, to) pair a direction selects. ok is false
// for unknown directions; DirectionAny yields empty strings.
func (d Direction) AccountTypes() (from, to AccountType, ok bool) {
	switch d {
	case DirectionAny:
		return "", "", true
	case DirectionBankToPlayer:
		return AccountBank, AccountPlayer, true
	case DirectionPlayerToBank:
		return AccountPlayer, AccountBank, true
	case DirectionPlayerToPlayer:
		return AccountPlayer, AccountPlayer, true
	default:
		return "", "", false
	}
}

// AuditFinding is a persisted record of a failed budget audit.
type AuditFinding struct {
	ID                 string    `db:"id" json:"id"`
	GameID             string    `db:"game_id" json:"gameId"`
	TotalBudget        int64     `db:"total_budget" json:"totalBudget"`
	Sum                int64     `db:"balance_sum" json:"sum"`
	Drift              int64     `db:"drift" json:"drift"`
	NegativeAccounts   int       `db:"negative_accounts" json:"negativeAccounts"`
	MismatchedAccounts int       `db:"mismatched_accounts" json:"mismatchedAccounts"`
	CreatedAt          time.Time `db:"created_at" json:"createdAt"`
}
