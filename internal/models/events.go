package models

// EventKind names a ledger mutation pushed to game subscribers.
type EventKind string

const (
	EventPlayerJoined       EventKind = "player-joined"
	EventTransactionCreated EventKind = "transaction-created"
	EventGameEnded          EventKind = "game-ended"
)

// Event is the envelope written to every subscriber socket.
type Event struct {
	Type   EventKind `json:"type"`
	GameID string    `json:"gameId"`
	Data   any       `json:"data"`
}

type PlayerJoined struct {
	Account Account `json:"account"`
}

type TransactionCreated struct {
	Transaction      Transaction      `json:"transaction"`
	BalancesSnapshot BalancesSnapshot `json:"balancesSnapshot"`
}

type GameEndedPayload struct {
	Summary GameSummary `json:"summary"`
}

// GameSummary is a game with its accounts, recent history and money totals.
type GameSummary struct {
	Game               Game          `json:"game"`
	Settings           Settings      `json:"settings"`
	Accounts           []Account     `json:"accounts"`
	RecentTransactions []Transaction `json:"recentTransactions"`
	TotalBudget        int64         `json:"totalBudget"`
	BankBalance        int64         `json:"bankBalance"`
	InCirculation      int64         `json:"inCirculation"`
	PlayerCount        int           `json:"playerCount"`
}
