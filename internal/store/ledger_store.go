package store

import "context"

// LedgerStore holds the read-only queries used to audit a game's books.
type LedgerStore struct {
	db DB
}

func NewLedgerStore(db DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// AccountReplay compares an account's stored balance with the balance
// rebuilt from its opening amount and every transaction touching it.
type AccountReplay struct {
	AccountID       string `db:"account_id"`
	DisplayName     string `db:"display_name"`
	Type            string `db:"type"`
	StoredBalance   int64  `db:"stored_balance"`
	ReplayedBalance int64  `db:"replayed_balance"`
}

func (r AccountReplay) Difference() int64 {
	return r.StoredBalance - r.ReplayedBalance
}

type LedgerTotals struct {
	TransactionCount  int64 `db:"transaction_count"`
	TransactionVolume int64 `db:"transaction_volume"`
}

func (s *LedgerStore) ReplayAccounts(ctx context.Context, q Selecter, gameID string) ([]AccountReplay, error) {
	var rows []AccountReplay
	err := q.SelectContext(ctx, &rows, `
		SELECT a.id AS account_id,
		       a.display_name,
		       a.type,
		       a.balance AS stored_balance,
		       (CASE WHEN a.type = 'BANK' THEN g.total_budget ELSE 0 END)
		         + COALESCE((SELECT SUM(tin.amount) FROM transactions tin WHERE tin.to_account_id = a.id), 0)
		         - COALESCE((SELECT SUM(tout.amount) FROM transactions tout WHERE tout.from_account_id = a.id), 0)
		         AS replayed_balance
		FROM accounts a
		JOIN games g ON g.id = a.game_id
		WHERE a.game_id = $1
		ORDER BY a.type, a.display_name
	`, gameID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *LedgerStore) Totals(ctx context.Context, q Getter, gameID string) (LedgerTotals, error) {
	var totals LedgerTotals
	err := q.GetContext(ctx, &totals, `
		SELECT COUNT(*) AS transaction_count,
		       COALESCE(SUM(amount), 0) AS transaction_volume
		FROM transactions
		WHERE game_id = $1
	`, gameID)
	return totals, err
}
