package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"gamebank/internal/joincode"
	"gamebank/internal/models"
	"gamebank/internal/store"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// memLedger is an in-memory ledger. Its tx runner snapshots the whole state
// and restores it when the callback fails, so rejected operations leave no
// trace exactly like a rolled back database transaction.
type memLedger struct {
	mu           sync.Mutex
	games        map[string]store.GameRecord
	accounts     map[string]models.Account
	transactions []models.Transaction
	sessions     map[string]store.SessionRecord
	audits       []models.AuditFinding
	failures     map[string][]error
	locked       map[string]int
}

type memState struct {
	games        map[string]store.GameRecord
	accounts     map[string]models.Account
	transactions []models.Transaction
	sessions     map[string]store.SessionRecord
	audits       []models.AuditFinding
}

func newMemLedger() *memLedger {
	return &memLedger{
		games:    make(map[string]store.GameRecord),
		accounts: make(map[string]models.Account),
		sessions: make(map[string]store.SessionRecord),
		failures: make(map[string][]error),
		locked:   make(map[string]int),
	}
}

// failNext makes the next call of op return err.
func (m *memLedger) failNext(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = append(m.failures[op], err)
}

func (m *memLedger) failure(op string) error {
	queue := m.failures[op]
	if len(queue) == 0 {
		return nil
	}
	m.failures[op] = queue[1:]
	return queue[0]
}

func (m *memLedger) snapshot() memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := memState{
		games:        make(map[string]store.GameRecord, len(m.games)),
		accounts:     make(map[string]models.Account, len(m.accounts)),
		transactions: append([]models.Transaction(nil), m.transactions...),
		sessions:     make(map[string]store.SessionRecord, len(m.sessions)),
		audits:       append([]models.AuditFinding(nil), m.audits...),
	}
	for k, v := range m.games {
		state.games[k] = v
	}
	for k, v := range m.accounts {
		state.accounts[k] = v
	}
	for k, v := range m.sessions {
		state.sessions[k] = v
	}
	return state
}

func (m *memLedger) restore(state memState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games = state.games
	m.accounts = state.accounts
	m.transactions = state.transactions
	m.sessions = state.sessions
	m.audits = state.audits
}

// lockCount reports how often accountID was row-locked.
func (m *memLedger) lockCount(accountID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locked[accountID]
}

func (m *memLedger) balance(accountID string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[accountID].Balance
}

func (m *memLedger) setBalance(accountID string, balance int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account := m.accounts[accountID]
	account.Balance = balance
	m.accounts[accountID] = account
}

func (m *memLedger) sum(gameID string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, account := range m.accounts {
		if account.GameID == gameID {
			total += account.Balance
		}
	}
	return total
}

func (m *memLedger) transactionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.transactions)
}

type memTxRunner struct {
	ledger *memLedger
}

func (r memTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	saved := r.ledger.snapshot()
	if err := fn(nil); err != nil {
		r.ledger.restore(saved)
		return err
	}
	return nil
}

func (r memTxRunner) WithReadTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return fn(nil)
}

type memGames struct{ *memLedger }

func (m memGames) Create(ctx context.Context, tx store.Execer, input store.GameInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("games.Create"); err != nil {
		return err
	}
	for _, game := range m.games {
		if game.Active() && game.JoinCode == input.JoinCode {
			return &pq.Error{Code: "23505", Constraint: store.ActiveJoinCodeIndex}
		}
	}
	m.games[input.ID] = store.GameRecord{
		Game: models.Game{
			ID:                     input.ID,
			Name:                   input.Name,
			JoinCode:               input.JoinCode,
			CurrencySymbol:         input.CurrencySymbol,
			TotalBudget:            input.TotalBudget,
			StartingMoneyPerPlayer: input.StartingMoneyPerPlayer,
			Status:                 models.GameActive,
			CreatedAt:              input.CreatedAt,
		},
		AllowNegativeBalances: input.AllowNegativeBalances,
	}
	return nil
}

func (m memGames) GetByID(ctx context.Context, q store.Getter, gameID string) (store.GameRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	game, ok := m.games[gameID]
	if !ok {
		return store.GameRecord{}, sql.ErrNoRows
	}
	return game, nil
}

func (m memGames) GetForUpdate(ctx context.Context, tx store.Getter, gameID string) (store.GameRecord, error) {
	return m.GetByID(ctx, tx, gameID)
}

func (m memGames) GetActiveByJoinCode(ctx context.Context, q store.Getter, joinCode string) (store.GameRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, game := range m.games {
		if game.Active() && game.JoinCode == joinCode {
			return game, nil
		}
	}
	return store.GameRecord{}, sql.ErrNoRows
}

func (m memGames) ActiveJoinCodes(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var codes []string
	for _, game := range m.games {
		if game.Active() {
			codes = append(codes, game.JoinCode)
		}
	}
	return codes, nil
}

func (m memGames) ListActiveIDs(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, game := range m.games {
		if game.Active() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m memGames) End(ctx context.Context, tx store.Execer, gameID string, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("games.End"); err != nil {
		return 0, err
	}
	game, ok := m.games[gameID]
	if !ok || !game.Active() {
		return 0, nil
	}
	game.Status = models.GameEnded
	game.EndedAt = &at
	m.games[gameID] = game
	return 1, nil
}

type memAccounts struct{ *memLedger }

func (m memAccounts) Create(ctx context.Context, tx store.Execer, input store.AccountInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("accounts.Create"); err != nil {
		return err
	}
	m.accounts[input.ID] = models.Account{
		ID:          input.ID,
		GameID:      input.GameID,
		Type:        input.Type,
		DisplayName: input.DisplayName,
		Balance:     input.Balance,
		CreatedAt:   input.CreatedAt,
	}
	return nil
}

func (m memAccounts) GetByID(ctx context.Context, q store.Getter, accountID string) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[accountID]
	if !ok {
		return models.Account{}, sql.ErrNoRows
	}
	return account, nil
}

func (m memAccounts) GetForUpdate(ctx context.Context, tx store.Getter, gameID, accountID string) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[accountID]
	if !ok || account.GameID != gameID {
		return models.Account{}, sql.ErrNoRows
	}
	m.locked[accountID]++
	return account, nil
}

func (m memAccounts) GetBank(ctx context.Context, q store.Getter, gameID string) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, account := range m.accounts {
		if account.GameID == gameID && account.Type == models.AccountBank {
			return account, nil
		}
	}
	return models.Account{}, sql.ErrNoRows
}

func (m memAccounts) AdjustBalance(ctx context.Context, tx store.Execer, accountID string, delta int64, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("accounts.AdjustBalance"); err != nil {
		return 0, err
	}
	account, ok := m.accounts[accountID]
	if !ok {
		return 0, nil
	}
	account.Balance += delta
	m.accounts[accountID] = account
	return 1, nil
}

func (m memAccounts) ListByGame(ctx context.Context, q store.Selecter, gameID string) ([]models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := []models.Account{}
	for _, account := range m.accounts {
		if account.GameID == gameID {
			rows = append(rows, account)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Type != rows[j].Type {
			return rows[i].Type < rows[j].Type
		}
		return rows[i].DisplayName < rows[j].DisplayName
	})
	return rows, nil
}

type memTransactions struct{ *memLedger }

func (m memTransactions) Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("transactions.Create"); err != nil {
		return err
	}
	from := m.accounts[input.FromAccountID]
	to := m.accounts[input.ToAccountID]
	m.transactions = append(m.transactions, models.Transaction{
		ID:            input.ID,
		GameID:        input.GameID,
		FromAccountID: input.FromAccountID,
		ToAccountID:   input.ToAccountID,
		FromName:      from.DisplayName,
		ToName:        to.DisplayName,
		FromType:      from.Type,
		ToType:        to.Type,
		Amount:        input.Amount,
		Note:          input.Note,
		CreatedAt:     input.CreatedAt,
	})
	return nil
}

func (m memTransactions) List(ctx context.Context, q store.Selecter, query store.TransactionQuery) ([]models.Transaction, error) {
	fromType, toType, ok := query.Direction.AccountTypes()
	if !ok {
		return nil, store.ErrUnknownDirection
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := []models.Transaction{}
	for i := len(m.transactions) - 1; i >= 0 && len(rows) < query.Limit; i-- {
		t := m.transactions[i]
		if t.GameID != query.GameID {
			continue
		}
		if query.AccountID != "" && t.FromAccountID != query.AccountID && t.ToAccountID != query.AccountID {
			continue
		}
		if fromType != "" && (t.FromType != fromType || t.ToType != toType) {
			continue
		}
		rows = append(rows, t)
	}
	return rows, nil
}

type memAudits struct{ *memLedger }

func (m memAudits) Record(ctx context.Context, tx store.Execer, input store.AuditInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("audits.Record"); err != nil {
		return err
	}
	m.audits = append(m.audits, models.AuditFinding{
		ID:                 input.ID,
		GameID:             input.GameID,
		TotalBudget:        input.TotalBudget,
		Sum:                input.Sum,
		Drift:              input.Drift,
		NegativeAccounts:   input.NegativeAccounts,
		MismatchedAccounts: input.MismatchedAccounts,
		CreatedAt:          input.CreatedAt,
	})
	return nil
}

func (m memAudits) ListByGame(ctx context.Context, q store.Selecter, gameID string, limit int) ([]models.AuditFinding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := []models.AuditFinding{}
	for i := len(m.audits) - 1; i >= 0 && len(rows) < limit; i-- {
		if m.audits[i].GameID == gameID {
			rows = append(rows, m.audits[i])
		}
	}
	return rows, nil
}

type memLedgerStore struct{ *memLedger }

func (m memLedgerStore) ReplayAccounts(ctx context.Context, q store.Selecter, gameID string) ([]store.AccountReplay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	game := m.games[gameID]
	var rows []store.AccountReplay
	for _, account := range m.accounts {
		if account.GameID != gameID {
			continue
		}
		replayed := int64(0)
		if account.Type == models.AccountBank {
			replayed = game.TotalBudget
		}
		for _, t := range m.transactions {
			if t.ToAccountID == account.ID {
				replayed += t.Amount
			}
			if t.FromAccountID == account.ID {
				replayed -= t.Amount
			}
		}
		rows = append(rows, store.AccountReplay{
			AccountID:       account.ID,
			DisplayName:     account.DisplayName,
			Type:            string(account.Type),
			StoredBalance:   account.Balance,
			ReplayedBalance: replayed,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].AccountID < rows[j].AccountID })
	return rows, nil
}

func (m memLedgerStore) Totals(ctx context.Context, q store.Getter, gameID string) (store.LedgerTotals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var totals store.LedgerTotals
	for _, t := range m.transactions {
		if t.GameID == gameID {
			totals.TransactionCount++
			totals.TransactionVolume += t.Amount
		}
	}
	return totals, nil
}

type memSessions struct{ *memLedger }

func (m memSessions) Create(ctx context.Context, tx store.Execer, input store.SessionInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("sessions.Create"); err != nil {
		return err
	}
	m.sessions[input.TokenHash] = store.SessionRecord{Session: models.Session{
		TokenHash:  input.TokenHash,
		GameID:     input.GameID,
		AccountID:  input.AccountID,
		CreatedAt:  input.CreatedAt,
		LastSeenAt: input.CreatedAt,
	}}
	return nil
}

func (m memSessions) GetByHash(ctx context.Context, tokenHash string) (store.SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.sessions[tokenHash]
	if !ok {
		return store.SessionRecord{}, sql.ErrNoRows
	}
	record.GameStatus = m.games[record.GameID].Status
	return record, nil
}

func (m memSessions) Touch(ctx context.Context, tokenHash string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.sessions[tokenHash]
	if !ok {
		return nil
	}
	record.LastSeenAt = at
	m.sessions[tokenHash] = record
	return nil
}

type publishedEvent struct {
	gameID  string
	kind    models.EventKind
	payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(gameID string, kind models.EventKind, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{gameID: gameID, kind: kind, payload: payload})
}

func (p *recordingPublisher) kinds() []models.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	kinds := make([]models.EventKind, 0, len(p.events))
	for _, event := range p.events {
		kinds = append(kinds, event.kind)
	}
	return kinds
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// testBank wires every service to one memLedger.
type testBank struct {
	ledger    *memLedger
	publisher *recordingPublisher
	locks     *GameLocks
	games     *GameService
	transfers *TransferService
	sessions  *SessionService
}

func newTestBank() *testBank {
	ledger := newMemLedger()
	publisher := &recordingPublisher{}
	locks := NewGameLocks()
	runner := memTxRunner{ledger: ledger}
	games := memGames{ledger}
	accounts := memAccounts{ledger}
	transactions := memTransactions{ledger}
	sessions := memSessions{ledger}
	return &testBank{
		ledger:    ledger,
		publisher: publisher,
		locks:     locks,
		games:     NewGameService(runner, games, accounts, transactions, memLedgerStore{ledger}, memAudits{ledger}, publisher, locks, joincode.NewAllocator(nil)),
		transfers: NewTransferService(runner, games, accounts, transactions, sessions, publisher, locks),
		sessions:  NewSessionService(runner, sessions, accounts, games),
	}
}
