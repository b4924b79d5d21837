package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/seee/pkg/ports"
	"github.com/aretw0/seee/pkg/referral"
	"github.com/shopspring/decimal"
)

type ledgerData struct {
	accounts map[string]referral.Account
	edges    []referral.Edge
	balances map[string]referral.Balance
	txs      []referral.Transaction
}

func (d ledgerData) clone() ledgerData {
	out := ledgerData{
		accounts: make(map[string]referral.Account, len(d.accounts)),
		edges:    append([]referral.Edge(nil), d.edges...),
		balances: make(map[string]referral.Balance, len(d.balances)),
		txs:      append([]referral.Transaction(nil), d.txs...),
	}
	for k, v := range d.accounts {
		out.accounts[k] = v
	}
	for k, v := range d.balances {
		out.balances[k] = v
	}
	return out
}

// Ledger implements ports.Ledger and ports.AccountStore in memory.
// Transactions hold a single mutex and restore a snapshot on error.
type Ledger struct {
	mu   sync.Mutex
	data ledgerData
}

// NewLedger creates an empty in-memory ledger.
func NewLedger() *Ledger {
	return &Ledger{data: ledgerData{
		accounts: make(map[string]referral.Account),
		balances: make(map[string]referral.Balance),
	}}
}

// WithinTx runs fn while holding the ledger lock.
func (l *Ledger) WithinTx(ctx context.Context, fn func(ports.LedgerTx) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := l.data.clone()
	if err := fn(&memoryTx{data: &l.data}); err != nil {
		l.data = snapshot
		return err
	}
	return nil
}

// Balance returns the user's balance, zero when none exists.
func (l *Ledger) Balance(ctx context.Context, userID string) (referral.Balance, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.data.balances[userID]; ok {
		return b, nil
	}
	return referral.Balance{UserID: userID, Amount: decimal.Zero}, nil
}

// Transactions returns the newest transactions of a user first.
func (l *Ledger) Transactions(ctx context.Context, userID string, limit int) ([]referral.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []referral.Transaction
	for i := len(l.data.txs) - 1; i >= 0; i-- {
		if l.data.txs[i].UserID != userID {
			continue
		}
		out = append(out, l.data.txs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Downline returns every descendant of a user ordered by level.
func (l *Ledger) Downline(ctx context.Context, userID string) ([]referral.DownlineEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []referral.DownlineEntry
	for _, e := range l.data.edges {
		if e.ReferrerID != userID {
			continue
		}
		acc := l.data.accounts[e.ReferredID]
		out = append(out, referral.DownlineEntry{
			UserID:   e.ReferredID,
			Username: acc.Username,
			Level:    e.Level,
			JoinedAt: acc.CreatedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out, nil
}

// CreateAccount stores a new account.
func (l *Ledger) CreateAccount(ctx context.Context, account *referral.Account) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, a := range l.data.accounts {
		if a.Username == account.Username {
			return referral.ErrUsernameTaken
		}
	}
	l.data.accounts[account.ID] = *account
	return nil
}

// AccountByUsername looks an account up by username.
func (l *Ledger) AccountByUsername(ctx context.Context, username string) (*referral.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, a := range l.data.accounts {
		if a.Username == username {
			out := a
			return &out, nil
		}
	}
	return nil, referral.ErrAccountNotFound
}

// AccountByID looks an account up by ID.
func (l *Ledger) AccountByID(ctx context.Context, id string) (*referral.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.data.accounts[id]
	if !ok {
		return nil, referral.ErrAccountNotFound
	}
	return &a, nil
}

type memoryTx struct {
	data *ledgerData
}

func (t *memoryTx) ResolveCode(ctx context.Context, code string) (string, error) {
	for id, a := range t.data.accounts {
		if a.ReferralCode == code {
			return id, nil
		}
	}
	return "", referral.ErrUnknownReferralCode
}

func (t *memoryTx) ReferrerOf(ctx context.Context, userID string) (string, bool, error) {
	for _, e := range t.data.edges {
		if e.ReferredID == userID && e.Level == 1 {
			return e.ReferrerID, true, nil
		}
	}
	return "", false, nil
}

func (t *memoryTx) InsertEdge(ctx context.Context, edge referral.Edge) error {
	for _, e := range t.data.edges {
		if e == edge {
			return nil
		}
	}
	t.data.edges = append(t.data.edges, edge)
	return nil
}

func (t *memoryTx) Ancestors(ctx context.Context, userID string) ([]referral.Edge, error) {
	var out []referral.Edge
	for _, e := range t.data.edges {
		if e.ReferredID == userID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out, nil
}

func (t *memoryTx) Credit(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	b, ok := t.data.balances[userID]
	if !ok {
		b = referral.Balance{UserID: userID, Amount: decimal.Zero}
	}
	b.Amount = b.Amount.Add(amount)
	b.UpdatedAt = time.Now().UTC()
	t.data.balances[userID] = b
	return b.Amount, nil
}

func (t *memoryTx) RecordTransaction(ctx context.Context, tx referral.Transaction) error {
	t.data.txs = append(t.data.txs, tx)
	return nil
}
