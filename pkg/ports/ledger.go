package ports

import (
	"context"

	"github.com/aretw0/seee/pkg/referral"
	"github.com/shopspring/decimal"
)

// LedgerTx is the set of operations available inside one atomic ledger
// transaction.
type LedgerTx interface {
	// ResolveCode returns the account ID owning a referral code.
	// Returns referral.ErrUnknownReferralCode when no account matches.
	ResolveCode(ctx context.Context, code string) (string, error)

	// ReferrerOf returns the level-1 referrer of a user, if any.
	ReferrerOf(ctx context.Context, userID string) (string, bool, error)

	// InsertEdge records an up-line edge. Inserting an existing
	// (referrer, referred, level) triple is a no-op.
	InsertEdge(ctx context.Context, edge referral.Edge) error

	// Ancestors returns every edge whose referred side is userID,
	// ordered by ascending level.
	Ancestors(ctx context.Context, userID string) ([]referral.Edge, error)

	// Credit adds amount to the user's balance, creating it at zero first
	// if needed, and returns the new balance.
	Credit(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error)

	// RecordTransaction appends an immutable ledger entry.
	RecordTransaction(ctx context.Context, tx referral.Transaction) error
}

// Ledger persists the referral graph, balances and transactions.
type Ledger interface {
	// WithinTx runs fn atomically. If fn returns an error every write made
	// through the LedgerTx is discarded.
	WithinTx(ctx context.Context, fn func(LedgerTx) error) error

	// Balance returns the user's balance, zero when none exists.
	Balance(ctx context.Context, userID string) (referral.Balance, error)

	// Transactions returns the newest transactions of a user first.
	Transactions(ctx context.Context, userID string, limit int) ([]referral.Transaction, error)

	// Downline returns every descendant of a user ordered by level.
	Downline(ctx context.Context, userID string) ([]referral.DownlineEntry, error)
}

// AccountStore persists registered accounts.
type AccountStore interface {
	// CreateAccount stores a new account.
	// Returns referral.ErrUsernameTaken on a duplicate username.
	CreateAccount(ctx context.Context, account *referral.Account) error

	// AccountByUsername returns referral.ErrAccountNotFound when missing.
	AccountByUsername(ctx context.Context, username string) (*referral.Account, error)

	// AccountByID returns referral.ErrAccountNotFound when missing.
	AccountByID(ctx context.Context, id string) (*referral.Account, error)
}
