package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/aretw0/seee/pkg/ports"
	"github.com/aretw0/seee/pkg/referral"
)

// Ledger implements ports.Ledger. Every WithinTx call is one database
// transaction.
type Ledger struct {
	d *DB
}

// WithinTx runs fn in a transaction, rolling back on any error.
func (l *Ledger) WithinTx(ctx context.Context, fn func(ports.LedgerTx) error) (err error) {
	tx, err := l.d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			l.d.logger.Error("rollback failed", "err", rbErr)
		}
	}()

	if err = fn(&ledgerTx{tx: tx, d: l.d}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type balanceRow struct {
	UserID    string          `db:"user_id"`
	Amount    decimal.Decimal `db:"amount"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// Balance returns the user's balance, zero when none exists.
func (l *Ledger) Balance(ctx context.Context, userID string) (referral.Balance, error) {
	var row balanceRow
	err := l.d.db.GetContext(ctx, &row, l.d.db.Rebind(`SELECT user_id, amount, updated_at FROM balances WHERE user_id = ?`), userID)
	if isNoRows(err) {
		return referral.Balance{UserID: userID, Amount: decimal.Zero}, nil
	}
	if err != nil {
		return referral.Balance{}, fmt.Errorf("failed to load balance: %w", err)
	}
	return referral.Balance{UserID: row.UserID, Amount: row.Amount, UpdatedAt: row.UpdatedAt}, nil
}

type transactionRow struct {
	ID            string          `db:"id"`
	UserID        string          `db:"user_id"`
	Amount        decimal.Decimal `db:"amount"`
	Type          string          `db:"type"`
	ReferralLevel int             `db:"referral_level"`
	FromUserID    string          `db:"from_user_id"`
	Description   string          `db:"description"`
	CreatedAt     time.Time       `db:"created_at"`
}

// Transactions returns the newest transactions of a user first.
func (l *Ledger) Transactions(ctx context.Context, userID string, limit int) ([]referral.Transaction, error) {
	var rows []transactionRow
	q := l.d.db.Rebind(`SELECT id, user_id, amount, type, referral_level, from_user_id, description, created_at
		FROM transactions WHERE user_id = ?
		ORDER BY created_at DESC, seq DESC
		LIMIT ?`)
	if err := l.d.db.SelectContext(ctx, &rows, q, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	out := make([]referral.Transaction, len(rows))
	for i, r := range rows {
		out[i] = referral.Transaction(r)
	}
	return out, nil
}

type downlineRow struct {
	UserID   string    `db:"user_id"`
	Username string    `db:"username"`
	Level    int       `db:"level"`
	JoinedAt time.Time `db:"joined_at"`
}

// Downline returns every descendant of a user ordered by level.
func (l *Ledger) Downline(ctx context.Context, userID string) ([]referral.DownlineEntry, error) {
	var rows []downlineRow
	q := l.d.db.Rebind(`SELECT r.referred_id AS user_id, COALESCE(a.username, '') AS username,
			r.level AS level, r.created_at AS joined_at
		FROM referrals r LEFT JOIN accounts a ON a.id = r.referred_id
		WHERE r.referrer_id = ?
		ORDER BY r.level, r.created_at, r.referred_id`)
	if err := l.d.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, fmt.Errorf("failed to list downline: %w", err)
	}

	out := make([]referral.DownlineEntry, len(rows))
	for i, r := range rows {
		out[i] = referral.DownlineEntry(r)
	}
	return out, nil
}

type ledgerTx struct {
	tx *sqlx.Tx
	d  *DB
}

func (t *ledgerTx) ResolveCode(ctx context.Context, code string) (string, error) {
	var id string
	err := t.tx.GetContext(ctx, &id, t.tx.Rebind(`SELECT id FROM accounts WHERE referral_code = ?`), code)
	if isNoRows(err) {
		return "", fmt.Errorf("%w: %s", referral.ErrUnknownReferralCode, code)
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve referral code: %w", err)
	}
	return id, nil
}

func (t *ledgerTx) ReferrerOf(ctx context.Context, userID string) (string, bool, error) {
	var id string
	err := t.tx.GetContext(ctx, &id, t.tx.Rebind(`SELECT referrer_id FROM referrals WHERE referred_id = ? AND level = 1`), userID)
	if isNoRows(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to load referrer: %w", err)
	}
	return id, true, nil
}

func (t *ledgerTx) InsertEdge(ctx context.Context, e referral.Edge) error {
	q := t.tx.Rebind(`INSERT INTO referrals (referrer_id, referred_id, level, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (referrer_id, referred_id, level) DO NOTHING`)
	if _, err := t.tx.ExecContext(ctx, q, e.ReferrerID, e.ReferredID, e.Level, t.d.now()); err != nil {
		return fmt.Errorf("failed to insert referral edge: %w", err)
	}
	return nil
}

func (t *ledgerTx) Ancestors(ctx context.Context, userID string) ([]referral.Edge, error) {
	var rows []struct {
		ReferrerID string `db:"referrer_id"`
		ReferredID string `db:"referred_id"`
		Level      int    `db:"level"`
	}
	q := t.tx.Rebind(`SELECT referrer_id, referred_id, level FROM referrals WHERE referred_id = ? ORDER BY level`)
	if err := t.tx.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, fmt.Errorf("failed to load ancestors: %w", err)
	}

	edges := make([]referral.Edge, len(rows))
	for i, r := range rows {
		edges[i] = referral.Edge(r)
	}
	return edges, nil
}

// Credit locks the balance row (Postgres) or relies on the immediate write
// lock (SQLite), adds in decimal and writes the total back.
func (t *ledgerTx) Credit(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	current := decimal.Zero
	err := t.tx.GetContext(ctx, &current, t.tx.Rebind(`SELECT amount FROM balances WHERE user_id = ?`+t.d.forUpdate()), userID)
	if err != nil && !isNoRows(err) {
		return decimal.Zero, fmt.Errorf("failed to read balance: %w", err)
	}

	total := current.Add(amount)
	q := t.tx.Rebind(`INSERT INTO balances (user_id, amount, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET amount = excluded.amount, updated_at = excluded.updated_at`)
	if _, err := t.tx.ExecContext(ctx, q, userID, total.StringFixed(2), t.d.now()); err != nil {
		return decimal.Zero, fmt.Errorf("failed to credit balance: %w", err)
	}
	return total, nil
}

func (t *ledgerTx) RecordTransaction(ctx context.Context, tr referral.Transaction) error {
	row := transactionRow(tr)
	if row.CreatedAt.IsZero() {
		row.CreatedAt = t.d.now()
	}
	_, err := t.tx.NamedExecContext(ctx, `INSERT INTO transactions
		(id, user_id, amount, type, referral_level, from_user_id, description, created_at)
		VALUES (:id, :user_id, :amount, :type, :referral_level, :from_user_id, :description, :created_at)`, row)
	if err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}
	return nil
}
