package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/seee/pkg/referral"
)

type accountRow struct {
	ID           string    `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	ReferralCode string    `db:"referral_code"`
	ReferredBy   string    `db:"referred_by"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r accountRow) account() *referral.Account {
	return &referral.Account{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		ReferralCode: r.ReferralCode,
		ReferredBy:   r.ReferredBy,
		CreatedAt:    r.CreatedAt,
	}
}

const accountColumns = `id, username, password_hash, referral_code, referred_by, created_at`

// AccountStore implements ports.AccountStore.
type AccountStore struct {
	d *DB
}

// CreateAccount inserts a new account.
func (s *AccountStore) CreateAccount(ctx context.Context, a *referral.Account) error {
	row := accountRow{
		ID:           a.ID,
		Username:     a.Username,
		PasswordHash: a.PasswordHash,
		ReferralCode: a.ReferralCode,
		ReferredBy:   a.ReferredBy,
		CreatedAt:    a.CreatedAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = s.d.now()
	}

	_, err := s.d.db.NamedExecContext(ctx, `INSERT INTO accounts (`+accountColumns+`)
		VALUES (:id, :username, :password_hash, :referral_code, :referred_by, :created_at)`, row)
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		if _, lookupErr := s.AccountByUsername(ctx, a.Username); lookupErr == nil {
			return fmt.Errorf("%w: %s", referral.ErrUsernameTaken, a.Username)
		}
	}
	return fmt.Errorf("failed to create account: %w", err)
}

// AccountByUsername looks an account up by username.
func (s *AccountStore) AccountByUsername(ctx context.Context, username string) (*referral.Account, error) {
	return s.get(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = ?`, username)
}

// AccountByID looks an account up by ID.
func (s *AccountStore) AccountByID(ctx context.Context, id string) (*referral.Account, error) {
	return s.get(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
}

func (s *AccountStore) get(ctx context.Context, query string, arg string) (*referral.Account, error) {
	var row accountRow
	err := s.d.db.GetContext(ctx, &row, s.d.db.Rebind(query), arg)
	if isNoRows(err) {
		return nil, referral.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return row.account(), nil
}
