package referral

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MaxDepth is the deepest up-line level that is recorded and paid.
const MaxDepth = 8

// TypeReferralCommission is the transaction type of commission credits.
const TypeReferralCommission = "referral_commission"

var rates = map[int]decimal.Decimal{
	1: decimal.RequireFromString("0.15"),
	2: decimal.RequireFromString("0.07"),
	3: decimal.RequireFromString("0.03"),
	4: decimal.RequireFromString("0.01"),
	5: decimal.RequireFromString("0.01"),
	6: decimal.RequireFromString("0.01"),
	7: decimal.RequireFromString("0.01"),
	8: decimal.RequireFromString("0.01"),
}

// Rate returns the commission fraction paid at an up-line level.
func Rate(level int) (decimal.Decimal, bool) {
	r, ok := rates[level]
	return r, ok
}

// Account is a registered user.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	ReferralCode string    `json:"referral_code"`
	// ReferredBy is the referral code given at registration, if any.
	ReferredBy   string    `json:"referred_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Edge links an ancestor to a descendant at a given up-line level.
// (ReferrerID, ReferredID, Level) is unique.
type Edge struct {
	ReferrerID string `json:"referrer_id"`
	ReferredID string `json:"referred_id"`
	Level      int    `json:"level"`
}

// Balance is the accumulated commission of a user.
type Balance struct {
	UserID    string          `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Transaction is a write-once ledger entry.
type Transaction struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	Type          string          `json:"type"`
	ReferralLevel int             `json:"referral_level"`
	FromUserID    string          `json:"from_user_id"`
	Description   string          `json:"description"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Commission is one computed credit of a payment fan-out.
type Commission struct {
	ReferrerID string          `json:"referrer_id"`
	Level      int             `json:"level"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
}

// Description renders the human readable transaction text.
func (c Commission) Description() string {
	return fmt.Sprintf("Commission %s%% from level %d", c.Percentage.String(), c.Level)
}

// DownlineEntry is one descendant as seen from an ancestor's cabinet.
type DownlineEntry struct {
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	Level    int       `json:"level"`
	JoinedAt time.Time `json:"joined_at"`
}
