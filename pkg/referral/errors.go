package referral

import "errors"

var (
	// ErrUnknownReferralCode means the code matched no account. Registration
	// proceeds without a referrer.
	ErrUnknownReferralCode = errors.New("unknown referral code")
	// ErrSelfReferral means the code belongs to the account being linked.
	ErrSelfReferral = errors.New("account cannot refer itself")
	// ErrCorruptGraph means the up-line chain loops. It should not happen.
	ErrCorruptGraph = errors.New("referral graph is corrupt")
	// ErrInvalidAmount is returned for zero or negative payments.
	ErrInvalidAmount = errors.New("payment amount must be positive")

	ErrAccountNotFound = errors.New("account not found")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrBadCredentials  = errors.New("invalid username or password")
)
