// Package commission builds referral up-lines and fans payments out to them.
package commission

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/seee/internal/logging"
	"github.com/aretw0/seee/pkg/domain"
	"github.com/aretw0/seee/pkg/ports"
	"github.com/aretw0/seee/pkg/referral"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultTransactionLimit is used when a caller asks for a non-positive limit.
const DefaultTransactionLimit = 50

var hundred = decimal.NewFromInt(100)

// Engine owns every write to the referral graph and the balances.
type Engine struct {
	ledger ports.Ledger
	hooks  domain.LifecycleHooks
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers commission and payment hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithClock overrides the time source used for transaction timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithIDGenerator overrides transaction ID generation.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}

// New creates an Engine on top of a ledger.
func New(ledger ports.Ledger, opts ...Option) *Engine {
	e := &Engine{
		ledger: ledger,
		logger: logging.NewNop(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BuildReferralStructure links a newly registered user to the up-line of the
// account owning referrerCode, one edge per level up to referral.MaxDepth.
// An empty code is a no-op.
func (e *Engine) BuildReferralStructure(ctx context.Context, newUserID, referrerCode string) error {
	code := strings.TrimSpace(referrerCode)
	if code == "" {
		return nil
	}

	var depth int
	err := e.ledger.WithinTx(ctx, func(tx ports.LedgerTx) error {
		depth = 0
		referrer, err := tx.ResolveCode(ctx, code)
		if err != nil {
			return err
		}
		if referrer == newUserID {
			return referral.ErrSelfReferral
		}

		seen := map[string]bool{newUserID: true}
		ancestor := referrer
		for level := 1; level <= referral.MaxDepth; level++ {
			if seen[ancestor] {
				return fmt.Errorf("%w: %s repeats in the up-line of %s", referral.ErrCorruptGraph, ancestor, newUserID)
			}
			seen[ancestor] = true

			edge := referral.Edge{ReferrerID: ancestor, ReferredID: newUserID, Level: level}
			if err := tx.InsertEdge(ctx, edge); err != nil {
				return fmt.Errorf("failed to insert referral edge: %w", err)
			}
			depth = level

			next, ok, err := tx.ReferrerOf(ctx, ancestor)
			if err != nil {
				return fmt.Errorf("failed to resolve referrer of %s: %w", ancestor, err)
			}
			if !ok {
				break
			}
			ancestor = next
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.logger.Info("referral structure built", "user_id", newUserID, "depth", depth)
	return nil
}

// ProcessPayment credits every ancestor of userID with its level's share of
// amount. All credits are applied in one ledger transaction: either every
// ancestor is paid or none is.
func (e *Engine) ProcessPayment(ctx context.Context, userID string, amount decimal.Decimal) ([]referral.Commission, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: %s", referral.ErrInvalidAmount, amount.String())
	}

	var commissions []referral.Commission
	err := e.ledger.WithinTx(ctx, func(tx ports.LedgerTx) error {
		commissions = commissions[:0]

		edges, err := tx.Ancestors(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to load up-line: %w", err)
		}

		now := e.now()
		for _, edge := range edges {
			rate, ok := referral.Rate(edge.Level)
			if !ok {
				continue
			}
			share := amount.Mul(rate).Round(2)
			if !share.IsPositive() {
				continue
			}
			c := referral.Commission{
				ReferrerID: edge.ReferrerID,
				Level:      edge.Level,
				Amount:     share,
				Percentage: rate.Mul(hundred),
			}

			if _, err := tx.Credit(ctx, c.ReferrerID, c.Amount); err != nil {
				return fmt.Errorf("failed to credit level %d: %w", c.Level, err)
			}
			if err := tx.RecordTransaction(ctx, referral.Transaction{
				ID:            e.newID(),
				UserID:        c.ReferrerID,
				Amount:        c.Amount,
				Type:          referral.TypeReferralCommission,
				ReferralLevel: c.Level,
				FromUserID:    userID,
				Description:   c.Description(),
				CreatedAt:     now,
			}); err != nil {
				return fmt.Errorf("failed to record level %d transaction: %w", c.Level, err)
			}
			commissions = append(commissions, c)
		}
		return nil
	})

	e.firePayment(ctx, userID, amount, commissions, err)
	if err != nil {
		e.logger.Error("payment failed", "user_id", userID, "amount", amount.String(), "err", err)
		return nil, fmt.Errorf("payment rolled back: %w", err)
	}

	e.logger.Info("payment processed", "user_id", userID, "amount", amount.String(), "commissions", len(commissions))
	return commissions, nil
}

func (e *Engine) firePayment(ctx context.Context, userID string, amount decimal.Decimal, commissions []referral.Commission, err error) {
	now := e.now()
	if err == nil && e.hooks.OnCommission != nil {
		for _, c := range commissions {
			e.hooks.OnCommission(ctx, &domain.CommissionEvent{
				EventBase:  domain.EventBase{Timestamp: now, Type: domain.EventCommission},
				ReferrerID: c.ReferrerID,
				FromUserID: userID,
				Level:      c.Level,
				Amount:     c.Amount.StringFixed(2),
			})
		}
	}
	if e.hooks.OnPayment != nil {
		count := len(commissions)
		if err != nil {
			count = 0
		}
		e.hooks.OnPayment(ctx, &domain.PaymentEvent{
			EventBase:   domain.EventBase{Timestamp: now, Type: domain.EventPayment},
			UserID:      userID,
			Amount:      amount.StringFixed(2),
			Commissions: count,
			Err:         err,
		})
	}
}

// Balance returns the accumulated commission of a user.
func (e *Engine) Balance(ctx context.Context, userID string) (referral.Balance, error) {
	return e.ledger.Balance(ctx, userID)
}

// Transactions returns a user's newest transactions first.
func (e *Engine) Transactions(ctx context.Context, userID string, limit int) ([]referral.Transaction, error) {
	if limit <= 0 {
		limit = DefaultTransactionLimit
	}
	return e.ledger.Transactions(ctx, userID, limit)
}

// Downline returns every descendant of a user ordered by level.
func (e *Engine) Downline(ctx context.Context, userID string) ([]referral.DownlineEntry, error) {
	return e.ledger.Downline(ctx, userID)
}
