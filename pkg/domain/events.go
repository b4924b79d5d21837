package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTurn       EventType = "turn"
	EventCrisis     EventType = "crisis"
	EventCommission EventType = "commission"
	EventPayment    EventType = "payment"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
}

// TurnEvent describes one processed dialogue call.
type TurnEvent struct {
	EventBase
	Action  string  `json:"action"`
	Concept string  `json:"concept,omitempty"`
	From    Field   `json:"from,omitempty"`
	To      Field   `json:"to,omitempty"`
	Stage   Stage   `json:"stage"`
	Outcome Outcome `json:"outcome"`
}

// CrisisEvent is emitted when a crisis phrase intercepts a turn.
type CrisisEvent struct {
	EventBase
	Phrase string `json:"phrase"`
}

// CommissionEvent describes a single ancestor credit.
type CommissionEvent struct {
	EventBase
	ReferrerID string `json:"referrer_id"`
	FromUserID string `json:"from_user_id"`
	Level      int    `json:"level"`
	Amount     string `json:"amount"`
}

// PaymentEvent describes a processed payment.
type PaymentEvent struct {
	EventBase
	UserID      string `json:"user_id"`
	Amount      string `json:"amount"`
	Commissions int    `json:"commissions"`
	Err         error  `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnTurn       func(context.Context, *TurnEvent)
	OnCrisis     func(context.Context, *CrisisEvent)
	OnCommission func(context.Context, *CommissionEvent)
	OnPayment    func(context.Context, *PaymentEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTurn:       chain(h.OnTurn, other.OnTurn),
		OnCrisis:     chain(h.OnCrisis, other.OnCrisis),
		OnCommission: chain(h.OnCommission, other.OnCommission),
		OnPayment:    chain(h.OnPayment, other.OnPayment),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
