package dialogue

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/seee/internal/logging"
	"github.com/aretw0/seee/pkg/domain"
)

// Engine is the concept elicitation state machine.
// It performs no I/O: every call takes a session and returns a new one
// together with the message to render. The input session is never mutated.
type Engine struct {
	lexicon *Lexicon
	rules   []FounderRule
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures the Engine.
type Option func(*Engine)

// WithLexicon replaces the crisis lexicon.
func WithLexicon(l *Lexicon) Option {
	return func(e *Engine) {
		e.lexicon = l
	}
}

// WithFounderRules replaces the founder detection rules.
func WithFounderRules(rules []FounderRule) Option {
	return func(e *Engine) {
		e.rules = rules
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an Engine with the built-in lexicon and founder rules.
func New(opts ...Option) *Engine {
	e := &Engine{
		lexicon: DefaultLexicon(),
		rules:   DefaultFounderRules,
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func reply(text string) domain.OutboundMessage {
	return domain.OutboundMessage{Text: text, Outcome: domain.OutcomeOK, Extra: map[string]any{}}
}

func retry(outcome domain.Outcome, text string) domain.OutboundMessage {
	return domain.OutboundMessage{Text: text, Outcome: outcome, Extra: map[string]any{}}
}

// finish decorates the message with the session view and fires hooks.
func (e *Engine) finish(ctx context.Context, action string, before, after *domain.Session, msg domain.OutboundMessage) (*domain.Session, domain.OutboundMessage) {
	if msg.Outcome == "" {
		msg.Outcome = domain.OutcomeOK
	}
	if msg.Extra == nil {
		msg.Extra = map[string]any{}
	}
	msg.AvailableConceptNames = after.Concepts.Names()
	msg.ShowNavigationButtons = !msg.IsCritical
	msg.Extra[domain.ExtraStage] = string(after.Cursor.Stage)

	var to domain.Field
	current, ok := after.Current()
	if ok {
		msg.Extra[domain.ExtraConcept] = current.Name
		to = current.CurrentField
		if after.Cursor.Stage == domain.StageFillingField && msg.CurrentField == "" {
			msg.CurrentField = current.CurrentField
		}
		if current.Founder != "" {
			msg.Extra[domain.ExtraFounder] = current.Founder
		}
	}
	if msg.Outcome == domain.OutcomeOK {
		after.UpdatedAt = e.now()
	}

	var from domain.Field
	if prev, ok := before.Current(); ok {
		from = prev.CurrentField
	}

	e.logger.Debug("dialogue turn",
		"session_id", after.ID,
		"action", action,
		"stage", after.Cursor.Stage,
		"from", from,
		"to", to,
		"outcome", msg.Outcome,
	)

	if e.hooks.OnTurn != nil {
		e.hooks.OnTurn(ctx, &domain.TurnEvent{
			EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventTurn, SessionID: after.ID},
			Action:    action,
			Concept:   after.Cursor.CurrentConcept,
			From:      from,
			To:        to,
			Stage:     after.Cursor.Stage,
			Outcome:   msg.Outcome,
		})
	}
	return after, msg
}

// intercept returns a crisis response when text contains a crisis phrase.
func (e *Engine) intercept(ctx context.Context, action string, in *domain.Session, text string) (*domain.Session, domain.OutboundMessage, bool) {
	phrase, hit := e.lexicon.Match(text)
	if !hit {
		return nil, domain.OutboundMessage{}, false
	}

	e.logger.Warn("crisis phrase detected", "session_id", in.ID)
	if e.hooks.OnCrisis != nil {
		e.hooks.OnCrisis(ctx, &domain.CrisisEvent{
			EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventCrisis, SessionID: in.ID},
			Phrase:    phrase,
		})
	}

	msg := domain.OutboundMessage{
		Text:       SafetyMessage,
		Outcome:    domain.OutcomeCrisis,
		IsCritical: true,
		Extra:      map[string]any{domain.ExtraRequiresPsychiatrist: true},
	}
	out, msg := e.finish(ctx, action, in, in.Clone(), msg)
	return out, msg, true
}
