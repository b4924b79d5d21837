package session

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/seee/pkg/domain"
	"github.com/aretw0/seee/pkg/ports"
)

// Dialogue is the engine surface driven by the Orchestrator.
type Dialogue interface {
	Advance(ctx context.Context, s *domain.Session, text string) (*domain.Session, domain.OutboundMessage)
	Prompt(s *domain.Session) domain.OutboundMessage
}

// Action is one engine entry point applied to a loaded session.
type Action func(ctx context.Context, s *domain.Session) (*domain.Session, domain.OutboundMessage)

// Observer receives the diff of every committed turn, in commit order.
type Observer func(ctx context.Context, diff *domain.SessionDiff)

const phrasingPrompt = `Rephrase the following message from a self-analysis assistant so it sounds warm and natural.
Keep the meaning, the language and any quoted names exactly. Reply with the message only.

%s`

// Orchestrator runs dialogue turns: lock, load, authorize, advance, save
// and notify. Same-session turns never interleave.
type Orchestrator struct {
	manager   *Manager
	engine    Dialogue
	completer ports.Completer
	observers []Observer
	newID     func() string
	now       func() time.Time
}

// OrchestratorOption configures the Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithCompleter enables phrasing of engine messages.
func WithCompleter(c ports.Completer) OrchestratorOption {
	return func(o *Orchestrator) {
		o.completer = c
	}
}

// WithObserver registers a diff observer.
func WithObserver(obs Observer) OrchestratorOption {
	return func(o *Orchestrator) {
		o.observers = append(o.observers, obs)
	}
}

// WithIDGenerator overrides session ID generation.
func WithIDGenerator(fn func() string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.newID = fn
	}
}

// WithClock overrides the time source for new sessions.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// NewOrchestrator creates an Orchestrator. It logs through the manager's logger.
func NewOrchestrator(manager *Manager, engine Dialogue, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		manager: manager,
		engine:  engine,
		newID:   uuid.NewString,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Subscribe registers an observer after construction.
func (o *Orchestrator) Subscribe(obs Observer) {
	o.observers = append(o.observers, obs)
}

// Start creates a session for ownerID and returns the greeting.
func (o *Orchestrator) Start(ctx context.Context, ownerID string) (*domain.Session, domain.OutboundMessage, error) {
	id := o.newID()
	s, _, err := o.manager.LoadOrCreate(ctx, id, func() *domain.Session {
		return domain.NewSession(id, ownerID, o.now())
	})
	if err != nil {
		return nil, domain.OutboundMessage{}, err
	}
	msg := o.engine.Prompt(s)
	o.notify(ctx, id, domain.Diff(nil, s), msg)

	o.manager.logger.Info("session started", "session_id", id, "owner_id", ownerID)
	return s, msg, nil
}

// Turn feeds one user message into the engine.
func (o *Orchestrator) Turn(ctx context.Context, ownerID, sessionID, text string) (*domain.Session, domain.OutboundMessage, error) {
	s, msg, err := o.Do(ctx, ownerID, sessionID, func(ctx context.Context, s *domain.Session) (*domain.Session, domain.OutboundMessage) {
		return o.engine.Advance(ctx, s, text)
	})
	if err != nil {
		return nil, msg, err
	}
	return s, o.phrase(ctx, msg), nil
}

// Do applies an engine action to a stored session under its lock.
func (o *Orchestrator) Do(ctx context.Context, ownerID, sessionID string, action Action) (*domain.Session, domain.OutboundMessage, error) {
	var out *domain.Session
	var msg domain.OutboundMessage

	err := o.manager.WithLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := o.manager.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := authorize(s, ownerID); err != nil {
			return err
		}

		next, reply := action(ctx, s)

		if reply.Outcome == domain.OutcomeCrisis {
			o.manager.logger.Warn("crisis phrase intercepted", "session_id", sessionID, "owner_id", s.OwnerID)
		}
		if h := domain.BuildHierarchy(next.Concepts); len(h.Cycles) > 0 {
			o.manager.logger.Warn("concept hierarchy has cycles", "session_id", sessionID, "concepts", strings.Join(h.Cycles, ", "))
		}

		diff := domain.Diff(s, next)
		if reply.Outcome == domain.OutcomeOK || diff != nil || !reflect.DeepEqual(s.Cursor, next.Cursor) {
			if err := o.manager.store.Save(ctx, sessionID, next); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}
		}
		o.notify(ctx, sessionID, diff, reply)

		out, msg = next, reply
		return nil
	})
	if err != nil {
		return nil, domain.OutboundMessage{}, err
	}
	return out, msg, nil
}

// Get loads a session owned by ownerID.
func (o *Orchestrator) Get(ctx context.Context, ownerID, sessionID string) (*domain.Session, error) {
	s, err := o.manager.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := authorize(s, ownerID); err != nil {
		return nil, err
	}
	return s, nil
}

// Prompt returns the current message of a session without changing it.
func (o *Orchestrator) Prompt(ctx context.Context, ownerID, sessionID string) (domain.OutboundMessage, error) {
	s, err := o.Get(ctx, ownerID, sessionID)
	if err != nil {
		return domain.OutboundMessage{}, err
	}
	return o.engine.Prompt(s), nil
}

// Hierarchy builds the concept forest of a session.
func (o *Orchestrator) Hierarchy(ctx context.Context, ownerID, sessionID string) (domain.Hierarchy, error) {
	s, err := o.Get(ctx, ownerID, sessionID)
	if err != nil {
		return domain.Hierarchy{}, err
	}
	h := domain.BuildHierarchy(s.Concepts)
	if len(h.Cycles) > 0 {
		o.manager.logger.Warn("concept hierarchy has cycles", "session_id", sessionID, "concepts", strings.Join(h.Cycles, ", "))
	}
	return h, nil
}

// List returns the sessions of ownerID, most recently updated first.
// An empty ownerID lists every session.
func (o *Orchestrator) List(ctx context.Context, ownerID string) ([]*domain.Session, error) {
	ids, err := o.manager.List(ctx)
	if err != nil {
		return nil, err
	}

	var out []*domain.Session
	for _, id := range ids {
		s, err := o.manager.store.Load(ctx, id)
		if errors.Is(err, domain.ErrSessionNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load session %s: %w", id, err)
		}
		if ownerID != "" && s.OwnerID != ownerID {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// Delete removes a session owned by ownerID.
func (o *Orchestrator) Delete(ctx context.Context, ownerID, sessionID string) error {
	return o.manager.WithLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := o.manager.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := authorize(s, ownerID); err != nil {
			return err
		}
		return o.manager.store.Delete(ctx, sessionID)
	})
}

// authorize allows local callers (empty ownerID) and the session owner.
// Ownerless sessions, such as imported ones, are reachable only locally.
func authorize(s *domain.Session, ownerID string) error {
	if ownerID == "" || s.OwnerID == ownerID {
		return nil
	}
	return fmt.Errorf("%w: session %s", domain.ErrForbidden, s.ID)
}

func (o *Orchestrator) notify(ctx context.Context, sessionID string, diff *domain.SessionDiff, msg domain.OutboundMessage) {
	if len(o.observers) == 0 {
		return
	}
	if diff == nil {
		diff = &domain.SessionDiff{SessionID: sessionID}
	}
	diff.Message = &msg
	for _, obs := range o.observers {
		obs(ctx, diff)
	}
}

// phrase asks the completer to reword msg. Crisis messages and menus are
// returned verbatim, as is the original text on any completer failure.
func (o *Orchestrator) phrase(ctx context.Context, msg domain.OutboundMessage) domain.OutboundMessage {
	if o.completer == nil || msg.IsCritical || msg.Outcome != domain.OutcomeOK {
		return msg
	}
	if _, menu := msg.Extra[domain.ExtraPartsForSelection]; menu {
		return msg
	}
	if _, menu := msg.Extra[domain.ExtraChoices]; menu {
		return msg
	}

	text, err := o.completer.Complete(ctx, fmt.Sprintf(phrasingPrompt, msg.Text))
	if err != nil {
		o.manager.logger.Warn("phrasing failed, using engine text", "err", err)
		return msg
	}
	if text = strings.TrimSpace(text); text != "" {
		msg.Text = text
	}
	return msg
}
