package seee

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/seee/internal/dialogue"
	"github.com/aretw0/seee/internal/logging"
	"github.com/aretw0/seee/pkg/domain"
)

// Version is the module release reported by the CLI and the /info endpoint.
const Version = "0.4.0"

// Engine is the high-level entry point for the seee library.
// It wraps the dialogue state machine and provides a simplified API for consumers.
// Every call takes a session and returns a new one; the input is never mutated.
type Engine struct {
	dialogue    *dialogue.Engine
	lexiconFile string
	phrases     []string
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	now         func() time.Time
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLexiconFile loads crisis phrases from a YAML file.
func WithLexiconFile(path string) Option {
	return func(e *Engine) {
		e.lexiconFile = path
	}
}

// WithCrisisPhrases adds phrases to the crisis lexicon.
func WithCrisisPhrases(phrases ...string) Option {
	return func(e *Engine) {
		e.phrases = append(e.phrases, phrases...)
	}
}

// WithClock overrides the time source used for concept timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New initializes a new Engine.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	lexicon := dialogue.DefaultLexicon()
	if eng.lexiconFile != "" {
		l, err := dialogue.LoadLexicon(eng.lexiconFile)
		if err != nil {
			return nil, fmt.Errorf("invalid lexicon: %w", err)
		}
		lexicon = l
	}
	if len(eng.phrases) > 0 {
		lexicon = lexicon.Extend(eng.phrases...)
	}
	eng.logger.Debug("crisis lexicon loaded", "phrases", lexicon.Len())

	dialogueOpts := []dialogue.Option{
		dialogue.WithLexicon(lexicon),
		dialogue.WithLifecycleHooks(eng.hooks),
		dialogue.WithLogger(eng.logger),
	}
	if eng.now != nil {
		dialogueOpts = append(dialogueOpts, dialogue.WithClock(eng.now))
	}
	eng.dialogue = dialogue.New(dialogueOpts...)
	return eng, nil
}

// NewSession creates an empty session waiting for its first concept.
func (e *Engine) NewSession(id, ownerID string) *domain.Session {
	return domain.NewSession(id, ownerID, time.Now().UTC())
}

// Advance consumes one free-text user message.
func (e *Engine) Advance(ctx context.Context, s *domain.Session, text string) (*domain.Session, domain.OutboundMessage) {
	return e.dialogue.Advance(ctx, s, text)
}

// Skip leaves the current field empty and moves on.
func (e *Engine) Skip(ctx context.Context, s *domain.Session) (*domain.Session, domain.OutboundMessage) {
	return e.dialogue.Skip(ctx, s)
}

// EditField re-opens a field of the current concept.
func (e *Engine) EditField(ctx context.Context, s *domain.Session, field domain.Field) (*domain.Session, domain.OutboundMessage) {
	return e.dialogue.EditField(ctx, s, field)
}

// NewConcept starts a new top-level concept.
func (e *Engine) NewConcept(ctx context.Context, s *domain.Session, name string) (*domain.Session, domain.OutboundMessage) {
	return e.dialogue.NewConcept(ctx, s, name)
}

// SwitchConcept makes another concept current.
func (e *Engine) SwitchConcept(ctx context.Context, s *domain.Session, name string) (*domain.Session, domain.OutboundMessage) {
	return e.dialogue.SwitchConcept(ctx, s, name)
}

// Rename renames a concept and rewrites every reference to it.
func (e *Engine) Rename(ctx context.Context, s *domain.Session, oldName, newName string) (*domain.Session, domain.OutboundMessage) {
	return e.dialogue.Rename(ctx, s, oldName, newName)
}

// Strikethrough discards or restores a concept.
func (e *Engine) Strikethrough(ctx context.Context, s *domain.Session, name string, struck bool) (*domain.Session, domain.OutboundMessage) {
	return e.dialogue.Strikethrough(ctx, s, name, struck)
}

// Extract creates a child concept from one field value of source.
func (e *Engine) Extract(ctx context.Context, s *domain.Session, source string, field domain.Field, value string) (*domain.Session, domain.OutboundMessage) {
	return e.dialogue.Extract(ctx, s, source, field, value)
}

// DeleteConcept removes a concept; its children become roots.
func (e *Engine) DeleteConcept(ctx context.Context, s *domain.Session, name string) (*domain.Session, domain.OutboundMessage) {
	return e.dialogue.DeleteConcept(ctx, s, name)
}

// Prompt renders the message for the current position without transitioning.
func (e *Engine) Prompt(s *domain.Session) domain.OutboundMessage {
	return e.dialogue.Prompt(s)
}

// Hierarchy builds the concept forest of a session.
func (e *Engine) Hierarchy(s *domain.Session) domain.Hierarchy {
	h := domain.BuildHierarchy(s.Concepts)
	if len(h.Cycles) > 0 {
		e.logger.Warn("concept hierarchy has cycles", "session_id", s.ID, "concepts", h.Cycles)
	}
	return h
}

// Document renders the session as a markdown document. author may be empty.
func (e *Engine) Document(s *domain.Session, author string) string {
	return dialogue.RenderDocument(s, author)
}
