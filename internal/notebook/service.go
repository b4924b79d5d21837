// Package notebook validates and stores the cabinet's thoughts and event
// map on behalf of authenticated users.
package notebook

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/seee/internal/logging"
	"github.com/aretw0/seee/internal/validation"
	"github.com/aretw0/seee/pkg/notebook"
	"github.com/aretw0/seee/pkg/ports"
)

// ThoughtRequest creates a thought. Title or Text must be set.
type ThoughtRequest struct {
	SessionID string `json:"session_id,omitempty" validate:"max=64"`
	Title     string `json:"title" validate:"max=200"`
	Text      string `json:"thought_text" validate:"max=4000"`
}

// ThoughtUpdate changes a thought; empty fields are kept.
type ThoughtUpdate struct {
	Title  string `json:"title" validate:"max=200"`
	Text   string `json:"thought_text" validate:"max=4000"`
	Number int    `json:"thought_number" validate:"gte=0"`
}

// MapEntryRequest adds a row to the event map. EventNumber joins an
// existing event; zero opens a new one.
type MapEntryRequest struct {
	EventNumber int    `json:"event_number,omitempty" validate:"gte=0"`
	Event       string `json:"event" validate:"required,max=500"`
	Emotion     string `json:"emotion" validate:"required,max=200"`
	Idea        string `json:"idea" validate:"required,max=1000"`
}

// MapEntryUpdate changes a map entry; empty fields are kept.
type MapEntryUpdate struct {
	Event   string `json:"event" validate:"max=500"`
	Emotion string `json:"emotion" validate:"max=200"`
	Idea    string `json:"idea" validate:"max=1000"`
}

// Service implements the notebook use cases.
type Service struct {
	store  ports.NotebookStore
	logger *slog.Logger
	now    func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the time source for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a Service over store.
func New(store ports.NotebookStore, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: logging.NewNop(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Thoughts lists the user's thoughts by number.
func (s *Service) Thoughts(ctx context.Context, userID string) ([]notebook.Thought, error) {
	return s.store.Thoughts(ctx, userID)
}

// AddThought stores a new thought under the user's next number.
func (s *Service) AddThought(ctx context.Context, userID string, req ThoughtRequest) (*notebook.Thought, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Text = strings.TrimSpace(req.Text)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if req.Title == "" && req.Text == "" {
		return nil, fmt.Errorf("%w: %w", validation.ErrInvalid, notebook.ErrEmptyThought)
	}

	t := &notebook.Thought{
		UserID:    userID,
		SessionID: strings.TrimSpace(req.SessionID),
		Title:     req.Title,
		Text:      req.Text,
		CreatedAt: s.now(),
	}
	if err := s.store.AddThought(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Debug("thought added", "user_id", userID, "thought_id", t.ID, "number", t.Number)
	return t, nil
}

// UpdateThought edits one of the user's thoughts.
func (s *Service) UpdateThought(ctx context.Context, userID string, id int64, req ThoughtUpdate) (*notebook.Thought, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Text = strings.TrimSpace(req.Text)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	return s.store.UpdateThought(ctx, userID, id, notebook.ThoughtPatch{Title: req.Title, Text: req.Text, Number: req.Number})
}

// DeleteThought removes one of the user's thoughts.
func (s *Service) DeleteThought(ctx context.Context, userID string, id int64) error {
	return s.store.DeleteThought(ctx, userID, id)
}

// MapEntries lists the user's event map rows.
func (s *Service) MapEntries(ctx context.Context, userID string) ([]notebook.MapEntry, error) {
	return s.store.MapEntries(ctx, userID)
}

// MapEvents lists the user's event map grouped by event.
func (s *Service) MapEvents(ctx context.Context, userID string) ([]notebook.MapEvent, error) {
	entries, err := s.store.MapEntries(ctx, userID)
	if err != nil {
		return nil, err
	}
	events := notebook.GroupEvents(entries)
	if events == nil {
		events = []notebook.MapEvent{}
	}
	return events, nil
}

// AddMapEntry stores an event-emotion-idea row. Joining an event requires
// that the user already has it.
func (s *Service) AddMapEntry(ctx context.Context, userID string, req MapEntryRequest) (*notebook.MapEntry, error) {
	req.Event = strings.TrimSpace(req.Event)
	req.Emotion = strings.TrimSpace(req.Emotion)
	req.Idea = strings.TrimSpace(req.Idea)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if req.EventNumber > 0 {
		if err := s.requireEvent(ctx, userID, req.EventNumber); err != nil {
			return nil, err
		}
	}

	now := s.now()
	e := &notebook.MapEntry{
		UserID:      userID,
		EventNumber: req.EventNumber,
		Event:       req.Event,
		Emotion:     req.Emotion,
		Idea:        req.Idea,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.AddMapEntry(ctx, e); err != nil {
		return nil, err
	}
	s.logger.Debug("map entry added", "user_id", userID, "entry_id", e.ID, "event_number", e.EventNumber)
	return e, nil
}

func (s *Service) requireEvent(ctx context.Context, userID string, number int) error {
	entries, err := s.store.MapEntries(ctx, userID)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.EventNumber == number {
			return nil
		}
	}
	return fmt.Errorf("%w: event %d", notebook.ErrNotFound, number)
}

// UpdateMapEntry edits one of the user's map rows.
func (s *Service) UpdateMapEntry(ctx context.Context, userID string, id int64, req MapEntryUpdate) (*notebook.MapEntry, error) {
	req.Event = strings.TrimSpace(req.Event)
	req.Emotion = strings.TrimSpace(req.Emotion)
	req.Idea = strings.TrimSpace(req.Idea)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	return s.store.UpdateMapEntry(ctx, userID, id, notebook.MapEntryPatch{Event: req.Event, Emotion: req.Emotion, Idea: req.Idea})
}

// DeleteMapEntry removes one of the user's map rows.
func (s *Service) DeleteMapEntry(ctx context.Context, userID string, id int64) error {
	return s.store.DeleteMapEntry(ctx, userID, id)
}

// SetMapEntryCompleted marks one of the user's map rows done or open.
func (s *Service) SetMapEntryCompleted(ctx context.Context, userID string, id int64, completed bool) error {
	return s.store.SetMapEntryCompleted(ctx, userID, id, completed)
}
