package notebook_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	svc "github.com/aretw0/seee/internal/notebook"
	"github.com/aretw0/seee/internal/validation"
	"github.com/aretw0/seee/pkg/adapters/memory"
	"github.com/aretw0/seee/pkg/notebook"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newService() *svc.Service {
	return svc.New(memory.NewNotebook(), svc.WithClock(func() time.Time { return t0 }))
}

func TestAddThought(t *testing.T) {
	s := newService()
	ctx := context.Background()

	th, err := s.AddThought(ctx, "alice", svc.ThoughtRequest{Title: "  Calm  ", SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "Calm", th.Title)
	assert.Equal(t, 1, th.Number)
	assert.Equal(t, t0, th.CreatedAt)

	th, err = s.AddThought(ctx, "alice", svc.ThoughtRequest{Text: "Fear is a story"})
	require.NoError(t, err)
	assert.Equal(t, 2, th.Number)

	_, err = s.AddThought(ctx, "alice", svc.ThoughtRequest{Title: "  ", Text: "\n"})
	assert.ErrorIs(t, err, validation.ErrInvalid)
	assert.ErrorIs(t, err, notebook.ErrEmptyThought)

	_, err = s.AddThought(ctx, "alice", svc.ThoughtRequest{Title: strings.Repeat("x", 201)})
	assert.ErrorIs(t, err, validation.ErrInvalid)
}

func TestUpdateThought(t *testing.T) {
	s := newService()
	ctx := context.Background()
	th, err := s.AddThought(ctx, "alice", svc.ThoughtRequest{Title: "Calm", Text: "Breathing"})
	require.NoError(t, err)

	updated, err := s.UpdateThought(ctx, "alice", th.ID, svc.ThoughtUpdate{Text: " Walking "})
	require.NoError(t, err)
	assert.Equal(t, "Calm", updated.Title)
	assert.Equal(t, "Walking", updated.Text)

	_, err = s.UpdateThought(ctx, "alice", th.ID, svc.ThoughtUpdate{Number: -1})
	assert.ErrorIs(t, err, validation.ErrInvalid)

	_, err = s.UpdateThought(ctx, "bob", th.ID, svc.ThoughtUpdate{Title: "mine"})
	assert.ErrorIs(t, err, notebook.ErrNotFound)

	require.NoError(t, s.DeleteThought(ctx, "alice", th.ID))
	list, err := s.Thoughts(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEventMap(t *testing.T) {
	s := newService()
	ctx := context.Background()

	exam, err := s.AddMapEntry(ctx, "alice", svc.MapEntryRequest{Event: "Exam", Emotion: "fear", Idea: "I must be perfect"})
	require.NoError(t, err)
	assert.Equal(t, 1, exam.EventNumber)

	_, err = s.AddMapEntry(ctx, "alice", svc.MapEntryRequest{EventNumber: 1, Event: "Exam", Emotion: "shame", Idea: "Others are better"})
	require.NoError(t, err)

	_, err = s.AddMapEntry(ctx, "alice", svc.MapEntryRequest{EventNumber: 9, Event: "Exam", Emotion: "fear", Idea: "x"})
	assert.ErrorIs(t, err, notebook.ErrNotFound, "joining an unknown event")

	_, err = s.AddMapEntry(ctx, "alice", svc.MapEntryRequest{Event: "Exam", Emotion: " "})
	assert.ErrorIs(t, err, validation.ErrInvalid)

	require.NoError(t, s.SetMapEntryCompleted(ctx, "alice", exam.ID, true))
	events, err := s.MapEvents(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, []string{"fear", "shame"}, events[0].Emotions)
	assert.False(t, events[0].Completed)

	updated, err := s.UpdateMapEntry(ctx, "alice", exam.ID, svc.MapEntryUpdate{Idea: "Mistakes are allowed"})
	require.NoError(t, err)
	assert.Equal(t, "Exam", updated.Event)
	assert.Equal(t, "Mistakes are allowed", updated.Idea)

	require.NoError(t, s.DeleteMapEntry(ctx, "alice", exam.ID))
	entries, err := s.MapEntries(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	events, err = s.MapEvents(ctx, "bob")
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}
