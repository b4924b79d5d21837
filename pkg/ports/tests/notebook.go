package tests

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/seee/pkg/notebook"
	"github.com/aretw0/seee/pkg/ports"
)

// NotebookContractTest verifies that an adapter complies with
// ports.NotebookStore.
func NotebookContractTest(t *testing.T, store ports.NotebookStore) {
	t.Helper()
	ctx := context.Background()
	alice, bob := "alice-"+uuid.NewString()[:8], "bob-"+uuid.NewString()[:8]
	now := time.Now().UTC().Truncate(time.Second)

	t.Run("Thoughts are numbered per user", func(t *testing.T) {
		first := &notebook.Thought{UserID: alice, Title: "Calm", Text: "Breathing helps", CreatedAt: now}
		require.NoError(t, store.AddThought(ctx, first))
		second := &notebook.Thought{UserID: alice, SessionID: "s1", Text: "Fear is a story", CreatedAt: now}
		require.NoError(t, store.AddThought(ctx, second))
		other := &notebook.Thought{UserID: bob, Title: "Mine", CreatedAt: now}
		require.NoError(t, store.AddThought(ctx, other))

		assert.NotZero(t, first.ID)
		assert.NotEqual(t, first.ID, second.ID)
		assert.Equal(t, 1, first.Number)
		assert.Equal(t, 2, second.Number)
		assert.Equal(t, 1, other.Number)

		list, err := store.Thoughts(ctx, alice)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Calm", list[0].Title)
		assert.Equal(t, "s1", list[1].SessionID)
		assert.Equal(t, alice, list[1].UserID)
	})

	t.Run("Thought update and delete", func(t *testing.T) {
		list, err := store.Thoughts(ctx, alice)
		require.NoError(t, err)
		id := list[0].ID

		updated, err := store.UpdateThought(ctx, alice, id, notebook.ThoughtPatch{Text: "Walking helps", Number: 5})
		require.NoError(t, err)
		assert.Equal(t, "Calm", updated.Title)
		assert.Equal(t, "Walking helps", updated.Text)
		assert.Equal(t, 5, updated.Number)

		list, err = store.Thoughts(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, id, list[1].ID, "renumbered thought sorts last")

		_, err = store.UpdateThought(ctx, bob, id, notebook.ThoughtPatch{Title: "stolen"})
		assert.ErrorIs(t, err, notebook.ErrNotFound)
		assert.ErrorIs(t, store.DeleteThought(ctx, bob, id), notebook.ErrNotFound)

		require.NoError(t, store.DeleteThought(ctx, alice, id))
		assert.ErrorIs(t, store.DeleteThought(ctx, alice, id), notebook.ErrNotFound)

		next := &notebook.Thought{UserID: alice, Title: "After", CreatedAt: now}
		require.NoError(t, store.AddThought(ctx, next))
		assert.Equal(t, 3, next.Number)
	})

	t.Run("Map entries", func(t *testing.T) {
		exam := &notebook.MapEntry{UserID: alice, Event: "Exam", Emotion: "fear", Idea: "I must be perfect", CreatedAt: now, UpdatedAt: now}
		require.NoError(t, store.AddMapEntry(ctx, exam))
		assert.Equal(t, 1, exam.EventNumber)

		again := &notebook.MapEntry{UserID: alice, EventNumber: exam.EventNumber, Event: "Exam", Emotion: "shame", Idea: "Others are better", CreatedAt: now, UpdatedAt: now}
		require.NoError(t, store.AddMapEntry(ctx, again))
		fight := &notebook.MapEntry{UserID: alice, Event: "Argument", Emotion: "anger", Idea: "I am not heard", CreatedAt: now, UpdatedAt: now}
		require.NoError(t, store.AddMapEntry(ctx, fight))
		assert.Equal(t, 2, fight.EventNumber)

		entries, err := store.MapEntries(ctx, alice)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, []int64{exam.ID, again.ID, fight.ID}, []int64{entries[0].ID, entries[1].ID, entries[2].ID})
		assert.False(t, entries[0].Completed)

		require.NoError(t, store.SetMapEntryCompleted(ctx, alice, exam.ID, true))
		updated, err := store.UpdateMapEntry(ctx, alice, exam.ID, notebook.MapEntryPatch{Idea: "Mistakes are allowed"})
		require.NoError(t, err)
		assert.True(t, updated.Completed)
		assert.Equal(t, "fear", updated.Emotion)
		assert.Equal(t, "Mistakes are allowed", updated.Idea)

		assert.ErrorIs(t, store.SetMapEntryCompleted(ctx, bob, exam.ID, false), notebook.ErrNotFound)
		_, err = store.UpdateMapEntry(ctx, bob, exam.ID, notebook.MapEntryPatch{Idea: "x"})
		assert.ErrorIs(t, err, notebook.ErrNotFound)
		assert.ErrorIs(t, store.DeleteMapEntry(ctx, bob, exam.ID), notebook.ErrNotFound)

		require.NoError(t, store.DeleteMapEntry(ctx, alice, fight.ID))
		entries, err = store.MapEntries(ctx, alice)
		require.NoError(t, err)
		assert.Len(t, entries, 2)

		none, err := store.MapEntries(ctx, bob)
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}
