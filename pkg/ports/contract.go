package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/seee/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	newSession := func(id string) *domain.Session {
		s := domain.NewSession(id, "owner-1", time.Now().UTC().Truncate(time.Second))
		c := domain.NewConcept("Money")
		c.Goal = "to feel safe"
		c.Parts = []string{"salary", "savings"}
		c.CurrentField = domain.FieldFounder
		c.PendingFounder = "Mother"
		s.Concepts[c.Name] = c

		child := domain.NewConcept("salary")
		child.ExtractedFrom = "Money"
		child.ExtractedPart = domain.FieldParts
		child.IsStrikethrough = true
		s.Concepts[child.Name] = child

		s.Cursor = domain.SessionCursor{Stage: domain.StageFillingField, CurrentConcept: "Money"}
		return s
	}

	t.Run("Save and Load", func(t *testing.T) {
		session := newSession(sessionID)

		err := store.Save(ctx, sessionID, session)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, session.Cursor, loaded.Cursor)
		assert.Equal(t, "owner-1", loaded.OwnerID)
		require.Contains(t, loaded.Concepts, "Money")
		money := loaded.Concepts["Money"]
		assert.Equal(t, domain.FieldFounder, money.CurrentField)
		assert.Equal(t, []string{"salary", "savings"}, money.Parts)
		assert.Equal(t, "Mother", money.PendingFounder)
		salary := loaded.Concepts["salary"]
		require.NotNil(t, salary)
		assert.Equal(t, "Money", salary.ExtractedFrom)
		assert.True(t, salary.IsStrikethrough)
	})

	t.Run("Load returns an isolated copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Concepts["Money"].Goal = "mutated"

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "to feel safe", again.Concepts["Money"].Goal)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, newSession(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, newSession(id1))
		_ = store.Save(ctx, id2, newSession(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
