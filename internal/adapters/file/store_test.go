package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/seee/internal/adapters/file"
	"github.com/aretw0/seee/pkg/domain"
	"github.com/aretw0/seee/pkg/ports"
)

var _ ports.SessionStore = (*file.Store)(nil)

func TestFileStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_InvalidIDs(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()
	s := domain.NewSession("x", "", time.Now().UTC())

	for _, id := range []string{"", "../escape", `a\b`, ".."} {
		assert.ErrorIs(t, store.Save(ctx, id, s), file.ErrInvalidSessionID, id)
		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, file.ErrInvalidSessionID, id)
	}
}

func TestFileStore_NoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	s := domain.NewSession("s1", "", time.Now().UTC())
	require.NoError(t, store.Save(ctx, "s1", s))
	require.NoError(t, store.Save(ctx, "s1", s))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "s1.json", entries[0].Name())

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "nope"))
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFileStore_LegacyBlob(t *testing.T) {
	dir := t.TempDir()
	blob := `{
  "owner_id": "u1",
  "concepts": {
    "Money": {
      "name": "Money",
      "purpose": "to feel safe",
      "composition": ["salary", "savings"],
      "consequences_emotional": ["fear"],
      "current_field": "composition"
    }
  },
  "current_concept_name": "Money"
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.json"), []byte(blob), 0o644))

	s, err := file.New(dir).Load(context.Background(), "old")
	require.NoError(t, err)
	assert.Equal(t, "old", s.ID)
	money := s.Concepts["Money"]
	require.NotNil(t, money)
	assert.Equal(t, "to feel safe", money.Goal)
	assert.Equal(t, []string{"salary", "savings"}, money.Parts)
	assert.Equal(t, []string{"fear"}, money.Consequences.Emotional)
	assert.Equal(t, domain.FieldParts, money.CurrentField)
	assert.Equal(t, "Money", s.Cursor.CurrentConcept)
	assert.Equal(t, domain.StageFillingField, s.Cursor.Stage)
}
