package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	base := NewSession("sess-1", "u", time.Time{})
	base.Concepts["A"] = NewConcept("A")
	base.Cursor = SessionCursor{Stage: StageFillingField, CurrentConcept: "A"}

	t.Run("Initial Load (Old is Nil)", func(t *testing.T) {
		d := Diff(nil, base)
		require.NotNil(t, d)
		assert.Equal(t, "sess-1", d.SessionID)
		assert.Equal(t, StageFillingField, *d.Stage)
		assert.Equal(t, "A", *d.CurrentConcept)
		assert.Contains(t, d.Concepts, "A")
	})

	t.Run("No Changes", func(t *testing.T) {
		assert.Nil(t, Diff(base, base.Clone()))
	})

	t.Run("Concept Changed And Deleted", func(t *testing.T) {
		next := base.Clone()
		next.Concepts["A"].Goal = "new goal"
		next.Concepts["B"] = NewConcept("B")
		old := base.Clone()
		old.Concepts["Z"] = NewConcept("Z")

		d := Diff(old, next)
		require.NotNil(t, d)
		assert.Nil(t, d.Stage)
		assert.Nil(t, d.CurrentConcept)
		assert.Equal(t, "new goal", d.Concepts["A"].Goal)
		assert.Contains(t, d.Concepts, "B")
		z, present := d.Concepts["Z"]
		assert.True(t, present)
		assert.Nil(t, z)
	})

	t.Run("Stage Only", func(t *testing.T) {
		next := base.Clone()
		next.Cursor.Stage = StageComplete
		d := Diff(base, next)
		require.NotNil(t, d)
		assert.Equal(t, StageComplete, *d.Stage)
		assert.Empty(t, d.Concepts)
	})
}

func TestDiff_JSONOmitsUnchanged(t *testing.T) {
	next := NewSession("s", "", time.Time{})
	next.Cursor.Stage = StageComplete
	d := Diff(NewSession("s", "", time.Time{}), next)
	require.NotNil(t, d)

	data, err := json.Marshal(d)
	require.NoError(t, err)
	body := string(data)
	assert.True(t, strings.Contains(body, `"stage":"complete"`))
	assert.False(t, strings.Contains(body, "concepts"))
	assert.False(t, strings.Contains(body, "current_concept"))
}
