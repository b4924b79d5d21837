package seee_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/seee"
	"github.com/aretw0/seee/pkg/domain"
)

func TestFacade_Scenario(t *testing.T) {
	eng, err := seee.New()
	require.NoError(t, err)
	ctx := context.Background()

	s := eng.NewSession("facade", "")
	assert.Contains(t, eng.Prompt(s).Text, "What idea would you like to explore?")

	var msg domain.OutboundMessage
	for _, text := range []string{"lose weight", "to look good", "junk food, no exercise", "move on"} {
		s, msg = eng.Advance(ctx, s, text)
		require.Equal(t, domain.OutcomeOK, msg.Outcome, text)
	}
	assert.Equal(t, domain.FieldFounder, msg.CurrentField)

	s, msg = eng.Skip(ctx, s)
	assert.Equal(t, domain.FieldEmotional, msg.CurrentField)

	s, _ = eng.Advance(ctx, s, "shame")
	s, _ = eng.Skip(ctx, s)
	s, msg = eng.Advance(ctx, s, "I need structure")
	assert.Equal(t, []string{"junk food", "no exercise"}, msg.Extra[domain.ExtraPartsForSelection])

	s, msg = eng.Advance(ctx, s, "2")
	assert.Contains(t, msg.Text, "Let's decompose «no exercise».")

	h := eng.Hierarchy(s)
	require.Len(t, h.Roots, 1)
	require.Len(t, h.Roots[0].Children, 1)
	assert.Equal(t, "no exercise", h.Roots[0].Children[0].Concept.Name)

	doc := eng.Document(s, "Alice")
	assert.Contains(t, doc, "# lose weight")
	assert.Contains(t, doc, "_Prepared for Alice._")
	assert.Contains(t, doc, "### no exercise")
}

func TestFacade_CrisisPhrases(t *testing.T) {
	eng, err := seee.New(seee.WithCrisisPhrases("nothing matters anymore"))
	require.NoError(t, err)

	s := eng.NewSession("crisis", "")
	out, msg := eng.Advance(context.Background(), s, "Honestly NOTHING matters anymore")
	assert.True(t, msg.IsCritical)
	assert.Equal(t, domain.OutcomeCrisis, msg.Outcome)
	assert.Empty(t, out.Concepts)
}

func TestFacade_LexiconFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("replace: true\nphrases:\n  - red alert\n"), 0o644))

	eng, err := seee.New(seee.WithLexiconFile(path))
	require.NoError(t, err)
	ctx := context.Background()
	s := eng.NewSession("lexicon", "")

	_, msg := eng.Advance(ctx, s, "red alert")
	assert.True(t, msg.IsCritical)

	_, msg = eng.Advance(ctx, s, "I want to die")
	assert.False(t, msg.IsCritical, "replaced lexicon drops the built-in phrases")

	_, err = seee.New(seee.WithLexiconFile(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)
}

func TestFacade_Hooks(t *testing.T) {
	var turns, crises int
	eng, err := seee.New(seee.WithLifecycleHooks(domain.LifecycleHooks{
		OnTurn:   func(context.Context, *domain.TurnEvent) { turns++ },
		OnCrisis: func(context.Context, *domain.CrisisEvent) { crises++ },
	}))
	require.NoError(t, err)
	ctx := context.Background()

	s := eng.NewSession("hooks", "")
	s, _ = eng.Advance(ctx, s, "idea")
	_, _ = eng.Advance(ctx, s, "suicide")
	assert.Equal(t, 2, turns)
	assert.Equal(t, 1, crises)
}
