package dialogue_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/seee/internal/dialogue"
	"github.com/aretw0/seee/pkg/domain"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newEngine(opts ...dialogue.Option) *dialogue.Engine {
	opts = append([]dialogue.Option{dialogue.WithClock(func() time.Time { return t0 })}, opts...)
	return dialogue.New(opts...)
}

// step is one user action applied to a session.
type step func(*dialogue.Engine, *domain.Session) (*domain.Session, domain.OutboundMessage)

func say(text string) step {
	return func(e *dialogue.Engine, s *domain.Session) (*domain.Session, domain.OutboundMessage) {
		return e.Advance(context.Background(), s, text)
	}
}

func skip() step {
	return func(e *dialogue.Engine, s *domain.Session) (*domain.Session, domain.OutboundMessage) {
		return e.Skip(context.Background(), s)
	}
}

func newIdea(name string) step {
	return func(e *dialogue.Engine, s *domain.Session) (*domain.Session, domain.OutboundMessage) {
		return e.NewConcept(context.Background(), s, name)
	}
}

func drive(t *testing.T, e *dialogue.Engine, steps ...step) (*domain.Session, domain.OutboundMessage) {
	t.Helper()
	s := domain.NewSession("s1", "u1", t0)
	var msg domain.OutboundMessage
	for i, st := range steps {
		s, msg = st(e, s)
		require.Equal(t, domain.OutcomeOK, msg.Outcome, "step %d: %s", i, msg.Text)
	}
	return s, msg
}

// weightScenario reaches part selection for "lose weight".
var weightScenario = []step{
	say("lose weight"),
	say("lose weight"),
	say("junk food, no exercise"),
	say("move on"),
	skip(),
	say("shame"),
	skip(),
	say("I need structure"),
}

func TestEngine_Scenario(t *testing.T) {
	e := newEngine()
	s := domain.NewSession("s1", "u1", t0)
	ctx := context.Background()

	s, msg := e.Advance(ctx, s, "lose weight")
	assert.Equal(t, domain.StageFillingField, s.Cursor.Stage)
	assert.Equal(t, domain.FieldGoal, msg.CurrentField)
	assert.Equal(t, "lose weight", s.Title)

	s, msg = e.Advance(ctx, s, "lose weight")
	assert.Equal(t, domain.FieldParts, msg.CurrentField)

	s, msg = e.Advance(ctx, s, "junk food, no exercise")
	c, _ := s.Current()
	assert.Equal(t, []string{"junk food", "no exercise"}, c.Parts)
	assert.Equal(t, domain.FieldParts, msg.CurrentField)
	assert.Equal(t, "Are there any more parts of this idea, or shall we move on?", msg.Text)

	s, msg = e.Advance(ctx, s, "move on")
	assert.Equal(t, domain.FieldFounder, msg.CurrentField)

	s, msg = e.Skip(ctx, s)
	assert.Equal(t, domain.FieldEmotional, msg.CurrentField)

	s, msg = e.Advance(ctx, s, "shame")
	assert.Equal(t, domain.FieldPhysical, msg.CurrentField)

	s, msg = e.Skip(ctx, s)
	assert.Equal(t, domain.FieldConclusion, msg.CurrentField)

	s, msg = e.Advance(ctx, s, "I need structure")
	assert.Equal(t, domain.StageAwaitingPartSelection, s.Cursor.Stage)
	assert.Equal(t, []string{"junk food", "no exercise"}, msg.Extra[domain.ExtraPartsForSelection])
	assert.Equal(t, true, msg.Extra[domain.ExtraAwaitingPartSelection])
	assert.Contains(t, msg.Text, "1. junk food")
	assert.Contains(t, msg.Text, "2. no exercise")

	c, _ = s.Current()
	assert.Equal(t, "lose weight", c.Goal)
	assert.Empty(t, c.Founder)
	assert.Equal(t, []string{"shame"}, c.Consequences.Emotional)
	assert.Empty(t, c.Consequences.Physical)
	assert.Equal(t, "I need structure", c.Conclusion)
	assert.True(t, c.AwaitingPartSelection)

	s, msg = e.Advance(ctx, s, "2")
	require.Equal(t, domain.OutcomeOK, msg.Outcome)
	child, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "no exercise", child.Name)
	assert.Equal(t, "lose weight", child.ExtractedFrom)
	assert.Equal(t, domain.FieldParts, child.ExtractedPart)
	assert.Equal(t, domain.FieldGoal, child.CurrentField)
	assert.False(t, s.Concepts["lose weight"].AwaitingPartSelection)
	assert.Contains(t, msg.Text, "Let's decompose «no exercise».")
}

func TestEngine_CrisisInterceptsEveryStage(t *testing.T) {
	e := newEngine()

	stages := map[string][]step{
		"awaiting_first_concept": nil,
		"filling_goal":           {say("lose weight")},
		"filling_parts":          {say("lose weight"), say("eat less")},
		"part_selection":         weightScenario,
		"concept_choice": {
			say("A"),
			newIdea("B"), skip(), skip(), skip(), skip(), skip(), skip(),
		},
		"complete": {say("A"), skip(), skip(), skip(), skip(), skip(), skip()},
	}

	for name, steps := range stages {
		t.Run(name, func(t *testing.T) {
			s, _ := drive(t, e, steps...)
			before := s.Clone()

			out, msg := e.Advance(context.Background(), s, "Honestly, sometimes I WANT TO DIE.")

			assert.Equal(t, domain.OutcomeCrisis, msg.Outcome)
			assert.True(t, msg.IsCritical)
			assert.False(t, msg.ShowNavigationButtons)
			assert.Equal(t, dialogue.SafetyMessage, msg.Text)
			assert.Equal(t, true, msg.Extra[domain.ExtraRequiresPsychiatrist])

			assert.Empty(t, cmp.Diff(before.Concepts, out.Concepts))
			assert.Equal(t, before.Cursor, out.Cursor)
			assert.Empty(t, cmp.Diff(before, s), "input session must not be mutated")
		})
	}
}

func TestEngine_CrisisOnNewConceptName(t *testing.T) {
	e := newEngine()
	s := domain.NewSession("s1", "u1", t0)

	out, msg := e.NewConcept(context.Background(), s, "хочу умереть")
	assert.Equal(t, domain.OutcomeCrisis, msg.Outcome)
	assert.Empty(t, out.Concepts)
}

func TestEngine_CrisisOnSwitchAndExtract(t *testing.T) {
	e := newEngine()
	s, _ := drive(t, e, say("idea"), say("goal"), say("a"), say("done"), skip())
	before := s.Clone()

	out, msg := e.SwitchConcept(context.Background(), s, "I want to die")
	assert.Equal(t, domain.OutcomeCrisis, msg.Outcome)
	assert.Empty(t, cmp.Diff(before, out))

	out, msg = e.Extract(context.Background(), s, "idea", domain.FieldEmotional, "i want to die")
	assert.Equal(t, domain.OutcomeCrisis, msg.Outcome)
	assert.Empty(t, cmp.Diff(before.Concepts, out.Concepts))
	assert.Equal(t, before.Cursor, out.Cursor)
}

func TestEngine_StageComplete(t *testing.T) {
	s, msg := drive(t, newEngine(), say("A"), skip(), skip(), skip(), skip(), skip(), skip())
	assert.Equal(t, domain.StageComplete, s.Cursor.Stage)
	assert.Equal(t, "Great! The idea structure is complete. Want to change something or move to another idea?", msg.Text)
	assert.True(t, s.Concepts["A"].Complete())
}

func TestEngine_ConceptChoice(t *testing.T) {
	e := newEngine()
	s, msg := drive(t, e,
		say("A"),
		newIdea("B"), skip(), skip(), skip(), skip(), skip(), skip(),
	)
	require.Equal(t, domain.StageAwaitingConceptChoice, s.Cursor.Stage)
	assert.Equal(t, []string{"A"}, s.Cursor.Choices)
	assert.Contains(t, msg.Text, "1. A")

	out, msg := e.Advance(context.Background(), s, "Z")
	assert.Equal(t, domain.OutcomeConceptNotFound, msg.Outcome)
	assert.Equal(t, s.Cursor, out.Cursor)

	out, msg = e.Advance(context.Background(), s, "1")
	require.Equal(t, domain.OutcomeOK, msg.Outcome)
	assert.Equal(t, "A", out.Cursor.CurrentConcept)
	assert.Equal(t, domain.StageFillingField, out.Cursor.Stage)
	assert.Equal(t, domain.FieldGoal, msg.CurrentField)
}

func TestEngine_SkipFollowsCanonicalOrder(t *testing.T) {
	e := newEngine()
	s, _ := drive(t, e, say("idea"))

	var got []domain.Field
	for i := 0; i < 5; i++ {
		var msg domain.OutboundMessage
		s, msg = e.Skip(context.Background(), s)
		got = append(got, msg.CurrentField)
		assert.NotContains(t, msg.Text, "skip")
	}
	assert.Equal(t, []domain.Field{
		domain.FieldParts,
		domain.FieldFounder,
		domain.FieldEmotional,
		domain.FieldPhysical,
		domain.FieldConclusion,
	}, got)

	s, _ = e.Skip(context.Background(), s)
	assert.Equal(t, domain.StageComplete, s.Cursor.Stage)
}

func TestEngine_PartsAppendWhileStaying(t *testing.T) {
	e := newEngine()
	s, msg := drive(t, e, say("idea"), say("goal"), say("a, b"), say("b; c\nd"))
	c, _ := s.Current()
	assert.Equal(t, []string{"a", "b", "c", "d"}, c.Parts)
	assert.Equal(t, domain.FieldParts, msg.CurrentField)

	s, msg = e.Advance(context.Background(), s, "That's all.")
	assert.Equal(t, domain.FieldFounder, msg.CurrentField)
	c, _ = s.Current()
	assert.Len(t, c.Parts, 4)
}

func TestEngine_EmptyInput(t *testing.T) {
	e := newEngine()
	s, _ := drive(t, e, say("idea"), say("goal"))

	out, msg := e.Advance(context.Background(), s, "   \n")
	assert.Equal(t, domain.OutcomeEmptyInput, msg.Outcome)
	assert.True(t, msg.ShowNavigationButtons)
	assert.Empty(t, cmp.Diff(s, out))

	out, msg = e.Advance(context.Background(), s, " , ;")
	assert.Equal(t, domain.OutcomeEmptyInput, msg.Outcome)
	assert.Empty(t, cmp.Diff(s.Concepts, out.Concepts))
}

func TestEngine_PartSelection(t *testing.T) {
	e := newEngine()
	s, _ := drive(t, e, weightScenario...)

	t.Run("no match leaves state untouched", func(t *testing.T) {
		out, msg := e.Advance(context.Background(), s, "zebra")
		assert.Equal(t, domain.OutcomePartNotFound, msg.Outcome)
		assert.Empty(t, cmp.Diff(s, out))
		assert.Contains(t, msg.Text, "1. junk food")
	})

	t.Run("out of range index", func(t *testing.T) {
		_, msg := e.Advance(context.Background(), s, "3")
		assert.Equal(t, domain.OutcomePartNotFound, msg.Outcome)
	})

	t.Run("fuzzy match", func(t *testing.T) {
		out, msg := e.Advance(context.Background(), s, "JUNK")
		require.Equal(t, domain.OutcomeOK, msg.Outcome)
		assert.Equal(t, "junk food", out.Cursor.CurrentConcept)
	})

	t.Run("skip leaves selection", func(t *testing.T) {
		out, msg := e.Advance(context.Background(), s, "skip")
		require.Equal(t, domain.OutcomeOK, msg.Outcome)
		assert.Equal(t, domain.StageComplete, out.Cursor.Stage)
		assert.True(t, out.Concepts["lose weight"].Complete())
	})

	t.Run("skip button leaves selection", func(t *testing.T) {
		out, _ := e.Skip(context.Background(), s)
		assert.Equal(t, domain.StageComplete, out.Cursor.Stage)
	})

	t.Run("duplicate part name gets a suffix", func(t *testing.T) {
		s := s.Clone()
		require.NoError(t, s.Concepts.Add(domain.NewConcept("junk food")))
		out, _ := e.Advance(context.Background(), s, "1")
		assert.Equal(t, "junk food (2)", out.Cursor.CurrentConcept)
	})
}

func TestEngine_FounderOnGoalIsPending(t *testing.T) {
	e := newEngine()
	s, _ := drive(t, e, say("idea"))

	s, msg := e.Advance(context.Background(), s, "It's not me but John Smith, he is the founder")
	assert.Equal(t, "Understood, these goals belong to founder John Smith. Please continue describing the goals.", msg.Text)
	assert.Equal(t, domain.FieldGoal, msg.CurrentField)
	c, _ := s.Current()
	assert.Equal(t, "John Smith", c.Founder)
	assert.Equal(t, "John Smith", c.PendingFounder)
	assert.Empty(t, c.Goal)

	s, msg = e.Advance(context.Background(), s, "to feel accepted")
	assert.Equal(t, domain.FieldParts, msg.CurrentField)
	c, _ = s.Current()
	assert.Equal(t, "to feel accepted (goals of founder John Smith)", c.Goal)
	assert.Empty(t, c.PendingFounder)
}

func TestEngine_GoalMentioningFounderIsKept(t *testing.T) {
	for _, text := range []string{
		"Become a founder of a startup",
		"Being a founder is hard",
		"Хочу стать основателем компании",
	} {
		t.Run(text, func(t *testing.T) {
			e := newEngine()
			s, _ := drive(t, e, say("career"))

			out, msg := e.Advance(context.Background(), s, text)
			assert.Equal(t, domain.FieldParts, msg.CurrentField)
			c, _ := out.Current()
			assert.Equal(t, text, c.Goal)
			assert.Empty(t, c.Founder)
			assert.Empty(t, c.PendingFounder)
		})
	}
}

func TestEngine_FounderAttributionIsIdempotent(t *testing.T) {
	e := newEngine()
	s, _ := drive(t, e, say("idea"), say("to be liked"))
	s, _ = e.EditField(context.Background(), s, domain.FieldGoal)

	s, _ = e.Advance(context.Background(), s, "Mary is the founder")
	s, _ = e.Advance(context.Background(), s, "Mary is the founder")
	c, _ := s.Current()
	assert.Equal(t, "to be liked (goals of founder Mary)", c.Goal)

	s, _ = e.Advance(context.Background(), s, "Anna is the founder")
	c, _ = s.Current()
	assert.Equal(t, "to be liked (goals of founder Anna)", c.Goal)
	assert.Equal(t, "Anna", c.Founder)
}

func TestEngine_FounderOnOtherFields(t *testing.T) {
	e := newEngine()
	s, _ := drive(t, e, say("idea"), say("goal"), say("x"), say("done"), skip())

	t.Run("fills an empty founder and writes the field", func(t *testing.T) {
		out, msg := e.Advance(context.Background(), s, "Guilt, because Peter is the founder")
		assert.Equal(t, domain.FieldPhysical, msg.CurrentField)
		c, _ := out.Current()
		assert.Equal(t, "Peter", c.Founder)
		assert.Equal(t, []string{"Guilt", "because Peter is the founder"}, c.Consequences.Emotional)
	})

	t.Run("correction overwrites without writing the field", func(t *testing.T) {
		s := s.Clone()
		s.Concepts["idea"].Founder = "Peter"
		out, msg := e.Advance(context.Background(), s, "Actually, the founder is Olga")
		assert.Equal(t, domain.FieldEmotional, msg.CurrentField)
		c, _ := out.Current()
		assert.Equal(t, "Olga", c.Founder)
		assert.Empty(t, c.Consequences.Emotional)
	})

	t.Run("existing founder is kept without a correction", func(t *testing.T) {
		s := s.Clone()
		s.Concepts["idea"].Founder = "Peter"
		out, _ := e.Advance(context.Background(), s, "fear, Olga is the founder")
		c, _ := out.Current()
		assert.Equal(t, "Peter", c.Founder)
	})
}

func TestEngine_FounderFieldUsesDetectedName(t *testing.T) {
	e := newEngine()
	s, _ := drive(t, e, say("idea"), say("goal"), say("x"), say("done"))

	out, _ := e.Advance(context.Background(), s, "I think the founder was Victor")
	c, _ := out.Current()
	assert.Equal(t, "Victor", c.Founder)

	out, _ = e.Advance(context.Background(), s, "my father")
	c, _ = out.Current()
	assert.Equal(t, "my father", c.Founder)
}

func TestEngine_Rename(t *testing.T) {
	e := newEngine()
	s, _ := drive(t, e, weightScenario...)
	s, _ = e.Advance(context.Background(), s, "1")

	out, msg := e.Rename(context.Background(), s, "lose weight", "health")
	require.Equal(t, domain.OutcomeOK, msg.Outcome)
	assert.Equal(t, "health", out.Concepts["junk food"].ExtractedFrom)
	assert.Equal(t, "junk food", out.Cursor.CurrentConcept)
	assert.Equal(t, "health", out.Title)
	assert.Equal(t, []string{"health", "junk food"}, msg.AvailableConceptNames)

	out, msg = e.Rename(context.Background(), s, "lose weight", "junk food")
	assert.Equal(t, domain.OutcomeConceptExists, msg.Outcome)
	assert.Empty(t, cmp.Diff(s.Concepts, out.Concepts))

	_, msg = e.Rename(context.Background(), s, "missing", "x")
	assert.Equal(t, domain.OutcomeConceptNotFound, msg.Outcome)
}

func TestEngine_Extract(t *testing.T) {
	e := newEngine()
	s, _ := drive(t, e, say("idea"), say("goal"), say("a"), say("done"), skip())

	out, msg := e.Extract(context.Background(), s, "idea", domain.FieldEmotional, "shame")
	require.Equal(t, domain.OutcomeOK, msg.Outcome)
	child, ok := out.Concepts.Get("shame")
	require.True(t, ok)
	assert.Equal(t, "idea", child.ExtractedFrom)
	assert.Equal(t, domain.FieldEmotional, child.ExtractedPart)
	assert.Equal(t, []string{"shame"}, child.Consequences.Emotional)
	assert.Equal(t, domain.FieldGoal, child.CurrentField)
	assert.Equal(t, "idea", out.Cursor.CurrentConcept)

	_, msg = e.Extract(context.Background(), s, "idea", domain.Field("colour"), "x")
	assert.Equal(t, domain.OutcomeInvalidField, msg.Outcome)

	_, msg = e.Extract(context.Background(), s, "nope", domain.FieldGoal, "x")
	assert.Equal(t, domain.OutcomeConceptNotFound, msg.Outcome)

	long := "a very long value that certainly exceeds the fifty rune limit for names"
	out, _ = e.Extract(context.Background(), s, "idea", domain.FieldGoal, long)
	assert.Contains(t, out.Concepts, domain.Truncate(long, domain.TitleLimit))
}

func TestEngine_StrikethroughCurrent(t *testing.T) {
	e := newEngine()
	s, _ := drive(t, e, say("A"), newIdea("B"))

	out, msg := e.Strikethrough(context.Background(), s, "B", true)
	require.Equal(t, domain.OutcomeOK, msg.Outcome)
	assert.True(t, out.Concepts["B"].IsStrikethrough)
	assert.Equal(t, domain.StageAwaitingConceptChoice, out.Cursor.Stage)
	assert.Equal(t, []string{"A"}, out.Cursor.Choices)

	out, _ = e.Strikethrough(context.Background(), out, "B", false)
	assert.False(t, out.Concepts["B"].IsStrikethrough)
}

func TestEngine_DeleteConcept(t *testing.T) {
	e := newEngine()
	s, _ := drive(t, e, say("A"))

	out, msg := e.DeleteConcept(context.Background(), s, "A")
	require.Equal(t, domain.OutcomeOK, msg.Outcome)
	assert.Empty(t, out.Concepts)
	assert.Equal(t, domain.StageAwaitingFirstConcept, out.Cursor.Stage)

	_, msg = e.DeleteConcept(context.Background(), s, "Z")
	assert.Equal(t, domain.OutcomeConceptNotFound, msg.Outcome)
}

func TestEngine_EditFieldResumes(t *testing.T) {
	e := newEngine()
	s, _ := drive(t, e, say("A"), skip(), skip(), skip(), skip(), skip(), skip())

	s, msg := e.EditField(context.Background(), s, domain.FieldConclusion)
	assert.Equal(t, domain.FieldConclusion, msg.CurrentField)
	assert.Equal(t, domain.StageFillingField, s.Cursor.Stage)

	s, msg = e.Advance(context.Background(), s, "it was never mine")
	assert.Equal(t, domain.StageComplete, s.Cursor.Stage)
	assert.Contains(t, msg.Text, "Saved.")
	assert.Equal(t, "it was never mine", s.Concepts["A"].Conclusion)

	_, msg = e.EditField(context.Background(), s, domain.Field("colour"))
	assert.Equal(t, domain.OutcomeInvalidField, msg.Outcome)
}

func TestEngine_EditPartsReplaces(t *testing.T) {
	e := newEngine()
	s, _ := drive(t, e, say("A"), say("goal"), say("x, y"), say("done"))

	s, _ = e.EditField(context.Background(), s, domain.FieldParts)
	s, msg := e.Advance(context.Background(), s, "z")
	assert.Equal(t, []string{"z"}, s.Concepts["A"].Parts)
	assert.Equal(t, domain.FieldFounder, msg.CurrentField)
}

func TestEngine_SwitchConcept(t *testing.T) {
	e := newEngine()
	s, _ := drive(t, e, say("A"), say("goal"), newIdea("B"))

	out, msg := e.SwitchConcept(context.Background(), s, "A")
	require.Equal(t, domain.OutcomeOK, msg.Outcome)
	assert.Equal(t, domain.FieldParts, msg.CurrentField)
	assert.Equal(t, "A", out.Cursor.CurrentConcept)

	_, msg = e.SwitchConcept(context.Background(), s, "C")
	assert.Equal(t, domain.OutcomeConceptNotFound, msg.Outcome)
}

func TestEngine_DanglingCursor(t *testing.T) {
	e := newEngine()
	s := domain.NewSession("s1", "u1", t0)
	s.Cursor = domain.SessionCursor{Stage: domain.StageFillingField, CurrentConcept: "ghost"}

	out, msg := e.Advance(context.Background(), s, "hello")
	assert.Equal(t, domain.OutcomeConceptNotFound, msg.Outcome)
	assert.Equal(t, domain.StageAwaitingFirstConcept, out.Cursor.Stage)

	out, msg = e.Advance(context.Background(), out, "hello")
	assert.Equal(t, domain.OutcomeOK, msg.Outcome)
	assert.Equal(t, "hello", out.Cursor.CurrentConcept)
}

func TestEngine_MessageDecoration(t *testing.T) {
	e := newEngine()
	s, msg := drive(t, e, say("B"), newIdea("A"))
	assert.Equal(t, []string{"A", "B"}, msg.AvailableConceptNames)
	assert.True(t, msg.ShowNavigationButtons)
	assert.Equal(t, string(domain.StageFillingField), msg.Extra[domain.ExtraStage])
	assert.Equal(t, "A", msg.Extra[domain.ExtraConcept])
	assert.Equal(t, t0, s.UpdatedAt)

	prompt := e.Prompt(s)
	assert.Equal(t, domain.FieldGoal, prompt.CurrentField)
	assert.Equal(t, msg.AvailableConceptNames, prompt.AvailableConceptNames)
}

func TestEngine_LifecycleHooks(t *testing.T) {
	var turns []*domain.TurnEvent
	var crises []*domain.CrisisEvent
	hooks := domain.LifecycleHooks{
		OnTurn: func(_ context.Context, ev *domain.TurnEvent) {
			turns = append(turns, ev)
		},
		OnCrisis: func(_ context.Context, ev *domain.CrisisEvent) {
			crises = append(crises, ev)
		},
	}
	e := newEngine(dialogue.WithLifecycleHooks(hooks))

	s, _ := drive(t, e, say("A"), say("goal"))
	_, _ = e.Advance(context.Background(), s, "I want to kill myself")

	require.Len(t, turns, 3)
	assert.Equal(t, "advance", turns[1].Action)
	assert.Equal(t, domain.FieldGoal, turns[1].From)
	assert.Equal(t, domain.FieldParts, turns[1].To)
	assert.Equal(t, domain.OutcomeCrisis, turns[2].Outcome)

	require.Len(t, crises, 1)
	assert.Equal(t, "kill myself", crises[0].Phrase)
	assert.Equal(t, "s1", crises[0].SessionID)
}
