package dialogue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/seee/internal/dialogue"
)

func TestDetectFounder(t *testing.T) {
	tests := []struct {
		text string
		name string
		rule string
	}{
		{"Not me, but Peter was the founder", "Peter", "not-me-but-name-founder"},
		{"The founder is Mark Twain", "Mark Twain", "founder-name"},
		{"founder: Alice", "Alice", "founder-name"},
		{"I would name Anna as founder", "Anna", "name-as-founder"},
		{"I guess the founder of all this is Greg", "Greg", "founder-later-is-name"},
		{"Mary is the founder", "Mary", "name-is-founder"},
		{"Это не я, а Мария основатель", "Мария", "ru-eto-ne-ya"},
		{"Основатель Иван Петров", "Иван Петров", "ru-osnovatel-name"},
		{"Основатель: Иван", "Иван", "ru-osnovatel-colon-name"},
		{"Peter, the founder", "Peter", "name-is-founder"},
		{"Anna - founder of it all", "Anna", "name-is-founder"},
		{"Мария — основатель", "Мария", "ru-name-near-osnovatel"},
		{"Хочу стать основателем. Мария основатель", "Мария", "ru-name-near-osnovatel"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			name, rule, ok := dialogue.DetectFounder(dialogue.DefaultFounderRules, tt.text)
			assert.True(t, ok)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.rule, rule)
		})
	}
}

func TestDetectFounder_NoMatch(t *testing.T) {
	for _, text := range []string{
		"To make money for the founder",
		"lose weight",
		"junk food, no exercise",
		"the founder",
		"мне стыдно",
		"Become a founder of a startup",
		"Being a founder is hard",
		"Start as a founder someday",
		"Хочу стать основателем компании",
		"Стать основателем своего дела",
	} {
		_, _, ok := dialogue.DetectFounder(dialogue.DefaultFounderRules, text)
		assert.False(t, ok, text)
	}
}

func TestDetectFounder_RulesAreIndependent(t *testing.T) {
	for _, r := range dialogue.DefaultFounderRules {
		assert.NotEmpty(t, r.Name)
		assert.NotNil(t, r.Pattern, r.Name)
	}

	only := []dialogue.FounderRule{dialogue.DefaultFounderRules[4]}
	_, _, ok := dialogue.DetectFounder(only, "The founder is Mark")
	assert.False(t, ok)
}

func TestAttributeGoal(t *testing.T) {
	once := dialogue.AttributeGoal("be liked", "Mary")
	assert.Equal(t, "be liked (goals of founder Mary)", once)
	assert.Equal(t, once, dialogue.AttributeGoal(once, "Mary"))
	assert.Equal(t, "be liked (goals of founder Anna)", dialogue.AttributeGoal(once, "Anna"))
	assert.Equal(t, "be liked (goals of founder Anna)", dialogue.AttributeGoal("be liked (цели основателя Иван)", "Anna"))
	assert.Equal(t, "be liked", dialogue.AttributeGoal(once, ""))
	assert.Equal(t, "(goals of founder Mary)", dialogue.AttributeGoal("", "Mary"))
}
