package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitItems(t *testing.T) {
	assert.Equal(t, []string{"junk food", "no exercise"}, SplitItems("junk food, no exercise"))
	assert.Equal(t, []string{"a", "b", "c"}, SplitItems(" a ;b\n\n c ,"))
	assert.Empty(t, SplitItems(" , ; \n"))
}

func TestMatchOption(t *testing.T) {
	options := []string{"junk food", "no exercise", "Late Snacks"}

	tests := []struct {
		text  string
		index int
		ok    bool
	}{
		{"1", 0, true},
		{"3.", 2, true},
		{"4", 0, false},
		{"0", 0, false},
		{"No Exercise", 1, true},
		{"snacks", 2, true},
		{"I think junk food mostly", 0, true},
		{"sleep", 0, false},
		{"   ", 0, false},
		{"exerc", 1, true},
		{"no", 1, true},
		{"ex", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			i, ok := matchOption(options, tt.text)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.index, i)
			}
		})
	}
}

func TestMatchOption_ShortOptions(t *testing.T) {
	options := []string{"a", "b c", "health"}

	tests := []struct {
		text  string
		index int
		ok    bool
	}{
		{"banana bread", 0, false},
		{"plan a", 0, true},
		{"A", 0, true},
		{"b", 0, false},
		{"b c please", 1, true},
		{"abc", 0, false},
		{"he", 0, false},
		{"heal", 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			i, ok := matchOption(options, tt.text)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.index, i)
			}
		})
	}
}

func TestSkipAndMoveOnWords(t *testing.T) {
	assert.True(t, isSkip("Skip!"))
	assert.True(t, isSkip("далее"))
	assert.False(t, isSkip("skip the gym"))

	assert.True(t, isMoveOn("That's all."))
	assert.True(t, isMoveOn("нет"))
	assert.False(t, isMoveOn("no exercise"))
}

func TestAppendUnique(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, appendUnique([]string{"a", "b"}, "b", "c", "c"))
}
