package dialogue_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/seee/internal/dialogue"
)

func TestLexicon_Match(t *testing.T) {
	l := dialogue.DefaultLexicon()

	phrase, ok := l.Match("Я ХОЧУ УМЕРЕТЬ")
	assert.True(t, ok)
	assert.Equal(t, "я хочу умереть", phrase)

	_, ok = l.Match("I want to lose weight")
	assert.False(t, ok)
}

func TestLexicon_MatchNormalizesInput(t *testing.T) {
	l := dialogue.DefaultLexicon()

	for _, text := range []string{
		"I don\u2019t want to live anymore",
		"I don`t   want to\nlive",
		"DON'T WANT TO LIVE",
	} {
		phrase, ok := l.Match(text)
		assert.True(t, ok, text)
		assert.Equal(t, "don't want to live", phrase, text)
	}

	_, ok := dialogue.NewLexicon("всё кончено").Match("Все кончено")
	assert.True(t, ok)
}

func TestLexicon_ExtendDeduplicates(t *testing.T) {
	base := dialogue.NewLexicon("one", "two")
	ext := base.Extend("TWO", " three ", "")
	assert.Equal(t, 2, base.Len())
	assert.Equal(t, 3, ext.Len())

	_, ok := ext.Match("number Three")
	assert.True(t, ok)
}

func TestLoadLexicon(t *testing.T) {
	dir := t.TempDir()

	extend := filepath.Join(dir, "extend.yaml")
	require.NoError(t, os.WriteFile(extend, []byte("phrases:\n  - no way out\n"), 0o644))
	l, err := dialogue.LoadLexicon(extend)
	require.NoError(t, err)
	assert.Equal(t, dialogue.DefaultLexicon().Len()+1, l.Len())
	_, ok := l.Match("there is no way out")
	assert.True(t, ok)

	replace := filepath.Join(dir, "replace.yaml")
	require.NoError(t, os.WriteFile(replace, []byte("replace: true\nphrases: [alpha]\n"), 0o644))
	l, err = dialogue.LoadLexicon(replace)
	require.NoError(t, err)
	assert.Equal(t, 1, l.Len())

	_, err = dialogue.LoadLexicon(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestEngine_CustomLexicon(t *testing.T) {
	e := newEngine(dialogue.WithLexicon(dialogue.NewLexicon("red flag")))
	s, _ := drive(t, e, say("idea"))

	_, msg := e.Advance(t.Context(), s, "this is a Red Flag")
	assert.Equal(t, dialogue.SafetyMessage, msg.Text)
}
