package dialogue

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultCrisisPhrases are matched as case-insensitive substrings.
var defaultCrisisPhrases = []string{
	// English
	"kill myself",
	"killing myself",
	"want to die",
	"wanna die",
	"end my life",
	"take my own life",
	"suicide",
	"suicidal",
	"don't want to live",
	"do not want to live",
	"no reason to live",
	"better off dead",
	"hurt myself",
	"self-harm",
	"cut myself",
	// Russian
	"я хочу умереть",
	"мне хочется умереть",
	"хочу умереть",
	"хочется умереть",
	"хочу покончить",
	"покончить с собой",
	"покончить жизнь",
	"свести счеты с жизнью",
	"покончить самоубийством",
	"совершить самоубийство",
	"суицид",
	"не хочу жить",
	"не хочется жить",
	"лучше умереть",
	"лучше бы умереть",
	"уйти из жизни",
	"свести счеты",
	"не вижу смысла жить",
	"не хочу больше жить",
	"хочу навсегда уснуть",
	"лучше не жить",
	"не стоит жить",
	"смерть лучше",
	"хочу смерти",
	"хочу чтобы все закончилось",
	"хочу чтобы это закончилось",
}

// SafetyMessage is returned verbatim whenever a crisis phrase is detected.
const SafetyMessage = `This is a very serious situation, and we cannot continue this self-analysis right now.

Thoughts of ending your life mean your body is already in a critical state. **Please contact a psychiatrist urgently** so they can help stabilise your condition. Once you feel stable, you can come back and work through the ideas that led here.

If you need help right now:
- Russia crisis line: 8-800-2000-122 (24/7, free)
- Emergency services: 112
- Or go to the nearest psychiatric clinic.

Your life matters. Please reach out for professional help.`

// Lexicon holds the crisis phrases.
type Lexicon struct {
	phrases []string
}

// NewLexicon builds a lexicon from phrases, lowercased and deduplicated.
func NewLexicon(phrases ...string) *Lexicon {
	l := &Lexicon{}
	return l.Extend(phrases...)
}

// DefaultLexicon returns the built-in bilingual lexicon.
func DefaultLexicon() *Lexicon {
	return NewLexicon(defaultCrisisPhrases...)
}

// Extend returns a new lexicon with extra phrases appended.
func (l *Lexicon) Extend(phrases ...string) *Lexicon {
	seen := make(map[string]bool, len(l.phrases)+len(phrases))
	out := &Lexicon{phrases: make([]string, 0, len(l.phrases)+len(phrases))}
	for _, p := range append(append([]string(nil), l.phrases...), phrases...) {
		p = normalizePhrase(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out.phrases = append(out.phrases, p)
	}
	return out
}

// Match returns the first phrase contained in text.
func (l *Lexicon) Match(text string) (string, bool) {
	lower := normalizePhrase(text)
	for _, p := range l.phrases {
		if strings.Contains(lower, p) {
			return p, true
		}
	}
	return "", false
}

var phraseFolds = strings.NewReplacer(
	"\u2019", "'", "\u2018", "'", "\u02bc", "'", "`", "'",
	"ё", "е",
)

// normalizePhrase lowercases text, folds typographic apostrophes and ё,
// and collapses runs of whitespace.
func normalizePhrase(text string) string {
	return strings.Join(strings.Fields(phraseFolds.Replace(strings.ToLower(text))), " ")
}

// Len returns the number of phrases.
func (l *Lexicon) Len() int {
	return len(l.phrases)
}

type lexiconFile struct {
	// Replace discards the built-in phrases instead of extending them.
	Replace bool     `yaml:"replace"`
	Phrases []string `yaml:"phrases"`
}

// LoadLexicon reads a YAML lexicon file. By default its phrases extend the
// built-in list.
func LoadLexicon(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon file: %w", err)
	}

	var f lexiconFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon file: %w", err)
	}
	if f.Replace {
		return NewLexicon(f.Phrases...), nil
	}
	return DefaultLexicon().Extend(f.Phrases...), nil
}
