package dialogue

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	latinName    = `(\p{Lu}\p{Ll}+(?:\s+\p{Lu}\p{Ll}+)?)`
	cyrillicName = `([А-ЯЁ][а-яё]+(?:\s+[А-ЯЁ][а-яё]+)?)`
)

// FounderRule is one independent founder-attribution pattern.
// The first capture group of Pattern is the candidate name.
type FounderRule struct {
	Name    string
	Pattern *regexp.Regexp
}

// Extract returns the first usable name matched by the rule.
// A capitalised word opening a sentence only counts as a name when a
// linking word or separator follows it.
func (r FounderRule) Extract(text string) (string, bool) {
	for offset := 0; offset < len(text); {
		m := r.Pattern.FindStringSubmatchIndex(text[offset:])
		if len(m) < 4 || m[2] < 0 {
			return "", false
		}
		start, end := offset+m[2], offset+m[3]
		offset = end
		if sentenceInitial(text, start) && !linkAfterName.MatchString(text[end:]) {
			continue
		}
		if name := cleanName(text[start:end]); name != "" {
			return name, true
		}
	}
	return "", false
}

var linkAfterName = regexp.MustCompile(`^\s*(?:[,:\-–—]|(?i:is|was|as|это|был|была|как)(?:\s|$)|(?i:founder|основател))`)

func sentenceInitial(text string, at int) bool {
	before := strings.TrimRightFunc(text[:at], unicode.IsSpace)
	if before == "" {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(before)
	return strings.ContainsRune(".!?…", r)
}

func rule(name, pattern string) FounderRule {
	return FounderRule{Name: name, Pattern: regexp.MustCompile(pattern)}
}

// DefaultFounderRules is evaluated in order; the first match wins.
var DefaultFounderRules = []FounderRule{
	rule("not-me-but-name-founder", `(?i:not\s+me)\b.*?\b(?i:but|rather)\s+`+latinName+`.*?(?i:founder)`),
	rule("founder-name", `(?i:founder)(?:\s+(?i:is|was))?[:\s]+`+latinName),
	rule("name-as-founder", latinName+`,?\s+(?i:as\s+(?:the\s+|a\s+|my\s+)?founder)`),
	rule("founder-later-is-name", `(?i:founder)\b.*?\b(?i:is|was)\s+`+latinName),
	rule("name-is-founder", latinName+`(?:\s*[,\-–—]\s*(?:(?i:is|was)\s+)?|\s+(?i:is|was)\s+)(?:(?i:the|my|a)\s+)?(?i:founder)`),

	rule("ru-eto-ne-ya", `(?i:это\s+не\s+я).*?(?i:а)\s+`+cyrillicName+`.*?(?i:основател)`),
	rule("ru-ne-ya-hotel", `(?i:не\s+я\s+хотел).*?(?i:а)\s+`+cyrillicName+`.*?(?i:основател)`),
	rule("ru-osnovatel-name", `(?i:основател[ьи])\s+`+cyrillicName),
	rule("ru-name-kak-osnovatel", cyrillicName+`.*?(?i:как\s+основател)`),
	rule("ru-osnovatel-eto-name", `(?i:основател[ьи]).*?(?i:это)\s+`+cyrillicName),
	rule("ru-osnovatel-colon-name", `(?i:основател[ьи])[:\s]+`+cyrillicName),
	rule("ru-name-near-osnovatel", cyrillicName+`.*?(?i:основател)`),
}

// nonNames are capitalised words that open sentences but never name a founder.
var nonNames = map[string]bool{
	"i": true, "it": true, "its": true, "this": true, "that": true, "the": true,
	"my": true, "your": true, "his": true, "her": true, "our": true, "their": true,
	"he": true, "she": true, "we": true, "they": true, "who": true, "what": true,
	"not": true, "but": true, "and": true, "actually": true, "founder": true,
	"yes": true, "no": true, "maybe": true, "well": true, "so": true, "also": true,
	"then": true, "there": true, "rather": true, "probably": true,
	"to": true, "for": true, "because": true, "when": true, "if": true, "as": true,
	"это": true, "не": true, "но": true, "а": true, "я": true, "он": true,
	"она": true, "мой": true, "моя": true, "основатель": true, "да": true,
	"нет": true, "так": true, "кто": true, "наверное": true, "мне": true,
	"мы": true, "меня": true, "они": true, "что": true, "как": true, "думаю": true,
	"become": true, "being": true, "be": true, "want": true, "need": true,
	"make": true, "start": true, "build": true, "stay": true, "remain": true,
	"хочу": true, "хотел": true, "хотела": true, "стать": true, "быть": true,
	"стал": true, "стала": true, "буду": true, "мечтаю": true, "нужно": true,
}

var trailingFiller = regexp.MustCompile(`(?i)\s+(as|is|was|the|как|это|бы|был|была)\s*$`)

func cleanName(raw string) string {
	name := trailingFiller.ReplaceAllString(strings.TrimSpace(raw), "")
	tokens := strings.Fields(name)
	for len(tokens) > 0 && nonNames[strings.ToLower(tokens[0])] {
		tokens = tokens[1:]
	}
	for len(tokens) > 0 && nonNames[strings.ToLower(tokens[len(tokens)-1])] {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

// DetectFounder runs the rules in order and returns the first name found.
func DetectFounder(rules []FounderRule, text string) (name, ruleName string, ok bool) {
	for _, r := range rules {
		if n, found := r.Extract(text); found {
			return n, r.Name, true
		}
	}
	return "", "", false
}

var correctionPhrases = []string{
	"actually", "that's wrong", "that is wrong", "not right", "correction",
	"i meant", "in fact", "to be precise",
	"не так", "исправь", "неправильно", "на самом деле", "правильнее",
}

// isCorrection reports whether text contains a correction phrase.
func isCorrection(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range correctionPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

var attributionSuffix = regexp.MustCompile(`\s*\((?:goals of founder|цели основателя) [^)]*\)\s*$`)

// AttributeGoal tags a goal with its founder. Any previous tag is replaced,
// so applying the same founder twice yields the same string.
func AttributeGoal(goal, founder string) string {
	base := strings.TrimSpace(attributionSuffix.ReplaceAllString(goal, ""))
	if founder == "" {
		return base
	}
	if base == "" {
		return fmt.Sprintf("(goals of founder %s)", founder)
	}
	return fmt.Sprintf("%s (goals of founder %s)", base, founder)
}
