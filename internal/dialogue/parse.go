package dialogue

import (
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SplitItems splits free text on commas, semicolons and newlines, trims each
// entry and drops empty ones. Original separators are not preserved.
func SplitItems(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '\r'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

var skipWords = wordSet("skip", "next", "пропустить", "пропуск", "далее")

var moveOnWords = wordSet(
	"next", "move on", "done", "no", "nope", "that's all", "that is all",
	"nothing else", "no more", "далее", "дальше", "нет", "всё", "все", "хватит",
)

func wordSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// normalize lowercases text and strips surrounding punctuation and spaces.
func normalize(text string) string {
	return strings.Trim(strings.ToLower(strings.TrimSpace(text)), " .!?,;:")
}

func isSkip(text string) bool {
	return skipWords[normalize(text)]
}

func isMoveOn(text string) bool {
	return moveOnWords[normalize(text)]
}

// matchOption resolves text to an option by 1-based index, by exact
// case-insensitive match, or by containment. An answer may mention an
// option as whole words; a fragment of at least minFragment runes may be
// part of an option.
func matchOption(options []string, text string) (int, bool) {
	text = strings.TrimSpace(text)
	if n, err := strconv.Atoi(strings.TrimRight(text, ".)")); err == nil {
		if n >= 1 && n <= len(options) {
			return n - 1, true
		}
		return 0, false
	}

	needle := normalize(text)
	if needle == "" {
		return 0, false
	}
	for i, o := range options {
		if strings.EqualFold(strings.TrimSpace(o), needle) {
			return i, true
		}
	}
	words := strings.FieldsFunc(needle, notWordRune)
	for i, o := range options {
		hay := strings.ToLower(strings.TrimSpace(o))
		if hay == "" {
			continue
		}
		if utf8.RuneCountInString(needle) >= minFragment && strings.Contains(hay, needle) {
			return i, true
		}
		if containsWords(words, strings.FieldsFunc(hay, notWordRune)) {
			return i, true
		}
	}
	return 0, false
}

const minFragment = 3

func notWordRune(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
}

// containsWords reports whether sub occurs as a contiguous run in words.
func containsWords(words, sub []string) bool {
	if len(sub) == 0 || len(sub) > len(words) {
		return false
	}
	for i := 0; i+len(sub) <= len(words); i++ {
		if slices.Equal(words[i:i+len(sub)], sub) {
			return true
		}
	}
	return false
}

// appendUnique appends items that are not already present.
func appendUnique(list []string, items ...string) []string {
	seen := make(map[string]bool, len(list))
	for _, l := range list {
		seen[l] = true
	}
	for _, it := range items {
		if !seen[it] {
			seen[it] = true
			list = append(list, it)
		}
	}
	return list
}
