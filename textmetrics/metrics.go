// Package textmetrics provides pure text checks used by the draft pipeline:
// normalization, n-gram similarity, forbidden-word and length validation.
package textmetrics

import (
	"regexp"
	"strings"
)

// trigram size for similarity comparison.
const ngramSize = 3

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	punctuationRe = regexp.MustCompile(`[。、，．・!！?？「」『』（）()\[\]【】]`)
)

// Normalize collapses whitespace runs, strips punctuation and brackets, and
// lowercases. The result is only ever used for comparison, never displayed.
func Normalize(text string) string {
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = punctuationRe.ReplaceAllString(text, "")
	return strings.ToLower(strings.TrimSpace(text))
}

func ngrams(s string) map[string]struct{} {
	runes := []rune(Normalize(s))
	set := make(map[string]struct{})
	for i := 0; i+ngramSize <= len(runes); i++ {
		set[string(runes[i:i+ngramSize])] = struct{}{}
	}
	return set
}

// Similarity returns the Jaccard index of the character trigram sets of a and
// b after normalization. Texts shorter than a trigram yield 0.
func Similarity(a, b string) float64 {
	setA := ngrams(a)
	setB := ngrams(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	inter := 0
	for g := range setA {
		if _, ok := setB[g]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

// IsTooSimilar reports whether candidate scores at or above threshold against
// any of the lookback most recent entries of history. history is expected
// newest-first; a bounded lookback keeps the retry loop cheap and lets topics
// drift back in over long runs.
func IsTooSimilar(candidate string, history []string, threshold float64, lookback int) bool {
	if lookback > 0 && len(history) > lookback {
		history = history[:lookback]
	}
	for _, past := range history {
		if Similarity(candidate, past) >= threshold {
			return true
		}
	}
	return false
}

// ContainsForbidden reports whether text contains any of the denylisted
// substrings verbatim.
func ContainsForbidden(text string, forbidden []string) bool {
	for _, w := range forbidden {
		if w != "" && strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// LengthWithin checks the rune count of text against [min, max]. The minimum
// is checked against the count excluding newlines so that airy, line-broken
// posts are not rejected as too short. min or max of 0 disables that bound.
func LengthWithin(text string, min, max int) bool {
	total := len([]rune(text))
	if max > 0 && total > max {
		return false
	}
	if min > 0 {
		nonNewline := 0
		for _, r := range text {
			if r != '\n' && r != '\r' {
				nonNewline++
			}
		}
		if nonNewline < min {
			return false
		}
	}
	return true
}

// RuneLen is the character count used for all budgets in this module.
func RuneLen(text string) int {
	return len([]rune(text))
}

// TruncateRunes cuts text to at most max runes and trims trailing whitespace.
func TruncateRunes(text string, max int) string {
	runes := []rune(text)
	if max <= 0 || len(runes) <= max {
		return text
	}
	return strings.TrimRight(string(runes[:max]), " \t\n")
}
