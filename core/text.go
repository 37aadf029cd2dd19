package core

import (
	"strings"
	"unicode"
)

// NormalizeText lowercases s and collapses runs of whitespace to a single space.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Tokens splits normalized text into words, trimming surrounding punctuation.
func Tokens(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// BuildSearchText joins the normalized forms of parts with single spaces,
// dropping words already present. Empty parts are ignored.
func BuildSearchText(parts ...string) string {
	seen := make(map[string]bool)
	words := make([]string, 0, 8)
	for _, part := range parts {
		for _, w := range strings.Fields(NormalizeText(part)) {
			if seen[w] {
				continue
			}
			seen[w] = true
			words = append(words, w)
		}
	}
	return strings.Join(words, " ")
}

// NormalizeSlug produces a lowercase, hyphen-separated slug from s.
func NormalizeSlug(s string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
