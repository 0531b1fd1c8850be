package contact

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

var (
	urlRe           = regexp.MustCompile(`(?i)https?://`)
	embeddedEmailRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phoneRe         = regexp.MustCompile(`\+\d{10,}`)
)

const repeatedRunLength = 11

// SpamScore adds one point per heuristic the message trips. Links and
// embedded addresses score again when they repeat, and every phone-like
// number counts on its own.
func (v *Validator) SpamScore(message string) int {
	score := 0
	length := utf8.RuneCountInString(message)

	switch urls := len(urlRe.FindAllStringIndex(message, -1)); {
	case urls > 2:
		score += 3
	case urls > 0:
		score++
	}

	switch emails := len(embeddedEmailRe.FindAllStringIndex(message, -1)); {
	case emails > 1:
		score += 2
	case emails == 1:
		score++
	}

	if length > 20 && shouting(message) {
		score++
	}

	if v.rules.keywords != nil && v.rules.keywords.MatchString(message) {
		score++
	}

	if hasRun(message, repeatedRunLength) {
		score++
	}

	score += len(phoneRe.FindAllStringIndex(message, -1))

	if length > 50 && upperRatio(message, length) > 0.7 {
		score++
	}

	return score
}

// shouting reports whether s holds nothing but capitals, whitespace and
// punctuation.
func shouting(s string) bool {
	for _, r := range s {
		if !unicode.IsUpper(r) && !unicode.IsSpace(r) && !unicode.IsPunct(r) {
			return false
		}
	}
	return true
}

// hasRun reports whether s repeats one character n or more times in a row.
func hasRun(s string, n int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if run > 0 && r == prev {
			run++
		} else {
			prev, run = r, 1
		}
		if run >= n {
			return true
		}
	}
	return false
}

func upperRatio(s string, length int) float64 {
	if length == 0 {
		return 0
	}
	upper := 0
	for _, r := range s {
		if unicode.IsUpper(r) {
			upper++
		}
	}
	return float64(upper) / float64(length)
}
