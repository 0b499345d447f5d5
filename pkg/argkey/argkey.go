// SPDX-License-Identifier: MPL-2.0

package argkey

import (
	"strings"
	"unicode"

	"golang.org/x/exp/slices"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type (
	// Styles selects the case-variant spellings of an id that are also valid lookup keys.
	Styles struct {
		// Kebab adds the kebab-case form (foo-bar). Enabled by DefaultStyles.
		Kebab bool
		// Camel adds the camelCase form (fooBar).
		Camel bool
		// Snake adds the snake_case form (foo_bar).
		Snake bool
	}
)

// DefaultStyles returns the implicit styles: kebab-case only.
func DefaultStyles() Styles {
	return Styles{Kebab: true}
}

// Derive returns the ordered, de-duplicated lookup keys for an argument:
// the id, the alias (if any), then each enabled case variant of the id.
// The result always contains at least the id, even when it is empty.
func Derive(id, alias string, styles Styles) []string {
	keys := []string{id}
	add := func(k string) {
		if k == "" || slices.Contains(keys, k) {
			return
		}
		keys = append(keys, k)
	}

	add(alias)
	if styles.Kebab {
		add(Kebab(id))
	}
	if styles.Camel {
		add(Camel(id))
	}
	if styles.Snake {
		add(Snake(id))
	}
	return keys
}

// Kebab converts s to kebab-case.
func Kebab(s string) string {
	return joinLower(Words(s), "-")
}

// Snake converts s to snake_case.
func Snake(s string) string {
	return joinLower(Words(s), "_")
}

// Camel converts s to camelCase.
func Camel(s string) string {
	words := Words(s)
	lower, title := cases.Lower(language.Und), cases.Title(language.Und)
	var b strings.Builder
	for i, w := range words {
		if i == 0 {
			b.WriteString(lower.String(w))
			continue
		}
		b.WriteString(title.String(w))
	}
	return b.String()
}

// joinLower builds a fresh Caser per call; a cases.Caser must not be shared between goroutines.
func joinLower(words []string, sep string) string {
	lower := cases.Lower(language.Und)
	for i, w := range words {
		words[i] = lower.String(w)
	}
	return strings.Join(words, sep)
}

// Words splits s into words. Any rune that is not a letter or digit separates
// words; inside a run, a word also ends at a lower-to-upper transition, before
// the last capital of an acronym followed by lowercase (HTTPServer: HTTP, Server),
// and at letter/digit boundaries.
func Words(s string) []string {
	var (
		words []string
		cur   []rune
	)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if len(cur) > 0 && isBoundary(cur[len(cur)-1], r, next(runes, i)) {
			flush()
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

func next(runes []rune, i int) rune {
	if i+1 < len(runes) {
		return runes[i+1]
	}
	return 0
}

func isBoundary(prev, r, after rune) bool {
	switch {
	case unicode.IsDigit(prev) != unicode.IsDigit(r):
		return true
	case unicode.IsLower(prev) && unicode.IsUpper(r):
		return true
	case unicode.IsUpper(prev) && unicode.IsUpper(r) && unicode.IsLower(after):
		return true
	default:
		return false
	}
}
