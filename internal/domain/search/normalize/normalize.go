// Package normalize canonicalizes text for locale-robust comparison of Arabic and Latin values.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// letterFolds maps Arabic letter variants and digit forms to their canonical rune.
var letterFolds = map[rune]rune{
	'آ': 'ا', // alef with madda
	'أ': 'ا', // alef with hamza above
	'إ': 'ا', // alef with hamza below
	'ٱ': 'ا', // alef wasla
	'ى': 'ي', // alef maksura
	'ة': 'ه', // ta marbuta
	'‐': '-',
	'‑': '-',
	'–': '-',
	'—': '-',
}

func init() {
	// Arabic-Indic and extended (Persian) digits.
	for i := rune(0); i < 10; i++ {
		letterFolds['٠'+i] = '0' + i
		letterFolds['۰'+i] = '0' + i
	}
}

// isArabicMark reports tashkil and Quranic annotation marks.
func isArabicMark(r rune) bool {
	return (r >= 0x064B && r <= 0x065F) || (r >= 0x0610 && r <= 0x061A) || r == 0x0670
}

// Normalize folds s to lowercase, strips diacritics, folds Arabic letter variants
// and collapses whitespace. It is total and idempotent.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	// NFD splits precomposed letters (including آ/أ/إ) into base + combining mark,
	// so fold the Arabic variants before decomposing.
	var folded strings.Builder
	folded.Grow(len(s))
	for _, r := range s {
		if f, ok := letterFolds[r]; ok {
			r = f
		}
		folded.WriteRune(r)
	}

	decomposed := norm.NFD.String(strings.ToLower(folded.String()))

	var b strings.Builder
	b.Grow(len(decomposed))
	space := false
	for _, r := range decomposed {
		switch {
		case isArabicMark(r), unicode.Is(unicode.Mn, r):
			continue
		case unicode.IsSpace(r):
			space = true
			continue
		}
		if f, ok := letterFolds[r]; ok {
			r = f
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return norm.NFC.String(b.String())
}

// TitleCase upper-cases the first letter of every word, lower-cases the rest
// and collapses whitespace. Used for display labels and categorical equality.
func TitleCase(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	return cases.Title(language.Und).String(s)
}

// IsNullLike reports values the upstream spreadsheets use for "no value".
func IsNullLike(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "none", "null", "nat":
		return true
	}
	return false
}
