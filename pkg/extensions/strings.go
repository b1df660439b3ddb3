package extensions

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Capitalize upper-cases the first letter of s using language-neutral rules.
func Capitalize(s string) string {
	return CapitalizeCulture(s, language.Und)
}

// CapitalizeCulture upper-cases the first word of s according to the casing
// rules of tag. Only the first word is touched and the remaining letters keep
// their case, so "ijsselmeer" becomes "IJsselmeer" for Dutch.
func CapitalizeCulture(s string, tag language.Tag) string {
	if s == "" {
		return s
	}
	start := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsSpace(r) })
	if start < 0 {
		return s
	}
	end := strings.IndexFunc(s[start:], unicode.IsSpace)
	if end < 0 {
		end = len(s)
	} else {
		end += start
	}
	word := cases.Title(tag, cases.NoLower).String(s[start:end])
	return s[:start] + word + s[end:]
}

// IsBlank reports whether s is empty or consists of white space only.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
