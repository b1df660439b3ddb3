package serialization

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Culture carries the number separators used when formatting and parsing.
type Culture struct {
	Tag     language.Tag
	Decimal string
	Group   string
}

// Invariant is the culture used when none is configured.
var Invariant = Culture{Tag: language.Und, Decimal: ".", Group: ","}

// ParseCulture resolves a BCP 47 name such as "nl-NL". An empty name yields
// Invariant.
func ParseCulture(name string) (Culture, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Invariant, nil
	}
	tag, err := language.Parse(name)
	if err != nil {
		return Culture{}, fmt.Errorf("unknown culture %q: %w", name, err)
	}
	return cultureFor(tag), nil
}

// cultureFor discovers the separators of tag by letting x/text format a known
// number and picking the characters around the digits.
func cultureFor(tag language.Tag) Culture {
	c := Culture{Tag: tag, Decimal: Invariant.Decimal, Group: Invariant.Group}
	s := message.NewPrinter(tag).Sprintf("%.1f", 1234.5)
	one := strings.IndexRune(s, '1')
	two := strings.IndexRune(s, '2')
	four := strings.LastIndex(s, "4")
	five := strings.LastIndex(s, "5")
	if one < 0 || two < 0 || four < 0 || five < 0 {
		return c
	}
	if group := s[one+1 : two]; group != "" && utf8.RuneCountInString(group) == 1 {
		c.Group = group
	} else if group == "" {
		c.Group = ""
	}
	if dec := s[four+1 : five]; dec != "" {
		c.Decimal = dec
	}
	if c.Group == c.Decimal {
		c.Group = ""
	}
	return c
}

// String returns the BCP 47 name of the culture.
func (c Culture) String() string {
	if c.Tag == language.Und {
		return "invariant"
	}
	return c.Tag.String()
}
