package validation

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

const ibanValidator = "IBAN"

// ibanLengths holds the IBAN length per country from the SWIFT IBAN registry.
var ibanLengths = map[string]int{
	"AD": 24, "AE": 23, "AL": 28, "AT": 20, "AZ": 28, "BA": 20, "BE": 16, "BG": 22,
	"BH": 22, "BR": 29, "BY": 28, "CH": 21, "CR": 22, "CY": 28, "CZ": 24, "DE": 22,
	"DK": 18, "DO": 28, "EE": 20, "EG": 29, "ES": 24, "FI": 18, "FO": 18, "FR": 27,
	"GB": 22, "GE": 22, "GI": 23, "GL": 18, "GR": 27, "GT": 28, "HR": 21, "HU": 28,
	"IE": 22, "IL": 23, "IQ": 23, "IS": 26, "IT": 27, "JO": 30, "KW": 30, "KZ": 20,
	"LB": 28, "LC": 32, "LI": 21, "LT": 20, "LU": 20, "LV": 21, "MC": 27, "MD": 24,
	"ME": 22, "MK": 19, "MR": 27, "MT": 31, "MU": 30, "NL": 18, "NO": 15, "PK": 24,
	"PL": 28, "PS": 29, "PT": 25, "QA": 29, "RO": 24, "RS": 22, "SA": 24, "SC": 31,
	"SE": 24, "SI": 19, "SK": 24, "SM": 27, "ST": 25, "SV": 28, "TL": 23, "TN": 24,
	"TR": 26, "UA": 29, "VA": 22, "VG": 24, "XK": 20,
}

// bbanStructures holds the BBAN layout in registry notation for countries
// whose layout is checked beyond the alphanumeric default.
var bbanStructures = map[string]*regexp.Regexp{
	"AT": bbanPattern("5!n11!n"),
	"BE": bbanPattern("3!n7!n2!n"),
	"CH": bbanPattern("5!n12!c"),
	"DE": bbanPattern("8!n10!n"),
	"DK": bbanPattern("4!n9!n1!n"),
	"ES": bbanPattern("4!n4!n1!n1!n10!n"),
	"FI": bbanPattern("3!n11!n"),
	"FR": bbanPattern("5!n5!n11!c2!n"),
	"GB": bbanPattern("4!a6!n8!n"),
	"IE": bbanPattern("4!a6!n8!n"),
	"IT": bbanPattern("1!a5!n5!n12!c"),
	"LU": bbanPattern("3!n13!c"),
	"NL": bbanPattern("4!a10!n"),
	"NO": bbanPattern("4!n6!n1!n"),
	"PL": bbanPattern("8!n16!n"),
	"PT": bbanPattern("4!n4!n11!n2!n"),
	"SE": bbanPattern("3!n16!n1!n"),
}

var (
	structureToken = regexp.MustCompile(`(\d+)!([nac])`)
	alnumPattern   = regexp.MustCompile(`^[A-Z0-9]+$`)
	ibanPrefix     = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}`)
)

// bbanPattern compiles registry notation such as "4!a10!n": n is a digit, a
// an upper case letter and c any letter or digit.
func bbanPattern(structure string) *regexp.Regexp {
	classes := map[string]string{"n": "[0-9]", "a": "[A-Z]", "c": "[A-Z0-9]"}
	expr := structureToken.ReplaceAllStringFunc(structure, func(tok string) string {
		m := structureToken.FindStringSubmatch(tok)
		return fmt.Sprintf("%s{%s}", classes[m[2]], m[1])
	})
	return regexp.MustCompile("^" + expr + "$")
}

// IBANValidator accepts International Bank Account Numbers.
type IBANValidator struct {
	// AllowSpaces accepts IBANs written in groups, e.g. NL91 ABNA 0417 1643 00.
	AllowSpaces bool
	// Countries, when not empty, lists the accepted country codes.
	Countries []string
}

// Validate implements Validator.
func (v IBANValidator) Validate(value string) error {
	iban := strings.TrimSpace(value)
	if iban == "" {
		return invalid(ibanValidator, value, CodeEmpty, "no IBAN given")
	}
	if strings.ContainsAny(iban, " \t") {
		if !v.AllowSpaces {
			return invalid(ibanValidator, value, CodeFormat, "spaces are not allowed")
		}
		iban = strings.Join(strings.Fields(iban), "")
	}
	iban = strings.ToUpper(iban)
	if !alnumPattern.MatchString(iban) || !ibanPrefix.MatchString(iban) {
		return invalid(ibanValidator, value, CodeFormat, "expected a country code, check digits and letters or digits")
	}
	country := iban[:2]
	if len(v.Countries) > 0 && !slices.ContainsFunc(v.Countries, func(c string) bool { return strings.EqualFold(c, country) }) {
		return invalid(ibanValidator, value, CodeCountry, "country %s is not allowed", country)
	}
	length, known := ibanLengths[country]
	if !known {
		return invalid(ibanValidator, value, CodeCountry, "unknown country %s", country)
	}
	if len(iban) != length {
		return invalid(ibanValidator, value, CodeLength, "%s IBANs have %d characters, got %d", country, length, len(iban))
	}
	if pattern, ok := bbanStructures[country]; ok && !pattern.MatchString(iban[4:]) {
		return invalid(ibanValidator, value, CodeFormat, "account number does not match the %s layout", country)
	}
	if mod97(iban[4:]+iban[:4]) != 1 {
		return invalid(ibanValidator, value, CodeChecksum, "check digits do not match")
	}
	return nil
}

// IsValid implements Validator.
func (v IBANValidator) IsValid(value string) bool {
	return v.Validate(value) == nil
}

// mod97 computes the ISO 7064 MOD 97-10 remainder of s, reading letters as
// 10 to 35.
func mod97(s string) int {
	r := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			n := int(c-'A') + 10
			r = (r*100 + n) % 97
			continue
		}
		r = (r*10 + int(c-'0')) % 97
	}
	return r
}

// FormatIBAN prints iban in upper case groups of four characters.
func FormatIBAN(iban string) string {
	compact := CompactIBAN(iban)
	var b strings.Builder
	for i := 0; i < len(compact); i += 4 {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(compact[i:min(i+4, len(compact))])
	}
	return b.String()
}

// CompactIBAN removes spaces and upper cases iban.
func CompactIBAN(iban string) string {
	return strings.ToUpper(strings.Join(strings.Fields(iban), ""))
}
