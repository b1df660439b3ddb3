package validation

import (
	"regexp"
	"strings"
)

const phoneValidator = "dutch phone number"

// PhoneKind classifies Dutch phone numbers. Kinds combine as bit flags.
type PhoneKind uint8

const (
	Landline PhoneKind = 1 << iota
	Mobile
	ServiceNumber
	Emergency

	// DefaultPhoneKinds is used when a validator does not name any kinds.
	DefaultPhoneKinds = Landline | Mobile
	AllPhoneKinds     = Landline | Mobile | ServiceNumber | Emergency
)

func (k PhoneKind) String() string {
	names := []string{}
	for _, kn := range []struct {
		kind PhoneKind
		name string
	}{{Landline, "landline"}, {Mobile, "mobile"}, {ServiceNumber, "service"}, {Emergency, "emergency"}} {
		if k&kn.kind != 0 {
			names = append(names, kn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// ParsePhoneKinds reads kind names separated by spaces, commas or pipes.
func ParsePhoneKinds(s string) (PhoneKind, bool) {
	var kinds PhoneKind
	for _, name := range strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' || r == '|' }) {
		switch strings.ToLower(name) {
		case "landline":
			kinds |= Landline
		case "mobile":
			kinds |= Mobile
		case "service":
			kinds |= ServiceNumber
		case "emergency":
			kinds |= Emergency
		case "all":
			kinds |= AllPhoneKinds
		default:
			return 0, false
		}
	}
	return kinds, true
}

var (
	mobilePattern    = regexp.MustCompile(`^06[1-9]\d{7}$`)
	servicePattern   = regexp.MustCompile(`^0(800|900|906|909)(\d{4}|\d{7})$`)
	landlinePattern  = regexp.MustCompile(`^0[1-57-9]\d{8}$`)
	carrierPattern   = regexp.MustCompile(`^16\d{2}`)
	phoneSeparators  = strings.NewReplacer(" ", "", "-", "", ".", "", "\t", "")
	emergencyNumbers = map[string]bool{"112": true}
)

// PhoneNumber is a parsed Dutch phone number.
type PhoneNumber struct {
	Kind PhoneKind
	// National is the number in national notation, e.g. 0201234567.
	National string
	// International is set when the input carried +31 or 0031.
	International bool
	// Carrier holds the 16xx carrier preselect code, if any.
	Carrier string
}

// E164 returns the number as +31..., or the national form for emergency
// numbers.
func (n PhoneNumber) E164() string {
	if n.Kind == Emergency {
		return n.National
	}
	return "+31" + strings.TrimPrefix(n.National, "0")
}

// ParseDutchPhoneNumber parses value. Spaces, dashes, dots and parentheses
// are ignored; +31 and 0031 may be followed by (0).
func ParseDutchPhoneNumber(value string) (PhoneNumber, error) {
	compact := phoneSeparators.Replace(strings.TrimSpace(value))
	if compact == "" {
		return PhoneNumber{}, invalid(phoneValidator, value, CodeEmpty, "no number given")
	}
	var n PhoneNumber
	rest := compact
	switch {
	case strings.HasPrefix(rest, "+31"):
		n.International, rest = true, rest[3:]
	case strings.HasPrefix(rest, "0031"):
		n.International, rest = true, rest[4:]
	case strings.HasPrefix(rest, "+"), strings.HasPrefix(rest, "00"):
		return PhoneNumber{}, invalid(phoneValidator, value, CodeFormat, "not a Dutch number")
	}
	if n.International {
		rest = strings.TrimPrefix(rest, "(0)")
		if strings.HasPrefix(rest, "0") {
			return PhoneNumber{}, invalid(phoneValidator, value, CodeFormat, "trunk prefix after country code")
		}
		rest = "0" + rest
	} else if carrierPattern.MatchString(rest) && len(rest) > 4 && (rest[4] == '0' || rest[4] == '(') {
		n.Carrier, rest = rest[:4], rest[4:]
	}
	national, ok := stripParentheses(rest)
	if !ok {
		return PhoneNumber{}, invalid(phoneValidator, value, CodeFormat, "unexpected characters")
	}
	n.National = national
	switch {
	case emergencyNumbers[national]:
		if n.International || n.Carrier != "" {
			return PhoneNumber{}, invalid(phoneValidator, value, CodeFormat, "emergency numbers take no prefix")
		}
		n.Kind = Emergency
	case mobilePattern.MatchString(national):
		n.Kind = Mobile
	case servicePattern.MatchString(national):
		n.Kind = ServiceNumber
	case landlinePattern.MatchString(national) && !strings.HasPrefix(national, "0800") && !strings.HasPrefix(national, "090"):
		n.Kind = Landline
	default:
		return PhoneNumber{}, invalid(phoneValidator, value, CodeFormat, "not a valid Dutch number")
	}
	return n, nil
}

// stripParentheses removes one balanced pair of parentheses around digits
// and reports whether only digits remain.
func stripParentheses(s string) (string, bool) {
	if open := strings.IndexByte(s, '('); open >= 0 {
		closing := strings.IndexByte(s, ')')
		if closing < open {
			return "", false
		}
		s = s[:open] + s[open+1:closing] + s[closing+1:]
	}
	if s == "" {
		return "", false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return s, true
}

// DutchPhoneNumberValidator accepts Dutch phone numbers of the configured
// kinds.
type DutchPhoneNumberValidator struct {
	// Kinds lists the accepted kinds. Zero means DefaultPhoneKinds.
	Kinds PhoneKind
	// AllowCountryCode accepts numbers written with +31 or 0031.
	AllowCountryCode bool
	// AllowCarrierPreselect accepts a leading 16xx carrier code.
	AllowCarrierPreselect bool
}

// Validate implements Validator.
func (v DutchPhoneNumberValidator) Validate(value string) error {
	n, err := ParseDutchPhoneNumber(value)
	if err != nil {
		return err
	}
	if n.International && !v.AllowCountryCode {
		return invalid(phoneValidator, value, CodeCountryCode, "country code not allowed")
	}
	if n.Carrier != "" && !v.AllowCarrierPreselect {
		return invalid(phoneValidator, value, CodeCarrierPreselect, "carrier preselect not allowed")
	}
	kinds := v.Kinds
	if kinds == 0 {
		kinds = DefaultPhoneKinds
	}
	if kinds&n.Kind == 0 {
		return invalid(phoneValidator, value, CodeKindNotAllowed, "%s numbers are not allowed", n.Kind)
	}
	return nil
}

// IsValid implements Validator.
func (v DutchPhoneNumberValidator) IsValid(value string) bool {
	return v.Validate(value) == nil
}
