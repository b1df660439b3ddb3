package validation

import (
	"net/netip"
	"regexp"
	"strings"
)

const emailValidator = "e-mail address"

const (
	maxEmailLength = 254
	maxLocalLength = 64
	maxLabelLength = 63
)

var (
	atomPattern  = regexp.MustCompile("^[A-Za-z0-9!#$%&'*+/=?^_`{|}~-]+(\\.[A-Za-z0-9!#$%&'*+/=?^_`{|}~-]+)*$")
	quotedLocal  = regexp.MustCompile(`^"([^"\\\r\n]|\\.)*"$`)
	labelPattern = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9-]*[A-Za-z0-9])?$`)
	tldPattern   = regexp.MustCompile(`^[A-Za-z]{2,}$|^xn--[A-Za-z0-9-]+$`)
)

// EmailValidator accepts e-mail addresses in the addr-spec form of RFC 5322.
type EmailValidator struct {
	// AllowComments accepts parenthesized comments such as
	// john(work)@example.com.
	AllowComments bool
	// AllowIPAddress accepts domain literals such as john@[192.0.2.1].
	AllowIPAddress bool
	// RequireTopLevelDomain rejects domains without a dot.
	RequireTopLevelDomain bool
	// IncludeDomains, when not empty, lists the only accepted domains. A *
	// matches any sequence of characters.
	IncludeDomains []string
	// ExcludeDomains lists rejected domains, with the same wildcards.
	ExcludeDomains []string
}

// Validate implements Validator.
func (v EmailValidator) Validate(value string) error {
	addr := strings.TrimSpace(value)
	if addr == "" {
		return invalid(emailValidator, value, CodeEmpty, "no address given")
	}
	stripped, ok := stripComments(addr)
	if !ok {
		return invalid(emailValidator, value, CodeFormat, "unbalanced quotes or comment")
	}
	if stripped != addr {
		if !v.AllowComments {
			return invalid(emailValidator, value, CodeComments, "comments are not allowed")
		}
		addr = stripped
	}
	if len(addr) > maxEmailLength {
		return invalid(emailValidator, value, CodeLength, "longer than %d characters", maxEmailLength)
	}
	at := strings.LastIndexByte(addr, '@')
	if at <= 0 || at == len(addr)-1 {
		return invalid(emailValidator, value, CodeFormat, "missing local part or domain")
	}
	local, domain := addr[:at], addr[at+1:]
	if len(local) > maxLocalLength {
		return invalid(emailValidator, value, CodeLength, "local part longer than %d characters", maxLocalLength)
	}
	if !atomPattern.MatchString(local) && !quotedLocal.MatchString(local) {
		return invalid(emailValidator, value, CodeFormat, "invalid local part")
	}
	if strings.HasPrefix(domain, "[") {
		return v.validateLiteral(value, domain)
	}
	if err := v.validateDomain(value, domain); err != nil {
		return err
	}
	return v.checkDomainLists(value, domain)
}

// IsValid implements Validator.
func (v EmailValidator) IsValid(value string) bool {
	return v.Validate(value) == nil
}

func (v EmailValidator) validateLiteral(value, domain string) error {
	if !v.AllowIPAddress {
		return invalid(emailValidator, value, CodeIPAddress, "IP address domains are not allowed")
	}
	if !strings.HasSuffix(domain, "]") {
		return invalid(emailValidator, value, CodeFormat, "unterminated domain literal")
	}
	literal := domain[1 : len(domain)-1]
	ipv6 := false
	if len(literal) > 5 && strings.EqualFold(literal[:5], "IPv6:") {
		literal, ipv6 = literal[5:], true
	}
	ip, err := netip.ParseAddr(literal)
	if err != nil || ip.Is6() != ipv6 || ip.Zone() != "" {
		return invalid(emailValidator, value, CodeFormat, "invalid IP address %q", literal)
	}
	return v.checkDomainLists(value, ip.String())
}

func (v EmailValidator) validateDomain(value, domain string) error {
	labels := strings.Split(domain, ".")
	for _, label := range labels {
		if len(label) > maxLabelLength || !labelPattern.MatchString(label) {
			return invalid(emailValidator, value, CodeFormat, "invalid domain label %q", label)
		}
	}
	if v.RequireTopLevelDomain {
		if len(labels) < 2 || !tldPattern.MatchString(labels[len(labels)-1]) {
			return invalid(emailValidator, value, CodeTopLevelDomain, "domain has no top level domain")
		}
	}
	return nil
}

func (v EmailValidator) checkDomainLists(value, domain string) error {
	if len(v.IncludeDomains) > 0 && !matchesAny(v.IncludeDomains, domain) {
		return invalid(emailValidator, value, CodeDomainNotAllowed, "domain %s is not allowed", domain)
	}
	if matchesAny(v.ExcludeDomains, domain) {
		return invalid(emailValidator, value, CodeDomainNotAllowed, "domain %s is excluded", domain)
	}
	return nil
}

// matchesAny matches domain case-insensitively against patterns where *
// stands for any sequence of characters.
func matchesAny(patterns []string, domain string) bool {
	domain = strings.ToLower(domain)
	for _, p := range patterns {
		if wildcardMatch(strings.ToLower(strings.TrimSpace(p)), domain) {
			return true
		}
	}
	return false
}

func wildcardMatch(pattern, s string) bool {
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return pattern == s
	}
	if !strings.HasPrefix(s, parts[0]) {
		return false
	}
	s = s[len(parts[0]):]
	last := parts[len(parts)-1]
	for _, part := range parts[1 : len(parts)-1] {
		i := strings.Index(s, part)
		if i < 0 {
			return false
		}
		s = s[i+len(part):]
	}
	return len(s) >= len(last) && strings.HasSuffix(s, last)
}

// stripComments removes (possibly nested) parenthesized comments outside
// quoted strings.
func stripComments(s string) (string, bool) {
	var b strings.Builder
	depth := 0
	quoted := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && (quoted || depth > 0) && i+1 < len(s):
			if depth == 0 {
				b.WriteByte(c)
				b.WriteByte(s[i+1])
			}
			i++
		case c == '"' && depth == 0:
			quoted = !quoted
			b.WriteByte(c)
		case c == '(' && !quoted:
			depth++
		case c == ')' && !quoted:
			if depth == 0 {
				return "", false
			}
			depth--
		case depth == 0:
			b.WriteByte(c)
		}
	}
	return b.String(), depth == 0 && !quoted
}
