package validation

import (
	"errors"
	"fmt"
)

// ErrInvalid matches every *ValidationError with errors.Is.
var ErrInvalid = errors.New("invalid value")

// Code identifies why a value was rejected.
type Code string

const (
	CodeEmpty            Code = "empty"
	CodeFormat           Code = "format"
	CodeKindNotAllowed   Code = "kind_not_allowed"
	CodeCountryCode      Code = "country_code_not_allowed"
	CodeCarrierPreselect Code = "carrier_preselect_not_allowed"
	CodeComments         Code = "comments_not_allowed"
	CodeIPAddress        Code = "ip_address_not_allowed"
	CodeTopLevelDomain   Code = "top_level_domain_required"
	CodeDomainNotAllowed Code = "domain_not_allowed"
	CodeLength           Code = "length"
	CodeCountry          Code = "country_not_allowed"
	CodeChecksum         Code = "checksum"
)

// ValidationError describes a rejected value.
type ValidationError struct {
	Validator string
	Value     string
	Code      Code
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %q is invalid: %s", e.Validator, e.Value, e.Message)
}

// Is reports whether target is ErrInvalid.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

// Validator checks a single string value.
type Validator interface {
	Validate(value string) error
	IsValid(value string) bool
}

func invalid(validator, value string, code Code, format string, args ...any) *ValidationError {
	return &ValidationError{
		Validator: validator,
		Value:     value,
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
	}
}
