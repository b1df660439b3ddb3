package usecase

import (
	"errors"
	"fmt"

	"github.com/HumanPrinter/enkoni-sub003/pkg/validation"
)

// ValueKind selects the validator used by ValidateValuesUseCase.
type ValueKind string

const (
	ValuePhone ValueKind = "phone"
	ValueEmail ValueKind = "email"
	ValueIBAN  ValueKind = "iban"
)

// Result is the outcome of validating one value.
type Result struct {
	Value   string          `json:"value" yaml:"value"`
	Valid   bool            `json:"valid" yaml:"valid"`
	Detail  string          `json:"detail,omitempty" yaml:"detail,omitempty"`
	Code    validation.Code `json:"code,omitempty" yaml:"code,omitempty"`
	Message string          `json:"message,omitempty" yaml:"message,omitempty"`
}

// ValidateValuesUseCase checks loose values with the framework validators.
type ValidateValuesUseCase struct {
	Phone validation.DutchPhoneNumberValidator
	Email validation.EmailValidator
	IBAN  validation.IBANValidator
}

// Execute validates every value as kind. Invalid values are reported in the
// results; only an unknown kind is an error.
func (uc *ValidateValuesUseCase) Execute(kind ValueKind, values []string) ([]Result, error) {
	var v validation.Validator
	switch kind {
	case ValuePhone:
		v = uc.Phone
	case ValueEmail:
		v = uc.Email
	case ValueIBAN:
		v = uc.IBAN
	default:
		return nil, fmt.Errorf("unknown value kind %q", kind)
	}
	results := make([]Result, 0, len(values))
	for _, value := range values {
		r := Result{Value: value}
		err := v.Validate(value)
		var verr *validation.ValidationError
		switch {
		case err == nil:
			r.Valid = true
			r.Detail = describe(kind, value)
		case errors.As(err, &verr):
			r.Code, r.Message = verr.Code, verr.Message
		default:
			return nil, fmt.Errorf("failed to validate %q: %w", value, err)
		}
		results = append(results, r)
	}
	return results, nil
}

func describe(kind ValueKind, value string) string {
	switch kind {
	case ValuePhone:
		n, err := validation.ParseDutchPhoneNumber(value)
		if err != nil {
			return ""
		}
		return fmt.Sprintf("%s %s", n.Kind, n.E164())
	case ValueIBAN:
		return validation.FormatIBAN(value)
	}
	return ""
}
