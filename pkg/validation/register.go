package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Tags registered by RegisterValidations.
const (
	TagDutchPhone  = "dutchphone"
	TagDutchMobile = "dutchmobile"
	TagEmail       = "enkoni_email"
	TagIBAN        = "iban"
)

// RegisterValidations adds the tags of this package to v:
//
//	dutchphone           landline or mobile, +31 allowed
//	dutchphone=mobile service
//	                     the listed kinds (landline mobile service emergency all)
//	dutchmobile          mobile only, +31 allowed
//	enkoni_email         address with a top level domain
//	iban                 any IBAN, spaces allowed
//	iban=NL BE           IBANs of the listed countries
func RegisterValidations(v *validator.Validate) error {
	funcs := map[string]validator.Func{
		TagDutchPhone:  dutchPhoneField,
		TagDutchMobile: stringField(DutchPhoneNumberValidator{Kinds: Mobile, AllowCountryCode: true}),
		TagEmail:       stringField(EmailValidator{RequireTopLevelDomain: true}),
		TagIBAN:        ibanField,
	}
	for tag, fn := range funcs {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}

func stringField(val Validator) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s, ok := fieldString(fl)
		return ok && val.IsValid(s)
	}
}

func dutchPhoneField(fl validator.FieldLevel) bool {
	s, ok := fieldString(fl)
	if !ok {
		return false
	}
	val := DutchPhoneNumberValidator{AllowCountryCode: true}
	if param := fl.Param(); param != "" {
		kinds, ok := ParsePhoneKinds(param)
		if !ok {
			return false
		}
		val.Kinds = kinds
	}
	return val.IsValid(s)
}

func ibanField(fl validator.FieldLevel) bool {
	s, ok := fieldString(fl)
	if !ok {
		return false
	}
	val := IBANValidator{AllowSpaces: true, Countries: strings.Fields(fl.Param())}
	return val.IsValid(s)
}

func fieldString(fl validator.FieldLevel) (string, bool) {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return "", false
	}
	return field.String(), true
}
