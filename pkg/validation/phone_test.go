package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDutchPhoneNumber(t *testing.T) {
	cases := []struct {
		input    string
		kind     PhoneKind
		national string
		intl     bool
		carrier  string
	}{
		{"020-1234567", Landline, "0201234567", false, ""},
		{"(020) 123 45 67", Landline, "0201234567", false, ""},
		{"0318.123456", Landline, "0318123456", false, ""},
		{"06-12345678", Mobile, "0612345678", false, ""},
		{"+31 6 12345678", Mobile, "0612345678", true, ""},
		{"+31 (0)20 1234567", Landline, "0201234567", true, ""},
		{"0031 20 1234567", Landline, "0201234567", true, ""},
		{"0800-1234", ServiceNumber, "08001234", false, ""},
		{"0900 1234567", ServiceNumber, "09001234567", false, ""},
		{"112", Emergency, "112", false, ""},
		{"1655 020 1234567", Landline, "0201234567", false, "1655"},
	}
	for _, tc := range cases {
		t.Run("Should parse "+tc.input, func(t *testing.T) {
			n, err := ParseDutchPhoneNumber(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.kind, n.Kind)
			assert.Equal(t, tc.national, n.National)
			assert.Equal(t, tc.intl, n.International)
			assert.Equal(t, tc.carrier, n.Carrier)
		})
	}
	for _, input := range []string{"", "12345", "+32 2 1234567", "+31 020 1234567", "020-123456", "06-1234567a", "0800 12345", "+31 112", "020)1234567("} {
		t.Run("Should reject "+input, func(t *testing.T) {
			_, err := ParseDutchPhoneNumber(input)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestPhoneNumber_E164(t *testing.T) {
	n, err := ParseDutchPhoneNumber("020 1234567")
	require.NoError(t, err)
	assert.Equal(t, "+31201234567", n.E164())
}

func TestDutchPhoneNumberValidator(t *testing.T) {
	t.Run("Should accept landline and mobile by default", func(t *testing.T) {
		v := DutchPhoneNumberValidator{}
		assert.True(t, v.IsValid("020-1234567"))
		assert.True(t, v.IsValid("0612345678"))
		assert.False(t, v.IsValid("0800-1234"))
		assert.False(t, v.IsValid("112"))
	})
	t.Run("Should report the reason", func(t *testing.T) {
		cases := []struct {
			name  string
			v     DutchPhoneNumberValidator
			input string
			code  Code
		}{
			{"kind", DutchPhoneNumberValidator{Kinds: Mobile}, "020-1234567", CodeKindNotAllowed},
			{"country code", DutchPhoneNumberValidator{}, "+31612345678", CodeCountryCode},
			{"carrier", DutchPhoneNumberValidator{}, "1655 0612345678", CodeCarrierPreselect},
			{"empty", DutchPhoneNumberValidator{}, " ", CodeEmpty},
			{"format", DutchPhoneNumberValidator{}, "06-123", CodeFormat},
		}
		for _, tc := range cases {
			err := tc.v.Validate(tc.input)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr, tc.name)
			assert.Equal(t, tc.code, verr.Code, tc.name)
		}
	})
	t.Run("Should honour the options", func(t *testing.T) {
		v := DutchPhoneNumberValidator{Kinds: AllPhoneKinds, AllowCountryCode: true, AllowCarrierPreselect: true}
		for _, input := range []string{"+31612345678", "1655 0612345678", "0900-1234", "112"} {
			assert.NoError(t, v.Validate(input), input)
		}
	})
}

func TestParsePhoneKinds(t *testing.T) {
	kinds, ok := ParsePhoneKinds("mobile service")
	require.True(t, ok)
	assert.Equal(t, Mobile|ServiceNumber, kinds)
	assert.Equal(t, "mobile|service", kinds.String())
	_, ok = ParsePhoneKinds("fax")
	assert.False(t, ok)
}
