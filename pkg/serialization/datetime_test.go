package serialization

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateLayout(t *testing.T) {
	cases := []struct {
		format string
		want   string
	}{
		{format: "", want: time.RFC3339},
		{format: "o", want: time.RFC3339Nano},
		{format: "yyyy-MM-dd HH:mm:ss", want: "2006-01-02 15:04:05"},
		{format: "dd MMMM yyyy", want: "02 January 2006"},
		{format: "ddd d MMM yy", want: "Mon 2 Jan 06"},
		{format: "hh:mm tt", want: "03:04 PM"},
		{format: "HH:mm:ss.fff", want: "15:04:05.000"},
		{format: "yyyy-MM-ddTHH:mm:sszzz", want: "2006-01-02T15:04:05-07:00"},
		{format: "s", want: "2006-01-02T15:04:05"},
		{format: "d", want: "01/02/2006"},
		{format: "'week' yyyy", want: "week 2006"},
		{format: `yyyy\y`, want: "2006y"},
	}
	for _, tc := range cases {
		t.Run(tc.format, func(t *testing.T) {
			got, err := dateLayout(tc.format)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDateLayout_Invalid(t *testing.T) {
	for _, format := range []string{"yyyy 'open", `yyyy\`, "'Q1' yyyy", "'Mon' dd-MM", `\1 yyyy`, "HH:mm:ssfff"} {
		t.Run(format, func(t *testing.T) {
			_, err := dateLayout(format)
			assert.Error(t, err)
		})
	}
}

func TestDateLayout_Literals(t *testing.T) {
	t.Run("Should reject a quarter literal that Go reads as a month", func(t *testing.T) {
		_, err := dateLayout("'Q1' yyyy")
		assert.ErrorContains(t, err, "literal text")
	})
	t.Run("Should keep literals without layout elements", func(t *testing.T) {
		layout, err := dateLayout("'Q' yyyy")
		require.NoError(t, err)
		when := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, "Q 2024", when.Format(layout))
	})
}

func TestDateLayout_RoundTrip(t *testing.T) {
	layout, err := dateLayout("dd-MM-yyyy HH:mm")
	require.NoError(t, err)
	when := time.Date(2011, time.June, 9, 17, 45, 0, 0, time.UTC)
	s := when.Format(layout)
	assert.Equal(t, "09-06-2011 17:45", s)
	back, err := time.Parse(layout, s)
	require.NoError(t, err)
	assert.True(t, when.Equal(back))
}
