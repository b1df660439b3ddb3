package serialization

import (
	"errors"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type account struct {
	ID       int64          `csv:"Id" csvindex:"0"`
	Name     string         `csv:"Name" csvindex:"1"`
	Active   bool           `csv:"Active" csvformat:"yes|no"`
	Birthday *time.Time     `csv:"Birthday" csvformat:"dd-MM-yyyy" csvnull:"NULL"`
	Balance  float64        `csv:"Balance" csvformat:"F2"`
	Timeout  time.Duration  `csv:"Timeout"`
	Note     string         `csv:"-"`
	internal int
}

type audited struct {
	CreatedBy string `csv:"CreatedBy"`
}

type host struct {
	audited
	Address netip.Addr `csv:"Address" csvindex:"0"`
	Port    uint16     `csv:"Port" csvindex:"1"`
	Weight  *float64   `csv:"Weight" csvculture:"nl-NL"`
}

func TestNewTransformer(t *testing.T) {
	t.Run("Should order indexed columns first", func(t *testing.T) {
		tr, err := NewTransformer[account](Invariant)
		require.NoError(t, err)
		assert.Equal(t, []string{"Id", "Name", "Active", "Birthday", "Balance", "Timeout"}, tr.Header())
	})
	t.Run("Should flatten embedded structs", func(t *testing.T) {
		tr, err := NewTransformer[*host](Invariant)
		require.NoError(t, err)
		assert.Equal(t, []string{"Address", "Port", "CreatedBy", "Weight"}, tr.Header())
	})
	t.Run("Should reject duplicate indexes", func(t *testing.T) {
		type dup struct {
			A string `csvindex:"1"`
			B string `csvindex:"1"`
		}
		_, err := NewTransformer[dup](Invariant)
		assert.ErrorContains(t, err, "share index 1")
	})
	t.Run("Should reject unsupported field types", func(t *testing.T) {
		type bad struct {
			Tags map[string]string
		}
		_, err := NewTransformer[bad](Invariant)
		assert.True(t, errors.Is(err, ErrUnsupportedType))
	})
	t.Run("Should reject non struct types", func(t *testing.T) {
		_, err := NewTransformer[string](Invariant)
		assert.ErrorIs(t, err, ErrUnsupportedType)
	})
	t.Run("Should reject date literals that clash with layout fields", func(t *testing.T) {
		type quarter struct {
			Start time.Time `csvformat:"'Q1' yyyy"`
		}
		_, err := NewTransformer[quarter](Invariant)
		assert.ErrorContains(t, err, "literal text")
	})
	t.Run("Should reject malformed boolean formats", func(t *testing.T) {
		type bad struct {
			Flag bool `csvformat:"yes"`
		}
		_, err := NewTransformer[bad](Invariant)
		assert.Error(t, err)
	})
}

func TestTransformer_ToRecord(t *testing.T) {
	tr, err := NewTransformer[account](Invariant)
	require.NoError(t, err)
	born := time.Date(1980, time.March, 15, 0, 0, 0, 0, time.UTC)
	t.Run("Should format every column", func(t *testing.T) {
		record, err := tr.ToRecord(account{
			ID: 7, Name: "Jan", Active: true, Birthday: &born, Balance: 12.5, Timeout: 90 * time.Second, Note: "skip",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"7", "Jan", "yes", "15-03-1980", "12.50", "1m30s"}, record)
	})
	t.Run("Should write the null sentinel for nil pointers", func(t *testing.T) {
		record, err := tr.ToRecord(account{ID: 8})
		require.NoError(t, err)
		assert.Equal(t, "NULL", record[3])
		assert.Equal(t, "no", record[2])
	})
	t.Run("Should use text marshalers and field cultures", func(t *testing.T) {
		htr, err := NewTransformer[*host](Invariant)
		require.NoError(t, err)
		w := 0.75
		record, err := htr.ToRecord(&host{
			audited: audited{CreatedBy: "ops"},
			Address: netip.MustParseAddr("10.0.0.1"),
			Port:    8080,
			Weight:  &w,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"10.0.0.1", "8080", "ops", "0,75"}, record)
	})
	t.Run("Should refuse nil pointers", func(t *testing.T) {
		htr, err := NewTransformer[*host](Invariant)
		require.NoError(t, err)
		_, err = htr.ToRecord(nil)
		assert.Error(t, err)
	})
}

func TestTransformer_FromRecord(t *testing.T) {
	tr, err := NewTransformer[account](Invariant)
	require.NoError(t, err)
	t.Run("Should parse every column", func(t *testing.T) {
		got, err := tr.FromRecord([]string{"7", "Jan", "YES", "15-03-1980", "12.50", "1m30s"})
		require.NoError(t, err)
		born := time.Date(1980, time.March, 15, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, account{ID: 7, Name: "Jan", Active: true, Birthday: &born, Balance: 12.5, Timeout: 90 * time.Second}, got)
	})
	t.Run("Should map the null sentinel to nil", func(t *testing.T) {
		got, err := tr.FromRecord([]string{"8", "Piet", "no", "NULL", "", "0s"})
		require.NoError(t, err)
		assert.Nil(t, got.Birthday)
		assert.Zero(t, got.Balance)
	})
	t.Run("Should treat missing trailing fields as empty", func(t *testing.T) {
		got, err := tr.FromRecord([]string{"9"})
		require.NoError(t, err)
		assert.Equal(t, int64(9), got.ID)
		assert.Empty(t, got.Name)
	})
	t.Run("Should report the failing column", func(t *testing.T) {
		_, err := tr.FromRecord([]string{"x"})
		var fe *FieldError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "Id", fe.Column)
		assert.Equal(t, "x", fe.Value)
	})
	t.Run("Should parse into pointer types", func(t *testing.T) {
		htr, err := NewTransformer[*host](Invariant)
		require.NoError(t, err)
		got, err := htr.FromRecord([]string{"::1", "443", "dev", "1,5"})
		require.NoError(t, err)
		require.NotNil(t, got.Weight)
		assert.InDelta(t, 1.5, *got.Weight, 1e-9)
		assert.Equal(t, netip.IPv6Loopback(), got.Address)
		assert.Equal(t, uint16(443), got.Port)
		assert.Equal(t, "dev", got.CreatedBy)
	})
	t.Run("Should detect overflow", func(t *testing.T) {
		htr, err := NewTransformer[*host](Invariant)
		require.NoError(t, err)
		_, err = htr.FromRecord([]string{"::1", "70000"})
		assert.Error(t, err)
	})
}

func TestTransformer_Bind(t *testing.T) {
	tr, err := NewTransformer[account](Invariant)
	require.NoError(t, err)
	t.Run("Should match names and leave other columns absent", func(t *testing.T) {
		mapping := tr.Bind([]string{"name", "ID", "Balance"})
		assert.Equal(t, []int{1, 0, -1, -1, 2, -1}, mapping)
	})
	t.Run("Should not read a named column by position", func(t *testing.T) {
		mapping := tr.Bind([]string{"Name"})
		assert.Equal(t, []int{-1, 0, -1, -1, -1, -1}, mapping)
	})
	t.Run("Should fall back to blank header cells", func(t *testing.T) {
		mapping := tr.Bind([]string{"", "Name", " ", "Birthday"})
		assert.Equal(t, []int{0, 1, 2, 3, -1, -1}, mapping)
	})
	t.Run("Should not reuse a position claimed by name", func(t *testing.T) {
		mapping := tr.Bind([]string{"", "Id"})
		assert.Equal(t, []int{1, -1, -1, -1, -1, -1}, mapping)
	})
}
