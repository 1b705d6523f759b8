package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albertcolmenero/invoicehub/apperr"
)

func TestFormatInvoiceNumber(t *testing.T) {
	assert.Equal(t, "INV-000001", FormatInvoiceNumber(1))
	assert.Equal(t, "INV-000042", FormatInvoiceNumber(42))
	assert.Equal(t, "INV-999999", FormatInvoiceNumber(999999))
	assert.Equal(t, "INV-1000000", FormatInvoiceNumber(1000000))
}

func TestParseInvoiceNumber(t *testing.T) {
	for number, want := range map[string]int64{
		"INV-000001":  1,
		"INV-000041":  41,
		"INV-1000000": 1000000,
	} {
		got, err := ParseInvoiceNumber(number)
		require.NoError(t, err, number)
		assert.Equal(t, want, got, number)
	}
}

func TestParseInvoiceNumberIsStrict(t *testing.T) {
	for _, number := range []string{
		"",
		"INV-",
		"inv-000001",
		"INV-00A001",
		"INV--00001",
		"INV-+00001",
		"INV- 00001",
		"2024-000001",
		"INV-99999999999999999999",
	} {
		_, err := ParseInvoiceNumber(number)
		require.Error(t, err, number)
		assert.True(t, apperr.IsValidation(err), number)
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, seq := range []int64{1, 7, 123456, 1234567} {
		got, err := ParseInvoiceNumber(FormatInvoiceNumber(seq))
		require.NoError(t, err)
		assert.Equal(t, seq, got)
	}
}
