package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScale(t *testing.T) {
	assert.Equal(t, 2, Scale("usd"))
	assert.Equal(t, 2, Scale("EUR"))
	assert.Equal(t, 0, Scale("JPY"))
	assert.Equal(t, 0, Scale("krw"))
	assert.Equal(t, 3, Scale("KWD"))
	assert.Equal(t, 2, Scale("not-a-currency"))
}

func TestMinorUnitRoundTrip(t *testing.T) {
	tests := []struct {
		amount float64
		code   string
		minor  int64
	}{
		{19.99, "USD", 1999},
		{20, "USD", 2000},
		{0.1, "EUR", 10},
		{1000, "JPY", 1000},
		{12.345, "KWD", 12345},
	}
	for _, tt := range tests {
		got := ToMinorUnits(tt.amount, tt.code)
		assert.Equal(t, tt.minor, got, "%v %s", tt.amount, tt.code)
		assert.Equal(t, Round(tt.amount, tt.code), FromMinorUnits(got, tt.code))
	}
}

func TestRoundTripIsIdentityForRepresentableAmounts(t *testing.T) {
	for cents := int64(0); cents <= 100000; cents += 7 {
		amount := FromMinorUnits(cents, "USD")
		assert.Equal(t, cents, ToMinorUnits(amount, "USD"))
		assert.Equal(t, amount, FromMinorUnits(ToMinorUnits(amount, "USD"), "USD"))
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$20.00", Format(20, "USD"))
	assert.Equal(t, "$1,234,567.50", Format(1234567.5, "usd"))
	assert.Equal(t, "¥1,000", Format(1000, "JPY"))
	assert.Equal(t, "-£5.25", Format(-5.25, "GBP"))
	assert.Equal(t, "XYZ 3.00", Format(3, "XYZ"))
}
