// Package currency converts between host decimal amounts and provider minor units.
package currency

import (
	"math"
	"strconv"
	"strings"

	xcurrency "golang.org/x/text/currency"
)

// zeroDecimal lists the currencies Stripe charges without a minor unit.
var zeroDecimal = map[string]struct{}{
	"BIF": {}, "CLP": {}, "DJF": {}, "GNF": {}, "JPY": {}, "KMF": {},
	"KRW": {}, "MGA": {}, "PYG": {}, "RWF": {}, "UGX": {}, "VND": {},
	"VUV": {}, "XAF": {}, "XOF": {}, "XPF": {},
}

var symbols = map[string]string{
	"USD": "$", "CAD": "$", "AUD": "$", "NZD": "$", "SGD": "$", "HKD": "$", "MXN": "$",
	"EUR": "€", "GBP": "£", "JPY": "¥", "CNY": "¥", "INR": "₹", "KRW": "₩",
	"BRL": "R$", "CHF": "CHF ", "SEK": "kr ", "NOK": "kr ", "DKK": "kr ",
	"PLN": "zł ", "ZAR": "R ", "IDR": "Rp ", "PHP": "₱", "THB": "฿",
}

// Normalize upper-cases and trims a currency code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsZeroDecimal reports whether the provider expects whole units for code.
func IsZeroDecimal(code string) bool {
	_, ok := zeroDecimal[Normalize(code)]
	return ok
}

// Scale returns the number of decimals in the provider's minor unit for code.
func Scale(code string) int {
	code = Normalize(code)
	if IsZeroDecimal(code) {
		return 0
	}
	unit, err := xcurrency.ParseISO(code)
	if err != nil {
		return 2
	}
	scale, _ := xcurrency.Standard.Rounding(unit)
	return scale
}

// Factor is 10^Scale(code).
func Factor(code string) float64 {
	return math.Pow10(Scale(code))
}

// ToMinorUnits converts a decimal amount into the provider's integer representation.
func ToMinorUnits(amount float64, code string) int64 {
	return int64(math.Round(amount * Factor(code)))
}

// FromMinorUnits converts an integer provider amount back into a decimal amount.
func FromMinorUnits(minor int64, code string) float64 {
	return Round(float64(minor)/Factor(code), code)
}

// Round rounds amount to the currency's scale.
func Round(amount float64, code string) float64 {
	factor := Factor(code)
	return math.Round(amount*factor) / factor
}

// Format renders amount the way the host displays money, e.g. "$1,234.50".
func Format(amount float64, code string) string {
	code = Normalize(code)
	scale := Scale(code)

	negative := amount < 0
	if negative {
		amount = -amount
	}

	text := strconv.FormatFloat(Round(amount, code), 'f', scale, 64)
	whole, frac, _ := strings.Cut(text, ".")
	whole = groupThousands(whole)
	if frac != "" {
		whole += "." + frac
	}

	symbol, ok := symbols[code]
	if !ok {
		symbol = code + " "
	}

	out := symbol + whole
	if negative {
		out = "-" + out
	}
	return out
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
