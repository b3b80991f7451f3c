// Package money formats shilling amounts for display.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is the only currency the storefront sells in.
const Currency = "KES"

// Format renders amount as "KES 13,000.00". Grouping works on the decimal
// string so large amounts keep every digit.
func Format(amount decimal.Decimal) string {
	s := amount.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	b.Grow(len(Currency) + 2 + len(s) + len(whole)/3)
	b.WriteString(Currency)
	b.WriteByte(' ')
	b.WriteString(sign)
	for i := range len(whole) {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteByte(whole[i])
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// Round2 rounds half away from zero to cents.
func Round2(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}
