package receipt

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatEuros renders integer cents in the French style used on receipts:
// two decimals, comma decimal separator, space-grouped thousands and a
// trailing euro sign, e.g. 123456 -> "1 234,56 €".
func FormatEuros(cents int64) string {
	d := decimal.New(cents, -2)
	fixed := d.StringFixed(2)

	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	parts := strings.SplitN(fixed, ".", 2)
	intPart, fracPart := parts[0], parts[1]

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(fracPart)
	b.WriteString(" €")
	return b.String()
}
