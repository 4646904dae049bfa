// Package format renders currency and dates for display surfaces (PDF,
// dashboard). Single-currency USD, en-US style.
package format

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Currency renders a decimal amount as en-US USD, e.g. 1234.5 -> "$1,234.50".
func Currency(v decimal.Decimal) string {
	neg := v.Sign() < 0
	s := v.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteString("-")
	}
	b.WriteString("$")
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteString(",")
		}
		b.WriteRune(r)
	}
	b.WriteString(".")
	b.WriteString(frac)
	return b.String()
}

// Date renders a date as "Jan 02, 2006".
func Date(t time.Time) string { return t.Format("Jan 02, 2006") }

// ISODate renders a date as "2006-01-02", used in the PDF filename.
func ISODate(t time.Time) string { return t.Format("2006-01-02") }
