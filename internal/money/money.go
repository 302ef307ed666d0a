// Package money provides currency rounding and formatting helpers shared by the
// reporting engine. All intermediate arithmetic stays in decimal form; rounding
// happens only when a figure is emitted.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// RoundCents rounds a monetary amount half-up at cent granularity.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Cents returns the amount rounded to cents as a float64 for serialization.
func Cents(d decimal.Decimal) float64 {
	f, _ := RoundCents(d).Float64()
	return f
}

// RoundPct rounds a percentage figure to one decimal place.
func RoundPct(f float64) float64 {
	d := decimal.NewFromFloat(f)
	out, _ := d.Round(1).Float64()
	return out
}

// SafePct returns part as a percent of whole, guarding a zero denominator.
// A bucket with no net revenue reports 0 for every ratio, never NaN or Inf.
func SafePct(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	pct, _ := part.Div(whole).Mul(decimal.NewFromInt(100)).Float64()
	return RoundPct(pct)
}

// FormatAmount renders a whole-dollar amount with thousand separators, used for
// histogram bucket labels such as "$1,000+".
func FormatAmount(amount int64) string {
	return printer.Sprintf("$%d", amount)
}
