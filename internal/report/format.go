// Package report renders calculations as plain text. It is the only place where
// engine values are rounded.
package report

import (
	"strings"

	"github.com/shopspring/decimal"
)

const thousandsSep = " "

var hundred = decimal.NewFromInt(100)

// FormatNOK rounds to whole kroner, half away from zero, and groups thousands.
func FormatNOK(v float64) string {
	return group(decimal.NewFromFloat(v).Round(0).StringFixed(0)) + " NOK"
}

// FormatNumber rounds to places decimals and groups thousands.
func FormatNumber(v float64, places int32) string {
	return group(decimal.NewFromFloat(v).Round(places).StringFixed(places))
}

// FormatPercent renders a percentage with an explicit sign, e.g. "+12.5 %".
func FormatPercent(v float64) string {
	d := decimal.NewFromFloat(v).Round(1)
	s := d.StringFixed(1)
	if d.IsPositive() {
		s = "+" + s
	}
	return s + " %"
}

// FormatShare renders a fraction in [0,1] as a percentage without sign.
func FormatShare(v float64) string {
	return decimal.NewFromFloat(v).Mul(hundred).Round(1).StringFixed(1) + " %"
}

// FormatSignedNOK is FormatNOK with an explicit plus sign for gains.
func FormatSignedNOK(v float64) string {
	s := FormatNOK(v)
	if decimal.NewFromFloat(v).Round(0).IsPositive() {
		s = "+" + s
	}
	return s
}

func group(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(thousandsSep)
		}
		b.WriteRune(r)
	}
	out := sign + b.String()
	if hasFrac {
		out += "." + frac
	}
	return out
}
