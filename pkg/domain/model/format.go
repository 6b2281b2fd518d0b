package model

import (
	"math"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultCurrency is used when a KPI snapshot carries no currency code
const DefaultCurrency = "EUR"

func printer() *message.Printer {
	return message.NewPrinter(language.English)
}

// FormatInt renders n with thousands separators, e.g. "1,234,567"
func FormatInt(n int64) string {
	return printer().Sprintf("%d", n)
}

// FormatMoney renders v with 2 decimals and a currency code prefix, e.g. "EUR 1,234.56"
func FormatMoney(currency string, v float64) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	return currency + " " + printer().Sprintf("%.2f", roundCents(v))
}

// FormatPercent renders a ratio as a percentage with 2 decimals, e.g. 0.0052 -> "0.52%"
func FormatPercent(ratio float64) string {
	return printer().Sprintf("%.2f", ratio*100) + "%"
}

// Truncate shortens s to limit runes, replacing the tail with an ellipsis
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	keep := limit - 3
	if keep < 0 {
		keep = 0
	}
	runes := []rune(s)
	return string(runes[:keep]) + "…"
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
