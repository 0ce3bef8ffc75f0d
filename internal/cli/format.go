// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/monsefu/resplan/internal/model"
)

// FormatCount formats a forecast volume. Whole numbers get comma separators,
// fractional ones keep a single decimal.
// e.g., 1234 -> "1,234", 12.75 -> "12.8"
func FormatCount(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return FormatNumber(int64(n))
	}
	whole := math.Trunc(n)
	frac := fmt.Sprintf("%.1f", math.Abs(n-whole))
	if frac == "1.0" {
		return FormatCount(whole + math.Copysign(1, n))
	}
	s := FormatNumber(int64(whole)) + frac[1:]
	if n < 0 && whole == 0 {
		s = "-" + s
	}
	return s
}

// FormatSoles formats an amount in soles.
// e.g., 8050 -> "S/ 8,050"
func FormatSoles(amount float64) string {
	if amount < 0 {
		return "-" + FormatSoles(-amount)
	}
	if amount >= 100 || amount == math.Trunc(amount) {
		return "S/ " + FormatNumber(int64(math.Round(amount)))
	}
	return fmt.Sprintf("S/ %.2f", amount)
}

// FormatHours formats a number of labor hours.
// e.g., 280 -> "280 h", 12.75 -> "12.8 h"
func FormatHours(h float64) string {
	return FormatCount(h) + " h"
}

// FormatDuration formats seconds into a human-readable duration.
// e.g., 3725 -> "1h 2m", 125 -> "2m", 45 -> "45s"
func FormatDuration(secs int64) string {
	if secs <= 0 {
		return "0s"
	}

	hours := secs / 3600
	mins := (secs % 3600) / 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	if mins > 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%ds", secs)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-100 value as a percentage string.
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatGap formats an inventory gap with an explicit sign.
// e.g., 5 -> "+5", -3 -> "-3", 0 -> "0"
func FormatGap(gap int) string {
	if gap > 0 {
		return "+" + FormatNumber(int64(gap))
	}
	return FormatNumber(int64(gap))
}

// FormatDelta formats the change between two counts with a sign.
func FormatDelta(current, previous float64) string {
	delta := current - previous
	if delta >= 0 {
		return "+" + FormatCount(delta)
	}
	return "-" + FormatCount(-delta)
}

var monthNames = []string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// FormatMonth returns the Spanish month name for 1-12.
func FormatMonth(month int) string {
	if month >= 1 && month <= 12 {
		return monthNames[month-1]
	}
	return "???"
}

// FormatPeriod formats a period as "Noviembre 2026".
func FormatPeriod(p model.Period) string {
	return fmt.Sprintf("%s %d", FormatMonth(p.Month), p.Year)
}
