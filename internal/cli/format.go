// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/sobres/internal/model"
)

// CurrencySymbol prefixes every formatted amount.
var CurrencySymbol = "$"

// FormatMoney formats an amount with thousands separators and two decimals.
// e.g., 123456 -> "$1,234.56", -5 -> "-$0.05"
func FormatMoney(m model.Money) string {
	if m < 0 {
		return "-" + FormatMoney(-m)
	}
	units := int64(m) / 100
	cents := int64(m) % 100
	return fmt.Sprintf("%s%s.%02d", CurrencySymbol, FormatNumber(units), cents)
}

// FormatSignedMoney is FormatMoney with an explicit sign for non-negative
// amounts, as used for income and expense rows.
func FormatSignedMoney(m model.Money) string {
	if m < 0 {
		return FormatMoney(m)
	}
	return "+" + FormatMoney(m)
}

// FormatTransactionAmount signs an amount by transaction type.
func FormatTransactionAmount(tx model.Transaction) string {
	return FormatSignedMoney(tx.Signed())
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

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatDate formats a date as dd/mm/yyyy.
func FormatDate(d model.Date) string {
	if d.IsZero() {
		return "--/--/----"
	}
	return d.Format("02/01/2006")
}

var monthNames = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// FormatMonth returns the month name followed by the year.
func FormatMonth(year int, month time.Month) string {
	if month < time.January || month > time.December {
		return fmt.Sprintf("%d-%02d", year, int(month))
	}
	return fmt.Sprintf("%s %d", monthNames[month-1], year)
}

// FormatMonthShort returns a three-letter month abbreviation.
func FormatMonthShort(month time.Month) string {
	if month < time.January || month > time.December {
		return "???"
	}
	return monthNames[month-1][:3]
}

// FormatTypeLabel names a transaction type for display.
func FormatTypeLabel(t model.TransactionType) string {
	switch t {
	case model.Income:
		return "Ingreso"
	case model.Expense:
		return "Gasto"
	}
	return string(t)
}

// ParseDateInput reads a date typed by the user: dd/mm/yyyy, yyyy-mm-dd,
// or "hoy"/"today" for today. An empty string also means today.
func ParseDateInput(s string, today model.Date) (model.Date, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "hoy", "today":
		return today, nil
	}
	if t, err := time.Parse("02/01/2006", s); err == nil {
		return model.DateOf(t), nil
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return model.Date{}, fmt.Errorf("invalid date %q: want dd/mm/yyyy or yyyy-mm-dd", s)
	}
	return d, nil
}
