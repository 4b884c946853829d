// Package format renders amounts, dates, counts and names for display.
//
// Every function here is total: malformed input produces a fixed fallback
// string instead of an error or a panic.
package format

import (
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
	"github.com/dustin/go-humanize"
	"golang.org/x/text/currency"
)

// InvalidDate is returned by Date and DateString when there is nothing to render.
const InvalidDate = "Invalid Date"

type DateMode string

const (
	DateShort DateMode = "short"
	DateLong  DateMode = "long"
)

const (
	shortLayout = "Jan 2, 2006"
	longLayout  = "January 2, 2006 3:04 PM"
)

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"INR": "₹",
}

// Currency formats amount with two decimals and thousands separators,
// prefixed by the symbol for code (USD when empty).
func Currency(amount float64, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = "USD"
	}
	prefix := currencyPrefix(code)

	switch {
	case math.IsNaN(amount):
		return "NaN"
	case math.IsInf(amount, 1):
		return prefix + "Infinity"
	case math.IsInf(amount, -1):
		return "-" + prefix + "Infinity"
	}

	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	body := groupedAmount(amount)
	if body == "0.00" {
		sign = ""
	}
	return sign + prefix + body
}

// largeAmount is where FormatFloat's int64 conversion stops being safe.
const largeAmount = 1e15

// groupedAmount renders a non-negative finite amount as "1,234.56".
func groupedAmount(amount float64) string {
	if amount < largeAmount {
		return humanize.FormatFloat("#,###.##", amount)
	}
	whole, frac, _ := strings.Cut(strconv.FormatFloat(amount, 'f', 2, 64), ".")
	n, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return whole + "." + frac
	}
	return humanize.BigComma(n) + "." + frac
}

func currencyPrefix(code string) string {
	if unit, err := currency.ParseISO(code); err == nil {
		code = unit.String()
		if sym, ok := currencySymbols[code]; ok {
			return sym
		}
	}
	return code + " "
}

// Date renders t in the given mode. The zero time renders InvalidDate.
func Date(t time.Time, mode DateMode) string {
	if t.IsZero() {
		return InvalidDate
	}
	if mode == DateLong {
		return t.Format(longLayout)
	}
	return t.Format(shortLayout)
}

// DateString parses raw (ISO 8601 or any layout dateparse understands,
// zone-less values taken as UTC) and renders it like Date.
func DateString(raw string, mode DateMode) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return InvalidDate
	}
	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return InvalidDate
	}
	return Date(t, mode)
}

// Number groups thousands: 1234567 -> "1,234,567".
func Number(n int64) string {
	return humanize.Comma(n)
}

// Initials takes the first letter of the first two words of name. A single
// word contributes its first two letters.
func Initials(name string) string {
	words := strings.Fields(name)
	switch len(words) {
	case 0:
		return ""
	case 1:
		r := []rune(words[0])
		if len(r) > 2 {
			r = r[:2]
		}
		return upper(r)
	default:
		return upper([]rune{[]rune(words[0])[0], []rune(words[1])[0]})
	}
}

func upper(rs []rune) string {
	for i, r := range rs {
		rs[i] = unicode.ToUpper(r)
	}
	return string(rs)
}
