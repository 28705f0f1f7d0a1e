package money

import (
	"errors"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrFractionalUnit = errors.New("amount must be a whole number of units")
)

var printer = message.NewPrinter(language.English)

// ParseAmount reads a positive whole number of currency units. Signs,
// fractions and exponents are rejected rather than rounded.
func ParseAmount(input string) (int64, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return 0, ErrInvalidAmount
	}
	if strings.ContainsAny(trimmed, ".eE") {
		whole, frac, _ := strings.Cut(strings.ToLower(trimmed), ".")
		if isDigits(whole) && isDigits(frac) && strings.Trim(frac, "0") == "" && frac != "" {
			trimmed = whole
		} else {
			return 0, ErrFractionalUnit
		}
	}
	if !isDigits(trimmed) {
		return 0, ErrInvalidAmount
	}
	value, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || value <= 0 {
		return 0, ErrInvalidAmount
	}
	return value, nil
}

// Format renders an amount for display, e.g. Format(20000, "$") == "$20,000".
func Format(amount int64, symbol string) string {
	if amount < 0 {
		return "-" + symbol + printer.Sprintf("%d", -amount)
	}
	return symbol + printer.Sprintf("%d", amount)
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
