// Package currencyutils parses and formats the euro amounts of import files.
package currencyutils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is the only currency an import file carries.
const Currency = "EUR"

var symbols = regexp.MustCompile(`[€\s]|EUR`)

// ParseAmount parses an amount as written in import files. Both "1234.56"
// and the German "1.234,56" are accepted.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	standardized := StandardizeAmount(amountStr)
	if standardized == "" {
		return decimal.Zero, errors.New("empty amount")
	}

	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	return amount, nil
}

// ParseAmountOrZero parses like ParseAmount but yields zero for an empty or
// malformed amount. Ledger validation rejects the zero amount afterwards.
func ParseAmountOrZero(amountStr string) decimal.Decimal {
	amount, err := ParseAmount(amountStr)
	if err != nil {
		return decimal.Zero
	}
	return amount
}

// StandardizeAmount converts an amount string to the form understood by
// decimal.NewFromString.
func StandardizeAmount(amountStr string) string {
	amountStr = symbols.ReplaceAllString(strings.TrimSpace(amountStr), "")

	switch {
	case strings.Contains(amountStr, ",") && strings.Contains(amountStr, "."):
		if strings.LastIndex(amountStr, ".") < strings.LastIndex(amountStr, ",") {
			// 1.234,56
			amountStr = strings.ReplaceAll(amountStr, ".", "")
			amountStr = strings.ReplaceAll(amountStr, ",", ".")
		} else {
			// 1,234.56
			amountStr = strings.ReplaceAll(amountStr, ",", "")
		}
	case strings.Contains(amountStr, ","):
		parts := strings.Split(amountStr, ",")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			amountStr = strings.Replace(amountStr, ",", ".", 1)
		} else {
			amountStr = strings.ReplaceAll(amountStr, ",", "")
		}
	}
	return amountStr
}

// FormatAmount renders an amount with two decimals and the currency code,
// e.g. "1234.56 EUR".
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2) + " " + Currency
}

// IsPositive checks if an amount is greater than zero
func IsPositive(amount decimal.Decimal) bool {
	return amount.GreaterThan(decimal.Zero)
}
