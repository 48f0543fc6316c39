// Package units converts between human-readable token amounts and their
// integer base-unit representation.
package units

import (
	"fmt"
	"math/big"
	"strings"
)

// MaxDecimals bounds the exponent accepted by ParseUnits and FormatUnits.
const MaxDecimals = 77

// ParseUnits converts a decimal string such as "2000000000" or "1.5" into
// base units, i.e. amount * 10^decimals. Fractional digits beyond decimals
// are rejected rather than rounded.
func ParseUnits(amount string, decimals int) (*big.Int, error) {
	if decimals < 0 || decimals > MaxDecimals {
		return nil, fmt.Errorf("decimals out of range: %d", decimals)
	}
	s := strings.TrimSpace(amount)
	s = strings.ReplaceAll(s, "_", "")
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	whole, frac, hasDot := strings.Cut(s, ".")
	if whole == "" && (!hasDot || frac == "") {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}
	if len(frac) > decimals {
		return nil, fmt.Errorf("amount %q has more than %d fractional digits", amount, decimals)
	}
	digits := whole + frac + strings.Repeat("0", decimals-len(frac))
	if digits == "" {
		digits = "0"
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return nil, fmt.Errorf("invalid amount %q", amount)
		}
	}

	v, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}
	if neg {
		v.Neg(v)
	}
	return v, nil
}

// FormatUnits renders base units as a decimal string with trailing fractional
// zeros trimmed.
func FormatUnits(v *big.Int, decimals int) string {
	if v == nil {
		return "0"
	}
	if decimals <= 0 {
		return v.String()
	}
	if decimals > MaxDecimals {
		decimals = MaxDecimals
	}

	abs := new(big.Int).Abs(v)
	s := abs.String()
	if len(s) <= decimals {
		s = strings.Repeat("0", decimals-len(s)+1) + s
	}
	whole := s[:len(s)-decimals]
	frac := strings.TrimRight(s[len(s)-decimals:], "0")

	out := whole
	if frac != "" {
		out += "." + frac
	}
	if v.Sign() < 0 {
		out = "-" + out
	}
	return out
}
