// Package format provides pure formatting helpers shared by the deployment
// summary and the status report.
package format

import (
	"math/big"
	"strconv"
	"strings"

	"amm101ctl/pkg/units"

	"github.com/charmbracelet/lipgloss"
)

// Colours used for status cells.
var (
	Cyan   = lipgloss.Color("#00FFFF")
	Green  = lipgloss.Color("#00CC66")
	Yellow = lipgloss.Color("#FFAA00")
	Red    = lipgloss.Color("#FF4444")
	Gray   = lipgloss.Color("#666666")
)

// Status values rendered by RenderStatus.
const (
	StatusDeployed = "Deployed"
	StatusMissing  = "Missing"
	StatusPending  = "Pending"
	StatusDone     = "Done"
	StatusUnknown  = "Unknown"
	StatusOK       = "OK"
	StatusWarning  = "Warning"
	StatusFailed   = "Failed"
)

// RenderStatus returns a styled status string.
func RenderStatus(s string) string {
	switch s {
	case StatusDeployed, StatusDone, StatusOK:
		return lipgloss.NewStyle().Foreground(Green).Render(s)
	case StatusMissing, StatusFailed:
		return lipgloss.NewStyle().Foreground(Red).Render(s)
	case StatusPending, StatusWarning:
		return lipgloss.NewStyle().Foreground(Yellow).Render(s)
	case StatusUnknown:
		return lipgloss.NewStyle().Foreground(Gray).Render(s)
	default:
		return lipgloss.NewStyle().Foreground(Cyan).Render(s)
	}
}

// WithCommas adds thousand separators to a base-10 integer string.
func WithCommas(s string) string {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return s
	}
	sign := ""
	if n.Sign() < 0 {
		sign = "-"
		n.Neg(n)
	}
	digits := n.String()
	var buf []byte
	for i, c := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, byte(c)) // #nosec G115 -- digits are ASCII 0-9
	}
	return sign + string(buf)
}

// Int formats a big integer with thousand separators; nil renders as "-".
func Int(v *big.Int) string {
	if v == nil {
		return "-"
	}
	return WithCommas(v.String())
}

// Ether renders a wei amount as ETH with at most 6 fractional digits.
func Ether(wei *big.Int) string {
	if wei == nil {
		return "-"
	}
	s := units.FormatUnits(wei, 18)
	if whole, frac, ok := strings.Cut(s, "."); ok && len(frac) > 6 {
		frac = strings.TrimRight(frac[:6], "0")
		if frac == "" {
			s = whole
		} else {
			s = whole + "." + frac
		}
	}
	return s + " ETH"
}

// Tokens renders base units with the given decimals and thousand separators
// on the whole part.
func Tokens(v *big.Int, decimals int, symbol string) string {
	if v == nil {
		return "-"
	}
	s := units.FormatUnits(v, decimals)
	whole, frac, hasFrac := strings.Cut(s, ".")
	out := WithCommas(whole)
	if hasFrac {
		out += "." + frac
	}
	if symbol != "" {
		out += " " + symbol
	}
	return out
}

// ShortHex abbreviates a long hex string to 0x1234…abcd.
func ShortHex(s string) string {
	if len(s) <= 14 {
		return s
	}
	return s[:6] + "…" + s[len(s)-4:]
}

// Uint formats an unsigned integer with thousand separators.
func Uint(v uint64) string {
	return WithCommas(strconv.FormatUint(v, 10))
}
