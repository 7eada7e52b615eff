package pricing

import (
	"strconv"
	"strings"

	"rental-market-backend/internal/domain"
)

const solSymbol = "◎"

var durationParts = []struct {
	seconds int64
	suffix  string
}{
	{2592000, "mo"},
	{604800, "w"},
	{86400, "d"},
	{3600, "h"},
	{60, "m"},
	{1, "s"},
}

// FormatDuration renders seconds as "1w 2d 3h", skipping zero parts.
// Non-positive spans render as "0s" so expired rentals never show negatives.
func FormatDuration(seconds int64) string {
	if seconds <= 0 {
		return "0s"
	}
	var b strings.Builder
	for _, p := range durationParts {
		n := seconds / p.seconds
		if n == 0 {
			continue
		}
		seconds -= n * p.seconds
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatInt(n, 10))
		b.WriteString(p.suffix)
	}
	return b.String()
}

// Symbol returns the display symbol for a payment mint, falling back to the
// SOL glyph for SOL and unknown mints.
func Symbol(mint string, mints domain.PaymentMints) string {
	info, ok := mints.Lookup(mint)
	if !ok || info.Symbol == "" || info.Symbol == "SOL" {
		return solSymbol
	}
	return info.Symbol
}

// TokenSymbol is Symbol for the mint a token is priced in.
func TokenSymbol(token *domain.TokenRecord, mints domain.PaymentMints) string {
	if ti := token.TimeInvalidator; ti.IsRateMode() && ti.ExtensionPaymentMint != nil {
		return Symbol(*ti.ExtensionPaymentMint, mints)
	}
	if token.ClaimApprover != nil {
		return Symbol(token.ClaimApprover.PaymentMint, mints)
	}
	return solSymbol
}

// UnitLabel is the singular upper-case label shown next to a rate, e.g. DAY.
func UnitLabel(unit domain.RateUnit) string {
	return strings.ToUpper(strings.TrimSuffix(string(unit), "s"))
}
