// Package pricing turns a token's raw invalidator terms into comparable
// price, rate and duration figures.
//
// Every function is pure: the current time is always passed in, nothing is
// cached and nothing is mutated, so callers may evaluate tokens concurrently.
// Missing data and zero durations degrade to a zero value instead of failing.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"rental-market-backend/internal/domain"
)

// Duration is a span in seconds that may be unbounded. An unbounded duration
// only supports comparison.
type Duration struct {
	Seconds   int64 `json:"seconds"`
	Unbounded bool  `json:"unbounded"`
}

// Unbounded is the duration of a rate-mode rental without a max expiration.
var Unbounded = Duration{Unbounded: true}

// Display renders the duration for humans, "∞" when unbounded.
func (d Duration) Display() string {
	if d.Unbounded {
		return "∞"
	}
	return FormatDuration(d.Seconds)
}

// Less orders bounded durations by length; unbounded sorts last.
func (d Duration) Less(o Duration) bool {
	if d.Unbounded {
		return false
	}
	if o.Unbounded {
		return true
	}
	return d.Seconds < o.Seconds
}

// MinDuration returns the shorter of a and b.
func MinDuration(a, b Duration) Duration {
	if b.Less(a) {
		return b
	}
	return a
}

// GetPrice returns the claim price in display units. Tokens without a claim
// approver, or whose payment mint is unknown, cost 0.
func GetPrice(token *domain.TokenRecord, mints domain.PaymentMints) decimal.Decimal {
	price, _ := lookupPrice(token, mints)
	return price
}

// lookupPrice reports false when a claim approver exists but its mint is unknown.
func lookupPrice(token *domain.TokenRecord, mints domain.PaymentMints) (decimal.Decimal, bool) {
	ca := token.ClaimApprover
	if ca == nil {
		return decimal.Zero, true
	}
	info, ok := mints.Lookup(ca.PaymentMint)
	if !ok {
		return decimal.Zero, false
	}
	return ToDecimalAmount(ca.PaymentAmount, info.Decimals), true
}

// ToDecimalAmount converts a raw integer amount using the mint's decimals.
func ToDecimalAmount(amount uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromUint64(amount).Shift(-int32(decimals))
}

// GetDuration returns the rental duration in priority order: rate mode uses
// the max duration, then a fixed duration, then the time left until
// expiration (negative once expired), else 0.
func GetDuration(token *domain.TokenRecord, now time.Time) Duration {
	ti := token.TimeInvalidator
	if ti == nil {
		return Duration{}
	}
	if ti.IsRateMode() {
		return GetMaxDuration(token, now)
	}
	if ti.DurationSeconds != nil && *ti.DurationSeconds != 0 {
		return Duration{Seconds: *ti.DurationSeconds}
	}
	if ti.Expiration != nil {
		return Duration{Seconds: *ti.Expiration - now.Unix()}
	}
	return Duration{}
}

// GetMaxDuration returns the time left until the max expiration, or
// Unbounded when the token has none.
func GetMaxDuration(token *domain.TokenRecord, now time.Time) Duration {
	ti := token.TimeInvalidator
	if ti == nil || ti.MaxExpiration == nil {
		return Unbounded
	}
	return Duration{Seconds: *ti.MaxExpiration - now.Unix()}
}

// GetRate returns the price per unit, 0 when it cannot be computed.
func GetRate(token *domain.TokenRecord, mints domain.PaymentMints, unit domain.RateUnit, now time.Time) decimal.Decimal {
	rate, _ := TryRate(token, mints, unit, now)
	return rate
}

// TryRate is GetRate with ok reporting whether the rate was computable. A
// free token with a positive duration is computable with a rate of 0; missing
// extension terms, unknown mints and non-positive durations are not.
func TryRate(token *domain.TokenRecord, mints domain.PaymentMints, unit domain.RateUnit, now time.Time) (decimal.Decimal, bool) {
	unitSeconds := decimal.NewFromInt(unit.Seconds())
	ti := token.TimeInvalidator

	if ti.IsRateMode() {
		if ti.ExtensionPaymentAmount == nil || ti.ExtensionPaymentMint == nil || ti.ExtensionDurationSeconds == nil {
			return decimal.Zero, false
		}
		if *ti.ExtensionDurationSeconds <= 0 {
			return decimal.Zero, false
		}
		info, ok := mints.Lookup(*ti.ExtensionPaymentMint)
		if !ok {
			return decimal.Zero, false
		}
		amount := ToDecimalAmount(*ti.ExtensionPaymentAmount, info.Decimals)
		return amount.Mul(unitSeconds).Div(decimal.NewFromInt(*ti.ExtensionDurationSeconds)), true
	}

	price, ok := lookupPrice(token, mints)
	if !ok {
		return decimal.Zero, false
	}
	duration := MinDuration(GetDuration(token, now), GetMaxDuration(token, now))
	if duration.Seconds <= 0 {
		return decimal.Zero, false
	}
	if price.IsZero() {
		return decimal.Zero, true
	}
	return price.Mul(unitSeconds).Div(decimal.NewFromInt(duration.Seconds)), true
}
