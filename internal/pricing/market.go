package pricing

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"rental-market-backend/internal/domain"
)

type OrderCategory string

const (
	OrderRecentlyListed  OrderCategory = "recently_listed"
	OrderPriceLowToHigh  OrderCategory = "price_asc"
	OrderPriceHighToLow  OrderCategory = "price_desc"
	OrderRateLowToHigh   OrderCategory = "rate_asc"
	OrderRateHighToLow   OrderCategory = "rate_desc"
	DefaultOrderCategory               = OrderPriceLowToHigh
)

func (o OrderCategory) Valid() bool {
	switch o {
	case OrderRecentlyListed, OrderPriceLowToHigh, OrderPriceHighToLow, OrderRateLowToHigh, OrderRateHighToLow:
		return true
	}
	return false
}

// FloorRate returns the lowest computable rate among tokens that carry a time
// invalidator. With rateModeOnly set, only rate-mode tokens are considered.
// Tokens whose rate cannot be computed are skipped; no candidates yields 0.
func FloorRate(tokens []domain.TokenRecord, mints domain.PaymentMints, unit domain.RateUnit, now time.Time, rateModeOnly bool) decimal.Decimal {
	var (
		floor decimal.Decimal
		found bool
	)
	for i := range tokens {
		t := &tokens[i]
		if t.TimeInvalidator == nil {
			continue
		}
		if rateModeOnly && !t.TimeInvalidator.IsRateMode() {
			continue
		}
		rate, ok := TryRate(t, mints, unit, now)
		if !ok {
			continue
		}
		if !found || rate.LessThan(floor) {
			floor = rate
			found = true
		}
	}
	if !found {
		return decimal.Zero
	}
	return floor
}

// Sort orders tokens in place. The sort is stable and ties fall back to the
// token address so results are deterministic across requests.
func Sort(tokens []domain.TokenRecord, order OrderCategory, mints domain.PaymentMints, unit domain.RateUnit, now time.Time) {
	keys := make(map[string]decimal.Decimal, len(tokens))
	key := func(t *domain.TokenRecord) decimal.Decimal {
		if k, ok := keys[t.Address]; ok {
			return k
		}
		var k decimal.Decimal
		switch order {
		case OrderPriceLowToHigh, OrderPriceHighToLow:
			k = GetPrice(t, mints)
		case OrderRateLowToHigh, OrderRateHighToLow:
			k = GetRate(t, mints, unit, now)
		default:
			k = decimal.NewFromInt(t.StateChangedAt)
		}
		keys[t.Address] = k
		return k
	}

	sort.SliceStable(tokens, func(i, j int) bool {
		a, b := key(&tokens[i]), key(&tokens[j])
		if cmp := a.Cmp(b); cmp != 0 {
			switch order {
			case OrderPriceHighToLow, OrderRateHighToLow, OrderRecentlyListed:
				return cmp > 0
			default:
				return cmp < 0
			}
		}
		return tokens[i].Address < tokens[j].Address
	})
}

// AllAttributes collects the distinct values of every trait across tokens,
// each value list sorted.
func AllAttributes(tokens []domain.TokenRecord) map[string][]string {
	seen := make(map[string]map[string]struct{})
	for _, t := range tokens {
		for _, a := range t.Metadata.Attributes {
			if seen[a.TraitType] == nil {
				seen[a.TraitType] = make(map[string]struct{})
			}
			seen[a.TraitType][a.Value] = struct{}{}
		}
	}

	out := make(map[string][]string, len(seen))
	for trait, values := range seen {
		list := make([]string, 0, len(values))
		for v := range values {
			list = append(list, v)
		}
		sort.Strings(list)
		out[trait] = list
	}
	return out
}

// FilterByAttributes keeps tokens matching any selected trait value. Filters
// with no selected values are ignored; no active filter returns tokens as is.
func FilterByAttributes(tokens []domain.TokenRecord, filters map[string][]string) []domain.TokenRecord {
	active := false
	for _, values := range filters {
		if len(values) > 0 {
			active = true
			break
		}
	}
	if !active {
		return tokens
	}

	var out []domain.TokenRecord
	for _, t := range tokens {
		if matchesAny(t.Metadata.Attributes, filters) {
			out = append(out, t)
		}
	}
	return out
}

func matchesAny(attrs []domain.Attribute, filters map[string][]string) bool {
	for _, a := range attrs {
		for _, v := range filters[a.TraitType] {
			if a.Value == v {
				return true
			}
		}
	}
	return false
}
