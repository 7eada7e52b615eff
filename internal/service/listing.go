package service

import (
	"time"

	"rental-market-backend/internal/domain"
	"rental-market-backend/internal/pricing"

	"github.com/shopspring/decimal"
)

// Listing is a token with every figure a client shows next to it.
type Listing struct {
	Token           domain.TokenRecord `json:"token"`
	Price           decimal.Decimal    `json:"price"`
	Rate            decimal.Decimal    `json:"rate"`
	RateAvailable   bool               `json:"rate_available"`
	RateUnit        domain.RateUnit    `json:"rate_unit"`
	UnitLabel       string             `json:"unit_label"`
	Symbol          string             `json:"symbol"`
	RateMode        bool               `json:"rate_mode"`
	Duration        pricing.Duration   `json:"duration"`
	DurationDisplay string             `json:"duration_display"`
	MaxDuration     pricing.Duration   `json:"max_duration"`
	MaxDisplay      string             `json:"max_duration_display"`
	Outcome         pricing.Outcome    `json:"outcome"`
}

type CollectionStats struct {
	Collection          string                     `json:"collection"`
	DisplayName         string                     `json:"display_name"`
	FloorRate           decimal.Decimal            `json:"floor_rate"`
	RateUnit            domain.RateUnit            `json:"rate_unit"`
	UnitLabel           string                     `json:"unit_label"`
	Symbol              string                     `json:"symbol"`
	TotalListed         int                        `json:"total_listed"`
	TotalRentalCount    int64                      `json:"total_rental_count"`
	TotalRentalDuration string                     `json:"total_rental_duration"`
	VolumeByMint        map[string]decimal.Decimal `json:"volume_by_mint"`
}

func buildListing(token domain.TokenRecord, mints domain.PaymentMints, unit domain.RateUnit, now time.Time, caller string) Listing {
	rate, ok := pricing.TryRate(&token, mints, unit, now)
	duration := pricing.GetDuration(&token, now)
	maxDuration := pricing.GetMaxDuration(&token, now)

	return Listing{
		Token:           token,
		Price:           pricing.GetPrice(&token, mints),
		Rate:            rate,
		RateAvailable:   ok,
		RateUnit:        unit,
		UnitLabel:       pricing.UnitLabel(unit),
		Symbol:          pricing.TokenSymbol(&token, mints),
		RateMode:        token.TimeInvalidator.IsRateMode(),
		Duration:        duration,
		DurationDisplay: duration.Display(),
		MaxDuration:     maxDuration,
		MaxDisplay:      maxDuration.Display(),
		Outcome:         pricing.ResolveInvalidationOutcome(&token, now, caller),
	}
}

func buildListings(tokens []domain.TokenRecord, mints domain.PaymentMints, unit domain.RateUnit, now time.Time, caller string) []Listing {
	listings := make([]Listing, 0, len(tokens))
	for _, t := range tokens {
		listings = append(listings, buildListing(t, mints, unit, now, caller))
	}
	return listings
}
