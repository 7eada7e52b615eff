package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rental-market-backend/internal/domain"
	"rental-market-backend/internal/logger"
	"rental-market-backend/internal/pricing"
	"rental-market-backend/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type browseService struct {
	market      *MarketCache
	tokenRepo   repository.TokenRepository
	eventRepo   repository.RentalEventRepository
	defaultUnit domain.RateUnit
	now         func() time.Time
}

func NewBrowseService(
	market *MarketCache,
	tokenRepo repository.TokenRepository,
	eventRepo repository.RentalEventRepository,
	defaultUnit domain.RateUnit,
) BrowseService {
	return &browseService{
		market:      market,
		tokenRepo:   tokenRepo,
		eventRepo:   eventRepo,
		defaultUnit: defaultUnit,
		now:         time.Now,
	}
}

func (s *browseService) ListListings(ctx context.Context, q ListingQuery) (*ListingPage, error) {
	logger.EnterMethod("browseService.ListListings", "collection", q.Collection, "order", q.Order)

	col, err := s.market.Collection(q.Collection)
	if err != nil {
		return nil, err
	}
	order := q.Order
	if order == "" {
		order = pricing.DefaultOrderCategory
	}
	if !order.Valid() {
		return nil, fmt.Errorf("%w: order %q", ErrInvalidArgument, order)
	}
	unit := s.unitFor(q.Unit, col)

	tokens, err := s.market.Listed(ctx, col)
	if err != nil {
		logger.ExitMethodWithError("browseService.ListListings", err)
		return nil, err
	}
	mints, err := s.market.PaymentMints(ctx)
	if err != nil {
		logger.ExitMethodWithError("browseService.ListListings", err)
		return nil, err
	}

	now := s.now()
	tokens = pricing.FilterByAttributes(tokens, q.Attributes)
	pricing.Sort(tokens, order, mints, unit, now)

	page, pageSize := normalizePage(q.Page, q.PageSize)
	total := len(tokens)
	start := total
	if page-1 < (total+pageSize-1)/pageSize {
		start = (page - 1) * pageSize
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	result := &ListingPage{
		Listings:   buildListings(tokens[start:end], mints, unit, now, q.Caller),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		Order:      order,
		RateUnit:   unit,
		Collection: col.Name,
	}
	logger.ExitMethod("browseService.ListListings", "total", total, "returned", len(result.Listings))
	return result, nil
}

func (s *browseService) GetListing(ctx context.Context, address, caller string, unit domain.RateUnit) (*Listing, error) {
	token, err := s.tokenRepo.GetByAddress(ctx, address)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load token %s: %w", address, err)
	}
	mints, err := s.market.PaymentMints(ctx)
	if err != nil {
		return nil, err
	}

	listing := buildListing(*token, mints, s.unitFor(unit, domain.Collection{}), s.now(), caller)
	return &listing, nil
}

func (s *browseService) Attributes(ctx context.Context, collection string) (map[string][]string, error) {
	col, err := s.market.Collection(collection)
	if err != nil {
		return nil, err
	}
	tokens, err := s.market.Listed(ctx, col)
	if err != nil {
		return nil, err
	}
	return pricing.AllAttributes(tokens), nil
}

func (s *browseService) Stats(ctx context.Context, collection string) (*CollectionStats, error) {
	col, err := s.market.Collection(collection)
	if err != nil {
		return nil, err
	}
	tokens, err := s.market.Listed(ctx, col)
	if err != nil {
		return nil, err
	}
	mints, err := s.market.PaymentMints(ctx)
	if err != nil {
		return nil, err
	}
	summary, err := s.eventRepo.Summary(ctx, col.Issuers)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize rentals: %w", err)
	}

	unit := s.unitFor("", col)
	symbol := pricing.Symbol(domain.WrappedSOLMint, mints)
	if len(tokens) > 0 {
		symbol = pricing.TokenSymbol(&tokens[0], mints)
	}

	volume := make(map[string]decimal.Decimal, len(summary.VolumeByMint))
	for mint, amount := range summary.VolumeByMint {
		info, ok := mints.Lookup(mint)
		if !ok {
			continue
		}
		volume[pricing.Symbol(mint, mints)] = pricing.ToDecimalAmount(amount, info.Decimals)
	}

	return &CollectionStats{
		Collection:          col.Name,
		DisplayName:         col.DisplayName,
		FloorRate:           pricing.FloorRate(tokens, mints, unit, s.now(), col.RateModeOnly),
		RateUnit:            unit,
		UnitLabel:           pricing.UnitLabel(unit),
		Symbol:              symbol,
		TotalListed:         len(tokens),
		TotalRentalCount:    summary.TotalRentalCount,
		TotalRentalDuration: pricing.FormatDuration(summary.TotalRentalDuration),
		VolumeByMint:        volume,
	}, nil
}

func (s *browseService) PaymentMints(ctx context.Context) (domain.PaymentMints, error) {
	return s.market.PaymentMints(ctx)
}

// unitFor picks the requested unit, then the collection's, then the default.
func (s *browseService) unitFor(requested domain.RateUnit, col domain.Collection) domain.RateUnit {
	switch {
	case requested.Valid():
		return requested
	case col.RateUnit.Valid():
		return col.RateUnit
	default:
		return s.defaultUnit
	}
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}
