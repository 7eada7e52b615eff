package service

import (
	"context"
	"fmt"
	"time"

	"rental-market-backend/internal/domain"
	"rental-market-backend/internal/pricing"
	"rental-market-backend/internal/repository"
)

type manageService struct {
	market      *MarketCache
	tokenRepo   repository.TokenRepository
	defaultUnit domain.RateUnit
	now         func() time.Time
}

func NewManageService(market *MarketCache, tokenRepo repository.TokenRepository, defaultUnit domain.RateUnit) ManageService {
	return &manageService{
		market:      market,
		tokenRepo:   tokenRepo,
		defaultUnit: defaultUnit,
		now:         time.Now,
	}
}

func (s *manageService) ListIssued(ctx context.Context, issuer, caller string) ([]Listing, error) {
	if issuer == "" {
		return nil, fmt.Errorf("%w: issuer is required", ErrInvalidArgument)
	}
	tokens, err := s.tokenRepo.ListByIssuer(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens for issuer %s: %w", issuer, err)
	}
	mints, err := s.market.PaymentMints(ctx)
	if err != nil {
		return nil, err
	}
	return buildListings(tokens, mints, s.defaultUnit, s.now(), caller), nil
}

func (s *manageService) ListRevocable(ctx context.Context, caller string) ([]Listing, error) {
	if caller == "" {
		return nil, fmt.Errorf("%w: caller is required", ErrInvalidArgument)
	}
	claimed, err := s.tokenRepo.ListByState(ctx, domain.TokenManagerStateClaimed)
	if err != nil {
		return nil, fmt.Errorf("failed to list claimed tokens: %w", err)
	}

	now := s.now()
	var revocable []domain.TokenRecord
	for i := range claimed {
		if pricing.ResolveInvalidationOutcome(&claimed[i], now, caller).Eligible() {
			revocable = append(revocable, claimed[i])
		}
	}

	mints, err := s.market.PaymentMints(ctx)
	if err != nil {
		return nil, err
	}
	return buildListings(revocable, mints, s.defaultUnit, now, caller), nil
}
