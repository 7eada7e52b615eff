package service

import (
	"context"
	"strings"
	"time"

	"rental-market-backend/internal/cache"
	"rental-market-backend/internal/domain"
	"rental-market-backend/internal/logger"
	"rental-market-backend/internal/repository"
)

const (
	listedKeyPrefix = "listed:"
	paymentMintsKey = "payment-mints"
)

// MarketCache fronts the repositories with cache-aside reads of the listed
// tokens per collection and of the payment mint table. Ingest invalidates it.
type MarketCache struct {
	tokenRepo   repository.TokenRepository
	mintRepo    repository.PaymentMintRepository
	tokens      cache.Cache[[]domain.TokenRecord]
	mints       cache.Cache[domain.PaymentMints]
	ttl         time.Duration
	seedMints   domain.PaymentMints
	collections map[string]domain.Collection
}

func NewMarketCache(
	tokenRepo repository.TokenRepository,
	mintRepo repository.PaymentMintRepository,
	tokens cache.Cache[[]domain.TokenRecord],
	mints cache.Cache[domain.PaymentMints],
	ttl time.Duration,
	seedMints domain.PaymentMints,
	collections map[string]domain.Collection,
) *MarketCache {
	return &MarketCache{
		tokenRepo:   tokenRepo,
		mintRepo:    mintRepo,
		tokens:      tokens,
		mints:       mints,
		ttl:         ttl,
		seedMints:   seedMints,
		collections: collections,
	}
}

// Collection resolves a collection by name. The empty name is the
// unscoped marketplace.
func (c *MarketCache) Collection(name string) (domain.Collection, error) {
	if name == "" {
		return domain.Collection{}, nil
	}
	col, ok := c.collections[strings.ToLower(name)]
	if !ok {
		return domain.Collection{}, ErrUnknownCollection
	}
	return col, nil
}

// Collections returns every configured collection.
func (c *MarketCache) Collections() []domain.Collection {
	out := make([]domain.Collection, 0, len(c.collections))
	for _, col := range c.collections {
		out = append(out, col)
	}
	return out
}

// Listed returns a private copy of the Issued tokens in the collection.
func (c *MarketCache) Listed(ctx context.Context, col domain.Collection) ([]domain.TokenRecord, error) {
	key := listedKeyPrefix + strings.ToLower(col.Name)
	tokens, err := cache.GetWithFetch(ctx, c.tokens, key, c.ttl, func(ctx context.Context) ([]domain.TokenRecord, error) {
		return c.tokenRepo.ListListed(ctx, col.Issuers)
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.TokenRecord, len(tokens))
	copy(out, tokens)
	return out, nil
}

// PaymentMints merges the stored mint table over the configured seed table.
func (c *MarketCache) PaymentMints(ctx context.Context) (domain.PaymentMints, error) {
	return cache.GetWithFetch(ctx, c.mints, paymentMintsKey, c.ttl, func(ctx context.Context) (domain.PaymentMints, error) {
		stored, err := c.mintRepo.List(ctx)
		if err != nil {
			return nil, err
		}
		merged := make(domain.PaymentMints, len(c.seedMints)+len(stored))
		for mint, info := range c.seedMints {
			merged[mint] = info
		}
		for mint, info := range stored {
			merged[mint] = info
		}
		return merged, nil
	})
}

func (c *MarketCache) InvalidateTokens(ctx context.Context) {
	keys := []string{listedKeyPrefix}
	for name := range c.collections {
		keys = append(keys, listedKeyPrefix+name)
	}
	err := c.tokens.Delete(ctx, keys...)
	logger.ExternalServiceResult("cache", "InvalidateTokens", err, "keys", len(keys))
}

func (c *MarketCache) InvalidatePaymentMints(ctx context.Context) {
	err := c.mints.Delete(ctx, paymentMintsKey)
	logger.ExternalServiceResult("cache", "InvalidatePaymentMints", err)
}
