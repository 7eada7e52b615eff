package repository

import (
	"context"
	"time"

	"rental-market-backend/internal/domain"
)

type TokenRepository interface {
	// Upsert writes the snapshots in one transaction. A state change clears
	// the eligibility flag.
	Upsert(ctx context.Context, tokens []domain.TokenRecord) error
	GetByAddress(ctx context.Context, address string) (*domain.TokenRecord, error)
	// ListListed returns Issued tokens. An empty issuers list matches all issuers.
	ListListed(ctx context.Context, issuers []string) ([]domain.TokenRecord, error)
	ListByIssuer(ctx context.Context, issuer string) ([]domain.TokenRecord, error)
	ListByState(ctx context.Context, state domain.TokenManagerState) ([]domain.TokenRecord, error)
	// MarkEligible flags tokens not yet flagged and returns the addresses it
	// changed, so concurrent sweeps never report the same token twice.
	MarkEligible(ctx context.Context, addresses []string, at time.Time) ([]string, error)
	DeleteInvalidatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type PaymentMintRepository interface {
	Upsert(ctx context.Context, mints []domain.PaymentMintInfo) error
	List(ctx context.Context) (domain.PaymentMints, error)
}

type RentalEventRepository interface {
	Create(ctx context.Context, events []domain.RentalEvent) error
	// Summary aggregates events. An empty issuers list matches all issuers.
	Summary(ctx context.Context, issuers []string) (*domain.RentalSummary, error)
}
