package service

import (
	"context"
	"errors"

	"rental-market-backend/internal/domain"
	"rental-market-backend/internal/pricing"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrInvalidArgument   = errors.New("invalid argument")
)

type BrowseService interface {
	ListListings(ctx context.Context, query ListingQuery) (*ListingPage, error)
	GetListing(ctx context.Context, address, caller string, unit domain.RateUnit) (*Listing, error)
	Attributes(ctx context.Context, collection string) (map[string][]string, error)
	Stats(ctx context.Context, collection string) (*CollectionStats, error)
	PaymentMints(ctx context.Context) (domain.PaymentMints, error)
}

type ManageService interface {
	// ListIssued returns every token the issuer created, with the revoke
	// outcome as seen by caller.
	ListIssued(ctx context.Context, issuer, caller string) ([]Listing, error)
	// ListRevocable returns Claimed tokens the caller may invalidate now.
	ListRevocable(ctx context.Context, caller string) ([]Listing, error)
}

type IngestService interface {
	UpsertTokens(ctx context.Context, clientID string, req *UpsertTokensRequest) (*IngestResult, error)
	UpsertPaymentMints(ctx context.Context, clientID string, req *UpsertPaymentMintsRequest) (*IngestResult, error)
	RecordEvents(ctx context.Context, clientID string, req *RecordEventsRequest) (*IngestResult, error)
}

type NotificationService interface {
	SendRevokeDigest(ctx context.Context, collection domain.Collection, candidates []RevokeCandidate) error
}

// EmailSender delivers a single message. Implementations exist for SMTP and SendGrid.
type EmailSender interface {
	Send(ctx context.Context, to, subject, plainText, html string) error
}

// ListingQuery selects a page of listed tokens.
type ListingQuery struct {
	Collection string
	Order      pricing.OrderCategory
	Unit       domain.RateUnit
	Caller     string
	Attributes map[string][]string
	Page       int
	PageSize   int
}

type ListingPage struct {
	Listings   []Listing             `json:"listings"`
	Total      int                   `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	Order      pricing.OrderCategory `json:"order"`
	RateUnit   domain.RateUnit       `json:"rate_unit"`
	Collection string                `json:"collection,omitempty"`
}

type RevokeCandidate struct {
	Token   domain.TokenRecord
	Outcome pricing.Outcome
}
