package service

import (
	"context"
	"fmt"

	"rental-market-backend/internal/domain"
	"rental-market-backend/internal/logger"
	"rental-market-backend/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type UpsertTokensRequest struct {
	Tokens []domain.TokenRecord `json:"tokens" validate:"required,min=1,max=1000,dive"`
}

type UpsertPaymentMintsRequest struct {
	PaymentMints []domain.PaymentMintInfo `json:"payment_mints" validate:"required,min=1,max=1000,dive"`
}

type RecordEventsRequest struct {
	Events []domain.RentalEvent `json:"events" validate:"required,min=1,max=1000,dive"`
}

type IngestResult struct {
	BatchID  string `json:"batch_id"`
	Accepted int    `json:"accepted"`
}

type ingestService struct {
	tokenRepo repository.TokenRepository
	mintRepo  repository.PaymentMintRepository
	eventRepo repository.RentalEventRepository
	market    *MarketCache
	validate  *validator.Validate
}

func NewIngestService(
	tokenRepo repository.TokenRepository,
	mintRepo repository.PaymentMintRepository,
	eventRepo repository.RentalEventRepository,
	market *MarketCache,
) IngestService {
	return &ingestService{
		tokenRepo: tokenRepo,
		mintRepo:  mintRepo,
		eventRepo: eventRepo,
		market:    market,
		validate:  validator.New(),
	}
}

func (s *ingestService) UpsertTokens(ctx context.Context, clientID string, req *UpsertTokensRequest) (*IngestResult, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	batchID := uuid.NewString()
	logger.Info("Ingesting token snapshots", "client", clientID, "batchID", batchID, "count", len(req.Tokens))

	if err := s.tokenRepo.Upsert(ctx, req.Tokens); err != nil {
		return nil, fmt.Errorf("failed to store tokens: %w", err)
	}
	s.market.InvalidateTokens(ctx)
	return &IngestResult{BatchID: batchID, Accepted: len(req.Tokens)}, nil
}

func (s *ingestService) UpsertPaymentMints(ctx context.Context, clientID string, req *UpsertPaymentMintsRequest) (*IngestResult, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	batchID := uuid.NewString()
	logger.Info("Ingesting payment mints", "client", clientID, "batchID", batchID, "count", len(req.PaymentMints))

	if err := s.mintRepo.Upsert(ctx, req.PaymentMints); err != nil {
		return nil, fmt.Errorf("failed to store payment mints: %w", err)
	}
	s.market.InvalidatePaymentMints(ctx)
	return &IngestResult{BatchID: batchID, Accepted: len(req.PaymentMints)}, nil
}

func (s *ingestService) RecordEvents(ctx context.Context, clientID string, req *RecordEventsRequest) (*IngestResult, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	batchID := uuid.NewString()
	for i := range req.Events {
		req.Events[i].BatchID = batchID
	}
	logger.Info("Recording rental events", "client", clientID, "batchID", batchID, "count", len(req.Events))

	if err := s.eventRepo.Create(ctx, req.Events); err != nil {
		return nil, fmt.Errorf("failed to store rental events: %w", err)
	}
	return &IngestResult{BatchID: batchID, Accepted: len(req.Events)}, nil
}

func (s *ingestService) check(req interface{}) error {
	if req == nil {
		return fmt.Errorf("%w: empty request", ErrInvalidArgument)
	}
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return nil
}
