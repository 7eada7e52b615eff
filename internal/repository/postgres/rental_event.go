package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"rental-market-backend/internal/domain"
	"rental-market-backend/internal/logger"
	"rental-market-backend/internal/repository"

	"github.com/lib/pq"
)

type rentalEventRepository struct {
	db *sql.DB
}

func NewRentalEventRepository(db *sql.DB) repository.RentalEventRepository {
	return &rentalEventRepository{db: db}
}

func (r *rentalEventRepository) Create(ctx context.Context, events []domain.RentalEvent) error {
	if len(events) == 0 {
		return nil
	}
	logger.EnterMethod("rentalEventRepository.Create", "count", len(events))

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO rental_events (batch_id, token_address, issuer, kind, payment_mint, payment_amount, duration_seconds, occurred_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	for i := range events {
		e := &events[i]
		err := tx.QueryRowContext(ctx, query, e.BatchID, e.TokenAddress, e.Issuer, e.Kind, e.PaymentMint, int64(e.PaymentAmount),
			e.DurationSeconds, e.OccurredAt).Scan(&e.ID)
		if err != nil {
			err = fmt.Errorf("insert rental event for %s: %w", e.TokenAddress, err)
			logger.ExitMethodWithError("rentalEventRepository.Create", err)
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	logger.ExitMethod("rentalEventRepository.Create", "batchID", events[0].BatchID)
	return nil
}

func (r *rentalEventRepository) Summary(ctx context.Context, issuers []string) (*domain.RentalSummary, error) {
	filter := pq.Array(nonNil(issuers))
	summary := &domain.RentalSummary{VolumeByMint: map[string]uint64{}}

	totalsQuery := `SELECT count(*), COALESCE(SUM(duration_seconds), 0) FROM rental_events
	                WHERE cardinality($1::text[]) = 0 OR issuer = ANY($1)`
	err := r.db.QueryRowContext(ctx, totalsQuery, filter).Scan(&summary.TotalRentalCount, &summary.TotalRentalDuration)
	if err != nil {
		return nil, err
	}

	volumeQuery := `SELECT payment_mint, COALESCE(SUM(payment_amount), 0) FROM rental_events
	                WHERE cardinality($1::text[]) = 0 OR issuer = ANY($1)
	                GROUP BY payment_mint`
	rows, err := r.db.QueryContext(ctx, volumeQuery, filter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			mint   string
			volume uint64
		)
		if err := rows.Scan(&mint, &volume); err != nil {
			return nil, err
		}
		summary.VolumeByMint[mint] = volume
	}
	return summary, rows.Err()
}
