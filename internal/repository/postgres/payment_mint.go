package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"rental-market-backend/internal/domain"
	"rental-market-backend/internal/repository"
)

type paymentMintRepository struct {
	db *sql.DB
}

func NewPaymentMintRepository(db *sql.DB) repository.PaymentMintRepository {
	return &paymentMintRepository{db: db}
}

func (r *paymentMintRepository) Upsert(ctx context.Context, mints []domain.PaymentMintInfo) error {
	if len(mints) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO payment_mints (mint, symbol, decimals) VALUES ($1, $2, $3)
	          ON CONFLICT (mint) DO UPDATE SET symbol = EXCLUDED.symbol, decimals = EXCLUDED.decimals`
	for _, m := range mints {
		if _, err := tx.ExecContext(ctx, query, m.Mint, m.Symbol, int16(m.Decimals)); err != nil {
			return fmt.Errorf("upsert payment mint %s: %w", m.Mint, err)
		}
	}
	return tx.Commit()
}

func (r *paymentMintRepository) List(ctx context.Context) (domain.PaymentMints, error) {
	query := `SELECT mint, COALESCE(symbol, ''), decimals FROM payment_mints`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mints := domain.PaymentMints{}
	for rows.Next() {
		var m domain.PaymentMintInfo
		if err := rows.Scan(&m.Mint, &m.Symbol, &m.Decimals); err != nil {
			return nil, err
		}
		mints[m.Mint] = m
	}
	return mints, rows.Err()
}
