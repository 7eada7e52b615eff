package postgres

import (
	"context"
	"database/sql"

	"rental-market-backend/internal/repository"

	_ "github.com/lib/pq"
)

type Store struct {
	db *sql.DB
	repository.TokenRepository
	repository.PaymentMintRepository
	repository.RentalEventRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                    db,
		TokenRepository:       NewTokenRepository(db),
		PaymentMintRepository: NewPaymentMintRepository(db),
		RentalEventRepository: NewRentalEventRepository(db),
	}
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
