package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"rental-market-backend/internal/domain"
	"rental-market-backend/internal/logger"
	"rental-market-backend/internal/repository"

	"github.com/lib/pq"
)

const tokenColumns = `address, mint, issuer, COALESCE(recipient, ''), state, state_changed_at, invalidation_type, invalidators,
	claim_approver, time_invalidator, use_invalidator, COALESCE(name, ''), COALESCE(symbol, ''), COALESCE(image, ''), attributes,
	eligible_since, updated_on`

type tokenRepository struct {
	db *sql.DB
}

func NewTokenRepository(db *sql.DB) repository.TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Upsert(ctx context.Context, tokens []domain.TokenRecord) error {
	if len(tokens) == 0 {
		return nil
	}
	logger.EnterMethod("tokenRepository.Upsert", "count", len(tokens))

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO tokens (address, mint, issuer, recipient, state, state_changed_at, invalidation_type, invalidators,
	          claim_approver, time_invalidator, use_invalidator, name, symbol, image, attributes, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	          ON CONFLICT (address) DO UPDATE SET
	            mint = EXCLUDED.mint, issuer = EXCLUDED.issuer, recipient = EXCLUDED.recipient,
	            eligible_since = CASE WHEN tokens.state = EXCLUDED.state
	              AND tokens.time_invalidator IS NOT DISTINCT FROM EXCLUDED.time_invalidator
	              AND tokens.use_invalidator IS NOT DISTINCT FROM EXCLUDED.use_invalidator
	              THEN tokens.eligible_since ELSE NULL END,
	            state = EXCLUDED.state, state_changed_at = EXCLUDED.state_changed_at,
	            invalidation_type = EXCLUDED.invalidation_type, invalidators = EXCLUDED.invalidators,
	            claim_approver = EXCLUDED.claim_approver, time_invalidator = EXCLUDED.time_invalidator,
	            use_invalidator = EXCLUDED.use_invalidator, name = EXCLUDED.name, symbol = EXCLUDED.symbol,
	            image = EXCLUDED.image, attributes = EXCLUDED.attributes, updated_on = EXCLUDED.updated_on`

	now := time.Now()
	for i := range tokens {
		t := &tokens[i]
		claim, err := jsonOrNull(t.ClaimApprover)
		if err != nil {
			return fmt.Errorf("token %s: %w", t.Address, err)
		}
		ti, err := jsonOrNull(t.TimeInvalidator)
		if err != nil {
			return fmt.Errorf("token %s: %w", t.Address, err)
		}
		ui, err := jsonOrNull(t.UseInvalidator)
		if err != nil {
			return fmt.Errorf("token %s: %w", t.Address, err)
		}
		attrs, err := json.Marshal(attributesOrEmpty(t.Metadata.Attributes))
		if err != nil {
			return fmt.Errorf("token %s: %w", t.Address, err)
		}

		_, err = tx.ExecContext(ctx, query,
			t.Address, t.Mint, t.Issuer, t.Recipient, t.State, t.StateChangedAt, t.InvalidationType, pq.Array(t.Invalidators),
			claim, ti, ui, t.Metadata.Name, t.Metadata.Symbol, t.Metadata.Image, attrs, now)
		if err != nil {
			err = fmt.Errorf("upsert token %s: %w", t.Address, err)
			logger.ExitMethodWithError("tokenRepository.Upsert", err)
			return err
		}
	}

	err = tx.Commit()
	logger.DatabaseResult("UPSERT", int64(len(tokens)), err, "table", "tokens")
	return err
}

func (r *tokenRepository) GetByAddress(ctx context.Context, address string) (*domain.TokenRecord, error) {
	query := `SELECT ` + tokenColumns + ` FROM tokens WHERE address = $1`
	t, err := scanToken(r.db.QueryRowContext(ctx, query, address))
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *tokenRepository) ListListed(ctx context.Context, issuers []string) ([]domain.TokenRecord, error) {
	query := `SELECT ` + tokenColumns + ` FROM tokens
	          WHERE state = $1 AND (cardinality($2::text[]) = 0 OR issuer = ANY($2))
	          ORDER BY address`
	return r.list(ctx, query, domain.TokenManagerStateIssued, pq.Array(nonNil(issuers)))
}

func (r *tokenRepository) ListByIssuer(ctx context.Context, issuer string) ([]domain.TokenRecord, error) {
	query := `SELECT ` + tokenColumns + ` FROM tokens WHERE issuer = $1 ORDER BY state_changed_at DESC, address`
	return r.list(ctx, query, issuer)
}

func (r *tokenRepository) ListByState(ctx context.Context, state domain.TokenManagerState) ([]domain.TokenRecord, error) {
	query := `SELECT ` + tokenColumns + ` FROM tokens WHERE state = $1 ORDER BY address`
	return r.list(ctx, query, state)
}

func (r *tokenRepository) MarkEligible(ctx context.Context, addresses []string, at time.Time) ([]string, error) {
	if len(addresses) == 0 {
		return nil, nil
	}
	query := `UPDATE tokens SET eligible_since = $1 WHERE address = ANY($2) AND eligible_since IS NULL
	          RETURNING address`
	logger.DatabaseCall("UPDATE", "tokens", "candidates", len(addresses))
	rows, err := r.db.QueryContext(ctx, query, at, pq.Array(addresses))
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return nil, err
	}
	defer rows.Close()

	var flagged []string
	for rows.Next() {
		var address string
		if err := rows.Scan(&address); err != nil {
			return nil, err
		}
		flagged = append(flagged, address)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.DatabaseResult("UPDATE", int64(len(flagged)), nil, "table", "tokens")
	return flagged, nil
}

func (r *tokenRepository) DeleteInvalidatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM tokens WHERE state = $1 AND updated_on < $2`
	logger.DatabaseCall("DELETE", "tokens", "cutoff", cutoff)
	res, err := r.db.ExecContext(ctx, query, domain.TokenManagerStateInvalidated, cutoff)
	if err != nil {
		logger.DatabaseResult("DELETE", 0, err)
		return 0, err
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("DELETE", n, err, "table", "tokens")
	return n, err
}

func (r *tokenRepository) list(ctx context.Context, query string, args ...interface{}) ([]domain.TokenRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []domain.TokenRecord
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, *t)
	}
	return tokens, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanToken(row rowScanner) (*domain.TokenRecord, error) {
	var (
		t                    domain.TokenRecord
		claim, ti, ui, attrs []byte
		eligibleSince        sql.NullTime
	)
	err := row.Scan(&t.Address, &t.Mint, &t.Issuer, &t.Recipient, &t.State, &t.StateChangedAt, &t.InvalidationType,
		pq.Array(&t.Invalidators), &claim, &ti, &ui, &t.Metadata.Name, &t.Metadata.Symbol, &t.Metadata.Image, &attrs,
		&eligibleSince, &t.UpdatedOn)
	if err != nil {
		return nil, err
	}

	if len(claim) > 0 {
		t.ClaimApprover = &domain.ClaimApprover{}
		if err := json.Unmarshal(claim, t.ClaimApprover); err != nil {
			return nil, fmt.Errorf("token %s claim_approver: %w", t.Address, err)
		}
	}
	if len(ti) > 0 {
		t.TimeInvalidator = &domain.TimeInvalidator{}
		if err := json.Unmarshal(ti, t.TimeInvalidator); err != nil {
			return nil, fmt.Errorf("token %s time_invalidator: %w", t.Address, err)
		}
	}
	if len(ui) > 0 {
		t.UseInvalidator = &domain.UseInvalidator{}
		if err := json.Unmarshal(ui, t.UseInvalidator); err != nil {
			return nil, fmt.Errorf("token %s use_invalidator: %w", t.Address, err)
		}
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &t.Metadata.Attributes); err != nil {
			return nil, fmt.Errorf("token %s attributes: %w", t.Address, err)
		}
	}
	if eligibleSince.Valid {
		at := eligibleSince.Time
		t.EligibleSince = &at
	}
	return &t, nil
}

// jsonOrNull marshals v, mapping a nil pointer to SQL NULL.
func jsonOrNull[T any](v *T) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func attributesOrEmpty(attrs []domain.Attribute) []domain.Attribute {
	if attrs == nil {
		return []domain.Attribute{}
	}
	return attrs
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
