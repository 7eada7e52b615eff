package domain

import "time"

type RentalEventKind string

const (
	RentalEventClaimed  RentalEventKind = "CLAIMED"
	RentalEventExtended RentalEventKind = "EXTENDED"
)

// RentalEvent records a claim or extension observed by the indexer.
type RentalEvent struct {
	ID              int64           `json:"id"`
	BatchID         string          `json:"batch_id"`
	TokenAddress    string          `json:"token_address" validate:"required"`
	Issuer          string          `json:"issuer" validate:"required"`
	Kind            RentalEventKind `json:"kind" validate:"required,oneof=CLAIMED EXTENDED"`
	PaymentMint     string          `json:"payment_mint" validate:"required"`
	PaymentAmount   uint64          `json:"payment_amount" validate:"lte=9223372036854775807"`
	DurationSeconds int64           `json:"duration_seconds" validate:"gte=0"`
	OccurredAt      time.Time       `json:"occurred_at" validate:"required"`
}

// RentalSummary aggregates rental events for a set of issuers.
type RentalSummary struct {
	TotalRentalCount    int64             `json:"total_rental_count"`
	TotalRentalDuration int64             `json:"total_rental_duration"`
	VolumeByMint        map[string]uint64 `json:"volume_by_mint"`
}
