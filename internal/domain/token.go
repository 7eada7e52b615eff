package domain

import "time"

type TokenManagerState string

const (
	TokenManagerStateInitialized TokenManagerState = "INITIALIZED"
	TokenManagerStateIssued      TokenManagerState = "ISSUED"
	TokenManagerStateClaimed     TokenManagerState = "CLAIMED"
	TokenManagerStateInvalidated TokenManagerState = "INVALIDATED"
)

// InvalidationType is what happens to the token once a rental is invalidated.
type InvalidationType string

const (
	InvalidationTypeReturn     InvalidationType = "RETURN"     // token goes back to the issuer
	InvalidationTypeInvalidate InvalidationType = "INVALIDATE" // token stays with the renter, marked invalid
	InvalidationTypeRelease    InvalidationType = "RELEASE"    // renter keeps the token outright
)

// ClaimApprover holds the price required to claim a token.
type ClaimApprover struct {
	PaymentMint   string `json:"payment_mint" validate:"required"`
	PaymentAmount uint64 `json:"payment_amount"`
}

// TimeInvalidator holds the time-based expiry and optional paid extension terms.
// A DurationSeconds of zero puts the token in rate mode.
type TimeInvalidator struct {
	DurationSeconds          *int64  `json:"duration_seconds,omitempty"`
	Expiration               *int64  `json:"expiration,omitempty"`
	MaxExpiration            *int64  `json:"max_expiration,omitempty"`
	ExtensionPaymentAmount   *uint64 `json:"extension_payment_amount,omitempty"`
	ExtensionPaymentMint     *string `json:"extension_payment_mint,omitempty"`
	ExtensionDurationSeconds *int64  `json:"extension_duration_seconds,omitempty"`
	DisablePartialExtension  bool    `json:"disable_partial_extension"`
}

// IsRateMode reports whether the token is priced by its extension terms.
func (t *TimeInvalidator) IsRateMode() bool {
	return t != nil && t.DurationSeconds != nil && *t.DurationSeconds == 0
}

type UseInvalidator struct {
	Usages    uint64  `json:"usages"`
	MaxUsages *uint64 `json:"max_usages,omitempty"`
}

type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

type TokenMetadata struct {
	Name       string      `json:"name"`
	Symbol     string      `json:"symbol"`
	Image      string      `json:"image"`
	Attributes []Attribute `json:"attributes"`
}

// TokenRecord is a read-only snapshot of an on-chain token manager and its
// invalidator accounts, as pushed by the indexer.
type TokenRecord struct {
	Address          string            `json:"address" validate:"required"`
	Mint             string            `json:"mint" validate:"required"`
	Issuer           string            `json:"issuer" validate:"required"`
	Recipient        string            `json:"recipient,omitempty"`
	State            TokenManagerState `json:"state" validate:"required,oneof=INITIALIZED ISSUED CLAIMED INVALIDATED"`
	StateChangedAt   int64             `json:"state_changed_at" validate:"gte=0"`
	InvalidationType InvalidationType  `json:"invalidation_type" validate:"omitempty,oneof=RETURN INVALIDATE RELEASE"`
	Invalidators     []string          `json:"invalidators"`
	ClaimApprover    *ClaimApprover    `json:"claim_approver,omitempty"`
	TimeInvalidator  *TimeInvalidator  `json:"time_invalidator,omitempty"`
	UseInvalidator   *UseInvalidator   `json:"use_invalidator,omitempty"`
	Metadata         TokenMetadata     `json:"metadata"`
	EligibleSince    *time.Time        `json:"eligible_since,omitempty"`
	UpdatedOn        time.Time         `json:"updated_on"`
}

// HasInvalidator reports whether addr may force-invalidate the token.
func (t *TokenRecord) HasInvalidator(addr string) bool {
	if addr == "" {
		return false
	}
	for _, inv := range t.Invalidators {
		if inv == addr {
			return true
		}
	}
	return false
}
