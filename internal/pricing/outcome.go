package pricing

import (
	"time"

	"rental-market-backend/internal/domain"
)

type OutcomeStatus string

const (
	OutcomeActive                  OutcomeStatus = "ACTIVE"
	OutcomeEligibleForInvalidation OutcomeStatus = "ELIGIBLE_FOR_INVALIDATION"
	OutcomeInvalidated             OutcomeStatus = "INVALIDATED"
)

type InvalidationReason string

const (
	ReasonCallerIsInvalidator InvalidationReason = "CALLER_IS_INVALIDATOR"
	ReasonExpired             InvalidationReason = "EXPIRED"
	ReasonUsagesExhausted     InvalidationReason = "USAGES_EXHAUSTED"
)

// Outcome tells a caller whether a revoke should be offered and what it
// would do to the token. It is advisory; nothing transitions here.
type Outcome struct {
	Status  OutcomeStatus           `json:"status"`
	Reasons []InvalidationReason    `json:"reasons,omitempty"`
	Method  domain.InvalidationType `json:"method"`
}

func (o Outcome) Eligible() bool {
	return o.Status == OutcomeEligibleForInvalidation
}

// ResolveInvalidationOutcome evaluates the token against now and the caller's
// address. An empty caller only considers time and usage limits.
func ResolveInvalidationOutcome(token *domain.TokenRecord, now time.Time, caller string) Outcome {
	method := token.InvalidationType
	if method == "" {
		method = domain.InvalidationTypeReturn
	}

	if token.State == domain.TokenManagerStateInvalidated {
		return Outcome{Status: OutcomeInvalidated, Method: method}
	}

	var reasons []InvalidationReason
	if token.State == domain.TokenManagerStateClaimed && token.HasInvalidator(caller) {
		reasons = append(reasons, ReasonCallerIsInvalidator)
	}
	if ti := token.TimeInvalidator; ti != nil && ti.Expiration != nil && *ti.Expiration <= now.Unix() {
		reasons = append(reasons, ReasonExpired)
	}
	if ui := token.UseInvalidator; ui != nil && ui.MaxUsages != nil && ui.Usages >= *ui.MaxUsages {
		reasons = append(reasons, ReasonUsagesExhausted)
	}

	if len(reasons) == 0 {
		return Outcome{Status: OutcomeActive, Method: method}
	}
	return Outcome{Status: OutcomeEligibleForInvalidation, Reasons: reasons, Method: method}
}
