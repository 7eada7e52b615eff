package jobs

import (
	"context"
	"fmt"
	"time"

	"rental-market-backend/internal/domain"
	"rental-market-backend/internal/logger"
	"rental-market-backend/internal/pricing"
	"rental-market-backend/internal/service"
)

// SweepInvalidations flags claimed tokens that anyone may now revoke and
// mails each collection operator a digest of the newly flagged ones.
func (jr *JobRunner) SweepInvalidations() {
	jr.runWithRecovery("SweepInvalidations", func() {
		flagged, err := jr.sweepInvalidations(context.Background())
		if err != nil {
			logger.Error("Failed to sweep invalidations", "error", err)
			return
		}
		logger.Info("Swept invalidations", "newly_eligible", flagged)
	})
}

func (jr *JobRunner) sweepInvalidations(ctx context.Context) (int, error) {
	claimed, err := jr.tokens.ListByState(ctx, domain.TokenManagerStateClaimed)
	if err != nil {
		return 0, fmt.Errorf("failed to list claimed tokens: %w", err)
	}

	now := jr.now()
	var fresh []service.RevokeCandidate
	for i := range claimed {
		token := claimed[i]
		if token.EligibleSince != nil {
			continue
		}
		// no caller: only conditions that let anyone revoke count here
		outcome := pricing.ResolveInvalidationOutcome(&token, now, "")
		if outcome.Eligible() {
			fresh = append(fresh, service.RevokeCandidate{Token: token, Outcome: outcome})
		}
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	addresses := make([]string, len(fresh))
	for i, c := range fresh {
		addresses[i] = c.Token.Address
	}
	flagged, err := jr.tokens.MarkEligible(ctx, addresses, now)
	if err != nil {
		return 0, fmt.Errorf("failed to mark eligible tokens: %w", err)
	}

	// another sweep may have flagged some of them first
	changed := make(map[string]bool, len(flagged))
	for _, a := range flagged {
		changed[a] = true
	}
	mine := fresh[:0]
	for _, c := range fresh {
		if changed[c.Token.Address] {
			mine = append(mine, c)
		}
	}

	jr.sendDigests(ctx, mine)
	return len(mine), nil
}

// sendDigests groups candidates by collection. Delivery failures are logged
// and do not undo the eligibility flags.
func (jr *JobRunner) sendDigests(ctx context.Context, candidates []service.RevokeCandidate) {
	if jr.services == nil || jr.services.Notification == nil {
		return
	}
	for _, col := range jr.collections() {
		var group []service.RevokeCandidate
		for _, c := range candidates {
			if col.Includes(c.Token.Issuer) {
				group = append(group, c)
			}
		}
		if len(group) == 0 {
			continue
		}
		if err := jr.services.Notification.SendRevokeDigest(ctx, col, group); err != nil {
			logger.Error("Failed to send revoke digest", "collection", col.Name, "error", err)
		}
	}
}

// PruneInvalidated deletes invalidated tokens older than the retention window
func (jr *JobRunner) PruneInvalidated() {
	jr.runWithRecovery("PruneInvalidated", func() {
		deleted, err := jr.pruneInvalidated(context.Background())
		if err != nil {
			logger.Error("Failed to prune invalidated tokens", "error", err)
			return
		}
		logger.Info("Pruned invalidated tokens", "count", deleted)
	})
}

func (jr *JobRunner) pruneInvalidated(ctx context.Context) (int64, error) {
	days := jr.config.Retention.InvalidatedDays
	if days <= 0 {
		return 0, nil
	}
	cutoff := jr.now().Add(-time.Duration(days) * 24 * time.Hour)
	return jr.tokens.DeleteInvalidatedBefore(ctx, cutoff)
}
