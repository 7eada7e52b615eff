package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"rental-market-backend/internal/domain"
	"rental-market-backend/internal/logger"
)

type notificationService struct {
	sender EmailSender
}

// NewNotificationService builds the revoke digest mailer. A nil sender
// disables delivery; digests are only logged.
func NewNotificationService(sender EmailSender) NotificationService {
	return &notificationService{sender: sender}
}

func (s *notificationService) SendRevokeDigest(ctx context.Context, collection domain.Collection, candidates []RevokeCandidate) error {
	if len(candidates) == 0 {
		return nil
	}
	name := collection.DisplayName
	if name == "" {
		name = collection.Name
	}
	if s.sender == nil || collection.NotifyEmail == "" {
		logger.Info("Revoke digest not delivered", "collection", name, "count", len(candidates))
		return nil
	}

	subject := fmt.Sprintf("%d rental(s) eligible for revoke in %s", len(candidates), name)
	plain, htmlBody := renderDigest(name, candidates)

	err := s.sender.Send(ctx, collection.NotifyEmail, subject, plain, htmlBody)
	logger.ExternalServiceResult("email", "SendRevokeDigest", err, "collection", name, "count", len(candidates))
	if err != nil {
		return fmt.Errorf("failed to send revoke digest for %s: %w", name, err)
	}
	return nil
}

func renderDigest(name string, candidates []RevokeCandidate) (string, string) {
	var plain, rich strings.Builder
	fmt.Fprintf(&plain, "The following rentals in %s can be revoked:\n\n", name)
	fmt.Fprintf(&rich, "<html><body><h2>Rentals eligible for revoke in %s</h2><ul>", html.EscapeString(name))

	for _, c := range candidates {
		label := c.Token.Metadata.Name
		if label == "" {
			label = c.Token.Address
		}
		reasons := make([]string, 0, len(c.Outcome.Reasons))
		for _, r := range c.Outcome.Reasons {
			reasons = append(reasons, string(r))
		}
		why := strings.Join(reasons, ", ")

		fmt.Fprintf(&plain, "- %s (%s): %s, revoke will %s\n", label, c.Token.Address, why, c.Outcome.Method)
		fmt.Fprintf(&rich, "<li><strong>%s</strong> (%s): %s, revoke will %s</li>",
			html.EscapeString(label), html.EscapeString(c.Token.Address), why, c.Outcome.Method)
	}

	rich.WriteString("</ul></body></html>")
	return plain.String(), rich.String()
}
