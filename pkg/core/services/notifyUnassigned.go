package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/jakechorley/hut-allocator/pkg/core/allocator"
	"github.com/jakechorley/hut-allocator/pkg/records"
)

// DefaultSubject is used when no notification subject is configured
const DefaultSubject = "Your hut reservation request"

// Mailer sends a plain text email
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// NotifyResult records who was emailed
type NotifyResult struct {
	Sent []string

	// NoContact lists unassigned requesters without an email address
	NoContact []string
}

// NotifyUnassigned emails every unassigned requester with a known address the alternatives
// found for them. A failed send does not stop the others; all failures are returned together.
func NotifyUnassigned(
	ctx context.Context,
	mailer Mailer,
	contacts records.Contacts,
	logger *zap.Logger,
	outcome *allocator.AllocationOutcome,
	subject string,
) (*NotifyResult, error) {
	if subject == "" {
		subject = DefaultSubject
	}

	result := &NotifyResult{}
	var errs error
	for _, alt := range outcome.Alternatives {
		if err := ctx.Err(); err != nil {
			return result, multierr.Append(errs, err)
		}

		to, ok := contacts[alt.RequesterID]
		if !ok {
			result.NoContact = append(result.NoContact, alt.RequesterID)
			logger.Debug("No email for requester", zap.String("requester", alt.RequesterID))
			continue
		}

		if err := mailer.SendEmail(ctx, to, subject, alternativesEmail(alt)); err != nil {
			logger.Error("Failed to notify requester", zap.String("requester", alt.RequesterID), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("failed to notify %s: %w", alt.RequesterID, err))
			continue
		}
		result.Sent = append(result.Sent, alt.RequesterID)
	}

	logger.Info("Notified unassigned requesters",
		zap.Int("sent", len(result.Sent)),
		zap.Int("no_contact", len(result.NoContact)),
		zap.Int("failed", len(multierr.Errors(errs))))

	return result, errs
}

// alternativesEmail renders the body sent to one unassigned requester
func alternativesEmail(alt allocator.Alternatives) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", alt.RequesterID)
	b.WriteString("Unfortunately none of your requested stays could be allocated this season.\n\n")

	if len(alt.Suggestions) == 0 {
		b.WriteString("We could not find an alternative with space for your party.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "The following alternatives have space for a party of %d:\n\n", alt.PartySize)
	for i, s := range alt.Suggestions {
		huts, dates := records.FormatStays(s.Stays)
		fmt.Fprintf(&b, "%d. %s: %s (%s)\n", i+1, huts, dates, s.Note)
	}
	b.WriteString("\nReply to this email if you would like to take one of them.\n")
	return b.String()
}
