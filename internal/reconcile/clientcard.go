package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/crewdesk/crewdesk/internal/domain"
	"github.com/crewdesk/crewdesk/internal/platform"
	"github.com/crewdesk/crewdesk/internal/store"
)

// ClientCards keeps one channel and one card message per client. Resolved
// Discord IDs are written back to the store as soon as they are known, so a
// partial run leaves breadcrumbs instead of orphans.
type ClientCards struct {
	store    store.Store
	pf       platform.Client
	resolver *Resolver
	threads  *JobThreads
	guildID  string
	log      zerolog.Logger
}

func NewClientCards(st store.Store, pf platform.Client, resolver *Resolver, threads *JobThreads, guildID string, log zerolog.Logger) *ClientCards {
	return &ClientCards{store: st, pf: pf, resolver: resolver, threads: threads, guildID: guildID, log: log}
}

// Ensure reconciles one client's channel and card. jobs is the full job
// list; threads for the client's open jobs are ensured first so the card's
// links resolve. c and the relevant jobs entries are updated in place with
// any IDs assigned along the way.
func (cc *ClientCards) Ensure(ctx context.Context, c *domain.Client, jobs []domain.Job) Report {
	if c == nil {
		return failed("client", "", fmt.Errorf("%w: nil client", ErrValidation))
	}

	channel, created, err := cc.resolver.EnsureClientChannel(ctx, *c)
	if err != nil {
		return failed("client", c.ID, err)
	}
	outcome := OutcomeUnchanged
	if created {
		outcome = OutcomeCreated
	}

	if c.ChannelID != channel.ID {
		if err := cc.store.SetClientChannel(ctx, c.ID, channel.ID, c.CardMessageID); err != nil {
			return failed("client", c.ID, fmt.Errorf("persist channel id: %w", err))
		}
		c.ChannelID = channel.ID
		if outcome == OutcomeUnchanged {
			outcome = OutcomeRepaired
		}
	}

	// Threads first so the card can link them. A job whose thread fails is
	// rendered unlinked; its own reconciliation pass reports the failure.
	for i := range jobs {
		j := &jobs[i]
		if j.ClientID != c.ID || !j.IsOpen() || j.ThreadID != "" {
			continue
		}
		if rep := cc.threads.Ensure(ctx, *c, channel, j); rep.Failed() {
			cc.log.Warn().Err(rep.Err).Str("client", c.ID).Str("job", j.ID).
				Msg("could not ensure thread for card link")
		}
	}

	cardOutcome, err := cc.ensureCard(ctx, c, channel, jobs)
	if err != nil {
		return failed("client", c.ID, err)
	}
	if outcome == OutcomeUnchanged {
		outcome = cardOutcome
	}
	return done("client", c.ID, outcome)
}

func (cc *ClientCards) ensureCard(ctx context.Context, c *domain.Client, channel *platform.Channel, jobs []domain.Job) (Outcome, error) {
	content := renderClientCard(*c, jobs, cc.guildID)

	if c.CardMessageID != "" {
		existing, err := cc.pf.Message(ctx, channel.ID, c.CardMessageID)
		switch {
		case err == nil:
			if existing.Content == content {
				return OutcomeUnchanged, nil
			}
			if _, err := cc.pf.EditMessage(ctx, channel.ID, c.CardMessageID, content); err != nil {
				return OutcomeFailed, fmt.Errorf("edit client card: %w", err)
			}
			return OutcomeRepaired, nil
		case errors.Is(err, platform.ErrNotFound):
			// Card was deleted; replace it.
		default:
			return OutcomeFailed, fmt.Errorf("fetch client card: %w", err)
		}
	}

	sent, err := cc.pf.SendMessage(ctx, channel.ID, content)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("send client card: %w", err)
	}
	c.CardMessageID = sent.ID
	if err := cc.store.SetClientChannel(ctx, c.ID, channel.ID, sent.ID); err != nil {
		return OutcomeFailed, fmt.Errorf("persist card id: %w", err)
	}
	return OutcomeCreated, nil
}
