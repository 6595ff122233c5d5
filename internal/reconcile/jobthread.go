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

// recentLookback bounds the parent-channel scan for the thread-created
// system notice.
const recentLookback = 10

// JobThreads keeps one thread per open job inside the owning client's
// channel, with a card message kept up to date inside the thread.
type JobThreads struct {
	store store.Store
	pf    platform.Client
	log   zerolog.Logger
}

func NewJobThreads(st store.Store, pf platform.Client, log zerolog.Logger) *JobThreads {
	return &JobThreads{store: st, pf: pf, log: log}
}

// Ensure resolves the job's thread under channel and its card message,
// creating what is missing and updating j's Discord IDs in place. The thread
// ID is persisted the moment the thread exists, before any card work, so a
// crash cannot orphan a thread.
func (jt *JobThreads) Ensure(ctx context.Context, c domain.Client, channel *platform.Channel, j *domain.Job) Report {
	if channel == nil || j == nil {
		return failed("job", safeJobID(j), fmt.Errorf("%w: job thread needs a channel and a job", ErrValidation))
	}

	outcome := OutcomeUnchanged

	thread, err := jt.resolveThread(ctx, j)
	if err != nil {
		return failed("job", j.ID, err)
	}
	if thread == nil {
		thread, err = jt.createThread(ctx, channel, j)
		if err != nil {
			return failed("job", j.ID, err)
		}
		outcome = OutcomeCreated
	}

	cardOutcome, err := jt.ensureCard(ctx, thread, j, c)
	if err != nil {
		return failed("job", j.ID, err)
	}
	if outcome == OutcomeUnchanged {
		outcome = cardOutcome
	}
	return done("job", j.ID, outcome)
}

// resolveThread returns the stored thread if it still exists, unarchiving it
// when needed, or nil when a new one must be created.
func (jt *JobThreads) resolveThread(ctx context.Context, j *domain.Job) (*platform.Channel, error) {
	if j.ThreadID == "" {
		return nil, nil
	}
	thread, err := jt.pf.Thread(ctx, j.ThreadID)
	if errors.Is(err, platform.ErrNotFound) {
		jt.log.Info().Str("job", j.ID).Str("thread", j.ThreadID).Msg("stored thread is gone, recreating")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch thread %s: %w", j.ThreadID, err)
	}
	if thread.Archived {
		unarchived := false
		thread, err = jt.pf.EditChannel(ctx, thread.ID, platform.ChannelEdit{Archived: &unarchived})
		if err != nil {
			return nil, fmt.Errorf("unarchive thread %s: %w", j.ThreadID, err)
		}
	}
	return thread, nil
}

func (jt *JobThreads) createThread(ctx context.Context, channel *platform.Channel, j *domain.Job) (*platform.Channel, error) {
	name := ThreadName(*j)
	thread, err := jt.pf.CreateThread(ctx, channel.ID, name)
	if err != nil {
		return nil, fmt.Errorf("create thread %q: %w", name, err)
	}
	j.ThreadID = thread.ID
	if err := jt.store.SetJobThread(ctx, j.ID, thread.ID, ""); err != nil {
		return nil, fmt.Errorf("persist thread id for %s: %w", j.ID, err)
	}

	// Discord posts a "started a thread" notice into the parent channel;
	// remove it so client channels stay card-only. Cosmetic, never fatal.
	jt.deleteThreadNotice(ctx, channel.ID, name)

	return thread, nil
}

func (jt *JobThreads) deleteThreadNotice(ctx context.Context, channelID, threadName string) {
	msgs, err := jt.pf.RecentMessages(ctx, channelID, recentLookback)
	if err != nil {
		jt.log.Warn().Err(err).Str("channel", channelID).Msg("could not scan for thread notice")
		return
	}
	self := jt.pf.BotUserID()
	for _, m := range msgs {
		if m.System && m.AuthorID == self && m.Content == threadName {
			if err := jt.pf.DeleteMessage(ctx, channelID, m.ID); err != nil {
				jt.log.Warn().Err(err).Str("channel", channelID).Msg("could not delete thread notice")
			}
			return
		}
	}
}

// ensureCard verifies the stored card message and edits it, or sends a fresh
// one when the message is gone. A transient fetch failure is returned as an
// error rather than treated as missing, so a flaky read cannot duplicate the
// card.
func (jt *JobThreads) ensureCard(ctx context.Context, thread *platform.Channel, j *domain.Job, c domain.Client) (Outcome, error) {
	content := renderJobCard(*j, c)

	if j.ThreadCardMessageID != "" {
		existing, err := jt.pf.Message(ctx, thread.ID, j.ThreadCardMessageID)
		switch {
		case err == nil:
			if existing.Content == content {
				return OutcomeUnchanged, nil
			}
			if _, err := jt.pf.EditMessage(ctx, thread.ID, j.ThreadCardMessageID, content); err != nil {
				return OutcomeFailed, fmt.Errorf("edit job card: %w", err)
			}
			return OutcomeRepaired, nil
		case errors.Is(err, platform.ErrNotFound):
			// Card deleted out from under us; send a new one.
		default:
			return OutcomeFailed, fmt.Errorf("fetch job card: %w", err)
		}
	}

	sent, err := jt.pf.SendMessage(ctx, thread.ID, content)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("send job card: %w", err)
	}
	j.ThreadCardMessageID = sent.ID
	if err := jt.store.SetJobThread(ctx, j.ID, j.ThreadID, sent.ID); err != nil {
		return OutcomeFailed, fmt.Errorf("persist card id for %s: %w", j.ID, err)
	}
	return OutcomeCreated, nil
}

func safeJobID(j *domain.Job) string {
	if j == nil {
		return ""
	}
	return j.ID
}
