// Package board renders the pinned dashboard messages: clients, jobs,
// tasks, invoices, leads, and the admin overview. Each board is a pure
// render over one data snapshot plus a shared refresher that finds or
// replaces the board's message in its channel.
package board

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/crewdesk/crewdesk/internal/domain"
	"github.com/crewdesk/crewdesk/internal/platform"
	"github.com/crewdesk/crewdesk/internal/reconcile"
	"github.com/crewdesk/crewdesk/internal/state"
)

// Snapshot is one consistent view of the store, taken at the start of a sync
// run and shared by every board so they cannot disagree with each other.
type Snapshot struct {
	GuildID  string
	Now      time.Time
	Clients  []domain.Client
	Jobs     []domain.Job
	Tasks    []domain.Task
	Invoices []domain.Invoice
}

func (s Snapshot) clientByID(id string) *domain.Client {
	for i := range s.Clients {
		if s.Clients[i].ID == id {
			return &s.Clients[i]
		}
	}
	return nil
}

func (s Snapshot) jobByID(id string) *domain.Job {
	for i := range s.Jobs {
		if s.Jobs[i].ID == id {
			return &s.Jobs[i]
		}
	}
	return nil
}

// activeClients are converted, non-archived clients.
func (s Snapshot) activeClients() []domain.Client {
	var out []domain.Client
	for _, c := range s.Clients {
		if c.IsActive() && !c.Archived {
			out = append(out, c)
		}
	}
	return out
}

// leads are named clients not yet converted.
func (s Snapshot) leads() []domain.Client {
	var out []domain.Client
	for _, c := range s.Clients {
		if c.IsLead() && !c.Archived {
			out = append(out, c)
		}
	}
	return out
}

func (s Snapshot) openJobs() []domain.Job {
	var out []domain.Job
	for _, j := range s.Jobs {
		if j.IsOpen() {
			out = append(out, j)
		}
	}
	return out
}

func (s Snapshot) activeTasks() []domain.Task {
	var out []domain.Task
	for _, t := range s.Tasks {
		if t.Status != domain.TaskCompleted {
			out = append(out, t)
		}
	}
	return out
}

// Board couples a persisted key with its channel and renderer.
type Board struct {
	Key     string
	Channel string
	Render  func(Snapshot) string
}

// All returns the six boards in refresh order.
func All() []Board {
	return []Board{
		{Key: "client", Channel: reconcile.ClientBoardChannel, Render: renderClientBoard},
		{Key: "job", Channel: reconcile.JobBoardChannel, Render: renderJobBoard},
		{Key: "task", Channel: reconcile.TaskBoardChannel, Render: renderTaskBoard},
		{Key: "invoice", Channel: reconcile.InvoiceBoardChannel, Render: renderInvoiceBoard},
		{Key: "lead", Channel: reconcile.LeadBoardChannel, Render: renderLeadBoard},
		{Key: "admin", Channel: reconcile.AdminBoardChannel, Render: renderAdminBoard},
	}
}

// Refresher reconciles board messages. The message ID for each (guild,
// board) pair lives in the local state database; a missing or deleted
// message is replaced and re-pinned.
type Refresher struct {
	db       *gorm.DB
	pf       platform.Client
	resolver *reconcile.Resolver
	guildID  string
	log      zerolog.Logger
}

func NewRefresher(db *gorm.DB, pf platform.Client, resolver *reconcile.Resolver, guildID string, log zerolog.Logger) *Refresher {
	return &Refresher{db: db, pf: pf, resolver: resolver, guildID: guildID, log: log}
}

// Refresh brings one board's message in line with the snapshot.
func (r *Refresher) Refresh(ctx context.Context, b Board, snap Snapshot) reconcile.Report {
	channel, err := r.resolver.EnsureBoardChannel(ctx, b.Channel)
	if err != nil {
		return reconcile.Report{Entity: "board", ID: b.Key, Outcome: reconcile.OutcomeFailed, Err: err}
	}

	content := b.Render(snap)

	msgID, err := state.GetBoardMessageID(ctx, r.db, r.guildID, b.Key)
	if err != nil && !errors.Is(err, state.ErrNotFound) {
		return r.fail(b, fmt.Errorf("load board message id: %w", err))
	}

	if msgID != "" {
		existing, err := r.pf.Message(ctx, channel.ID, msgID)
		switch {
		case err == nil:
			if existing.Content == content {
				return r.done(b, reconcile.OutcomeUnchanged)
			}
			if _, err := r.pf.EditMessage(ctx, channel.ID, msgID, content); err != nil {
				return r.fail(b, fmt.Errorf("edit board message: %w", err))
			}
			return r.done(b, reconcile.OutcomeRepaired)
		case errors.Is(err, platform.ErrNotFound):
			if err := state.ClearBoardMessageID(ctx, r.db, r.guildID, b.Key); err != nil {
				return r.fail(b, fmt.Errorf("clear stale board message id: %w", err))
			}
		default:
			return r.fail(b, fmt.Errorf("fetch board message: %w", err))
		}
	}

	sent, err := r.pf.SendMessage(ctx, channel.ID, content)
	if err != nil {
		return r.fail(b, fmt.Errorf("send board message: %w", err))
	}
	if err := state.SetBoardMessageID(ctx, r.db, r.guildID, b.Key, sent.ID); err != nil {
		return r.fail(b, fmt.Errorf("persist board message id: %w", err))
	}
	if err := r.pf.PinMessage(ctx, channel.ID, sent.ID); err != nil {
		r.log.Warn().Err(err).Str("board", b.Key).Msg("could not pin board message")
	}
	return r.done(b, reconcile.OutcomeCreated)
}

func (r *Refresher) done(b Board, o reconcile.Outcome) reconcile.Report {
	return reconcile.Report{Entity: "board", ID: b.Key, Outcome: o}
}

func (r *Refresher) fail(b Board, err error) reconcile.Report {
	return reconcile.Report{Entity: "board", ID: b.Key, Outcome: reconcile.OutcomeFailed, Err: err}
}
