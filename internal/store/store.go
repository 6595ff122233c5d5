// Package store implements the record store for CRM entities. Google Sheets
// is the production backend and the system of record; an in-memory backend
// backs tests and dry runs.
//
// All operations are context-aware and fallible. Partial updates merge onto
// the existing row rather than replacing it, and report ErrNotFound when the
// target ID does not resolve (callers use that for existence checks). The
// store offers no row-level concurrency control: two racing writers to the
// same row are last-write-wins, and correctness under concurrent
// reconciliation runs rests on the idempotent find-or-create patterns built
// on top of this package, not on locking here.
package store

import (
	"context"
	"errors"

	"github.com/crewdesk/crewdesk/internal/domain"
)

// ErrNotFound is returned when a requested entity ID does not resolve.
var ErrNotFound = errors.New("store: entity not found")

// Store is the record-store contract the reconciliation core depends on.
type Store interface {
	ListClients(ctx context.Context) ([]domain.Client, error)
	CreateClient(ctx context.Context, c domain.Client) error
	UpdateClient(ctx context.Context, id string, patch ClientPatch) (*domain.Client, error)
	// SetClientChannel persists the reconciled Discord channel and card
	// message IDs for a client. Reconcilers call this immediately after
	// resolving either ID so the linkage survives process restarts.
	SetClientChannel(ctx context.Context, id, channelID, cardMessageID string) error

	ListJobs(ctx context.Context) ([]domain.Job, error)
	CreateJob(ctx context.Context, j domain.Job) error
	UpdateJob(ctx context.Context, id string, patch JobPatch) (*domain.Job, error)
	// SetJobThread persists the reconciled thread and thread-card message IDs
	// for a job. The thread ID is written before the card message exists, so
	// cardMessageID may be empty.
	SetJobThread(ctx context.Context, id, threadID, cardMessageID string) error

	ListTasks(ctx context.Context) ([]domain.Task, error)
	CreateTask(ctx context.Context, t domain.Task) error
	UpdateTask(ctx context.Context, id string, patch TaskPatch) (*domain.Task, error)
	// DeleteTasksForJobs removes every task whose JobID is in jobIDs and
	// returns the number deleted. Used by the garbage-collection pass for
	// terminal jobs; tasks are the only hard-deleted entity.
	DeleteTasksForJobs(ctx context.Context, jobIDs []string) (int, error)

	ListInvoices(ctx context.Context) ([]domain.Invoice, error)
	CreateInvoice(ctx context.Context, inv domain.Invoice) error
	UpdateInvoice(ctx context.Context, id string, patch InvoicePatch) (*domain.Invoice, error)
}

// CleanupTasksForClosedJobs deletes every task whose parent job has reached a
// terminal status. It returns the number of tasks removed.
func CleanupTasksForClosedJobs(ctx context.Context, s Store) (int, error) {
	jobs, err := s.ListJobs(ctx)
	if err != nil {
		return 0, err
	}
	var closed []string
	for _, j := range jobs {
		if j.IsTerminal() {
			closed = append(closed, j.ID)
		}
	}
	if len(closed) == 0 {
		return 0, nil
	}
	return s.DeleteTasksForJobs(ctx, closed)
}
