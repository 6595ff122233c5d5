// Package cache provides a read-through TTL cache over the record store.
// The Sheets API is slow and quota-bound, so list reads are cached per
// entity; every write through the cache invalidates the entity it touched,
// and callers that need ground truth (the sync orchestrator) call
// InvalidateAll first.
//
// The cache is an explicit object owned by the composition root: TTLs and
// the clock are injected, so tests construct isolated instances with frozen
// time instead of fighting a package-level singleton.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/crewdesk/crewdesk/internal/domain"
	"github.com/crewdesk/crewdesk/internal/store"
)

// entry caches one entity's list. The mutex is held across the refetch,
// which doubles as single-flight: concurrent readers of an expired entry
// wait for the one in-flight fetch instead of stampeding the API.
type entry[T any] struct {
	mu        sync.Mutex
	data      []T
	fetchedAt time.Time
	valid     bool
}

func (e *entry[T]) get(now time.Time, ttl time.Duration, fetch func() ([]T, error)) ([]T, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.valid && now.Sub(e.fetchedAt) < ttl {
		return e.data, nil
	}
	data, err := fetch()
	if err != nil {
		// Serve stale data over failing the caller; the next sync heals.
		if e.valid {
			return e.data, nil
		}
		return nil, err
	}
	e.data = data
	e.fetchedAt = now
	e.valid = true
	return data, nil
}

func (e *entry[T]) invalidate() {
	e.mu.Lock()
	e.valid = false
	e.data = nil
	e.mu.Unlock()
}

func (e *entry[T]) stats(now time.Time, ttl time.Duration) EntryStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := EntryStats{Cached: e.valid, Count: len(e.data)}
	if e.valid {
		s.Age = now.Sub(e.fetchedAt)
		s.Expired = s.Age >= ttl
	}
	return s
}

// EntryStats describes one cached entity list, for the ops status surface.
type EntryStats struct {
	Cached  bool          `json:"cached"`
	Count   int           `json:"count"`
	Age     time.Duration `json:"age_ns"`
	Expired bool          `json:"expired"`
}

// Store wraps a store.Store with per-entity TTL caching. It satisfies
// store.Store and is safe for concurrent use.
type Store struct {
	inner store.Store

	// TTL applies to clients, jobs, and tasks; InvoiceTTL to invoices
	// (which change less often and get a longer horizon).
	TTL        time.Duration
	InvoiceTTL time.Duration
	// Now supplies the clock; overridable in tests.
	Now func() time.Time

	clients  entry[domain.Client]
	jobs     entry[domain.Job]
	tasks    entry[domain.Task]
	invoices entry[domain.Invoice]
}

// New wraps inner with the given TTLs.
func New(inner store.Store, ttl, invoiceTTL time.Duration) *Store {
	return &Store{inner: inner, TTL: ttl, InvoiceTTL: invoiceTTL, Now: time.Now}
}

// InvalidateAll drops every cached list. The sync orchestrator calls this at
// the start of a run so reconciliation always works from ground truth.
func (s *Store) InvalidateAll() {
	s.clients.invalidate()
	s.jobs.invalidate()
	s.tasks.invalidate()
	s.invoices.invalidate()
}

// Stats reports per-entity cache state.
func (s *Store) Stats() map[string]EntryStats {
	now := s.Now()
	return map[string]EntryStats{
		"clients":  s.clients.stats(now, s.TTL),
		"jobs":     s.jobs.stats(now, s.TTL),
		"tasks":    s.tasks.stats(now, s.TTL),
		"invoices": s.invoices.stats(now, s.InvoiceTTL),
	}
}

func (s *Store) ListClients(ctx context.Context) ([]domain.Client, error) {
	return s.clients.get(s.Now(), s.TTL, func() ([]domain.Client, error) { return s.inner.ListClients(ctx) })
}

func (s *Store) CreateClient(ctx context.Context, c domain.Client) error {
	err := s.inner.CreateClient(ctx, c)
	s.clients.invalidate()
	return err
}

func (s *Store) UpdateClient(ctx context.Context, id string, patch store.ClientPatch) (*domain.Client, error) {
	c, err := s.inner.UpdateClient(ctx, id, patch)
	s.clients.invalidate()
	return c, err
}

func (s *Store) SetClientChannel(ctx context.Context, id, channelID, cardMessageID string) error {
	err := s.inner.SetClientChannel(ctx, id, channelID, cardMessageID)
	s.clients.invalidate()
	return err
}

func (s *Store) ListJobs(ctx context.Context) ([]domain.Job, error) {
	return s.jobs.get(s.Now(), s.TTL, func() ([]domain.Job, error) { return s.inner.ListJobs(ctx) })
}

func (s *Store) CreateJob(ctx context.Context, j domain.Job) error {
	err := s.inner.CreateJob(ctx, j)
	s.jobs.invalidate()
	return err
}

func (s *Store) UpdateJob(ctx context.Context, id string, patch store.JobPatch) (*domain.Job, error) {
	j, err := s.inner.UpdateJob(ctx, id, patch)
	s.jobs.invalidate()
	return j, err
}

func (s *Store) SetJobThread(ctx context.Context, id, threadID, cardMessageID string) error {
	err := s.inner.SetJobThread(ctx, id, threadID, cardMessageID)
	s.jobs.invalidate()
	return err
}

func (s *Store) ListTasks(ctx context.Context) ([]domain.Task, error) {
	return s.tasks.get(s.Now(), s.TTL, func() ([]domain.Task, error) { return s.inner.ListTasks(ctx) })
}

func (s *Store) CreateTask(ctx context.Context, t domain.Task) error {
	err := s.inner.CreateTask(ctx, t)
	s.tasks.invalidate()
	return err
}

func (s *Store) UpdateTask(ctx context.Context, id string, patch store.TaskPatch) (*domain.Task, error) {
	t, err := s.inner.UpdateTask(ctx, id, patch)
	s.tasks.invalidate()
	return t, err
}

func (s *Store) DeleteTasksForJobs(ctx context.Context, jobIDs []string) (int, error) {
	n, err := s.inner.DeleteTasksForJobs(ctx, jobIDs)
	s.tasks.invalidate()
	return n, err
}

func (s *Store) ListInvoices(ctx context.Context) ([]domain.Invoice, error) {
	return s.invoices.get(s.Now(), s.InvoiceTTL, func() ([]domain.Invoice, error) { return s.inner.ListInvoices(ctx) })
}

func (s *Store) CreateInvoice(ctx context.Context, inv domain.Invoice) error {
	err := s.inner.CreateInvoice(ctx, inv)
	s.invoices.invalidate()
	return err
}

func (s *Store) UpdateInvoice(ctx context.Context, id string, patch store.InvoicePatch) (*domain.Invoice, error) {
	inv, err := s.inner.UpdateInvoice(ctx, id, patch)
	s.invoices.invalidate()
	return inv, err
}
