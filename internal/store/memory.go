package store

import (
	"context"
	"sync"
	"time"

	"github.com/crewdesk/crewdesk/internal/domain"
)

// Memory is an in-memory Store used by tests and the smoke CLI. It is safe
// for concurrent use and mimics the Sheets backend's row semantics: reads
// return copies in insertion order, updates merge onto the stored row.
type Memory struct {
	mu       sync.Mutex
	clients  []domain.Client
	jobs     []domain.Job
	tasks    []domain.Task
	invoices []domain.Invoice

	// Now supplies timestamps; overridable in tests.
	Now func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{Now: time.Now}
}

func (m *Memory) ListClients(context.Context) ([]domain.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Client, len(m.clients))
	copy(out, m.clients)
	return out, nil
}

func (m *Memory) CreateClient(_ context.Context, c domain.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients = append(m.clients, c)
	return nil
}

func (m *Memory) UpdateClient(_ context.Context, id string, patch ClientPatch) (*domain.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.clients {
		if m.clients[i].ID == id {
			patch.apply(&m.clients[i])
			c := m.clients[i]
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) SetClientChannel(_ context.Context, id, channelID, cardMessageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.clients {
		if m.clients[i].ID == id {
			m.clients[i].ChannelID = channelID
			m.clients[i].CardMessageID = cardMessageID
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) ListJobs(context.Context) ([]domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Job, len(m.jobs))
	copy(out, m.jobs)
	return out, nil
}

func (m *Memory) CreateJob(_ context.Context, j domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, j)
	return nil
}

func (m *Memory) UpdateJob(_ context.Context, id string, patch JobPatch) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.jobs {
		if m.jobs[i].ID == id {
			patch.apply(&m.jobs[i])
			j := m.jobs[i]
			return &j, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) SetJobThread(_ context.Context, id, threadID, cardMessageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.jobs {
		if m.jobs[i].ID == id {
			m.jobs[i].ThreadID = threadID
			m.jobs[i].ThreadCardMessageID = cardMessageID
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) ListTasks(context.Context) ([]domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Task, len(m.tasks))
	copy(out, m.tasks)
	return out, nil
}

func (m *Memory) CreateTask(_ context.Context, t domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, t)
	return nil
}

func (m *Memory) UpdateTask(_ context.Context, id string, patch TaskPatch) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			patch.apply(&m.tasks[i], m.Now())
			t := m.tasks[i]
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) DeleteTasksForJobs(_ context.Context, jobIDs []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doomed := make(map[string]bool, len(jobIDs))
	for _, id := range jobIDs {
		doomed[id] = true
	}
	var kept []domain.Task
	deleted := 0
	for _, t := range m.tasks {
		if doomed[t.JobID] {
			deleted++
			continue
		}
		kept = append(kept, t)
	}
	m.tasks = kept
	return deleted, nil
}

func (m *Memory) ListInvoices(context.Context) ([]domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Invoice, len(m.invoices))
	copy(out, m.invoices)
	return out, nil
}

func (m *Memory) CreateInvoice(_ context.Context, inv domain.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv.Total = inv.Sum()
	m.invoices = append(m.invoices, inv)
	return nil
}

func (m *Memory) UpdateInvoice(_ context.Context, id string, patch InvoicePatch) (*domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.invoices {
		if m.invoices[i].ID == id {
			patch.apply(&m.invoices[i])
			inv := m.invoices[i]
			return &inv, nil
		}
	}
	return nil, ErrNotFound
}
