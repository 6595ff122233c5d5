package store

import (
	"time"

	"github.com/crewdesk/crewdesk/internal/domain"
)

// ClientPatch is a partial client update. Nil fields are left untouched.
type ClientPatch struct {
	Code          *string
	Name          *string
	ContactName   *string
	ContactMethod *string
	Description   *string
	Notes         *string
	Active        *string
	Archived      *bool
	ChannelID     *string
	CardMessageID *string
}

func (p ClientPatch) apply(c *domain.Client) {
	setString(&c.Code, p.Code)
	setString(&c.Name, p.Name)
	setString(&c.ContactName, p.ContactName)
	setString(&c.ContactMethod, p.ContactMethod)
	setString(&c.Description, p.Description)
	setString(&c.Notes, p.Notes)
	setString(&c.Active, p.Active)
	if p.Archived != nil {
		c.Archived = *p.Archived
	}
	setString(&c.ChannelID, p.ChannelID)
	setString(&c.CardMessageID, p.CardMessageID)
}

// JobPatch is a partial job update. Nil fields are left untouched.
type JobPatch struct {
	Title               *string
	Status              *string
	Description         *string
	Priority            *string
	AssigneeID          *string
	Deadline            *string
	Budget              *float64
	Notes               *string
	ThreadID            *string
	ThreadCardMessageID *string
}

func (p JobPatch) apply(j *domain.Job) {
	setString(&j.Title, p.Title)
	setString(&j.Status, p.Status)
	setString(&j.Description, p.Description)
	setString(&j.Priority, p.Priority)
	setString(&j.AssigneeID, p.AssigneeID)
	setString(&j.Deadline, p.Deadline)
	if p.Budget != nil {
		j.Budget = *p.Budget
	}
	setString(&j.Notes, p.Notes)
	setString(&j.ThreadID, p.ThreadID)
	setString(&j.ThreadCardMessageID, p.ThreadCardMessageID)
}

// TaskPatch is a partial task update. Nil fields are left untouched.
// Marking a task completed stamps CompletedAt if it is not already set.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *string
	AssigneeID  *string
	Deadline    *string
	Priority    *string
}

func (p TaskPatch) apply(t *domain.Task, now time.Time) {
	setString(&t.Title, p.Title)
	setString(&t.Description, p.Description)
	setString(&t.Status, p.Status)
	setString(&t.AssigneeID, p.AssigneeID)
	setString(&t.Deadline, p.Deadline)
	setString(&t.Priority, p.Priority)
	if t.Status == domain.TaskCompleted && t.CompletedAt == "" {
		t.CompletedAt = now.UTC().Format(time.RFC3339)
	}
}

// InvoicePatch is a partial invoice update. Nil fields are left untouched.
// Updating LineItems recomputes Total; Total itself is never patchable
// because it is derived state.
type InvoicePatch struct {
	Status    *string
	DueAt     *string
	Notes     *string
	Terms     *string
	LineItems *[]domain.LineItem
}

func (p InvoicePatch) apply(inv *domain.Invoice) {
	setString(&inv.Status, p.Status)
	setString(&inv.DueAt, p.DueAt)
	setString(&inv.Notes, p.Notes)
	setString(&inv.Terms, p.Terms)
	if p.LineItems != nil {
		items := *p.LineItems
		if len(items) > domain.MaxLineItems {
			items = items[:domain.MaxLineItems]
		}
		inv.LineItems = items
		inv.Total = inv.Sum()
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// String returns a pointer to s, for building patches inline.
func String(s string) *string { return &s }

// Float returns a pointer to f, for building patches inline.
func Float(f float64) *float64 { return &f }

// Bool returns a pointer to b, for building patches inline.
func Bool(b bool) *bool { return &b }
