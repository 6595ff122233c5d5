// Package domain defines the CRM entities mirrored between the record store
// (Google Sheets) and Discord: clients, jobs, tasks, and invoices.
//
// The record store is the sole owner of canonical entity state. Discord-side
// identifiers carried on these types (channel, thread, and message IDs) are
// caches of reconciliation results: they must always be re-derivable from
// entity identity if lost, and an empty value simply means "not reconciled
// yet" rather than "does not exist".
package domain

import "strings"

// Job status vocabulary. Completed and Closed are terminal: a job in either
// state disappears from boards and client cards, and its tasks are garbage
// collected on the next sync pass.
const (
	JobOpen       = "open"
	JobLead       = "lead"
	JobContracted = "contracted"
	JobInProgress = "in-progress"
	JobPending    = "pending"
	JobInvoiced   = "invoiced"
	JobCompleted  = "completed"
	JobClosed     = "closed"
)

// Task status vocabulary.
const (
	TaskOpen       = "open"
	TaskInProgress = "in-progress"
	TaskCompleted  = "completed"
)

// Invoice status vocabulary.
const (
	InvoiceDraft     = "draft"
	InvoiceSent      = "sent"
	InvoicePaid      = "paid"
	InvoiceOverdue   = "overdue"
	InvoiceCancelled = "cancelled"
)

// MaxLineItems caps the number of line items an invoice can carry; the
// spreadsheet layout reserves exactly this many description/price column
// pairs.
const MaxLineItems = 10

// Client is an agency client or, before conversion, a lead. A client is a
// lead while Active is anything other than "yes"; conversion to an active
// client is one-directional in the command surface.
//
// ChannelID and CardMessageID are either both empty or both set once the
// client's dedicated channel and card message exist (a card always lives in
// a channel).
type Client struct {
	ID            string
	Code          string
	Name          string
	ContactName   string
	ContactMethod string
	AuthCode      string
	ChannelID     string
	CardMessageID string
	Description   string
	Notes         string
	Active        string
	Archived      bool
	CreatedAt     string
}

// IsActive reports whether the client has been converted from a lead.
func (c Client) IsActive() bool { return strings.EqualFold(strings.TrimSpace(c.Active), "yes") }

// IsLead reports whether the client is still an unconverted inquiry.
func (c Client) IsLead() bool { return !c.Archived && c.Name != "" && !c.IsActive() }

// Job is a unit of client work. Its ID is derived as {clientCode}-{seq},
// zero-padded and sequential per client.
//
// ThreadID and ThreadCardMessageID follow the same both-or-neither rule as
// Client channel IDs. A job's thread lives inside its client's channel, so a
// client without a ChannelID cannot yet have job threads.
type Job struct {
	ID                  string
	ClientCode          string
	ClientID            string
	Title               string
	Status              string
	ThreadID            string
	ThreadCardMessageID string
	Description         string
	Priority            string
	AssigneeID          string
	Deadline            string
	Budget              float64
	Notes               string
	CreatedAt           string
}

// IsTerminal reports whether the job has reached a terminal status.
func (j Job) IsTerminal() bool { return j.Status == JobCompleted || j.Status == JobClosed }

// IsOpen reports whether the job should appear on boards and client cards.
func (j Job) IsOpen() bool { return !j.IsTerminal() }

// Task is a unit of work under a job, with ID {jobID}-T{seq}. Tasks never
// outlive their parent job's active lifetime: once the job reaches a terminal
// status the cleanup pass deletes them.
type Task struct {
	ID          string
	JobID       string
	Title       string
	Description string
	Status      string
	AssigneeID  string
	Deadline    string
	Priority    string
	CreatedAt   string
	CompletedAt string
}

// LineItem is a single billed line on an invoice.
type LineItem struct {
	Description string
	Price       float64
}

// Invoice bills a client for a job. Total is derived: it is recomputed from
// LineItems whenever they change and is never independently authoritative.
type Invoice struct {
	ID         string
	ClientCode string
	ClientID   string
	JobID      string
	Status     string
	DueAt      string
	Total      float64
	Notes      string
	Terms      string
	IssuedAt   string
	LineItems  []LineItem
}

// Sum returns the total of all line item prices.
func (i Invoice) Sum() float64 {
	var total float64
	for _, li := range i.LineItems {
		total += li.Price
	}
	return total
}

// IsSettled reports whether the invoice needs no further attention.
func (i Invoice) IsSettled() bool {
	return i.Status == InvoicePaid || i.Status == InvoiceCancelled
}
