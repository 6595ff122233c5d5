package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/crewdesk/crewdesk/internal/dates"
	"github.com/crewdesk/crewdesk/internal/domain"
	"github.com/crewdesk/crewdesk/internal/permission"
	"github.com/crewdesk/crewdesk/internal/store"
)

func (b *Bot) handleInvoice(ctx context.Context, ic *discordgo.InteractionCreate, _ permission.Tier) (string, error) {
	sub, opts := subcommand(ic.ApplicationCommandData())
	switch sub {
	case "create":
		return b.invoiceCreate(ctx, opts)
	case "edit":
		return b.invoiceEdit(ctx, opts)
	case "additem":
		return b.invoiceAddItem(ctx, opts)
	}
	return "", usererrf("Unknown subcommand.")
}

func (b *Bot) invoiceCreate(ctx context.Context, opts options) (string, error) {
	c, err := b.findClient(ctx, opts.str("client"))
	if err != nil {
		return "", err
	}
	jobID := opts.str("job")
	jobs, err := b.store.ListJobs(ctx)
	if err != nil {
		return "", err
	}
	var job *domain.Job
	for i := range jobs {
		if jobs[i].ID == jobID && jobs[i].ClientID == c.ID {
			job = &jobs[i]
			break
		}
	}
	if job == nil {
		return "", usererrf("Job `%s` not found for client %s.", jobID, c.Name)
	}

	due, ok := b.dates.ParseDay(opts.str("due"))
	if !ok {
		return "", usererrf("Could not understand the due date `%s`.", opts.str("due"))
	}

	id, err := store.NextInvoiceID(ctx, b.store)
	if err != nil {
		return "", err
	}
	inv := domain.Invoice{
		ID:         id,
		ClientCode: c.Code,
		ClientID:   c.ID,
		JobID:      job.ID,
		Status:     domain.InvoiceDraft,
		DueAt:      due,
		Notes:      opts.str("notes"),
		Terms:      opts.str("terms"),
		IssuedAt:   time.Now().UTC().Format(dates.DayFormat),
	}
	if err := b.store.CreateInvoice(ctx, inv); err != nil {
		return "", err
	}
	b.queue.Enqueue("mutation")
	return fmt.Sprintf("✅ Created invoice `%s` for %s / `%s`, due %s. Add line items with `/invoice additem`.", inv.ID, c.Name, job.ID, due), nil
}

func (b *Bot) invoiceEdit(ctx context.Context, opts options) (string, error) {
	patch := store.InvoicePatch{}
	if v := opts.str("status"); v != "" {
		patch.Status = store.String(v)
	}
	if opts.has("due") {
		due, ok := b.dates.ParseDay(opts.str("due"))
		if !ok {
			return "", usererrf("Could not understand the due date `%s`.", opts.str("due"))
		}
		patch.DueAt = store.String(due)
	}
	if opts.has("notes") {
		patch.Notes = store.String(opts.str("notes"))
	}
	if opts.has("terms") {
		patch.Terms = store.String(opts.str("terms"))
	}

	inv, err := b.store.UpdateInvoice(ctx, opts.str("id"), patch)
	if err != nil {
		return "", err
	}
	b.queue.Enqueue("mutation")
	return fmt.Sprintf("✅ Updated invoice `%s` (%s, total $%.2f).", inv.ID, inv.Status, inv.Total), nil
}

func (b *Bot) invoiceAddItem(ctx context.Context, opts options) (string, error) {
	id := opts.str("id")
	desc := opts.str("description")
	price := opts.float("price")
	if desc == "" {
		return "", usererrf("Line item description must not be empty.")
	}

	invoices, err := b.store.ListInvoices(ctx)
	if err != nil {
		return "", err
	}
	for _, inv := range invoices {
		if inv.ID != id {
			continue
		}
		if len(inv.LineItems) >= domain.MaxLineItems {
			return "", usererrf("Invoice `%s` already has the maximum of %d line items.", id, domain.MaxLineItems)
		}
		items := append(append([]domain.LineItem(nil), inv.LineItems...), domain.LineItem{Description: desc, Price: price})
		updated, err := b.store.UpdateInvoice(ctx, id, store.InvoicePatch{LineItems: &items})
		if err != nil {
			return "", err
		}
		b.queue.Enqueue("mutation")
		return fmt.Sprintf("✅ Added **%s** ($%.2f) to `%s`. New total $%.2f.", desc, price, updated.ID, updated.Total), nil
	}
	return "", store.ErrNotFound
}
