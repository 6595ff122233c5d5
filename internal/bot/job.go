package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/crewdesk/crewdesk/internal/dates"
	"github.com/crewdesk/crewdesk/internal/domain"
	"github.com/crewdesk/crewdesk/internal/permission"
	"github.com/crewdesk/crewdesk/internal/store"
)

func (b *Bot) handleJob(ctx context.Context, ic *discordgo.InteractionCreate, _ permission.Tier) (string, error) {
	sub, opts := subcommand(ic.ApplicationCommandData())
	switch sub {
	case "create":
		return b.jobCreate(ctx, opts)
	case "edit":
		return b.jobEdit(ctx, opts)
	case "complete":
		return b.jobComplete(ctx, opts)
	}
	return "", usererrf("Unknown subcommand.")
}

// findClient resolves a client picker value, which is an ID from
// autocomplete but may be a hand-typed code.
func (b *Bot) findClient(ctx context.Context, ref string) (*domain.Client, error) {
	clients, err := b.store.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range clients {
		if c.ID == ref {
			return &c, nil
		}
	}
	for _, c := range clients {
		if strings.EqualFold(c.Code, ref) && !c.Archived {
			return &c, nil
		}
	}
	return nil, usererrf("Client `%s` not found.", ref)
}

// deadline parses an optional deadline option into a YYYY-MM-DD day.
func (b *Bot) deadline(opts options, name string) (*string, error) {
	if !opts.has(name) {
		return nil, nil
	}
	raw := opts.str(name)
	if raw == "" {
		return store.String(""), nil
	}
	day, ok := b.dates.ParseDay(raw)
	if !ok {
		return nil, usererrf("Could not understand the date `%s`. Try YYYY-MM-DD or something like \"next friday\".", raw)
	}
	return store.String(day), nil
}

func (b *Bot) jobCreate(ctx context.Context, opts options) (string, error) {
	title := opts.str("title")
	if title == "" {
		return "", usererrf("Job title must not be empty.")
	}
	c, err := b.findClient(ctx, opts.str("client"))
	if err != nil {
		return "", err
	}

	day, err := b.deadline(opts, "deadline")
	if err != nil {
		return "", err
	}

	id, err := store.NextJobID(ctx, b.store, c.ID, c.Code)
	if err != nil {
		return "", err
	}
	j := domain.Job{
		ID:          id,
		ClientCode:  c.Code,
		ClientID:    c.ID,
		Title:       title,
		Status:      domain.JobOpen,
		Description: opts.str("description"),
		Priority:    opts.str("priority"),
		AssigneeID:  opts.user("assignee"),
		Budget:      opts.float("budget"),
		CreatedAt:   time.Now().UTC().Format(dates.DayFormat),
	}
	if day != nil {
		j.Deadline = *day
	}
	if err := b.store.CreateJob(ctx, j); err != nil {
		return "", err
	}
	b.queue.Enqueue("mutation")
	return fmt.Sprintf("✅ Created job `%s` **%s** for %s. Its thread will appear shortly.", j.ID, j.Title, c.Name), nil
}

func (b *Bot) jobEdit(ctx context.Context, opts options) (string, error) {
	patch := store.JobPatch{}
	if v := opts.str("title"); v != "" {
		patch.Title = store.String(v)
	}
	if v := opts.str("status"); v != "" {
		patch.Status = store.String(v)
	}
	if v := opts.str("priority"); v != "" {
		patch.Priority = store.String(v)
	}
	if opts.has("description") {
		patch.Description = store.String(opts.str("description"))
	}
	if opts.has("notes") {
		patch.Notes = store.String(opts.str("notes"))
	}
	if opts.has("assignee") {
		patch.AssigneeID = store.String(opts.user("assignee"))
	}
	if opts.has("budget") {
		patch.Budget = store.Float(opts.float("budget"))
	}
	day, err := b.deadline(opts, "deadline")
	if err != nil {
		return "", err
	}
	patch.Deadline = day

	j, err := b.store.UpdateJob(ctx, opts.str("id"), patch)
	if err != nil {
		return "", err
	}
	b.queue.Enqueue("mutation")
	return fmt.Sprintf("✅ Updated job `%s` **%s**.", j.ID, j.Title), nil
}

func (b *Bot) jobComplete(ctx context.Context, opts options) (string, error) {
	j, err := b.store.UpdateJob(ctx, opts.str("id"), store.JobPatch{Status: store.String(domain.JobCompleted)})
	if err != nil {
		return "", err
	}
	b.queue.Enqueue("mutation")
	return fmt.Sprintf("✅ Completed job `%s` **%s**. Boards drop it and its tasks are collected on the next sync.", j.ID, j.Title), nil
}
