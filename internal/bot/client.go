package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/crewdesk/crewdesk/internal/dates"
	"github.com/crewdesk/crewdesk/internal/domain"
	"github.com/crewdesk/crewdesk/internal/permission"
	"github.com/crewdesk/crewdesk/internal/store"
)

func (b *Bot) handleClient(ctx context.Context, ic *discordgo.InteractionCreate, _ permission.Tier) (string, error) {
	sub, opts := subcommand(ic.ApplicationCommandData())
	switch sub {
	case "create":
		return b.clientCreate(ctx, opts)
	case "edit":
		return b.clientEdit(ctx, opts)
	case "convert":
		return b.clientConvert(ctx, opts)
	case "archive":
		return b.clientArchive(ctx, opts)
	}
	return "", usererrf("Unknown subcommand.")
}

func (b *Bot) clientCreate(ctx context.Context, opts options) (string, error) {
	name := opts.str("name")
	if name == "" {
		return "", usererrf("Client name must not be empty.")
	}
	existing, err := b.store.ListClients(ctx)
	if err != nil {
		return "", err
	}

	c := domain.Client{
		ID:            uuid.NewString(),
		Code:          store.ClientCode(name, existing),
		Name:          name,
		ContactName:   opts.str("contact_name"),
		ContactMethod: opts.str("contact_method"),
		AuthCode:      uuid.NewString(),
		Description:   opts.str("description"),
		Notes:         opts.str("notes"),
		Active:        "yes",
		CreatedAt:     time.Now().UTC().Format(dates.DayFormat),
	}
	if err := b.store.CreateClient(ctx, c); err != nil {
		return "", err
	}
	b.queue.Enqueue("mutation")
	return fmt.Sprintf("✅ Created client **%s** (code `%s`). Channel and card will appear shortly.", c.Name, c.Code), nil
}

func (b *Bot) clientEdit(ctx context.Context, opts options) (string, error) {
	patch := store.ClientPatch{}
	if v := opts.str("name"); v != "" {
		patch.Name = store.String(v)
	}
	if v := opts.str("contact_name"); v != "" {
		patch.ContactName = store.String(v)
	}
	if v := opts.str("contact_method"); v != "" {
		patch.ContactMethod = store.String(v)
	}
	if opts.has("description") {
		patch.Description = store.String(opts.str("description"))
	}
	if opts.has("notes") {
		patch.Notes = store.String(opts.str("notes"))
	}

	c, err := b.store.UpdateClient(ctx, opts.str("id"), patch)
	if err != nil {
		return "", err
	}
	b.queue.Enqueue("mutation")
	return fmt.Sprintf("✅ Updated client **%s** (`%s`).", c.Name, c.Code), nil
}

func (b *Bot) clientConvert(ctx context.Context, opts options) (string, error) {
	id := opts.str("id")
	clients, err := b.store.ListClients(ctx)
	if err != nil {
		return "", err
	}
	for _, c := range clients {
		if c.ID != id {
			continue
		}
		if c.IsActive() {
			return "", usererrf("**%s** is already an active client.", c.Name)
		}
		if _, err := b.store.UpdateClient(ctx, id, store.ClientPatch{Active: store.String("yes")}); err != nil {
			return "", err
		}
		b.queue.Enqueue("mutation")
		return fmt.Sprintf("✅ Converted **%s** to an active client. Channel and card will appear shortly.", c.Name), nil
	}
	return "", store.ErrNotFound
}

func (b *Bot) clientArchive(ctx context.Context, opts options) (string, error) {
	c, err := b.store.UpdateClient(ctx, opts.str("id"), store.ClientPatch{Archived: store.Bool(true)})
	if err != nil {
		return "", err
	}
	b.queue.Enqueue("mutation")
	return fmt.Sprintf("✅ Archived **%s**. The row is kept; boards drop it on the next sync.", c.Name), nil
}
