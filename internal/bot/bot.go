// Package bot hosts the Discord command surface: slash command definitions,
// interaction routing, autocomplete, and the thin handlers that translate
// interactions into record-store mutations. Handlers never touch Discord
// channels or boards directly; every mutation lands in the store and then
// nudges the sync queue, which owns all projection work.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/crewdesk/crewdesk/internal/dates"
	"github.com/crewdesk/crewdesk/internal/permission"
	"github.com/crewdesk/crewdesk/internal/store"
	crewsync "github.com/crewdesk/crewdesk/internal/sync"
)

// handlerTimeout bounds a single command handler, including the store reads
// and writes it performs. Only /sync gets longer, because it waits for a full
// reconciliation run.
const (
	handlerTimeout = 10 * time.Second
	syncTimeout    = 2 * time.Minute
)

// Bot wires a Discord gateway session to the record store and the sync queue.
type Bot struct {
	session *discordgo.Session
	store   store.Store
	queue   *crewsync.Queue
	oracle  *permission.Oracle
	dates   *dates.Parser
	guildID string
	log     zerolog.Logger
}

// New builds a Bot around an existing (not yet opened) session.
func New(session *discordgo.Session, s store.Store, queue *crewsync.Queue, oracle *permission.Oracle, parser *dates.Parser, guildID string, log zerolog.Logger) *Bot {
	return &Bot{
		session: session,
		store:   s,
		queue:   queue,
		oracle:  oracle,
		dates:   parser,
		guildID: guildID,
		log:     log.With().Str("component", "bot").Logger(),
	}
}

// Start registers the interaction handler and opens the gateway connection.
func (b *Bot) Start() error {
	b.session.AddHandler(b.onInteraction)
	b.session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("bot: open gateway: %w", err)
	}
	b.log.Info().Msg("gateway connected")
	return nil
}

// Close shuts down the gateway connection.
func (b *Bot) Close() error {
	return b.session.Close()
}

// DeployCommands registers the guild slash commands, replacing any previous
// set in one call.
func DeployCommands(session *discordgo.Session, appID, guildID string) error {
	_, err := session.ApplicationCommandBulkOverwrite(appID, guildID, Commands())
	if err != nil {
		return fmt.Errorf("bot: register commands: %w", err)
	}
	return nil
}

func (b *Bot) onInteraction(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	if ic.GuildID != b.guildID {
		return
	}
	switch ic.Type {
	case discordgo.InteractionApplicationCommand:
		b.onCommand(ic)
	case discordgo.InteractionApplicationCommandAutocomplete:
		b.onAutocomplete(ic)
	}
}

func (b *Bot) onCommand(ic *discordgo.InteractionCreate) {
	data := ic.ApplicationCommandData()
	tier := b.tierOf(ic)
	log := b.log.With().Str("command", data.Name).Str("user", callerID(ic)).Logger()

	if !tier.AtLeast(minTier(data.Name)) {
		b.respond(ic, "❌ You do not have permission to use this command.")
		return
	}

	// /sync waits for a full reconciliation run, which can outlive the
	// 3-second interaction deadline, so it defers first.
	if data.Name == "sync" {
		b.handleSync(ic, log)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	var (
		reply string
		err   error
	)
	switch data.Name {
	case "client":
		reply, err = b.handleClient(ctx, ic, tier)
	case "job":
		reply, err = b.handleJob(ctx, ic, tier)
	case "task":
		reply, err = b.handleTask(ctx, ic, tier)
	case "invoice":
		reply, err = b.handleInvoice(ctx, ic, tier)
	case "mytasks":
		reply, err = b.handleMyTasks(ctx, ic, tier)
	default:
		reply = "❌ Unknown command."
	}
	if err != nil {
		log.Error().Err(err).Msg("command failed")
		reply = "❌ " + userMessage(err)
	}
	b.respond(ic, reply)
}

// minTier maps each top-level command to the lowest tier allowed to invoke
// it. Finer checks (own-task ownership, field redaction) happen inside the
// handlers.
func minTier(command string) permission.Tier {
	switch command {
	case "invoice":
		return permission.TierFull
	case "mytasks", "task":
		return permission.TierOwnTasks
	default:
		return permission.TierDataOnly
	}
}

func (b *Bot) tierOf(ic *discordgo.InteractionCreate) permission.Tier {
	if ic.Member == nil {
		return permission.TierNone
	}
	return b.oracle.TierFor(ic.Member.Roles)
}

func callerID(ic *discordgo.InteractionCreate) string {
	if ic.Member != nil && ic.Member.User != nil {
		return ic.Member.User.ID
	}
	if ic.User != nil {
		return ic.User.ID
	}
	return ""
}

// respond sends an ephemeral reply; interaction responses that fail are only
// logged, the command's effects have already happened.
func (b *Bot) respond(ic *discordgo.InteractionCreate, content string) {
	err := b.session.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.log.Error().Err(err).Msg("interaction respond failed")
	}
}

func (b *Bot) handleSync(ic *discordgo.InteractionCreate, log zerolog.Logger) {
	err := b.session.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		log.Error().Err(err).Msg("interaction defer failed")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	content := "✅ Sync complete."
	if err := b.queue.Flush(ctx, "manual"); err != nil {
		log.Error().Err(err).Msg("manual sync failed")
		content = "❌ Sync failed: " + err.Error()
	} else if clients, cerr := b.store.ListClients(ctx); cerr == nil {
		jobs, _ := b.store.ListJobs(ctx)
		content = fmt.Sprintf("✅ Sync complete. %d clients, %d jobs.", len(clients), len(jobs))
	}

	if _, err := b.session.InteractionResponseEdit(ic.Interaction, &discordgo.WebhookEdit{Content: &content}); err != nil {
		log.Error().Err(err).Msg("interaction edit failed")
	}
}
