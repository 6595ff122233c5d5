package bot

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/crewdesk/crewdesk/internal/domain"
)

// maxChoices is Discord's cap on autocomplete suggestions.
const maxChoices = 25

const autocompleteTimeout = 2 * time.Second

// scored pairs a choice with its match score for ranking.
type scored struct {
	choice *discordgo.ApplicationCommandOptionChoice
	score  int
}

// matchScore ranks a record against the typed query. Code prefix matches
// rank highest, then name prefix, then ID prefix, with substring hits as a
// lighter boost. An empty query matches everything.
func matchScore(query, code, name, id string) int {
	if query == "" {
		return 1
	}
	code = strings.ToLower(code)
	name = strings.ToLower(name)
	id = strings.ToLower(id)
	score := 0
	if strings.HasPrefix(code, query) {
		score += 3
	}
	if strings.HasPrefix(name, query) {
		score += 2
	}
	if strings.HasPrefix(id, query) {
		score++
	}
	if strings.Contains(code, query) {
		score++
	}
	if strings.Contains(name, query) {
		score++
	}
	return score
}

func rank(items []scored) []*discordgo.ApplicationCommandOptionChoice {
	sort.SliceStable(items, func(i, j int) bool { return items[i].score > items[j].score })
	if len(items) > maxChoices {
		items = items[:maxChoices]
	}
	out := make([]*discordgo.ApplicationCommandOptionChoice, len(items))
	for i, it := range items {
		out[i] = it.choice
	}
	return out
}

// clientFilter narrows which clients a picker offers.
type clientFilter func(domain.Client) bool

func anyClient(c domain.Client) bool { return !c.Archived }

func leadsOnly(c domain.Client) bool { return c.IsLead() }

func activeClients(c domain.Client) bool { return c.IsActive() && !c.Archived }

func includeArchived(domain.Client) bool { return true }

func suggestClients(clients []domain.Client, query string, keep clientFilter) []*discordgo.ApplicationCommandOptionChoice {
	q := strings.ToLower(strings.TrimSpace(query))
	var items []scored
	for _, c := range clients {
		if !keep(c) {
			continue
		}
		s := matchScore(q, c.Code, c.Name, c.ID)
		if s == 0 {
			continue
		}
		label := c.Code
		if label == "" {
			label = c.ID
		}
		items = append(items, scored{
			choice: &discordgo.ApplicationCommandOptionChoice{Name: label + " - " + c.Name, Value: c.ID},
			score:  s,
		})
	}
	return rank(items)
}

// suggestJobs offers open jobs, optionally narrowed to one client.
func suggestJobs(jobs []domain.Job, query, clientID string) []*discordgo.ApplicationCommandOptionChoice {
	q := strings.ToLower(strings.TrimSpace(query))
	var items []scored
	for _, j := range jobs {
		if !j.IsOpen() {
			continue
		}
		if clientID != "" && j.ClientID != clientID {
			continue
		}
		s := matchScore(q, j.ClientCode, j.Title, j.ID)
		if s == 0 {
			continue
		}
		items = append(items, scored{
			choice: &discordgo.ApplicationCommandOptionChoice{Name: j.ID + " - " + j.Title, Value: j.ID},
			score:  s,
		})
	}
	return rank(items)
}

func suggestTasks(tasks []domain.Task, query string) []*discordgo.ApplicationCommandOptionChoice {
	q := strings.ToLower(strings.TrimSpace(query))
	var items []scored
	for _, t := range tasks {
		if t.Status == domain.TaskCompleted {
			continue
		}
		s := matchScore(q, t.JobID, t.Title, t.ID)
		if s == 0 {
			continue
		}
		items = append(items, scored{
			choice: &discordgo.ApplicationCommandOptionChoice{Name: t.ID + " - " + t.Title, Value: t.ID},
			score:  s,
		})
	}
	return rank(items)
}

func suggestInvoices(invoices []domain.Invoice, query string) []*discordgo.ApplicationCommandOptionChoice {
	q := strings.ToLower(strings.TrimSpace(query))
	var items []scored
	for _, inv := range invoices {
		if inv.IsSettled() {
			continue
		}
		s := matchScore(q, inv.ClientCode, inv.JobID, inv.ID)
		if s == 0 {
			continue
		}
		items = append(items, scored{
			choice: &discordgo.ApplicationCommandOptionChoice{Name: inv.ID + " - " + inv.ClientCode, Value: inv.ID},
			score:  s,
		})
	}
	return rank(items)
}

// focusedOption digs out the option currently being typed, plus the typed
// value. Only subcommand-level options are autocompleted here.
func focusedOption(data discordgo.ApplicationCommandInteractionData) (sub, name, value string, opts options) {
	sub, opts = subcommandAuto(data)
	for _, o := range opts {
		if o.Focused {
			v, _ := o.Value.(string)
			return sub, o.Name, v, opts
		}
	}
	return sub, "", "", opts
}

// subcommandAuto mirrors subcommand but tolerates partially-typed payloads.
func subcommandAuto(data discordgo.ApplicationCommandInteractionData) (string, options) {
	if len(data.Options) == 0 || data.Options[0].Type != discordgo.ApplicationCommandOptionSubCommand {
		return "", options{}
	}
	s := data.Options[0]
	opts := make(options, len(s.Options))
	for _, o := range s.Options {
		opts[o.Name] = o
	}
	return s.Name, opts
}

func (b *Bot) onAutocomplete(ic *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), autocompleteTimeout)
	defer cancel()

	data := ic.ApplicationCommandData()
	sub, name, value, opts := focusedOption(data)

	var choices []*discordgo.ApplicationCommandOptionChoice
	switch data.Name {
	case "client":
		if name == "id" {
			clients, err := b.store.ListClients(ctx)
			if err == nil {
				keep := anyClient
				switch sub {
				case "convert":
					keep = leadsOnly
				case "archive":
					keep = includeArchived
				}
				choices = suggestClients(clients, value, keep)
			}
		}
	case "job":
		switch name {
		case "client":
			if clients, err := b.store.ListClients(ctx); err == nil {
				choices = suggestClients(clients, value, activeClients)
			}
		case "id":
			if jobs, err := b.store.ListJobs(ctx); err == nil {
				choices = suggestJobs(jobs, value, "")
			}
		}
	case "task":
		switch name {
		case "job":
			if jobs, err := b.store.ListJobs(ctx); err == nil {
				choices = suggestJobs(jobs, value, "")
			}
		case "id":
			if tasks, err := b.store.ListTasks(ctx); err == nil {
				choices = suggestTasks(tasks, value)
			}
		}
	case "invoice":
		switch name {
		case "client":
			if clients, err := b.store.ListClients(ctx); err == nil {
				choices = suggestClients(clients, value, activeClients)
			}
		case "job":
			// Narrow to the already-selected client when there is one.
			clientID := opts.str("client")
			if jobs, err := b.store.ListJobs(ctx); err == nil {
				choices = suggestJobs(jobs, value, clientID)
			}
		case "id":
			if invoices, err := b.store.ListInvoices(ctx); err == nil {
				choices = suggestInvoices(invoices, value)
			}
		}
	}

	err := b.session.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
	if err != nil {
		b.log.Debug().Err(err).Msg("autocomplete respond failed")
	}
}
