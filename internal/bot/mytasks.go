package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/crewdesk/crewdesk/internal/domain"
	"github.com/crewdesk/crewdesk/internal/permission"
)

func (b *Bot) handleMyTasks(ctx context.Context, ic *discordgo.InteractionCreate, tier permission.Tier) (string, error) {
	tasks, err := b.store.ListTasks(ctx)
	if err != nil {
		return "", err
	}
	jobs, err := b.store.ListJobs(ctx)
	if err != nil {
		return "", err
	}
	clients, err := b.store.ListClients(ctx)
	if err != nil {
		return "", err
	}
	return renderMyTasks(tasks, jobs, clients, callerID(ic), tier), nil
}

func taskIcon(status string) string {
	switch status {
	case domain.TaskCompleted:
		return "✅"
	case domain.TaskInProgress:
		return "🔄"
	default:
		return "⬜"
	}
}

// renderMyTasks builds the ephemeral own-tasks view, grouped by client in
// client-name order. Tasks on unknown jobs land in an "Unfiled" group rather
// than being dropped.
func renderMyTasks(tasks []domain.Task, jobs []domain.Job, clients []domain.Client, userID string, tier permission.Tier) string {
	jobByID := make(map[string]domain.Job, len(jobs))
	for _, j := range jobs {
		jobByID[j.ID] = j
	}
	clientByID := make(map[string]domain.Client, len(clients))
	for _, c := range clients {
		clientByID[c.ID] = c
	}

	groups := make(map[string][]domain.Task)
	total := 0
	for _, t := range tasks {
		ft, ok := permission.FilterTask(t, tier, userID)
		if !ok || ft.AssigneeID != userID || ft.Status == domain.TaskCompleted {
			continue
		}
		name := "Unfiled"
		if j, ok := jobByID[ft.JobID]; ok {
			if c, ok := clientByID[j.ClientID]; ok {
				name = c.Name
			}
		}
		groups[name] = append(groups[name], ft)
		total++
	}
	if total == 0 {
		return "📋 You have no open tasks. Enjoy the quiet."
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "📋 **Your tasks** (%d)\n", total)
	for _, name := range names {
		fmt.Fprintf(&b, "\n**%s**\n", name)
		for _, t := range groups[name] {
			line := fmt.Sprintf("%s **%s** (`%s`)", taskIcon(t.Status), t.Title, t.ID)
			if due := prettyDay(t.Deadline); due != "" {
				line += " — due " + due
			}
			b.WriteString(line + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func prettyDay(s string) string {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	return t.Format("Jan 2, 2006")
}
