package board

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/crewdesk/crewdesk/internal/domain"
)

func prettyDate(s string) string {
	t, ok := parseDay(s)
	if !ok {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

func parseDay(s string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// daysUntil counts whole days from now's date to the deadline; negative
// means overdue.
func daysUntil(now time.Time, deadline string) (int, bool) {
	d, ok := parseDay(deadline)
	if !ok {
		return 0, false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(d.Sub(today).Hours() / 24), true
}

func money(v float64) string {
	return "$" + strconv.FormatFloat(v, 'f', 2, 64)
}

func channelLink(guildID, channelID, label string) string {
	return "[" + label + "](https://discord.com/channels/" + guildID + "/" + channelID + ")"
}

func mention(userID string) string {
	if userID == "" {
		return "Unassigned"
	}
	return "<@" + userID + ">"
}

func priorityIcon(priority string) string {
	switch strings.ToLower(priority) {
	case "urgent":
		return "🚨"
	case "high":
		return "🔴"
	case "medium":
		return "🟡"
	case "low":
		return "🟢"
	default:
		return "⚪"
	}
}

// deadlineText renders the urgency suffix used by the task board.
func deadlineText(now time.Time, deadline string) string {
	days, ok := daysUntil(now, deadline)
	if !ok {
		return ""
	}
	switch {
	case days < 0:
		return " — ⚠️ **OVERDUE** (" + prettyDate(deadline) + ")"
	case days == 0:
		return " — 📅 **DUE TODAY**"
	case days == 1:
		return " — 📅 Due tomorrow"
	case days <= 3:
		return " — 📅 Due in " + strconv.Itoa(days) + " days"
	default:
		return " — 📅 " + prettyDate(deadline)
	}
}

// sortTasksByDeadline orders tasks deadline-first with undated tasks last,
// stable on ties.
func sortTasksByDeadline(tasks []domain.Task) []domain.Task {
	out := make([]domain.Task, len(tasks))
	copy(out, tasks)
	sort.SliceStable(out, func(i, j int) bool { return taskBefore(out[i], out[j]) })
	return out
}

func taskBefore(a, b domain.Task) bool {
	if (a.Deadline == "") != (b.Deadline == "") {
		return a.Deadline != ""
	}
	return a.Deadline < b.Deadline
}
