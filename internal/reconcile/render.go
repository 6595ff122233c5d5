package reconcile

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/crewdesk/crewdesk/internal/domain"
)

// prettyDate renders a stored YYYY-MM-DD date as "Jan 2, 2006", or "" if it
// does not parse.
func prettyDate(s string) string {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return strings.TrimSpace(s)
}

// channelLink is a deep link usable from any channel in the guild.
func channelLink(guildID, channelID string) string {
	return "https://discord.com/channels/" + guildID + "/" + channelID
}

func mention(userID string) string {
	if userID == "" {
		return "—"
	}
	return "<@" + userID + ">"
}

func money(v float64) string {
	if v == 0 {
		return "—"
	}
	return "$" + strconv.FormatFloat(v, 'f', 2, 64)
}

func jobLink(guildID string, j domain.Job) string {
	if j.ThreadID != "" {
		return "[" + j.Title + "](" + channelLink(guildID, j.ThreadID) + ")"
	}
	return "**" + j.Title + "**"
}

// renderClientCard builds the pinned card for a client channel: identity,
// contact, notes, and its open jobs linked to their threads.
func renderClientCard(c domain.Client, jobs []domain.Job, guildID string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s — %s**\n", c.Name, orDash(c.Code))
	if strings.TrimSpace(c.Description) != "" {
		b.WriteString(c.Description + "\n")
	} else {
		b.WriteString("_(no description)_\n")
	}

	contact := strings.TrimSpace(strings.Join(nonEmpty(c.ContactName, c.ContactMethod), " | "))
	fmt.Fprintf(&b, "*%s*\n\n", orDash(contact))

	if c.AuthCode != "" {
		fmt.Fprintf(&b, "**Auth Code:** `%s`\n", c.AuthCode)
	}
	fmt.Fprintf(&b, "**Notes:** *%s*\n\n", orDash(c.Notes))

	b.WriteString("**Open Jobs**\n")
	var lines []string
	for _, j := range jobs {
		if j.ClientID != c.ID || !j.IsOpen() {
			continue
		}
		line := jobLink(guildID, j)
		if d := prettyDate(j.Deadline); d != "" {
			line += " — *due " + d + "*"
		}
		if strings.TrimSpace(j.Description) != "" {
			line += "\n*" + j.Description + "*"
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		b.WriteString("_none_\n")
	} else {
		b.WriteString(strings.Join(lines, "\n\n") + "\n")
	}

	fmt.Fprintf(&b, "\n*Client ID: %s*", c.ID)
	return b.String()
}

// renderJobCard builds the card pinned inside a job thread.
func renderJobCard(j domain.Job, c domain.Client) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n", ThreadName(j))
	b.WriteString(orDash(j.Description) + "\n\n")

	clientLine := "—"
	if c.Name != "" {
		clientLine = c.Name
		if c.Code != "" {
			clientLine += " `" + c.Code + "`"
		}
	}
	fmt.Fprintf(&b, "Client: %s\n", clientLine)
	fmt.Fprintf(&b, "Status: %s • Priority: %s\n", orDash(j.Status), orDash(j.Priority))

	deadline := prettyDate(j.Deadline)
	if deadline == "" {
		deadline = "—"
	}
	fmt.Fprintf(&b, "Deadline: %s • Budget: %s\n", deadline, money(j.Budget))
	fmt.Fprintf(&b, "Assignee: %s\n\n", mention(j.AssigneeID))
	fmt.Fprintf(&b, "*Job ID: %s*", j.ID)
	return b.String()
}

func nonEmpty(ss ...string) []string {
	var out []string
	for _, s := range ss {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
