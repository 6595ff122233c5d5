package board

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/crewdesk/crewdesk/internal/domain"
)

// renderClientBoard lists active clients with channel, contact, and open
// work counts.
func renderClientBoard(s Snapshot) string {
	var b strings.Builder
	b.WriteString("**Client Board**\n")
	b.WriteString("Active clients with channels, contacts, and open invoices\n")

	active := s.activeClients()
	for _, c := range active {
		jobs := 0
		for _, j := range s.Jobs {
			if j.ClientID == c.ID {
				jobs++
			}
		}
		openInvoices := 0
		for _, inv := range s.Invoices {
			if inv.ClientID == c.ID && !inv.IsSettled() {
				openInvoices++
			}
		}
		channel := "unknown"
		if c.ChannelID != "" {
			channel = "<#" + c.ChannelID + ">"
		}
		contact := strings.TrimSpace(c.ContactName)
		if contact == "" {
			contact = "N/A"
		}
		method := strings.TrimSpace(c.ContactMethod)
		if method == "" {
			method = "N/A"
		}
		fmt.Fprintf(&b, "\n**%s — %s**\n", orQuestion(c.Code), c.Name)
		fmt.Fprintf(&b, "Channel: %s\n", channel)
		fmt.Fprintf(&b, "Contact: %s (%s)\n", contact, method)
		fmt.Fprintf(&b, "Jobs: %d • Open Invoices: %d\n", jobs, openInvoices)
	}
	if len(active) == 0 {
		b.WriteString("\n_No active clients_\n")
	}
	fmt.Fprintf(&b, "\n*%d active clients*", len(active))
	return b.String()
}

// renderJobBoard groups open jobs under their clients, linking each to its
// thread when one exists.
func renderJobBoard(s Snapshot) string {
	var b strings.Builder
	b.WriteString("**Job Board**\n")
	b.WriteString("Open jobs grouped by client\n")

	open := s.openJobs()
	shown := 0

	// Groups sort by client name; jobs inside a group keep store order.
	clients := append([]domain.Client(nil), s.Clients...)
	sort.SliceStable(clients, func(i, j int) bool {
		return strings.ToLower(clients[i].Name) < strings.ToLower(clients[j].Name)
	})
	for _, c := range clients {
		var lines []string
		for _, j := range open {
			if j.ClientID != c.ID {
				continue
			}
			title := "**" + j.Title + "**"
			if j.ThreadID != "" {
				title = channelLink(s.GuildID, j.ThreadID, j.Title)
			}
			line := fmt.Sprintf("- %s `%s` (%s", title, j.ID, orQuestion(j.Status))
			if d := prettyDate(j.Deadline); d != "" {
				line += ", due " + d
			}
			line += ")"
			lines = append(lines, line)
			shown++
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n**👤 %s — %s**\n%s\n", orQuestion(c.Code), c.Name, strings.Join(lines, "\n"))
	}
	if shown == 0 {
		b.WriteString("\n_No active jobs_\n")
	}
	fmt.Fprintf(&b, "\n*%d open jobs*", shown)
	return b.String()
}

// renderTaskBoard lists active tasks by urgency with client and job links.
func renderTaskBoard(s Snapshot) string {
	active := sortTasksByDeadline(s.activeTasks())
	if len(active) == 0 {
		return "**📋 Task Board**\n_No active tasks_"
	}

	var lines []string
	overdue, dueToday, dueSoon := 0, 0, 0
	for _, t := range active {
		job := s.jobByID(t.JobID)
		var client *domain.Client
		if job != nil {
			client = s.clientByID(job.ClientID)
		}

		clientRef := "Unknown Client"
		if client != nil {
			clientRef = client.Name
			if client.ChannelID != "" {
				clientRef = channelLink(s.GuildID, client.ChannelID, client.Name)
			}
		}
		jobRef := "Unknown Job"
		if job != nil {
			jobRef = job.Title
			if job.ThreadID != "" {
				jobRef = channelLink(s.GuildID, job.ThreadID, job.Title)
			}
		}

		if t.Deadline != "" {
			if days, ok := daysUntil(s.Now, t.Deadline); ok {
				switch {
				case days < 0:
					overdue++
				case days == 0:
					dueToday++
				case days <= 3:
					dueSoon++
				}
			}
		}

		lines = append(lines, fmt.Sprintf("%s **%s** — %s%s\n   %s • %s",
			priorityIcon(t.Priority), t.Title, mention(t.AssigneeID),
			deadlineText(s.Now, t.Deadline), clientRef, jobRef))
	}

	footer := fmt.Sprintf("%d active tasks", len(active))
	if overdue > 0 {
		footer += fmt.Sprintf(" • %d overdue", overdue)
	}
	if dueToday > 0 {
		footer += fmt.Sprintf(" • %d due today", dueToday)
	}
	if dueSoon > 0 {
		footer += fmt.Sprintf(" • %d due soon", dueSoon)
	}
	return "**📋 Task Board**\n\n" + strings.Join(lines, "\n\n") + "\n\n*" + footer + "*"
}

// renderInvoiceBoard lists every unsettled invoice with client, job, and due
// date.
func renderInvoiceBoard(s Snapshot) string {
	var b strings.Builder
	b.WriteString("**🧾 Invoice Board**\n")
	b.WriteString("Invoices awaiting payment\n")

	shown := 0
	for _, inv := range s.Invoices {
		if inv.IsSettled() {
			continue
		}
		shown++
		clientRef := "Unknown"
		if c := s.clientByID(inv.ClientID); c != nil {
			clientRef = fmt.Sprintf("%s — %s", orQuestion(c.Code), c.Name)
		}
		jobRef := "—"
		if j := s.jobByID(inv.JobID); j != nil {
			jobRef = j.Title
		}
		fmt.Fprintf(&b, "\n**%s**\n", inv.ID)
		fmt.Fprintf(&b, "Client: %s\n", clientRef)
		fmt.Fprintf(&b, "Job: %s\n", jobRef)
		statusLine := fmt.Sprintf("Status: %s", orQuestion(inv.Status))
		if d := prettyDate(inv.DueAt); d != "" {
			statusLine += " (due " + d + ")"
		}
		fmt.Fprintf(&b, "%s • Total: %s\n", statusLine, money(inv.Sum()))
	}
	if shown == 0 {
		b.WriteString("\n_No open invoices_\n")
	}
	fmt.Fprintf(&b, "\n*%d open invoices*", shown)
	return b.String()
}

// renderLeadBoard lists inquiries waiting for conversion.
func renderLeadBoard(s Snapshot) string {
	var b strings.Builder
	b.WriteString("**🆕 Inquiry Board**\n")
	b.WriteString("New inquiries that need to be converted to active clients\n")

	leads := s.leads()
	if len(leads) == 0 {
		b.WriteString("\nAll inquiries have been converted to active clients! 🎉\n")
	}
	for _, l := range leads {
		fmt.Fprintf(&b, "\n**%s — %s**\n", orQuestion(l.Code), l.Name)
		contact := strings.TrimSpace(strings.Join(filterEmpty(l.ContactName, l.ContactMethod), " | "))
		if contact != "" {
			fmt.Fprintf(&b, "**Contact:** %s\n", contact)
		}
		if d := strings.TrimSpace(l.Description); d != "" {
			fmt.Fprintf(&b, "**Description:** %s\n", d)
		}
		if n := strings.TrimSpace(l.Notes); n != "" {
			fmt.Fprintf(&b, "**Notes:** %s\n", n)
		}
		var sys []string
		if l.ID != "" {
			sys = append(sys, "ID: "+l.ID)
		}
		if l.AuthCode != "" {
			sys = append(sys, "Auth: "+l.AuthCode)
		}
		if sys != nil {
			fmt.Fprintf(&b, "**System:** %s\n", strings.Join(sys, " | "))
		}
	}
	if len(leads) > 0 {
		b.WriteString("\n💡 Use `/client convert` to turn an inquiry into an active client.\n")
	}
	fmt.Fprintf(&b, "\n*%d inquiries*", len(leads))
	return b.String()
}

// renderAdminBoard is the operator overview: headline counts, task urgency,
// and the busiest clients, rendered as monospace tables.
func renderAdminBoard(s Snapshot) string {
	active := s.activeClients()
	leads := s.leads()
	openJobs := s.openJobs()
	activeTasks := s.activeTasks()

	pendingInvoices := 0
	var outstanding float64
	for _, inv := range s.Invoices {
		if !inv.IsSettled() {
			pendingInvoices++
			outstanding += inv.Sum()
		}
	}

	overdue, dueToday, dueSoon, dueThisWeek := 0, 0, 0, 0
	for _, t := range activeTasks {
		days, ok := daysUntil(s.Now, t.Deadline)
		if !ok {
			continue
		}
		switch {
		case days < 0:
			overdue++
		case days == 0:
			dueToday++
		case days <= 3:
			dueSoon++
		case days <= 7:
			dueThisWeek++
		}
	}

	stats := table.NewWriter()
	stats.AppendHeader(table.Row{"Metric", "Count"})
	stats.AppendRow(table.Row{"Active clients", len(active)})
	stats.AppendRow(table.Row{"New inquiries", len(leads)})
	stats.AppendRow(table.Row{"Open jobs", len(openJobs)})
	stats.AppendRow(table.Row{"Active tasks", len(activeTasks)})
	stats.AppendRow(table.Row{"Pending invoices", pendingInvoices})
	stats.AppendRow(table.Row{"Outstanding", money(outstanding)})

	var b strings.Builder
	b.WriteString("🔐 **Admin Dashboard**\n\n")
	b.WriteString("📊 **Quick Stats**\n```\n" + stats.Render() + "\n```\n")

	if overdue+dueToday+dueSoon+dueThisWeek > 0 {
		b.WriteString("\n⚡ **Task Urgency**\n")
		if overdue > 0 {
			fmt.Fprintf(&b, "🚨 **%d** overdue\n", overdue)
		}
		if dueToday > 0 {
			fmt.Fprintf(&b, "📅 **%d** due today\n", dueToday)
		}
		if dueSoon > 0 {
			fmt.Fprintf(&b, "⏰ **%d** due within 3 days\n", dueSoon)
		}
		if dueThisWeek > 0 {
			fmt.Fprintf(&b, "📌 **%d** due this week\n", dueThisWeek)
		}
	}

	if rows := busiestClients(s, openJobs, activeTasks); len(rows) > 0 {
		workload := table.NewWriter()
		workload.AppendHeader(table.Row{"Client", "Jobs", "Tasks"})
		for _, r := range rows {
			workload.AppendRow(table.Row{r.name, r.jobs, r.tasks})
		}
		b.WriteString("\n👥 **Busiest Clients**\n```\n" + workload.Render() + "\n```\n")
	}

	b.WriteString("\n💡 *Use /sync to refresh all boards*")
	return b.String()
}

type workloadRow struct {
	name       string
	jobs       int
	tasks      int
	totalOrder int
}

// busiestClients returns up to five clients by open jobs plus active tasks.
func busiestClients(s Snapshot, openJobs []domain.Job, activeTasks []domain.Task) []workloadRow {
	var rows []workloadRow
	for _, c := range s.Clients {
		jobs, tasks := 0, 0
		for _, j := range openJobs {
			if j.ClientID == c.ID {
				jobs++
			}
		}
		for _, t := range activeTasks {
			if j := s.jobByID(t.JobID); j != nil && j.ClientID == c.ID {
				tasks++
			}
		}
		if jobs+tasks > 0 {
			rows = append(rows, workloadRow{name: c.Name, jobs: jobs, tasks: tasks, totalOrder: jobs + tasks})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].totalOrder > rows[j].totalOrder })
	if len(rows) > 5 {
		rows = rows[:5]
	}
	return rows
}

func orQuestion(s string) string {
	if strings.TrimSpace(s) == "" {
		return "???"
	}
	return s
}

func filterEmpty(ss ...string) []string {
	var out []string
	for _, s := range ss {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
