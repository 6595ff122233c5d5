package bot

import "github.com/bwmarrin/discordgo"

func strOpt(name, desc string, required, autocomplete bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionString,
		Name:         name,
		Description:  desc,
		Required:     required,
		Autocomplete: autocomplete,
	}
}

func userOpt(name, desc string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        name,
		Description: desc,
	}
}

func numOpt(name, desc string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionNumber,
		Name:        name,
		Description: desc,
		Required:    required,
	}
}

func choiceOpt(name, desc string, required bool, values ...[2]string) *discordgo.ApplicationCommandOption {
	opt := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        name,
		Description: desc,
		Required:    required,
	}
	for _, v := range values {
		opt.Choices = append(opt.Choices, &discordgo.ApplicationCommandOptionChoice{Name: v[0], Value: v[1]})
	}
	return opt
}

func sub(name, desc string, opts ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        name,
		Description: desc,
		Options:     opts,
	}
}

var jobStatusChoices = [][2]string{
	{"Open", "open"},
	{"Contracted", "contracted"},
	{"In Progress", "in-progress"},
	{"Pending", "pending"},
	{"Invoiced", "invoiced"},
}

var priorityChoices = [][2]string{
	{"Low", "low"},
	{"Medium", "medium"},
	{"High", "high"},
	{"Urgent", "urgent"},
}

var taskStatusChoices = [][2]string{
	{"Open", "open"},
	{"In Progress", "in-progress"},
	{"Completed", "completed"},
}

var invoiceStatusChoices = [][2]string{
	{"Draft", "draft"},
	{"Sent", "sent"},
	{"Paid", "paid"},
	{"Overdue", "overdue"},
	{"Cancelled", "cancelled"},
}

// Commands returns the full guild slash-command set.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "client",
			Description: "Manage clients and leads",
			Options: []*discordgo.ApplicationCommandOption{
				sub("create", "Create a new client",
					strOpt("name", "Client name", true, false),
					strOpt("contact_name", "Contact name", true, false),
					strOpt("contact_method", "Contact method (email, Discord, ...)", true, false),
					strOpt("description", "Short description", false, false),
					strOpt("notes", "Internal notes", false, false),
				),
				sub("edit", "Edit an existing client",
					strOpt("id", "Client", true, true),
					strOpt("name", "New name", false, false),
					strOpt("contact_name", "New contact name", false, false),
					strOpt("contact_method", "New contact method", false, false),
					strOpt("description", "New description", false, false),
					strOpt("notes", "New notes", false, false),
				),
				sub("convert", "Convert a lead into an active client",
					strOpt("id", "Lead", true, true),
				),
				sub("archive", "Archive a client (keeps the row, drops it from boards)",
					strOpt("id", "Client", true, true),
				),
			},
		},
		{
			Name:        "job",
			Description: "Manage jobs",
			Options: []*discordgo.ApplicationCommandOption{
				sub("create", "Create a new job",
					strOpt("client", "Client", true, true),
					strOpt("title", "Job title", true, false),
					strOpt("description", "Job description", false, false),
					choiceOpt("priority", "Job priority", false, priorityChoices...),
					strOpt("deadline", "Deadline (YYYY-MM-DD or natural language)", false, false),
					userOpt("assignee", "Assign to a team member"),
					numOpt("budget", "Budget", false),
				),
				sub("edit", "Edit an existing job",
					strOpt("id", "Job", true, true),
					strOpt("title", "New title", false, false),
					strOpt("description", "New description", false, false),
					choiceOpt("status", "New status", false, jobStatusChoices...),
					choiceOpt("priority", "New priority", false, priorityChoices...),
					strOpt("deadline", "New deadline (YYYY-MM-DD or natural language)", false, false),
					userOpt("assignee", "New assignee"),
					numOpt("budget", "New budget", false),
					strOpt("notes", "New notes", false, false),
				),
				sub("complete", "Mark a job completed (hides it from boards, collects its tasks)",
					strOpt("id", "Job", true, true),
				),
			},
		},
		{
			Name:        "task",
			Description: "Manage tasks under jobs",
			Options: []*discordgo.ApplicationCommandOption{
				sub("create", "Add a task to a job",
					strOpt("job", "Job", true, true),
					strOpt("title", "Task title", true, false),
					userOpt("assignee", "Assign to a team member"),
					strOpt("deadline", "Deadline (YYYY-MM-DD or natural language)", false, false),
					choiceOpt("priority", "Task priority", false, priorityChoices...),
				),
				sub("edit", "Edit an existing task",
					strOpt("id", "Task", true, true),
					strOpt("title", "New title", false, false),
					choiceOpt("status", "New status", false, taskStatusChoices...),
					userOpt("assignee", "New assignee"),
					strOpt("deadline", "New deadline (YYYY-MM-DD or natural language)", false, false),
					choiceOpt("priority", "New priority", false, priorityChoices...),
				),
				sub("complete", "Mark a task completed",
					strOpt("id", "Task", true, true),
				),
			},
		},
		{
			Name:        "invoice",
			Description: "Manage invoices",
			Options: []*discordgo.ApplicationCommandOption{
				sub("create", "Create a new invoice",
					strOpt("client", "Client", true, true),
					strOpt("job", "Job", true, true),
					strOpt("due", "Due date (YYYY-MM-DD or natural language)", true, false),
					strOpt("notes", "Optional notes", false, false),
					strOpt("terms", "Optional terms", false, false),
				),
				sub("edit", "Edit an existing invoice",
					strOpt("id", "Invoice", true, true),
					choiceOpt("status", "New status", false, invoiceStatusChoices...),
					strOpt("due", "New due date", false, false),
					strOpt("notes", "New notes", false, false),
					strOpt("terms", "New terms", false, false),
				),
				sub("additem", "Add a line item to an invoice",
					strOpt("id", "Invoice", true, true),
					strOpt("description", "Line item description", true, false),
					numOpt("price", "Line item price", true),
				),
			},
		},
		{
			Name:        "mytasks",
			Description: "View your assigned tasks, grouped by client",
		},
		{
			Name:        "sync",
			Description: "Force a full refresh of channels, cards, and boards",
		},
	}
}
