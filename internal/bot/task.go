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

func (b *Bot) handleTask(ctx context.Context, ic *discordgo.InteractionCreate, tier permission.Tier) (string, error) {
	sub, opts := subcommand(ic.ApplicationCommandData())
	caller := callerID(ic)
	switch sub {
	case "create":
		if !tier.AtLeast(permission.TierDataOnly) {
			return "", usererrf("You do not have permission to create tasks.")
		}
		return b.taskCreate(ctx, opts)
	case "edit":
		return b.taskEdit(ctx, opts, tier, caller)
	case "complete":
		return b.taskComplete(ctx, opts, tier, caller)
	}
	return "", usererrf("Unknown subcommand.")
}

func (b *Bot) taskCreate(ctx context.Context, opts options) (string, error) {
	title := opts.str("title")
	if title == "" {
		return "", usererrf("Task title must not be empty.")
	}
	jobRef := opts.str("job")
	jobs, err := b.store.ListJobs(ctx)
	if err != nil {
		return "", err
	}
	var job *domain.Job
	for i := range jobs {
		if jobs[i].ID == jobRef {
			job = &jobs[i]
			break
		}
	}
	if job == nil {
		return "", usererrf("Job `%s` not found.", jobRef)
	}
	if job.IsTerminal() {
		return "", usererrf("Job `%s` is %s; tasks can only be added to open jobs.", job.ID, job.Status)
	}

	day, err := b.deadline(opts, "deadline")
	if err != nil {
		return "", err
	}

	id, err := store.NextTaskID(ctx, b.store, job.ID)
	if err != nil {
		return "", err
	}
	t := domain.Task{
		ID:         id,
		JobID:      job.ID,
		Title:      title,
		Status:     domain.TaskOpen,
		AssigneeID: opts.user("assignee"),
		Priority:   opts.str("priority"),
		CreatedAt:  time.Now().UTC().Format(dates.DayFormat),
	}
	if day != nil {
		t.Deadline = *day
	}
	if err := b.store.CreateTask(ctx, t); err != nil {
		return "", err
	}
	b.queue.Enqueue("mutation")
	return fmt.Sprintf("✅ Created task `%s` **%s** under `%s`.", t.ID, t.Title, job.ID), nil
}

// ownTask verifies the own-tasks tier only touches its own assignments.
func (b *Bot) ownTask(ctx context.Context, id, caller string) error {
	tasks, err := b.store.ListTasks(ctx)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if t.ID == id {
			if t.AssigneeID != caller {
				return usererrf("Task `%s` is not assigned to you.", id)
			}
			return nil
		}
	}
	return store.ErrNotFound
}

func (b *Bot) taskEdit(ctx context.Context, opts options, tier permission.Tier, caller string) (string, error) {
	id := opts.str("id")
	patch := store.TaskPatch{}
	if v := opts.str("title"); v != "" {
		patch.Title = store.String(v)
	}
	if v := opts.str("status"); v != "" {
		patch.Status = store.String(v)
	}
	if v := opts.str("priority"); v != "" {
		patch.Priority = store.String(v)
	}
	if opts.has("assignee") {
		patch.AssigneeID = store.String(opts.user("assignee"))
	}
	day, err := b.deadline(opts, "deadline")
	if err != nil {
		return "", err
	}
	patch.Deadline = day

	// The lowest tier may only move its own tasks between statuses.
	if !tier.AtLeast(permission.TierDataOnly) {
		if patch.Title != nil || patch.Priority != nil || patch.AssigneeID != nil || patch.Deadline != nil {
			return "", usererrf("You may only change the status of your own tasks.")
		}
		if err := b.ownTask(ctx, id, caller); err != nil {
			return "", err
		}
	}

	t, err := b.store.UpdateTask(ctx, id, patch)
	if err != nil {
		return "", err
	}
	b.queue.Enqueue("mutation")
	return fmt.Sprintf("✅ Updated task `%s` **%s** (%s).", t.ID, t.Title, t.Status), nil
}

func (b *Bot) taskComplete(ctx context.Context, opts options, tier permission.Tier, caller string) (string, error) {
	id := opts.str("id")
	if !tier.AtLeast(permission.TierDataOnly) {
		if err := b.ownTask(ctx, id, caller); err != nil {
			return "", err
		}
	}
	t, err := b.store.UpdateTask(ctx, id, store.TaskPatch{Status: store.String(domain.TaskCompleted)})
	if err != nil {
		return "", err
	}
	b.queue.Enqueue("mutation")
	return fmt.Sprintf("✅ Completed task `%s` **%s**.", t.ID, t.Title), nil
}
