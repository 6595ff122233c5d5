package sync

import (
	"context"
	"errors"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/crewdesk/crewdesk/internal/board"
	"github.com/crewdesk/crewdesk/internal/domain"
	"github.com/crewdesk/crewdesk/internal/platform"
	"github.com/crewdesk/crewdesk/internal/reconcile"
	"github.com/crewdesk/crewdesk/internal/store"
)

const tracerName = "github.com/crewdesk/crewdesk/internal/sync"

// Invalidator drops cached reads so a run works from ground truth.
// Satisfied by cache.Store.
type Invalidator interface {
	InvalidateAll()
}

// Result aggregates what one sync run did.
type Result struct {
	Trigger      string
	StartedAt    time.Time
	Duration     time.Duration
	TasksDeleted int
	Reports      []reconcile.Report
}

// Failures returns the failed reports.
func (r *Result) Failures() []reconcile.Report {
	var out []reconcile.Report
	for _, rep := range r.Reports {
		if rep.Failed() {
			out = append(out, rep)
		}
	}
	return out
}

// Outcome is "ok" when every report succeeded, "partial" otherwise.
func (r *Result) Outcome() string {
	if len(r.Failures()) > 0 {
		return "partial"
	}
	return "ok"
}

// Orchestrator executes one full reconciliation pass: fresh reads, task
// garbage collection, client channels and cards, job threads, then all
// boards. Each entity is isolated; one failure never stops the run.
type Orchestrator struct {
	Store    store.Store
	Cache    Invalidator
	Resolver *reconcile.Resolver
	Cards    *reconcile.ClientCards
	Threads  *reconcile.JobThreads
	Boards   *board.Refresher
	GuildID  string
	Log      zerolog.Logger

	// SettleDelay pauses between thread creation and the board reads that
	// need the new thread IDs visible in the store. Zero in tests.
	SettleDelay time.Duration
	Now         func() time.Time
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Run performs one sync pass. It returns an error only when the run could
// not proceed at all (reads failed); per-entity failures land in the Result.
func (o *Orchestrator) Run(ctx context.Context, trigger string) (*Result, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "sync.run",
		trace.WithAttributes(attribute.String("sync.trigger", trigger)))
	defer span.End()

	start := o.now()
	res := &Result{Trigger: trigger, StartedAt: start}
	defer func() {
		res.Duration = time.Since(start)
		syncDuration.Observe(res.Duration.Seconds())
	}()

	if o.Cache != nil {
		o.Cache.InvalidateAll()
	}
	if err := o.Resolver.Refresh(ctx); err != nil {
		syncRuns.WithLabelValues(trigger, "error").Inc()
		return nil, err
	}

	snap, err := o.readSnapshot(ctx, tracer)
	if err != nil {
		syncRuns.WithLabelValues(trigger, "error").Inc()
		reconcileFailures.WithLabelValues("read", string(reconcile.Classify(err))).Inc()
		return nil, fmt.Errorf("sync: read entities: %w", err)
	}

	o.collectTasks(ctx, tracer, res, &snap)
	created := o.reconcileClients(ctx, tracer, res, &snap)
	created = o.reconcileJobs(ctx, tracer, res, &snap) || created

	if created {
		o.settle(ctx)
		if fresh, err := o.readSnapshot(ctx, tracer); err == nil {
			snap = fresh
		} else {
			o.Log.Warn().Err(err).Msg("could not re-read after thread creation, boards use in-run state")
		}
	}

	o.refreshBoards(ctx, tracer, res, snap)

	outcome := res.Outcome()
	syncRuns.WithLabelValues(trigger, outcome).Inc()
	ev := o.Log.Info()
	if outcome != "ok" {
		ev = o.Log.Warn()
	}
	ev.Str("trigger", trigger).
		Str("outcome", outcome).
		Int("reports", len(res.Reports)).
		Int("failures", len(res.Failures())).
		Int("tasks_deleted", res.TasksDeleted).
		Dur("duration", time.Since(start)).
		Msg("sync run finished")
	return res, nil
}

// readSnapshot loads all four entity lists concurrently.
func (o *Orchestrator) readSnapshot(ctx context.Context, tracer trace.Tracer) (board.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "sync.read")
	defer span.End()

	snap := board.Snapshot{GuildID: o.GuildID, Now: o.now()}
	errs := make([]error, 4)

	var wg stdsync.WaitGroup
	wg.Add(4)
	go func() { defer wg.Done(); snap.Clients, errs[0] = o.Store.ListClients(ctx) }()
	go func() { defer wg.Done(); snap.Jobs, errs[1] = o.Store.ListJobs(ctx) }()
	go func() { defer wg.Done(); snap.Tasks, errs[2] = o.Store.ListTasks(ctx) }()
	go func() { defer wg.Done(); snap.Invoices, errs[3] = o.Store.ListInvoices(ctx) }()
	wg.Wait()

	return snap, errors.Join(errs...)
}

// collectTasks garbage-collects tasks whose jobs reached a terminal status.
func (o *Orchestrator) collectTasks(ctx context.Context, tracer trace.Tracer, res *Result, snap *board.Snapshot) {
	ctx, span := tracer.Start(ctx, "sync.task_gc")
	defer span.End()

	n, err := store.CleanupTasksForClosedJobs(ctx, o.Store)
	if err != nil {
		reconcileFailures.WithLabelValues("task_gc", string(reconcile.Classify(err))).Inc()
		res.Reports = append(res.Reports, reconcile.Report{
			Entity: "tasks", ID: "gc", Outcome: reconcile.OutcomeFailed, Err: err,
		})
		return
	}
	res.TasksDeleted = n
	if n == 0 {
		return
	}
	o.Log.Info().Int("deleted", n).Msg("collected tasks of closed jobs")
	if tasks, err := o.Store.ListTasks(ctx); err == nil {
		snap.Tasks = tasks
	}
}

// reconcileClients ensures a channel and card for every active client.
// Reports the per-client outcome; returns whether anything was created.
func (o *Orchestrator) reconcileClients(ctx context.Context, tracer trace.Tracer, res *Result, snap *board.Snapshot) bool {
	ctx, span := tracer.Start(ctx, "sync.clients")
	defer span.End()

	created := false
	for i := range snap.Clients {
		c := &snap.Clients[i]
		if !c.IsActive() || c.Archived {
			continue
		}
		rep := o.Cards.Ensure(ctx, c, snap.Jobs)
		res.Reports = append(res.Reports, rep)
		switch {
		case rep.Failed():
			reconcileFailures.WithLabelValues("clients", string(rep.Kind())).Inc()
			o.Log.Error().Err(rep.Err).Str("client", c.ID).Msg("client reconciliation failed")
		case rep.Outcome == reconcile.OutcomeCreated:
			created = true
		}
	}
	return created
}

// reconcileJobs ensures a thread and card for every open job whose client
// has a channel.
func (o *Orchestrator) reconcileJobs(ctx context.Context, tracer trace.Tracer, res *Result, snap *board.Snapshot) bool {
	ctx, span := tracer.Start(ctx, "sync.jobs")
	defer span.End()

	clientByID := make(map[string]domain.Client, len(snap.Clients))
	for _, c := range snap.Clients {
		clientByID[c.ID] = c
	}

	created := false
	for i := range snap.Jobs {
		j := &snap.Jobs[i]
		if !j.IsOpen() {
			continue
		}
		c, ok := clientByID[j.ClientID]
		if !ok || c.ChannelID == "" {
			continue
		}
		rep := o.Threads.Ensure(ctx, c, &platform.Channel{ID: c.ChannelID}, j)
		res.Reports = append(res.Reports, rep)
		switch {
		case rep.Failed():
			reconcileFailures.WithLabelValues("jobs", string(rep.Kind())).Inc()
			o.Log.Error().Err(rep.Err).Str("job", j.ID).Msg("job reconciliation failed")
		case rep.Outcome == reconcile.OutcomeCreated:
			created = true
		}
	}
	return created
}

// settle waits for the store to observe just-written thread IDs.
func (o *Orchestrator) settle(ctx context.Context) {
	if o.SettleDelay <= 0 {
		return
	}
	t := time.NewTimer(o.SettleDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// refreshBoards fans out over all boards concurrently; every board is
// attempted regardless of the others.
func (o *Orchestrator) refreshBoards(ctx context.Context, tracer trace.Tracer, res *Result, snap board.Snapshot) {
	ctx, span := tracer.Start(ctx, "sync.boards")
	defer span.End()

	boards := board.All()
	reports := make([]reconcile.Report, len(boards))

	var wg stdsync.WaitGroup
	for i, b := range boards {
		wg.Add(1)
		go func(i int, b board.Board) {
			defer wg.Done()
			start := time.Now()
			reports[i] = o.Boards.Refresh(ctx, b, snap)
			boardDuration.WithLabelValues(b.Key).Observe(time.Since(start).Seconds())
		}(i, b)
	}
	wg.Wait()

	for _, rep := range reports {
		res.Reports = append(res.Reports, rep)
		if rep.Failed() {
			reconcileFailures.WithLabelValues("boards", string(rep.Kind())).Inc()
			o.Log.Error().Err(rep.Err).Str("board", rep.ID).Msg("board refresh failed")
		}
	}
}
