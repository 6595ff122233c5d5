// Package sync drives reconciliation: a debounced single-flight queue in
// front of the orchestrator, and a scheduler that enqueues periodic runs.
// Every trigger in the system funnels through the queue, so at most one sync
// runs at a time and bursts of mutations collapse into one run.
package sync

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Runner executes one sync run. Implemented by Orchestrator.
type Runner interface {
	Run(ctx context.Context, trigger string) (*Result, error)
}

// Queue coalesces sync requests. A request within the debounce window joins
// the pending run; a request during a run schedules exactly one follow-up.
type Queue struct {
	runner   Runner
	debounce time.Duration
	log      zerolog.Logger

	wake chan struct{}

	mu        sync.Mutex
	hasDue    bool
	due       time.Time
	trigger   string
	running   bool
	completed uint64
	waiters   []waiter
}

type waiter struct {
	target uint64
	ch     chan struct{}
}

func NewQueue(runner Runner, debounce time.Duration, log zerolog.Logger) *Queue {
	return &Queue{
		runner:   runner,
		debounce: debounce,
		log:      log,
		wake:     make(chan struct{}, 1),
	}
}

// Enqueue requests a run after the debounce window. Requests arriving while
// one is pending coalesce into it; the window is not extended.
func (q *Queue) Enqueue(trigger string) {
	q.enqueueAt(trigger, time.Now().Add(q.debounce))
}

// EnqueueNow requests a run without the debounce delay.
func (q *Queue) EnqueueNow(trigger string) {
	q.enqueueAt(trigger, time.Now())
}

func (q *Queue) enqueueAt(trigger string, due time.Time) {
	q.mu.Lock()
	// A request that pulls the due time forward owns the run's trigger
	// label; a later debounced request joins silently.
	if !q.hasDue || due.Before(q.due) {
		q.due = due
		q.trigger = trigger
		q.hasDue = true
	}
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Flush enqueues an immediate run and blocks until a run that observes this
// request has completed, or ctx is done. Used by the /sync command.
func (q *Queue) Flush(ctx context.Context, trigger string) error {
	q.mu.Lock()
	target := q.completed + 1
	if q.running {
		// The in-flight run read its data already; wait for the follow-up.
		target = q.completed + 2
	}
	ch := make(chan struct{})
	q.waiters = append(q.waiters, waiter{target: target, ch: ch})
	if !q.hasDue || q.due.After(time.Now()) {
		q.due = time.Now()
		q.trigger = trigger
		q.hasDue = true
	}
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start runs the queue loop until ctx is cancelled.
func (q *Queue) Start(ctx context.Context) {
	go q.loop(ctx)
}

func (q *Queue) loop(ctx context.Context) {
	for {
		q.mu.Lock()
		hasDue, due := q.hasDue, q.due
		q.mu.Unlock()

		if !hasDue {
			select {
			case <-ctx.Done():
				q.failWaiters()
				return
			case <-q.wake:
			}
			continue
		}

		if wait := time.Until(due); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				q.failWaiters()
				return
			case <-q.wake:
				timer.Stop()
			case <-timer.C:
			}
			continue
		}

		q.mu.Lock()
		trigger := q.trigger
		q.hasDue = false
		q.running = true
		q.mu.Unlock()

		if _, err := q.runner.Run(ctx, trigger); err != nil {
			q.log.Error().Err(err).Str("trigger", trigger).Msg("sync run failed")
		}

		q.mu.Lock()
		q.running = false
		q.completed++
		q.releaseWaitersLocked()
		q.mu.Unlock()
	}
}

func (q *Queue) releaseWaitersLocked() {
	kept := q.waiters[:0]
	for _, w := range q.waiters {
		if q.completed >= w.target {
			close(w.ch)
		} else {
			kept = append(kept, w)
		}
	}
	q.waiters = kept
}

// failWaiters unblocks anyone still waiting when the queue shuts down.
func (q *Queue) failWaiters() {
	q.mu.Lock()
	for _, w := range q.waiters {
		close(w.ch)
	}
	q.waiters = nil
	q.mu.Unlock()
}
