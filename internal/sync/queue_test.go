package sync

import (
	"context"
	stdsync "sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeRunner struct {
	mu       stdsync.Mutex
	runs     int
	triggers []string
	started  chan struct{}
	release  chan struct{}
}

func (f *fakeRunner) Run(ctx context.Context, trigger string) (*Result, error) {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	f.runs++
	f.triggers = append(f.triggers, trigger)
	f.mu.Unlock()
	return &Result{Trigger: trigger}, nil
}

func (f *fakeRunner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs
}

func (f *fakeRunner) trigger(i int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.triggers[i]
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestQueue_CoalescesBurst(t *testing.T) {
	runner := &fakeRunner{}
	q := NewQueue(runner, 30*time.Millisecond, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	for i := 0; i < 5; i++ {
		q.Enqueue("mutation")
	}
	waitFor(t, func() bool { return runner.count() == 1 })

	// Let any stray follow-up surface.
	time.Sleep(100 * time.Millisecond)
	if got := runner.count(); got != 1 {
		t.Fatalf("runs = %d, want 1 for a coalesced burst", got)
	}
}

func TestQueue_ImmediateRequestOwnsTriggerLabel(t *testing.T) {
	runner := &fakeRunner{}
	q := NewQueue(runner, time.Hour, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	// A debounced mutation is pending; a scheduled run pulls the due time
	// forward and the run must be attributed to it.
	q.Enqueue("mutation")
	q.EnqueueNow("scheduled")

	waitFor(t, func() bool { return runner.count() == 1 })
	if got := runner.trigger(0); got != "scheduled" {
		t.Fatalf("trigger = %q, want scheduled", got)
	}
}

func TestQueue_RequestDuringRunTriggersOneFollowUp(t *testing.T) {
	runner := &fakeRunner{
		started: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	q := NewQueue(runner, 10*time.Millisecond, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	q.EnqueueNow("first")
	<-runner.started // run is in flight

	// Three requests arrive mid-run; they must collapse into one follow-up.
	q.Enqueue("mutation")
	q.Enqueue("mutation")
	q.Enqueue("mutation")
	close(runner.release)
	<-runner.started

	waitFor(t, func() bool { return runner.count() == 2 })
	time.Sleep(100 * time.Millisecond)
	if got := runner.count(); got != 2 {
		t.Fatalf("runs = %d, want exactly 2", got)
	}
}

func TestQueue_FlushWaitsForCompletion(t *testing.T) {
	runner := &fakeRunner{}
	q := NewQueue(runner, time.Hour, zerolog.Nop()) // debounce must not matter
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	if err := q.Flush(ctx, "manual"); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := runner.count(); got != 1 {
		t.Fatalf("runs after Flush = %d, want 1", got)
	}
}

func TestQueue_FlushDuringRunWaitsForFollowUp(t *testing.T) {
	runner := &fakeRunner{
		started: make(chan struct{}, 2),
		release: make(chan struct{}, 2),
	}
	q := NewQueue(runner, time.Hour, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	q.EnqueueNow("first")
	<-runner.started

	flushed := make(chan error, 1)
	go func() { flushed <- q.Flush(ctx, "manual") }()

	// Finish the first run; the flush must still be waiting on its own run.
	runner.release <- struct{}{}
	select {
	case <-flushed:
		t.Fatal("Flush returned before its run completed")
	case <-time.After(50 * time.Millisecond):
	}

	<-runner.started
	runner.release <- struct{}{}
	if err := <-flushed; err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := runner.count(); got != 2 {
		t.Fatalf("runs = %d, want 2", got)
	}
}

func TestQueue_FlushHonorsContext(t *testing.T) {
	runner := &fakeRunner{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	q := NewQueue(runner, time.Hour, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	q.EnqueueNow("first")
	<-runner.started

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer flushCancel()
	if err := q.Flush(flushCtx, "manual"); err == nil {
		t.Fatal("expected context error from Flush")
	}
	close(runner.release)
}
