package ops

import (
	"context"
	"sync"

	crewsync "github.com/crewdesk/crewdesk/internal/sync"
)

// Recorder wraps the sync runner and keeps the most recent run result for
// the /status endpoint. It sits between the queue and the orchestrator.
type Recorder struct {
	inner crewsync.Runner

	mu   sync.Mutex
	last *crewsync.Result
}

// NewRecorder wraps inner.
func NewRecorder(inner crewsync.Runner) *Recorder {
	return &Recorder{inner: inner}
}

// Run delegates to the wrapped runner and records its result.
func (r *Recorder) Run(ctx context.Context, trigger string) (*crewsync.Result, error) {
	res, err := r.inner.Run(ctx, trigger)
	if res != nil {
		r.mu.Lock()
		r.last = res
		r.mu.Unlock()
	}
	return res, err
}

// Last returns the most recent run result, or nil before the first run.
func (r *Recorder) Last() *crewsync.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}
