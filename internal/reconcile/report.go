// Package reconcile makes Discord match the record store: one channel per
// client, one thread per open job, a pinned card in each. Every operation is
// a converging ensure: find what exists, repair what drifted, create what is
// missing, and report what happened instead of logging and moving on.
package reconcile

import (
	"errors"
	"fmt"

	"github.com/crewdesk/crewdesk/internal/platform"
	"github.com/crewdesk/crewdesk/internal/store"
)

// ErrValidation marks caller input that can never succeed; it is surfaced
// to the user rather than retried.
var ErrValidation = errors.New("reconcile: invalid input")

// Outcome says what an ensure did to one entity.
type Outcome string

const (
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeCreated   Outcome = "created"
	OutcomeRepaired  Outcome = "repaired"
	OutcomeFailed    Outcome = "failed"
)

// Kind buckets failures for metrics and triage.
type Kind string

const (
	KindNone       Kind = ""
	KindNotFound   Kind = "not_found"
	KindPermission Kind = "permission"
	KindValidation Kind = "validation"
	KindTransient  Kind = "transient"
)

// Classify maps an error onto a Kind. Unknown errors count as transient;
// the next sync retries them.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, platform.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return KindNotFound
	case errors.Is(err, platform.ErrPermission):
		return KindPermission
	case errors.Is(err, ErrValidation):
		return KindValidation
	default:
		return KindTransient
	}
}

// Report is the result of reconciling one entity.
type Report struct {
	Entity  string // "client", "job", "board"
	ID      string
	Outcome Outcome
	Err     error
}

func (r Report) Failed() bool { return r.Outcome == OutcomeFailed }

// Kind returns the failure bucket, or KindNone on success.
func (r Report) Kind() Kind { return Classify(r.Err) }

func (r Report) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", r.Entity, r.ID, r.Outcome, r.Err)
	}
	return fmt.Sprintf("%s %s: %s", r.Entity, r.ID, r.Outcome)
}

func failed(entity, id string, err error) Report {
	return Report{Entity: entity, ID: id, Outcome: OutcomeFailed, Err: err}
}

func done(entity, id string, outcome Outcome) Report {
	return Report{Entity: entity, ID: id, Outcome: outcome}
}
