package sync

import (
	"errors"
	"sync"
	"time"

	"netbox-geo/core/netbox"
	"netbox-geo/core/record"

	"github.com/google/uuid"
)

// FailureKind classifies why an individual record was not synced.
type FailureKind string

const (
	FailureTransient   FailureKind = "transient"
	FailureRateLimited FailureKind = "rate_limited"
	FailurePermanent   FailureKind = "permanent"
	FailureNotFound    FailureKind = "not_found"
	FailureValidation  FailureKind = "validation"

	// FailurePreempted means the record's parent failed to be created,
	// so the record itself was never sent.
	FailurePreempted FailureKind = "dependency_preempted"

	// FailureNotAttempted means the run was cancelled before the
	// record's operation was dispatched.
	FailureNotAttempted FailureKind = "not_attempted"
)

// Failure is one record that did not reach the remote state the plan
// called for.
type Failure struct {
	Key     record.Key  `json:"key"`
	Op      OpType      `json:"op,omitempty"`
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// SourceFailure is a source whose collection failed as a whole.
type SourceFailure struct {
	Source  record.Source `json:"source"`
	Message string        `json:"message"`
}

// Report summarizes a sync run. Counts refer to confirmed remote
// mutations, not planned ones; a dry run reports only the planned
// section.
type Report struct {
	RunID     string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	DryRun    bool          `json:"dry_run"`

	PlannedCreates int `json:"planned_creates"`
	PlannedUpdates int `json:"planned_updates"`
	PlannedDeletes int `json:"planned_deletes"`
	Unchanged      int `json:"unchanged"`

	Created int `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`

	Failures       []Failure       `json:"failures,omitempty"`
	SourceFailures []SourceFailure `json:"source_failures,omitempty"`
}

// Failed returns the number of per-record failures, preempted and
// not-attempted records included.
func (r *Report) Failed() int { return len(r.Failures) }

// Success reports whether the run completed without any failure.
func (r *Report) Success() bool {
	return len(r.Failures) == 0 && len(r.SourceFailures) == 0
}

// reportBuilder accumulates results from concurrent batch workers.
type reportBuilder struct {
	mu     sync.Mutex
	report Report
}

func newReportBuilder(now time.Time) *reportBuilder {
	return &reportBuilder{report: Report{
		RunID:     uuid.NewString(),
		StartedAt: now,
	}}
}

func (b *reportBuilder) applied(op OpType) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch op {
	case OpCreate:
		b.report.Created++
	case OpUpdate:
		b.report.Updated++
	case OpDelete:
		b.report.Deleted++
	}
}

func (b *reportBuilder) failed(key record.Key, op OpType, kind FailureKind, msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.report.Failures = append(b.report.Failures, Failure{Key: key, Op: op, Kind: kind, Message: msg})
}

func (b *reportBuilder) sourceFailed(source record.Source, msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.report.SourceFailures = append(b.report.SourceFailures, SourceFailure{Source: source, Message: msg})
}

func (b *reportBuilder) finish(d time.Duration) *Report {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.report.Duration = d
	return &b.report
}

// classifyFailure maps a remote error onto a failure kind.
func classifyFailure(err error) FailureKind {
	var apiErr *netbox.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case netbox.ErrKindRateLimited:
			return FailureRateLimited
		case netbox.ErrKindNotFound:
			return FailureNotFound
		case netbox.ErrKindTransient:
			return FailureTransient
		default:
			return FailurePermanent
		}
	}
	return FailureTransient
}
