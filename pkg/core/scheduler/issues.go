package scheduler

import (
	"time"

	"github.com/noamgal/duty-roster/pkg/core/model"
)

// IssueCause classifies why a slot could not be filled.
type IssueCause string

const (
	// CauseNoQualifiedWorker: no roster worker holds the qualification.
	CauseNoQualifiedWorker IssueCause = "no_qualified_worker"
	// CauseAllQualifiedExhausted: qualified workers exist but every one
	// was rejected even at full relaxation.
	CauseAllQualifiedExhausted IssueCause = "all_qualified_exhausted"
	// CauseClosingUnavailable: no eligible closer for a weekend block.
	CauseClosingUnavailable IssueCause = "closing_unavailable"
	// CauseCloserCapReached: the per-weekend closer cap left a
	// closing-eligible task's block unstaffed.
	CauseCloserCapReached IssueCause = "closer_cap_reached"
)

// Rejection records one candidate turned away from a slot and why.
type Rejection struct {
	WorkerID string
	Reason   RejectReason
}

// SlotIssue describes a slot that stayed empty after full relaxation.
type SlotIssue struct {
	Date       time.Time
	Task       model.TaskType
	Cause      IssueCause
	Rejections []Rejection
}

// RelaxationNote records a slot that was only fillable by waiving soft
// constraints, and which ones were waived, in waive order.
type RelaxationNote struct {
	Date     time.Time
	Task     model.TaskType
	WorkerID string
	Waived   []SoftConstraint
}

// IssueReport is the structured warning output of a generation run.
// A non-empty report does not mean the run failed: partial schedules
// are a valid outcome.
type IssueReport struct {
	Unfilled    []SlotIssue
	Relaxations []RelaxationNote
}

// HasIssues reports whether anything in the run needs operator
// attention.
func (r *IssueReport) HasIssues() bool {
	return len(r.Unfilled) > 0 || len(r.Relaxations) > 0
}

// addUnfilled appends an unfilled-slot entry.
func (r *IssueReport) addUnfilled(date time.Time, task model.TaskType, cause IssueCause, rejections []Rejection) {
	r.Unfilled = append(r.Unfilled, SlotIssue{
		Date:       date,
		Task:       task,
		Cause:      cause,
		Rejections: rejections,
	})
}

// addRelaxation appends a relaxed-fill note.
func (r *IssueReport) addRelaxation(date time.Time, task model.TaskType, workerID string, waived []SoftConstraint) {
	note := RelaxationNote{Date: date, Task: task, WorkerID: workerID}
	note.Waived = append(note.Waived, waived...)
	r.Relaxations = append(r.Relaxations, note)
}
