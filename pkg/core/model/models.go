package model

import "time"

// Seniority is an ordinal category for a worker's service length.
type Seniority int

const (
	SeniorityJunior Seniority = iota
	SeniorityMid
	SenioritySenior
)

func (s Seniority) IsValid() bool {
	return s >= SeniorityJunior && s <= SenioritySenior
}

func (s Seniority) String() string {
	switch s {
	case SeniorityJunior:
		return "junior"
	case SeniorityMid:
		return "mid"
	case SenioritySenior:
		return "senior"
	default:
		return "unknown"
	}
}

// TaskType identifies one of the fixed secondary duty roles.
type TaskType string

const (
	TaskSupervisor TaskType = "supervisor"
	TaskDriver     TaskType = "driver"
	TaskEscort     TaskType = "escort"
	TaskGateGuard  TaskType = "gate_guard"
)

// TaskSpec describes a task type's staffing rules: the qualification a
// worker must hold, whether the task is staffed over closing weekends
// or on weekdays only, and whether it is restricted to officers.
type TaskSpec struct {
	Type            TaskType
	Qualification   string
	ClosingEligible bool
	OfficerOnly     bool
}

// DefaultTasks is the standard task list, in priority order. The order
// is significant: slots are filled task-by-task in this order.
func DefaultTasks() []TaskSpec {
	return []TaskSpec{
		{Type: TaskSupervisor, Qualification: "supervision", ClosingEligible: true, OfficerOnly: true},
		{Type: TaskDriver, Qualification: "driving", ClosingEligible: true},
		{Type: TaskEscort, Qualification: "escorting", ClosingEligible: false},
		{Type: TaskGateGuard, Qualification: "guarding", ClosingEligible: false},
	}
}

// Worker represents a member of the roster.
type Worker struct {
	ID             string
	Name           string
	Qualifications []string
	Seniority      Seniority

	// ClosingIntervalWeeks is the target cadence between weekend closing
	// blocks for this worker. 0 means the worker never closes.
	ClosingIntervalWeeks int

	// Score is the accumulated fairness metric. Lower means less loaded.
	Score float64

	// Officer admits the worker to officer-only task types.
	Officer bool

	// WeeksSinceLastClosing counts the weeks elapsed since the worker's
	// most recent closing block. Persisted between scheduling periods.
	WeeksSinceLastClosing int

	// LastPrimaryDuty is the date of the worker's most recent X-duty,
	// used for the post-duty cooldown. Zero value means none known.
	LastPrimaryDuty time.Time
}

// HasQualification reports whether the worker holds the named
// qualification.
func (w *Worker) HasQualification(q string) bool {
	for _, held := range w.Qualifications {
		if held == q {
			return true
		}
	}
	return false
}

// CanClose reports whether the worker participates in weekend closing
// rotation at all.
func (w *Worker) CanClose() bool {
	return w.ClosingIntervalWeeks > 0
}

// ScheduleWindow identifies one stored schedule instance covering a
// contiguous date range.
type ScheduleWindow struct {
	ID    string
	Start time.Time
	End   time.Time
}

// Contains reports whether the date falls inside the window (inclusive
// on both ends). Dates are compared at day granularity.
func (sw ScheduleWindow) Contains(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(DateOnly(sw.Start)) && !d.After(DateOnly(sw.End))
}

// Valid reports whether the window is well formed.
func (sw ScheduleWindow) Valid() bool {
	return !sw.Start.IsZero() && !sw.End.IsZero() && !sw.End.Before(sw.Start)
}

// DateOnly truncates a time to midnight UTC so dates compare at day
// granularity regardless of the source location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateKey formats a date as its canonical map key.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
