package scheduler

import (
	"sort"
	"time"

	"github.com/noamgal/duty-roster/pkg/core/model"
)

// RunState carries all mutable bookkeeping for a single generation run.
// It is created at Init from worker snapshots and discarded (after score
// commit) at Done. It is never shared between runs.
type RunState struct {
	workers map[string]*model.Worker
	// order holds worker ids sorted ascending. Every whole-roster walk
	// goes through this slice so runs stay deterministic.
	order []string

	// weeklyCount: worker id -> week key -> Y assignments that week.
	weeklyCount map[string]map[string]int
	// taskCount: worker id -> task type -> assignments this period.
	taskCount map[string]map[model.TaskType]int
	// closers marks workers holding a closing block this period.
	closers map[string]bool
	// stagedScore accumulates score deltas, committed only at Done.
	stagedScore map[string]float64

	// qualificationHolders: qualification -> number of roster workers
	// holding it. Computed once at Init, used by the scarcity ranking.
	qualificationHolders map[string]int
}

// newRunState snapshots the roster. Workers are copied so an aborted
// run leaves the caller's slice untouched.
func newRunState(workers []model.Worker) *RunState {
	rs := &RunState{
		workers:              make(map[string]*model.Worker, len(workers)),
		order:                make([]string, 0, len(workers)),
		weeklyCount:          make(map[string]map[string]int),
		taskCount:            make(map[string]map[model.TaskType]int),
		closers:              make(map[string]bool),
		stagedScore:          make(map[string]float64),
		qualificationHolders: make(map[string]int),
	}
	for i := range workers {
		w := workers[i]
		rs.workers[w.ID] = &w
		rs.order = append(rs.order, w.ID)
		for _, q := range w.Qualifications {
			rs.qualificationHolders[q]++
		}
	}
	sort.Strings(rs.order)
	return rs
}

// Worker returns the run's snapshot of the worker.
func (rs *RunState) Worker(id string) *model.Worker {
	return rs.workers[id]
}

// EachWorker walks the roster in id order.
func (rs *RunState) EachWorker(fn func(w *model.Worker)) {
	for _, id := range rs.order {
		fn(rs.workers[id])
	}
}

// weekKey maps a date to the Sunday starting its week. Weeks run
// Sunday through Saturday.
func weekKey(date time.Time) string {
	d := model.DateOnly(date)
	return model.DateKey(d.AddDate(0, 0, -int(d.Weekday())))
}

// WeeklyAssignments returns the worker's Y-task count in the week
// containing the date.
func (rs *RunState) WeeklyAssignments(workerID string, date time.Time) int {
	return rs.weeklyCount[workerID][weekKey(date)]
}

// TaskAssignments returns how many times the worker has been given the
// task type this period.
func (rs *RunState) TaskAssignments(workerID string, task model.TaskType) int {
	return rs.taskCount[workerID][task]
}

// IsCloser reports whether the worker holds a closing block this period.
func (rs *RunState) IsCloser(workerID string) bool {
	return rs.closers[workerID]
}

// QualificationHolders returns how many roster workers hold the
// qualification.
func (rs *RunState) QualificationHolders(q string) int {
	return rs.qualificationHolders[q]
}

// recordAssignment books a single-day Y assignment: weekly and
// task-type tallies plus the staged score delta.
func (rs *RunState) recordAssignment(workerID string, task model.TaskType, date time.Time, scoreDelta float64) {
	wk := weekKey(date)
	if rs.weeklyCount[workerID] == nil {
		rs.weeklyCount[workerID] = make(map[string]int)
	}
	rs.weeklyCount[workerID][wk]++
	if rs.taskCount[workerID] == nil {
		rs.taskCount[workerID] = make(map[model.TaskType]int)
	}
	rs.taskCount[workerID][task]++
	rs.stagedScore[workerID] += scoreDelta
}

// recordClosingBlock books a weekend closing block: the closer flag,
// one task-type tally for the block, and the staged score delta.
func (rs *RunState) recordClosingBlock(workerID string, task model.TaskType, scoreDelta float64) {
	rs.closers[workerID] = true
	if rs.taskCount[workerID] == nil {
		rs.taskCount[workerID] = make(map[model.TaskType]int)
	}
	rs.taskCount[workerID][task]++
	rs.stagedScore[workerID] += scoreDelta
}

// commit applies staged score deltas to the snapshots and returns the
// updated roster in id order. Called exactly once, at Done.
func (rs *RunState) commit() []model.Worker {
	out := make([]model.Worker, 0, len(rs.order))
	for _, id := range rs.order {
		w := *rs.workers[id]
		w.Score += rs.stagedScore[id]
		out = append(out, w)
	}
	return out
}
