package scheduler

import (
	"time"

	"github.com/noamgal/duty-roster/pkg/core/model"
)

// Policy holds the tunable scheduling rules. Zero fields fall back to
// the defaults.
type Policy struct {
	// WeeklyLimit caps Y tasks per worker per Sunday-based week.
	WeeklyLimit int
	// TaskVarietyCap caps repeats of the same task type per worker per
	// period.
	TaskVarietyCap int
	// ClosersPerWeekend caps closing blocks planned per weekend.
	ClosersPerWeekend int
	// CooldownDays is the no-Y-task window after a primary duty.
	CooldownDays int
	// HorizonDays bounds the schedulable range length.
	HorizonDays int
	// WeekdayScoreWeight is the score added per weekday assignment.
	WeekdayScoreWeight float64
	// ClosingScoreWeight is the score added per closing block.
	ClosingScoreWeight float64
}

// DefaultPolicy returns the standard rules: one Y task per week, one of
// each task type per period, two closers per weekend, one cooldown day,
// a one-year horizon.
func DefaultPolicy() Policy {
	return Policy{
		WeeklyLimit:        1,
		TaskVarietyCap:     1,
		ClosersPerWeekend:  2,
		CooldownDays:       1,
		HorizonDays:        366,
		WeekdayScoreWeight: 1.0,
		ClosingScoreWeight: 2.0,
	}
}

func (p Policy) withDefaults() Policy {
	def := DefaultPolicy()
	if p.WeeklyLimit <= 0 {
		p.WeeklyLimit = def.WeeklyLimit
	}
	if p.TaskVarietyCap <= 0 {
		p.TaskVarietyCap = def.TaskVarietyCap
	}
	if p.ClosersPerWeekend <= 0 {
		p.ClosersPerWeekend = def.ClosersPerWeekend
	}
	if p.CooldownDays <= 0 {
		p.CooldownDays = def.CooldownDays
	}
	if p.HorizonDays <= 0 {
		p.HorizonDays = def.HorizonDays
	}
	if p.WeekdayScoreWeight <= 0 {
		p.WeekdayScoreWeight = def.WeekdayScoreWeight
	}
	if p.ClosingScoreWeight <= 0 {
		p.ClosingScoreWeight = def.ClosingScoreWeight
	}
	return p
}

// PreAssignment is a caller-fixed cell for hybrid mode. The generator
// schedules around it and never overwrites it.
type PreAssignment struct {
	Task     model.TaskType
	Date     time.Time
	WorkerID string
}

// Input is one generation request. The worker slice is treated as an
// immutable snapshot: updated copies come back in the Result.
type Input struct {
	Workers []model.Worker
	Tasks   []model.TaskSpec
	Start   time.Time
	End     time.Time
	// ExcludedDates produce no slots at all (holidays, stand-downs).
	ExcludedDates []time.Time
	// Pre holds hybrid-mode fixed assignments.
	Pre    []PreAssignment
	Policy Policy
}

// Result is the completed run output. Workers carries the updated
// scores and closing bookkeeping for the caller to persist; the input
// slice is untouched.
type Result struct {
	Grid    *model.AssignmentGrid
	Report  *IssueReport
	Workers []model.Worker
}

// Generate runs the full pipeline: weekend closing blocks first, then
// weekday slots under the strict tier, then one-at-a-time relaxation
// for whatever is left. Identical inputs produce identical results.
// Validation failures return an error with no partial output; unfilled
// slots are report entries, not errors.
func Generate(input Input) (*Result, error) {
	pol := input.Policy.withDefaults()

	if err := validate(input, pol); err != nil {
		return nil, err
	}

	grid := model.NewGrid(input.Tasks, buildDates(input))
	for _, pre := range input.Pre {
		dateIdx := grid.DateIndex(pre.Date)
		if dateIdx < 0 {
			return nil, model.Invalid("pre-assignments", "date %s is excluded", model.DateKey(pre.Date))
		}
		grid.Pin(grid.TaskIndex(pre.Task), dateIdx, pre.WorkerID)
	}

	rs := newRunState(input.Workers)
	seedPinnedWeekdays(grid, rs, pol)
	report := &IssueReport{}

	planClosingBlocks(grid, rs, pol, report)
	fillWeekdays(grid, rs, pol, report)

	return &Result{
		Grid:    grid,
		Report:  report,
		Workers: rs.commit(),
	}, nil
}

// buildDates lists the schedulable dates ascending, skipping exclusions.
func buildDates(input Input) []time.Time {
	excluded := make(map[string]bool, len(input.ExcludedDates))
	for _, d := range input.ExcludedDates {
		excluded[model.DateKey(d)] = true
	}
	var dates []time.Time
	for d := model.DateOnly(input.Start); !d.After(model.DateOnly(input.End)); d = d.AddDate(0, 0, 1) {
		if !excluded[model.DateKey(d)] {
			dates = append(dates, d)
		}
	}
	return dates
}

func validate(input Input, pol Policy) error {
	start, end := model.DateOnly(input.Start), model.DateOnly(input.End)
	if input.Start.IsZero() || input.End.IsZero() {
		return model.Invalid("date range", "start and end are required")
	}
	if end.Before(start) {
		return model.Invalid("date range", "end %s precedes start %s", model.DateKey(end), model.DateKey(start))
	}
	if days := int(end.Sub(start).Hours()/24) + 1; days > pol.HorizonDays {
		return model.Invalid("date range", "%d days exceeds the %d-day horizon", days, pol.HorizonDays)
	}

	if len(input.Tasks) == 0 {
		return model.Invalid("tasks", "task list is empty")
	}
	seenTasks := make(map[model.TaskType]bool, len(input.Tasks))
	for _, t := range input.Tasks {
		if seenTasks[t.Type] {
			return model.Invalid("tasks", "duplicate task type %q", t.Type)
		}
		seenTasks[t.Type] = true
	}

	seenWorkers := make(map[string]bool, len(input.Workers))
	for _, w := range input.Workers {
		if w.ID == "" {
			return model.Invalid("workers", "worker with empty id")
		}
		if seenWorkers[w.ID] {
			return model.Invalid("workers", "duplicate worker id %q", w.ID)
		}
		seenWorkers[w.ID] = true
	}

	for _, pre := range input.Pre {
		if !seenTasks[pre.Task] {
			return model.Invalid("pre-assignments", "unknown task type %q", pre.Task)
		}
		d := model.DateOnly(pre.Date)
		if d.Before(start) || d.After(end) {
			return model.Invalid("pre-assignments", "date %s outside range", model.DateKey(d))
		}
		if !seenWorkers[pre.WorkerID] {
			return model.Invalid("pre-assignments", "unknown worker id %q", pre.WorkerID)
		}
	}

	return nil
}

// seedPinnedWeekdays books hybrid-mode weekday pins into the run's
// counters and staged score, so a pinned worker competes for the rest
// of the period under the same caps as everyone else. Closing-day pins
// are booked by the weekend pass when it adopts a whole block.
func seedPinnedWeekdays(grid *model.AssignmentGrid, rs *RunState, pol Policy) {
	for taskIdx, task := range grid.Tasks {
		for dateIdx, d := range grid.Dates {
			if isClosingDay(d) || !grid.IsPinned(taskIdx, dateIdx) {
				continue
			}
			if id, ok := grid.Get(taskIdx, dateIdx); ok {
				rs.recordAssignment(id, task.Type, d, pol.WeekdayScoreWeight)
			}
		}
	}
}

// fillWeekdays runs the strict pass over every weekday slot in
// task-priority then chronological order, then the relaxed pass over
// whatever stayed empty. A slot reaches the relaxed tier only when the
// strict tier found zero eligible candidates for it.
func fillWeekdays(grid *model.AssignmentGrid, rs *RunState, pol Policy, report *IssueReport) {
	type openSlot struct {
		slot       Slot
		rejections []Rejection
	}
	var remaining []openSlot

	// Strict pass.
	for _, slot := range weekdaySlots(grid) {
		candidates, rejections := gatherCandidates(grid, rs, pol, slot, waiveNone())
		if len(candidates) == 0 {
			remaining = append(remaining, openSlot{slot: slot, rejections: rejections})
			continue
		}
		assign(grid, rs, pol, slot, pickBest(candidates, slot.Task, rs))
	}

	// Relaxed pass: waive soft constraints one at a time, in order,
	// only as far as the slot requires.
	for _, open := range remaining {
		filled := false
		rejections := open.rejections

		for step := 1; step <= len(RelaxationOrder); step++ {
			ws := waiveFirst(step)
			candidates, stepRejections := gatherCandidates(grid, rs, pol, open.slot, ws)
			rejections = stepRejections
			if len(candidates) == 0 {
				continue
			}
			best := pickBest(candidates, open.slot.Task, rs)
			assign(grid, rs, pol, open.slot, best)
			report.addRelaxation(open.slot.Date, open.slot.Task.Type, best.ID, ws.waived())
			filled = true
			break
		}

		if !filled {
			cause := CauseAllQualifiedExhausted
			if rs.QualificationHolders(open.slot.Task.Qualification) == 0 {
				cause = CauseNoQualifiedWorker
			}
			report.addUnfilled(open.slot.Date, open.slot.Task.Type, cause, rejections)
		}
	}
}

// weekdaySlots lists the empty non-closing-day cells to fill, in
// task-priority then chronological order. Closing-day columns belong to
// the weekend pass; pinned cells are immutable inputs.
func weekdaySlots(grid *model.AssignmentGrid) []Slot {
	var slots []Slot
	for taskIdx, task := range grid.Tasks {
		for dateIdx, date := range grid.Dates {
			if isClosingDay(date) {
				continue
			}
			if _, filled := grid.Get(taskIdx, dateIdx); filled {
				continue
			}
			if grid.IsPinned(taskIdx, dateIdx) {
				continue
			}
			slots = append(slots, Slot{Task: task, Date: date, TaskIdx: taskIdx, DateIdx: dateIdx})
		}
	}
	return slots
}

// gatherCandidates runs the eligibility filter over the roster in id
// order, splitting it into eligible candidates and rejections.
func gatherCandidates(grid *model.AssignmentGrid, rs *RunState, pol Policy, slot Slot, ws waiveSet) ([]*model.Worker, []Rejection) {
	var candidates []*model.Worker
	var rejections []Rejection
	rs.EachWorker(func(w *model.Worker) {
		if ok, reason := checkEligibility(w, slot, grid, rs, pol, ws); ok {
			candidates = append(candidates, w)
		} else {
			rejections = append(rejections, Rejection{WorkerID: w.ID, Reason: reason})
		}
	})
	return candidates, rejections
}

func assign(grid *model.AssignmentGrid, rs *RunState, pol Policy, slot Slot, w *model.Worker) {
	// Slots are enumerated over empty, unpinned cells; Set cannot fail.
	_ = grid.Set(slot.TaskIdx, slot.DateIdx, w.ID)
	rs.recordAssignment(w.ID, slot.Task.Type, slot.Date, pol.WeekdayScoreWeight)
}
