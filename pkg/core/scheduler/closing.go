package scheduler

import (
	"sort"
	"time"

	"github.com/noamgal/duty-roster/pkg/core/model"
)

// weekend is one closing block span: Thursday, Friday, Saturday, with
// their grid column indices.
type weekend struct {
	days    [3]time.Time
	dateIdx [3]int
}

// enumerateWeekends finds every complete Thursday–Saturday span present
// in the grid, in chronological order. A weekend with any of its three
// days missing from the grid (range edge or excluded date) is not a
// block and is skipped entirely: blocks are always exactly three days.
func enumerateWeekends(grid *model.AssignmentGrid) []weekend {
	var weekends []weekend
	for _, d := range grid.Dates {
		if d.Weekday() != time.Thursday {
			continue
		}
		w := weekend{days: [3]time.Time{d, d.AddDate(0, 0, 1), d.AddDate(0, 0, 2)}}
		complete := true
		for i, day := range w.days {
			idx := grid.DateIndex(day)
			if idx < 0 {
				complete = false
				break
			}
			w.dateIdx[i] = idx
		}
		if complete {
			weekends = append(weekends, w)
		}
	}
	return weekends
}

// planClosingBlocks runs the weekend pass: for each weekend, one worker
// per closing-eligible task performs that task Thursday through
// Saturday. Selection is keyed by closing-interval debt so each
// worker's actual cadence tracks their configured target, with the
// fairness ranking breaking debt ties. Interval bookkeeping is advanced
// weekend by weekend. Failures are reported, never fatal.
func planClosingBlocks(grid *model.AssignmentGrid, rs *RunState, pol Policy, report *IssueReport) {
	for _, wk := range enumerateWeekends(grid) {
		assigned := make(map[string]bool)
		blocks := 0

		for taskIdx, task := range grid.Tasks {
			if !task.ClosingEligible {
				continue
			}

			// Caller-pinned blocks stand regardless of the cap.
			if workerID, handled := adoptPrePlannedBlock(grid, wk, taskIdx); handled {
				if workerID != "" {
					rs.recordClosingBlock(workerID, task.Type, pol.ClosingScoreWeight)
					assigned[workerID] = true
					blocks++
				}
				continue
			}

			if blocks >= pol.ClosersPerWeekend {
				report.addUnfilled(wk.days[0], task.Type, CauseCloserCapReached, nil)
				continue
			}

			candidates, rejections := closerCandidates(grid, rs, pol, wk, task)
			if len(candidates) == 0 {
				report.addUnfilled(wk.days[0], task.Type, CauseClosingUnavailable, rejections)
				continue
			}

			best := pickCloser(candidates, task, rs)
			for _, idx := range wk.dateIdx {
				// Cells were verified free when filtering candidates.
				_ = grid.Set(taskIdx, idx, best.ID)
			}
			rs.recordClosingBlock(best.ID, task.Type, pol.ClosingScoreWeight)
			assigned[best.ID] = true
			blocks++
		}

		// Cadence bookkeeping: assigned closers restart their interval,
		// everyone else in the closing rotation falls one week further
		// behind.
		rs.EachWorker(func(w *model.Worker) {
			if !w.CanClose() {
				return
			}
			if assigned[w.ID] {
				w.WeeksSinceLastClosing = 0
			} else {
				w.WeeksSinceLastClosing++
			}
		})
	}
}

// adoptPrePlannedBlock handles hybrid-mode weekends. If the caller pinned
// the whole block to one worker, that worker is adopted as the weekend's
// closer. If the block is partially occupied it is left untouched: pinned
// cells are immutable and a split block must not be completed into a
// malformed one. Returns handled=false only when all three cells are
// free.
func adoptPrePlannedBlock(grid *model.AssignmentGrid, wk weekend, taskIdx int) (workerID string, handled bool) {
	var ids [3]string
	filled := 0
	for i, idx := range wk.dateIdx {
		if id, ok := grid.Get(taskIdx, idx); ok {
			ids[i] = id
			filled++
		}
	}
	switch {
	case filled == 0:
		return "", false
	case filled == 3 && ids[0] == ids[1] && ids[1] == ids[2]:
		return ids[0], true
	default:
		return "", true
	}
}

// closerCandidates filters the roster down to workers who may take the
// whole block. Only hard constraints apply here: the weekly limit and
// variety cap govern weekday slots, and closer isolation is the
// consequence of this very selection.
func closerCandidates(grid *model.AssignmentGrid, rs *RunState, pol Policy, wk weekend, task model.TaskSpec) ([]*model.Worker, []Rejection) {
	var candidates []*model.Worker
	var rejections []Rejection

	rs.EachWorker(func(w *model.Worker) {
		if !w.CanClose() {
			return
		}
		if rs.IsCloser(w.ID) {
			// One block per worker per period.
			rejections = append(rejections, Rejection{WorkerID: w.ID, Reason: RejectCloserIsolation})
			return
		}
		for i, idx := range wk.dateIdx {
			slot := Slot{Task: task, Date: wk.days[i], TaskIdx: -1, DateIdx: idx}
			if ok, reason := checkHardOnly(w, slot, grid, pol); !ok {
				rejections = append(rejections, Rejection{WorkerID: w.ID, Reason: reason})
				return
			}
		}
		candidates = append(candidates, w)
	})

	return candidates, rejections
}

// checkHardOnly evaluates only the never-waivable constraints.
func checkHardOnly(w *model.Worker, slot Slot, grid *model.AssignmentGrid, pol Policy) (bool, RejectReason) {
	if !w.HasQualification(slot.Task.Qualification) {
		return false, RejectNotQualified
	}
	if slot.Task.OfficerOnly && !w.Officer {
		return false, RejectNotOfficer
	}
	if _, busy := grid.WorkerOn(w.ID, slot.DateIdx); busy {
		return false, RejectAlreadyAssigned
	}
	if inCooldown(w, slot.Date, pol.CooldownDays) {
		return false, RejectCooldown
	}
	return true, ""
}

// pickCloser orders block candidates by closing-interval debt, highest
// first, with the regular fairness ranking breaking ties. Debt is the
// worker's weeks since last closing relative to their target interval:
// a worker at 6 weeks on a 4-week target (1.5) outranks one at 5 weeks
// on a 4-week target (1.25).
func pickCloser(candidates []*model.Worker, task model.TaskSpec, rs *RunState) *model.Worker {
	ranked := rankCandidates(candidates, task, rs)
	sort.SliceStable(ranked, func(i, j int) bool {
		return closingDebt(ranked[i]) > closingDebt(ranked[j])
	})
	return ranked[0]
}

func closingDebt(w *model.Worker) float64 {
	return float64(w.WeeksSinceLastClosing) / float64(w.ClosingIntervalWeeks)
}
