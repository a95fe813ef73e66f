package scheduler

import (
	"sort"

	"github.com/noamgal/duty-roster/pkg/core/model"
)

// rankCandidates orders eligible candidates for a slot, best first.
// The composite key, ascending:
//
//  1. effective fairness score (persisted score plus this run's staged
//     delta), so less loaded workers come first;
//  2. this task type's count for the worker this period;
//  3. scarcity cost: a worker whose other qualifications are held by
//     few people is kept in reserve for the slots only they can fill;
//  4. worker id, for a deterministic total order.
//
// The ranker never mutates state; the caller applies the assignment.
func rankCandidates(candidates []*model.Worker, task model.TaskSpec, rs *RunState) []*model.Worker {
	ranked := make([]*model.Worker, len(candidates))
	copy(ranked, candidates)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]

		scoreA := a.Score + rs.stagedScore[a.ID]
		scoreB := b.Score + rs.stagedScore[b.ID]
		if scoreA != scoreB {
			return scoreA < scoreB
		}

		taskA := rs.TaskAssignments(a.ID, task.Type)
		taskB := rs.TaskAssignments(b.ID, task.Type)
		if taskA != taskB {
			return taskA < taskB
		}

		costA := scarcityCost(a, task, rs)
		costB := scarcityCost(b, task, rs)
		if costA != costB {
			return costA < costB
		}

		return a.ID < b.ID
	})

	return ranked
}

// pickBest returns the top-ranked candidate, or nil if there is none.
func pickBest(candidates []*model.Worker, task model.TaskSpec, rs *RunState) *model.Worker {
	if len(candidates) == 0 {
		return nil
	}
	return rankCandidates(candidates, task, rs)[0]
}

// scarcityCost measures how much scarce capability assigning this
// worker would consume. Each qualification the worker holds beyond the
// slot's own contributes inversely to how many roster workers hold it:
// a qualification held by one worker costs 1.0, one held by ten costs
// 0.1. Workers with low cost are safe to spend here; high-cost workers
// are the only cover for other slots and should be left available.
func scarcityCost(w *model.Worker, task model.TaskSpec, rs *RunState) float64 {
	cost := 0.0
	for _, q := range w.Qualifications {
		if q == task.Qualification {
			continue
		}
		if holders := rs.QualificationHolders(q); holders > 0 {
			cost += 1.0 / float64(holders)
		}
	}
	return cost
}
