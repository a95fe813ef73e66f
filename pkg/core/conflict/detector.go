// Package conflict cross-checks the generated secondary (Y) schedules
// against the independently maintained primary (X) duty rosters and
// reports every worker double-booked on a date. Findings are data for
// manual resolution, not errors.
package conflict

import (
	"sort"
	"time"

	"github.com/noamgal/duty-roster/pkg/core/model"
)

// Record is one double-booking: the worker appears on both rosters for
// the date.
type Record struct {
	WorkerID      string
	Date          time.Time
	PrimaryTask   string
	SecondaryTask model.TaskType
}

// PrimaryRoster is one stored X-schedule window. Assignments maps date
// key to worker id to the primary task name. Placeholder values are
// treated as empty.
type PrimaryRoster struct {
	Window      model.ScheduleWindow
	Assignments map[string]map[string]string
}

// SecondarySchedule is one stored Y-schedule window with its grid.
type SecondarySchedule struct {
	Window model.ScheduleWindow
	Grid   *model.AssignmentGrid
}

// FindConflicts scans every filled Y cell against a per-date index of
// the X rosters and returns the collisions sorted by date, worker, then
// task. The two schedule sets may use entirely different window
// boundaries; only dates covered by some X window can conflict. Each
// cell costs one index lookup.
func FindConflicts(primaries []PrimaryRoster, secondaries []SecondarySchedule) ([]Record, error) {
	index, err := buildPrimaryIndex(primaries)
	if err != nil {
		return nil, err
	}

	var records []Record
	for _, sec := range secondaries {
		if !sec.Window.Valid() {
			return nil, model.Invalid("secondary window", "malformed range %s..%s",
				model.DateKey(sec.Window.Start), model.DateKey(sec.Window.End))
		}
		if sec.Grid == nil {
			continue
		}
		grid := sec.Grid
		grid.FilledCells(func(taskIdx, dateIdx int, workerID string) {
			date := grid.Dates[dateIdx]
			primaryTask, ok := index[model.DateKey(date)][workerID]
			if !ok {
				return
			}
			records = append(records, Record{
				WorkerID:      workerID,
				Date:          date,
				PrimaryTask:   primaryTask,
				SecondaryTask: grid.Tasks[taskIdx].Type,
			})
		})
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.Before(records[j].Date)
		}
		if records[i].WorkerID != records[j].WorkerID {
			return records[i].WorkerID < records[j].WorkerID
		}
		return records[i].SecondaryTask < records[j].SecondaryTask
	})
	return records, nil
}

// buildPrimaryIndex flattens the X windows into one date -> worker ->
// task lookup. Windows must be well formed and must not overlap: a date
// served by two windows would make the lookup ambiguous.
func buildPrimaryIndex(primaries []PrimaryRoster) (map[string]map[string]string, error) {
	index := make(map[string]map[string]string)
	covered := make(map[string]bool)

	for _, pr := range primaries {
		if !pr.Window.Valid() {
			return nil, model.Invalid("primary window", "malformed range %s..%s",
				model.DateKey(pr.Window.Start), model.DateKey(pr.Window.End))
		}
		for d := model.DateOnly(pr.Window.Start); !d.After(model.DateOnly(pr.Window.End)); d = d.AddDate(0, 0, 1) {
			key := model.DateKey(d)
			if covered[key] {
				return nil, model.Invalid("primary window", "date %s covered by more than one window", key)
			}
			covered[key] = true
		}

		for dateKey, byWorker := range pr.Assignments {
			date, err := time.Parse("2006-01-02", dateKey)
			if err != nil {
				return nil, model.Invalid("primary roster", "bad date key %q", dateKey)
			}
			if !pr.Window.Contains(date) {
				return nil, model.Invalid("primary roster", "assignment on %s outside its window", dateKey)
			}
			for workerID, task := range byWorker {
				if model.IsPlaceholder(task) {
					continue
				}
				if index[dateKey] == nil {
					index[dateKey] = make(map[string]string)
				}
				index[dateKey][workerID] = task
			}
		}
	}

	return index, nil
}
