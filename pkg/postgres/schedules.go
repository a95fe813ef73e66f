package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/noamgal/duty-roster/pkg/core/conflict"
	"github.com/noamgal/duty-roster/pkg/core/model"
	"github.com/noamgal/duty-roster/pkg/core/scheduler"
)

// InsertSchedule stores a generated grid under a new window id and
// returns the window. Cells and window are written in one transaction.
func (d *DB) InsertSchedule(ctx context.Context, start, end time.Time, grid *model.AssignmentGrid, status string) (model.ScheduleWindow, error) {
	window := model.ScheduleWindow{
		ID:    uuid.New().String(),
		Start: model.DateOnly(start),
		End:   model.DateOnly(end),
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return model.ScheduleWindow{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO schedules (id, start_date, end_date, status)
		VALUES ($1, $2, $3, $4)
	`, window.ID, window.Start, window.End, status)
	if err != nil {
		return model.ScheduleWindow{}, fmt.Errorf("failed to insert schedule: %w", err)
	}

	var insertErr error
	grid.FilledCells(func(taskIdx, dateIdx int, workerID string) {
		if insertErr != nil {
			return
		}
		_, insertErr = tx.Exec(ctx, `
			INSERT INTO schedule_cells (schedule_id, task_type, duty_date, worker_id)
			VALUES ($1, $2, $3, $4)
		`, window.ID, string(grid.Tasks[taskIdx].Type), grid.Dates[dateIdx], workerID)
	})
	if insertErr != nil {
		return model.ScheduleWindow{}, fmt.Errorf("failed to insert schedule cell: %w", insertErr)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.ScheduleWindow{}, fmt.Errorf("failed to commit schedule: %w", err)
	}
	return window, nil
}

// GetSchedules loads every stored Y schedule with its grid, ordered by
// start date.
func (d *DB) GetSchedules(ctx context.Context) ([]conflict.SecondarySchedule, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, start_date, end_date FROM schedules ORDER BY start_date, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer rows.Close()

	var schedules []conflict.SecondarySchedule
	for rows.Next() {
		var window model.ScheduleWindow
		if err := rows.Scan(&window.ID, &window.Start, &window.End); err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		schedules = append(schedules, conflict.SecondarySchedule{Window: window})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedules: %w", err)
	}

	for i := range schedules {
		grid, err := d.loadGrid(ctx, schedules[i].Window)
		if err != nil {
			return nil, err
		}
		schedules[i].Grid = grid
	}

	return schedules, nil
}

// loadGrid reconstructs one schedule's grid from its cell rows. Task
// rows follow the default task order, with any unrecognized stored task
// types appended alphabetically.
func (d *DB) loadGrid(ctx context.Context, window model.ScheduleWindow) (*model.AssignmentGrid, error) {
	type cell struct {
		task   string
		date   time.Time
		worker string
	}

	rows, err := d.pool.Query(ctx, `
		SELECT task_type, duty_date, worker_id
		FROM schedule_cells
		WHERE schedule_id = $1
		ORDER BY task_type, duty_date
	`, window.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule cells: %w", err)
	}
	defer rows.Close()

	var cells []cell
	for rows.Next() {
		var c cell
		if err := rows.Scan(&c.task, &c.date, &c.worker); err != nil {
			return nil, fmt.Errorf("failed to scan schedule cell: %w", err)
		}
		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedule cells: %w", err)
	}

	tasks := model.DefaultTasks()
	known := make(map[model.TaskType]bool, len(tasks))
	for _, t := range tasks {
		known[t.Type] = true
	}
	var extra []string
	seenExtra := make(map[string]bool)
	for _, c := range cells {
		if t := model.TaskType(c.task); !known[t] && !seenExtra[c.task] {
			seenExtra[c.task] = true
			extra = append(extra, c.task)
		}
	}
	sort.Strings(extra)
	for _, t := range extra {
		tasks = append(tasks, model.TaskSpec{Type: model.TaskType(t)})
	}

	var dates []time.Time
	for d := window.Start; !d.After(window.End); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}

	grid := model.NewGrid(tasks, dates)
	for _, c := range cells {
		taskIdx := grid.TaskIndex(model.TaskType(c.task))
		dateIdx := grid.DateIndex(c.date)
		if taskIdx < 0 || dateIdx < 0 {
			return nil, fmt.Errorf("schedule %s has cell outside its window: %s on %s",
				window.ID, c.task, model.DateKey(c.date))
		}
		if err := grid.Set(taskIdx, dateIdx, c.worker); err != nil {
			return nil, fmt.Errorf("failed to place cell: %w", err)
		}
	}
	return grid, nil
}

// GetDraftAssignments returns the manually placed cells of draft
// schedules overlapping the range, for hybrid-mode generation.
func (d *DB) GetDraftAssignments(ctx context.Context, start, end time.Time) ([]scheduler.PreAssignment, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT c.task_type, c.duty_date, c.worker_id
		FROM schedule_cells c
		JOIN schedules s ON s.id = c.schedule_id
		WHERE s.status = 'draft' AND c.duty_date BETWEEN $1 AND $2
		ORDER BY c.task_type, c.duty_date
	`, model.DateOnly(start), model.DateOnly(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query draft assignments: %w", err)
	}
	defer rows.Close()

	var pre []scheduler.PreAssignment
	for rows.Next() {
		var task string
		var p scheduler.PreAssignment
		if err := rows.Scan(&task, &p.Date, &p.WorkerID); err != nil {
			return nil, fmt.Errorf("failed to scan draft assignment: %w", err)
		}
		p.Task = model.TaskType(task)
		pre = append(pre, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating draft assignments: %w", err)
	}
	return pre, nil
}

// GetPrimaryRosters loads every stored X roster with its assignments.
func (d *DB) GetPrimaryRosters(ctx context.Context) ([]conflict.PrimaryRoster, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, start_date, end_date FROM primary_rosters ORDER BY start_date, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query primary rosters: %w", err)
	}
	defer rows.Close()

	var rosters []conflict.PrimaryRoster
	for rows.Next() {
		var window model.ScheduleWindow
		if err := rows.Scan(&window.ID, &window.Start, &window.End); err != nil {
			return nil, fmt.Errorf("failed to scan primary roster: %w", err)
		}
		rosters = append(rosters, conflict.PrimaryRoster{
			Window:      window,
			Assignments: make(map[string]map[string]string),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating primary rosters: %w", err)
	}

	for i := range rosters {
		cellRows, err := d.pool.Query(ctx, `
			SELECT duty_date, worker_id, task_name
			FROM primary_roster_cells
			WHERE roster_id = $1
		`, rosters[i].Window.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to query primary roster cells: %w", err)
		}
		for cellRows.Next() {
			var date time.Time
			var workerID, taskName string
			if err := cellRows.Scan(&date, &workerID, &taskName); err != nil {
				cellRows.Close()
				return nil, fmt.Errorf("failed to scan primary roster cell: %w", err)
			}
			key := model.DateKey(date)
			if rosters[i].Assignments[key] == nil {
				rosters[i].Assignments[key] = make(map[string]string)
			}
			rosters[i].Assignments[key][workerID] = taskName
		}
		if err := cellRows.Err(); err != nil {
			cellRows.Close()
			return nil, fmt.Errorf("error iterating primary roster cells: %w", err)
		}
		cellRows.Close()
	}

	return rosters, nil
}
