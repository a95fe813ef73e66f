package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noamgal/duty-roster/internal/config"
	"github.com/noamgal/duty-roster/pkg/core/model"
	"github.com/noamgal/duty-roster/pkg/core/scheduler"
)

// GenerateScheduleResult contains the generation outcome.
type GenerateScheduleResult struct {
	Window    model.ScheduleWindow
	Grid      *model.AssignmentGrid
	Report    *scheduler.IssueReport
	Workers   []model.Worker
	Persisted bool
}

// GenerateScheduleStore defines the database operations needed for
// generating a schedule.
type GenerateScheduleStore interface {
	GetWorkers(ctx context.Context) ([]model.Worker, error)
	GetDraftAssignments(ctx context.Context, start, end time.Time) ([]scheduler.PreAssignment, error)
	InsertSchedule(ctx context.Context, start, end time.Time, grid *model.AssignmentGrid, status string) (model.ScheduleWindow, error)
	UpdateWorkerBookkeeping(ctx context.Context, workers []model.Worker) error
}

// GenerateSchedule runs the assignment engine over the date range and
// persists the grid plus updated worker bookkeeping. Draft cells stored
// for the range are passed through as immutable pre-assignments. If
// dryRun is true nothing is persisted.
func GenerateSchedule(
	ctx context.Context,
	database GenerateScheduleStore,
	cfg *config.Config,
	logger *zap.Logger,
	start, end time.Time,
	dryRun bool,
) (*GenerateScheduleResult, error) {
	logger.Debug("Starting generateSchedule",
		zap.String("start", model.DateKey(start)),
		zap.String("end", model.DateKey(end)),
		zap.Bool("dry_run", dryRun))

	// Step 1: DB query - load the roster snapshot
	logger.Debug("Fetching workers")
	workers, err := database.GetWorkers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workers: %w", err)
	}
	logger.Debug("Found workers", zap.Int("count", len(workers)))

	if len(workers) == 0 {
		return nil, fmt.Errorf("no workers found - please add workers first")
	}

	// Step 2: expand configured no-duty rules into excluded dates
	excluded, err := expandNoDutyDates(cfg.NoDutyRules, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to expand no-duty rules: %w", err)
	}
	logger.Debug("Excluded dates", zap.Int("count", len(excluded)))

	// Step 3: load draft cells for hybrid mode
	pre, err := database.GetDraftAssignments(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch draft assignments: %w", err)
	}
	logger.Debug("Pre-assigned cells", zap.Int("count", len(pre)))

	// Step 4: run the engine
	result, err := scheduler.Generate(scheduler.Input{
		Workers:       workers,
		Tasks:         model.DefaultTasks(),
		Start:         start,
		End:           end,
		ExcludedDates: excluded,
		Pre:           pre,
		Policy:        policyFromConfig(cfg),
	})
	if err != nil {
		return nil, fmt.Errorf("schedule generation failed: %w", err)
	}

	logger.Info("Schedule generated",
		zap.Int("unfilled_slots", len(result.Report.Unfilled)),
		zap.Int("relaxed_fills", len(result.Report.Relaxations)))

	out := &GenerateScheduleResult{
		Grid:    result.Grid,
		Report:  result.Report,
		Workers: result.Workers,
	}

	if dryRun {
		logger.Info("Dry run - skipping persistence")
		return out, nil
	}

	// Step 5: persist the grid, then commit worker bookkeeping
	window, err := database.InsertSchedule(ctx, start, end, result.Grid, "final")
	if err != nil {
		return nil, fmt.Errorf("failed to save schedule: %w", err)
	}
	if err := database.UpdateWorkerBookkeeping(ctx, result.Workers); err != nil {
		return nil, fmt.Errorf("failed to update worker bookkeeping: %w", err)
	}

	logger.Info("Schedule saved", zap.String("window_id", window.ID))
	out.Window = window
	out.Persisted = true
	return out, nil
}

// policyFromConfig maps config overrides onto the default policy.
// Unset fields keep their defaults.
func policyFromConfig(cfg *config.Config) scheduler.Policy {
	pol := scheduler.DefaultPolicy()
	if cfg.Policy.WeeklyLimit > 0 {
		pol.WeeklyLimit = cfg.Policy.WeeklyLimit
	}
	if cfg.Policy.TaskVarietyCap > 0 {
		pol.TaskVarietyCap = cfg.Policy.TaskVarietyCap
	}
	if cfg.Policy.ClosersPerWeekend > 0 {
		pol.ClosersPerWeekend = cfg.Policy.ClosersPerWeekend
	}
	if cfg.Policy.CooldownDays > 0 {
		pol.CooldownDays = cfg.Policy.CooldownDays
	}
	if cfg.Policy.HorizonDays > 0 {
		pol.HorizonDays = cfg.Policy.HorizonDays
	}
	return pol
}
