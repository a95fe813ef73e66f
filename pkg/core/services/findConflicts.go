package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noamgal/duty-roster/pkg/core/conflict"
)

// FindConflictsStore defines the database operations needed for
// conflict reconciliation.
type FindConflictsStore interface {
	GetSchedules(ctx context.Context) ([]conflict.SecondarySchedule, error)
	GetPrimaryRosters(ctx context.Context) ([]conflict.PrimaryRoster, error)
}

// FindConflicts loads both schedule stores and returns every
// worker/date double-booking between them. Both stores are treated as
// immutable snapshots for the call.
func FindConflicts(ctx context.Context, database FindConflictsStore, logger *zap.Logger) ([]conflict.Record, error) {
	logger.Debug("Fetching secondary schedules")
	schedules, err := database.GetSchedules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedules: %w", err)
	}
	logger.Debug("Found schedules", zap.Int("count", len(schedules)))

	logger.Debug("Fetching primary rosters")
	rosters, err := database.GetPrimaryRosters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch primary rosters: %w", err)
	}
	logger.Debug("Found primary rosters", zap.Int("count", len(rosters)))

	records, err := conflict.FindConflicts(rosters, schedules)
	if err != nil {
		return nil, fmt.Errorf("conflict detection failed: %w", err)
	}

	logger.Info("Conflict detection complete", zap.Int("conflicts", len(records)))
	return records, nil
}
