package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noamgal/duty-roster/pkg/core/conflict"
	"github.com/noamgal/duty-roster/pkg/core/model"
)

// WorkerClosingStats summarizes one worker's closing cadence across all
// stored schedules.
type WorkerClosingStats struct {
	WorkerID            string
	Name                string
	TargetIntervalWeeks int
	Closings            int
	// AvgIntervalWeeks is the mean gap between consecutive closing
	// blocks. Zero when the worker closed fewer than twice.
	AvgIntervalWeeks float64
	// WithinTarget is true when the average interval lands within one
	// week of the configured target.
	WithinTarget bool
}

// ClosingAnalysisResult is the full cadence report.
type ClosingAnalysisResult struct {
	Workers []WorkerClosingStats
	// AccuracyRate is the share of measurable workers (target set, two
	// or more closings) whose cadence is within one week of target.
	AccuracyRate float64
}

// AnalyzeClosingStore defines the database operations needed for
// closing-cadence analysis.
type AnalyzeClosingStore interface {
	GetWorkers(ctx context.Context) ([]model.Worker, error)
	GetSchedules(ctx context.Context) ([]conflict.SecondarySchedule, error)
}

// AnalyzeClosing measures each worker's actual closing cadence against
// their configured target interval over every stored schedule.
func AnalyzeClosing(ctx context.Context, database AnalyzeClosingStore, logger *zap.Logger) (*ClosingAnalysisResult, error) {
	workers, err := database.GetWorkers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workers: %w", err)
	}

	schedules, err := database.GetSchedules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedules: %w", err)
	}
	logger.Debug("Analyzing closing cadence",
		zap.Int("workers", len(workers)),
		zap.Int("schedules", len(schedules)))

	blocks := collectClosingBlocks(schedules)

	result := &ClosingAnalysisResult{}
	measurable, accurate := 0, 0

	for _, w := range workers {
		dates := blocks[w.ID]
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

		stats := WorkerClosingStats{
			WorkerID:            w.ID,
			Name:                w.Name,
			TargetIntervalWeeks: w.ClosingIntervalWeeks,
			Closings:            len(dates),
		}

		if len(dates) >= 2 {
			total := 0
			for i := 1; i < len(dates); i++ {
				total += weeksBetween(dates[i-1], dates[i])
			}
			stats.AvgIntervalWeeks = float64(total) / float64(len(dates)-1)

			if w.ClosingIntervalWeeks > 0 {
				measurable++
				stats.WithinTarget = math.Abs(stats.AvgIntervalWeeks-float64(w.ClosingIntervalWeeks)) <= 1.0
				if stats.WithinTarget {
					accurate++
				}
			}
		}

		result.Workers = append(result.Workers, stats)
	}

	if measurable > 0 {
		result.AccuracyRate = float64(accurate) / float64(measurable)
	}

	logger.Info("Closing analysis complete",
		zap.Int("measurable_workers", measurable),
		zap.Float64("accuracy_rate", result.AccuracyRate))
	return result, nil
}

// collectClosingBlocks finds every Thursday–Saturday block in the
// stored grids where one worker holds the same closing-eligible task
// for all three days, keyed by worker id. The map values are block
// Thursdays.
func collectClosingBlocks(schedules []conflict.SecondarySchedule) map[string][]time.Time {
	blocks := make(map[string][]time.Time)
	for _, sched := range schedules {
		if sched.Grid == nil {
			continue
		}
		grid := sched.Grid
		for taskIdx, task := range grid.Tasks {
			if !task.ClosingEligible {
				continue
			}
			for dateIdx, date := range grid.Dates {
				if date.Weekday() != time.Thursday {
					continue
				}
				thu, ok := grid.Get(taskIdx, dateIdx)
				if !ok {
					continue
				}
				friIdx := grid.DateIndex(date.AddDate(0, 0, 1))
				satIdx := grid.DateIndex(date.AddDate(0, 0, 2))
				if friIdx < 0 || satIdx < 0 {
					continue
				}
				fri, friOK := grid.Get(taskIdx, friIdx)
				sat, satOK := grid.Get(taskIdx, satIdx)
				if friOK && satOK && fri == thu && sat == thu {
					blocks[thu] = append(blocks[thu], date)
				}
			}
		}
	}
	return blocks
}
