package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noamgal/duty-roster/pkg/core/conflict"
	"github.com/noamgal/duty-roster/pkg/core/model"
)

// weekendSchedule builds a stored Thursday–Saturday schedule with the
// supervisor block held by the given worker.
func weekendSchedule(thursday string, workerID string) conflict.SecondarySchedule {
	thu := date(thursday)
	dates := []time.Time{thu, thu.AddDate(0, 0, 1), thu.AddDate(0, 0, 2)}
	grid := model.NewGrid(model.DefaultTasks(), dates)
	supIdx := grid.TaskIndex(model.TaskSupervisor)
	for i := range dates {
		_ = grid.Set(supIdx, i, workerID)
	}
	return conflict.SecondarySchedule{
		Window: model.ScheduleWindow{ID: thursday, Start: dates[0], End: dates[2]},
		Grid:   grid,
	}
}

func TestAnalyzeClosing_CadenceWithinTarget(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	// w1 closes four weeks apart against a 4-week target; w2 closes the
	// same gap against a 2-week target and misses it.
	store := &mockStore{
		workers: []model.Worker{
			{ID: "w1", Name: "Dana", ClosingIntervalWeeks: 4},
			{ID: "w2", Name: "Noa", ClosingIntervalWeeks: 2},
		},
		schedules: []conflict.SecondarySchedule{
			weekendSchedule("2026-01-01", "w1"),
			weekendSchedule("2026-01-08", "w2"),
			weekendSchedule("2026-01-29", "w1"),
			weekendSchedule("2026-02-05", "w2"),
		},
	}

	result, err := AnalyzeClosing(ctx, store, logger)
	require.NoError(t, err)
	require.Len(t, result.Workers, 2)

	w1 := result.Workers[0]
	assert.Equal(t, "w1", w1.WorkerID)
	assert.Equal(t, 2, w1.Closings)
	assert.InDelta(t, 4.0, w1.AvgIntervalWeeks, 1e-9)
	assert.True(t, w1.WithinTarget)

	w2 := result.Workers[1]
	assert.Equal(t, 2, w2.Closings)
	assert.InDelta(t, 4.0, w2.AvgIntervalWeeks, 1e-9)
	assert.False(t, w2.WithinTarget, "4-week cadence misses a 2-week target")

	assert.InDelta(t, 0.5, result.AccuracyRate, 1e-9)
}

func TestAnalyzeClosing_SingleClosingNotMeasurable(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	store := &mockStore{
		workers: []model.Worker{
			{ID: "w1", ClosingIntervalWeeks: 4},
		},
		schedules: []conflict.SecondarySchedule{
			weekendSchedule("2026-01-01", "w1"),
		},
	}

	result, err := AnalyzeClosing(ctx, store, logger)
	require.NoError(t, err)

	require.Len(t, result.Workers, 1)
	assert.Equal(t, 1, result.Workers[0].Closings)
	assert.Zero(t, result.Workers[0].AvgIntervalWeeks)
	assert.False(t, result.Workers[0].WithinTarget)
	assert.Zero(t, result.AccuracyRate, "no measurable workers means no rate")
}

func TestAnalyzeClosing_IgnoresBrokenBlocks(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	// The Saturday cell belongs to a different worker: not a block.
	broken := weekendSchedule("2026-01-01", "w1")
	supIdx := broken.Grid.TaskIndex(model.TaskSupervisor)
	require.NoError(t, broken.Grid.Set(supIdx, 2, "w2"))

	store := &mockStore{
		workers:   []model.Worker{{ID: "w1", ClosingIntervalWeeks: 4}},
		schedules: []conflict.SecondarySchedule{broken},
	}

	result, err := AnalyzeClosing(ctx, store, logger)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Workers[0].Closings)
}

func TestAnalyzeClosing_IgnoresWeekdayOnlyTasks(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	// A worker holding the escort row three days straight is not a
	// closing block: the task is weekday-only.
	sched := weekendSchedule("2026-01-01", "w1")
	escIdx := sched.Grid.TaskIndex(model.TaskEscort)
	for i := 0; i < 3; i++ {
		require.NoError(t, sched.Grid.Set(escIdx, i, "w2"))
	}

	store := &mockStore{
		workers: []model.Worker{
			{ID: "w2", ClosingIntervalWeeks: 4},
		},
		schedules: []conflict.SecondarySchedule{sched},
	}

	result, err := AnalyzeClosing(ctx, store, logger)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Workers[0].Closings)
}
