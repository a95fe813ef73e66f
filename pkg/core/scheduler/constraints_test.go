package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noamgal/duty-roster/pkg/core/model"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

var testTasks = []model.TaskSpec{
	{Type: model.TaskSupervisor, Qualification: "supervision", ClosingEligible: true},
	{Type: model.TaskEscort, Qualification: "escorting", ClosingEligible: false},
}

func testSlot(grid *model.AssignmentGrid, task model.TaskSpec, day string) Slot {
	d := date(day)
	return Slot{Task: task, Date: d, TaskIdx: grid.TaskIndex(task.Type), DateIdx: grid.DateIndex(d)}
}

func TestCheckEligibility_Qualification(t *testing.T) {
	// 2026-01-04 is a Sunday
	grid := model.NewGrid(testTasks, []time.Time{date("2026-01-04")})
	rs := newRunState([]model.Worker{
		{ID: "w1", Qualifications: []string{"escorting"}},
	})
	slot := testSlot(grid, testTasks[0], "2026-01-04")

	ok, reason := checkEligibility(rs.Worker("w1"), slot, grid, rs, DefaultPolicy(), waiveNone())
	assert.False(t, ok)
	assert.Equal(t, RejectNotQualified, reason)

	// Qualification is a hard constraint: waiving everything changes nothing
	ok, reason = checkEligibility(rs.Worker("w1"), slot, grid, rs, DefaultPolicy(), waiveFirst(3))
	assert.False(t, ok)
	assert.Equal(t, RejectNotQualified, reason)
}

func TestCheckEligibility_OfficerOnly(t *testing.T) {
	officerTask := model.TaskSpec{Type: model.TaskSupervisor, Qualification: "supervision", OfficerOnly: true}
	grid := model.NewGrid([]model.TaskSpec{officerTask}, []time.Time{date("2026-01-04")})
	rs := newRunState([]model.Worker{
		{ID: "w1", Qualifications: []string{"supervision"}},
		{ID: "w2", Qualifications: []string{"supervision"}, Officer: true},
	})
	slot := testSlot(grid, officerTask, "2026-01-04")

	ok, reason := checkEligibility(rs.Worker("w1"), slot, grid, rs, DefaultPolicy(), waiveNone())
	assert.False(t, ok)
	assert.Equal(t, RejectNotOfficer, reason)

	// Hard constraint: waiving everything changes nothing
	ok, _ = checkEligibility(rs.Worker("w1"), slot, grid, rs, DefaultPolicy(), waiveFirst(3))
	assert.False(t, ok)

	ok, _ = checkEligibility(rs.Worker("w2"), slot, grid, rs, DefaultPolicy(), waiveNone())
	assert.True(t, ok)
}

func TestCheckEligibility_SingleTaskPerDay(t *testing.T) {
	grid := model.NewGrid(testTasks, []time.Time{date("2026-01-04")})
	rs := newRunState([]model.Worker{
		{ID: "w1", Qualifications: []string{"supervision", "escorting"}},
	})

	require.NoError(t, grid.Set(grid.TaskIndex(model.TaskEscort), 0, "w1"))

	slot := testSlot(grid, testTasks[0], "2026-01-04")
	ok, reason := checkEligibility(rs.Worker("w1"), slot, grid, rs, DefaultPolicy(), waiveNone())
	assert.False(t, ok)
	assert.Equal(t, RejectAlreadyAssigned, reason)

	// Never waivable
	ok, _ = checkEligibility(rs.Worker("w1"), slot, grid, rs, DefaultPolicy(), waiveFirst(3))
	assert.False(t, ok)
}

func TestCheckEligibility_Cooldown(t *testing.T) {
	grid := model.NewGrid(testTasks, []time.Time{date("2026-01-04"), date("2026-01-05")})
	slot := testSlot(grid, testTasks[0], "2026-01-05")

	cases := []struct {
		name        string
		lastPrimary time.Time
		eligible    bool
	}{
		{"primary duty the day before", date("2026-01-04"), false},
		{"primary duty same day", date("2026-01-05"), false},
		{"primary duty two days before", date("2026-01-03"), true},
		{"no primary duty on record", time.Time{}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rs := newRunState([]model.Worker{
				{ID: "w1", Qualifications: []string{"supervision"}, LastPrimaryDuty: tc.lastPrimary},
			})
			ok, _ := checkEligibility(rs.Worker("w1"), slot, grid, rs, DefaultPolicy(), waiveNone())
			assert.Equal(t, tc.eligible, ok)
		})
	}
}

func TestCheckEligibility_WeeklyLimit(t *testing.T) {
	grid := model.NewGrid(testTasks, []time.Time{date("2026-01-04"), date("2026-01-05")})
	rs := newRunState([]model.Worker{
		{ID: "w1", Qualifications: []string{"supervision", "escorting"}},
	})

	// Book an escort duty on Sunday; supervisor on Monday is the same week
	rs.recordAssignment("w1", model.TaskEscort, date("2026-01-04"), 1.0)

	slot := testSlot(grid, testTasks[0], "2026-01-05")
	ok, reason := checkEligibility(rs.Worker("w1"), slot, grid, rs, DefaultPolicy(), waiveNone())
	assert.False(t, ok)
	assert.Equal(t, RejectWeeklyLimit, reason)

	ok, _ = checkEligibility(rs.Worker("w1"), slot, grid, rs, DefaultPolicy(), waiveFirst(1))
	assert.True(t, ok, "waiving the weekly limit should admit the worker")

	// A slot in the following week is unaffected
	nextWeek := model.NewGrid(testTasks, []time.Time{date("2026-01-11")})
	ok, _ = checkEligibility(rs.Worker("w1"), testSlot(nextWeek, testTasks[0], "2026-01-11"), nextWeek, rs, DefaultPolicy(), waiveNone())
	assert.True(t, ok)
}

func TestCheckEligibility_TaskVariety(t *testing.T) {
	grid := model.NewGrid(testTasks, []time.Time{date("2026-01-04"), date("2026-01-12")})
	rs := newRunState([]model.Worker{
		{ID: "w1", Qualifications: []string{"supervision"}},
	})

	// Same task type in a previous week: weekly limit passes, variety trips
	rs.recordAssignment("w1", model.TaskSupervisor, date("2026-01-04"), 1.0)

	slot := testSlot(grid, testTasks[0], "2026-01-12")
	ok, reason := checkEligibility(rs.Worker("w1"), slot, grid, rs, DefaultPolicy(), waiveNone())
	assert.False(t, ok)
	assert.Equal(t, RejectTaskVariety, reason)

	// Variety waives only at step two
	ok, _ = checkEligibility(rs.Worker("w1"), slot, grid, rs, DefaultPolicy(), waiveFirst(1))
	assert.False(t, ok)
	ok, _ = checkEligibility(rs.Worker("w1"), slot, grid, rs, DefaultPolicy(), waiveFirst(2))
	assert.True(t, ok)
}

func TestCheckEligibility_CloserIsolation(t *testing.T) {
	grid := model.NewGrid(testTasks, []time.Time{date("2026-01-04"), date("2026-01-08")})
	rs := newRunState([]model.Worker{
		{ID: "w1", Qualifications: []string{"supervision"}, ClosingIntervalWeeks: 4},
	})
	rs.recordClosingBlock("w1", model.TaskSupervisor, 2.0)

	// Weekday slot: isolated
	weekday := testSlot(grid, testTasks[0], "2026-01-04")
	ok, reason := checkEligibility(rs.Worker("w1"), weekday, grid, rs, DefaultPolicy(), waiveNone())
	assert.False(t, ok)
	assert.Equal(t, RejectCloserIsolation, reason)

	// Isolation is the last waiver in the order
	ok, _ = checkEligibility(rs.Worker("w1"), weekday, grid, rs, DefaultPolicy(), waiveFirst(2))
	assert.False(t, ok)
	ok, _ = checkEligibility(rs.Worker("w1"), weekday, grid, rs, DefaultPolicy(), waiveFirst(3))
	assert.True(t, ok)
}

func TestRelaxationOrder(t *testing.T) {
	// The escalation sequence is fixed
	assert.Equal(t, []SoftConstraint{WaiveWeeklyLimit, WaiveTaskVariety, WaiveCloserIsolation}, RelaxationOrder)

	assert.Empty(t, waiveFirst(0))
	assert.Equal(t, []SoftConstraint{WaiveWeeklyLimit}, waiveFirst(1).waived())
	assert.Equal(t, []SoftConstraint{WaiveWeeklyLimit, WaiveTaskVariety}, waiveFirst(2).waived())
	assert.Equal(t, RelaxationOrder, waiveFirst(3).waived())
}

func TestIsClosingDay(t *testing.T) {
	assert.True(t, isClosingDay(date("2026-01-01")))  // Thursday
	assert.True(t, isClosingDay(date("2026-01-02")))  // Friday
	assert.True(t, isClosingDay(date("2026-01-03")))  // Saturday
	assert.False(t, isClosingDay(date("2026-01-04"))) // Sunday
	assert.False(t, isClosingDay(date("2026-01-07"))) // Wednesday
}
