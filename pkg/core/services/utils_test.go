package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandNoDutyDates_WeeklyRule(t *testing.T) {
	dates, err := expandNoDutyDates(
		[]string{"FREQ=WEEKLY;BYDAY=MO"},
		date("2026-01-04"), date("2026-01-17"),
	)
	require.NoError(t, err)

	assert.Equal(t, []time.Time{date("2026-01-05"), date("2026-01-12")}, dates)
}

func TestExpandNoDutyDates_ClampedToRange(t *testing.T) {
	// A daily rule must not leak occurrences outside the range even
	// though the search window extends a week past both ends.
	dates, err := expandNoDutyDates(
		[]string{"FREQ=DAILY"},
		date("2026-01-04"), date("2026-01-06"),
	)
	require.NoError(t, err)

	assert.Equal(t, []time.Time{date("2026-01-04"), date("2026-01-05"), date("2026-01-06")}, dates)
}

func TestExpandNoDutyDates_OverlappingRulesDeduped(t *testing.T) {
	dates, err := expandNoDutyDates(
		[]string{"FREQ=WEEKLY;BYDAY=MO", "FREQ=YEARLY;BYMONTH=1;BYMONTHDAY=5"},
		date("2026-01-04"), date("2026-01-10"),
	)
	require.NoError(t, err)

	// Both rules hit Monday Jan 5; it appears once.
	assert.Equal(t, []time.Time{date("2026-01-05")}, dates)
}

func TestExpandNoDutyDates_NoRules(t *testing.T) {
	dates, err := expandNoDutyDates(nil, date("2026-01-04"), date("2026-01-10"))
	require.NoError(t, err)
	assert.Empty(t, dates)
}

func TestExpandNoDutyDates_InvalidRule(t *testing.T) {
	_, err := expandNoDutyDates([]string{"FREQ=SOMETIMES"}, date("2026-01-04"), date("2026-01-10"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse rrule 0")
}

func TestWeeksBetween(t *testing.T) {
	assert.Equal(t, 0, weeksBetween(date("2026-01-01"), date("2026-01-06")))
	assert.Equal(t, 1, weeksBetween(date("2026-01-01"), date("2026-01-08")))
	assert.Equal(t, 4, weeksBetween(date("2026-01-01"), date("2026-01-29")))
}
