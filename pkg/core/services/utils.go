package services

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/noamgal/duty-roster/pkg/core/model"
)

// expandNoDutyDates evaluates each configured recurrence rule over the
// range and returns the matching dates. The rule's DTSTART is anchored
// a week before the range so rules without one still produce the
// in-range occurrences.
func expandNoDutyDates(rules []string, start, end time.Time) ([]time.Time, error) {
	searchStart := model.DateOnly(start).AddDate(0, 0, -7)
	searchEnd := model.DateOnly(end).AddDate(0, 0, 7)

	var dates []time.Time
	seen := make(map[string]bool)

	for i, s := range rules {
		rule, err := rrule.StrToRRule(s)
		if err != nil {
			return nil, fmt.Errorf("failed to parse rrule %d: %w", i, err)
		}
		rule.DTStart(searchStart)

		for _, occurrence := range rule.Between(searchStart, searchEnd, true) {
			d := model.DateOnly(occurrence)
			if d.Before(model.DateOnly(start)) || d.After(model.DateOnly(end)) {
				continue
			}
			if key := model.DateKey(d); !seen[key] {
				seen[key] = true
				dates = append(dates, d)
			}
		}
	}

	return dates, nil
}

// weeksBetween returns the whole weeks separating two dates.
func weeksBetween(earlier, later time.Time) int {
	days := int(model.DateOnly(later).Sub(model.DateOnly(earlier)).Hours() / 24)
	return days / 7
}
