package scheduler

import (
	"time"

	"github.com/noamgal/duty-roster/pkg/core/model"
)

// SoftConstraint tags a waivable eligibility rule. The relaxed tier
// waives these one at a time, in RelaxationOrder, never all at once.
type SoftConstraint string

const (
	// WaiveWeeklyLimit lifts the weekly Y-task cap.
	WaiveWeeklyLimit SoftConstraint = "weekly_limit"
	// WaiveTaskVariety lifts the per-task-type repetition cap.
	WaiveTaskVariety SoftConstraint = "task_variety"
	// WaiveCloserIsolation lets a weekend closer take weekday slots.
	// Always the last resort.
	WaiveCloserIsolation SoftConstraint = "closer_isolation"
)

// RelaxationOrder is the fixed escalation sequence for the relaxed
// tier. Each step waives one more constraint than the previous one.
var RelaxationOrder = []SoftConstraint{
	WaiveWeeklyLimit,
	WaiveTaskVariety,
	WaiveCloserIsolation,
}

// RejectReason explains why a candidate failed an eligibility check.
type RejectReason string

const (
	RejectNotQualified    RejectReason = "not_qualified"
	RejectNotOfficer      RejectReason = "not_officer"
	RejectAlreadyAssigned RejectReason = "already_assigned_today"
	RejectCooldown        RejectReason = "primary_duty_cooldown"
	RejectWeeklyLimit     RejectReason = "weekly_limit_reached"
	RejectTaskVariety     RejectReason = "task_variety_cap_reached"
	RejectCloserIsolation RejectReason = "weekend_closer"
)

// Slot is one (task, date) cell to be filled.
type Slot struct {
	Task    model.TaskSpec
	Date    time.Time
	TaskIdx int
	DateIdx int
}

// waiveSet is the set of soft constraints currently waived. The empty
// set is the strict tier.
type waiveSet map[SoftConstraint]bool

func waiveNone() waiveSet { return waiveSet{} }

// waiveFirst returns the waive set for the given escalation step:
// step 1 waives RelaxationOrder[0], step 2 the first two, and so on.
func waiveFirst(n int) waiveSet {
	ws := waiveSet{}
	for i := 0; i < n && i < len(RelaxationOrder); i++ {
		ws[RelaxationOrder[i]] = true
	}
	return ws
}

// waived lists the active waivers in relaxation order.
func (ws waiveSet) waived() []SoftConstraint {
	var out []SoftConstraint
	for _, c := range RelaxationOrder {
		if ws[c] {
			out = append(out, c)
		}
	}
	return out
}

// checkEligibility evaluates whether the worker may take the slot under
// the given waive set. Hard constraints are checked first and can never
// be waived; soft constraints apply unless their tag is waived. Returns
// the first failing reason. No side effects.
func checkEligibility(w *model.Worker, slot Slot, grid *model.AssignmentGrid, rs *RunState, pol Policy, ws waiveSet) (bool, RejectReason) {
	// Hard: required qualification.
	if !w.HasQualification(slot.Task.Qualification) {
		return false, RejectNotQualified
	}

	// Hard: officer-only task types.
	if slot.Task.OfficerOnly && !w.Officer {
		return false, RejectNotOfficer
	}

	// Hard: one task per worker per day. This invariant holds in every
	// tier.
	if _, busy := grid.WorkerOn(w.ID, slot.DateIdx); busy {
		return false, RejectAlreadyAssigned
	}

	// Hard: post-primary-duty cooldown.
	if inCooldown(w, slot.Date, pol.CooldownDays) {
		return false, RejectCooldown
	}

	// Soft: weekly assignment cap.
	if !ws[WaiveWeeklyLimit] && rs.WeeklyAssignments(w.ID, slot.Date) >= pol.WeeklyLimit {
		return false, RejectWeeklyLimit
	}

	// Soft: task-type variety cap.
	if !ws[WaiveTaskVariety] && rs.TaskAssignments(w.ID, slot.Task.Type) >= pol.TaskVarietyCap {
		return false, RejectTaskVariety
	}

	// Soft: weekend closers stay off weekday slots.
	if !ws[WaiveCloserIsolation] && rs.IsCloser(w.ID) && !isClosingDay(slot.Date) {
		return false, RejectCloserIsolation
	}

	return true, ""
}

// inCooldown reports whether the worker had a primary duty on the date
// itself or within cooldownDays before it.
func inCooldown(w *model.Worker, date time.Time, cooldownDays int) bool {
	if w.LastPrimaryDuty.IsZero() {
		return false
	}
	last := model.DateOnly(w.LastPrimaryDuty)
	d := model.DateOnly(date)
	if last.After(d) {
		return false
	}
	return !last.Before(d.AddDate(0, 0, -cooldownDays))
}

// isClosingDay reports whether the date belongs to a weekend closing
// block (Thursday through Saturday).
func isClosingDay(date time.Time) bool {
	switch date.Weekday() {
	case time.Thursday, time.Friday, time.Saturday:
		return true
	default:
		return false
	}
}
