package model

import (
	"fmt"
	"time"
)

// Placeholder values that some stored grids use for "no assignment".
// Cells holding one of these are treated as empty.
var placeholders = map[string]bool{
	"": true, "-": true, "—": true, "none": true,
}

// IsPlaceholder reports whether a stored cell value means "empty".
func IsPlaceholder(v string) bool {
	return placeholders[v]
}

// AssignmentGrid is a schedule in progress or at rest: task rows by date
// columns, each cell empty or holding a worker id. Both axes are fixed
// at construction.
type AssignmentGrid struct {
	Tasks []TaskSpec
	Dates []time.Time

	cells map[cellKey]string
	// pinned marks cells populated by the caller before generation.
	// Pinned cells are immutable inputs and are never overwritten.
	pinned map[cellKey]bool
}

type cellKey struct {
	task int
	date int
}

// NewGrid creates an empty grid over the given axes. Dates are
// normalized to day granularity.
func NewGrid(tasks []TaskSpec, dates []time.Time) *AssignmentGrid {
	normalized := make([]time.Time, len(dates))
	for i, d := range dates {
		normalized[i] = DateOnly(d)
	}
	return &AssignmentGrid{
		Tasks:  tasks,
		Dates:  normalized,
		cells:  make(map[cellKey]string),
		pinned: make(map[cellKey]bool),
	}
}

// TaskIndex returns the row index for a task type, or -1.
func (g *AssignmentGrid) TaskIndex(t TaskType) int {
	for i, spec := range g.Tasks {
		if spec.Type == t {
			return i
		}
	}
	return -1
}

// DateIndex returns the column index for a date, or -1.
func (g *AssignmentGrid) DateIndex(d time.Time) int {
	d = DateOnly(d)
	for i, gd := range g.Dates {
		if gd.Equal(d) {
			return i
		}
	}
	return -1
}

// Get returns the worker id in the cell and whether it is filled.
func (g *AssignmentGrid) Get(taskIdx, dateIdx int) (string, bool) {
	v, ok := g.cells[cellKey{taskIdx, dateIdx}]
	if !ok || IsPlaceholder(v) {
		return "", false
	}
	return v, true
}

// Set fills a cell. Setting a pinned cell is an error: pre-populated
// cells are immutable inputs.
func (g *AssignmentGrid) Set(taskIdx, dateIdx int, workerID string) error {
	k := cellKey{taskIdx, dateIdx}
	if g.pinned[k] {
		return fmt.Errorf("cell (%s, %s) is pre-populated and immutable",
			g.Tasks[taskIdx].Type, DateKey(g.Dates[dateIdx]))
	}
	g.cells[k] = workerID
	return nil
}

// Pin fills a cell and marks it as a caller-provided input.
func (g *AssignmentGrid) Pin(taskIdx, dateIdx int, workerID string) {
	k := cellKey{taskIdx, dateIdx}
	g.cells[k] = workerID
	g.pinned[k] = true
}

// IsPinned reports whether the cell was pre-populated by the caller.
func (g *AssignmentGrid) IsPinned(taskIdx, dateIdx int) bool {
	return g.pinned[cellKey{taskIdx, dateIdx}]
}

// WorkerOn returns the task assigned to the worker on the given date
// column, if any. Implements the single-task-per-day lookup.
func (g *AssignmentGrid) WorkerOn(workerID string, dateIdx int) (TaskType, bool) {
	for taskIdx := range g.Tasks {
		if id, ok := g.Get(taskIdx, dateIdx); ok && id == workerID {
			return g.Tasks[taskIdx].Type, true
		}
	}
	return "", false
}

// FilledCells calls fn for every filled cell in row-major, column-minor
// order. Iteration order is fixed so consumers stay deterministic.
func (g *AssignmentGrid) FilledCells(fn func(taskIdx, dateIdx int, workerID string)) {
	for taskIdx := range g.Tasks {
		for dateIdx := range g.Dates {
			if id, ok := g.Get(taskIdx, dateIdx); ok {
				fn(taskIdx, dateIdx, id)
			}
		}
	}
}

// Clone returns a deep copy of the grid, preserving pins.
func (g *AssignmentGrid) Clone() *AssignmentGrid {
	c := NewGrid(g.Tasks, g.Dates)
	for k, v := range g.cells {
		c.cells[k] = v
	}
	for k, v := range g.pinned {
		c.pinned[k] = v
	}
	return c
}
