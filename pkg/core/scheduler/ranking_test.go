package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noamgal/duty-roster/pkg/core/model"
)

var supervisorTask = model.TaskSpec{Type: model.TaskSupervisor, Qualification: "supervision", ClosingEligible: true}

func workersByID(ws []*model.Worker) []string {
	ids := make([]string, len(ws))
	for i, w := range ws {
		ids[i] = w.ID
	}
	return ids
}

func TestRankCandidates_ScoreFirst(t *testing.T) {
	rs := newRunState([]model.Worker{
		{ID: "w1", Qualifications: []string{"supervision"}, Score: 5.0},
		{ID: "w2", Qualifications: []string{"supervision"}, Score: 2.0},
		{ID: "w3", Qualifications: []string{"supervision"}, Score: 3.5},
	})
	candidates := []*model.Worker{rs.Worker("w1"), rs.Worker("w2"), rs.Worker("w3")}

	ranked := rankCandidates(candidates, supervisorTask, rs)
	assert.Equal(t, []string{"w2", "w3", "w1"}, workersByID(ranked))
}

func TestRankCandidates_StagedScoreCounts(t *testing.T) {
	rs := newRunState([]model.Worker{
		{ID: "w1", Qualifications: []string{"supervision"}, Score: 1.0},
		{ID: "w2", Qualifications: []string{"supervision"}, Score: 1.5},
	})
	// w1 earned 1.0 earlier in this run, lifting it past w2
	rs.stagedScore["w1"] = 1.0

	ranked := rankCandidates([]*model.Worker{rs.Worker("w1"), rs.Worker("w2")}, supervisorTask, rs)
	assert.Equal(t, []string{"w2", "w1"}, workersByID(ranked))
}

func TestRankCandidates_TaskCountBreaksScoreTie(t *testing.T) {
	rs := newRunState([]model.Worker{
		{ID: "w1", Qualifications: []string{"supervision"}},
		{ID: "w2", Qualifications: []string{"supervision"}},
	})
	rs.taskCount["w1"] = map[model.TaskType]int{model.TaskSupervisor: 2}

	ranked := rankCandidates([]*model.Worker{rs.Worker("w1"), rs.Worker("w2")}, supervisorTask, rs)
	assert.Equal(t, []string{"w2", "w1"}, workersByID(ranked))
}

func TestRankCandidates_ScarcityPreservesScarceWorkers(t *testing.T) {
	// w1 is the only driver on the roster; w2 holds nothing beyond
	// supervision. For a supervisor slot both can fill, w2 should be
	// consumed and w1 kept in reserve for driving.
	rs := newRunState([]model.Worker{
		{ID: "w1", Qualifications: []string{"supervision", "driving"}},
		{ID: "w2", Qualifications: []string{"supervision"}},
	})

	ranked := rankCandidates([]*model.Worker{rs.Worker("w1"), rs.Worker("w2")}, supervisorTask, rs)
	assert.Equal(t, []string{"w2", "w1"}, workersByID(ranked))
}

func TestRankCandidates_IDBreaksFullTie(t *testing.T) {
	rs := newRunState([]model.Worker{
		{ID: "w2", Qualifications: []string{"supervision"}},
		{ID: "w1", Qualifications: []string{"supervision"}},
	})

	ranked := rankCandidates([]*model.Worker{rs.Worker("w2"), rs.Worker("w1")}, supervisorTask, rs)
	assert.Equal(t, []string{"w1", "w2"}, workersByID(ranked))
}

func TestRankCandidates_DoesNotMutate(t *testing.T) {
	rs := newRunState([]model.Worker{
		{ID: "w1", Qualifications: []string{"supervision"}, Score: 9.0},
		{ID: "w2", Qualifications: []string{"supervision"}, Score: 1.0},
	})
	candidates := []*model.Worker{rs.Worker("w1"), rs.Worker("w2")}

	_ = rankCandidates(candidates, supervisorTask, rs)

	// Input slice order is untouched
	assert.Equal(t, []string{"w1", "w2"}, workersByID(candidates))
	assert.Empty(t, rs.stagedScore)
}

func TestPickBest(t *testing.T) {
	rs := newRunState([]model.Worker{
		{ID: "w1", Qualifications: []string{"supervision"}, Score: 4.0},
		{ID: "w2", Qualifications: []string{"supervision"}, Score: 1.0},
	})

	best := pickBest([]*model.Worker{rs.Worker("w1"), rs.Worker("w2")}, supervisorTask, rs)
	require.NotNil(t, best)
	assert.Equal(t, "w2", best.ID)

	assert.Nil(t, pickBest(nil, supervisorTask, rs))
}

func TestScarcityCost(t *testing.T) {
	rs := newRunState([]model.Worker{
		{ID: "w1", Qualifications: []string{"supervision", "driving"}},
		{ID: "w2", Qualifications: []string{"supervision"}},
		{ID: "w3", Qualifications: []string{"driving"}},
	})

	// For a supervision slot, w1's driving qualification (2 holders)
	// costs 0.5; the slot's own qualification never counts.
	assert.InDelta(t, 0.5, scarcityCost(rs.Worker("w1"), supervisorTask, rs), 1e-9)
	assert.Zero(t, scarcityCost(rs.Worker("w2"), supervisorTask, rs))
}
