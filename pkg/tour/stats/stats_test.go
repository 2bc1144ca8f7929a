package stats_test

import (
	"math"
	"testing"

	"github.com/herohde/tourney/pkg/tour"
	"github.com/herohde/tourney/pkg/tour/stats"
	"github.com/stretchr/testify/assert"
)

func TestEloDifference_EvenScoreIsZero(t *testing.T) {
	assert.InDelta(t, 0, stats.EloDifference(5, 0, 5), 1e-9)
}

func TestEloDifference_AllWinsIsPositive(t *testing.T) {
	assert.Greater(t, stats.EloDifference(10, 0, 0), 0.0)
}

func TestLikelihoodOfSuperiority_NoDecisiveGamesIsEven(t *testing.T) {
	assert.Equal(t, 0.5, stats.LikelihoodOfSuperiority(0, 0))
}

func TestLikelihoodOfSuperiority_MoreWinsExceedsHalf(t *testing.T) {
	los := stats.LikelihoodOfSuperiority(8, 2)
	assert.Greater(t, los, 0.5)
	assert.Less(t, los, 1.0)
	assert.False(t, math.IsNaN(los))
}

func TestTable_AggregatesWinsDrawsLosses(t *testing.T) {
	records := []tour.MatchRecord{
		{Players: [2]string{"a", "b"}, State: tour.RecordCompleted, Result: tour.Result{Outcome: tour.WhiteWin}},
		{Players: [2]string{"b", "a"}, State: tour.RecordCompleted, Result: tour.Result{Outcome: tour.Draw}},
		{Players: [2]string{"a", ""}, State: tour.RecordCompleted, Result: tour.Result{Outcome: tour.WhiteWin}},
	}

	table := stats.Table(records, nil)
	a := table["a"]
	assert.Equal(t, 3, a.GameCount)
	assert.Equal(t, 2, a.Wins)
	assert.Equal(t, 1, a.Draws)
	assert.Equal(t, 1, a.ByeCount)

	b := table["b"]
	assert.Equal(t, 2, b.GameCount)
	assert.Equal(t, 0, b.Wins)
	assert.Equal(t, 1, b.Draws)
	assert.Equal(t, 1, b.Losses)
}
