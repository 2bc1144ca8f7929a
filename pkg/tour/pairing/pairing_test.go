package pairing_test

import (
	"testing"

	"github.com/herohde/tourney/pkg/tour"
	"github.com/herohde/tourney/pkg/tour/pairing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundRobin_GeneratesAllPairsOnce(t *testing.T) {
	e := pairing.New(pairing.Config{
		Format:        pairing.RoundRobin,
		Players:       []string{"a", "b", "c"},
		GamesPerPair:  2,
		SwapPairSides: true,
		Seed:          1,
	})

	round, ok := e.NextRound(nil)
	require.True(t, ok)
	assert.Len(t, round, 3*2) // 3 pairs * 2 games.

	_, ok = e.NextRound(round)
	assert.False(t, ok)
}

func TestKnockout_ByeAndAdvance(t *testing.T) {
	e := pairing.New(pairing.Config{Format: pairing.Knockout, Players: []string{"a", "b", "c"}, Seed: 2})

	round1, ok := e.NextRound(nil)
	require.True(t, ok)
	require.Len(t, round1, 2) // one bye + one pair.

	var bye, pair tour.MatchRecord
	for _, r := range round1 {
		if r.Bye() {
			bye = r
		} else {
			pair = r
		}
	}
	pair.State = tour.RecordCompleted
	pair.Result = tour.Result{Outcome: tour.WhiteWin}
	bye.State = tour.RecordCompleted

	completed := []tour.MatchRecord{bye, pair}

	_, tied := e.ExtendIfTied(completed, pair.PairID)
	assert.False(t, tied)

	round2, ok := e.NextRound(completed)
	require.True(t, ok)
	require.Len(t, round2, 1)
	assert.ElementsMatch(t, []string{bye.Players[tour.White], pair.Players[tour.White]}, round2[0].Players[:])

	round2[0].State = tour.RecordCompleted
	round2[0].Result = tour.Result{Outcome: tour.WhiteWin}
	final := append(completed, round2[0])

	winner, ok := e.Winner(final)
	require.True(t, ok)
	assert.Equal(t, round2[0].Players[tour.White], winner)

	_, ok = e.NextRound(final)
	assert.False(t, ok)
}

func TestSwiss_AvoidsRematches(t *testing.T) {
	e := pairing.New(pairing.Config{Format: pairing.Swiss, Players: []string{"a", "b", "c", "d"}, SwissRounds: 2, Seed: 3})

	round1, ok := e.NextRound(nil)
	require.True(t, ok)
	for i := range round1 {
		round1[i].State = tour.RecordCompleted
		round1[i].Result = tour.Result{Outcome: tour.Draw}
	}

	round2, ok := e.NextRound(round1)
	require.True(t, ok)

	for _, r2 := range round2 {
		for _, r1 := range round1 {
			if r1.Bye() || r2.Bye() {
				continue
			}
			same := (r1.Players[0] == r2.Players[0] && r1.Players[1] == r2.Players[1]) ||
				(r1.Players[0] == r2.Players[1] && r1.Players[1] == r2.Players[0])
			assert.False(t, same, "round 2 rematched a round 1 pair")
		}
	}

	for i := range round2 {
		round2[i].State = tour.RecordCompleted
		round2[i].Result = tour.Result{Outcome: tour.Draw}
	}
	_, ok = e.NextRound(append(round1, round2...))
	assert.False(t, ok) // SwissRounds exhausted.
}

func TestInclusiveFilter_DropsNonMemberPairs(t *testing.T) {
	e := pairing.New(pairing.Config{
		Format:    pairing.RoundRobin,
		Players:   []string{"a", "b", "c"},
		Inclusive: map[string]bool{"a": true},
		Seed:      4,
	})

	round, ok := e.NextRound(nil)
	require.True(t, ok)
	for _, r := range round {
		assert.True(t, r.Players[tour.White] == "a" || r.Players[tour.Black] == "a")
	}
}
