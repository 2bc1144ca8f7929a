package tour_test

import (
	"testing"

	"github.com/herohde/tourney/pkg/tour"
	"github.com/stretchr/testify/assert"
)

func TestClock_StandardIncrementAndControl(t *testing.T) {
	tc := tour.TimeControl{
		Mode:             tour.Standard,
		MovesPerControl:  2,
		BaseSeconds:      60,
		IncrementSeconds: 1,
	}
	c := tour.NewClock(tc)
	assert.Equal(t, 60.0, c.TimeLeft(tour.White))

	// Half-move 1 (white's 1st move of the control): pretend 10s elapsed.
	c.UpdateAfterMove(10, tour.White, 1)
	assert.InDelta(t, 51.0, c.TimeLeft(tour.White), 1e-9)

	// Half-move 3 (white's 2nd move): another 10s elapsed (51+1-10), then it
	// crosses movesPerControl=2 and regains base.
	c.UpdateAfterMove(10, tour.White, 3)
	assert.InDelta(t, 51.0+1-10+60, c.TimeLeft(tour.White), 1e-9)
}

func TestClock_InfiniteNeverFlags(t *testing.T) {
	c := tour.NewClock(tour.TimeControl{Mode: tour.Infinite})
	c.StartMove()
	assert.False(t, c.IsTimeOver(tour.White))
}

func TestClock_MoveTimeFlagsOnOverrun(t *testing.T) {
	c := tour.NewClock(tour.TimeControl{Mode: tour.MoveTime, MoveSeconds: 0, MarginSeconds: 0})
	c.StartMove()
	assert.True(t, c.IsTimeOver(tour.White))
}
