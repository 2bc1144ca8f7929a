package tour

import (
	"fmt"
	"time"
)

// Clock tracks per-side wall-time budget for a single game and detects
// over-budget ("flagged") sides. Not safe for concurrent use; owned
// exclusively by the Game Supervisor that created it.
type Clock struct {
	tc TimeControl

	timeLeft  [2]float64 // seconds, indexed by Side.
	moveStart time.Time

	lastQueryConsumed float64
}

// NewClock creates a clock for the given time control, with both sides'
// budgets reset to their starting allotment.
func NewClock(tc TimeControl) *Clock {
	c := &Clock{tc: tc}
	c.ResetGame()
	return c
}

// ResetGame resets both sides' time budget at the start of a new game.
func (c *Clock) ResetGame() {
	start := c.tc.BaseSeconds
	if c.tc.Mode == MoveTime {
		start = c.tc.MoveSeconds
	}
	c.timeLeft[White] = start
	c.timeLeft[Black] = start
}

// StartMove stamps the beginning of a side's thinking time. Call anew before
// every move.
func (c *Clock) StartMove() {
	c.moveStart = time.Now()
}

// Consumed returns the wall-clock time elapsed since the last StartMove.
func (c *Clock) Consumed() float64 {
	c.lastQueryConsumed = time.Since(c.moveStart).Seconds()
	return c.lastQueryConsumed
}

// IsTimeOver reports whether side has exceeded its budget plus margin. Always
// false for Infinite and Depth controls, which are not wall-clock bounded.
func (c *Clock) IsTimeOver(side Side) bool {
	switch c.tc.Mode {
	case MoveTime:
		return c.Consumed() > c.tc.MoveSeconds+c.tc.MarginSeconds
	case Standard:
		return c.Consumed() > c.timeLeft[side]+c.tc.MarginSeconds
	default:
		return false
	}
}

// UpdateAfterMove applies the elapsed thinking time to side's budget and
// grants a new time-control allotment if a move-count boundary was crossed.
// No-op outside Standard mode.
func (c *Clock) UpdateAfterMove(elapsed float64, side Side, halfMoveCount int) {
	if c.tc.Mode != Standard {
		return
	}

	c.timeLeft[side] += c.tc.IncrementSeconds - elapsed
	if c.timeLeft[side] < 0 {
		c.timeLeft[side] = 0 // already should have been caught by IsTimeOver.
	}

	if c.tc.MovesPerControl > 0 {
		movesPlayed := (halfMoveCount + 1) / 2
		if movesPlayed%c.tc.MovesPerControl == 0 {
			c.timeLeft[side] += c.tc.BaseSeconds
		}
	}
}

// TimeLeft returns the side's remaining budget, in seconds.
func (c *Clock) TimeLeft(side Side) float64 {
	return c.timeLeft[side]
}

// TC returns the time control this clock was created for.
func (c *Clock) TC() TimeControl {
	return c.tc
}

func (c *Clock) String() string {
	return fmt.Sprintf("clock{%v: white=%.1fs black=%.1fs}", c.tc, c.timeLeft[White], c.timeLeft[Black])
}
