package rules_test

import (
	"testing"

	"github.com/herohde/tourney/pkg/tour"
	"github.com/herohde/tourney/pkg/tour/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoard_MateInOne(t *testing.T) {
	b, err := rules.NewBoard("6k1/6pp/8/8/8/8/5PPP/4R1K1 w - - 0 1", nil)
	require.NoError(t, err)

	assert.Equal(t, tour.White, b.Turn())

	san, err := b.SAN("e1e8")
	require.NoError(t, err)
	assert.Equal(t, "Re8#", san)

	require.NoError(t, b.MakeCoordinate("e1e8"))

	outcome, reason, ok := b.Terminal()
	assert.True(t, ok)
	assert.Equal(t, tour.WhiteWin, outcome)
	assert.Equal(t, tour.ReasonMate, reason)
	assert.Equal(t, 1, b.HalfMoveCount())
}

func TestBoard_IllegalMoveRejected(t *testing.T) {
	b, err := rules.NewBoard("", nil)
	require.NoError(t, err)

	err = b.MakeCoordinate("e2e5")
	assert.Error(t, err)
}

func TestBoard_UndoReplaysHistory(t *testing.T) {
	b, err := rules.NewBoard("", nil)
	require.NoError(t, err)

	require.NoError(t, b.MakeCoordinate("e2e4"))
	require.NoError(t, b.MakeCoordinate("e7e5"))
	assert.Equal(t, 2, b.HalfMoveCount())

	assert.True(t, b.Undo())
	assert.Equal(t, 1, b.HalfMoveCount())
	assert.Equal(t, tour.Black, b.Turn())
}
