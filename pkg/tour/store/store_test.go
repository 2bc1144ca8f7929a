package store_test

import (
	"path/filepath"
	"testing"

	"github.com/herohde/tourney/pkg/tour"
	"github.com/herohde/tourney/pkg/tour/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveLoadResume(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playing.json")

	s, existed, err := store.Open(path)
	require.NoError(t, err)
	assert.False(t, existed)

	require.NoError(t, s.Reset("round-robin", tour.TimeControl{Mode: tour.MoveTime, MoveSeconds: 1}))
	s.Append(tour.MatchRecord{Players: [2]string{"a", "b"}, GameIndex: 0})
	s.Append(tour.MatchRecord{Players: [2]string{"b", "a"}, GameIndex: 1})
	require.NoError(t, s.Save())

	reopened, existed, err := store.Open(path)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.True(t, reopened.HasUncompleted())
	assert.Len(t, reopened.Records(), 2)

	require.NoError(t, reopened.UpdateRecord(0, tour.MatchRecord{
		Players: [2]string{"a", "b"},
		Result:  tour.Result{Outcome: tour.WhiteWin},
		State:   tour.RecordCompleted,
	}))
	require.NoError(t, reopened.Save())

	final, existed, err := store.Open(path)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.True(t, final.HasUncompleted()) // record 1 still RecordNone.

	require.NoError(t, final.Finalize())
	_, existed, err = store.Open(path)
	require.NoError(t, err)
	assert.False(t, existed)
}
