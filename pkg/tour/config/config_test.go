package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/herohde/tourney/pkg/tour"
	"github.com/herohde/tourney/pkg/tour/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeconds_ParsesNumberAndClockString(t *testing.T) {
	var s config.Seconds
	require.NoError(t, s.UnmarshalJSON([]byte(`90`)))
	assert.InDelta(t, 90, float64(s), 1e-9)

	require.NoError(t, s.UnmarshalJSON([]byte(`"2:10:30"`)))
	assert.InDelta(t, 2*3600+10*60+30, float64(s), 1e-9)
}

func TestLoadTournament_DefaultsAndValidation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tournament.json")
	doc := `{
		"base": {"type": "roundrobin", "games per pair": 2},
		"time control": {"mode": "movetime", "movetime": "0:0:5"},
		"players": ["a", "b"]
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	tn, err := config.LoadTournament(path)
	require.NoError(t, err)
	assert.Equal(t, 2, tn.Base.GamesPerPair)
	assert.True(t, *tn.Base.SwapPairSides)
	assert.True(t, *tn.Base.Resumable)
	assert.Equal(t, 1, tn.Base.Concurrency)

	tc, err := tn.TimeControl.Resolve()
	require.NoError(t, err)
	assert.Equal(t, tour.MoveTime, tc.Mode)
	assert.InDelta(t, 5, tc.MoveSeconds, 1e-9)
}

func TestLoadCatalogue_ResolvesByName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engines.json")
	doc := `[
		{"app": {"protocol": "uci", "name": "engineA", "command": "/bin/engineA"}, "options": []},
		{"app": {"protocol": "winboard", "name": "engineB", "command": "/bin/engineB"}, "options": []}
	]`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cat, err := config.LoadCatalogue(path)
	require.NoError(t, err)

	resolved, err := cat.Resolve([]string{"engineA", "engineB"})
	require.NoError(t, err)
	assert.Equal(t, tour.UCI, resolved["engineA"].Protocol)
	assert.Equal(t, tour.Winboard, resolved["engineB"].Protocol)

	_, err = cat.Resolve([]string{"missing"})
	assert.Error(t, err)
}
