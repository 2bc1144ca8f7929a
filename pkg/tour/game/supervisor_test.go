package game_test

import (
	"context"
	"testing"
	"time"

	"github.com/herohde/tourney/pkg/tour"
	"github.com/herohde/tourney/pkg/tour/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// whiteScript and blackScript together play the Fool's Mate: 1. f3 e5 2. g4
// Qh4#, exercising the Supervisor's full begin/playing/stopped/ending
// lifecycle against two minimal fixture UCI engines.
const whiteScript = `
n=0
while IFS= read -r line; do
  case "$line" in
    uci) echo "id name W"; echo "uciok" ;;
    isready) echo "readyok" ;;
    go*) n=$((n+1)); if [ "$n" = "1" ]; then echo "bestmove f2f3"; else echo "bestmove g2g4"; fi ;;
    quit) exit 0 ;;
    *) ;;
  esac
done
`

const blackScript = `
n=0
while IFS= read -r line; do
  case "$line" in
    uci) echo "id name B"; echo "uciok" ;;
    isready) echo "readyok" ;;
    go*) n=$((n+1)); if [ "$n" = "1" ]; then echo "bestmove e7e5"; else echo "bestmove d8h4"; fi ;;
    quit) exit 0 ;;
    *) ;;
  esac
done
`

func TestSupervisor_FoolsMate(t *testing.T) {
	engines := [2]tour.EngineConfig{
		tour.White: {Name: "white-fixture", Protocol: tour.UCI, Command: "/bin/sh", Arguments: []string{"-c", whiteScript}},
		tour.Black: {Name: "black-fixture", Protocol: tour.UCI, Command: "/bin/sh", Arguments: []string{"-c", blackScript}},
	}
	rec := tour.MatchRecord{Players: [2]string{"white-fixture", "black-fixture"}}
	tc := tour.TimeControl{Mode: tour.MoveTime, MoveSeconds: 1}

	sup, err := game.New(rec, engines, tc, game.DefaultConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sup.Begin(ctx)

	deadline := time.Now().Add(8 * time.Second)
	for !sup.Tick(ctx) {
		if time.Now().After(deadline) {
			t.Fatalf("supervisor did not finish; state=%v", sup.State())
		}
		time.Sleep(10 * time.Millisecond)
	}

	result := sup.Result()
	assert.Equal(t, tour.BlackWin, result.Outcome)
	assert.Equal(t, tour.ReasonMate, result.Reason)

	hist := sup.History()
	require.Len(t, hist, 4)
	assert.Equal(t, "Qh4#", hist[3].SAN)
}
