package adapter_test

import (
	"context"
	"testing"
	"time"

	"github.com/herohde/tourney/pkg/tour"
	"github.com/herohde/tourney/pkg/tour/adapter"
	"github.com/herohde/tourney/pkg/tour/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureScript = `
while IFS= read -r line; do
  case "$line" in
    uci) echo "id name Fixture"; echo "id author Tester"; echo "uciok" ;;
    isready) echo "readyok" ;;
    go*) echo "bestmove e2e4" ;;
    quit) exit 0 ;;
    *) ;;
  esac
done
`

func TestAdapter_HandshakeThinkBestMove(t *testing.T) {
	cfg := tour.EngineConfig{
		Name:     "fixture",
		Protocol: tour.UCI,
		Command:  "/bin/sh",
		Arguments: []string{"-c", fixtureScript},
	}

	a, err := adapter.New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, a.Handshake(ctx))
	assert.Equal(t, tour.AdapterReady, a.State())
	assert.Equal(t, "Fixture", a.Identity().Name)

	require.NoError(t, a.NewGame(ctx))
	assert.Equal(t, tour.AdapterPlaying, a.State())

	require.NoError(t, a.Think(ctx, tour.SearchRequest{TC: tour.TimeControl{Mode: tour.MoveTime, MoveSeconds: 1}}))
	assert.Equal(t, tour.Thinking, a.Computing())

	for {
		select {
		case ev := <-a.Events():
			if bm, ok := ev.(proto.BestMove); ok {
				assert.Equal(t, "e2e4", bm.Move)
				a.SettledIdle()
				assert.Equal(t, tour.Idle, a.Computing())
				a.Quit(ctx)
				return
			}
		case <-ctx.Done():
			t.Fatal("timed out waiting for bestmove")
		}
	}
}
