package uci_test

import (
	"context"
	"testing"
	"time"

	"github.com/herohde/tourney/pkg/tour"
	"github.com/herohde/tourney/pkg/tour/proto"
	"github.com/herohde/tourney/pkg/tour/proto/uci"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixtureScript is a tiny POSIX shell engine that speaks just enough UCI to
// exercise the Driver's handshake, think and quit paths.
const fixtureScript = `
while IFS= read -r line; do
  case "$line" in
    uci) echo "id name Fixture"; echo "id author Tester"; echo "option name Hash type spin default 16 min 1 max 128"; echo "uciok" ;;
    isready) echo "readyok" ;;
    go*) echo "bestmove e2e4 ponder e7e5" ;;
    quit) exit 0 ;;
    *) ;;
  esac
done
`

func TestDriver_HandshakeAndThink(t *testing.T) {
	d, err := uci.Start("/bin/sh", "", []string{"-c", fixtureScript})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id, err := d.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Fixture", id.Name)
	assert.Equal(t, "Tester", id.Author)
	require.Len(t, id.Options, 1)
	assert.Equal(t, "Hash", id.Options[0].Name)
	assert.Equal(t, tour.OptionSpin, id.Options[0].Kind)

	require.NoError(t, d.NewGame(ctx))

	req := tour.SearchRequest{TC: tour.TimeControl{Mode: tour.MoveTime, MoveSeconds: 1}}
	require.NoError(t, d.Think(ctx, req))

	for {
		select {
		case ev := <-d.Events():
			if bm, ok := ev.(proto.BestMove); ok {
				assert.Equal(t, "e2e4", bm.Move)
				assert.Equal(t, "e7e5", bm.PonderMove)
				d.Quit(ctx)
				return
			}
		case <-ctx.Done():
			t.Fatal("timed out waiting for bestmove")
		}
	}
}
