package winboard_test

import (
	"context"
	"testing"
	"time"

	"github.com/herohde/tourney/pkg/tour"
	"github.com/herohde/tourney/pkg/tour/proto"
	"github.com/herohde/tourney/pkg/tour/proto/winboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureScript = `
while IFS= read -r line; do
  case "$line" in
    "protover 2") echo "feature myname=\"Fixture\" ping=1 setboard=1 usermove=1 done=1" ;;
    new|force|hard|setboard*|level*|time*|otim*) ;;
    ping*) n=$(echo "$line" | cut -d' ' -f2); echo "pong $n" ;;
    usermove*) ;;
    go) echo "move e7e5" ;;
    quit) exit 0 ;;
    *) ;;
  esac
done
`

func TestDriver_HandshakeAndThink(t *testing.T) {
	d, err := winboard.Start("/bin/sh", "", []string{"-c", fixtureScript})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id, err := d.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Fixture", id.Name)

	require.NoError(t, d.NewGame(ctx))

	req := tour.SearchRequest{
		Side:   tour.Black,
		Moves:  []string{"e2e4"},
		TC:     tour.TimeControl{Mode: tour.MoveTime, MoveSeconds: 1},
	}
	require.NoError(t, d.Think(ctx, req))

	for {
		select {
		case ev := <-d.Events():
			if bm, ok := ev.(proto.BestMove); ok {
				assert.Equal(t, "e7e5", bm.Move)
				d.Quit(ctx)
				return
			}
		case <-ctx.Done():
			t.Fatal("timed out waiting for bestmove")
		}
	}
}
