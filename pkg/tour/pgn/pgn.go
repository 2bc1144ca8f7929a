// Package pgn renders a finished or in-progress game as a PGN game text, an
// observable side effect of the Game Supervisor the core does not itself
// parse.
package pgn

import (
	"fmt"
	"strings"
	"time"

	"github.com/herohde/tourney/pkg/tour"
)

// Move is one half-move with an optional annotation comment, matching
// game.MoveRecord's shape without importing that package.
type Move struct {
	SAN     string
	Comment string
}

// Tags carries the seven-tag roster plus the extensions spec.md §6 calls for.
type Tags struct {
	Event string
	Site  string
	Round int

	White string
	Black string

	TimeControl string // PGN-style TimeControl tag value, e.g. "40/9000:60" or "-".
	StartFEN    string // non-empty only for a non-standard start.
}

// Write renders one game's PGN text.
func Write(tags Tags, moves []Move, result tour.Result, started time.Time) string {
	var b strings.Builder

	writeTag(&b, "Event", orDash(tags.Event))
	writeTag(&b, "Site", orDash(tags.Site))
	writeTag(&b, "Date", started.Format("2006.01.02"))
	writeTag(&b, "Round", fmt.Sprintf("%d", tags.Round))
	writeTag(&b, "White", orDash(tags.White))
	writeTag(&b, "Black", orDash(tags.Black))
	writeTag(&b, "Result", result.Outcome.String())
	writeTag(&b, "TimeControl", orDash(tags.TimeControl))
	writeTag(&b, "Time", started.Format("15:04:05"))
	if result.Reason != tour.ReasonNone {
		writeTag(&b, "Termination", terminationText(result.Reason))
	}
	if tags.StartFEN != "" {
		writeTag(&b, "SetUp", "1")
		writeTag(&b, "FEN", tags.StartFEN)
	}
	b.WriteByte('\n')

	writeMoveText(&b, moves, result)

	return b.String()
}

func writeTag(b *strings.Builder, name, value string) {
	fmt.Fprintf(b, "[%s \"%s\"]\n", name, value)
}

func orDash(s string) string {
	if s == "" {
		return "?"
	}
	return s
}

func terminationText(r tour.Reason) string {
	switch r {
	case tour.ReasonTimeout:
		return "time forfeit"
	case tour.ReasonResign:
		return "abandoned"
	case tour.ReasonCrash:
		return "rules infraction"
	case tour.ReasonAdjudication:
		return "adjudication"
	default:
		return "normal"
	}
}

func writeMoveText(b *strings.Builder, moves []Move, result tour.Result) {
	col := 0
	for i, m := range moves {
		if i%2 == 0 {
			fmt.Fprintf(b, "%d. ", i/2+1)
		}
		b.WriteString(m.SAN)
		if m.Comment != "" {
			fmt.Fprintf(b, " {%s}", m.Comment)
		}
		b.WriteByte(' ')

		col++
		if col >= 8 {
			b.WriteByte('\n')
			col = 0
		}
	}
	b.WriteString(result.Outcome.String())
	b.WriteByte('\n')
}
