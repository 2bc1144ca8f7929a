package pgn_test

import (
	"strings"
	"testing"
	"time"

	"github.com/herohde/tourney/pkg/tour"
	"github.com/herohde/tourney/pkg/tour/pgn"
	"github.com/stretchr/testify/assert"
)

func TestWrite_RendersTagsAndMoves(t *testing.T) {
	tags := pgn.Tags{Event: "Test Cup", White: "engineA", Black: "engineB", Round: 1, TimeControl: "40/9000:60"}
	moves := []pgn.Move{
		{SAN: "e4"},
		{SAN: "e5"},
		{SAN: "Nf3"},
		{SAN: "Nc6"},
	}
	result := tour.Result{Outcome: tour.WhiteWin, Reason: tour.ReasonResign}

	out := pgn.Write(tags, moves, result, time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC))

	assert.Contains(t, out, `[White "engineA"]`)
	assert.Contains(t, out, `[Black "engineB"]`)
	assert.Contains(t, out, `[Result "1-0"]`)
	assert.Contains(t, out, `[Termination "abandoned"]`)
	assert.Contains(t, out, "1. e4 e5 2. Nf3 Nc6")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "1-0"))
}

func TestWrite_NonStandardStartAddsFENTags(t *testing.T) {
	tags := pgn.Tags{White: "a", Black: "b", StartFEN: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"}
	out := pgn.Write(tags, nil, tour.Result{Outcome: tour.Draw}, time.Now())

	assert.Contains(t, out, `[SetUp "1"]`)
	assert.Contains(t, out, `[FEN "`)
}
