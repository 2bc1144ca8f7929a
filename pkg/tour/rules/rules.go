// Package rules defines the Board contract the Game Supervisor consumes for
// legality, terminal-condition and notation concerns, and provides a concrete
// implementation over github.com/notnil/chess.
package rules

import "github.com/herohde/tourney/pkg/tour"

// WDL is a tablebase win/draw/loss probe result, from the side-to-move's
// perspective.
type WDL uint8

const (
	WDLUnknown WDL = iota
	WDLLoss
	WDLDraw
	WDLWin
)

// Board is the chess-rule collaborator: move generation, legality, FEN/SAN,
// hashing and terminal-condition detection. The Game Supervisor is the sole
// owner of a Board instance; no other component mutates it.
type Board interface {
	// FEN renders the current position.
	FEN() string

	// Turn returns the side to move.
	Turn() tour.Side

	// MakeCoordinate applies a move given in coordinate form ("e2e4",
	// "e7e8q"). Returns an error iff the move is not legal in the current
	// position; the board is unchanged on error.
	MakeCoordinate(move string) error

	// SAN renders the given legal coordinate move in standard algebraic
	// notation without applying it.
	SAN(coordinateMove string) (string, error)

	// Undo reverts the last applied move. Reports false if there is none.
	Undo() bool

	// LegalMoves lists all legal moves in coordinate form.
	LegalMoves() []string

	// Hash returns a hash of the position suitable for repetition detection.
	Hash() uint64

	// HalfMoveCount is the number of plies played since the start position.
	HalfMoveCount() int

	// NoProgressCount is the half-move count since the last capture or pawn
	// move (the fifty-move counter).
	NoProgressCount() int

	// PieceCount is the number of pieces remaining on the board, for
	// tablebase-size gating.
	PieceCount() int

	// Terminal reports the game's terminal Outcome/Reason, if the position is
	// decided by rule (mate, stalemate, repetition, fifty-move,
	// insufficient material). ok is false if the game is ongoing.
	Terminal() (outcome tour.Outcome, reason tour.Reason, ok bool)
}

// TablebaseProbe adjudicates positions with few enough pieces left by
// consulting an endgame tablebase. No real Syzygy binding exists in the
// dependency pack; NoTablebase is the default no-op implementation and a
// real probe is a pluggable alternative satisfying the same interface.
type TablebaseProbe interface {
	Probe(b Board) (WDL, bool)
}

// NoTablebase never has an answer.
type NoTablebase struct{}

func (NoTablebase) Probe(Board) (WDL, bool) { return WDLUnknown, false }
