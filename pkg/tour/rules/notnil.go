package rules

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/herohde/tourney/pkg/tour"
	"github.com/notnil/chess"
)

// notnilBoard implements Board over github.com/notnil/chess. The library
// exposes no Undo, so the board keeps its own applied-move history and
// replays it from the start position on Undo; this is the one place the
// adapter trades a little CPU for the interface the Supervisor needs.
type notnilBoard struct {
	startFEN string
	moves    []string

	g *chess.Game
}

// NewBoard creates a Board starting from startFen (empty means the standard
// initial position), with startMoves already applied in coordinate form.
func NewBoard(startFen string, startMoves []string) (Board, error) {
	b := &notnilBoard{startFEN: startFen}
	if err := b.reset(); err != nil {
		return nil, err
	}
	for _, mv := range startMoves {
		if err := b.MakeCoordinate(mv); err != nil {
			return nil, fmt.Errorf("invalid start move %q: %w", mv, err)
		}
	}
	return b, nil
}

func (b *notnilBoard) reset() error {
	if b.startFEN == "" {
		b.g = chess.NewGame()
		return nil
	}
	fn, err := chess.FEN(b.startFEN)
	if err != nil {
		return fmt.Errorf("invalid start fen %q: %w", b.startFEN, err)
	}
	b.g = chess.NewGame(fn)
	return nil
}

func (b *notnilBoard) FEN() string {
	return b.g.Position().String()
}

func (b *notnilBoard) Turn() tour.Side {
	if b.g.Position().Turn() == chess.White {
		return tour.White
	}
	return tour.Black
}

func (b *notnilBoard) findMove(coordinate string) *chess.Move {
	for _, m := range b.g.ValidMoves() {
		if m.String() == coordinate {
			return m
		}
	}
	return nil
}

func (b *notnilBoard) MakeCoordinate(move string) error {
	m := b.findMove(move)
	if m == nil {
		return fmt.Errorf("illegal move: %v", move)
	}
	if err := b.g.Move(m); err != nil {
		return fmt.Errorf("illegal move: %v: %w", move, err)
	}
	b.moves = append(b.moves, move)
	return nil
}

func (b *notnilBoard) SAN(coordinateMove string) (string, error) {
	m := b.findMove(coordinateMove)
	if m == nil {
		return "", fmt.Errorf("illegal move: %v", coordinateMove)
	}
	return chess.AlgebraicNotation{}.Encode(b.g.Position(), m), nil
}

func (b *notnilBoard) Undo() bool {
	if len(b.moves) == 0 {
		return false
	}
	prev := b.moves[:len(b.moves)-1]
	b.moves = nil
	if err := b.reset(); err != nil {
		return false
	}
	for _, mv := range prev {
		if err := b.MakeCoordinate(mv); err != nil {
			return false
		}
	}
	return true
}

func (b *notnilBoard) LegalMoves() []string {
	vm := b.g.ValidMoves()
	out := make([]string, len(vm))
	for i, m := range vm {
		out[i] = m.String()
	}
	return out
}

// Hash folds the position-relevant FEN fields (board, turn, castling, en
// passant) into a 64-bit value for repetition bookkeeping. The move-count
// suffix fields are excluded deliberately: they differ between otherwise
// identical positions.
func (b *notnilBoard) Hash() uint64 {
	fields := strings.Fields(b.FEN())
	key := strings.Join(fields[:min(4, len(fields))], " ")

	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return h.Sum64()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func (b *notnilBoard) HalfMoveCount() int {
	return len(b.moves)
}

func (b *notnilBoard) NoProgressCount() int {
	fields := strings.Fields(b.FEN())
	if len(fields) < 5 {
		return 0
	}
	n, err := strconv.Atoi(fields[4])
	if err != nil {
		return 0
	}
	return n
}

func (b *notnilBoard) PieceCount() int {
	return len(b.g.Position().Board().SquareMap())
}

func (b *notnilBoard) Terminal() (tour.Outcome, tour.Reason, bool) {
	oc := b.g.Outcome()
	if oc == chess.NoOutcome {
		for _, m := range b.g.EligibleDraws() {
			if m == chess.ThreefoldRepetition || m == chess.FiftyMoveRule {
				_ = b.g.Draw(m)
				oc = b.g.Outcome()
				break
			}
		}
	}
	if oc == chess.NoOutcome {
		return tour.OutcomeNone, tour.ReasonNone, false
	}

	var outcome tour.Outcome
	switch oc {
	case chess.WhiteWon:
		outcome = tour.WhiteWin
	case chess.BlackWon:
		outcome = tour.BlackWin
	default:
		outcome = tour.Draw
	}

	var reason tour.Reason
	switch b.g.Method() {
	case chess.Checkmate:
		reason = tour.ReasonMate
	case chess.Stalemate:
		reason = tour.ReasonStalemate
	case chess.ThreefoldRepetition, chess.FivefoldRepetition:
		reason = tour.ReasonRepetition
	case chess.FiftyMoveRule, chess.SeventyFiveMoveRule:
		reason = tour.ReasonFiftyMoves
	case chess.InsufficientMaterial:
		reason = tour.ReasonInsufficientMaterial
	default:
		reason = tour.ReasonNone
	}
	return outcome, reason, true
}
