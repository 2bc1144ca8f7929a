// Package book defines the opening-book collaborator. Loading real EPD/PGN/
// Polyglot book files is out of scope for the tournament runner (spec); this
// package only exposes the Book contract and a simple in-memory
// implementation, adapted from the teacher engine's own line-table book.
package book

import (
	"context"
	"math/rand"
	"strings"
)

// Book supplies opening starts for new games.
type Book interface {
	// Sample draws one opening for the given seed, returning the FEN to
	// start from (empty means the standard initial position) and the
	// moves, in coordinate form, to replay from it. ok is false if the book
	// has nothing to offer, in which case the caller falls back to the
	// standard initial position.
	Sample(ctx context.Context, seed int64) (startFen string, startMoves []string, ok bool)
}

// Line is one opening line from the standard starting position, e.g.
// {"e2e4", "c7c5"} for the Sicilian.
type Line []string

func (l Line) String() string {
	return strings.Join(l, " ")
}

// Empty is a Book that never has an opening to offer.
var Empty Book = emptyBook{}

type emptyBook struct{}

func (emptyBook) Sample(context.Context, int64) (string, []string, bool) { return "", nil, false }

// inMemoryBook samples uniformly at random among a fixed table of lines.
type inMemoryBook struct {
	lines []Line
}

// NewInMemoryBook creates a Book that samples from a fixed table of opening
// lines from the standard starting position.
func NewInMemoryBook(lines []Line) Book {
	return &inMemoryBook{lines: lines}
}

func (b *inMemoryBook) Sample(_ context.Context, seed int64) (string, []string, bool) {
	if len(b.lines) == 0 {
		return "", nil, false
	}

	r := rand.New(rand.NewSource(seed))
	line := b.lines[r.Intn(len(b.lines))]

	moves := make([]string, len(line))
	copy(moves, line)
	return "", moves, true
}
