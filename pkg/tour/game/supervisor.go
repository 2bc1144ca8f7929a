// Package game implements the Game Supervisor: the component that plays
// exactly one game between two Engine Adapters, enforcing legality, the
// clock, and adjudication.
package game

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/herohde/tourney/pkg/tour"
	"github.com/herohde/tourney/pkg/tour/adapter"
	"github.com/herohde/tourney/pkg/tour/proto"
	"github.com/herohde/tourney/pkg/tour/rules"
)

// MoveRecord is one played (or replayed opening-book) half-move, kept for
// PGN rendering.
type MoveRecord struct {
	SAN     string
	Comment string
}

// Config parameterizes a Supervisor's optional behaviour.
type Config struct {
	PonderMode    bool
	MaxGameLength int // half-moves; 0 disables length adjudication.
	MaxPieces     int // tablebase probe gate; 0 disables.
	Tablebase     rules.TablebaseProbe

	BeginGrace  time.Duration // max wait for both adapters to become ready.
	EndingGrace time.Duration // max wait for both adapters to become detachable.
}

// DefaultConfig is a sensible Config for casual play.
func DefaultConfig() Config {
	return Config{
		Tablebase:   rules.NoTablebase{},
		BeginGrace:  15 * time.Second,
		EndingGrace: 5 * time.Second,
	}
}

// Supervisor plays one game between a White and a Black Engine Adapter.
type Supervisor struct {
	rec tour.MatchRecord
	cfg Config

	adapters [2]*adapter.Adapter
	handshakeDone [2]chan error
	handshakeSeen [2]bool
	crashed       [2]bool

	board rules.Board
	clock *tour.Clock

	state      tour.GameState
	result     tour.Result
	sideToMove tour.Side

	moves      []string
	history    []MoveRecord
	ponderMove string // the move the waiting side's adapter is currently pondering, if any.

	stats [2]tour.TourStanding

	endingDeadline time.Time
}

// New spawns both Engine Adapters and sets up the Board from the record's
// opening, but does not start the handshake; call Begin for that.
func New(rec tour.MatchRecord, engines [2]tour.EngineConfig, tc tour.TimeControl, cfg Config) (*Supervisor, error) {
	s := &Supervisor{
		rec:   rec,
		cfg:   cfg,
		clock: tour.NewClock(tc),
		state: tour.GameBegin,
	}

	for side := tour.White; side <= tour.Black; side++ {
		a, err := adapter.New(engines[side])
		if err != nil {
			return nil, fmt.Errorf("spawn %v adapter: %w", side, err)
		}
		s.adapters[side] = a
		s.handshakeDone[side] = make(chan error, 1)
	}

	board, err := rules.NewBoard(rec.StartFen, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid start position: %w", err)
	}
	s.board = board

	for i, mv := range rec.StartMoves {
		san, err := s.board.SAN(mv)
		if err != nil {
			return nil, fmt.Errorf("invalid opening move %v: %w", mv, err)
		}
		if err := s.board.MakeCoordinate(mv); err != nil {
			return nil, fmt.Errorf("invalid opening move %v: %w", mv, err)
		}
		s.moves = append(s.moves, mv)

		comment := ""
		if i == len(rec.StartMoves)-1 {
			comment = "book"
		}
		s.history = append(s.history, MoveRecord{SAN: san, Comment: comment})
	}
	s.sideToMove = s.board.Turn()

	return s, nil
}

// Begin launches both adapters' protocol handshakes in the background.
// Tick must be called repeatedly afterward to drive progress.
func (s *Supervisor) Begin(ctx context.Context) {
	for side := tour.White; side <= tour.Black; side++ {
		side := side
		grace, cancel := context.WithTimeout(ctx, s.cfg.BeginGrace)
		go func() {
			defer cancel()
			s.handshakeDone[side] <- s.adapters[side].Handshake(grace)
		}()
	}
}

// State returns the Supervisor's current lifecycle state.
func (s *Supervisor) State() tour.GameState { return s.state }

// Result returns the game's terminal Result; only meaningful once State is
// at least GameStopped.
func (s *Supervisor) Result() tour.Result { return s.result }

// Record returns the record this Supervisor is playing, with StartMoves
// reflecting every move played so far (useful for persistence mid-game).
func (s *Supervisor) Record() tour.MatchRecord {
	rec := s.rec
	rec.StartMoves = append([]string(nil), s.moves...)
	rec.Result = s.result
	if s.state == tour.GameEnded || s.state == tour.GameStopped {
		rec.State = tour.RecordCompleted
	}
	return rec
}

// History returns the game's move list (including replayed opening moves),
// for PGN rendering.
func (s *Supervisor) History() []MoveRecord { return s.history }

// Stats returns the opportunistic per-side engine statistics accumulated
// from thinking lines, for the Scheduler to fold into tournament standings.
func (s *Supervisor) Stats(side tour.Side) tour.TourStanding { return s.stats[side] }

// Adapters exposes the two Engine Adapters, for disposal once the game has
// ended.
func (s *Supervisor) Adapters() [2]*adapter.Adapter { return s.adapters }

// Tick advances the Supervisor by one step, draining any adapter events that
// have arrived since the last call. Returns true once the Supervisor has
// reached GameEnded.
func (s *Supervisor) Tick(ctx context.Context) bool {
	switch s.state {
	case tour.GameBegin:
		s.tickBegin(ctx)
	case tour.GamePlaying:
		s.tickPlaying(ctx)
	case tour.GameStopped:
		s.endingDeadline = time.Now().Add(s.cfg.EndingGrace)
		s.state = tour.GameEnding
	case tour.GameEnding:
		s.tickEnding()
	}
	return s.state == tour.GameEnded
}

func (s *Supervisor) tickBegin(ctx context.Context) {
	for side := tour.White; side <= tour.Black; side++ {
		if s.handshakeSeen[side] {
			continue
		}
		select {
		case err := <-s.handshakeDone[side]:
			s.handshakeSeen[side] = true
			s.crashed[side] = err != nil
		default:
		}
	}

	if !s.handshakeSeen[tour.White] || !s.handshakeSeen[tour.Black] {
		return
	}

	switch {
	case s.crashed[tour.White] && s.crashed[tour.Black]:
		s.gameOver(ctx, tour.Result{Outcome: tour.Draw, Reason: tour.ReasonCrash})
	case s.crashed[tour.White]:
		s.gameOver(ctx, tour.Result{Outcome: tour.Win(tour.Black), Reason: tour.ReasonCrash})
	case s.crashed[tour.Black]:
		s.gameOver(ctx, tour.Result{Outcome: tour.Win(tour.White), Reason: tour.ReasonCrash})
	default:
		s.state = tour.GamePlaying
		s.startThinking(ctx, "")
	}
}

func (s *Supervisor) tickPlaying(ctx context.Context) {
	for side := tour.White; side <= tour.Black; side++ {
		s.drainEvents(ctx, side)
		if s.state != tour.GamePlaying {
			return
		}
	}

	for side := tour.White; side <= tour.Black; side++ {
		if s.adapters[side].Stalled() {
			s.gameOver(ctx, tour.Result{Outcome: tour.Win(side.Other()), Reason: tour.ReasonCrash, Comment: "adapter unresponsive"})
			return
		}
	}
}

func (s *Supervisor) tickEnding() {
	allDetached := true
	for side := tour.White; side <= tour.Black; side++ {
		st, computing := s.adapters[side].State(), s.adapters[side].Computing()
		if computing != tour.Idle && st != tour.AdapterStopped {
			allDetached = false
		}
	}
	if allDetached || time.Now().After(s.endingDeadline) {
		s.state = tour.GameEnded
	}
}

func (s *Supervisor) drainEvents(ctx context.Context, side tour.Side) {
	for {
		select {
		case ev, ok := <-s.adapters[side].Events():
			if !ok {
				return
			}
			s.handleEvent(ctx, side, ev)
			if s.state != tour.GamePlaying {
				return
			}
		default:
			return
		}
	}
}

func (s *Supervisor) handleEvent(ctx context.Context, side tour.Side, ev proto.Event) {
	switch e := ev.(type) {
	case proto.LineLogged:
		if !e.Outbound {
			accumulateInfo(&s.stats[side], e.Text)
		}
	case proto.BestMove:
		prior := s.adapters[side].Computing()
		s.adapters[side].SettledIdle()
		if side != s.sideToMove {
			if prior == tour.Pondering {
				s.startThinking(ctx, "") // missed ponder-hit: fresh think for the side to move.
			}
			return
		}
		if prior != tour.Thinking {
			return // late or duplicate.
		}
		s.applyMove(ctx, side, e.Move, e.PonderMove)
	case proto.Resign:
		prior := s.adapters[side].Computing()
		s.adapters[side].SettledIdle()
		if side != s.sideToMove || prior != tour.Thinking {
			return
		}
		s.gameOver(ctx, tour.Result{Outcome: tour.Win(side.Other()), Reason: tour.ReasonResign})
	case proto.Crashed:
		s.gameOver(ctx, tour.Result{Outcome: tour.Win(side.Other()), Reason: tour.ReasonCrash, Comment: e.Err.Error()})
	}
}

func (s *Supervisor) applyMove(ctx context.Context, side tour.Side, move, ponderMove string) {
	if s.clock.IsTimeOver(side) {
		s.gameOver(ctx, tour.Result{Outcome: tour.Win(side.Other()), Reason: tour.ReasonTimeout})
		return
	}

	san, err := s.board.SAN(move)
	if err != nil {
		s.gameOver(ctx, tour.Result{Outcome: tour.Win(side.Other()), Reason: tour.ReasonIllegalMove, Comment: move})
		return
	}
	if err := s.board.MakeCoordinate(move); err != nil {
		s.gameOver(ctx, tour.Result{Outcome: tour.Win(side.Other()), Reason: tour.ReasonIllegalMove, Comment: move})
		return
	}

	elapsed := s.clock.Consumed()
	s.moves = append(s.moves, move)
	s.history = append(s.history, MoveRecord{SAN: san})
	s.stats[side].MoveCount++

	if outcome, reason, ok := s.board.Terminal(); ok {
		s.gameOver(ctx, tour.Result{Outcome: outcome, Reason: reason})
		return
	}
	if result, ok := s.adjudicate(); ok {
		s.gameOver(ctx, result)
		return
	}

	s.clock.UpdateAfterMove(elapsed, side, s.board.HalfMoveCount())
	s.sideToMove = s.board.Turn()
	s.startThinking(ctx, ponderMove)
}

func (s *Supervisor) adjudicate() (tour.Result, bool) {
	if s.cfg.MaxGameLength > 0 && s.board.HalfMoveCount() >= s.cfg.MaxGameLength {
		return tour.Result{Outcome: tour.Draw, Reason: tour.ReasonAdjudication, Comment: "max game length"}, true
	}
	if s.cfg.Tablebase != nil && s.cfg.MaxPieces > 0 && s.board.PieceCount() <= s.cfg.MaxPieces {
		if wdl, ok := s.cfg.Tablebase.Probe(s.board); ok {
			mover := s.board.Turn()
			switch wdl {
			case rules.WDLWin:
				return tour.Result{Outcome: tour.Win(mover), Reason: tour.ReasonAdjudication, Comment: "tablebase"}, true
			case rules.WDLLoss:
				return tour.Result{Outcome: tour.Win(mover.Other()), Reason: tour.ReasonAdjudication, Comment: "tablebase"}, true
			case rules.WDLDraw:
				return tour.Result{Outcome: tour.Draw, Reason: tour.ReasonAdjudication, Comment: "tablebase"}, true
			}
		}
	}
	return tour.Result{}, false
}

// startThinking sets the clock for the side to move, optionally instructs
// the side that just moved to ponder the move it suggested, and instructs
// the side to move to think.
func (s *Supervisor) startThinking(ctx context.Context, ponderMove string) {
	s.clock.StartMove()

	mover := s.sideToMove
	waiting := mover.Other()

	req := tour.SearchRequest{
		StartFEN:             s.rec.StartFen,
		Moves:                append([]string(nil), s.moves...),
		Side:                 mover,
		TC:                   s.clock.TC(),
		WhiteTimeLeftSeconds: s.clock.TimeLeft(tour.White),
		BlackTimeLeftSeconds: s.clock.TimeLeft(tour.Black),
		MovesToGo:            s.movesToGo(),
	}
	if err := s.adapters[mover].Think(ctx, req); err != nil {
		s.gameOver(ctx, tour.Result{Outcome: tour.Win(waiting), Reason: tour.ReasonCrash, Comment: err.Error()})
		return
	}

	s.ponderMove = ""
	if s.cfg.PonderMode && ponderMove != "" && s.adapters[waiting].State() != tour.AdapterStopped {
		ponderReq := req
		ponderReq.Moves = append(append([]string(nil), s.moves...), ponderMove)
		ponderReq.Side = waiting
		ponderReq.Ponder = true
		s.ponderMove = ponderMove
		_ = s.adapters[waiting].Think(ctx, ponderReq)
	}
}

func (s *Supervisor) movesToGo() int {
	tc := s.clock.TC()
	if tc.Mode != tour.Standard || tc.MovesPerControl <= 0 {
		return 0
	}
	played := (s.board.HalfMoveCount() + 1) / 2 % tc.MovesPerControl
	return tc.MovesPerControl - played
}

// gameOver tells both adapters to stop searching and records the terminal
// Result. Idempotent.
func (s *Supervisor) gameOver(ctx context.Context, result tour.Result) {
	if s.state == tour.GameStopped || s.state == tour.GameEnding || s.state == tour.GameEnded {
		return
	}
	s.result = result
	for side := tour.White; side <= tour.Black; side++ {
		_ = s.adapters[side].Stop(ctx)
	}
	s.state = tour.GameStopped
}

// accumulateInfo opportunistically parses a UCI "info ..." line's depth,
// nodes and time tokens into running per-side totals. Winboard engines
// rarely emit comparable telemetry, so this is a best-effort UCI-oriented
// parse; unrecognized lines are silently skipped.
func accumulateInfo(stat *tour.TourStanding, line string) {
	if !strings.HasPrefix(line, "info ") {
		return
	}
	fields := strings.Fields(line)
	for i := 0; i+1 < len(fields); i++ {
		switch fields[i] {
		case "depth":
			if n, err := strconv.Atoi(fields[i+1]); err == nil {
				stat.DepthSum += uint64(n)
			}
		case "nodes":
			if n, err := strconv.ParseUint(fields[i+1], 10, 64); err == nil {
				stat.NodeSum += n
			}
		case "time":
			if n, err := strconv.Atoi(fields[i+1]); err == nil {
				stat.ElapsedSum += float64(n) / 1000
			}
		}
	}
}
