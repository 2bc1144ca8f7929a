// Package tour contains the shared data model for the tournament runner:
// sides, time controls, options, engine configuration, lifecycle states and
// results. Subpackages (adapter, game, pairing, scheduler, store, ...)
// build the concurrent tournament engine on top of these value types.
package tour

import "fmt"

// Side is one of white or black.
type Side uint8

const (
	White Side = iota
	Black
)

// Other returns the opposing side. Other is an involution: s.Other().Other() == s.
func (s Side) Other() Side {
	if s == White {
		return Black
	}
	return White
}

func (s Side) String() string {
	if s == White {
		return "white"
	}
	return "black"
}

// TimeControlMode identifies the shape of a TimeControl.
type TimeControlMode uint8

const (
	Infinite TimeControlMode = iota
	Depth
	MoveTime
	Standard
)

// TimeControl describes how a game's thinking time is budgeted. Exactly one
// of the mode-specific fields is meaningful, per Mode.
type TimeControl struct {
	Mode TimeControlMode

	// Depth: DepthLimit ply count. Requires DepthLimit >= 1.
	DepthLimit int

	// MoveTime: fixed seconds per move. Requires MoveSeconds > 0.
	MoveSeconds float64

	// Standard: classic clock with optional move-count controls.
	MovesPerControl int     // 0 means sudden-death.
	BaseSeconds     float64 // > 0.
	IncrementSeconds float64 // >= 0.
	MarginSeconds   float64 // >= 0, grace window before flagging.
}

func (tc TimeControl) String() string {
	switch tc.Mode {
	case Infinite:
		return "infinite"
	case Depth:
		return fmt.Sprintf("depth %d", tc.DepthLimit)
	case MoveTime:
		return fmt.Sprintf("movetime %.3fs", tc.MoveSeconds)
	case Standard:
		return fmt.Sprintf("standard moves=%d base=%.1fs inc=%.1fs margin=%.1fs", tc.MovesPerControl, tc.BaseSeconds, tc.IncrementSeconds, tc.MarginSeconds)
	default:
		return "unknown"
	}
}

// OptionKind identifies the shape of an engine-exposed Option.
type OptionKind uint8

const (
	OptionCheck OptionKind = iota
	OptionSpin
	OptionCombo
	OptionString
	OptionButton
)

// Option is a single configurable engine parameter, as surfaced by the UCI
// handshake ("option" lines) or by a tournament's "override options". The
// Winboard driver surfaces no options from "feature" lines.
type Option struct {
	Name        string
	Kind        OptionKind
	Value       string
	Default     string
	Min, Max    int  // OptionSpin only.
	Choices     []string // OptionCombo only.
	Overridable bool
}

// Valid reports whether Value is consistent with Kind's constraints.
func (o Option) Valid() bool {
	switch o.Kind {
	case OptionSpin:
		n, err := parseSpinValue(o.Value)
		if err != nil {
			return false
		}
		return n >= o.Min && n <= o.Max
	case OptionCombo:
		for _, c := range o.Choices {
			if c == o.Value {
				return true
			}
		}
		return false
	default:
		return true
	}
}

func parseSpinValue(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}

// Protocol identifies which wire dialect an engine speaks.
type Protocol uint8

const (
	UCI Protocol = iota
	Winboard
)

func (p Protocol) String() string {
	if p == UCI {
		return "uci"
	}
	return "winboard"
}

// EngineConfig describes how to launch and configure one engine.
type EngineConfig struct {
	Name          string
	Protocol      Protocol
	Command       string
	WorkingFolder string
	Arguments     []string
	InitStrings   []string
	Variants      map[string]bool
	Options       []Option
	Ponderable    bool
	Elo           int
}

// EngineIdentity is what an engine tells us about itself during the
// protocol handshake.
type EngineIdentity struct {
	Name    string
	Author  string
	Options []Option
}

// AdapterState is the lifecycle state of an Engine Adapter's subprocess.
type AdapterState uint8

const (
	AdapterStarting AdapterState = iota
	AdapterReady
	AdapterPlaying
	AdapterStopping
	AdapterStopped
)

func (s AdapterState) String() string {
	switch s {
	case AdapterStarting:
		return "starting"
	case AdapterReady:
		return "ready"
	case AdapterPlaying:
		return "playing"
	case AdapterStopping:
		return "stopping"
	case AdapterStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ComputingState is the orthogonal axis tracking what kind of search (if any)
// an adapter currently has in flight. Kept separate from AdapterState so
// "stopped while pondering" is a single lifecycle transition without losing
// the fact that the in-flight search was a ponder.
type ComputingState uint8

const (
	Idle ComputingState = iota
	Thinking
	Pondering
)

func (s ComputingState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Thinking:
		return "thinking"
	case Pondering:
		return "pondering"
	default:
		return "unknown"
	}
}

// GameState is the lifecycle state of a Game Supervisor.
type GameState uint8

const (
	GameNone GameState = iota
	GameBegin
	GameReady
	GamePlaying
	GameStopped
	GameEnding
	GameEnded
)

func (s GameState) String() string {
	switch s {
	case GameNone:
		return "none"
	case GameBegin:
		return "begin"
	case GameReady:
		return "ready"
	case GamePlaying:
		return "playing"
	case GameStopped:
		return "stopped"
	case GameEnding:
		return "ending"
	case GameEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Outcome is the result of a completed (or in-progress) game.
type Outcome uint8

const (
	OutcomeNone Outcome = iota
	WhiteWin
	Draw
	BlackWin
)

func (o Outcome) String() string {
	switch o {
	case WhiteWin:
		return "1-0"
	case BlackWin:
		return "0-1"
	case Draw:
		return "1/2-1/2"
	default:
		return "*"
	}
}

// Reason explains why a game ended.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonMate
	ReasonStalemate
	ReasonRepetition
	ReasonFiftyMoves
	ReasonInsufficientMaterial
	ReasonIllegalMove
	ReasonTimeout
	ReasonResign
	ReasonAdjudication
	ReasonCrash
)

func (r Reason) String() string {
	switch r {
	case ReasonMate:
		return "mate"
	case ReasonStalemate:
		return "stalemate"
	case ReasonRepetition:
		return "repetition"
	case ReasonFiftyMoves:
		return "fifty-moves"
	case ReasonInsufficientMaterial:
		return "insufficient-material"
	case ReasonIllegalMove:
		return "illegal-move"
	case ReasonTimeout:
		return "timeout"
	case ReasonResign:
		return "resign"
	case ReasonAdjudication:
		return "adjudication"
	case ReasonCrash:
		return "crash"
	default:
		return "none"
	}
}

// Result is the terminal outcome of a game.
type Result struct {
	Outcome Outcome
	Reason  Reason
	Comment string
}

func (r Result) String() string {
	if r.Reason == ReasonNone {
		return r.Outcome.String()
	}
	return fmt.Sprintf("%v (%v)", r.Outcome, r.Reason)
}

// Loss returns the Outcome in which the given side loses.
func Loss(s Side) Outcome {
	if s == White {
		return BlackWin
	}
	return WhiteWin
}

// Win returns the Outcome in which the given side wins.
func Win(s Side) Outcome {
	if s == White {
		return WhiteWin
	}
	return BlackWin
}

// RecordState is the lifecycle state of a scheduled MatchRecord.
type RecordState uint8

const (
	RecordNone RecordState = iota
	RecordPlaying
	RecordCompleted
	RecordError
)

func (s RecordState) String() string {
	switch s {
	case RecordPlaying:
		return "playing"
	case RecordCompleted:
		return "completed"
	case RecordError:
		return "error"
	default:
		return "none"
	}
}

// MatchRecord is one scheduled (or played) game.
type MatchRecord struct {
	Players    [2]string // Players[White], Players[Black]; empty string denotes a bye seat.
	StartFen   string
	StartMoves []string
	Result     Result
	State      RecordState
	GameIndex  int
	RoundIndex int
	PairID     int
}

// Bye reports whether this record is a synthetic bye (one seat unoccupied).
func (m MatchRecord) Bye() bool {
	return m.Players[White] == "" || m.Players[Black] == ""
}

// TourStanding is one player's aggregate tournament statistics.
type TourStanding struct {
	Player       string
	GameCount    int
	Wins         int
	Draws        int
	Losses       int
	WhiteCount   int
	ByeCount     int
	AbnormalCount int

	// Opportunistically parsed from engine thinking lines.
	NodeSum    uint64
	DepthSum   uint64
	ElapsedSum float64
	MoveCount  int
}

// Score is the classical win=1, draw=1/2, loss=0 tournament score.
func (t TourStanding) Score() float64 {
	return float64(t.Wins) + 0.5*float64(t.Draws)
}
