// Package adapter implements the Engine Adapter: the component that drives
// one engine subprocess under either the UCI or Winboard protocol behind a
// single, protocol-agnostic contract, and watches it for staleness.
package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/herohde/tourney/pkg/tour"
	"github.com/herohde/tourney/pkg/tour/proto"
	"github.com/herohde/tourney/pkg/tour/proto/uci"
	"github.com/herohde/tourney/pkg/tour/proto/winboard"
)

// idleDeadThreshold is how long an adapter may go without producing a
// recognized line while it has outstanding work before it is declared
// stalled and the game is forfeited.
const idleDeadThreshold = 30 * time.Second

// Dialect is the narrow surface both protocol drivers implement. It is
// deliberately synchronous: each call either completes immediately (having
// only written to the child's stdin) or returns once the corresponding
// acknowledgement line has been seen.
type Dialect interface {
	// Start performs the handshake (uci/uciok or xboard protover/feature) and
	// returns the options and identity the engine advertised.
	Start(ctx context.Context) (tour.EngineIdentity, error)

	NewGame(ctx context.Context) error

	SetOption(ctx context.Context, name, value string) error

	// Think begins a search under req and blocks until the dialect has
	// issued the command; the result arrives later on Events.
	Think(ctx context.Context, req tour.SearchRequest) error

	// Stop requests the current think end as soon as possible.
	Stop(ctx context.Context) error

	// PonderHit informs a pondering engine that its ponder move was played.
	PonderHit(ctx context.Context) error

	Events() <-chan proto.Event

	LastLineAt() time.Time

	Quit(ctx context.Context)
}

// Adapter supervises one engine subprocess across its whole lifetime:
// dialect handshake, per-game think/ponder/stop commands, idle-staleness
// detection, and a forceful kill on shutdown.
type Adapter struct {
	cfg tour.EngineConfig
	d   Dialect

	state     tour.AdapterState
	computing tour.ComputingState

	identity tour.EngineIdentity
}

// New spawns cfg's engine under its configured protocol.
func New(cfg tour.EngineConfig) (*Adapter, error) {
	var d Dialect
	switch cfg.Protocol {
	case tour.UCI:
		drv, err := uci.Start(cfg.Command, cfg.WorkingFolder, cfg.Arguments)
		if err != nil {
			return nil, err
		}
		d = drv
	case tour.Winboard:
		drv, err := winboard.Start(cfg.Command, cfg.WorkingFolder, cfg.Arguments)
		if err != nil {
			return nil, err
		}
		d = drv
	default:
		return nil, fmt.Errorf("unsupported protocol: %v", cfg.Protocol)
	}

	return &Adapter{cfg: cfg, d: d, state: tour.AdapterStarting}, nil
}

// Handshake runs the protocol handshake and applies the engine's configured
// option overrides. Must be called once before any other Adapter method.
func (a *Adapter) Handshake(ctx context.Context) error {
	identity, err := a.d.Start(ctx)
	if err != nil {
		a.state = tour.AdapterStopped
		return err
	}
	a.identity = identity

	for _, opt := range a.cfg.Options {
		if !opt.Overridable {
			continue
		}
		if err := a.d.SetOption(ctx, opt.Name, opt.Value); err != nil {
			return fmt.Errorf("set option %v: %w", opt.Name, err)
		}
	}

	a.state = tour.AdapterReady
	return nil
}

func (a *Adapter) Identity() tour.EngineIdentity { return a.identity }

func (a *Adapter) State() tour.AdapterState         { return a.state }
func (a *Adapter) Computing() tour.ComputingState   { return a.computing }
func (a *Adapter) Events() <-chan proto.Event       { return a.d.Events() }

func (a *Adapter) NewGame(ctx context.Context) error {
	if err := a.d.NewGame(ctx); err != nil {
		return err
	}
	a.state = tour.AdapterPlaying
	a.computing = tour.Idle
	return nil
}

func (a *Adapter) Think(ctx context.Context, req tour.SearchRequest) error {
	if err := a.d.Think(ctx, req); err != nil {
		return err
	}
	if req.Ponder {
		a.computing = tour.Pondering
	} else {
		a.computing = tour.Thinking
	}
	return nil
}

func (a *Adapter) PonderHit(ctx context.Context) error {
	if err := a.d.PonderHit(ctx); err != nil {
		return err
	}
	a.computing = tour.Thinking
	return nil
}

func (a *Adapter) Stop(ctx context.Context) error {
	if err := a.d.Stop(ctx); err != nil {
		return err
	}
	a.state = tour.AdapterStopping
	return nil
}

// SettledIdle marks the adapter as having delivered its result and gone
// quiet, called by the Game Supervisor once it has consumed a BestMove or
// Resign event.
func (a *Adapter) SettledIdle() {
	a.computing = tour.Idle
	if a.state == tour.AdapterStopping {
		a.state = tour.AdapterPlaying
	}
}

// Stalled reports whether the adapter has been silent past the idle-death
// threshold while the engine owed the tournament a response.
func (a *Adapter) Stalled() bool {
	if a.computing == tour.Idle {
		return false
	}
	return time.Since(a.d.LastLineAt()) > idleDeadThreshold
}

// Quit asks the engine to exit, then force-kills it if it has not exited
// within the dialect's two-second grace, or sooner if the caller's context
// is done first.
func (a *Adapter) Quit(ctx context.Context) {
	a.d.Quit(ctx)
	a.state = tour.AdapterStopped
}
