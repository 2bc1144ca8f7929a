// Package scheduler implements the Tournament Scheduler: the component that
// drives scheduled matches concurrently subject to a concurrency bound,
// dispatches round transitions, and maintains aggregate statistics.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/util/iox"

	"github.com/herohde/tourney/pkg/tour"
	"github.com/herohde/tourney/pkg/tour/book"
	"github.com/herohde/tourney/pkg/tour/game"
	"github.com/herohde/tourney/pkg/tour/pairing"
	"github.com/herohde/tourney/pkg/tour/store"
)

// OpeningPolicy selects how a new batch of records is assigned openings.
type OpeningPolicy uint8

const (
	SamePair OpeningPolicy = iota // both games of a pair share one opening.
	AllNew                        // every record draws its own opening.
	AllOne                        // every record in the tournament shares one opening.
)

// Config parameterizes a Scheduler.
type Config struct {
	Concurrency int
	Engines     map[string]tour.EngineConfig
	Clock       tour.TimeControl
	Supervisor  game.Config

	Book          book.Book
	OpeningPolicy OpeningPolicy
	Seed          int64

	TickInterval time.Duration // default 500ms, per the steady-period tick model.
}

// Scheduler drives a tournament's games to completion. It embeds
// iox.AsyncCloser, closed when Run returns, so callers can wait on Closed()
// for the run to wind down (cmd/tourney instead cancels Run's context and
// waits for Run to return).
type Scheduler struct {
	iox.AsyncCloser

	cfg     Config
	store   *store.Store
	pairing *pairing.Engine

	live      map[int]*game.Supervisor // keyed by record GameIndex.
	telemetry map[string]tour.TourStanding

	sharedOpeningSampled bool
	sharedFen            string
	sharedMoves          []string
}

// New creates a Scheduler over an already-opened Store and Pairing Engine.
func New(cfg Config, st *store.Store, pe *pairing.Engine) *Scheduler {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 500 * time.Millisecond
	}
	if cfg.Book == nil {
		cfg.Book = book.Empty
	}
	return &Scheduler{
		AsyncCloser: iox.NewAsyncCloser(),
		cfg:         cfg,
		store:       st,
		pairing:     pe,
		live:        map[int]*game.Supervisor{},
		telemetry:   map[string]tour.TourStanding{},
	}
}

// Records returns the tournament's current match records, for the Status
// Reporter.
func (s *Scheduler) Records() []tour.MatchRecord { return s.store.Records() }

// Telemetry returns the opportunistic per-player engine statistics
// accumulated from completed games so far.
func (s *Scheduler) Telemetry() map[string]tour.TourStanding {
	out := make(map[string]tour.TourStanding, len(s.telemetry))
	for k, v := range s.telemetry {
		out[k] = v
	}
	return out
}

// Run drives Tick on cfg.TickInterval until the tournament finalizes or ctx
// is done.
func (s *Scheduler) Run(ctx context.Context) error {
	defer s.Close()

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		finished, err := s.Tick(ctx)
		if err != nil {
			return err
		}
		if finished {
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Tick advances every live Supervisor, dispatches newly startable records,
// and requests the next round once the current one is exhausted. Returns
// finished=true once the tournament has no more work.
func (s *Scheduler) Tick(ctx context.Context) (finished bool, err error) {
	if err := s.reapFinished(ctx); err != nil {
		return false, err
	}
	if err := s.dispatchNew(ctx); err != nil {
		return false, err
	}
	if len(s.live) > 0 {
		return false, nil
	}
	if s.hasUncompleted() {
		return false, nil
	}
	return s.advanceRound(ctx)
}

func (s *Scheduler) hasUncompleted() bool {
	for _, r := range s.store.Records() {
		if r.State == tour.RecordNone {
			return true
		}
	}
	return false
}

func (s *Scheduler) reapFinished(ctx context.Context) error {
	for idx, sup := range s.live {
		if !sup.Tick(ctx) {
			continue
		}

		rec := sup.Record()
		if err := s.storeUpdate(rec); err != nil {
			return err
		}

		s.telemetry[rec.Players[tour.White]] = mergeStanding(s.telemetry[rec.Players[tour.White]], sup.Stats(tour.White))
		s.telemetry[rec.Players[tour.Black]] = mergeStanding(s.telemetry[rec.Players[tour.Black]], sup.Stats(tour.Black))

		logw.Infof(ctx, "Game %v finished: %v vs %v -> %v", rec.GameIndex, rec.Players[tour.White], rec.Players[tour.Black], rec.Result)

		if extra, ok := s.pairing.ExtendIfTied(s.store.Records(), rec.PairID); ok {
			s.store.Append(extra)
			logw.Infof(ctx, "Pair %v tied; extending with game %v", rec.PairID, extra.GameIndex)
		}

		if err := s.store.Save(); err != nil {
			return err
		}

		for _, a := range sup.Adapters() {
			a := a
			go a.Quit(context.Background())
		}
		delete(s.live, idx)
	}
	return nil
}

func mergeStanding(acc tour.TourStanding, add tour.TourStanding) tour.TourStanding {
	acc.NodeSum += add.NodeSum
	acc.DepthSum += add.DepthSum
	acc.ElapsedSum += add.ElapsedSum
	acc.MoveCount += add.MoveCount
	return acc
}

func (s *Scheduler) storeUpdate(rec tour.MatchRecord) error {
	records := s.store.Records()
	for i, r := range records {
		if r.GameIndex == rec.GameIndex {
			return s.store.UpdateRecord(i, rec)
		}
	}
	return fmt.Errorf("no stored record for game %v", rec.GameIndex)
}

func (s *Scheduler) dispatchNew(ctx context.Context) error {
	records := s.store.Records()
	for i, rec := range records {
		if len(s.live) >= s.cfg.Concurrency {
			return nil
		}
		if rec.State != tour.RecordNone {
			continue
		}

		white, ok := s.cfg.Engines[rec.Players[tour.White]]
		if !ok {
			return fmt.Errorf("no engine configured for %v", rec.Players[tour.White])
		}
		black, ok := s.cfg.Engines[rec.Players[tour.Black]]
		if !ok {
			return fmt.Errorf("no engine configured for %v", rec.Players[tour.Black])
		}

		sup, err := game.New(rec, [2]tour.EngineConfig{tour.White: white, tour.Black: black}, s.cfg.Clock, s.cfg.Supervisor)
		if err != nil {
			return fmt.Errorf("start game %v: %w", rec.GameIndex, err)
		}

		rec.State = tour.RecordPlaying
		if err := s.store.UpdateRecord(i, rec); err != nil {
			return err
		}
		if err := s.store.Save(); err != nil {
			return err
		}

		logw.Infof(ctx, "Starting game %v: %v (white) vs %v (black)", rec.GameIndex, rec.Players[tour.White], rec.Players[tour.Black])
		sup.Begin(ctx)
		s.live[rec.GameIndex] = sup
	}
	return nil
}

func (s *Scheduler) advanceRound(ctx context.Context) (finished bool, err error) {
	next, ok := s.pairing.NextRound(s.store.Records())
	if !ok {
		logw.Infof(ctx, "Tournament complete")
		if err := s.store.Finalize(); err != nil {
			return false, err
		}
		return true, nil
	}

	next = s.assignOpenings(ctx, next)
	s.store.Append(next...)
	if err := s.store.Save(); err != nil {
		return false, err
	}
	logw.Infof(ctx, "Scheduled %v new game(s)", len(next))
	return false, nil
}

func (s *Scheduler) assignOpenings(ctx context.Context, records []tour.MatchRecord) []tour.MatchRecord {
	switch s.cfg.OpeningPolicy {
	case AllOne:
		if !s.sharedOpeningSampled {
			s.sharedFen, s.sharedMoves, _ = s.cfg.Book.Sample(ctx, s.cfg.Seed)
			s.sharedOpeningSampled = true
		}
		for i := range records {
			if records[i].Bye() {
				continue
			}
			records[i].StartFen = s.sharedFen
			records[i].StartMoves = append([]string(nil), s.sharedMoves...)
		}
	case SamePair:
		type opening struct {
			fen   string
			moves []string
		}
		perPair := map[int]opening{}
		for i := range records {
			if records[i].Bye() {
				continue
			}
			pid := records[i].PairID
			o, ok := perPair[pid]
			if !ok {
				fen, moves, _ := s.cfg.Book.Sample(ctx, s.cfg.Seed+int64(pid))
				o = opening{fen, moves}
				perPair[pid] = o
			}
			records[i].StartFen = o.fen
			records[i].StartMoves = append([]string(nil), o.moves...)
		}
	case AllNew:
		for i := range records {
			if records[i].Bye() {
				continue
			}
			fen, moves, _ := s.cfg.Book.Sample(ctx, s.cfg.Seed+int64(i)+1)
			records[i].StartFen = fen
			records[i].StartMoves = moves
		}
	}
	return records
}
