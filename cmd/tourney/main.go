// tourney runs a concurrent chess-engine tournament: it pairs engines per a
// configured format, supervises each game over UCI or Winboard/XBoard v2,
// enforces clocks and adjudication, and reports standings as it goes.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/seekerror/build"
	"github.com/seekerror/logw"

	"github.com/herohde/tourney/pkg/tour"
	"github.com/herohde/tourney/pkg/tour/book"
	"github.com/herohde/tourney/pkg/tour/config"
	"github.com/herohde/tourney/pkg/tour/game"
	"github.com/herohde/tourney/pkg/tour/pairing"
	"github.com/herohde/tourney/pkg/tour/scheduler"
	"github.com/herohde/tourney/pkg/tour/stats"
	"github.com/herohde/tourney/pkg/tour/status"
	"github.com/herohde/tourney/pkg/tour/store"
)

var version = build.NewVersion(0, 1, 0)

var (
	jsonpath string
	enginesd = flag.String("d", "", "Engines catalogue directory")

	yes = flag.Bool("yes", false, "Auto-answer yes to the resume prompt")
	no  = flag.Bool("no", false, "Auto-answer no to the resume prompt")

	discover   = flag.Bool("u", false, "Switch to engine-discovery mode (out of scope)")
	discoverC  = flag.Int("c", 1, "Discovery concurrency")
	verbose    = flag.String("v", "off", "Verbose: on|off (echoed in the startup log line; log output is not changed)")
	logLevel   = flag.String("log-level", "info", "Structured log level: debug|info|warn|error (echoed in the startup log line; log output is not changed)")
	statusAddr = flag.String("status-addr", "", "If set, serve standings as JSON on this address")
)

func init() {
	flag.StringVar(&jsonpath, "t", "", "Path to tournament JSON (also: -jsonpath)")
	flag.StringVar(&jsonpath, "jsonpath", "", "Path to tournament JSON (alias of -t)")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `usage: tourney -t tournament.json -d enginesdir [options]

tourney runs a concurrent chess-engine tournament.
Options:
`)
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	ctx := context.Background()

	logw.Infof(ctx, "tourney %v, log-level=%v, verbose=%v", version, *logLevel, *verbose)

	path := jsonpath
	if path == "" {
		flag.Usage()
		logw.Exitf(ctx, "Missing tournament JSON path (-t)")
	}
	if *discover {
		logw.Exitf(ctx, "Engine-discovery mode (-u) is not supported (concurrency=%v)", *discoverC)
	}

	tn, err := config.LoadTournament(path)
	if err != nil {
		logw.Exitf(ctx, "Load tournament config: %v", err)
	}

	catalogue, err := config.LoadCatalogue(filepath.Join(*enginesd, "engines.json"))
	if err != nil {
		logw.Exitf(ctx, "Load engine catalogue: %v", err)
	}
	engines, err := catalogue.Resolve(tn.Players)
	if err != nil {
		logw.Exitf(ctx, "Resolve engines: %v", err)
	}
	applyOverrideOptions(engines, tn.OverrideOptions)

	tc, err := tn.TimeControl.Resolve()
	if err != nil {
		logw.Exitf(ctx, "Resolve time control: %v", err)
	}

	storePath := filepath.Join(filepath.Dir(path), "playing.json")
	st, existed, err := store.Open(storePath)
	if err != nil {
		logw.Exitf(ctx, "Open store: %v", err)
	}
	if existed && st.HasUncompleted() {
		if !confirmResume(ctx) {
			if err := st.Reset(tn.Base.Type, tc); err != nil {
				logw.Exitf(ctx, "Reset store: %v", err)
			}
		} else if err := st.Resume(); err != nil {
			logw.Exitf(ctx, "Resume store: %v", err)
		}
	} else if !existed {
		if err := st.Reset(tn.Base.Type, tc); err != nil {
			logw.Exitf(ctx, "Reset store: %v", err)
		}
	}

	pe := pairing.New(pairingConfig(tn))

	sched := scheduler.New(scheduler.Config{
		Concurrency:   tn.Base.Concurrency,
		Engines:       engines,
		Clock:         tc,
		Supervisor:    supervisorConfig(tn),
		Book:          book.Empty,
		OpeningPolicy: openingPolicy(tn.Openings.Policy),
		Seed:          0,
	}, st, pe)

	reporter := &status.Reporter{Source: sched, Addr: *statusAddr}
	reporter.Start(ctx)

	runCtx, cancel := context.WithCancel(ctx)
	go watchSignals(runCtx, cancel)

	if err := sched.Run(runCtx); err != nil {
		reporter.Stop(ctx)
		logw.Exitf(ctx, "Tournament run: %v", err)
	}
	reporter.Stop(ctx)

	printFinalStandings(ctx, sched, pe)
}

func watchSignals(ctx context.Context, cancel context.CancelFunc) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		logw.Infof(ctx, "Signal received; winding down")
		cancel()
	case <-ctx.Done():
	}
}

func applyOverrideOptions(engines map[string]tour.EngineConfig, overrides []tour.Option) {
	for name, cfg := range engines {
		merged := append([]tour.Option(nil), cfg.Options...)
		for _, o := range overrides {
			if !o.Overridable {
				continue
			}
			found := false
			for i, existing := range merged {
				if existing.Name == o.Name {
					merged[i].Value = o.Value
					found = true
					break
				}
			}
			if !found {
				merged = append(merged, o)
			}
		}
		cfg.Options = merged
		engines[name] = cfg
	}
}

func pairingConfig(tn config.Tournament) pairing.Config {
	cfg := pairing.Config{
		Players:       tn.Players,
		GamesPerPair:  tn.Base.GamesPerPair,
		SwapPairSides: *tn.Base.SwapPairSides,
		SwissRounds:   tn.Base.SwissRounds,
	}
	switch tn.Base.Type {
	case "knockout":
		cfg.Format = pairing.Knockout
	case "swiss":
		cfg.Format = pairing.Swiss
	default:
		cfg.Format = pairing.RoundRobin
	}
	if tn.InclusivePlayers != nil {
		cfg.Inclusive = make(map[string]bool, len(tn.InclusivePlayers.Players))
		for _, p := range tn.InclusivePlayers.Players {
			cfg.Inclusive[p] = true
		}
		switch tn.InclusivePlayers.Side {
		case "white":
			side := tour.White
			cfg.InclusiveSide = &side
		case "black":
			side := tour.Black
			cfg.InclusiveSide = &side
		}
	}
	return cfg
}

func supervisorConfig(tn config.Tournament) game.Config {
	cfg := game.DefaultConfig()
	cfg.PonderMode = tn.Base.Ponder
	cfg.MaxGameLength = tn.Adjudication.DrawIfGameLengthOver
	cfg.MaxPieces = tn.Adjudication.TablebaseMaxPieces
	return cfg
}

func openingPolicy(policy string) scheduler.OpeningPolicy {
	switch policy {
	case "allnew":
		return scheduler.AllNew
	case "allone":
		return scheduler.AllOne
	default:
		return scheduler.SamePair
	}
}

func confirmResume(ctx context.Context) bool {
	switch {
	case *yes:
		return true
	case *no:
		return false
	}
	fmt.Fprint(os.Stderr, "Uncompleted tournament found; resume? [y/N] ")
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	switch line {
	case "y\n", "Y\n", "yes\n":
		return true
	default:
		return false
	}
}

func printFinalStandings(ctx context.Context, sched *scheduler.Scheduler, pe *pairing.Engine) {
	table := stats.Table(sched.Records(), sched.Telemetry())
	for name, s := range table {
		los := stats.LikelihoodOfSuperiority(s.Wins, s.Losses)
		elo := stats.EloDifference(s.Wins, s.Draws, s.Losses)
		logw.Infof(ctx, "%v: games=%v +%v =%v -%v elo=%+.1f los=%.2f", name, s.GameCount, s.Wins, s.Draws, s.Losses, elo, los)
	}
	if winner, ok := pe.Winner(sched.Records()); ok {
		logw.Infof(ctx, "Tournament winner: %v", winner)
	}
}
