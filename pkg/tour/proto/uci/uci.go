// Package uci drives one chess engine subprocess as a UCI client: the
// GUI side of the protocol documented in
// http://wbec-ridderkerk.nl/html/UCIProtocol.html, mirrored from a
// reference engine's own (server-side) driver.
package uci

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/herohde/tourney/pkg/tour"
	"github.com/herohde/tourney/pkg/tour/proto"
)

// Driver is the UCI dialect side of the Engine Adapter.
type Driver struct {
	proc   *proto.Process
	events chan proto.Event
	ack    chan struct{}

	identity tour.EngineIdentity
}

// Start spawns the engine and begins reading its stdout. Call Start(ctx) (the
// method) next to perform the protocol handshake.
func Start(command, workingFolder string, args []string) (*Driver, error) {
	proc, err := proto.Start(command, workingFolder, args)
	if err != nil {
		return nil, err
	}
	d := &Driver{
		proc:   proc,
		events: make(chan proto.Event, 256),
		ack:    make(chan struct{}, 1),
	}
	go d.readLoop()
	return d, nil
}

func (d *Driver) Events() <-chan proto.Event { return d.events }

func (d *Driver) LastLineAt() time.Time { return d.proc.LastLineAt() }

// Start sends "uci" and collects id/option lines until "uciok".
func (d *Driver) Start(ctx context.Context) (tour.EngineIdentity, error) {
	if err := d.send("uci"); err != nil {
		return tour.EngineIdentity{}, err
	}
	if err := d.waitAck(ctx); err != nil {
		return tour.EngineIdentity{}, fmt.Errorf("uci handshake: %w", err)
	}
	return d.identity, nil
}

func (d *Driver) NewGame(ctx context.Context) error {
	if err := d.send("ucinewgame"); err != nil {
		return err
	}
	if err := d.send("isready"); err != nil {
		return err
	}
	if err := d.waitAck(ctx); err != nil {
		return fmt.Errorf("ucinewgame: %w", err)
	}
	return nil
}

func (d *Driver) SetOption(_ context.Context, name, value string) error {
	if value == "" {
		return d.send(fmt.Sprintf("setoption name %v", name))
	}
	return d.send(fmt.Sprintf("setoption name %v value %v", name, value))
}

func (d *Driver) Think(_ context.Context, req tour.SearchRequest) error {
	if err := d.send(positionLine(req)); err != nil {
		return err
	}
	return d.send(goLine(req))
}

func (d *Driver) Stop(_ context.Context) error {
	return d.send("stop")
}

func (d *Driver) PonderHit(_ context.Context) error {
	return d.send("ponderhit")
}

func (d *Driver) Quit(ctx context.Context) {
	_ = d.send("quit")

	const killGrace = 2 * time.Second
	grace, cancel := context.WithTimeout(ctx, killGrace)
	defer cancel()
	_ = d.proc.Wait(grace)
	d.proc.Kill()
}

func (d *Driver) send(line string) error {
	d.events <- proto.LineLogged{Outbound: true, Text: line}
	return d.proc.Send(line)
}

func (d *Driver) waitAck(ctx context.Context) error {
	select {
	case <-d.ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Driver) readLoop() {
	defer close(d.events)

	for line := range d.proc.Lines() {
		d.events <- proto.LineLogged{Text: line}

		switch {
		case line == "uciok" || line == "readyok":
			select {
			case d.ack <- struct{}{}:
			default:
			}
		case strings.HasPrefix(line, "id name "):
			d.identity.Name = strings.TrimPrefix(line, "id name ")
		case strings.HasPrefix(line, "id author "):
			d.identity.Author = strings.TrimPrefix(line, "id author ")
		case strings.HasPrefix(line, "option "):
			if opt, ok := parseOption(line); ok {
				d.identity.Options = append(d.identity.Options, opt)
			}
		case strings.HasPrefix(line, "bestmove"):
			d.events <- parseBestMove(line)
		}
	}

	d.events <- proto.Crashed{Err: fmt.Errorf("engine stdout closed")}
}

func positionLine(req tour.SearchRequest) string {
	pos := "startpos"
	if req.StartFEN != "" {
		pos = "fen " + req.StartFEN
	}
	if len(req.Moves) == 0 {
		return "position " + pos
	}
	return fmt.Sprintf("position %v moves %v", pos, strings.Join(req.Moves, " "))
}

func goLine(req tour.SearchRequest) string {
	parts := []string{"go"}
	switch req.TC.Mode {
	case tour.Infinite:
		parts = append(parts, "infinite")
	case tour.Depth:
		parts = append(parts, "depth", strconv.Itoa(req.TC.DepthLimit))
	case tour.MoveTime:
		parts = append(parts, "movetime", strconv.Itoa(int(req.TC.MoveSeconds*1000)))
	case tour.Standard:
		parts = append(parts,
			"wtime", strconv.Itoa(int(req.WhiteTimeLeftSeconds*1000)),
			"btime", strconv.Itoa(int(req.BlackTimeLeftSeconds*1000)),
		)
		if req.TC.IncrementSeconds > 0 {
			parts = append(parts,
				"winc", strconv.Itoa(int(req.TC.IncrementSeconds*1000)),
				"binc", strconv.Itoa(int(req.TC.IncrementSeconds*1000)),
			)
		}
		if req.MovesToGo > 0 {
			parts = append(parts, "movestogo", strconv.Itoa(req.MovesToGo))
		}
	}
	if req.Ponder {
		parts = append(parts, "ponder")
	}
	return strings.Join(parts, " ")
}

func parseBestMove(line string) proto.Event {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[1] == "0000" || fields[1] == "(none)" {
		return proto.Resign{}
	}

	bm := proto.BestMove{Move: fields[1]}
	for i := 2; i+1 < len(fields); i++ {
		if fields[i] == "ponder" {
			bm.PonderMove = fields[i+1]
		}
	}
	return bm
}

// parseOption parses a UCI "option name <id> type <t> [default <x>] [min <a>]
// [max <b>] [var <c>]..." line. The option name and default value may contain
// spaces; everything up to the next recognized keyword belongs to the
// current section.
func parseOption(line string) (tour.Option, bool) {
	fields := strings.Fields(strings.TrimPrefix(line, "option "))

	var name, typ, def []string
	var min_, max_ int
	var choices []string

	section := ""
	for _, f := range fields {
		switch f {
		case "name", "type", "default", "min", "max", "var":
			section = f
			continue
		}
		switch section {
		case "name":
			name = append(name, f)
		case "type":
			typ = append(typ, f)
		case "default":
			def = append(def, f)
		case "min":
			min_, _ = strconv.Atoi(f)
		case "max":
			max_, _ = strconv.Atoi(f)
		case "var":
			choices = append(choices, f)
		}
	}
	if len(name) == 0 || len(typ) == 0 {
		return tour.Option{}, false
	}

	var kind tour.OptionKind
	switch typ[0] {
	case "check":
		kind = tour.OptionCheck
	case "spin":
		kind = tour.OptionSpin
	case "combo":
		kind = tour.OptionCombo
	case "string":
		kind = tour.OptionString
	case "button":
		kind = tour.OptionButton
	default:
		return tour.Option{}, false
	}

	defVal := strings.Join(def, " ")
	return tour.Option{
		Name:    strings.Join(name, " "),
		Kind:    kind,
		Value:   defVal,
		Default: defVal,
		Min:     min_,
		Max:     max_,
		Choices: choices,
	}, true
}
