// Package winboard drives one chess engine subprocess as an XBoard/Winboard
// protocol 2 client: feature negotiation, ping/pong synchronization, and
// usermove/go-based move exchange. No Winboard client library exists in the
// dependency pack, so this dialect is hand-rolled over the shared proto
// subprocess plumbing, in the style of a reference engine's own
// line-oriented UCI driver.
package winboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/herohde/tourney/pkg/tour"
	"github.com/herohde/tourney/pkg/tour/proto"
)

// Driver is the Winboard dialect side of the Engine Adapter.
type Driver struct {
	proc   *proto.Process
	events chan proto.Event
	ack    chan struct{}

	identity tour.EngineIdentity

	pingSeq       int
	sentMoveCount int
}

// Start spawns the engine and begins reading its stdout.
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

// Start sends the protocol-2 handshake and collects feature lines until
// "done=1".
func (d *Driver) Start(ctx context.Context) (tour.EngineIdentity, error) {
	if err := d.send("xboard"); err != nil {
		return tour.EngineIdentity{}, err
	}
	if err := d.send("protover 2"); err != nil {
		return tour.EngineIdentity{}, err
	}
	if err := d.waitAck(ctx); err != nil {
		return tour.EngineIdentity{}, fmt.Errorf("protover handshake: %w", err)
	}
	return d.identity, nil
}

func (d *Driver) NewGame(ctx context.Context) error {
	d.sentMoveCount = 0
	if err := d.send("new"); err != nil {
		return err
	}
	if err := d.send("force"); err != nil {
		return err
	}
	return d.ping(ctx)
}

func (d *Driver) SetOption(_ context.Context, name, value string) error {
	return d.send(fmt.Sprintf("option %v=%v", name, value))
}

func (d *Driver) Think(_ context.Context, req tour.SearchRequest) error {
	if d.sentMoveCount == 0 && req.StartFEN != "" {
		if err := d.send("setboard " + req.StartFEN); err != nil {
			return err
		}
	}
	for _, mv := range req.Moves[d.sentMoveCount:] {
		if err := d.send("usermove " + mv); err != nil {
			return err
		}
	}
	d.sentMoveCount = len(req.Moves)

	if err := d.sendTimeControl(req); err != nil {
		return err
	}

	if req.Ponder {
		return d.send("hard")
	}
	return d.send("go")
}

func (d *Driver) sendTimeControl(req tour.SearchRequest) error {
	switch req.TC.Mode {
	case tour.Standard:
		base := int(req.TC.BaseSeconds)
		if err := d.send(fmt.Sprintf("level %d %d:%02d %d", req.TC.MovesPerControl, base/60, base%60, int(req.TC.IncrementSeconds))); err != nil {
			return err
		}
	case tour.MoveTime:
		if err := d.send(fmt.Sprintf("st %d", int(req.TC.MoveSeconds))); err != nil {
			return err
		}
	case tour.Depth:
		if err := d.send(fmt.Sprintf("sd %d", req.TC.DepthLimit)); err != nil {
			return err
		}
	}

	if req.TC.Mode == tour.Standard {
		own, opp := req.WhiteTimeLeftSeconds, req.BlackTimeLeftSeconds
		if req.Side == tour.Black {
			own, opp = opp, own
		}
		if err := d.send(fmt.Sprintf("time %d", int(own*100))); err != nil {
			return err
		}
		if err := d.send(fmt.Sprintf("otim %d", int(opp*100))); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) Stop(_ context.Context) error {
	return d.send("?")
}

func (d *Driver) PonderHit(_ context.Context) error {
	return nil // Winboard has no explicit ponderhit; the opponent usermove itself carries the information.
}

func (d *Driver) Quit(ctx context.Context) {
	_ = d.send("quit")

	const killGrace = 2 * time.Second
	grace, cancel := context.WithTimeout(ctx, killGrace)
	defer cancel()
	_ = d.proc.Wait(grace)
	d.proc.Kill()
}

func (d *Driver) ping(ctx context.Context) error {
	d.pingSeq++
	if err := d.send(fmt.Sprintf("ping %d", d.pingSeq)); err != nil {
		return err
	}
	if err := d.waitAck(ctx); err != nil {
		return fmt.Errorf("ping %d: %w", d.pingSeq, err)
	}
	return nil
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
		case strings.HasPrefix(line, "feature "):
			d.handleFeature(line)
		case strings.HasPrefix(line, "pong ") || line == "done=1":
			d.signalAck()
		case strings.HasPrefix(line, "move "):
			d.events <- proto.BestMove{Move: strings.TrimSpace(strings.TrimPrefix(line, "move "))}
		case strings.HasPrefix(line, "resign") || line == "1-0 {resign}" || line == "0-1 {resign}":
			d.events <- proto.Resign{}
		case strings.HasPrefix(strings.ToLower(line), "illegal move"):
			d.events <- proto.Crashed{Err: fmt.Errorf("engine reported %v", line)}
		}
	}

	d.events <- proto.Crashed{Err: fmt.Errorf("engine stdout closed")}
}

func (d *Driver) signalAck() {
	select {
	case d.ack <- struct{}{}:
	default:
	}
}

// handleFeature parses one "feature k1=v1 k2=v2 ..." line, acknowledging
// each feature other than "done=1" with "accepted <k>" (engines may block
// on this), and signals the handshake ack once "done=1" is seen.
func (d *Driver) handleFeature(line string) {
	rest := strings.TrimPrefix(line, "feature ")
	for _, tok := range splitFeatureTokens(rest) {
		key, val, ok := strings.Cut(tok, "=")
		if !ok {
			continue
		}
		val = strings.Trim(val, `"`)

		switch key {
		case "myname":
			d.identity.Name = val
		case "done":
			if val == "1" {
				d.signalAck()
				continue
			}
		}
		_ = d.send(fmt.Sprintf("accepted %v", key))
	}
}

// splitFeatureTokens splits a feature line's tokens on whitespace while
// keeping double-quoted values (which may contain spaces) intact.
func splitFeatureTokens(s string) []string {
	var out []string
	var cur strings.Builder
	inQuotes := false

	for _, r := range s {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			cur.WriteRune(r)
		case r == ' ' && !inQuotes:
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}
