// Package config decodes the tournament and engine-catalogue JSON documents
// into the tour data model.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/herohde/tourney/pkg/tour"
)

// Seconds accepts either a JSON number of seconds or a "h:m:s"/"m:s" string,
// normalizing both to a float64 at decode time.
type Seconds float64

func (s *Seconds) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*s = Seconds(num)
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("seconds: not a number or string: %s", data)
	}
	v, err := parseClock(str)
	if err != nil {
		return err
	}
	*s = Seconds(v)
	return nil
}

// parseClock parses "h:m:s", "m:s", or a bare number of seconds.
func parseClock(s string) (float64, error) {
	parts := strings.Split(s, ":")
	var total float64
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid clock value %q: %w", s, err)
		}
		total = total*60 + v
	}
	return total, nil
}

// TimeControl is the JSON shape of the tournament's "time control" key.
type TimeControl struct {
	Mode            string  `json:"mode"`
	DepthLimit      int     `json:"depth"`
	MoveSeconds     Seconds `json:"movetime"`
	MovesPerControl int     `json:"moves per control"`
	BaseSeconds     Seconds `json:"base"`
	IncrementSeconds Seconds `json:"increment"`
	MarginSeconds   Seconds `json:"margin"`
}

// Resolve converts the decoded JSON shape into the runtime tour.TimeControl.
func (t TimeControl) Resolve() (tour.TimeControl, error) {
	switch t.Mode {
	case "infinite":
		return tour.TimeControl{Mode: tour.Infinite}, nil
	case "depth":
		if t.DepthLimit < 1 {
			return tour.TimeControl{}, fmt.Errorf("time control: depth mode requires depth >= 1")
		}
		return tour.TimeControl{Mode: tour.Depth, DepthLimit: t.DepthLimit}, nil
	case "movetime":
		if t.MoveSeconds <= 0 {
			return tour.TimeControl{}, fmt.Errorf("time control: movetime mode requires movetime > 0")
		}
		return tour.TimeControl{Mode: tour.MoveTime, MoveSeconds: float64(t.MoveSeconds)}, nil
	case "standard":
		if t.BaseSeconds <= 0 {
			return tour.TimeControl{}, fmt.Errorf("time control: standard mode requires base > 0")
		}
		return tour.TimeControl{
			Mode:             tour.Standard,
			MovesPerControl:  t.MovesPerControl,
			BaseSeconds:      float64(t.BaseSeconds),
			IncrementSeconds: float64(t.IncrementSeconds),
			MarginSeconds:    float64(t.MarginSeconds),
		}, nil
	default:
		return tour.TimeControl{}, fmt.Errorf("time control: unknown mode %q", t.Mode)
	}
}

// InclusivePlayers is the JSON shape of the "inclusive players" key.
type InclusivePlayers struct {
	Mode    string   `json:"mode"`
	Side    string   `json:"side"`
	Players []string `json:"players"`
}

// Adjudication is the JSON shape of the "game adjudication" key.
type Adjudication struct {
	Mode                 string `json:"mode"`
	Tablebase            string `json:"tablebase"`
	DrawIfGameLengthOver int    `json:"draw if game length over"`
	TablebaseMaxPieces   int    `json:"tablebase max pieces"`
}

// Openings is the JSON shape of the "openings" key.
type Openings struct {
	Files  []string `json:"files"`
	Policy string   `json:"policy"` // "samepair", "allnew", or "allone".
}

// Base is the JSON shape of the tournament's "base" key.
type Base struct {
	Type            string `json:"type"`
	GamesPerPair    int    `json:"games per pair"`
	SwapPairSides   *bool  `json:"swap pair sides"`
	SwissRounds     int    `json:"swiss rounds"`
	Resumable       *bool  `json:"resumable"`
	ShufflePlayers  bool   `json:"shuffle players"`
	Concurrency     int    `json:"concurrency"`
	Ponder          bool   `json:"ponder"`
	Event           string `json:"event"`
	Site            string `json:"site"`
}

// Tournament is the top-level JSON shape of the tournament configuration
// document (spec.md §6, "Tournament JSON").
type Tournament struct {
	Base             Base                `json:"base"`
	TimeControl      TimeControl         `json:"time control"`
	Players          []string            `json:"players"`
	InclusivePlayers *InclusivePlayers   `json:"inclusive players"`
	Adjudication     Adjudication        `json:"game adjudication"`
	Openings         Openings            `json:"openings"`
	OverrideOptions  []tour.Option       `json:"override options"`
}

// LoadTournament reads and decodes a tournament JSON document from path.
func LoadTournament(path string) (Tournament, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tournament{}, fmt.Errorf("read tournament config %v: %w", path, err)
	}

	var t Tournament
	if err := json.Unmarshal(data, &t); err != nil {
		return Tournament{}, fmt.Errorf("parse tournament config %v: %w", path, err)
	}

	switch t.Base.Type {
	case "roundrobin", "knockout", "swiss":
	default:
		return Tournament{}, fmt.Errorf("tournament config: unknown base type %q", t.Base.Type)
	}
	if t.Base.GamesPerPair < 1 {
		t.Base.GamesPerPair = 1
	}
	if t.Base.SwapPairSides == nil {
		t.Base.SwapPairSides = boolPtr(true)
	}
	if t.Base.Resumable == nil {
		t.Base.Resumable = boolPtr(true)
	}
	if t.Base.Concurrency < 1 {
		t.Base.Concurrency = 1
	}
	if len(t.Players) == 0 {
		return Tournament{}, fmt.Errorf("tournament config: players list is empty")
	}
	return t, nil
}

func boolPtr(b bool) *bool { return &b }

// EngineApp is the JSON shape of an engine-catalogue entry's "app" key.
type EngineApp struct {
	Protocol      string   `json:"protocol"`
	Name          string   `json:"name"`
	Command       string   `json:"command"`
	WorkingFolder string   `json:"working folder"`
	Arguments     []string `json:"arguments"`
	InitStrings   []string `json:"initStrings"`
	Variants      []string `json:"variants"`
	Ponderable    bool     `json:"ponderable"`
	Elo           int      `json:"elo"`
}

// EngineEntry is one engine-catalogue entry (spec.md §6, "Engine-catalogue
// JSON").
type EngineEntry struct {
	App     EngineApp     `json:"app"`
	Options []tour.Option `json:"options"`
}

// Resolve converts a catalogue entry into the runtime tour.EngineConfig.
func (e EngineEntry) Resolve() (tour.EngineConfig, error) {
	var proto tour.Protocol
	switch strings.ToLower(e.App.Protocol) {
	case "uci":
		proto = tour.UCI
	case "winboard", "xboard":
		proto = tour.Winboard
	default:
		return tour.EngineConfig{}, fmt.Errorf("engine %v: unknown protocol %q", e.App.Name, e.App.Protocol)
	}

	variants := make(map[string]bool, len(e.App.Variants))
	for _, v := range e.App.Variants {
		variants[v] = true
	}

	return tour.EngineConfig{
		Name:          e.App.Name,
		Protocol:      proto,
		Command:       e.App.Command,
		WorkingFolder: e.App.WorkingFolder,
		Arguments:     append([]string(nil), e.App.Arguments...),
		InitStrings:   append([]string(nil), e.App.InitStrings...),
		Variants:      variants,
		Options:       append([]tour.Option(nil), e.Options...),
		Ponderable:    e.App.Ponderable,
		Elo:           e.App.Elo,
	}, nil
}

// Catalogue is keyed by engine name, matching how "players" in the
// tournament document are resolved.
type Catalogue map[string]EngineEntry

// LoadCatalogue reads an engine-catalogue JSON document from path: a JSON
// array of entries, keyed here by each entry's app name.
func LoadCatalogue(path string) (Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read engine catalogue %v: %w", path, err)
	}

	var entries []EngineEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse engine catalogue %v: %w", path, err)
	}

	cat := make(Catalogue, len(entries))
	for _, e := range entries {
		if e.App.Name == "" {
			return nil, fmt.Errorf("engine catalogue %v: entry with empty name", path)
		}
		cat[e.App.Name] = e
	}
	return cat, nil
}

// Resolve looks up and resolves every name in names against the catalogue.
func (c Catalogue) Resolve(names []string) (map[string]tour.EngineConfig, error) {
	out := make(map[string]tour.EngineConfig, len(names))
	for _, name := range names {
		entry, ok := c[name]
		if !ok {
			return nil, fmt.Errorf("no engine catalogue entry for %q", name)
		}
		cfg, err := entry.Resolve()
		if err != nil {
			return nil, err
		}
		out[name] = cfg
	}
	return out, nil
}
