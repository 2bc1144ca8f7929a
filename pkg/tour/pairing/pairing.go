// Package pairing implements the Pairing Engine: construction of the next
// batch of matches for round-robin, knockout and Swiss tournament formats,
// plus the inclusive-players filter that applies across all three.
package pairing

import (
	"math/rand"
	"sort"

	"github.com/herohde/tourney/pkg/tour"
)

// Format identifies a tournament pairing scheme.
type Format uint8

const (
	RoundRobin Format = iota
	Knockout
	Swiss
)

// Config parameterizes an Engine.
type Config struct {
	Format Format

	Players []string // in entry order; round 1 pairs and knockout seeding follow it.

	GamesPerPair  int  // round-robin: games per unordered pair.
	SwapPairSides bool // round-robin: alternate colours across a pair's games.

	SwissRounds int // swiss: fixed round count.

	Inclusive     map[string]bool // nil/empty disables the filter.
	InclusiveSide *tour.Side      // nil means either seat counts.

	Seed int64
}

// Engine derives who plays whom in each new round from the Config and the
// match records produced so far, so it can be rebuilt after a resume. Its
// only state is its seeded random source for colour choices, which a
// rebuilt Engine restarts from Config.Seed.
type Engine struct {
	cfg  Config
	rand *rand.Rand
}

// New creates a Pairing Engine for cfg.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg, rand: rand.New(rand.NewSource(cfg.Seed))}
}

// NextRound returns the next batch of records to append given everything
// scheduled so far, or ok=false if the tournament has no further round (the
// Scheduler should finalize).
func (e *Engine) NextRound(records []tour.MatchRecord) (next []tour.MatchRecord, ok bool) {
	switch e.cfg.Format {
	case RoundRobin:
		next, ok = e.nextRoundRobin(records)
	case Knockout:
		next, ok = e.nextKnockout(records)
	case Swiss:
		next, ok = e.nextSwiss(records)
	default:
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return e.filterInclusive(next), true
}

// ExtendIfTied returns one additional, colour-swapped game, for the caller
// to append, for a knockout pair whose winner is still undetermined once all
// its scheduled games have completed. Returns ok=false for any other format
// or if the pair is decided (or still in progress).
func (e *Engine) ExtendIfTied(records []tour.MatchRecord, pairID int) (tour.MatchRecord, bool) {
	if e.cfg.Format != Knockout {
		return tour.MatchRecord{}, false
	}

	var pair []tour.MatchRecord
	for _, r := range records {
		if r.PairID == pairID {
			pair = append(pair, r)
		}
	}
	if len(pair) == 0 {
		return tour.MatchRecord{}, false
	}
	for _, r := range pair {
		if r.State != tour.RecordCompleted {
			return tour.MatchRecord{}, false // still in progress.
		}
	}

	p0, p1 := pair[0].Players[tour.White], pair[0].Players[tour.Black]
	if p0 == "" || p1 == "" {
		return tour.MatchRecord{}, false // bye pair; never tied.
	}
	if _, ok := knockoutWinner(pair, p0, p1); ok {
		return tour.MatchRecord{}, false // already decided.
	}

	last := pair[len(pair)-1]
	extra := tour.MatchRecord{
		Players:    [2]string{last.Players[tour.Black], last.Players[tour.White]},
		StartFen:   last.StartFen,
		RoundIndex: last.RoundIndex,
		PairID:     pairID,
		GameIndex:  last.GameIndex + 1,
	}
	if filtered := e.filterInclusive([]tour.MatchRecord{extra}); len(filtered) > 0 {
		return filtered[0], true
	}
	return extra, true
}

// Winner returns the sole remaining knockout participant once the bracket
// has been decided down to one player.
func (e *Engine) Winner(records []tour.MatchRecord) (string, bool) {
	if e.cfg.Format != Knockout {
		return "", false
	}
	alive := knockoutSurvivors(records, e.cfg.Players)
	if len(alive) == 1 {
		return alive[0], true
	}
	return "", false
}

// --- round-robin ---

func (e *Engine) nextRoundRobin(records []tour.MatchRecord) ([]tour.MatchRecord, bool) {
	if len(records) > 0 {
		return nil, false // the entire schedule is generated up front.
	}

	gamesPerPair := e.cfg.GamesPerPair
	if gamesPerPair <= 0 {
		gamesPerPair = 1
	}

	var out []tour.MatchRecord
	pairID := 0
	gameIndex := 0
	for i := 0; i < len(e.cfg.Players); i++ {
		for j := i + 1; j < len(e.cfg.Players); j++ {
			firstWhite := e.cfg.Players[i]
			firstBlack := e.cfg.Players[j]
			if !e.cfg.SwapPairSides && e.rand.Intn(2) == 1 {
				firstWhite, firstBlack = firstBlack, firstWhite
			}

			white, black := firstWhite, firstBlack
			for g := 0; g < gamesPerPair; g++ {
				out = append(out, tour.MatchRecord{
					Players:    [2]string{white, black},
					RoundIndex: 1,
					PairID:     pairID,
					GameIndex:  gameIndex,
				})
				gameIndex++
				if e.cfg.SwapPairSides {
					white, black = black, white
				}
			}
			pairID++
		}
	}
	return out, true
}

// --- knockout ---

func (e *Engine) nextKnockout(records []tour.MatchRecord) ([]tour.MatchRecord, bool) {
	if len(records) == 0 {
		return e.pairRound(e.cfg.Players, 1, 0, records), true
	}

	round := maxRound(records)
	survivors := knockoutSurvivors(records, e.cfg.Players)
	if len(survivors) <= 1 {
		return nil, false
	}
	return e.pairRound(survivors, round+1, maxPairID(records)+1, records), true
}

// knockoutSurvivors walks the bracket round by round, carrying forward each
// pair's winner (or its unpaired bye player).
func knockoutSurvivors(records []tour.MatchRecord, seed []string) []string {
	alive := append([]string(nil), seed...)
	for round := 1; round <= maxRound(records); round++ {
		var roundRecs []tour.MatchRecord
		for _, r := range records {
			if r.RoundIndex == round {
				roundRecs = append(roundRecs, r)
			}
		}
		if len(roundRecs) == 0 {
			break
		}

		byPair := map[int][]tour.MatchRecord{}
		for _, r := range roundRecs {
			byPair[r.PairID] = append(byPair[r.PairID], r)
		}

		var next []string
		for _, pairID := range sortedPairIDs(byPair) {
			pair := byPair[pairID]
			if pair[0].Bye() {
				if pair[0].Players[tour.White] != "" {
					next = append(next, pair[0].Players[tour.White])
				} else {
					next = append(next, pair[0].Players[tour.Black])
				}
				continue
			}

			p0, p1 := pair[0].Players[tour.White], pair[0].Players[tour.Black]
			winner, ok := knockoutWinner(pair, p0, p1)
			if !ok {
				return alive // round incomplete/undecided; stop here.
			}
			next = append(next, winner)
		}
		alive = next
	}
	return alive
}

// knockoutWinner decides a pair's winner from its completed games: most
// wins, then fewest whites played (colour-imbalance correction).
func knockoutWinner(pair []tour.MatchRecord, p0, p1 string) (string, bool) {
	var wins, whites [2]int
	for _, r := range pair {
		if r.State != tour.RecordCompleted {
			return "", false
		}
		switch r.Result.Outcome {
		case tour.WhiteWin:
			wins[indexOf(r.Players[tour.White], p0, p1)]++
		case tour.BlackWin:
			wins[indexOf(r.Players[tour.Black], p0, p1)]++
		}
		whites[indexOf(r.Players[tour.White], p0, p1)]++
	}

	if wins[0] != wins[1] {
		if wins[0] > wins[1] {
			return p0, true
		}
		return p1, true
	}
	if whites[0] != whites[1] {
		if whites[0] < whites[1] {
			return p0, true
		}
		return p1, true
	}
	return "", false // still tied; caller should extend the pair.
}

func indexOf(name, p0, p1 string) int {
	if name == p0 {
		return 0
	}
	return 1
}

// pairRound pairs participants by entry order, adding a bye for an odd
// count, preferring players with fewest byes so far.
func (e *Engine) pairRound(participants []string, round, pairIDBase int, history []tour.MatchRecord) []tour.MatchRecord {
	players := append([]string(nil), participants...)
	var out []tour.MatchRecord
	pairID := pairIDBase
	gameIndex := maxGameIndex(history) + 1

	if len(players)%2 == 1 {
		byePlayer := leastByes(players, history)
		players = removeOne(players, byePlayer)
		out = append(out, tour.MatchRecord{
			Players:    [2]string{byePlayer, ""},
			Result:     tour.Result{Outcome: tour.Win(tour.White)},
			State:      tour.RecordCompleted,
			RoundIndex: round,
			PairID:     pairID,
			GameIndex:  gameIndex,
		})
		pairID++
		gameIndex++
	}

	for i := 0; i+1 < len(players); i += 2 {
		white, black := players[i], players[i+1]
		if e.rand.Intn(2) == 1 {
			white, black = black, white
		}
		out = append(out, tour.MatchRecord{
			Players:    [2]string{white, black},
			RoundIndex: round,
			PairID:     pairID,
			GameIndex:  gameIndex,
		})
		pairID++
		gameIndex++
	}
	return out
}

func leastByes(candidates []string, history []tour.MatchRecord) string {
	best, bestCount := candidates[0], byeCountOf(candidates[0], history)
	for _, c := range candidates[1:] {
		if n := byeCountOf(c, history); n < bestCount {
			best, bestCount = c, n
		}
	}
	return best
}

func byeCountOf(player string, history []tour.MatchRecord) int {
	n := 0
	for _, r := range history {
		if r.Bye() && (r.Players[tour.White] == player || r.Players[tour.Black] == player) {
			n++
		}
	}
	return n
}

func removeOne(players []string, name string) []string {
	out := make([]string, 0, len(players)-1)
	removed := false
	for _, p := range players {
		if !removed && p == name {
			removed = true
			continue
		}
		out = append(out, p)
	}
	return out
}

// --- swiss ---

func (e *Engine) nextSwiss(records []tour.MatchRecord) ([]tour.MatchRecord, bool) {
	round := maxRound(records) + 1
	if round > e.cfg.SwissRounds {
		return nil, false
	}

	type scored struct {
		name  string
		score float64
	}
	ranked := make([]scored, len(e.cfg.Players))
	for i, p := range e.cfg.Players {
		ranked[i] = scored{p, swissScore(records, p)}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	order := make([]string, len(ranked))
	for i, r := range ranked {
		order[i] = r.name
	}

	remaining := order
	var byePlayer string
	if len(remaining)%2 == 1 {
		// The bye goes to the lowest-scored player without one yet;
		// leastByes breaks ties by candidate order, so the list is reversed
		// to prefer the bottom of the standings.
		byePlayer = leastByes(reverse(remaining), records)
		remaining = removeOne(remaining, byePlayer)
	}

	played := playedSet(records)
	pairs, ok := matchPairs(remaining, played, false)
	if !ok {
		pairs, _ = matchPairs(remaining, played, true)
	}

	var out []tour.MatchRecord
	pairID := maxPairID(records) + 1
	gameIndex := maxGameIndex(records) + 1

	if byePlayer != "" {
		out = append(out, tour.MatchRecord{
			Players:    [2]string{byePlayer, ""},
			Result:     tour.Result{Outcome: tour.Win(tour.White)},
			State:      tour.RecordCompleted,
			RoundIndex: round,
			PairID:     pairID,
			GameIndex:  gameIndex,
		})
		pairID++
		gameIndex++
	}

	for _, pr := range pairs {
		a, b := pr[0], pr[1]
		white, black := a, b
		whitesA, whitesB := countWhites(records, a), countWhites(records, b)
		switch {
		case whitesA > whitesB:
			white, black = b, a
		case whitesA == whitesB && e.rand.Intn(2) == 1:
			white, black = b, a
		}
		out = append(out, tour.MatchRecord{
			Players:    [2]string{white, black},
			RoundIndex: round,
			PairID:     pairID,
			GameIndex:  gameIndex,
		})
		pairID++
		gameIndex++
	}
	return out, true
}

func swissScore(records []tour.MatchRecord, player string) float64 {
	var score float64
	for _, r := range records {
		if r.State != tour.RecordCompleted {
			continue
		}
		switch player {
		case r.Players[tour.White]:
			switch r.Result.Outcome {
			case tour.WhiteWin:
				score++
			case tour.Draw:
				score += 0.5
			}
		case r.Players[tour.Black]:
			switch r.Result.Outcome {
			case tour.BlackWin:
				score++
			case tour.Draw:
				score += 0.5
			}
		}
	}
	return score
}

func countWhites(records []tour.MatchRecord, player string) int {
	n := 0
	for _, r := range records {
		if r.Players[tour.White] == player {
			n++
		}
	}
	return n
}

func playedSet(records []tour.MatchRecord) map[[2]string]bool {
	set := map[[2]string]bool{}
	for _, r := range records {
		if r.Bye() {
			continue
		}
		a, b := r.Players[tour.White], r.Players[tour.Black]
		set[[2]string{a, b}] = true
		set[[2]string{b, a}] = true
	}
	return set
}

// matchPairs finds a perfect pairing of remaining avoiding rematches
// (unless allowRematch), via backtracking. remaining must have even length.
func matchPairs(remaining []string, played map[[2]string]bool, allowRematch bool) ([][2]string, bool) {
	if len(remaining) == 0 {
		return nil, true
	}
	p := remaining[0]
	rest := remaining[1:]

	for i, opp := range rest {
		if !allowRematch && played[[2]string{p, opp}] {
			continue
		}
		next := make([]string, 0, len(rest)-1)
		next = append(next, rest[:i]...)
		next = append(next, rest[i+1:]...)

		if pairs, ok := matchPairs(next, played, allowRematch); ok {
			return append([][2]string{{p, opp}}, pairs...), true
		}
	}
	return nil, false
}

func reverse(s []string) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}

// --- inclusive-players filter ---

func (e *Engine) filterInclusive(records []tour.MatchRecord) []tour.MatchRecord {
	if len(e.cfg.Inclusive) == 0 {
		return records
	}

	out := make([]tour.MatchRecord, 0, len(records))
	for _, r := range records {
		if e.memberOf(r.Players[tour.White], tour.White) || e.memberOf(r.Players[tour.Black], tour.Black) {
			out = append(out, r)
		}
	}
	return out
}

func (e *Engine) memberOf(player string, side tour.Side) bool {
	if player == "" || !e.cfg.Inclusive[player] {
		return false
	}
	return e.cfg.InclusiveSide == nil || *e.cfg.InclusiveSide == side
}

// --- shared helpers ---

func maxRound(records []tour.MatchRecord) int {
	max := 0
	for _, r := range records {
		if r.RoundIndex > max {
			max = r.RoundIndex
		}
	}
	return max
}

func maxPairID(records []tour.MatchRecord) int {
	max := -1
	for _, r := range records {
		if r.PairID > max {
			max = r.PairID
		}
	}
	return max
}

func maxGameIndex(records []tour.MatchRecord) int {
	max := -1
	for _, r := range records {
		if r.GameIndex > max {
			max = r.GameIndex
		}
	}
	return max
}

func sortedPairIDs(byPair map[int][]tour.MatchRecord) []int {
	ids := make([]int, 0, len(byPair))
	for id := range byPair {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
