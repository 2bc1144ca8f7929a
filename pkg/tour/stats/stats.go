// Package stats computes tournament standings and the Elo-difference/LOS
// statistics derived from them.
package stats

import (
	"math"

	"github.com/herohde/tourney/pkg/tour"
)

// EloDifference estimates the rating gap implied by a win/draw/loss
// record, from the win probability p = (wins + draws/2) / games.
// Returns 0 for a games count of zero or a record with no decisive
// information (p == 0.5 or undefined at the extremes).
func EloDifference(wins, draws, losses int) float64 {
	games := wins + draws + losses
	if games == 0 {
		return 0
	}
	p := (float64(wins) + float64(draws)/2) / float64(games)
	switch {
	case p <= 0:
		p = 1.0 / (2 * float64(games))
	case p >= 1:
		p = 1 - 1.0/(2*float64(games))
	}
	return -math.Log(1/p-1) * 400 / math.Ln10
}

// LikelihoodOfSuperiority is the probability that the true strength
// difference is positive, from the normal approximation
// los = 1/2 + 1/2*erf((wins-losses)/sqrt(2*(wins+losses))).
func LikelihoodOfSuperiority(wins, losses int) float64 {
	decisive := wins + losses
	if decisive == 0 {
		return 0.5
	}
	return 0.5 + 0.5*math.Erf(float64(wins-losses)/math.Sqrt(2*float64(decisive)))
}

// Table aggregates per-player TourStanding rows from completed records,
// folding in the opportunistic engine telemetry a Game Supervisor collected.
func Table(records []tour.MatchRecord, telemetry map[string]tour.TourStanding) map[string]tour.TourStanding {
	out := map[string]tour.TourStanding{}

	ensure := func(name string) tour.TourStanding {
		if name == "" {
			return tour.TourStanding{}
		}
		s, ok := out[name]
		if !ok {
			s = tour.TourStanding{Player: name}
		}
		return s
	}

	for _, r := range records {
		if r.State != tour.RecordCompleted {
			continue
		}

		if r.Bye() {
			name := r.Players[tour.White]
			if name == "" {
				name = r.Players[tour.Black]
			}
			s := ensure(name)
			s.GameCount++
			s.Wins++
			s.ByeCount++
			out[name] = s
			continue
		}

		white, black := r.Players[tour.White], r.Players[tour.Black]
		ws, bs := ensure(white), ensure(black)
		ws.GameCount++
		bs.GameCount++
		ws.WhiteCount++

		switch r.Result.Outcome {
		case tour.WhiteWin:
			ws.Wins++
			bs.Losses++
		case tour.BlackWin:
			bs.Wins++
			ws.Losses++
		case tour.Draw:
			ws.Draws++
			bs.Draws++
		default:
			ws.AbnormalCount++
			bs.AbnormalCount++
		}

		out[white] = ws
		out[black] = bs
	}

	for name, t := range telemetry {
		s := ensure(name)
		s.NodeSum += t.NodeSum
		s.DepthSum += t.DepthSum
		s.ElapsedSum += t.ElapsedSum
		s.MoveCount += t.MoveCount
		out[name] = s
	}

	return out
}
