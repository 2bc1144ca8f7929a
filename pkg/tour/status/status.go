// Package status implements the Status Reporter: a periodic standings log
// line plus an optional read-only HTTP endpoint over the same data.
package status

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/seekerror/logw"

	"github.com/herohde/tourney/pkg/tour"
	"github.com/herohde/tourney/pkg/tour/stats"
)

// Source supplies the data a Reporter surfaces. *scheduler.Scheduler
// satisfies it directly (cmd/tourney passes the scheduler itself), and the
// interface keeps this package free of a scheduler import.
type Source interface {
	Records() []tour.MatchRecord
	Telemetry() map[string]tour.TourStanding
}

// Reporter periodically logs standings and, if Addr is non-empty, serves
// them as JSON.
type Reporter struct {
	Source   Source
	Addr     string
	Interval time.Duration

	srv *http.Server
}

// Row is one player's line in the standings, serialized for both the log
// line and the JSON endpoint.
type Row struct {
	Player        string  `json:"player"`
	Games         int     `json:"games"`
	Wins          int     `json:"wins"`
	Draws         int     `json:"draws"`
	Losses        int     `json:"losses"`
	EloDifference float64 `json:"eloDifference"`
	LOS           float64 `json:"los"`
}

// Standings computes the current sorted standings table.
func (r *Reporter) Standings() []Row {
	table := stats.Table(r.Source.Records(), r.Source.Telemetry())

	rows := make([]Row, 0, len(table))
	for _, t := range table {
		rows = append(rows, Row{
			Player:        t.Player,
			Games:         t.GameCount,
			Wins:          t.Wins,
			Draws:         t.Draws,
			Losses:        t.Losses,
			EloDifference: stats.EloDifference(t.Wins, t.Draws, t.Losses),
			LOS:           stats.LikelihoodOfSuperiority(t.Wins, t.Losses),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		si := float64(rows[i].Wins) + float64(rows[i].Draws)/2
		sj := float64(rows[j].Wins) + float64(rows[j].Draws)/2
		if si != sj {
			return si > sj
		}
		return rows[i].Player < rows[j].Player
	})
	return rows
}

// Start launches the periodic log line and, if Addr is set, the HTTP
// endpoint. The log loop runs until ctx is done; Stop shuts down only the
// HTTP endpoint.
func (r *Reporter) Start(ctx context.Context) {
	if r.Interval <= 0 {
		r.Interval = 30 * time.Second
	}

	if r.Addr != "" {
		router := gin.New()
		router.Use(gin.Recovery(), cors.Default())
		router.GET("/standings", func(c *gin.Context) { c.JSON(http.StatusOK, r.Standings()) })
		router.GET("/matches", func(c *gin.Context) { c.JSON(http.StatusOK, r.Source.Records()) })

		r.srv = &http.Server{Addr: r.Addr, Handler: router}
		go func() {
			logw.Infof(ctx, "Status reporter listening on %v", r.Addr)
			if err := r.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logw.Errorf(ctx, "Status reporter: %v", err)
			}
		}()
	}

	go func() {
		ticker := time.NewTicker(r.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				r.logStandings(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop shuts down the HTTP endpoint, if it was started.
func (r *Reporter) Stop(ctx context.Context) {
	if r.srv == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.srv.Shutdown(shutdownCtx); err != nil {
		logw.Errorf(ctx, "Status reporter shutdown: %v", err)
	}
}

func (r *Reporter) logStandings(ctx context.Context) {
	for _, row := range r.Standings() {
		logw.Infof(ctx, "%-24v games=%-3d +%-3d =%-3d -%-3d elo=%+.1f los=%.2f",
			row.Player, row.Games, row.Wins, row.Draws, row.Losses, row.EloDifference, row.LOS)
	}
}
