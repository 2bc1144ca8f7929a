package status_test

import (
	"testing"

	"github.com/herohde/tourney/pkg/tour"
	"github.com/herohde/tourney/pkg/tour/status"
	"github.com/stretchr/testify/assert"
)

type fakeSource struct {
	records   []tour.MatchRecord
	telemetry map[string]tour.TourStanding
}

func (f fakeSource) Records() []tour.MatchRecord                { return f.records }
func (f fakeSource) Telemetry() map[string]tour.TourStanding { return f.telemetry }

func TestReporter_StandingsSortedByScore(t *testing.T) {
	src := fakeSource{records: []tour.MatchRecord{
		{Players: [2]string{"a", "b"}, State: tour.RecordCompleted, Result: tour.Result{Outcome: tour.WhiteWin}},
		{Players: [2]string{"a", "b"}, State: tour.RecordCompleted, Result: tour.Result{Outcome: tour.WhiteWin}},
		{Players: [2]string{"b", "a"}, State: tour.RecordCompleted, Result: tour.Result{Outcome: tour.WhiteWin}},
	}}
	r := &status.Reporter{Source: src}

	rows := r.Standings()
	assert.Equal(t, "a", rows[0].Player)
	assert.Equal(t, 3, rows[0].Games)
	assert.Equal(t, 2, rows[0].Wins)
	assert.Equal(t, "b", rows[1].Player)
}
