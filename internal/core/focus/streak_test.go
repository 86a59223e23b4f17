package focus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConsecutiveDays(t *testing.T) {
	policy := ConsecutiveDays{Location: time.UTC}
	monday := time.Date(2026, 5, 4, 23, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		stats   Stats
		at      time.Time
		record  int
		current int
	}{
		{name: "first session", stats: Stats{}, at: monday, record: 1, current: 0},
		{name: "same day", stats: Stats{Streak: 3, LastFocusAt: monday}, at: monday.Add(10 * time.Minute), record: 3, current: 3},
		{name: "next day", stats: Stats{Streak: 3, LastFocusAt: monday}, at: monday.Add(time.Hour), record: 4, current: 3},
		{name: "gap", stats: Stats{Streak: 3, LastFocusAt: monday}, at: monday.Add(49 * time.Hour), record: 1, current: 0},
		{name: "clock moved back", stats: Stats{Streak: 2, LastFocusAt: monday}, at: monday.Add(-48 * time.Hour), record: 2, current: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.record, policy.Record(tt.stats, tt.at))
			assert.Equal(t, tt.current, policy.Current(tt.stats, tt.at))
		})
	}
}

func TestConsecutiveDaysUsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	last := time.Date(2026, 5, 4, 14, 0, 0, 0, time.UTC) // 23:00 in Tokyo
	next := last.Add(2 * time.Hour)                      // 01:00 the next Tokyo day

	assert.Equal(t, 2, ConsecutiveDays{Location: tokyo}.Record(Stats{Streak: 1, LastFocusAt: last}, next))
	assert.Equal(t, 1, ConsecutiveDays{Location: time.UTC}.Record(Stats{Streak: 1, LastFocusAt: last}, next))
}
