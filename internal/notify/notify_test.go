package notify

import (
	"errors"
	"testing"

	"focuslink/internal/core/focus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shown struct {
	title   string
	message string
}

func capture(t *testing.T, notifyErr error) (*[]shown, *int) {
	t.Helper()
	var notes []shown
	beeps := 0

	prevNotify, prevBeep := notifyFunc, beepFunc
	notifyFunc = func(title, message string) error {
		notes = append(notes, shown{title: title, message: message})
		return notifyErr
	}
	beepFunc = func(float64, int) error {
		beeps++
		return notifyErr
	}
	t.Cleanup(func() {
		notifyFunc, beepFunc = prevNotify, prevBeep
	})
	return &notes, &beeps
}

func TestFocusCompleteShowsQuality(t *testing.T) {
	notes, _ := capture(t, nil)
	notifier := New("FocusLink", true)

	notifier.FocusComplete(focus.Report{
		FocusSeconds:   1500,
		QualityPercent: 84,
		Level:          focus.LevelExcellent,
		Stats:          focus.Stats{Streak: 3},
	})

	require.Len(t, *notes, 1)
	assert.Equal(t, "FocusLink - Focus complete", (*notes)[0].title)
	assert.Equal(t, "Excellent focus: 84% active over 25 min. 3-day streak.", (*notes)[0].message)
}

func TestDisabledNotifierIsSilent(t *testing.T) {
	notes, beeps := capture(t, nil)
	notifier := New("FocusLink", false)

	notifier.Warn()
	notifier.BreakComplete()
	notifier.Error("boom")

	assert.Empty(t, *notes)
	assert.Zero(t, *beeps)

	notifier.SetEnabled(true)
	notifier.Warn()
	notifier.BreakComplete()
	assert.Equal(t, 1, *beeps)
	assert.Len(t, *notes, 1)
}

func TestFailuresAreSwallowed(t *testing.T) {
	notes, beeps := capture(t, errors.New("no notification daemon"))
	notifier := New("", true)

	assert.NotPanics(t, func() {
		notifier.Warn()
		notifier.Error("sync failed")
	})
	assert.Equal(t, 1, *beeps)
	require.Len(t, *notes, 1)
	assert.Equal(t, "Error", (*notes)[0].title)
}

func TestFocusMessageLevels(t *testing.T) {
	tests := []struct {
		level focus.QualityLevel
		want  string
	}{
		{focus.LevelGood, "Good focus: 65% active over 25 min."},
		{focus.LevelNeedsWork, "Focus needs work: 65% active over 25 min."},
	}
	for _, tt := range tests {
		report := focus.Report{FocusSeconds: 1500, QualityPercent: 65, Level: tt.level, Stats: focus.Stats{Streak: 1}}
		assert.Equal(t, tt.want, FocusMessage(report))
	}
}
