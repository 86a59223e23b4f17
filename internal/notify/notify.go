// Package notify raises desktop notifications and beeps for the focus timer.
package notify

import (
	"fmt"
	"sync/atomic"

	"focuslink/internal/core/focus"
	"focuslink/internal/logger"

	"github.com/gen2brain/beeep"
)

const (
	warnFrequency = 440
	warnMillis    = 300
)

// Seams for tests.
var (
	notifyFunc = func(title, message string) error { return beeep.Notify(title, message, "") }
	beepFunc   = func(frequency float64, millis int) error { return beeep.Beep(frequency, millis) }
)

// Notifier implements focus.Alerter with native notifications.
// Failures are logged and never returned to the timer.
type Notifier struct {
	appName string
	enabled atomic.Bool
}

// New creates a notifier titled with appName.
func New(appName string, enabled bool) *Notifier {
	notifier := &Notifier{appName: appName}
	notifier.enabled.Store(enabled)
	return notifier
}

// SetEnabled toggles notifications at runtime.
func (notifier *Notifier) SetEnabled(enabled bool) {
	notifier.enabled.Store(enabled)
}

// Enabled reports whether notifications are shown.
func (notifier *Notifier) Enabled() bool {
	return notifier.enabled.Load()
}

// Warn beeps once when attention drops during a focus session.
func (notifier *Notifier) Warn() {
	if !notifier.Enabled() {
		return
	}
	if err := beepFunc(warnFrequency, warnMillis); err != nil {
		logger.Warn("beep failed: %v", err)
	}
}

// FocusComplete announces the end of a focus interval with its quality summary.
func (notifier *Notifier) FocusComplete(report focus.Report) {
	notifier.show("Focus complete", FocusMessage(report))
}

// BreakComplete announces the end of a break.
func (notifier *Notifier) BreakComplete() {
	notifier.show("Break over", "Ready for the next focus session.")
}

// Error reports a background failure the user should know about.
func (notifier *Notifier) Error(message string) {
	notifier.show("Error", message)
}

func (notifier *Notifier) show(title, message string) {
	if !notifier.Enabled() {
		return
	}
	if notifier.appName != "" {
		title = notifier.appName + " - " + title
	}
	if err := notifyFunc(title, message); err != nil {
		logger.Warn("failed to show notification: %v", err)
	}
}

// FocusMessage renders the body shown when a focus interval completes.
func FocusMessage(report focus.Report) string {
	minutes := report.FocusSeconds / 60
	var verdict string
	switch report.Level {
	case focus.LevelExcellent:
		verdict = "Excellent focus"
	case focus.LevelGood:
		verdict = "Good focus"
	default:
		verdict = "Focus needs work"
	}
	message := fmt.Sprintf("%s: %d%% active over %d min.", verdict, report.QualityPercent, minutes)
	if report.Stats.Streak > 1 {
		message += fmt.Sprintf(" %d-day streak.", report.Stats.Streak)
	}
	return message
}
