package focus

import (
	"fmt"
	"time"
)

// Mode is the phase of the focus cycle.
type Mode string

const (
	ModeIdle     Mode = "idle"
	ModeFocusing Mode = "focusing"
	ModePaused   Mode = "paused"
	ModeBreaking Mode = "breaking"
)

// Running reports whether the countdown is live in this mode.
func (mode Mode) Running() bool {
	return mode == ModeFocusing || mode == ModeBreaking
}

// Session is a snapshot of the current countdown.
type Session struct {
	Mode             Mode
	TotalSeconds     int
	RemainingSeconds int
	// StartedAt is the wall-clock anchor: remaining = total - (now - StartedAt) while running.
	StartedAt    time.Time
	LinkedTaskID string
	// PausedFrom is the mode that was interrupted while Mode is ModePaused.
	PausedFrom Mode
}

// ElapsedSeconds returns how much of the interval has been used.
func (session Session) ElapsedSeconds() int {
	return session.TotalSeconds - session.RemainingSeconds
}

// Percent returns integer-rounded completion in the range 0..100.
func (session Session) Percent() int {
	return percentOf(session.ElapsedSeconds(), session.TotalSeconds)
}

// Fraction returns completion in the range 0..1.
func (session Session) Fraction() float64 {
	if session.TotalSeconds <= 0 {
		return 1
	}
	fraction := 1 - float64(session.RemainingSeconds)/float64(session.TotalSeconds)
	return clampFraction(fraction)
}

// Text formats the remaining time as MM:SS.
func (session Session) Text() string {
	return FormatCountdown(session.RemainingSeconds)
}

// Quality tracks how attentive the user was during the current focus interval.
type Quality struct {
	ActiveSeconds int
	WarningCount  int
	InactiveCount int
	LastStatus    ActivityStatus
}

// Stats are the lifetime focus totals.
type Stats struct {
	Sessions     int
	FocusSeconds int
	Streak       int
	LastFocusAt  time.Time
}

// FocusMinutes returns the accumulated focus time in whole minutes.
func (stats Stats) FocusMinutes() int {
	return (stats.FocusSeconds + 30) / 60
}

// SessionRecord describes one completed focus interval.
type SessionRecord struct {
	TaskID         string
	StartedAt      time.Time
	CompletedAt    time.Time
	FocusSeconds   int
	ActiveSeconds  int
	QualityPercent int
	WarningCount   int
	InactiveCount  int
}

// FormatCountdown renders seconds as MM:SS. Minutes are not wrapped at an hour.
func FormatCountdown(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
