package focus

import "time"

// Source names the kind of input that counted as user activity.
type Source string

const (
	SourceKeyboard    Source = "keyboard"
	SourceClick       Source = "click"
	SourceMouse       Source = "mouse"
	SourceScroll      Source = "scroll"
	SourceTouch       Source = "touch"
	SourceWindowFocus Source = "window_focus"
	SourceVisibility  Source = "visibility"
	SourceSystemInput Source = "system_input"
)

// ActivityStatus is the attentiveness inferred from recent input.
type ActivityStatus string

const (
	StatusIdle     ActivityStatus = "idle"
	StatusActive   ActivityStatus = "active"
	StatusWarning  ActivityStatus = "warning"
	StatusInactive ActivityStatus = "inactive"
	StatusPaused   ActivityStatus = "paused"
)

// classify maps idle time to a status. Hidden windows are always inactive.
func classify(idle time.Duration, hidden bool, warningAfter, inactiveAfter time.Duration) ActivityStatus {
	switch {
	case hidden:
		return StatusInactive
	case idle > inactiveAfter:
		return StatusInactive
	case idle > warningAfter:
		return StatusWarning
	default:
		return StatusActive
	}
}

// throttle admits at most one event per interval.
type throttle struct {
	interval time.Duration
	last     time.Time
}

func (gate *throttle) allow(now time.Time) bool {
	if !gate.last.IsZero() && now.Sub(gate.last) <= gate.interval {
		return false
	}
	gate.last = now
	return true
}
