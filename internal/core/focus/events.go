package focus

import "time"

// EventType defines the type of controller event.
type EventType string

const (
	EventStateChange EventType = "state_change"
	EventProgress    EventType = "progress"
	EventActivity    EventType = "activity"
	EventComplete    EventType = "complete"
	EventStats       EventType = "stats"
)

// Event represents a controller update for observers.
type Event struct {
	Type      EventType
	Mode      Mode
	Remaining time.Duration
	Total     time.Duration
	Progress  float64
	Percent   int
	Text      string
	TaskID    string
	Status    ActivityStatus
	Quality   Quality
	Report    *Report
	Stats     Stats
	At        time.Time
}
