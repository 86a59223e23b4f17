package display

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"focuslink/internal/core/clock"
	"focuslink/internal/core/devicelink"
	"focuslink/internal/logger"
)

// ErrUnknownCommand is returned by Apply for command types the display does not understand.
var ErrUnknownCommand = errors.New("unknown command")

// State is what the display is currently showing.
type State string

const (
	StateIdle           State = "idle"
	StateRunning        State = "running"
	StatePaused         State = "paused"
	StateCompleted      State = "completed"
	StateBreakRunning   State = "break_running"
	StateBreakPaused    State = "break_paused"
	StateBreakCompleted State = "break_completed"
)

// CommandBreakResume un-pauses a break. The desktop app resumes breaks with break_start instead,
// but the display accepts both.
const CommandBreakResume devicelink.CommandType = "break_resume"

const (
	defaultFocusSeconds = 25 * 60
	defaultBreakSeconds = 5 * 60
	completionHold      = 5 * time.Second
)

// Snapshot is the JSON view of the display.
type Snapshot struct {
	State            State  `json:"state"`
	Label            string `json:"label"`
	Text             string `json:"text"`
	TotalSeconds     int    `json:"totalSeconds"`
	RemainingSeconds int    `json:"remainingSeconds"`
	ProgressPercent  int    `json:"progressPercent"`
	Break            bool   `json:"break"`
	TaskID           string `json:"taskId,omitempty"`
	Message          string `json:"message,omitempty"`
	UpdatedAt        int64  `json:"updatedAt"`
}

// Display mirrors the focus timer the way the companion hardware does: it applies commands and
// counts down on its own between progress updates.
type Display struct {
	mu        sync.Mutex
	clock     clock.Clock
	state     State
	total     int
	remaining int
	taskID    string
	message   string
	updatedAt time.Time
	run       uint64
	tickTimer clock.Timer
	holdTimer clock.Timer
	onChange  func(Snapshot)
	closed    bool
}

// New creates an idle display. onChange, if set, receives every new snapshot outside the lock.
func New(source clock.Clock, onChange func(Snapshot)) *Display {
	if source == nil {
		source = clock.System()
	}
	return &Display{
		clock:     source,
		state:     StateIdle,
		total:     defaultFocusSeconds,
		remaining: defaultFocusSeconds,
		updatedAt: source.Now(),
		onChange:  onChange,
	}
}

// Snapshot returns the current view.
func (display *Display) Snapshot() Snapshot {
	display.mu.Lock()
	defer display.mu.Unlock()
	return display.snapshotLocked()
}

// Apply executes one command.
func (display *Display) Apply(command devicelink.Command) error {
	display.mu.Lock()
	err := display.applyLocked(command)
	snapshot := display.snapshotLocked()
	display.mu.Unlock()

	if err == nil {
		display.notify(snapshot)
	}
	return err
}

// Close stops the countdown.
func (display *Display) Close() {
	display.mu.Lock()
	defer display.mu.Unlock()
	display.closed = true
	display.stopTimersLocked()
}

func (display *Display) applyLocked(command devicelink.Command) error {
	if display.closed {
		return nil
	}
	display.updatedAt = display.clock.Now()

	switch command.Type {
	case devicelink.CommandStart:
		total := secondsOr(command.TotalSeconds, minutesOr(command.Duration, defaultFocusSeconds))
		display.startLocked(StateRunning, total, secondsOr(command.RemainingSeconds, total))
		display.taskID = command.TaskID
	case devicelink.CommandResume:
		if command.TotalSeconds != nil {
			display.total = *command.TotalSeconds
		}
		if command.TaskID != "" {
			display.taskID = command.TaskID
		}
		if display.state == StatePaused || command.RemainingSeconds != nil {
			display.startLocked(StateRunning, display.total, secondsOr(command.RemainingSeconds, display.remaining))
		}
	case devicelink.CommandPause:
		if display.state == StateRunning {
			display.pauseLocked(StatePaused, command.RemainingSeconds)
		}
	case devicelink.CommandStop:
		display.idleLocked()
	case devicelink.CommandProgress:
		if remaining := secondsOr(command.RemainingSeconds, 0); remaining > 0 {
			display.syncLocked(StateRunning, remaining)
		}
	case devicelink.CommandComplete:
		display.completeLocked(StateCompleted)
	case devicelink.CommandBreakStart:
		total := secondsOr(command.TotalSeconds, minutesOr(command.Duration, defaultBreakSeconds))
		display.startLocked(StateBreakRunning, total, secondsOr(command.RemainingSeconds, total))
	case devicelink.CommandBreakProgress:
		if remaining := secondsOr(command.RemainingSeconds, 0); remaining > 0 {
			display.syncLocked(StateBreakRunning, remaining)
		}
	case devicelink.CommandBreakPause:
		if display.state == StateBreakRunning {
			display.pauseLocked(StateBreakPaused, command.RemainingSeconds)
		}
	case CommandBreakResume:
		if display.state == StateBreakPaused {
			display.startLocked(StateBreakRunning, display.total, display.remaining)
		}
	case devicelink.CommandBreakComplete:
		display.completeLocked(StateBreakCompleted)
	case devicelink.CommandStatus:
		display.message = command.Message
	default:
		return fmt.Errorf("apply %q: %w", command.Type, ErrUnknownCommand)
	}
	return nil
}

func (display *Display) startLocked(state State, total, remaining int) {
	display.stopTimersLocked()
	if remaining > total {
		total = remaining
	}
	display.state = state
	display.total = total
	display.remaining = remaining
	display.armTickLocked()
}

func (display *Display) syncLocked(state State, remaining int) {
	if display.state != state {
		display.stopTimersLocked()
		display.state = state
		display.armTickLocked()
	}
	if remaining > display.total {
		display.total = remaining
	}
	display.remaining = remaining
}

func (display *Display) pauseLocked(state State, remaining *int) {
	display.stopTimersLocked()
	display.state = state
	if remaining != nil {
		display.remaining = *remaining
	}
}

func (display *Display) completeLocked(state State) {
	display.stopTimersLocked()
	display.state = state
	display.remaining = 0
	run := display.run
	display.holdTimer = display.clock.AfterFunc(completionHold, func() {
		display.expireHold(run)
	})
}

func (display *Display) idleLocked() {
	display.stopTimersLocked()
	display.state = StateIdle
	display.total = defaultFocusSeconds
	display.remaining = defaultFocusSeconds
	display.taskID = ""
}

func (display *Display) armTickLocked() {
	run := display.run
	display.tickTimer = display.clock.AfterFunc(time.Second, func() {
		display.tick(run)
	})
}

func (display *Display) tick(run uint64) {
	display.mu.Lock()
	if run != display.run || display.closed {
		display.mu.Unlock()
		return
	}
	if display.remaining > 0 {
		display.remaining--
	}
	display.updatedAt = display.clock.Now()
	if display.remaining == 0 {
		if display.state == StateBreakRunning {
			display.completeLocked(StateBreakCompleted)
		} else {
			display.completeLocked(StateCompleted)
		}
		logger.Info("display countdown finished: %s", display.state)
	} else {
		display.armTickLocked()
	}
	snapshot := display.snapshotLocked()
	display.mu.Unlock()

	display.notify(snapshot)
}

func (display *Display) expireHold(run uint64) {
	display.mu.Lock()
	if run != display.run || display.closed {
		display.mu.Unlock()
		return
	}
	display.idleLocked()
	display.updatedAt = display.clock.Now()
	snapshot := display.snapshotLocked()
	display.mu.Unlock()

	display.notify(snapshot)
}

func (display *Display) stopTimersLocked() {
	display.run++
	if display.tickTimer != nil {
		display.tickTimer.Stop()
		display.tickTimer = nil
	}
	if display.holdTimer != nil {
		display.holdTimer.Stop()
		display.holdTimer = nil
	}
}

func (display *Display) snapshotLocked() Snapshot {
	percent := 100
	if display.total > 0 {
		percent = (display.total - display.remaining) * 100 / display.total
	}
	return Snapshot{
		State:            display.state,
		Label:            labelFor(display.state),
		Text:             fmt.Sprintf("%02d:%02d", display.remaining/60, display.remaining%60),
		TotalSeconds:     display.total,
		RemainingSeconds: display.remaining,
		ProgressPercent:  percent,
		Break:            display.state == StateBreakRunning || display.state == StateBreakPaused,
		TaskID:           display.taskID,
		Message:          display.message,
		UpdatedAt:        display.updatedAt.UnixMilli(),
	}
}

func (display *Display) notify(snapshot Snapshot) {
	if display.onChange != nil {
		display.onChange(snapshot)
	}
}

func labelFor(state State) string {
	switch state {
	case StateRunning:
		return "Focusing"
	case StatePaused:
		return "Paused"
	case StateCompleted:
		return "Done!"
	case StateBreakRunning:
		return "On break"
	case StateBreakPaused:
		return "Break paused"
	case StateBreakCompleted:
		return "Break over"
	default:
		return "Ready"
	}
}

func secondsOr(value *int, fallback int) int {
	if value == nil || *value < 0 {
		return fallback
	}
	return *value
}

func minutesOr(minutes *int, fallbackSeconds int) int {
	if minutes == nil || *minutes <= 0 {
		return fallbackSeconds
	}
	return *minutes * 60
}
