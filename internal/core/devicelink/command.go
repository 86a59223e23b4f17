package devicelink

import "time"

// CommandType names an outbound device command.
type CommandType string

const (
	CommandStatus        CommandType = "status"
	CommandStart         CommandType = "start"
	CommandResume        CommandType = "resume"
	CommandPause         CommandType = "pause"
	CommandStop          CommandType = "stop"
	CommandProgress      CommandType = "progress"
	CommandComplete      CommandType = "complete"
	CommandBreakStart    CommandType = "break_start"
	CommandBreakProgress CommandType = "break_progress"
	CommandBreakPause    CommandType = "break_pause"
	CommandBreakComplete CommandType = "break_complete"
)

// NoTaskID is sent in place of a linked task id when none is selected.
const NoTaskID = "no-task-selected"

// Command is one JSON message sent to the device.
// Numeric fields are pointers so that a meaningful zero (remainingSeconds at the end of a
// countdown) is still transmitted.
type Command struct {
	Type             CommandType `json:"type"`
	Status           string      `json:"status,omitempty"`
	Message          string      `json:"message,omitempty"`
	Duration         *int        `json:"duration,omitempty"`
	TotalSeconds     *int        `json:"totalSeconds,omitempty"`
	RemainingSeconds *int        `json:"remainingSeconds,omitempty"`
	ProgressPercent  *int        `json:"progressPercent,omitempty"`
	ElapsedSeconds   *int        `json:"elapsedSeconds,omitempty"`
	TaskID           string      `json:"taskId,omitempty"`
	Timestamp        int64       `json:"timestamp,omitempty"`
}

// ReadyCommand is sent once a connection opens.
func ReadyCommand() Command {
	return Command{Type: CommandStatus, Status: "ready", Message: "device connected"}
}

// StartCommand announces a focus start or resume. An empty taskID is replaced with NoTaskID.
func StartCommand(resume bool, durationMinutes, totalSeconds, remainingSeconds int, taskID string, at time.Time) Command {
	kind := CommandStart
	if resume {
		kind = CommandResume
	}
	if taskID == "" {
		taskID = NoTaskID
	}
	return Command{
		Type:             kind,
		Duration:         intPtr(durationMinutes),
		TotalSeconds:     intPtr(totalSeconds),
		RemainingSeconds: intPtr(remainingSeconds),
		TaskID:           taskID,
		Timestamp:        at.UnixMilli(),
	}
}

// BreakStartCommand announces a break countdown.
func BreakStartCommand(durationMinutes, totalSeconds, remainingSeconds int, at time.Time) Command {
	return Command{
		Type:             CommandBreakStart,
		Duration:         intPtr(durationMinutes),
		TotalSeconds:     intPtr(totalSeconds),
		RemainingSeconds: intPtr(remainingSeconds),
		Timestamp:        at.UnixMilli(),
	}
}

// ProgressCommand reports countdown progress for focus or break.
func ProgressCommand(breaking bool, remainingSeconds, progressPercent, elapsedSeconds int, at time.Time) Command {
	kind := CommandProgress
	if breaking {
		kind = CommandBreakProgress
	}
	return Command{
		Type:             kind,
		RemainingSeconds: intPtr(remainingSeconds),
		ProgressPercent:  intPtr(progressPercent),
		ElapsedSeconds:   intPtr(elapsedSeconds),
		Timestamp:        at.UnixMilli(),
	}
}

// PauseCommand freezes the device countdown.
func PauseCommand(breaking bool, remainingSeconds int, at time.Time) Command {
	kind := CommandPause
	if breaking {
		kind = CommandBreakPause
	}
	return Command{
		Type:             kind,
		RemainingSeconds: intPtr(remainingSeconds),
		Timestamp:        at.UnixMilli(),
	}
}

// StopCommand resets the device to idle.
func StopCommand(at time.Time) Command {
	return Command{Type: CommandStop, Timestamp: at.UnixMilli()}
}

// CompleteCommand marks the end of a focus interval.
func CompleteCommand(at time.Time) Command {
	return Command{Type: CommandComplete, Timestamp: at.UnixMilli()}
}

// BreakCompleteCommand marks the end of a break interval.
func BreakCompleteCommand(at time.Time) Command {
	return Command{Type: CommandBreakComplete, Timestamp: at.UnixMilli()}
}

func intPtr(value int) *int {
	return &value
}
