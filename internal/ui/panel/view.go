package panel

import (
	"fmt"

	"focuslink/internal/backend"
	"focuslink/internal/core/focus"
)

// view is the text projection of controller events shown by the panel.
type view struct {
	mode     focus.Mode
	timer    string
	progress float64
	status   focus.ActivityStatus
	quality  focus.Quality
	stats    focus.Stats
	report   *focus.Report
	taskID   string
}

func newView(session focus.Session, stats focus.Stats) view {
	return view{
		mode:     session.Mode,
		timer:    session.Text(),
		progress: session.Fraction(),
		status:   focus.StatusIdle,
		stats:    stats,
		taskID:   session.LinkedTaskID,
	}
}

func (current view) apply(event focus.Event) view {
	switch event.Type {
	case focus.EventStateChange:
		current.mode = event.Mode
		current.timer = event.Text
		current.progress = event.Progress
		current.taskID = event.TaskID
		current.status = event.Status
		if event.Mode == focus.ModeFocusing {
			current.report = nil
		}
	case focus.EventProgress:
		current.mode = event.Mode
		current.timer = event.Text
		current.progress = event.Progress
	case focus.EventActivity:
		current.status = event.Status
		current.quality = event.Quality
	case focus.EventComplete:
		current.report = event.Report
		current.stats = event.Stats
	case focus.EventStats:
		current.stats = event.Stats
	}
	return current
}

func (current view) title() string {
	switch current.mode {
	case focus.ModeFocusing:
		return "Focusing"
	case focus.ModePaused:
		return "Paused"
	case focus.ModeBreaking:
		return "Break time"
	default:
		return "Ready to focus"
	}
}

func (current view) activityText() string {
	if current.report != nil && current.mode != focus.ModeFocusing {
		return fmt.Sprintf("Last session: %d%% quality (%s)", current.report.QualityPercent, levelText(current.report.Level))
	}
	switch current.status {
	case focus.StatusActive:
		return "Active"
	case focus.StatusWarning:
		return fmt.Sprintf("Are you still there? Warnings: %d", current.quality.WarningCount)
	case focus.StatusInactive:
		return "Inactive"
	case focus.StatusPaused:
		return "Paused"
	default:
		return ""
	}
}

func (current view) statsText() string {
	text := fmt.Sprintf("Sessions: %d   Focus: %d min", current.stats.Sessions, current.stats.FocusMinutes())
	if current.stats.Streak > 0 {
		text += fmt.Sprintf("   Streak: %d d", current.stats.Streak)
	}
	return text
}

func levelText(level focus.QualityLevel) string {
	switch level {
	case focus.LevelExcellent:
		return "excellent"
	case focus.LevelGood:
		return "good"
	default:
		return "needs work"
	}
}

// taskOptions returns select labels and the task id behind each one.
// Completed tasks are left out.
func taskOptions(tasks []backend.Task) ([]string, map[string]string) {
	labels := []string{noTaskLabel}
	ids := map[string]string{noTaskLabel: ""}
	for _, task := range tasks {
		if task.Completed {
			continue
		}
		label := task.Title
		if _, taken := ids[label]; taken || label == "" {
			label = fmt.Sprintf("%s (%s)", task.Title, task.ID)
		}
		labels = append(labels, label)
		ids[label] = task.ID
	}
	return labels, ids
}
