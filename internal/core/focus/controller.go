package focus

import (
	"context"
	"errors"
	"sync"
	"time"

	"focuslink/internal/core/clock"
	"focuslink/internal/core/devicelink"
	"focuslink/internal/core/model"
	"focuslink/internal/logger"
)

// ErrInvalidDuration is returned by Start for negative durations.
var ErrInvalidDuration = errors.New("focus duration must not be negative")

// Sender delivers commands to the companion display. *devicelink.Link satisfies it.
type Sender interface {
	Send(command devicelink.Command) bool
	Connected() bool
}

// Alerter surfaces attention prompts to the user.
type Alerter interface {
	Warn()
	FocusComplete(report Report)
	BreakComplete()
}

// StatsRecorder persists completed sessions and the totals they produce.
type StatsRecorder interface {
	RecordSession(record SessionRecord, stats Stats) error
}

// TaskMarker credits focus time to a linked task.
type TaskMarker interface {
	AddFocusTime(ctx context.Context, taskID string, minutes int) error
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the system clock.
func WithClock(source clock.Clock) Option {
	return func(controller *Controller) {
		controller.clock = source
	}
}

// WithAlerter installs the attention prompt sink.
func WithAlerter(alerter Alerter) Option {
	return func(controller *Controller) {
		controller.alerter = alerter
	}
}

// WithRecorder installs session persistence.
func WithRecorder(recorder StatsRecorder) Option {
	return func(controller *Controller) {
		controller.recorder = recorder
	}
}

// WithTaskMarker installs linked-task crediting.
func WithTaskMarker(marker TaskMarker) Option {
	return func(controller *Controller) {
		controller.marker = marker
	}
}

// WithStreakPolicy replaces the ConsecutiveDays policy.
func WithStreakPolicy(policy StreakPolicy) Option {
	return func(controller *Controller) {
		controller.streak = policy
	}
}

// WithStats seeds lifetime totals loaded from storage.
func WithStats(stats Stats) Option {
	return func(controller *Controller) {
		controller.stats = stats
	}
}

// Controller runs the focus and break countdowns, tracks activity quality and mirrors state to the device.
type Controller struct {
	mu       sync.Mutex
	config   model.FocusConfig
	sender   Sender
	clock    clock.Clock
	alerter  Alerter
	recorder StatsRecorder
	marker   TaskMarker
	streak   StreakPolicy

	session       Session
	quality       Quality
	qualitySince  time.Time
	lastActivity  time.Time
	hidden        bool
	mouse         throttle
	stats         Stats
	run           uint64
	tickTimer     clock.Timer
	activityTimer clock.Timer
	closed        bool
	events        []chan Event
	pending       []func()
}

// New creates an idle controller holding the configured focus duration.
func New(config model.FocusConfig, sender Sender, options ...Option) *Controller {
	config = config.WithDefaults()
	controller := &Controller{
		config: config,
		sender: sender,
		clock:  clock.System(),
		streak: ConsecutiveDays{},
	}
	for _, option := range options {
		option(controller)
	}
	controller.mouse.interval = config.MouseMoveThrottle
	controller.quality.LastStatus = StatusIdle
	controller.idleSessionLocked()
	return controller
}

// Subscribe registers a new observer channel.
func (controller *Controller) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	controller.mu.Lock()
	controller.events = append(controller.events, ch)
	controller.mu.Unlock()
	return ch
}

// Session returns a snapshot of the countdown.
func (controller *Controller) Session() Session {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return controller.session
}

// Quality returns a snapshot of the activity quality of the current focus interval.
func (controller *Controller) Quality() Quality {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return controller.quality
}

// Stats returns lifetime totals with the streak as it should be displayed now.
func (controller *Controller) Stats() Stats {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return controller.displayStatsLocked(controller.clock.Now())
}

// RefreshStats re-evaluates the displayed streak and notifies observers.
func (controller *Controller) RefreshStats() {
	controller.mu.Lock()
	now := controller.clock.Now()
	controller.emitLocked(Event{
		Type:  EventStats,
		Mode:  controller.session.Mode,
		Stats: controller.displayStatsLocked(now),
		At:    now,
	})
	controller.mu.Unlock()
}

// Start begins a focus interval, or resumes the paused interval. Starting while a countdown is
// running does nothing.
func (controller *Controller) Start(durationMinutes int, linkedTaskID string) error {
	if durationMinutes < 0 {
		return ErrInvalidDuration
	}

	controller.mu.Lock()
	defer controller.unlock()

	if controller.closed || controller.session.Mode.Running() {
		return nil
	}

	now := controller.clock.Now()
	if controller.session.Mode == ModePaused {
		if controller.session.PausedFrom == ModeBreaking {
			controller.resumeBreakLocked(now)
			return nil
		}
		if linkedTaskID != "" {
			controller.session.LinkedTaskID = linkedTaskID
		}
		controller.beginFocusLocked(now, true)
		return nil
	}

	total := durationMinutes * 60
	controller.session = Session{
		TotalSeconds:     total,
		RemainingSeconds: total,
		LinkedTaskID:     linkedTaskID,
	}
	controller.beginFocusLocked(now, false)
	return nil
}

// Pause freezes whichever countdown is running.
func (controller *Controller) Pause() {
	controller.mu.Lock()
	defer controller.unlock()

	if controller.closed || !controller.session.Mode.Running() {
		return
	}
	now := controller.clock.Now()
	controller.stopTimersLocked()
	controller.recomputeLocked(now)

	breaking := controller.session.Mode == ModeBreaking
	controller.session.PausedFrom = controller.session.Mode
	controller.session.Mode = ModePaused
	if !breaking {
		controller.setStatusLocked(StatusPaused, now)
	}
	logger.Info("%s paused with %ds remaining", controller.session.PausedFrom, controller.session.RemainingSeconds)

	controller.sender.Send(devicelink.PauseCommand(breaking, controller.session.RemainingSeconds, now))
	controller.emitStateLocked(now)
}

// Reset abandons the current interval and returns to idle with the configured focus duration.
func (controller *Controller) Reset() {
	controller.mu.Lock()
	defer controller.unlock()

	if controller.closed {
		return
	}
	now := controller.clock.Now()
	controller.stopTimersLocked()
	controller.idleSessionLocked()
	controller.setStatusLocked(StatusIdle, now)
	logger.Info("focus reset")

	controller.sender.Send(devicelink.StopCommand(now))
	controller.emitStateLocked(now)
}

// UpdateConfig replaces durations and thresholds. An idle session picks up the new focus duration.
func (controller *Controller) UpdateConfig(config model.FocusConfig) {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	controller.config = config.WithDefaults()
	controller.mouse.interval = controller.config.MouseMoveThrottle
	if controller.session.Mode == ModeIdle {
		controller.idleSessionLocked()
		controller.emitStateLocked(controller.clock.Now())
	}
}

// RecordActivity notes user input. Mouse movement is throttled.
func (controller *Controller) RecordActivity(source Source) {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	now := controller.clock.Now()
	if source == SourceMouse && !controller.mouse.allow(now) {
		return
	}
	controller.lastActivity = now
	if controller.session.Mode == ModeFocusing {
		if controller.quality.LastStatus != StatusActive {
			logger.Debug("activity resumed: %s", source)
		}
		controller.setStatusLocked(StatusActive, now)
	}
}

// SetHidden reports whether the focus window is hidden. Hiding it during focus counts as inactivity.
func (controller *Controller) SetHidden(hidden bool) {
	controller.mu.Lock()
	if controller.hidden == hidden {
		controller.mu.Unlock()
		return
	}
	controller.hidden = hidden
	if hidden {
		if controller.session.Mode == ModeFocusing {
			controller.setStatusLocked(StatusInactive, controller.clock.Now())
		}
		controller.mu.Unlock()
		return
	}
	controller.mu.Unlock()
	controller.RecordActivity(SourceVisibility)
}

// WindowBlurred reports that the focus window lost input focus, which counts as a distraction.
func (controller *Controller) WindowBlurred() {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	if controller.session.Mode != ModeFocusing || controller.quality.LastStatus == StatusWarning {
		return
	}
	now := controller.clock.Now()
	if controller.quality.LastStatus != StatusActive {
		controller.quality.WarningCount++
	}
	controller.setStatusLocked(StatusWarning, now)
}

// Close stops all timers and closes observer channels.
func (controller *Controller) Close() {
	controller.mu.Lock()
	if controller.closed {
		controller.mu.Unlock()
		return
	}
	controller.closed = true
	controller.stopTimersLocked()
	events := controller.events
	controller.events = nil
	controller.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

func (controller *Controller) beginFocusLocked(now time.Time, resume bool) {
	session := &controller.session
	session.StartedAt = now.Add(-time.Duration(session.ElapsedSeconds()) * time.Second)
	session.Mode = ModeFocusing
	session.PausedFrom = ""

	controller.quality = Quality{LastStatus: StatusIdle}
	controller.qualitySince = now
	controller.lastActivity = now
	controller.setStatusLocked(StatusActive, now)

	if resume {
		logger.Info("focus resumed with %ds remaining", session.RemainingSeconds)
	} else {
		logger.Info("focus started for %ds", session.TotalSeconds)
	}

	controller.sender.Send(devicelink.StartCommand(resume, session.TotalSeconds/60, session.TotalSeconds,
		session.RemainingSeconds, session.LinkedTaskID, now))
	controller.emitStateLocked(now)
	controller.armTickLocked()
	controller.armActivityLocked()
}

func (controller *Controller) beginBreakLocked(now time.Time) {
	total := int(controller.config.BreakDuration / time.Second)
	controller.session = Session{
		Mode:             ModeBreaking,
		TotalSeconds:     total,
		RemainingSeconds: total,
		StartedAt:        now,
		LinkedTaskID:     controller.session.LinkedTaskID,
	}
	controller.sender.Send(devicelink.BreakStartCommand(total/60, total, total, now))
	controller.emitStateLocked(now)
	controller.armTickLocked()
}

func (controller *Controller) resumeBreakLocked(now time.Time) {
	session := &controller.session
	session.StartedAt = now.Add(-time.Duration(session.ElapsedSeconds()) * time.Second)
	session.Mode = ModeBreaking
	session.PausedFrom = ""
	logger.Info("break resumed with %ds remaining", session.RemainingSeconds)

	controller.sender.Send(devicelink.BreakStartCommand(session.TotalSeconds/60, session.TotalSeconds,
		session.RemainingSeconds, now))
	controller.emitStateLocked(now)
	controller.armTickLocked()
}

func (controller *Controller) tick(run uint64) {
	controller.mu.Lock()
	defer controller.unlock()

	if run != controller.run || !controller.session.Mode.Running() {
		return
	}
	now := controller.clock.Now()
	controller.recomputeLocked(now)

	session := controller.session
	breaking := session.Mode == ModeBreaking
	controller.emitProgressLocked(now)
	if controller.sender.Connected() {
		controller.sender.Send(devicelink.ProgressCommand(breaking, session.RemainingSeconds, session.Percent(),
			session.ElapsedSeconds(), now))
	}

	if session.RemainingSeconds > 0 {
		controller.armTickLocked()
		return
	}
	if breaking {
		controller.completeBreakLocked(now)
		return
	}
	controller.completeFocusLocked(now)
}

func (controller *Controller) checkActivity(run uint64) {
	controller.mu.Lock()
	defer controller.mu.Unlock()

	if run != controller.run || controller.session.Mode != ModeFocusing {
		return
	}
	now := controller.clock.Now()
	idle := now.Sub(controller.lastActivity)
	if idle < controller.config.WarningAfter {
		controller.quality.ActiveSeconds += int(controller.config.ActivityCheckInterval / time.Second)
	}
	status := classify(idle, controller.hidden, controller.config.WarningAfter, controller.config.InactiveAfter)
	controller.setStatusLocked(status, now)
	controller.armActivityLocked()
}

func (controller *Controller) completeFocusLocked(now time.Time) {
	controller.stopTimersLocked()
	session := controller.session

	controller.stats.Sessions++
	controller.stats.FocusSeconds += session.TotalSeconds
	controller.stats.Streak = controller.streak.Record(controller.stats, now)
	controller.stats.LastFocusAt = now

	window := now.Sub(controller.qualitySince)
	if limit := time.Duration(session.TotalSeconds) * time.Second; window > limit {
		window = limit
	}
	percent := QualityPercent(controller.quality.ActiveSeconds, window)
	report := Report{
		TaskID:         session.LinkedTaskID,
		FocusSeconds:   session.TotalSeconds,
		QualityPercent: percent,
		Level:          LevelFor(percent),
		Quality:        controller.quality,
		Stats:          controller.stats,
		CompletedAt:    now,
	}
	record := SessionRecord{
		TaskID:         session.LinkedTaskID,
		StartedAt:      session.StartedAt,
		CompletedAt:    now,
		FocusSeconds:   session.TotalSeconds,
		ActiveSeconds:  controller.quality.ActiveSeconds,
		QualityPercent: percent,
		WarningCount:   controller.quality.WarningCount,
		InactiveCount:  controller.quality.InactiveCount,
	}
	logger.Info("focus complete: %ds, quality %d%% (%s)", session.TotalSeconds, percent, report.Level)

	controller.sender.Send(devicelink.CompleteCommand(now))
	controller.setStatusLocked(StatusIdle, now)
	controller.emitLocked(Event{
		Type:    EventComplete,
		Mode:    ModeFocusing,
		TaskID:  session.LinkedTaskID,
		Quality: controller.quality,
		Report:  &report,
		Stats:   controller.stats,
		At:      now,
	})
	controller.emitLocked(Event{Type: EventStats, Mode: ModeBreaking, Stats: controller.stats, At: now})

	stats := controller.stats
	if controller.recorder != nil {
		controller.deferLocked(func() {
			if err := controller.recorder.RecordSession(record, stats); err != nil {
				logger.Warn("record focus session: %v", err)
			}
		})
	}
	if controller.marker != nil && session.LinkedTaskID != "" && session.TotalSeconds >= 60 {
		controller.deferLocked(func() {
			if err := controller.marker.AddFocusTime(context.Background(), session.LinkedTaskID, session.TotalSeconds/60); err != nil {
				logger.Warn("credit focus time to task %s: %v", session.LinkedTaskID, err)
			}
		})
	}
	if controller.alerter != nil {
		go controller.alerter.FocusComplete(report)
	}

	controller.beginBreakLocked(now)
}

func (controller *Controller) completeBreakLocked(now time.Time) {
	controller.stopTimersLocked()
	logger.Info("break complete")

	controller.sender.Send(devicelink.BreakCompleteCommand(now))
	controller.idleSessionLocked()
	controller.emitStateLocked(now)
	if controller.alerter != nil {
		go controller.alerter.BreakComplete()
	}
}

func (controller *Controller) recomputeLocked(now time.Time) {
	session := &controller.session
	elapsed := int(now.Sub(session.StartedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := session.TotalSeconds - elapsed
	if remaining < 0 {
		remaining = 0
	}
	session.RemainingSeconds = remaining
}

func (controller *Controller) idleSessionLocked() {
	total := int(controller.config.FocusDuration / time.Second)
	controller.session = Session{
		Mode:             ModeIdle,
		TotalSeconds:     total,
		RemainingSeconds: total,
	}
}

// setStatusLocked records a status transition. Active to warning and any entry into inactive are
// counted; the first triggers an audible alert.
func (controller *Controller) setStatusLocked(status ActivityStatus, now time.Time) {
	previous := controller.quality.LastStatus
	if previous == status {
		return
	}
	if controller.session.Mode == ModeFocusing {
		switch {
		case status == StatusWarning && previous == StatusActive:
			controller.quality.WarningCount++
			if controller.alerter != nil {
				go controller.alerter.Warn()
			}
		case status == StatusInactive:
			controller.quality.InactiveCount++
		}
	}
	controller.quality.LastStatus = status
	controller.emitLocked(Event{
		Type:    EventActivity,
		Mode:    controller.session.Mode,
		Status:  status,
		Quality: controller.quality,
		At:      now,
	})
}

func (controller *Controller) armTickLocked() {
	run := controller.run
	controller.stopTimer(&controller.tickTimer)
	controller.tickTimer = controller.clock.AfterFunc(controller.config.TickInterval, func() {
		controller.tick(run)
	})
}

func (controller *Controller) armActivityLocked() {
	run := controller.run
	controller.stopTimer(&controller.activityTimer)
	controller.activityTimer = controller.clock.AfterFunc(controller.config.ActivityCheckInterval, func() {
		controller.checkActivity(run)
	})
}

// stopTimersLocked cancels both timers and invalidates callbacks already in flight.
func (controller *Controller) stopTimersLocked() {
	controller.run++
	controller.stopTimer(&controller.tickTimer)
	controller.stopTimer(&controller.activityTimer)
}

func (controller *Controller) stopTimer(timer *clock.Timer) {
	if *timer != nil {
		(*timer).Stop()
		*timer = nil
	}
}

func (controller *Controller) displayStatsLocked(now time.Time) Stats {
	stats := controller.stats
	stats.Streak = controller.streak.Current(stats, now)
	return stats
}

func (controller *Controller) emitStateLocked(now time.Time) {
	session := controller.session
	controller.emitLocked(Event{
		Type:      EventStateChange,
		Mode:      session.Mode,
		Remaining: time.Duration(session.RemainingSeconds) * time.Second,
		Total:     time.Duration(session.TotalSeconds) * time.Second,
		Progress:  session.Fraction(),
		Percent:   session.Percent(),
		Text:      session.Text(),
		TaskID:    session.LinkedTaskID,
		Status:    controller.quality.LastStatus,
		At:        now,
	})
}

func (controller *Controller) emitProgressLocked(now time.Time) {
	session := controller.session
	controller.emitLocked(Event{
		Type:      EventProgress,
		Mode:      session.Mode,
		Remaining: time.Duration(session.RemainingSeconds) * time.Second,
		Total:     time.Duration(session.TotalSeconds) * time.Second,
		Progress:  session.Fraction(),
		Percent:   session.Percent(),
		Text:      session.Text(),
		TaskID:    session.LinkedTaskID,
		Status:    controller.quality.LastStatus,
		At:        now,
	})
}

func (controller *Controller) emitLocked(event Event) {
	for _, ch := range controller.events {
		select {
		case ch <- event:
		default:
		}
	}
}

// deferLocked queues fn to run once the lock is released.
func (controller *Controller) deferLocked(fn func()) {
	controller.pending = append(controller.pending, fn)
}

func (controller *Controller) unlock() {
	pending := controller.pending
	controller.pending = nil
	controller.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
}
