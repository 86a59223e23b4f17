package panel

import (
	"image/color"
	"sync"

	"focuslink/internal/backend"
	"focuslink/internal/core/focus"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const noTaskLabel = "No task"

// Callbacks defines panel action handlers.
type Callbacks struct {
	OnStart        func(taskID string)
	OnPause        func()
	OnReset        func()
	OnRefreshTasks func()
	OnActivity     func(source focus.Source)
	OnHidden       func(hidden bool)
	OnBlur         func()
}

// Window is the main timer panel.
type Window struct {
	window       fyne.Window
	callbacks    Callbacks
	modeLabel    *canvas.Text
	timerLabel   *canvas.Text
	progress     *widget.ProgressBar
	activity     *widget.Label
	stats        *widget.Label
	device       *widget.Label
	taskSelect   *widget.Select
	startButton  *widget.Button
	pauseButton  *widget.Button
	resetButton  *widget.Button
	mu           sync.Mutex
	view         view
	taskIDs      map[string]string
	selectedTask string
}

// New creates the panel window, hidden until Show.
func New(app fyne.App, session focus.Session, stats focus.Stats, callbacks Callbacks) *Window {
	window := app.NewWindow("FocusLink")
	if app.Icon() != nil {
		window.SetIcon(app.Icon())
	}

	titleLabel := canvas.NewText("FocusLink", color.NRGBA{R: 232, G: 190, B: 66, A: 255})
	titleLabel.TextStyle = fyne.TextStyle{Bold: true}
	titleLabel.TextSize = 21

	modeLabel := canvas.NewText("", theme.Color(theme.ColorNameForeground))
	modeLabel.TextStyle = fyne.TextStyle{Bold: true}
	modeLabel.TextSize = 14

	timerLabel := canvas.NewText("--:--", theme.Color(theme.ColorNameForeground))
	timerLabel.Alignment = fyne.TextAlignCenter
	timerLabel.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	timerLabel.TextSize = 48

	panel := &Window{
		window:     window,
		callbacks:  callbacks,
		modeLabel:  modeLabel,
		timerLabel: timerLabel,
		progress:   widget.NewProgressBar(),
		activity:   widget.NewLabel(""),
		stats:      widget.NewLabel(""),
		device:     widget.NewLabel("Display: disconnected"),
		view:       newView(session, stats),
		taskIDs:    map[string]string{noTaskLabel: ""},
	}
	panel.progress.TextFormatter = func() string { return "" }

	panel.taskSelect = widget.NewSelect([]string{noTaskLabel}, func(label string) {
		panel.mu.Lock()
		panel.selectedTask = panel.taskIDs[label]
		panel.mu.Unlock()
		panel.activityFrom(focus.SourceClick)
	})
	panel.taskSelect.SetSelected(noTaskLabel)
	refreshButton := widget.NewButtonWithIcon("", theme.ViewRefreshIcon(), func() {
		panel.activityFrom(focus.SourceClick)
		if callbacks.OnRefreshTasks != nil {
			callbacks.OnRefreshTasks()
		}
	})

	panel.startButton = widget.NewButtonWithIcon("Start", theme.MediaPlayIcon(), func() {
		panel.activityFrom(focus.SourceClick)
		if callbacks.OnStart != nil {
			callbacks.OnStart(panel.SelectedTaskID())
		}
	})
	panel.pauseButton = widget.NewButtonWithIcon("Pause", theme.MediaPauseIcon(), func() {
		panel.activityFrom(focus.SourceClick)
		if callbacks.OnPause != nil {
			callbacks.OnPause()
		}
	})
	panel.resetButton = widget.NewButtonWithIcon("Reset", theme.MediaReplayIcon(), func() {
		panel.activityFrom(focus.SourceClick)
		if callbacks.OnReset != nil {
			callbacks.OnReset()
		}
	})

	header := container.New(&headerLayout{}, titleLabel, modeLabel)
	content := container.NewVBox(
		header,
		timerLabel,
		panel.progress,
		panel.activity,
		container.NewBorder(nil, nil, nil, refreshButton, panel.taskSelect),
		container.NewGridWithColumns(3, panel.startButton, panel.pauseButton, panel.resetButton),
		panel.stats,
		panel.device,
	)

	window.SetContent(newActivitySurface(container.NewPadded(content), panel.activityFrom))
	window.Canvas().SetOnTypedKey(func(*fyne.KeyEvent) {
		panel.activityFrom(focus.SourceKeyboard)
	})
	window.Canvas().SetOnTypedRune(func(rune) {
		panel.activityFrom(focus.SourceKeyboard)
	})
	window.SetCloseIntercept(func() {
		panel.Hide()
	})
	window.Resize(fyne.NewSize(360, 420))

	app.Lifecycle().SetOnEnteredForeground(func() {
		panel.activityFrom(focus.SourceWindowFocus)
	})
	app.Lifecycle().SetOnExitedForeground(func() {
		if callbacks.OnBlur != nil {
			callbacks.OnBlur()
		}
	})

	panel.render()
	return panel
}

// Show brings the panel to the front.
func (panel *Window) Show() {
	panel.window.Show()
	panel.window.RequestFocus()
	if panel.callbacks.OnHidden != nil {
		panel.callbacks.OnHidden(false)
	}
}

// Hide hides the panel; the timer keeps running.
func (panel *Window) Hide() {
	panel.window.Hide()
	if panel.callbacks.OnHidden != nil {
		panel.callbacks.OnHidden(true)
	}
}

// Apply projects a controller event onto the panel. Safe from any goroutine.
func (panel *Window) Apply(event focus.Event) {
	panel.mu.Lock()
	panel.view = panel.view.apply(event)
	panel.mu.Unlock()
	fyne.Do(panel.render)
}

// SetDeviceState updates the display connection label.
func (panel *Window) SetDeviceState(state string) {
	fyne.Do(func() {
		panel.device.SetText("Display: " + state)
	})
}

// SetTasks replaces the task choices, keeping the selection when it still exists.
func (panel *Window) SetTasks(tasks []backend.Task) {
	labels, ids := taskOptions(tasks)
	panel.mu.Lock()
	selected := panel.selectedTask
	panel.taskIDs = ids
	panel.mu.Unlock()

	fyne.Do(func() {
		panel.taskSelect.SetOptions(labels)
		for label, id := range ids {
			if id == selected {
				panel.taskSelect.SetSelected(label)
				return
			}
		}
		panel.taskSelect.SetSelected(noTaskLabel)
	})
}

// SelectedTaskID returns the chosen task, or "" when none is selected.
func (panel *Window) SelectedTaskID() string {
	panel.mu.Lock()
	defer panel.mu.Unlock()
	return panel.selectedTask
}

func (panel *Window) activityFrom(source focus.Source) {
	if panel.callbacks.OnActivity != nil {
		panel.callbacks.OnActivity(source)
	}
}

func (panel *Window) render() {
	panel.mu.Lock()
	current := panel.view
	panel.mu.Unlock()

	panel.modeLabel.Text = current.title()
	panel.modeLabel.Refresh()
	panel.timerLabel.Text = current.timer
	panel.timerLabel.Refresh()
	panel.progress.SetValue(current.progress)
	panel.activity.SetText(current.activityText())
	panel.stats.SetText(current.statsText())

	if current.mode.Running() {
		panel.startButton.Disable()
		panel.pauseButton.Enable()
	} else {
		panel.startButton.Enable()
		panel.pauseButton.Disable()
	}
	if current.mode == focus.ModePaused {
		panel.startButton.SetText("Resume")
	} else {
		panel.startButton.SetText("Start")
	}
	if current.mode == focus.ModeIdle {
		panel.resetButton.Disable()
		panel.taskSelect.Enable()
	} else {
		panel.resetButton.Enable()
		panel.taskSelect.Disable()
	}
}

// activitySurface reports pointer input anywhere over the panel that its children do not consume.
type activitySurface struct {
	widget.BaseWidget
	content  fyne.CanvasObject
	onSource func(focus.Source)
}

var (
	_ desktop.Hoverable = (*activitySurface)(nil)
	_ fyne.Tappable     = (*activitySurface)(nil)
	_ fyne.Scrollable   = (*activitySurface)(nil)
)

func newActivitySurface(content fyne.CanvasObject, onSource func(focus.Source)) *activitySurface {
	surface := &activitySurface{content: content, onSource: onSource}
	surface.ExtendBaseWidget(surface)
	return surface
}

func (surface *activitySurface) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(surface.content)
}

func (surface *activitySurface) MouseIn(*desktop.MouseEvent) {
	surface.onSource(focus.SourceMouse)
}

func (surface *activitySurface) MouseMoved(*desktop.MouseEvent) {
	surface.onSource(focus.SourceMouse)
}

func (surface *activitySurface) MouseOut() {}

func (surface *activitySurface) Tapped(*fyne.PointEvent) {
	surface.onSource(focus.SourceClick)
}

func (surface *activitySurface) Scrolled(*fyne.ScrollEvent) {
	surface.onSource(focus.SourceScroll)
}

type headerLayout struct{}

func (layout *headerLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	if len(objects) < 2 {
		return
	}
	title := objects[0]
	mode := objects[1]

	titleSize := title.MinSize()
	title.Move(fyne.NewPos(0, 0))
	title.Resize(fyne.NewSize(size.Width, titleSize.Height))

	modeSize := mode.MinSize()
	mode.Move(fyne.NewPos(0, titleSize.Height+4))
	mode.Resize(fyne.NewSize(size.Width, modeSize.Height))
}

func (layout *headerLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	if len(objects) < 2 {
		return fyne.NewSize(0, 0)
	}
	titleSize := objects[0].MinSize()
	modeSize := objects[1].MinSize()
	width := titleSize.Width
	if modeSize.Width > width {
		width = modeSize.Width
	}
	return fyne.NewSize(width, titleSize.Height+modeSize.Height+4)
}
