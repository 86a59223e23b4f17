package tray

import (
	"fmt"

	"focuslink/internal/core/focus"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnShowPanel   func()
	OnStart       func()
	OnPause       func()
	OnReset       func()
	OnPreferences func()
	OnQuit        func()
}

// Manager handles system tray state.
type Manager struct {
	app         desktop.App
	statusItem  *fyne.MenuItem
	deviceItem  *fyne.MenuItem
	startItem   *fyne.MenuItem
	pauseItem   *fyne.MenuItem
	resetItem   *fyne.MenuItem
	callbacks   Callbacks
	mode        focus.Mode
	statusLabel string
	device      string
}

// New creates a tray manager with the provided callbacks.
func New(app desktop.App, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:         app,
		callbacks:   callbacks,
		mode:        focus.ModeIdle,
		statusLabel: "ready",
		device:      "disconnected",
	}

	manager.statusItem = fyne.NewMenuItem("", nil)
	manager.statusItem.Disabled = true
	manager.deviceItem = fyne.NewMenuItem("", nil)
	manager.deviceItem.Disabled = true

	manager.startItem = fyne.NewMenuItem("Start focus", func() {
		if manager.callbacks.OnStart != nil {
			manager.callbacks.OnStart()
		}
	})
	manager.pauseItem = fyne.NewMenuItem("Pause", func() {
		if manager.callbacks.OnPause != nil {
			manager.callbacks.OnPause()
		}
	})
	manager.resetItem = fyne.NewMenuItem("Reset", func() {
		if manager.callbacks.OnReset != nil {
			manager.callbacks.OnReset()
		}
	})

	manager.applyMode()
	manager.refreshLabels()
	manager.refreshMenu()
	return manager
}

// SetStatus updates the status label.
func (manager *Manager) SetStatus(status string) {
	manager.statusLabel = status
	manager.refreshLabels()
	manager.refreshMenu()
}

// SetDevice updates the device connection label.
func (manager *Manager) SetDevice(state string) {
	manager.device = state
	manager.refreshLabels()
	manager.refreshMenu()
}

// SetMode enables the menu items that make sense for mode.
func (manager *Manager) SetMode(mode focus.Mode) {
	if manager.mode == mode {
		return
	}
	manager.mode = mode
	manager.applyMode()
	manager.refreshLabels()
	manager.refreshMenu()
}

func (manager *Manager) applyMode() {
	running := manager.mode.Running()
	manager.startItem.Disabled = running
	if manager.mode == focus.ModePaused {
		manager.startItem.Label = "Resume"
	} else {
		manager.startItem.Label = "Start focus"
	}
	manager.pauseItem.Disabled = !running
	manager.resetItem.Disabled = manager.mode == focus.ModeIdle
}

func (manager *Manager) refreshLabels() {
	status := manager.statusLabel
	if manager.mode == focus.ModePaused {
		status = fmt.Sprintf("%s (paused)", status)
	}
	manager.statusItem.Label = fmt.Sprintf("Status: %s", status)
	manager.deviceItem.Label = fmt.Sprintf("Device: %s", manager.device)
}

func (manager *Manager) refreshMenu() {
	if manager.app == nil {
		return
	}
	manager.app.SetSystemTrayMenu(fyne.NewMenu("FocusLink",
		manager.statusItem,
		manager.deviceItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Show timer", func() {
			if manager.callbacks.OnShowPanel != nil {
				manager.callbacks.OnShowPanel()
			}
		}),
		manager.startItem,
		manager.pauseItem,
		manager.resetItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Preferences", func() {
			if manager.callbacks.OnPreferences != nil {
				manager.callbacks.OnPreferences()
			}
		}),
		fyne.NewMenuItem("Quit", func() {
			if manager.callbacks.OnQuit != nil {
				manager.callbacks.OnQuit()
			}
		}),
	))
}
