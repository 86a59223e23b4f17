package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"focuslink/internal/backend"
	"focuslink/internal/core/devicelink"
	"focuslink/internal/core/focus"
	"focuslink/internal/logger"
	"focuslink/internal/notify"
	"focuslink/internal/platform"
	"focuslink/internal/scheduler"
	"focuslink/internal/storage"
	"focuslink/internal/ui/panel"
	"focuslink/internal/ui/preferences"
	"focuslink/internal/ui/tray"
	"focuslink/resources"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
)

const (
	appName          = "FocusLink"
	idlePollInterval = time.Second
	backendTimeout   = 10 * time.Second
)

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	service := platform.NewService()
	dataDir, err := service.AppDataDir(appName)
	if err != nil {
		logger.Error("app data dir: %v", err)
		dataDir = ""
	}
	logsDir := ""
	if dataDir != "" {
		logsDir = filepath.Join(dataDir, "logs")
	}
	if err := logger.Init(logsDir, appName, *debug); err != nil {
		logger.Warn("log file disabled: %v", err)
	}
	defer logger.Close()

	var activePanel atomic.Pointer[panel.Window]
	guard, err := platform.AcquireSingleInstance(appName, func() {
		if window := activePanel.Load(); window != nil {
			fyne.Do(window.Show)
		}
	})
	if err != nil {
		if errors.Is(err, platform.ErrAlreadyRunning) {
			if notifyErr := platform.NotifyRunning(appName); notifyErr != nil {
				logger.Warn("%v", notifyErr)
			}
		}
		logger.Info("single instance: %v", err)
		return
	}
	defer func() {
		_ = guard.Release()
	}()

	settings, err := storage.LoadSettings(appName)
	if err != nil {
		logger.Warn("load settings: %v, using defaults", err)
		settings = preferences.DefaultSettings()
	}

	var stats focus.Stats
	var store *storage.StatsStore
	if dataDir != "" {
		store, err = storage.NewStatsStore(dataDir)
		if err != nil {
			logger.Error("open stats store: %v", err)
		} else {
			defer store.Close()
			if stats, err = store.Load(); err != nil {
				logger.Warn("load stats: %v", err)
			}
		}
	}

	notifier := notify.New(appName, settings.Notifications)

	linkConfig := settings.LinkConfig()
	link := devicelink.New(linkConfig, devicelink.NewWebsocketDialer(linkConfig.ConnectTimeout))
	defer link.Close()

	client := backend.New(backend.Config{
		BaseURL:   settings.BackendURL,
		Token:     settings.UserToken,
		SessionID: settings.SessionID,
		Timeout:   backendTimeout,
	})

	options := []focus.Option{
		focus.WithAlerter(notifier),
		focus.WithTaskMarker(&taskMarker{client: client, notifier: notifier}),
		focus.WithStats(stats),
	}
	if store != nil {
		options = append(options, focus.WithRecorder(store))
	}
	controller := focus.New(settings.FocusConfig(), link, options...)
	defer controller.Close()

	fyneApp := app.NewWithID("com.focuslink.app")
	fyneApp.SetIcon(resources.MustIcon(resources.IconFocusing))
	desktopApp, ok := fyneApp.(desktop.App)
	if !ok {
		logger.Error("system tray unsupported on this platform")
		return
	}

	var panelWindow *panel.Window
	panelWindow = panel.New(fyneApp, controller.Session(), controller.Stats(), panel.Callbacks{
		OnStart: func(taskID string) {
			startFocus(controller, settings.FocusMinutes(), taskID)
		},
		OnPause: controller.Pause,
		OnReset: controller.Reset,
		OnRefreshTasks: func() {
			go refreshTasks(client, panelWindow, notifier)
		},
		OnActivity: controller.RecordActivity,
		OnHidden:   controller.SetHidden,
		OnBlur:     controller.WindowBlurred,
	})

	watcher := platform.NewActivityWatcher(platform.NewIdleProvider(), idlePollInterval, func() {
		controller.RecordActivity(focus.SourceSystemInput)
	})
	if settings.ActivityTracking {
		watcher.Start()
	}
	defer watcher.Stop()

	cronJobs := scheduler.New(controller, link)
	if err := cronJobs.Start(); err != nil {
		logger.Error("start scheduler: %v", err)
	}
	defer cronJobs.Stop()

	prefsWindow := preferences.New(fyneApp, settings, func(updated preferences.Settings) {
		applySettings(settings, updated, controller, link, client, notifier, watcher, service)
		settings = updated
		if err := storage.SaveSettings(appName, settings); err != nil {
			logger.Error("save settings: %v", err)
			notifier.Error("Settings could not be saved.")
		}
	}, func(candidate preferences.Settings) error {
		ctx, cancel := context.WithTimeout(context.Background(), linkConfig.ProbeTimeout)
		defer cancel()
		probe := devicelink.New(candidate.LinkConfig(), devicelink.NewWebsocketDialer(linkConfig.ConnectTimeout))
		defer probe.Close()
		return probe.Probe(ctx)
	})

	trayManager := tray.New(desktopApp, tray.Callbacks{
		OnShowPanel: panelWindow.Show,
		OnStart: func() {
			startFocus(controller, settings.FocusMinutes(), panelWindow.SelectedTaskID())
		},
		OnPause:       controller.Pause,
		OnReset:       controller.Reset,
		OnPreferences: prefsWindow.Show,
		OnQuit: func() {
			fyneApp.Quit()
		},
	})
	desktopApp.SetSystemTrayIcon(resources.MustIcon(resources.IconIdle))

	go forwardFocusEvents(controller.Subscribe(16), panelWindow, trayManager, desktopApp)
	go forwardLinkStates(link.Subscribe(4), panelWindow, trayManager)

	link.Connect()
	if settings.SessionID != "" {
		go refreshTasks(client, panelWindow, notifier)
	}

	activePanel.Store(panelWindow)
	panelWindow.Show()
	fyneApp.Run()
}

func startFocus(controller *focus.Controller, minutes int, taskID string) {
	if err := controller.Start(minutes, taskID); err != nil {
		logger.Warn("start focus: %v", err)
	}
}

func applySettings(previous, updated preferences.Settings, controller *focus.Controller, link *devicelink.Link, client *backend.Client, notifier *notify.Notifier, watcher *platform.ActivityWatcher, service platform.Service) {
	controller.UpdateConfig(updated.FocusConfig())
	if updated.DeviceTarget() != previous.DeviceTarget() {
		link.SetTarget(updated.DeviceTarget())
	}
	client.UpdateConfig(backend.Config{
		BaseURL:   updated.BackendURL,
		Token:     updated.UserToken,
		SessionID: updated.SessionID,
		Timeout:   backendTimeout,
	})
	notifier.SetEnabled(updated.Notifications)

	switch {
	case updated.ActivityTracking && !watcher.Running():
		watcher.Start()
	case !updated.ActivityTracking && watcher.Running():
		watcher.Stop()
	}

	if updated.LaunchAtLogin != previous.LaunchAtLogin {
		execPath, err := os.Executable()
		if err != nil {
			logger.Error("resolve executable: %v", err)
			return
		}
		if err := platform.SetAutostart(service, appName, execPath, updated.LaunchAtLogin); err != nil {
			logger.Error("autostart: %v", err)
			notifier.Error("Launch at login could not be changed.")
		}
	}
}

func refreshTasks(client *backend.Client, panelWindow *panel.Window, notifier *notify.Notifier) {
	ctx, cancel := context.WithTimeout(context.Background(), backendTimeout)
	defer cancel()
	tasks, err := client.ListTasks(ctx, client.SessionID())
	if err != nil {
		if errors.Is(err, backend.ErrNoSession) {
			return
		}
		logger.Warn("refresh tasks: %v", err)
		notifier.Error("Tasks could not be loaded.")
		return
	}
	panelWindow.SetTasks(tasks)
}

func forwardFocusEvents(events <-chan focus.Event, panelWindow *panel.Window, trayManager *tray.Manager, desktopApp desktop.App) {
	mode := focus.ModeIdle
	for event := range events {
		panelWindow.Apply(event)
		if event.Type != focus.EventStateChange && event.Type != focus.EventProgress {
			continue
		}
		status := statusText(event)
		modeChanged := event.Mode != mode
		mode = event.Mode
		fyne.Do(func() {
			trayManager.SetMode(event.Mode)
			trayManager.SetStatus(status)
			if modeChanged {
				desktopApp.SetSystemTrayIcon(resources.MustIcon(iconFor(event.Mode)))
			}
		})
	}
}

func forwardLinkStates(states <-chan devicelink.State, panelWindow *panel.Window, trayManager *tray.Manager) {
	for state := range states {
		panelWindow.SetDeviceState(state.String())
		label := state.String()
		fyne.Do(func() {
			trayManager.SetDevice(label)
		})
	}
}

func statusText(event focus.Event) string {
	switch event.Mode {
	case focus.ModeFocusing:
		return "focusing " + event.Text
	case focus.ModeBreaking:
		return "break " + event.Text
	case focus.ModePaused:
		return event.Text
	default:
		return "ready"
	}
}

func iconFor(mode focus.Mode) string {
	switch mode {
	case focus.ModeFocusing:
		return resources.IconFocusing
	case focus.ModePaused:
		return resources.IconPaused
	case focus.ModeBreaking:
		return resources.IconBreaking
	default:
		return resources.IconIdle
	}
}

// taskMarker credits focus minutes to the backend task and surfaces failures to the user.
type taskMarker struct {
	client   *backend.Client
	notifier *notify.Notifier
}

func (marker *taskMarker) AddFocusTime(ctx context.Context, taskID string, minutes int) error {
	ctx, cancel := context.WithTimeout(ctx, backendTimeout)
	defer cancel()
	if err := marker.client.AddFocusTime(ctx, taskID, minutes); err != nil {
		marker.notifier.Error("Focus time could not be saved to the task.")
		return err
	}
	return nil
}
