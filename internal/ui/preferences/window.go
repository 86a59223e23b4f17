package preferences

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

// Window handles the preferences UI.
type Window struct {
	window        fyne.Window
	settings      Settings
	onSave        func(Settings)
	onProbe       func(Settings) error
	focusMinutes  *widget.Entry
	breakMinutes  *widget.Entry
	deviceHost    *widget.Entry
	devicePort    *widget.Entry
	probeResult   *widget.Label
	activity      *widget.Check
	launchAtLogin *widget.Check
	notifications *widget.Check
	backendURL    *widget.Entry
	userToken     *widget.Entry
	sessionID     *widget.Entry
}

// New creates a preferences window. onProbe, when set, backs the "Test connection" button.
func New(app fyne.App, settings Settings, onSave func(Settings), onProbe func(Settings) error) *Window {
	window := app.NewWindow("FocusLink Settings")

	prefs := &Window{
		window:        window,
		onSave:        onSave,
		onProbe:       onProbe,
		focusMinutes:  widget.NewEntry(),
		breakMinutes:  widget.NewEntry(),
		deviceHost:    widget.NewEntry(),
		devicePort:    widget.NewEntry(),
		probeResult:   widget.NewLabel(""),
		activity:      widget.NewCheck("Track activity during focus", nil),
		launchAtLogin: widget.NewCheck("Launch at login", nil),
		notifications: widget.NewCheck("Show notifications", nil),
		backendURL:    widget.NewEntry(),
		userToken:     widget.NewPasswordEntry(),
		sessionID:     widget.NewEntry(),
	}
	prefs.deviceHost.SetPlaceHolder("192.168.1.50")
	prefs.sessionID.SetPlaceHolder("task plan session")
	prefs.UpdateSettings(settings)

	probeButton := widget.NewButton("Test connection", prefs.handleProbe)
	if onProbe == nil {
		probeButton.Disable()
	}

	form := container.NewVBox(
		widget.NewLabelWithStyle("Timer", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(widget.NewLabel("Focus duration"), prefs.focusMinutes, widget.NewLabel("min")),
		container.NewHBox(widget.NewLabel("Break duration"), prefs.breakMinutes, widget.NewLabel("min")),
		prefs.activity,
		prefs.notifications,
		prefs.launchAtLogin,
		widget.NewLabelWithStyle("Display", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewGridWithColumns(2, widget.NewLabel("Host"), prefs.deviceHost),
		container.NewGridWithColumns(2, widget.NewLabel("Port"), prefs.devicePort),
		container.NewHBox(probeButton, prefs.probeResult),
		widget.NewLabelWithStyle("Tasks", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewGridWithColumns(2, widget.NewLabel("Backend URL"), prefs.backendURL),
		container.NewGridWithColumns(2, widget.NewLabel("User token"), prefs.userToken),
		container.NewGridWithColumns(2, widget.NewLabel("Session"), prefs.sessionID),
	)

	saveButton := widget.NewButton("Save", prefs.handleSave)
	cancelButton := widget.NewButton("Cancel", func() {
		prefs.UpdateSettings(prefs.settings)
		window.Hide()
	})
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	window.SetContent(container.NewBorder(nil, buttons, nil, nil, form))
	window.Resize(fyne.NewSize(460, 560))
	window.SetCloseIntercept(func() {
		window.Hide()
	})

	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// UpdateSettings replaces window values.
func (prefs *Window) UpdateSettings(settings Settings) {
	prefs.settings = settings
	prefs.focusMinutes.SetText(fmt.Sprintf("%d", int(settings.FocusDuration.Minutes())))
	prefs.breakMinutes.SetText(fmt.Sprintf("%d", int(settings.BreakDuration.Minutes())))
	prefs.deviceHost.SetText(settings.DeviceHost)
	prefs.devicePort.SetText(fmt.Sprintf("%d", settings.DevicePort))
	prefs.activity.SetChecked(settings.ActivityTracking)
	prefs.launchAtLogin.SetChecked(settings.LaunchAtLogin)
	prefs.notifications.SetChecked(settings.Notifications)
	prefs.backendURL.SetText(settings.BackendURL)
	prefs.userToken.SetText(settings.UserToken)
	prefs.sessionID.SetText(settings.SessionID)
	prefs.probeResult.SetText("")
}

func (prefs *Window) collect() Settings {
	return applyForm(prefs.settings, form{
		focusMinutes:  prefs.focusMinutes.Text,
		breakMinutes:  prefs.breakMinutes.Text,
		deviceHost:    prefs.deviceHost.Text,
		devicePort:    prefs.devicePort.Text,
		activity:      prefs.activity.Checked,
		launchAtLogin: prefs.launchAtLogin.Checked,
		notifications: prefs.notifications.Checked,
		backendURL:    prefs.backendURL.Text,
		userToken:     prefs.userToken.Text,
		sessionID:     prefs.sessionID.Text,
	})
}

func (prefs *Window) handleSave() {
	settings := prefs.collect()
	prefs.settings = settings
	if prefs.onSave != nil {
		prefs.onSave(settings)
	}
	prefs.window.Hide()
}

func (prefs *Window) handleProbe() {
	if prefs.onProbe == nil {
		return
	}
	settings := prefs.collect()
	prefs.probeResult.SetText("checking...")
	go func() {
		result := "online"
		if err := prefs.onProbe(settings); err != nil {
			result = "offline"
		}
		fyne.Do(func() {
			prefs.probeResult.SetText(result)
		})
	}()
}

type form struct {
	focusMinutes  string
	breakMinutes  string
	deviceHost    string
	devicePort    string
	activity      bool
	launchAtLogin bool
	notifications bool
	backendURL    string
	userToken     string
	sessionID     string
}

// applyForm overlays the entered values on settings. Invalid numbers keep the previous value.
func applyForm(settings Settings, values form) Settings {
	if minutes, ok := parsePositiveInt(values.focusMinutes); ok {
		settings.FocusDuration = time.Duration(minutes) * time.Minute
	}
	if minutes, ok := parsePositiveInt(values.breakMinutes); ok {
		settings.BreakDuration = time.Duration(minutes) * time.Minute
	}
	if host := strings.TrimSpace(values.deviceHost); host != "" {
		settings.DeviceHost = host
	}
	if port, ok := parsePositiveInt(values.devicePort); ok && port <= 65535 {
		settings.DevicePort = port
	}
	if backendURL := strings.TrimSpace(values.backendURL); backendURL != "" {
		settings.BackendURL = strings.TrimRight(backendURL, "/")
	}
	settings.ActivityTracking = values.activity
	settings.LaunchAtLogin = values.launchAtLogin
	settings.Notifications = values.notifications
	settings.UserToken = strings.TrimSpace(values.userToken)
	settings.SessionID = strings.TrimSpace(values.sessionID)
	return settings
}

func parsePositiveInt(value string) (int, bool) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}
