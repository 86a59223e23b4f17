package preferences

import (
	"time"

	"focuslink/internal/core/model"
)

// DefaultBackendURL is the API root of the local assistant backend.
const DefaultBackendURL = "http://localhost:8000/api/v1"

// Settings defines editable user preferences.
type Settings struct {
	FocusDuration time.Duration
	BreakDuration time.Duration

	DeviceHost string
	DevicePort int

	ActivityTracking bool
	LaunchAtLogin    bool
	Notifications    bool

	BackendURL string
	UserToken  string
	SessionID  string
}

// DefaultSettings returns default settings for FocusLink.
func DefaultSettings() Settings {
	link := model.DefaultLinkConfig()
	focus := model.DefaultFocusConfig()
	return Settings{
		FocusDuration:    focus.FocusDuration,
		BreakDuration:    focus.BreakDuration,
		DeviceHost:       link.Target.Host,
		DevicePort:       link.Target.Port,
		ActivityTracking: true,
		LaunchAtLogin:    false,
		Notifications:    true,
		BackendURL:       DefaultBackendURL,
	}
}

// FocusMinutes returns the focus duration in whole minutes, as Start expects.
func (settings Settings) FocusMinutes() int {
	return int(settings.FocusDuration / time.Minute)
}

// DeviceTarget returns the configured companion display address.
func (settings Settings) DeviceTarget() model.DeviceTarget {
	return model.DeviceTarget{Host: settings.DeviceHost, Port: settings.DevicePort}
}

// FocusConfig converts settings to the controller configuration.
func (settings Settings) FocusConfig() model.FocusConfig {
	config := model.DefaultFocusConfig()
	config.FocusDuration = settings.FocusDuration
	config.BreakDuration = settings.BreakDuration
	return config
}

// LinkConfig converts settings to the device link configuration.
func (settings Settings) LinkConfig() model.LinkConfig {
	config := model.DefaultLinkConfig()
	config.Target = settings.DeviceTarget()
	return config
}
