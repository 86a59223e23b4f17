package model

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// DeviceTarget is the network address of the companion display.
type DeviceTarget struct {
	Host string
	Port int
}

// Address returns host:port.
func (target DeviceTarget) Address() string {
	return net.JoinHostPort(target.Host, strconv.Itoa(target.Port))
}

// URL returns the WebSocket endpoint of the device.
func (target DeviceTarget) URL() string {
	return fmt.Sprintf("ws://%s/", target.Address())
}

// PingURL returns the HTTP reachability endpoint of the device.
func (target DeviceTarget) PingURL() string {
	return fmt.Sprintf("http://%s/ping", target.Address())
}

// Valid reports whether the target can be dialed.
func (target DeviceTarget) Valid() bool {
	return target.Host != "" && target.Port > 0 && target.Port <= 65535
}

// LinkConfig contains runtime settings for the device link.
type LinkConfig struct {
	Target            DeviceTarget
	ReconnectInterval time.Duration
	ConnectTimeout    time.Duration
	WriteTimeout      time.Duration
	ProbeTimeout      time.Duration
}

// FocusConfig contains runtime settings for the focus controller.
type FocusConfig struct {
	FocusDuration time.Duration
	BreakDuration time.Duration

	TickInterval          time.Duration
	ActivityCheckInterval time.Duration
	WarningAfter          time.Duration
	InactiveAfter         time.Duration
	MouseMoveThrottle     time.Duration
}

// DefaultLinkConfig returns the link timings used when none are configured.
func DefaultLinkConfig() LinkConfig {
	return LinkConfig{
		Target:            DeviceTarget{Host: "192.168.4.1", Port: 80},
		ReconnectInterval: 5 * time.Second,
		ConnectTimeout:    10 * time.Second,
		WriteTimeout:      2 * time.Second,
		ProbeTimeout:      3 * time.Second,
	}
}

// DefaultFocusConfig returns a 25/5 focus cycle with the standard activity thresholds.
func DefaultFocusConfig() FocusConfig {
	return FocusConfig{
		FocusDuration:         25 * time.Minute,
		BreakDuration:         5 * time.Minute,
		TickInterval:          time.Second,
		ActivityCheckInterval: 3 * time.Second,
		WarningAfter:          20 * time.Second,
		InactiveAfter:         45 * time.Second,
		MouseMoveThrottle:     500 * time.Millisecond,
	}
}

// WithDefaults fills zero timings from DefaultLinkConfig.
func (config LinkConfig) WithDefaults() LinkConfig {
	defaults := DefaultLinkConfig()
	if config.ReconnectInterval <= 0 {
		config.ReconnectInterval = defaults.ReconnectInterval
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = defaults.ConnectTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if config.ProbeTimeout <= 0 {
		config.ProbeTimeout = defaults.ProbeTimeout
	}
	return config
}

// WithDefaults fills zero timings from DefaultFocusConfig. Durations may legitimately be zero
// only for the focus and break lengths, which are clamped to be non-negative.
func (config FocusConfig) WithDefaults() FocusConfig {
	defaults := DefaultFocusConfig()
	if config.FocusDuration < 0 {
		config.FocusDuration = 0
	}
	if config.BreakDuration < 0 {
		config.BreakDuration = 0
	}
	if config.TickInterval <= 0 {
		config.TickInterval = defaults.TickInterval
	}
	if config.ActivityCheckInterval <= 0 {
		config.ActivityCheckInterval = defaults.ActivityCheckInterval
	}
	if config.WarningAfter <= 0 {
		config.WarningAfter = defaults.WarningAfter
	}
	if config.InactiveAfter <= 0 {
		config.InactiveAfter = defaults.InactiveAfter
	}
	if config.MouseMoveThrottle <= 0 {
		config.MouseMoveThrottle = defaults.MouseMoveThrottle
	}
	return config
}
