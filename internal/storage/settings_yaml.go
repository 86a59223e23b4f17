package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"focuslink/internal/ui/preferences"

	"gopkg.in/yaml.v3"
)

const settingsFileName = "settings.yaml"

// Environment overrides applied after the settings file is read.
const (
	EnvDeviceHost = "FOCUSLINK_DEVICE_HOST"
	EnvDevicePort = "FOCUSLINK_DEVICE_PORT"
	EnvBackendURL = "FOCUSLINK_BACKEND_URL"
	EnvUserToken  = "FOCUSLINK_USER_TOKEN"
)

type yamlSettings struct {
	FocusMinutes     int    `yaml:"focus_minutes"`
	BreakMinutes     int    `yaml:"break_minutes"`
	DeviceHost       string `yaml:"device_host"`
	DevicePort       int    `yaml:"device_port"`
	ActivityTracking *bool  `yaml:"activity_tracking"`
	LaunchAtLogin    bool   `yaml:"launch_at_login"`
	Notifications    *bool  `yaml:"notifications"`
	BackendURL       string `yaml:"backend_url"`
	UserToken        string `yaml:"user_token,omitempty"`
	SessionID        string `yaml:"session_id,omitempty"`
}

// LoadSettings reads user preferences from YAML in the user config dir.
// If the config file does not exist, default settings are returned.
func LoadSettings(appName string) (preferences.Settings, error) {
	configPath, err := SettingsPath(appName)
	if err != nil {
		return applyEnvOverrides(preferences.DefaultSettings()), err
	}
	return LoadSettingsFile(configPath)
}

// LoadSettingsFile reads user preferences from the given YAML file and applies environment overrides.
func LoadSettingsFile(configPath string) (preferences.Settings, error) {
	settings := preferences.DefaultSettings()

	rawData, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return applyEnvOverrides(settings), nil
		}
		return applyEnvOverrides(settings), fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return applyEnvOverrides(settings), fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYamlSettings(&settings, fileData)
	return applyEnvOverrides(settings), nil
}

// SaveSettings writes user preferences to YAML in the user config dir.
func SaveSettings(appName string, settings preferences.Settings) error {
	configPath, err := SettingsPath(appName)
	if err != nil {
		return err
	}
	return SaveSettingsFile(configPath, settings)
}

// SaveSettingsFile writes user preferences to the given YAML file.
func SaveSettingsFile(configPath string, settings preferences.Settings) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tracking := settings.ActivityTracking
	notifications := settings.Notifications
	fileData := yamlSettings{
		FocusMinutes:     int(settings.FocusDuration / time.Minute),
		BreakMinutes:     int(settings.BreakDuration / time.Minute),
		DeviceHost:       settings.DeviceHost,
		DevicePort:       settings.DevicePort,
		ActivityTracking: &tracking,
		LaunchAtLogin:    settings.LaunchAtLogin,
		Notifications:    &notifications,
		BackendURL:       settings.BackendURL,
		UserToken:        settings.UserToken,
		SessionID:        settings.SessionID,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := os.WriteFile(configPath, serialized, 0o600); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

// SettingsPath returns where settings for appName are stored.
func SettingsPath(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, settingsFileName), nil
}

func applyYamlSettings(settings *preferences.Settings, fileData yamlSettings) {
	if fileData.FocusMinutes > 0 {
		settings.FocusDuration = time.Duration(fileData.FocusMinutes) * time.Minute
	}
	if fileData.BreakMinutes > 0 {
		settings.BreakDuration = time.Duration(fileData.BreakMinutes) * time.Minute
	}
	if host := strings.TrimSpace(fileData.DeviceHost); host != "" {
		settings.DeviceHost = host
	}
	if fileData.DevicePort > 0 && fileData.DevicePort <= 65535 {
		settings.DevicePort = fileData.DevicePort
	}
	if fileData.ActivityTracking != nil {
		settings.ActivityTracking = *fileData.ActivityTracking
	}
	if fileData.Notifications != nil {
		settings.Notifications = *fileData.Notifications
	}
	if url := strings.TrimSpace(fileData.BackendURL); url != "" {
		settings.BackendURL = strings.TrimRight(url, "/")
	}

	settings.LaunchAtLogin = fileData.LaunchAtLogin
	settings.UserToken = fileData.UserToken
	settings.SessionID = fileData.SessionID
}

func applyEnvOverrides(settings preferences.Settings) preferences.Settings {
	if host := os.Getenv(EnvDeviceHost); host != "" {
		settings.DeviceHost = host
	}
	if port := os.Getenv(EnvDevicePort); port != "" {
		if value, err := strconv.Atoi(port); err == nil && value > 0 && value <= 65535 {
			settings.DevicePort = value
		}
	}
	if url := os.Getenv(EnvBackendURL); url != "" {
		settings.BackendURL = strings.TrimRight(url, "/")
	}
	if token := os.Getenv(EnvUserToken); token != "" {
		settings.UserToken = token
	}
	return settings
}
