//go:build linux

package platform

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const (
	mutterIdleDest   = "org.gnome.Mutter.IdleMonitor"
	mutterIdlePath   = "/org/gnome/Mutter/IdleMonitor/Core"
	mutterIdleMethod = "org.gnome.Mutter.IdleMonitor.GetIdletime"
)

// idleProvider prefers xprintidle on X11 and asks the GNOME idle monitor over gdbus on Wayland.
type idleProvider struct {
	xprintidlePath string
	gdbusPath      string
}

type unsupportedIdleProvider struct{}

func newIdleProvider() IdleProvider {
	xprintidle, _ := exec.LookPath("xprintidle")
	gdbus, _ := exec.LookPath("gdbus")
	if xprintidle == "" && gdbus == "" {
		return unsupportedIdleProvider{}
	}
	return &idleProvider{xprintidlePath: xprintidle, gdbusPath: gdbus}
}

func (provider *idleProvider) IdleDuration() (time.Duration, error) {
	wayland := strings.ToLower(os.Getenv("XDG_SESSION_TYPE")) == "wayland"
	switch {
	case wayland && provider.gdbusPath != "":
		return provider.mutterIdle()
	case provider.xprintidlePath != "" && !wayland:
		return provider.xprintidle()
	case provider.gdbusPath != "":
		return provider.mutterIdle()
	default:
		return 0, ErrIdleUnsupported
	}
}

func (provider *idleProvider) xprintidle() (time.Duration, error) {
	output, err := exec.Command(provider.xprintidlePath).Output()
	if err != nil {
		return 0, fmt.Errorf("xprintidle: %w", err)
	}
	return parseIdleMillis(strings.TrimSpace(string(output)))
}

func (provider *idleProvider) mutterIdle() (time.Duration, error) {
	output, err := exec.Command(provider.gdbusPath, "call", "--session",
		"--dest", mutterIdleDest,
		"--object-path", mutterIdlePath,
		"--method", mutterIdleMethod).Output()
	if err != nil {
		return 0, fmt.Errorf("gdbus idle monitor: %w", err)
	}
	return parseGVariantUint64(string(output))
}

// parseGVariantUint64 parses gdbus output such as "(uint64 12345,)".
func parseGVariantUint64(output string) (time.Duration, error) {
	value := strings.TrimSpace(output)
	value = strings.TrimPrefix(value, "(")
	value = strings.TrimSuffix(value, ")")
	value = strings.TrimSuffix(value, ",")
	value = strings.TrimSpace(strings.TrimPrefix(value, "uint64"))
	return parseIdleMillis(value)
}

func parseIdleMillis(value string) (time.Duration, error) {
	idleMillis, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse idle milliseconds: %w", err)
	}
	if idleMillis < 0 {
		idleMillis = 0
	}
	return time.Duration(idleMillis) * time.Millisecond, nil
}

func (unsupportedIdleProvider) IdleDuration() (time.Duration, error) {
	return 0, ErrIdleUnsupported
}
