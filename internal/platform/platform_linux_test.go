//go:build linux

package platform

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGVariantUint64(t *testing.T) {
	idle, err := parseGVariantUint64("(uint64 12345,)\n")
	require.NoError(t, err)
	assert.Equal(t, 12345*time.Millisecond, idle)

	_, err = parseGVariantUint64("()")
	assert.Error(t, err)
}

func TestAutostartDesktopEntry(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	service := NewService()

	enabled, err := service.AutostartEnabled("FocusLink")
	require.NoError(t, err)
	assert.False(t, enabled)

	require.NoError(t, SetAutostart(service, "FocusLink", "/opt/focus link/focuslink", true))
	enabled, err = service.AutostartEnabled("FocusLink")
	require.NoError(t, err)
	assert.True(t, enabled)

	configDir, err := service.GetConfigDir()
	require.NoError(t, err)
	content, err := os.ReadFile(filepath.Join(configDir, "autostart", "focuslink.desktop"))
	require.NoError(t, err)
	assert.Contains(t, string(content), `Exec="/opt/focus link/focuslink"`)

	require.NoError(t, SetAutostart(service, "FocusLink", "", false))
	enabled, err = service.AutostartEnabled("FocusLink")
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestAppDataDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	dir, err := NewService().AppDataDir("focuslink")
	require.NoError(t, err)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
