package tray

import (
	"testing"

	"focuslink/internal/core/focus"

	"fyne.io/fyne/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTrayApp struct {
	menus []*fyne.Menu
	icons []fyne.Resource
}

func (app *fakeTrayApp) SetSystemTrayMenu(menu *fyne.Menu) {
	app.menus = append(app.menus, menu)
}

func (app *fakeTrayApp) SetSystemTrayIcon(icon fyne.Resource) {
	app.icons = append(app.icons, icon)
}

func (app *fakeTrayApp) SetSystemTrayWindow(fyne.Window) {}

func (app *fakeTrayApp) lastMenu(t *testing.T) *fyne.Menu {
	t.Helper()
	require.NotEmpty(t, app.menus)
	return app.menus[len(app.menus)-1]
}

func itemByLabel(menu *fyne.Menu, label string) *fyne.MenuItem {
	for _, item := range menu.Items {
		if item.Label == label {
			return item
		}
	}
	return nil
}

func TestIdleMenu(t *testing.T) {
	app := &fakeTrayApp{}
	New(app, Callbacks{})

	menu := app.lastMenu(t)
	assert.Equal(t, "Status: ready", menu.Items[0].Label)
	assert.Equal(t, "Device: disconnected", menu.Items[1].Label)

	start := itemByLabel(menu, "Start focus")
	require.NotNil(t, start)
	assert.False(t, start.Disabled)
	assert.True(t, itemByLabel(menu, "Pause").Disabled)
	assert.True(t, itemByLabel(menu, "Reset").Disabled)
}

func TestModeTogglesItems(t *testing.T) {
	app := &fakeTrayApp{}
	manager := New(app, Callbacks{})

	manager.SetMode(focus.ModeFocusing)
	menu := app.lastMenu(t)
	assert.True(t, itemByLabel(menu, "Start focus").Disabled)
	assert.False(t, itemByLabel(menu, "Pause").Disabled)
	assert.False(t, itemByLabel(menu, "Reset").Disabled)

	manager.SetStatus("focusing 12:00")
	manager.SetMode(focus.ModePaused)
	menu = app.lastMenu(t)
	resume := itemByLabel(menu, "Resume")
	require.NotNil(t, resume)
	assert.False(t, resume.Disabled)
	assert.Equal(t, "Status: focusing 12:00 (paused)", menu.Items[0].Label)
}

func TestCallbacksFire(t *testing.T) {
	app := &fakeTrayApp{}
	var calls []string
	New(app, Callbacks{
		OnShowPanel:   func() { calls = append(calls, "show") },
		OnStart:       func() { calls = append(calls, "start") },
		OnPreferences: func() { calls = append(calls, "prefs") },
		OnQuit:        func() { calls = append(calls, "quit") },
	})

	menu := app.lastMenu(t)
	for _, label := range []string{"Show timer", "Start focus", "Preferences", "Quit"} {
		item := itemByLabel(menu, label)
		require.NotNil(t, item, label)
		item.Action()
	}
	assert.Equal(t, []string{"show", "start", "prefs", "quit"}, calls)
}

func TestDeviceLabel(t *testing.T) {
	app := &fakeTrayApp{}
	manager := New(app, Callbacks{})

	manager.SetDevice("connected")
	assert.Equal(t, "Device: connected", app.lastMenu(t).Items[1].Label)
}
