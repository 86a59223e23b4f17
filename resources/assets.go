package resources

import (
	"embed"
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
)

const iconDir = "icons/"

//go:embed icons/*.svg
var iconFS embed.FS

var iconCache sync.Map

// Icon names, one per focus mode.
const (
	IconIdle     = "idle"
	IconFocusing = "focusing"
	IconPaused   = "paused"
	IconBreaking = "breaking"
)

// Icon returns a Fyne resource for the named tray icon.
func Icon(name string) (fyne.Resource, error) {
	return loadResource(iconFS, iconDir+name+".svg", &iconCache)
}

// MustIcon returns a Fyne resource or panics on error.
func MustIcon(name string) fyne.Resource {
	resource, err := Icon(name)
	if err != nil {
		panic(err)
	}
	return resource
}

func loadResource(fs embed.FS, path string, cache *sync.Map) (fyne.Resource, error) {
	if cached, ok := cache.Load(path); ok {
		return cached.(fyne.Resource), nil
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load resource %s: %w", path, err)
	}

	resource := fyne.NewStaticResource(path, data)
	cache.Store(path, resource)
	return resource, nil
}
