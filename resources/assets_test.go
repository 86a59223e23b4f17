package resources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIconsEmbedded(t *testing.T) {
	for _, name := range []string{IconIdle, IconFocusing, IconPaused, IconBreaking} {
		resource, err := Icon(name)
		require.NoError(t, err, name)
		assert.Contains(t, string(resource.Content()), "<svg")
	}
}

func TestIconCached(t *testing.T) {
	first := MustIcon(IconIdle)
	second := MustIcon(IconIdle)
	assert.Same(t, first, second)
}

func TestUnknownIcon(t *testing.T) {
	_, err := Icon("missing")
	assert.Error(t, err)
	assert.Panics(t, func() { MustIcon("missing") })
}
