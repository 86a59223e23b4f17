package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitWritesDatedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(dir, "focuslink", true))
	t.Cleanup(Close)

	Info("hello %s", "world")
	Debug("debug %d", 7)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, strings.HasPrefix(entries[0].Name(), "focuslink_"))

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	require.Contains(t, string(data), "[INFO] ")
	require.Contains(t, string(data), "hello world")
	require.Contains(t, string(data), "debug 7")
}
