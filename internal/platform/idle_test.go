package platform

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type scriptedIdle struct {
	mu     sync.Mutex
	values []time.Duration
	err    error
}

func (provider *scriptedIdle) IdleDuration() (time.Duration, error) {
	provider.mu.Lock()
	defer provider.mu.Unlock()
	if provider.err != nil {
		return 0, provider.err
	}
	if len(provider.values) == 0 {
		return time.Hour, nil
	}
	value := provider.values[0]
	provider.values = provider.values[1:]
	return value, nil
}

func TestActivityWatcherReportsIdleReset(t *testing.T) {
	provider := &scriptedIdle{values: []time.Duration{
		5 * time.Second,
		6 * time.Second,
		200 * time.Millisecond,
		time.Second,
	}}
	var hits atomic.Int32
	watcher := NewActivityWatcher(provider, 2*time.Millisecond, func() { hits.Add(1) })

	watcher.Start()
	defer watcher.Stop()

	assert.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 2*time.Millisecond)
	assert.Never(t, func() bool { return hits.Load() > 1 }, 30*time.Millisecond, 2*time.Millisecond)
}

func TestActivityWatcherStopsWhenUnsupported(t *testing.T) {
	provider := &scriptedIdle{err: ErrIdleUnsupported}
	watcher := NewActivityWatcher(provider, 2*time.Millisecond, func() { t.Error("unexpected activity") })

	watcher.Start()
	assert.Eventually(t, func() bool { return !watcher.Running() }, time.Second, 2*time.Millisecond)
	watcher.Stop()
}

func TestActivityWatcherSurvivesTransientErrors(t *testing.T) {
	provider := &scriptedIdle{err: errors.New("display unavailable")}
	watcher := NewActivityWatcher(provider, 2*time.Millisecond, func() {})

	watcher.Start()
	assert.Never(t, func() bool { return !watcher.Running() }, 30*time.Millisecond, 2*time.Millisecond)
	watcher.Stop()
	assert.False(t, watcher.Running())
}
