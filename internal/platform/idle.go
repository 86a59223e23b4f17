package platform

import (
	"errors"
	"sync"
	"time"

	"focuslink/internal/logger"
)

// ErrIdleUnsupported indicates idle detection is not available on this system.
var ErrIdleUnsupported = errors.New("idle detection unsupported")

// IdleProvider returns the duration since last user input.
type IdleProvider interface {
	IdleDuration() (time.Duration, error)
}

// NewIdleProvider returns a platform-specific idle provider.
func NewIdleProvider() IdleProvider {
	return newIdleProvider()
}

// ActivityWatcher polls the OS idle counter and reports input that happened outside the app window.
type ActivityWatcher struct {
	mu         sync.Mutex
	provider   IdleProvider
	interval   time.Duration
	onActivity func()
	lastIdle   time.Duration
	stopCh     chan struct{}
	doneCh     chan struct{}
	running    bool
}

// NewActivityWatcher creates a stopped watcher. onActivity runs on the watcher goroutine.
func NewActivityWatcher(provider IdleProvider, interval time.Duration, onActivity func()) *ActivityWatcher {
	if interval <= 0 {
		interval = time.Second
	}
	return &ActivityWatcher{
		provider:   provider,
		interval:   interval,
		onActivity: onActivity,
	}
}

// Start launches the polling loop.
func (watcher *ActivityWatcher) Start() {
	watcher.mu.Lock()
	defer watcher.mu.Unlock()
	if watcher.running {
		return
	}
	watcher.running = true
	watcher.lastIdle = -1
	watcher.stopCh = make(chan struct{})
	watcher.doneCh = make(chan struct{})
	go watcher.run(watcher.stopCh, watcher.doneCh)
}

// Stop terminates the polling loop and waits for it to exit.
func (watcher *ActivityWatcher) Stop() {
	watcher.mu.Lock()
	if !watcher.running {
		watcher.mu.Unlock()
		return
	}
	watcher.running = false
	close(watcher.stopCh)
	done := watcher.doneCh
	watcher.mu.Unlock()
	<-done
}

// Running reports whether the loop is still polling. It stops by itself when idle detection is unsupported.
func (watcher *ActivityWatcher) Running() bool {
	watcher.mu.Lock()
	defer watcher.mu.Unlock()
	return watcher.running
}

func (watcher *ActivityWatcher) run(stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	ticker := time.NewTicker(watcher.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !watcher.poll() {
				watcher.mu.Lock()
				watcher.running = false
				watcher.mu.Unlock()
				return
			}
		}
	}
}

// poll reports false once polling should stop for good.
func (watcher *ActivityWatcher) poll() bool {
	idle, err := watcher.provider.IdleDuration()
	if err != nil {
		if errors.Is(err, ErrIdleUnsupported) {
			logger.Warn("system activity tracking disabled: %v", err)
			return false
		}
		logger.Debug("read idle duration: %v", err)
		return true
	}

	previous := watcher.lastIdle
	watcher.lastIdle = idle
	if previous >= 0 && idle < previous {
		watcher.onActivity()
	}
	return true
}
