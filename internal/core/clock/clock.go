package clock

import (
	"sort"
	"sync"
	"time"
)

// Timer is a cancellable single-shot callback.
type Timer interface {
	// Stop cancels the timer. It reports whether the call prevented the callback from running.
	Stop() bool
}

// Clock supplies wall-clock time and single-shot timers.
type Clock interface {
	Now() time.Time
	AfterFunc(delay time.Duration, fn func()) Timer
}

type systemClock struct{}

// System returns a Clock backed by the time package.
func System() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) AfterFunc(delay time.Duration, fn func()) Timer {
	return time.AfterFunc(delay, fn)
}

// Fake is a manually advanced Clock. Callbacks run synchronously inside Advance.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers []*fakeTimer
}

type fakeTimer struct {
	clock    *Fake
	deadline time.Time
	seq      uint64
	fn       func()
}

// NewFake returns a Fake positioned at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the fake current time.
func (fake *Fake) Now() time.Time {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	return fake.now
}

// AfterFunc arms fn to run once the fake time reaches now+delay.
func (fake *Fake) AfterFunc(delay time.Duration, fn func()) Timer {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if delay < 0 {
		delay = 0
	}
	fake.seq++
	timer := &fakeTimer{
		clock:    fake,
		deadline: fake.now.Add(delay),
		seq:      fake.seq,
		fn:       fn,
	}
	fake.timers = append(fake.timers, timer)
	return timer
}

// Advance moves time forward by delta, firing every due timer in deadline order.
func (fake *Fake) Advance(delta time.Duration) {
	fake.mu.Lock()
	target := fake.now.Add(delta)
	fake.mu.Unlock()

	for {
		fake.mu.Lock()
		next := fake.popDueLocked(target)
		if next == nil {
			fake.now = target
			fake.mu.Unlock()
			return
		}
		fake.now = next.deadline
		fake.mu.Unlock()

		next.fn()
	}
}

// Pending returns the number of armed timers.
func (fake *Fake) Pending() int {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	return len(fake.timers)
}

func (fake *Fake) popDueLocked(target time.Time) *fakeTimer {
	if len(fake.timers) == 0 {
		return nil
	}
	sort.Slice(fake.timers, func(i, j int) bool {
		if fake.timers[i].deadline.Equal(fake.timers[j].deadline) {
			return fake.timers[i].seq < fake.timers[j].seq
		}
		return fake.timers[i].deadline.Before(fake.timers[j].deadline)
	})
	first := fake.timers[0]
	if first.deadline.After(target) {
		return nil
	}
	fake.timers = fake.timers[1:]
	return first
}

func (timer *fakeTimer) Stop() bool {
	fake := timer.clock
	fake.mu.Lock()
	defer fake.mu.Unlock()
	for i, armed := range fake.timers {
		if armed == timer {
			fake.timers = append(fake.timers[:i], fake.timers[i+1:]...)
			return true
		}
	}
	return false
}
