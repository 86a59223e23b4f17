package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeFiresInDeadlineOrder(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	fake := NewFake(start)

	var fired []string
	var firedAt []time.Time
	fake.AfterFunc(3*time.Second, func() {
		fired = append(fired, "three")
		firedAt = append(firedAt, fake.Now())
	})
	fake.AfterFunc(time.Second, func() {
		fired = append(fired, "one")
		firedAt = append(firedAt, fake.Now())
	})

	fake.Advance(5 * time.Second)

	assert.Equal(t, []string{"one", "three"}, fired)
	require.Len(t, firedAt, 2)
	assert.Equal(t, start.Add(time.Second), firedAt[0])
	assert.Equal(t, start.Add(3*time.Second), firedAt[1])
	assert.Equal(t, start.Add(5*time.Second), fake.Now())
}

func TestFakeRearmFromCallback(t *testing.T) {
	fake := NewFake(time.Unix(0, 0))

	count := 0
	var tick func()
	tick = func() {
		count++
		fake.AfterFunc(time.Second, tick)
	}
	fake.AfterFunc(time.Second, tick)

	fake.Advance(10 * time.Second)
	assert.Equal(t, 10, count)
	assert.Equal(t, 1, fake.Pending())
}

func TestFakeStop(t *testing.T) {
	fake := NewFake(time.Unix(0, 0))

	called := false
	timer := fake.AfterFunc(time.Second, func() { called = true })
	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	fake.Advance(2 * time.Second)
	assert.False(t, called)
}

func TestFakeTiesRunInArmOrder(t *testing.T) {
	fake := NewFake(time.Unix(0, 0))

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		fake.AfterFunc(time.Second, func() { order = append(order, i) })
	}
	fake.Advance(time.Second)
	assert.Equal(t, []int{0, 1, 2}, order)
}
