package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeviceTargetURLs(t *testing.T) {
	target := DeviceTarget{Host: "192.168.4.1", Port: 80}
	assert.Equal(t, "ws://192.168.4.1:80/", target.URL())
	assert.Equal(t, "http://192.168.4.1:80/ping", target.PingURL())
	assert.True(t, target.Valid())

	assert.False(t, DeviceTarget{Port: 80}.Valid())
	assert.False(t, DeviceTarget{Host: "display.local", Port: 70000}.Valid())
}

func TestFocusConfigDefaults(t *testing.T) {
	config := FocusConfig{FocusDuration: -time.Minute}.WithDefaults()
	assert.Equal(t, time.Duration(0), config.FocusDuration)
	assert.Equal(t, time.Second, config.TickInterval)
	assert.Equal(t, 3*time.Second, config.ActivityCheckInterval)
	assert.Equal(t, 20*time.Second, config.WarningAfter)
	assert.Equal(t, 45*time.Second, config.InactiveAfter)
}

func TestLinkConfigDefaults(t *testing.T) {
	config := LinkConfig{Target: DeviceTarget{Host: "10.0.0.2", Port: 81}}.WithDefaults()
	assert.Equal(t, 5*time.Second, config.ReconnectInterval)
	assert.Equal(t, 10*time.Second, config.ConnectTimeout)
	assert.Equal(t, "10.0.0.2", config.Target.Host)
}
