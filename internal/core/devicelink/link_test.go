package devicelink

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"focuslink/internal/core/clock"
	"focuslink/internal/core/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = time.Second
const pollEvery = 5 * time.Millisecond

type dialResult struct {
	conn Conn
	err  error
}

type fakeDialer struct {
	mu      sync.Mutex
	urls    []string
	results chan dialResult
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{results: make(chan dialResult, 8)}
}

func (dialer *fakeDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialer.mu.Lock()
	dialer.urls = append(dialer.urls, url)
	dialer.mu.Unlock()

	select {
	case result := <-dialer.results:
		return result.conn, result.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (dialer *fakeDialer) count() int {
	dialer.mu.Lock()
	defer dialer.mu.Unlock()
	return len(dialer.urls)
}

type fakeConn struct {
	mu       sync.Mutex
	written  [][]byte
	writeErr error
	incoming chan []byte
	done     chan struct{}
	once     sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		incoming: make(chan []byte, 8),
		done:     make(chan struct{}),
	}
}

func (conn *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case message := <-conn.incoming:
		return 1, message, nil
	case <-conn.done:
		return 0, nil, errors.New("connection closed")
	}
}

func (conn *fakeConn) WriteMessage(_ int, data []byte) error {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	if conn.writeErr != nil {
		return conn.writeErr
	}
	conn.written = append(conn.written, append([]byte(nil), data...))
	return nil
}

func (conn *fakeConn) SetWriteDeadline(time.Time) error {
	return nil
}

func (conn *fakeConn) Close() error {
	conn.once.Do(func() { close(conn.done) })
	return nil
}

func (conn *fakeConn) closed() bool {
	select {
	case <-conn.done:
		return true
	default:
		return false
	}
}

func (conn *fakeConn) commands(t *testing.T) []Command {
	t.Helper()
	conn.mu.Lock()
	defer conn.mu.Unlock()
	commands := make([]Command, 0, len(conn.written))
	for _, raw := range conn.written {
		var command Command
		require.NoError(t, json.Unmarshal(raw, &command))
		commands = append(commands, command)
	}
	return commands
}

func newTestLink(t *testing.T) (*Link, *fakeDialer, *clock.Fake) {
	t.Helper()
	fake := clock.NewFake(time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC))
	dialer := newFakeDialer()
	link := New(model.LinkConfig{
		Target: model.DeviceTarget{Host: "192.168.4.1", Port: 80},
	}, dialer, WithClock(fake))
	t.Cleanup(link.Close)
	return link, dialer, fake
}

func connectWith(t *testing.T, link *Link, dialer *fakeDialer) *fakeConn {
	t.Helper()
	conn := newFakeConn()
	dialer.results <- dialResult{conn: conn}
	link.Connect()
	require.Eventually(t, link.Connected, waitFor, pollEvery)
	return conn
}

func TestConnectIsIdempotentWhileConnecting(t *testing.T) {
	link, dialer, _ := newTestLink(t)

	link.Connect()
	link.Connect()

	assert.Equal(t, StateConnecting, link.State())
	require.Eventually(t, func() bool { return dialer.count() == 1 }, waitFor, pollEvery)
	assert.Never(t, func() bool { return dialer.count() > 1 }, 50*time.Millisecond, pollEvery)
	assert.Equal(t, "ws://192.168.4.1:80/", dialer.urls[0])
}

func TestOpenSendsReadyStatus(t *testing.T) {
	link, dialer, _ := newTestLink(t)
	conn := connectWith(t, link, dialer)

	commands := conn.commands(t)
	require.Len(t, commands, 1)
	assert.Equal(t, CommandStatus, commands[0].Type)
	assert.Equal(t, "ready", commands[0].Status)

	link.Connect()
	assert.Never(t, func() bool { return dialer.count() > 1 }, 50*time.Millisecond, pollEvery)
}

func TestHandshakeTimeoutForcesCloseAndReconnects(t *testing.T) {
	link, dialer, fake := newTestLink(t)

	link.Connect()
	require.Eventually(t, func() bool { return dialer.count() == 1 }, waitFor, pollEvery)

	fake.Advance(10*time.Second - time.Millisecond)
	assert.Equal(t, StateConnecting, link.State())

	fake.Advance(time.Millisecond)
	assert.Equal(t, StateDisconnected, link.State())

	fake.Advance(5*time.Second - time.Millisecond)
	assert.Equal(t, StateDisconnected, link.State())
	assert.Equal(t, 1, dialer.count())

	fake.Advance(time.Millisecond)
	assert.Equal(t, StateConnecting, link.State())
	require.Eventually(t, func() bool { return dialer.count() == 2 }, waitFor, pollEvery)
}

func TestSendWhileDisconnectedFailsAndConnects(t *testing.T) {
	link, dialer, fake := newTestLink(t)

	ok := link.Send(StopCommand(fake.Now()))
	assert.False(t, ok)
	assert.Equal(t, StateConnecting, link.State())
	require.Eventually(t, func() bool { return dialer.count() == 1 }, waitFor, pollEvery)

	assert.False(t, link.Send(StopCommand(fake.Now())))
	assert.Never(t, func() bool { return dialer.count() > 1 }, 50*time.Millisecond, pollEvery)
}

func TestSendWhileConnectedWritesJSON(t *testing.T) {
	link, dialer, fake := newTestLink(t)
	conn := connectWith(t, link, dialer)

	require.True(t, link.Send(ProgressCommand(false, 0, 100, 1500, fake.Now())))

	commands := conn.commands(t)
	require.Len(t, commands, 2)
	last := commands[1]
	assert.Equal(t, CommandProgress, last.Type)
	require.NotNil(t, last.RemainingSeconds)
	assert.Equal(t, 0, *last.RemainingSeconds)
	assert.Equal(t, 100, *last.ProgressPercent)
	assert.Equal(t, fake.Now().UnixMilli(), last.Timestamp)
}

func TestDialErrorSchedulesReconnect(t *testing.T) {
	link, dialer, fake := newTestLink(t)

	dialer.results <- dialResult{err: errors.New("connection refused")}
	link.Connect()
	require.Eventually(t, func() bool { return link.State() == StateDisconnected }, waitFor, pollEvery)

	fake.Advance(5 * time.Second)
	assert.Equal(t, StateConnecting, link.State())
	require.Eventually(t, func() bool { return dialer.count() == 2 }, waitFor, pollEvery)
}

func TestRemoteCloseSchedulesSingleReconnect(t *testing.T) {
	link, dialer, fake := newTestLink(t)
	conn := connectWith(t, link, dialer)

	_ = conn.Close()
	require.Eventually(t, func() bool { return link.State() == StateDisconnected }, waitFor, pollEvery)
	assert.Equal(t, 1, fake.Pending())

	link.mu.Lock()
	link.scheduleReconnectLocked()
	link.scheduleReconnectLocked()
	link.mu.Unlock()
	assert.Equal(t, 1, fake.Pending())

	fake.Advance(5 * time.Second)
	require.Eventually(t, func() bool { return dialer.count() == 2 }, waitFor, pollEvery)
}

func TestWriteErrorDropsConnection(t *testing.T) {
	link, dialer, fake := newTestLink(t)
	conn := connectWith(t, link, dialer)

	conn.mu.Lock()
	conn.writeErr = errors.New("broken pipe")
	conn.mu.Unlock()

	assert.NotPanics(t, func() {
		assert.False(t, link.Send(CompleteCommand(fake.Now())))
	})
	assert.Equal(t, StateDisconnected, link.State())
	assert.True(t, conn.closed())
}

func TestInboundMessagesAreIgnored(t *testing.T) {
	link, dialer, _ := newTestLink(t)
	conn := connectWith(t, link, dialer)

	conn.incoming <- []byte(`{"status":"received","type":"progress"}`)
	assert.Never(t, func() bool { return !link.Connected() }, 50*time.Millisecond, pollEvery)
}

func TestSetTargetRedials(t *testing.T) {
	link, dialer, _ := newTestLink(t)
	conn := connectWith(t, link, dialer)

	link.SetTarget(model.DeviceTarget{Host: "10.0.0.9", Port: 8080})
	assert.True(t, conn.closed())
	assert.Equal(t, StateConnecting, link.State())
	require.Eventually(t, func() bool { return dialer.count() == 2 }, waitFor, pollEvery)

	dialer.mu.Lock()
	assert.Equal(t, "ws://10.0.0.9:8080/", dialer.urls[1])
	dialer.mu.Unlock()
}

func TestCloseStopsReconnecting(t *testing.T) {
	link, dialer, fake := newTestLink(t)
	states := link.Subscribe(8)

	dialer.results <- dialResult{err: errors.New("unreachable")}
	link.Connect()
	require.Eventually(t, func() bool { return link.State() == StateDisconnected }, waitFor, pollEvery)

	link.Close()
	assert.Equal(t, 0, fake.Pending())
	fake.Advance(time.Minute)
	assert.Equal(t, 1, dialer.count())

	var seen []State
	for state := range states {
		seen = append(seen, state)
	}
	assert.Equal(t, []State{StateConnecting, StateDisconnected}, seen)
}

func TestProbe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/ping" {
			writer.WriteHeader(http.StatusNotFound)
			return
		}
		writer.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	host, portText, err := net.SplitHostPort(server.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portText)
	require.NoError(t, err)

	dialer := newFakeDialer()
	link := New(model.LinkConfig{Target: model.DeviceTarget{Host: host, Port: port}}, dialer,
		WithClock(clock.NewFake(time.Now())))
	defer link.Close()

	require.NoError(t, link.Probe(context.Background()))
	assert.Equal(t, StateConnecting, link.State())
}

func TestProbeRejectsBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	host, portText, err := net.SplitHostPort(server.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portText)
	require.NoError(t, err)

	link := New(model.LinkConfig{Target: model.DeviceTarget{Host: host, Port: port}}, newFakeDialer(),
		WithClock(clock.NewFake(time.Now())))
	defer link.Close()

	err = link.Probe(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 503")
	assert.Equal(t, StateDisconnected, link.State())
}
