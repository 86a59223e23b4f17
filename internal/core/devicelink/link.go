package devicelink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"focuslink/internal/core/clock"
	"focuslink/internal/core/model"
	"focuslink/internal/logger"

	"github.com/gorilla/websocket"
)

// ErrLinkClosed is returned by operations on a link after Close.
var ErrLinkClosed = errors.New("device link closed")

// Option configures a Link.
type Option func(*Link)

// WithClock replaces the system clock.
func WithClock(source clock.Clock) Option {
	return func(link *Link) {
		link.clock = source
	}
}

// WithHTTPClient replaces the client used by Probe.
func WithHTTPClient(client *http.Client) Option {
	return func(link *Link) {
		link.httpClient = client
	}
}

// Link keeps at most one live connection to the device and retries forever on a fixed interval.
type Link struct {
	mu         sync.Mutex
	config     model.LinkConfig
	target     model.DeviceTarget
	dialer     Dialer
	clock      clock.Clock
	httpClient *http.Client

	state      State
	conn       Conn
	attempt    uint64
	cancelDial context.CancelFunc
	watchdog   clock.Timer
	reconnect  clock.Timer
	closed     bool
	observers  []chan State
}

// New creates a disconnected link. Call Connect to start it.
func New(config model.LinkConfig, dialer Dialer, options ...Option) *Link {
	config = config.WithDefaults()
	link := &Link{
		config: config,
		target: config.Target,
		dialer: dialer,
		clock:  clock.System(),
		state:  StateDisconnected,
	}
	for _, option := range options {
		option(link)
	}
	if link.httpClient == nil {
		link.httpClient = &http.Client{Timeout: config.ProbeTimeout}
	}
	return link
}

// Subscribe registers an observer of state changes.
func (link *Link) Subscribe(buffer int) <-chan State {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan State, buffer)
	link.mu.Lock()
	link.observers = append(link.observers, ch)
	link.mu.Unlock()
	return ch
}

// State returns the current connection state.
func (link *Link) State() State {
	link.mu.Lock()
	defer link.mu.Unlock()
	return link.state
}

// Connected reports whether commands can currently be delivered.
func (link *Link) Connected() bool {
	return link.State() == StateConnected
}

// Target returns the configured device address.
func (link *Link) Target() model.DeviceTarget {
	link.mu.Lock()
	defer link.mu.Unlock()
	return link.target
}

// Connect opens a connection unless one is already connecting or open.
func (link *Link) Connect() {
	link.mu.Lock()
	defer link.mu.Unlock()
	link.connectLocked()
}

// SetTarget switches to a new device address, dropping the current connection.
func (link *Link) SetTarget(target model.DeviceTarget) {
	link.mu.Lock()
	defer link.mu.Unlock()
	if link.closed {
		return
	}
	link.target = target
	link.teardownLocked()
	link.setStateLocked(StateDisconnected)
	link.connectLocked()
}

// Send delivers one command if connected. Otherwise it reports false and starts a reconnect
// attempt. It never panics and never blocks beyond the configured write timeout.
func (link *Link) Send(command Command) bool {
	link.mu.Lock()
	defer link.mu.Unlock()

	if link.state != StateConnected || link.conn == nil {
		logger.Debug("device send skipped (%s): %s", link.state, command.Type)
		link.connectLocked()
		return false
	}
	return link.sendLocked(command)
}

// Probe checks that the device answers on its HTTP ping endpoint and then connects.
func (link *Link) Probe(ctx context.Context) error {
	target := link.Target()
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, target.PingURL(), nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	response, err := link.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("ping %s: %w", target.Address(), err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("ping %s: unexpected status %d", target.Address(), response.StatusCode)
	}
	link.Connect()
	return nil
}

// Close tears the link down permanently and closes observer channels.
func (link *Link) Close() {
	link.mu.Lock()
	if link.closed {
		link.mu.Unlock()
		return
	}
	link.closed = true
	link.teardownLocked()
	link.setStateLocked(StateDisconnected)
	observers := link.observers
	link.observers = nil
	link.mu.Unlock()

	for _, ch := range observers {
		close(ch)
	}
}

func (link *Link) connectLocked() {
	if link.closed {
		return
	}
	if link.state == StateConnecting || link.state == StateConnected {
		return
	}
	if !link.target.Valid() {
		logger.Warn("device target %q is not dialable", link.target.Address())
		link.scheduleReconnectLocked()
		return
	}

	link.stopTimer(&link.reconnect)
	link.teardownLocked()

	link.attempt++
	attempt := link.attempt
	ctx, cancel := context.WithCancel(context.Background())
	link.cancelDial = cancel
	link.setStateLocked(StateConnecting)

	url := link.target.URL()
	logger.Info("connecting to device at %s", url)
	link.watchdog = link.clock.AfterFunc(link.config.ConnectTimeout, func() {
		link.handleTimeout(attempt)
	})

	go func() {
		conn, err := link.dialer.Dial(ctx, url)
		link.handleDial(attempt, conn, err)
	}()
}

func (link *Link) handleDial(attempt uint64, conn Conn, err error) {
	link.mu.Lock()
	defer link.mu.Unlock()

	if attempt != link.attempt || link.state != StateConnecting || link.closed {
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	if err != nil {
		logger.Warn("device connection failed: %v", err)
		link.failLocked()
		return
	}

	link.stopTimer(&link.watchdog)
	link.conn = conn
	link.setStateLocked(StateConnected)
	logger.Info("device connected at %s", link.target.Address())

	go link.readLoop(conn)
	link.sendLocked(ReadyCommand())
}

func (link *Link) handleTimeout(attempt uint64) {
	link.mu.Lock()
	defer link.mu.Unlock()

	if attempt != link.attempt || link.state != StateConnecting {
		return
	}
	logger.Warn("device connection timed out after %s", link.config.ConnectTimeout)
	link.failLocked()
}

func (link *Link) handleClosed(conn Conn, err error) {
	link.mu.Lock()
	defer link.mu.Unlock()

	if link.conn != conn {
		return
	}
	logger.Warn("device connection closed: %v", err)
	link.failLocked()
}

func (link *Link) readLoop(conn Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			link.handleClosed(conn, err)
			return
		}
		logger.Debug("device message: %s", message)
	}
}

func (link *Link) sendLocked(command Command) bool {
	payload, err := json.Marshal(command)
	if err != nil {
		logger.Error("encode device command %s: %v", command.Type, err)
		return false
	}
	conn := link.conn
	_ = conn.SetWriteDeadline(link.clock.Now().Add(link.config.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		logger.Warn("device write failed: %v", err)
		link.failLocked()
		return false
	}
	return true
}

// failLocked drops whatever is in flight and arms the reconnect timer.
func (link *Link) failLocked() {
	link.teardownLocked()
	link.setStateLocked(StateDisconnected)
	link.scheduleReconnectLocked()
}

func (link *Link) scheduleReconnectLocked() {
	if link.closed {
		return
	}
	link.stopTimer(&link.reconnect)
	logger.Info("reconnecting to device in %s", link.config.ReconnectInterval)
	link.reconnect = link.clock.AfterFunc(link.config.ReconnectInterval, link.Connect)
}

func (link *Link) teardownLocked() {
	link.stopTimer(&link.watchdog)
	if link.closed {
		link.stopTimer(&link.reconnect)
	}
	if link.cancelDial != nil {
		link.cancelDial()
		link.cancelDial = nil
	}
	if link.conn != nil {
		_ = link.conn.Close()
		link.conn = nil
	}
}

func (link *Link) stopTimer(timer *clock.Timer) {
	if *timer != nil {
		(*timer).Stop()
		*timer = nil
	}
}

func (link *Link) setStateLocked(state State) {
	if link.state == state {
		return
	}
	link.state = state
	for _, ch := range link.observers {
		select {
		case ch <- state:
		default:
		}
	}
}
