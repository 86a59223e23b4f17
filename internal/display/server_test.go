package display

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"focuslink/internal/core/clock"
	"focuslink/internal/core/devicelink"
	"focuslink/internal/core/model"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T) (*httptest.Server, *Display, *Hub) {
	t.Helper()
	hub := NewHub()
	go hub.Run()
	display := New(clock.System(), func(snapshot Snapshot) { hub.Broadcast(snapshot) })
	server := NewServer(display, hub, "")
	httpServer := httptest.NewServer(server.Handler())
	t.Cleanup(func() {
		httpServer.Close()
		hub.Stop()
		display.Close()
	})
	return httpServer, display, hub
}

func targetOf(t *testing.T, server *httptest.Server) model.DeviceTarget {
	t.Helper()
	host, portText, err := net.SplitHostPort(server.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portText)
	require.NoError(t, err)
	return model.DeviceTarget{Host: host, Port: port}
}

func TestPingAndState(t *testing.T) {
	server, _, _ := startTestServer(t)

	response, err := http.Get(server.URL + "/ping")
	require.NoError(t, err)
	defer response.Body.Close()
	assert.Equal(t, http.StatusOK, response.StatusCode)

	stateResponse, err := http.Get(server.URL + "/state")
	require.NoError(t, err)
	defer stateResponse.Body.Close()
	var snapshot Snapshot
	require.NoError(t, json.NewDecoder(stateResponse.Body).Decode(&snapshot))
	assert.Equal(t, StateIdle, snapshot.State)
}

func TestSocketAcknowledgesCommands(t *testing.T) {
	server, display, _ := startTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, ack{Status: "error", Type: "parse_error"}, readAck(t, conn))

	payload, err := json.Marshal(devicelink.StartCommand(false, 25, 1500, 1500, "", time.Now()))
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, payload))
	assert.Equal(t, ack{Status: "received", Type: "start"}, readAck(t, conn))
	assert.Equal(t, StateRunning, display.Snapshot().State)
}

// readAck skips broadcast snapshots until an acknowledgement arrives.
func readAck(t *testing.T, conn *websocket.Conn) ack {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, message, err := conn.ReadMessage()
		require.NoError(t, err)
		var fields map[string]any
		require.NoError(t, json.Unmarshal(message, &fields))
		if _, ok := fields["status"]; !ok {
			continue
		}
		var result ack
		require.NoError(t, json.Unmarshal(message, &result))
		return result
	}
}

func TestLinkDrivesDisplay(t *testing.T) {
	server, display, hub := startTestServer(t)

	link := devicelink.New(model.LinkConfig{Target: targetOf(t, server)}, devicelink.NewWebsocketDialer(time.Second))
	defer link.Close()

	require.NoError(t, link.Probe(context.Background()))
	require.Eventually(t, link.Connected, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return display.Snapshot().Message == "device connected" }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.True(t, link.Send(devicelink.BreakStartCommand(5, 300, 300, time.Now())))
	require.Eventually(t, func() bool { return display.Snapshot().State == StateBreakRunning }, 2*time.Second, 10*time.Millisecond)

	require.True(t, link.Send(devicelink.StopCommand(time.Now())))
	require.Eventually(t, func() bool { return display.Snapshot().State == StateIdle }, 2*time.Second, 10*time.Millisecond)
}
