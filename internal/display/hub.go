package display

import (
	"encoding/json"
	"sync"
	"time"

	"focuslink/internal/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeWait = 2 * time.Second

// client is one connected socket. Writes are serialized because the read loop acknowledges
// commands while the hub broadcasts snapshots.
type client struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func newClient(conn *websocket.Conn) *client {
	return &client{id: uuid.NewString(), conn: conn}
}

func (client *client) writeJSON(value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	client.mu.Lock()
	defer client.mu.Unlock()
	_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return client.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub fans display snapshots out to every connected socket.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan any
	register   chan *client
	unregister chan *client
	stopCh     chan struct{}
	doneCh     chan struct{}
	mutex      sync.RWMutex
}

// NewHub creates a hub. Call Run to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan any, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until Stop.
func (hub *Hub) Run() {
	defer close(hub.doneCh)
	for {
		select {
		case <-hub.stopCh:
			hub.mutex.Lock()
			for c := range hub.clients {
				_ = c.conn.Close()
				delete(hub.clients, c)
			}
			hub.mutex.Unlock()
			return

		case c := <-hub.register:
			hub.mutex.Lock()
			hub.clients[c] = true
			total := len(hub.clients)
			hub.mutex.Unlock()
			logger.Info("display client %s connected, total %d", c.id, total)

		case c := <-hub.unregister:
			hub.mutex.Lock()
			if _, ok := hub.clients[c]; ok {
				delete(hub.clients, c)
				_ = c.conn.Close()
			}
			total := len(hub.clients)
			hub.mutex.Unlock()
			logger.Info("display client %s disconnected, total %d", c.id, total)

		case message := <-hub.broadcast:
			hub.mutex.Lock()
			for c := range hub.clients {
				if err := c.writeJSON(message); err != nil {
					logger.Warn("broadcast to %s: %v", c.id, err)
					_ = c.conn.Close()
					delete(hub.clients, c)
				}
			}
			hub.mutex.Unlock()
		}
	}
}

// Stop closes every client and ends Run.
func (hub *Hub) Stop() {
	select {
	case <-hub.stopCh:
		return
	default:
	}
	close(hub.stopCh)
	<-hub.doneCh
}

// Broadcast queues a message for every client, dropping it if the queue is full.
func (hub *Hub) Broadcast(message any) {
	select {
	case hub.broadcast <- message:
	default:
		logger.Warn("display broadcast queue full, dropping update")
	}
}

// Count returns the number of connected clients.
func (hub *Hub) Count() int {
	hub.mutex.RLock()
	defer hub.mutex.RUnlock()
	return len(hub.clients)
}

func (hub *Hub) add(c *client) bool {
	select {
	case hub.register <- c:
		return true
	case <-hub.stopCh:
		return false
	}
}

func (hub *Hub) remove(c *client) {
	select {
	case hub.unregister <- c:
	case <-hub.stopCh:
	}
}
