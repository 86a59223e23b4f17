package display

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"focuslink/internal/core/devicelink"
	"focuslink/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type ack struct {
	Status string `json:"status"`
	Type   string `json:"type"`
}

// Server exposes a Display over HTTP and WebSocket, matching the companion hardware endpoints.
type Server struct {
	router     *gin.Engine
	display    *Display
	hub        *Hub
	upgrader   websocket.Upgrader
	addr       string
	httpServer *http.Server
}

// NewServer creates a server for display on addr. The hub must be running.
func NewServer(display *Display, hub *Hub, addr string) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	server := &Server{
		router:  router,
		display: display,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		addr: addr,
	}
	server.setupRoutes()
	return server
}

func (server *Server) setupRoutes() {
	server.router.GET("/", server.handleRoot)
	server.router.GET("/ping", server.handlePing)
	server.router.GET("/state", server.handleState)
}

// Handler returns the HTTP handler, for embedding or tests.
func (server *Server) Handler() http.Handler {
	return server.router
}

// Start serves until Shutdown.
func (server *Server) Start() error {
	server.httpServer = &http.Server{
		Addr:              server.addr,
		Handler:           server.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("display listening on %s", server.addr)
	err := server.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve display: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and closes sockets.
func (server *Server) Shutdown(ctx context.Context) error {
	server.hub.Stop()
	if server.httpServer == nil {
		return nil
	}
	if err := server.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown display: %w", err)
	}
	return nil
}

func (server *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "online", "message": "display online"})
}

func (server *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, server.display.Snapshot())
}

func (server *Server) handleRoot(c *gin.Context) {
	if !websocket.IsWebSocketUpgrade(c.Request) {
		c.JSON(http.StatusOK, server.display.Snapshot())
		return
	}

	conn, err := server.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("display upgrade: %v", err)
		return
	}
	cl := newClient(conn)
	if !server.hub.add(cl) {
		_ = conn.Close()
		return
	}
	defer server.hub.remove(cl)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("display read from %s: %v", cl.id, err)
			}
			return
		}
		if err := cl.writeJSON(server.handleMessage(message)); err != nil {
			logger.Warn("display ack to %s: %v", cl.id, err)
			return
		}
	}
}

func (server *Server) handleMessage(message []byte) ack {
	var command devicelink.Command
	if err := json.Unmarshal(message, &command); err != nil || command.Type == "" {
		logger.Warn("display could not parse message: %s", message)
		return ack{Status: "error", Type: "parse_error"}
	}
	if err := server.display.Apply(command); err != nil {
		logger.Warn("display: %v", err)
	} else {
		logger.Debug("display applied %s", command.Type)
	}
	return ack{Status: "received", Type: string(command.Type)}
}
