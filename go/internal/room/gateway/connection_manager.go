package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mcdev12/focusroom/go/internal/auth"
	"github.com/rs/zerolog/log"
)

// ConnectionManager upgrades HTTP requests and runs the read/write pumps of each connection.
type ConnectionManager struct {
	hub      *Hub
	upgrader websocket.Upgrader
	config   ConnectionConfig
}

// Connection represents a WebSocket connection to a client
type Connection struct {
	ID          string
	Identity    auth.Identity
	ConnectedAt time.Time

	ws      *websocket.Conn
	send    chan []byte // closed by the hub only
	manager *ConnectionManager
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096, // frames above this are closed with 1009 by gorilla
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBufferSize:  256,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(hub *Hub, config ConnectionConfig) *ConnectionManager {
	if config.SendBufferSize <= 0 {
		config.SendBufferSize = 256
	}
	return &ConnectionManager{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
	}
}

// Upgrade switches the request to the WebSocket protocol.
func (cm *ConnectionManager) Upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}
	return conn, nil
}

// Reject terminates a freshly upgraded connection with a close code and reason.
func (cm *ConnectionManager) Reject(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(cm.config.WriteTimeout)
	if err := conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline); err != nil {
		log.Debug().Err(err).Int("code", code).Msg("failed to write close frame")
	}
	conn.Close()
}

// Attach registers an authenticated connection with the hub and starts its pumps.
func (cm *ConnectionManager) Attach(conn *websocket.Conn, identity auth.Identity) (*Connection, error) {
	c := cm.newConnection(conn, identity)
	if !cm.hub.Register(c) {
		conn.Close()
		return nil, ErrHubStopped
	}

	go c.writePump()
	go c.readPump()

	log.Info().
		Str("connection_id", c.ID).
		Str("user_id", identity.UserID).
		Msg("WebSocket connection established")

	return c, nil
}

func (cm *ConnectionManager) newConnection(conn *websocket.Conn, identity auth.Identity) *Connection {
	return &Connection{
		ID:          uuid.New().String(),
		Identity:    identity,
		ConnectedAt: time.Now(),
		ws:          conn,
		send:        make(chan []byte, cm.config.SendBufferSize),
		manager:     cm,
	}
}

func (c *Connection) closeTransport() {
	if c.ws != nil {
		c.ws.Close()
	}
}

// writePump is the only writer of the socket, which keeps per-connection ordering.
func (c *Connection) writePump() {
	cfg := c.manager.config
	ticker := time.NewTicker(cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.ws.Close()
		c.manager.hub.Unregister(c)
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump feeds client frames to the hub one at a time.
func (c *Connection) readPump() {
	cfg := c.manager.config
	defer func() {
		c.manager.hub.Unregister(c)
		c.ws.Close()
	}()

	c.ws.SetReadLimit(cfg.MaxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) &&
				!errors.Is(err, websocket.ErrReadLimit) {
				log.Warn().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			return
		}

		if !c.manager.hub.Deliver(c, message) {
			return
		}
		c.ws.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	}
}
