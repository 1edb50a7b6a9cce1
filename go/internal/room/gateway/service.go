package gateway

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Service is the room gateway: the hub plus its WebSocket and admin surfaces.
type Service struct {
	hub               *Hub
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	roomService       *RoomService
}

// Config holds configuration for the room gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
	HubConfig        HubConfig
}

// DefaultConfig returns default configuration for the room gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		HubConfig:        DefaultHubConfig(),
	}
}

// NewService wires the gateway components together.
func NewService(config Config, authenticator TokenAuthenticator, metrics *Metrics, opts ...HubOption) *Service {
	if metrics == nil {
		metrics = NewNopMetrics()
	}
	hub := NewHub(config.HubConfig, append([]HubOption{WithMetrics(metrics)}, opts...)...)
	connectionManager := NewConnectionManager(hub, config.ConnectionConfig)

	return &Service{
		hub:               hub,
		connectionManager: connectionManager,
		wsHandler:         NewWebSocketHandler(connectionManager, authenticator, hub, metrics),
		roomService:       NewRoomService(hub),
	}
}

// Start runs the hub until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	log.Info().Msg("starting room gateway service")
	s.hub.Run(ctx)
	log.Info().Msg("room gateway service stopped")
}

// Hub exposes the dispatcher, e.g. for seeding rooms from the directory.
func (s *Service) Hub() *Hub { return s.hub }

// RegisterRoutes registers the WebSocket and admin routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	path, handler := NewRoomServiceHandler(s.roomService)
	mux.Handle(path, handler)
	log.Info().Str("admin_service", path).Msg("room gateway routes registered")
}
